package observability

import (
	"context"
	"log/slog"

	"github.com/aretw0/palaver/pkg/domain"
)

// LoggingHooks returns lifecycle hooks that log every event at Debug level,
// and conversation boundaries at Info.
func LoggingHooks(logger *slog.Logger) domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			logger.DebugContext(ctx, "node_enter",
				"session_id", e.SessionID,
				"owner_id", e.OwnerID,
				"node_id", e.NodeID,
				"type", e.NodeType,
			)
		},
		OnConversationStart: func(ctx context.Context, e *domain.ConversationEvent) {
			logger.InfoContext(ctx, "conversation_start",
				"session_id", e.SessionID,
				"conversation_id", e.ConversationID,
				"owner_id", e.OwnerID,
			)
		},
		OnConversationEnd: func(ctx context.Context, e *domain.ConversationEvent) {
			logger.InfoContext(ctx, "conversation_end",
				"session_id", e.SessionID,
				"conversation_id", e.ConversationID,
				"owner_id", e.OwnerID,
				"reason", e.Reason,
			)
		},
		OnEffect: func(ctx context.Context, e *domain.EffectEvent) {
			logger.DebugContext(ctx, "effect",
				"session_id", e.SessionID,
				"node_id", e.NodeID,
				"effect", e.Effect,
				"applied", e.Applied,
			)
		},
	}
}

// Combine returns hooks that call every non-nil callback of each set, in order.
func Combine(sets ...domain.LifecycleHooks) domain.LifecycleHooks {
	var out domain.LifecycleHooks
	for _, h := range sets {
		if h.OnNodeEnter != nil {
			out.OnNodeEnter = chain(out.OnNodeEnter, h.OnNodeEnter)
		}
		if h.OnConversationStart != nil {
			out.OnConversationStart = chain(out.OnConversationStart, h.OnConversationStart)
		}
		if h.OnConversationEnd != nil {
			out.OnConversationEnd = chain(out.OnConversationEnd, h.OnConversationEnd)
		}
		if h.OnEffect != nil {
			out.OnEffect = chain(out.OnEffect, h.OnEffect)
		}
	}
	return out
}

func chain[E any](first, next func(context.Context, E)) func(context.Context, E) {
	if first == nil {
		return next
	}
	return func(ctx context.Context, e E) {
		first(ctx, e)
		next(ctx, e)
	}
}
