package runtime

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/google/uuid"
)

// DefaultStepLimit bounds the nodes run by a single call, so a cycle without a
// suspension point cannot spin forever.
const DefaultStepLimit = 1000

// Engine interprets conversation graphs. It holds no per-session state: every
// call receives the session it works on and leaves the cursor in
// Session.Conversation.
type Engine struct {
	scripts   ports.ScriptStore
	registry  ports.NodeRegistry
	catalog   ports.ObjectCatalog
	hooks     domain.LifecycleHooks
	logger    *slog.Logger
	debug     bool
	stepLimit int
	newID     func() string
	now       func() time.Time
}

// EngineOption configures an Engine.
type EngineOption func(*Engine)

// WithLogger sets the structured logger.
func WithLogger(logger *slog.Logger) EngineOption {
	return func(e *Engine) {
		if logger != nil {
			e.logger = logger
		}
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) EngineOption {
	return func(e *Engine) {
		e.hooks = hooks
	}
}

// WithDebug makes diagnostics visible on the event sink.
func WithDebug(debug bool) EngineOption {
	return func(e *Engine) {
		e.debug = debug
	}
}

// WithObjectCatalog resolves object names used in player notices.
func WithObjectCatalog(catalog ports.ObjectCatalog) EngineOption {
	return func(e *Engine) {
		e.catalog = catalog
	}
}

// WithIDGenerator overrides how conversation ids are minted.
func WithIDGenerator(fn func() string) EngineOption {
	return func(e *Engine) {
		if fn != nil {
			e.newID = fn
		}
	}
}

// WithStepLimit overrides DefaultStepLimit.
func WithStepLimit(n int) EngineOption {
	return func(e *Engine) {
		if n > 0 {
			e.stepLimit = n
		}
	}
}

// NewEngine creates an engine over a script store. The registry classifies
// node types and may be nil when every node carries its own category.
func NewEngine(scripts ports.ScriptStore, registry ports.NodeRegistry, opts ...EngineOption) *Engine {
	e := &Engine{
		scripts:   scripts,
		registry:  registry,
		logger:    logging.NewNop(),
		stepLimit: DefaultStepLimit,
		newID:     uuid.NewString,
		now:       time.Now,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Graph resolves the dialogue graph of an owner.
func (e *Engine) Graph(ctx context.Context, ownerID string) (*domain.ConversationGraph, error) {
	owner, err := e.scripts.Owner(ctx, ownerID)
	if err != nil {
		return nil, err
	}
	return e.extract(owner), nil
}

func (e *Engine) extract(owner domain.Owner) *domain.ConversationGraph {
	var classify domain.Classifier
	if e.registry != nil {
		classify = e.registry.Category
	}
	return domain.ExtractConversation(owner, classify)
}

// Start begins a conversation with an owner and runs it up to the first
// suspension point. It has no side effects unless it returns domain.Started.
// Errors are reserved for script store failures.
func (e *Engine) Start(ctx context.Context, sess *domain.Session, ownerID string, sink ports.EventSink) (domain.StartResult, error) {
	sink = orDiscard(sink)
	if sess == nil {
		return domain.OwnerNotFound, &domain.StateError{Op: "start", Reason: "nil session"}
	}
	if active := sess.ActiveConversation(); active != nil {
		e.diagnose(ctx, sink, sess, &domain.StateError{
			Op:     "start",
			Reason: fmt.Sprintf("conversation with %s already active", active.OwnerID),
		})
		return domain.AlreadyActive, nil
	}

	owner, err := e.scripts.Owner(ctx, ownerID)
	if errors.Is(err, domain.ErrOwnerNotFound) {
		e.diagnose(ctx, sink, sess, &domain.ContentError{OwnerID: ownerID, Reason: "owner not found"})
		return domain.OwnerNotFound, nil
	}
	if err != nil {
		return domain.OwnerNotFound, fmt.Errorf("failed to resolve owner %s: %w", ownerID, err)
	}

	graph := e.extract(owner)
	if graph.Len() == 0 {
		e.diagnose(ctx, sink, sess, &domain.ContentError{OwnerID: owner.ID, Reason: "no dialogue nodes"})
		return domain.EmptyGraph, nil
	}
	starts := graph.StartNodes()
	if len(starts) == 0 {
		e.diagnose(ctx, sink, sess, &domain.ContentError{OwnerID: owner.ID, Reason: "no Start node"})
		return domain.NoStartNode, nil
	}
	if len(starts) > 1 {
		e.diagnose(ctx, sink, sess, &domain.ContentError{
			OwnerID: owner.ID,
			NodeID:  starts[0].ID,
			Reason:  fmt.Sprintf("%d Start nodes, using the first", len(starts)),
		})
	}

	state := domain.NewExecutionState(e.newID(), owner.ID, starts[0].ID)
	sess.Conversation = state
	e.logger.Debug("conversation started",
		"session_id", sess.ID, "owner_id", owner.ID, "conversation_id", state.ConversationID)
	if e.hooks.OnConversationStart != nil {
		e.hooks.OnConversationStart(ctx, &domain.ConversationEvent{
			Timestamp:      e.now(),
			SessionID:      sess.ID,
			ConversationID: state.ConversationID,
			OwnerID:        owner.ID,
		})
	}

	x := e.newExecution(ctx, sess, owner, graph, sink)
	x.run(starts[0].ID)
	return domain.Started, nil
}

// SelectOption consumes the player's choice among the presented options.
// Stale or out-of-range indices are a no-op.
func (e *Engine) SelectOption(ctx context.Context, sess *domain.Session, index int, sink ports.EventSink) (domain.StepResult, error) {
	x, err := e.resume(ctx, sess, "select_option", sink)
	if x == nil {
		return domain.NoOp, err
	}
	if !x.state.HasOptions() {
		x.diagnose(&domain.StateError{Op: "select_option", Reason: "no options presented"})
		return domain.NoOp, nil
	}
	if index < 0 || index >= len(x.state.CurrentOptions) {
		x.diagnose(&domain.StateError{
			Op:     "select_option",
			Reason: fmt.Sprintf("index %d out of range [0,%d)", index, len(x.state.CurrentOptions)),
		})
		return domain.NoOp, nil
	}

	chosen := x.state.CurrentOptions[index]
	port := domain.OptionPort(chosen.Slot)
	target, ok := x.graph.Follow(x.state.CurrentNodeID, port)
	if !ok {
		x.diagnose(&domain.ContentError{
			OwnerID: x.owner.ID,
			NodeID:  x.state.CurrentNodeID,
			Port:    port,
			Reason:  "option is not wired",
		})
		return domain.NoOp, nil
	}
	x.state.CurrentOptions = nil
	x.run(target)
	return domain.Continued, nil
}

// Continue follows the Exec port of the current node. A node without one
// leaves the conversation parked.
func (e *Engine) Continue(ctx context.Context, sess *domain.Session, sink ports.EventSink) (domain.StepResult, error) {
	return e.resumeVia(ctx, sess, "continue", domain.PortExec, sink)
}

// CloseShop follows the OnClose port of the current node, after the host's
// trade window closed.
func (e *Engine) CloseShop(ctx context.Context, sess *domain.Session, sink ports.EventSink) (domain.StepResult, error) {
	return e.resumeVia(ctx, sess, "close_shop", domain.PortOnClose, sink)
}

func (e *Engine) resumeVia(ctx context.Context, sess *domain.Session, op, port string, sink ports.EventSink) (domain.StepResult, error) {
	x, err := e.resume(ctx, sess, op, sink)
	if x == nil {
		return domain.NoOp, err
	}
	target, ok := x.graph.Follow(x.state.CurrentNodeID, port)
	if !ok {
		e.logger.Debug("nothing to follow",
			"session_id", sess.ID, "node_id", x.state.CurrentNodeID, "port", port)
		return domain.NoOp, nil
	}
	x.state.CurrentOptions = nil
	x.run(target)
	return domain.Continued, nil
}

// EndConversation force-terminates the session's conversation. It is
// idempotent and always emits ConversationEnded.
func (e *Engine) EndConversation(ctx context.Context, sess *domain.Session, sink ports.EventSink) {
	sink = orDiscard(sink)
	if sess != nil && sess.Conversation != nil {
		state := sess.Conversation
		wasActive := state.Active
		state.Terminate()
		sess.Conversation = nil
		if wasActive {
			e.notifyEnd(ctx, sess, state, domain.EndForced)
		}
	}
	sink.Emit(domain.ConversationEnded{})
}

// Pending re-derives the events a parked conversation is waiting on, so a
// frontend can redraw after loading the session from storage.
func (e *Engine) Pending(ctx context.Context, sess *domain.Session) ([]domain.Event, error) {
	if sess == nil {
		return nil, nil
	}
	state := sess.ActiveConversation()
	if state == nil {
		return nil, nil
	}
	if state.HasOptions() {
		return []domain.Event{domain.OptionsPresented{
			Options: append([]domain.Option{}, state.CurrentOptions...),
		}}, nil
	}

	owner, err := e.scripts.Owner(ctx, state.OwnerID)
	if errors.Is(err, domain.ErrOwnerNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner %s: %w", state.OwnerID, err)
	}
	node, ok := e.extract(owner).Node(state.CurrentNodeID)
	if !ok {
		return nil, nil
	}
	if t, _ := domain.ParseNodeType(string(node.Type)); t == domain.NodeShop {
		return []domain.Event{domain.TradeOpened{NPCID: owner.ID, NPCName: owner.DisplayName}}, nil
	}
	return nil, nil
}

// resume rebuilds the execution of the session's active conversation.
// It returns nil when there is nothing to resume.
func (e *Engine) resume(ctx context.Context, sess *domain.Session, op string, sink ports.EventSink) (*execution, error) {
	sink = orDiscard(sink)
	if sess == nil {
		return nil, &domain.StateError{Op: op, Reason: "nil session"}
	}
	state := sess.ActiveConversation()
	if state == nil {
		e.diagnose(ctx, sink, sess, &domain.StateError{Op: op, Reason: "no active conversation"})
		return nil, nil
	}

	owner, err := e.scripts.Owner(ctx, state.OwnerID)
	if errors.Is(err, domain.ErrOwnerNotFound) {
		e.diagnose(ctx, sink, sess, &domain.ContentError{OwnerID: state.OwnerID, Reason: "owner disappeared"})
		e.abort(ctx, sess, sink)
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to resolve owner %s: %w", state.OwnerID, err)
	}

	graph := e.extract(owner)
	if _, ok := graph.Node(state.CurrentNodeID); !ok {
		e.diagnose(ctx, sink, sess, &domain.ContentError{
			OwnerID: owner.ID,
			NodeID:  state.CurrentNodeID,
			Reason:  "current node disappeared",
		})
		e.abort(ctx, sess, sink)
		return nil, nil
	}
	return e.newExecution(ctx, sess, owner, graph, sink), nil
}

// abort ends a conversation that can no longer be resolved.
func (e *Engine) abort(ctx context.Context, sess *domain.Session, sink ports.EventSink) {
	state := sess.Conversation
	state.Terminate()
	sess.Conversation = nil
	e.notifyEnd(ctx, sess, state, domain.EndContentError)
	sink.Emit(domain.ConversationEnded{})
}

func (e *Engine) notifyEnd(ctx context.Context, sess *domain.Session, state *domain.ExecutionState, reason string) {
	e.logger.Debug("conversation ended",
		"session_id", sess.ID, "owner_id", state.OwnerID,
		"conversation_id", state.ConversationID, "reason", reason)
	if e.hooks.OnConversationEnd != nil {
		e.hooks.OnConversationEnd(ctx, &domain.ConversationEvent{
			Timestamp:      e.now(),
			SessionID:      sess.ID,
			ConversationID: state.ConversationID,
			OwnerID:        state.OwnerID,
			Reason:         reason,
		})
	}
}

// diagnose logs a content or state error and, in debug mode, shows it on the sink.
func (e *Engine) diagnose(ctx context.Context, sink ports.EventSink, sess *domain.Session, err error) {
	attrs := []any{"error", err}
	if sess != nil {
		attrs = append(attrs, "session_id", sess.ID)
	}
	var contentErr *domain.ContentError
	if errors.As(err, &contentErr) {
		attrs = append(attrs, "owner_id", contentErr.OwnerID, "node_id", contentErr.NodeID)
		e.logger.WarnContext(ctx, "content error", attrs...)
	} else {
		e.logger.DebugContext(ctx, "ignored call", attrs...)
	}
	if e.debug {
		sink.Emit(domain.SystemMessage{Severity: domain.SeverityDiagnostic, Text: err.Error()})
	}
}

func orDiscard(sink ports.EventSink) ports.EventSink {
	if sink == nil {
		return domain.EventFunc(func(domain.Event) {})
	}
	return sink
}
