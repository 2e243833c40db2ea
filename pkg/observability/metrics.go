package observability

import (
	"context"
	"sync"

	"github.com/aretw0/palaver/pkg/domain"
	"github.com/prometheus/client_golang/prometheus"
)

// Metrics holds the Prometheus collectors fed by the engine hooks.
type Metrics struct {
	NodeVisits           *prometheus.CounterVec
	ConversationsStarted *prometheus.CounterVec
	ConversationsEnded   *prometheus.CounterVec
	ActiveConversations  prometheus.Gauge
	Effects              *prometheus.CounterVec

	// active holds the conversations this process started. A conversation
	// resumed from a store and ended here was never counted as active.
	active sync.Map
}

type conversationKey struct {
	sessionID, conversationID string
}

// NewMetrics creates the collectors and registers them with reg.
// A nil reg uses prometheus.DefaultRegisterer.
func NewMetrics(reg prometheus.Registerer) *Metrics {
	if reg == nil {
		reg = prometheus.DefaultRegisterer
	}
	m := &Metrics{
		NodeVisits: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_node_visits_total",
				Help: "Total number of dialogue nodes entered",
			},
			[]string{"owner_id", "node_type"},
		),
		ConversationsStarted: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_conversations_started_total",
				Help: "Total number of conversations started",
			},
			[]string{"owner_id"},
		),
		ConversationsEnded: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_conversations_ended_total",
				Help: "Total number of conversations ended, by reason",
			},
			[]string{"owner_id", "reason"},
		),
		ActiveConversations: prometheus.NewGauge(
			prometheus.GaugeOpts{
				Name: "palaver_conversations_active",
				Help: "Conversations started and not yet ended by this process",
			},
		),
		Effects: prometheus.NewCounterVec(
			prometheus.CounterOpts{
				Name: "palaver_effects_total",
				Help: "World-state effects attempted by nodes",
			},
			[]string{"effect", "applied"},
		),
	}
	reg.MustRegister(m.NodeVisits, m.ConversationsStarted, m.ConversationsEnded, m.ActiveConversations, m.Effects)
	return m
}

// Hooks returns lifecycle hooks that record into m.
func (m *Metrics) Hooks() domain.LifecycleHooks {
	return domain.LifecycleHooks{
		OnNodeEnter: func(ctx context.Context, e *domain.NodeEvent) {
			m.NodeVisits.WithLabelValues(e.OwnerID, string(e.NodeType)).Inc()
		},
		OnConversationStart: func(ctx context.Context, e *domain.ConversationEvent) {
			m.ConversationsStarted.WithLabelValues(e.OwnerID).Inc()
			if _, loaded := m.active.LoadOrStore(conversationKey{e.SessionID, e.ConversationID}, struct{}{}); !loaded {
				m.ActiveConversations.Inc()
			}
		},
		OnConversationEnd: func(ctx context.Context, e *domain.ConversationEvent) {
			m.ConversationsEnded.WithLabelValues(e.OwnerID, e.Reason).Inc()
			if _, ok := m.active.LoadAndDelete(conversationKey{e.SessionID, e.ConversationID}); ok {
				m.ActiveConversations.Dec()
			}
		},
		OnEffect: func(ctx context.Context, e *domain.EffectEvent) {
			applied := "false"
			if e.Applied {
				applied = "true"
			}
			m.Effects.WithLabelValues(e.Effect, applied).Inc()
		},
	}
}
