package domain

import (
	"context"
	"time"
)

// EventKind names an output event for transport encodings.
type EventKind string

const (
	EventDialogue          EventKind = "dialogue"
	EventOptions           EventKind = "options"
	EventTradeOpened       EventKind = "trade_opened"
	EventConversationEnded EventKind = "conversation_ended"
	EventSystemMessage     EventKind = "system_message"
)

// Event is an output of the interpreter. The set of implementations is closed.
type Event interface {
	Kind() EventKind
	isEvent()
}

// DialogueLine is a line spoken by the conversation owner.
type DialogueLine struct {
	Text    string `json:"text"`
	Speaker string `json:"speaker"`
	Emotion string `json:"emotion,omitempty"`
	IsNPC   bool   `json:"is_npc"`
}

// OptionsPresented carries the choices the player must pick from.
type OptionsPresented struct {
	Options []Option `json:"options"`
}

// TradeOpened asks the host to open the trade window of an NPC.
type TradeOpened struct {
	NPCID   string `json:"npc_id"`
	NPCName string `json:"npc_name"`
}

// ConversationEnded signals the conversation is over.
type ConversationEnded struct{}

// Severity separates player-visible notices from diagnostics.
type Severity string

const (
	SeverityNotice     Severity = "notice"
	SeverityDiagnostic Severity = "diagnostic"
)

// SystemMessage is free text outside the dialogue itself.
type SystemMessage struct {
	Severity Severity `json:"severity"`
	Text     string   `json:"text"`
}

func (DialogueLine) Kind() EventKind      { return EventDialogue }
func (OptionsPresented) Kind() EventKind  { return EventOptions }
func (TradeOpened) Kind() EventKind       { return EventTradeOpened }
func (ConversationEnded) Kind() EventKind { return EventConversationEnded }
func (SystemMessage) Kind() EventKind     { return EventSystemMessage }

func (DialogueLine) isEvent()      {}
func (OptionsPresented) isEvent()  {}
func (TradeOpened) isEvent()       {}
func (ConversationEnded) isEvent() {}
func (SystemMessage) isEvent()     {}

// EventLog is an ordered in-memory sink.
type EventLog struct {
	events []Event
}

// Emit appends an event.
func (l *EventLog) Emit(e Event) {
	l.events = append(l.events, e)
}

// Events returns the recorded events.
func (l *EventLog) Events() []Event {
	return append([]Event{}, l.events...)
}

// Drain returns the recorded events and clears the log.
func (l *EventLog) Drain() []Event {
	out := l.events
	l.events = nil
	return out
}

// Kinds lists the kinds of the recorded events, in order.
func (l *EventLog) Kinds() []EventKind {
	out := make([]EventKind, 0, len(l.events))
	for _, e := range l.events {
		out = append(out, e.Kind())
	}
	return out
}

// EventFunc adapts a function to a sink.
type EventFunc func(Event)

// Emit calls f(e).
func (f EventFunc) Emit(e Event) { f(e) }

// NodeEvent describes the interpreter entering a node.
type NodeEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	OwnerID        string    `json:"owner_id"`
	NodeID         string    `json:"node_id"`
	NodeType       NodeType  `json:"node_type"`
}

// ConversationEvent describes a conversation starting or ending.
type ConversationEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	OwnerID        string    `json:"owner_id"`
	// Reason is set on end.
	Reason string `json:"reason,omitempty"`
}

// Reasons a conversation ends.
const (
	EndNode         = "end_node"
	EndForced       = "forced"
	EndContentError = "content_error"
)

// EffectEvent describes a world-state effect attempted by a node.
type EffectEvent struct {
	Timestamp      time.Time `json:"timestamp"`
	SessionID      string    `json:"session_id"`
	ConversationID string    `json:"conversation_id"`
	NodeID         string    `json:"node_id"`
	Effect         string    `json:"effect"`
	Applied        bool      `json:"applied"`
}

// LifecycleHooks defines callbacks for engine observability.
type LifecycleHooks struct {
	OnNodeEnter         func(context.Context, *NodeEvent)
	OnConversationStart func(context.Context, *ConversationEvent)
	OnConversationEnd   func(context.Context, *ConversationEvent)
	OnEffect            func(context.Context, *EffectEvent)
}

// Envelope tags an event with its kind for transport encodings.
type Envelope struct {
	Type    EventKind `json:"type"`
	Payload Event     `json:"payload"`
}

// Envelopes wraps events in order. It never returns nil.
func Envelopes(events []Event) []Envelope {
	out := make([]Envelope, 0, len(events))
	for _, e := range events {
		out = append(out, Envelope{Type: e.Kind(), Payload: e})
	}
	return out
}
