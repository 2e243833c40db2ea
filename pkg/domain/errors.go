package domain

import (
	"errors"
	"fmt"
)

// ErrSessionNotFound is returned when a session ID cannot be found in the store.
var ErrSessionNotFound = errors.New("session not found")

// ErrOwnerNotFound is returned by script stores for unknown owners.
var ErrOwnerNotFound = errors.New("owner not found")

// ErrNoConversation is returned by hosts when an operation needs an active conversation.
var ErrNoConversation = errors.New("no active conversation")

// ErrConversationActive is returned by hosts when a start is rejected because
// the session already talks to someone.
var ErrConversationActive = errors.New("conversation already active")

// ContentError is a defect of the authored graph. It never aborts a session;
// the interpreter reports it as a diagnostic and parks or ends the conversation.
type ContentError struct {
	OwnerID string
	NodeID  string
	Port    string
	Reason  string
}

func (e *ContentError) Error() string {
	switch {
	case e.Port != "":
		return fmt.Sprintf("content error in %s/%s port %s: %s", e.OwnerID, e.NodeID, e.Port, e.Reason)
	case e.NodeID != "":
		return fmt.Sprintf("content error in %s/%s: %s", e.OwnerID, e.NodeID, e.Reason)
	default:
		return fmt.Sprintf("content error in %s: %s", e.OwnerID, e.Reason)
	}
}

// StateError is an operation invoked in a state that does not allow it.
type StateError struct {
	Op     string
	Reason string
}

func (e *StateError) Error() string {
	return fmt.Sprintf("%s: %s", e.Op, e.Reason)
}
