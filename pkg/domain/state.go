package domain

// Option is one choice presented to the player.
type Option struct {
	// Index is dense and 0-based over the options actually shown.
	Index   int    `json:"index"`
	Text    string `json:"text"`
	Enabled bool   `json:"enabled"`
	// Slot is the authored slot (1..4) the option came from.
	Slot int `json:"slot"`
}

// ExecutionState is the resumable cursor of one conversation.
type ExecutionState struct {
	ConversationID string `json:"conversation_id"`
	OwnerID        string `json:"owner_id"`

	// CurrentNodeID is valid while Active; undefined afterwards.
	CurrentNodeID string `json:"current_node_id,omitempty"`

	// Active is false once the conversation ended; a state never reactivates.
	Active bool `json:"active"`

	// VisitedNodeIDs only grows for the lifetime of the state.
	VisitedNodeIDs []string `json:"visited_node_ids"`

	// CurrentOptions is set between a PlayerChoice and the player's selection.
	CurrentOptions []Option `json:"current_options,omitempty"`
}

// NewExecutionState creates an active state positioned at startNodeID.
func NewExecutionState(conversationID, ownerID, startNodeID string) *ExecutionState {
	return &ExecutionState{
		ConversationID: conversationID,
		OwnerID:        ownerID,
		CurrentNodeID:  startNodeID,
		Active:         true,
		VisitedNodeIDs: []string{},
	}
}

// MarkVisited records a node id. It returns false if it was already recorded.
func (s *ExecutionState) MarkVisited(id string) bool {
	if s.HasVisited(id) {
		return false
	}
	s.VisitedNodeIDs = append(s.VisitedNodeIDs, id)
	return true
}

// HasVisited reports whether a node id was recorded.
func (s *ExecutionState) HasVisited(id string) bool {
	for _, v := range s.VisitedNodeIDs {
		if SameID(v, id) {
			return true
		}
	}
	return false
}

// HasOptions reports whether a selection is pending.
func (s *ExecutionState) HasOptions() bool {
	return len(s.CurrentOptions) > 0
}

// Terminate deactivates the state. It is idempotent.
func (s *ExecutionState) Terminate() {
	s.Active = false
	s.CurrentOptions = nil
}

// Clone returns a deep copy.
func (s *ExecutionState) Clone() *ExecutionState {
	if s == nil {
		return nil
	}
	next := *s
	next.VisitedNodeIDs = append([]string{}, s.VisitedNodeIDs...)
	if s.CurrentOptions != nil {
		next.CurrentOptions = append([]Option{}, s.CurrentOptions...)
	}
	return &next
}
