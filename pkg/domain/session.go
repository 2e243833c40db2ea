package domain

import (
	"math"
	"strings"
	"time"
)

// QuestStatus is the progress of a quest in a session.
type QuestStatus string

const (
	QuestNotStarted QuestStatus = "NotStarted"
	QuestInProgress QuestStatus = "InProgress"
	QuestCompleted  QuestStatus = "Completed"
	QuestFailed     QuestStatus = "Failed"
)

// ParseQuestStatus resolves a status name case-insensitively.
func ParseQuestStatus(s string) (QuestStatus, bool) {
	for _, st := range []QuestStatus{QuestNotStarted, QuestInProgress, QuestCompleted, QuestFailed} {
		if strings.EqualFold(strings.TrimSpace(s), string(st)) {
			return st, true
		}
	}
	return "", false
}

// QuestState tracks one quest.
type QuestState struct {
	Status    QuestStatus `json:"status"`
	Objective int         `json:"objective"`
}

// Session is the game state of one player. It owns at most one conversation.
type Session struct {
	ID        string                `json:"id"`
	Money     int                   `json:"money"`
	Inventory []string              `json:"inventory"`
	Flags     map[string]bool       `json:"flags"`
	Quests    map[string]QuestState `json:"quests"`

	// Conversation is the single conversation slot of the session.
	Conversation *ExecutionState `json:"conversation,omitempty"`

	UpdatedAt time.Time `json:"updated_at"`

	// Sealed holds the encrypted form of the session when a store seals
	// sessions at rest. Every other field of a sealed envelope is empty.
	Sealed []byte `json:"sealed,omitempty"`
}

// NewSession creates an empty session.
func NewSession(id string) *Session {
	return &Session{
		ID:        id,
		Inventory: []string{},
		Flags:     make(map[string]bool),
		Quests:    make(map[string]QuestState),
	}
}

// ActiveConversation returns the running conversation, or nil.
func (s *Session) ActiveConversation() *ExecutionState {
	if s.Conversation == nil || !s.Conversation.Active {
		return nil
	}
	return s.Conversation
}

// HasItem reports whether the inventory holds at least one copy of id.
func (s *Session) HasItem(id string) bool {
	return s.CountItem(id) > 0
}

// CountItem returns the number of copies of id in the inventory.
func (s *Session) CountItem(id string) int {
	n := 0
	for _, item := range s.Inventory {
		if SameID(item, id) {
			n++
		}
	}
	return n
}

// AddItem appends id unless it is blank or already owned. It reports whether
// the inventory changed.
func (s *Session) AddItem(id string) bool {
	if IsBlank(id) || s.HasItem(id) {
		return false
	}
	s.Inventory = append(s.Inventory, strings.TrimSpace(id))
	return true
}

// RemoveItem removes every copy of id and returns how many were removed.
func (s *Session) RemoveItem(id string) int {
	if IsBlank(id) {
		return 0
	}
	kept := s.Inventory[:0]
	removed := 0
	for _, item := range s.Inventory {
		if SameID(item, id) {
			removed++
			continue
		}
		kept = append(kept, item)
	}
	s.Inventory = kept
	return removed
}

// Credit adds money, saturating at math.MaxInt. Negative amounts debit.
func (s *Session) Credit(amount int) {
	if amount > 0 && s.Money > math.MaxInt-amount {
		s.setMoney(math.MaxInt)
		return
	}
	s.setMoney(s.Money + amount)
}

// Debit removes money, flooring the balance at zero. It returns the amount
// actually removed.
func (s *Session) Debit(amount int) int {
	before := s.Money
	s.setMoney(s.Money - amount)
	return before - s.Money
}

func (s *Session) setMoney(v int) {
	if v < 0 {
		v = 0
	}
	s.Money = v
}

// Flag reads a boolean flag; absent flags are false.
func (s *Session) Flag(name string) bool {
	return s.Flags[FoldID(name)]
}

// SetFlag sets a flag to true. Blank names are ignored.
func (s *Session) SetFlag(name string) bool {
	if IsBlank(name) {
		return false
	}
	if s.Flags == nil {
		s.Flags = make(map[string]bool)
	}
	key := FoldID(name)
	changed := !s.Flags[key]
	s.Flags[key] = true
	return changed
}

// QuestStatusOf returns the status of a quest, NotStarted when absent.
func (s *Session) QuestStatusOf(id string) QuestStatus {
	q, ok := s.Quests[FoldID(id)]
	if !ok || q.Status == "" {
		return QuestNotStarted
	}
	return q.Status
}

// StartQuest (re)starts a quest from its first objective.
func (s *Session) StartQuest(id string) bool {
	if IsBlank(id) {
		return false
	}
	if s.Quests == nil {
		s.Quests = make(map[string]QuestState)
	}
	s.Quests[FoldID(id)] = QuestState{Status: QuestInProgress}
	return true
}

// CompleteQuest marks an existing quest completed. Unknown quests are left alone.
func (s *Session) CompleteQuest(id string) bool {
	key := FoldID(id)
	q, ok := s.Quests[key]
	if !ok {
		return false
	}
	q.Status = QuestCompleted
	s.Quests[key] = q
	return true
}

// Clone returns a deep copy safe to hand to another owner.
func (s *Session) Clone() *Session {
	if s == nil {
		return nil
	}
	next := *s
	next.Inventory = append([]string{}, s.Inventory...)
	next.Flags = make(map[string]bool, len(s.Flags))
	for k, v := range s.Flags {
		next.Flags[k] = v
	}
	next.Quests = make(map[string]QuestState, len(s.Quests))
	for k, v := range s.Quests {
		next.Quests[k] = v
	}
	next.Conversation = s.Conversation.Clone()
	if s.Sealed != nil {
		next.Sealed = append([]byte{}, s.Sealed...)
	}
	return &next
}
