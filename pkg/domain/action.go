package domain

import "strings"

// ActionType selects the effect of an Action node.
type ActionType string

const (
	ActionGiveItem      ActionType = "GiveItem"
	ActionRemoveItem    ActionType = "RemoveItem"
	ActionAddMoney      ActionType = "AddMoney"
	ActionRemoveMoney   ActionType = "RemoveMoney"
	ActionSetFlag       ActionType = "SetFlag"
	ActionStartQuest    ActionType = "StartQuest"
	ActionCompleteQuest ActionType = "CompleteQuest"
	ActionShowMessage   ActionType = "ShowMessage"
)

var actionTypes = []ActionType{
	ActionGiveItem, ActionRemoveItem, ActionAddMoney, ActionRemoveMoney,
	ActionSetFlag, ActionStartQuest, ActionCompleteQuest, ActionShowMessage,
}

// ActionTypes lists every action type.
func ActionTypes() []ActionType {
	return append([]ActionType{}, actionTypes...)
}

// ParseActionType resolves an action tag case-insensitively.
func ParseActionType(s string) (ActionType, bool) {
	for _, a := range actionTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(a)) {
			return a, true
		}
	}
	return ActionType(s), false
}

// ConditionType selects the predicate of a Branch node.
type ConditionType string

const (
	ConditionHasFlag     ConditionType = "HasFlag"
	ConditionHasItem     ConditionType = "HasItem"
	ConditionHasMoney    ConditionType = "HasMoney"
	ConditionQuestStatus ConditionType = "QuestStatus"
	ConditionVisitedNode ConditionType = "VisitedNode"
)

var conditionTypes = []ConditionType{
	ConditionHasFlag, ConditionHasItem, ConditionHasMoney, ConditionQuestStatus, ConditionVisitedNode,
}

// ConditionTypes lists every condition type.
func ConditionTypes() []ConditionType {
	return append([]ConditionType{}, conditionTypes...)
}

// ParseConditionType resolves a condition tag case-insensitively.
func ParseConditionType(s string) (ConditionType, bool) {
	for _, c := range conditionTypes {
		if strings.EqualFold(strings.TrimSpace(s), string(c)) {
			return c, true
		}
	}
	return ConditionType(s), false
}

// StartResult is the outcome of starting a conversation.
type StartResult int

const (
	Started StartResult = iota
	OwnerNotFound
	EmptyGraph
	NoStartNode
	AlreadyActive
)

func (r StartResult) String() string {
	switch r {
	case Started:
		return "started"
	case OwnerNotFound:
		return "not_found"
	case EmptyGraph:
		return "empty_graph"
	case NoStartNode:
		return "no_start_node"
	case AlreadyActive:
		return "already_active"
	default:
		return "unknown"
	}
}

// StepResult is the outcome of re-entering a conversation.
type StepResult int

const (
	NoOp StepResult = iota
	Continued
)

func (r StepResult) String() string {
	if r == Continued {
		return "continues"
	}
	return "no_op"
}
