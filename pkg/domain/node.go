package domain

import (
	"fmt"
	"strings"
)

// NodeType selects the interpreter behavior of a node.
type NodeType string

// Dialogue node types understood by the interpreter.
const (
	// NodeStart is the entry point of a conversation (pass-through).
	NodeStart NodeType = "Start"
	// NodeNpcSay shows a line of NPC dialogue and continues (soft step).
	NodeNpcSay NodeType = "NpcSay"
	// NodePlayerChoice presents up to four options and halts (hard step).
	NodePlayerChoice NodeType = "PlayerChoice"
	// NodeBranch evaluates a condition and follows True or False.
	NodeBranch NodeType = "Branch"
	// NodeShop opens the trade window and halts until the window closes.
	NodeShop NodeType = "Shop"
	// NodeBuyItem charges the player and grants an item.
	NodeBuyItem NodeType = "BuyItem"
	// NodeSellItem takes an item from the player and pays for it.
	NodeSellItem NodeType = "SellItem"
	// NodeAction applies a single world-state effect and continues.
	NodeAction NodeType = "Action"
	// NodeEnd terminates the conversation.
	NodeEnd NodeType = "End"
)

var nodeTypes = []NodeType{
	NodeStart, NodeNpcSay, NodePlayerChoice, NodeBranch, NodeShop,
	NodeBuyItem, NodeSellItem, NodeAction, NodeEnd,
}

// NodeTypes lists every node type the interpreter dispatches on.
func NodeTypes() []NodeType {
	out := make([]NodeType, len(nodeTypes))
	copy(out, nodeTypes)
	return out
}

// ParseNodeType resolves an authored type tag case-insensitively.
// Unknown tags are returned verbatim with ok == false.
func ParseNodeType(s string) (NodeType, bool) {
	for _, t := range nodeTypes {
		if SameID(string(t), s) {
			return t, true
		}
	}
	return NodeType(strings.TrimSpace(s)), false
}

// Known reports whether t is one of the interpreter's node types.
func (t NodeType) Known() bool {
	_, ok := ParseNodeType(string(t))
	return ok
}

// Suspends reports whether the interpreter halts after dispatching t.
func (t NodeType) Suspends() bool {
	return t == NodePlayerChoice || t == NodeShop
}

// CategoryDialogue is the registry category of conversation nodes.
const CategoryDialogue = "Dialogue"

// Output ports.
const (
	PortExec           = "Exec"
	PortTrue           = "True"
	PortFalse          = "False"
	PortSuccess        = "Success"
	PortNotEnoughMoney = "NotEnoughMoney"
	PortNoItem         = "NoItem"
	PortOnClose        = "OnClose"
)

// MaxChoiceSlots is the number of option slots on a PlayerChoice node.
const MaxChoiceSlots = 4

// OptionPort returns the output port of a choice slot (1-based).
func OptionPort(slot int) string {
	return fmt.Sprintf("Option%d", slot)
}

// OptionTextProperty returns the property holding a choice slot's label.
func OptionTextProperty(slot int) string {
	return fmt.Sprintf("Text%d", slot)
}

// Property names read by the interpreter.
const (
	PropText        = "Text"
	PropSpeakerName = "SpeakerName"
	PropEmotion     = "Emotion"
	PropCondition   = "ConditionType"
	PropActionType  = "ActionType"
	PropFlagName    = "FlagName"
	PropObjectID    = "ObjectId"
	PropAmount      = "Amount"
	PropPrice       = "Price"
	PropQuestID     = "QuestId"
	PropQuestStatus = "QuestStatus"
	PropMessage     = "Message"
)

// ScriptNode is one instruction of an authored script.
type ScriptNode struct {
	ID         string     `json:"id"`
	Type       NodeType   `json:"type"`
	Category   string     `json:"category,omitempty"`
	Properties Properties `json:"properties,omitempty"`
}

// Connection is a directed edge from a node's output port to another node.
type Connection struct {
	From string `json:"from"`
	Port string `json:"port"`
	To   string `json:"to"`
}

// Script is the full authored script of an owner. It may mix dialogue nodes
// with nodes of other categories.
type Script struct {
	Nodes       []ScriptNode `json:"nodes"`
	Connections []Connection `json:"connections"`
}

// Owner is an entity (usually an NPC) that drives conversations.
type Owner struct {
	ID          string `json:"id"`
	Type        string `json:"type,omitempty"`
	DisplayName string `json:"display_name"`
	Script      Script `json:"script"`
}
