package domain

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func classifier(t NodeType) (string, bool) {
	if t.Known() {
		return CategoryDialogue, true
	}
	return "World", true
}

func TestExtractConversation_FiltersByCategory(t *testing.T) {
	owner := Owner{
		ID: "npc",
		Script: Script{
			Nodes: []ScriptNode{
				{ID: "start", Type: NodeStart},
				{ID: "say", Type: NodeNpcSay},
				{ID: "door", Type: "SetDoorState"},
				{ID: "custom", Type: "Cutscene", Category: "dialogue"},
				{ID: "lonely", Type: "Timer"},
			},
			Connections: []Connection{
				{From: "start", Port: PortExec, To: "say"},
				{From: "say", Port: PortExec, To: "door"},
				{From: "door", Port: PortExec, To: "custom"},
				{From: "lonely", Port: PortExec, To: "door"},
			},
		},
	}

	g := ExtractConversation(owner, classifier)

	assert.Equal(t, 3, g.Len())
	_, ok := g.Node("DOOR")
	assert.False(t, ok)
	custom, ok := g.Node("Custom")
	assert.True(t, ok)
	assert.Equal(t, "dialogue", custom.Category)
	assert.Len(t, g.Connections(), 3, "connections touching a dialogue node are kept")
}

func TestConversationGraph_Follow(t *testing.T) {
	g := NewConversationGraph("g", "npc",
		[]ScriptNode{{ID: "a", Type: NodeBranch}, {ID: "A", Type: NodeEnd}},
		[]Connection{
			{From: "a", Port: "True", To: "first"},
			{From: "A", Port: "true", To: "second"},
			{From: "a", Port: "False", To: "third"},
		})

	assert.Equal(t, 1, g.Len(), "duplicate ids keep the first node")
	to, ok := g.Follow("A", "TRUE")
	assert.True(t, ok)
	assert.Equal(t, "first", to)
	_, ok = g.Follow("a", "Exec")
	assert.False(t, ok)
	assert.Len(t, g.Outgoing("a"), 3)
}

func TestConversationGraph_NilSafe(t *testing.T) {
	var g *ConversationGraph
	assert.Equal(t, 0, g.Len())
	_, ok := g.Node("x")
	assert.False(t, ok)
	_, ok = g.Follow("x", PortExec)
	assert.False(t, ok)
	assert.Empty(t, g.StartNodes())
}

func TestParseNodeType(t *testing.T) {
	nt, ok := ParseNodeType(" playerchoice ")
	assert.True(t, ok)
	assert.Equal(t, NodePlayerChoice, nt)
	assert.True(t, nt.Suspends())
	assert.False(t, NodeNpcSay.Suspends())

	_, ok = ParseNodeType("Teleport")
	assert.False(t, ok)
}
