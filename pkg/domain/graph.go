package domain

import "strings"

// ConversationGraph is the dialogue-only view of an owner's script.
// It is immutable once built.
type ConversationGraph struct {
	ID          string
	OwnerID     string
	nodes       []ScriptNode
	index       map[string]int
	connections []Connection
}

// Classifier resolves the category of a node type.
type Classifier func(NodeType) (string, bool)

// NewConversationGraph indexes nodes and connections. Duplicate node ids keep
// the first occurrence.
func NewConversationGraph(id, ownerID string, nodes []ScriptNode, connections []Connection) *ConversationGraph {
	g := &ConversationGraph{
		ID:      id,
		OwnerID: ownerID,
		index:   make(map[string]int, len(nodes)),
	}
	for _, n := range nodes {
		key := FoldID(n.ID)
		if key == "" {
			continue
		}
		if _, dup := g.index[key]; dup {
			continue
		}
		g.index[key] = len(g.nodes)
		g.nodes = append(g.nodes, n)
	}
	g.connections = append(g.connections, connections...)
	return g
}

// ExtractConversation filters an owner's script down to dialogue nodes and the
// connections touching them. A node's own Category wins over the classifier.
func ExtractConversation(owner Owner, classify Classifier) *ConversationGraph {
	var nodes []ScriptNode
	keep := make(map[string]bool)
	for _, n := range owner.Script.Nodes {
		category := n.Category
		if category == "" && classify != nil {
			category, _ = classify(n.Type)
		}
		if !strings.EqualFold(category, CategoryDialogue) {
			continue
		}
		n.Category = category
		nodes = append(nodes, n)
		keep[FoldID(n.ID)] = true
	}

	var connections []Connection
	for _, c := range owner.Script.Connections {
		if keep[FoldID(c.From)] || keep[FoldID(c.To)] {
			connections = append(connections, c)
		}
	}
	return NewConversationGraph(owner.ID, owner.ID, nodes, connections)
}

// Len returns the number of nodes.
func (g *ConversationGraph) Len() int {
	if g == nil {
		return 0
	}
	return len(g.nodes)
}

// Node looks up a node by id.
func (g *ConversationGraph) Node(id string) (ScriptNode, bool) {
	if g == nil {
		return ScriptNode{}, false
	}
	i, ok := g.index[FoldID(id)]
	if !ok {
		return ScriptNode{}, false
	}
	return g.nodes[i], true
}

// Nodes returns the nodes in authored order.
func (g *ConversationGraph) Nodes() []ScriptNode {
	if g == nil {
		return nil
	}
	out := make([]ScriptNode, len(g.nodes))
	copy(out, g.nodes)
	return out
}

// Connections returns the connections in authored order.
func (g *ConversationGraph) Connections() []Connection {
	if g == nil {
		return nil
	}
	out := make([]Connection, len(g.connections))
	copy(out, g.connections)
	return out
}

// Outgoing returns the connections leaving a node.
func (g *ConversationGraph) Outgoing(id string) []Connection {
	var out []Connection
	for _, c := range g.Connections() {
		if SameID(c.From, id) {
			out = append(out, c)
		}
	}
	return out
}

// Follow resolves the target of a node's port. When several connections share
// a port, the first authored one wins.
func (g *ConversationGraph) Follow(from, port string) (string, bool) {
	if g == nil {
		return "", false
	}
	for _, c := range g.connections {
		if SameID(c.From, from) && strings.EqualFold(c.Port, port) {
			return c.To, true
		}
	}
	return "", false
}

// StartNodes returns every Start node in authored order.
func (g *ConversationGraph) StartNodes() []ScriptNode {
	var out []ScriptNode
	for _, n := range g.Nodes() {
		if t, _ := ParseNodeType(string(n.Type)); t == NodeStart {
			out = append(out, n)
		}
	}
	return out
}
