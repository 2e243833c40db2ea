package dsl

import (
	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
)

// Builder manages the construction of one owner's script.
type Builder struct {
	owner       domain.Owner
	order       []*NodeBuilder
	nodes       map[string]*NodeBuilder
	connections []domain.Connection
}

// New creates a builder for an owner.
func New(ownerID, displayName string) *Builder {
	return &Builder{
		owner: domain.Owner{ID: ownerID, Type: "NPC", DisplayName: displayName},
		nodes: make(map[string]*NodeBuilder),
	}
}

// Node creates a node of any type, or returns the existing builder for id.
func (b *Builder) Node(id string, t domain.NodeType) *NodeBuilder {
	key := domain.FoldID(id)
	if nb, ok := b.nodes[key]; ok {
		return nb
	}
	nb := &NodeBuilder{
		node: domain.ScriptNode{
			ID:         id,
			Type:       t,
			Properties: domain.Properties{},
		},
		builder: b,
	}
	b.nodes[key] = nb
	b.order = append(b.order, nb)
	return nb
}

// Start adds the entry node.
func (b *Builder) Start(id string) *NodeBuilder {
	return b.Node(id, domain.NodeStart)
}

// Say adds an NpcSay node.
func (b *Builder) Say(id, text string) *NodeBuilder {
	return b.Node(id, domain.NodeNpcSay).Prop(domain.PropText, text)
}

// Choice adds a PlayerChoice node. Options are added with NodeBuilder.Option.
func (b *Builder) Choice(id string) *NodeBuilder {
	return b.Node(id, domain.NodePlayerChoice)
}

// Branch adds a Branch node evaluating condition.
func (b *Builder) Branch(id string, condition domain.ConditionType) *NodeBuilder {
	return b.Node(id, domain.NodeBranch).Prop(domain.PropCondition, string(condition))
}

// Shop adds a Shop node.
func (b *Builder) Shop(id string) *NodeBuilder {
	return b.Node(id, domain.NodeShop)
}

// Buy adds a BuyItem node.
func (b *Builder) Buy(id, objectID string, price int) *NodeBuilder {
	return b.Node(id, domain.NodeBuyItem).
		Prop(domain.PropObjectID, objectID).
		Prop(domain.PropPrice, price)
}

// Sell adds a SellItem node.
func (b *Builder) Sell(id, objectID string, price int) *NodeBuilder {
	return b.Node(id, domain.NodeSellItem).
		Prop(domain.PropObjectID, objectID).
		Prop(domain.PropPrice, price)
}

// Action adds an Action node.
func (b *Builder) Action(id string, action domain.ActionType) *NodeBuilder {
	return b.Node(id, domain.NodeAction).Prop(domain.PropActionType, string(action))
}

// End adds an End node.
func (b *Builder) End(id string) *NodeBuilder {
	return b.Node(id, domain.NodeEnd)
}

// Connect adds a raw connection, for wiring that has no helper.
func (b *Builder) Connect(from, port, to string) *Builder {
	b.connections = append(b.connections, domain.Connection{From: from, Port: port, To: to})
	return b
}

// Build returns the owner with its script, in authored order.
func (b *Builder) Build() domain.Owner {
	owner := b.owner
	owner.Script = domain.Script{
		Nodes:       make([]domain.ScriptNode, 0, len(b.order)),
		Connections: append([]domain.Connection{}, b.connections...),
	}
	for _, nb := range b.order {
		owner.Script.Nodes = append(owner.Script.Nodes, nb.Build())
	}
	return owner
}

// Store builds the owner into a fresh in-memory script store.
func (b *Builder) Store() *memory.ScriptStore {
	return memory.NewScriptStore(b.Build())
}
