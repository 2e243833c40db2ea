package dsl

import "github.com/aretw0/palaver/pkg/domain"

// NodeBuilder provides a fluent API for configuring a node.
type NodeBuilder struct {
	node    domain.ScriptNode
	builder *Builder
}

// Prop sets a property. Values that cannot be represented are ignored.
func (n *NodeBuilder) Prop(name string, value any) *NodeBuilder {
	if v, ok := domain.ValueOf(value); ok {
		n.node.Properties.Set(name, v)
	}
	return n
}

// Category overrides the registry category of the node.
func (n *NodeBuilder) Category(category string) *NodeBuilder {
	n.node.Category = category
	return n
}

// Speaker sets the speaker name of an NpcSay node.
func (n *NodeBuilder) Speaker(name string) *NodeBuilder {
	return n.Prop(domain.PropSpeakerName, name)
}

// Emotion sets the emotion of an NpcSay node.
func (n *NodeBuilder) Emotion(emotion string) *NodeBuilder {
	return n.Prop(domain.PropEmotion, emotion)
}

// To connects a port of this node to target.
func (n *NodeBuilder) To(port, target string) *NodeBuilder {
	n.builder.Connect(n.node.ID, port, target)
	return n
}

// Next wires the Exec port.
func (n *NodeBuilder) Next(target string) *NodeBuilder {
	return n.To(domain.PortExec, target)
}

// True wires the True port of a Branch.
func (n *NodeBuilder) True(target string) *NodeBuilder {
	return n.To(domain.PortTrue, target)
}

// False wires the False port of a Branch.
func (n *NodeBuilder) False(target string) *NodeBuilder {
	return n.To(domain.PortFalse, target)
}

// Success wires the Success port of a BuyItem or SellItem.
func (n *NodeBuilder) Success(target string) *NodeBuilder {
	return n.To(domain.PortSuccess, target)
}

// NotEnoughMoney wires the failure port of a BuyItem.
func (n *NodeBuilder) NotEnoughMoney(target string) *NodeBuilder {
	return n.To(domain.PortNotEnoughMoney, target)
}

// NoItem wires the failure port of a SellItem.
func (n *NodeBuilder) NoItem(target string) *NodeBuilder {
	return n.To(domain.PortNoItem, target)
}

// OnClose wires the port followed after a shop window closes.
func (n *NodeBuilder) OnClose(target string) *NodeBuilder {
	return n.To(domain.PortOnClose, target)
}

// Option sets the text of a choice slot (1..4) and wires it to target.
// An empty target leaves the slot unwired.
func (n *NodeBuilder) Option(slot int, text, target string) *NodeBuilder {
	n.Prop(domain.OptionTextProperty(slot), text)
	if target != "" {
		n.To(domain.OptionPort(slot), target)
	}
	return n
}

// Build returns a copy of the underlying node.
func (n *NodeBuilder) Build() domain.ScriptNode {
	node := n.node
	node.Properties = n.node.Properties.Clone()
	return node
}
