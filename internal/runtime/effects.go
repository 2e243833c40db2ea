package runtime

import (
	"fmt"

	"github.com/aretw0/palaver/pkg/domain"
)

// Effect names reported to OnEffect hooks.
const (
	EffectBuy  = "BuyItem"
	EffectSell = "SellItem"
)

func (x *execution) buyItem(node domain.ScriptNode) string {
	objectID := node.Properties.String(domain.PropObjectID, "")
	if domain.IsBlank(objectID) {
		x.diagnose(&domain.ContentError{OwnerID: x.owner.ID, NodeID: node.ID, Reason: "BuyItem without ObjectId"})
		return ""
	}
	price := max(node.Properties.Int(domain.PropPrice, 0), 0)
	name := x.objectName(objectID)

	if x.session.Money < price {
		x.notice("Not enough money: %s costs %d coins.", name, price)
		x.effect(node, EffectBuy, false)
		return x.follow(node, domain.PortNotEnoughMoney)
	}
	x.session.Debit(price)
	x.session.AddItem(objectID)
	x.notice("Bought %s for %d coins.", name, price)
	x.effect(node, EffectBuy, true)
	return x.follow(node, domain.PortSuccess)
}

func (x *execution) sellItem(node domain.ScriptNode) string {
	objectID := node.Properties.String(domain.PropObjectID, "")
	price := max(node.Properties.Int(domain.PropPrice, 0), 0)
	name := x.objectName(objectID)

	if x.session.RemoveItem(objectID) == 0 {
		x.notice("You have no %s to sell.", name)
		x.effect(node, EffectSell, false)
		return x.follow(node, domain.PortNoItem)
	}
	x.session.Credit(price)
	x.notice("Sold %s for %d coins.", name, price)
	x.effect(node, EffectSell, true)
	return x.follow(node, domain.PortSuccess)
}

func (x *execution) action(node domain.ScriptNode) string {
	raw := node.Properties.String(domain.PropActionType, "")
	kind, ok := domain.ParseActionType(raw)
	if !ok {
		x.diagnose(&domain.ContentError{
			OwnerID: x.owner.ID,
			NodeID:  node.ID,
			Reason:  fmt.Sprintf("unknown action type %q", raw),
		})
		return x.follow(node, domain.PortExec)
	}
	applied := x.apply(kind, node.Properties)
	x.effect(node, string(kind), applied)
	return x.follow(node, domain.PortExec)
}

// apply runs one Action effect and reports whether the session changed.
func (x *execution) apply(kind domain.ActionType, props domain.Properties) bool {
	sess := x.session
	switch kind {
	case domain.ActionGiveItem:
		id := props.String(domain.PropObjectID, "")
		if !sess.AddItem(id) {
			return false
		}
		x.notice("Received %s.", x.objectName(id))
		return true

	case domain.ActionRemoveItem:
		id := props.String(domain.PropObjectID, "")
		if sess.RemoveItem(id) == 0 {
			return false
		}
		x.notice("Lost %s.", x.objectName(id))
		return true

	case domain.ActionAddMoney:
		amount := props.Int(domain.PropAmount, 0)
		before := sess.Money
		sess.Credit(amount)
		if amount > 0 {
			x.notice("Received %d coins.", amount)
		}
		return sess.Money != before

	case domain.ActionRemoveMoney:
		amount := props.Int(domain.PropAmount, 0)
		if amount <= 0 {
			return false
		}
		removed := sess.Debit(amount)
		if removed > 0 {
			x.notice("Paid %d coins.", removed)
		}
		return removed > 0

	case domain.ActionSetFlag:
		name := props.String(domain.PropFlagName, "")
		if domain.IsBlank(name) {
			return false
		}
		sess.SetFlag(name)
		return true

	case domain.ActionStartQuest:
		id := props.String(domain.PropQuestID, "")
		if !sess.StartQuest(id) {
			return false
		}
		x.notice("Quest started: %s.", id)
		return true

	case domain.ActionCompleteQuest:
		id := props.String(domain.PropQuestID, "")
		if !sess.CompleteQuest(id) {
			return false
		}
		x.notice("Quest completed: %s.", id)
		return true

	case domain.ActionShowMessage:
		text := props.String(domain.PropMessage, "")
		if domain.IsBlank(text) {
			text = props.String(domain.PropText, "")
		}
		if domain.IsBlank(text) {
			return false
		}
		x.notice("%s", text)
		return true
	}
	return false
}

func (x *execution) objectName(id string) string {
	if x.engine.catalog != nil {
		if name, ok := x.engine.catalog.ObjectName(id); ok && !domain.IsBlank(name) {
			return name
		}
	}
	return id
}

func (x *execution) effect(node domain.ScriptNode, name string, applied bool) {
	if x.engine.hooks.OnEffect == nil {
		return
	}
	x.engine.hooks.OnEffect(x.ctx, &domain.EffectEvent{
		Timestamp:      x.engine.now(),
		SessionID:      x.session.ID,
		ConversationID: x.state.ConversationID,
		NodeID:         node.ID,
		Effect:         name,
		Applied:        applied,
	})
}
