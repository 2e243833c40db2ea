// Package runtime interprets conversation graphs.
//
// The Engine walks a session's conversation one node at a time, applying
// effects to the session and emitting events to a sink, until it reaches a
// PlayerChoice or Shop node, an End node, or a dead end. The cursor lives in
// domain.Session.Conversation, so a parked conversation can be saved and
// resumed later by SelectOption, Continue or CloseShop.
package runtime
