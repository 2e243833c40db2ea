/*
Package palaver is the conversation engine of a text-adventure runtime.

It interprets author-made visual-script graphs to drive NPC dialogue, branching
choices, shop transactions and world-state changes (flags, quests, inventory,
money). A conversation runs node by node until it needs the player: a choice
to pick or a trade window to close. Its cursor is stored inside the game
session, so a parked conversation survives restarts and can be resumed by any
replica.

# Concept

Scripts belong to owners (usually NPCs). An owner's script may mix dialogue
nodes with other nodes of the world; only nodes the registry classifies as
"Dialogue" take part in a conversation. Nodes are connected through named
ports ("Exec", "True", "Option1", "Success", "OnClose", ...).

# Usage

	b := dsl.New("merchant", "Old Merchant")
	b.Start("start").Next("hello")
	b.Say("hello", "Hola").Next("menu")
	b.Choice("menu").Option(1, "Buy a sword", "buy").Option(2, "Bye", "bye")
	b.Buy("buy", "sword", 5).Success("bye").NotEnoughMoney("bye")
	b.End("bye")

	game := palaver.New(b.Store(), palaver.WithStartMoney(5))
	sess, _ := game.NewSession(ctx)
	turn, _ := game.Start(ctx, sess.ID, "merchant")  // dialogue + options
	turn, _ = game.Select(ctx, sess.ID, 0)            // purchase + ended

Hosts that manage sessions themselves can use the engine in internal/runtime
through this facade, or the HTTP adapter and terminal runner under pkg/.
*/
package palaver
