/*
Package dsl provides a fluent builder for conversation scripts.

It lets tests and Go hosts author an owner's script without a world file,
keeping node and connection order exactly as written.

Example usage:

	b := dsl.New("merchant", "Old Merchant")

	b.Start("start").Next("hello")
	b.Say("hello", "Hola, traveller.").Next("menu")
	b.Choice("menu").
		Option(1, "Buy a sword", "buy").
		Option(2, "Goodbye", "bye")
	b.Buy("buy", "sword", 5).
		Success("bye").
		NotEnoughMoney("bye")
	b.End("bye")

	store := b.Store() // a ports.ScriptStore
*/
package dsl
