/*
Package session implements session management and persistence orchestration.

A game session carries the player's money, inventory, flags, quests and the
single conversation slot. The Manager serializes every load-modify-save cycle
of one session with a reference-counted local mutex and, when configured, a
distributed lock, so a conversation is never advanced twice at once.
*/
package session
