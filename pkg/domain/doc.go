/*
Package domain contains the core models of the Palaver conversation engine.

It defines the authored script graph (nodes, ports and connections), the resumable
execution state of a conversation, the game session it mutates, and the events the
interpreter emits for a presentation layer. The package is kept pure: no I/O, no
persistence, no logging.

# Key Entities

  - ScriptNode: one instruction of an authored visual script (NpcSay, PlayerChoice, Branch...).
  - Connection: a directed edge leaving a named output port of a node.
  - ConversationGraph: the dialogue-only view of an owner's script, built per conversation.
  - ExecutionState: the cursor and history of one in-progress conversation.
  - Session: the player's game state (money, inventory, flags, quests, active conversation).
  - Event: the closed set of outputs (dialogue lines, options, trade windows, messages).
*/
package domain
