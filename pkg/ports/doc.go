/*
Package ports defines the driven ports (interfaces) of the Palaver engine.

These interfaces decouple the conversation interpreter from the world data it reads,
the presentation layer it talks to, and the storage that keeps sessions between turns.

# Key Interfaces

  - ScriptStore: resolves an owner (NPC) to its display name and authored script.
  - NodeRegistry: classifies node types into categories and supplies default properties.
  - ObjectCatalog: resolves object ids to display names for player-facing messages.
  - EventSink: receives interpreter output synchronously and in order.
  - SessionStore: persists game sessions, including the parked conversation.
  - DistributedLocker: coordinates session access across replicas.
*/
package ports
