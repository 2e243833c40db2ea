/*
Package observability provides lifecycle hooks for monitoring the Palaver engine.

Metrics records node visits, conversations and effects as Prometheus metrics,
LoggingHooks writes the same events to a structured logger, and Combine fans
several hook sets into one.
*/
package observability
