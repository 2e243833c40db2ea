/*
Package http exposes a palaver.Game as a JSON API using chi.

Conversation calls return the outcome, the produced events encoded as
{"type": ..., "payload": ...} envelopes and the saved session. Events are also
pushed to Server-Sent Events subscribers of the session.
*/
package http
