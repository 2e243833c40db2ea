/*
Package mcp exposes a palaver.Game as a Model Context Protocol server using
mcp-go.

Conversation tools return the same outcome, event envelopes and session as the
HTTP API. Owners and their dialogue graphs are served as JSON resources.
*/
package mcp
