package mcp

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/dsl"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newServer(t *testing.T) *Server {
	t.Helper()
	b := dsl.New("merchant", "Old Merchant")
	b.Start("start").Next("hello")
	b.Say("hello", "Hola").Next("menu")
	b.Choice("menu").Option(1, "Trade", "shop").Option(2, "Buy a sword", "buy")
	b.Shop("shop").OnClose("menu")
	b.Buy("buy", "sword", 5).Success("bye").NotEnoughMoney("bye")
	b.End("bye")

	return NewServer(palaver.New(b.Store(), palaver.WithStartMoney(5)))
}

func kinds(r TurnResult) []domain.EventKind {
	out := []domain.EventKind{}
	for _, e := range r.Events {
		out = append(out, e.Type)
	}
	return out
}

func TestServer_ConversationTools(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	var req mcp.CallToolRequest

	started, err := s.handleStart(ctx, req, StartArgs{OwnerID: "merchant"})
	require.NoError(t, err)
	assert.Equal(t, "started", started.Outcome)
	assert.Equal(t, []domain.EventKind{domain.EventDialogue, domain.EventOptions}, kinds(started))
	require.NotNil(t, started.Session)
	id := started.Session.ID

	traded, err := s.handleSelect(ctx, req, SelectArgs{SessionID: id, Index: 0})
	require.NoError(t, err)
	assert.Equal(t, []domain.EventKind{domain.EventTradeOpened}, kinds(traded))

	pending, err := s.step("pending", s.game.Pending)(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "no_op", pending.Outcome)
	assert.Equal(t, []domain.EventKind{domain.EventTradeOpened}, kinds(pending))

	closed, err := s.step("close_shop", s.game.CloseShop)(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, "continues", closed.Outcome)
	assert.Equal(t, []domain.EventKind{domain.EventOptions}, kinds(closed))

	bought, err := s.handleSelect(ctx, req, SelectArgs{SessionID: id, Index: 1})
	require.NoError(t, err)
	assert.Equal(t, domain.EventConversationEnded, kinds(bought)[len(bought.Events)-1])
	assert.Equal(t, []string{"sword"}, bought.Session.Inventory)
	assert.Nil(t, bought.Session.Conversation)

	got, err := s.handleGetSession(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, 0, got.Session.Money)
}

func TestServer_EndConversation(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	var req mcp.CallToolRequest

	created, err := s.handleCreateSession(ctx, req, struct{}{})
	require.NoError(t, err)
	id := created.Session.ID

	_, err = s.handleStart(ctx, req, StartArgs{SessionID: id, OwnerID: "merchant"})
	require.NoError(t, err)

	ended, err := s.step("end_conversation", s.game.End)(ctx, req, SessionArgs{SessionID: id})
	require.NoError(t, err)
	assert.Equal(t, []domain.EventKind{domain.EventConversationEnded}, kinds(ended))
	assert.Nil(t, ended.Session.Conversation)
}

func TestServer_ToolErrors(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)
	var req mcp.CallToolRequest

	created, err := s.handleCreateSession(ctx, req, struct{}{})
	require.NoError(t, err)

	_, err = s.step("continue", s.game.Continue)(ctx, req, SessionArgs{SessionID: created.Session.ID})
	assert.ErrorIs(t, err, domain.ErrNoConversation)

	_, err = s.handleStart(ctx, req, StartArgs{SessionID: created.Session.ID})
	assert.ErrorContains(t, err, "owner_id is required")

	_, err = s.handleSelect(ctx, req, SelectArgs{SessionID: "  "})
	assert.ErrorContains(t, err, "session_id is required")

	_, err = s.handleGetSession(ctx, req, SessionArgs{SessionID: "ghost"})
	assert.ErrorIs(t, err, domain.ErrSessionNotFound)

	notFound, err := s.handleStart(ctx, req, StartArgs{SessionID: created.Session.ID, OwnerID: "ghost"})
	require.NoError(t, err)
	assert.Equal(t, "not_found", notFound.Outcome)
}

func TestServer_Resources(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)

	var req mcp.ReadResourceRequest
	req.Params.URI = ownersURI
	contents, err := s.readOwners(ctx, req)
	require.NoError(t, err)
	require.Len(t, contents, 1)
	text := contents[0].(mcp.TextResourceContents)
	assert.Equal(t, "application/json", text.MIMEType)
	assert.JSONEq(t, `["merchant"]`, text.Text)

	req.Params.URI = "palaver://owners/merchant/graph"
	contents, err = s.readGraph(ctx, req)
	require.NoError(t, err)
	var graph GraphResult
	require.NoError(t, json.Unmarshal([]byte(contents[0].(mcp.TextResourceContents).Text), &graph))
	assert.Equal(t, "merchant", graph.OwnerID)
	assert.Len(t, graph.Nodes, 6)
	assert.NotEmpty(t, graph.Connections)

	req.Params.URI = "palaver://owners/ghost/graph"
	_, err = s.readGraph(ctx, req)
	assert.Error(t, err)
}

func TestOwnerFromGraphURI(t *testing.T) {
	tests := []struct {
		uri   string
		owner string
		ok    bool
	}{
		{"palaver://owners/merchant/graph", "merchant", true},
		{"palaver://owners//graph", "", false},
		{"palaver://owners/a/b/graph", "", false},
		{"palaver://owners/merchant", "", false},
		{"other://owners/merchant/graph", "", false},
	}
	for _, tt := range tests {
		owner, ok := ownerFromGraphURI(tt.uri)
		assert.Equal(t, tt.ok, ok, tt.uri)
		assert.Equal(t, tt.owner, owner, tt.uri)
	}
}

func TestServer_HandleMessage(t *testing.T) {
	ctx := context.Background()
	s := newServer(t)

	call := func(msg string) string {
		t.Helper()
		data, err := json.Marshal(s.HandleMessage(ctx, json.RawMessage(msg)))
		require.NoError(t, err)
		return string(data)
	}

	call(`{"jsonrpc":"2.0","id":1,"method":"initialize","params":{"protocolVersion":"2025-03-26","capabilities":{},"clientInfo":{"name":"test","version":"0"}}}`)

	tools := call(`{"jsonrpc":"2.0","id":2,"method":"tools/list"}`)
	for _, name := range []string{"create_session", "get_session", "start_conversation", "select_option", "continue", "close_shop", "end_conversation", "pending"} {
		assert.Contains(t, tools, `"`+name+`"`)
	}

	started := call(`{"jsonrpc":"2.0","id":3,"method":"tools/call","params":{"name":"start_conversation","arguments":{"owner_id":"merchant"}}}`)
	assert.Contains(t, started, `"outcome":"started"`)
	assert.Contains(t, started, `Hola`)

	failed := call(`{"jsonrpc":"2.0","id":4,"method":"tools/call","params":{"name":"continue","arguments":{"session_id":"ghost"}}}`)
	assert.Contains(t, failed, `"isError":true`)
}
