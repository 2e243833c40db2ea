package mcp

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/runner"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

const (
	ownersURI     = "palaver://owners"
	graphTemplate = "palaver://owners/{owner_id}/graph"
)

// Game defines the conversation operations exposed as MCP tools.
// *palaver.Game implements it.
type Game interface {
	NewSession(ctx context.Context) (*domain.Session, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	Start(ctx context.Context, sessionID, ownerID string) (*palaver.Turn, error)
	Select(ctx context.Context, sessionID string, index int) (*palaver.Turn, error)
	Continue(ctx context.Context, sessionID string) (*palaver.Turn, error)
	CloseShop(ctx context.Context, sessionID string) (*palaver.Turn, error)
	End(ctx context.Context, sessionID string) (*palaver.Turn, error)
	Pending(ctx context.Context, sessionID string) (*palaver.Turn, error)
	Owners(ctx context.Context) ([]string, error)
	Graph(ctx context.Context, ownerID string) (*domain.ConversationGraph, error)
}

// TurnResult is the structured output of every conversation tool. It has the
// same shape as the HTTP API's turn response.
type TurnResult struct {
	Outcome string            `json:"outcome" jsonschema_description:"Engine result, e.g. started, continues or no_op"`
	Events  []domain.Envelope `json:"events" jsonschema_description:"Events produced by the call, in order"`
	Session *domain.Session   `json:"session,omitempty" jsonschema_description:"The saved session after the call"`
}

// SessionResult wraps a session for the session tools.
type SessionResult struct {
	Session *domain.Session `json:"session"`
}

// GraphResult is the dialogue graph of one owner.
type GraphResult struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"owner_id"`
	Nodes       []domain.ScriptNode `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// SessionArgs addresses an existing session.
type SessionArgs struct {
	SessionID string `json:"session_id"`
}

// StartArgs begins a conversation. A blank session id creates a session.
type StartArgs struct {
	SessionID string `json:"session_id"`
	OwnerID   string `json:"owner_id"`
}

// SelectArgs picks a presented option by its dense 0-based index.
type SelectArgs struct {
	SessionID string `json:"session_id"`
	Index     int    `json:"index"`
}

// Server wraps a Game and exposes it as an MCP server.
type Server struct {
	game      Game
	logger    *slog.Logger
	mcpServer *server.MCPServer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the logger for tool calls and transports.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// NewServer creates a new MCP Server instance.
func NewServer(game Game, opts ...Option) *Server {
	s := &Server{
		game:      game,
		logger:    logging.NewNop(),
		mcpServer: server.NewMCPServer("palaver-mcp", strings.TrimSpace(palaver.Version)),
	}
	for _, opt := range opts {
		opt(s)
	}
	s.registerTools()
	s.registerResources()
	return s
}

// HandleMessage processes one JSON-RPC message, as a transport would.
func (s *Server) HandleMessage(ctx context.Context, message json.RawMessage) mcp.JSONRPCMessage {
	return s.mcpServer.HandleMessage(ctx, message)
}

// ServeStdio serves JSON-RPC lines from in to out until ctx is done or in
// is exhausted. Transport errors go to the logger, never to out.
func (s *Server) ServeStdio(ctx context.Context, in io.Reader, out io.Writer) error {
	stdio := server.NewStdioServer(s.mcpServer)
	stdio.SetErrorLogger(slog.NewLogLogger(s.logger.Handler(), slog.LevelError))
	err := stdio.Listen(ctx, in, out)
	if errors.Is(err, context.Canceled) {
		return nil
	}
	return err
}

// ServeSSE serves the MCP endpoints over SSE on addr until ctx is done.
func (s *Server) ServeSSE(ctx context.Context, addr, baseURL string) error {
	sseServer := server.NewSSEServer(s.mcpServer, server.WithBaseURL(baseURL))

	mux := http.NewServeMux()
	mux.Handle("/sse", corsMiddleware(sseServer.SSEHandler()))
	mux.Handle("/message", corsMiddleware(sseServer.MessageHandler()))

	httpServer := &http.Server{
		Addr:              addr,
		Handler:           mux,
		ReadHeaderTimeout: 10 * time.Second,
	}

	// Channel to listen for errors coming from the listener.
	serverErrors := make(chan error, 1)
	go func() {
		s.logger.Info("MCP Server listening (SSE)", "address", addr, "base_url", baseURL)
		serverErrors <- httpServer.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		s.logger.Info("Shutting down MCP Server")
		if err := httpServer.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
		return nil
	}
}

func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization, X-Requested-With")

		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func (s *Server) registerTools() {
	sessionID := mcp.WithString("session_id", mcp.Required(), mcp.Description("Session id"))

	s.mcpServer.AddTool(mcp.NewTool("create_session",
		mcp.WithDescription("Create and persist a fresh player session."),
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleCreateSession))

	s.mcpServer.AddTool(mcp.NewTool("get_session",
		mcp.WithDescription("Read a session: money, inventory, flags, quests and the parked conversation."),
		sessionID,
		mcp.WithOutputSchema[SessionResult](),
	), mcp.NewStructuredToolHandler(s.handleGetSession))

	s.mcpServer.AddTool(mcp.NewTool("start_conversation",
		mcp.WithDescription("Start a conversation between a session and an owner. Omit session_id to create a session."),
		mcp.WithString("session_id", mcp.Description("Session id (optional)")),
		mcp.WithString("owner_id", mcp.Required(), mcp.Description("Owner (NPC or object) to talk to")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleStart))

	s.mcpServer.AddTool(mcp.NewTool("select_option",
		mcp.WithDescription("Pick one of the presented options by its 0-based index."),
		sessionID,
		mcp.WithNumber("index", mcp.Required(), mcp.Description("0-based index into the presented options")),
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.handleSelect))

	s.mcpServer.AddTool(mcp.NewTool("continue",
		mcp.WithDescription("Resume a conversation parked on an unwired Exec port."),
		sessionID,
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.step("continue", s.game.Continue)))

	s.mcpServer.AddTool(mcp.NewTool("close_shop",
		mcp.WithDescription("Close the trade window and follow the shop's OnClose port."),
		sessionID,
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.step("close_shop", s.game.CloseShop)))

	s.mcpServer.AddTool(mcp.NewTool("end_conversation",
		mcp.WithDescription("Force-terminate the session's conversation."),
		sessionID,
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.step("end_conversation", s.game.End)))

	s.mcpServer.AddTool(mcp.NewTool("pending",
		mcp.WithDescription("Replay what the parked conversation is waiting on, without advancing it."),
		sessionID,
		mcp.WithOutputSchema[TurnResult](),
	), mcp.NewStructuredToolHandler(s.step("pending", s.game.Pending)))
}

func (s *Server) handleCreateSession(ctx context.Context, request mcp.CallToolRequest, args struct{}) (SessionResult, error) {
	sess, err := s.game.NewSession(ctx)
	if err != nil {
		return SessionResult{}, s.failed("create_session", err)
	}
	return SessionResult{Session: sess}, nil
}

func (s *Server) handleGetSession(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (SessionResult, error) {
	id, err := cleanID("session_id", args.SessionID)
	if err != nil {
		return SessionResult{}, err
	}
	sess, err := s.game.Session(ctx, id)
	if err != nil {
		return SessionResult{}, s.failed("get_session", err)
	}
	return SessionResult{Session: sess}, nil
}

func (s *Server) handleStart(ctx context.Context, request mcp.CallToolRequest, args StartArgs) (TurnResult, error) {
	ownerID, err := cleanID("owner_id", args.OwnerID)
	if err != nil {
		return TurnResult{}, err
	}
	sessionID := strings.TrimSpace(args.SessionID)
	if sessionID == "" {
		sess, err := s.game.NewSession(ctx)
		if err != nil {
			return TurnResult{}, s.failed("start_conversation", err)
		}
		sessionID = sess.ID
	} else if sessionID, err = cleanID("session_id", sessionID); err != nil {
		return TurnResult{}, err
	}

	turn, err := s.game.Start(ctx, sessionID, ownerID)
	if err != nil {
		return TurnResult{}, s.failed("start_conversation", err)
	}
	return toResult(turn), nil
}

func (s *Server) handleSelect(ctx context.Context, request mcp.CallToolRequest, args SelectArgs) (TurnResult, error) {
	id, err := cleanID("session_id", args.SessionID)
	if err != nil {
		return TurnResult{}, err
	}
	turn, err := s.game.Select(ctx, id, args.Index)
	if err != nil {
		return TurnResult{}, s.failed("select_option", err)
	}
	return toResult(turn), nil
}

// step adapts a single-session Game call to a structured tool handler.
func (s *Server) step(tool string, fn func(context.Context, string) (*palaver.Turn, error)) mcp.StructuredToolHandlerFunc[SessionArgs, TurnResult] {
	return func(ctx context.Context, request mcp.CallToolRequest, args SessionArgs) (TurnResult, error) {
		id, err := cleanID("session_id", args.SessionID)
		if err != nil {
			return TurnResult{}, err
		}
		turn, err := fn(ctx, id)
		if err != nil {
			return TurnResult{}, s.failed(tool, err)
		}
		return toResult(turn), nil
	}
}

func (s *Server) registerResources() {
	s.mcpServer.AddResource(mcp.NewResource(ownersURI, "Conversation owners",
		mcp.WithResourceDescription("Ids of every owner with an authored script"),
		mcp.WithMIMEType("application/json"),
	), s.readOwners)

	s.mcpServer.AddResourceTemplate(mcp.NewResourceTemplate(graphTemplate, "Owner dialogue graph",
		mcp.WithTemplateDescription("Nodes and connections of one owner's dialogue graph"),
		mcp.WithTemplateMIMEType("application/json"),
	), s.readGraph)
}

func (s *Server) readOwners(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	owners, err := s.game.Owners(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list owners: %w", err)
	}
	if owners == nil {
		owners = []string{}
	}
	return jsonContents(ownersURI, owners)
}

func (s *Server) readGraph(ctx context.Context, request mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	uri := request.Params.URI
	ownerID, ok := ownerFromGraphURI(uri)
	if !ok {
		return nil, fmt.Errorf("not a graph resource: %s", uri)
	}
	graph, err := s.game.Graph(ctx, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to load graph of %s: %w", ownerID, err)
	}
	return jsonContents(uri, GraphResult{
		ID:          graph.ID,
		OwnerID:     graph.OwnerID,
		Nodes:       graph.Nodes(),
		Connections: graph.Connections(),
	})
}

// ownerFromGraphURI extracts the owner id of palaver://owners/{owner_id}/graph.
func ownerFromGraphURI(uri string) (string, bool) {
	rest, ok := strings.CutPrefix(uri, ownersURI+"/")
	if !ok {
		return "", false
	}
	ownerID, ok := strings.CutSuffix(rest, "/graph")
	if !ok || domain.IsBlank(ownerID) || strings.Contains(ownerID, "/") {
		return "", false
	}
	return ownerID, true
}

func jsonContents(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// cleanID sanitizes an id argument the way player input is sanitized.
func cleanID(name, raw string) (string, error) {
	clean, err := runner.SanitizeInput(strings.TrimSpace(raw))
	if err != nil {
		return "", fmt.Errorf("%s rejected: %w", name, err)
	}
	if clean == "" {
		return "", fmt.Errorf("%s is required", name)
	}
	return clean, nil
}

func (s *Server) failed(tool string, err error) error {
	s.logger.Debug("MCP tool failed", "tool", tool, "error", err)
	return fmt.Errorf("%s failed: %w", tool, err)
}

func toResult(turn *palaver.Turn) TurnResult {
	return TurnResult{
		Outcome: turn.Outcome,
		Events:  domain.Envelopes(turn.Events),
		Session: turn.Session,
	}
}
