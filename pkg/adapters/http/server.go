package http

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"sync"

	"github.com/aretw0/palaver"
	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Game defines the conversation operations served over HTTP.
// *palaver.Game implements it.
type Game interface {
	NewSession(ctx context.Context) (*domain.Session, error)
	Start(ctx context.Context, sessionID, ownerID string) (*palaver.Turn, error)
	Select(ctx context.Context, sessionID string, index int) (*palaver.Turn, error)
	Continue(ctx context.Context, sessionID string) (*palaver.Turn, error)
	CloseShop(ctx context.Context, sessionID string) (*palaver.Turn, error)
	End(ctx context.Context, sessionID string) (*palaver.Turn, error)
	Pending(ctx context.Context, sessionID string) (*palaver.Turn, error)
	Owners(ctx context.Context) ([]string, error)
	Graph(ctx context.Context, ownerID string) (*domain.ConversationGraph, error)
	Session(ctx context.Context, sessionID string) (*domain.Session, error)
	DeleteSession(ctx context.Context, sessionID string) error
	ListSessions(ctx context.Context) ([]string, error)
}

// Server serves a Game over a JSON API.
type Server struct {
	Game    Game
	Streams *StreamManager
	logger  *slog.Logger
	gather  prometheus.Gatherer
}

// Option configures the Server.
type Option func(*Server)

// WithLogger sets the request logger.
func WithLogger(logger *slog.Logger) Option {
	return func(s *Server) {
		s.logger = logger
	}
}

// WithGatherer sets the registry exposed on /metrics (default: prometheus.DefaultGatherer).
func WithGatherer(g prometheus.Gatherer) Option {
	return func(s *Server) {
		s.gather = g
	}
}

// NewHandler creates a new HTTP handler for the game.
func NewHandler(game Game, opts ...Option) http.Handler {
	server := &Server{
		Game:    game,
		Streams: NewStreamManager(),
		logger:  logging.NewNop(),
		gather:  prometheus.DefaultGatherer,
	}
	for _, opt := range opts {
		opt(server)
	}
	server.Streams.logger = server.logger

	r := chi.NewRouter()
	r.Use(middleware.Recoverer)

	r.Get("/health", server.GetHealth)
	r.Get("/info", server.GetInfo)
	r.Handle("/metrics", promhttp.HandlerFor(server.gather, promhttp.HandlerOpts{}))

	r.Get("/owners", server.ListOwners)
	r.Get("/owners/{ownerID}/graph", server.GetGraph)

	r.Route("/sessions", func(r chi.Router) {
		r.Post("/", server.CreateSession)
		r.Get("/", server.ListSessions)
		r.Route("/{sessionID}", func(r chi.Router) {
			r.Get("/", server.GetSession)
			r.Delete("/", server.DeleteSession)
			r.Post("/conversation", server.StartConversation)
			r.Post("/select", server.SelectOption)
			r.Post("/continue", server.Continue)
			r.Post("/close-shop", server.CloseShop)
			r.Post("/end", server.EndConversation)
			r.Get("/pending", server.Pending)
			r.Get("/events", server.SubscribeEvents)
		})
	})

	return enableCORS(r)
}

func enableCORS(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusOK)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// TurnResponse is the body returned by every conversation call.
type TurnResponse struct {
	Outcome string            `json:"outcome"`
	Events  []domain.Envelope `json:"events"`
	Session *domain.Session   `json:"session,omitempty"`
}

// StartRequest is the body of POST /sessions/{id}/conversation.
type StartRequest struct {
	OwnerID string `json:"owner_id"`
}

// SelectRequest is the body of POST /sessions/{id}/select.
type SelectRequest struct {
	Index *int `json:"index"`
}

type errorResponse struct {
	Error string `json:"error"`
}

// GetHealth handles the GET /health request.
func (s *Server) GetHealth(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
}

// GetInfo handles the GET /info request.
func (s *Server) GetInfo(w http.ResponseWriter, r *http.Request) {
	s.writeJSON(w, http.StatusOK, map[string]string{
		"app":     "palaver-http",
		"version": strings.TrimSpace(palaver.Version),
	})
}

// ListOwners handles the GET /owners request.
func (s *Server) ListOwners(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Game.Owners(r.Context())
	if err != nil {
		s.writeError(w, "ListOwners", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GraphResponse is the dialogue graph of an owner.
type GraphResponse struct {
	ID          string              `json:"id"`
	OwnerID     string              `json:"owner_id"`
	Nodes       []domain.ScriptNode `json:"nodes"`
	Connections []domain.Connection `json:"connections"`
}

// GetGraph handles the GET /owners/{ownerID}/graph request.
func (s *Server) GetGraph(w http.ResponseWriter, r *http.Request) {
	graph, err := s.Game.Graph(r.Context(), chi.URLParam(r, "ownerID"))
	if err != nil {
		s.writeError(w, "GetGraph", err)
		return
	}
	s.writeJSON(w, http.StatusOK, GraphResponse{
		ID:          graph.ID,
		OwnerID:     graph.OwnerID,
		Nodes:       graph.Nodes(),
		Connections: graph.Connections(),
	})
}

// CreateSession handles the POST /sessions request.
func (s *Server) CreateSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Game.NewSession(r.Context())
	if err != nil {
		s.writeError(w, "CreateSession", err)
		return
	}
	s.writeJSON(w, http.StatusCreated, sess)
}

// ListSessions handles the GET /sessions request.
func (s *Server) ListSessions(w http.ResponseWriter, r *http.Request) {
	ids, err := s.Game.ListSessions(r.Context())
	if err != nil {
		s.writeError(w, "ListSessions", err)
		return
	}
	s.writeJSON(w, http.StatusOK, ids)
}

// GetSession handles the GET /sessions/{sessionID} request.
func (s *Server) GetSession(w http.ResponseWriter, r *http.Request) {
	sess, err := s.Game.Session(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "GetSession", err)
		return
	}
	s.writeJSON(w, http.StatusOK, sess)
}

// DeleteSession handles the DELETE /sessions/{sessionID} request.
func (s *Server) DeleteSession(w http.ResponseWriter, r *http.Request) {
	if err := s.Game.DeleteSession(r.Context(), chi.URLParam(r, "sessionID")); err != nil {
		s.writeError(w, "DeleteSession", err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

// StartConversation handles the POST /sessions/{sessionID}/conversation request.
func (s *Server) StartConversation(w http.ResponseWriter, r *http.Request) {
	var body StartRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || domain.IsBlank(body.OwnerID) {
		s.badRequest(w, "StartConversation", "owner_id is required", err)
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	turn, err := s.Game.Start(r.Context(), sessionID, body.OwnerID)
	if err != nil {
		s.writeError(w, "StartConversation", err)
		return
	}

	s.writeTurn(w, sessionID, startStatus(turn.Outcome), turn)
}

// SelectOption handles the POST /sessions/{sessionID}/select request.
func (s *Server) SelectOption(w http.ResponseWriter, r *http.Request) {
	var body SelectRequest
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil || body.Index == nil {
		s.badRequest(w, "SelectOption", "index is required", err)
		return
	}
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := s.Game.Select(r.Context(), sessionID, *body.Index)
	if err != nil {
		s.writeError(w, "SelectOption", err)
		return
	}
	s.writeTurn(w, sessionID, http.StatusOK, turn)
}

// Continue handles the POST /sessions/{sessionID}/continue request.
func (s *Server) Continue(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "Continue", s.Game.Continue)
}

// CloseShop handles the POST /sessions/{sessionID}/close-shop request.
func (s *Server) CloseShop(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "CloseShop", s.Game.CloseShop)
}

// EndConversation handles the POST /sessions/{sessionID}/end request.
func (s *Server) EndConversation(w http.ResponseWriter, r *http.Request) {
	s.step(w, r, "EndConversation", s.Game.End)
}

// Pending handles the GET /sessions/{sessionID}/pending request.
func (s *Server) Pending(w http.ResponseWriter, r *http.Request) {
	turn, err := s.Game.Pending(r.Context(), chi.URLParam(r, "sessionID"))
	if err != nil {
		s.writeError(w, "Pending", err)
		return
	}
	s.writeJSON(w, http.StatusOK, toResponse(turn))
}

func (s *Server) step(w http.ResponseWriter, r *http.Request, op string, fn func(context.Context, string) (*palaver.Turn, error)) {
	sessionID := chi.URLParam(r, "sessionID")
	turn, err := fn(r.Context(), sessionID)
	if err != nil {
		s.writeError(w, op, err)
		return
	}
	s.writeTurn(w, sessionID, http.StatusOK, turn)
}

// SubscribeEvents handles the GET /sessions/{sessionID}/events request (SSE).
// Every event produced for the session after the subscription is streamed.
func (s *Server) SubscribeEvents(w http.ResponseWriter, r *http.Request) {
	flusher, ok := w.(http.Flusher)
	if !ok {
		http.Error(w, "Streaming not supported", http.StatusInternalServerError)
		s.logger.Error("SubscribeEvents: Streaming not supported")
		return
	}

	sessionID := chi.URLParam(r, "sessionID")
	w.Header().Set("Content-Type", "text/event-stream")
	w.Header().Set("Cache-Control", "no-cache")
	w.Header().Set("Connection", "keep-alive")

	ch, cancel := s.Streams.Subscribe(sessionID)
	defer cancel()
	s.logger.Info("SSE: Subscribing to session events", "session_id", sessionID)

	fmt.Fprintf(w, "event: ping\ndata: connected\n\n")
	flusher.Flush()

	for {
		select {
		case <-r.Context().Done():
			s.logger.Info("SSE: Client disconnected", "session_id", sessionID)
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			fmt.Fprintf(w, "data: %s\n\n", msg)
			flusher.Flush()
		}
	}
}

func (s *Server) writeTurn(w http.ResponseWriter, sessionID string, status int, turn *palaver.Turn) {
	for _, env := range domain.Envelopes(turn.Events) {
		if data, err := json.Marshal(env); err == nil {
			s.Streams.Broadcast(sessionID, string(data))
		}
	}
	s.writeJSON(w, status, toResponse(turn))
}

func toResponse(turn *palaver.Turn) TurnResponse {
	return TurnResponse{
		Outcome: turn.Outcome,
		Events:  domain.Envelopes(turn.Events),
		Session: turn.Session,
	}
}

// startStatus maps a start outcome that did not begin a conversation.
func startStatus(outcome string) int {
	switch outcome {
	case domain.OwnerNotFound.String():
		return http.StatusNotFound
	case domain.EmptyGraph.String(), domain.NoStartNode.String():
		return http.StatusUnprocessableEntity
	default:
		return http.StatusOK
	}
}

func statusFor(err error) int {
	var stateErr *domain.StateError
	switch {
	case errors.Is(err, domain.ErrSessionNotFound), errors.Is(err, domain.ErrOwnerNotFound):
		return http.StatusNotFound
	case errors.Is(err, domain.ErrConversationActive), errors.Is(err, domain.ErrNoConversation):
		return http.StatusConflict
	case errors.As(err, &stateErr):
		return http.StatusBadRequest
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusServiceUnavailable
	default:
		return http.StatusInternalServerError
	}
}

func (s *Server) writeError(w http.ResponseWriter, op string, err error) {
	status := statusFor(err)
	if status >= http.StatusInternalServerError {
		s.logger.Error(op+" failed", "error", err)
	} else {
		s.logger.Debug(op+" rejected", "error", err, "status", status)
	}
	s.writeJSON(w, status, errorResponse{Error: err.Error()})
}

func (s *Server) badRequest(w http.ResponseWriter, op, msg string, err error) {
	s.logger.Warn(op+": Invalid request body", "error", err)
	s.writeJSON(w, http.StatusBadRequest, errorResponse{Error: msg})
}

func (s *Server) writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		s.logger.Error("response encode failed", "error", err)
	}
}

// StreamManager handles active SSE connections.
type StreamManager struct {
	mu          sync.RWMutex
	subscribers map[string]map[chan<- string]struct{} // SessionID -> Set of Channels
	logger      *slog.Logger
}

// NewStreamManager creates an empty StreamManager.
func NewStreamManager() *StreamManager {
	return &StreamManager{
		subscribers: make(map[string]map[chan<- string]struct{}),
		logger:      logging.NewNop(),
	}
}

// Subscribe registers a channel for a session. The returned func unsubscribes
// and closes the channel.
func (sm *StreamManager) Subscribe(sessionID string) (<-chan string, func()) {
	sm.mu.Lock()
	defer sm.mu.Unlock()

	ch := make(chan string, 16)
	if _, ok := sm.subscribers[sessionID]; !ok {
		sm.subscribers[sessionID] = make(map[chan<- string]struct{})
	}
	sm.subscribers[sessionID][ch] = struct{}{}

	var once sync.Once
	return ch, func() {
		once.Do(func() {
			sm.mu.Lock()
			defer sm.mu.Unlock()
			if subs, ok := sm.subscribers[sessionID]; ok {
				delete(subs, ch)
				if len(subs) == 0 {
					delete(sm.subscribers, sessionID)
				}
			}
			close(ch)
		})
	}
}

// Broadcast sends msg to every subscriber of the session without blocking.
func (sm *StreamManager) Broadcast(sessionID string, msg string) {
	sm.mu.RLock()
	defer sm.mu.RUnlock()

	for ch := range sm.subscribers[sessionID] {
		select {
		case ch <- msg:
		default:
			// Slow client.
			sm.logger.Warn("SSE: Client buffer full, dropping message", "session_id", sessionID)
		}
	}
}

// Subscribers returns the number of subscribers of a session.
func (sm *StreamManager) Subscribers(sessionID string) int {
	sm.mu.RLock()
	defer sm.mu.RUnlock()
	return len(sm.subscribers[sessionID])
}
