package palaver

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/aretw0/palaver/internal/logging"
	"github.com/aretw0/palaver/internal/runtime"
	"github.com/aretw0/palaver/pkg/adapters/memory"
	"github.com/aretw0/palaver/pkg/domain"
	"github.com/aretw0/palaver/pkg/ports"
	"github.com/aretw0/palaver/pkg/registry"
	"github.com/aretw0/palaver/pkg/session"
)

// Version is the module version reported by the CLI and the HTTP API.
var Version = "0.3.0"

// Game is the high-level entry point of the library. It binds the
// conversation engine to a session manager so every call is a locked
// load-run-save cycle on one session.
type Game struct {
	engine   *runtime.Engine
	scripts  ports.ScriptStore
	sessions *session.Manager
	logger   *slog.Logger
}

type config struct {
	registry    ports.NodeRegistry
	catalog     ports.ObjectCatalog
	store       ports.SessionStore
	locker      ports.DistributedLocker
	hooks       domain.LifecycleHooks
	logger      *slog.Logger
	debug       bool
	startMoney  int
	sessionOpts []session.Option
}

// Option defines a functional option for configuring the Game.
type Option func(*config)

// WithRegistry overrides the default node-type registry.
func WithRegistry(r ports.NodeRegistry) Option {
	return func(c *config) {
		c.registry = r
	}
}

// WithObjectCatalog resolves object names in player notices.
func WithObjectCatalog(catalog ports.ObjectCatalog) Option {
	return func(c *config) {
		c.catalog = catalog
	}
}

// WithSessionStore sets where sessions are persisted (default: in memory).
func WithSessionStore(store ports.SessionStore) Option {
	return func(c *config) {
		c.store = store
	}
}

// WithLocker enables distributed locking of sessions.
func WithLocker(locker ports.DistributedLocker) Option {
	return func(c *config) {
		c.locker = locker
	}
}

// WithLifecycleHooks registers observability hooks.
func WithLifecycleHooks(hooks domain.LifecycleHooks) Option {
	return func(c *config) {
		c.hooks = hooks
	}
}

// WithLogger sets a custom structured logger.
func WithLogger(logger *slog.Logger) Option {
	return func(c *config) {
		c.logger = logger
	}
}

// WithDebug surfaces diagnostics as events.
func WithDebug(debug bool) Option {
	return func(c *config) {
		c.debug = debug
	}
}

// WithStartMoney sets the money of new sessions.
func WithStartMoney(money int) Option {
	return func(c *config) {
		c.startMoney = money
	}
}

// WithSessionOptions passes extra options to the session manager.
func WithSessionOptions(opts ...session.Option) Option {
	return func(c *config) {
		c.sessionOpts = append(c.sessionOpts, opts...)
	}
}

// New creates a Game over a script store.
func New(scripts ports.ScriptStore, opts ...Option) *Game {
	c := &config{}
	for _, opt := range opts {
		opt(c)
	}
	if c.registry == nil {
		c.registry = registry.NewDefault()
	}
	if c.store == nil {
		c.store = memory.NewStore()
	}
	if c.logger == nil {
		c.logger = logging.NewNop()
	}

	engineOpts := []runtime.EngineOption{
		runtime.WithLogger(c.logger),
		runtime.WithLifecycleHooks(c.hooks),
		runtime.WithDebug(c.debug),
	}
	if c.catalog != nil {
		engineOpts = append(engineOpts, runtime.WithObjectCatalog(c.catalog))
	}

	sessionOpts := []session.Option{
		session.WithLogger(c.logger),
		session.WithStartMoney(c.startMoney),
	}
	if c.locker != nil {
		sessionOpts = append(sessionOpts, session.WithLocker(c.locker))
	}
	sessionOpts = append(sessionOpts, c.sessionOpts...)

	return &Game{
		engine:   runtime.NewEngine(scripts, c.registry, engineOpts...),
		scripts:  scripts,
		sessions: session.NewManager(c.store, sessionOpts...),
		logger:   c.logger,
	}
}

// Turn is the outcome of one call into a conversation.
type Turn struct {
	// Outcome is the engine result, e.g. "started", "continues" or "no_op".
	Outcome string
	Events  []domain.Event
	// Session is the saved session after the call.
	Session *domain.Session
}

// Sessions exposes the session manager.
func (g *Game) Sessions() *session.Manager {
	return g.sessions
}

// Owners lists the conversation owners known to the script store.
func (g *Game) Owners(ctx context.Context) ([]string, error) {
	return g.scripts.Owners(ctx)
}

// Graph returns the dialogue graph of an owner.
func (g *Game) Graph(ctx context.Context, ownerID string) (*domain.ConversationGraph, error) {
	return g.engine.Graph(ctx, ownerID)
}

// Session loads a session.
func (g *Game) Session(ctx context.Context, sessionID string) (*domain.Session, error) {
	return g.sessions.Load(ctx, sessionID)
}

// ListSessions returns the ids of the stored sessions.
func (g *Game) ListSessions(ctx context.Context) ([]string, error) {
	return g.sessions.List(ctx)
}

// DeleteSession removes a session and its conversation.
func (g *Game) DeleteSession(ctx context.Context, sessionID string) error {
	return g.sessions.Delete(ctx, sessionID)
}

// NewSession creates and persists a fresh session.
func (g *Game) NewSession(ctx context.Context) (*domain.Session, error) {
	return g.sessions.Create(ctx)
}

// Start begins a conversation between a session and an owner. It returns
// domain.ErrConversationActive when the session is already talking.
func (g *Game) Start(ctx context.Context, sessionID, ownerID string) (*Turn, error) {
	turn := &Turn{}
	var result domain.StartResult
	sess, err := g.sessions.Update(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		var log domain.EventLog
		var err error
		result, err = g.engine.Start(ctx, sess, ownerID, &log)
		if err != nil {
			return err
		}
		turn.Events = log.Drain()
		if result == domain.AlreadyActive {
			return domain.ErrConversationActive
		}
		return nil
	})
	turn.Outcome = result.String()
	turn.Session = sess
	if err != nil {
		return turn, fmt.Errorf("start %s: %w", ownerID, err)
	}
	return turn, nil
}

// Select picks one of the presented options.
func (g *Game) Select(ctx context.Context, sessionID string, index int) (*Turn, error) {
	return g.step(ctx, sessionID, func(ctx context.Context, sess *domain.Session, sink ports.EventSink) (domain.StepResult, error) {
		return g.engine.SelectOption(ctx, sess, index, sink)
	})
}

// Continue follows the Exec port of the current node.
func (g *Game) Continue(ctx context.Context, sessionID string) (*Turn, error) {
	return g.step(ctx, sessionID, g.engine.Continue)
}

// CloseShop resumes a conversation parked on a Shop node.
func (g *Game) CloseShop(ctx context.Context, sessionID string) (*Turn, error) {
	return g.step(ctx, sessionID, g.engine.CloseShop)
}

// End force-terminates the session's conversation.
func (g *Game) End(ctx context.Context, sessionID string) (*Turn, error) {
	turn := &Turn{Outcome: "ended"}
	sess, err := g.sessions.Update(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		var log domain.EventLog
		g.engine.EndConversation(ctx, sess, &log)
		turn.Events = log.Drain()
		return nil
	})
	turn.Session = sess
	return turn, err
}

// Pending returns the events the session's parked conversation waits on.
func (g *Game) Pending(ctx context.Context, sessionID string) (*Turn, error) {
	sess, err := g.sessions.Load(ctx, sessionID)
	if err != nil {
		return nil, err
	}
	events, err := g.engine.Pending(ctx, sess)
	if err != nil {
		return nil, err
	}
	return &Turn{Outcome: domain.NoOp.String(), Events: events, Session: sess}, nil
}

type stepFunc func(context.Context, *domain.Session, ports.EventSink) (domain.StepResult, error)

func (g *Game) step(ctx context.Context, sessionID string, fn stepFunc) (*Turn, error) {
	turn := &Turn{Outcome: domain.NoOp.String()}
	sess, err := g.sessions.Update(ctx, sessionID, func(ctx context.Context, sess *domain.Session) error {
		if sess.ActiveConversation() == nil {
			return domain.ErrNoConversation
		}
		var log domain.EventLog
		result, err := fn(ctx, sess, &log)
		if err != nil {
			return err
		}
		turn.Outcome = result.String()
		turn.Events = log.Drain()
		return nil
	})
	turn.Session = sess
	return turn, err
}
