package expiry

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/core/eventbus"
	"github.com/yndnr/dashlink/internal/telemetry/logger"
	"github.com/yndnr/dashlink/internal/telemetry/metric"
)

// ToastMessage is shown once per episode.
const ToastMessage = "Your session has expired, please log in first"

// State is the coordinator state.
type State int32

const (
	StateIdle State = iota
	StateHandlingExpiry
)

func (s State) String() string {
	if s == StateHandlingExpiry {
		return "handling_expiry"
	}
	return "idle"
}

// DurableStore is the long-lived storage holding the session keys.
type DurableStore interface {
	Delete(ctx context.Context, key string) error
}

// SessionStore is the short-lived storage receiving the return path.
type SessionStore interface {
	Set(ctx context.Context, key, value string) error
}

// Publisher broadcasts a payload-less event.
type Publisher interface {
	Publish(topic eventbus.Topic)
}

// Toaster displays a non-blocking notification for d.
type Toaster interface {
	Warning(message string, d time.Duration)
}

// Navigator exposes the current location and full-page navigation.
type Navigator interface {
	Current() domain.Location
	Navigate(path string)
}

// Config holds the fixed parameters of an episode.
type Config struct {
	TokenKey      string
	UserKey       string
	ReturnKey     string
	Paths         domain.Paths
	RedirectDelay time.Duration
	ToastDuration time.Duration
}

// DefaultConfig returns the defaults used by the dashboard.
func DefaultConfig() Config {
	return Config{
		TokenKey:      "auth_token",
		UserKey:       "auth_user",
		ReturnKey:     "returnUrl",
		Paths:         domain.NewPaths("/"),
		RedirectDelay: 1500 * time.Millisecond,
		ToastDuration: 1800 * time.Millisecond,
	}
}

// Deps are the collaborators an episode acts on.
type Deps struct {
	Durable   DurableStore
	Session   SessionStore
	Events    Publisher
	Toaster   Toaster
	Navigator Navigator
}

// Coordinator deduplicates expiry handling across concurrent requests.
type Coordinator struct {
	cfg     Config
	deps    Deps
	clock   clockwork.Clock
	logger  logger.Logger
	metrics *metric.Registry

	mu        sync.Mutex
	state     State
	episode   uint64
	running   bool          // an episode's synchronous steps are in progress
	settled   chan struct{} // closed once the current episode's synchronous steps ran
	redirects map[*redirect]struct{}
	pending   chan struct{} // closed when every scheduled redirect finished or was cancelled
}

type redirect struct {
	timer clockwork.Timer
}

// Option configures a Coordinator.
type Option func(*Coordinator)

// WithClock sets the clock used to schedule the redirect.
func WithClock(clock clockwork.Clock) Option {
	return func(c *Coordinator) {
		c.clock = clock
	}
}

// WithLogger sets the logger.
func WithLogger(l logger.Logger) Option {
	return func(c *Coordinator) {
		c.logger = l
	}
}

// WithMetrics sets the metrics registry.
func WithMetrics(m *metric.Registry) Option {
	return func(c *Coordinator) {
		c.metrics = m
	}
}

// New creates an idle coordinator.
func New(cfg Config, deps Deps, opts ...Option) *Coordinator {
	c := &Coordinator{
		cfg:       cfg,
		deps:      deps,
		clock:     clockwork.NewRealClock(),
		logger:    logger.Default(),
		redirects: make(map[*redirect]struct{}),
	}
	for _, opt := range opts {
		opt(c)
	}
	c.logger = c.logger.With("component", "expiry")
	return c
}

// State returns the current state.
func (c *Coordinator) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// Episode returns how many episodes have started since creation.
func (c *Coordinator) Episode() uint64 {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.episode
}

// HandleUnauthorized records a 401. It returns true for the call that
// started a new episode and ran its side effects. Calls that lose the race
// return false once the winner finished the synchronous steps, or when ctx
// is done, whichever comes first.
func (c *Coordinator) HandleUnauthorized(ctx context.Context) bool {
	c.mu.Lock()
	if c.state == StateHandlingExpiry {
		settled := c.settled
		c.mu.Unlock()

		c.metrics.ExpirySuppressed()
		select {
		case <-settled:
		case <-ctx.Done():
		}
		return false
	}
	c.state = StateHandlingExpiry
	c.running = true
	c.episode++
	episode := c.episode
	settled := make(chan struct{})
	c.settled = settled
	c.mu.Unlock()

	defer func() {
		c.mu.Lock()
		c.running = false
		c.mu.Unlock()
		close(settled)
	}()
	c.metrics.ExpiryEpisode()

	log := c.logger.With("episode", episode)
	log.Warn("session expired, tearing down local session")

	// Cleanup must finish even if the request that observed the 401 was
	// cancelled.
	cleanupCtx := context.WithoutCancel(ctx)
	for _, key := range []string{c.cfg.TokenKey, c.cfg.UserKey} {
		if err := c.deps.Durable.Delete(cleanupCtx, key); err != nil {
			log.Error("failed to delete session key", "key", key, "error", err)
		}
	}

	c.deps.Events.Publish(eventbus.TopicUnauthorized)
	c.deps.Toaster.Warning(ToastMessage, c.cfg.ToastDuration)
	c.schedule(log)

	return true
}

// Reset returns the coordinator to Idle. Call it after a successful login.
// When an episode is still tearing down, Reset waits for it first, so keys
// written after Reset returns are not deleted by that episode. It must not
// be called from an unauthorized event handler. A pending redirect is not
// cancelled.
func (c *Coordinator) Reset() {
	c.mu.Lock()
	for c.running {
		settled := c.settled
		c.mu.Unlock()
		<-settled
		c.mu.Lock()
	}
	prev := c.state
	c.state = StateIdle
	c.mu.Unlock()

	if prev != StateIdle {
		c.logger.Info("expiry flag reset")
	}
}

// CancelRedirect stops pending redirects. It reports whether any redirect
// was stopped before it ran.
func (c *Coordinator) CancelRedirect() bool {
	c.mu.Lock()
	defer c.mu.Unlock()

	var cancelled bool
	for r := range c.redirects {
		if r.timer.Stop() {
			delete(c.redirects, r)
			cancelled = true
		}
	}
	if !cancelled {
		return false
	}
	if len(c.redirects) == 0 {
		close(c.pending)
		c.pending = nil
	}
	c.logger.Info("pending redirect cancelled")
	return true
}

// Pending reports whether a redirect is scheduled and has not run yet.
func (c *Coordinator) Pending() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.pending != nil
}

// Wait blocks until no redirect is pending or ctx is done.
func (c *Coordinator) Wait(ctx context.Context) error {
	c.mu.Lock()
	pending := c.pending
	c.mu.Unlock()

	if pending == nil {
		return nil
	}
	select {
	case <-pending:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (c *Coordinator) schedule(log logger.Logger) {
	c.mu.Lock()
	defer c.mu.Unlock()

	r := &redirect{}
	if len(c.redirects) == 0 {
		c.pending = make(chan struct{})
	}
	c.redirects[r] = struct{}{}
	r.timer = c.clock.AfterFunc(c.cfg.RedirectDelay, func() {
		c.redirect(log)
		c.finish(r)
	})
	log.Debug("redirect scheduled", "delay", c.cfg.RedirectDelay)
}

func (c *Coordinator) finish(r *redirect) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if _, ok := c.redirects[r]; !ok {
		return
	}
	delete(c.redirects, r)
	if len(c.redirects) == 0 {
		close(c.pending)
		c.pending = nil
	}
}

func (c *Coordinator) redirect(log logger.Logger) {
	loc := c.deps.Navigator.Current()
	paths := c.cfg.Paths

	if !paths.IsLogin(loc.Path) {
		if returnPath, ok := paths.ReturnPath(loc); ok {
			if err := c.deps.Session.Set(context.Background(), c.cfg.ReturnKey, returnPath); err != nil {
				log.Error("failed to store return path", "return_path", returnPath, "error", err)
			} else {
				log.Debug("return path stored", "return_path", returnPath)
			}
		}
	}

	log.Info("redirecting to login", "from", loc.String(), "to", paths.Login)
	c.deps.Navigator.Navigate(paths.Login)
}
