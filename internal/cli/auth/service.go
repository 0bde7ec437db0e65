package auth

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"github.com/yndnr/dashlink/internal/core/domain"
	"github.com/yndnr/dashlink/internal/core/eventbus"
	"github.com/yndnr/dashlink/internal/storage"
	"github.com/yndnr/dashlink/internal/telemetry/logger"
)

// Resetter clears the expiry flag. *expiry.Coordinator implements it.
type Resetter interface {
	Reset()
}

// Navigator is the current location plus navigation.
type Navigator interface {
	Current() domain.Location
	Navigate(path string)
}

// Subscriber registers event handlers. *eventbus.Bus implements it.
type Subscriber interface {
	Subscribe(topic eventbus.Topic, fn eventbus.Handler) (unsubscribe func())
}

// User is the stored user record. Unknown fields from the server are kept
// in Raw.
type User struct {
	ID    string `json:"id" yaml:"id"`
	Email string `json:"email,omitempty" yaml:"email,omitempty"`
	Name  string `json:"name,omitempty" yaml:"name,omitempty"`

	Raw json.RawMessage `json:"-" yaml:"-"`
}

// Identity is what whoami reports.
type Identity struct {
	User      *User     `json:"user" yaml:"user"`
	Subject   string    `json:"subject,omitempty" yaml:"subject,omitempty"`
	ExpiresAt time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
	Expired   bool      `json:"expired" yaml:"expired"`
}

// Config holds the storage keys and routes the service uses.
type Config struct {
	TokenKey  string
	UserKey   string
	ReturnKey string
	// LoginEndpoint is the API path of the login call, relative to Server.
	LoginEndpoint string
	Paths         domain.Paths
}

// Deps are the collaborators of the service.
type Deps struct {
	// Server is the API base URL, e.g. http://localhost:18080/api.
	Server  string
	HTTP    *http.Client
	Durable storage.KV
	Session storage.KV
	Expiry  Resetter
	Browser Navigator
	Events  Subscriber
	Logger  logger.Logger
}

// Service manages login state.
type Service struct {
	cfg  Config
	deps Deps

	mu         sync.RWMutex
	server     string
	httpClient *http.Client
	user       *User // cached; dropped when the session expires

	unsubscribe func()
}

// NewService creates the service and subscribes it to the unauthorized
// event.
func NewService(cfg Config, deps Deps) *Service {
	if deps.HTTP == nil {
		deps.HTTP = &http.Client{Timeout: 30 * time.Second}
	}
	if deps.Logger == nil {
		deps.Logger = logger.Default()
	}
	if cfg.LoginEndpoint == "" {
		cfg.LoginEndpoint = "/login"
	}
	deps.Logger = deps.Logger.With("component", "auth")

	s := &Service{cfg: cfg, deps: deps, server: deps.Server, httpClient: deps.HTTP}
	if deps.Events != nil {
		s.unsubscribe = deps.Events.Subscribe(eventbus.TopicUnauthorized, s.onUnauthorized)
	}
	return s
}

// SetServer points the login call at another API base URL. A nil hc keeps
// the current transport.
func (s *Service) SetServer(server string, hc *http.Client) {
	s.mu.Lock()
	s.server = server
	if hc != nil {
		s.httpClient = hc
	}
	s.mu.Unlock()
}

// Close unsubscribes from events.
func (s *Service) Close() {
	if s.unsubscribe != nil {
		s.unsubscribe()
	}
}

func (s *Service) onUnauthorized(eventbus.Topic) {
	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()
	s.deps.Logger.Debug("cached user cleared")
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type loginResponse struct {
	Token string          `json:"token"`
	User  json.RawMessage `json:"user"`
}

// Login authenticates and returns the location it navigated to.
func (s *Service) Login(ctx context.Context, username, password string) (string, error) {
	body, err := json.Marshal(loginRequest{Username: username, Password: password})
	if err != nil {
		return "", fmt.Errorf("marshal login: %w", err)
	}

	s.mu.RLock()
	url := strings.TrimSuffix(s.server, "/") + s.cfg.LoginEndpoint
	hc := s.httpClient
	s.mu.RUnlock()
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(body))
	if err != nil {
		return "", fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return "", err
	}
	defer resp.Body.Close()

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return "", domain.ErrLoginRejected.WithStatus(resp.StatusCode)
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return "", fmt.Errorf("login failed with status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var lr loginResponse
	if err := json.NewDecoder(resp.Body).Decode(&lr); err != nil {
		return "", fmt.Errorf("parse login response: %w", err)
	}
	if lr.Token == "" {
		return "", domain.ErrLoginRejected.WithDetails("no token in response")
	}

	user, err := parseUser(lr.User)
	if err != nil {
		return "", err
	}

	// Reset waits for an expiry teardown still in progress, which would
	// otherwise delete the keys stored below.
	s.deps.Expiry.Reset()

	if err := s.deps.Durable.Set(ctx, s.cfg.TokenKey, lr.Token); err != nil {
		return "", fmt.Errorf("store token: %w", err)
	}
	if err := s.deps.Durable.Set(ctx, s.cfg.UserKey, string(user.Raw)); err != nil {
		return "", fmt.Errorf("store user: %w", err)
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()

	dest := s.cfg.Paths.Root
	if returnPath, ok, err := storage.Take(ctx, s.deps.Session, s.cfg.ReturnKey); err != nil {
		s.deps.Logger.Warn("failed to read return path", "error", err)
	} else if ok && returnPath != "" {
		dest = returnPath
	}

	s.deps.Browser.Navigate(dest)
	s.deps.Logger.Info("logged in", "user", user.ID, "destination", dest)
	return dest, nil
}

// Logout removes the stored session and goes to the login page.
func (s *Service) Logout(ctx context.Context) error {
	var firstErr error
	for _, key := range []string{s.cfg.TokenKey, s.cfg.UserKey} {
		if err := s.deps.Durable.Delete(ctx, key); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("delete %s: %w", key, err)
		}
	}

	s.mu.Lock()
	s.user = nil
	s.mu.Unlock()

	s.deps.Browser.Navigate(s.cfg.Paths.Login)
	return firstErr
}

// Token returns the stored token, or "" when logged out.
func (s *Service) Token(ctx context.Context) (string, error) {
	token, _, err := storage.Lookup(ctx, s.deps.Durable, s.cfg.TokenKey)
	return token, err
}

// Authorize adds the bearer token to h. It is a connection.HeaderSource.
func (s *Service) Authorize(h http.Header) {
	token, err := s.Token(context.Background())
	if err != nil {
		s.deps.Logger.Warn("failed to read token", "error", err)
		return
	}
	if token != "" {
		h.Set("Authorization", "Bearer "+token)
	}
}

// User returns the logged-in user, loading it from durable storage when
// not cached.
func (s *Service) User(ctx context.Context) (*User, error) {
	s.mu.RLock()
	cached := s.user
	s.mu.RUnlock()
	if cached != nil {
		return cached, nil
	}

	raw, ok, err := storage.Lookup(ctx, s.deps.Durable, s.cfg.UserKey)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, domain.ErrNotLoggedIn
	}

	user, err := parseUser(json.RawMessage(raw))
	if err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.user = user
	s.mu.Unlock()
	return user, nil
}

// Whoami reports the user and the claims of the token. The signature is
// not verified; only the server can do that.
func (s *Service) Whoami(ctx context.Context) (*Identity, error) {
	token, err := s.Token(ctx)
	if err != nil {
		return nil, err
	}
	if token == "" {
		return nil, domain.ErrNotLoggedIn
	}

	user, err := s.User(ctx)
	if err != nil {
		return nil, err
	}

	id := &Identity{User: user}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err != nil {
		s.deps.Logger.Debug("token is not a JWT", "error", err)
		return id, nil
	}
	if sub, err := claims.GetSubject(); err == nil {
		id.Subject = sub
	}
	if exp, err := claims.GetExpirationTime(); err == nil && exp != nil {
		id.ExpiresAt = exp.Time
		id.Expired = time.Now().After(exp.Time)
	}
	return id, nil
}

func parseUser(raw json.RawMessage) (*User, error) {
	if len(raw) == 0 || string(raw) == "null" {
		raw = json.RawMessage(`{}`)
	}
	var u User
	if err := json.Unmarshal(raw, &u); err != nil {
		return nil, fmt.Errorf("parse user: %w", err)
	}
	u.Raw = append(json.RawMessage(nil), raw...)
	return &u, nil
}
