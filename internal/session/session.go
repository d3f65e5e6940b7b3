// Package session holds the client-side authentication state: whether the
// user is signed in, who they are, and the transitions between those states.
//
// A Holder is created once per client and shared by reference. It owns the
// token store; the only other writer is the HTTP client's 401 handling, which
// the holder observes through OnUnauthorized.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"

	"github.com/rs/zerolog"

	"github.com/skillorbit/skillorbit/internal/cli/auth"
	"github.com/skillorbit/skillorbit/internal/cli/client"
)

// State is a position in the auth state machine
type State int

const (
	StateUnknown State = iota
	StateLoading
	StateAuthenticated
	StateUnauthenticated
)

func (s State) String() string {
	switch s {
	case StateUnknown:
		return "unknown"
	case StateLoading:
		return "loading"
	case StateAuthenticated:
		return "authenticated"
	case StateUnauthenticated:
		return "unauthenticated"
	default:
		return fmt.Sprintf("State(%d)", int(s))
	}
}

// ErrNoToken is returned when a login succeeds without handing out a token
var ErrNoToken = errors.New("login response carried no access token")

// Session is a snapshot of the authentication status
type Session struct {
	Authenticated bool
	User          json.RawMessage // opaque backend payload, nil when signed out
}

// Profile is the subset of user fields shown to people
type Profile struct {
	ID        string `json:"_id"`
	UserName  string `json:"userName"`
	UserEmail string `json:"userEmail"`
	Role      string `json:"role"`
}

// Profile decodes the well-known user fields. Unknown fields are ignored.
func (s Session) Profile() (Profile, error) {
	var p Profile
	if len(s.User) == 0 {
		return p, nil
	}
	if err := json.Unmarshal(s.User, &p); err != nil {
		return p, fmt.Errorf("failed to decode user: %w", err)
	}
	return p, nil
}

// Credentials are what login needs
type Credentials struct {
	UserEmail string
	Password  string
}

// Registration are what sign-up needs
type Registration struct {
	UserName  string
	UserEmail string
	Password  string
}

// RegistrationResult reports a completed sign-up
type RegistrationResult struct {
	Message string
}

// API is the backend surface the holder drives
type API interface {
	Login(ctx context.Context, req client.LoginRequest) (*client.AuthResponse, error)
	Register(ctx context.Context, req client.RegisterRequest) (string, error)
	CheckAuth(ctx context.Context) (*client.AuthResponse, error)
	Logout(ctx context.Context) error
	OnUnauthorized(fn func()) func()
}

// Holder owns the session and the access token
type Holder struct {
	api    API
	tokens auth.TokenStore
	log    zerolog.Logger

	mu        sync.Mutex
	state     State
	session   Session
	lastErr   error
	checkOnce sync.Once
	epoch     uint64 // bumped by every settle
	nextSubID int
	listeners map[int]func(Session)

	detach func()
}

// New creates a holder in StateUnknown and subscribes it to the API's 401 events
func New(api API, tokens auth.TokenStore, log zerolog.Logger) *Holder {
	h := &Holder{
		api:       api,
		tokens:    tokens,
		log:       log,
		state:     StateUnknown,
		listeners: make(map[int]func(Session)),
	}
	h.detach = api.OnUnauthorized(h.invalidate)
	return h
}

// Close detaches the holder from the API's 401 events
func (h *Holder) Close() {
	h.detach()
}

// State returns the current state machine position
func (h *Holder) State() State {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.state
}

// Current returns the current session snapshot
func (h *Holder) Current() Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.session
}

// LastError returns the error of the most recent failed login or registration,
// or nil once a later call succeeded.
func (h *Holder) LastError() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.lastErr
}

// Subscribe registers fn for every session change. The returned func unsubscribes.
func (h *Holder) Subscribe(fn func(Session)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()

	id := h.nextSubID
	h.nextSubID++
	h.listeners[id] = fn

	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		delete(h.listeners, id)
	}
}

// CheckSession asks the backend whether the stored credentials are still good.
// Only the first call reaches the network; later calls return the current
// snapshot. Any failure settles on Unauthenticated. A login, reset or 401
// that lands while the check is in flight wins over the check's result.
// Timeouts and network failures are kept for LastError; a rejected check is not.
func (h *Holder) CheckSession(ctx context.Context) Session {
	h.checkOnce.Do(func() {
		h.mu.Lock()
		h.state = StateLoading
		started := h.epoch
		h.mu.Unlock()

		resp, err := h.api.CheckAuth(ctx)
		if err != nil {
			h.log.Debug().Err(err).Msg("Session check failed")

			var reportErr error
			if errors.Is(err, client.ErrTimeout) || errors.Is(err, client.ErrNetwork) {
				reportErr = err
			}
			h.settleSince(started, StateUnauthenticated, Session{}, reportErr)
			return
		}
		h.settleSince(started, StateAuthenticated, Session{Authenticated: true, User: resp.User}, nil)
	})

	return h.Current()
}

// Login authenticates and stores the access token. On failure the session is
// Unauthenticated and the error is kept for LastError.
func (h *Holder) Login(ctx context.Context, creds Credentials) (Session, error) {
	resp, err := h.api.Login(ctx, client.LoginRequest{
		UserEmail: creds.UserEmail,
		Password:  creds.Password,
	})
	if err == nil && resp.AccessToken == "" {
		err = ErrNoToken
	}
	if err == nil {
		if serr := h.tokens.Save(resp.AccessToken); serr != nil {
			err = fmt.Errorf("failed to store access token: %w", serr)
		}
	}
	if err != nil {
		h.settle(StateUnauthenticated, Session{}, err)
		return Session{}, err
	}

	s := Session{Authenticated: true, User: resp.User}
	h.settle(StateAuthenticated, s, nil)
	h.log.Debug().Msg("Logged in")
	return s, nil
}

// Register creates an account. The session is not signed in by registration.
func (h *Holder) Register(ctx context.Context, details Registration) (RegistrationResult, error) {
	message, err := h.api.Register(ctx, client.RegisterRequest{
		UserName:  details.UserName,
		UserEmail: details.UserEmail,
		Password:  details.Password,
		Role:      "user",
	})

	h.mu.Lock()
	h.lastErr = err
	h.mu.Unlock()

	if err != nil {
		return RegistrationResult{}, err
	}
	return RegistrationResult{Message: message}, nil
}

// Reset clears the session and LastError without touching the backend or token
func (h *Holder) Reset() {
	h.mu.Lock()
	h.lastErr = nil
	h.mu.Unlock()

	h.settle(StateUnauthenticated, Session{}, nil)
}

// Logout ends the backend session when possible, then always drops the token
// and resets. The backend error, if any, is returned after the local reset.
func (h *Holder) Logout(ctx context.Context) error {
	remoteErr := h.api.Logout(ctx)
	if remoteErr != nil {
		h.log.Debug().Err(remoteErr).Msg("Backend logout failed")
	}

	if err := h.tokens.Clear(); err != nil {
		h.Reset()
		return fmt.Errorf("failed to clear access token: %w", err)
	}

	h.Reset()

	// A 401 here means the session was already gone
	if errors.Is(remoteErr, client.ErrUnauthorized) {
		return nil
	}
	return remoteErr
}

// invalidate is the 401 observer: the client already cleared the token
func (h *Holder) invalidate() {
	h.log.Info().Msg("Session invalidated by server")
	h.settle(StateUnauthenticated, Session{}, nil)
}

// settle moves to a terminal state and notifies listeners outside the lock.
// A nil err keeps any lastErr recorded earlier unless the state is Authenticated.
func (h *Holder) settle(state State, s Session, err error) {
	h.mu.Lock()
	h.apply(state, s, err)
}

// settleSince settles only if nothing else settled after epoch started
func (h *Holder) settleSince(started uint64, state State, s Session, err error) {
	h.mu.Lock()
	if h.epoch != started {
		h.mu.Unlock()
		h.log.Debug().Str("discarded", state.String()).Msg("Session check outdated by a newer change")
		return
	}
	h.apply(state, s, err)
}

// apply is called with h.mu held and releases it before notifying
func (h *Holder) apply(state State, s Session, err error) {
	h.epoch++
	h.state = state
	h.session = s
	if err != nil || state == StateAuthenticated {
		h.lastErr = err
	}
	listeners := make([]func(Session), 0, len(h.listeners))
	for _, fn := range h.listeners {
		listeners = append(listeners, fn)
	}
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}
