package authflow

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/rs/zerolog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/skillorbit/skillorbit/internal/cli/auth"
	"github.com/skillorbit/skillorbit/internal/cli/client"
	"github.com/skillorbit/skillorbit/internal/session"
)

// fakeHolder records calls and lets tests control results
type fakeHolder struct {
	mu        sync.Mutex
	current   session.Session
	listeners []func(session.Session)

	loginCalls    atomic.Int32
	registerCalls atomic.Int32
	loginGate     chan struct{}
	loginErr      error
	registerErr   error
	registerMsg   string
}

func (h *fakeHolder) Login(ctx context.Context, creds session.Credentials) (session.Session, error) {
	h.loginCalls.Add(1)
	if h.loginGate != nil {
		<-h.loginGate
	}
	if h.loginErr != nil {
		return session.Session{}, h.loginErr
	}
	s := session.Session{Authenticated: true, User: json.RawMessage(`{"userEmail":"` + creds.UserEmail + `"}`)}
	h.set(s)
	return s, nil
}

func (h *fakeHolder) Register(ctx context.Context, details session.Registration) (session.RegistrationResult, error) {
	h.registerCalls.Add(1)
	return session.RegistrationResult{Message: h.registerMsg}, h.registerErr
}

func (h *fakeHolder) Current() session.Session {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.current
}

func (h *fakeHolder) Subscribe(fn func(session.Session)) func() {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.listeners = append(h.listeners, fn)
	return func() {
		h.mu.Lock()
		defer h.mu.Unlock()
		h.listeners = nil
	}
}

func (h *fakeHolder) set(s session.Session) {
	h.mu.Lock()
	h.current = s
	listeners := append([]func(session.Session){}, h.listeners...)
	h.mu.Unlock()

	for _, fn := range listeners {
		fn(s)
	}
}

func TestFlow_InvalidFormNeverCallsBackend(t *testing.T) {
	holder := &fakeHolder{}
	flow := New(holder)
	defer flow.Close()

	for _, email := range []string{"", "plainaddress", "missing@domain", "@nouser.com", "two@@at.com"} {
		flow.SetSignIn(SignInForm{UserEmail: email, Password: "secret"})
		assert.False(t, flow.CanSubmit(), email)

		err := flow.Submit(context.Background())
		var verr *ValidationError
		assert.True(t, errors.As(err, &verr), email)
	}

	flow.SetMode(ModeSignUp)
	flow.SetSignUp(SignUpForm{UserName: "alice", UserEmail: "alice@", Password: "x"})
	assert.Equal(t, []string{"Please enter a valid email."}, flow.Problems())
	assert.Error(t, flow.Submit(context.Background()))

	assert.Zero(t, holder.loginCalls.Load())
	assert.Zero(t, holder.registerCalls.Load())
}

func TestFlow_SubmitWhileSubmittingIsNoop(t *testing.T) {
	holder := &fakeHolder{loginGate: make(chan struct{})}
	flow := New(holder)
	defer flow.Close()

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "x"})

	done := make(chan error, 1)
	go func() { done <- flow.Submit(context.Background()) }()

	require.Eventually(t, flow.Submitting, time.Second, time.Millisecond)
	assert.False(t, flow.CanSubmit())

	for i := 0; i < 5; i++ {
		assert.ErrorIs(t, flow.Submit(context.Background()), ErrSubmitInFlight)
	}

	close(holder.loginGate)
	require.NoError(t, <-done)

	assert.Equal(t, int32(1), holder.loginCalls.Load())
	assert.False(t, flow.Submitting())
}

func TestFlow_LoginSuccessRedirectsOnce(t *testing.T) {
	holder := &fakeHolder{}

	var redirects atomic.Int32
	flow := New(holder, WithRedirect(func(session.Session) { redirects.Add(1) }))
	defer flow.Close()
	require.True(t, flow.Active())

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "x"})
	require.NoError(t, flow.Submit(context.Background()))

	// A second authenticated notification must not redirect again
	holder.set(holder.Current())

	assert.Equal(t, int32(1), redirects.Load())
	assert.False(t, flow.Active())
	assert.Equal(t, SignInForm{}, flow.SignIn(), "form cleared after success")

	msg, ok := flow.Message()
	require.True(t, ok)
	assert.Equal(t, MessageSuccess, msg.Kind)
}

func TestFlow_AlreadyAuthenticatedRedirectsImmediately(t *testing.T) {
	holder := &fakeHolder{current: session.Session{Authenticated: true}}

	redirected := false
	flow := New(holder, WithRedirect(func(session.Session) { redirected = true }))
	defer flow.Close()

	assert.True(t, redirected)
	assert.False(t, flow.Active())
}

func TestFlow_SessionResetReenablesForms(t *testing.T) {
	holder := &fakeHolder{current: session.Session{Authenticated: true}}
	flow := New(holder)
	defer flow.Close()
	require.False(t, flow.Active())

	holder.set(session.Session{})
	assert.True(t, flow.Active())
}

func TestFlow_LoginErrorShownAndAutoCleared(t *testing.T) {
	holder := &fakeHolder{loginErr: &client.APIError{StatusCode: 401, Message: "Invalid credentials", Err: client.ErrUnauthorized}}
	flow := New(holder, WithMessageTTL(30*time.Millisecond))
	defer flow.Close()

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "bad"})
	err := flow.Submit(context.Background())
	require.ErrorIs(t, err, client.ErrUnauthorized)

	msg, ok := flow.Message()
	require.True(t, ok)
	assert.Equal(t, Message{Kind: MessageError, Text: "Invalid credentials"}, msg)
	assert.Equal(t, "a@b.com", flow.SignIn().UserEmail, "form stays editable after failure")

	require.Eventually(t, func() bool {
		_, ok := flow.Message()
		return !ok
	}, time.Second, 5*time.Millisecond)
}

func TestFlow_TimeoutMessage(t *testing.T) {
	holder := &fakeHolder{loginErr: &client.APIError{Message: "request timeout", Err: client.ErrTimeout}}
	flow := New(holder)
	defer flow.Close()

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "x"})
	require.Error(t, flow.Submit(context.Background()))

	msg, _ := flow.Message()
	assert.Equal(t, "request timeout", msg.Text)
}

func TestFlow_ModeSwitchClearsMessage(t *testing.T) {
	holder := &fakeHolder{loginErr: errors.New("boom")}
	flow := New(holder)
	defer flow.Close()

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "x"})
	require.Error(t, flow.Submit(context.Background()))
	_, ok := flow.Message()
	require.True(t, ok)

	flow.SetMode(ModeSignUp)

	_, ok = flow.Message()
	assert.False(t, ok)
	assert.Equal(t, ModeSignUp, flow.Mode())
	assert.Equal(t, SignInForm{}, flow.SignIn(), "form left behind is reset")
}

func TestFlow_StaleTimerDoesNotClearNewerMessage(t *testing.T) {
	flow := New(&fakeHolder{}, WithMessageTTL(time.Hour))
	defer flow.Close()

	flow.showMessage(MessageError, "first")
	flow.mu.Lock()
	staleGen := flow.msgGen
	flow.mu.Unlock()

	flow.showMessage(MessageSuccess, "second")
	flow.expireMessage(staleGen)

	msg, ok := flow.Message()
	require.True(t, ok)
	assert.Equal(t, "second", msg.Text)
}

func TestFlow_CloseCancelsTimer(t *testing.T) {
	flow := New(&fakeHolder{}, WithMessageTTL(time.Hour))
	flow.showMessage(MessageSuccess, "hi")

	flow.Close()
	assert.False(t, flow.Active())

	flow.mu.Lock()
	defer flow.mu.Unlock()
	assert.Nil(t, flow.timer)
	assert.Nil(t, flow.message)
	assert.True(t, flow.closed)
}

func TestFlow_SignUpSuccessSwitchesToSignIn(t *testing.T) {
	holder := &fakeHolder{registerMsg: "User registered successfully!"}
	flow := New(holder)
	defer flow.Close()

	flow.SetMode(ModeSignUp)
	flow.SetSignUp(SignUpForm{UserName: "alice", UserEmail: "a@b.com", Password: "x"})
	require.NoError(t, flow.Submit(context.Background()))

	assert.Equal(t, ModeSignIn, flow.Mode())
	assert.Equal(t, SignUpForm{UserName: "", UserEmail: "", Password: ""}, flow.SignUp())

	msg, ok := flow.Message()
	require.True(t, ok)
	assert.Equal(t, Message{Kind: MessageSuccess, Text: "User registered successfully!"}, msg)
	assert.True(t, flow.Active(), "registration does not sign in")
}

func TestFlow_SignUpFailureKeepsMode(t *testing.T) {
	holder := &fakeHolder{registerErr: &client.APIError{StatusCode: 400, Message: "User name or user email already exists", Err: client.ErrRejected}}
	flow := New(holder)
	defer flow.Close()

	flow.SetMode(ModeSignUp)
	form := SignUpForm{UserName: "alice", UserEmail: "a@b.com", Password: "x"}
	flow.SetSignUp(form)
	require.Error(t, flow.Submit(context.Background()))

	assert.Equal(t, ModeSignUp, flow.Mode())
	assert.Equal(t, form, flow.SignUp())
	msg, _ := flow.Message()
	assert.Equal(t, "User name or user email already exists", msg.Text)
}

// Startup check against a backend that answers success:false leaves the
// forms visible and never redirects.
func TestFlow_StartupCheckRejected(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":false}`))
	}))
	defer ts.Close()

	store := auth.NewMemoryStore()
	api := client.New(client.Config{BaseURL: ts.URL, Timeout: time.Second}, store, zerolog.Nop())
	holder := session.New(api, store, zerolog.Nop())
	defer holder.Close()

	s := holder.CheckSession(context.Background())
	assert.Equal(t, session.Session{Authenticated: false, User: nil}, s)

	redirected := false
	flow := New(holder, WithRedirect(func(session.Session) { redirected = true }))
	defer flow.Close()

	assert.False(t, redirected)
	assert.True(t, flow.Active())
	assert.Equal(t, ModeSignIn, flow.Mode())
}

// Login through the real holder and client lands on an authenticated session
// carrying the backend's user payload.
func TestFlow_EndToEndLogin(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(`{"success":true,"data":{"accessToken":"tok","user":{"userName":"alice","userEmail":"a@b.com"}}}`))
	}))
	defer ts.Close()

	store := auth.NewMemoryStore()
	api := client.New(client.Config{BaseURL: ts.URL, Timeout: time.Second}, store, zerolog.Nop())
	holder := session.New(api, store, zerolog.Nop())
	defer holder.Close()

	var got []session.Session
	flow := New(holder, WithRedirect(func(s session.Session) { got = append(got, s) }))
	defer flow.Close()

	flow.SetSignIn(SignInForm{UserEmail: "a@b.com", Password: "x"})
	require.NoError(t, flow.Submit(context.Background()))

	require.Len(t, got, 1)
	assert.True(t, got[0].Authenticated)
	assert.JSONEq(t, `{"userName":"alice","userEmail":"a@b.com"}`, string(got[0].User))
	assert.Equal(t, got[0], holder.Current())
}
