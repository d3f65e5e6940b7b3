// Package authflow drives the sign-in/sign-up interaction independently of
// how it is rendered. A Flow owns the two forms, the in-flight guard, the
// transient message and the redirect decision.
package authflow

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	"github.com/skillorbit/skillorbit/internal/cli/client"
	"github.com/skillorbit/skillorbit/internal/session"
)

// Mode selects which form is active
type Mode string

const (
	ModeSignIn Mode = "signin"
	ModeSignUp Mode = "signup"
)

// DefaultMessageTTL is how long a success or error message stays visible
const DefaultMessageTTL = 5 * time.Second

// ErrSubmitInFlight is returned by Submit while a previous submission is running
var ErrSubmitInFlight = errors.New("a submission is already in progress")

const (
	signInSuccessText = "Signed in successfully."
	signUpSuccessText = "Registration successful. Please sign in."
)

// MessageKind tells success and error messages apart
type MessageKind int

const (
	MessageSuccess MessageKind = iota
	MessageError
)

// Message is a transient notice shown under the form
type Message struct {
	Kind MessageKind
	Text string
}

// Authenticator is the part of the session holder the flow needs
type Authenticator interface {
	Login(ctx context.Context, creds session.Credentials) (session.Session, error)
	Register(ctx context.Context, details session.Registration) (session.RegistrationResult, error)
	Current() session.Session
	Subscribe(fn func(session.Session)) func()
}

// Option configures a Flow
type Option func(*Flow)

// WithMessageTTL overrides DefaultMessageTTL
func WithMessageTTL(d time.Duration) Option {
	return func(f *Flow) {
		f.ttl = d
	}
}

// WithRedirect sets the callback run once when the session becomes authenticated
func WithRedirect(fn func(session.Session)) Option {
	return func(f *Flow) {
		f.onRedirect = fn
	}
}

// Flow is the sign-in/sign-up controller
type Flow struct {
	holder     Authenticator
	ttl        time.Duration
	onRedirect func(session.Session)

	submitting atomic.Bool

	mu         sync.Mutex
	mode       Mode
	signIn     SignInForm
	signUp     SignUpForm
	message    *Message
	msgGen     uint64
	timer      *time.Timer
	redirected bool
	closed     bool

	unsubscribe func()
}

// New creates a flow in sign-in mode. If the holder is already authenticated
// the redirect fires before New returns.
func New(holder Authenticator, opts ...Option) *Flow {
	f := &Flow{
		holder: holder,
		ttl:    DefaultMessageTTL,
		mode:   ModeSignIn,
	}
	for _, opt := range opts {
		opt(f)
	}

	f.unsubscribe = holder.Subscribe(f.onSession)
	f.onSession(holder.Current())
	return f
}

// Close cancels the message timer and stops following the session
func (f *Flow) Close() {
	f.mu.Lock()
	f.closed = true
	f.clearMessageLocked()
	f.mu.Unlock()

	f.unsubscribe()
}

func (f *Flow) onSession(s session.Session) {
	f.mu.Lock()
	if f.closed {
		f.mu.Unlock()
		return
	}
	if !s.Authenticated {
		f.redirected = false
		f.mu.Unlock()
		return
	}
	if f.redirected {
		f.mu.Unlock()
		return
	}
	f.redirected = true
	redirect := f.onRedirect
	f.mu.Unlock()

	if redirect != nil {
		redirect(s)
	}
}

// Active reports whether the forms should still be shown
func (f *Flow) Active() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return !f.redirected && !f.closed
}

// Mode returns the active mode
func (f *Flow) Mode() Mode {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.mode
}

// SetMode switches forms. The form being left is reset and any message is
// cleared immediately.
func (f *Flow) SetMode(m Mode) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if m == f.mode {
		return
	}
	switch f.mode {
	case ModeSignIn:
		f.signIn = SignInForm{}
	case ModeSignUp:
		f.signUp = SignUpForm{}
	}
	f.mode = m
	f.clearMessageLocked()
}

func (f *Flow) SignIn() SignInForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signIn
}

func (f *Flow) SetSignIn(form SignInForm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signIn = form
}

func (f *Flow) SignUp() SignUpForm {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.signUp
}

func (f *Flow) SetSignUp(form SignUpForm) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.signUp = form
}

// Problems returns the inline validation messages of the active form
func (f *Flow) Problems() []string {
	var err error
	f.mu.Lock()
	if f.mode == ModeSignUp {
		err = f.signUp.Validate()
	} else {
		err = f.signIn.Validate()
	}
	f.mu.Unlock()

	var verr *ValidationError
	if errors.As(err, &verr) {
		return verr.Problems
	}
	return nil
}

// Submitting reports whether a submission is in flight
func (f *Flow) Submitting() bool {
	return f.submitting.Load()
}

// CanSubmit reports whether the submit action is enabled
func (f *Flow) CanSubmit() bool {
	return !f.Submitting() && len(f.Problems()) == 0
}

// Message returns the visible message, if any
func (f *Flow) Message() (Message, bool) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.message == nil {
		return Message{}, false
	}
	return *f.message, true
}

// Submit sends the active form. It returns ErrSubmitInFlight without doing
// anything while another submission runs, and a *ValidationError without a
// network call when the form is invalid. Backend and transport errors are
// both returned and shown as the flow message.
func (f *Flow) Submit(ctx context.Context) error {
	if !f.submitting.CompareAndSwap(false, true) {
		return ErrSubmitInFlight
	}
	defer f.submitting.Store(false)

	f.mu.Lock()
	mode, signIn, signUp := f.mode, f.signIn, f.signUp
	f.mu.Unlock()

	if mode == ModeSignUp {
		return f.submitSignUp(ctx, signUp)
	}
	return f.submitSignIn(ctx, signIn)
}

func (f *Flow) submitSignIn(ctx context.Context, form SignInForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	_, err := f.holder.Login(ctx, session.Credentials{
		UserEmail: form.UserEmail,
		Password:  form.Password,
	})
	if err != nil {
		f.showMessage(MessageError, client.UserMessage(err))
		return err
	}

	f.mu.Lock()
	f.signIn = SignInForm{}
	f.mu.Unlock()

	f.showMessage(MessageSuccess, signInSuccessText)
	return nil
}

func (f *Flow) submitSignUp(ctx context.Context, form SignUpForm) error {
	if err := form.Validate(); err != nil {
		return err
	}

	res, err := f.holder.Register(ctx, session.Registration{
		UserName:  form.UserName,
		UserEmail: form.UserEmail,
		Password:  form.Password,
	})
	if err != nil {
		f.showMessage(MessageError, client.UserMessage(err))
		return err
	}

	text := res.Message
	if text == "" {
		text = signUpSuccessText
	}

	f.mu.Lock()
	f.signUp = SignUpForm{}
	f.mode = ModeSignIn
	f.mu.Unlock()

	f.showMessage(MessageSuccess, text)
	return nil
}

// showMessage replaces the current message and restarts the clear timer
func (f *Flow) showMessage(kind MessageKind, text string) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.closed {
		return
	}

	f.clearMessageLocked()
	f.message = &Message{Kind: kind, Text: text}
	gen := f.msgGen
	f.timer = time.AfterFunc(f.ttl, func() {
		f.expireMessage(gen)
	})
}

// expireMessage clears the message only if no newer one replaced it
func (f *Flow) expireMessage(gen uint64) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if f.msgGen != gen {
		return
	}
	f.message = nil
	f.timer = nil
}

func (f *Flow) clearMessageLocked() {
	f.msgGen++
	if f.timer != nil {
		f.timer.Stop()
		f.timer = nil
	}
	f.message = nil
}
