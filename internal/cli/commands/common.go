package commands

import (
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/rs/zerolog"
	"golang.org/x/term"

	"github.com/skillorbit/skillorbit/internal/cli/auth"
	"github.com/skillorbit/skillorbit/internal/cli/client"
	"github.com/skillorbit/skillorbit/internal/cli/config"
	"github.com/skillorbit/skillorbit/internal/session"
)

var errNotInteractive = errors.New("stdin is not a terminal")

// Env carries everything a command touches outside the process
type Env struct {
	loadConfig   func() (*config.Config, error)
	newStore     func(kind, scope string) (auth.TokenStore, error)
	out          io.Writer
	log          zerolog.Logger
	readPassword func(label string) (string, error)
	openURL      func(url string) error
	prompter     Prompter
	rememberUser bool
}

// Option configures the command environment
type Option func(*Env)

// WithConfig skips environment loading and uses cfg
func WithConfig(cfg *config.Config) Option {
	return func(e *Env) {
		e.loadConfig = func() (*config.Config, error) { return cfg, nil }
	}
}

// WithTokenStore uses store regardless of the configured kind
func WithTokenStore(store auth.TokenStore) Option {
	return func(e *Env) {
		e.newStore = func(string, string) (auth.TokenStore, error) { return store, nil }
	}
}

// WithOutput redirects user-facing output
func WithOutput(w io.Writer) Option {
	return func(e *Env) {
		e.out = w
	}
}

// WithLogger sets the diagnostics logger
func WithLogger(log zerolog.Logger) Option {
	return func(e *Env) {
		e.log = log
	}
}

// WithPasswordReader replaces the terminal password prompt
func WithPasswordReader(fn func(label string) (string, error)) Option {
	return func(e *Env) {
		e.readPassword = fn
	}
}

// WithBrowser replaces the function that opens URLs
func WithBrowser(fn func(url string) error) Option {
	return func(e *Env) {
		e.openURL = fn
	}
}

// WithPrompter replaces the interactive prompts
func WithPrompter(p Prompter) Option {
	return func(e *Env) {
		e.prompter = p
	}
}

// WithoutUserConfig stops commands from writing ~/.config/skillorbit
func WithoutUserConfig() Option {
	return func(e *Env) {
		e.rememberUser = false
	}
}

func newEnv(opts []Option) *Env {
	e := &Env{
		loadConfig:   config.Load,
		newStore:     auth.NewStore,
		out:          os.Stdout,
		log:          zerolog.Nop(),
		readPassword: readTerminalPassword,
		openURL:      openBrowser,
		prompter:     promptuiPrompter{},
		rememberUser: true,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// deps is the per-invocation wiring of config, token store, client and session
type deps struct {
	cfg    *config.Config
	tokens auth.TokenStore
	api    *client.Client
	holder *session.Holder
}

func (e *Env) open() (*deps, error) {
	cfg, err := e.loadConfig()
	if err != nil {
		return nil, fmt.Errorf("failed to load config: %w", err)
	}

	tokens, err := e.newStore(cfg.TokenStore, cfg.APIBase)
	if err != nil {
		return nil, err
	}

	api := client.New(cfg.Client(), tokens, e.log)
	return &deps{
		cfg:    cfg,
		tokens: tokens,
		api:    api,
		holder: session.New(api, tokens, e.log),
	}, nil
}

func (r *deps) Close() {
	r.holder.Close()
}

func (e *Env) printf(format string, args ...any) {
	fmt.Fprintf(e.out, format, args...)
}

// resolvePassword returns the flag value, the configured value, or prompts
func (e *Env) resolvePassword(flagValue, configured string) (string, error) {
	if flagValue != "" {
		return flagValue, nil
	}
	if configured != "" {
		return configured, nil
	}

	password, err := e.readPassword("Password: ")
	if errors.Is(err, errNotInteractive) {
		return "", fmt.Errorf("password is required in non-interactive mode (use --password flag or SKILLORBIT_PASSWORD env var)")
	}
	if err != nil {
		return "", fmt.Errorf("failed to read password: %w", err)
	}
	return password, nil
}

func readTerminalPassword(label string) (string, error) {
	fd := int(os.Stdin.Fd())
	if !term.IsTerminal(fd) {
		return "", errNotInteractive
	}

	fmt.Print(label)
	bytePassword, err := term.ReadPassword(fd)
	fmt.Println()
	if err != nil {
		return "", err
	}
	return string(bytePassword), nil
}

func describeUser(s session.Session) string {
	p, err := s.Profile()
	if err != nil || (p.UserName == "" && p.UserEmail == "") {
		return "unknown user"
	}
	if p.UserName == "" {
		return p.UserEmail
	}
	return fmt.Sprintf("%s (%s)", p.UserName, p.UserEmail)
}
