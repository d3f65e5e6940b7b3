package client

import (
	"context"
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"net/http/cookiejar"
	"strings"
	"sync"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/rs/zerolog"

	"github.com/skillorbit/skillorbit/internal/cli/auth"
)

const (
	// DefaultTimeout matches the slowest free-tier backend we deploy to
	DefaultTimeout = 15 * time.Second

	headerRequestedWith = "X-Requested-With"
)

// Config holds the fixed transport settings of a Client
type Config struct {
	BaseURL string
	Timeout time.Duration
}

// Client represents an HTTP client for the SkillOrbit API. Every request gets
// the default headers and the stored bearer token; every 401 clears the token
// and notifies the OnUnauthorized observers.
type Client struct {
	rc     *resty.Client
	tokens auth.TokenStore
	log    zerolog.Logger

	mu             sync.Mutex
	nextObserverID int
	onUnauthorized map[int]func()
}

// New creates a new API client
func New(cfg Config, tokens auth.TokenStore, log zerolog.Logger) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = DefaultTimeout
	}

	c := &Client{
		tokens:         tokens,
		log:            log,
		onUnauthorized: make(map[int]func()),
	}

	// Session cookies set by the backend are replayed on later calls
	jar, _ := cookiejar.New(nil)

	c.rc = resty.New().
		SetBaseURL(strings.TrimRight(cfg.BaseURL, "/")).
		SetTimeout(cfg.Timeout).
		SetCookieJar(jar).
		SetHeader(headerRequestedWith, "XMLHttpRequest").
		OnBeforeRequest(c.beforeRequest).
		OnAfterResponse(c.afterResponse)

	return c
}

// BaseURL returns the API base address
func (c *Client) BaseURL() string {
	return c.rc.BaseURL
}

// OnUnauthorized registers fn to run after any 401 response, once the token is
// cleared. The returned func removes the observer.
func (c *Client) OnUnauthorized(fn func()) func() {
	c.mu.Lock()
	defer c.mu.Unlock()

	id := c.nextObserverID
	c.nextObserverID++
	c.onUnauthorized[id] = fn

	return func() {
		c.mu.Lock()
		defer c.mu.Unlock()
		delete(c.onUnauthorized, id)
	}
}

func (c *Client) beforeRequest(_ *resty.Client, req *resty.Request) error {
	if req.Header.Get("Content-Type") == "" {
		req.SetHeader("Content-Type", "application/json")
	}

	token, err := c.tokens.Load()
	if err != nil {
		// Send unauthenticated rather than failing the call
		c.log.Warn().Err(err).Msg("Failed to read access token")
	} else if token != "" {
		req.SetHeader("Authorization", "Bearer "+token)
	}

	c.log.Debug().Str("method", req.Method).Str("url", req.URL).Msg("Sending request")
	return nil
}

func (c *Client) afterResponse(_ *resty.Client, resp *resty.Response) error {
	c.log.Debug().
		Str("method", resp.Request.Method).
		Str("url", resp.Request.URL).
		Int("status", resp.StatusCode()).
		Dur("duration", resp.Time()).
		Msg("Received response")

	if resp.StatusCode() == http.StatusUnauthorized {
		c.invalidateSession()
	}
	return nil
}

// invalidateSession drops the stored token and tells every observer
func (c *Client) invalidateSession() {
	if err := c.tokens.Clear(); err != nil {
		c.log.Error().Err(err).Msg("Failed to clear access token after 401")
	}

	c.mu.Lock()
	observers := make([]func(), 0, len(c.onUnauthorized))
	for _, fn := range c.onUnauthorized {
		observers = append(observers, fn)
	}
	c.mu.Unlock()

	for _, fn := range observers {
		fn()
	}
}

// send performs one call and decodes the response envelope. It never retries.
func (c *Client) send(ctx context.Context, method, path string, body any) (*Envelope, error) {
	req := c.rc.R().SetContext(ctx)
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		apiErr := transportError(method, req.URL, err)
		c.log.Warn().
			Err(err).
			Str("method", method).
			Str("url", req.URL).
			Msg("API request failed")
		return nil, apiErr
	}

	var env Envelope
	decodeErr := json.Unmarshal(resp.Body(), &env)

	if resp.IsError() || decodeErr != nil || !env.Success {
		apiErr := &APIError{
			Method:     method,
			URL:        resp.Request.URL,
			StatusCode: resp.StatusCode(),
			Message:    env.Message,
			Err:        ErrRejected,
		}
		switch {
		case resp.StatusCode() == http.StatusUnauthorized:
			apiErr.Err = ErrUnauthorized
		case decodeErr != nil && !resp.IsError():
			apiErr.Err = decodeErr
			apiErr.Message = "unexpected response from server"
		}
		if apiErr.Message == "" {
			apiErr.Message = http.StatusText(resp.StatusCode())
		}

		c.log.Warn().
			Str("method", method).
			Str("url", apiErr.URL).
			Int("status", apiErr.StatusCode).
			Str("response", resp.String()).
			Msg("API error")
		return nil, apiErr
	}

	return &env, nil
}

// transportError classifies a failure where no response was received
func transportError(method, url string, err error) *APIError {
	apiErr := &APIError{Method: method, URL: url, Err: ErrNetwork, Message: ErrNetwork.Error()}

	var netErr net.Error
	switch {
	case errors.Is(err, context.Canceled):
		apiErr.Err = context.Canceled
		apiErr.Message = "request cancelled"
	case errors.Is(err, context.DeadlineExceeded), errors.As(err, &netErr) && netErr.Timeout():
		apiErr.Err = ErrTimeout
		apiErr.Message = ErrTimeout.Error()
	}
	return apiErr
}
