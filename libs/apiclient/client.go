// Package apiclient talks to the petsocial REST backend. Every call carries
// the secure header set, runs under a fixed timeout and has its JSON string
// fields sanitized. A 401 triggers a single token refresh and is then
// reported to the caller; requests are never replayed.
package apiclient

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/petsocial/petsocial/libs/auth"
	"github.com/petsocial/petsocial/libs/credstore"
	"github.com/petsocial/petsocial/libs/httpx"
	otelx "github.com/petsocial/petsocial/libs/otel"
	"github.com/petsocial/petsocial/libs/secevent"
	"github.com/petsocial/petsocial/libs/validate"
	"golang.org/x/sync/singleflight"
	"golang.org/x/time/rate"
)

const (
	DefaultBaseURL = "http://localhost:5000/api"
	DefaultTimeout = 10 * time.Second

	maxResponseBytes = 4 << 20
)

type Config struct {
	BaseURL       string
	Timeout       time.Duration
	RatePerSecond float64
}

type Option func(*Client)

// WithStore sets the credential store. The default keeps tokens in memory.
func WithStore(s credstore.Store) Option {
	return func(c *Client) { c.store = s }
}

func WithLogger(l *slog.Logger) Option {
	return func(c *Client) { c.logger = l }
}

func WithEvents(s secevent.Sink) Option {
	return func(c *Client) { c.events = s }
}

// WithTransport replaces the base round tripper. Request id stamping,
// logging, throttling and tracing are layered on top of it.
func WithTransport(rt http.RoundTripper) Option {
	return func(c *Client) { c.base = rt }
}

func WithTracing() Option {
	return func(c *Client) { c.tracing = true }
}

func WithClock(now func() time.Time) Option {
	return func(c *Client) { c.now = now }
}

type Client struct {
	baseURL string
	timeout time.Duration
	limiter *rate.Limiter
	base    http.RoundTripper
	tracing bool
	http    *http.Client
	store   credstore.Store
	logger  *slog.Logger
	events  secevent.Sink
	now     func() time.Time

	refreshes singleflight.Group
}

func New(cfg Config, opts ...Option) *Client {
	c := &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/"),
		timeout: cfg.Timeout,
		now:     time.Now,
	}
	if c.baseURL == "" {
		c.baseURL = DefaultBaseURL
	}
	if c.timeout <= 0 {
		c.timeout = DefaultTimeout
	}
	if cfg.RatePerSecond > 0 {
		burst := int(cfg.RatePerSecond)
		if burst < 1 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(cfg.RatePerSecond), burst)
	}
	for _, opt := range opts {
		opt(c)
	}
	if c.store == nil {
		c.store = credstore.NewMemoryStore()
	}
	if c.logger == nil {
		c.logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	if c.events == nil {
		c.events = secevent.Nop()
	}

	var tracing httpx.Transport
	if c.tracing {
		tracing = otelx.Transport
	}
	c.http = &http.Client{
		Transport: httpx.ChainTransport(c.base,
			tracing,
			httpx.WithOutboundRequestID(),
			httpx.WithOutboundLog(c.logger),
			httpx.WithThrottle(c.limiter),
		),
		// Redirects are handed back untouched.
		CheckRedirect: func(*http.Request, []*http.Request) error { return http.ErrUseLastResponse },
	}
	return c
}

func (c *Client) BaseURL() string          { return c.baseURL }
func (c *Client) Timeout() time.Duration   { return c.timeout }
func (c *Client) Store() credstore.Store   { return c.store }
func (c *Client) Events() secevent.Sink    { return c.events }
func (c *Client) HTTPClient() *http.Client { return c.http }
func (c *Client) url(path string) string   { return c.baseURL + path }

type request struct {
	method string
	path   string
	query  url.Values
	body   any
	header http.Header

	// raw bodies skip JSON encoding and sanitization.
	raw         []byte
	contentType string
}

// SecureHeaders returns the header set sent with every call. Authorization
// is present only when the stored access token is unexpired.
func (c *Client) SecureHeaders(ctx context.Context) http.Header {
	h := http.Header{}
	h.Set("Content-Type", "application/json")
	h.Set("Accept", "application/json")
	h.Set("X-Requested-With", "XMLHttpRequest")
	creds, err := c.store.Get(ctx)
	if err != nil {
		c.logger.Warn("credential store read failed", "err", err)
		return h
	}
	if creds.AccessToken != "" && !auth.IsExpired(creds.AccessToken, c.now()) {
		h.Set("Authorization", "Bearer "+creds.AccessToken)
	}
	return h
}

func (c *Client) do(ctx context.Context, req request, out any) error {
	start := c.now()
	err := c.roundTrip(ctx, req, out)
	c.logger.Debug("api call",
		"method", req.method,
		"path", req.path,
		"state", Classify(err).String(),
		"duration_ms", c.now().Sub(start).Milliseconds(),
	)
	return err
}

func (c *Client) roundTrip(ctx context.Context, req request, out any) error {
	payload, contentType, err := c.encodeBody(ctx, req)
	if err != nil {
		return err
	}

	status, body, err := c.send(ctx, req, payload, contentType, true)
	if err != nil {
		return err
	}

	switch {
	case status == http.StatusUnauthorized:
		c.refresh(ctx)
		return ErrUnauthorized
	case status == http.StatusTooManyRequests:
		c.record(ctx, secevent.RateLimited, map[string]string{"method": req.method, "path": req.path})
		return ErrRateLimited
	case status < 200 || status > 299:
		return &HTTPError{Status: status, Message: serverMessage(body)}
	}

	if env, ok := envelopeOf(body); ok && env.Success != nil && !*env.Success {
		return &HTTPError{Status: status, Message: env.message()}
	}
	if out == nil || len(bytes.TrimSpace(body)) == 0 {
		return nil
	}
	if err := json.Unmarshal(body, out); err != nil {
		return &NetworkError{Err: fmt.Errorf("decode %s %s: %w", req.method, req.path, err)}
	}
	return nil
}

func (c *Client) encodeBody(ctx context.Context, req request) ([]byte, string, error) {
	if req.raw != nil {
		return req.raw, req.contentType, nil
	}
	if req.body == nil {
		return nil, "", nil
	}
	b, err := json.Marshal(req.body)
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	dec := json.NewDecoder(bytes.NewReader(b))
	dec.UseNumber()
	var generic any
	if err := dec.Decode(&generic); err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	suspicious := false
	generic = SanitizeValue(generic, func(s string) {
		if !suspicious && validate.DetectXSS(s) {
			suspicious = true
		}
	})
	if suspicious {
		c.record(ctx, secevent.XSSDetected, map[string]string{"method": req.method, "path": req.path})
	}
	b, err = json.Marshal(generic)
	if err != nil {
		return nil, "", fmt.Errorf("encode request: %w", err)
	}
	return b, "", nil
}

// send performs one HTTP exchange under the client timeout and returns the
// status and body. withAuth controls whether the bearer token is attached.
func (c *Client) send(parent context.Context, req request, payload []byte, contentType string, withAuth bool) (int, []byte, error) {
	ctx, cancel := context.WithTimeout(parent, c.timeout)
	defer cancel()

	u := c.url(req.path)
	if len(req.query) > 0 {
		u += "?" + req.query.Encode()
	}
	var body io.Reader
	if payload != nil {
		body = bytes.NewReader(payload)
	}
	hreq, err := http.NewRequestWithContext(ctx, req.method, u, body)
	if err != nil {
		return 0, nil, fmt.Errorf("build request: %w", err)
	}

	var headers http.Header
	if withAuth {
		headers = c.SecureHeaders(parent)
	} else {
		headers = http.Header{}
		headers.Set("Content-Type", "application/json")
		headers.Set("Accept", "application/json")
		headers.Set("X-Requested-With", "XMLHttpRequest")
	}
	if contentType != "" {
		headers.Set("Content-Type", contentType)
	}
	for k, vs := range req.header {
		for _, v := range vs {
			headers.Add(k, v)
		}
	}
	hreq.Header = headers

	resp, err := c.http.Do(hreq)
	if err != nil {
		return 0, nil, c.transportError(parent, ctx, err)
	}
	defer resp.Body.Close()

	b, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return 0, nil, c.transportError(parent, ctx, err)
	}
	return resp.StatusCode, b, nil
}

func (c *Client) transportError(parent, ctx context.Context, err error) error {
	if perr := parent.Err(); perr != nil {
		return perr
	}
	if errors.Is(ctx.Err(), context.DeadlineExceeded) {
		return ErrTimeout
	}
	return &NetworkError{Err: err}
}

type refreshResponse struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

// refresh makes at most one POST /auth/refresh. Concurrent 401s share the
// same attempt. On any failure every stored credential is cleared.
func (c *Client) refresh(ctx context.Context) {
	_, _, _ = c.refreshes.Do("refresh", func() (any, error) {
		err := c.tryRefresh(ctx)
		if err != nil {
			c.logger.Warn("token refresh failed", "err", err)
			c.record(ctx, secevent.TokenRefreshFailed, map[string]string{"reason": err.Error()})
			if cerr := c.store.Clear(ctx); cerr != nil {
				c.logger.Error("clear credentials failed", "err", cerr)
			} else {
				c.record(ctx, secevent.CredentialsCleared, map[string]string{"reason": "refresh failed"})
			}
		}
		return nil, err
	})
}

func (c *Client) tryRefresh(ctx context.Context) error {
	creds, err := c.store.Get(ctx)
	if err != nil {
		return fmt.Errorf("read credentials: %w", err)
	}
	if creds.RefreshToken == "" {
		return errors.New("no refresh token stored")
	}
	payload, err := json.Marshal(map[string]string{"refresh_token": creds.RefreshToken})
	if err != nil {
		return err
	}
	status, body, err := c.send(ctx, request{method: http.MethodPost, path: "/auth/refresh"}, payload, "", false)
	if err != nil {
		return err
	}
	if status < 200 || status > 299 {
		return &HTTPError{Status: status, Message: serverMessage(body)}
	}
	var rr refreshResponse
	if err := json.Unmarshal(body, &rr); err != nil {
		return fmt.Errorf("decode refresh response: %w", err)
	}
	if rr.AccessToken == "" {
		return errors.New("refresh response without access token")
	}
	if rr.RefreshToken == "" {
		rr.RefreshToken = creds.RefreshToken
	}
	if err := c.store.Set(ctx, creds.WithTokens(rr.AccessToken, rr.RefreshToken)); err != nil {
		return fmt.Errorf("store refreshed tokens: %w", err)
	}
	return nil
}

func (c *Client) record(ctx context.Context, t secevent.Type, details map[string]string) {
	if err := c.events.Record(ctx, secevent.New(t, details)); err != nil {
		c.logger.Warn("security event not recorded", "event_type", string(t), "err", err)
	}
}

type envelope struct {
	Success *bool  `json:"success"`
	Message string `json:"message"`
	Error   string `json:"error"`
}

func (e envelope) message() string {
	if e.Message != "" {
		return e.Message
	}
	return e.Error
}

func envelopeOf(body []byte) (envelope, bool) {
	trimmed := bytes.TrimSpace(body)
	if len(trimmed) == 0 || trimmed[0] != '{' {
		return envelope{}, false
	}
	var env envelope
	if err := json.Unmarshal(trimmed, &env); err != nil {
		return envelope{}, false
	}
	return env, true
}

func serverMessage(body []byte) string {
	env, ok := envelopeOf(body)
	if !ok {
		return ""
	}
	return env.message()
}
