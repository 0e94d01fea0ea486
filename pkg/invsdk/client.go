package invsdk

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/sync/singleflight"

	"github.com/aussiebroadwan/stockroom/pkg/httpx"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

// DefaultTimeout is the ceiling applied to every request.
const DefaultTimeout = 15 * time.Second

// Client is a client for the inventory REST API. It attaches the stored access
// token to every request, refreshes it once on a 401 and replays the request.
//
// A Client is safe for concurrent use.
type Client struct {
	BaseURL    string
	HTTPClient *http.Client
	Tokens     TokenStore
	Events     *Bus
	Logger     *slog.Logger

	// RefreshTimeout bounds the shared refresh call. It is independent of the
	// context of whichever request triggered it.
	RefreshTimeout time.Duration

	validate     *validator.Validate
	cache        *queryCache
	refreshGroup singleflight.Group
}

// Option configures a Client.
type Option func(*clientOptions)

type clientOptions struct {
	httpClient *http.Client
	timeout    time.Duration
	logger     *slog.Logger
	events     *Bus
	cacheTTL   time.Duration
	rateLimit  httpx.RateLimitConfig
}

// WithHTTPClient replaces the default HTTP client. The client is used as is:
// no logging or rate limiting transport is installed.
func WithHTTPClient(hc *http.Client) Option {
	return func(o *clientOptions) { o.httpClient = hc }
}

// WithTimeout sets the per-request ceiling. Defaults to DefaultTimeout.
func WithTimeout(d time.Duration) Option {
	return func(o *clientOptions) { o.timeout = d }
}

func WithLogger(logger *slog.Logger) Option {
	return func(o *clientOptions) { o.logger = logger }
}

// WithEvents shares an existing event bus instead of creating one.
func WithEvents(bus *Bus) Option {
	return func(o *clientOptions) { o.events = bus }
}

// WithCacheTTL sets how long list reads are cached. Zero disables the cache.
func WithCacheTTL(d time.Duration) Option {
	return func(o *clientOptions) { o.cacheTTL = d }
}

// WithRateLimit throttles outgoing requests.
func WithRateLimit(cfg httpx.RateLimitConfig) Option {
	return func(o *clientOptions) { o.rateLimit = cfg }
}

// NewClient creates a client for the API rooted at baseURL (without the /api
// suffix). tokens must not be nil.
func NewClient(baseURL string, tokens TokenStore, opts ...Option) *Client {
	o := clientOptions{
		timeout:  DefaultTimeout,
		cacheTTL: DefaultCacheTTL,
	}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slog.Default()
	}
	if o.events == nil {
		o.events = NewBus()
	}

	hc := o.httpClient
	if hc == nil {
		var rt http.RoundTripper = &slogx.Transport{Base: http.DefaultTransport, Logger: o.logger}
		if o.rateLimit.Enabled() {
			rt = &httpx.LimitTransport{Base: rt, Limiter: o.rateLimit.Limiter()}
		}
		hc = &http.Client{Timeout: o.timeout, Transport: rt}
	}

	return &Client{
		BaseURL:        strings.TrimSuffix(baseURL, "/"),
		HTTPClient:     hc,
		Tokens:         tokens,
		Events:         o.events,
		Logger:         o.logger,
		RefreshTimeout: o.timeout,
		validate:       validator.New(validator.WithRequiredStructEnabled()),
		cache:          newQueryCache(o.cacheTTL),
	}
}

// Authenticated reports whether both tokens are stored.
func (c *Client) Authenticated() bool {
	return c.Tokens.Get(TokenAccess) != "" && c.Tokens.Get(TokenRefresh) != ""
}

// InvalidationCount reports how many times the named list cache was
// invalidated by a mutation. Keys are "items", "categories" and "users".
func (c *Client) InvalidationCount(key string) int {
	return c.cache.invalidationCount(key)
}

// validateRequest checks a write payload before it leaves the process.
func (c *Client) validateRequest(v any) error {
	err := c.validate.Struct(v)
	if err == nil {
		return nil
	}
	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidRequest, err)
	}
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		msgs = append(msgs, fmt.Sprintf("%s failed %q", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidRequest, strings.Join(msgs, ", "))
}

// do performs an API request with the stored access token. A 401 triggers one
// refresh and one replay of the request; the replayed response is returned as
// is, whatever its status.
func (c *Client) do(ctx context.Context, method, path string, body any) (*http.Response, error) {
	payload, err := encodeBody(body)
	if err != nil {
		return nil, err
	}

	sent := c.Tokens.Get(TokenAccess)
	resp, err := c.send(ctx, method, path, payload, sent)
	if err != nil {
		return nil, err
	}
	if resp.StatusCode != http.StatusUnauthorized {
		return resp, nil
	}

	unauthorized := readError(resp)

	if c.Tokens.Get(TokenRefresh) == "" {
		c.Tokens.Clear()
		c.cache.reset()
		c.Events.Publish(EventUnauthorized)
		return nil, unauthorized
	}

	token, err := c.refreshFrom(ctx, sent)
	if err != nil {
		return nil, err
	}

	c.Logger.Debug("replaying request after refresh", "method", method, "path", path)
	return c.send(ctx, method, path, payload, token)
}
