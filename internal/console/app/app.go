// Package app wires configuration, logging, token storage, the API client and
// the session manager into one console application.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/aussiebroadwan/stockroom/internal/console/roles"
	"github.com/aussiebroadwan/stockroom/internal/console/session"
	"github.com/aussiebroadwan/stockroom/internal/console/tokenstore"
	"github.com/aussiebroadwan/stockroom/internal/console/view"
	"github.com/aussiebroadwan/stockroom/pkg/httpx"
	"github.com/aussiebroadwan/stockroom/pkg/invsdk"
	"github.com/aussiebroadwan/stockroom/pkg/slogx"
)

// BuildVersion is overridden at build time via ldflags.
var BuildVersion = "v0.1.0"

var (
	ErrNotLoggedIn = errors.New("not logged in")
	ErrForbidden   = errors.New("insufficient role")
)

// Application holds the console's dependencies.
type Application struct {
	cfg    Config
	logger *slog.Logger
	styles view.Styles

	tokens  tokenstore.Store
	client  *invsdk.Client
	nav     *Navigator
	session *session.Manager
}

// Option adjusts an Application before it is wired.
type Option func(*options)

type options struct {
	logger  *slog.Logger
	out     io.Writer
	httpOpt []invsdk.Option
}

// WithLogger replaces the logger built from the config.
func WithLogger(l *slog.Logger) Option {
	return func(o *options) { o.logger = l }
}

// WithOutput sets where operator prompts and logs are written. Defaults to
// stderr.
func WithOutput(w io.Writer) Option {
	return func(o *options) { o.out = w }
}

// WithClientOptions passes extra options to the API client.
func WithClientOptions(opts ...invsdk.Option) Option {
	return func(o *options) { o.httpOpt = append(o.httpOpt, opts...) }
}

// New builds an Application. The session is not resumed until Start.
func New(cfg Config, opts ...Option) (*Application, error) {
	o := options{out: os.Stderr}
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = slogx.New(slogx.Config{
			Service: "stockroom-console",
			Version: BuildVersion,
			Env:     cfg.Env,
			Level:   cfg.LogLevel,
			Format:  cfg.LogFormat,
			Output:  o.out,
		})
	}

	app := &Application{cfg: cfg, logger: o.logger, styles: view.DefaultStyles()}

	tokens, err := tokenstore.Open(tokenstore.Config{Driver: cfg.TokenStore, Path: cfg.TokenDB}, app.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open token store: %w", err)
	}
	app.tokens = tokens

	clientOpts := []invsdk.Option{
		invsdk.WithLogger(app.logger),
		invsdk.WithTimeout(cfg.RequestTimeout),
		invsdk.WithCacheTTL(cfg.CacheTTL),
		invsdk.WithRateLimit(httpx.RateLimitConfig{
			RequestsPerWindow: cfg.RateLimit,
			Window:            time.Second,
			Burst:             cfg.RateBurst,
		}),
	}
	app.client = invsdk.NewClient(cfg.APIURL, tokens, append(clientOpts, o.httpOpt...)...)

	app.nav = NewNavigator(o.out, app.styles)
	app.session = session.New(session.Config{
		API:       app.client,
		Tokens:    tokens,
		Events:    app.client.Events,
		Navigator: app.nav,
		Logger:    app.logger,
	})

	return app, nil
}

// Start resumes the stored session. name is the command being run.
func (a *Application) Start(ctx context.Context, name string) session.Snapshot {
	a.nav.SetCurrent(name)
	return a.session.Start(ctx)
}

// Close detaches the session and releases the token store.
func (a *Application) Close() error {
	a.session.Close()
	return a.tokens.Close()
}

func (a *Application) Client() *invsdk.Client { return a.client }
func (a *Application) Session() *session.Manager { return a.session }
func (a *Application) Logger() *slog.Logger { return a.logger }
func (a *Application) Styles() view.Styles { return a.styles }
func (a *Application) Tokens() invsdk.TokenStore { return a.tokens }
func (a *Application) Config() Config { return a.cfg }

// Require returns the signed in user when their role is at least min.
func (a *Application) Require(min roles.Role) (*invsdk.User, error) {
	snap := a.session.Snapshot()
	if snap.State != session.Authenticated || snap.User == nil {
		return nil, ErrNotLoggedIn
	}
	if !roles.Allowed(snap.User, min) {
		return nil, fmt.Errorf("%w: %s needs %s", ErrForbidden, snap.User.Role, min)
	}
	return snap.User, nil
}
