// Package app assembles the data-access stack shared by the HTTP service and
// the command-line client.
package app

import (
	"context"
	"errors"
	"fmt"
	"io"
	"math"
	"os"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"

	"github.com/gosuda/tenantdesk/internal/cache"
	"github.com/gosuda/tenantdesk/internal/config"
	"github.com/gosuda/tenantdesk/internal/dataservice"
	"github.com/gosuda/tenantdesk/internal/domain"
	"github.com/gosuda/tenantdesk/internal/session"
	"github.com/gosuda/tenantdesk/internal/store/postgres"
	redisstore "github.com/gosuda/tenantdesk/internal/store/redis"
	"github.com/gosuda/tenantdesk/internal/store/rest"
	"github.com/gosuda/tenantdesk/internal/store/sqlite"
)

// App owns every long-lived resource of a process.
type App struct {
	Remote  domain.RemoteStore // nil in local-only mode
	Cache   *cache.Cache
	Data    *dataservice.Service
	Session *session.Store
	PubSub  *redisstore.PubSub // nil when Redis is not configured

	closers []func()
}

// Option tweaks how Open builds the App.
type Option func(*options)

type options struct {
	withPubSub bool
	seed       *dataservice.SeedConfig
}

// WithoutPubSub skips connecting to Redis even when it is configured.
func WithoutPubSub() Option {
	return func(o *options) { o.withPubSub = false }
}

// WithSeed overrides the demonstration data used by SeedInitialData.
func WithSeed(cfg dataservice.SeedConfig) Option {
	return func(o *options) { o.seed = &cfg }
}

// Open connects the remote store, opens the local cache and builds the data
// service. A remote that cannot be reached is not fatal: the process runs in
// local-only mode.
func Open(ctx context.Context, cfg *config.Config, opts ...Option) (*App, error) {
	o := options{withPubSub: true}
	for _, opt := range opts {
		opt(&o)
	}

	a := &App{}

	remote, closeRemote := openRemote(ctx, cfg.Remote)
	a.Remote = remote
	if closeRemote != nil {
		a.closers = append(a.closers, closeRemote)
	}

	db, err := sqlite.Open(cfg.Cache.Path)
	if err != nil {
		a.Close()
		return nil, fmt.Errorf("app.Open: %w", err)
	}
	a.closers = append(a.closers, func() { _ = db.Close() })
	a.Cache = cache.New(db)
	a.Session = session.NewStore(db)

	var svcOpts []dataservice.Option
	if o.seed != nil {
		svcOpts = append(svcOpts, dataservice.WithSeed(*o.seed))
	}

	if o.withPubSub && cfg.Redis.Enabled() {
		ps, psErr := redisstore.New(ctx, cfg.Redis.Addr, cfg.Redis.Password, cfg.Redis.DB)
		if psErr != nil {
			a.Close()
			return nil, fmt.Errorf("app.Open: %w", psErr)
		}
		a.PubSub = ps
		a.closers = append(a.closers, func() { _ = ps.Close() })
		svcOpts = append(svcOpts, dataservice.WithPublisher(ps))
	}

	a.Data = dataservice.New(a.Remote, a.Cache, svcOpts...)

	log.Info().
		Str("remote", string(cfg.Remote.Driver())).
		Bool("remote_available", a.Data.RemoteAvailable()).
		Str("cache", cfg.Cache.Path).
		Bool("events", a.PubSub != nil).
		Msg("data layer ready")

	return a, nil
}

// Close releases resources in reverse order of acquisition.
func (a *App) Close() {
	for i := len(a.closers) - 1; i >= 0; i-- {
		a.closers[i]()
	}
	a.closers = nil
}

func openRemote(ctx context.Context, cfg config.RemoteConfig) (domain.RemoteStore, func()) {
	switch cfg.Driver() {
	case config.DriverPostgres:
		if cfg.MaxConns > math.MaxInt32 {
			log.Warn().Int("max_conns", cfg.MaxConns).Msg("database max_conns out of range; using local cache only")
			return nil, nil
		}
		store, err := postgres.New(ctx, cfg.DatabaseURL, int32(cfg.MaxConns)) //nolint:gosec // bounds checked above
		if err != nil {
			log.Warn().Err(err).Msg("remote database unreachable; using local cache only")
			return nil, nil
		}
		return store, store.Close

	case config.DriverREST:
		client, err := rest.New(cfg.URL, cfg.Key, cfg.Timeout)
		if err != nil {
			if !errors.Is(err, rest.ErrNotConfigured) {
				log.Warn().Err(err).Msg("remote endpoint invalid; using local cache only")
			}
			return nil, nil
		}
		return client, nil

	default:
		return nil, nil
	}
}

// SetupLogging configures the global zerolog logger. Unknown levels fall
// back to info.
func SetupLogging(cfg config.LogConfig, out io.Writer) {
	if out == nil {
		out = os.Stdout
	}

	level, err := zerolog.ParseLevel(cfg.Level)
	if err != nil || cfg.Level == "" {
		level = zerolog.InfoLevel
	}
	zerolog.SetGlobalLevel(level)

	if cfg.Format == "text" {
		log.Logger = zerolog.New(zerolog.ConsoleWriter{Out: out}).With().Timestamp().Logger()
	} else {
		log.Logger = zerolog.New(out).With().Timestamp().Logger()
	}
}
