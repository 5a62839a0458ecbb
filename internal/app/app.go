// internal/app/app.go
//
// Application graph: config in, http.Handler out.
//
// Context
// -------
// cmd/web only loads configuration, starts the logger, and runs the
// server.  Everything between (store, tenant cache, resolver, content
// fetcher, theme, and router) is assembled here so tests can build the
// same graph against a throwaway database.
//
// Router
// ------
//
//	/healthz, /metrics    RequestID → Recover → handler
//	everything else       RequestID → Recover → Tracing → requestinfo →
//	                      tenant → AccessLog → Security → [ForceHTTPS] →
//	                      page.Handler
//
// Notes
// -----
//   - AccessLog sits inside requestinfo and tenant so it can log both.
//   - Oxford commas, two spaces after periods.
package app

import (
	"context"
	"errors"
	"io"
	"net/http"
	"path/filepath"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/backend"
	"github.com/yanizio/frontdoor/internal/config"
	"github.com/yanizio/frontdoor/internal/content"
	"github.com/yanizio/frontdoor/internal/middleware"
	"github.com/yanizio/frontdoor/internal/page"
	"github.com/yanizio/frontdoor/internal/requestinfo"
	"github.com/yanizio/frontdoor/internal/telemetry"
	"github.com/yanizio/frontdoor/internal/tenant"
	"github.com/yanizio/frontdoor/internal/theme"
)

// App is the assembled front door.
type App struct {
	Handler  http.Handler
	Resolver *tenant.Resolver
	Backend  *backend.Backend

	closers []io.Closer
	log     *zap.SugaredLogger
}

// New builds the graph described by cfg.
func New(ctx context.Context, cfg *config.Config, log *zap.SugaredLogger) (*App, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	a := &App{log: log}

	b, err := backend.Open(ctx, cfg.Store, log)
	if err != nil {
		return nil, err
	}
	a.Backend = b
	a.closers = append(a.closers, b)

	c, err := a.cache(ctx, cfg)
	if err != nil {
		_ = a.Close()
		return nil, err
	}
	a.Resolver = tenant.NewResolver(b, c, tenant.Options{
		Production:   cfg.Production(),
		SingleFlight: cfg.Tenant.SingleFlight,
		Logger:       log.Named("tenant"),
	})

	m := &theme.Manager{BaseDir: filepath.Join(cfg.Paths.Root, "themes")}
	th, err := m.Load(cfg.Site.Theme)
	if err != nil {
		_ = a.Close()
		return nil, err
	}

	pages := page.New(th, content.NewFetcher(b, log.Named("content")), page.Options{
		RootDomain: cfg.Site.RootDomain,
		ItemLimit:  cfg.Site.ItemLimit,
		Logger:     log.Named("page"),
	})

	enrich := requestinfo.New(cfg.HTTP.GeoIPDB, cfg.HTTP.TrustForwarded, log.Named("requestinfo"))
	a.closers = append(a.closers, enrich)

	r := chi.NewRouter()
	r.Use(middleware.RequestID, middleware.Recover(log))
	r.Get("/healthz", func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "text/plain; charset=utf-8")
		_, _ = io.WriteString(w, "ok")
	})
	r.Handle("/metrics", promhttp.Handler())

	r.Group(func(r chi.Router) {
		r.Use(
			telemetry.Middleware(cfg.Telemetry.ServiceName),
			enrich.Middleware,
			tenant.Middleware(a.Resolver, cfg.HTTP.TrustForwarded, cfg.Site.RootDomain),
			middleware.AccessLog(log.Named("access")),
			middleware.Security,
		)
		if cfg.HTTP.ForceHTTPS {
			r.Use(middleware.ForceHTTPS(cfg.HTTP.TrustForwarded, cfg.HTTP.TLSPort))
		}
		r.Handle("/*", pages)
	})
	a.Handler = r

	log.Infow("app ready",
		"env", cfg.Env,
		"store", b.Driver,
		"root_domain", cfg.Site.RootDomain,
		"theme", th.Name,
	)
	return a, nil
}

// cache returns the Redis tier when configured, else an in-process cache.
func (a *App) cache(ctx context.Context, cfg *config.Config) (tenant.Cache, error) {
	if cfg.Cache.RedisURL == "" {
		return tenant.NewMemoryCache(cfg.Tenant.CacheTTL, cfg.Tenant.CacheMaxEntries, nil), nil
	}
	opt, err := redis.ParseURL(cfg.Cache.RedisURL)
	if err != nil {
		return nil, err
	}
	rdb := redis.NewClient(opt)
	a.closers = append(a.closers, rdb)

	pctx, cancel := context.WithTimeout(ctx, 3*time.Second)
	defer cancel()
	if err := rdb.Ping(pctx).Err(); err != nil {
		a.log.Warnw("redis unreachable, lookups will miss until it recovers", "err", err)
	}
	return tenant.NewRedisCache(rdb, cfg.Cache.RedisPrefix, cfg.Tenant.CacheTTL, a.log.Named("redis")), nil
}

// Close releases the store, Redis, and the GeoIP reader.
func (a *App) Close() error {
	var errs []error
	for i := len(a.closers) - 1; i >= 0; i-- {
		if err := a.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
