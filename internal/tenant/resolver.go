// internal/tenant/resolver.go
//
// Host → tenant resolution.
//
// Workflow
// --------
//  1. Normalise the raw host.  No host, no tenant.
//  2. Consult the cache.  Positive and negative hits return immediately.
//  3. On a miss query the domains collection for the host key, expanding
//     its site.  In production only active or verified domains count.
//  4. Cache the answer (negative when no domain or no site) and return it.
//
// Notes
// -----
//   - Store errors are returned, never cached.  An unknown answer must not
//     pin a live tenant to "not bound" for a whole TTL window.
//   - ErrNotConfigured (no URL, or password mode without credentials) is
//     returned unwrapped so the page layer answers 404.
//   - Concurrent misses for one key each query the store unless SingleFlight
//     is set.
//   - Oxford commas, two spaces after periods.
package tenant

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/sync/singleflight"

	"github.com/yanizio/frontdoor/internal/host"
	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
)

// Options tunes a Resolver.
type Options struct {
	Production   bool // restrict matches to active or verified domains
	SingleFlight bool // share one store query between concurrent misses
	Logger       *zap.SugaredLogger
}

// Resolver maps hostnames to tenant bundles.  Safe for concurrent use.
type Resolver struct {
	store store.Store
	cache Cache
	opts  Options
	log   *zap.SugaredLogger
	sfg   singleflight.Group
}

// NewResolver wires a Resolver.  A nil cache gets a default MemoryCache.
func NewResolver(s store.Store, c Cache, opts Options) *Resolver {
	if c == nil {
		c = NewMemoryCache(DefaultTTL, 0, nil)
	}
	log := opts.Logger
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	return &Resolver{store: s, cache: c, opts: opts, log: log}
}

// Resolve returns the tenant for rawHost, or nil when none is bound.
func (r *Resolver) Resolve(ctx context.Context, rawHost string) (*Bundle, error) {
	key := host.Normalize(rawHost)
	if key == "" {
		r.log.Debugw("missing host header")
		return nil, nil
	}

	if b, ok := r.cache.Get(ctx, key); ok {
		if b == nil {
			metrics.CacheLookups.WithLabelValues("negative").Inc()
		} else {
			metrics.CacheLookups.WithLabelValues("hit").Inc()
		}
		r.log.Debugw("cache hit", "host", key, "bound", b != nil)
		return b, nil
	}
	metrics.CacheLookups.WithLabelValues("miss").Inc()
	r.log.Debugw("cache miss", "host", key)

	if !r.opts.SingleFlight {
		return r.lookup(ctx, key)
	}

	// The shared query must not die with whichever caller started it.
	shared := context.WithoutCancel(ctx)
	v, err, _ := r.sfg.Do(key, func() (any, error) {
		if b, ok := r.cache.Get(shared, key); ok {
			return b, nil
		}
		return r.lookup(shared, key)
	})
	b, _ := v.(*Bundle)
	return b, err
}

func (r *Resolver) filter(key string) store.Filter {
	f := store.Eq("hostname", key)
	if r.opts.Production {
		f = store.And(f, store.Or(store.Eq("status", "active"), store.Eq("status", "verified")))
	}
	return f
}

func (r *Resolver) lookup(ctx context.Context, key string) (*Bundle, error) {
	rec, err := r.store.FindFirst(ctx, DomainsCollection, r.filter(key), store.FindOptions{Expand: []string{"site"}})
	switch {
	case errors.Is(err, store.ErrNotFound):
		r.cache.Set(ctx, key, nil)
		metrics.ResolveTotal.WithLabelValues("not_matched").Inc()
		r.log.Infow("host not matched", "host", key)
		return nil, nil

	case errors.Is(err, store.ErrNotConfigured):
		metrics.ResolveTotal.WithLabelValues("error").Inc()
		r.log.Warnw("store not configured", "host", key, "err", err)
		return nil, err

	case err != nil:
		metrics.ResolveTotal.WithLabelValues("error").Inc()
		r.log.Errorw("tenant lookup failed", "host", key, "err", err)
		return nil, fmt.Errorf("%w: %s: %w", ErrLookupFailed, key, err)
	}

	site, ok := rec.Expanded("site")
	if !ok {
		r.cache.Set(ctx, key, nil)
		metrics.ResolveTotal.WithLabelValues("site_missing").Inc()
		r.log.Warnw("domain found but site missing", "host", key, "domain", rec.ID())
		return nil, nil
	}

	b := &Bundle{Host: key, Domain: rec, Site: site}
	r.cache.Set(ctx, key, b)
	metrics.ResolveTotal.WithLabelValues("resolved").Inc()
	r.log.Infow("resolved host", "host", key, "site", site.ID())
	return b, nil
}
