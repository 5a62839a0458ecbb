package tenant

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"

	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
	"github.com/yanizio/frontdoor/internal/store/pocketbase"
)

// fakeStore serves domain rows keyed by hostname.
type fakeStore struct {
	domains map[string]store.Record
	err     error
	gate    chan struct{}
	calls   atomic.Int32

	mu         sync.Mutex
	lastFilter string
	lastExpand []string
}

func (f *fakeStore) FindFirst(_ context.Context, collection string, filter store.Filter, opts store.FindOptions) (store.Record, error) {
	f.calls.Add(1)
	if f.gate != nil {
		<-f.gate
	}
	f.mu.Lock()
	f.lastFilter, f.lastExpand = filter.String(), opts.Expand
	f.mu.Unlock()

	if collection != DomainsCollection {
		return nil, errors.New("unexpected collection " + collection)
	}
	if f.err != nil {
		return nil, f.err
	}
	host := filter.Value()
	if filter.Op() == store.OpAnd {
		host = filter.Terms()[0].Value()
	}
	rec, ok := f.domains[host]
	if !ok {
		return nil, store.ErrNotFound
	}
	return rec, nil
}

func (f *fakeStore) List(context.Context, string, int, int, store.ListOptions) (store.ListResult, error) {
	return store.ListResult{}, errors.New("not used")
}

func boundDomain(id, host, siteID string) store.Record {
	return store.Record{
		"id": id, "hostname": host, "site": siteID,
		"expand": map[string]any{"site": map[string]any{"id": siteID, "name": "Site " + siteID}},
	}
}

func newTestResolver(fs *fakeStore, mock *clock.Mock, opts Options) *Resolver {
	return NewResolver(fs, NewMemoryCache(DefaultTTL, 0, mock), opts)
}

func TestResolvePositiveCachedWithinTTL(t *testing.T) {
	mock := clock.NewMock()
	fs := &fakeStore{domains: map[string]store.Record{"example.com": boundDomain("d1", "example.com", "s1")}}
	r := newTestResolver(fs, mock, Options{})
	ctx := context.Background()

	b, err := r.Resolve(ctx, "Example.COM:8080")
	if err != nil || b == nil || b.SiteID() != "s1" || b.Host != "example.com" {
		t.Fatalf("Resolve = (%+v, %v)", b, err)
	}
	if _, ok := b.Site.Expanded("site"); ok {
		t.Fatalf("site record should be the expanded row, not the domain")
	}

	mock.Add(59 * time.Second)
	if b2, _ := r.Resolve(ctx, "example.com"); b2 != b {
		t.Fatalf("expected the cached bundle within TTL")
	}
	if got := fs.calls.Load(); got != 1 {
		t.Fatalf("store calls = %d, want 1", got)
	}

	mock.Add(2 * time.Second)
	if _, err := r.Resolve(ctx, "example.com"); err != nil {
		t.Fatalf("Resolve: %v", err)
	}
	if got := fs.calls.Load(); got != 2 {
		t.Fatalf("store calls after TTL = %d, want 2", got)
	}
}

func TestResolveNegativeCached(t *testing.T) {
	mock := clock.NewMock()
	fs := &fakeStore{domains: map[string]store.Record{}}
	r := newTestResolver(fs, mock, Options{})

	for i := 0; i < 3; i++ {
		b, err := r.Resolve(context.Background(), "unknown.test")
		if b != nil || err != nil {
			t.Fatalf("Resolve = (%v, %v), want (nil, nil)", b, err)
		}
	}
	if got := fs.calls.Load(); got != 1 {
		t.Fatalf("store calls = %d, want 1", got)
	}
}

func TestResolveDomainWithoutSite(t *testing.T) {
	mock := clock.NewMock()
	fs := &fakeStore{domains: map[string]store.Record{
		"orphan.test": {"id": "d9", "hostname": "orphan.test", "site": "gone"},
	}}
	r := newTestResolver(fs, mock, Options{})

	b, err := r.Resolve(context.Background(), "orphan.test")
	if b != nil || err != nil {
		t.Fatalf("Resolve = (%v, %v), want (nil, nil)", b, err)
	}
	_, _ = r.Resolve(context.Background(), "orphan.test")
	if got := fs.calls.Load(); got != 1 {
		t.Fatalf("store calls = %d, want 1 (negative cached)", got)
	}
}

func TestResolveEmptyHost(t *testing.T) {
	fs := &fakeStore{}
	r := newTestResolver(fs, clock.NewMock(), Options{})
	for _, raw := range []string{"", "  ", ":8080", ","} {
		b, err := r.Resolve(context.Background(), raw)
		if b != nil || err != nil {
			t.Fatalf("Resolve(%q) = (%v, %v)", raw, b, err)
		}
	}
	if got := fs.calls.Load(); got != 0 {
		t.Fatalf("store calls = %d, want 0", got)
	}
}

func TestResolveMissingCredentialsIsNotConfigured(t *testing.T) {
	core, logs := observer.New(zapcore.WarnLevel)
	fs := &fakeStore{err: pocketbase.ErrMissingCredentials}
	r := newTestResolver(fs, clock.NewMock(), Options{Logger: zap.New(core).Sugar()})
	ctx := context.Background()

	for i := 0; i < 2; i++ {
		b, err := r.Resolve(ctx, "1dun.co")
		if b != nil || !errors.Is(err, store.ErrNotConfigured) || errors.Is(err, ErrLookupFailed) {
			t.Fatalf("Resolve = (%v, %v), want ErrNotConfigured", b, err)
		}
	}
	if got := fs.calls.Load(); got != 2 {
		t.Fatalf("store calls = %d, want 2", got)
	}
	if got := logs.FilterMessage("store not configured").Len(); got != 2 {
		t.Fatalf("store not configured logs = %d, want 2", got)
	}
	if got := logs.FilterMessage("tenant lookup failed").Len(); got != 0 {
		t.Fatalf("lookup failure logs = %d, want 0", got)
	}
}

func TestResolveErrorsNotCached(t *testing.T) {
	mock := clock.NewMock()
	boom := errors.New("connection refused")
	fs := &fakeStore{err: boom}
	r := newTestResolver(fs, mock, Options{})
	ctx := context.Background()

	b, err := r.Resolve(ctx, "flaky.test")
	if b != nil || !errors.Is(err, ErrLookupFailed) || !errors.Is(err, boom) {
		t.Fatalf("Resolve = (%v, %v)", b, err)
	}

	fs.err = store.ErrNotConfigured
	if _, err := r.Resolve(ctx, "flaky.test"); !errors.Is(err, store.ErrNotConfigured) {
		t.Fatalf("err = %v, want ErrNotConfigured", err)
	}

	fs.err = nil
	fs.domains = map[string]store.Record{"flaky.test": boundDomain("d2", "flaky.test", "s2")}
	b, err = r.Resolve(ctx, "flaky.test")
	if err != nil || b.SiteID() != "s2" {
		t.Fatalf("after recovery = (%v, %v)", b, err)
	}
	if got := fs.calls.Load(); got != 3 {
		t.Fatalf("store calls = %d, want 3", got)
	}
}

func TestResolveProductionFilter(t *testing.T) {
	fs := &fakeStore{domains: map[string]store.Record{}}

	r := newTestResolver(fs, clock.NewMock(), Options{})
	_, _ = r.Resolve(context.Background(), "a.test")
	if want := `hostname = "a.test"`; fs.lastFilter != want {
		t.Fatalf("dev filter = %s, want %s", fs.lastFilter, want)
	}
	if len(fs.lastExpand) != 1 || fs.lastExpand[0] != "site" {
		t.Fatalf("expand = %v, want [site]", fs.lastExpand)
	}

	r = newTestResolver(fs, clock.NewMock(), Options{Production: true})
	_, _ = r.Resolve(context.Background(), "a.test")
	if want := `hostname = "a.test" && (status = "active" || status = "verified")`; fs.lastFilter != want {
		t.Fatalf("prod filter = %s, want %s", fs.lastFilter, want)
	}
}

func TestResolveConcurrentMisses(t *testing.T) {
	const n = 8
	run := func(singleFlight bool) int32 {
		fs := &fakeStore{
			domains: map[string]store.Record{"busy.test": boundDomain("d3", "busy.test", "s3")},
			gate:    make(chan struct{}),
		}
		r := newTestResolver(fs, clock.NewMock(), Options{SingleFlight: singleFlight})

		var wg sync.WaitGroup
		for i := 0; i < n; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				b, err := r.Resolve(context.Background(), "busy.test")
				if err != nil || b.SiteID() != "s3" {
					t.Errorf("Resolve = (%v, %v)", b, err)
				}
			}()
		}

		// Let every caller reach the store (or the shared flight) first.
		deadline := time.Now().Add(2 * time.Second)
		want := int32(n)
		if singleFlight {
			want = 1
		}
		for fs.calls.Load() < want && time.Now().Before(deadline) {
			time.Sleep(time.Millisecond)
		}
		if singleFlight {
			time.Sleep(20 * time.Millisecond)
		}
		close(fs.gate)
		wg.Wait()
		return fs.calls.Load()
	}

	if got := run(false); got != n {
		t.Fatalf("without single flight: store calls = %d, want %d", got, n)
	}
	if got := run(true); got != 1 {
		t.Fatalf("with single flight: store calls = %d, want 1", got)
	}
}

func TestResolveMetrics(t *testing.T) {
	mock := clock.NewMock()
	fs := &fakeStore{domains: map[string]store.Record{"metrics.test": boundDomain("d1", "metrics.test", "s1")}}
	r := newTestResolver(fs, mock, Options{})

	hits := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit"))
	misses := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss"))
	negatives := testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("negative"))
	resolved := testutil.ToFloat64(metrics.ResolveTotal.WithLabelValues("resolved"))
	unmatched := testutil.ToFloat64(metrics.ResolveTotal.WithLabelValues("not_matched"))

	ctx := context.Background()
	_, _ = r.Resolve(ctx, "metrics.test")
	_, _ = r.Resolve(ctx, "metrics.test")
	_, _ = r.Resolve(ctx, "nobody.metrics.test")
	_, _ = r.Resolve(ctx, "nobody.metrics.test")

	checks := []struct {
		name      string
		got, want float64
	}{
		{"hit", testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("hit")) - hits, 1},
		{"miss", testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("miss")) - misses, 2},
		{"negative", testutil.ToFloat64(metrics.CacheLookups.WithLabelValues("negative")) - negatives, 1},
		{"resolved", testutil.ToFloat64(metrics.ResolveTotal.WithLabelValues("resolved")) - resolved, 1},
		{"not_matched", testutil.ToFloat64(metrics.ResolveTotal.WithLabelValues("not_matched")) - unmatched, 1},
	}
	for _, c := range checks {
		if c.got != c.want {
			t.Errorf("%s delta = %v, want %v", c.name, c.got, c.want)
		}
	}
}
