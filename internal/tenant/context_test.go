package tenant

import (
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/benbjohnson/clock"

	"github.com/yanizio/frontdoor/internal/store"
)

func TestMiddlewareStoresResolution(t *testing.T) {
	fs := &fakeStore{domains: map[string]store.Record{"shop.test": boundDomain("d1", "shop.test", "s1")}}
	r := newTestResolver(fs, clock.NewMock(), Options{})

	var got *Resolution
	h := Middleware(r, true, "Platform.test")(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = FromContext(req.Context())
	}))

	cases := []struct {
		name      string
		host, xfh string
		wantHost  string
		wantRoot  bool
		wantSite  string
	}{
		{"tenant", "shop.test", "", "shop.test", false, "s1"},
		{"forwarded wins", "internal:8080", "Shop.Test, proxy.local", "shop.test", false, "s1"},
		{"root domain", "platform.test:443", "", "platform.test", true, ""},
		{"unbound", "nobody.test", "", "nobody.test", false, ""},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/", nil)
			req.Host = tc.host
			if tc.xfh != "" {
				req.Header.Set("X-Forwarded-Host", tc.xfh)
			}
			got = nil
			h.ServeHTTP(httptest.NewRecorder(), req)
			if got == nil {
				t.Fatalf("no resolution in context")
			}
			if got.Host != tc.wantHost || got.Root != tc.wantRoot || got.Bundle.SiteID() != tc.wantSite {
				t.Fatalf("resolution = %+v", got)
			}
		})
	}

	// The root domain never reaches the store.
	before := fs.calls.Load()
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "platform.test"
	h.ServeHTTP(httptest.NewRecorder(), req)
	if fs.calls.Load() != before {
		t.Fatalf("root domain was looked up")
	}
}

func TestMiddlewareCarriesLookupError(t *testing.T) {
	fs := &fakeStore{err: errors.New("timeout")}
	r := newTestResolver(fs, clock.NewMock(), Options{})

	var got *Resolution
	h := Middleware(r, false, "")(http.HandlerFunc(func(w http.ResponseWriter, req *http.Request) {
		got, _ = FromContext(req.Context())
	}))
	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Host = "slow.test"
	h.ServeHTTP(httptest.NewRecorder(), req)

	if got == nil || !errors.Is(got.Err, ErrLookupFailed) || got.Bundle != nil {
		t.Fatalf("resolution = %+v", got)
	}
}
