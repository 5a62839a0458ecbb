package requestinfo

import (
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestClientIP(t *testing.T) {
	cases := []struct {
		name    string
		remote  string
		xff     string
		xrip    string
		trusted bool
		want    string
	}{
		{"remote addr", "192.0.2.10:5555", "", "", true, "192.0.2.10"},
		{"xff left-most", "10.0.0.1:1", "203.0.113.7, 10.0.0.2", "", true, "203.0.113.7"},
		{"xff skips garbage", "10.0.0.1:1", "unknown, 198.51.100.4", "", true, "198.51.100.4"},
		{"x-real-ip", "10.0.0.1:1", "", "198.51.100.9", true, "198.51.100.9"},
		{"untrusted ignores headers", "10.0.0.1:1", "203.0.113.7", "198.51.100.9", false, "10.0.0.1"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := httptest.NewRequest(http.MethodGet, "/", nil)
			r.RemoteAddr = tc.remote
			if tc.xff != "" {
				r.Header.Set("X-Forwarded-For", tc.xff)
			}
			if tc.xrip != "" {
				r.Header.Set("X-Real-Ip", tc.xrip)
			}
			if got := clientIP(r, tc.trusted); got.String() != tc.want {
				t.Fatalf("clientIP = %v, want %s", got, tc.want)
			}
		})
	}
}

func TestParseUA(t *testing.T) {
	chrome := "Mozilla/5.0 (Macintosh; Intel Mac OS X 10_15_7) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0.6367.91 Safari/537.36"
	ua := ParseUA(chrome, "en-US,en;q=0.9")
	if ua.Browser != "Chrome" || ua.IsBot || ua.PrimaryLang != "en" {
		t.Fatalf("chrome = %+v", ua)
	}

	bot := ParseUA("Mozilla/5.0 (compatible; Googlebot/2.1; +http://www.google.com/bot.html)", "")
	if !bot.IsBot {
		t.Fatalf("googlebot not flagged: %+v", bot)
	}
}

func TestPrimaryLang(t *testing.T) {
	for in, want := range map[string]string{
		"":               "",
		"fr-CA,fr;q=0.8": "fr",
		"de;q=0.9, en":   "de",
		" ES ":           "es",
	} {
		if got := primaryLang(in); got != want {
			t.Errorf("primaryLang(%q) = %q, want %q", in, got, want)
		}
	}
}

func TestMiddlewareAttachesInfo(t *testing.T) {
	e := New("", false, nil)
	defer e.Close()

	var got *Info
	h := e.Middleware(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		got = FromContext(r.Context())
	}))
	r := httptest.NewRequest(http.MethodGet, "/news", nil)
	r.RemoteAddr = "192.0.2.1:1234"
	h.ServeHTTP(httptest.NewRecorder(), r)

	if got == nil || got.Path != "/news" || got.Geo.IP.String() != "192.0.2.1" || got.Geo.CountryISO != "" {
		t.Fatalf("info = %+v", got)
	}
}

func TestNewMissingGeoDatabase(t *testing.T) {
	e := New("/nonexistent/GeoLite2-City.mmdb", false, nil)
	if e.geo != nil {
		t.Fatalf("geo reader set for a missing file")
	}
}
