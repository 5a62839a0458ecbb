//
//  internal/requestinfo/requestinfo.go
//
//  Per-request metadata (user-agent fingerprint, client IP, optional
//  geolocation, and timestamp).  These structs are inert.  They hold no
//  handles or large buffers, so they are safe to log or JSON-encode.
//
//  Dependencies
//  • github.com/avct/uasurfer          (UA parsing)
//  • github.com/oschwald/geoip2-golang (MaxMind lookup)
//

package requestinfo

import (
	"context"
	"net"
	"strconv"
	"strings"
	"time"

	"github.com/avct/uasurfer"
	"github.com/oschwald/geoip2-golang"
	"go.uber.org/zap"
)

// UA holds the parsed user-agent properties.
type UA struct {
	Raw         string
	Browser     string // "Chrome", "Firefox", "Safari", ...
	Version     string // "124.0.6367"
	OS          string // "macOS", "Windows", "Android", ...
	OSVersion   string
	Device      string // "Computer", "Phone", "Tablet", ...
	Platform    string // "Mac", "Windows", "Linux", "iPhone", ...
	IsBot       bool
	PrimaryLang string // first Accept-Language tag ("en", "es", ...)
}

// Geo holds best-effort IP geolocation.  Fields stay empty without a
// GeoLite2 database or a match.
type Geo struct {
	IP         net.IP
	CountryISO string
	City       string
}

// Info is attached to the request context by Enricher.Middleware.
type Info struct {
	UA        UA
	Geo       Geo
	Path      string
	Timestamp time.Time
}

// Enricher parses request metadata.  Safe for concurrent use.
type Enricher struct {
	geo            *geoip2.Reader
	trustForwarded bool
	log            *zap.SugaredLogger
}

// New returns an Enricher.  An empty geoPath disables geolocation; an
// unreadable database is logged and also disables it.
func New(geoPath string, trustForwarded bool, log *zap.SugaredLogger) *Enricher {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	e := &Enricher{trustForwarded: trustForwarded, log: log}
	if geoPath != "" {
		r, err := geoip2.Open(geoPath)
		if err != nil {
			log.Warnw("geoip database unavailable", "path", geoPath, "err", err)
		} else {
			e.geo = r
		}
	}
	return e
}

// Close releases the GeoLite2 reader.
func (e *Enricher) Close() error {
	if e.geo == nil {
		return nil
	}
	return e.geo.Close()
}

type ctxKey struct{}

// FromContext returns the Info stored by the middleware, or nil.
func FromContext(ctx context.Context) *Info {
	v, _ := ctx.Value(ctxKey{}).(*Info)
	return v
}

func (e *Enricher) lookupGeo(ip net.IP) Geo {
	g := Geo{IP: ip}
	if e.geo == nil || ip == nil {
		return g
	}
	rec, err := e.geo.City(ip)
	if err != nil {
		return g
	}
	g.CountryISO = rec.Country.IsoCode
	g.City = rec.City.Names["en"]
	return g
}

// ParseUA converts a raw header into a UA.
func ParseUA(header, acceptLang string) UA {
	u := uasurfer.Parse(header)

	osName := u.OS.Name.StringTrimPrefix()
	if osName == "MacOSX" {
		osName = "macOS"
	}

	return UA{
		Raw:         header,
		Browser:     u.Browser.Name.StringTrimPrefix(),
		Version:     trimVersion(u.Browser.Version),
		OS:          osName,
		OSVersion:   trimVersion(u.OS.Version),
		Device:      u.DeviceType.StringTrimPrefix(),
		Platform:    u.OS.Platform.StringTrimPrefix(),
		IsBot:       u.IsBot(),
		PrimaryLang: primaryLang(acceptLang),
	}
}

// trimVersion renders "major.minor.patch" without trailing ".0" parts.
func trimVersion(v uasurfer.Version) string {
	if v.Major == 0 && v.Minor == 0 && v.Patch == 0 {
		return ""
	}
	s := strconv.Itoa(v.Major) + "." + strconv.Itoa(v.Minor) + "." + strconv.Itoa(v.Patch)
	s = strings.TrimSuffix(s, ".0")
	return strings.TrimSuffix(s, ".0")
}

// primaryLang returns the first language tag from Accept-Language.
func primaryLang(h string) string {
	if h == "" {
		return ""
	}
	first := strings.SplitN(h, ",", 2)[0]
	first = strings.SplitN(first, ";", 2)[0]
	return strings.ToLower(strings.SplitN(strings.TrimSpace(first), "-", 2)[0])
}
