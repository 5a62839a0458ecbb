package middleware

import (
	"net/http"
	"time"

	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/requestinfo"
	"github.com/yanizio/frontdoor/internal/tenant"
)

// statusWriter captures the status code and body size.
type statusWriter struct {
	http.ResponseWriter
	status int
	bytes  int
}

func (w *statusWriter) WriteHeader(code int) {
	if w.status == 0 {
		w.status = code
	}
	w.ResponseWriter.WriteHeader(code)
}

func (w *statusWriter) Write(b []byte) (int, error) {
	if w.status == 0 {
		w.status = http.StatusOK
	}
	n, err := w.ResponseWriter.Write(b)
	w.bytes += n
	return n, err
}

func (w *statusWriter) Unwrap() http.ResponseWriter { return w.ResponseWriter }

// AccessLog writes one line per request.  Request id, request info, and
// tenant fields are included when the corresponding middleware ran earlier
// in the chain.
func AccessLog(log *zap.SugaredLogger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			start := time.Now()
			sw := &statusWriter{ResponseWriter: w}
			next.ServeHTTP(sw, r)

			if sw.status == 0 {
				sw.status = http.StatusOK
			}
			fields := []any{
				"request_id", RequestIDFrom(r.Context()),
				"method", r.Method,
				"host", r.Host,
				"path", r.URL.Path,
				"status", sw.status,
				"bytes", sw.bytes,
				"duration", time.Since(start),
			}
			if info := requestinfo.FromContext(r.Context()); info != nil {
				fields = append(fields,
					"ip", info.Geo.IP.String(),
					"country", info.Geo.CountryISO,
					"browser", info.UA.Browser,
					"bot", info.UA.IsBot,
				)
			}
			if res, ok := tenant.FromContext(r.Context()); ok && res.Bundle != nil {
				fields = append(fields, "site", res.Bundle.SiteID())
			}
			log.Infow("request", fields...)
		})
	}
}
