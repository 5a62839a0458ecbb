// Package metrics holds Prometheus instruments shared by the front door.
// All collectors are registered with the global registry, so importing this
// package in main.go is enough to expose them on /metrics.
package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
)

var (
	CacheLookups = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdoor_tenant_cache_lookups_total",
			Help: "Tenant cache lookups by result (hit, negative, miss).",
		}, []string{"result"})

	CacheEntries = prometheus.NewGauge(
		prometheus.GaugeOpts{
			Name: "frontdoor_tenant_cache_entries",
			Help: "Entries currently held by the in-process tenant cache, expired ones included.",
		})

	CacheEvictions = prometheus.NewCounter(
		prometheus.CounterOpts{
			Name: "frontdoor_tenant_cache_evictions_total",
			Help: "Entries dropped by the tenant cache size bound.",
		})

	ResolveTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdoor_tenant_resolve_total",
			Help: "Remote tenant resolutions by outcome (resolved, not_matched, site_missing, error).",
		}, []string{"outcome"})

	StoreRequests = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdoor_store_requests_total",
			Help: "Record store calls by backend, operation, and outcome.",
		}, []string{"backend", "op", "outcome"})

	AuthAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdoor_store_auth_attempts_total",
			Help: "Admin session logins by outcome.",
		}, []string{"outcome"})

	FetchErrors = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "frontdoor_content_fetch_errors_total",
			Help: "Content fetches that fell back to an empty section.",
		}, []string{"section"})
)

func init() {
	prometheus.MustRegister(
		CacheLookups,
		CacheEntries,
		CacheEvictions,
		ResolveTotal,
		StoreRequests,
		AuthAttempts,
		FetchErrors,
	)
}

// Outcome maps an error to the "ok" or "error" label value.
func Outcome(err error) string {
	if err != nil {
		return "error"
	}
	return "ok"
}
