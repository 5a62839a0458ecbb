// internal/config/model.go
//
// Typed configuration model for the front door.
//
// Context
// -------
// These structs define the shape of the configuration tree that
// `internal/config/loader.go` builds from its overlay layers:
//
//   • built-in defaults                          – lowest precedence,
//   • optional `.env`                            – dotenv values,
//   • `conf/global.yaml`                         – primary static file,
//   • legacy plain names (PB_URL, ROOT_DOMAIN …)  – fill unset keys only,
//   • `FRONTDOOR_`-prefixed environment overrides – highest precedence.
//
// Any value whose string begins with `vault:` is resolved through Vault
// *before* unmarshalling, so the model never stores Vault URIs.
//
// Notes
// -----
//   • Struct tags use `koanf:"…"`, not `yaml:"…"`.
//   • The `Paths` block is filled at runtime; YAML must not try to set it.
//   • Oxford commas, two spaces after periods.  No em-dash.

package config

import "time"

// Environments accepted by Config.Env.
const (
	EnvDevelopment = "development"
	EnvProduction  = "production"
	EnvTest        = "test"
)

//
// HTTP section
//

// HTTP holds web-server tunables.
type HTTP struct {
	ListenAddr     string        `koanf:"listen_addr"     validate:"required,hostname_port"`
	ForceHTTPS     bool          `koanf:"force_https"`
	TLSPort        string        `koanf:"tls_port"        validate:"omitempty,numeric"`
	TrustForwarded bool          `koanf:"trust_forwarded"`
	GeoIPDB        string        `koanf:"geoip_db"`
	ReadTimeout    time.Duration `koanf:"read_timeout"    validate:"gt=0"`
	WriteTimeout   time.Duration `koanf:"write_timeout"   validate:"gt=0"`
	IdleTimeout    time.Duration `koanf:"idle_timeout"    validate:"gt=0"`
}

//
// Store section
//

// Store selects and configures the record store backend.
//
// The PocketBase admin password and token usually arrive as Vault
// references, keeping credentials out of flat files and git history.
type Store struct {
	Driver         string        `koanf:"driver"          validate:"oneof=pocketbase mysql pgx sqlite"`
	URL            string        `koanf:"url"             validate:"omitempty,url"`
	AuthMode       string        `koanf:"auth_mode"       validate:"oneof=password token"`
	AdminToken     string        `koanf:"admin_token"`
	AdminEmail     string        `koanf:"admin_email"     validate:"omitempty,email"`
	AdminPassword  string        `koanf:"admin_password"`
	AuthCollection string        `koanf:"auth_collection"`
	DSN            string        `koanf:"dsn"`
	Timeout        time.Duration `koanf:"timeout"         validate:"gt=0"`
}

// SQL reports whether Driver names a database/sql driver.
func (s Store) SQL() bool { return s.Driver != "pocketbase" }

//
// Tenant and cache sections
//

// Tenant tunes host resolution.
type Tenant struct {
	CacheTTL        time.Duration `koanf:"cache_ttl"         validate:"gt=0"`
	CacheMaxEntries int           `koanf:"cache_max_entries" validate:"gte=0"`
	SingleFlight    bool          `koanf:"single_flight"`
}

// Cache configures the optional shared Redis tier.
type Cache struct {
	RedisURL    string `koanf:"redis_url"`
	RedisPrefix string `koanf:"redis_prefix"`
}

//
// Site section
//

// Site holds page-level settings.
type Site struct {
	RootDomain string `koanf:"root_domain"`
	ItemLimit  int    `koanf:"item_limit" validate:"gt=0,lte=200"`
	Theme      string `koanf:"theme"`
}

//
// Log and telemetry sections
//

// Log configures the zap logger.
type Log struct {
	Dir   string `koanf:"dir"`
	Level string `koanf:"level" validate:"oneof=debug info warn error"`
}

// Telemetry configures tracing.  The OTLP endpoint comes from the standard
// OTEL_EXPORTER_OTLP_ENDPOINT variable.
type Telemetry struct {
	ServiceName string `koanf:"service_name" validate:"required"`
	Stdout      bool   `koanf:"stdout"`
}

//
// Paths section (runtime only)
//

// Paths is resolved at runtime, never set in YAML or env.
type Paths struct {
	Root string // FRONTDOOR_ROOT or discovered parent
}

//
// Root aggregate
//

// Config is the immutable aggregate returned by Load() and cached in an
// atomic.Pointer for lock-free reads throughout the app lifetime.
type Config struct {
	Env       string    `koanf:"env" validate:"oneof=development production test"`
	HTTP      HTTP      `koanf:"http"`
	Store     Store     `koanf:"store"`
	Tenant    Tenant    `koanf:"tenant"`
	Cache     Cache     `koanf:"cache"`
	Site      Site      `koanf:"site"`
	Log       Log       `koanf:"log"`
	Telemetry Telemetry `koanf:"telemetry"`
	Paths     Paths     `koanf:"-"`
}

// Production reports whether Env is production.
func (c *Config) Production() bool { return c.Env == EnvProduction }
