// internal/config/loader.go
//
// Configuration loader.
//
/*
Context
--------
`Load()` builds one immutable `Config` struct from these layers (highest
precedence last):

  1. Built-in defaults (see `defaults`).
  2. Optional `.env` file at `<root>/conf/.env`.  Its values become plain
     environment variables, so they feed layers 4 and 5.
  3. `conf/global.yaml`, when present.
  4. Legacy plain variables (`PB_URL`, `ROOT_DOMAIN`, `REDIS_URL`, …) for
     keys that layers 3 and 5 leave unset.
  5. Environment variables prefixed `FRONTDOOR_`, where `__` maps to "."
     (e.g., `FRONTDOOR_HTTP__LISTEN_ADDR → http.listen_addr`).

After merging, every `vault:` value is swapped for its secret, the tree is
unmarshalled into strongly-typed structs, validated, enriched with the
runtime root path, and cached in an `atomic.Pointer` for lock-free reads.

Instrumentation
---------------
  • DEBUG spans: root discovery, YAML read, env overlay.
  • ERROR spans: YAML parse, Vault, unmarshal, validation failures.
  • INFO  span:  final "config loaded" with key highlights.
  • Logs use the global *sugared* logger (`zap.S()`) so early boot issues
    surface even before the file logger is installed.

Notes
-----
  • `rootDir()` climbs the cwd tree until it finds `conf/global.yaml`;
    this lets `go run ./cmd/web` work from any sub-directory.
  • Oxford commas, two spaces after periods.
*/
package config

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"sync/atomic"
	"time"

	"github.com/joho/godotenv"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/env"
	"github.com/knadh/koanf/providers/file"
	koanf "github.com/knadh/koanf/v2"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/vault"
)

// EnvPrefix marks override variables.
const EnvPrefix = "FRONTDOOR_"

var current atomic.Pointer[Config]

// SecretResolver turns a vault: reference into its value.
type SecretResolver interface {
	Resolve(ctx context.Context, ref string) (string, error)
}

// newSecretResolver is swapped in tests.
var newSecretResolver = func() (SecretResolver, error) {
	return vault.New(zap.S(), 5*time.Minute)
}

/*──────────────────────────── defaults ────────────────────────────────────*/

var defaults = map[string]any{
	"env":                      EnvDevelopment,
	"http.listen_addr":         ":8080",
	"http.force_https":         false,
	"http.trust_forwarded":     true,
	"http.read_timeout":        "10s",
	"http.write_timeout":       "15s",
	"http.idle_timeout":        "60s",
	"store.driver":             "pocketbase",
	"store.auth_mode":          "password",
	"store.auth_collection":    "_superusers",
	"store.timeout":            "10s",
	"tenant.cache_ttl":         "60s",
	"tenant.cache_max_entries": 0,
	"tenant.single_flight":     false,
	"cache.redis_prefix":       "frontdoor:tenant:",
	"site.item_limit":          12,
	"log.level":                "info",
	"telemetry.service_name":   "frontdoor",
	"telemetry.stdout":         false,
}

// legacyEnv lists plain variable names honoured for unset keys, first
// non-empty wins.
var legacyEnv = []struct {
	key   string
	names []string
}{
	{"env", []string{"APP_ENV", "NODE_ENV"}},
	{"store.url", []string{"PB_URL"}},
	{"store.admin_email", []string{"PB_ADMIN_EMAIL"}},
	{"store.admin_password", []string{"PB_ADMIN_PASSWORD"}},
	{"store.admin_token", []string{"PB_ADMIN_TOKEN"}},
	{"site.root_domain", []string{"ROOT_DOMAIN"}},
	{"cache.redis_url", []string{"KV_URL", "REDIS_URL"}},
}

/*──────────────────────────── root discovery ───────────────────────────────*/

// rootDir resolves FRONTDOOR_ROOT or climbs directories until
// conf/global.yaml is found.  Falls back to the executable's parent when
// it lives in bin/.
func rootDir() string {
	if r := os.Getenv(EnvPrefix + "ROOT"); r != "" {
		return r
	}

	wd, _ := os.Getwd()
	dir := wd
	for {
		if _, err := os.Stat(filepath.Join(dir, "conf", "global.yaml")); err == nil {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			break
		}
		dir = parent
	}

	exe, _ := os.Executable()
	if filepath.Base(filepath.Dir(exe)) == "bin" {
		return filepath.Dir(filepath.Dir(exe))
	}
	return wd
}

/*─────────────────────────────── loader ───────────────────────────────────*/

// Load discovers the root directory and loads from it.
func Load() (*Config, error) { return LoadFrom(rootDir()) }

// LoadFrom reads .env, YAML, and env overrides under root, resolves Vault
// references, validates, and caches the Config.
func LoadFrom(root string) (*Config, error) {
	zap.S().Debugw("config root resolved", "root", root)

	_ = godotenv.Load(filepath.Join(root, "conf", ".env")) // optional

	k := koanf.New(".")

	yamlPath := filepath.Join(root, "conf", "global.yaml")
	if err := k.Load(file.Provider(yamlPath), yaml.Parser()); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			zap.S().Errorw("config yaml load failed", "file", yamlPath, "err", err)
			return nil, err
		}
		zap.S().Debugw("config yaml absent", "file", yamlPath)
	} else {
		zap.S().Debugw("config yaml loaded", "file", yamlPath)
	}

	// FRONTDOOR_HTTP__LISTEN_ADDR → http.listen_addr
	if err := k.Load(env.Provider(EnvPrefix, ".", func(s string) string {
		s = strings.TrimPrefix(s, EnvPrefix)
		return strings.ToLower(strings.ReplaceAll(s, "__", "."))
	}), nil); err != nil {
		zap.S().Errorw("config env overlay failed", "err", err)
		return nil, err
	}

	applyLegacy(k)
	if !k.Exists("store.auth_mode") && k.String("store.admin_token") != "" {
		_ = k.Set("store.auth_mode", "token")
	}
	for key, val := range defaults {
		if !k.Exists(key) {
			_ = k.Set(key, val)
		}
	}

	if err := resolveSecrets(context.Background(), k); err != nil {
		zap.S().Errorw("config vault resolution failed", "err", err)
		return nil, err
	}

	var cfg Config
	if err := k.Unmarshal("", &cfg); err != nil {
		zap.S().Errorw("config unmarshal failed", "err", err)
		return nil, err
	}
	cfg.Env = strings.ToLower(strings.TrimSpace(cfg.Env))
	cfg.Store.Driver = strings.ToLower(cfg.Store.Driver)
	cfg.Store.AuthMode = strings.ToLower(cfg.Store.AuthMode)
	cfg.Paths.Root = root

	if err := validateStruct(&cfg); err != nil {
		zap.S().Errorw("config validation failed", "err", err)
		return nil, err
	}

	current.Store(&cfg)
	zap.S().Infow("config loaded",
		"env", cfg.Env,
		"listen_addr", cfg.HTTP.ListenAddr,
		"store_driver", cfg.Store.Driver,
		"store_configured", cfg.Store.URL != "" || cfg.Store.DSN != "",
		"root_domain", cfg.Site.RootDomain,
		"redis", cfg.Cache.RedisURL != "",
		"root", cfg.Paths.Root,
	)
	return &cfg, nil
}

func applyLegacy(k *koanf.Koanf) {
	for _, l := range legacyEnv {
		if k.Exists(l.key) && k.String(l.key) != "" {
			continue
		}
		for _, name := range l.names {
			if v := strings.TrimSpace(os.Getenv(name)); v != "" {
				_ = k.Set(l.key, v)
				break
			}
		}
	}
}

// resolveSecrets replaces every vault: string in k.  The Vault client is
// only built when a reference exists.
func resolveSecrets(ctx context.Context, k *koanf.Koanf) error {
	var sr SecretResolver
	for key, val := range k.All() {
		s, ok := val.(string)
		if !ok || !vault.IsRef(s) {
			continue
		}
		if sr == nil {
			var err error
			if sr, err = newSecretResolver(); err != nil {
				return fmt.Errorf("vault client: %w", err)
			}
		}
		secret, err := sr.Resolve(ctx, s)
		if err != nil {
			return fmt.Errorf("resolve %s: %w", key, err)
		}
		if err := k.Set(key, secret); err != nil {
			return err
		}
	}
	return nil
}

/*──────────────────────────── helpers ─────────────────────────────────────*/

func Get() *Config  { return current.Load() }
func Reload() error { _, err := Load(); return err }
