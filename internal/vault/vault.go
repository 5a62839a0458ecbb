// internal/vault/vault.go
//
// Vault client wrapper for configuration secrets.
//
// Context
// -------
//   - Wraps the HashiCorp Vault Go SDK for the one thing the front door
//     needs: reading single keys out of KV-v2 secrets while configuration
//     loads.
//   - Config values of the form "vault:<mount>/<path>#<key>" are resolved
//     through Resolve.  Repeated references hit a per-key TTL cache.
//   - Header block, section underlines, Oxford commas, two spaces after
//     periods, no m-dash.
//
// Public workflow
// ---------------
//  1. cli, err := vault.New(log, 5*time.Minute)      // during boot.
//  2. pw,  err := cli.Resolve(ctx, "vault:secret/frontdoor#pb_password")
//
// Build tags: none.
package vault

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	vault "github.com/hashicorp/vault/api"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/cache"
)

// RefPrefix marks a config value as a Vault reference.
const RefPrefix = "vault:"

// ErrBadRef is returned for references that do not parse.
var ErrBadRef = errors.New("vault: reference must look like vault:<mount>/<path>#<key>")

//
// SECTION 1.  References
//

// Ref points at one key of a KV-v2 secret.
type Ref struct {
	Mount string
	Path  string
	Key   string
}

func (r Ref) String() string { return RefPrefix + r.Mount + "/" + r.Path + "#" + r.Key }

// IsRef reports whether s carries the vault: prefix.
func IsRef(s string) bool { return strings.HasPrefix(s, RefPrefix) }

// ParseRef parses "vault:<mount>/<path>#<key>".
func ParseRef(s string) (Ref, error) {
	if !IsRef(s) {
		return Ref{}, ErrBadRef
	}
	body := strings.TrimPrefix(s, RefPrefix)
	loc, key, ok := strings.Cut(body, "#")
	if !ok || key == "" {
		return Ref{}, ErrBadRef
	}
	mount, path, ok := strings.Cut(strings.Trim(loc, "/"), "/")
	if !ok || mount == "" || path == "" {
		return Ref{}, ErrBadRef
	}
	return Ref{Mount: mount, Path: path, Key: key}, nil
}

//
// SECTION 2.  Client
//

// Client is safe for concurrent use.  Zero value is invalid.
type Client struct {
	api   *vault.Client
	log   *zap.SugaredLogger
	cache *cache.TTL[string, string]
}

// New constructs a client from the standard environment.
//
// Environment expectations
// ------------------------
// • VAULT_ADDR   – scheme and host of the Vault server.
// • VAULT_TOKEN  – token used for every read.
func New(log *zap.SugaredLogger, cacheTTL time.Duration) (*Client, error) {
	cfg := vault.DefaultConfig()
	if err := cfg.ReadEnvironment(); err != nil {
		return nil, fmt.Errorf("vault env cfg: %w", err)
	}
	api, err := vault.NewClient(cfg)
	if err != nil {
		return nil, fmt.Errorf("vault api: %w", err)
	}
	if tok := os.Getenv("VAULT_TOKEN"); tok != "" {
		api.SetToken(tok)
	}
	return NewWithAPI(api, log, cacheTTL), nil
}

// NewWithAPI wraps an existing SDK client.
func NewWithAPI(api *vault.Client, log *zap.SugaredLogger, cacheTTL time.Duration) *Client {
	if log == nil {
		log = zap.NewNop().Sugar()
	}
	if cacheTTL <= 0 {
		cacheTTL = 5 * time.Minute
	}
	return &Client{api: api, log: log, cache: cache.New[string, string](cacheTTL, 0, nil)}
}

// GetKV fetches a single string key from a KV-v2 secret.
func (c *Client) GetKV(ctx context.Context, ref Ref) (string, error) {
	canonical := ref.String()
	if v, ok := c.cache.Get(canonical); ok {
		return v, nil
	}

	sec, err := c.api.KVv2(ref.Mount).Get(ctx, ref.Path)
	if err != nil {
		return "", fmt.Errorf("vault get %s/%s: %w", ref.Mount, ref.Path, err)
	}
	raw, ok := sec.Data[ref.Key]
	if !ok {
		return "", fmt.Errorf("key %q not found in secret %s/%s", ref.Key, ref.Mount, ref.Path)
	}
	sval, ok := raw.(string)
	if !ok {
		return "", fmt.Errorf("value at %s is not a string", canonical)
	}

	c.cache.Set(canonical, sval)
	c.log.Debugw("vault secret read", "ref", canonical)
	return sval, nil
}

// Resolve parses s as a reference and reads it.
func (c *Client) Resolve(ctx context.Context, s string) (string, error) {
	ref, err := ParseRef(s)
	if err != nil {
		return "", err
	}
	return c.GetKV(ctx, ref)
}
