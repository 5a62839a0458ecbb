// internal/store/pocketbase/client.go
//
// REST client for a PocketBase record store.
//
// Context
// -------
// The front door reads tenants and content through PocketBase's records
// API using an admin (superuser) session.  One Client is built at boot and
// shared by every request goroutine.
//
// Workflow
// --------
//  1. NewClient validates the auth mode.  Token mode fails fast when the
//     token is missing, password mode defers credential checks to first use.
//  2. Every data call asks Session() for a token, attaches it, and sends
//     the request through a pooled, traced transport.
//  3. A 401 answer drops the cached password-mode session so the next call
//     logs in again.
//
// Notes
// -----
//   - An empty BaseURL is allowed and yields a client that always answers
//     store.ErrNotConfigured.
//   - Oxford commas, two spaces after periods.
package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/hashicorp/go-cleanhttp"
	"go.opentelemetry.io/contrib/instrumentation/net/http/otelhttp"
	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
)

// Auth modes accepted by Config.AuthMode.
const (
	AuthPassword = "password"
	AuthToken    = "token"
)

// DefaultAuthCollection is the PocketBase superuser collection.
const DefaultAuthCollection = "_superusers"

var (
	// ErrMissingToken is returned by NewClient in token mode without a token.
	ErrMissingToken = errors.New("pocketbase: token auth mode requires an admin token")

	// ErrMissingCredentials is returned on first use in password mode when
	// the email or password is empty.  It matches store.ErrNotConfigured:
	// retrying cannot fix it, so callers treat it as a disabled store.
	ErrMissingCredentials = fmt.Errorf("%w: pocketbase: password auth mode requires admin email and password", store.ErrNotConfigured)

	// ErrUnknownAuthMode is returned by NewClient for any other mode.
	ErrUnknownAuthMode = errors.New("pocketbase: unknown auth mode")
)

// Config configures a Client.
type Config struct {
	BaseURL        string
	AuthMode       string // AuthPassword (default) or AuthToken
	Token          string
	Email          string
	Password       string
	AuthCollection string // default DefaultAuthCollection
	Timeout        time.Duration
	HTTPClient     *http.Client // overrides the pooled transport; tests only
	Clock          clock.Clock
	Logger         *zap.SugaredLogger
}

// Client is safe for concurrent use.
type Client struct {
	base     string
	mode     string
	email    string
	password string
	authColl string
	http     *http.Client
	clk      clock.Clock
	log      *zap.SugaredLogger

	static *Session // token mode

	mu      sync.Mutex
	current *Session     // authenticated
	pending *pendingAuth // authenticating
}

var (
	_ store.Writer       = (*Client)(nil)
	_ store.SchemaReader = (*Client)(nil)
)

// NewClient builds a Client.  It performs no network I/O.
func NewClient(cfg Config) (*Client, error) {
	mode := strings.ToLower(strings.TrimSpace(cfg.AuthMode))
	if mode == "" {
		mode = AuthPassword
	}
	if mode != AuthPassword && mode != AuthToken {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAuthMode, cfg.AuthMode)
	}

	c := &Client{
		base:     strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/"),
		mode:     mode,
		email:    cfg.Email,
		password: cfg.Password,
		authColl: cfg.AuthCollection,
		http:     cfg.HTTPClient,
		clk:      cfg.Clock,
		log:      cfg.Logger,
	}
	if c.authColl == "" {
		c.authColl = DefaultAuthCollection
	}
	if c.clk == nil {
		c.clk = clock.New()
	}
	if c.log == nil {
		c.log = zap.NewNop().Sugar()
	}
	if c.http == nil {
		timeout := cfg.Timeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		c.http = &http.Client{
			Transport: otelhttp.NewTransport(cleanhttp.DefaultPooledTransport()),
			Timeout:   timeout,
		}
	}

	if c.base != "" && mode == AuthToken {
		tok := strings.TrimSpace(cfg.Token)
		if tok == "" {
			return nil, ErrMissingToken
		}
		c.static = newSession(tok)
	}
	return c, nil
}

// Configured reports whether a base URL was supplied.
func (c *Client) Configured() bool { return c.base != "" }

// do sends one authenticated request and decodes a JSON answer into out.
func (c *Client) do(ctx context.Context, op, method, path string, query url.Values, body, out any) (err error) {
	defer func() { metrics.StoreRequests.WithLabelValues("pocketbase", op, metrics.Outcome(err)).Inc() }()

	sess, err := c.Session(ctx)
	if err != nil {
		return err
	}

	u := c.base + path
	if len(query) > 0 {
		u += "?" + query.Encode()
	}

	var rdr io.Reader
	if body != nil {
		buf, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("pocketbase: encode %s body: %w", op, err)
		}
		rdr = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, u, rdr)
	if err != nil {
		return fmt.Errorf("pocketbase: build %s request: %w", op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", sess.Token)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return fmt.Errorf("pocketbase: %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized && c.mode == AuthPassword {
		c.Invalidate(sess.Token)
	}
	if resp.StatusCode >= 300 {
		return decodeError(resp, path)
	}
	if out == nil {
		_, _ = io.Copy(io.Discard, resp.Body)
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("pocketbase: decode %s answer: %w", op, err)
	}
	return nil
}

func decodeError(resp *http.Response, path string) error {
	var payload struct {
		Message string `json:"message"`
	}
	raw, _ := io.ReadAll(io.LimitReader(resp.Body, 64<<10))
	_ = json.Unmarshal(raw, &payload)
	return &store.ResponseError{Status: resp.StatusCode, Message: payload.Message, URL: path}
}

func recordsPath(collection string) string {
	return "/api/collections/" + url.PathEscape(collection) + "/records"
}

func itoa(n int) string { return strconv.Itoa(n) }
