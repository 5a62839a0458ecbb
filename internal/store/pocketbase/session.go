package pocketbase

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/golang-jwt/jwt/v4"

	"github.com/yanizio/frontdoor/internal/metrics"
	"github.com/yanizio/frontdoor/internal/store"
)

// expirySkew renews a session slightly before its token expires.
const expirySkew = 30 * time.Second

// Session is an authenticated admin identity.
type Session struct {
	Token   string
	Expires time.Time // zero when the token carries no exp claim
}

func newSession(token string) *Session {
	s := &Session{Token: token}
	claims := jwt.MapClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, claims); err == nil {
		if exp, ok := claims["exp"].(float64); ok {
			s.Expires = time.Unix(int64(exp), 0)
		}
	}
	return s
}

func (s *Session) valid(now time.Time) bool {
	if s == nil || s.Token == "" {
		return false
	}
	return s.Expires.IsZero() || now.Add(expirySkew).Before(s.Expires)
}

// pendingAuth is one in-flight login shared by every waiting caller.
type pendingAuth struct {
	done    chan struct{}
	waiters int // callers sharing this login, logged when it settles
	session *Session
	err     error
}

// Session returns the admin session, logging in when none is valid.
//
// Concurrent callers share a single login.  A failed login is reported to
// every caller that waited on it and leaves the client unauthenticated, so
// the next call tries again.  A caller whose ctx ends stops waiting without
// cancelling the shared login.
func (c *Client) Session(ctx context.Context) (*Session, error) {
	if c.base == "" {
		return nil, store.ErrNotConfigured
	}
	if c.mode == AuthToken {
		return c.static, nil
	}
	if c.email == "" || c.password == "" {
		return nil, ErrMissingCredentials
	}

	c.mu.Lock()
	if c.current.valid(c.clk.Now()) {
		s := c.current
		c.mu.Unlock()
		return s, nil
	}
	p := c.pending
	if p == nil {
		p = &pendingAuth{done: make(chan struct{})}
		c.pending = p
		c.current = nil
		go c.login(context.WithoutCancel(ctx), p)
	}
	p.waiters++
	c.mu.Unlock()

	select {
	case <-p.done:
		return p.session, p.err
	case <-ctx.Done():
		return nil, ctx.Err()
	}
}

// Invalidate drops the cached session if it still holds token.
func (c *Client) Invalidate(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.current != nil && c.current.Token == token {
		c.current = nil
		c.log.Infow("pocketbase session invalidated")
	}
}

func (c *Client) login(ctx context.Context, p *pendingAuth) {
	s, err := c.authWithPassword(ctx)

	c.mu.Lock()
	p.session, p.err = s, err
	if err == nil {
		c.current = s
	}
	c.pending = nil
	waiters := p.waiters
	c.mu.Unlock()
	defer close(p.done)

	metrics.AuthAttempts.WithLabelValues(metrics.Outcome(err)).Inc()
	if err != nil {
		c.log.Warnw("pocketbase admin login failed", "waiters", waiters, "err", err)
		return
	}
	c.log.Infow("pocketbase admin login", "expires", s.Expires, "waiters", waiters)
}

func (c *Client) authWithPassword(ctx context.Context) (*Session, error) {
	path := "/api/collections/" + url.PathEscape(c.authColl) + "/auth-with-password"
	body, err := json.Marshal(map[string]string{"identity": c.email, "password": c.password})
	if err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.base+path, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("pocketbase: build auth request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("Accept", "application/json")

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("pocketbase: auth: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("pocketbase: auth: %w", decodeError(resp, path))
	}

	var out struct {
		Token string `json:"token"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("pocketbase: decode auth answer: %w", err)
	}
	if out.Token == "" {
		return nil, fmt.Errorf("pocketbase: auth answer carried no token")
	}
	return newSession(out.Token), nil
}
