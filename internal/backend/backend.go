// internal/backend/backend.go
//
// Record-store selection from configuration.
//
// Both binaries build their store here so the web server and the seed tool
// always agree on driver, credentials, and timeouts.  `store.driver`
// chooses PocketBase (default) or one of the SQL mirrors.
package backend

import (
	"context"
	"io"

	"go.uber.org/zap"

	"github.com/yanizio/frontdoor/internal/config"
	"github.com/yanizio/frontdoor/internal/database"
	"github.com/yanizio/frontdoor/internal/store"
	"github.com/yanizio/frontdoor/internal/store/pocketbase"
	"github.com/yanizio/frontdoor/internal/store/sqlstore"
)

// Backend is an opened record store.
type Backend struct {
	store.Writer
	io.Closer
	Driver string
}

type nopCloser struct{}

func (nopCloser) Close() error { return nil }

// Open builds the store named by cfg.Driver.
func Open(ctx context.Context, cfg config.Store, log *zap.SugaredLogger) (*Backend, error) {
	if log == nil {
		log = zap.NewNop().Sugar()
	}

	if !cfg.SQL() {
		c, err := pocketbase.NewClient(pocketbase.Config{
			BaseURL:        cfg.URL,
			AuthMode:       cfg.AuthMode,
			Token:          cfg.AdminToken,
			Email:          cfg.AdminEmail,
			Password:       cfg.AdminPassword,
			AuthCollection: cfg.AuthCollection,
			Timeout:        cfg.Timeout,
			Logger:         log.Named("pocketbase"),
		})
		if err != nil {
			return nil, err
		}
		if !c.Configured() {
			log.Warnw("store url empty, tenant lookups disabled")
		}
		return &Backend{Writer: c, Closer: nopCloser{}, Driver: cfg.Driver}, nil
	}

	db, err := database.Open(ctx, cfg.Driver, cfg.DSN)
	if err != nil {
		return nil, err
	}
	log.Infow("sql store online", "driver", cfg.Driver)
	s := sqlstore.New(db, sqlstore.Options{Logger: log.Named("sqlstore")})
	return &Backend{Writer: s, Closer: db, Driver: cfg.Driver}, nil
}
