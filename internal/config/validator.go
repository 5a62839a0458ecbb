// internal/config/validator.go
//
// Thin wrapper around go-playground/validator.
//
// Context
// -------
// `internal/config/loader.go` calls `validateStruct` immediately after it
// unmarshals the merged Koanf tree into a `Config` instance.  Any tag
// mismatch, validation error, or cross-field conflict aborts startup, so the
// binary never runs with partial or malformed configuration.
//
// Cross-field rules live in crossCheck because struct tags cannot express
// them:
//
//   • token auth with a store URL needs an admin token,
//   • SQL drivers need a DSN.
//
// Password auth without credentials is deliberately allowed; the session
// reports it on first use.
//
// Notes
// -----
//   • Oxford commas, two spaces after periods.

package config

import (
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
)

var (
	// ErrMissingToken mirrors the store client's startup failure.
	ErrMissingToken = errors.New("config: store.auth_mode=token requires store.admin_token")

	// ErrMissingDSN is returned for SQL drivers without store.dsn.
	ErrMissingDSN = errors.New("config: SQL store drivers require store.dsn")
)

//
// validator instance (package-level singleton)
//

var v = validator.New()

//
// public API
//

// validateStruct returns the first validation error, or nil on success.
func validateStruct(c *Config) error {
	if err := v.Struct(c); err != nil {
		return err
	}
	return crossCheck(c)
}

func crossCheck(c *Config) error {
	s := c.Store
	if s.SQL() {
		if s.DSN == "" {
			return fmt.Errorf("%w (driver %s)", ErrMissingDSN, s.Driver)
		}
		return nil
	}
	if s.URL != "" && s.AuthMode == "token" && s.AdminToken == "" {
		return ErrMissingToken
	}
	return nil
}
