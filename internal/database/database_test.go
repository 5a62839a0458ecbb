package database

import (
	"context"
	"testing"
)

func TestOpenSQLiteMemory(t *testing.T) {
	db, err := Open(context.Background(), "sqlite", ":memory:")
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer db.Close()

	if _, err := db.Exec(`CREATE TABLE t (id TEXT)`); err != nil {
		t.Fatalf("create: %v", err)
	}
	if _, err := db.Exec(`INSERT INTO t VALUES ('a')`); err != nil {
		t.Fatalf("insert: %v", err)
	}
	var n int
	if err := db.Get(&n, `SELECT COUNT(*) FROM t`); err != nil || n != 1 {
		t.Fatalf("count = %d, err = %v", n, err)
	}
	if got := db.Stats().MaxOpenConnections; got != 1 {
		t.Fatalf("MaxOpenConnections = %d, want 1", got)
	}
}

func TestOpenUnknownDriver(t *testing.T) {
	if _, err := Open(context.Background(), "oracle", "dsn"); err == nil {
		t.Fatalf("expected error for unknown driver")
	}
}
