package store

import (
	"context"
	"errors"
	"testing"
	"time"

	"kyctrust/internal/config"
)

func openTestStore(t *testing.T) *Store {
	t.Helper()
	ctx := context.Background()
	s, err := New(ctx, config.DatabaseConfig{
		Driver: "sqlite",
		Name:   "store_test",
		Path:   t.TempDir(),
	})
	if err != nil {
		t.Fatalf("open store: %v", err)
	}
	t.Cleanup(s.Close)
	return s
}

func TestBootstrapIsIdempotent(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)

	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("first bootstrap: %v", err)
	}
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("second bootstrap: %v", err)
	}

	// Exactly one seeded admin user regardless of how often we bootstrap
	var count int
	if err := s.DB.QueryRowContext(ctx, "SELECT COUNT(*) FROM admin_users").Scan(&count); err != nil {
		t.Fatalf("count admin users: %v", err)
	}
	if count != 1 {
		t.Fatalf("expected 1 seeded admin user, got %d", count)
	}
}

func TestQueryRowNotFound(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := QueryRow(ctx, s.DB, "SELECT * FROM services WHERE id = ?1", "missing")
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestSQLiteUniqueViolationMapsToSentinel(t *testing.T) {
	ctx := context.Background()
	s := openTestStore(t)
	if err := s.Bootstrap(ctx); err != nil {
		t.Fatalf("bootstrap: %v", err)
	}

	_, err := s.DB.ExecContext(ctx,
		"INSERT INTO admin_users (id, email, password_hash) VALUES (?1, ?2, ?3)",
		"dup-id", "admin@localhost", "hash")
	if err == nil {
		t.Fatal("expected unique violation")
	}
	if !errors.Is(s.Dialect.MapError(err), ErrUniqueViolation) {
		t.Fatalf("expected ErrUniqueViolation, got %v", err)
	}
}

func TestNormalizeBooleans(t *testing.T) {
	rows := []map[string]any{
		{"active": int64(1), "archived": int64(0), "name": "x"},
	}
	NormalizeBooleans(rows, []string{"active", "archived"})
	if rows[0]["active"] != true || rows[0]["archived"] != false {
		t.Fatalf("booleans not normalized: %v", rows[0])
	}
	if rows[0]["name"] != "x" {
		t.Fatalf("unrelated field touched: %v", rows[0])
	}
}

func TestNormalizeTextTimestamps(t *testing.T) {
	v := normalizeValue("2026-01-02 15:04:05")
	ts, ok := v.(time.Time)
	if !ok {
		t.Fatalf("expected time.Time, got %T", v)
	}
	if ts.Year() != 2026 {
		t.Fatalf("wrong parse: %v", ts)
	}

	if v := normalizeValue(`{"a":1}`); v == nil {
		t.Fatal("expected decoded JSON")
	} else if m, ok := v.(map[string]any); !ok || m["a"] != float64(1) {
		t.Fatalf("JSON text not decoded: %v", v)
	}

	if v := normalizeValue("plain"); v != "plain" {
		t.Fatalf("plain text changed: %v", v)
	}
}
