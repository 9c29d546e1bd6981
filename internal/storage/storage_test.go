package storage

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/google/go-cmp/cmp"

	"news_bot/migrations"
)

func newTestStores(t *testing.T) map[string]Storage {
	t.Helper()
	sq, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	bl, err := NewBolt(filepath.Join(t.TempDir(), "state.db"))
	if err != nil {
		t.Fatalf("new bolt: %v", err)
	}
	t.Cleanup(func() { _ = bl.Close() })

	return map[string]Storage{"sqlite": sq, "bolt": bl}
}

func TestGetPut(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if _, ok, err := s.Get(ctx, "last_sent_target"); err != nil || ok {
				t.Fatalf("Get on empty store = ok %v, err %v", ok, err)
			}

			if err := s.Put(ctx, "last_sent_target", "2026-10-17T01:00:00Z"); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Put(ctx, "last_sent_target", "2026-10-17T03:00:00Z"); err != nil {
				t.Fatalf("overwrite: %v", err)
			}

			got, ok, err := s.Get(ctx, "last_sent_target")
			if err != nil {
				t.Fatalf("get: %v", err)
			}
			if !ok {
				t.Fatal("expected key to be present")
			}
			if diff := cmp.Diff("2026-10-17T03:00:00Z", got); diff != "" {
				t.Errorf("value mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestDelete(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			if err := s.Put(ctx, "config", "{}"); err != nil {
				t.Fatalf("put: %v", err)
			}
			if err := s.Delete(ctx, "config"); err != nil {
				t.Fatalf("delete: %v", err)
			}
			if err := s.Delete(ctx, "missing"); err != nil {
				t.Fatalf("delete missing: %v", err)
			}
			if _, ok, _ := s.Get(ctx, "config"); ok {
				t.Error("expected key to be gone")
			}
		})
	}
}

func TestList(t *testing.T) {
	ctx := context.Background()
	for name, s := range newTestStores(t) {
		t.Run(name, func(t *testing.T) {
			entries := map[string]string{
				"config.max_loops":       "3",
				"config.search_keywords": "club",
				"config":                 "{}",
				"last_checked_time":      "2026-10-17T00:00:00Z",
			}
			for k, v := range entries {
				if err := s.Put(ctx, k, v); err != nil {
					t.Fatalf("put %s: %v", k, err)
				}
			}

			got, err := s.List(ctx, "config.")
			if err != nil {
				t.Fatalf("list: %v", err)
			}
			want := map[string]string{
				"config.max_loops":       "3",
				"config.search_keywords": "club",
			}
			if diff := cmp.Diff(want, got); diff != "" {
				t.Errorf("List mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestOpenUnknownBackend(t *testing.T) {
	if _, err := Open("redis", filepath.Join(t.TempDir(), "x.db")); err == nil {
		t.Fatal("expected error for unknown backend")
	}
}

func TestSQLiteSchemaVersion(t *testing.T) {
	sq, err := NewSQLite(":memory:")
	if err != nil {
		t.Fatalf("new sqlite: %v", err)
	}
	t.Cleanup(func() { _ = sq.Close() })

	v, err := migrations.Version(sq.db)
	if err != nil {
		t.Fatalf("version: %v", err)
	}
	if diff := cmp.Diff(int64(1), v); diff != "" {
		t.Errorf("schema version (-want +got):\n%s", diff)
	}
}

func TestOpenCreatesDirectory(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", "state.db")
	s, err := Open("bolt", path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	t.Cleanup(func() { _ = s.Close() })

	if err := s.Put(context.Background(), "k", "v"); err != nil {
		t.Fatalf("put: %v", err)
	}
}
