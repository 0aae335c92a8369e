package settings

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
)

func openSQLiteBackend(t *testing.T) Backend {
	t.Helper()

	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "settings.db")

	backend, err := Open(context.Background(), cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() { backend.Close() }) //nolint:errcheck // Test cleanup
	return backend
}

func TestSQLiteBackend_CRUD(t *testing.T) {
	backend := openSQLiteBackend(t)
	ctx := context.Background()

	if _, ok := backend.(*SQLiteBackend); !ok {
		t.Fatalf("Open() returned %T, want *SQLiteBackend", backend)
	}

	if _, found, err := backend.Get(ctx, "devices", "profiles"); err != nil || found {
		t.Fatalf("Get() on empty table = found %v, err %v", found, err)
	}

	if err := backend.Set(ctx, "devices", "profiles", "[]"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := backend.Set(ctx, "devices", "profiles", `[{"mac":"AA"}]`); err != nil {
		t.Fatalf("Set() overwrite error = %v", err)
	}

	value, found, err := backend.Get(ctx, "devices", "profiles")
	if err != nil || !found {
		t.Fatalf("Get() = found %v, err %v", found, err)
	}
	if value != `[{"mac":"AA"}]` {
		t.Errorf("Get() = %q, want overwritten value", value)
	}

	if err := backend.Erase(ctx, "devices", "profiles"); err != nil {
		t.Fatalf("Erase() error = %v", err)
	}
	if _, found, _ := backend.Get(ctx, "devices", "profiles"); found {
		t.Error("Get() found key after Erase()")
	}

	if err := backend.HealthCheck(ctx); err != nil {
		t.Errorf("HealthCheck() error = %v", err)
	}
}

func TestSQLiteBackend_SurvivesReopen(t *testing.T) {
	cfg := config.Default()
	cfg.Database.Path = filepath.Join(t.TempDir(), "settings.db")
	ctx := context.Background()

	first, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	NewNamespace(first, "devices").SetString("preferred_session", "sess-42")
	if err := first.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}

	second, err := Open(ctx, cfg)
	if err != nil {
		t.Fatalf("reopen error = %v", err)
	}
	defer second.Close() //nolint:errcheck // Test cleanup

	if got := NewNamespace(second, "devices").GetString("preferred_session", ""); got != "sess-42" {
		t.Errorf("GetString() after reopen = %q, want %q", got, "sess-42")
	}
}

func TestSQLiteBackend_JournalMode(t *testing.T) {
	tests := []struct {
		name string
		wal  bool
		want string
	}{
		{name: "wal", wal: true, want: "wal"},
		{name: "rollback journal", wal: false, want: "delete"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.Default()
			cfg.Database.Path = filepath.Join(t.TempDir(), "settings.db")
			cfg.Database.WALMode = tt.wal

			backend, err := Open(context.Background(), cfg)
			if err != nil {
				t.Fatalf("Open() error = %v", err)
			}
			defer backend.Close() //nolint:errcheck // Test cleanup

			sqlite, ok := backend.(*SQLiteBackend)
			if !ok {
				t.Fatalf("Open() returned %T, want *SQLiteBackend", backend)
			}
			got, err := sqlite.JournalMode(context.Background())
			if err != nil {
				t.Fatalf("JournalMode() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("JournalMode() = %q, want %q", got, tt.want)
			}
		})
	}
}
