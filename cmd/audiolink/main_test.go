package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/audiolink-core/internal/sessionbus"
	"github.com/nerrad567/audiolink-core/internal/settings"
)

// writeTestConfig writes a config using a SQLite file in a temp dir.
func writeTestConfig(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	content := `
device:
  id: "test-device"
storage:
  backend: "sqlite"
  namespace: "devices"
database:
  path: "` + filepath.Join(dir, "registry.db") + `"
  wal_mode: false
  busy_timeout: 5
influxdb:
  enabled: false
logging:
  level: info
`
	path := filepath.Join(dir, "config.yaml")
	if err := os.WriteFile(path, []byte(content), 0600); err != nil {
		t.Fatalf("writing config: %v", err)
	}
	return path
}

// execute runs the root command with args and returns stdout.
func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	cmd := newRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.ExecuteContext(context.Background())
	return out.String(), err
}

func TestServe_InvalidConfig(t *testing.T) {
	_, err := execute(t, "serve", "--config", "/nonexistent/path/config.yaml")
	if err == nil {
		t.Fatal("serve should fail with invalid config path")
	}
	if !strings.Contains(err.Error(), "loading config") {
		t.Errorf("error = %v, want loading config error", err)
	}
}

func TestRun_StorageFailure(t *testing.T) {
	cfg := config.Default()
	cfg.Storage.Backend = "etcd"

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	err := run(ctx, cfg)
	if err == nil {
		t.Fatal("run() should fail with an unknown storage backend")
	}
	if !strings.Contains(err.Error(), "opening etcd storage") {
		t.Errorf("run() error = %v", err)
	}
}

func TestProfilesCommands(t *testing.T) {
	cfgPath := writeTestConfig(t)

	out, err := execute(t, "profiles", "add", "-c", cfgPath,
		"--mac", "aa:bb:cc:dd:ee:ff", "--id", "phone", "--label", "Phone", "--no-notifications")
	if err != nil {
		t.Fatalf("profiles add error = %v", err)
	}
	if !strings.Contains(out, "AABBCCDDEEFF") {
		t.Errorf("add output = %q, want normalized MAC", out)
	}

	out, err = execute(t, "profiles", "list", "-c", cfgPath, "--json")
	if err != nil {
		t.Fatalf("profiles list error = %v", err)
	}
	var listed []profileView
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(listed) != 1 {
		t.Fatalf("listed %d profiles, want 1", len(listed))
	}
	if listed[0].MAC != "AABBCCDDEEFF" || !listed[0].AllowAudio || listed[0].AllowNotifications {
		t.Errorf("listed profile = %+v", listed[0])
	}

	out, err = execute(t, "profiles", "list", "-c", cfgPath)
	if err != nil {
		t.Fatalf("profiles list error = %v", err)
	}
	if !strings.Contains(out, "MAC") || !strings.Contains(out, "Phone") {
		t.Errorf("table output = %q", out)
	}

	if _, err := execute(t, "profiles", "remove", "-c", cfgPath, "--mac", "AA-BB-CC-DD-EE-FF"); err != nil {
		t.Fatalf("profiles remove error = %v", err)
	}
	if _, err := execute(t, "profiles", "remove", "-c", cfgPath, "--mac", "AA-BB-CC-DD-EE-FF"); err == nil {
		t.Error("second profiles remove should fail")
	}
}

func TestProfilesCommands_RequireKey(t *testing.T) {
	cfgPath := writeTestConfig(t)

	for _, sub := range []string{"add", "remove"} {
		_, err := execute(t, "profiles", sub, "-c", cfgPath)
		if !errors.Is(err, errNoProfileKey) {
			t.Errorf("profiles %s error = %v, want errNoProfileKey", sub, err)
		}
	}
}

func TestSessionsPreferred_None(t *testing.T) {
	out, err := execute(t, "sessions", "preferred", "-c", writeTestConfig(t))
	if err != nil {
		t.Fatalf("sessions preferred error = %v", err)
	}
	if strings.TrimSpace(out) != "(none)" {
		t.Errorf("output = %q, want (none)", out)
	}
}

// loopbackClient answers preferred session commands like the service would.
type loopbackClient struct {
	mu       sync.Mutex
	topics   mqtt.Topics
	handlers map[string]mqtt.MessageHandler
	known    map[string]bool
	silent   bool
}

func newLoopbackClient(known ...string) *loopbackClient {
	c := &loopbackClient{
		topics:   mqtt.NewTopics("test"),
		handlers: make(map[string]mqtt.MessageHandler),
		known:    make(map[string]bool),
	}
	for _, id := range known {
		c.known[id] = true
	}
	return c
}

func (c *loopbackClient) Topics() mqtt.Topics { return c.topics }
func (c *loopbackClient) QoS() byte           { return 1 }

func (c *loopbackClient) Subscribe(topic string, _ byte, handler mqtt.MessageHandler) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.handlers[topic] = handler
	return nil
}

func (c *loopbackClient) Unsubscribe(topic string) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	delete(c.handlers, topic)
	return nil
}

func (c *loopbackClient) Publish(_ string, payload []byte, _ byte, _ bool) error {
	if c.silent {
		return nil
	}
	var cmd sessionbus.PreferredSessionCommand
	if err := json.Unmarshal(payload, &cmd); err != nil {
		return err
	}

	c.mu.Lock()
	handler := c.handlers[c.topics.CommandAck(sessionbus.CommandPreferredSession)]
	c.mu.Unlock()

	reply := func(ack sessionbus.Ack) {
		data, _ := json.Marshal(ack) //nolint:errcheck // test fixture
		handler("", data)            //nolint:errcheck // test fixture
	}
	// An unrelated ack must be ignored.
	reply(sessionbus.Ack{RequestID: "other", Success: true})
	reply(sessionbus.Ack{RequestID: cmd.RequestID, Success: c.known[cmd.SessionID], Error: "not found"})
	return nil
}

func TestSendPreferred(t *testing.T) {
	tests := []struct {
		name        string
		client      *loopbackClient
		sessionID   string
		wantSuccess bool
		wantErr     error
	}{
		{"accepted", newLoopbackClient("ble-1"), "ble-1", true, nil},
		{"rejected", newLoopbackClient("ble-1"), "ghost", false, nil},
		{"timeout", &loopbackClient{topics: mqtt.NewTopics("test"), handlers: map[string]mqtt.MessageHandler{}, silent: true}, "ble-1", false, errAckTimeout},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ack, err := sendPreferred(tt.client, tt.sessionID, 50*time.Millisecond)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("sendPreferred() error = %v, want %v", err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("sendPreferred() error = %v", err)
			}
			if ack.Success != tt.wantSuccess {
				t.Errorf("ack.Success = %v, want %v", ack.Success, tt.wantSuccess)
			}
			if len(tt.client.handlers) != 0 {
				t.Error("ack subscription not removed")
			}
		})
	}
}

func TestDBCommands(t *testing.T) {
	cfgPath := writeTestConfig(t)

	if _, err := execute(t, "profiles", "add", "-c", cfgPath, "--mac", "aa:bb", "--id", "phone"); err != nil {
		t.Fatalf("profiles add error = %v", err)
	}

	out, err := execute(t, "db", "status", "-c", cfgPath)
	if err != nil {
		t.Fatalf("db status error = %v", err)
	}
	if !strings.Contains(out, "journal delete") {
		t.Errorf("status output = %q, want journal delete", out)
	}
	if !strings.Contains(out, "20260301_120000") || !strings.Contains(out, "applied") {
		t.Errorf("status output = %q, want applied settings migration", out)
	}

	if _, err := execute(t, "db", "rollback", "-c", cfgPath); !errors.Is(err, errRollbackConfirm) {
		t.Fatalf("rollback without --yes error = %v, want errRollbackConfirm", err)
	}

	out, err = execute(t, "db", "rollback", "-c", cfgPath, "--yes")
	if err != nil {
		t.Fatalf("db rollback error = %v", err)
	}
	if strings.TrimSpace(out) != "rolled back 20260301_120000" {
		t.Errorf("rollback output = %q", out)
	}

	out, err = execute(t, "db", "status", "-c", cfgPath)
	if err != nil {
		t.Fatalf("db status error = %v", err)
	}
	if !strings.Contains(out, "pending") {
		t.Errorf("status after rollback = %q, want pending migration", out)
	}

	out, err = execute(t, "db", "rollback", "-c", cfgPath, "--yes")
	if err != nil {
		t.Fatalf("second rollback error = %v", err)
	}
	if strings.TrimSpace(out) != "no migrations applied" {
		t.Errorf("second rollback output = %q", out)
	}

	// The settings table is recreated empty on next use.
	out, err = execute(t, "profiles", "list", "-c", cfgPath, "--json")
	if err != nil {
		t.Fatalf("profiles list error = %v", err)
	}
	var listed []profileView
	if err := json.Unmarshal([]byte(out), &listed); err != nil {
		t.Fatalf("list output is not JSON: %v\n%s", err, out)
	}
	if len(listed) != 0 {
		t.Errorf("listed %d profiles after rollback, want 0", len(listed))
	}
}

func TestDBCommands_RequireSQLite(t *testing.T) {
	t.Setenv("AUDIOLINK_STORAGE_BACKEND", "memory")
	missing := filepath.Join(t.TempDir(), "absent.yaml")

	for _, args := range [][]string{{"db", "status"}, {"db", "rollback", "--yes"}} {
		_, err := execute(t, append(args, "-c", missing)...)
		if !errors.Is(err, errNotSQLite) {
			t.Errorf("%v error = %v, want errNotSQLite", args, err)
		}
	}
}

func TestStorageAttrs(t *testing.T) {
	ctx := context.Background()

	attrMap := func(attrs []any) map[string]any {
		m := make(map[string]any, len(attrs)/2)
		for i := 0; i+1 < len(attrs); i += 2 {
			m[attrs[i].(string)] = attrs[i+1]
		}
		return m
	}

	t.Run("memory has no journal mode", func(t *testing.T) {
		cfg := config.Default()
		cfg.Storage.Backend = config.BackendMemory

		got := attrMap(storageAttrs(ctx, cfg, settings.NewMemoryBackend()))
		if got["backend"] != config.BackendMemory {
			t.Errorf("backend = %v", got["backend"])
		}
		if _, ok := got["journal_mode"]; ok {
			t.Error("memory backend should not report a journal mode")
		}
	})

	t.Run("sqlite reports journal mode", func(t *testing.T) {
		cfg := config.Default()
		cfg.Database.Path = filepath.Join(t.TempDir(), "registry.db")
		cfg.Database.WALMode = true

		backend, err := settings.Open(ctx, cfg)
		if err != nil {
			t.Fatalf("settings.Open() error = %v", err)
		}
		defer backend.Close() //nolint:errcheck // Test cleanup

		got := attrMap(storageAttrs(ctx, cfg, backend))
		if got["journal_mode"] != "wal" {
			t.Errorf("journal_mode = %v, want wal", got["journal_mode"])
		}
		if got["path"] != cfg.Database.Path {
			t.Errorf("path = %v, want %v", got["path"], cfg.Database.Path)
		}
	})
}
