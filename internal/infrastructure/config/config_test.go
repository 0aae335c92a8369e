package config

import (
	"os"
	"path/filepath"
	"testing"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	configPath := filepath.Join(t.TempDir(), "config.yaml")
	if err := os.WriteFile(configPath, []byte(content), 0600); err != nil {
		t.Fatalf("failed to write test config: %v", err)
	}
	return configPath
}

func TestLoad_ValidConfig(t *testing.T) {
	content := `
device:
  id: "kitchen-speaker"
storage:
  backend: "sqlite"
  namespace: "devices"
database:
  path: "/tmp/test.db"
  wal_mode: true
  busy_timeout: 5
mqtt:
  broker:
    host: "localhost"
    port: 1883
    client_id: "test-client"
  qos: 1
  topic_prefix: "speaker"
`
	cfg, err := Load(writeConfig(t, content))
	if err != nil {
		t.Fatalf("Load() error = %v", err)
	}

	if cfg.Device.ID != "kitchen-speaker" {
		t.Errorf("Device.ID = %q, want %q", cfg.Device.ID, "kitchen-speaker")
	}

	if cfg.Database.Path != "/tmp/test.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/tmp/test.db")
	}

	if cfg.MQTT.TopicPrefix != "speaker" {
		t.Errorf("MQTT.TopicPrefix = %q, want %q", cfg.MQTT.TopicPrefix, "speaker")
	}

	// Unset sections keep their defaults.
	if cfg.Redis.KeyPrefix != "audiolink" {
		t.Errorf("Redis.KeyPrefix = %q, want default %q", cfg.Redis.KeyPrefix, "audiolink")
	}
}

func TestLoad_MissingFile(t *testing.T) {
	_, err := Load("/nonexistent/path/config.yaml")
	if err == nil {
		t.Error("Load() expected error for missing file, got nil")
	}
}

func TestLoad_InvalidYAML(t *testing.T) {
	_, err := Load(writeConfig(t, "invalid: [yaml: content"))
	if err == nil {
		t.Error("Load() expected error for invalid YAML, got nil")
	}
}

func TestLoad_ValidationFailure(t *testing.T) {
	content := `
device:
  id: ""
`
	_, err := Load(writeConfig(t, content))
	if err == nil {
		t.Error("Load() expected validation error for empty device.id, got nil")
	}
}

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{
			name:    "defaults are valid",
			mutate:  func(*Config) {},
			wantErr: false,
		},
		{
			name:    "missing device ID",
			mutate:  func(c *Config) { c.Device.ID = "" },
			wantErr: true,
		},
		{
			name:    "missing namespace",
			mutate:  func(c *Config) { c.Storage.Namespace = "" },
			wantErr: true,
		},
		{
			name:    "unknown backend",
			mutate:  func(c *Config) { c.Storage.Backend = "etcd" },
			wantErr: true,
		},
		{
			name:    "sqlite without path",
			mutate:  func(c *Config) { c.Database.Path = "" },
			wantErr: true,
		},
		{
			name: "redis without addr",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendRedis
				c.Redis.Addr = ""
			},
			wantErr: true,
		},
		{
			name: "memory ignores database path",
			mutate: func(c *Config) {
				c.Storage.Backend = BackendMemory
				c.Database.Path = ""
			},
			wantErr: false,
		},
		{
			name:    "invalid QoS",
			mutate:  func(c *Config) { c.MQTT.QoS = 3 },
			wantErr: true,
		},
		{
			name:    "wildcard topic prefix",
			mutate:  func(c *Config) { c.MQTT.TopicPrefix = "audio/#" },
			wantErr: true,
		},
		{
			name:    "influxdb enabled without url",
			mutate:  func(c *Config) { c.InfluxDB.Enabled = true },
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if (err != nil) != tt.wantErr {
				t.Errorf("Validate() error = %v, wantErr %v", err, tt.wantErr)
			}
		})
	}
}

func TestApplyEnvOverrides(t *testing.T) {
	cfg := Default()

	t.Setenv("AUDIOLINK_STORAGE_BACKEND", "redis")
	t.Setenv("AUDIOLINK_DATABASE_PATH", "/custom/path.db")
	t.Setenv("AUDIOLINK_REDIS_ADDR", "redis.local:6380")
	t.Setenv("AUDIOLINK_REDIS_PASSWORD", "redispass")
	t.Setenv("AUDIOLINK_REDIS_DB", "3")
	t.Setenv("AUDIOLINK_MQTT_HOST", "mqtt.example.com")
	t.Setenv("AUDIOLINK_MQTT_USERNAME", "testuser")
	t.Setenv("AUDIOLINK_MQTT_PASSWORD", "testpass")
	t.Setenv("AUDIOLINK_INFLUXDB_TOKEN", "secret-token")

	applyEnvOverrides(cfg)

	if cfg.Storage.Backend != "redis" {
		t.Errorf("Storage.Backend = %q, want %q", cfg.Storage.Backend, "redis")
	}

	if cfg.Database.Path != "/custom/path.db" {
		t.Errorf("Database.Path = %q, want %q", cfg.Database.Path, "/custom/path.db")
	}

	if cfg.Redis.Addr != "redis.local:6380" {
		t.Errorf("Redis.Addr = %q, want %q", cfg.Redis.Addr, "redis.local:6380")
	}

	if cfg.Redis.Password != "redispass" {
		t.Errorf("Redis.Password = %q, want %q", cfg.Redis.Password, "redispass")
	}

	if cfg.Redis.DB != 3 {
		t.Errorf("Redis.DB = %d, want 3", cfg.Redis.DB)
	}

	if cfg.MQTT.Broker.Host != "mqtt.example.com" {
		t.Errorf("MQTT.Broker.Host = %q, want %q", cfg.MQTT.Broker.Host, "mqtt.example.com")
	}

	if cfg.MQTT.Auth.Username != "testuser" {
		t.Errorf("MQTT.Auth.Username = %q, want %q", cfg.MQTT.Auth.Username, "testuser")
	}

	if cfg.MQTT.Auth.Password != "testpass" {
		t.Errorf("MQTT.Auth.Password = %q, want %q", cfg.MQTT.Auth.Password, "testpass")
	}

	if cfg.InfluxDB.Token != "secret-token" {
		t.Errorf("InfluxDB.Token = %q, want %q", cfg.InfluxDB.Token, "secret-token")
	}
}

func TestApplyEnvOverrides_InvalidRedisDB(t *testing.T) {
	cfg := Default()
	t.Setenv("AUDIOLINK_REDIS_DB", "not-a-number")

	applyEnvOverrides(cfg)

	if cfg.Redis.DB != 0 {
		t.Errorf("Redis.DB = %d, want 0 when env value is invalid", cfg.Redis.DB)
	}
}

func TestDefault(t *testing.T) {
	cfg := Default()

	if cfg.Device.ID == "" {
		t.Error("Default should have non-empty Device.ID")
	}

	if cfg.Storage.Backend != BackendSQLite {
		t.Errorf("Default Storage.Backend = %q, want %q", cfg.Storage.Backend, BackendSQLite)
	}

	if cfg.Storage.Namespace != "devices" {
		t.Errorf("Default Storage.Namespace = %q, want %q", cfg.Storage.Namespace, "devices")
	}

	if cfg.MQTT.Broker.Port != 1883 {
		t.Errorf("Default MQTT.Broker.Port = %d, want 1883", cfg.MQTT.Broker.Port)
	}
}

func TestLoadOrDefault_MissingFile(t *testing.T) {
	t.Setenv("AUDIOLINK_STORAGE_BACKEND", "memory")

	cfg, err := LoadOrDefault(filepath.Join(t.TempDir(), "absent.yaml"))
	if err != nil {
		t.Fatalf("LoadOrDefault() error = %v", err)
	}
	if cfg.Storage.Backend != BackendMemory {
		t.Errorf("Storage.Backend = %q, want env override %q", cfg.Storage.Backend, BackendMemory)
	}
}

func TestLoadOrDefault_InvalidFile(t *testing.T) {
	if _, err := LoadOrDefault(writeConfig(t, "invalid: [yaml: content")); err == nil {
		t.Error("LoadOrDefault() expected error for invalid YAML, got nil")
	}
}
