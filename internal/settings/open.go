package settings

import (
	"context"
	"fmt"
	"strings"

	"github.com/redis/go-redis/v9"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/database"
	"github.com/nerrad567/audiolink-core/migrations"
)

// Open creates the Backend selected by cfg.Storage.Backend.
//
// The sqlite backend opens the database file and applies the embedded
// migrations; the redis backend connects and pings the server.
func Open(ctx context.Context, cfg *config.Config) (Backend, error) {
	switch strings.ToLower(cfg.Storage.Backend) {
	case config.BackendSQLite:
		db, err := database.Open(ctx, cfg.Database)
		if err != nil {
			return nil, fmt.Errorf("opening database: %w", err)
		}
		if err := db.Migrate(ctx, migrations.FS); err != nil {
			db.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("running migrations: %w", err)
		}
		return NewSQLiteBackend(db), nil

	case config.BackendRedis:
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		backend := NewRedisBackend(client, cfg.Redis.KeyPrefix)
		if err := backend.HealthCheck(ctx); err != nil {
			client.Close() //nolint:errcheck // Best effort cleanup on error path
			return nil, fmt.Errorf("connecting to redis: %w", err)
		}
		return backend, nil

	case config.BackendMemory:
		return NewMemoryBackend(), nil

	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownBackend, cfg.Storage.Backend)
	}
}
