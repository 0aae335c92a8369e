package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/influxdb"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/logging"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/mqtt"
	"github.com/nerrad567/audiolink-core/internal/registry"
	"github.com/nerrad567/audiolink-core/internal/sessionbus"
	"github.com/nerrad567/audiolink-core/internal/settings"
)

func (c *cli) serveCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "serve",
		Short: "Run the device registry service",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			// Default logger until config is loaded
			logging.Default().Info("loading configuration", "path", c.configPath)

			cfg, err := c.loadConfig(false)
			if err != nil {
				return err
			}
			return run(cmd.Context(), cfg)
		},
	}
}

// run is the service lifecycle, separated from the command for testability.
// It returns nil on clean shutdown when ctx is cancelled.
func run(ctx context.Context, cfg *config.Config) error {
	log := logging.New(cfg.Logging, version)
	log.Info("starting AudioLink Core",
		"version", version,
		"commit", commit,
		"build_date", date,
		"device_id", cfg.Device.ID,
	)

	// Open registry storage
	backend, err := settings.Open(ctx, cfg)
	if err != nil {
		return fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}
	defer func() {
		log.Info("closing storage")
		if closeErr := backend.Close(); closeErr != nil {
			log.Error("error closing storage", "error", closeErr)
		}
	}()
	log.Info("storage opened", storageAttrs(ctx, cfg, backend)...)

	ns := settings.NewNamespace(backend, cfg.Storage.Namespace)
	ns.SetLogger(log)
	reg := registry.New(ns, log)

	// Connect to MQTT broker
	mqttClient, err := mqtt.Connect(cfg.MQTT)
	if err != nil {
		return fmt.Errorf("connecting to MQTT: %w", err)
	}
	defer func() {
		log.Info("disconnecting from MQTT")
		if closeErr := mqttClient.Close(); closeErr != nil {
			log.Error("error closing MQTT", "error", closeErr)
		}
	}()
	mqttClient.SetLogger(log.With("component", "mqtt"))
	mqttClient.SetOnConnect(func() {
		log.Info("MQTT connected")
	})
	mqttClient.SetOnDisconnect(func(err error) {
		log.Warn("MQTT disconnected", "error", err)
	})
	log.Info("MQTT connected",
		"broker", fmt.Sprintf("%s:%d", cfg.MQTT.Broker.Host, cfg.MQTT.Broker.Port),
		"client_id", cfg.MQTT.Broker.ClientID,
		"topic_prefix", mqttClient.Topics().Prefix,
	)

	// Connect to InfluxDB (optional)
	var influxClient *influxdb.Client
	if cfg.InfluxDB.Enabled {
		influxClient, err = influxdb.Connect(ctx, cfg.InfluxDB)
		if err != nil {
			return fmt.Errorf("connecting to InfluxDB: %w", err)
		}
		defer func() {
			log.Info("closing InfluxDB connection")
			if closeErr := influxClient.Close(); closeErr != nil {
				log.Error("error closing InfluxDB", "error", closeErr)
			}
		}()
		influxClient.SetLogger(log.With("component", "influxdb"))
		log.Info("InfluxDB connected", "url", cfg.InfluxDB.URL, "bucket", cfg.InfluxDB.Bucket)
	} else {
		log.Info("InfluxDB disabled")
	}

	// Start the session bus
	bridge, err := sessionbus.NewBridge(sessionbus.Options{
		MQTTClient: mqttClient,
		Registry:   reg,
		Topics:     mqttClient.Topics(),
		QoS:        mqttClient.QoS(),
		DeviceID:   cfg.Device.ID,
		Logger:     log.With("component", "sessionbus"),
	})
	if err != nil {
		return fmt.Errorf("creating session bus: %w", err)
	}
	if influxClient != nil {
		bridge.SetMetrics(influxClient)
	}
	if err := bridge.Start(ctx); err != nil {
		return fmt.Errorf("starting session bus: %w", err)
	}
	defer bridge.Stop()

	if err := healthCheck(ctx, backend, mqttClient, influxClient); err != nil {
		return fmt.Errorf("health check failed: %w", err)
	}

	stats := reg.Stats()
	log.Info("AudioLink Core started",
		"profiles", stats.Profiles,
		"preferred_session", stats.PreferredSessionID,
	)

	<-ctx.Done()
	log.Info("shutdown signal received")

	// Deferred calls run in reverse: session bus, InfluxDB, MQTT, storage.
	m := bridge.GetMetrics()
	log.Info("AudioLink Core stopped",
		"session_updates", m.SessionUpdates,
		"commands_handled", m.CommandsHandled,
		"commands_failed", m.CommandsFailed,
	)
	return nil
}

// healthCheck verifies all infrastructure connections are healthy.
// influxClient may be nil when InfluxDB is disabled.
func healthCheck(ctx context.Context, backend settings.Backend, mqttClient *mqtt.Client, influxClient *influxdb.Client) error {
	if err := backend.HealthCheck(ctx); err != nil {
		return fmt.Errorf("storage: %w", err)
	}

	if err := mqttClient.HealthCheck(ctx); err != nil {
		return fmt.Errorf("mqtt: %w", err)
	}

	if influxClient != nil {
		if err := influxClient.HealthCheck(ctx); err != nil {
			return fmt.Errorf("influxdb: %w", err)
		}
	}

	return nil
}

// journalModer is implemented by backends on an SQLite file.
type journalModer interface {
	JournalMode(ctx context.Context) (string, error)
}

// storageAttrs returns the log attributes describing the opened backend,
// including the journal mode SQLite actually applied.
func storageAttrs(ctx context.Context, cfg *config.Config, backend settings.Backend) []any {
	attrs := []any{"backend", cfg.Storage.Backend, "namespace", cfg.Storage.Namespace}

	jm, ok := backend.(journalModer)
	if !ok {
		return attrs
	}
	attrs = append(attrs, "path", cfg.Database.Path)
	mode, err := jm.JournalMode(ctx)
	if err != nil {
		return append(attrs, "journal_mode_error", err)
	}
	return append(attrs, "journal_mode", mode)
}
