package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/nerrad567/audiolink-core/internal/infrastructure/config"
	"github.com/nerrad567/audiolink-core/internal/infrastructure/logging"
	"github.com/nerrad567/audiolink-core/internal/registry"
	"github.com/nerrad567/audiolink-core/internal/settings"
)

// cli carries flag values shared by all commands.
type cli struct {
	configPath string
	logLevel   string
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "audiolink",
		Short:         "AudioLink Core device registry",
		Version:       fmt.Sprintf("%s (commit %s, built %s)", version, commit, date),
		SilenceUsage:  true,
		SilenceErrors: true,
	}

	root.PersistentFlags().StringVarP(&c.configPath, "config", "c", getConfigPath(), "config file (env AUDIOLINK_CONFIG)")
	root.PersistentFlags().StringVar(&c.logLevel, "log-level", "", "override logging.level")

	root.AddCommand(c.serveCmd(), c.profilesCmd(), c.sessionsCmd(), c.dbCmd())
	return root
}

// loadConfig loads the config file. One-shot commands tolerate a missing
// file and fall back to defaults.
func (c *cli) loadConfig(allowMissing bool) (*config.Config, error) {
	var (
		cfg *config.Config
		err error
	)
	if allowMissing {
		cfg, err = config.LoadOrDefault(c.configPath)
	} else {
		cfg, err = config.Load(c.configPath)
	}
	if err != nil {
		return nil, fmt.Errorf("loading config: %w", err)
	}
	if c.logLevel != "" {
		cfg.Logging.Level = c.logLevel
	}
	return cfg, nil
}

// openRegistry opens the configured settings backend and loads the registry
// from it. The returned close function releases the backend.
func openRegistry(cmd *cobra.Command, cfg *config.Config, log *logging.Logger) (*registry.Registry, func(), error) {
	backend, err := settings.Open(cmd.Context(), cfg)
	if err != nil {
		return nil, nil, fmt.Errorf("opening %s storage: %w", cfg.Storage.Backend, err)
	}

	ns := settings.NewNamespace(backend, cfg.Storage.Namespace)
	ns.SetLogger(log)

	closeFn := func() {
		if closeErr := backend.Close(); closeErr != nil {
			log.Error("error closing storage", "error", closeErr)
		}
	}
	return registry.New(ns, log), closeFn, nil
}

// toolLogger returns the stderr logger used by one-shot commands.
func toolLogger(cmd *cobra.Command, cfg *config.Config) *logging.Logger {
	return logging.NewConsole(cfg.Logging, version, cmd.ErrOrStderr())
}
