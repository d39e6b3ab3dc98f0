package cli

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/vvka-141/intake/internal/config"
	"github.com/vvka-141/intake/pkg/intake"
)

// resolveServiceConfig layers defaults, intake.yaml, .env files, the
// environment, and finally any flags the user set on cmd.
func resolveServiceConfig(cmd *cobra.Command) (*config.ServiceConfig, error) {
	envFiles, _ := cmd.Flags().GetStringSlice("env-file")
	if err := config.LoadEnvFiles(envFiles...); err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrInvalidConfig, err)
	}

	cfg, err := loadConfigFile(cmd)
	if err != nil {
		return nil, err
	}

	if err := cfg.ApplyEnv(os.LookupEnv); err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("port") {
		port, err := cmd.Flags().GetInt("port")
		if err != nil {
			return nil, fmt.Errorf("%w: %w", intake.ErrInvalidConfig, err)
		}
		cfg.Server.Port = port
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// loadConfigFile reads --config when given (it must exist), otherwise
// ./intake.yaml if present, otherwise the defaults.
func loadConfigFile(cmd *cobra.Command) (*config.ServiceConfig, error) {
	path, _ := cmd.Flags().GetString("config")
	if path != "" {
		cfg, err := config.LoadFile(path)
		if errors.Is(err, config.ErrConfigNotFound) {
			return nil, fmt.Errorf("config file %s: %w: %w", path, intake.ErrInvalidConfig, err)
		}
		return cfg, err
	}

	cfg, err := config.Load(".")
	if errors.Is(err, config.ErrConfigNotFound) {
		return config.Default(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load %s: %w", config.ConfigFileName, err)
	}
	return cfg, nil
}
