package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/vvka-141/intake/internal/config"
	"github.com/vvka-141/intake/internal/db"
	"github.com/vvka-141/intake/pkg/intake"
)

// openDatabase connects with the configured auth method and pings the pool.
// The returned cleanup closes the pool and any connector resources.
func openDatabase(ctx context.Context, cfg *config.ServiceConfig, logger intake.Logger) (*db.PoolAdapter, func(), error) {
	connConfig, err := cfg.ConnectionConfig()
	if err != nil {
		return nil, nil, err
	}
	logConnectionVerbose(logger, connConfig)

	connector, err := db.NewConnector(connConfig, logger)
	if err != nil {
		return nil, nil, err
	}

	pool, err := connector.Connect(ctx)
	if err != nil {
		closeConnector(connector)
		return nil, nil, err
	}

	adapter := db.NewPoolAdapter(pool)
	cleanup := func() {
		adapter.Close()
		closeConnector(connector)
	}
	return adapter, cleanup, nil
}

func closeConnector(connector intake.Connector) {
	if closer, ok := connector.(io.Closer); ok {
		_ = closer.Close()
	}
}

// logConnectionVerbose logs connection details when verbose mode is enabled.
func logConnectionVerbose(logger intake.Logger, connConfig *intake.ConnectionConfig) {
	logger.Verbose("Connection resolved:")
	logger.Verbose("  Host: %s", connConfig.Host)
	logger.Verbose("  Port: %d", connConfig.Port)
	logger.Verbose("  User: %s", connConfig.Username)
	logger.Verbose("  Database: %s", connConfig.Database)
	logger.Verbose("  SSL Mode: %s", connConfig.SSLMode)
	logger.Verbose("  Pool Size: %d", connConfig.PoolSize)
	logger.Verbose("  Auth Method: %s", connConfig.AuthMethod)
}

func describeTarget(c *intake.ConnectionConfig) string {
	if c.AuthMethod == intake.AuthMethodGoogleIAM {
		return fmt.Sprintf("%s/%s", c.GoogleInstance, c.Database)
	}
	return fmt.Sprintf("%s:%d/%s", c.Host, c.Port, c.Database)
}
