package cli

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/vvka-141/intake/internal/logging"
	"github.com/vvka-141/intake/pkg/intake"
)

// pingTimeout bounds the whole ping including connect retries.
const pingTimeout = 30 * time.Second

var pingCmd = &cobra.Command{
	Use:   "ping",
	Short: "Check that the configured database is reachable",
	Long: `Connect with the resolved configuration and ping the database.

Exits 0 when the database answers, 10 when the configuration is invalid,
and 11 when the connection fails.`,
	Args: cobra.NoArgs,
	RunE: runPing,
}

func init() {
	rootCmd.AddCommand(pingCmd)
}

func runPing(cmd *cobra.Command, args []string) error {
	cfg, err := resolveServiceConfig(cmd)
	if err != nil {
		return err
	}
	connConfig, err := cfg.ConnectionConfig()
	if err != nil {
		return err
	}
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	ctx, cancel := context.WithTimeout(cmd.Context(), pingTimeout)
	defer cancel()

	start := time.Now()
	conn, cleanup, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	if err := conn.Ping(ctx); err != nil {
		return fmt.Errorf("%w: ping %s: %w", intake.ErrConnectionFailed, describeTarget(connConfig), err)
	}

	fmt.Fprintf(cmd.OutOrStdout(), "Database %s is reachable (%v)\n", describeTarget(connConfig), time.Since(start).Round(time.Millisecond))
	return nil
}
