package cli

import (
	"context"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/vvka-141/intake/internal/httpapi"
	"github.com/vvka-141/intake/internal/logging"
	"github.com/vvka-141/intake/internal/metrics"
	"github.com/vvka-141/intake/internal/retry"
	"github.com/vvka-141/intake/internal/services"
	"github.com/vvka-141/intake/pkg/intake"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP intake server",
	Long: `Start the HTTP intake server.

The database is connected and pinged before the listener opens; if it cannot
be reached the command exits with code 11. SIGINT or SIGTERM stops accepting
new requests and waits for in-flight writes to finish.

Routes:
  POST /save-buttons        {"ClientNeed": ...}
  POST /save-goals          {"ClientGoal": ...}
  POST /save-budget         {"ClientBudget": ...}
  POST /save-website-url    {"client_site_url": ...}
  POST /save-personal-info  {"name": ..., "email": ..., "phone": ...}
  GET  /keepalive
  GET  /metrics`,
	Args: cobra.NoArgs,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)
	serveCmd.Flags().IntP("port", "p", intake.DefaultPort, "HTTP listening port (env: PORT)")
}

func runServe(cmd *cobra.Command, args []string) error {
	ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer stop()
	return serve(ctx, cmd)
}

func serve(ctx context.Context, cmd *cobra.Command) error {
	cfg, err := resolveServiceConfig(cmd)
	if err != nil {
		return err
	}
	logger := logging.NewConsoleLogger(getVerboseFlag(cmd))

	executor, err := retry.NewWriteExecutor(cfg.Retry.Policy, cfg.Retry.MaxRetries, cfg.Retry.InitialDelay)
	if err != nil {
		return err
	}

	conn, cleanup, err := openDatabase(ctx, cfg, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	collector := metrics.New()
	recorder := services.NewRecorderService(conn, executor, collector, logger)
	server := httpapi.New(recorder, collector, logger, httpapi.Options{
		Addr:           cfg.Addr(),
		AllowedOrigins: cfg.Server.AllowedOrigins,
		WriteTimeout:   cfg.Server.WriteTimeout,
	})

	logger.Verbose("Retry policy: %s, max retries %d, initial delay %v", cfg.Retry.Policy, cfg.Retry.MaxRetries, cfg.Retry.InitialDelay)
	return server.ListenAndServe(ctx)
}
