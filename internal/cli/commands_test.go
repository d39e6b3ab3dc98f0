package cli

import (
	"bytes"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vvka-141/intake/internal/testinfra"
	"github.com/vvka-141/intake/pkg/intake"
)

var configEnvKeys = []string{
	"DATABASE_URL", "DB_HOST", "DB_PORT", "DB_USER", "DB_PASSWORD", "DB_NAME",
	"DB_SSLMODE", "DB_POOL_SIZE", "DB_AUTH_METHOD", "PORT", "ALLOWED_ORIGINS",
	"WRITE_TIMEOUT", "RETRY_POLICY", "RETRY_MAX", "RETRY_INITIAL_DELAY",
}

// isolate runs the test in an empty directory with no config variables set
// and every flag back at its default.
func isolate(t *testing.T) {
	t.Helper()
	t.Chdir(t.TempDir())
	for _, key := range configEnvKeys {
		t.Setenv(key, "")
		os.Unsetenv(key)
	}
	resetFlags(rootCmd)
	for _, c := range rootCmd.Commands() {
		resetFlags(c)
	}
}

func resetFlags(cmd *cobra.Command) {
	reset := func(f *pflag.Flag) {
		if sv, ok := f.Value.(pflag.SliceValue); ok {
			_ = sv.Replace(nil)
		} else {
			_ = f.Value.Set(f.DefValue)
		}
		f.Changed = false
	}
	cmd.Flags().VisitAll(reset)
	cmd.PersistentFlags().VisitAll(reset)
}

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&bytes.Buffer{})
	rootCmd.SetArgs(args)
	t.Cleanup(func() {
		rootCmd.SetOut(nil)
		rootCmd.SetErr(nil)
		rootCmd.SetArgs(nil)
	})
	err := rootCmd.Execute()
	return out.String(), err
}

func TestVersionCmd(t *testing.T) {
	isolate(t)

	out, err := execute(t, "version")

	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(out, "intake "), out)
}

func TestVersionCmd_RejectsArgs(t *testing.T) {
	isolate(t)

	_, err := execute(t, "version", "extra")

	require.Error(t, err)
	assert.Equal(t, intake.ExitUsageError, intake.ExitCodeForError(err))
}

func TestUnknownFlag_IsUsageError(t *testing.T) {
	isolate(t)

	_, err := execute(t, "serve", "--no-such-flag")

	require.Error(t, err)
	assert.Equal(t, intake.ExitUsageError, intake.ExitCodeForError(err))
}

func TestPing_MissingDatabaseName(t *testing.T) {
	isolate(t)

	_, err := execute(t, "ping")

	require.Error(t, err)
	assert.Equal(t, intake.ExitConfigError, intake.ExitCodeForError(err))
}

func TestPing_MissingConfigFile(t *testing.T) {
	isolate(t)

	_, err := execute(t, "ping", "--config", "does-not-exist.yaml")

	require.Error(t, err)
	assert.Equal(t, intake.ExitConfigError, intake.ExitCodeForError(err))
}

func TestPing_UnreachableDatabase(t *testing.T) {
	isolate(t)
	t.Setenv("DB_HOST", "127.0.0.1")
	t.Setenv("DB_PORT", "1")
	t.Setenv("DB_NAME", "forms")
	t.Setenv("DB_USER", "intake")
	t.Setenv("DB_SSLMODE", "disable")

	_, err := execute(t, "ping")

	require.Error(t, err)
	assert.Equal(t, intake.ExitConnectionError, intake.ExitCodeForError(err))
}

func TestServe_InvalidRetryPolicy(t *testing.T) {
	isolate(t)
	t.Setenv("DB_NAME", "forms")
	t.Setenv("RETRY_POLICY", "always")

	_, err := execute(t, "serve")

	require.Error(t, err)
	assert.Equal(t, intake.ExitConfigError, intake.ExitCodeForError(err))
}

func TestResolveServiceConfig_Precedence(t *testing.T) {
	isolate(t)

	require.NoError(t, os.WriteFile("intake.yaml", []byte("server:\n  port: 4000\n  write_timeout: 10s\ndatabase:\n  host: yamlhost\n"), 0644))
	require.NoError(t, os.WriteFile(".env", []byte("DB_HOST=envfilehost\nPORT=5000\n"), 0644))
	t.Cleanup(func() {
		os.Unsetenv("DB_HOST")
		os.Unsetenv("PORT")
	})
	t.Setenv("WRITE_TIMEOUT", "15s")

	require.NoError(t, serveCmd.ParseFlags([]string{"--port", "6000"}))
	serveCmd.SetContext(t.Context())
	cfg, err := resolveServiceConfig(serveCmd)
	require.NoError(t, err)

	assert.Equal(t, 6000, cfg.Server.Port, "flag beats env")
	assert.Equal(t, "envfilehost", cfg.Database.Host, ".env beats yaml")
	assert.Equal(t, "15s", cfg.Server.WriteTimeout.String(), "env beats yaml")
}

func TestResolveServiceConfig_ExplicitEnvFile(t *testing.T) {
	isolate(t)

	envFile := filepath.Join(t.TempDir(), "service.env")
	require.NoError(t, os.WriteFile(envFile, []byte("RETRY_MAX=1\n"), 0644))
	t.Cleanup(func() { os.Unsetenv("RETRY_MAX") })

	require.NoError(t, serveCmd.ParseFlags([]string{"--env-file", envFile}))
	cfg, err := resolveServiceConfig(serveCmd)
	require.NoError(t, err)

	assert.Equal(t, 1, cfg.Retry.MaxRetries)
}

func TestPing_Integration(t *testing.T) {
	connString := testinfra.RequireDatabase(t)
	isolate(t)
	t.Setenv("DATABASE_URL", connString)

	out, err := execute(t, "ping")

	require.NoError(t, err)
	assert.Contains(t, out, "is reachable")
}
