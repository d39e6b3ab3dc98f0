// Package config resolves the service configuration. Sources are layered,
// each overriding the previous: built-in defaults, the intake.yaml file,
// the process environment (optionally seeded from .env files), and finally
// command-line flags applied by the caller.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"

	"github.com/vvka-141/intake/internal/db"
	"github.com/vvka-141/intake/pkg/intake"
)

// ErrConfigNotFound is returned when the config file does not exist.
// Callers can check for this with errors.Is(err, config.ErrConfigNotFound).
var ErrConfigNotFound = errors.New("config file not found")

const ConfigFileName = "intake.yaml"

type DatabaseConfig struct {
	URL               string `yaml:"url,omitempty"`
	Host              string `yaml:"host"`
	Port              int    `yaml:"port"`
	Username          string `yaml:"username"`
	Password          string `yaml:"password,omitempty"`
	Database          string `yaml:"database"`
	SSLMode           string `yaml:"sslmode"`
	PoolSize          int    `yaml:"pool_size"`
	AuthMethod        string `yaml:"auth_method,omitempty"`
	AWSRegion         string `yaml:"aws_region,omitempty"`
	AzureTenantID     string `yaml:"azure_tenant_id,omitempty"`
	AzureClientID     string `yaml:"azure_client_id,omitempty"`
	AzureClientSecret string `yaml:"azure_client_secret,omitempty"`
	GoogleInstance    string `yaml:"google_instance,omitempty"`
}

type ServerConfig struct {
	Port           int           `yaml:"port"`
	AllowedOrigins []string      `yaml:"allowed_origins"`
	WriteTimeout   time.Duration `yaml:"write_timeout"`
}

type RetryConfig struct {
	Policy       string        `yaml:"policy"`
	MaxRetries   int           `yaml:"max_retries"`
	InitialDelay time.Duration `yaml:"initial_delay"`
}

// ServiceConfig is the complete runtime configuration.
type ServiceConfig struct {
	Database DatabaseConfig `yaml:"database"`
	Server   ServerConfig   `yaml:"server"`
	Retry    RetryConfig    `yaml:"retry"`
}

// Default returns the configuration used when nothing else is set.
func Default() *ServiceConfig {
	return &ServiceConfig{
		Database: DatabaseConfig{
			Host:     "localhost",
			Port:     intake.DefaultDatabasePort,
			SSLMode:  intake.DefaultSSLMode,
			PoolSize: intake.DefaultPoolSize,
		},
		Server: ServerConfig{
			Port:           intake.DefaultPort,
			AllowedOrigins: []string{intake.DefaultAllowedOrigin},
			WriteTimeout:   intake.DefaultWriteTimeout,
		},
		Retry: RetryConfig{
			Policy:       intake.RetryPolicyConnReset,
			MaxRetries:   intake.DefaultMaxRetries,
			InitialDelay: intake.DefaultWriteInitialDelay,
		},
	}
}

// Load reads intake.yaml from dir on top of the defaults.
func Load(dir string) (*ServiceConfig, error) {
	return LoadFile(filepath.Join(dir, ConfigFileName))
}

// LoadFile reads the YAML file at path on top of the defaults.
// Keys absent from the file keep their default values.
func LoadFile(path string) (*ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, ErrConfigNotFound
		}
		return nil, err
	}

	cfg := Default()
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("failed to parse %s: %w: %w", path, intake.ErrInvalidConfig, err)
	}
	return cfg, nil
}

// LoadEnvFiles loads .env files into the process environment without
// overriding variables that are already set. With no arguments it loads
// ./.env if present.
func LoadEnvFiles(files ...string) error {
	if len(files) == 0 {
		if _, err := os.Stat(".env"); err != nil {
			return nil
		}
		files = []string{".env"}
	}
	if err := godotenv.Load(files...); err != nil {
		return fmt.Errorf("failed to load env file: %w", err)
	}
	return nil
}

// ApplyEnv overrides fields from environment variables found by lookup.
// Pass os.LookupEnv for the process environment.
func (c *ServiceConfig) ApplyEnv(lookup func(string) (string, bool)) error {
	var errs []error

	str := func(key string, dst *string) {
		if v, ok := lookup(key); ok && v != "" {
			*dst = v
		}
	}
	num := func(key string, dst *int) {
		if v, ok := lookup(key); ok && v != "" {
			n, err := strconv.Atoi(strings.TrimSpace(v))
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q is not a number: %w", key, v, intake.ErrInvalidConfig))
				return
			}
			*dst = n
		}
	}
	dur := func(key string, dst *time.Duration) {
		if v, ok := lookup(key); ok && v != "" {
			d, err := parseDuration(v)
			if err != nil {
				errs = append(errs, fmt.Errorf("%s=%q: %w", key, v, err))
				return
			}
			*dst = d
		}
	}

	str("DATABASE_URL", &c.Database.URL)
	str("DB_HOST", &c.Database.Host)
	num("DB_PORT", &c.Database.Port)
	str("DB_USER", &c.Database.Username)
	str("DB_PASSWORD", &c.Database.Password)
	str("DB_NAME", &c.Database.Database)
	str("DB_SSLMODE", &c.Database.SSLMode)
	num("DB_POOL_SIZE", &c.Database.PoolSize)
	str("DB_AUTH_METHOD", &c.Database.AuthMethod)
	str("AWS_REGION", &c.Database.AWSRegion)
	str("AZURE_TENANT_ID", &c.Database.AzureTenantID)
	str("AZURE_CLIENT_ID", &c.Database.AzureClientID)
	str("AZURE_CLIENT_SECRET", &c.Database.AzureClientSecret)
	str("GOOGLE_INSTANCE", &c.Database.GoogleInstance)

	num("PORT", &c.Server.Port)
	if v, ok := lookup("ALLOWED_ORIGINS"); ok && v != "" {
		c.Server.AllowedOrigins = SplitOrigins(v)
	}
	dur("WRITE_TIMEOUT", &c.Server.WriteTimeout)

	str("RETRY_POLICY", &c.Retry.Policy)
	num("RETRY_MAX", &c.Retry.MaxRetries)
	dur("RETRY_INITIAL_DELAY", &c.Retry.InitialDelay)

	return errors.Join(errs...)
}

// SplitOrigins parses a comma-separated origin list, dropping blanks.
func SplitOrigins(s string) []string {
	var origins []string
	for _, o := range strings.Split(s, ",") {
		if o = strings.TrimSpace(o); o != "" {
			origins = append(origins, strings.TrimSuffix(o, "/"))
		}
	}
	return origins
}

// parseDuration accepts Go durations ("30s") and bare seconds ("30").
func parseDuration(v string) (time.Duration, error) {
	v = strings.TrimSpace(v)
	if secs, err := strconv.Atoi(v); err == nil {
		return time.Duration(secs) * time.Second, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		return 0, fmt.Errorf("invalid duration: %w", intake.ErrInvalidConfig)
	}
	return d, nil
}

// Validate checks the service-level settings. Database fields are checked by
// ConnectionConfig. It returns a multi-error if multiple validation failures occur.
func (c *ServiceConfig) Validate() error {
	var errs []error

	if c.Server.Port < 0 || c.Server.Port > 65535 {
		errs = append(errs, fmt.Errorf("port %d out of range: %w", c.Server.Port, intake.ErrInvalidConfig))
	}
	if len(c.Server.AllowedOrigins) == 0 {
		errs = append(errs, fmt.Errorf("at least one allowed origin is required: %w", intake.ErrInvalidConfig))
	}
	if c.Server.WriteTimeout <= 0 {
		errs = append(errs, fmt.Errorf("write timeout must be positive: %w", intake.ErrInvalidConfig))
	}
	switch c.Retry.Policy {
	case "", intake.RetryPolicyConnReset, intake.RetryPolicyTransient:
	default:
		errs = append(errs, fmt.Errorf("unknown retry policy %q (want %s or %s): %w",
			c.Retry.Policy, intake.RetryPolicyConnReset, intake.RetryPolicyTransient, intake.ErrInvalidConfig))
	}
	if c.Retry.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("max retries cannot be negative: %w", intake.ErrInvalidConfig))
	}
	if c.Retry.InitialDelay < 0 {
		errs = append(errs, fmt.Errorf("retry initial delay cannot be negative: %w", intake.ErrInvalidConfig))
	}

	return errors.Join(errs...)
}

// ConnectionConfig resolves the database settings into a validated
// intake.ConnectionConfig. A database URL, when set, takes precedence over
// the individual connection fields.
func (c *ServiceConfig) ConnectionConfig() (*intake.ConnectionConfig, error) {
	d := c.Database

	authMethod, err := intake.ParseAuthMethod(d.AuthMethod)
	if err != nil {
		return nil, err
	}

	conn := &intake.ConnectionConfig{
		Host:     d.Host,
		Port:     d.Port,
		Database: d.Database,
		Username: d.Username,
		Password: d.Password,
		SSLMode:  d.SSLMode,
	}
	if d.URL != "" {
		parsed, err := db.ParseConnectionString(d.URL)
		if err != nil {
			return nil, err
		}
		conn = parsed
		if conn.SSLMode == "" {
			conn.SSLMode = d.SSLMode
		}
	}

	conn.AuthMethod = authMethod
	conn.AppName = "intake"
	if conn.PoolSize == 0 {
		conn.PoolSize = d.PoolSize
	}
	conn.AWSRegion = d.AWSRegion
	conn.AzureTenantID = d.AzureTenantID
	conn.AzureClientID = d.AzureClientID
	conn.AzureClientSecret = d.AzureClientSecret
	conn.GoogleInstance = d.GoogleInstance

	if err := conn.Validate(); err != nil {
		return nil, err
	}
	return conn, nil
}

// Addr is the HTTP listen address.
func (c *ServiceConfig) Addr() string {
	return fmt.Sprintf(":%d", c.Server.Port)
}
