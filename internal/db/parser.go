package db

import (
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/vvka-141/intake/pkg/intake"
)

// ParseConnectionString parses a PostgreSQL URI (DATABASE_URL style) into a
// ConnectionConfig.
//
// Format: postgresql://[user[:password]@][host][:port][/dbname][?param1=value1&...]
func ParseConnectionString(connStr string) (*intake.ConnectionConfig, error) {
	if connStr == "" {
		return nil, fmt.Errorf("connection string is empty: %w", intake.ErrInvalidConfig)
	}
	if !strings.HasPrefix(connStr, "postgresql://") && !strings.HasPrefix(connStr, "postgres://") {
		return nil, fmt.Errorf("connection string must start with postgresql:// or postgres://: %w", intake.ErrInvalidConfig)
	}

	u, err := url.Parse(connStr)
	if err != nil {
		return nil, fmt.Errorf("invalid PostgreSQL URI: %w: %w", intake.ErrInvalidConfig, err)
	}

	config := &intake.ConnectionConfig{
		Host:             "localhost",
		Port:             intake.DefaultDatabasePort,
		AuthMethod:       intake.AuthMethodStandard,
		AdditionalParams: make(map[string]string),
	}

	if u.Hostname() != "" {
		config.Host = u.Hostname()
	}
	if u.Port() != "" {
		port, err := strconv.Atoi(u.Port())
		if err != nil {
			return nil, fmt.Errorf("invalid port %q: %w", u.Port(), intake.ErrInvalidConfig)
		}
		config.Port = port
	}

	if u.User != nil {
		config.Username = u.User.Username()
		if pass, ok := u.User.Password(); ok {
			config.Password = pass
		}
	}

	if len(u.Path) > 1 {
		config.Database = strings.TrimPrefix(u.Path, "/")
	}

	for key, values := range u.Query() {
		if len(values) == 0 {
			continue
		}
		value := values[0]

		switch strings.ToLower(key) {
		case "sslmode":
			config.SSLMode = value
		case "application_name":
			config.AppName = value
		case "connect_timeout":
			if timeout, err := strconv.Atoi(value); err == nil {
				config.ConnectTimeout = time.Duration(timeout) * time.Second
			}
		case "pool_max_conns":
			if size, err := strconv.Atoi(value); err == nil {
				config.PoolSize = size
			}
		default:
			config.AdditionalParams[key] = value
		}
	}

	return config, nil
}

// BuildConnectionString converts a ConnectionConfig to a PostgreSQL URI for pgx.
// Pool sizing is applied separately and is not encoded.
func BuildConnectionString(config *intake.ConnectionConfig) string {
	port := config.Port
	if port == 0 {
		port = intake.DefaultDatabasePort
	}

	u := &url.URL{
		Scheme: "postgresql",
		Host:   fmt.Sprintf("%s:%d", config.Host, port),
		Path:   "/" + config.Database,
	}

	if config.Username != "" {
		if config.Password != "" {
			u.User = url.UserPassword(config.Username, config.Password)
		} else {
			u.User = url.User(config.Username)
		}
	}

	query := url.Values{}
	if config.SSLMode != "" {
		query.Set("sslmode", config.SSLMode)
	}
	if config.AppName != "" {
		query.Set("application_name", config.AppName)
	}
	if config.ConnectTimeout > 0 {
		query.Set("connect_timeout", strconv.Itoa(int(config.ConnectTimeout.Seconds())))
	}
	for key, value := range config.AdditionalParams {
		query.Set(key, value)
	}

	u.RawQuery = query.Encode()
	return u.String()
}
