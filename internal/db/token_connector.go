package db

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/vvka-141/intake/internal/logging"
	"github.com/vvka-141/intake/internal/retry"
	"github.com/vvka-141/intake/pkg/intake"
)

// tokenExpiryWarning is how close to expiry a fresh token must be before we warn.
const tokenExpiryWarning = 5 * time.Minute

// TokenBasedConnector implements the Connector interface for cloud providers
// that authenticate via short-lived tokens (AWS IAM, Azure Entra ID).
// The token is acquired from a TokenProvider and used as the PostgreSQL password.
type TokenBasedConnector struct {
	config        *intake.ConnectionConfig
	tokenProvider TokenProvider
	retryExecutor *retry.Executor
	providerName  string
	logger        intake.Logger
}

// NewTokenBasedConnector creates a connector that uses a TokenProvider for authentication.
// providerName is used in error/warning messages (e.g., "AWS IAM", "Azure").
func NewTokenBasedConnector(config *intake.ConnectionConfig, tokenProvider TokenProvider, providerName string, logger intake.Logger) *TokenBasedConnector {
	if logger == nil {
		logger = logging.NewNullLogger()
	}
	return &TokenBasedConnector{
		config:        config,
		tokenProvider: tokenProvider,
		retryExecutor: newConnectExecutor(logger, tokenProvider.String()),
		providerName:  providerName,
		logger:        logger,
	}
}

// Connect acquires a fresh token on every attempt and opens the pool with it.
//
// Pooled connections opened later (after a reset, or past MaxConnIdleTime)
// fetch their own token through BeforeConnect, so the pool outlives the
// first token's lifetime.
func (c *TokenBasedConnector) Connect(ctx context.Context) (*pgxpool.Pool, error) {
	var pool *pgxpool.Pool

	err := c.retryExecutor.Execute(ctx, func(ctx context.Context) error {
		token, expiresOn, err := c.tokenProvider.GetToken(ctx)
		if err != nil {
			return fmt.Errorf("failed to acquire %s token: %w", c.providerName, err)
		}
		if remaining := time.Until(expiresOn); remaining < tokenExpiryWarning {
			c.logger.Info("Warning: %s token expires in %v", c.providerName, remaining.Round(time.Second))
		}

		configWithToken := *c.config
		configWithToken.Password = token

		poolConfig, err := pgxpool.ParseConfig(BuildConnectionString(&configWithToken))
		if err != nil {
			return fmt.Errorf("failed to parse connection config: %w", err)
		}

		configurePool(poolConfig, c.config.PoolSize)
		poolConfig.BeforeConnect = c.refreshPassword

		pool, err = openPool(ctx, poolConfig)
		if err != nil {
			return wrapConnectionError(err, c.config.Host, c.config.Port, c.config.Database)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %w", intake.ErrConnectionFailed, err)
	}

	return pool, nil
}

func (c *TokenBasedConnector) refreshPassword(ctx context.Context, connConfig *pgx.ConnConfig) error {
	token, _, err := c.tokenProvider.GetToken(ctx)
	if err != nil {
		return fmt.Errorf("failed to refresh %s token: %w", c.providerName, err)
	}
	connConfig.Password = token
	return nil
}
