package auth

import (
	"context"
	"fmt"

	kiteconnect "github.com/zerodha/gokiteconnect/v4"
	"go.uber.org/zap"

	"github.com/sabarim/gapfeed/internal/config"
)

// AuthManager handles authentication with the broker API
type AuthManager struct {
	config     config.AuthConfig
	authClient *AuthClient
	logger     *zap.Logger
}

// NewAuthManager creates a new authentication manager
func NewAuthManager(cfg config.AuthConfig, logger *zap.Logger) *AuthManager {
	var authClient *AuthClient
	if cfg.AuthServiceURL != "" {
		authClient = NewAuthClient(cfg.AuthServiceURL, cfg.AuthServiceAPIKey, logger)
	}
	return &AuthManager{
		config:     cfg,
		authClient: authClient,
		logger:     logger,
	}
}

// Login resolves broker credentials. The auth service is tried first when
// configured; direct credentials from the configuration are the fallback.
func (am *AuthManager) Login(ctx context.Context) (AuthCredentialsResult, error) {
	if am.authClient != nil && am.config.BrokerName != "" {
		credentials, err := am.authClient.GetBrokerCredentials(ctx, am.config.BrokerName)
		if err == nil {
			am.logger.Info("authenticated via auth service", zap.String("broker", am.config.BrokerName))
			return AuthCredentialsResult{
				ApiKey:       credentials.ApiKey,
				SessionToken: credentials.SessionToken,
				Source:       "auth_service",
			}, nil
		}
		if ctx.Err() != nil {
			return AuthCredentialsResult{}, ctx.Err()
		}
		am.logger.Warn("auth service failed, falling back to direct credentials", zap.Error(err))
	}

	if am.config.ApiKey != "" && am.config.SessionToken != "" {
		return AuthCredentialsResult{
			ApiKey:       am.config.ApiKey,
			SessionToken: am.config.SessionToken,
			Source:       "config",
		}, nil
	}

	return AuthCredentialsResult{}, ErrNoCredentials
}

// GetClient logs in and returns an authenticated KiteConnect client
func (am *AuthManager) GetClient(ctx context.Context) (*kiteconnect.Client, error) {
	creds, err := am.Login(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to login before getting client: %w", err)
	}

	kite := kiteconnect.New(creds.ApiKey)
	kite.SetAccessToken(creds.SessionToken)
	am.logger.Debug("kite client ready", zap.String("source", creds.Source))
	return kite, nil
}
