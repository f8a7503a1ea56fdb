package auth

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// AuthClient is a client for interacting with the auth_service
type AuthClient struct {
	client *resty.Client
	logger *zap.Logger
}

// NewAuthClient creates a new auth client
func NewAuthClient(authServiceURL string, apiKey string, logger *zap.Logger) *AuthClient {
	client := resty.New().
		SetBaseURL(strings.TrimSuffix(authServiceURL, "/")).
		SetTimeout(10*time.Second).
		SetHeader("Content-Type", "application/json").
		SetHeader("X-API-Key", apiKey)

	return &AuthClient{client: client, logger: logger}
}

// GetBrokerCredentials fetches broker credentials from the auth_service
func (ac *AuthClient) GetBrokerCredentials(ctx context.Context, broker string) (*AuthCredentials, error) {
	var credentials AuthCredentials
	// service=true marks a service-to-service call
	resp, err := ac.client.R().
		SetContext(ctx).
		SetPathParam("broker", broker).
		SetQueryParam("service", "true").
		SetResult(&credentials).
		Get("/auth/{broker}/credentials")
	if err != nil {
		return nil, fmt.Errorf("failed to connect to auth service: %w", err)
	}
	if resp.IsError() {
		return nil, fmt.Errorf("auth service returned error status %d: %s", resp.StatusCode(), strings.TrimSpace(resp.String()))
	}

	ac.logger.Debug("auth service responded",
		zap.String("broker", broker),
		zap.Bool("active", credentials.IsActive),
		zap.Bool("session_token_present", credentials.SessionToken != ""))

	if credentials.ApiKey == "" || credentials.ApiSecret == "" {
		return nil, fmt.Errorf("received incomplete credentials from auth service")
	}
	if credentials.SessionToken == "" {
		return nil, fmt.Errorf("received credentials without session token from auth service")
	}
	if !credentials.IsActive {
		return nil, fmt.Errorf("received inactive credentials from auth service")
	}

	return &credentials, nil
}
