package auth

import "errors"

// AuthCredentials represents the credentials received from auth_service
type AuthCredentials struct {
	ID           int    `json:"id"`
	Broker       string `json:"broker"`
	ApiKey       string `json:"api_key"`
	ApiSecret    string `json:"api_secret"`
	SessionToken string `json:"session_token"`
	IsActive     bool   `json:"is_active"`
	AccountID    string `json:"account_id"`
	CreatedAt    string `json:"created_at"`
	UpdatedAt    string `json:"updated_at"`
}

// AuthCredentialsResult holds the result of a login attempt
type AuthCredentialsResult struct {
	ApiKey       string
	SessionToken string
	// Source is "auth_service" or "config"
	Source string
}

// ErrNoCredentials is returned when neither the auth service nor the
// configuration yields a usable API key and session token
var ErrNoCredentials = errors.New("no valid broker credentials available; set api_key and session_token or configure auth_service")
