package server

import (
	"time"
)

type ServerConfig struct {
	port  string
	dbURI string
	model *ModelConfig
	auth  *AuthConfig
}

// Port to listen on, as it appears in "host:port".
func (c *ServerConfig) Port() string {
	return c.port
}

// Connection string for database.
func (c *ServerConfig) DBURI() string {
	return c.dbURI
}

// Configuration for the classifier artifact.
func (c *ServerConfig) Model() *ModelConfig {
	return c.model
}

// Configuration for token issuing and login protection.
func (c *ServerConfig) Auth() *AuthConfig {
	return c.auth
}

type ModelConfig struct {
	path string
}

// Filepath of the model artifact to be loaded on boot.
func (m *ModelConfig) Path() string {
	return m.path
}

// Configuration for tokens, login throttling and password resets.
//
// to get `AuthConfig` instance, use `ServerConfigMarshall.TrySeal()` .
type AuthConfig struct {
	secretKey           string
	accessTokenExpiry   time.Duration
	refreshTokenExpiry  time.Duration
	passwordResetExpiry time.Duration
	maxLoginFailures    int
	throttleWindow      time.Duration
	lockDuration        time.Duration
}

// Key to sign tokens with. Keep it secret.
func (a *AuthConfig) SecretKey() []byte {
	return []byte(a.secretKey)
}

// Lifetime of access tokens. default = 15m
func (a *AuthConfig) AccessTokenExpiry() time.Duration {
	return a.accessTokenExpiry
}

// Lifetime of refresh tokens. default = 168h
func (a *AuthConfig) RefreshTokenExpiry() time.Duration {
	return a.refreshTokenExpiry
}

// Lifetime of password reset tokens. default = 1h
func (a *AuthConfig) PasswordResetExpiry() time.Duration {
	return a.passwordResetExpiry
}

// How many failed logins are tolerated per window before 429. default = 5
func (a *AuthConfig) MaxLoginFailures() int {
	return a.maxLoginFailures
}

// Length of the sliding window counting failed logins. default = 15m
func (a *AuthConfig) ThrottleWindow() time.Duration {
	return a.throttleWindow
}

// How long an account stays locked after lockout. default = 30m
func (a *AuthConfig) LockDuration() time.Duration {
	return a.lockDuration
}
