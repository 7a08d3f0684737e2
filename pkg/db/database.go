package db

import "context"

type Database interface {
	Users() UserInterface
	Tokens() TokenInterface
	Resets() ResetInterface
	Logins() LoginInterface
	Predictions() PredictionInterface
	Schema() SchemaInterface

	// Ping tests that the database accepts connections.
	Ping(ctx context.Context) error

	Close() error
}
