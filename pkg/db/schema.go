package db

import "context"

type SchemaInterface interface {
	// Upgrade applies schema versions not applied yet, oldest first.
	Upgrade(ctx context.Context) error

	// Version reads the current schema version. 0 = no schema.
	Version(ctx context.Context) (int, error)

	// Context derives a context which is cancelled when the schema
	// in the database falls behind the schema repository on disk.
	Context(ctx context.Context) (context.Context, context.CancelFunc)
}
