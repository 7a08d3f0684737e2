package db

import (
	"context"
	"time"
)

// RefreshToken is a record of "refresh_tokens" table.
//
// A refresh token is usable iff it is not revoked and not expired.
type RefreshToken struct {
	// Jti is the token identifier claim of the JWT.
	Jti      string
	UserId   int
	IssuedAt time.Time
	// ExpiresAt is the expiry copied from the JWT.
	ExpiresAt time.Time
	Revoked   bool
}

func (r RefreshToken) Equal(o RefreshToken) bool {
	return r.Jti == o.Jti &&
		r.UserId == o.UserId &&
		r.IssuedAt.Equal(o.IssuedAt) &&
		r.ExpiresAt.Equal(o.ExpiresAt) &&
		r.Revoked == o.Revoked
}

type TokenInterface interface {
	// AddRefresh persists a refresh token just issued.
	AddRefresh(context.Context, RefreshToken) error

	// GetRefresh retrieves a refresh token by jti.
	//
	// returns ErrMissing when no such token.
	GetRefresh(ctx context.Context, jti string) (RefreshToken, error)

	// RevokeRefresh marks a refresh token as revoked. No error for unknown jti.
	RevokeRefresh(ctx context.Context, jti string) error

	// RevokeRefreshByUser revokes all refresh tokens of the user.
	RevokeRefreshByUser(ctx context.Context, userId int) error

	// Blacklist registers a jti so that the access token carrying it
	// is rejected until it would have expired anyway.
	//
	// Blacklisting the same jti twice is not an error.
	Blacklist(ctx context.Context, jti string, expiresAt time.Time) error

	// IsBlacklisted tests whether the jti has been blacklisted.
	IsBlacklisted(ctx context.Context, jti string) (bool, error)

	// PurgeBlacklist removes blacklist entries whose token expired before now.
	//
	// returns the number of removed records.
	PurgeBlacklist(ctx context.Context, now time.Time) (int64, error)
}
