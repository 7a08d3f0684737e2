package db

import (
	"context"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/cmp"
)

// PasswordReset is a record of "password_resets" table.
//
// A reset token is valid iff not used and not expired.
type PasswordReset struct {
	Token     string
	UserId    int
	CreatedAt time.Time
	ExpiresAt time.Time
	Used      bool
	UsedAt    *time.Time
}

func (p PasswordReset) Equal(o PasswordReset) bool {
	return p.Token == o.Token &&
		p.UserId == o.UserId &&
		p.CreatedAt.Equal(o.CreatedAt) &&
		p.ExpiresAt.Equal(o.ExpiresAt) &&
		p.Used == o.Used &&
		cmp.PEqualWith(p.UsedAt, o.UsedAt, func(a, b time.Time) bool { return a.Equal(b) })
}

type ResetInterface interface {
	// New persists a password reset token.
	New(context.Context, PasswordReset) error

	// Use marks the token as used, atomically.
	//
	// Only a token which is not used and not expired at the timestamp
	// can be used. Using it again, or using an expired one, is ErrMissing.
	//
	// returns:
	//     - PasswordReset: the record after marking, on success
	//     - error: ErrMissing when no usable token
	Use(ctx context.Context, token string, at time.Time) (PasswordReset, error)

	// Purge removes used tokens and tokens expired before now.
	//
	// returns the number of removed records.
	Purge(ctx context.Context, now time.Time) (int64, error)
}
