package db

import (
	"context"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/cmp"
)

// User is a record of "users" table.
type User struct {
	Id             int
	UserName       string
	Email          string
	FullName       string
	HashedPassword string
	IsActive       bool
	IsSuperuser    bool

	CreatedAt time.Time
	UpdatedAt time.Time

	// timestamp of the last successful login. nil = never logged in.
	LastLogin *time.Time

	// count of failed logins since the last successful one.
	FailedLoginAttempts int

	// the account rejects logins until this timestamp. nil = not locked.
	LockedUntil *time.Time
}

func (u User) Equal(o User) bool {
	return u.Id == o.Id &&
		u.UserName == o.UserName &&
		u.Email == o.Email &&
		u.FullName == o.FullName &&
		u.HashedPassword == o.HashedPassword &&
		u.IsActive == o.IsActive &&
		u.IsSuperuser == o.IsSuperuser &&
		u.CreatedAt.Equal(o.CreatedAt) &&
		u.UpdatedAt.Equal(o.UpdatedAt) &&
		cmp.PEqualWith(u.LastLogin, o.LastLogin, func(a, b time.Time) bool { return a.Equal(b) }) &&
		u.FailedLoginAttempts == o.FailedLoginAttempts &&
		cmp.PEqualWith(u.LockedUntil, o.LockedUntil, func(a, b time.Time) bool { return a.Equal(b) })
}

// IsLocked tests the account lock against now.
func (u User) IsLocked(now time.Time) bool {
	return u.LockedUntil != nil && now.Before(*u.LockedUntil)
}

// UserSpec is a request to create a new user.
type UserSpec struct {
	UserName       string
	Email          string
	FullName       string
	HashedPassword string
	IsSuperuser    bool
}

// UserDelta is a partial update for a user. nil fields stay as they are.
type UserDelta struct {
	UserName *string
	Email    *string
	FullName *string
	IsActive *bool
}

func (d UserDelta) Empty() bool {
	return d.UserName == nil && d.Email == nil && d.FullName == nil && d.IsActive == nil
}

type UserFindQuery struct {
	// records to be skipped from the head.
	Skip int

	// max records in a page.
	Limit int

	// drop deactivated users when true.
	ActiveOnly bool
}

type UserInterface interface {
	// Register creates a new user.
	//
	// args:
	//     - ctx: context
	//     - UserSpec: the user to be created
	//
	// returns:
	//     - User: the created record
	//     - error: ErrConflict when username or email is taken
	Register(context.Context, UserSpec) (User, error)

	// Get retrieves a user identified by id.
	//
	// returns ErrMissing when no such user.
	Get(context.Context, int) (User, error)

	// GetByName retrieves a user by username or email.
	//
	// returns ErrMissing when no such user,
	// ErrTooMuch when the name matches more than one.
	GetByName(context.Context, string) (User, error)

	// Find lists users, ordered by id.
	Find(context.Context, UserFindQuery) ([]User, error)

	// Count counts users matched with the query, ignoring Skip and Limit.
	Count(context.Context, UserFindQuery) (int, error)

	// Update patches a user with the delta.
	//
	// returns:
	//     - User: the record after update
	//     - error: ErrMissing when no such user,
	//       ErrConflict when new username or email is taken
	Update(ctx context.Context, id int, delta UserDelta) (User, error)

	// Delete removes a user. returns ErrMissing when no such user.
	Delete(context.Context, int) error

	// SetActive activates (true) or deactivates (false) a user.
	//
	// returns the record after update, or ErrMissing.
	SetActive(ctx context.Context, id int, active bool) (User, error)

	// SetPassword stores a new password hash for a user.
	//
	// returns ErrMissing when no such user.
	SetPassword(ctx context.Context, id int, hashedPassword string) error

	// DidLogin records a successful login at the timestamp:
	// clears the failure counter and the lock, and sets last_login.
	DidLogin(ctx context.Context, id int, at time.Time) error

	// DidFailLogin records a failed login: increments the failure counter,
	// and, when it reaches lockAfter, locks the account for lockFor.
	//
	// returns:
	//     - bool: true when this failure locked the account
	//     - error
	DidFailLogin(ctx context.Context, id int, at time.Time, lockAfter int, lockFor time.Duration) (bool, error)
}
