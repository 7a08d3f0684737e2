package db

import (
	"context"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/cmp"
)

// LoginRecord is a record of "login_history" table.
//
// UserId is nil when the attempted username matched no account.
type LoginRecord struct {
	Id         int
	UserId     *int
	UserName   string
	Success    bool
	Reason     string
	RemoteAddr string
	UserAgent  string
	CreatedAt  time.Time
}

func (l LoginRecord) Equal(o LoginRecord) bool {
	return l.Id == o.Id &&
		cmp.PEqEq(l.UserId, o.UserId) &&
		l.UserName == o.UserName &&
		l.Success == o.Success &&
		l.Reason == o.Reason &&
		l.RemoteAddr == o.RemoteAddr &&
		l.UserAgent == o.UserAgent &&
		l.CreatedAt.Equal(o.CreatedAt)
}

type LoginInterface interface {
	// Record appends a login attempt to the history. Id is assigned by the database.
	Record(context.Context, LoginRecord) error

	// CountRecentFailures counts failed attempts for the username since the timestamp.
	//
	// The count keys on the attempted username, so attempts against
	// accounts that do not exist are counted too.
	CountRecentFailures(ctx context.Context, username string, since time.Time) (int, error)

	// FindByUser lists the login history of the user, newest first.
	FindByUser(ctx context.Context, userId int, skip int, limit int) ([]LoginRecord, error)
}
