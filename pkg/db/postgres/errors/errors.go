package errors

import (
	"errors"
	"fmt"

	"github.com/jackc/pgconn"
	"github.com/jackc/pgerrcode"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

// requested record is missing.
type Missing struct {
	Table    string
	Identity string
}

var _ error = Missing{}

func (m Missing) Error() string {
	return fmt.Sprintf("%s is not found in %s ", m.Identity, m.Table)
}
func (m Missing) Unwrap() error {
	return kdb.ErrMissing
}

// requested record is found too much.
type TooMuch struct {
	Table    string
	Identity string
	Expected int
}

var _ error = TooMuch{}

func (t TooMuch) Error() string {
	return fmt.Sprintf(
		"%s is found in %s more than %d times",
		t.Identity, t.Table, t.Expected,
	)
}

func (t TooMuch) Unwrap() error {
	return kdb.ErrTooMuch
}

// record to be created collides with an existing one.
type Conflict struct {
	Table    string
	Identity string
}

var _ error = Conflict{}

func (c Conflict) Error() string {
	return fmt.Sprintf("%s conflicts in %s ", c.Identity, c.Table)
}

func (c Conflict) Unwrap() error {
	return kdb.ErrConflict
}

// AsConflict converts unique violation errors from postgres into Conflict.
//
// Other errors are passed through as they are.
func AsConflict(err error, table string, identity string) error {
	if pgerr := new(pgconn.PgError); errors.As(err, &pgerr) {
		if pgerr.Code == pgerrcode.UniqueViolation {
			return Conflict{Table: table, Identity: identity}
		}
	}
	return err
}
