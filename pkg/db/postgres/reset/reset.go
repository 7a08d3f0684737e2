package reset

import (
	"context"
	"fmt"
	"time"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	"github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/scanner"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	kpgerr "github.com/ai-field-tools/iris-api/pkg/db/postgres/errors"
)

type resetPG struct { // implements kdb.ResetInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *resetPG {
	return &resetPG{pool: pool}
}

var _ kdb.ResetInterface = &resetPG{}

func (r *resetPG) New(ctx context.Context, reset kdb.PasswordReset) error {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "password_resets" ("token", "user_id", "created_at", "expires_at", "used")
		values ($1, $2, $3, $4, false)
		`,
		reset.Token, reset.UserId, reset.CreatedAt, reset.ExpiresAt,
	)
	return kpgerr.AsConflict(err, "password_resets", fmt.Sprintf("token='%s'", reset.Token))
}

func (r *resetPG) Use(ctx context.Context, token string, at time.Time) (kdb.PasswordReset, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return kdb.PasswordReset{}, err
	}
	defer conn.Release()

	// single shot: only a not-used, not-expired token can be marked used.
	resets, err := scanner.New[kdb.PasswordReset]().QueryAll(
		ctx, conn,
		`
		update "password_resets" set "used" = true, "used_at" = $2
		where "token" = $1 and not "used" and $2 < "expires_at"
		returning "token", "user_id", "created_at", "expires_at", "used", "used_at"
		`,
		token, at,
	)
	if err != nil {
		return kdb.PasswordReset{}, err
	}
	if len(resets) < 1 {
		return kdb.PasswordReset{}, kpgerr.Missing{
			Table: "password_resets", Identity: fmt.Sprintf("token='%s' (usable)", token),
		}
	}
	return resets[0], nil
}

func (r *resetPG) Purge(ctx context.Context, now time.Time) (int64, error) {
	conn, err := r.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx,
		`delete from "password_resets" where "used" or "expires_at" < $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return ctag.RowsAffected(), nil
}
