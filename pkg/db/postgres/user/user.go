package user

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/jackc/pgx/v4"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	"github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/scanner"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	kpgerr "github.com/ai-field-tools/iris-api/pkg/db/postgres/errors"
	xe "github.com/ai-field-tools/iris-api/pkg/errors"
)

type userPG struct { // implements kdb.UserInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *userPG {
	return &userPG{pool: pool}
}

var _ kdb.UserInterface = &userPG{}

const userColumns = `
	"id", "user_name", "email", "full_name", "hashed_password",
	"is_active", "is_superuser", "created_at", "updated_at",
	"last_login", "failed_login_attempts", "locked_until"
`

func (u *userPG) Register(ctx context.Context, spec kdb.UserSpec) (kdb.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	defer conn.Release()

	users, err := scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`
		insert into "users" ("user_name", "email", "full_name", "hashed_password", "is_superuser")
		values ($1, $2, $3, $4, $5)
		returning `+userColumns,
		spec.UserName, spec.Email, spec.FullName, spec.HashedPassword, spec.IsSuperuser,
	)
	if err != nil {
		return kdb.User{}, kpgerr.AsConflict(
			err, "users",
			fmt.Sprintf("user_name='%s' or email='%s'", spec.UserName, spec.Email),
		)
	}
	if len(users) < 1 {
		return kdb.User{}, xe.New("insert into users returned no row")
	}
	return users[0], nil
}

func (u *userPG) Get(ctx context.Context, id int) (kdb.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	defer conn.Release()

	users, err := scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`select `+userColumns+` from "users" where "id" = $1`,
		id,
	)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	if len(users) < 1 {
		return kdb.User{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return users[0], nil
}

func (u *userPG) GetByName(ctx context.Context, name string) (kdb.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	defer conn.Release()

	users, err := scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`select `+userColumns+` from "users" where "user_name" = $1 or "email" = $1`,
		name,
	)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	if len(users) < 1 {
		return kdb.User{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("user_name or email = '%s'", name),
		}
	}
	// one user's username can collide with another's email.
	if 1 < len(users) {
		return kdb.User{}, kpgerr.TooMuch{
			Table: "users", Identity: fmt.Sprintf("user_name or email = '%s'", name),
			Expected: 1,
		}
	}
	return users[0], nil
}

func (u *userPG) Find(ctx context.Context, query kdb.UserFindQuery) ([]kdb.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return nil, xe.Wrap(err)
	}
	defer conn.Release()

	cond := ""
	if query.ActiveOnly {
		cond = `where "is_active"`
	}

	return scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`select `+userColumns+` from "users" `+cond+` order by "id" offset $1 limit $2`,
		query.Skip, query.Limit,
	)
}

func (u *userPG) Count(ctx context.Context, query kdb.UserFindQuery) (int, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return 0, xe.Wrap(err)
	}
	defer conn.Release()

	cond := ""
	if query.ActiveOnly {
		cond = `where "is_active"`
	}

	var count int
	if err := conn.QueryRow(
		ctx, `select count(*) from "users" `+cond,
	).Scan(&count); err != nil {
		return 0, xe.Wrap(err)
	}
	return count, nil
}

func (u *userPG) Update(ctx context.Context, id int, delta kdb.UserDelta) (kdb.User, error) {
	if delta.Empty() {
		return u.Get(ctx, id)
	}

	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	defer conn.Release()

	sets := []string{`"updated_at" = now()`}
	args := []interface{}{id}
	set := func(column string, value interface{}) {
		args = append(args, value)
		sets = append(sets, fmt.Sprintf(`%s = $%d`, column, len(args)))
	}
	if delta.UserName != nil {
		set(`"user_name"`, *delta.UserName)
	}
	if delta.Email != nil {
		set(`"email"`, *delta.Email)
	}
	if delta.FullName != nil {
		set(`"full_name"`, *delta.FullName)
	}
	if delta.IsActive != nil {
		set(`"is_active"`, *delta.IsActive)
	}

	users, err := scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`update "users" set `+strings.Join(sets, ", ")+
			` where "id" = $1 returning `+userColumns,
		args...,
	)
	if err != nil {
		return kdb.User{}, kpgerr.AsConflict(
			err, "users", fmt.Sprintf("id=%d (on update)", id),
		)
	}
	if len(users) < 1 {
		return kdb.User{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return users[0], nil
}

func (u *userPG) Delete(ctx context.Context, id int) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer conn.Release()

	ctag, err := conn.Exec(ctx, `delete from "users" where "id" = $1`, id)
	if err != nil {
		return xe.Wrap(err)
	}
	if ctag.RowsAffected() < 1 {
		return kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return nil
}

func (u *userPG) SetActive(ctx context.Context, id int, active bool) (kdb.User, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	defer conn.Release()

	users, err := scanner.New[kdb.User]().QueryAll(
		ctx, conn,
		`
		update "users" set "is_active" = $2, "updated_at" = now()
		where "id" = $1
		returning `+userColumns,
		id, active,
	)
	if err != nil {
		return kdb.User{}, xe.Wrap(err)
	}
	if len(users) < 1 {
		return kdb.User{}, kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return users[0], nil
}

func (u *userPG) SetPassword(ctx context.Context, id int, hashedPassword string) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx,
		`update "users" set "hashed_password" = $2, "updated_at" = now() where "id" = $1`,
		id, hashedPassword,
	)
	if err != nil {
		return xe.Wrap(err)
	}
	if ctag.RowsAffected() < 1 {
		return kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return nil
}

func (u *userPG) DidLogin(ctx context.Context, id int, at time.Time) error {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return xe.Wrap(err)
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx,
		`
		update "users" set
			"failed_login_attempts" = 0,
			"locked_until" = null,
			"last_login" = $2,
			"updated_at" = now()
		where "id" = $1
		`,
		id, at,
	)
	if err != nil {
		return xe.Wrap(err)
	}
	if ctag.RowsAffected() < 1 {
		return kpgerr.Missing{
			Table: "users", Identity: fmt.Sprintf("id=%d", id),
		}
	}
	return nil
}

func (u *userPG) DidFailLogin(ctx context.Context, id int, at time.Time, lockAfter int, lockFor time.Duration) (bool, error) {
	conn, err := u.pool.Acquire(ctx)
	if err != nil {
		return false, xe.Wrap(err)
	}
	defer conn.Release()

	var locked bool
	if err := conn.QueryRow(
		ctx,
		`
		update "users" set
			"failed_login_attempts" = "failed_login_attempts" + 1,
			"locked_until" = case
				when 0 < $3 and $3 <= "failed_login_attempts" + 1 then $2::timestamptz + $4
				else "locked_until"
			end,
			"updated_at" = now()
		where "id" = $1
		returning "locked_until" is not null and $2::timestamptz < "locked_until"
		`,
		id, at, lockAfter, lockFor,
	).Scan(&locked); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return false, kpgerr.Missing{
				Table: "users", Identity: fmt.Sprintf("id=%d", id),
			}
		}
		return false, xe.Wrap(err)
	}
	return locked, nil
}
