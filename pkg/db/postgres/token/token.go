package token

import (
	"context"
	"fmt"
	"time"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	"github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/scanner"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	kpgerr "github.com/ai-field-tools/iris-api/pkg/db/postgres/errors"
)

type tokenPG struct { // implements kdb.TokenInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *tokenPG {
	return &tokenPG{pool: pool}
}

var _ kdb.TokenInterface = &tokenPG{}

func (t *tokenPG) AddRefresh(ctx context.Context, token kdb.RefreshToken) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "refresh_tokens" ("jti", "user_id", "issued_at", "expires_at", "revoked")
		values ($1, $2, $3, $4, $5)
		`,
		token.Jti, token.UserId, token.IssuedAt, token.ExpiresAt, token.Revoked,
	)
	return kpgerr.AsConflict(err, "refresh_tokens", fmt.Sprintf("jti='%s'", token.Jti))
}

func (t *tokenPG) GetRefresh(ctx context.Context, jti string) (kdb.RefreshToken, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return kdb.RefreshToken{}, err
	}
	defer conn.Release()

	tokens, err := scanner.New[kdb.RefreshToken]().QueryAll(
		ctx, conn,
		`
		select "jti", "user_id", "issued_at", "expires_at", "revoked"
		from "refresh_tokens" where "jti" = $1
		`,
		jti,
	)
	if err != nil {
		return kdb.RefreshToken{}, err
	}
	if len(tokens) < 1 {
		return kdb.RefreshToken{}, kpgerr.Missing{
			Table: "refresh_tokens", Identity: fmt.Sprintf("jti='%s'", jti),
		}
	}
	return tokens[0], nil
}

func (t *tokenPG) RevokeRefresh(ctx context.Context, jti string) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`update "refresh_tokens" set "revoked" = true where "jti" = $1`,
		jti,
	)
	return err
}

func (t *tokenPG) RevokeRefreshByUser(ctx context.Context, userId int) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`update "refresh_tokens" set "revoked" = true where "user_id" = $1`,
		userId,
	)
	return err
}

func (t *tokenPG) Blacklist(ctx context.Context, jti string, expiresAt time.Time) error {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "token_blacklist" ("jti", "expires_at")
		values ($1, $2)
		on conflict do nothing
		`,
		jti, expiresAt,
	)
	return err
}

func (t *tokenPG) IsBlacklisted(ctx context.Context, jti string) (bool, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return false, err
	}
	defer conn.Release()

	var found bool
	if err := conn.QueryRow(
		ctx,
		`select exists (select 1 from "token_blacklist" where "jti" = $1)`,
		jti,
	).Scan(&found); err != nil {
		return false, err
	}
	return found, nil
}

func (t *tokenPG) PurgeBlacklist(ctx context.Context, now time.Time) (int64, error) {
	conn, err := t.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	ctag, err := conn.Exec(
		ctx,
		`delete from "token_blacklist" where "expires_at" < $1`,
		now,
	)
	if err != nil {
		return 0, err
	}
	return ctag.RowsAffected(), nil
}
