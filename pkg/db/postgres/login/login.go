package login

import (
	"context"
	"time"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	"github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/scanner"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type loginPG struct { // implements kdb.LoginInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *loginPG {
	return &loginPG{pool: pool}
}

var _ kdb.LoginInterface = &loginPG{}

func (l *loginPG) Record(ctx context.Context, record kdb.LoginRecord) error {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "login_history"
			("user_id", "user_name", "success", "reason", "remote_addr", "user_agent", "created_at")
		values ($1, $2, $3, $4, $5, $6, $7)
		`,
		record.UserId, record.UserName, record.Success,
		record.Reason, record.RemoteAddr, record.UserAgent, record.CreatedAt,
	)
	return err
}

func (l *loginPG) CountRecentFailures(ctx context.Context, username string, since time.Time) (int, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	var count int
	if err := conn.QueryRow(
		ctx,
		`
		select count(*) from "login_history"
		where "user_name" = $1 and not "success" and $2 <= "created_at"
		`,
		username, since,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}

func (l *loginPG) FindByUser(ctx context.Context, userId int, skip int, limit int) ([]kdb.LoginRecord, error) {
	conn, err := l.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	return scanner.New[kdb.LoginRecord]().QueryAll(
		ctx, conn,
		`
		select "id", "user_id", "user_name", "success", "reason",
			"remote_addr", "user_agent", "created_at"
		from "login_history"
		where "user_id" = $1
		order by "created_at" desc, "id" desc
		offset $2 limit $3
		`,
		userId, skip, limit,
	)
}
