package prediction

import (
	"context"
	"fmt"
	"strings"

	kpool "github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/pool"
	"github.com/ai-field-tools/iris-api/pkg/conn/db/postgres/scanner"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	kpgerr "github.com/ai-field-tools/iris-api/pkg/db/postgres/errors"
)

type predictionPG struct { // implements kdb.PredictionInterface
	pool kpool.Pool
}

func New(pool kpool.Pool) *predictionPG {
	return &predictionPG{pool: pool}
}

var _ kdb.PredictionInterface = &predictionPG{}

func (p *predictionPG) Register(ctx context.Context, prediction kdb.Prediction) error {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return err
	}
	defer conn.Release()

	_, err = conn.Exec(
		ctx,
		`
		insert into "predictions"
			("prediction_id", "user_id",
			"sepal_length", "sepal_width", "petal_length", "petal_width",
			"species", "confidence", "model_version", "created_at")
		values ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
		`,
		prediction.PredictionId, prediction.UserId,
		prediction.SepalLength, prediction.SepalWidth,
		prediction.PetalLength, prediction.PetalWidth,
		prediction.Species, prediction.Confidence,
		prediction.ModelVersion, prediction.CreatedAt,
	)
	return kpgerr.AsConflict(
		err, "predictions",
		fmt.Sprintf("prediction_id='%s'", prediction.PredictionId),
	)
}

// timeRange renders the half-open range [Since, Until) as SQL conditions.
func timeRange(query kdb.PredictionFindQuery) (string, []interface{}) {
	conds := []string{}
	args := []interface{}{}
	if query.Since != nil {
		args = append(args, *query.Since)
		conds = append(conds, fmt.Sprintf(`$%d <= "created_at"`, len(args)))
	}
	if query.Until != nil {
		args = append(args, *query.Until)
		conds = append(conds, fmt.Sprintf(`"created_at" < $%d`, len(args)))
	}

	if len(conds) == 0 {
		return "", args
	}
	return "where " + strings.Join(conds, " and "), args
}

func (p *predictionPG) Find(ctx context.Context, query kdb.PredictionFindQuery) ([]kdb.Prediction, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return nil, err
	}
	defer conn.Release()

	where, args := timeRange(query)
	args = append(args, query.Skip, query.Limit)

	return scanner.New[kdb.Prediction]().QueryAll(
		ctx, conn,
		`
		select "prediction_id", "user_id",
			"sepal_length", "sepal_width", "petal_length", "petal_width",
			"species", "confidence", "model_version", "created_at"
		from "predictions"
		`+where+fmt.Sprintf(`
		order by "created_at" desc, "prediction_id"
		offset $%d limit $%d
		`, len(args)-1, len(args)),
		args...,
	)
}

func (p *predictionPG) Count(ctx context.Context, query kdb.PredictionFindQuery) (int, error) {
	conn, err := p.pool.Acquire(ctx)
	if err != nil {
		return 0, err
	}
	defer conn.Release()

	where, args := timeRange(query)

	var count int
	if err := conn.QueryRow(
		ctx, `select count(*) from "predictions" `+where, args...,
	).Scan(&count); err != nil {
		return 0, err
	}
	return count, nil
}
