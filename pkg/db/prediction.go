package db

import (
	"context"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/cmp"
)

// Prediction is a record of "predictions" table.
type Prediction struct {
	// PredictionId is assigned by the server when the prediction is made.
	PredictionId string

	// UserId is the authenticated caller, or nil for anonymous calls.
	UserId *int

	SepalLength float64
	SepalWidth  float64
	PetalLength float64
	PetalWidth  float64

	Species      string
	Confidence   float64
	ModelVersion string

	CreatedAt time.Time
}

func (p Prediction) Equal(o Prediction) bool {
	return p.PredictionId == o.PredictionId &&
		cmp.PEqEq(p.UserId, o.UserId) &&
		p.SepalLength == o.SepalLength &&
		p.SepalWidth == o.SepalWidth &&
		p.PetalLength == o.PetalLength &&
		p.PetalWidth == o.PetalWidth &&
		p.Species == o.Species &&
		p.Confidence == o.Confidence &&
		p.ModelVersion == o.ModelVersion &&
		p.CreatedAt.Equal(o.CreatedAt)
}

type PredictionFindQuery struct {
	// half-open time range [Since, Until). nil = unbounded.
	Since *time.Time
	Until *time.Time

	// records to be skipped from the head.
	Skip int

	// max records in a page.
	Limit int
}

type PredictionInterface interface {
	// Register persists a prediction record.
	Register(context.Context, Prediction) error

	// Find lists predictions matched with the query, newest first.
	Find(context.Context, PredictionFindQuery) ([]Prediction, error)

	// Count counts predictions matched with the query, ignoring Skip and Limit.
	Count(context.Context, PredictionFindQuery) (int, error)
}
