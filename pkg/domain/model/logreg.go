package model

import (
	"encoding/json"
	"fmt"
	"math"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"
)

type logregParams struct {
	// one coefficient row per class, one column per feature.
	Coefficients [][]float64 `json:"coefficients"`
	Intercepts   []float64   `json:"intercepts"`
}

// logisticRegression answers argmax of softmax(Wx + b).
type logisticRegression struct {
	w *mat.Dense
	b []float64
}

var _ Classifier = &logisticRegression{}

func newLogisticRegression(params json.RawMessage, features int, classes int) (*logisticRegression, error) {
	var p logregParams
	if err := json.Unmarshal(params, &p); err != nil {
		return nil, fmt.Errorf(`"parameters" are malformed: %w`, err)
	}

	if len(p.Coefficients) != classes {
		return nil, fmt.Errorf(`"coefficients" should have %d rows, got %d`, classes, len(p.Coefficients))
	}
	if len(p.Intercepts) != classes {
		return nil, fmt.Errorf(`"intercepts" should have %d entries, got %d`, classes, len(p.Intercepts))
	}

	flat := make([]float64, 0, classes*features)
	for c, row := range p.Coefficients {
		if len(row) != features {
			return nil, fmt.Errorf(`"coefficients" row %d should have %d entries, got %d`, c, features, len(row))
		}
		for f, v := range row {
			if math.IsNaN(v) || math.IsInf(v, 0) {
				return nil, fmt.Errorf(`"coefficients"[%d][%d] should be finite`, c, f)
			}
		}
		flat = append(flat, row...)
	}
	for c, v := range p.Intercepts {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return nil, fmt.Errorf(`"intercepts"[%d] should be finite`, c)
		}
	}

	return &logisticRegression{
		w: mat.NewDense(classes, features, flat),
		b: p.Intercepts,
	}, nil
}

func (l *logisticRegression) predict(x [4]float64) (int, []float64) {
	xx := x
	var z mat.VecDense
	z.MulVec(l.w, mat.NewVecDense(len(xx), xx[:]))

	scores := make([]float64, len(l.b))
	for i := range scores {
		scores[i] = z.AtVec(i) + l.b[i]
	}

	// softmax, shifted by the max score so exp never overflows.
	max := floats.Max(scores)
	for i, s := range scores {
		scores[i] = math.Exp(s - max)
	}
	total := floats.Sum(scores)
	for i := range scores {
		scores[i] /= total
	}

	return floats.MaxIdx(scores), scores
}
