package mocks

import (
	"context"
	"errors"

	kdb "github.com/ai-field-tools/iris-api/pkg/db"
)

type PredictionInterface struct {
	Impl struct {
		Register func(context.Context, kdb.Prediction) error
		Find     func(context.Context, kdb.PredictionFindQuery) ([]kdb.Prediction, error)
		Count    func(context.Context, kdb.PredictionFindQuery) (int, error)
	}
	Calls struct {
		Register CallLog[kdb.Prediction]
		Find     CallLog[kdb.PredictionFindQuery]
		Count    CallLog[kdb.PredictionFindQuery]
	}
}

func NewPredictionInterface() *PredictionInterface {
	return &PredictionInterface{}
}

var _ kdb.PredictionInterface = &PredictionInterface{}

func (m *PredictionInterface) Register(ctx context.Context, prediction kdb.Prediction) error {
	m.Calls.Register = append(m.Calls.Register, prediction)
	if m.Impl.Register != nil {
		return m.Impl.Register(ctx, prediction)
	}
	panic(errors.New("it should not be called"))
}

func (m *PredictionInterface) Find(ctx context.Context, query kdb.PredictionFindQuery) ([]kdb.Prediction, error) {
	m.Calls.Find = append(m.Calls.Find, query)
	if m.Impl.Find != nil {
		return m.Impl.Find(ctx, query)
	}
	panic(errors.New("it should not be called"))
}

func (m *PredictionInterface) Count(ctx context.Context, query kdb.PredictionFindQuery) (int, error) {
	m.Calls.Count = append(m.Calls.Count, query)
	if m.Impl.Count != nil {
		return m.Impl.Count(ctx, query)
	}
	panic(errors.New("it should not be called"))
}
