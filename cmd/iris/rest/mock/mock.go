package mock

import (
	"context"
	"testing"

	"github.com/ai-field-tools/iris-api/cmd/iris/rest"
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	apimodels "github.com/ai-field-tools/iris-api/pkg/api/types/models"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
)

type SigninArgs struct {
	Username string
	Password string
}

func New(t *testing.T) *mockIrisClient {
	return &mockIrisClient{t: t}
}

type mockIrisClient struct {
	t    *testing.T
	Impl struct {
		Signin       func(ctx context.Context, username string, password string) (apiauth.LoginResponse, error)
		Predict      func(ctx context.Context, m apipredictions.Measurements) (apipredictions.Detail, error)
		PredictBatch func(ctx context.Context, ms []apipredictions.Measurements) ([]apipredictions.Detail, error)
		GetModel     func(ctx context.Context) (apimodels.Detail, error)
	}
	Calls struct {
		Signin       []SigninArgs
		Predict      []apipredictions.Measurements
		PredictBatch [][]apipredictions.Measurements
		GetModel     int
	}
}

var _ rest.IrisClient = &mockIrisClient{}

func (m *mockIrisClient) Signin(ctx context.Context, username string, password string) (apiauth.LoginResponse, error) {
	m.t.Helper()

	m.Calls.Signin = append(m.Calls.Signin, SigninArgs{Username: username, Password: password})
	if m.Impl.Signin == nil {
		m.t.Fatal("Signin is not ready to be called")
	}
	return m.Impl.Signin(ctx, username, password)
}

func (m *mockIrisClient) Predict(ctx context.Context, meas apipredictions.Measurements) (apipredictions.Detail, error) {
	m.t.Helper()

	m.Calls.Predict = append(m.Calls.Predict, meas)
	if m.Impl.Predict == nil {
		m.t.Fatal("Predict is not ready to be called")
	}
	return m.Impl.Predict(ctx, meas)
}

func (m *mockIrisClient) PredictBatch(ctx context.Context, ms []apipredictions.Measurements) ([]apipredictions.Detail, error) {
	m.t.Helper()

	// callers may reuse the slice between calls.
	recorded := make([]apipredictions.Measurements, len(ms))
	copy(recorded, ms)
	m.Calls.PredictBatch = append(m.Calls.PredictBatch, recorded)
	if m.Impl.PredictBatch == nil {
		m.t.Fatal("PredictBatch is not ready to be called")
	}
	return m.Impl.PredictBatch(ctx, ms)
}

func (m *mockIrisClient) GetModel(ctx context.Context) (apimodels.Detail, error) {
	m.t.Helper()

	m.Calls.GetModel += 1
	if m.Impl.GetModel == nil {
		m.t.Fatal("GetModel is not ready to be called")
	}
	return m.Impl.GetModel(ctx)
}
