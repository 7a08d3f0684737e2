package model_test

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"testing"

	restmock "github.com/ai-field-tools/iris-api/cmd/iris/rest/mock"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/internal/commandline"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/logger"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/model"
	apimodels "github.com/ai-field-tools/iris-api/pkg/api/types/models"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
	"github.com/ai-field-tools/iris-api/pkg/utils/try"
)

func TestModelCommand(t *testing.T) {
	t.Run("it prints model metadata as JSON", func(t *testing.T) {
		expectedDetail := apimodels.Detail{
			Name:      "iris-classifier",
			Version:   "1.0.0",
			Algorithm: "decision_tree",
			Classes:   []string{"setosa", "versicolor", "virginica"},
			Features:  []string{"sepal_length", "sepal_width", "petal_length", "petal_width"},
			LoadedAt: try.To(rfctime.ParseRFC3339DateTime(
				"2024-06-01T08:00:00+00:00",
			)).OrFatal(t),
		}

		client := restmock.New(t)
		client.Impl.GetModel = func(ctx context.Context) (apimodels.Detail, error) {
			return expectedDetail, nil
		}

		stdout := new(bytes.Buffer)
		testee := model.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[struct{}]{
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}
		if client.Calls.GetModel != 1 {
			t.Errorf("GetModel is called %d times", client.Calls.GetModel)
		}

		actual := apimodels.Detail{}
		if err := json.Unmarshal(stdout.Bytes(), &actual); err != nil {
			t.Fatalf("output is not JSON: %s", err)
		}
		if !actual.Equal(expectedDetail) {
			t.Errorf(
				"unexpected output (actual, expected) = (%+v, %+v)",
				actual, expectedDetail,
			)
		}
	})

	t.Run("when the server fails, the error is propagated", func(t *testing.T) {
		expectedError := errors.New("fake error")
		client := restmock.New(t)
		client.Impl.GetModel = func(ctx context.Context) (apimodels.Detail, error) {
			return apimodels.Detail{}, expectedError
		}

		testee := model.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[struct{}]{
				Stdout_: new(bytes.Buffer),
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if !errors.Is(err, expectedError) {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
