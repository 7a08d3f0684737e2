package predict_test

import (
	"bytes"
	"context"
	"encoding/csv"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"testing"

	restmock "github.com/ai-field-tools/iris-api/cmd/iris/rest/mock"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/internal/commandline"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/logger"
	"github.com/ai-field-tools/iris-api/cmd/iris/subcommands/predict"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	"github.com/ai-field-tools/iris-api/pkg/cmp"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
	"github.com/ai-field-tools/iris-api/pkg/utils/try"
	"github.com/youta-t/flarc"
)

func TestPredictCommand(t *testing.T) {
	timestamp := try.To(rfctime.ParseRFC3339DateTime(
		"2024-06-01T12:00:00+00:00",
	)).OrFatal(t)

	t.Run("when measurements are passed as flags, it classifies one flower", func(t *testing.T) {
		client := restmock.New(t)
		client.Impl.Predict = func(
			ctx context.Context, m apipredictions.Measurements,
		) (apipredictions.Detail, error) {
			return apipredictions.Detail{
				PredictionId: "7f2fab50-65f3-44b4-83f0-80a4e36a62a1",
				Measurements: m,
				Species:      "setosa",
				Confidence:   0.97,
				Probabilities: map[string]float64{
					"setosa": 0.97, "versicolor": 0.02, "virginica": 0.01,
				},
				ModelVersion: "1.0.0",
				Timestamp:    timestamp,
			}, nil
		}

		stdout := new(bytes.Buffer)
		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_: predict.Flag{
					SepalLength: "5.1", SepalWidth: "3.5",
					PetalLength: "1.4", PetalWidth: "0.2",
					ChunkSize: 500,
				},
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		expectedMeasurements := apipredictions.Measurements{
			SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2,
		}
		if len(client.Calls.Predict) != 1 || !client.Calls.Predict[0].Equal(expectedMeasurements) {
			t.Errorf("unexpected predict calls: %+v", client.Calls.Predict)
		}

		expected := strings.Join([]string{
			"species       : setosa",
			"confidence    : 0.97",
			"model version : 1.0.0",
			"prediction id : 7f2fab50-65f3-44b4-83f0-80a4e36a62a1",
			"probabilities :",
			"    setosa       0.97",
			"    versicolor   0.02",
			"    virginica    0.01",
			"",
		}, "\n")
		if actual := stdout.String(); actual != expected {
			t.Errorf(
				"unexpected output:\n=== actual ===\n%s\n=== expected ===\n%s",
				actual, expected,
			)
		}
	})

	t.Run("when --json is passed, the prediction is printed as JSON", func(t *testing.T) {
		expectedDetail := apipredictions.Detail{
			PredictionId: "7f2fab50-65f3-44b4-83f0-80a4e36a62a1",
			Measurements: apipredictions.Measurements{
				SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2,
			},
			Species:    "setosa",
			Confidence: 0.97,
			Probabilities: map[string]float64{
				"setosa": 0.97, "versicolor": 0.02, "virginica": 0.01,
			},
			ModelVersion: "1.0.0",
			Timestamp:    timestamp,
		}

		client := restmock.New(t)
		client.Impl.Predict = func(
			ctx context.Context, m apipredictions.Measurements,
		) (apipredictions.Detail, error) {
			return expectedDetail, nil
		}

		stdout := new(bytes.Buffer)
		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_: predict.Flag{
					SepalLength: "5.1", SepalWidth: "3.5",
					PetalLength: "1.4", PetalWidth: "0.2",
					ChunkSize: 500,
					Json:      true,
				},
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		actual := apipredictions.Detail{}
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

	t.Run("bad flags are rejected without calling the server", func(t *testing.T) {
		for name, flags := range map[string]predict.Flag{
			"when a measurement flag is missing": {
				SepalLength: "5.1", SepalWidth: "3.5", PetalLength: "1.4",
				ChunkSize: 500,
			},
			"when a measurement flag is not a number": {
				SepalLength: "long", SepalWidth: "3.5", PetalLength: "1.4", PetalWidth: "0.2",
				ChunkSize: 500,
			},
			"when a measurement flag is not positive": {
				SepalLength: "-5.1", SepalWidth: "3.5", PetalLength: "1.4", PetalWidth: "0.2",
				ChunkSize: 500,
			},
			"when measurement flags come with --file": {
				SepalLength: "5.1", SepalWidth: "3.5", PetalLength: "1.4", PetalWidth: "0.2",
				File: "flowers.csv", ChunkSize: 500,
			},
			"when neither measurements nor --file are passed": {
				ChunkSize: 500,
			},
			"when --chunk-size is not positive": {
				File: "flowers.csv", ChunkSize: 0,
			},
			"when --chunk-size is over the server limit": {
				File: "flowers.csv", ChunkSize: predict.MaxChunkSize + 1,
			},
		} {
			t.Run(name, func(t *testing.T) {
				client := restmock.New(t)
				testee := predict.Task
				ctx := context.Background()
				err := testee(
					ctx, logger.Null(), client,
					commandline.MockCommandline[predict.Flag]{
						Flags_:  flags,
						Stdout_: new(bytes.Buffer),
						Stderr_: new(bytes.Buffer),
					},
					[]any{},
				)
				if !errors.Is(err, flarc.ErrUsage) {
					t.Errorf("unexpected error: %+v", err)
				}
				if len(client.Calls.Predict) != 0 || len(client.Calls.PredictBatch) != 0 {
					t.Errorf("server is called: %+v", client.Calls)
				}
			})
		}
	})

	t.Run("when --file has a header, columns may be reordered and extras ignored", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		csvPath := filepath.Join(temp, "flowers.csv")
		content := strings.Join([]string{
			"petal_width,sepal_length,note,sepal_width,petal_length",
			"0.2,5.1,a,3.5,1.4",
			"2.3,6.7,b,3,5.2",
			"1.3,5.7,c,2.8,4.1",
			"",
		}, "\n")
		if err := os.WriteFile(csvPath, []byte(content), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		client := restmock.New(t)
		serial := 0
		client.Impl.PredictBatch = func(
			ctx context.Context, ms []apipredictions.Measurements,
		) ([]apipredictions.Detail, error) {
			details := make([]apipredictions.Detail, 0, len(ms))
			for _, m := range ms {
				serial += 1
				details = append(details, apipredictions.Detail{
					PredictionId: fmt.Sprintf("id-%d", serial),
					Measurements: m,
					Species:      "setosa",
					Confidence:   0.9,
					ModelVersion: "1.0.0",
					Timestamp:    timestamp,
				})
			}
			return details, nil
		}

		stdout := new(bytes.Buffer)
		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_:  predict.Flag{File: csvPath, ChunkSize: 2},
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		expectedCalls := [][]apipredictions.Measurements{
			{
				{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2},
				{SepalLength: 6.7, SepalWidth: 3, PetalLength: 5.2, PetalWidth: 2.3},
			},
			{
				{SepalLength: 5.7, SepalWidth: 2.8, PetalLength: 4.1, PetalWidth: 1.3},
			},
		}
		if len(client.Calls.PredictBatch) != len(expectedCalls) {
			t.Fatalf(
				"unexpected number of batch calls (actual, expected) = (%d, %d)",
				len(client.Calls.PredictBatch), len(expectedCalls),
			)
		}
		for nth := range expectedCalls {
			if !cmp.SliceEqWith(
				client.Calls.PredictBatch[nth], expectedCalls[nth],
				apipredictions.Measurements.Equal,
			) {
				t.Errorf(
					"unexpected chunk #%d (actual, expected) = (%+v, %+v)",
					nth, client.Calls.PredictBatch[nth], expectedCalls[nth],
				)
			}
		}

		records := try.To(csv.NewReader(stdout).ReadAll()).OrFatal(t)
		expectedRecords := [][]string{
			{"sepal_length", "sepal_width", "petal_length", "petal_width", "species", "confidence", "model_version", "prediction_id"},
			{"5.1", "3.5", "1.4", "0.2", "setosa", "0.9", "1.0.0", "id-1"},
			{"6.7", "3", "5.2", "2.3", "setosa", "0.9", "1.0.0", "id-2"},
			{"5.7", "2.8", "4.1", "1.3", "setosa", "0.9", "1.0.0", "id-3"},
		}
		if !cmp.SliceEqWith(records, expectedRecords, cmp.SliceEq[string]) {
			t.Errorf(
				"unexpected output (actual, expected) = (%+v, %+v)",
				records, expectedRecords,
			)
		}
	})

	t.Run("a CSV without header is read in the default column order", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		csvPath := filepath.Join(temp, "flowers.csv")
		content := "5.1,3.5,1.4,0.2\n6.7,3,5.2,2.3\n"
		if err := os.WriteFile(csvPath, []byte(content), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		client := restmock.New(t)
		client.Impl.PredictBatch = func(
			ctx context.Context, ms []apipredictions.Measurements,
		) ([]apipredictions.Detail, error) {
			details := make([]apipredictions.Detail, 0, len(ms))
			for nth, m := range ms {
				details = append(details, apipredictions.Detail{
					PredictionId: fmt.Sprintf("id-%d", nth+1),
					Measurements: m,
					Species:      "setosa",
					Confidence:   0.9,
					ModelVersion: "1.0.0",
					Timestamp:    timestamp,
				})
			}
			return details, nil
		}

		stdout := new(bytes.Buffer)
		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_:  predict.Flag{File: csvPath, ChunkSize: 500},
				Stdout_: stdout,
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err != nil {
			t.Fatalf("unexpected error: %+v", err)
		}

		expectedCall := []apipredictions.Measurements{
			{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2},
			{SepalLength: 6.7, SepalWidth: 3, PetalLength: 5.2, PetalWidth: 2.3},
		}
		if len(client.Calls.PredictBatch) != 1 {
			t.Fatalf("unexpected number of batch calls: %d", len(client.Calls.PredictBatch))
		}
		if !cmp.SliceEqWith(
			client.Calls.PredictBatch[0], expectedCall, apipredictions.Measurements.Equal,
		) {
			t.Errorf(
				"unexpected chunk (actual, expected) = (%+v, %+v)",
				client.Calls.PredictBatch[0], expectedCall,
			)
		}

		records := try.To(csv.NewReader(stdout).ReadAll()).OrFatal(t)
		if len(records) != 3 {
			t.Errorf("unexpected number of output rows: %+v", records)
		}
	})

	t.Run("broken files are reported without calling the server", func(t *testing.T) {
		for name, testcase := range map[string]struct {
			content  string
			errorHas string
		}{
			"when a record has a non-numeric value, the error names the record": {
				content: strings.Join([]string{
					"sepal_length,sepal_width,petal_length,petal_width",
					"5.1,3.5,1.4,0.2",
					"5.1,bad,1.4,0.2",
					"",
				}, "\n"),
				errorHas: "record 2",
			},
			"when the header misses a column, the error names it": {
				content:  "sepal_length,sepal_width,petal_length\n5.1,3.5,1.4\n",
				errorHas: `header misses column "petal_width"`,
			},
			"when the file is empty, it returns error": {
				content:  "",
				errorHas: "no records",
			},
		} {
			t.Run(name, func(t *testing.T) {
				temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
				defer os.RemoveAll(temp)
				csvPath := filepath.Join(temp, "flowers.csv")
				if err := os.WriteFile(csvPath, []byte(testcase.content), os.FileMode(0644)); err != nil {
					t.Fatal(err)
				}

				client := restmock.New(t)
				testee := predict.Task
				ctx := context.Background()
				err := testee(
					ctx, logger.Null(), client,
					commandline.MockCommandline[predict.Flag]{
						Flags_:  predict.Flag{File: csvPath, ChunkSize: 500},
						Stdout_: new(bytes.Buffer),
						Stderr_: new(bytes.Buffer),
					},
					[]any{},
				)
				if err == nil {
					t.Fatal("no error is returned")
				}
				if !strings.Contains(err.Error(), testcase.errorHas) {
					t.Errorf("error %+v does not have %s", err, testcase.errorHas)
				}
				if len(client.Calls.PredictBatch) != 0 {
					t.Errorf("server is called: %+v", client.Calls.PredictBatch)
				}
			})
		}
	})

	t.Run("when the file does not exist, it returns error", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)

		client := restmock.New(t)
		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_:  predict.Flag{File: filepath.Join(temp, "no-such.csv"), ChunkSize: 500},
				Stdout_: new(bytes.Buffer),
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err == nil {
			t.Fatal("no error is returned")
		}
		if errors.Is(err, flarc.ErrUsage) {
			t.Errorf("missing file should not be a usage error: %+v", err)
		}
	})

	t.Run("when the server returns a wrong number of results, it returns error", func(t *testing.T) {
		temp := try.To(os.MkdirTemp("", "")).OrFatal(t)
		defer os.RemoveAll(temp)
		csvPath := filepath.Join(temp, "flowers.csv")
		content := "5.1,3.5,1.4,0.2\n6.7,3,5.2,2.3\n"
		if err := os.WriteFile(csvPath, []byte(content), os.FileMode(0644)); err != nil {
			t.Fatal(err)
		}

		client := restmock.New(t)
		client.Impl.PredictBatch = func(
			ctx context.Context, ms []apipredictions.Measurements,
		) ([]apipredictions.Detail, error) {
			return []apipredictions.Detail{
				{
					PredictionId: "id-1",
					Measurements: ms[0],
					Species:      "setosa",
					Confidence:   0.9,
					ModelVersion: "1.0.0",
					Timestamp:    timestamp,
				},
			}, nil
		}

		testee := predict.Task
		ctx := context.Background()
		err := testee(
			ctx, logger.Null(), client,
			commandline.MockCommandline[predict.Flag]{
				Flags_:  predict.Flag{File: csvPath, ChunkSize: 500},
				Stdout_: new(bytes.Buffer),
				Stderr_: new(bytes.Buffer),
			},
			[]any{},
		)
		if err == nil {
			t.Fatal("no error is returned")
		}
		if !strings.Contains(err.Error(), "server returned 1 results for 2 records") {
			t.Errorf("unexpected error: %+v", err)
		}
	})
}
