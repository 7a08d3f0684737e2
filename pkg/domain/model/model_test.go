package model_test

import (
	"math"
	"strings"
	"testing"

	"github.com/ai-field-tools/iris-api/pkg/domain/model"
	"github.com/ai-field-tools/iris-api/pkg/utils/try"
)

func TestLoad_decisionTree(t *testing.T) {
	m := try.To(model.Load("./testdata/decision_tree.json")).OrFatal(t)

	t.Run("it exposes artifact metadata", func(t *testing.T) {
		meta := m.Metadata()
		if meta.Name != "iris-decision-tree" {
			t.Errorf("name: %s", meta.Name)
		}
		if meta.Version != "1.0.0" {
			t.Errorf("version: %s", meta.Version)
		}
		if meta.Algorithm != "decision_tree" {
			t.Errorf("algorithm: %s", meta.Algorithm)
		}
		if meta.TrainedAt == nil {
			t.Fatal("trained_at is not parsed")
		}
		if meta.LoadedAt.IsZero() {
			t.Error("loaded_at is not set")
		}
	})

	type When struct {
		X [4]float64
	}
	type Then struct {
		Species    string
		Confidence float64
	}

	for name, testcase := range map[string]struct {
		When
		Then
	}{
		"short petals are setosa": {
			When{X: [4]float64{5.1, 3.5, 1.4, 0.2}},
			Then{Species: "setosa", Confidence: 1.0},
		},
		"narrow petals above the first split are versicolor": {
			When{X: [4]float64{6.0, 2.9, 4.3, 1.3}},
			Then{Species: "versicolor", Confidence: 49.0 / 54.0},
		},
		"wide petals are virginica": {
			When{X: [4]float64{6.9, 3.1, 5.4, 2.1}},
			Then{Species: "virginica", Confidence: 45.0 / 46.0},
		},
		"values on the threshold go left": {
			When{X: [4]float64{5.0, 3.0, 2.45, 0.5}},
			Then{Species: "setosa", Confidence: 1.0},
		},
	} {
		t.Run(name, func(t *testing.T) {
			when, then := testcase.When, testcase.Then

			actual := m.Predict(when.X)

			if actual.Species != then.Species {
				t.Errorf("species: (actual, expected) = (%s, %s)", actual.Species, then.Species)
			}
			if actual.Confidence != then.Confidence {
				t.Errorf("confidence: (actual, expected) = (%f, %f)", actual.Confidence, then.Confidence)
			}
			if actual.Probabilities[then.Species] != then.Confidence {
				t.Errorf(
					"probabilities[%s]: (actual, expected) = (%f, %f)",
					then.Species, actual.Probabilities[then.Species], then.Confidence,
				)
			}

			total := 0.0
			for _, p := range actual.Probabilities {
				total += p
			}
			if 1e-9 < math.Abs(total-1.0) {
				t.Errorf("probabilities do not sum to 1: %f", total)
			}

			again := m.Predict(when.X)
			if actual.Species != again.Species || actual.Confidence != again.Confidence {
				t.Errorf("prediction is not deterministic: %+v != %+v", actual, again)
			}
		})
	}
}

func TestLoad_logisticRegression(t *testing.T) {
	m := try.To(model.Load("./testdata/logistic_regression.json")).OrFatal(t)

	if m.Metadata().Algorithm != "logistic_regression" {
		t.Errorf("algorithm: %s", m.Metadata().Algorithm)
	}

	for name, testcase := range map[string]struct {
		X       [4]float64
		Species string
	}{
		"short petals are setosa":        {X: [4]float64{5.1, 3.5, 1.4, 0.2}, Species: "setosa"},
		"middling petals are versicolor": {X: [4]float64{6.0, 2.9, 4.3, 1.3}, Species: "versicolor"},
		"long wide petals are virginica": {X: [4]float64{6.5, 3.0, 5.8, 2.2}, Species: "virginica"},
	} {
		t.Run(name, func(t *testing.T) {
			actual := m.Predict(testcase.X)

			if actual.Species != testcase.Species {
				t.Errorf("species: (actual, expected) = (%s, %s)", actual.Species, testcase.Species)
			}
			if actual.Confidence != actual.Probabilities[actual.Species] {
				t.Errorf(
					"confidence %f is not the winning probability %f",
					actual.Confidence, actual.Probabilities[actual.Species],
				)
			}
			for species, p := range actual.Probabilities {
				if p < 0 || 1 < p {
					t.Errorf("probabilities[%s] = %f is out of [0, 1]", species, p)
				}
				if species != actual.Species && actual.Confidence < p {
					t.Errorf(
						"probabilities[%s] = %f beats the confidence %f",
						species, p, actual.Confidence,
					)
				}
			}

			total := 0.0
			for _, p := range actual.Probabilities {
				total += p
			}
			if 1e-9 < math.Abs(total-1.0) {
				t.Errorf("probabilities do not sum to 1: %f", total)
			}

			again := m.Predict(testcase.X)
			if actual.Species != again.Species || actual.Confidence != again.Confidence {
				t.Errorf("prediction is not deterministic: %+v != %+v", actual, again)
			}
		})
	}
}

func TestUnmarshal_malformedArtifacts(t *testing.T) {
	header := `
	"name": "broken", "version": "0.0.1",
	"classes": ["setosa", "versicolor", "virginica"],
	"features": ["sepal_length", "sepal_width", "petal_length", "petal_width"]
	`

	for name, testcase := range map[string]struct {
		Artifact      string
		WantInMessage string
	}{
		"unsupported algorithm": {
			Artifact:      `{` + header + `, "algorithm": "random_forest", "parameters": {}}`,
			WantInMessage: "unsupported algorithm",
		},
		"no name": {
			Artifact:      `{"version": "1", "algorithm": "decision_tree", "classes": ["setosa", "versicolor", "virginica"], "features": ["sepal_length", "sepal_width", "petal_length", "petal_width"], "parameters": {"nodes": []}}`,
			WantInMessage: `"name" is required`,
		},
		"wrong feature count": {
			Artifact:      `{"name": "x", "version": "1", "algorithm": "decision_tree", "classes": ["setosa", "versicolor", "virginica"], "features": ["sepal_length"], "parameters": {"nodes": []}}`,
			WantInMessage: "features",
		},
		"features out of order": {
			Artifact:      `{"name": "x", "version": "1", "algorithm": "decision_tree", "classes": ["setosa", "versicolor", "virginica"], "features": ["sepal_width", "sepal_length", "petal_length", "petal_width"], "parameters": {"nodes": []}}`,
			WantInMessage: "features",
		},
		"unknown class": {
			Artifact:      `{"name": "x", "version": "1", "algorithm": "decision_tree", "classes": ["setosa", "versicolor", "tulip"], "features": ["sepal_length", "sepal_width", "petal_length", "petal_width"], "parameters": {"nodes": []}}`,
			WantInMessage: "classes",
		},
		"empty tree": {
			Artifact:      `{` + header + `, "algorithm": "decision_tree", "parameters": {"nodes": []}}`,
			WantInMessage: "empty",
		},
		"tree with a cycle": {
			Artifact: `{` + header + `, "algorithm": "decision_tree", "parameters": {"nodes": [
				{"feature_idx": 0, "threshold": 1.0, "left_child": 0, "right_child": 0, "class_label": -1, "is_leaf": false}
			]}}`,
			WantInMessage: "ancestor",
		},
		"tree child out of range": {
			Artifact: `{` + header + `, "algorithm": "decision_tree", "parameters": {"nodes": [
				{"feature_idx": 0, "threshold": 1.0, "left_child": 1, "right_child": 5, "class_label": -1, "is_leaf": false},
				{"feature_idx": -1, "threshold": 0.0, "left_child": -1, "right_child": -1, "class_label": 0, "is_leaf": true}
			]}}`,
			WantInMessage: "out of range",
		},
		"leaf labelled with unknown class": {
			Artifact: `{` + header + `, "algorithm": "decision_tree", "parameters": {"nodes": [
				{"feature_idx": -1, "threshold": 0.0, "left_child": -1, "right_child": -1, "class_label": 7, "is_leaf": true}
			]}}`,
			WantInMessage: "class_label",
		},
		"logreg with missing coefficient rows": {
			Artifact:      `{` + header + `, "algorithm": "logistic_regression", "parameters": {"coefficients": [[0, 0, 0, 0]], "intercepts": [0, 0, 0]}}`,
			WantInMessage: "coefficients",
		},
		"logreg with short coefficient row": {
			Artifact:      `{` + header + `, "algorithm": "logistic_regression", "parameters": {"coefficients": [[0, 0], [0, 0, 0, 0], [0, 0, 0, 0]], "intercepts": [0, 0, 0]}}`,
			WantInMessage: "row 0",
		},
		"logreg with missing intercepts": {
			Artifact:      `{` + header + `, "algorithm": "logistic_regression", "parameters": {"coefficients": [[0, 0, 0, 0], [0, 0, 0, 0], [0, 0, 0, 0]], "intercepts": [0]}}`,
			WantInMessage: "intercepts",
		},
	} {
		t.Run(name, func(t *testing.T) {
			_, err := model.Unmarshal([]byte(testcase.Artifact))
			if err == nil {
				t.Fatal("no error for malformed artifact")
			}
			if !strings.Contains(err.Error(), testcase.WantInMessage) {
				t.Errorf(
					`error message should name the problem (want "%s"): %s`,
					testcase.WantInMessage, err.Error(),
				)
			}
		})
	}
}

func TestUnmarshal_trainedAtWithoutTimezone(t *testing.T) {
	artifact := `{
		"name": "x", "version": "1", "algorithm": "decision_tree",
		"classes": ["setosa", "versicolor", "virginica"],
		"features": ["sepal_length", "sepal_width", "petal_length", "petal_width"],
		"trained_at": "2024-03-01T12:00:00",
		"parameters": {"nodes": [
			{"feature_idx": -1, "threshold": 0.0, "left_child": -1, "right_child": -1, "class_label": 0, "is_leaf": true}
		]}
	}`

	m := try.To(model.Unmarshal([]byte(artifact))).OrFatal(t)
	if m.Metadata().TrainedAt == nil {
		t.Fatal("trained_at is not parsed")
	}
	if m.Metadata().TrainedAt.Year() != 2024 {
		t.Errorf("trained_at: %s", m.Metadata().TrainedAt)
	}
}
