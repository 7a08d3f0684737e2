package model

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// FeatureNames is the measurement order of classifier inputs.
var FeatureNames = []string{"sepal_length", "sepal_width", "petal_length", "petal_width"}

// ClassNames are the species the classifier can answer.
var ClassNames = []string{"setosa", "versicolor", "virginica"}

// Classifier answers a class for a measurement vector.
//
// Implementations hold no mutable state after construction, so a single
// Classifier is shared between requests without locking.
type Classifier interface {
	// predict returns the index of the winning class and the
	// per-class probabilities, aligned with the artifact classes.
	predict(x [4]float64) (int, []float64)
}

// Artifact is the serialized form of a trained classifier.
type Artifact struct {
	Name      string          `json:"name"`
	Version   string          `json:"version"`
	Algorithm string          `json:"algorithm"`
	Classes   []string        `json:"classes"`
	Features  []string        `json:"features"`
	TrainedAt string          `json:"trained_at"`
	Params    json.RawMessage `json:"parameters"`
}

// Metadata describes the loaded model without exposing its parameters.
type Metadata struct {
	Name      string
	Version   string
	Algorithm string
	Classes   []string
	Features  []string
	TrainedAt *time.Time
	LoadedAt  time.Time
}

// Outcome is one classification.
type Outcome struct {
	Species       string
	Confidence    float64
	Probabilities map[string]float64
}

// Model is a loaded classifier artifact. Read-only once constructed.
type Model struct {
	meta       Metadata
	classifier Classifier
}

// Load reads a classifier artifact from a JSON file.
//
// A malformed artifact is rejected here, at startup, so that requests
// never meet one.
func Load(path string) (*Model, error) {
	content, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("can not read model artifact %s: %w", path, err)
	}
	return Unmarshal(content)
}

// Unmarshal parses and verifies a classifier artifact.
func Unmarshal(content []byte) (*Model, error) {
	var artifact Artifact
	if err := json.Unmarshal(content, &artifact); err != nil {
		return nil, fmt.Errorf("model artifact is not valid JSON: %w", err)
	}

	if artifact.Name == "" {
		return nil, fmt.Errorf(`model artifact: "name" is required`)
	}
	if artifact.Version == "" {
		return nil, fmt.Errorf(`model artifact: "version" is required`)
	}
	if err := sameNames(artifact.Features, FeatureNames, true); err != nil {
		return nil, fmt.Errorf(`model artifact: "features": %w`, err)
	}
	if err := sameNames(artifact.Classes, ClassNames, false); err != nil {
		return nil, fmt.Errorf(`model artifact: "classes": %w`, err)
	}

	var trainedAt *time.Time
	if artifact.TrainedAt != "" {
		t, err := rfctime.ParseLooseRFC3339(artifact.TrainedAt)
		if err != nil {
			return nil, fmt.Errorf(`model artifact: "trained_at": %w`, err)
		}
		tt := t.Time()
		trainedAt = &tt
	}

	var classifier Classifier
	switch artifact.Algorithm {
	case "decision_tree":
		c, err := newDecisionTree(artifact.Params, len(artifact.Classes))
		if err != nil {
			return nil, fmt.Errorf("model artifact (decision_tree): %w", err)
		}
		classifier = c
	case "logistic_regression":
		c, err := newLogisticRegression(artifact.Params, len(FeatureNames), len(artifact.Classes))
		if err != nil {
			return nil, fmt.Errorf("model artifact (logistic_regression): %w", err)
		}
		classifier = c
	default:
		return nil, fmt.Errorf(`model artifact: unsupported algorithm "%s"`, artifact.Algorithm)
	}

	return &Model{
		meta: Metadata{
			Name:      artifact.Name,
			Version:   artifact.Version,
			Algorithm: artifact.Algorithm,
			Classes:   artifact.Classes,
			Features:  artifact.Features,
			TrainedAt: trainedAt,
			LoadedAt:  time.Now(),
		},
		classifier: classifier,
	}, nil
}

// sameNames tests that actual holds exactly the expected names.
// When ordered, positions must match too.
func sameNames(actual []string, expected []string, ordered bool) error {
	if len(actual) != len(expected) {
		return fmt.Errorf("expected %d entries, got %d", len(expected), len(actual))
	}
	if ordered {
		for i := range expected {
			if actual[i] != expected[i] {
				return fmt.Errorf(`entry %d should be "%s", got "%s"`, i, expected[i], actual[i])
			}
		}
		return nil
	}

	rest := map[string]struct{}{}
	for _, e := range expected {
		rest[e] = struct{}{}
	}
	for _, a := range actual {
		if _, ok := rest[a]; !ok {
			return fmt.Errorf(`unknown entry "%s"`, a)
		}
		delete(rest, a)
	}
	return nil
}

// Metadata of the loaded artifact.
func (m *Model) Metadata() Metadata {
	return m.meta
}

// Predict classifies a measurement vector.
//
// Same input, same output: both algorithms are pure functions of the
// artifact and x.
func (m *Model) Predict(x [4]float64) Outcome {
	idx, probs := m.classifier.predict(x)

	probabilities := make(map[string]float64, len(m.meta.Classes))
	for i, class := range m.meta.Classes {
		probabilities[class] = probs[i]
	}

	return Outcome{
		Species:       m.meta.Classes[idx],
		Confidence:    probs[idx],
		Probabilities: probabilities,
	}
}
