package predictions_test

import (
	"encoding/json"
	"math"
	"strings"
	"testing"

	"github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
)

func TestMeasurementsValidate(t *testing.T) {

	t.Run("a well-formed record passes", func(t *testing.T) {
		m := predictions.Measurements{
			SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2,
		}
		if err := m.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	for name, testcase := range map[string]struct {
		when  predictions.Measurements
		field string
	}{
		"zero value is rejected": {
			when:  predictions.Measurements{SepalLength: 5.1, SepalWidth: 0, PetalLength: 1.4, PetalWidth: 0.2},
			field: "sepal_width",
		},
		"negative value is rejected": {
			when:  predictions.Measurements{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: -1.4, PetalWidth: 0.2},
			field: "petal_length",
		},
		"NaN is rejected": {
			when:  predictions.Measurements{SepalLength: math.NaN(), SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2},
			field: "sepal_length",
		},
		"infinity is rejected": {
			when:  predictions.Measurements{SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: math.Inf(1)},
			field: "petal_width",
		},
	} {
		testcase := testcase
		t.Run(name, func(t *testing.T) {
			err := testcase.when.Validate()
			if err == nil {
				t.Fatal("error should be raised, but not")
			}
			if !strings.Contains(err.Error(), testcase.field) {
				t.Errorf("error should name %q: %v", testcase.field, err)
			}
		})
	}
}

func TestMeasurementsVector(t *testing.T) {
	m := predictions.Measurements{
		SepalLength: 5.1, SepalWidth: 3.5, PetalLength: 1.4, PetalWidth: 0.2,
	}
	vec := m.Vector()
	expected := []float64{5.1, 3.5, 1.4, 0.2}

	if len(vec) != len(predictions.FeatureNames) {
		t.Fatalf("vector length %d != feature count %d", len(vec), len(predictions.FeatureNames))
	}
	for nth := range expected {
		if vec[nth] != expected[nth] {
			t.Errorf("vector[%d] = %v, expected %v", nth, vec[nth], expected[nth])
		}
	}
}

func TestDetailJSON(t *testing.T) {
	t.Run("measurements are embedded in the payload", func(t *testing.T) {
		source := `{
			"prediction_id": "f7a3c1d0-0000-4000-8000-000000000001",
			"measurements": {
				"sepal_length": 6.3, "sepal_width": 3.3, "petal_length": 6.0, "petal_width": 2.5
			},
			"species": "virginica",
			"confidence": 0.97,
			"probabilities": {"setosa": 0.0, "versicolor": 0.03, "virginica": 0.97},
			"model_version": "1.0.0",
			"timestamp": "2025-06-01T10:20:30.000+00:00"
		}`

		var actual predictions.Detail
		if err := json.Unmarshal([]byte(source), &actual); err != nil {
			t.Fatal(err)
		}

		if actual.Species != "virginica" {
			t.Errorf("species is wrong: %s", actual.Species)
		}
		if actual.PetalWidth != 2.5 {
			t.Errorf("petal_width is wrong: %v", actual.PetalWidth)
		}
		if actual.Probabilities["versicolor"] != 0.03 {
			t.Errorf("probabilities are wrong: %v", actual.Probabilities)
		}

		b, err := json.Marshal(actual)
		if err != nil {
			t.Fatal(err)
		}
		var again predictions.Detail
		if err := json.Unmarshal(b, &again); err != nil {
			t.Fatal(err)
		}
		if !actual.Equal(again) {
			t.Errorf(
				"payload does not round-trip:\n=== before ===\n%+v\n=== after ===\n%+v",
				actual, again,
			)
		}
	})
}
