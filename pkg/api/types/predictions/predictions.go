package predictions

import (
	"bytes"
	"encoding/json"
	"fmt"
	"math"

	"github.com/ai-field-tools/iris-api/pkg/cmp"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// Feature names, in the order classifiers receive them.
var FeatureNames = []string{
	"sepal_length", "sepal_width", "petal_length", "petal_width",
}

// measurements of one iris flower, in centimeters.
type Measurements struct {
	SepalLength float64 `json:"sepal_length"`
	SepalWidth  float64 `json:"sepal_width"`
	PetalLength float64 `json:"petal_length"`
	PetalWidth  float64 `json:"petal_width"`
}

// feature vector in FeatureNames order.
func (m Measurements) Vector() []float64 {
	return []float64{m.SepalLength, m.SepalWidth, m.PetalLength, m.PetalWidth}
}

func (m Measurements) Equal(o Measurements) bool {
	return m == o
}

// UnmarshalJSON requires all four measurements to be present, and
// rejects fields it does not know.
func (m *Measurements) UnmarshalJSON(b []byte) error {
	f := new(struct {
		SepalLength *float64 `json:"sepal_length"`
		SepalWidth  *float64 `json:"sepal_width"`
		PetalLength *float64 `json:"petal_length"`
		PetalWidth  *float64 `json:"petal_width"`
	})

	dec := json.NewDecoder(bytes.NewReader(b))
	dec.DisallowUnknownFields()
	if err := dec.Decode(f); err != nil {
		return err
	}

	for nth, v := range []*float64{
		f.SepalLength, f.SepalWidth, f.PetalLength, f.PetalWidth,
	} {
		if v == nil {
			return fmt.Errorf(`required field missing: "%s"`, FeatureNames[nth])
		}
	}

	m.SepalLength = *f.SepalLength
	m.SepalWidth = *f.SepalWidth
	m.PetalLength = *f.PetalLength
	m.PetalWidth = *f.PetalWidth

	return nil
}

// Validate checks that every measurement is a positive, finite number.
//
// The returned error names the first offending field.
func (m Measurements) Validate() error {
	for nth, v := range m.Vector() {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return fmt.Errorf("%s: not a finite number", FeatureNames[nth])
		}
		if v <= 0 {
			return fmt.Errorf("%s: must be positive, but %v", FeatureNames[nth], v)
		}
	}
	return nil
}

// result of one classification.
type Detail struct {
	PredictionId string `json:"prediction_id"`

	Measurements `json:"measurements"`

	// one of the class names the loaded model knows.
	Species string `json:"species"`

	// probability of Species, in [0, 1].
	Confidence float64 `json:"confidence"`

	// probability per class name. Not persisted, so records read back
	// from history come without it.
	Probabilities map[string]float64 `json:"probabilities,omitempty"`

	ModelVersion string `json:"model_version"`

	Timestamp rfctime.RFC3339 `json:"timestamp"`
}

func (d Detail) Equal(o Detail) bool {
	return d.PredictionId == o.PredictionId &&
		d.Measurements.Equal(o.Measurements) &&
		d.Species == o.Species &&
		d.Confidence == o.Confidence &&
		d.ModelVersion == o.ModelVersion &&
		d.Timestamp.Equal(o.Timestamp) &&
		cmp.MapEq(d.Probabilities, o.Probabilities)
}

// one page of persisted prediction records.
type Page struct {
	Items []Detail `json:"items"`

	// total records matching the query, ignoring skip/limit.
	Total int `json:"total"`
}

func (p Page) Equal(o Page) bool {
	return p.Total == o.Total &&
		cmp.SliceEqWith(p.Items, o.Items, Detail.Equal)
}
