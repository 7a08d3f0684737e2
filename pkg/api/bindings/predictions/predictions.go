package predictions

import (
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// ComposeDetail builds the wire representation of a persisted
// prediction. Probabilities are not persisted, so they stay empty.
func ComposeDetail(p kdb.Prediction) apipredictions.Detail {
	return apipredictions.Detail{
		PredictionId: p.PredictionId,
		Measurements: apipredictions.Measurements{
			SepalLength: p.SepalLength,
			SepalWidth:  p.SepalWidth,
			PetalLength: p.PetalLength,
			PetalWidth:  p.PetalWidth,
		},
		Species:      p.Species,
		Confidence:   p.Confidence,
		ModelVersion: p.ModelVersion,
		Timestamp:    rfctime.New(p.CreatedAt),
	}
}
