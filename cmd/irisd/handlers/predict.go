package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apierr "github.com/ai-field-tools/iris-api/pkg/api/types/errors"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/domain/model"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// MaxBatchSize bounds one batch prediction request.
const MaxBatchSize = 1000

// Publisher receives each successful prediction, as its wire JSON,
// for fan-out to event feed subscribers. It must not block.
type Publisher interface {
	Publish(message []byte)
}

// PredictHandler classifies one measurement record.
//
// The outcome is persisted and published before it is returned, so
// history and the event feed never miss a prediction that a caller saw.
func PredictHandler(classifier *model.Model, dbPrediction kdb.PredictionInterface, publisher Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		measurements := apipredictions.Measurements{}
		if err := decodeBody(c, &measurements); err != nil {
			return err
		}
		if err := measurements.Validate(); err != nil {
			return apierr.BadRequest(err.Error(), err)
		}

		detail, record := predictOne(classifier, measurements, time.Now())
		if user, ok := CurrentUser(c); ok {
			record.UserId = &user.Id
		}

		if err := dbPrediction.Register(ctx, record); err != nil {
			return apierr.InternalServerError(err)
		}
		publish(publisher, detail)

		return c.JSON(http.StatusOK, detail)
	}
}

// PredictBatchHandler classifies up to MaxBatchSize records at once.
//
// All-or-nothing: every record is validated before any is classified,
// and a bad one fails the whole batch naming its index. The response
// keeps input order.
func PredictBatchHandler(classifier *model.Model, dbPrediction kdb.PredictionInterface, publisher Publisher) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		items := []json.RawMessage{}
		if err := decodeBody(c, &items); err != nil {
			return err
		}
		if MaxBatchSize < len(items) {
			return apierr.BadRequest(
				fmt.Sprintf("batch of %d records exceeds the limit of %d", len(items), MaxBatchSize),
				nil,
			)
		}

		// each record is decoded on its own so that failures can name
		// the offending index.
		batch := make([]apipredictions.Measurements, len(items))
		for nth, item := range items {
			decoder := json.NewDecoder(bytes.NewReader(item))
			decoder.DisallowUnknownFields()
			if err := decoder.Decode(&batch[nth]); err != nil {
				return apierr.BadRequest(fmt.Sprintf("record %d: %s", nth, err), err)
			}
			if err := batch[nth].Validate(); err != nil {
				return apierr.BadRequest(fmt.Sprintf("record %d: %s", nth, err), err)
			}
		}

		var userId *int
		if user, ok := CurrentUser(c); ok {
			userId = &user.Id
		}

		now := time.Now()
		details := make([]apipredictions.Detail, len(batch))
		for nth, measurements := range batch {
			detail, record := predictOne(classifier, measurements, now)
			record.UserId = userId

			if err := dbPrediction.Register(ctx, record); err != nil {
				return apierr.InternalServerError(err)
			}
			publish(publisher, detail)
			details[nth] = detail
		}

		return c.JSON(http.StatusOK, details)
	}
}

func predictOne(classifier *model.Model, measurements apipredictions.Measurements, at time.Time) (apipredictions.Detail, kdb.Prediction) {
	outcome := classifier.Predict([4]float64(measurements.Vector()))
	version := classifier.Metadata().Version
	id := uuid.NewString()

	detail := apipredictions.Detail{
		PredictionId:  id,
		Measurements:  measurements,
		Species:       outcome.Species,
		Confidence:    outcome.Confidence,
		Probabilities: outcome.Probabilities,
		ModelVersion:  version,
		Timestamp:     rfctime.New(at),
	}
	record := kdb.Prediction{
		PredictionId: id,
		SepalLength:  measurements.SepalLength,
		SepalWidth:   measurements.SepalWidth,
		PetalLength:  measurements.PetalLength,
		PetalWidth:   measurements.PetalWidth,
		Species:      outcome.Species,
		Confidence:   outcome.Confidence,
		ModelVersion: version,
		CreatedAt:    at,
	}
	return detail, record
}

func publish(publisher Publisher, detail apipredictions.Detail) {
	message, err := json.Marshal(detail)
	if err != nil {
		return
	}
	publisher.Publish(message)
}
