package rest

import (
	"context"
	"fmt"

	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
)

func (c *client) Predict(ctx context.Context, m apipredictions.Measurements) (apipredictions.Detail, error) {
	resp, err := c.post(ctx, m, "predict")
	if err != nil {
		return apipredictions.Detail{}, err
	}
	defer resp.Body.Close()

	var detail apipredictions.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "prediction is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apipredictions.Detail{}, err
	}
	return detail, nil
}

func (c *client) PredictBatch(ctx context.Context, ms []apipredictions.Measurements) ([]apipredictions.Detail, error) {
	resp, err := c.post(ctx, ms, "predict", "batch")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	details := make([]apipredictions.Detail, 0, len(ms))
	if err := unmarshalJsonResponse(
		resp, &details,
		MessageFor{
			Status4xx: "batch prediction is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return nil, err
	}
	return details, nil
}
