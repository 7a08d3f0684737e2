package rest

import (
	"context"
	"fmt"

	apimodels "github.com/ai-field-tools/iris-api/pkg/api/types/models"
)

func (c *client) GetModel(ctx context.Context) (apimodels.Detail, error) {
	resp, err := c.get(ctx, "model")
	if err != nil {
		return apimodels.Detail{}, err
	}
	defer resp.Body.Close()

	var detail apimodels.Detail
	if err := unmarshalJsonResponse(
		resp, &detail,
		MessageFor{
			Status4xx: "cannot get model metadata",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apimodels.Detail{}, err
	}
	return detail, nil
}
