package rest

import (
	"context"
	"fmt"

	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
)

func (c *client) Signin(ctx context.Context, username string, password string) (apiauth.LoginResponse, error) {
	resp, err := c.post(
		ctx,
		apiauth.LoginRequest{Username: username, Password: password},
		"auth", "login",
	)
	if err != nil {
		return apiauth.LoginResponse{}, err
	}
	defer resp.Body.Close()

	var tokens apiauth.LoginResponse
	if err := unmarshalJsonResponse(
		resp, &tokens,
		MessageFor{
			Status4xx: "signin is rejected",
			Status5xx: fmt.Sprintf("server error (status code = %d)", resp.StatusCode),
		},
	); err != nil {
		return apiauth.LoginResponse{}, err
	}
	return tokens, nil
}
