package handlers

import (
	"context"
	"net/http"

	"github.com/labstack/echo/v4"

	apihealth "github.com/ai-field-tools/iris-api/pkg/api/types/health"
)

// Pinger tests that the backing database accepts connections.
type Pinger interface {
	Ping(ctx context.Context) error
}

// RootHandler answers the plain liveness banner.
func RootHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, apihealth.RootMessage{
			Message: "Iris Classification API is running.",
		})
	}
}

// HealthHandler reports 200 when the model is loaded and the database
// answers a ping, 503 otherwise. The body carries both findings either
// way.
func HealthHandler(db Pinger, modelLoaded bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		status := apihealth.Status{
			Status:      "ok",
			ModelLoaded: modelLoaded,
			Database:    "ok",
		}

		if err := db.Ping(c.Request().Context()); err != nil {
			status.Database = "unreachable"
		}

		if !status.ModelLoaded || status.Database != "ok" {
			status.Status = "unavailable"
			return c.JSON(http.StatusServiceUnavailable, status)
		}
		return c.JSON(http.StatusOK, status)
	}
}
