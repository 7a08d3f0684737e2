package handlers

import (
	"github.com/labstack/echo/v4"

	"github.com/ai-field-tools/iris-api/pkg/events"
)

// EventsHandler upgrades the connection to a WebSocket and feeds it
// predictions until either side hangs up.
func EventsHandler(hub *events.Hub) echo.HandlerFunc {
	return func(c echo.Context) error {
		return hub.Serve(c.Response(), c.Request())
	}
}
