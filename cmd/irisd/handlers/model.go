package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bindmodels "github.com/ai-field-tools/iris-api/pkg/api/bindings/models"
	"github.com/ai-field-tools/iris-api/pkg/domain/model"
)

// GetModelHandler answers the loaded artifact's metadata.
// Raw parameters stay inside the process.
func GetModelHandler(classifier *model.Model) echo.HandlerFunc {
	return func(c echo.Context) error {
		return c.JSON(http.StatusOK, bindmodels.ComposeDetail(classifier.Metadata()))
	}
}
