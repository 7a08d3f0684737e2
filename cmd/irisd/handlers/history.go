package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	bindpredictions "github.com/ai-field-tools/iris-api/pkg/api/bindings/predictions"
	bindusers "github.com/ai-field-tools/iris-api/pkg/api/bindings/users"
	apierr "github.com/ai-field-tools/iris-api/pkg/api/types/errors"
	apipredictions "github.com/ai-field-tools/iris-api/pkg/api/types/predictions"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/utils"
	"github.com/ai-field-tools/iris-api/pkg/utils/rfctime"
)

// FindPredictionHandler pages through persisted predictions, newest
// first. since/until take RFC3339 timestamps and bound the page as
// [since, until).
func FindPredictionHandler(dbPrediction kdb.PredictionInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		query, err := func(c echo.Context) (kdb.PredictionFindQuery, error) {
			result := kdb.PredictionFindQuery{}

			var err error
			if result.Skip, result.Limit, err = pagingParams(c); err != nil {
				return kdb.PredictionFindQuery{}, err
			}

			if since := c.QueryParam("since"); since != "" {
				t, err := rfctime.ParseRFC3339DateTime(since)
				if err != nil {
					return kdb.PredictionFindQuery{}, apierr.BadRequest(
						`"since" should be a RFC3339 date-time format`, err,
					)
				}
				_t := t.Time()
				result.Since = &_t
			}

			if until := c.QueryParam("until"); until != "" {
				t, err := rfctime.ParseRFC3339DateTime(until)
				if err != nil {
					return kdb.PredictionFindQuery{}, apierr.BadRequest(
						`"until" should be a RFC3339 date-time format`, err,
					)
				}
				_t := t.Time()
				result.Until = &_t
			}

			if result.Since != nil && result.Until != nil && !result.Since.Before(*result.Until) {
				return kdb.PredictionFindQuery{}, apierr.BadRequest(
					`"since" should be earlier than "until"`, nil,
				)
			}

			return result, nil
		}(c)
		if err != nil {
			return err
		}

		ctx := c.Request().Context()

		records, err := dbPrediction.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		total, err := dbPrediction.Count(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apipredictions.Page{
			Items: utils.Map(records, bindpredictions.ComposeDetail),
			Total: total,
		})
	}
}

// GetLoginHistoryHandler lists the calling user's own login attempts,
// newest first.
func GetLoginHistoryHandler(dbLogin kdb.LoginInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		user, ok := CurrentUser(c)
		if !ok {
			return unauthorizedBearer(c, "bearer access token is required", nil)
		}

		skip, limit, err := pagingParams(c)
		if err != nil {
			return err
		}

		records, err := dbLogin.FindByUser(ctx, user.Id, skip, limit)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, utils.Map(records, bindusers.ComposeLoginRecord))
	}
}
