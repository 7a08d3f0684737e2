package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"net/mail"
	"strconv"
	"strings"

	"github.com/labstack/echo/v4"

	bindusers "github.com/ai-field-tools/iris-api/pkg/api/bindings/users"
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	apierr "github.com/ai-field-tools/iris-api/pkg/api/types/errors"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/domain/auth"
	"github.com/ai-field-tools/iris-api/pkg/utils"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
)

// RegisterUserHandler creates a new account. Open to anonymous callers.
func RegisterUserHandler(dbUser kdb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.RegisterRequest{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}

		username := strings.TrimSpace(req.Username)
		if len(username) < minUsernameLength {
			return apierr.BadRequest(
				fmt.Sprintf(`"username" should be at least %d characters`, minUsernameLength), nil,
			)
		}
		if _, err := mail.ParseAddress(req.Email); err != nil {
			return apierr.BadRequest(`"email" should be an email address`, err)
		}
		if len(req.Password) < minPasswordLength {
			return apierr.BadRequest(
				fmt.Sprintf(`"password" should be at least %d characters`, minPasswordLength), nil,
			)
		}

		hashed, err := auth.HashPassword(req.Password)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		created, err := dbUser.Register(ctx, kdb.UserSpec{
			UserName:       username,
			Email:          req.Email,
			FullName:       utils.ZeroUnless(req.FullName),
			HashedPassword: hashed,
		})
		if errors.Is(err, kdb.ErrConflict) {
			return apierr.Conflict("username or email is already taken", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusCreated, bindusers.ComposeDetail(created))
	}
}

// FindUserHandler lists users as a page.
func FindUserHandler(dbUser kdb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		skip, limit, err := pagingParams(c)
		if err != nil {
			return err
		}
		query := kdb.UserFindQuery{Skip: skip, Limit: limit}

		if active := c.QueryParam("active_only"); active != "" {
			b, err := strconv.ParseBool(active)
			if err != nil {
				return apierr.BadRequest(`"active_only" should be a boolean`, err)
			}
			query.ActiveOnly = b
		}

		users, err := dbUser.Find(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		total, err := dbUser.Count(ctx, query)
		if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiauth.Page{
			Items: utils.Map(users, bindusers.ComposeDetail),
			Total: total,
		})
	}
}

func GetUserHandler(dbUser kdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest(`user id should be an integer`, err)
		}

		user, err := dbUser.Get(ctx, id)
		if errors.Is(err, kdb.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindusers.ComposeDetail(user))
	}
}

// UpdateUserHandler patches a user. Fields absent from the body are
// left as they are.
func UpdateUserHandler(dbUser kdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest(`user id should be an integer`, err)
		}

		req := apiauth.UserUpdate{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.Username != nil {
			trimmed := strings.TrimSpace(*req.Username)
			if len(trimmed) < minUsernameLength {
				return apierr.BadRequest(
					fmt.Sprintf(`"username" should be at least %d characters`, minUsernameLength), nil,
				)
			}
			req.Username = &trimmed
		}
		if req.Email != nil {
			if _, err := mail.ParseAddress(*req.Email); err != nil {
				return apierr.BadRequest(`"email" should be an email address`, err)
			}
		}

		updated, err := dbUser.Update(ctx, id, kdb.UserDelta{
			UserName: req.Username,
			Email:    req.Email,
			FullName: req.FullName,
			IsActive: req.IsActive,
		})
		if errors.Is(err, kdb.ErrMissing) {
			return apierr.NotFound()
		} else if errors.Is(err, kdb.ErrConflict) {
			return apierr.Conflict("username or email is already taken", apierr.WithError(err))
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, bindusers.ComposeDetail(updated))
	}
}

func DeleteUserHandler(dbUser kdb.UserInterface, paramKey string) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest(`user id should be an integer`, err)
		}

		if err := dbUser.Delete(ctx, id); errors.Is(err, kdb.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		return c.NoContent(http.StatusNoContent)
	}
}

// SetUserActiveHandler activates (active = true) or deactivates a user.
// Deactivation also revokes the user's refresh tokens, so a deactivated
// account cannot keep a session alive past its access token.
func SetUserActiveHandler(dbUser kdb.UserInterface, dbToken kdb.TokenInterface, paramKey string, active bool) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		id, err := strconv.Atoi(c.Param(paramKey))
		if err != nil {
			return apierr.BadRequest(`user id should be an integer`, err)
		}

		user, err := dbUser.SetActive(ctx, id, active)
		if errors.Is(err, kdb.ErrMissing) {
			return apierr.NotFound()
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		if !active {
			if err := dbToken.RevokeRefreshByUser(ctx, id); err != nil {
				return apierr.InternalServerError(err)
			}
		}

		return c.JSON(http.StatusOK, bindusers.ComposeDetail(user))
	}
}

// ChangePasswordHandler lets the authenticated user replace their own
// password, proving the current one first.
func ChangePasswordHandler(dbUser kdb.UserInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		user, ok := CurrentUser(c)
		if !ok {
			return unauthorizedBearer(c, "bearer access token is required", nil)
		}

		req := apiauth.PasswordChangeRequest{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.NewPassword != req.ConfirmPassword {
			return apierr.BadRequest(`"new_password" and "confirm_password" do not match`, nil)
		}
		if len(req.NewPassword) < minPasswordLength {
			return apierr.BadRequest(
				fmt.Sprintf(`"new_password" should be at least %d characters`, minPasswordLength), nil,
			)
		}
		if !auth.VerifyPassword(user.HashedPassword, req.CurrentPassword) {
			return apierr.Unauthorized("current password is incorrect", nil)
		}

		hashed, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbUser.SetPassword(ctx, user.Id, hashed); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiauth.Message{Message: "Password changed successfully."})
	}
}

// pagingParams reads skip (default 0) and limit (default 100).
func pagingParams(c echo.Context) (int, int, error) {
	skip, limit := 0, 100

	if p := c.QueryParam("skip"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n < 0 {
			return 0, 0, apierr.BadRequest(`"skip" should be a non-negative integer`, err)
		}
		skip = n
	}
	if p := c.QueryParam("limit"); p != "" {
		n, err := strconv.Atoi(p)
		if err != nil || n <= 0 {
			return 0, 0, apierr.BadRequest(`"limit" should be a positive integer`, err)
		}
		limit = n
	}

	return skip, limit, nil
}
