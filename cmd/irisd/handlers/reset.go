package handlers

import (
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"

	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	apierr "github.com/ai-field-tools/iris-api/pkg/api/types/errors"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/domain/auth"
)

// RequestPasswordResetHandler issues a single-use reset token.
//
// The answer is 202 whether or not the email is registered, so the
// endpoint cannot be used to probe for accounts. There is no mailer:
// the token shows up in the server log only.
func RequestPasswordResetHandler(dbUser kdb.UserInterface, dbReset kdb.ResetInterface, ttl time.Duration) echo.HandlerFunc {
	accepted := apiauth.Message{
		Message: "If the email is registered, a password reset token has been issued.",
	}

	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.PasswordResetRequest{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.Email == "" {
			return apierr.BadRequest(`"email" is required`, nil)
		}

		user, err := dbUser.GetByName(ctx, req.Email)
		if errors.Is(err, kdb.ErrMissing) {
			return c.JSON(http.StatusAccepted, accepted)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		now := time.Now()
		token := uuid.NewString()
		if err := dbReset.New(ctx, kdb.PasswordReset{
			Token:     token,
			UserId:    user.Id,
			CreatedAt: now,
			ExpiresAt: now.Add(ttl),
		}); err != nil {
			return apierr.InternalServerError(err)
		}

		c.Logger().Infof("password reset token for user %d: %s", user.Id, token)

		return c.JSON(http.StatusAccepted, accepted)
	}
}

// ConfirmPasswordResetHandler spends a reset token and replaces the
// password. Marking the token used and checking it are one atomic
// database operation, so a token never resets two passwords.
func ConfirmPasswordResetHandler(dbUser kdb.UserInterface, dbToken kdb.TokenInterface, dbReset kdb.ResetInterface) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.PasswordResetConfirm{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.Token == "" {
			return apierr.BadRequest(`"token" is required`, nil)
		}
		if len(req.NewPassword) < minPasswordLength {
			return apierr.BadRequest(
				fmt.Sprintf(`"new_password" should be at least %d characters`, minPasswordLength), nil,
			)
		}

		used, err := dbReset.Use(ctx, req.Token, time.Now())
		if errors.Is(err, kdb.ErrMissing) {
			return apierr.BadRequest("reset token is invalid, expired or already used", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		hashed, err := auth.HashPassword(req.NewPassword)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbUser.SetPassword(ctx, used.UserId, hashed); err != nil {
			return apierr.InternalServerError(err)
		}

		// sessions opened with the old password die here.
		if err := dbToken.RevokeRefreshByUser(ctx, used.UserId); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiauth.Message{Message: "Password has been reset."})
	}
}
