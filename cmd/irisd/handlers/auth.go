package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	bindusers "github.com/ai-field-tools/iris-api/pkg/api/bindings/users"
	apiauth "github.com/ai-field-tools/iris-api/pkg/api/types/auth"
	apierr "github.com/ai-field-tools/iris-api/pkg/api/types/errors"
	kdb "github.com/ai-field-tools/iris-api/pkg/db"
	"github.com/ai-field-tools/iris-api/pkg/domain/auth"
)

const currentUserKey = "iris-api/current-user"

// CurrentUser is the user authenticated by RequireAuth or OptionalAuth.
func CurrentUser(c echo.Context) (kdb.User, bool) {
	user, ok := c.Get(currentUserKey).(kdb.User)
	return user, ok
}

// RequireAuth rejects requests without a valid bearer access token.
//
// "Valid" means: well-signed, not expired, not blacklisted, and naming
// an active user. The user is stored into the context for CurrentUser.
func RequireAuth(issuer *auth.Issuer, dbUser kdb.UserInterface, dbToken kdb.TokenInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			user, err := authenticate(c, issuer, dbUser, dbToken)
			if err != nil {
				return err
			}
			c.Set(currentUserKey, user)
			return next(c)
		}
	}
}

// OptionalAuth is RequireAuth for endpoints open to anonymous callers:
// no Authorization header passes through unauthenticated, but a
// presented token still has to be valid.
func OptionalAuth(issuer *auth.Issuer, dbUser kdb.UserInterface, dbToken kdb.TokenInterface) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if bearerToken(c) == "" {
				return next(c)
			}
			user, err := authenticate(c, issuer, dbUser, dbToken)
			if err != nil {
				return err
			}
			c.Set(currentUserKey, user)
			return next(c)
		}
	}
}

func authenticate(c echo.Context, issuer *auth.Issuer, dbUser kdb.UserInterface, dbToken kdb.TokenInterface) (kdb.User, error) {
	ctx := c.Request().Context()

	signed := bearerToken(c)
	if signed == "" {
		return kdb.User{}, unauthorizedBearer(c, "bearer access token is required", nil)
	}

	claims, err := issuer.Verify(signed, auth.TypeAccess)
	if err != nil {
		return kdb.User{}, unauthorizedBearer(c, "access token is invalid or expired", err)
	}

	if listed, err := dbToken.IsBlacklisted(ctx, claims.ID); err != nil {
		return kdb.User{}, apierr.InternalServerError(err)
	} else if listed {
		return kdb.User{}, unauthorizedBearer(c, "access token is revoked", nil)
	}

	user, err := dbUser.GetByName(ctx, claims.Subject)
	if errors.Is(err, kdb.ErrMissing) {
		return kdb.User{}, unauthorizedBearer(c, "access token is invalid or expired", err)
	} else if err != nil {
		return kdb.User{}, apierr.InternalServerError(err)
	}
	if !user.IsActive {
		return kdb.User{}, unauthorizedBearer(c, "account is deactivated", nil)
	}

	return user, nil
}

func bearerToken(c echo.Context) string {
	header := c.Request().Header.Get(echo.HeaderAuthorization)
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "bearer") {
		return ""
	}
	return strings.TrimSpace(token)
}

func unauthorizedBearer(c echo.Context, advice string, err error) *echo.HTTPError {
	c.Response().Header().Set(echo.HeaderWWWAuthenticate, "Bearer")
	return apierr.Unauthorized(advice, err)
}

// decodeBody reads the request body as JSON into `into`,
// rejecting unknown fields.
func decodeBody(c echo.Context, into any) error {
	decoder := json.NewDecoder(c.Request().Body)
	decoder.DisallowUnknownFields()
	if err := decoder.Decode(into); err != nil {
		return apierr.NewErrorMessage(
			http.StatusBadRequest,
			"format error",
			apierr.WithAdvice(err.Error()),
			apierr.WithError(err),
		)
	}
	return nil
}

// LoginHandler verifies credentials and issues an access + refresh
// token pair.
//
// The order of checks matters: throttling comes before any credential
// verification, so hammering a username stays cheap; the account lock
// comes next; only then is bcrypt consulted. Every attempt, good or
// bad, leaves a login_history row.
func LoginHandler(
	dbUser kdb.UserInterface,
	dbToken kdb.TokenInterface,
	dbLogin kdb.LoginInterface,
	issuer *auth.Issuer,
	throttle *auth.Throttle,
	lockAfter int,
	lockFor time.Duration,
) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.LoginRequest{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.Username == "" || req.Password == "" {
			return apierr.BadRequest(`"username" and "password" are required`, nil)
		}

		now := time.Now()

		// the throttle cache may have expired or been lost on restart.
		// re-prime it from login_history before judging.
		if _, known := throttle.Count(req.Username); !known {
			n, err := dbLogin.CountRecentFailures(ctx, req.Username, now.Add(-throttle.Window()))
			if err != nil {
				return apierr.InternalServerError(err)
			}
			throttle.Prime(req.Username, n)
		}
		if throttle.Blocked(req.Username) {
			return apierr.TooManyRequests("too many failed login attempts. retry later")
		}

		attempt := kdb.LoginRecord{
			UserName:   req.Username,
			RemoteAddr: c.RealIP(),
			UserAgent:  c.Request().UserAgent(),
			CreatedAt:  now,
		}

		user, err := dbUser.GetByName(ctx, req.Username)
		if errors.Is(err, kdb.ErrMissing) {
			attempt.Reason = "invalid credentials"
			return failLogin(c, dbLogin, throttle, attempt)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		attempt.UserId = &user.Id

		if user.IsLocked(now) {
			attempt.Reason = "account locked"
			if err := dbLogin.Record(ctx, attempt); err != nil {
				return apierr.InternalServerError(err)
			}
			throttle.Fail(req.Username)
			return apierr.Locked("the account is locked after too many failed logins. retry later")
		}

		if !auth.VerifyPassword(user.HashedPassword, req.Password) {
			if _, err := dbUser.DidFailLogin(ctx, user.Id, now, lockAfter, lockFor); err != nil {
				return apierr.InternalServerError(err)
			}
			attempt.Reason = "invalid credentials"
			return failLogin(c, dbLogin, throttle, attempt)
		}

		if !user.IsActive {
			attempt.Reason = "account deactivated"
			return failLogin(c, dbLogin, throttle, attempt)
		}

		if err := dbUser.DidLogin(ctx, user.Id, now); err != nil {
			return apierr.InternalServerError(err)
		}
		attempt.Success = true
		if err := dbLogin.Record(ctx, attempt); err != nil {
			return apierr.InternalServerError(err)
		}
		throttle.Clear(req.Username)

		access, err := issuer.Access(user.UserName)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		refresh, err := issuer.Refresh(user.UserName)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbToken.AddRefresh(ctx, kdb.RefreshToken{
			Jti:       refresh.Claims.ID,
			UserId:    user.Id,
			IssuedAt:  refresh.Claims.IssuedAt.Time,
			ExpiresAt: refresh.Claims.ExpiresAt.Time,
		}); err != nil {
			return apierr.InternalServerError(err)
		}

		user.LastLogin = &now
		return c.JSON(http.StatusOK, apiauth.LoginResponse{
			AccessToken:  access.Signed,
			RefreshToken: refresh.Signed,
			TokenType:    "bearer",
			ExpiresIn:    int(issuer.AccessTTL().Seconds()),
			User:         bindusers.ComposeDetail(user),
		})
	}
}

// failLogin records a failed attempt and answers the uniform 401:
// the response does not tell an unknown username from a wrong password.
func failLogin(c echo.Context, dbLogin kdb.LoginInterface, throttle *auth.Throttle, attempt kdb.LoginRecord) error {
	if err := dbLogin.Record(c.Request().Context(), attempt); err != nil {
		return apierr.InternalServerError(err)
	}
	throttle.Fail(attempt.UserName)
	return unauthorizedBearer(c, "username or password is incorrect", nil)
}

// RefreshTokenHandler exchanges a refresh token for a new access token.
//
// The refresh token has to verify AND be known to the database:
// a revoked or never-persisted jti is rejected even with a good
// signature.
func RefreshTokenHandler(dbUser kdb.UserInterface, dbToken kdb.TokenInterface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		req := apiauth.TokenRefreshRequest{}
		if err := decodeBody(c, &req); err != nil {
			return err
		}
		if req.RefreshToken == "" {
			return apierr.BadRequest(`"refresh_token" is required`, nil)
		}

		claims, err := issuer.Verify(req.RefreshToken, auth.TypeRefresh)
		if err != nil {
			return unauthorizedBearer(c, "refresh token is invalid or expired", err)
		}

		rec, err := dbToken.GetRefresh(ctx, claims.ID)
		if errors.Is(err, kdb.ErrMissing) {
			return unauthorizedBearer(c, "refresh token is invalid or revoked", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		if rec.Revoked {
			return unauthorizedBearer(c, "refresh token is invalid or revoked", nil)
		}
		if listed, err := dbToken.IsBlacklisted(ctx, claims.ID); err != nil {
			return apierr.InternalServerError(err)
		} else if listed {
			return unauthorizedBearer(c, "refresh token is invalid or revoked", nil)
		}

		user, err := dbUser.GetByName(ctx, claims.Subject)
		if errors.Is(err, kdb.ErrMissing) {
			return unauthorizedBearer(c, "refresh token is invalid or revoked", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}
		if !user.IsActive {
			return unauthorizedBearer(c, "account is deactivated", nil)
		}

		access, err := issuer.Access(user.UserName)
		if err != nil {
			return apierr.InternalServerError(err)
		}
		return c.JSON(http.StatusOK, apiauth.TokenRefreshResponse{
			AccessToken: access.Signed,
			TokenType:   "bearer",
			ExpiresIn:   int(issuer.AccessTTL().Seconds()),
		})
	}
}

// LogoutHandler blacklists the presented access token and revokes the
// user's refresh tokens.
//
// It verifies the token itself instead of going through RequireAuth:
// RequireAuth rejects blacklisted tokens, and logout must stay 200
// when called twice with the same token.
func LogoutHandler(dbUser kdb.UserInterface, dbToken kdb.TokenInterface, issuer *auth.Issuer) echo.HandlerFunc {
	return func(c echo.Context) error {
		ctx := c.Request().Context()

		signed := bearerToken(c)
		if signed == "" {
			return unauthorizedBearer(c, "bearer access token is required", nil)
		}
		claims, err := issuer.Verify(signed, auth.TypeAccess)
		if err != nil {
			return unauthorizedBearer(c, "access token is invalid or expired", err)
		}

		user, err := dbUser.GetByName(ctx, claims.Subject)
		if errors.Is(err, kdb.ErrMissing) {
			return unauthorizedBearer(c, "access token is invalid or expired", err)
		} else if err != nil {
			return apierr.InternalServerError(err)
		}

		if err := dbToken.Blacklist(ctx, claims.ID, claims.ExpiresAt.Time); err != nil {
			return apierr.InternalServerError(err)
		}
		if err := dbToken.RevokeRefreshByUser(ctx, user.Id); err != nil {
			return apierr.InternalServerError(err)
		}

		return c.JSON(http.StatusOK, apiauth.Message{Message: "Successfully logged out."})
	}
}

// GetMeHandler answers the authenticated user's own detail.
func GetMeHandler() echo.HandlerFunc {
	return func(c echo.Context) error {
		user, ok := CurrentUser(c)
		if !ok {
			return unauthorizedBearer(c, "bearer access token is required", nil)
		}
		return c.JSON(http.StatusOK, bindusers.ComposeDetail(user))
	}
}
