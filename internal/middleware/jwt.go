package middleware // declare the middleware package; contains reusable HTTP middleware functions

import (
	"errors"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/iliyamo/learn-connect/internal/utils"
)

// TokenVerifier resolves a session token to the account it was issued for.
type TokenVerifier interface {
	Verify(raw string) (userID, email string, err error)
}

// JWTAuth returns an Echo middleware that validates a Bearer session token
// and stores its user ID and email in the request context.  Requests
// without a valid token are rejected with 401 before the handler runs.
// The account's verified flag is not re-checked: a token is only ever
// issued to a verified account.
func JWTAuth(tokens TokenVerifier) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			raw, ok := bearerToken(c.Request().Header.Get(echo.HeaderAuthorization))
			if !ok {
				return unauthorized(c, "Not authorized, no token")
			}
			userID, email, err := tokens.Verify(raw)
			if errors.Is(err, utils.ErrExpiredToken) {
				return unauthorized(c, "Not authorized, token expired")
			}
			if err != nil {
				return unauthorized(c, "Not authorized, token failed")
			}
			c.Set(ctxUserID, userID)
			c.Set(ctxEmail, email)
			return next(c)
		}
	}
}

// bearerToken extracts the token from an "Authorization: Bearer <token>"
// header. The scheme is matched case-insensitively.
func bearerToken(header string) (string, bool) {
	scheme, token, found := strings.Cut(strings.TrimSpace(header), " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

func unauthorized(c echo.Context, msg string) error {
	return c.JSON(http.StatusUnauthorized, echo.Map{"success": false, "message": msg})
}
