package middleware

// identity.go holds the context keys written by JWTAuth and the accessors
// handlers use to read them.

import "github.com/labstack/echo/v4"

const (
	ctxUserID    = "user_id"
	ctxEmail     = "email"
	ctxRequestID = "request_id"
)

// UserID returns the authenticated user's ID, or false on unauthenticated routes.
func UserID(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxUserID).(string)
	return s, ok && s != ""
}

// Email returns the email bound to the session token.
func Email(c echo.Context) (string, bool) {
	s, ok := c.Get(ctxEmail).(string)
	return s, ok && s != ""
}

// RequestID returns the id assigned by RequestLogger.
func RequestID(c echo.Context) string {
	s, _ := c.Get(ctxRequestID).(string)
	return s
}
