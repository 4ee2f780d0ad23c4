package middleware

import (
	"github.com/labstack/echo/v4"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
	"github.com/JoyBrar2001/advanced-auth/internal/core/service"
)

// sessionCookieName matches the cookie the auth handlers set.
const sessionCookieName = "token"

// Session validates the session cookie and injects the user id into context.
// It fails closed: a missing, malformed, expired, or tampered credential
// yields a 401 without distinguishing the cause.
func Session(issuer *service.SessionIssuer) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			cookie, err := c.Cookie(sessionCookieName)
			if err != nil || cookie.Value == "" {
				return domain.ErrUnauthenticated
			}

			userID, err := issuer.Validate(cookie.Value)
			if err != nil {
				return domain.ErrUnauthenticated
			}

			c.Set("user_id", userID)
			return next(c)
		}
	}
}
