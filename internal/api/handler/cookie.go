package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"
)

// sessionCookieName carries the signed session credential to the client.
const sessionCookieName = "token"

// setSessionCookie attaches the session credential as an HTTP-only,
// same-site-strict cookie. The secure flag is enabled only in production so
// local development over plain HTTP keeps working.
func setSessionCookie(c echo.Context, token string, ttl time.Duration, production bool) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   production,
	})
}

// clearSessionCookie expires the cookie with attributes matching the ones it
// was set with. This only invalidates the client's copy: the token itself
// stays cryptographically valid until its natural expiry.
func clearSessionCookie(c echo.Context, production bool) {
	c.SetCookie(&http.Cookie{
		Name:     sessionCookieName,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteStrictMode,
		Secure:   production,
	})
}
