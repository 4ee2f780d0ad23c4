package handler

import (
	"github.com/labstack/echo/v4"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
)

// ctxUserID extracts the user id injected by the session middleware. An empty
// id means the middleware did not run or the credential failed validation;
// fail closed either way.
func ctxUserID(c echo.Context) (string, error) {
	userID, _ := c.Get("user_id").(string)
	if userID == "" {
		return "", domain.ErrUnauthenticated
	}
	return userID, nil
}
