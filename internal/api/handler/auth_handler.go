package handler

import (
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/JoyBrar2001/advanced-auth/internal/api/metrics"
	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
)

// AuthHandler is the transport layer over the account service. It owns the
// cookie carrier; everything stateful lives behind the service interface.
type AuthHandler struct {
	service    ports.AccountService
	sessionTTL time.Duration
	production bool
}

func NewAuthHandler(service ports.AccountService, sessionTTL time.Duration, production bool) *AuthHandler {
	return &AuthHandler{service: service, sessionTTL: sessionTTL, production: production}
}

type signupRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
	Name     string `json:"name" validate:"required"`
}

type loginRequest struct {
	Email    string `json:"email" validate:"required"`
	Password string `json:"password" validate:"required"`
}

type verifyEmailRequest struct {
	Code string `json:"code" validate:"required"`
}

type forgotPasswordRequest struct {
	Email string `json:"email" validate:"required"`
}

type resetPasswordRequest struct {
	Password string `json:"password" validate:"required"`
}

type authResponse struct {
	Success bool         `json:"success"`
	Message string       `json:"message"`
	User    *domain.User `json:"user,omitempty"`
}

// Signup creates a new account and starts email verification.
//
// @Summary      Sign up a new account
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      signupRequest  true  "Account details"
// @Success      201   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      409   {object}  map[string]string
// @Failure      500   {object}  map[string]string
// @Router       /auth/signup [post]
func (h *AuthHandler) Signup(c echo.Context) error {
	var req signupRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.service.Signup(c.Request().Context(), req.Email, req.Password, req.Name)
	if err != nil {
		switch {
		case err == domain.ErrUserExists:
			metrics.SignupsTotal.WithLabelValues("duplicate").Inc()
		case domain.IsValidation(err):
			metrics.SignupsTotal.WithLabelValues("invalid").Inc()
		}
		return err
	}
	metrics.SignupsTotal.WithLabelValues("created").Inc()

	setSessionCookie(c, token, h.sessionTTL, h.production)
	return c.JSON(http.StatusCreated, authResponse{
		Success: true,
		Message: "user created successfully",
		User:    user,
	})
}

// Login authenticates an account and issues a session cookie.
//
// @Summary      Log in
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      loginRequest  true  "Credentials"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      401   {object}  map[string]string
// @Router       /auth/login [post]
func (h *AuthHandler) Login(c echo.Context) error {
	var req loginRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, token, err := h.service.Login(c.Request().Context(), req.Email, req.Password)
	if err != nil {
		metrics.LoginsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.LoginsTotal.WithLabelValues("success").Inc()

	setSessionCookie(c, token, h.sessionTTL, h.production)
	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "logged in successfully",
		User:    user,
	})
}

// Logout clears the session cookie. Always succeeds; the token itself is not
// revoked server-side.
//
// @Summary      Log out
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Router       /auth/logout [post]
func (h *AuthHandler) Logout(c echo.Context) error {
	clearSessionCookie(c, h.production)
	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "logged out successfully",
	})
}

// VerifyEmail redeems a 6-digit verification code.
//
// @Summary      Verify email address
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      verifyEmailRequest  true  "Verification code"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Router       /auth/verify-email [post]
func (h *AuthHandler) VerifyEmail(c echo.Context) error {
	var req verifyEmailRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	user, err := h.service.VerifyEmail(c.Request().Context(), req.Code)
	if err != nil {
		metrics.VerificationsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.VerificationsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "email verified successfully",
		User:    user,
	})
}

// ForgotPassword starts the password reset flow.
//
// @Summary      Request a password reset link
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        body  body      forgotPasswordRequest  true  "Account email"
// @Success      200   {object}  authResponse
// @Failure      400   {object}  map[string]string
// @Failure      404   {object}  map[string]string
// @Router       /auth/forgot-password [post]
func (h *AuthHandler) ForgotPassword(c echo.Context) error {
	var req forgotPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ForgotPassword(c.Request().Context(), req.Email); err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "password reset link sent to your email",
	})
}

// ResetPassword redeems a reset token carried in the URL path.
//
// @Summary      Reset the password
// @Tags         auth
// @Accept       json
// @Produce      json
// @Param        token  path      string                true  "Reset token"
// @Param        body   body      resetPasswordRequest  true  "New password"
// @Success      200    {object}  authResponse
// @Failure      400    {object}  map[string]string
// @Router       /auth/reset-password/{token} [post]
func (h *AuthHandler) ResetPassword(c echo.Context) error {
	var req resetPasswordRequest
	if err := c.Bind(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, "invalid payload")
	}
	if err := c.Validate(&req); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, err.Error())
	}

	if err := h.service.ResetPassword(c.Request().Context(), c.Param("token"), req.Password); err != nil {
		metrics.PasswordResetsTotal.WithLabelValues("failure").Inc()
		return err
	}
	metrics.PasswordResetsTotal.WithLabelValues("success").Inc()

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "password reset successful",
	})
}

// CheckAuth returns the account behind the validated session cookie.
//
// @Summary      Check the current session
// @Tags         auth
// @Produce      json
// @Success      200  {object}  authResponse
// @Failure      401  {object}  map[string]string
// @Failure      404  {object}  map[string]string
// @Router       /auth/check-auth [get]
func (h *AuthHandler) CheckAuth(c echo.Context) error {
	userID, err := ctxUserID(c)
	if err != nil {
		return err
	}

	user, err := h.service.CheckAuth(c.Request().Context(), userID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, authResponse{
		Success: true,
		Message: "authenticated",
		User:    user,
	})
}
