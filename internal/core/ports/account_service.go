package ports

import (
	"context"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
)

// AccountService drives the account lifecycle: signup, verification, login,
// password reset, and session checks. Logout lives at the transport layer
// because it only clears the cookie carrier.
type AccountService interface {
	// Signup creates an unverified account, issues a session token for it, and
	// queues a verification email. The record is persisted before the session
	// is issued and before any notification is queued.
	Signup(ctx context.Context, email, password, name string) (*domain.User, string, error)

	// Login authenticates by email and password and issues a session token.
	// Unknown email and wrong password both yield domain.ErrInvalidCredentials.
	Login(ctx context.Context, email, password string) (*domain.User, string, error)

	// VerifyEmail redeems a 6-digit verification code. The code is single-use:
	// redeeming it again yields domain.ErrTokenInvalid.
	VerifyEmail(ctx context.Context, code string) (*domain.User, error)

	// ForgotPassword attaches a reset token to the account and queues a reset
	// link email. Unknown email yields domain.ErrUserNotFound.
	ForgotPassword(ctx context.Context, email string) error

	// ResetPassword redeems a reset token and installs a new password hash.
	ResetPassword(ctx context.Context, token, newPassword string) error

	// CheckAuth resolves a validated session's user id back to the account.
	CheckAuth(ctx context.Context, userID string) (*domain.User, error)
}
