package service

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
	"github.com/JoyBrar2001/advanced-auth/internal/core/ports"
)

// AccountService implements the account lifecycle state machine. All token
// consumption is delegated to the repository as an atomic conditional update,
// so the service itself never holds locks across store calls.
type AccountService struct {
	repo      ports.AccountRepository
	mail      ports.MailQueue
	sessions  *SessionIssuer
	clientURL string
	log       zerolog.Logger

	// now is swapped in tests to pin the clock.
	now func() time.Time
}

func NewAccountService(
	repo ports.AccountRepository,
	mail ports.MailQueue,
	sessions *SessionIssuer,
	clientURL string,
	log zerolog.Logger,
) *AccountService {
	return &AccountService{
		repo:      repo,
		mail:      mail,
		sessions:  sessions,
		clientURL: strings.TrimRight(clientURL, "/"),
		log:       log,
		now:       time.Now,
	}
}

// Signup creates an unverified account with a pending 24h verification code.
// The record is persisted first; only then is the session issued and the
// verification email queued, so a failed insert leaves no side effects.
func (s *AccountService) Signup(ctx context.Context, email, password, name string) (*domain.User, string, error) {
	if email == "" || password == "" || name == "" {
		return nil, "", domain.NewValidationError("all fields are required")
	}

	// Existence pre-check; the unique index backstops the race between two
	// concurrent signups for the same email.
	if _, err := s.repo.FindByEmail(ctx, email); err == nil {
		return nil, "", domain.ErrUserExists
	} else if !errors.Is(err, domain.ErrUserNotFound) {
		return nil, "", fmt.Errorf("signup: %w", err)
	}

	hash, err := hashPassword(password)
	if err != nil {
		return nil, "", fmt.Errorf("signup: %w", err)
	}

	code, err := newVerificationCode()
	if err != nil {
		return nil, "", fmt.Errorf("signup: %w", err)
	}

	now := s.now().UTC()
	expiresAt := now.Add(verificationTTL)
	user := &domain.User{
		Email:                      email,
		PasswordHash:               hash,
		Name:                       name,
		IsVerified:                 false,
		VerificationToken:          code,
		VerificationTokenExpiresAt: &expiresAt,
		CreatedAt:                  now,
		UpdatedAt:                  now,
	}

	created, err := s.repo.Create(ctx, user)
	if err != nil {
		return nil, "", err
	}

	token, err := s.sessions.Issue(created.ID)
	if err != nil {
		return nil, "", fmt.Errorf("signup: %w", err)
	}

	// Delivery failure must not roll back the already-persisted account; the
	// queue workers log and drop.
	s.mail.Enqueue(ports.MailTask{Kind: ports.MailVerification, Email: created.Email, Code: code})

	s.log.Info().Str("user_id", created.ID).Str("email", created.Email).Msg("account created")
	return created, token, nil
}

// Login authenticates by email and password. Unknown email and wrong password
// collapse into a single ErrInvalidCredentials so responses cannot be used to
// enumerate accounts.
func (s *AccountService) Login(ctx context.Context, email, password string) (*domain.User, string, error) {
	if email == "" || password == "" {
		return nil, "", domain.NewValidationError("all fields are required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, domain.ErrUserNotFound) {
			return nil, "", domain.ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("login: %w", err)
	}

	if !verifyPassword(password, user.PasswordHash) {
		return nil, "", domain.ErrInvalidCredentials
	}

	token, err := s.sessions.Issue(user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}

	now := s.now().UTC()
	if err := s.repo.UpdateLastLogin(ctx, user.ID, now); err != nil {
		return nil, "", fmt.Errorf("login: %w", err)
	}
	user.LastLogin = &now

	s.log.Info().Str("user_id", user.ID).Msg("login succeeded")
	return user, token, nil
}

// VerifyEmail redeems a verification code. Wrong and expired codes are
// indistinguishable by design; a redeemed code never matches again because
// consumption clears it atomically at the store.
func (s *AccountService) VerifyEmail(ctx context.Context, code string) (*domain.User, error) {
	if code == "" {
		return nil, domain.NewValidationError("verification code is required")
	}

	user, err := s.repo.ConsumeVerificationToken(ctx, code, s.now().UTC())
	if err != nil {
		return nil, err
	}

	s.mail.Enqueue(ports.MailTask{Kind: ports.MailWelcome, Email: user.Email, Name: user.Name})

	s.log.Info().Str("user_id", user.ID).Msg("email verified")
	return user, nil
}

// ForgotPassword starts the reset sub-machine: a pending 1h reset token is
// attached to the record and a reset link is queued. Unknown email surfaces
// ErrUserNotFound, which does reveal account existence; source behavior,
// intentionally not harmonized with login.
func (s *AccountService) ForgotPassword(ctx context.Context, email string) error {
	if email == "" {
		return domain.NewValidationError("email is required")
	}

	user, err := s.repo.FindByEmail(ctx, email)
	if err != nil {
		return err
	}

	token, err := newResetToken()
	if err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	expiresAt := s.now().UTC().Add(resetTokenTTL)
	if err := s.repo.SaveResetToken(ctx, user.ID, token, expiresAt); err != nil {
		return fmt.Errorf("forgot password: %w", err)
	}

	s.mail.Enqueue(ports.MailTask{
		Kind:  ports.MailReset,
		Email: user.Email,
		URL:   s.clientURL + "/reset-password/" + token,
	})

	s.log.Info().Str("user_id", user.ID).Msg("password reset requested")
	return nil
}

// ResetPassword redeems a reset token and installs the new password hash in
// the same conditional update that clears the pending reset fields.
func (s *AccountService) ResetPassword(ctx context.Context, token, newPassword string) error {
	if token == "" || newPassword == "" {
		return domain.NewValidationError("all fields are required")
	}

	hash, err := hashPassword(newPassword)
	if err != nil {
		return fmt.Errorf("reset password: %w", err)
	}

	user, err := s.repo.ConsumeResetToken(ctx, token, hash, s.now().UTC())
	if err != nil {
		return err
	}

	s.mail.Enqueue(ports.MailTask{Kind: ports.MailResetSuccess, Email: user.Email})

	s.log.Info().Str("user_id", user.ID).Msg("password reset completed")
	return nil
}

// CheckAuth resolves a validated session's user id to the account record.
func (s *AccountService) CheckAuth(ctx context.Context, userID string) (*domain.User, error) {
	return s.repo.FindByID(ctx, userID)
}
