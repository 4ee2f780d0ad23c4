package domain

import "errors"

var (
	// ErrUserExists is returned when signup hits an email that is already taken.
	ErrUserExists = errors.New("user already exists")

	// ErrInvalidCredentials covers both an unknown email and a wrong password.
	// The two causes are deliberately indistinguishable so login cannot be used
	// to enumerate accounts.
	ErrInvalidCredentials = errors.New("invalid credentials")

	// ErrTokenInvalid covers both a token that never existed and one past its
	// expiry. The two causes collapse into one error on purpose.
	ErrTokenInvalid = errors.New("invalid or expired token")

	// ErrUserNotFound is returned by id/email lookups that miss. Note that
	// forgot-password surfaces this directly and therefore leaks account
	// existence, unlike login. Source behavior, kept as-is.
	ErrUserNotFound = errors.New("user not found")

	// ErrUnauthenticated is returned for a missing, malformed, expired, or
	// tampered session credential.
	ErrUnauthenticated = errors.New("unauthenticated")
)

// ValidationError marks missing or malformed client input. It maps to a 400
// at the transport layer and is never logged as a server fault.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string { return e.Msg }

// NewValidationError builds a ValidationError with a stable client-facing message.
func NewValidationError(msg string) error {
	return &ValidationError{Msg: msg}
}

// IsValidation reports whether err is a ValidationError.
func IsValidation(err error) bool {
	var ve *ValidationError
	return errors.As(err, &ve)
}
