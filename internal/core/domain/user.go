package domain

import "time"

// User models an account in the system. The password hash never leaves the
// process: it is excluded from JSON and projected out of API responses.
type User struct {
	ID           string `json:"id"`
	Email        string `json:"email"`
	PasswordHash string `json:"-"`
	Name         string `json:"name"`
	IsVerified   bool   `json:"is_verified"`

	// Set only while an email verification is pending; cleared on consumption.
	VerificationToken          string     `json:"-"`
	VerificationTokenExpiresAt *time.Time `json:"-"`

	// Set only while a password reset is pending; cleared on consumption.
	ResetPasswordToken     string     `json:"-"`
	ResetPasswordExpiresAt *time.Time `json:"-"`

	LastLogin *time.Time `json:"last_login,omitempty"`
	CreatedAt time.Time  `json:"created_at"`
	UpdatedAt time.Time  `json:"updated_at"`
}

// VerificationPending reports whether the record carries an unconsumed
// verification token.
func (u *User) VerificationPending() bool {
	return u.VerificationToken != "" && u.VerificationTokenExpiresAt != nil
}

// ResetPending reports whether the record carries an unconsumed reset token.
func (u *User) ResetPending() bool {
	return u.ResetPasswordToken != "" && u.ResetPasswordExpiresAt != nil
}
