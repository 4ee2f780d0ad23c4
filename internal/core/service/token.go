package service

import (
	"crypto/rand"
	"encoding/hex"
	"fmt"
	"math/big"
	"time"
)

const (
	// verificationTTL bounds how long a signup verification code stays valid.
	verificationTTL = 24 * time.Hour
	// resetTokenTTL bounds how long a password reset token stays valid.
	resetTokenTTL = time.Hour
	// resetTokenBytes is the entropy of a reset token before hex encoding.
	resetTokenBytes = 20
)

// newVerificationCode returns a 6-digit numeric code uniform in [100000, 999999].
func newVerificationCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(900000))
	if err != nil {
		return "", fmt.Errorf("generate verification code: %w", err)
	}
	return fmt.Sprintf("%06d", n.Int64()+100000), nil
}

// newResetToken returns an opaque hex token carrying resetTokenBytes of entropy.
func newResetToken() (string, error) {
	b := make([]byte, resetTokenBytes)
	if _, err := rand.Read(b); err != nil {
		return "", fmt.Errorf("generate reset token: %w", err)
	}
	return hex.EncodeToString(b), nil
}
