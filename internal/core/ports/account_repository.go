package ports

import (
	"context"
	"time"

	"github.com/JoyBrar2001/advanced-auth/internal/core/domain"
)

// AccountRepository defines the persistence boundary for user records.
//
// Token consumption is modelled as a single conditional update so that two
// concurrent requests can never both redeem the same token: the storage
// engine, not the service, decides the winner. Expiry is enforced by the
// lookup predicate only; there is no background sweep.
type AccountRepository interface {
	// Create inserts a new record. A duplicate email yields domain.ErrUserExists;
	// uniqueness is enforced by the store at write time.
	Create(ctx context.Context, user *domain.User) (*domain.User, error)

	// FindByEmail returns domain.ErrUserNotFound on a miss.
	FindByEmail(ctx context.Context, email string) (*domain.User, error)

	// FindByID returns domain.ErrUserNotFound on a miss.
	FindByID(ctx context.Context, id string) (*domain.User, error)

	// UpdateLastLogin stamps a successful login on the record.
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error

	// SaveResetToken attaches a pending password reset to the record,
	// replacing any previous pending reset.
	SaveResetToken(ctx context.Context, id, token string, expiresAt time.Time) error

	// ConsumeVerificationToken atomically finds the record whose verification
	// token equals code and is unexpired at now, marks it verified, and clears
	// both verification fields. Returns domain.ErrTokenInvalid when no record
	// matches, whether the code is wrong or merely expired.
	ConsumeVerificationToken(ctx context.Context, code string, now time.Time) (*domain.User, error)

	// ConsumeResetToken atomically finds the record whose reset token equals
	// token and is unexpired at now, replaces its password hash, and clears
	// both reset fields. Returns domain.ErrTokenInvalid when no record matches.
	ConsumeResetToken(ctx context.Context, token, passwordHash string, now time.Time) (*domain.User, error)
}
