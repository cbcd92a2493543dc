package repository

import (
	"context"
	"errors"
	"time"

	"github.com/novak29/thrive/internal/domain"
)

// ErrDuplicateEmail is returned by Create when the unique email index
// rejects the insert. Uniqueness is enforced by the store, not by
// application-level checks, so concurrent registrations for the same
// email cannot both succeed.
var ErrDuplicateEmail = errors.New("email already registered")

// UserRepository is the account store. Lookups return (nil, nil) when no
// record matches. Read operations exclude the password hash and the
// verification/reset token fields unless the caller explicitly asks for
// them via includeSecret.
type UserRepository interface {
	Create(ctx context.Context, user *domain.User) error
	GetByID(ctx context.Context, id string) (*domain.User, error)
	GetByEmail(ctx context.Context, email string, includeSecret bool) (*domain.User, error)
	UpdateProfile(ctx context.Context, id string, patch domain.ProfilePatch) (*domain.User, error)
	UpdateLastLogin(ctx context.Context, id string, at time.Time) error
}
