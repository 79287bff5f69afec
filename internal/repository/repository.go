package repository

import (
	"context"
	"time"

	"github.com/gatekit/api/internal/domain"
)

// UserRepository persists users. The username/email unique indexes are the
// actual uniqueness enforcers; ExistsByUsernameOrEmail is only a pre-check,
// and a losing check-then-insert race surfaces as ErrConflict from
// CreateUser.
type UserRepository interface {
	// CreateUser inserts a user, assigning the store identifier and
	// creation timestamp. Returns ErrConflict when the username or email
	// is already taken.
	CreateUser(ctx context.Context, user *domain.User) error

	// GetUserByIdentifier matches the normalized identifier against either
	// username or email.
	GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error)

	// GetUserByID retrieves a user by store identifier.
	GetUserByID(ctx context.Context, id string) (*domain.User, error)

	// ExistsByUsernameOrEmail reports whether either unique field is taken.
	ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error)

	// TouchLastLogin stamps last_login with the current time and returns
	// the stored timestamp. Safe to retry.
	TouchLastLogin(ctx context.Context, id string) (time.Time, error)

	// EnsureDemoUser inserts the bootstrap account unless the username is
	// already taken.
	EnsureDemoUser(ctx context.Context, username, email string, passwordHash []byte) error
}
