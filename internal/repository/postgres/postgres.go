package postgres

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/jackc/pgerrcode"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgconn"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gatekit/api/internal/domain"
	"github.com/gatekit/api/internal/repository"
)

// Repository implements persistence interfaces on PostgreSQL.
type Repository struct {
	pool *pgxpool.Pool
}

// New constructs a Repository.
func New(pool *pgxpool.Pool) *Repository {
	return &Repository{pool: pool}
}

// ensure Repository satisfies interfaces.
var _ repository.UserRepository = (*Repository)(nil)

const userColumns = `id, username, email, password_hash, role, is_verified, last_login, created_at`

// CreateUser inserts a user, assigning the identifier and creation
// timestamp. Unique-index violations map to repository.ErrConflict.
func (r *Repository) CreateUser(ctx context.Context, user *domain.User) error {
	if user.ID == "" {
		user.ID = uuid.NewString()
	}
	const query = `INSERT INTO users (id, username, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING created_at`
	err := r.pool.QueryRow(ctx, query, user.ID, user.Username, user.Email, user.PasswordHash, user.Role, user.IsVerified).Scan(&user.CreatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return repository.ErrConflict
		}
		return err
	}
	return nil
}

// GetUserByIdentifier matches either username or email against the
// normalized identifier.
func (r *Repository) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE username = $1 OR email = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, identifier))
}

// GetUserByID retrieves a user by identifier.
func (r *Repository) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	const query = `SELECT ` + userColumns + ` FROM users WHERE id = $1`
	return r.scanUser(r.pool.QueryRow(ctx, query, id))
}

// ExistsByUsernameOrEmail reports whether either unique field is taken.
func (r *Repository) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 OR email = $2)`
	var exists bool
	if err := r.pool.QueryRow(ctx, query, username, email).Scan(&exists); err != nil {
		return false, err
	}
	return exists, nil
}

// TouchLastLogin stamps last_login and returns the stored timestamp.
func (r *Repository) TouchLastLogin(ctx context.Context, id string) (time.Time, error) {
	const query = `UPDATE users SET last_login = CURRENT_TIMESTAMP WHERE id = $1 RETURNING last_login`
	var stamped time.Time
	if err := r.pool.QueryRow(ctx, query, id).Scan(&stamped); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return time.Time{}, repository.ErrNotFound
		}
		return time.Time{}, err
	}
	return stamped, nil
}

// EnsureDemoUser inserts the bootstrap account unless it already exists.
// A conflict on either unique field means an account already holds the
// username or email; seeding is then a no-op rather than a startup failure.
func (r *Repository) EnsureDemoUser(ctx context.Context, username, email string, passwordHash []byte) error {
	const query = `INSERT INTO users (id, username, email, password_hash, role, is_verified)
		VALUES ($1, $2, $3, $4, 'user', true)
		ON CONFLICT DO NOTHING`
	_, err := r.pool.Exec(ctx, query, uuid.NewString(), username, email, passwordHash)
	return err
}

// Ping verifies database connectivity.
func (r *Repository) Ping(ctx context.Context) error {
	return r.pool.Ping(ctx)
}

func (r *Repository) scanUser(row pgx.Row) (*domain.User, error) {
	var u domain.User
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &u.Role, &u.IsVerified, &u.LastLogin, &u.CreatedAt); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, repository.ErrNotFound
		}
		return nil, err
	}
	return &u, nil
}

func isUniqueViolation(err error) bool {
	var pgErr *pgconn.PgError
	return errors.As(err, &pgErr) && pgErr.Code == pgerrcode.UniqueViolation
}
