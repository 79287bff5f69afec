package auth

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strings"

	"log/slog"

	"golang.org/x/crypto/bcrypt"

	"github.com/gatekit/api/internal/domain"
	"github.com/gatekit/api/internal/repository"
	"github.com/gatekit/api/pkg/config"
	"github.com/gatekit/api/pkg/crypto"
	jwtpkg "github.com/gatekit/api/pkg/jwt"
)

const (
	minUsernameLength = 3
	minPasswordLength = 6
	defaultRole       = "user"
)

// emailPattern is the basic local@domain.tld shape; anything stricter
// rejects real addresses.
var emailPattern = regexp.MustCompile(`\S+@\S+\.\S+`)

// Service handles the credential and session lifecycle.
type Service struct {
	users  repository.UserRepository
	logger *slog.Logger
	cfg    config.APIConfig
}

// New constructs a Service.
func New(users repository.UserRepository, logger *slog.Logger, cfg config.APIConfig) Service {
	return Service{users: users, logger: logger, cfg: cfg}
}

// Register validates and persists a new account. Validation is
// first-error-wins: the first violated rule is returned and later fields
// are not inspected. The username/email uniqueness pre-check is advisory;
// the store's unique indexes decide races, and a lost race surfaces as
// ErrUserExists all the same.
func (s Service) Register(ctx context.Context, username, email, password string) (*domain.User, error) {
	if strings.TrimSpace(username) == "" || strings.TrimSpace(email) == "" || password == "" {
		return nil, invalidInput("All fields are required")
	}
	if len(username) < minUsernameLength {
		return nil, invalidInput("Username must be at least 3 characters long")
	}
	if len(password) < minPasswordLength {
		return nil, invalidInput("Password must be at least 6 characters long")
	}
	if !emailPattern.MatchString(email) {
		return nil, invalidInput("Invalid email format")
	}

	username = normalize(username)
	email = normalize(email)

	exists, err := s.users.ExistsByUsernameOrEmail(ctx, username, email)
	if err != nil {
		return nil, fmt.Errorf("check existing user: %w", err)
	}
	if exists {
		return nil, ErrUserExists
	}

	hash, err := crypto.HashPassword(password)
	if err != nil {
		return nil, fmt.Errorf("hash password: %w", err)
	}

	user := &domain.User{
		Username:     username,
		Email:        email,
		PasswordHash: hash,
		Role:         defaultRole,
		IsVerified:   true,
	}
	if err := s.users.CreateUser(ctx, user); err != nil {
		if errors.Is(err, repository.ErrConflict) {
			return nil, ErrUserExists
		}
		return nil, fmt.Errorf("insert user: %w", err)
	}

	s.logger.Info("user registered", "user_id", user.ID, "username", user.Username)
	return user, nil
}

// Login verifies credentials and mints a session token. The identifier may
// be a username or an email. Unknown identifier and wrong password both
// return ErrInvalidCredentials.
func (s Service) Login(ctx context.Context, identifier, password string) (*domain.User, string, error) {
	if strings.TrimSpace(identifier) == "" || password == "" {
		return nil, "", invalidInput("Username and password are required")
	}

	user, err := s.users.GetUserByIdentifier(ctx, normalize(identifier))
	if err != nil {
		if errors.Is(err, repository.ErrNotFound) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("look up user: %w", err)
	}

	if err := crypto.ComparePassword(user.PasswordHash, password); err != nil {
		if errors.Is(err, bcrypt.ErrMismatchedHashAndPassword) {
			return nil, "", ErrInvalidCredentials
		}
		return nil, "", fmt.Errorf("verify password: %w", err)
	}

	stamped, err := s.users.TouchLastLogin(ctx, user.ID)
	if err != nil {
		return nil, "", fmt.Errorf("update last login: %w", err)
	}
	user.LastLogin = &stamped

	token, err := jwtpkg.GenerateToken(jwtpkg.Identity{
		UserID:   user.ID,
		Username: user.Username,
		Email:    user.Email,
		Role:     user.Role,
	}, s.cfg.JWTSecret, s.cfg.SessionTTL)
	if err != nil {
		return nil, "", fmt.Errorf("sign session token: %w", err)
	}

	s.logger.Info("user logged in", "user_id", user.ID)
	return user, token, nil
}

// Authorize validates a bearer token and returns the associated user and
// claims.
func (s Service) Authorize(ctx context.Context, token string) (*domain.User, *jwtpkg.Claims, error) {
	trimmed := strings.TrimSpace(token)
	if trimmed == "" {
		return nil, nil, errors.New("token required")
	}
	claims, err := jwtpkg.Parse(trimmed, s.cfg.JWTSecret)
	if err != nil {
		return nil, nil, err
	}
	user, err := s.users.GetUserByID(ctx, claims.UserID)
	if err != nil {
		return nil, nil, err
	}
	return user, claims, nil
}

// normalize applies the canonical identifier form used for storage and
// comparison.
func normalize(value string) string {
	return strings.ToLower(strings.TrimSpace(value))
}
