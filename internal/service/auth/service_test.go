package auth

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"
	"time"

	"log/slog"

	"github.com/gatekit/api/internal/domain"
	"github.com/gatekit/api/internal/repository"
	"github.com/gatekit/api/pkg/config"
	"github.com/gatekit/api/pkg/crypto"
	jwtpkg "github.com/gatekit/api/pkg/jwt"
)

type userRepoMock struct {
	createFunc          func(ctx context.Context, user *domain.User) error
	getByIdentifierFunc func(ctx context.Context, identifier string) (*domain.User, error)
	getByIDFunc         func(ctx context.Context, id string) (*domain.User, error)
	existsFunc          func(ctx context.Context, username, email string) (bool, error)
	touchFunc           func(ctx context.Context, id string) (time.Time, error)
	ensureDemoFunc      func(ctx context.Context, username, email string, passwordHash []byte) error
}

func (m *userRepoMock) CreateUser(ctx context.Context, user *domain.User) error {
	if m.createFunc == nil {
		return errors.New("unexpected CreateUser call")
	}
	return m.createFunc(ctx, user)
}

func (m *userRepoMock) GetUserByIdentifier(ctx context.Context, identifier string) (*domain.User, error) {
	if m.getByIdentifierFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByIdentifierFunc(ctx, identifier)
}

func (m *userRepoMock) GetUserByID(ctx context.Context, id string) (*domain.User, error) {
	if m.getByIDFunc == nil {
		return nil, repository.ErrNotFound
	}
	return m.getByIDFunc(ctx, id)
}

func (m *userRepoMock) ExistsByUsernameOrEmail(ctx context.Context, username, email string) (bool, error) {
	if m.existsFunc == nil {
		return false, nil
	}
	return m.existsFunc(ctx, username, email)
}

func (m *userRepoMock) TouchLastLogin(ctx context.Context, id string) (time.Time, error) {
	if m.touchFunc == nil {
		return time.Now().UTC(), nil
	}
	return m.touchFunc(ctx, id)
}

func (m *userRepoMock) EnsureDemoUser(ctx context.Context, username, email string, passwordHash []byte) error {
	if m.ensureDemoFunc == nil {
		return nil
	}
	return m.ensureDemoFunc(ctx, username, email, passwordHash)
}

func newLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func testConfig() config.APIConfig {
	return config.APIConfig{
		JWTSecret:  "test-secret",
		SessionTTL: 7 * 24 * time.Hour,
	}
}

func TestRegisterPersistsHashedUser(t *testing.T) {
	var created *domain.User
	repo := &userRepoMock{
		existsFunc: func(_ context.Context, username, email string) (bool, error) {
			if username != "demo" || email != "demo@example.com" {
				t.Fatalf("expected normalized pre-check, got %q / %q", username, email)
			}
			return false, nil
		},
		createFunc: func(_ context.Context, user *domain.User) error {
			user.ID = "user-1"
			user.CreatedAt = time.Now().UTC()
			created = user
			return nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	user, err := svc.Register(context.Background(), "  Demo ", " DEMO@Example.COM ", "demopass123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if created == nil {
		t.Fatalf("expected user to be persisted")
	}
	if user.Username != "demo" || user.Email != "demo@example.com" {
		t.Fatalf("expected normalized fields, got %q / %q", user.Username, user.Email)
	}
	if user.Role != "user" {
		t.Fatalf("expected default role, got %q", user.Role)
	}
	if !user.IsVerified {
		t.Fatalf("expected is_verified to default to true")
	}
	if string(user.PasswordHash) == "demopass123" || len(user.PasswordHash) == 0 {
		t.Fatalf("expected opaque password hash")
	}
	if err := crypto.ComparePassword(user.PasswordHash, "demopass123"); err != nil {
		t.Fatalf("stored hash should verify the original password: %v", err)
	}
	if err := crypto.ComparePassword(user.PasswordHash, "some other password"); err == nil {
		t.Fatalf("stored hash must reject a different password")
	}
}

func TestRegisterValidatesFirstErrorWins(t *testing.T) {
	svc := New(&userRepoMock{}, newLogger(), testConfig())

	cases := []struct {
		name     string
		username string
		email    string
		password string
		message  string
	}{
		{"missing fields", "", "demo@example.com", "demopass123", "All fields are required"},
		{"blank username", "   ", "demo@example.com", "demopass123", "All fields are required"},
		{"short username", "ab", "demo@example.com", "demopass123", "Username must be at least 3 characters long"},
		{"short password", "demo", "demo@example.com", "short", "Password must be at least 6 characters long"},
		{"bad email", "demo", "not-an-email", "demopass123", "Invalid email format"},
		// username is checked before password, password before email
		{"short username and password", "ab", "bad", "x", "Username must be at least 3 characters long"},
		{"short password and bad email", "demo", "bad", "x", "Password must be at least 6 characters long"},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := svc.Register(context.Background(), tc.username, tc.email, tc.password)
			var verr *ValidationError
			if !errors.As(err, &verr) {
				t.Fatalf("expected validation error, got %v", err)
			}
			if verr.Message != tc.message {
				t.Fatalf("expected message %q, got %q", tc.message, verr.Message)
			}
		})
	}
}

func TestRegisterRejectsDuplicates(t *testing.T) {
	repo := &userRepoMock{
		existsFunc: func(_ context.Context, _, _ string) (bool, error) {
			return true, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "Demo", "demo@example.com", "demopass123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestRegisterMapsInsertRaceToConflict(t *testing.T) {
	// The pre-check passes but a concurrent registration wins the insert;
	// the unique index reports the violation.
	repo := &userRepoMock{
		existsFunc: func(_ context.Context, _, _ string) (bool, error) {
			return false, nil
		},
		createFunc: func(_ context.Context, _ *domain.User) error {
			return repository.ErrConflict
		},
	}
	svc := New(repo, newLogger(), testConfig())

	if _, err := svc.Register(context.Background(), "demo", "demo@example.com", "demopass123"); !errors.Is(err, ErrUserExists) {
		t.Fatalf("expected ErrUserExists, got %v", err)
	}
}

func TestLoginValidatesPresence(t *testing.T) {
	svc := New(&userRepoMock{}, newLogger(), testConfig())

	_, _, err := svc.Login(context.Background(), "", "demopass123")
	var verr *ValidationError
	if !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
	if verr.Message != "Username and password are required" {
		t.Fatalf("unexpected message %q", verr.Message)
	}
	if _, _, err := svc.Login(context.Background(), "demo", ""); !errors.As(err, &verr) {
		t.Fatalf("expected validation error, got %v", err)
	}
}

func TestLoginUniformInvalidCredentials(t *testing.T) {
	hash, err := crypto.HashPassword("demopass123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	repo := &userRepoMock{
		getByIdentifierFunc: func(_ context.Context, identifier string) (*domain.User, error) {
			if identifier == "demo" {
				return &domain.User{ID: "user-1", Username: "demo", PasswordHash: hash}, nil
			}
			return nil, repository.ErrNotFound
		},
	}
	svc := New(repo, newLogger(), testConfig())

	_, _, unknownErr := svc.Login(context.Background(), "nobody", "demopass123")
	_, _, wrongPassErr := svc.Login(context.Background(), "demo", "wrongpass")

	if !errors.Is(unknownErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for unknown identifier, got %v", unknownErr)
	}
	if !errors.Is(wrongPassErr, ErrInvalidCredentials) {
		t.Fatalf("expected ErrInvalidCredentials for wrong password, got %v", wrongPassErr)
	}
	if unknownErr.Error() != wrongPassErr.Error() {
		t.Fatalf("both failure modes must be indistinguishable: %q vs %q", unknownErr, wrongPassErr)
	}
}

func TestLoginIssuesTokenAndTouchesLastLogin(t *testing.T) {
	hash, err := crypto.HashPassword("demopass123")
	if err != nil {
		t.Fatalf("hash password: %v", err)
	}
	stamped := time.Now().UTC().Truncate(time.Second)
	touched := false
	repo := &userRepoMock{
		getByIdentifierFunc: func(_ context.Context, identifier string) (*domain.User, error) {
			if identifier != "demo@example.com" {
				t.Fatalf("expected normalized identifier, got %q", identifier)
			}
			return &domain.User{
				ID:           "user-1",
				Username:     "demo",
				Email:        "demo@example.com",
				PasswordHash: hash,
				Role:         "user",
			}, nil
		},
		touchFunc: func(_ context.Context, id string) (time.Time, error) {
			if id != "user-1" {
				t.Fatalf("unexpected user id %q", id)
			}
			touched = true
			return stamped, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	user, token, err := svc.Login(context.Background(), " DEMO@Example.com ", "demopass123")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !touched {
		t.Fatalf("expected last login to be touched")
	}
	if user.LastLogin == nil || !user.LastLogin.Equal(stamped) {
		t.Fatalf("expected last login %v, got %v", stamped, user.LastLogin)
	}

	claims, err := jwtpkg.Parse(token, "test-secret")
	if err != nil {
		t.Fatalf("parse issued token: %v", err)
	}
	if claims.UserID != "user-1" || claims.Username != "demo" || claims.Email != "demo@example.com" || claims.Role != "user" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestAuthorizeRoundTrip(t *testing.T) {
	repo := &userRepoMock{
		getByIDFunc: func(_ context.Context, id string) (*domain.User, error) {
			if id != "user-1" {
				return nil, repository.ErrNotFound
			}
			return &domain.User{ID: "user-1", Username: "demo", Email: "demo@example.com", Role: "user"}, nil
		},
	}
	svc := New(repo, newLogger(), testConfig())

	token, err := jwtpkg.GenerateToken(jwtpkg.Identity{
		UserID:   "user-1",
		Username: "demo",
		Email:    "demo@example.com",
		Role:     "user",
	}, "test-secret", time.Hour)
	if err != nil {
		t.Fatalf("generate token: %v", err)
	}

	user, claims, err := svc.Authorize(context.Background(), token)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if user.ID != "user-1" {
		t.Fatalf("unexpected user %q", user.ID)
	}
	if claims.Role != "user" {
		t.Fatalf("unexpected role claim %q", claims.Role)
	}

	if _, _, err := svc.Authorize(context.Background(), "  "); err == nil {
		t.Fatalf("expected empty token to be rejected")
	}
	if _, _, err := svc.Authorize(context.Background(), strings.Repeat("x", 32)); err == nil {
		t.Fatalf("expected malformed token to be rejected")
	}
}
