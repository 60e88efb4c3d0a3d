package service

import (
	"alcyxob/dating-app/internal/domain"
	"alcyxob/dating-app/internal/repository"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type memUsers struct {
	mu    sync.Mutex
	users map[string]domain.User
}

func newMemUsers() *memUsers { return &memUsers{users: map[string]domain.User{}} }

func (m *memUsers) Create(ctx context.Context, u *domain.User) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.users[u.Email]; ok {
		return "", repository.ErrDuplicate
	}
	id := "id-" + u.Email
	stored := *u
	stored.ID = id
	m.users[u.Email] = stored
	return id, nil
}

func (m *memUsers) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	u, ok := m.users[email]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &u, nil
}

func (m *memUsers) GetByID(ctx context.Context, id string) (*domain.User, error) {
	return nil, repository.ErrNotFound
}

func TestRegisterNormalizesEmailAndHidesHash(t *testing.T) {
	users := newMemUsers()
	svc := NewAuthService(users, "secret", time.Hour)

	user, err := svc.Register(context.Background(), "  Sam ", " Sam@Example.COM ", "password123")
	require.NoError(t, err)
	assert.Equal(t, "id-sam@example.com", user.ID)
	assert.Equal(t, "Sam", user.Name)
	assert.Equal(t, "sam@example.com", user.Email)
	assert.Empty(t, user.PasswordHash)
	assert.NotEmpty(t, users.users["sam@example.com"].PasswordHash)
}

func TestRegisterRejectsMissingFields(t *testing.T) {
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)

	_, err := svc.Register(context.Background(), "Sam", "sam@example.com", "short")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Register(context.Background(), " ", "sam@example.com", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = svc.Register(context.Background(), "Sam", "  ", "password123")
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestRegisterDuplicateEmail(t *testing.T) {
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)

	_, err := svc.Register(context.Background(), "Sam", "sam@example.com", "password123")
	require.NoError(t, err)
	_, err = svc.Register(context.Background(), "Sam", "SAM@example.com", "password123")
	assert.ErrorIs(t, err, ErrUserAlreadyExists)
}

func TestLoginIssuesOwnerToken(t *testing.T) {
	svc := NewAuthService(newMemUsers(), "secret", time.Hour)
	_, err := svc.Register(context.Background(), "Sam", "sam@example.com", "password123")
	require.NoError(t, err)

	token, user, err := svc.Login(context.Background(), "Sam@example.com", "password123")
	require.NoError(t, err)
	assert.Empty(t, user.PasswordHash)

	claims := &jwtClaims{}
	parsed, err := jwt.ParseWithClaims(token, claims, func(*jwt.Token) (interface{}, error) { return []byte("secret"), nil })
	require.NoError(t, err)
	assert.True(t, parsed.Valid)
	assert.Equal(t, "id-sam@example.com", claims.UserID)
	assert.Equal(t, "dating-app", claims.Issuer)

	_, _, err = svc.Login(context.Background(), "sam@example.com", "wrong-password")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
	_, _, err = svc.Login(context.Background(), "nobody@example.com", "password123")
	assert.ErrorIs(t, err, ErrAuthenticationFailed)
}
