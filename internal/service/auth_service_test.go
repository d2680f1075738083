package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/request-workflow/internal/config"
	"github.com/spec-kit/request-workflow/internal/repository"
)

func newAuthService() *AuthService {
	cfg := config.Config{}
	cfg.Auth.JWTSecret = "test-secret"
	cfg.Auth.AccessTokenTTLMinutes = 5
	cfg.Auth.BcryptCost = 4 // minimum cost keeps tests fast
	return NewAuthService(cfg, repository.NewMemoryUserRepository())
}

func TestRegisterAndLogin(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	user, err := svc.Register(ctx, "user1", "User One", "password1")
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.NotEqual(t, "password1", user.PasswordHash)

	logged, token, expiresAt, err := svc.Login(ctx, "user1", "password1")
	require.NoError(t, err)
	assert.Equal(t, user.ID, logged.ID)
	assert.NotEmpty(t, token)
	assert.False(t, expiresAt.IsZero())

	claims, err := svc.TokenManager().ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, user.ID, claims.PersonID)
}

func TestRegisterDuplicateUsername(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "user1", "User One", "password1")
	require.NoError(t, err)

	_, err = svc.Register(ctx, "user1", "Another", "password2")
	require.Error(t, err)
	assert.Equal(t, "CONFLICT", errCode(t, err))
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	svc := newAuthService()
	ctx := context.Background()

	_, err := svc.Register(ctx, "user1", "User One", "password1")
	require.NoError(t, err)

	_, _, _, err = svc.Login(ctx, "user1", "wrong")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))

	_, _, _, err = svc.Login(ctx, "ghost", "password1")
	require.Error(t, err)
	assert.Equal(t, "UNAUTHORIZED", errCode(t, err))
}
