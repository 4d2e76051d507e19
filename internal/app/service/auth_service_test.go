package service

import (
	"testing"
	"time"

	"github.com/sellora/sellora-backend/config"
	"github.com/sellora/sellora-backend/internal/app/model"
	"github.com/sellora/sellora-backend/internal/app/repository"
	"github.com/sellora/sellora-backend/internal/db"
	"github.com/sellora/sellora-backend/pkg/util"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupAuthServiceTest(t *testing.T) AuthService {
	testDB, err := db.SetupTestDB()
	require.NoError(t, err)
	t.Cleanup(func() {
		db.CleanupTestDB(testDB)
	})

	return NewAuthService(repository.NewUserRepository(testDB), config.JWTConfig{
		Secret:             "test-secret",
		AccessTokenExpiry:  15 * time.Minute,
		RefreshTokenExpiry: 24 * time.Hour,
	})
}

func TestAuthService_RegisterAndLogin(t *testing.T) {
	authService := setupAuthServiceTest(t)

	result, err := authService.Register(RegisterInput{
		Email:    "new@example.com",
		Password: "password123",
		Name:     "New User",
	})
	require.NoError(t, err)
	assert.Equal(t, model.RoleCustomer, result.User.Role)
	assert.NotEmpty(t, result.Tokens.AccessToken)

	claims, err := util.ValidateToken(result.Tokens.AccessToken, "test-secret")
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, claims.UserID)
	assert.Equal(t, "customer", claims.Role)

	login, err := authService.Login(LoginInput{
		Email:    "new@example.com",
		Password: "password123",
	})
	require.NoError(t, err)
	assert.Equal(t, result.User.ID, login.User.ID)
}

func TestAuthService_Register_DuplicateEmail(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, err := authService.Register(RegisterInput{
		Email: "dup@example.com", Password: "password123", Name: "A",
	})
	require.NoError(t, err)

	_, err = authService.Register(RegisterInput{
		Email: "dup@example.com", Password: "password456", Name: "B",
	})
	assert.ErrorIs(t, err, ErrEmailTaken)
}

func TestAuthService_Login_BadCredentials(t *testing.T) {
	authService := setupAuthServiceTest(t)

	_, err := authService.Register(RegisterInput{
		Email: "user@example.com", Password: "password123", Name: "User",
	})
	require.NoError(t, err)

	_, err = authService.Login(LoginInput{Email: "user@example.com", Password: "wrong"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	_, err = authService.Login(LoginInput{Email: "nobody@example.com", Password: "password123"})
	assert.ErrorIs(t, err, ErrInvalidCredentials)
}

func TestAuthService_GetUser(t *testing.T) {
	authService := setupAuthServiceTest(t)

	result, err := authService.Register(RegisterInput{
		Email: "me@example.com", Password: "password123", Name: "Me",
	})
	require.NoError(t, err)

	user, err := authService.GetUser(result.User.ID)
	require.NoError(t, err)
	assert.Equal(t, "me@example.com", user.Email)

	_, err = authService.GetUser(9999)
	assert.ErrorIs(t, err, ErrUserNotFound)
}
