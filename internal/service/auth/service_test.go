package auth

import (
	"context"
	"testing"

	"github.com/go-chi/jwtauth/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fragranza-olio/ojt-backend/internal/domain/auth"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
)

const (
	testAccessExp = "1h"
	testSecret    = "test-secret-key-for-jwt"
)

type memoryUsers map[string]user.User

func (m memoryUsers) GetByID(ctx context.Context, id string) (user.User, error) {
	for _, u := range m {
		if u.ID == id {
			return u, nil
		}
	}
	return user.User{}, user.ErrUserNotFound
}

func (m memoryUsers) GetByEmail(ctx context.Context, email string) (user.User, error) {
	u, ok := m[email]
	if !ok {
		return user.User{}, user.ErrUserNotFound
	}
	return u, nil
}

func (m memoryUsers) ListTrainees(ctx context.Context, supervisorID string) ([]user.User, error) {
	return nil, nil
}

func setupAuthService(t *testing.T) (auth.AuthService, jwt.Service) {
	t.Helper()
	hash, err := HashPassword("password123")
	require.NoError(t, err)

	users := memoryUsers{
		"ana@fragranza.test":   {ID: "trainee-1", Email: "ana@fragranza.test", FullName: "Ana Reyes", Role: user.RoleOJTTrainee, PasswordHash: &hash},
		"kiosk@fragranza.test": {ID: "kiosk-1", Email: "kiosk@fragranza.test", FullName: "Kiosk", Role: user.RoleOJTTrainee},
	}
	jwtService, err := jwt.NewJWTService(testSecret, testAccessExp)
	require.NoError(t, err)
	return NewAuthService(users, jwtService), jwtService
}

func TestLogin_Success(t *testing.T) {
	svc, jwtService := setupAuthService(t)

	resp, err := svc.Login(context.Background(), auth.LoginRequest{
		Email:    " Ana@Fragranza.test ",
		Password: "password123",
	})

	require.NoError(t, err)
	assert.NotEmpty(t, resp.AccessToken)
	assert.Greater(t, resp.AccessTokenExpiresIn, int64(0))
	assert.Equal(t, "trainee-1", resp.UserID)
	assert.Equal(t, "Ana Reyes", resp.FullName)
	assert.Equal(t, string(user.RoleOJTTrainee), resp.Role)

	token, err := jwtauth.VerifyToken(jwtService.JWTAuth(), resp.AccessToken)
	require.NoError(t, err)
	claims, err := jwt.FromContext(jwtauth.NewContext(context.Background(), token, nil))
	require.NoError(t, err)
	assert.Equal(t, "trainee-1", claims.UserID)
	assert.Equal(t, user.RoleOJTTrainee, claims.Role)
}

func TestLogin_InvalidCredentials(t *testing.T) {
	svc, _ := setupAuthService(t)

	tests := []struct {
		name     string
		email    string
		password string
	}{
		{"wrong password", "ana@fragranza.test", "wrong-password"},
		{"unknown email", "nobody@fragranza.test", "password123"},
		{"no password set", "kiosk@fragranza.test", "password123"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Login(context.Background(), auth.LoginRequest{Email: tt.email, Password: tt.password})
			assert.ErrorIs(t, err, auth.ErrInvalidCredentials)
		})
	}
}

func TestLogin_ValidationError(t *testing.T) {
	svc, _ := setupAuthService(t)

	_, err := svc.Login(context.Background(), auth.LoginRequest{Email: "not-an-email", Password: "short"})

	require.Error(t, err)
	assert.NotErrorIs(t, err, auth.ErrInvalidCredentials)
}
