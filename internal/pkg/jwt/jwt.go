package jwt

import (
	"context"
	"fmt"
	"time"

	"github.com/go-chi/jwtauth/v5"
	"github.com/lestrrat-go/jwx/v2/jwt"

	"github.com/fragranza-olio/ojt-backend/internal/domain/auth"
	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
)

const (
	TokenTypeAccess = "access"
	TokenTypeSSE    = "sse"

	sseTokenLifetime = 5 * time.Minute
)

type Service interface {
	GenerateAccessToken(userID string, email string, role user.Role) (token string, expiresAt int64, err error)
	GenerateSSEToken(userID string) (token string, expiresIn int, err error)
	ValidateSSEToken(tokenString string) (userID string, err error)
	JWTAuth() *jwtauth.JWTAuth
}

type JWTService struct {
	accessTokenLifetime time.Duration
	tokenAuth           *jwtauth.JWTAuth
}

func (j *JWTService) JWTAuth() *jwtauth.JWTAuth {
	return j.tokenAuth
}

// NewJWTService builds an HS256 token service; accessTokenLifetime is a
// time.ParseDuration string such as "12h".
func NewJWTService(secretKey string, accessTokenLifetime string) (Service, error) {
	lifetime, err := time.ParseDuration(accessTokenLifetime)
	if err != nil {
		return nil, fmt.Errorf("invalid access token lifetime %q: %w", accessTokenLifetime, err)
	}
	return &JWTService{
		accessTokenLifetime: lifetime,
		tokenAuth:           jwtauth.New("HS256", []byte(secretKey), nil, jwt.WithAcceptableSkew(30*time.Second)),
	}, nil
}

func (j *JWTService) GenerateAccessToken(userID string, email string, role user.Role) (token string, expiresAt int64, err error) {
	expiresAt = time.Now().Add(j.accessTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"email":   email,
		"role":    string(role),
		"type":    TokenTypeAccess,
		"exp":     expiresAt,
	})
	return tokenString, expiresAt, err
}

// GenerateSSEToken issues a short-lived token for the event stream, which
// cannot carry an Authorization header from EventSource.
func (j *JWTService) GenerateSSEToken(userID string) (token string, expiresIn int, err error) {
	expiresAt := time.Now().Add(sseTokenLifetime).Unix()

	_, tokenString, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": userID,
		"type":    TokenTypeSSE,
		"exp":     expiresAt,
	})
	if err != nil {
		return "", 0, err
	}
	return tokenString, int(sseTokenLifetime.Seconds()), nil
}

func (j *JWTService) ValidateSSEToken(tokenString string) (userID string, err error) {
	token, err := jwtauth.VerifyToken(j.tokenAuth, tokenString)
	if err != nil {
		return "", auth.ErrInvalidToken
	}

	tokenType, ok := token.Get("type")
	if !ok || tokenType != TokenTypeSSE {
		return "", auth.ErrInvalidToken
	}

	userIDVal, ok := token.Get("user_id")
	if !ok {
		return "", auth.ErrMissingClaims
	}
	userID, ok = userIDVal.(string)
	if !ok || userID == "" {
		return "", auth.ErrMissingClaims
	}
	return userID, nil
}

// Claims is the caller identity carried by an access token.
type Claims struct {
	UserID string
	Email  string
	Role   user.Role
}

// FromContext reads the caller identity placed in ctx by jwtauth.Verifier.
func FromContext(ctx context.Context) (Claims, error) {
	token, claims, err := jwtauth.FromContext(ctx)
	if err != nil || token == nil {
		return Claims{}, auth.ErrInvalidToken
	}

	userID, ok := claims["user_id"].(string)
	if !ok || userID == "" {
		return Claims{}, auth.ErrMissingClaims
	}
	role, ok := claims["role"].(string)
	if !ok || role == "" {
		return Claims{}, auth.ErrMissingClaims
	}
	email, _ := claims["email"].(string)

	return Claims{UserID: userID, Email: email, Role: user.Role(role)}, nil
}

// NewContext stores claims in ctx the way jwtauth.Verifier does. Used by
// background jobs and tests that call services directly.
func (j *JWTService) NewContext(ctx context.Context, c Claims) (context.Context, error) {
	token, _, err := j.tokenAuth.Encode(map[string]interface{}{
		"user_id": c.UserID,
		"email":   c.Email,
		"role":    string(c.Role),
		"type":    TokenTypeAccess,
	})
	if err != nil {
		return nil, err
	}
	return jwtauth.NewContext(ctx, token, nil), nil
}
