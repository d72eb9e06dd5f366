package http

import (
	"encoding/json"
	"log/slog"
	"net/http"

	"github.com/fragranza-olio/ojt-backend/internal/domain/auth"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/response"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
)

type AuthHandler interface {
	Login(w http.ResponseWriter, r *http.Request)
	Me(w http.ResponseWriter, r *http.Request)
}

type AuthHandlerImpl struct {
	authService auth.AuthService
}

func NewAuthHandler(authService auth.AuthService) AuthHandler {
	return &AuthHandlerImpl{authService: authService}
}

// Login implements AuthHandler.
func (a *AuthHandlerImpl) Login(w http.ResponseWriter, r *http.Request) {
	var loginReq auth.LoginRequest

	if err := json.NewDecoder(r.Body).Decode(&loginReq); err != nil {
		slog.Error("Login decode error", "error", err)
		response.BadRequest(w, "Invalid request format", nil)
		return
	}

	tokenResponse, err := a.authService.Login(r.Context(), loginReq)
	if err != nil {
		response.HandleError(w, err)
		return
	}

	response.SuccessWithMessage(w, "Login successful", tokenResponse)
}

type meResponse struct {
	UserID string `json:"user_id"`
	Email  string `json:"email"`
	Role   string `json:"role"`
}

// Me returns the identity carried by the caller's access token.
func (a *AuthHandlerImpl) Me(w http.ResponseWriter, r *http.Request) {
	claims, err := jwt.FromContext(r.Context())
	if err != nil {
		response.HandleError(w, err)
		return
	}
	response.Success(w, meResponse{UserID: claims.UserID, Email: claims.Email, Role: string(claims.Role)})
}
