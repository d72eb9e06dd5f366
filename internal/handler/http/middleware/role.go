package middleware

import (
	"fmt"
	"net/http"

	"github.com/fragranza-olio/ojt-backend/internal/domain/user"
	"github.com/fragranza-olio/ojt-backend/internal/handler/http/response"
	"github.com/fragranza-olio/ojt-backend/internal/pkg/jwt"
)

// RequireTrainee requires the OJT trainee role
func RequireTrainee(next http.Handler) http.Handler {
	return requireRole(user.ErrTraineeAccessRequired, user.RoleOJTTrainee)(next)
}

// RequireSupervisor requires a supervisor or an admin
func RequireSupervisor(next http.Handler) http.Handler {
	return requireRole(user.ErrSupervisorAccessRequired, user.RoleOJTSupervisor, user.RoleAdmin)(next)
}

func requireRole(denied error, roles ...user.Role) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.FromContext(r.Context())
			if err != nil {
				response.HandleError(w, denied)
				return
			}

			for _, role := range roles {
				if claims.Role == role {
					next.ServeHTTP(w, r)
					return
				}
			}
			response.HandleError(w, denied)
		})
	}
}

// RequirePermission checks if user has specific permission
func RequirePermission(permission user.Permission) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			claims, err := jwt.FromContext(r.Context())
			if err != nil {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s'", permission))
				return
			}

			if !user.HasPermission(claims.Role, permission) {
				response.Forbidden(w, fmt.Sprintf("Insufficient permissions: required '%s', but user role is '%s'", permission, claims.Role))
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
