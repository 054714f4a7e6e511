// Package middleware contains echo middleware specific to the HTTP API.
package middleware

import (
	"strings"

	"procura/internal/delivery/http/response"
	"procura/internal/domain/entity"
	"procura/internal/domain/repository"
	"procura/internal/domain/service"
	"procura/internal/usecase"

	"github.com/labstack/echo/v4"
)

const actorContextKey = "actor"

// AuthMiddleware provides middleware for JWT authentication and authorization.
type AuthMiddleware struct {
	tokenSvc    service.TokenService
	accountRepo repository.AccountRepository
}

// NewAuthMiddleware is the constructor for AuthMiddleware.
func NewAuthMiddleware(tokenSvc service.TokenService, accountRepo repository.AccountRepository) *AuthMiddleware {
	return &AuthMiddleware{tokenSvc: tokenSvc, accountRepo: accountRepo}
}

// Authenticate validates the bearer access token and resolves the calling
// account into an Actor for the handlers. The account is loaded from storage
// so deactivation takes effect immediately, not at token expiry.
func (m *AuthMiddleware) Authenticate(next echo.HandlerFunc) echo.HandlerFunc {
	return func(c echo.Context) error {
		authHeader := c.Request().Header.Get("Authorization")
		if authHeader == "" {
			return response.Unauthorized(c, "MISSING_TOKEN", "Authorization header is missing")
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")
		if tokenString == authHeader {
			return response.Unauthorized(c, "INVALID_TOKEN_FORMAT", "Invalid token format, must be Bearer token")
		}

		claims, err := m.tokenSvc.ValidateAccessToken(tokenString)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "Invalid or expired token")
		}

		account, err := m.accountRepo.FindByID(c.Request().Context(), claims.AccountID)
		if err != nil {
			return response.Unauthorized(c, "INVALID_TOKEN", "Account no longer exists")
		}
		if !account.IsActive {
			return response.Forbidden(c, "ACCOUNT_INACTIVE", "Account has been deactivated")
		}

		c.Set(actorContextKey, usecase.Actor{
			AccountID:      account.ID,
			Role:           account.Role,
			OrganizationID: account.OrganizationID,
		})

		return next(c)
	}
}

// RequireRole is a middleware factory that restricts a route group to the
// given roles. It must be used AFTER the Authenticate middleware.
func (m *AuthMiddleware) RequireRole(roles ...entity.Role) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			actor, ok := ActorFromContext(c)
			if !ok {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied: role information missing")
			}

			if !entity.Roles(roles).Contains(actor.Role) {
				return response.Forbidden(c, "FORBIDDEN", "Permission denied for role '"+actor.Role.String()+"'")
			}

			return next(c)
		}
	}
}

// ActorFromContext retrieves the authenticated Actor stored by Authenticate.
func ActorFromContext(c echo.Context) (usecase.Actor, bool) {
	actor, ok := c.Get(actorContextKey).(usecase.Actor)

	return actor, ok
}
