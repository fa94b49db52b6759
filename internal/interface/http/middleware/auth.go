package middleware

import (
	"strings"

	"github.com/arabella/vidforge/internal/apierr"
	"github.com/arabella/vidforge/internal/infrastructure/auth"
	"github.com/arabella/vidforge/internal/interface/http/httpresp"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const (
	// AuthorizationHeader is the header key for authorization
	AuthorizationHeader = "Authorization"
	// BearerPrefix is the prefix for bearer tokens
	BearerPrefix = "Bearer "
	// UserIDKey is the context key for the authenticated caller's id
	UserIDKey = "user_id"
)

// AuthMiddleware validates bearer tokens issued by the external
// identity provider and resolves the caller's userId.
type AuthMiddleware struct {
	validator *auth.Validator
}

// NewAuthMiddleware creates a new AuthMiddleware.
func NewAuthMiddleware(validator *auth.Validator) *AuthMiddleware {
	return &AuthMiddleware{validator: validator}
}

// RequireAuth rejects requests with a missing or invalid bearer token.
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		token := extractToken(c)
		if token == "" {
			httpresp.Error(c, apierr.ErrUnauthorized)
			return
		}

		claims, err := m.validator.Validate(token)
		if err != nil {
			httpresp.Error(c, err)
			return
		}

		c.Set(UserIDKey, claims.UserID)
		c.Next()
	}
}

func extractToken(c *gin.Context) string {
	authHeader := c.GetHeader(AuthorizationHeader)
	if authHeader != "" && strings.HasPrefix(authHeader, BearerPrefix) {
		return strings.TrimPrefix(authHeader, BearerPrefix)
	}
	return ""
}

// GetUserID extracts the authenticated caller's id from context.
func GetUserID(c *gin.Context) (uuid.UUID, bool) {
	userID, exists := c.Get(UserIDKey)
	if !exists {
		return uuid.Nil, false
	}
	return userID.(uuid.UUID), true
}
