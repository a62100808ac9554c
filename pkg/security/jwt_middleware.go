package security

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"equipment/pkg/roles"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

const (
	userIDKey = "userID"
	roleKey   = "role"
)

// JWTMiddleware validates the bearer token and stores its claims on the context.
// Tokens are issued by the identity service; this service only verifies them.
func JWTMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header missing"})
			c.Abort()
			return
		}

		tokenString := strings.TrimPrefix(authHeader, "Bearer ")

		token, err := jwt.Parse(tokenString, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method")
			}
			return secret, nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid token claims"})
			c.Abort()
			return
		}
		c.Set(userIDKey, claims[userIDKey])
		c.Set(roleKey, claims[roleKey])
		c.Next()
	}
}

// Authorize ensures the user has at least the required role.
func Authorize(requiredRole roles.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		role, exists := c.Get(roleKey)
		if !exists {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}
		roleName, ok := role.(string)
		if !ok {
			c.JSON(http.StatusInternalServerError, gin.H{"error": "Invalid role format"})
			c.Abort()
			return
		}

		userRole, err := roles.ParseRole(roleName)
		if err != nil || !userRole.HasPermission(requiredRole) {
			c.JSON(http.StatusForbidden, gin.H{"error": "Forbidden: insufficient permissions"})
			c.Abort()
			return
		}

		c.Next()
	}
}

// ActorID returns the authenticated operator set by JWTMiddleware.
func ActorID(c *gin.Context) (int64, error) {
	raw, exists := c.Get(userIDKey)
	if !exists || raw == nil {
		return 0, fmt.Errorf("no authenticated user")
	}

	var (
		id  int64
		err error
	)
	switch v := raw.(type) {
	case string:
		id, err = strconv.ParseInt(v, 10, 64)
	case float64:
		id = int64(v)
	case int64:
		id = v
	case int:
		id = int64(v)
	default:
		err = fmt.Errorf("unsupported userID type %T", raw)
	}
	if err != nil {
		return 0, fmt.Errorf("invalid userID claim: %w", err)
	}
	if id <= 0 {
		return 0, fmt.Errorf("invalid userID claim: %d", id)
	}

	return id, nil
}
