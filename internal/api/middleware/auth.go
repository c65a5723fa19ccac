package middleware

import (
	"errors"
	"log"
	"net/http"
	"strings"
	"time"

	"github.com/familyhub/family-access-backend/internal/service"
	"github.com/gin-gonic/gin"
)

const identityKey = "identity"

// AuthMiddleware validates the access token against the session store and
// sets the caller identity in the request context. Tokens scoped to a
// member whose access has since been revoked fail here, which is what
// makes revocation bite on already-issued sessions.
func AuthMiddleware(authService service.AuthService) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			log.Printf("[Auth] Missing Authorization header - Path: %s", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Authorization header required"})
			c.Abort()
			return
		}

		parts := strings.Split(authHeader, " ")
		if len(parts) != 2 || parts[0] != "Bearer" {
			log.Printf("[Auth] Invalid header format - Path: %s", c.Request.URL.Path)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid authorization header format"})
			c.Abort()
			return
		}

		identity, err := authService.Authenticate(c.Request.Context(), parts[1])
		if err != nil {
			if errors.Is(err, service.ErrProfileRevoked) {
				log.Printf("[Auth] Active profile revoked - Path: %s", c.Request.URL.Path)
				c.JSON(http.StatusUnauthorized, gin.H{"error": "Active profile access has been revoked, switch profiles and retry"})
				c.Abort()
				return
			}
			log.Printf("[Auth] Invalid token - Path: %s, Error: %v", c.Request.URL.Path, err)
			c.JSON(http.StatusUnauthorized, gin.H{"error": "Invalid or expired token"})
			c.Abort()
			return
		}

		c.Set(identityKey, identity)
		c.Next()
	}
}

// RequestLogger logs all incoming requests with details
func RequestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		method := c.Request.Method

		c.Next()

		duration := time.Since(start)
		status := c.Writer.Status()
		log.Printf("[%s] %s %d - %v", method, path, status, duration)

		if len(c.Errors) > 0 {
			for _, e := range c.Errors {
				log.Printf("[Error] %v", e.Err)
			}
		}
	}
}

// GetIdentity extracts the authenticated identity from gin context
func GetIdentity(c *gin.Context) *service.Identity {
	value, exists := c.Get(identityKey)
	if !exists {
		return nil
	}
	identity, ok := value.(*service.Identity)
	if !ok {
		return nil
	}
	return identity
}

// RequireIdentity returns error if no identity is in context
func RequireIdentity(c *gin.Context) (*service.Identity, bool) {
	identity := GetIdentity(c)
	if identity == nil {
		log.Printf("[Auth] User not authenticated - Path: %s", c.Request.URL.Path)
		c.JSON(http.StatusUnauthorized, gin.H{"error": "User not authenticated"})
		return nil, false
	}
	return identity, true
}
