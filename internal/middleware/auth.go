package middleware

import (
	"crypto/subtle"
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

const InternalTokenHeader = "X-Internal-Token"

type AuthMiddleware struct {
	secret        string
	internalToken string
}

func NewAuthMiddleware(secret, internalToken string) *AuthMiddleware {
	return &AuthMiddleware{
		secret:        secret,
		internalToken: internalToken,
	}
}

// RequireAuth verifies a Bearer JWT issued by the auth service and stores
// its subject as "user_id".
func (m *AuthMiddleware) RequireAuth() gin.HandlerFunc {
	return func(c *gin.Context) {
		tokenString := ""
		authHeader := c.GetHeader("Authorization")

		if authHeader != "" {
			parts := strings.Split(authHeader, " ")
			if len(parts) == 2 && parts[0] == "Bearer" {
				tokenString = parts[1]
			}
		}

		if tokenString == "" {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "authorization required"})
			c.Abort()
			return
		}
		token, err := jwt.ParseWithClaims(tokenString, &jwt.RegisteredClaims{}, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
			}
			return []byte(m.secret), nil
		})

		if err != nil || !token.Valid {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid or expired token"})
			c.Abort()
			return
		}

		claims, ok := token.Claims.(*jwt.RegisteredClaims)
		if !ok {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token claims"})
			c.Abort()
			return
		}

		if _, err := uuid.Parse(claims.Subject); err != nil {
			c.JSON(http.StatusUnauthorized, gin.H{"error": "invalid token subject"})
			c.Abort()
			return
		}

		c.Set("user_id", claims.Subject)
		c.Next()
	}
}

// RequireInternalToken guards service-to-service routes. With no token
// configured every internal call is rejected.
func (m *AuthMiddleware) RequireInternalToken() gin.HandlerFunc {
	return func(c *gin.Context) {
		provided := c.GetHeader(InternalTokenHeader)
		if m.internalToken == "" || subtle.ConstantTimeCompare([]byte(provided), []byte(m.internalToken)) != 1 {
			c.JSON(http.StatusForbidden, gin.H{"error": "internal access required"})
			c.Abort()
			return
		}
		c.Next()
	}
}
