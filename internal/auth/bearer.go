package auth

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/golang-jwt/jwt/v5"
)

// subjectCtxKey is the Gin context key holding the verified principal.
const subjectCtxKey = "auth_subject"

const bearerPrefix = "Bearer "

// BearerMiddleware guards the read path: it requires a valid
// Authorization bearer token before any store access happens. Missing,
// malformed, expired and otherwise-invalid tokens all collapse into the
// same 401 body so callers learn nothing about why verification failed.
func BearerMiddleware(secret []byte) gin.HandlerFunc {
	return func(c *gin.Context) {
		header := c.GetHeader("Authorization")
		if !strings.HasPrefix(header, bearerPrefix) {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		tokenString := strings.TrimSpace(strings.TrimPrefix(header, bearerPrefix))
		if tokenString == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		subject, err := verifyToken(tokenString, secret)
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, gin.H{"error": "unauthorized"})
			return
		}

		c.Set(subjectCtxKey, subject)
		c.Next()
	}
}

// verifyToken validates signature and registered claims (exp, nbf) and
// returns the token subject.
func verifyToken(tokenString string, secret []byte) (string, error) {
	claims := &jwt.RegisteredClaims{}

	token, err := jwt.ParseWithClaims(tokenString, claims, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return secret, nil
	})
	if err != nil {
		return "", fmt.Errorf("invalid token: %w", err)
	}
	if !token.Valid {
		return "", fmt.Errorf("token is not valid")
	}

	return claims.Subject, nil
}

// Subject returns the verified principal from the request context, or
// "" when the request did not pass the bearer middleware.
func Subject(c *gin.Context) string {
	v, _ := c.Get(subjectCtxKey)
	s, _ := v.(string)
	return s
}
