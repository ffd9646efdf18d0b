package appMiddleware

import (
	"errors"
	"os"

	"github.com/golang-jwt/jwt/v5"
)

type contextKey string

const UserIDKey contextKey = "userID"

// SessionClaims is the session token contract issued by the identity
// provider. The planner only cares about the subject user ID and whether the
// account is active; everything else about accounts lives upstream.
type SessionClaims struct {
	UserID string `json:"user_id"`
	Active bool   `json:"active"`
	jwt.RegisteredClaims
}

// ResolveJWTSecret reads the token signing secret from the environment. Local
// runs fall back to a fixed development secret; production refuses to start
// without an explicit one.
func ResolveJWTSecret(mode string) ([]byte, error) {
	if s := os.Getenv("JWT_SECRET_KEY"); s != "" {
		return []byte(s), nil
	}
	if mode == "production" {
		return nil, errors.New("JWT_SECRET_KEY must be set in production mode")
	}
	return []byte("dev-only-secret"), nil
}
