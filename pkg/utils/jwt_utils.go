package utils

import (
	"fmt"

	"github.com/golang-jwt/jwt/v5"
)

// jwtSecretKey verifies tokens issued by the external auth service.
// Overridden from configuration at startup via SetJWTSecret.
var jwtSecretKey = []byte("qrdine-dev-jwt-secret")

// SetJWTSecret sets the verification key. Must be called before the server
// starts accepting requests.
func SetJWTSecret(secret string) {
	if secret != "" {
		jwtSecretKey = []byte(secret)
	}
}

// Claims defines the JWT claims structure issued by the external auth service.
// This backend only consumes these tokens; it never issues them.
type Claims struct {
	UserID       int64  `json:"user_id"`
	RestaurantID int64  `json:"restaurant_id"`
	Role         string `json:"role"` // admin | reception | kitchen | captain
	jwt.RegisteredClaims
}

// ValidateToken parses and validates a JWT token string.
// It returns the claims if the token is valid, otherwise an error.
func ValidateToken(tokenString string) (*Claims, error) {
	claims := &Claims{}
	token, err := jwt.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return jwtSecretKey, nil
	})

	if err != nil {
		return nil, fmt.Errorf("token validation failed: %w", err)
	}

	if !token.Valid {
		return nil, fmt.Errorf("invalid token")
	}

	return claims, nil
}
