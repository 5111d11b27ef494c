package auth

import (
	"time"

	"github.com/golang-jwt/jwt/v5"

	"bell-registry/domain"
	"bell-registry/errors"
)

// signingKey is the secret used to sign tokens. The server overrides it at
// boot from configuration; the default only exists so tests need no setup.
var signingKey = []byte("bell-registry-dev-signing-key-2026")

// SetSigningKey replaces the token secret. Call once at startup, before any
// token is issued.
func SetSigningKey(key string) {
	if key != "" {
		signingKey = []byte(key)
	}
}

// Claims carries the caller identity embedded in every session token.
type Claims struct {
	UserID string      `json:"user_id"`
	Role   domain.Role `json:"role"`
	jwt.RegisteredClaims
}

// GenerateToken creates a signed JWT for a specific user.
func GenerateToken(userID string, role domain.Role, tokenDuration time.Duration) (string, error) {
	now := time.Now()
	claims := &Claims{
		UserID: userID,
		Role:   role,
		RegisteredClaims: jwt.RegisteredClaims{
			ExpiresAt: jwt.NewNumericDate(now.Add(tokenDuration)),
			IssuedAt:  jwt.NewNumericDate(now),
			Issuer:    "bell-registry",
		},
	}

	// HS256: HMAC with SHA256, symmetric key shared by all instances.
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	return token.SignedString(signingKey)
}

// ValidateToken parses and validates the signature and expiration of a JWT
// string, returning the embedded identity.
func ValidateToken(tokenString string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		return signingKey, nil
	})
	if err != nil {
		return nil, errors.ErrInvalidToken
	}

	if claims, ok := token.Claims.(*Claims); ok && token.Valid {
		return claims, nil
	}
	return nil, errors.ErrInvalidToken
}
