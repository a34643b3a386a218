// Authentication package: bcrypt client-secret hashing and JWT issue/parse.
// This is a leaf package with no domain dependencies. Used by the token
// handler, the auth middleware, config (expiry parsing) and the CLI.
package auth

import (
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"golang.org/x/crypto/bcrypt"
)

// ===== CONSTANTS =====

// BCryptCost is the work factor for bcrypt.
const BCryptCost = 12

// DefaultJWTExpiry is the default JWT expiration time in hours.
const DefaultJWTExpiry = 24

// ErrNoSecret is returned when a token operation is attempted without a signing secret.
var ErrNoSecret = errors.New("jwt secret not configured")

// ParseJWTExpiry parses an expiry string (hours) into a Duration.
// Returns DefaultJWTExpiry if empty string or invalid number (graceful degradation).
func ParseJWTExpiry(expiryStr string) time.Duration {
	if expiryStr == "" {
		return time.Duration(DefaultJWTExpiry) * time.Hour
	}

	hours, err := strconv.Atoi(expiryStr)
	if err != nil {
		return time.Duration(DefaultJWTExpiry) * time.Hour
	}

	return time.Duration(hours) * time.Hour
}

// ===== BCRYPT FUNCTIONS =====

// HashSecret hashes a plaintext client secret using bcrypt.
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), BCryptCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash secret: %w", err)
	}
	return string(hash), nil
}

// VerifySecret verifies a plaintext secret against a bcrypt hash.
// Returns false (not error) for invalid hashes to avoid leaking hash format info in responses.
func VerifySecret(hash, secret string) bool {
	err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret))
	return err == nil
}

// ===== JWT FUNCTIONS =====

// Claims represents the JWT claims issued to API clients.
// ClientID is the only custom claim; the rest are standard JWT claims.
type Claims struct {
	ClientID string `json:"client_id"`
	jwt.RegisteredClaims
}

// GenerateJWT creates a signed HS256 token for clientID valid for expiry.
func GenerateJWT(secret []byte, clientID string, expiry time.Duration) (string, time.Time, error) {
	if len(secret) == 0 {
		return "", time.Time{}, ErrNoSecret
	}
	now := time.Now()
	expiresAt := now.Add(expiry)

	claims := &Claims{
		ClientID: clientID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   clientID,
			ExpiresAt: jwt.NewNumericDate(expiresAt),
			IssuedAt:  jwt.NewNumericDate(now),
			NotBefore: jwt.NewNumericDate(now),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signedToken, err := token.SignedString(secret)
	if err != nil {
		return "", time.Time{}, fmt.Errorf("failed to sign JWT: %w", err)
	}

	return signedToken, expiresAt, nil
}

// ParseJWT validates and parses a JWT token, extracting claims.
// Returns error if token is invalid, expired, or malformed.
func ParseJWT(secret []byte, tokenString string) (*Claims, error) {
	if len(secret) == 0 {
		return nil, ErrNoSecret
	}
	if tokenString == "" {
		return nil, fmt.Errorf("token is empty")
	}

	token, err := jwt.ParseWithClaims(tokenString, &Claims{}, func(token *jwt.Token) (interface{}, error) {
		// Verify signing method is HMAC-SHA256 (prevent algorithm substitution attacks)
		if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", token.Header["alg"])
		}
		return secret, nil
	})

	if err != nil {
		return nil, fmt.Errorf("failed to parse JWT: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid {
		return nil, fmt.Errorf("invalid JWT claims or signature")
	}

	return claims, nil
}
