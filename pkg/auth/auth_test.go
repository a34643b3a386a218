// Tests for bcrypt secret hashing and JWT generation/parsing
package auth

import (
	"errors"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var testSecret = []byte("test-secret-key-32-chars-min!!!")

// ===== BCRYPT TESTS =====

// TestHashSecret verifies that HashSecret generates a valid bcrypt hash.
func TestHashSecret(t *testing.T) {
	t.Parallel()

	secret := "MyClientSecret123!"
	hash, err := HashSecret(secret)

	if err != nil {
		t.Fatalf("HashSecret failed: %v", err)
	}

	if hash == secret {
		t.Error("Hash should not equal plaintext secret")
	}

	// Hash should start with bcrypt prefix $2a$ or $2b$ or $2y$
	if !isValidBcryptHash(hash) {
		t.Errorf("Hash format is invalid: %s", hash)
	}
}

// TestVerifySecret_Correct verifies that VerifySecret accepts the right secret.
func TestVerifySecret_Correct(t *testing.T) {
	t.Parallel()

	hash, _ := HashSecret("MyClientSecret123!")

	if !VerifySecret(hash, "MyClientSecret123!") {
		t.Error("VerifySecret should return true for correct secret")
	}
}

// TestVerifySecret_Wrong verifies that VerifySecret rejects a wrong or differently-cased secret.
func TestVerifySecret_Wrong(t *testing.T) {
	t.Parallel()

	hash, _ := HashSecret("MyClientSecret123!")

	if VerifySecret(hash, "DifferentSecret") {
		t.Error("VerifySecret should return false for incorrect secret")
	}
	if VerifySecret(hash, "myclientsecret123!") {
		t.Error("VerifySecret should be case-sensitive")
	}
}

// TestVerifySecret_InvalidHash verifies that VerifySecret handles invalid hash gracefully.
func TestVerifySecret_InvalidHash(t *testing.T) {
	t.Parallel()

	if VerifySecret("not-a-valid-hash", "something") {
		t.Error("VerifySecret should return false for invalid hash")
	}
}

// ===== JWT TESTS =====

// TestGenerateJWT_RoundTrip verifies that a generated token parses back to the same client.
func TestGenerateJWT_RoundTrip(t *testing.T) {
	t.Parallel()

	before := time.Now()
	token, expiresAt, err := GenerateJWT(testSecret, "frontend", 2*time.Hour)
	if err != nil {
		t.Fatalf("GenerateJWT failed: %v", err)
	}
	if countJWTParts(token) != 3 {
		t.Errorf("JWT should have 3 parts, got %d", countJWTParts(token))
	}

	claims, err := ParseJWT(testSecret, token)
	if err != nil {
		t.Fatalf("ParseJWT failed for valid token: %v", err)
	}
	if claims.ClientID != "frontend" || claims.Subject != "frontend" {
		t.Errorf("unexpected claims: %+v", claims)
	}
	if claims.IssuedAt == nil || claims.ExpiresAt == nil {
		t.Fatal("JWT missing IssuedAt/ExpiresAt")
	}

	diff := claims.ExpiresAt.Time.Sub(before.Add(2 * time.Hour)).Abs()
	if diff > 5*time.Second {
		t.Errorf("Expected expiry ~2h from now, diff is %v", diff)
	}
	if expiresAt.Sub(claims.ExpiresAt.Time).Abs() > time.Second {
		t.Errorf("returned expiry %v does not match claim %v", expiresAt, claims.ExpiresAt.Time)
	}
}

// TestParseJWT_Rejects verifies invalid, malformed, empty and foreign-signed tokens fail.
func TestParseJWT_Rejects(t *testing.T) {
	t.Parallel()

	foreign, _, err := GenerateJWT([]byte("another-secret"), "frontend", time.Hour)
	if err != nil {
		t.Fatal(err)
	}
	expired, _, err := GenerateJWT(testSecret, "frontend", -time.Hour)
	if err != nil {
		t.Fatal(err)
	}

	for name, token := range map[string]string{
		"invalid":   "invalid.token.here",
		"malformed": "not-a-jwt",
		"empty":     "",
		"foreign":   foreign,
		"expired":   expired,
	} {
		if _, err := ParseJWT(testSecret, token); err == nil {
			t.Errorf("%s: ParseJWT should return error", name)
		}
	}
}

// TestParseJWT_RejectsNoneAlgorithm guards against algorithm substitution.
func TestParseJWT_RejectsNoneAlgorithm(t *testing.T) {
	t.Parallel()

	tok := jwt.NewWithClaims(jwt.SigningMethodNone, &Claims{ClientID: "x"})
	s, err := tok.SignedString(jwt.UnsafeAllowNoneSignatureType)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := ParseJWT(testSecret, s); err == nil {
		t.Error("ParseJWT must reject alg=none")
	}
}

// TestJWT_NoSecret verifies both directions refuse to work without a secret.
func TestJWT_NoSecret(t *testing.T) {
	t.Parallel()

	if _, _, err := GenerateJWT(nil, "frontend", time.Hour); !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
	if _, err := ParseJWT(nil, "a.b.c"); !errors.Is(err, ErrNoSecret) {
		t.Errorf("expected ErrNoSecret, got %v", err)
	}
}

// ===== ParseJWTExpiry TESTS =====

func TestParseJWTExpiry(t *testing.T) {
	t.Parallel()

	def := time.Duration(DefaultJWTExpiry) * time.Hour
	tests := []struct {
		in   string
		want time.Duration
	}{
		{"", def},
		{"48", 48 * time.Hour},
		{"not-a-number", def},
		{"0", 0},
		{"1", time.Hour},
	}
	for _, tt := range tests {
		if got := ParseJWTExpiry(tt.in); got != tt.want {
			t.Errorf("ParseJWTExpiry(%q) = %v, want %v", tt.in, got, tt.want)
		}
	}
}

// ===== HELPER FUNCTIONS (test utilities) =====

// isValidBcryptHash checks if a string looks like a valid bcrypt hash.
func isValidBcryptHash(hash string) bool {
	// Bcrypt hashes start with $2a$, $2b$, or $2y$ and are 60 characters long
	if len(hash) != 60 {
		return false
	}
	return hash[:4] == "$2a$" || hash[:4] == "$2b$" || hash[:4] == "$2y$"
}

// countJWTParts counts the number of parts in a JWT token (separated by dots).
func countJWTParts(token string) int {
	count := 1
	for i := 0; i < len(token); i++ {
		if token[i] == '.' {
			count++
		}
	}
	return count
}
