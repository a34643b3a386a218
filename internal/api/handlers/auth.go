// HTTP handler for the client-credentials token endpoint (public, no AuthMiddleware).
package handlers

import (
	"crypto/subtle"
	"errors"
	"net/http"
	"time"

	pkgauth "github.com/matiasleandrokruk/ideaforge/pkg/auth"
)

// AuthHandler exchanges client credentials for a JWT.
type AuthHandler struct {
	secret     []byte
	clientID   string
	secretHash string
	expiry     time.Duration
}

// NewAuthHandler creates an AuthHandler for the single configured client.
// secretHash is a bcrypt hash produced by `ideaforge hash-secret`.
func NewAuthHandler(secret []byte, clientID, secretHash string, expiry time.Duration) *AuthHandler {
	return &AuthHandler{secret: secret, clientID: clientID, secretHash: secretHash, expiry: expiry}
}

// TokenRequest is the request body for POST /auth/token.
type TokenRequest struct {
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
}

// TokenResponse is returned after a successful exchange.
type TokenResponse struct {
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expires_at"`
}

// Token handles POST /auth/token.
//
// Response codes:
//   - 200 OK: credentials accepted
//   - 400 Bad Request: invalid JSON or missing required fields
//   - 401 Unauthorized: invalid credentials (generic, doesn't reveal which field)
//   - 500 Internal Server Error: unexpected failure
func (h *AuthHandler) Token(w http.ResponseWriter, r *http.Request) {
	var req TokenRequest
	if err := decodeJSON(w, r, &req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body")
		return
	}
	if err := validateTokenRequest(req); err != nil {
		writeError(w, http.StatusBadRequest, err.Error())
		return
	}

	// Always run bcrypt so a wrong client id costs the same as a wrong secret.
	secretOK := pkgauth.VerifySecret(h.secretHash, req.ClientSecret)
	idOK := subtle.ConstantTimeCompare([]byte(req.ClientID), []byte(h.clientID)) == 1
	if !secretOK || !idOK {
		writeError(w, http.StatusUnauthorized, "invalid credentials")
		return
	}

	token, expiresAt, err := pkgauth.GenerateJWT(h.secret, req.ClientID, h.expiry)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "token issue failed")
		return
	}
	writeJSON(w, http.StatusOK, TokenResponse{Token: token, ExpiresAt: expiresAt})
}

// validateTokenRequest checks required fields for the token endpoint.
func validateTokenRequest(req TokenRequest) error {
	if req.ClientID == "" {
		return errors.New("client_id is required")
	}
	if req.ClientSecret == "" {
		return errors.New("client_secret is required")
	}
	return nil
}
