// v0
// internal/httpserver/auth.go
package httpserver

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/golang-jwt/jwt/v5"
)

var (
	errMissingToken = errors.New("missing bearer token")
	errInvalidToken = errors.New("invalid bearer token")
)

// Authenticator resolves the caller's user id from an HS256 bearer token
// issued by the external identity provider. The token subject is the user id.
type Authenticator struct {
	secret   []byte
	required bool
}

// NewAuthenticator returns nil when no secret is configured, which leaves the
// API in anonymous mode where the client names the user explicitly.
func NewAuthenticator(secret string, required bool) *Authenticator {
	if secret == "" {
		return nil
	}
	return &Authenticator{secret: []byte(secret), required: required}
}

// UserID returns the authenticated subject. ok is false when the request carries
// no token and tokens are optional.
func (a *Authenticator) UserID(r *http.Request) (userID string, ok bool, err error) {
	if a == nil {
		return "", false, nil
	}
	raw := r.Header.Get("Authorization")
	if raw == "" {
		if a.required {
			return "", false, errMissingToken
		}
		return "", false, nil
	}
	tokenString, found := strings.CutPrefix(raw, "Bearer ")
	if !found || strings.TrimSpace(tokenString) == "" {
		return "", false, errInvalidToken
	}

	claims := &jwt.RegisteredClaims{}
	_, err = jwt.ParseWithClaims(strings.TrimSpace(tokenString), claims, func(*jwt.Token) (interface{}, error) {
		return a.secret, nil
	}, jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}))
	if err != nil {
		return "", false, fmt.Errorf("%w: %v", errInvalidToken, err)
	}
	if claims.Subject == "" {
		return "", false, fmt.Errorf("%w: empty subject", errInvalidToken)
	}
	return claims.Subject, true, nil
}
