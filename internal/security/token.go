package security

import (
	"errors"
	"strings"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

var (
	ErrInvalidToken = errors.New("invalid token")
	ErrExpiredToken = errors.New("token has expired")
)

// BackendClaims are the claims the remote API puts in its bearer tokens.
// The storefront never holds the signing key, so these are read unverified;
// the remote API remains the authority on every call.
type BackendClaims struct {
	UserID string `json:"id,omitempty"`
	Email  string `json:"email,omitempty"`
	jwt.RegisteredClaims
}

type TokenInspector interface {
	Inspect(tokenString string) (*BackendClaims, error)
	IsAuthenticated(tokenString string, now time.Time) bool
}

type tokenInspector struct {
	parser *jwt.Parser
}

func NewTokenInspector() TokenInspector {
	return &tokenInspector{
		parser: jwt.NewParser(),
	}
}

func (i *tokenInspector) Inspect(tokenString string) (*BackendClaims, error) {
	claims := &BackendClaims{}
	if _, _, err := i.parser.ParseUnverified(tokenString, claims); err != nil {
		return nil, ErrInvalidToken
	}
	if claims.UserID == "" && claims.Subject != "" {
		claims.UserID = claims.Subject
	}
	return claims, nil
}

// IsAuthenticated reports whether a token is present and not known to be expired.
// Opaque (non-JWT) tokens count as present.
func (i *tokenInspector) IsAuthenticated(tokenString string, now time.Time) bool {
	tokenString = strings.TrimSpace(tokenString)
	if tokenString == "" {
		return false
	}
	claims, err := i.Inspect(tokenString)
	if err != nil {
		return true
	}
	if claims.ExpiresAt != nil && !now.Before(claims.ExpiresAt.Time) {
		return false
	}
	return true
}
