package credential

import (
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// TokenInfo describes what can be read from a token without verifying it.
type TokenInfo struct {
	Format    string     `json:"format" yaml:"format"`
	Subject   string     `json:"subject,omitempty" yaml:"subject,omitempty"`
	IssuedAt  *time.Time `json:"issued_at,omitempty" yaml:"issued_at,omitempty"`
	ExpiresAt *time.Time `json:"expires_at,omitempty" yaml:"expires_at,omitempty"`
}

// Inspect decodes JWT claims without checking the signature. Tokens that are
// not JWTs are reported as opaque. The result is for display only; the client
// never uses it to decide whether a token is still valid.
func Inspect(token string) TokenInfo {
	claims := jwt.RegisteredClaims{}
	if _, _, err := jwt.NewParser().ParseUnverified(token, &claims); err != nil {
		return TokenInfo{Format: "opaque"}
	}

	info := TokenInfo{Format: "jwt", Subject: claims.Subject}
	if claims.IssuedAt != nil {
		t := claims.IssuedAt.Time
		info.IssuedAt = &t
	}
	if claims.ExpiresAt != nil {
		t := claims.ExpiresAt.Time
		info.ExpiresAt = &t
	}
	return info
}
