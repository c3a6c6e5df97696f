package auth

import (
	"errors"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

// AccessClaims is the payload of an access token. Exp is epoch milliseconds.
type AccessClaims struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
	Exp       int64  `json:"exp"`
}

// RefreshClaims is the payload of a refresh token. Exp is epoch milliseconds.
type RefreshClaims struct {
	AccountID int64 `json:"account_id"`
	Exp       int64 `json:"exp"`
}

var errMissingRole = errors.New("token has no role claim")

// The jwt.Claims methods hand the millisecond exp to the library validator,
// which then enforces expiry the same way it does for registered claims.

func (c AccessClaims) GetExpirationTime() (*jwt.NumericDate, error) { return millisDate(c.Exp), nil }
func (c AccessClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c AccessClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c AccessClaims) GetIssuer() (string, error)                   { return "", nil }
func (c AccessClaims) GetSubject() (string, error)                  { return "", nil }
func (c AccessClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// Validate rejects tokens that carry no role, which is every refresh token.
func (c AccessClaims) Validate() error {
	if c.Role == "" {
		return errMissingRole
	}
	return nil
}

// ExpiresAt returns exp as a time.
func (c AccessClaims) ExpiresAt() time.Time { return time.UnixMilli(c.Exp) }

// Identity returns the principal the claims describe.
func (c AccessClaims) Identity() Identity {
	return Identity{AccountID: c.AccountID, Name: c.Name, Role: c.Role}
}

func (c RefreshClaims) GetExpirationTime() (*jwt.NumericDate, error) { return millisDate(c.Exp), nil }
func (c RefreshClaims) GetIssuedAt() (*jwt.NumericDate, error)       { return nil, nil }
func (c RefreshClaims) GetNotBefore() (*jwt.NumericDate, error)      { return nil, nil }
func (c RefreshClaims) GetIssuer() (string, error)                   { return "", nil }
func (c RefreshClaims) GetSubject() (string, error)                  { return "", nil }
func (c RefreshClaims) GetAudience() (jwt.ClaimStrings, error)       { return nil, nil }

// ExpiresAt returns exp as a time.
func (c RefreshClaims) ExpiresAt() time.Time { return time.UnixMilli(c.Exp) }

func millisDate(ms int64) *jwt.NumericDate {
	if ms == 0 {
		return nil
	}
	return &jwt.NumericDate{Time: time.UnixMilli(ms)}
}
