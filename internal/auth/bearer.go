package auth

import (
	"strings"
	"unicode"

	"auth-backend/internal/apperr"
)

// Identity is the authenticated principal of a request.
type Identity struct {
	AccountID int64  `json:"account_id"`
	Name      string `json:"name"`
	Role      string `json:"role"`
}

// Guest is the identity of a caller that presented no credential.
func Guest() Identity {
	return Identity{AccountID: 0, Name: GuestRole, Role: GuestRole}
}

// IsGuest reports whether i is the unauthenticated identity.
func (i Identity) IsGuest() bool {
	return i == Guest()
}

const bearerScheme = "Bearer"

// IdentityFromHeader resolves an Authorization header value. An empty header
// yields Guest. A scheme other than Bearer is a malformed request; a bad,
// expired or tampered token is a verification failure.
func (s *TokenService) IdentityFromHeader(header string) (Identity, error) {
	header = strings.TrimSpace(header)
	if header == "" {
		return Guest(), nil
	}

	scheme, rest := header, ""
	if i := strings.IndexFunc(header, unicode.IsSpace); i >= 0 {
		scheme, rest = header[:i], header[i+1:]
	}
	if !strings.EqualFold(scheme, bearerScheme) {
		return Identity{}, apperr.MalformedRequest("Invalid authorization header")
	}

	claims, err := s.ParseAccessToken(strings.TrimSpace(rest))
	if err != nil {
		return Identity{}, err
	}
	return claims.Identity(), nil
}
