package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"auth-backend/internal/account"
	"auth-backend/internal/apperr"
)

// TokenPair is the response returned after a session is created.
type TokenPair struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token"`
}

var errEmptySecret = errors.New("signing secret is empty")

// TokenService signs and verifies stateless HS256 tokens. All fields are
// fixed at construction, so one instance is shared by every request.
type TokenService struct {
	secret     []byte
	accessTTL  time.Duration
	refreshTTL time.Duration
	now        func() time.Time
	method     jwt.SigningMethod
}

// Option configures a TokenService.
type Option func(*TokenService)

// WithClock replaces time.Now for expiry computation and verification.
func WithClock(now func() time.Time) Option {
	return func(s *TokenService) { s.now = now }
}

// WithSigningMethod overrides HS256. Only HMAC methods are meaningful with a
// shared secret.
func WithSigningMethod(m jwt.SigningMethod) Option {
	return func(s *TokenService) { s.method = m }
}

// NewTokenService returns a service signing with a copy of secret. Tokens
// are HS256 unless WithSigningMethod says otherwise.
func NewTokenService(secret []byte, accessTTL, refreshTTL time.Duration, opts ...Option) *TokenService {
	s := &TokenService{
		secret:     append([]byte(nil), secret...),
		accessTTL:  accessTTL,
		refreshTTL: refreshTTL,
		now:        time.Now,
		method:     jwt.SigningMethodHS256,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// AccessTTL is the lifetime given to access tokens.
func (s *TokenService) AccessTTL() time.Duration { return s.accessTTL }

// RefreshTTL is the lifetime given to refresh tokens.
func (s *TokenService) RefreshTTL() time.Duration { return s.refreshTTL }

// GenerateAccessToken signs {account_id, name, role, exp} for the account.
func (s *TokenService) GenerateAccessToken(a account.Account, role Role) (string, error) {
	claims := AccessClaims{
		AccountID: a.ID,
		Name:      a.Email,
		Role:      string(role),
		Exp:       s.now().Add(s.accessTTL).UnixMilli(),
	}
	return s.sign(claims, "access")
}

// GenerateRefreshToken signs {account_id, exp} for the account.
func (s *TokenService) GenerateRefreshToken(a account.Account) (string, error) {
	claims := RefreshClaims{
		AccountID: a.ID,
		Exp:       s.now().Add(s.refreshTTL).UnixMilli(),
	}
	return s.sign(claims, "refresh")
}

func (s *TokenService) sign(claims jwt.Claims, kind string) (string, error) {
	if len(s.secret) == 0 {
		return "", apperr.CredentialSigning(fmt.Errorf("sign %s token: %w", kind, errEmptySecret))
	}
	token := jwt.NewWithClaims(s.method, claims)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", apperr.CredentialSigning(fmt.Errorf("sign %s token: %w", kind, err))
	}
	return signed, nil
}

// ParseAccessToken verifies signature, algorithm, expiry and the role claim.
func (s *TokenService) ParseAccessToken(raw string) (AccessClaims, error) {
	var claims AccessClaims
	if err := s.parse(raw, &claims); err != nil {
		return AccessClaims{}, err
	}
	return claims, nil
}

// ParseRefreshToken verifies signature, algorithm and expiry.
func (s *TokenService) ParseRefreshToken(raw string) (RefreshClaims, error) {
	var claims RefreshClaims
	if err := s.parse(raw, &claims); err != nil {
		return RefreshClaims{}, err
	}
	return claims, nil
}

func (s *TokenService) parse(raw string, claims jwt.Claims) error {
	token, err := jwt.ParseWithClaims(raw, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return s.secret, nil
	},
		jwt.WithValidMethods([]string{s.method.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(s.now),
	)
	if err != nil {
		return apperr.TokenVerification(err)
	}
	if !token.Valid {
		return apperr.TokenVerification(errors.New("invalid token"))
	}
	return nil
}
