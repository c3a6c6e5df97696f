package auth

import (
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-backend/internal/account"
	"auth-backend/internal/apperr"
)

var (
	testSecret  = []byte("test-secret")
	testAccount = account.Account{ID: 42, Email: "ada@example.com"}
	issuedAt    = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
)

func fixedClock(t time.Time) func() time.Time {
	return func() time.Time { return t }
}

func newTestService(now time.Time) *TokenService {
	return NewTokenService(testSecret, 15*time.Minute, 7*24*time.Hour, WithClock(fixedClock(now)))
}

func decodeUnverified(t *testing.T, raw string) jwt.MapClaims {
	t.Helper()
	claims := jwt.MapClaims{}
	_, _, err := jwt.NewParser().ParseUnverified(raw, claims)
	require.NoError(t, err)
	return claims
}

func TestGenerateAccessToken_Claims(t *testing.T) {
	s := newTestService(issuedAt)

	raw, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)
	assert.Len(t, strings.Split(raw, "."), 3)

	claims := decodeUnverified(t, raw)
	assert.Equal(t, float64(42), claims["account_id"])
	assert.Equal(t, "ada@example.com", claims["name"])
	assert.Equal(t, "User", claims["role"])
	assert.Equal(t, float64(issuedAt.Add(15*time.Minute).UnixMilli()), claims["exp"])
}

func TestGenerateAccessToken_HS256Header(t *testing.T) {
	raw, err := newTestService(issuedAt).GenerateAccessToken(testAccount, RoleSpec)
	require.NoError(t, err)

	token, _, err := jwt.NewParser().ParseUnverified(raw, jwt.MapClaims{})
	require.NoError(t, err)
	assert.Equal(t, "HS256", token.Method.Alg())
}

func TestGenerateRefreshToken_Claims(t *testing.T) {
	s := newTestService(issuedAt)

	raw, err := s.GenerateRefreshToken(testAccount)
	require.NoError(t, err)

	claims := decodeUnverified(t, raw)
	assert.Equal(t, float64(42), claims["account_id"])
	assert.Equal(t, float64(issuedAt.Add(7*24*time.Hour).UnixMilli()), claims["exp"])
	assert.NotContains(t, claims, "name")
	assert.NotContains(t, claims, "role")
}

func TestAccessToken_RoundTrip(t *testing.T) {
	s := newTestService(time.Now())

	raw, err := s.GenerateAccessToken(testAccount, RoleSpec)
	require.NoError(t, err)

	claims, err := s.ParseAccessToken(raw)
	require.NoError(t, err)
	assert.Equal(t, Identity{AccountID: 42, Name: "ada@example.com", Role: "Spec"}, claims.Identity())
	assert.WithinDuration(t, time.Now().Add(15*time.Minute), time.UnixMilli(claims.Exp), 2*time.Second)
}

func TestAccessToken_WrongSecret(t *testing.T) {
	raw, err := newTestService(time.Now()).GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)

	other := NewTokenService([]byte("another-secret"), time.Minute, time.Minute)
	_, err = other.ParseAccessToken(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTokenVerification))
	assert.ErrorIs(t, err, jwt.ErrTokenSignatureInvalid)
}

func TestAccessToken_Expired(t *testing.T) {
	issuer := newTestService(issuedAt)
	raw, err := issuer.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)

	verifier := newTestService(issuedAt.Add(16 * time.Minute))
	_, err = verifier.ParseAccessToken(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTokenVerification))
	assert.ErrorIs(t, err, jwt.ErrTokenExpired)

	stillValid := newTestService(issuedAt.Add(14 * time.Minute))
	_, err = stillValid.ParseAccessToken(raw)
	assert.NoError(t, err)
}

func TestAccessToken_MissingExpRejected(t *testing.T) {
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.MapClaims{
		"account_id": 1, "name": "x@example.com", "role": "User",
	})
	raw, err := token.SignedString(testSecret)
	require.NoError(t, err)

	_, err = newTestService(time.Now()).ParseAccessToken(raw)
	require.Error(t, err)
	assert.ErrorIs(t, err, jwt.ErrTokenRequiredClaimMissing)
}

func TestAccessToken_OtherAlgorithmRejected(t *testing.T) {
	s := NewTokenService(testSecret, time.Minute, time.Minute, WithSigningMethod(jwt.SigningMethodHS512))
	raw, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)

	_, err = newTestService(time.Now()).ParseAccessToken(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTokenVerification))
}

func TestRefreshToken_NotAcceptedAsAccessToken(t *testing.T) {
	s := newTestService(time.Now())
	raw, err := s.GenerateRefreshToken(testAccount)
	require.NoError(t, err)

	_, err = s.ParseAccessToken(raw)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindTokenVerification))

	claims, err := s.ParseRefreshToken(raw)
	require.NoError(t, err)
	assert.Equal(t, int64(42), claims.AccountID)
}

func TestGenerate_EmptySecretIsSigningError(t *testing.T) {
	s := NewTokenService(nil, time.Minute, time.Minute)

	_, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCredentialSigning))

	_, err = s.GenerateRefreshToken(testAccount)
	require.Error(t, err)
	assert.True(t, apperr.IsKind(err, apperr.KindCredentialSigning))
}

func TestIndependentLifetimes(t *testing.T) {
	s := NewTokenService(testSecret, time.Second, time.Hour, WithClock(fixedClock(issuedAt)))

	access, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)
	refresh, err := s.GenerateRefreshToken(testAccount)
	require.NoError(t, err)

	assert.Equal(t, float64(issuedAt.Add(time.Second).UnixMilli()), decodeUnverified(t, access)["exp"])
	assert.Equal(t, float64(issuedAt.Add(time.Hour).UnixMilli()), decodeUnverified(t, refresh)["exp"])
}

func TestClaims_ExpiresAt(t *testing.T) {
	s := newTestService(issuedAt)
	assert.Equal(t, 15*time.Minute, s.AccessTTL())
	assert.Equal(t, 7*24*time.Hour, s.RefreshTTL())

	access, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)
	ac, err := s.ParseAccessToken(access)
	require.NoError(t, err)
	assert.True(t, ac.ExpiresAt().Equal(issuedAt.Add(s.AccessTTL())))

	refresh, err := s.GenerateRefreshToken(testAccount)
	require.NoError(t, err)
	rc, err := s.ParseRefreshToken(refresh)
	require.NoError(t, err)
	assert.True(t, rc.ExpiresAt().Equal(issuedAt.Add(s.RefreshTTL())))
}
