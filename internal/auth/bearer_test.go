package auth

import (
	"encoding/base64"
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"auth-backend/internal/apperr"
)

func TestIdentityFromHeader(t *testing.T) {
	s := newTestService(time.Now())
	valid, err := s.GenerateAccessToken(testAccount, RoleUser)
	require.NoError(t, err)
	tampered := forgeRole(t, valid, "Spec")

	tests := []struct {
		name     string
		header   string
		want     Identity
		wantKind apperr.Kind
	}{
		{name: "missing header is guest", header: "", want: Guest()},
		{name: "blank header is guest", header: "   ", want: Guest()},
		{name: "bearer token", header: "Bearer " + valid, want: Identity{AccountID: 42, Name: "ada@example.com", Role: "User"}},
		{name: "lowercase scheme", header: "bearer " + valid, want: Identity{AccountID: 42, Name: "ada@example.com", Role: "User"}},
		{name: "mixed case scheme and padding", header: "BeArEr    " + valid + "  ", want: Identity{AccountID: 42, Name: "ada@example.com", Role: "User"}},
		{name: "basic scheme", header: "Basic abc", wantKind: apperr.KindMalformedRequest},
		{name: "scheme glued to token", header: "Bearer" + valid, wantKind: apperr.KindMalformedRequest},
		{name: "scheme without token", header: "Bearer", wantKind: apperr.KindTokenVerification},
		{name: "tampered token", header: "Bearer " + tampered, wantKind: apperr.KindTokenVerification},
		{name: "garbage token", header: "Bearer not.a.jwt", wantKind: apperr.KindTokenVerification},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := s.IdentityFromHeader(tt.header)
			if tt.wantKind != "" {
				require.Error(t, err)
				assert.True(t, apperr.IsKind(err, tt.wantKind), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestIdentityFromHeader_UnauthorizedHidesCause(t *testing.T) {
	s := newTestService(time.Now())

	_, err := s.IdentityFromHeader("Bearer a.b.c")
	require.Error(t, err)

	appErr := apperr.As(err)
	assert.Equal(t, 401, appErr.Status)
	assert.Equal(t, "Invalid or expired token", appErr.Message)
	assert.NotNil(t, appErr.Cause)
}

func TestGuest(t *testing.T) {
	g := Guest()
	assert.Equal(t, int64(0), g.AccountID)
	assert.Equal(t, "Guest", g.Name)
	assert.Equal(t, "Guest", g.Role)
	assert.True(t, g.IsGuest())
	assert.False(t, Identity{AccountID: 1, Name: "Guest", Role: "Guest"}.IsGuest())
}

// forgeRole rewrites the payload of a signed token while keeping the
// untouched signature.
func forgeRole(t *testing.T, raw, role string) string {
	t.Helper()
	parts := strings.Split(raw, ".")
	require.Len(t, parts, 3)

	payload, err := base64.RawURLEncoding.DecodeString(parts[1])
	require.NoError(t, err)
	var claims map[string]any
	require.NoError(t, json.Unmarshal(payload, &claims))
	claims["role"] = role
	forged, err := json.Marshal(claims)
	require.NoError(t, err)

	return parts[0] + "." + base64.RawURLEncoding.EncodeToString(forged) + "." + parts[2]
}
