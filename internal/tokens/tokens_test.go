package tokens

import (
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Skotchmaster/classifieds/internal/domain"
)

var secret = []byte("test-jwt-secret")

func TestSignAccessToken_SetsExpectedClaims(t *testing.T) {
	t.Parallel()

	now := time.Now().UTC()
	token, exp, err := SignAccessToken(7, "bob@example.com", domain.RoleModerator, secret, now)
	require.NoError(t, err)
	require.NotEmpty(t, token)

	claims, err := AccessClaimsFromToken(token, secret)
	require.NoError(t, err)

	assert.EqualValues(t, 7, claims.UserID)
	assert.Equal(t, "bob@example.com", claims.Email)
	assert.Equal(t, domain.RoleModerator, claims.Role)
	assert.NotEmpty(t, claims.ID)
	require.NotNil(t, claims.ExpiresAt)
	assert.WithinDuration(t, now.Add(7*24*time.Hour), claims.ExpiresAt.Time, time.Second)
	assert.WithinDuration(t, exp, claims.ExpiresAt.Time, time.Second)
}

func TestAccessClaimsFromToken_Rejects(t *testing.T) {
	t.Parallel()

	valid, _, err := SignAccessToken(1, "a@example.com", domain.RoleUser, secret, time.Now())
	require.NoError(t, err)

	expired, _, err := SignAccessToken(1, "a@example.com", domain.RoleUser, secret, time.Now().Add(-8*24*time.Hour))
	require.NoError(t, err)

	none, err := jwt.NewWithClaims(jwt.SigningMethodNone, AccessClaims{
		UserID: 1, Role: domain.RoleAdmin,
		RegisteredClaims: jwt.RegisteredClaims{ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour))},
	}).SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	tests := []struct {
		name   string
		token  string
		secret []byte
	}{
		{"garbage", "not-a-token", secret},
		{"wrong secret", valid, []byte("other")},
		{"expired", expired, secret},
		{"alg none", none, secret},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := AccessClaimsFromToken(tt.token, tt.secret)
			assert.Error(t, err)
		})
	}
}
