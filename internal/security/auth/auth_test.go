package auth

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"

	"github.com/yourorg/taskflow/internal/domain"
)

func TestIssueAndVerify(t *testing.T) {
	tm := NewTokenManager("secret", "taskflow", 24*time.Hour)

	token, issued, err := tm.Issue("u-1", "t-1", domain.RoleTenantAdmin)
	require.NoError(t, err)
	require.NotEmpty(t, issued.TokenID)

	id, err := tm.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, "u-1", id.UserID)
	assert.Equal(t, "t-1", id.TenantID)
	assert.Equal(t, domain.RoleTenantAdmin, id.Role)
	assert.Equal(t, issued.TokenID, id.TokenID)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), id.ExpiresAt, 5*time.Second)
}

func TestVerifyRejects(t *testing.T) {
	tm := NewTokenManager("secret", "taskflow", time.Hour)
	good, _, err := tm.Issue("u-1", "t-1", domain.RoleUser)
	require.NoError(t, err)

	expired := NewTokenManager("secret", "taskflow", time.Hour)
	expired.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	old, _, err := expired.Issue("u-1", "t-1", domain.RoleUser)
	require.NoError(t, err)

	otherSecret, _, err := NewTokenManager("other", "taskflow", time.Hour).Issue("u-1", "t-1", domain.RoleUser)
	require.NoError(t, err)

	otherIssuer, _, err := NewTokenManager("secret", "someone-else", time.Hour).Issue("u-1", "t-1", domain.RoleUser)
	require.NoError(t, err)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, Claims{UserID: "u-1", TenantID: "t-1"})
	unsigned, err := none.SignedString(jwt.UnsafeAllowNoneSignatureType)
	require.NoError(t, err)

	cases := map[string]string{
		"tampered":     good + "x",
		"expired":      old,
		"wrong secret": otherSecret,
		"wrong issuer": otherIssuer,
		"alg none":     unsigned,
		"garbage":      "not-a-jwt",
	}
	for name, tok := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := tm.Verify(tok)
			require.ErrorIs(t, err, domain.ErrInvalidToken)
		})
	}
}

func TestExtractToken(t *testing.T) {
	tok, err := ExtractToken("Bearer abc.def.ghi")
	require.NoError(t, err)
	assert.Equal(t, "abc.def.ghi", tok)

	for _, h := range []string{"", "Bearer", "Bearer ", "Basic abc", "abc.def.ghi"} {
		_, err := ExtractToken(h)
		require.ErrorIs(t, err, domain.ErrNoToken, "header %q", h)
	}
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)
	assert.NotEqual(t, "correct horse", hash)
	assert.True(t, ComparePassword(hash, "correct horse"))
	assert.False(t, ComparePassword(hash, "wrong horse"))
}

func TestCompareMissingMatchesRealCost(t *testing.T) {
	hash, err := HashPassword("correct horse")
	require.NoError(t, err)

	realCost, err := bcrypt.Cost([]byte(hash))
	require.NoError(t, err)
	missingCost, err := bcrypt.Cost(dummyHash())
	require.NoError(t, err)
	assert.Equal(t, realCost, missingCost)

	assert.False(t, CompareMissing("correct horse"))
	assert.False(t, CompareMissing("taskflow-no-such-user"))
}

func TestMemoryRevocationList(t *testing.T) {
	ctx := context.Background()
	rl := NewMemoryRevocationList()

	require.NoError(t, rl.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	require.NoError(t, rl.Revoke(ctx, "jti-2", time.Now().Add(-time.Second)))

	revoked, err := rl.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	revoked, err = rl.IsRevoked(ctx, "jti-2")
	require.NoError(t, err)
	assert.False(t, revoked)
	assert.Equal(t, 1, rl.Len())
}
