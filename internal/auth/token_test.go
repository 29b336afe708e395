package auth

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/queue-service/internal/domain"
)

func TestTokenRoundTrip(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	role := domain.AgentRoleAdmin
	token, expiresAt, err := tm.GenerateToken("agent-1", domain.SubjectTypeAgent, &role)
	require.NoError(t, err)
	assert.WithinDuration(t, time.Now().Add(30*time.Minute), expiresAt, 5*time.Second)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, "agent-1", claims.SubjectID)
	assert.Equal(t, domain.SubjectTypeAgent, claims.Subject)
	require.NotNil(t, claims.Role)
	assert.Equal(t, domain.AgentRoleAdmin, *claims.Role)
}

func TestTokenUserHasNoRole(t *testing.T) {
	tm := NewTokenManager("test-secret", 30)

	token, _, err := tm.GenerateToken("user-1", domain.SubjectTypeUser, nil)
	require.NoError(t, err)

	claims, err := tm.ParseToken(token)
	require.NoError(t, err)
	assert.Equal(t, domain.SubjectTypeUser, claims.Subject)
	assert.Nil(t, claims.Role)
}

func TestTokenRejectsWrongSecret(t *testing.T) {
	issuer := NewTokenManager("secret-a", 30)
	verifier := NewTokenManager("secret-b", 30)

	token, _, err := issuer.GenerateToken("user-1", domain.SubjectTypeUser, nil)
	require.NoError(t, err)

	_, err = verifier.ParseToken(token)
	require.Error(t, err)
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("s3cret", 4)
	require.NoError(t, err)
	require.NoError(t, ComparePassword(hash, "s3cret"))
	require.Error(t, ComparePassword(hash, "wrong"))
}

func TestPasswordHashingClampsInvalidCost(t *testing.T) {
	// An unset or absurd configured cost must not break registration.
	for _, cost := range []int{0, -1, 99} {
		hash, err := HashPassword("s3cret", cost)
		require.NoError(t, err)
		require.NoError(t, ComparePassword(hash, "s3cret"))
	}
}
