package identity

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/teambrain/core"
)

func TestStaticResolver(t *testing.T) {
	r := NewStaticResolver()
	r.Add("token-1", core.Identity{UserID: "alice", TeamID: "team-a", DisplayName: "Alice"})

	id, err := r.Resolve(context.Background(), "token-1")
	require.NoError(t, err)
	assert.Equal(t, "alice", id.UserID)
	assert.Equal(t, "team-a", id.TeamID)

	_, err = r.Resolve(context.Background(), "unknown")
	var authErr *core.AuthError
	assert.ErrorAs(t, err, &authErr)
}

func TestJWTResolverRoundTrip(t *testing.T) {
	secret := []byte("test-secret")
	want := core.Identity{UserID: "bob", TeamID: "team-b", DisplayName: "Bob"}

	token, err := SignToken(secret, want, time.Hour)
	require.NoError(t, err)

	got, err := NewJWTResolver(secret).Resolve(context.Background(), token)
	require.NoError(t, err)
	assert.Equal(t, want, got)
}

func TestJWTResolverRejectsBadTokens(t *testing.T) {
	secret := []byte("test-secret")
	resolver := NewJWTResolver(secret)
	var authErr *core.AuthError

	t.Run("garbage", func(t *testing.T) {
		_, err := resolver.Resolve(context.Background(), "not-a-jwt")
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("wrong secret", func(t *testing.T) {
		token, err := SignToken([]byte("other-secret"), core.Identity{UserID: "x", TeamID: "y"}, time.Hour)
		require.NoError(t, err)
		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("expired", func(t *testing.T) {
		token, err := SignToken(secret, core.Identity{UserID: "x", TeamID: "y"}, -time.Minute)
		require.NoError(t, err)
		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorAs(t, err, &authErr)
	})

	t.Run("missing team claim", func(t *testing.T) {
		token, err := SignToken(secret, core.Identity{UserID: "x"}, time.Hour)
		require.NoError(t, err)
		_, err = resolver.Resolve(context.Background(), token)
		assert.ErrorAs(t, err, &authErr)
	})
}
