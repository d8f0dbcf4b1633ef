package auth

import (
	"context"
	"testing"
	"time"

	"ai-doc-authoring/redis"

	"github.com/alicebob/miniredis/v2"
	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIssuer_RoundTrip(t *testing.T) {
	issuer := NewIssuer("secret", time.Hour)

	token, claims, err := issuer.Issue(42)
	require.NoError(t, err)
	assert.NotEmpty(t, claims.ID)

	verified, err := issuer.Verify(token)
	require.NoError(t, err)
	assert.Equal(t, uint64(42), verified.UserID)
	assert.Equal(t, claims.ID, verified.ID)
}

func TestIssuer_RejectsForeignSecret(t *testing.T) {
	token, _, err := NewIssuer("one", time.Hour).Issue(1)
	require.NoError(t, err)

	_, err = NewIssuer("two", time.Hour).Verify(token)
	assert.Error(t, err)
}

func TestIssuer_RejectsExpired(t *testing.T) {
	issuer := NewIssuer("secret", time.Minute)
	issuer.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }
	token, _, err := issuer.Issue(1)
	require.NoError(t, err)

	issuer.now = time.Now
	_, err = issuer.Verify(token)
	assert.Error(t, err)
}

func TestSessions_SaveRevoke(t *testing.T) {
	mr := miniredis.RunT(t)
	client := goredis.NewClient(&goredis.Options{Addr: mr.Addr()})
	defer client.Close()

	sessions := NewSessions(redis.NewCache(client))
	_, claims, err := NewIssuer("secret", time.Hour).Issue(7)
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, sessions.Save(ctx, claims))

	active, err := sessions.Active(ctx, claims.ID)
	require.NoError(t, err)
	assert.True(t, active)

	require.NoError(t, sessions.Revoke(ctx, claims.ID))
	active, err = sessions.Active(ctx, claims.ID)
	require.NoError(t, err)
	assert.False(t, active)
}

func TestSessions_DisabledAllowsAll(t *testing.T) {
	sessions := NewSessions(redis.NewCache(nil))
	active, err := sessions.Active(context.Background(), "anything")
	require.NoError(t, err)
	assert.True(t, active)
}
