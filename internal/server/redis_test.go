package server

import (
	"net/http"
	"testing"

	"inkwell/internal/cache"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRedisTestEnv(t *testing.T) (*testEnv, *miniredis.Miniredis) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() { _ = client.Close() })
	return newTestEnvWithRedis(t, client), mr
}

func TestIndexCachedInRedis(t *testing.T) {
	env, mr := newRedisTestEnv(t)
	author := env.createUser(t, "leo")
	posts := env.createPosts(t, author, nil, 1)

	first := env.get(t, "/?page=1", nil)
	require.Equal(t, http.StatusOK, first.status)

	key := cache.PageKey(cache.IndexPage, 0, "page=1")
	assert.True(t, mr.Exists(key))
	assert.Equal(t, cache.IndexPageTTL, mr.TTL(key))

	require.NoError(t, env.db.Delete(posts[0]).Error)
	cached := env.get(t, "/?page=1", nil)
	assert.Equal(t, first.body, cached.body)

	require.NoError(t, env.server.ClearPageCache(t.Context()))
	assert.False(t, mr.Exists(key))
}

func TestRedisReadinessAndRevocation(t *testing.T) {
	env, mr := newRedisTestEnv(t)

	ready := env.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusOK, ready.status)
	assert.Contains(t, ready.body, `"redis":"healthy"`)

	user := env.createUser(t, "anna")
	cookie := env.sessionCookie(t, user)
	require.Equal(t, http.StatusOK, env.get(t, "/follow/", cookie).status)

	require.Equal(t, http.StatusOK, env.get(t, "/auth/logout/", cookie).status)
	assert.NotEmpty(t, mr.Keys())
	assert.Equal(t, http.StatusFound, env.get(t, "/follow/", cookie).status)

	mr.Close()
	down := env.get(t, "/health/ready", nil)
	assert.Equal(t, http.StatusServiceUnavailable, down.status)
}
