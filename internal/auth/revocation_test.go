package auth

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/golang-jwt/jwt/v5"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestRedis(t *testing.T) (*redis.Client, *miniredis.Miniredis) {
	mr, err := miniredis.Run()
	require.NoError(t, err)

	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	t.Cleanup(func() {
		client.Close()
		mr.Close()
	})
	return client, mr
}

func TestRedisRevocationStore(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisRevocationStore(client)
	ctx := context.Background()

	revoked, err := store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)

	require.NoError(t, store.Revoke(ctx, "jti-1", time.Now().Add(time.Hour)))
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.True(t, revoked)

	mr.FastForward(2 * time.Hour)
	revoked, err = store.IsRevoked(ctx, "jti-1")
	require.NoError(t, err)
	assert.False(t, revoked)
}

func TestRedisRevocationStore_ExpiredTokenIsNoop(t *testing.T) {
	client, mr := setupTestRedis(t)
	store := NewRedisRevocationStore(client)

	require.NoError(t, store.Revoke(context.Background(), "old", time.Now().Add(-time.Minute)))
	assert.False(t, mr.Exists("auth:revoked:old"))
}

func TestRedisRevocationStore_RedisDown(t *testing.T) {
	client, mr := setupTestRedis(t)
	mr.Close()

	_, err := NewRedisRevocationStore(client).IsRevoked(context.Background(), "jti")
	assert.Error(t, err)
}

func TestRevokeHandler(t *testing.T) {
	client, _ := setupTestRedis(t)
	store := NewRedisRevocationStore(client)

	claims := &OperatorClaims{
		Role: RoleViewer,
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        "jti-7",
			Subject:   "ops",
			ExpiresAt: jwt.NewNumericDate(time.Now().Add(time.Hour)),
		},
	}
	req := httptest.NewRequest(http.MethodPost, "/auth/revoke", nil)
	req = req.WithContext(WithClaims(req.Context(), claims))
	rec := httptest.NewRecorder()

	RevokeHandler(store, nil).ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	assert.Equal(t, true, body["success"])

	revoked, err := store.IsRevoked(context.Background(), "jti-7")
	require.NoError(t, err)
	assert.True(t, revoked)
}

func TestRevokeHandler_WithoutStore(t *testing.T) {
	rec := httptest.NewRecorder()
	RevokeHandler(nil, nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/revoke", nil))
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
}

func TestRevokeHandler_WithoutClaims(t *testing.T) {
	client, _ := setupTestRedis(t)
	rec := httptest.NewRecorder()
	RevokeHandler(NewRedisRevocationStore(client), nil).ServeHTTP(rec, httptest.NewRequest(http.MethodPost, "/auth/revoke", nil))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}
