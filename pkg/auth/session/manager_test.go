package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/angelmondragon/cartsync-backend/pkg/config"
	redislib "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type mockStore struct {
	mu     sync.Mutex
	data   map[string]string
	getErr error
}

func newMockStore() *mockStore {
	return &mockStore{data: make(map[string]string)}
}

func (m *mockStore) Set(_ context.Context, key string, value any, _ time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.data[key] = fmt.Sprint(value)
	return nil
}

func (m *mockStore) Get(_ context.Context, key string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.getErr != nil {
		return "", m.getErr
	}
	val, ok := m.data[key]
	if !ok {
		return "", redislib.Nil
	}
	return val, nil
}

func (m *mockStore) Del(_ context.Context, keys ...string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, key := range keys {
		delete(m.data, key)
	}
	return nil
}

func (m *mockStore) AccessSessionKey(accessID string) string {
	return "sess:" + accessID
}

func newTestManager(t *testing.T) (*Manager, *mockStore) {
	t.Helper()
	store := newMockStore()
	manager, err := NewManager(store, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	require.NoError(t, err)
	return manager, store
}

func TestNewManagerValidatesTTL(t *testing.T) {
	_, err := NewManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 15})
	assert.Error(t, err)

	_, err = NewManager(newMockStore(), config.JWTConfig{ExpirationMinutes: 60, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)

	_, err = NewManager(nil, config.JWTConfig{ExpirationMinutes: 15, RefreshTokenTTLMinutes: 60})
	assert.Error(t, err)
}

func TestManagerIssueAndRotate(t *testing.T) {
	ctx := context.Background()
	manager, store := newTestManager(t)

	token, err := manager.Issue(ctx, "access-123")
	require.NoError(t, err)
	assert.Equal(t, token, store.data["sess:access-123"])

	_, _, err = manager.Rotate(ctx, "access-123", "wrong")
	assert.ErrorIs(t, err, ErrInvalidRefreshToken)

	newAccessID, newToken, err := manager.Rotate(ctx, "access-123", token)
	require.NoError(t, err)
	assert.NotEqual(t, "access-123", newAccessID)
	assert.NotContains(t, store.data, "sess:access-123")
	assert.Equal(t, newToken, store.data["sess:"+newAccessID])

	_, _, err = manager.Rotate(ctx, "access-123", token)
	assert.ErrorIs(t, err, ErrInvalidRefreshToken, "a rotated token cannot be replayed")
}

func TestManagerRevokeAndHasSession(t *testing.T) {
	ctx := context.Background()
	manager, _ := newTestManager(t)

	_, err := manager.Issue(ctx, "access-1")
	require.NoError(t, err)

	ok, err := manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.True(t, ok)

	require.NoError(t, manager.Revoke(ctx, "access-1"))
	ok, err = manager.HasSession(ctx, "access-1")
	require.NoError(t, err)
	assert.False(t, ok)

	ok, err = manager.HasSession(ctx, " ")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestManagerHasSessionPropagatesStoreErrors(t *testing.T) {
	manager, store := newTestManager(t)
	store.getErr = errors.New("connection refused")

	_, err := manager.HasSession(context.Background(), "access-1")
	assert.Error(t, err)
}
