package session

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/spec-kit/support-console/internal/domain"
)

func testUser() *domain.User {
	return &domain.User{ID: "u-1", Email: "agent@example.com", Role: domain.RoleAgent, Permissions: []string{"tickets:read"}}
}

func TestStoreSetAndRead(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend, WithPrefix("t."))

	require.NoError(t, store.Set(ctx, "a1", "r1", testUser()))

	assert.Equal(t, "a1", store.Access(ctx))
	assert.Equal(t, "r1", store.RefreshToken(ctx))
	assert.Equal(t, testUser(), store.User(ctx))
	assert.True(t, store.Snapshot(ctx).Authenticated())

	raw, ok, err := backend.Get(ctx, "t.access_token")
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, "a1", raw)
}

func TestStoreSetTokensKeepsUser(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())
	require.NoError(t, store.Set(ctx, "a1", "r1", testUser()))

	require.NoError(t, store.SetTokens(ctx, "a2", "r2"))

	snap := store.Snapshot(ctx)
	assert.Equal(t, "a2", snap.AccessToken)
	assert.Equal(t, "r2", snap.RefreshToken)
	assert.Equal(t, "u-1", snap.User.ID)
}

func TestStoreClear(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())
	require.NoError(t, store.Set(ctx, "a1", "r1", testUser()))

	require.NoError(t, store.Clear(ctx))

	snap := store.Snapshot(ctx)
	assert.Equal(t, Snapshot{}, snap)
	assert.False(t, snap.Authenticated())
}

func TestStoreWithoutBackendReadsEmpty(t *testing.T) {
	ctx := context.Background()
	store := NewStore(nil)

	assert.NotPanics(t, func() {
		assert.NoError(t, store.Set(ctx, "a1", "r1", testUser()))
		assert.Equal(t, "", store.Access(ctx))
		assert.Equal(t, "", store.RefreshToken(ctx))
		assert.Nil(t, store.User(ctx))
		assert.NoError(t, store.Clear(ctx))
	})
	stop, err := store.Watch(ctx, func() {})
	require.NoError(t, err)
	stop()
}

func TestStoreMalformedUserReadsAsAbsent(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)
	require.NoError(t, backend.Set(ctx, DefaultPrefix+"user", "{not json"))
	require.NoError(t, backend.Set(ctx, DefaultPrefix+"access_token", "a1"))

	assert.Nil(t, store.User(ctx))
	assert.False(t, store.Snapshot(ctx).Authenticated())
}

func TestStorePartialSessionIsNotAuthenticated(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	store := NewStore(backend)
	require.NoError(t, store.Set(ctx, "a1", "r1", testUser()))

	require.NoError(t, backend.Delete(ctx, DefaultPrefix+"refresh_token"))
	assert.False(t, store.Snapshot(ctx).Authenticated())

	require.NoError(t, backend.Delete(ctx, DefaultPrefix+"user"))
	snap := store.Snapshot(ctx)
	assert.Equal(t, "a1", snap.AccessToken)
	assert.False(t, snap.Authenticated())
}

func TestStoreFiresChangeOncePerMutation(t *testing.T) {
	ctx := context.Background()
	store := NewStore(NewMemoryBackend())

	var fired atomic.Int32
	unsubscribe := store.Changes().Subscribe(func() { fired.Add(1) })

	require.NoError(t, store.Set(ctx, "a1", "r1", testUser()))
	assert.Equal(t, int32(1), fired.Load())
	require.NoError(t, store.SetTokens(ctx, "a2", "r2"))
	assert.Equal(t, int32(2), fired.Load())
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, int32(3), fired.Load())

	unsubscribe()
	unsubscribe()
	require.NoError(t, store.Clear(ctx))
	assert.Equal(t, int32(3), fired.Load())
}

type failingBackend struct{ *MemoryBackend }

func (failingBackend) Get(context.Context, string) (string, bool, error) {
	return "", false, errors.New("backend down")
}

func (failingBackend) Set(context.Context, string, string) error {
	return errors.New("backend down")
}

func TestStoreBackendErrorsReadAsAbsent(t *testing.T) {
	ctx := context.Background()
	store := NewStore(failingBackend{NewMemoryBackend()})

	var fired atomic.Int32
	store.Changes().Subscribe(func() { fired.Add(1) })

	assert.Error(t, store.Set(ctx, "a1", "r1", testUser()))
	assert.Equal(t, int32(1), fired.Load())
	assert.Equal(t, "", store.Access(ctx))
	assert.Nil(t, store.User(ctx))
}

func TestStoreBroadcastReachesOtherStoresOnly(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	tabA := NewStore(backend)
	tabB := NewStore(backend)
	otherApp := NewStore(backend, WithPrefix("other."))

	var seenA, seenB, seenOther atomic.Int32
	stopA, err := tabA.Watch(ctx, func() { seenA.Add(1) })
	require.NoError(t, err)
	defer stopA()
	stopB, err := tabB.Watch(ctx, func() { seenB.Add(1) })
	require.NoError(t, err)
	defer stopB()
	stopOther, err := otherApp.Watch(ctx, func() { seenOther.Add(1) })
	require.NoError(t, err)
	defer stopOther()

	require.NoError(t, tabA.Set(ctx, "a1", "r1", testUser()))

	assert.Equal(t, int32(0), seenA.Load())
	assert.Equal(t, int32(1), seenB.Load())
	assert.Equal(t, int32(0), seenOther.Load())
	assert.Equal(t, "a1", tabB.Access(ctx))
}
