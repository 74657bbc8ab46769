package cache

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type payload struct {
	Total string `json:"total"`
}

type failingStore struct{}

func (failingStore) Get(context.Context, string) ([]byte, bool, error) {
	return nil, false, errors.New("store down")
}
func (failingStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("store down")
}
func (failingStore) Delete(context.Context, ...string) error { return errors.New("store down") }

func TestFetch_MemoizesUntilInvalidated(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10)
	calls := 0
	load := func(context.Context) (payload, error) {
		calls++
		return payload{Total: "150"}, nil
	}

	for range 3 {
		v, err := Fetch(ctx, store, "k", time.Hour, load)
		require.NoError(t, err)
		assert.Equal(t, "150", v.Total)
	}
	assert.Equal(t, 1, calls)

	require.NoError(t, store.Delete(ctx, "k"))
	_, err := Fetch(ctx, store, "k", time.Hour, load)
	require.NoError(t, err)
	assert.Equal(t, 2, calls)
}

func TestFetch_StoreFailureBypasses(t *testing.T) {
	v, err := Fetch(context.Background(), failingStore{}, "k", time.Hour, func(context.Context) (payload, error) {
		return payload{Total: "7"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "7", v.Total)
}

func TestFetch_LoadErrorNotCached(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10)
	boom := errors.New("boom")

	_, err := Fetch(ctx, store, "k", time.Hour, func(context.Context) (payload, error) {
		return payload{}, boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Equal(t, 0, store.Len())
}

func TestFetch_UndecodableEntryReloads(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10)
	require.NoError(t, store.Set(ctx, "k", []byte("{not json"), time.Hour))

	v, err := Fetch(ctx, store, "k", time.Hour, func(context.Context) (payload, error) {
		return payload{Total: "1"}, nil
	})
	require.NoError(t, err)
	assert.Equal(t, "1", v.Total)
}

func TestLedgerKeys(t *testing.T) {
	user := uuid.MustParse("11111111-1111-1111-1111-111111111111")
	may := time.Date(2024, 5, 3, 0, 0, 0, 0, time.UTC)
	alsoMay := time.Date(2024, 5, 28, 0, 0, 0, 0, time.UTC)
	june := time.Date(2024, 6, 1, 0, 0, 0, 0, time.UTC)

	keys := LedgerKeys(user, may, alsoMay, june)
	assert.Equal(t, []string{
		"accounts:11111111-1111-1111-1111-111111111111",
		"analytics:11111111-1111-1111-1111-111111111111:2024-05",
		"analytics:11111111-1111-1111-1111-111111111111:2024-06",
	}, keys)
}

type recordingPublisher struct {
	keys []string
	err  error
}

func (p *recordingPublisher) PublishInvalidation(_ context.Context, _ uuid.UUID, keys []string) error {
	p.keys = append(p.keys, keys...)
	return p.err
}

func TestInvalidator(t *testing.T) {
	ctx := context.Background()
	store := NewMemory(10)
	require.NoError(t, store.Set(ctx, "a", []byte("1"), time.Hour))
	require.NoError(t, store.Set(ctx, "b", []byte("2"), time.Hour))

	pub := &recordingPublisher{err: errors.New("broker down")}
	inv := NewInvalidator(store, pub)

	inv.Invalidate(ctx, uuid.New(), "a")
	assert.Equal(t, []string{"a"}, pub.keys)
	_, ok, _ := store.Get(ctx, "a")
	assert.False(t, ok)

	require.NoError(t, inv.Apply(ctx, []string{"b"}))
	assert.Equal(t, 0, store.Len())
	assert.Equal(t, []string{"a"}, pub.keys, "apply does not re-publish")
}

func TestInvalidator_FailingStoreDoesNotPanic(t *testing.T) {
	inv := NewInvalidator(failingStore{}, nil)
	inv.Invalidate(context.Background(), uuid.New(), "a")
}
