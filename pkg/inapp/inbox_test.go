package inapp_test

import (
	"context"
	"errors"
	"fmt"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/titanhq/notifier/pkg/inapp"
	"github.com/titanhq/notifier/pkg/kv"
)

type brokenStore struct{}

func (brokenStore) Get(context.Context, string) ([]byte, error) {
	return nil, errors.New("connection refused")
}

func (brokenStore) Set(context.Context, string, []byte, time.Duration) error {
	return errors.New("connection refused")
}

func (brokenStore) Delete(context.Context, string) error {
	return errors.New("connection refused")
}

func note(id string) inapp.Notification {
	return inapp.Notification{
		ID:        id,
		Type:      "price_alert",
		Title:     "Price Alert: BTC",
		Message:   "BTC crossed 50000",
		Priority:  "medium",
		Icon:      "fa-chart-line",
		Color:     "blue",
		CreatedAt: time.Now().UTC(),
	}
}

func TestInbox_PushStoresNotification(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()
	inbox := inapp.NewInbox(store)

	require.NoError(t, inbox.Push(ctx, note("n1")))

	raw, err := store.Get(ctx, "inapp_notification_n1")
	require.NoError(t, err)
	assert.Contains(t, string(raw), `"title":"Price Alert: BTC"`)

	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n1"}, ids)
}

func TestInbox_ActiveListIsCapped(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inbox := inapp.NewInbox(kv.NewMemoryStore())

	for i := range 51 {
		require.NoError(t, inbox.Push(ctx, note(fmt.Sprintf("n%d", i))))
	}

	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Len(t, ids, 50)
	assert.Equal(t, "n1", ids[0], "oldest id must be dropped")
	assert.Equal(t, "n50", ids[49])
}

func TestInbox_CustomCapacity(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inbox := inapp.NewInbox(kv.NewMemoryStore(), inapp.WithMaxActive(2))

	for _, id := range []string{"a", "b", "c"} {
		require.NoError(t, inbox.Push(ctx, note(id)))
	}
	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, ids)
}

func TestInbox_Poll(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()
	inbox := inapp.NewInbox(store)

	for i := range 12 {
		require.NoError(t, inbox.Push(ctx, note(fmt.Sprintf("n%d", i))))
	}

	got, err := inbox.Poll(ctx, 0)
	require.NoError(t, err)
	require.Len(t, got, 10)
	assert.Equal(t, "n0", got[0].ID)
	assert.Equal(t, "n9", got[9].ID)

	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"n10", "n11"}, ids)

	got, err = inbox.Poll(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)

	_, err = store.Get(ctx, inapp.ActiveKey)
	assert.ErrorIs(t, err, kv.ErrNotFound, "empty active list is deleted")

	got, err = inbox.Poll(ctx, 10)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestInbox_PollSkipsExpiredPayloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()
	inbox := inapp.NewInbox(store)

	require.NoError(t, inbox.Push(ctx, note("gone")))
	require.NoError(t, inbox.Push(ctx, note("here")))
	require.NoError(t, store.Delete(ctx, inapp.Key("gone")))

	got, err := inbox.Poll(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, "here", got[0].ID)

	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Empty(t, ids)
}

func TestInbox_PollScansPastExpiredPayloads(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	store := kv.NewMemoryStore()
	inbox := inapp.NewInbox(store)

	for n := range 10 {
		id := fmt.Sprintf("stale-%d", n)
		require.NoError(t, inbox.Push(ctx, note(id)))
		require.NoError(t, store.Delete(ctx, inapp.Key(id)))
	}
	for n := range 5 {
		require.NoError(t, inbox.Push(ctx, note(fmt.Sprintf("fresh-%d", n))))
	}

	got, err := inbox.Poll(ctx, 3)
	require.NoError(t, err)
	require.Len(t, got, 3)
	assert.Equal(t, "fresh-0", got[0].ID)
	assert.Equal(t, "fresh-2", got[2].ID)

	ids, err := inbox.Active(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"fresh-3", "fresh-4"}, ids)

	got, err = inbox.Poll(ctx, 10)
	require.NoError(t, err)
	assert.Len(t, got, 2)
}

func TestInbox_StorageUnavailable(t *testing.T) {
	t.Parallel()

	ctx := context.Background()
	inbox := inapp.NewInbox(brokenStore{})

	err := inbox.Push(ctx, note("n1"))
	require.Error(t, err)
	assert.ErrorIs(t, err, inapp.ErrStorage)

	_, err = inbox.Poll(ctx, 10)
	assert.ErrorIs(t, err, inapp.ErrStorage)
}

func TestInbox_MissingID(t *testing.T) {
	t.Parallel()

	inbox := inapp.NewInbox(kv.NewMemoryStore())
	err := inbox.Push(context.Background(), inapp.Notification{Title: "x"})
	assert.ErrorIs(t, err, inapp.ErrMissingID)
}
