package reconcile

import (
	"context"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

func samplePending() PendingImport {
	candidates := []Candidate{{ID: "c1", Code: "AUTO-1", Name: "Milk", Price: "0", Color: "#64748b"}, {ID: "c2", Code: "T-1", Name: "Tea", Price: "3"}}
	return PendingImport{
		ID:     "imp-1",
		Source: SourceAI,
		State:  StateAwaitingConfirmation,
		Rows: []ListRow{
			{ID: "r1", Name: "Milk", Qty: Qty(2), ExpiryDate: "2025-12-31"},
			{ID: "r2", Name: "Tea"},
		},
		Candidates: candidates,
		Selected:   SelectAll(candidates).Without("c2"),
		CreatedAt:  time.Date(2025, 1, 2, 3, 4, 5, 0, time.UTC),
	}
}

func requireSamePending(t *testing.T, want, got PendingImport) {
	t.Helper()
	require.True(t, want.CreatedAt.Equal(got.CreatedAt))
	require.Equal(t, want.Selected.IDs(), got.Selected.IDs())
	want.CreatedAt, got.CreatedAt = time.Time{}, time.Time{}
	want.Selected, got.Selected = Selection{}, Selection{}
	require.Equal(t, want, got)
}

func TestRedisPendingStoreRoundTrip(t *testing.T) {
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	defer client.Close()
	store := NewRedisPendingStore(client)
	ctx := context.Background()

	want := samplePending()
	require.NoError(t, store.Save(ctx, want))
	require.True(t, mr.Exists("reconcile:pending:imp-1"))
	require.Zero(t, mr.TTL("reconcile:pending:imp-1"), "abandoned confirmations never expire")

	got, err := store.Load(ctx, "imp-1")
	require.NoError(t, err)
	requireSamePending(t, want, got)
	require.False(t, got.Rows[1].Qty.Valid)

	require.NoError(t, store.Delete(ctx, "imp-1"))
	_, err = store.Load(ctx, "imp-1")
	require.ErrorIs(t, err, ErrPendingNotFound)
	require.ErrorIs(t, store.Delete(ctx, "imp-1"), ErrPendingNotFound)
}

func TestMemoryPendingStore(t *testing.T) {
	store := NewMemoryPendingStore()
	ctx := context.Background()

	_, err := store.Load(ctx, "missing")
	require.ErrorIs(t, err, ErrPendingNotFound)

	want := samplePending()
	require.NoError(t, store.Save(ctx, want))
	got, err := store.Load(ctx, want.ID)
	require.NoError(t, err)
	requireSamePending(t, want, got)

	require.NoError(t, store.Delete(ctx, want.ID))
	require.ErrorIs(t, store.Delete(ctx, want.ID), ErrPendingNotFound)
}
