package journal

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func openTemp(t *testing.T) *Journal {
	t.Helper()
	j, err := Open(filepath.Join(t.TempDir(), "nested", "journal.db"))
	require.NoError(t, err)
	t.Cleanup(func() { j.Close() })
	return j
}

func TestRecordAndRecent(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	require.NoError(t, j.Record(ctx, Transaction{Action: "place", Ticket: 1, Symbol: "WIN", Type: "BUY_LIMIT", Volume: 1, Price: 9900, RetCode: 10009}))
	require.NoError(t, j.Record(ctx, Transaction{Action: "delete", Ticket: 1, Symbol: "WIN", Type: "BUY_LIMIT", RetCode: 10006, Error: "rejected"}))

	got, err := j.Recent(ctx, 10)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "delete", got[0].Action)
	assert.Equal(t, "rejected", got[0].Error)
	assert.Equal(t, "place", got[1].Action)
	assert.Equal(t, 9900.0, got[1].Price)
	assert.False(t, got[1].Created.IsZero())

	got, err = j.Recent(ctx, 1)
	require.NoError(t, err)
	assert.Len(t, got, 1)
}

func TestDeletedTickets(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()
	start := time.Date(2026, 3, 2, 10, 0, 0, 0, time.UTC)

	require.NoError(t, j.Record(ctx, Transaction{Action: "delete", Ticket: 1, Created: start.Add(-time.Hour)}))
	require.NoError(t, j.Record(ctx, Transaction{Action: "delete", Ticket: 2, Created: start.Add(time.Minute)}))
	require.NoError(t, j.Record(ctx, Transaction{Action: "delete", Ticket: 2, Created: start.Add(2 * time.Minute)}))
	require.NoError(t, j.Record(ctx, Transaction{Action: "delete", Ticket: 3, Error: "rejected", Created: start.Add(time.Minute)}))
	require.NoError(t, j.Record(ctx, Transaction{Action: "place", Ticket: 4, Created: start.Add(time.Minute)}))

	got, err := j.DeletedTickets(ctx, start)
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{2: true}, got)

	got, err = j.DeletedTickets(ctx, time.Time{})
	require.NoError(t, err)
	assert.Equal(t, map[int64]bool{1: true, 2: true}, got)
}

func TestSnapshotUpsert(t *testing.T) {
	j := openTemp(t)
	ctx := context.Background()

	_, ok, err := j.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	assert.False(t, ok)

	require.NoError(t, j.SaveSnapshot(ctx, 7, []byte(`{"a":1}`)))
	require.NoError(t, j.SaveSnapshot(ctx, 7, []byte(`{"a":2}`)))
	require.NoError(t, j.SaveSnapshot(ctx, 8, []byte(`{"b":1}`)))

	payload, ok, err := j.LoadSnapshot(ctx, 7)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"a":2}`, string(payload))
}

func TestReopenKeepsData(t *testing.T) {
	path := filepath.Join(t.TempDir(), "journal.db")
	ctx := context.Background()

	j, err := Open(path)
	require.NoError(t, err)
	require.NoError(t, j.SaveSnapshot(ctx, 1, []byte(`{}`)))
	require.NoError(t, j.Close())

	j, err = Open(path)
	require.NoError(t, err)
	defer j.Close()
	_, ok, err := j.LoadSnapshot(ctx, 1)
	require.NoError(t, err)
	assert.True(t, ok)
}
