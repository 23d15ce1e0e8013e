package repo_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/repo"
)

// failingKV returns err from every call.
type failingKV struct{ err error }

func (f failingKV) Get(context.Context, string) (string, bool, error) { return "", false, f.err }
func (f failingKV) Put(context.Context, string, string) error         { return f.err }

func TestSnapshotRepo_LoadEmpty(t *testing.T) {
	r := repo.NewSnapshotRepo(repo.NewMemoryKV(), time.UTC, nil)

	snap, err := r.Load(context.Background())

	require.NoError(t, err)
	assert.NotNil(t, snap.Events)
	assert.Empty(t, snap.Events)
	assert.Empty(t, snap.Rates)
}

func TestSnapshotRepo_SaveThenLoad(t *testing.T) {
	kv := repo.NewMemoryKV()
	r := repo.NewSnapshotRepo(kv, time.UTC, nil)
	ctx := context.Background()

	start := domain.NewTimestamp(time.Date(2024, 5, 1, 9, 0, 0, 0, time.Local))
	in := domain.Snapshot{
		Events: []domain.Event{{
			ID: "e1", Title: "Louvre", StartTime: start, Type: domain.EventActivity,
			Cost: decimal.NewFromInt(17), Currency: "EUR",
		}},
		Rates: domain.RateTable{"EUR": decimal.RequireFromString("8.5")},
	}
	require.NoError(t, r.Save(ctx, in))

	out, err := r.Load(ctx)
	require.NoError(t, err)
	require.Len(t, out.Events, 1)
	assert.Equal(t, "e1", out.Events[0].ID)
	assert.Equal(t, "2024-05-01T09:00", out.Events[0].StartTime.String())
	assert.True(t, decimal.NewFromInt(17).Equal(out.Events[0].Cost))
	assert.True(t, decimal.RequireFromString("8.5").Equal(out.Rates["EUR"]))

	raw, ok, err := kv.Get(ctx, repo.RatesKey)
	require.NoError(t, err)
	require.True(t, ok)
	assert.JSONEq(t, `{"EUR":8.5}`, raw)
}

func TestSnapshotRepo_LoadSkipsMalformedEntries(t *testing.T) {
	kv := repo.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, repo.EventsKey, `[
		{"id":"ok","title":"Fine","startTime":"2024-05-01T09:00","currency":"EUR"},
		{"id":"bad","title":"","startTime":"2024-05-01T09:00"},
		42,
		{"id":"late","title":"Also fine","startTime":"2024-05-02 10:00:30","currency":"EUR"}
	]`))
	require.NoError(t, kv.Put(ctx, repo.RatesKey, `{"EUR":"oops"}`))

	snap, err := repo.NewSnapshotRepo(kv, time.UTC, nil).Load(ctx)

	require.NoError(t, err)
	require.Len(t, snap.Events, 2)
	assert.Equal(t, "ok", snap.Events[0].ID)
	assert.Equal(t, "late", snap.Events[1].ID)
	assert.Equal(t, "2024-05-02T10:00:30", snap.Events[1].StartTime.String())
	assert.Empty(t, snap.Rates, "malformed rates fall back to an empty table")
}

func TestSnapshotRepo_LoadNotAList(t *testing.T) {
	kv := repo.NewMemoryKV()
	ctx := context.Background()
	require.NoError(t, kv.Put(ctx, repo.EventsKey, `{"not":"a list"}`))

	snap, err := repo.NewSnapshotRepo(kv, time.UTC, nil).Load(ctx)

	require.NoError(t, err)
	assert.Empty(t, snap.Events)
}

func TestSnapshotRepo_StorageErrors(t *testing.T) {
	boom := errors.New("connection reset")
	r := repo.NewSnapshotRepo(failingKV{err: boom}, time.UTC, nil)

	_, err := r.Load(context.Background())
	assert.ErrorIs(t, err, boom)

	err = r.Save(context.Background(), domain.Snapshot{})
	assert.ErrorIs(t, err, boom)
}

func TestSnapshotRepo_LoadUsesConfiguredLocation(t *testing.T) {
	tokyo := time.FixedZone("JST", 9*3600)
	kv := repo.NewMemoryKV()
	ctx := context.Background()
	start := domain.NewTimestamp(time.Date(2025, 6, 1, 8, 0, 0, 0, tokyo))
	require.NoError(t, repo.NewSnapshotRepo(kv, tokyo, nil).Save(ctx, domain.Snapshot{
		Events: []domain.Event{{ID: "a", Title: "Tsukiji breakfast", StartTime: start, Currency: "JPY"}},
	}))

	snap, err := repo.NewSnapshotRepo(kv, tokyo, nil).Load(ctx)

	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	got := snap.Events[0].StartTime
	assert.Equal(t, "2025-06-01T08:00", got.String())
	assert.True(t, start.Equal(got.Time), "instant survives the reload")
	assert.Equal(t, tokyo, got.Location())
}

func TestSnapshotRepo_StringsWithMarkupSurvive(t *testing.T) {
	kv := repo.NewMemoryKV()
	r := repo.NewSnapshotRepo(kv, time.UTC, nil)
	ctx := context.Background()
	in := domain.Event{
		ID: "a", Title: "River walk ~~~scenic", Currency: "EUR",
		StartTime: domain.NewTimestamp(time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)),
		Warnings:  []string{"Use ```code``` at gate", "[not] {a} list"},
	}
	require.NoError(t, r.Save(ctx, domain.Snapshot{Events: []domain.Event{in}}))

	snap, err := r.Load(ctx)

	require.NoError(t, err)
	require.Len(t, snap.Events, 1)
	assert.Equal(t, in.Title, snap.Events[0].Title)
	assert.Equal(t, in.Warnings, snap.Events[0].Warnings)
}
