package service_test

import (
	"context"
	"errors"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

// mockImageFinder is a hand-written test double for service.ImageFinder.
type mockImageFinder struct {
	find func(ctx context.Context, term string) (string, bool)
}

func (m *mockImageFinder) Find(ctx context.Context, term string) (string, bool) {
	return m.find(ctx, term)
}

// compile-time check: mockImageFinder must satisfy service.ImageFinder.
var _ service.ImageFinder = (*mockImageFinder)(nil)

func TestEnricher_MergesTipsAndImage(t *testing.T) {
	store, _ := newTestStore(t)
	d := draft("Louvre", "2024-05-01T09:00")
	d.Location = "Musée du Louvre"
	e := mustCreate(t, store, d)

	var term string
	images := &mockImageFinder{find: func(_ context.Context, q string) (string, bool) {
		term = q
		return "https://upload.example/louvre.jpg", true
	}}
	gen := replying("```json\n{\"mustDos\":[\"Mona Lisa\"],\"warnings\":[\"Closed Tuesdays\"]}\n```")
	enricher := service.NewEnricher(store, gen, images, nil)

	started, err := enricher.Start(e.ID)
	require.NoError(t, err)
	assert.True(t, started)
	enricher.Wait()

	got, err := store.Get(e.ID)
	require.NoError(t, err)
	assert.Equal(t, "Musée du Louvre", term)
	assert.Equal(t, "https://upload.example/louvre.jpg", got.ImageURL)
	assert.Equal(t, []string{"Mona Lisa"}, got.MustDos)
	assert.Equal(t, []string{"Closed Tuesdays"}, got.Warnings)
	assert.False(t, enricher.InFlight(e.ID))
}

func TestEnricher_UnknownEvent(t *testing.T) {
	store, _ := newTestStore(t)
	enricher := service.NewEnricher(store, nil, nil, nil)

	started, err := enricher.Start("missing")

	assert.False(t, started)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestEnricher_SecondStartWhileInFlightIsNoop(t *testing.T) {
	store, _ := newTestStore(t)
	a := mustCreate(t, store, draft("A", "2024-05-01T09:00"))
	b := mustCreate(t, store, draft("B", "2024-05-01T10:00"))

	release := make(chan struct{})
	var calls atomic.Int32
	gen := &mockGenerator{generate: func(ctx context.Context, _ string) (string, error) {
		calls.Add(1)
		<-release
		return `{"mustDos":["x"]}`, nil
	}}
	enricher := service.NewEnricher(store, gen, nil, nil)

	first, err := enricher.Start(a.ID)
	require.NoError(t, err)
	second, err := enricher.Start(a.ID)
	require.NoError(t, err)
	other, err := enricher.Start(b.ID)
	require.NoError(t, err)

	assert.True(t, first)
	assert.False(t, second, "a run for the same id is already in flight")
	assert.True(t, other, "different ids run independently")
	assert.True(t, enricher.InFlight(a.ID))

	close(release)
	enricher.Wait()

	assert.Equal(t, int32(2), calls.Load())
	assert.False(t, enricher.InFlight(a.ID))

	again, err := enricher.Start(a.ID)
	require.NoError(t, err)
	assert.True(t, again, "a finished run no longer blocks new ones")
	enricher.Wait()
}

func TestEnricher_FailuresLeaveEventUntouched(t *testing.T) {
	store, sched := newTestStore(t)
	e := mustCreate(t, store, draft("Louvre", "2024-05-01T09:00"))
	commits := sched.count()

	gen := &mockGenerator{generate: func(context.Context, string) (string, error) {
		return "", errors.New("upstream down")
	}}
	images := &mockImageFinder{find: func(context.Context, string) (string, bool) { return "", false }}
	enricher := service.NewEnricher(store, gen, images, nil)

	_, err := enricher.Start(e.ID)
	require.NoError(t, err)
	enricher.Wait()

	got, err := store.Get(e.ID)
	require.NoError(t, err)
	assert.Empty(t, got.ImageURL)
	assert.Empty(t, got.MustDos)
	assert.Equal(t, commits, sched.count())
}

func TestEnricher_EventDeletedMeanwhile(t *testing.T) {
	store, _ := newTestStore(t)
	e := mustCreate(t, store, draft("Louvre", "2024-05-01T09:00"))

	gen := &mockGenerator{generate: func(context.Context, string) (string, error) {
		store.Delete(e.ID)
		return `{"warnings":["late"]}`, nil
	}}
	enricher := service.NewEnricher(store, gen, nil, nil)

	_, err := enricher.Start(e.ID)
	require.NoError(t, err)
	enricher.Wait()

	_, err = store.Get(e.ID)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
