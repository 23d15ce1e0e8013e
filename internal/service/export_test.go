package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

func TestExportService_Export(t *testing.T) {
	store, _ := newTestStore(t)
	seedTrip(t, store)
	svc := service.NewExportService(store, "hkd")

	rows := svc.Export()

	require.Len(t, rows, 2)
	assert.Equal(t, "HKD", svc.Base())

	louvre := rows[0]
	assert.Equal(t, "Louvre", louvre.Title)
	assert.Equal(t, "2024-05-01", louvre.Date)
	assert.Equal(t, "09:00", louvre.Time)
	assert.Empty(t, louvre.EndTime)
	assert.Equal(t, "17", louvre.Cost)
	assert.Equal(t, "8.5", louvre.Rate)
	assert.Equal(t, "144.50", louvre.BaseAmount)

	train := rows[1]
	assert.Equal(t, "transport", train.Type)
	assert.Equal(t, "2024-05-02T10:13", train.EndTime)
	assert.Equal(t, "424.15", train.BaseAmount)
}

func TestExportService_Expenses(t *testing.T) {
	store, _ := newTestStore(t)
	seedTrip(t, store)
	svc := service.NewExportService(store, "HKD")

	summary := svc.Expenses()

	assert.Equal(t, "HKD", summary.Base)
	// (17 + 49.90) * 8.5
	assert.True(t, decimal.RequireFromString("568.65").Equal(summary.Total), "got %s", summary.Total)
}

func TestExportService_Calendar(t *testing.T) {
	store, _ := newTestStore(t)
	seedTrip(t, store)
	svc := service.NewExportService(store, "HKD")
	events := store.List(service.ListFilter{})

	entry, err := svc.Calendar(events[0].ID)
	require.NoError(t, err)
	assert.Equal(t, events[0].ID, entry.UID)
	assert.Equal(t, "2024-05-01T10:00", domain.NewTimestamp(entry.End).String(), "no end time means one hour")
	assert.Contains(t, entry.Notes, "Must do: Winged Victory")

	_, err = svc.Calendar("missing")
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
