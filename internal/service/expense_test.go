package service_test

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pkordes/trip-ledger/internal/domain"
	"github.com/pkordes/trip-ledger/internal/service"
)

func costly(title, amount, currency string) domain.Event {
	return domain.Event{Title: title, Cost: decimal.RequireFromString(amount), Currency: currency}
}

func TestSummarize_Empty(t *testing.T) {
	summary := service.Summarize(nil, domain.RateTable{}, "HKD")

	assert.Equal(t, "HKD", summary.Base)
	assert.True(t, summary.Total.IsZero())
	assert.Empty(t, summary.PerCurrency)
}

func TestSummarize_PerCurrencyFirstSeenOrder(t *testing.T) {
	events := []domain.Event{
		costly("Louvre", "17", "EUR"),
		costly("Sushi", "4000", "JPY"),
		costly("Free walk", "0", "EUR"),
		costly("Metro", "2.15", "EUR"),
	}
	rates := domain.RateTable{
		"EUR": decimal.RequireFromString("8.5"),
		"JPY": decimal.RequireFromString("0.052"),
	}

	summary := service.Summarize(events, rates, "HKD")

	require.Len(t, summary.PerCurrency, 2)
	assert.Equal(t, "EUR", summary.PerCurrency[0].Currency)
	assert.True(t, decimal.RequireFromString("19.15").Equal(summary.PerCurrency[0].Amount))
	assert.Equal(t, "JPY", summary.PerCurrency[1].Currency)
	assert.True(t, decimal.RequireFromString("4000").Equal(summary.PerCurrency[1].Amount))
	// 19.15*8.5 + 4000*0.052
	assert.True(t, decimal.RequireFromString("370.775").Equal(summary.Total), "got %s", summary.Total)
}

func TestSummarize_UnknownCurrencyConvertsAtOne(t *testing.T) {
	summary := service.Summarize([]domain.Event{costly("Taxi", "120", "THB")}, domain.RateTable{}, "HKD")

	require.Len(t, summary.PerCurrency, 1)
	assert.True(t, decimal.NewFromInt(1).Equal(summary.PerCurrency[0].Rate))
	assert.True(t, decimal.NewFromInt(120).Equal(summary.Total))
}

func TestSummarize_TotalIsSumOfConverted(t *testing.T) {
	events := []domain.Event{
		costly("a", "10.10", "EUR"),
		costly("b", "3.33", "USD"),
		costly("c", "99.99", "GBP"),
		costly("d", "0.01", "USD"),
	}
	rates := domain.RateTable{
		"EUR": decimal.RequireFromString("8.47"),
		"USD": decimal.RequireFromString("7.81"),
		"GBP": decimal.RequireFromString("9.93"),
	}

	summary := service.Summarize(events, rates, "HKD")

	want := decimal.Zero
	for _, ct := range summary.PerCurrency {
		want = want.Add(ct.Amount.Mul(rates.Rate(ct.Currency)))
	}
	assert.True(t, want.Equal(summary.Total))
}

func TestSummarize_DoesNotModifyInputs(t *testing.T) {
	events := []domain.Event{costly("a", "10", "EUR")}
	rates := domain.RateTable{"EUR": decimal.NewFromInt(2)}

	service.Summarize(events, rates, "HKD")

	assert.Len(t, rates, 1)
	assert.True(t, decimal.NewFromInt(10).Equal(events[0].Cost))
}
