package service

import (
	"github.com/shopspring/decimal"

	"github.com/pkordes/trip-ledger/internal/domain"
)

// Summarize builds the expense report of events in the base currency.
// Only events with a positive cost contribute. A currency missing from rates
// converts at 1. Summarize never modifies its inputs.
func Summarize(events []domain.Event, rates domain.RateTable, base string) domain.ExpenseSummary {
	summary := domain.ExpenseSummary{
		Base:        base,
		Total:       decimal.Zero,
		PerCurrency: []domain.CurrencyTotal{},
	}

	index := make(map[string]int)
	for _, e := range events {
		if !e.Cost.IsPositive() {
			continue
		}
		i, ok := index[e.Currency]
		if !ok {
			i = len(summary.PerCurrency)
			index[e.Currency] = i
			summary.PerCurrency = append(summary.PerCurrency, domain.CurrencyTotal{
				Currency: e.Currency,
				Amount:   decimal.Zero,
				Rate:     rates.Rate(e.Currency),
			})
		}
		summary.PerCurrency[i].Amount = summary.PerCurrency[i].Amount.Add(e.Cost)
	}

	for i := range summary.PerCurrency {
		ct := &summary.PerCurrency[i]
		ct.Converted = ct.Amount.Mul(ct.Rate)
		summary.Total = summary.Total.Add(ct.Converted)
	}
	return summary
}
