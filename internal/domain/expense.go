package domain

import "github.com/shopspring/decimal"

// CurrencyTotal is the raw (unconverted) spend in one currency.
type CurrencyTotal struct {
	Currency  string
	Amount    decimal.Decimal
	Rate      decimal.Decimal
	Converted decimal.Decimal
}

// ExpenseSummary is the expense report over a set of events.
// PerCurrency is ordered by first appearance in the event list.
type ExpenseSummary struct {
	Base        string
	Total       decimal.Decimal
	PerCurrency []CurrencyTotal
}
