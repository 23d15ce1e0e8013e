package handler

import (
	"net/http"

	"github.com/Rhymond/go-money"
	"github.com/shopspring/decimal"
)

// CurrencyTotalResponse is one currency line of the expense report.
type CurrencyTotalResponse struct {
	Currency         string          `json:"currency"`
	Amount           decimal.Decimal `json:"amount"`
	Rate             decimal.Decimal `json:"rate"`
	Converted        decimal.Decimal `json:"converted"`
	AmountDisplay    string          `json:"amountDisplay"`
	ConvertedDisplay string          `json:"convertedDisplay"`
}

// ExpensesResponse is the body of GET /expenses.
type ExpensesResponse struct {
	Base         string                  `json:"base"`
	Total        decimal.Decimal         `json:"total"`
	TotalDisplay string                  `json:"totalDisplay"`
	PerCurrency  []CurrencyTotalResponse `json:"perCurrency"`
}

// GetExpenses handles GET /expenses.
func (s *Server) GetExpenses(w http.ResponseWriter, _ *http.Request) {
	summary := s.export.Expenses()

	resp := ExpensesResponse{
		Base:         summary.Base,
		Total:        summary.Total,
		TotalDisplay: displayAmount(summary.Total, summary.Base),
		PerCurrency:  make([]CurrencyTotalResponse, 0, len(summary.PerCurrency)),
	}
	for _, ct := range summary.PerCurrency {
		resp.PerCurrency = append(resp.PerCurrency, CurrencyTotalResponse{
			Currency:         ct.Currency,
			Amount:           ct.Amount,
			Rate:             ct.Rate,
			Converted:        ct.Converted,
			AmountDisplay:    displayAmount(ct.Amount, ct.Currency),
			ConvertedDisplay: displayAmount(ct.Converted, summary.Base),
		})
	}
	writeJSON(w, http.StatusOK, resp)
}

// displayAmount formats amount with the currency's symbol and minor units,
// e.g. "€19.15". Codes unknown to go-money fall back to "19.15 XYZ".
func displayAmount(amount decimal.Decimal, code string) string {
	cur := money.GetCurrency(code)
	if cur == nil {
		return amount.StringFixed(2) + " " + code
	}
	units := amount.Shift(int32(cur.Fraction)).Round(0).IntPart()
	return money.New(units, code).Display()
}
