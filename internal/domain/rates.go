package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"slices"

	"github.com/samber/lo"
	"github.com/shopspring/decimal"
)

// RateTable maps a currency code to the number of base-currency units one
// unit of that currency is worth. Every rate is positive.
type RateTable map[string]decimal.Decimal

// Rate returns the multiplier for code, or 1 when the code is unknown.
func (r RateTable) Rate(code string) decimal.Decimal {
	if v, ok := r[code]; ok {
		return v
	}
	return decimal.NewFromInt(1)
}

// Clone returns an independent copy of the table.
func (r RateTable) Clone() RateTable {
	out := make(RateTable, len(r))
	for k, v := range r {
		out[k] = v
	}
	return out
}

// Codes returns the currency codes in lexical order.
func (r RateTable) Codes() []string {
	codes := lo.Keys(r)
	slices.Sort(codes)
	return codes
}

// MarshalJSON writes every rate as a JSON number.
func (r RateTable) MarshalJSON() ([]byte, error) {
	out := make(map[string]json.Number, len(r))
	for k, v := range r {
		out[k] = json.Number(v.String())
	}
	return json.Marshal(out)
}

// UnmarshalJSON reads a mapping of code to positive number. Numeric strings
// are accepted; anything else fails the whole table.
func (r *RateTable) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	if raw == nil {
		return fmt.Errorf("rates must be a mapping")
	}
	out := make(RateTable, len(raw))
	for code, v := range raw {
		v = bytes.TrimSpace(v)
		var s string
		if len(v) > 0 && v[0] == '"' {
			if err := json.Unmarshal(v, &s); err != nil {
				return fmt.Errorf("rate %s: %w", code, err)
			}
		} else {
			s = string(v)
		}
		d, err := decimal.NewFromString(s)
		if err != nil {
			return fmt.Errorf("rate %s is not a number", code)
		}
		if !d.IsPositive() {
			return fmt.Errorf("rate %s must be positive", code)
		}
		out[NormalizeCurrency(code, "")] = d
	}
	*r = out
	return nil
}
