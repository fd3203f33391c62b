package claim

import (
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

// Decimals of the HOT token: raw amounts are scaled by 1e6
const Decimals = 6

// ZeroAmount is what gets reported when no amount was found
const ZeroAmount = "0.000000"

// FormatAmount renders raw/1e6 with six decimals.
// The division is exact on arbitrary precision integers, so no rounding
// takes place and the output is deterministic for any u128 amount.
func FormatAmount(raw string) (string, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return "", fmt.Errorf("empty amount")
	}
	for _, r := range raw {
		if r < '0' || r > '9' {
			return "", fmt.Errorf("amount %q is not a non-negative integer", raw)
		}
	}

	d, err := decimal.NewFromString(raw)
	if err != nil {
		return "", fmt.Errorf("parse amount %q: %w", raw, err)
	}
	return d.Shift(-Decimals).StringFixed(Decimals), nil
}

// ParseBalance decodes a view call return value (a JSON string holding an integer)
func ParseBalance(data []byte) (string, error) {
	s := strings.TrimSpace(string(data))
	s = strings.TrimPrefix(s, `"`)
	s = strings.TrimSuffix(s, `"`)
	return FormatAmount(s)
}
