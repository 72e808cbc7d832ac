package utils

import (
	"encoding/json"
	"fmt"
	"strings"

	"github.com/shopspring/decimal"
)

var currencyMarkers = []string{"THB", "thb", "Baht", "baht", "฿"}

// ParseAmount accepts user-formatted amounts like "20,000", "THB 20,000",
// "฿-1,234.50" or "Baht 20000".
func ParseAmount(i interface{}) (decimal.Decimal, error) {
	switch v := i.(type) {
	case string:
		s := strings.TrimSpace(v)
		if s != "" {
			s = strings.ReplaceAll(s, ",", "")
			for _, marker := range currencyMarkers {
				s = strings.ReplaceAll(s, marker, "")
			}
			s = strings.TrimSpace(s)
		}
		neg := false
		if strings.HasPrefix(s, "-") {
			neg = true
			s = strings.TrimSpace(strings.TrimPrefix(s, "-"))
		}
		// keep digits and '.'
		var b strings.Builder
		b.Grow(len(s) + 1)
		for _, r := range s {
			if (r >= '0' && r <= '9') || r == '.' {
				b.WriteRune(r)
			}
		}
		clean := b.String()
		if clean == "" {
			return decimal.Zero, fmt.Errorf("invalid value")
		}
		if neg {
			clean = "-" + clean
		}
		return decimal.NewFromString(clean)
	case json.Number:
		return decimal.NewFromString(v.String())
	case float64:
		return decimal.NewFromFloat(v), nil
	case int:
		return decimal.NewFromInt(int64(v)), nil
	case decimal.Decimal:
		return v, nil
	default:
		return decimal.Zero, fmt.Errorf("invalid value")
	}
}
