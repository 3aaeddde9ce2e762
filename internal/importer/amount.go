package importer

import (
	"strings"

	"github.com/shopspring/decimal"
)

// parseAmount accepts both "1.234,56" (Spanish exports) and "-1234.56"
// (pandas-written exports). A comma always marks the decimal part; without
// one, a single dot is a decimal point and repeated dots are thousands.
func parseAmount(s string) (decimal.Decimal, error) {
	clean := strings.ReplaceAll(s, "€", "")
	clean = strings.ReplaceAll(clean, "EUR", "")
	clean = strings.ReplaceAll(clean, " ", "")
	clean = strings.ReplaceAll(clean, "\u00a0", "")
	clean = strings.TrimPrefix(clean, "+")

	switch {
	case strings.Contains(clean, ","):
		clean = strings.ReplaceAll(clean, ".", "")
		clean = strings.ReplaceAll(clean, ",", ".")
	case strings.Count(clean, ".") > 1:
		clean = strings.ReplaceAll(clean, ".", "")
	}

	return decimal.NewFromString(clean)
}
