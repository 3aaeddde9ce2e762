package view

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

const opTimeout = 2 * time.Minute

// FormatAmount renders an amount with two decimals.
func FormatAmount(d decimal.Decimal) string {
	return d.StringFixed(2)
}

func FormatDate(t time.Time) string {
	return t.Format(time.DateOnly)
}

// OpCtx bounds a single store-backed operation started from a view.
func OpCtx() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), opTimeout)
}
