package domain

import (
	"errors"

	"github.com/shopspring/decimal"
)

// Calculator prices a single order (pass 1) and derives the session-level
// totals (pass 2). Both passes are pure.
type Calculator interface {
	PriceOrder(input OrderInput, cumulativeSalesBefore decimal.Decimal) (Contribution, error)
	DeriveTotals(totals SessionTotals) DerivedTotals
}

var (
	ErrMissingAmount  = errors.New("missing_amount")
	ErrNegativeAmount = errors.New("negative_amount")
)
