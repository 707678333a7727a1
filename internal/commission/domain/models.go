// Package domain defines the pricing inputs and outputs of the commission
// calculator.
package domain

import "github.com/shopspring/decimal"

// OrderInput is one inbound order as delivered by the text-extraction
// collaborator. A nil Amount means no monetary value could be extracted;
// the calculator refuses to price such orders.
type OrderInput struct {
	Amount       *decimal.Decimal
	Description  string
	TimeOfDay    string
	RawOrderText string
}

// Contribution is the pass-1 output for a single order: the three
// commission components plus the classification flags that drive session
// accounting. CommissionBase and CommissionSpecial are mutually exclusive.
type Contribution struct {
	CommissionBase         decimal.Decimal
	CommissionSpecial      decimal.Decimal
	VaseAddOn              decimal.Decimal
	AppliedRate            decimal.Decimal
	IsSpecialProduct       bool
	CountsTowardOrderTotal bool
	VaseCount              int
}

// SessionTotals is the pass-2 input: the committed session-wide totals the
// derived figures are computed from.
type SessionTotals struct {
	OrderCount             int
	StaffCount             int
	EveningWindowSales     decimal.Decimal
	CommissionBaseTotal    decimal.Decimal
	CommissionSpecialTotal decimal.Decimal
	VaseAddOnTotal         decimal.Decimal
}

// DerivedTotals is the pass-2 output. Re-deriving from the same
// SessionTotals always reproduces identical values.
type DerivedTotals struct {
	OrderCountBonus   decimal.Decimal
	EveningPenalty    decimal.Decimal
	NetCommission     decimal.Decimal
	IncentivePerStaff decimal.Decimal
}
