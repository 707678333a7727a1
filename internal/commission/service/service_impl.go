package service

import (
	"github.com/atmodecor/tally/internal/classifier"
	commissiondomain "github.com/atmodecor/tally/internal/commission/domain"
	"github.com/atmodecor/tally/internal/tier"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
)

var (
	eveningMinSales = decimal.NewFromInt(5000)
	penaltyRate     = decimal.RequireFromString("0.30")
	penaltyCap      = decimal.NewFromInt(300)
)

type Service struct {
	log *zap.Logger
}

type ServiceParam struct {
	fx.In

	Log *zap.Logger
}

func NewService(p ServiceParam) commissiondomain.Calculator {
	return &Service{
		log: p.Log.Named("commission.service"),
	}
}

// PriceOrder classifies the order and computes its three commission
// components. The tier rate is evaluated on the post-order cumulative
// total: the order that crosses a tier boundary is priced entirely at the
// rate its own inclusion unlocks (marginal, not blended).
func (s *Service) PriceOrder(input commissiondomain.OrderInput, cumulativeSalesBefore decimal.Decimal) (commissiondomain.Contribution, error) {
	if input.Amount == nil {
		return commissiondomain.Contribution{}, commissiondomain.ErrMissingAmount
	}
	amount := *input.Amount
	if amount.IsNegative() {
		return commissiondomain.Contribution{}, commissiondomain.ErrNegativeAmount
	}

	flags := classifier.Classify(input.Description, amount, input.RawOrderText)

	contribution := commissiondomain.Contribution{
		IsSpecialProduct:       flags.IsSpecialProduct,
		CountsTowardOrderTotal: flags.CountsTowardOrderTotal,
		VaseCount:              flags.VaseCount,
		VaseAddOn:              classifier.VaseAddOn(flags.VaseCount, amount),
		CommissionBase:         decimal.Zero,
		CommissionSpecial:      decimal.Zero,
	}

	if flags.IsSpecialProduct {
		contribution.AppliedRate = classifier.SpecialRate
		contribution.CommissionSpecial = amount.Mul(classifier.SpecialRate)
	} else {
		rate := tier.RateFor(cumulativeSalesBefore.Add(amount))
		contribution.AppliedRate = rate
		contribution.CommissionBase = amount.Mul(rate)
	}

	return contribution, nil
}

// DeriveTotals computes the session-level figures from the committed
// totals: order-count bonus, evening-shortfall penalty, net commission and
// the per-staff incentive split.
func (s *Service) DeriveTotals(totals commissiondomain.SessionTotals) commissiondomain.DerivedTotals {
	orderBonus := tier.OrderBonusFor(totals.OrderCount)

	gross := totals.CommissionBaseTotal.
		Add(totals.CommissionSpecialTotal).
		Add(totals.VaseAddOnTotal).
		Add(orderBonus)

	penalty := decimal.Zero
	if totals.EveningWindowSales.LessThan(eveningMinSales) {
		penalty = decimal.Min(gross.Mul(penaltyRate), penaltyCap)
	}

	net := decimal.Max(decimal.Zero, gross.Sub(penalty))

	incentive := decimal.Zero
	if totals.StaffCount > 0 {
		incentive = net.DivRound(decimal.NewFromInt(int64(totals.StaffCount)), 8)
	}

	return commissiondomain.DerivedTotals{
		OrderCountBonus:   orderBonus,
		EveningPenalty:    penalty,
		NetCommission:     net,
		IncentivePerStaff: incentive,
	}
}
