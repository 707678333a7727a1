package service

import (
	"context"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/atmodecor/tally/internal/clock"
	commissiondomain "github.com/atmodecor/tally/internal/commission/domain"
	sessiondomain "github.com/atmodecor/tally/internal/session/domain"
	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/datatypes"
)

const (
	eveningStartHour = 18
	eveningEndHour   = 22
	lateEndHour      = 24

	dateLayout = "2006-01-02"
	timeLayout = "15:04"
)

// Service owns the mutable day aggregate. A single mutex serializes every
// commit and lifecycle operation; the durability write must succeed before
// the in-memory state is swapped.
type Service struct {
	mu sync.Mutex

	log   *zap.Logger
	repo  sessiondomain.Repository
	calc  commissiondomain.Calculator
	clock clock.Clock
	genID *snowflake.Node

	cur    *sessiondomain.Session
	ledger []sessiondomain.Order
}

type ServiceParam struct {
	fx.In

	Log        *zap.Logger
	Repo       sessiondomain.Repository
	Calculator commissiondomain.Calculator
	Clock      clock.Clock
	GenID      *snowflake.Node
}

// NewService builds the engine and reloads the open session (if any) so a
// restart resumes the current day.
func NewService(p ServiceParam) (sessiondomain.Service, error) {
	s := &Service{
		log:   p.Log.Named("session.service"),
		repo:  p.Repo,
		calc:  p.Calculator,
		clock: p.Clock,
		genID: p.GenID,
	}

	sess, orders, err := p.Repo.FindOpen(context.Background())
	if err != nil {
		return nil, fmt.Errorf("load open session: %w", err)
	}
	if sess != nil {
		s.cur = sess
		s.ledger = orders
		s.log.Info("resumed open session",
			zap.String("date", sess.SessionDate),
			zap.Int("orders", len(orders)),
		)
	}

	return s, nil
}

func (s *Service) StartDay(ctx context.Context, req sessiondomain.StartDayRequest) (*sessiondomain.Summary, error) {
	if _, err := time.Parse(dateLayout, req.Date); err != nil {
		return nil, sessiondomain.ErrInvalidDate
	}
	names := trimNames(req.StaffNames)
	if req.StaffCount < 1 || len(names) == 0 {
		return nil, sessiondomain.ErrInvalidStaff
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if err := s.closeCurrentLocked(ctx); err != nil {
		return nil, err
	}

	fresh := &sessiondomain.Session{
		ID:          s.genID.Generate(),
		SessionDate: req.Date,
		StaffCount:  req.StaffCount,
		StaffNames:  datatypes.NewJSONSlice(names),
		IsOpen:      true,

		CumulativeSales:        decimal.Zero,
		EveningWindowSales:     decimal.Zero,
		LateWindowSales:        decimal.Zero,
		CommissionBaseTotal:    decimal.Zero,
		CommissionSpecialTotal: decimal.Zero,
		VaseAddOnTotal:         decimal.Zero,
		OrderCountBonus:        decimal.Zero,
		EveningPenalty:         decimal.Zero,
		NetCommission:          decimal.Zero,
		IncentivePerStaff:      decimal.Zero,

		CreatedAt: s.clock.Now(),
		UpdatedAt: s.clock.Now(),
	}

	if err := s.repo.Create(ctx, fresh); err != nil {
		return nil, fmt.Errorf("persist new session: %w", err)
	}

	s.cur = fresh
	s.ledger = nil

	s.log.Info("day started",
		zap.String("date", req.Date),
		zap.Int("staff_count", req.StaffCount),
	)

	summary := s.summaryLocked()
	return &summary, nil
}

func (s *Service) RecordOrder(ctx context.Context, input commissiondomain.OrderInput) (*sessiondomain.OrderReceipt, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || !s.cur.IsOpen {
		return nil, sessiondomain.ErrNoOpenSession
	}

	// Pass 1: classify and price against the post-order cumulative total.
	contribution, err := s.calc.PriceOrder(input, s.cur.CumulativeSales)
	if err != nil {
		return nil, err
	}
	amount := *input.Amount

	timeOfDay := input.TimeOfDay
	if _, err := time.Parse(timeLayout, timeOfDay); err != nil {
		// Display-time fallback: bucket assignment uses the substituted
		// processing time, which can misfile late-reported orders.
		timeOfDay = s.clock.Now().Format(timeLayout)
	}

	order := sessiondomain.Order{
		ID:          s.genID.Generate(),
		SessionID:   s.cur.ID,
		Seq:         len(s.ledger) + 1,
		Amount:      amount,
		Description: strings.TrimSpace(input.Description),
		TimeOfDay:   timeOfDay,

		CommissionBase:         contribution.CommissionBase,
		CommissionSpecial:      contribution.CommissionSpecial,
		VaseAddOn:              contribution.VaseAddOn,
		IsSpecialProduct:       contribution.IsSpecialProduct,
		CountsTowardOrderTotal: contribution.CountsTowardOrderTotal,
		VaseCount:              contribution.VaseCount,

		CreatedAt: s.clock.Now(),
	}

	// Commit: ledger append plus all running totals, atomically. The
	// in-memory aggregate is only swapped after the write lands.
	next := *s.cur
	next.CumulativeSales = next.CumulativeSales.Add(amount)
	if contribution.CountsTowardOrderTotal {
		next.OrderCount++
	}
	switch bucketFor(timeOfDay) {
	case bucketEvening:
		next.EveningWindowSales = next.EveningWindowSales.Add(amount)
	case bucketLate:
		next.LateWindowSales = next.LateWindowSales.Add(amount)
	}
	next.CommissionBaseTotal = next.CommissionBaseTotal.Add(contribution.CommissionBase)
	next.CommissionSpecialTotal = next.CommissionSpecialTotal.Add(contribution.CommissionSpecial)
	next.VaseAddOnTotal = next.VaseAddOnTotal.Add(contribution.VaseAddOn)
	next.UpdatedAt = s.clock.Now()

	if err := s.repo.CommitOrder(ctx, &next, &order); err != nil {
		return nil, fmt.Errorf("commit order: %w", err)
	}
	s.cur = &next
	s.ledger = append(s.ledger, order)

	// Pass 2: re-derive the session-level totals from the committed state.
	if err := s.updateTotalsLocked(ctx); err != nil {
		return nil, err
	}

	s.log.Info("order recorded",
		zap.Int("seq", order.Seq),
		zap.String("amount", amount.String()),
		zap.Bool("special", order.IsSpecialProduct),
		zap.String("net_commission", s.cur.NetCommission.String()),
	)

	summary := s.summaryLocked()
	return &sessiondomain.OrderReceipt{
		Order:        order,
		Contribution: contribution,
		Summary:      summary,
	}, nil
}

func (s *Service) Reset(ctx context.Context) (*sessiondomain.Summary, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || !s.cur.IsOpen {
		return nil, sessiondomain.ErrNoOpenSession
	}

	summary := s.summaryLocked()
	if err := s.closeCurrentLocked(ctx); err != nil {
		return nil, err
	}

	s.log.Info("session reset",
		zap.String("date", summary.SessionDate),
		zap.String("cumulative_sales", summary.CumulativeSales.String()),
	)

	return &summary, nil
}

func (s *Service) Summary(ctx context.Context) (*sessiondomain.Summary, error) {
	_ = ctx

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.cur == nil || !s.cur.IsOpen {
		return nil, sessiondomain.ErrNoOpenSession
	}

	summary := s.summaryLocked()
	return &summary, nil
}

// updateTotalsLocked is pass 2: derive the session-level figures from the
// committed totals and overwrite the four derived fields. Idempotent for a
// given ledger state.
func (s *Service) updateTotalsLocked(ctx context.Context) error {
	derived := s.calc.DeriveTotals(commissiondomain.SessionTotals{
		OrderCount:             s.cur.OrderCount,
		StaffCount:             s.cur.StaffCount,
		EveningWindowSales:     s.cur.EveningWindowSales,
		CommissionBaseTotal:    s.cur.CommissionBaseTotal,
		CommissionSpecialTotal: s.cur.CommissionSpecialTotal,
		VaseAddOnTotal:         s.cur.VaseAddOnTotal,
	})

	next := *s.cur
	next.OrderCountBonus = derived.OrderCountBonus
	next.EveningPenalty = derived.EveningPenalty
	next.NetCommission = derived.NetCommission
	next.IncentivePerStaff = derived.IncentivePerStaff
	next.UpdatedAt = s.clock.Now()

	if err := s.repo.UpdateTotals(ctx, &next); err != nil {
		return fmt.Errorf("update totals: %w", err)
	}
	s.cur = &next
	return nil
}

// closeCurrentLocked archives the open session when it has sales, or just
// closes it when empty, then clears the in-memory aggregate.
func (s *Service) closeCurrentLocked(ctx context.Context) error {
	if s.cur == nil || !s.cur.IsOpen {
		return nil
	}

	closed := *s.cur
	closed.IsOpen = false
	closed.UpdatedAt = s.clock.Now()

	if s.cur.CumulativeSales.IsPositive() {
		summary := s.summaryLocked()
		snapshot, err := json.Marshal(summary)
		if err != nil {
			return fmt.Errorf("marshal archive snapshot: %w", err)
		}

		entry := &sessiondomain.Archive{
			ID:          s.genID.Generate(),
			SessionDate: s.cur.SessionDate,
			ArchivedAt:  s.clock.Now(),
			Snapshot:    datatypes.JSON(snapshot),
		}
		if err := s.repo.Archive(ctx, &closed, entry); err != nil {
			return fmt.Errorf("archive session: %w", err)
		}
		s.log.Info("session archived",
			zap.String("date", entry.SessionDate),
			zap.Time("archived_at", entry.ArchivedAt),
		)
	} else {
		if err := s.repo.UpdateTotals(ctx, &closed); err != nil {
			return fmt.Errorf("close empty session: %w", err)
		}
	}

	s.cur = nil
	s.ledger = nil
	return nil
}

// summaryLocked deep-copies the aggregate; callers never see the live state.
func (s *Service) summaryLocked() sessiondomain.Summary {
	names := make([]string, len(s.cur.StaffNames))
	copy(names, s.cur.StaffNames)

	orders := make([]sessiondomain.Order, len(s.ledger))
	copy(orders, s.ledger)

	return sessiondomain.Summary{
		SessionDate: s.cur.SessionDate,
		StaffCount:  s.cur.StaffCount,
		StaffNames:  names,
		IsOpen:      s.cur.IsOpen,

		CumulativeSales:    s.cur.CumulativeSales,
		OrderCount:         s.cur.OrderCount,
		EveningWindowSales: s.cur.EveningWindowSales,
		LateWindowSales:    s.cur.LateWindowSales,

		CommissionBaseTotal:    s.cur.CommissionBaseTotal,
		CommissionSpecialTotal: s.cur.CommissionSpecialTotal,
		VaseAddOnTotal:         s.cur.VaseAddOnTotal,

		OrderCountBonus:   s.cur.OrderCountBonus,
		EveningPenalty:    s.cur.EveningPenalty,
		NetCommission:     s.cur.NetCommission,
		IncentivePerStaff: s.cur.IncentivePerStaff,

		Orders: orders,
	}
}

type timeBucket int

const (
	bucketNone timeBucket = iota
	bucketEvening
	bucketLate
)

// bucketFor assigns the time window by hour component only.
func bucketFor(timeOfDay string) timeBucket {
	parts := strings.SplitN(timeOfDay, ":", 2)
	hour, err := strconv.Atoi(parts[0])
	if err != nil {
		return bucketNone
	}
	switch {
	case hour >= eveningStartHour && hour < eveningEndHour:
		return bucketEvening
	case hour >= eveningEndHour && hour < lateEndHour:
		return bucketLate
	default:
		return bucketNone
	}
}

func trimNames(names []string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			out = append(out, n)
		}
	}
	return out
}
