package domain

import (
	"context"
	"errors"

	commissiondomain "github.com/atmodecor/tally/internal/commission/domain"
)

// StartDayRequest opens a new session for the given roster.
type StartDayRequest struct {
	Date       string   `json:"date"` // "YYYY-MM-DD"
	StaffCount int      `json:"staff_count"`
	StaffNames []string `json:"staff_names"`
}

// OrderReceipt is returned after an order is recorded: the persisted ledger
// entry, its contribution breakdown and a fresh summary reflecting both
// passes.
type OrderReceipt struct {
	Order        Order                         `json:"order"`
	Contribution commissiondomain.Contribution `json:"contribution"`
	Summary      Summary                       `json:"summary"`
}

// Service is the session engine: lifecycle transitions plus the two-pass
// order protocol. At most one commit or lifecycle operation runs at a time.
type Service interface {
	// StartDay archives any open session with nonzero sales, then replaces
	// the aggregate with a fresh one for the new date and roster.
	StartDay(ctx context.Context, req StartDayRequest) (*Summary, error)

	// RecordOrder prices the order (pass 1), commits it atomically, then
	// re-derives and persists the session-level totals (pass 2).
	RecordOrder(ctx context.Context, input commissiondomain.OrderInput) (*OrderReceipt, error)

	// Reset archives the current session (if it has sales) and returns the
	// pre-reset snapshot before re-initializing to an empty closed state.
	Reset(ctx context.Context) (*Summary, error)

	// Summary returns an immutable snapshot of the current aggregate.
	Summary(ctx context.Context) (*Summary, error)
}

var (
	ErrNoOpenSession = errors.New("no_open_session")
	ErrInvalidStaff  = errors.New("invalid_staff_roster")
	ErrInvalidDate   = errors.New("invalid_session_date")
)

// Repository persists the aggregate write-through: every mutating call
// writes the full session state durably before returning.
type Repository interface {
	// FindOpen loads the single open session and its ledger, or nil when
	// no session is open.
	FindOpen(ctx context.Context) (*Session, []Order, error)

	// Create persists a fresh session row.
	Create(ctx context.Context, sess *Session) error

	// CommitOrder appends the order and overwrites the session row in one
	// transaction; either both land or neither does.
	CommitOrder(ctx context.Context, sess *Session, order *Order) error

	// UpdateTotals overwrites the session row with re-derived totals.
	UpdateTotals(ctx context.Context, sess *Session) error

	// Archive writes the append-only snapshot and closes the session row
	// in one transaction.
	Archive(ctx context.Context, sess *Session, entry *Archive) error
}
