// Package domain contains the day-scoped session aggregate, its order
// ledger and the archive snapshot model.
package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"github.com/shopspring/decimal"
	"gorm.io/datatypes"
)

// Session is the single active day aggregate. Only one row may be open at
// a time; every mutating operation overwrites the full row (write-through).
type Session struct {
	ID          snowflake.ID                `gorm:"primaryKey" json:"id"`
	SessionDate string                      `gorm:"type:text;not null;index" json:"session_date"`
	StaffCount  int                         `gorm:"not null" json:"staff_count"`
	StaffNames  datatypes.JSONSlice[string] `gorm:"not null" json:"staff_names"`
	IsOpen      bool                        `gorm:"not null;index" json:"is_open"`

	CumulativeSales    decimal.Decimal `gorm:"type:numeric;not null" json:"cumulative_sales"`
	OrderCount         int             `gorm:"not null" json:"order_count"`
	EveningWindowSales decimal.Decimal `gorm:"type:numeric;not null" json:"evening_window_sales"`
	LateWindowSales    decimal.Decimal `gorm:"type:numeric;not null" json:"late_window_sales"`

	CommissionBaseTotal    decimal.Decimal `gorm:"type:numeric;not null" json:"commission_base_total"`
	CommissionSpecialTotal decimal.Decimal `gorm:"type:numeric;not null" json:"commission_special_total"`
	VaseAddOnTotal         decimal.Decimal `gorm:"type:numeric;not null" json:"vase_add_on_total"`

	OrderCountBonus   decimal.Decimal `gorm:"type:numeric;not null" json:"order_count_bonus"`
	EveningPenalty    decimal.Decimal `gorm:"type:numeric;not null" json:"evening_penalty"`
	NetCommission     decimal.Decimal `gorm:"type:numeric;not null" json:"net_commission"`
	IncentivePerStaff decimal.Decimal `gorm:"type:numeric;not null" json:"incentive_per_staff"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Session) TableName() string { return "sessions" }

// Order is one ledger entry. Immutable once recorded; archived as part of
// the whole session, never mutated or deleted individually.
type Order struct {
	ID        snowflake.ID `gorm:"primaryKey" json:"id"`
	SessionID snowflake.ID `gorm:"not null;index" json:"session_id"`
	Seq       int          `gorm:"not null" json:"seq"` // 1-based within the session

	Amount      decimal.Decimal `gorm:"type:numeric;not null" json:"amount"`
	Description string          `gorm:"type:text;not null" json:"description"`
	TimeOfDay   string          `gorm:"type:text;not null" json:"time_of_day"` // "HH:MM", 24h

	CommissionBase         decimal.Decimal `gorm:"type:numeric;not null" json:"commission_base"`
	CommissionSpecial      decimal.Decimal `gorm:"type:numeric;not null" json:"commission_special"`
	VaseAddOn              decimal.Decimal `gorm:"type:numeric;not null" json:"vase_add_on"`
	IsSpecialProduct       bool            `gorm:"not null" json:"is_special_product"`
	CountsTowardOrderTotal bool            `gorm:"not null" json:"counts_toward_order_total"`
	VaseCount              int             `gorm:"not null" json:"vase_count"`

	CreatedAt time.Time `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Order) TableName() string { return "orders" }

// Archive is an append-only snapshot of a finished session, keyed by its
// date and the archival timestamp. Never mutated after write.
type Archive struct {
	ID          snowflake.ID   `gorm:"primaryKey" json:"id"`
	SessionDate string         `gorm:"type:text;not null;index" json:"session_date"`
	ArchivedAt  time.Time      `gorm:"not null" json:"archived_at"`
	Snapshot    datatypes.JSON `gorm:"not null" json:"snapshot"`
}

// TableName sets the database table name.
func (Archive) TableName() string { return "session_archives" }

// Summary is an immutable snapshot of the aggregate handed to callers; the
// live structure is never exposed.
type Summary struct {
	SessionDate string   `json:"session_date"`
	StaffCount  int      `json:"staff_count"`
	StaffNames  []string `json:"staff_names"`
	IsOpen      bool     `json:"is_open"`

	CumulativeSales    decimal.Decimal `json:"cumulative_sales"`
	OrderCount         int             `json:"order_count"`
	EveningWindowSales decimal.Decimal `json:"evening_window_sales"`
	LateWindowSales    decimal.Decimal `json:"late_window_sales"`

	CommissionBaseTotal    decimal.Decimal `json:"commission_base_total"`
	CommissionSpecialTotal decimal.Decimal `json:"commission_special_total"`
	VaseAddOnTotal         decimal.Decimal `json:"vase_add_on_total"`

	OrderCountBonus   decimal.Decimal `json:"order_count_bonus"`
	EveningPenalty    decimal.Decimal `json:"evening_penalty"`
	NetCommission     decimal.Decimal `json:"net_commission"`
	IncentivePerStaff decimal.Decimal `json:"incentive_per_staff"`

	Orders []Order `json:"orders"`
}
