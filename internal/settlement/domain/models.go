package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// Settlement is the header for one payment application: a tendered amount
// plus available customer credit applied across selected bills.
type Settlement struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	CustomerID       snowflake.ID `gorm:"not null;index" json:"customer_id"`
	TenderedCents    int64        `gorm:"not null" json:"tendered_cents"`
	CreditUsedCents  int64        `gorm:"not null" json:"credit_used_cents"`
	TotalDueCents    int64        `gorm:"not null" json:"total_due_cents"`
	AppliedCents     int64        `gorm:"not null" json:"applied_cents"`
	OverpaymentCents int64        `gorm:"not null" json:"overpayment_cents"`
	AllowPartial     bool         `gorm:"not null;default:false" json:"allow_partial"`
	SettledAt        time.Time    `gorm:"not null" json:"settled_at"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (Settlement) TableName() string { return "settlements" }

// SettlementLine is the audit record for one bill inside a settlement: the
// frozen charge components and how the amount was sourced. FromCreditCents +
// FromPaymentCents always equals DueCents for fully settled bills.
type SettlementLine struct {
	ID               snowflake.ID `gorm:"primaryKey" json:"id"`
	SettlementID     snowflake.ID `gorm:"not null;index" json:"settlement_id"`
	BillID           snowflake.ID `gorm:"not null;index" json:"bill_id"`
	BilledMonth      string       `gorm:"type:text;not null" json:"billed_month"`
	BasicCents       int64        `gorm:"not null" json:"basic_cents"`
	SurchargeCents   int64        `gorm:"not null" json:"surcharge_cents"`
	DiscountCents    int64        `gorm:"not null" json:"discount_cents"`
	DueCents         int64        `gorm:"not null" json:"due_cents"`
	FromCreditCents  int64        `gorm:"not null" json:"from_credit_cents"`
	FromPaymentCents int64        `gorm:"not null" json:"from_payment_cents"`
	CreatedAt        time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
}

// TableName sets the database table name.
func (SettlementLine) TableName() string { return "settlement_lines" }
