package domain

import (
	"time"

	billingdomain "github.com/aquilabs/waterworks/internal/billing/domain"
	"github.com/bwmarrin/snowflake"
)

type BillStatus string

const (
	BillStatusUnpaid  BillStatus = "unpaid"
	BillStatusPartial BillStatus = "partial"
	BillStatusPaid    BillStatus = "paid"
)

// Bill is one customer-month water charge. The surcharge, discount and total
// columns hold the creation-time snapshot until the bill is settled; readers
// must treat them as stale and re-assess against the current instant. Once
// Status is paid they are frozen at the values used for settlement.
type Bill struct {
	ID              snowflake.ID  `gorm:"primaryKey" json:"id"`
	CustomerID      snowflake.ID  `gorm:"not null;index;uniqueIndex:ux_bills_customer_month,priority:1" json:"customer_id"`
	BilledMonth     string        `gorm:"type:text;not null;uniqueIndex:ux_bills_customer_month,priority:2" json:"billed_month"`
	PreviousReading int64         `gorm:"not null" json:"previous_reading"`
	CurrentReading  int64         `gorm:"not null" json:"current_reading"`
	Consumption     int64         `gorm:"not null" json:"consumption"`
	BasicCents      int64         `gorm:"not null" json:"basic_cents"`
	SurchargeCents  int64         `gorm:"not null;default:0" json:"surcharge_cents"`
	DiscountCents   int64         `gorm:"not null;default:0" json:"discount_cents"`
	TotalCents      int64         `gorm:"not null" json:"total_cents"`
	Status          BillStatus    `gorm:"type:text;not null;default:'unpaid';index" json:"status"`
	PaidCents       int64         `gorm:"not null;default:0" json:"paid_cents"`
	AdvanceCents    int64         `gorm:"not null;default:0" json:"advance_cents"`
	DatePaid        *time.Time    `json:"date_paid,omitempty"`
	SettlementID    *snowflake.ID `gorm:"index" json:"settlement_id,omitempty"`
	CreatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt       time.Time     `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Bill) TableName() string { return "bills" }

// Month parses the stored billed month.
func (b *Bill) Month() (billingdomain.Month, error) {
	return billingdomain.ParseMonth(b.BilledMonth)
}

// BillView is a bill re-assessed at a specific instant, for listings and for
// building a settlement selection.
type BillView struct {
	Bill             Bill                         `json:"bill"`
	Stage            billingdomain.SurchargeStage `json:"stage"`
	SurchargeCents   int64                        `json:"surcharge_cents"`
	DiscountCents    int64                        `json:"discount_cents"`
	TotalCents       int64                        `json:"total_cents"`
	OutstandingCents int64                        `json:"outstanding_cents"`
	AsOf             time.Time                    `json:"as_of"`
}
