package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/datatypes"
)

// Customer is a metered water account. CreditBalanceCents is the overpayment
// carried forward from earlier settlements; it is consumed before new tender
// on the next settlement and must never go negative.
type Customer struct {
	ID                 snowflake.ID      `gorm:"primaryKey" json:"id"`
	Name               string            `gorm:"not null" json:"name"`
	Address            string            `gorm:"type:text;not null;default:''" json:"address,omitempty"`
	RateClassCode      string            `gorm:"type:text;not null;index" json:"rate_class_code"`
	DiscountPercent    float64           `gorm:"not null;default:0" json:"discount_percent"`
	CreditBalanceCents int64             `gorm:"not null;default:0" json:"credit_balance_cents"`
	Metadata           datatypes.JSONMap `gorm:"type:jsonb;not null;default:'{}'" json:"metadata,omitempty"`
	CreatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt          time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (Customer) TableName() string { return "customers" }
