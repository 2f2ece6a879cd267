package domain

import (
	"time"

	"github.com/bwmarrin/snowflake"
)

// RateClass is the two-tier volumetric rate for a customer classification
// (residential, commercial, ...). Reference data: edited by configuration
// screens, read-only to the billing engine.
type RateClass struct {
	ID          snowflake.ID `gorm:"primaryKey" json:"id"`
	Code        string       `gorm:"type:text;not null;uniqueIndex" json:"code"`
	Description string       `gorm:"type:text;not null;default:''" json:"description,omitempty"`
	Tier1Cents  int64        `gorm:"not null" json:"tier1_cents"`
	Tier2Cents  int64        `gorm:"not null" json:"tier2_cents"`
	CreatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"created_at"`
	UpdatedAt   time.Time    `gorm:"not null;default:CURRENT_TIMESTAMP" json:"updated_at"`
}

// TableName sets the database table name.
func (RateClass) TableName() string { return "rate_classes" }
