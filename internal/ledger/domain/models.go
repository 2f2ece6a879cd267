package domain

import (
	"context"
	"errors"
	"time"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

// LedgerEntryDirection represents debit or credit postings.
type LedgerEntryDirection string

const (
	LedgerEntryDirectionDebit  LedgerEntryDirection = "debit"
	LedgerEntryDirectionCredit LedgerEntryDirection = "credit"
)

type LedgerSourceType string

const (
	SourceTypeBill       LedgerSourceType = "bill"       // charge raised at meter reading
	SourceTypeSettlement LedgerSourceType = "settlement" // payment + credit applied to bills
)

type LedgerAccountCode string

const (
	// Assets
	AccountCodeAccountsReceivable LedgerAccountCode = "accounts_receivable"
	AccountCodeCash               LedgerAccountCode = "cash"

	// Liabilities
	AccountCodeCreditBalance LedgerAccountCode = "credit_balance"

	// Revenue
	AccountCodeWaterRevenue     LedgerAccountCode = "water_revenue"
	AccountCodeSurchargeRevenue LedgerAccountCode = "surcharge_revenue"
)

// LedgerAccount defines a chart-of-accounts entry.
type LedgerAccount struct {
	ID        snowflake.ID      `gorm:"primaryKey"`
	Code      LedgerAccountCode `gorm:"type:text;not null;uniqueIndex"`
	Name      string            `gorm:"type:text;not null"`
	CreatedAt time.Time         `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerAccount) TableName() string { return "ledger_accounts" }

// LedgerEntry captures the immutable header for a financial event.
type LedgerEntry struct {
	ID         snowflake.ID     `gorm:"primaryKey"`
	SourceType LedgerSourceType `gorm:"type:text;not null;uniqueIndex:ux_ledger_entries_source,priority:1"`
	SourceID   snowflake.ID     `gorm:"not null;uniqueIndex:ux_ledger_entries_source,priority:2"`
	OccurredAt time.Time        `gorm:"not null"`
	CreatedAt  time.Time        `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntry) TableName() string { return "ledger_entries" }

// LedgerEntryLine is a double-entry posting line.
type LedgerEntryLine struct {
	ID            snowflake.ID         `gorm:"primaryKey"`
	LedgerEntryID snowflake.ID         `gorm:"not null;index"`
	AccountID     snowflake.ID         `gorm:"not null;index"`
	Direction     LedgerEntryDirection `gorm:"type:text;not null"`
	AmountCents   int64                `gorm:"not null"`
	CreatedAt     time.Time            `gorm:"not null;default:CURRENT_TIMESTAMP"`
}

// TableName sets the database table name.
func (LedgerEntryLine) TableName() string { return "ledger_entry_lines" }

// PostingLine is a posting request addressed by account code.
type PostingLine struct {
	AccountCode LedgerAccountCode
	Direction   LedgerEntryDirection
	AmountCents int64
}

type Service interface {
	// Post writes one balanced entry inside the caller's transaction. Zero
	// amount lines are dropped; the remaining debits and credits must match
	// to the cent.
	Post(ctx context.Context, tx *gorm.DB, sourceType LedgerSourceType, sourceID snowflake.ID, occurredAt time.Time, lines []PostingLine) error
}

var (
	ErrInvalidSource     = errors.New("invalid_ledger_source")
	ErrInvalidEntryLines = errors.New("invalid_ledger_entry_lines")
	ErrUnbalancedEntry   = errors.New("unbalanced_ledger_entry")
)

// ValidateBalanced checks debits equal credits.
func ValidateBalanced(lines []PostingLine) error {
	var debits, credits int64
	for _, line := range lines {
		if line.AmountCents < 0 {
			return ErrInvalidEntryLines
		}
		switch line.Direction {
		case LedgerEntryDirectionDebit:
			debits += line.AmountCents
		case LedgerEntryDirectionCredit:
			credits += line.AmountCents
		default:
			return ErrInvalidEntryLines
		}
	}
	if debits != credits {
		return ErrUnbalancedEntry
	}
	return nil
}
