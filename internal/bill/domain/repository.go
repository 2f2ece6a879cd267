package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, bill *Bill) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Bill, error)
	// FindForCustomer loads the given bills scoped to one customer, ordered
	// oldest billed month first with the bill id as a stable tie-break.
	FindForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, ids []snowflake.ID) ([]*Bill, error)
	// ListOutstanding returns unpaid and partial bills, oldest first.
	ListOutstanding(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*Bill, error)
	// UpdateSettled persists the frozen settlement outcome for one bill. The
	// update is guarded on the status observed inside the transaction; zero
	// rows affected signals a concurrent settlement.
	UpdateSettled(ctx context.Context, db *gorm.DB, bill *Bill, expected BillStatus) (int64, error)
}
