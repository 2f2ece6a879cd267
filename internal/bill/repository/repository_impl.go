package repository

import (
	"context"

	"github.com/aquilabs/waterworks/internal/bill/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, bill *domain.Bill) error {
	return db.WithContext(ctx).Create(bill).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Bill, error) {
	var bill domain.Bill
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&bill).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &bill, nil
}

func (r *repo) FindForCustomer(ctx context.Context, db *gorm.DB, customerID snowflake.ID, ids []snowflake.ID) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	err := db.WithContext(ctx).
		Where("customer_id = ? AND id IN ?", customerID, ids).
		Order("billed_month asc, id asc").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) ListOutstanding(ctx context.Context, db *gorm.DB, customerID snowflake.ID) ([]*domain.Bill, error) {
	var bills []*domain.Bill
	err := db.WithContext(ctx).
		Where("customer_id = ? AND status IN ?", customerID, []domain.BillStatus{
			domain.BillStatusUnpaid,
			domain.BillStatusPartial,
		}).
		Order("billed_month asc, id asc").
		Find(&bills).Error
	if err != nil {
		return nil, err
	}
	return bills, nil
}

func (r *repo) UpdateSettled(ctx context.Context, db *gorm.DB, bill *domain.Bill, expected domain.BillStatus) (int64, error) {
	result := db.WithContext(ctx).
		Model(&domain.Bill{}).
		Where("id = ? AND status = ?", bill.ID, expected).
		Updates(map[string]any{
			"surcharge_cents": bill.SurchargeCents,
			"discount_cents":  bill.DiscountCents,
			"total_cents":     bill.TotalCents,
			"status":          bill.Status,
			"paid_cents":      bill.PaidCents,
			"advance_cents":   bill.AdvanceCents,
			"date_paid":       bill.DatePaid,
			"settlement_id":   bill.SettlementID,
			"updated_at":      bill.UpdatedAt,
		})
	if result.Error != nil {
		return 0, result.Error
	}
	return result.RowsAffected, nil
}
