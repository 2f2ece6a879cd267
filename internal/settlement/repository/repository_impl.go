package repository

import (
	"context"

	"github.com/aquilabs/waterworks/internal/settlement/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, tx *gorm.DB, settlement *domain.Settlement, lines []domain.SettlementLine) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Settlement, []domain.SettlementLine, error)
}

type repo struct{}

func Provide() Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, tx *gorm.DB, settlement *domain.Settlement, lines []domain.SettlementLine) error {
	if err := tx.WithContext(ctx).Create(settlement).Error; err != nil {
		return err
	}
	if len(lines) == 0 {
		return nil
	}
	return tx.WithContext(ctx).Create(&lines).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.Settlement, []domain.SettlementLine, error) {
	var settlement domain.Settlement
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&settlement).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	var lines []domain.SettlementLine
	err = db.WithContext(ctx).
		Where("settlement_id = ?", id).
		Order("billed_month asc, bill_id asc").
		Find(&lines).Error
	if err != nil {
		return nil, nil, err
	}
	return &settlement, lines, nil
}
