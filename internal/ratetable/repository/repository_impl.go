package repository

import (
	"context"

	"github.com/aquilabs/waterworks/internal/ratetable/domain"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, rateClass *domain.RateClass) error {
	return db.WithContext(ctx).Create(rateClass).Error
}

func (r *repo) Update(ctx context.Context, db *gorm.DB, rateClass *domain.RateClass) error {
	return db.WithContext(ctx).
		Model(&domain.RateClass{}).
		Where("id = ?", rateClass.ID).
		Updates(map[string]any{
			"description": rateClass.Description,
			"tier1_cents": rateClass.Tier1Cents,
			"tier2_cents": rateClass.Tier2Cents,
			"updated_at":  rateClass.UpdatedAt,
		}).Error
}

func (r *repo) FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*domain.RateClass, error) {
	var rateClass domain.RateClass
	err := db.WithContext(ctx).
		Where("id = ?", id).
		Take(&rateClass).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rateClass, nil
}

func (r *repo) FindByCode(ctx context.Context, db *gorm.DB, code string) (*domain.RateClass, error) {
	var rateClass domain.RateClass
	err := db.WithContext(ctx).
		Where("code = ?", code).
		Take(&rateClass).Error
	if err == gorm.ErrRecordNotFound {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &rateClass, nil
}

func (r *repo) List(ctx context.Context, db *gorm.DB) ([]*domain.RateClass, error) {
	var rateClasses []*domain.RateClass
	err := db.WithContext(ctx).
		Order("code asc").
		Find(&rateClasses).Error
	if err != nil {
		return nil, err
	}
	return rateClasses, nil
}
