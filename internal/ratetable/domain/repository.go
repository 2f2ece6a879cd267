package domain

import (
	"context"

	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, rateClass *RateClass) error
	Update(ctx context.Context, db *gorm.DB, rateClass *RateClass) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*RateClass, error)
	FindByCode(ctx context.Context, db *gorm.DB, code string) (*RateClass, error)
	List(ctx context.Context, db *gorm.DB) ([]*RateClass, error)
}
