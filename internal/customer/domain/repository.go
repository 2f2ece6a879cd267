package domain

import (
	"context"

	"github.com/aquilabs/waterworks/pkg/db/pagination"
	"github.com/bwmarrin/snowflake"
	"gorm.io/gorm"
)

type ListCustomerFilter struct {
	Name          string
	RateClassCode string
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, customer *Customer) error
	FindByID(ctx context.Context, db *gorm.DB, id snowflake.ID) (*Customer, error)
	List(ctx context.Context, db *gorm.DB, filter ListCustomerFilter, page pagination.Pagination) ([]*Customer, error)
	// UpdateCreditBalance compares against the balance observed when the
	// settlement started; zero rows affected means a concurrent writer won.
	UpdateCreditBalance(ctx context.Context, db *gorm.DB, id snowflake.ID, observed, next int64) (int64, error)
}
