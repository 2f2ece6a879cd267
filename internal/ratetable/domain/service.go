package domain

import (
	"context"
	"errors"
)

type CreateRateClassRequest struct {
	Code        string
	Description string
	Tier1Cents  int64
	Tier2Cents  int64
}

type UpdateRateClassRequest struct {
	Code        string
	Description *string
	Tier1Cents  *int64
	Tier2Cents  *int64
}

type Service interface {
	Create(context.Context, CreateRateClassRequest) (RateClass, error)
	Update(context.Context, UpdateRateClassRequest) (RateClass, error)
	GetByCode(ctx context.Context, code string) (RateClass, error)
	List(context.Context) ([]RateClass, error)
}

var (
	ErrInvalidCode      = errors.New("invalid_rate_class_code")
	ErrInvalidTierRate  = errors.New("invalid_tier_rate")
	ErrDuplicateCode    = errors.New("duplicate_rate_class")
	ErrRateClassMissing = errors.New("rate_class_not_found")
)
