package domain

import (
	"context"
	"errors"

	"github.com/aquilabs/waterworks/pkg/db/pagination"
)

type CreateCustomerRequest struct {
	Name            string
	Address         string
	RateClassCode   string
	DiscountPercent float64
}

type ListCustomerRequest struct {
	PageToken     string
	PageSize      int32
	Name          string
	RateClassCode string
}

type ListCustomerResponse struct {
	pagination.PageInfo
	Customers []Customer `json:"customers"`
}

type GetCustomerRequest struct {
	ID string
}

type Service interface {
	Create(context.Context, CreateCustomerRequest) (Customer, error)
	List(context.Context, ListCustomerRequest) (ListCustomerResponse, error)
	GetByID(context.Context, GetCustomerRequest) (Customer, error)
}

var (
	ErrInvalidName      = errors.New("invalid_name")
	ErrInvalidRateClass = errors.New("invalid_rate_class")
	ErrInvalidDiscount  = errors.New("invalid_discount")
	ErrInvalidID        = errors.New("invalid_id")
	ErrNotFound         = errors.New("customer_not_found")
)
