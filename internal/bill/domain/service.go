package domain

import (
	"context"
	"errors"
	"time"
)

type CreateBillRequest struct {
	CustomerID      string
	BilledMonth     string
	PreviousReading int64
	CurrentReading  int64
}

type ListOutstandingRequest struct {
	CustomerID string
	// AsOf overrides the evaluation instant; zero means "now". Back-office
	// tooling uses it to preview surcharges at a future date.
	AsOf time.Time
}

type ListOutstandingResponse struct {
	Bills            []BillView `json:"bills"`
	OutstandingCents int64      `json:"outstanding_cents"`
	AsOf             time.Time  `json:"as_of"`
}

type Service interface {
	Create(context.Context, CreateBillRequest) (Bill, error)
	ListOutstanding(context.Context, ListOutstandingRequest) (ListOutstandingResponse, error)
	GetByID(ctx context.Context, id string) (Bill, error)
}

var (
	ErrInvalidCustomer    = errors.New("invalid_customer")
	ErrInvalidBilledMonth = errors.New("invalid_billed_month")
	ErrDuplicateBill      = errors.New("duplicate_bill")
	ErrInvalidID          = errors.New("invalid_id")
	ErrNotFound           = errors.New("bill_not_found")
)
