package domain

import (
	"context"
	"errors"
)

type SettleRequest struct {
	CustomerID    string
	BillIDs       []string
	TenderedCents int64
	// AllowPartial overrides the configured default when set. With partial
	// settlement off, a tender below the net due is rejected outright.
	AllowPartial *bool
}

type SettleResponse struct {
	Settlement            Settlement       `json:"settlement"`
	Lines                 []SettlementLine `json:"lines"`
	NewCreditBalanceCents int64            `json:"new_credit_balance_cents"`
}

type Service interface {
	// Settle applies credit then tender across the selected bills, oldest
	// billed month first, as one atomic transaction. Validation failures
	// reject before any write.
	Settle(context.Context, SettleRequest) (SettleResponse, error)
	GetByID(ctx context.Context, id string) (SettleResponse, error)
}

var (
	ErrInvalidCustomer        = errors.New("invalid_customer")
	ErrInvalidID              = errors.New("invalid_id")
	ErrInvalidTender          = errors.New("invalid_tender")
	ErrNothingSelected        = errors.New("nothing_selected")
	ErrBillNotFound           = errors.New("bill_not_found")
	ErrInsufficientPayment    = errors.New("insufficient_payment")
	ErrConcurrentModification = errors.New("concurrent_modification")
	ErrSettlementInProgress   = errors.New("settlement_in_progress")
	ErrNotFound               = errors.New("settlement_not_found")
	// ErrNegativeCredit is an internal defect guard. It never surfaces from
	// correct attribution arithmetic.
	ErrNegativeCredit = errors.New("negative_credit_invariant")
)
