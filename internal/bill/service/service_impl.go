package service

import (
	"context"
	"strings"
	"time"

	auditdomain "github.com/aquilabs/waterworks/internal/audit/domain"
	"github.com/aquilabs/waterworks/internal/bill/domain"
	billingdomain "github.com/aquilabs/waterworks/internal/billing/domain"
	"github.com/aquilabs/waterworks/internal/clock"
	"github.com/aquilabs/waterworks/internal/config"
	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	ledgerdomain "github.com/aquilabs/waterworks/internal/ledger/domain"
	obsmetrics "github.com/aquilabs/waterworks/internal/observability/metrics"
	ratetabledomain "github.com/aquilabs/waterworks/internal/ratetable/domain"
	"github.com/aquilabs/waterworks/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB         *gorm.DB
	Log        *zap.Logger
	GenID      *snowflake.Node
	Clock      clock.Clock
	Billing    *config.BillingConfigHolder
	Repo       domain.Repository
	Customers  customerdomain.Service
	RateTable  ratetabledomain.Service
	LedgerSvc  ledgerdomain.Service
	AuditSvc   auditdomain.Service `optional:"true"`
	ObsMetrics *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db         *gorm.DB
	log        *zap.Logger
	genID      *snowflake.Node
	clock      clock.Clock
	billing    *config.BillingConfigHolder
	repo       domain.Repository
	customers  customerdomain.Service
	rateTable  ratetabledomain.Service
	ledgerSvc  ledgerdomain.Service
	auditSvc   auditdomain.Service
	obsMetrics *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:         p.DB,
		log:        p.Log.Named("bill.service"),
		genID:      p.GenID,
		clock:      p.Clock,
		billing:    p.Billing,
		repo:       p.Repo,
		customers:  p.Customers,
		rateTable:  p.RateTable,
		ledgerSvc:  p.LedgerSvc,
		auditSvc:   p.AuditSvc,
		obsMetrics: p.ObsMetrics,
	}
}

func (s *Service) policy() billingdomain.SurchargePolicy {
	cfg := s.billing.Get()
	return billingdomain.SurchargePolicy{
		DueDay:        cfg.DueDay,
		Stage1Percent: cfg.Stage1SurchargePercent,
		Stage2Percent: cfg.Stage2SurchargePercent,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateBillRequest) (domain.Bill, error) {
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: req.CustomerID})
	if err != nil {
		return domain.Bill{}, domain.ErrInvalidCustomer
	}

	month, err := billingdomain.ParseMonth(strings.TrimSpace(req.BilledMonth))
	if err != nil {
		return domain.Bill{}, domain.ErrInvalidBilledMonth
	}

	// Validation fails before any write: a reading going backwards is an
	// operator error, never a zero-consumption bill.
	consumption, err := billingdomain.Consumption(req.PreviousReading, req.CurrentReading)
	if err != nil {
		return domain.Bill{}, err
	}

	rateClass, err := s.rateTable.GetByCode(ctx, customer.RateClassCode)
	if err != nil {
		return domain.Bill{}, err
	}

	cfg := s.billing.Get()
	schedule := billingdomain.RateSchedule{
		Tier1Cents: rateClass.Tier1Cents,
		Tier2Cents: rateClass.Tier2Cents,
		LifelineM3: cfg.LifelineCubicMeters,
	}
	basic, err := schedule.BasicCents(consumption)
	if err != nil {
		return domain.Bill{}, err
	}

	now := s.clock.Now()
	assessment, err := billingdomain.Assess(month, basic, customer.DiscountPercent, s.policy(), now)
	if err != nil {
		return domain.Bill{}, err
	}

	bill := domain.Bill{
		ID:              s.genID.Generate(),
		CustomerID:      customer.ID,
		BilledMonth:     month.String(),
		PreviousReading: req.PreviousReading,
		CurrentReading:  req.CurrentReading,
		Consumption:     consumption,
		BasicCents:      basic,
		SurchargeCents:  assessment.SurchargeCents,
		DiscountCents:   assessment.DiscountCents,
		TotalCents:      assessment.TotalCents,
		Status:          domain.BillStatusUnpaid,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := s.repo.Insert(ctx, tx, &bill); err != nil {
			return err
		}

		if bill.TotalCents == 0 {
			// A fully discounted on-time bill has nothing to post.
			return nil
		}

		// The charge is revenue the moment it is raised; the discount only
		// ever reduces the basic amount.
		return s.ledgerSvc.Post(ctx, tx, ledgerdomain.SourceTypeBill, bill.ID, now, []ledgerdomain.PostingLine{
			{AccountCode: ledgerdomain.AccountCodeAccountsReceivable, Direction: ledgerdomain.LedgerEntryDirectionDebit, AmountCents: bill.TotalCents},
			{AccountCode: ledgerdomain.AccountCodeWaterRevenue, Direction: ledgerdomain.LedgerEntryDirectionCredit, AmountCents: bill.BasicCents - bill.DiscountCents},
			{AccountCode: ledgerdomain.AccountCodeSurchargeRevenue, Direction: ledgerdomain.LedgerEntryDirectionCredit, AmountCents: bill.SurchargeCents},
		})
	})
	if err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.Bill{}, domain.ErrDuplicateBill
		}
		return domain.Bill{}, err
	}

	if s.auditSvc != nil {
		targetID := bill.ID.String()
		_ = s.auditSvc.AuditLog(ctx, "bill.create", "bill", &targetID, map[string]any{
			"customer_id":  customer.ID.String(),
			"billed_month": bill.BilledMonth,
			"consumption":  consumption,
			"basic_cents":  basic,
		})
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordBillCreated(ctx)
	}

	s.log.Info("bill created",
		zap.String("bill_id", bill.ID.String()),
		zap.String("customer_id", customer.ID.String()),
		zap.String("billed_month", bill.BilledMonth),
		zap.Int64("basic_cents", basic),
	)

	return bill, nil
}

func (s *Service) ListOutstanding(ctx context.Context, req domain.ListOutstandingRequest) (domain.ListOutstandingResponse, error) {
	customer, err := s.customers.GetByID(ctx, customerdomain.GetCustomerRequest{ID: req.CustomerID})
	if err != nil {
		return domain.ListOutstandingResponse{}, domain.ErrInvalidCustomer
	}

	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = s.clock.Now()
	}

	bills, err := s.repo.ListOutstanding(ctx, s.db, customer.ID)
	if err != nil {
		return domain.ListOutstandingResponse{}, err
	}

	policy := s.policy()
	views := make([]domain.BillView, 0, len(bills))
	var outstanding int64
	for _, bill := range bills {
		if bill == nil {
			continue
		}
		view, err := assessBill(bill, customer.DiscountPercent, policy, asOf)
		if err != nil {
			return domain.ListOutstandingResponse{}, err
		}
		outstanding += view.OutstandingCents
		views = append(views, view)
	}

	return domain.ListOutstandingResponse{
		Bills:            views,
		OutstandingCents: outstanding,
		AsOf:             asOf,
	}, nil
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.Bill, error) {
	parsed, err := snowflake.ParseString(strings.TrimSpace(id))
	if err != nil || parsed == 0 {
		return domain.Bill{}, domain.ErrInvalidID
	}

	item, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.Bill{}, err
	}
	if item == nil {
		return domain.Bill{}, domain.ErrNotFound
	}
	return *item, nil
}

// assessBill re-evaluates an open bill at the given instant. Paid bills keep
// their frozen amounts.
func assessBill(bill *domain.Bill, discountPercent float64, policy billingdomain.SurchargePolicy, asOf time.Time) (domain.BillView, error) {
	if bill.Status == domain.BillStatusPaid {
		return domain.BillView{
			Bill:             *bill,
			Stage:            billingdomain.StageOnTime,
			SurchargeCents:   bill.SurchargeCents,
			DiscountCents:    bill.DiscountCents,
			TotalCents:       bill.TotalCents,
			OutstandingCents: 0,
			AsOf:             asOf,
		}, nil
	}

	month, err := bill.Month()
	if err != nil {
		return domain.BillView{}, err
	}
	assessment, err := billingdomain.Assess(month, bill.BasicCents, discountPercent, policy, asOf)
	if err != nil {
		return domain.BillView{}, err
	}

	outstanding := assessment.TotalCents - bill.PaidCents
	if outstanding < 0 {
		outstanding = 0
	}
	return domain.BillView{
		Bill:             *bill,
		Stage:            assessment.Stage,
		SurchargeCents:   assessment.SurchargeCents,
		DiscountCents:    assessment.DiscountCents,
		TotalCents:       assessment.TotalCents,
		OutstandingCents: outstanding,
		AsOf:             asOf,
	}, nil
}
