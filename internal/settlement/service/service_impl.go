package service

import (
	"context"
	"sort"
	"strings"
	"time"

	auditdomain "github.com/aquilabs/waterworks/internal/audit/domain"
	billdomain "github.com/aquilabs/waterworks/internal/bill/domain"
	billingdomain "github.com/aquilabs/waterworks/internal/billing/domain"
	"github.com/aquilabs/waterworks/internal/clock"
	"github.com/aquilabs/waterworks/internal/config"
	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	ledgerdomain "github.com/aquilabs/waterworks/internal/ledger/domain"
	"github.com/aquilabs/waterworks/internal/locker"
	obsmetrics "github.com/aquilabs/waterworks/internal/observability/metrics"
	"github.com/aquilabs/waterworks/internal/settlement/domain"
	"github.com/aquilabs/waterworks/internal/settlement/repository"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const settlementLockTTL = 30 * time.Second

type Params struct {
	fx.In

	DB           *gorm.DB
	Log          *zap.Logger
	GenID        *snowflake.Node
	Clock        clock.Clock
	Billing      *config.BillingConfigHolder
	Repo         repository.Repository
	BillRepo     billdomain.Repository
	CustomerRepo customerdomain.Repository
	LedgerSvc    ledgerdomain.Service
	AuditSvc     auditdomain.Service `optional:"true"`
	Locker       *locker.Locker      `optional:"true"`
	ObsMetrics   *obsmetrics.Metrics `optional:"true"`
}

type Service struct {
	db           *gorm.DB
	log          *zap.Logger
	genID        *snowflake.Node
	clock        clock.Clock
	billing      *config.BillingConfigHolder
	repo         repository.Repository
	billRepo     billdomain.Repository
	customerRepo customerdomain.Repository
	ledgerSvc    ledgerdomain.Service
	auditSvc     auditdomain.Service
	locker       *locker.Locker
	obsMetrics   *obsmetrics.Metrics
}

func New(p Params) domain.Service {
	return &Service{
		db:           p.DB,
		log:          p.Log.Named("settlement.service"),
		genID:        p.GenID,
		clock:        p.Clock,
		billing:      p.Billing,
		repo:         p.Repo,
		billRepo:     p.BillRepo,
		customerRepo: p.CustomerRepo,
		ledgerSvc:    p.LedgerSvc,
		auditSvc:     p.AuditSvc,
		locker:       p.Locker,
		obsMetrics:   p.ObsMetrics,
	}
}

// workItem is one selected bill re-assessed at the settlement instant.
type workItem struct {
	bill         *billdomain.Bill
	assessment   billingdomain.Assessment
	dueCents     int64
	appliedCents int64
	origStatus   billdomain.BillStatus
}

func (s *Service) Settle(ctx context.Context, req domain.SettleRequest) (domain.SettleResponse, error) {
	customerID, err := parseID(req.CustomerID)
	if err != nil {
		return domain.SettleResponse{}, domain.ErrInvalidCustomer
	}
	if req.TenderedCents < 0 {
		return domain.SettleResponse{}, domain.ErrInvalidTender
	}

	billIDs, err := parseBillIDs(req.BillIDs)
	if err != nil {
		return domain.SettleResponse{}, err
	}
	if len(billIDs) == 0 {
		return domain.SettleResponse{}, domain.ErrNothingSelected
	}

	cfg := s.billing.Get()
	allowPartial := cfg.AllowPartialDefault
	if req.AllowPartial != nil {
		allowPartial = *req.AllowPartial
	}
	policy := billingdomain.SurchargePolicy{
		DueDay:        cfg.DueDay,
		Stage1Percent: cfg.Stage1SurchargePercent,
		Stage2Percent: cfg.Stage2SurchargePercent,
	}

	// Serialize settlements per customer across replicas when redis is
	// available. The transaction's optimistic checks remain the backstop.
	if s.locker != nil {
		key := "waterworks:settlement:" + customerID.String()
		token, ok, lockErr := s.locker.TryLock(ctx, key, settlementLockTTL)
		if lockErr != nil {
			return domain.SettleResponse{}, lockErr
		}
		if !ok {
			return domain.SettleResponse{}, domain.ErrSettlementInProgress
		}
		defer func() {
			_ = s.locker.Release(ctx, key, token)
		}()
	}

	settledAt := s.clock.Now()

	var resp domain.SettleResponse
	err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		customer, err := s.customerRepo.FindByID(ctx, tx, customerID)
		if err != nil {
			return err
		}
		if customer == nil {
			return domain.ErrInvalidCustomer
		}

		items, err := s.loadWorkItems(ctx, tx, customer, billIDs, policy, settledAt)
		if err != nil {
			return err
		}

		var totalDue int64
		for _, item := range items {
			totalDue += item.dueCents
		}

		creditUsed := customer.CreditBalanceCents
		if creditUsed > totalDue {
			creditUsed = totalDue
		}
		netDue := totalDue - creditUsed

		if req.TenderedCents < netDue && !allowPartial {
			return domain.ErrInsufficientPayment
		}

		settlementID := s.genID.Generate()
		lines, lastPaid, appliedTotal := s.attribute(settlementID, items, creditUsed, req.TenderedCents, settledAt)

		overpayment := req.TenderedCents - (appliedTotal - creditUsed)
		if overpayment < 0 {
			return domain.ErrNegativeCredit
		}

		// Leftover prior credit survives alongside the new overpayment; the
		// consumed portion is gone either way.
		newCredit := (customer.CreditBalanceCents - creditUsed) + overpayment
		if newCredit < 0 {
			return domain.ErrNegativeCredit
		}

		if overpayment > 0 {
			if lastPaid == nil {
				// Overpayment with no fully settled bill cannot happen:
				// tender only remains once every selected bill is covered.
				return domain.ErrNegativeCredit
			}
			lastPaid.AdvanceCents = overpayment
		}

		for _, item := range items {
			if item.appliedCents == 0 && item.dueCents > 0 {
				// Untouched bill in partial mode: nothing to persist, the
				// surcharge keeps floating. Zero-due bills still close.
				continue
			}
			rows, err := s.billRepo.UpdateSettled(ctx, tx, item.bill, item.origStatus)
			if err != nil {
				return err
			}
			if rows == 0 {
				return domain.ErrConcurrentModification
			}
		}

		rows, err := s.customerRepo.UpdateCreditBalance(ctx, tx, customer.ID, customer.CreditBalanceCents, newCredit)
		if err != nil {
			return err
		}
		if rows == 0 {
			return domain.ErrConcurrentModification
		}

		settlement := domain.Settlement{
			ID:               settlementID,
			CustomerID:       customer.ID,
			TenderedCents:    req.TenderedCents,
			CreditUsedCents:  creditUsed,
			TotalDueCents:    totalDue,
			AppliedCents:     appliedTotal,
			OverpaymentCents: overpayment,
			AllowPartial:     allowPartial,
			SettledAt:        settledAt,
			CreatedAt:        settledAt,
		}
		if err := s.repo.Insert(ctx, tx, &settlement, lines); err != nil {
			return err
		}

		if req.TenderedCents > 0 || creditUsed > 0 {
			err = s.ledgerSvc.Post(ctx, tx, ledgerdomain.SourceTypeSettlement, settlementID, settledAt, []ledgerdomain.PostingLine{
				{AccountCode: ledgerdomain.AccountCodeCash, Direction: ledgerdomain.LedgerEntryDirectionDebit, AmountCents: req.TenderedCents},
				{AccountCode: ledgerdomain.AccountCodeCreditBalance, Direction: ledgerdomain.LedgerEntryDirectionDebit, AmountCents: creditUsed},
				{AccountCode: ledgerdomain.AccountCodeAccountsReceivable, Direction: ledgerdomain.LedgerEntryDirectionCredit, AmountCents: appliedTotal},
				{AccountCode: ledgerdomain.AccountCodeCreditBalance, Direction: ledgerdomain.LedgerEntryDirectionCredit, AmountCents: overpayment},
			})
			if err != nil {
				return err
			}
		}

		resp = domain.SettleResponse{
			Settlement:            settlement,
			Lines:                 lines,
			NewCreditBalanceCents: newCredit,
		}
		return nil
	})
	if err != nil {
		if s.obsMetrics != nil {
			s.obsMetrics.RecordSettlementFailed(ctx)
		}
		return domain.SettleResponse{}, err
	}

	if s.auditSvc != nil {
		targetID := resp.Settlement.ID.String()
		_ = s.auditSvc.AuditLog(ctx, "settlement.commit", "settlement", &targetID, map[string]any{
			"customer_id":       customerID.String(),
			"bill_count":        len(resp.Lines),
			"tendered_cents":    resp.Settlement.TenderedCents,
			"credit_used_cents": resp.Settlement.CreditUsedCents,
			"overpayment_cents": resp.Settlement.OverpaymentCents,
		})
	}
	if s.obsMetrics != nil {
		s.obsMetrics.RecordSettlement(ctx, len(resp.Lines), resp.Settlement.AppliedCents)
	}

	s.log.Info("settlement committed",
		zap.String("settlement_id", resp.Settlement.ID.String()),
		zap.String("customer_id", customerID.String()),
		zap.Int("bills", len(resp.Lines)),
		zap.Int64("tendered_cents", resp.Settlement.TenderedCents),
		zap.Int64("credit_used_cents", resp.Settlement.CreditUsedCents),
		zap.Int64("new_credit_cents", resp.NewCreditBalanceCents),
	)

	return resp, nil
}

// loadWorkItems reloads the selection inside the transaction and re-assesses
// every bill at the settlement instant. A bill missing, belonging to another
// customer, or no longer open aborts before any write.
func (s *Service) loadWorkItems(ctx context.Context, tx *gorm.DB, customer *customerdomain.Customer, billIDs []snowflake.ID, policy billingdomain.SurchargePolicy, settledAt time.Time) ([]*workItem, error) {
	bills, err := s.billRepo.FindForCustomer(ctx, tx, customer.ID, billIDs)
	if err != nil {
		return nil, err
	}
	if len(bills) != len(billIDs) {
		return nil, domain.ErrBillNotFound
	}

	items := make([]*workItem, 0, len(bills))
	for _, bill := range bills {
		if bill.Status == billdomain.BillStatusPaid {
			return nil, domain.ErrConcurrentModification
		}

		month, err := bill.Month()
		if err != nil {
			return nil, err
		}
		assessment, err := billingdomain.Assess(month, bill.BasicCents, customer.DiscountPercent, policy, settledAt)
		if err != nil {
			return nil, err
		}

		due := assessment.TotalCents - bill.PaidCents
		if due < 0 {
			due = 0
		}
		items = append(items, &workItem{
			bill:       bill,
			assessment: assessment,
			dueCents:   due,
			origStatus: bill.Status,
		})
	}

	// The repository already orders oldest month first with id as the
	// tie-break; keep the guarantee even if the store changes.
	sort.SliceStable(items, func(i, j int) bool {
		if items[i].bill.BilledMonth != items[j].bill.BilledMonth {
			return items[i].bill.BilledMonth < items[j].bill.BilledMonth
		}
		return items[i].bill.ID < items[j].bill.ID
	})

	return items, nil
}

// attribute walks the ordered bills satisfying each from remaining credit
// first, then remaining tender, moving on only once a bill is fully covered.
// Per line, FromCreditCents+FromPaymentCents equals the amount applied, so
// the whole set reconciles to the cent.
func (s *Service) attribute(settlementID snowflake.ID, items []*workItem, creditUsed, tendered int64, settledAt time.Time) ([]domain.SettlementLine, *billdomain.Bill, int64) {
	remCredit := creditUsed
	remTender := tendered

	lines := make([]domain.SettlementLine, 0, len(items))
	var lastPaid *billdomain.Bill
	var appliedTotal int64

	for _, item := range items {
		fromCredit := item.dueCents
		if fromCredit > remCredit {
			fromCredit = remCredit
		}
		fromPayment := item.dueCents - fromCredit
		if fromPayment > remTender {
			fromPayment = remTender
		}
		covered := fromCredit + fromPayment
		remCredit -= fromCredit
		remTender -= fromPayment
		appliedTotal += covered
		item.appliedCents = covered

		bill := item.bill
		bill.SurchargeCents = item.assessment.SurchargeCents
		bill.DiscountCents = item.assessment.DiscountCents
		bill.TotalCents = item.assessment.TotalCents
		bill.PaidCents += covered
		bill.UpdatedAt = settledAt
		bill.SettlementID = &settlementID

		// A zero-due bill (fully discounted, or already covered by earlier
		// payments) closes without moving a cent.
		switch {
		case covered == item.dueCents:
			bill.Status = billdomain.BillStatusPaid
			paidAt := settledAt
			bill.DatePaid = &paidAt
			lastPaid = bill
		case covered > 0:
			bill.Status = billdomain.BillStatusPartial
		}

		lines = append(lines, domain.SettlementLine{
			ID:               s.genID.Generate(),
			SettlementID:     settlementID,
			BillID:           bill.ID,
			BilledMonth:      bill.BilledMonth,
			BasicCents:       item.assessment.BasicCents,
			SurchargeCents:   item.assessment.SurchargeCents,
			DiscountCents:    item.assessment.DiscountCents,
			DueCents:         item.dueCents,
			FromCreditCents:  fromCredit,
			FromPaymentCents: fromPayment,
			CreatedAt:        settledAt,
		})
	}

	return lines, lastPaid, appliedTotal
}

func (s *Service) GetByID(ctx context.Context, id string) (domain.SettleResponse, error) {
	parsed, err := parseID(id)
	if err != nil {
		return domain.SettleResponse{}, err
	}

	settlement, lines, err := s.repo.FindByID(ctx, s.db, parsed)
	if err != nil {
		return domain.SettleResponse{}, err
	}
	if settlement == nil {
		return domain.SettleResponse{}, domain.ErrNotFound
	}

	return domain.SettleResponse{
		Settlement: *settlement,
		Lines:      lines,
	}, nil
}

func parseID(value string) (snowflake.ID, error) {
	id, err := snowflake.ParseString(strings.TrimSpace(value))
	if err != nil || id == 0 {
		return 0, domain.ErrInvalidID
	}
	return id, nil
}

func parseBillIDs(values []string) ([]snowflake.ID, error) {
	seen := make(map[snowflake.ID]struct{}, len(values))
	ids := make([]snowflake.ID, 0, len(values))
	for _, value := range values {
		id, err := parseID(value)
		if err != nil {
			return nil, err
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids, nil
}
