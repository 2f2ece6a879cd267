package service_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	billdomain "github.com/aquilabs/waterworks/internal/bill/domain"
	billrepo "github.com/aquilabs/waterworks/internal/bill/repository"
	"github.com/aquilabs/waterworks/internal/clock"
	"github.com/aquilabs/waterworks/internal/config"
	customerdomain "github.com/aquilabs/waterworks/internal/customer/domain"
	customerrepo "github.com/aquilabs/waterworks/internal/customer/repository"
	ledgerdomain "github.com/aquilabs/waterworks/internal/ledger/domain"
	ledgerservice "github.com/aquilabs/waterworks/internal/ledger/service"
	"github.com/aquilabs/waterworks/internal/settlement/domain"
	settlementrepo "github.com/aquilabs/waterworks/internal/settlement/repository"
	settlementservice "github.com/aquilabs/waterworks/internal/settlement/service"
	"github.com/bwmarrin/snowflake"
	"github.com/glebarez/sqlite"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

func setupTestDB(t *testing.T) *gorm.DB {
	t.Helper()

	dsn := fmt.Sprintf("file:settlement_%d?mode=memory&cache=shared", time.Now().UnixNano())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{})
	require.NoError(t, err)

	require.NoError(t, db.AutoMigrate(
		&customerdomain.Customer{},
		&billdomain.Bill{},
		&domain.Settlement{},
		&domain.SettlementLine{},
		&ledgerdomain.LedgerAccount{},
		&ledgerdomain.LedgerEntry{},
		&ledgerdomain.LedgerEntryLine{},
	))
	return db
}

type testEnv struct {
	db    *gorm.DB
	node  *snowflake.Node
	clock *clock.FakeClock
	svc   domain.Service
}

func newTestEnv(t *testing.T, at time.Time) *testEnv {
	t.Helper()

	db := setupTestDB(t)
	node, err := snowflake.NewNode(7)
	require.NoError(t, err)

	fake := clock.NewFakeClock(at)
	holder := config.NewStaticBillingConfigHolder(config.DefaultBillingConfig())

	ledgerSvc := ledgerservice.New(ledgerservice.Params{
		Log:   zap.NewNop(),
		GenID: node,
	})

	svc := settlementservice.New(settlementservice.Params{
		DB:           db,
		Log:          zap.NewNop(),
		GenID:        node,
		Clock:        fake,
		Billing:      holder,
		Repo:         settlementrepo.Provide(),
		BillRepo:     billrepo.Provide(),
		CustomerRepo: customerrepo.Provide(),
		LedgerSvc:    ledgerSvc,
	})

	return &testEnv{db: db, node: node, clock: fake, svc: svc}
}

func (e *testEnv) seedCustomer(t *testing.T, discountPercent float64, creditCents int64) *customerdomain.Customer {
	t.Helper()

	customer := &customerdomain.Customer{
		ID:                 e.node.Generate(),
		Name:               "Arnel Dizon",
		RateClassCode:      "residential",
		DiscountPercent:    discountPercent,
		CreditBalanceCents: creditCents,
		CreatedAt:          e.clock.Now(),
		UpdatedAt:          e.clock.Now(),
	}
	require.NoError(t, e.db.Create(customer).Error)
	return customer
}

func (e *testEnv) seedBill(t *testing.T, customerID snowflake.ID, month string, basicCents int64) *billdomain.Bill {
	t.Helper()

	bill := &billdomain.Bill{
		ID:              e.node.Generate(),
		CustomerID:      customerID,
		BilledMonth:     month,
		PreviousReading: 100,
		CurrentReading:  110,
		Consumption:     10,
		BasicCents:      basicCents,
		TotalCents:      basicCents,
		Status:          billdomain.BillStatusUnpaid,
		CreatedAt:       e.clock.Now(),
		UpdatedAt:       e.clock.Now(),
	}
	require.NoError(t, e.db.Create(bill).Error)
	return bill
}

func (e *testEnv) reloadBill(t *testing.T, id snowflake.ID) *billdomain.Bill {
	t.Helper()

	var bill billdomain.Bill
	require.NoError(t, e.db.Where("id = ?", id).Take(&bill).Error)
	return &bill
}

func (e *testEnv) reloadCredit(t *testing.T, id snowflake.ID) int64 {
	t.Helper()

	var customer customerdomain.Customer
	require.NoError(t, e.db.Where("id = ?", id).Take(&customer).Error)
	return customer.CreditBalanceCents
}

func boolPtr(v bool) *bool { return &v }

func TestSettleExactPaymentClearsBill(t *testing.T) {
	// 2024-01 bill is on time until 2024-02-20.
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 50000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), resp.Settlement.TotalDueCents)
	assert.Equal(t, int64(50000), resp.Settlement.AppliedCents)
	assert.Equal(t, int64(0), resp.Settlement.CreditUsedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(0), resp.NewCreditBalanceCents)

	require.Len(t, resp.Lines, 1)
	line := resp.Lines[0]
	assert.Equal(t, int64(50000), line.DueCents)
	assert.Equal(t, int64(0), line.FromCreditCents)
	assert.Equal(t, int64(50000), line.FromPaymentCents)
	assert.Equal(t, int64(0), line.SurchargeCents)

	settled := env.reloadBill(t, bill.ID)
	assert.Equal(t, billdomain.BillStatusPaid, settled.Status)
	assert.Equal(t, int64(50000), settled.PaidCents)
	assert.Equal(t, int64(0), settled.AdvanceCents)
	require.NotNil(t, settled.DatePaid)
	assert.Equal(t, env.clock.Now(), settled.DatePaid.UTC())
	require.NotNil(t, settled.SettlementID)
	assert.Equal(t, resp.Settlement.ID, *settled.SettlementID)

	assert.Equal(t, int64(0), env.reloadCredit(t, customer.ID))

	// Cash debit against receivables credit; zero-amount legs are dropped.
	var lineCount int64
	require.NoError(t, env.db.Raw("SELECT COUNT(1) FROM ledger_entry_lines").Scan(&lineCount).Error)
	assert.Equal(t, int64(2), lineCount)
}

func TestSettleOverpaymentBecomesCredit(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 70000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(20000), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(20000), resp.NewCreditBalanceCents)
	assert.Equal(t, int64(20000), env.reloadCredit(t, customer.ID))

	settled := env.reloadBill(t, bill.ID)
	assert.Equal(t, billdomain.BillStatusPaid, settled.Status)
	assert.Equal(t, int64(20000), settled.AdvanceCents)

	// Cash 70000 debit, receivables 50000 credit, credit balance 20000 credit.
	var lineCount int64
	require.NoError(t, env.db.Raw("SELECT COUNT(1) FROM ledger_entry_lines").Scan(&lineCount).Error)
	assert.Equal(t, int64(3), lineCount)
}

func TestSettleCreditConsumedBeforeTender(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 30000)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 20000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(30000), resp.Settlement.CreditUsedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(0), resp.NewCreditBalanceCents)
	assert.Equal(t, int64(0), env.reloadCredit(t, customer.ID))

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(30000), resp.Lines[0].FromCreditCents)
	assert.Equal(t, int64(20000), resp.Lines[0].FromPaymentCents)
	assert.Equal(t, resp.Lines[0].DueCents, resp.Lines[0].FromCreditCents+resp.Lines[0].FromPaymentCents)

	assert.Equal(t, billdomain.BillStatusPaid, env.reloadBill(t, bill.ID).Status)
}

func TestSettleLeftoverCreditSurvives(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 80000)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(50000), resp.Settlement.CreditUsedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(30000), resp.NewCreditBalanceCents)
	assert.Equal(t, int64(30000), env.reloadCredit(t, customer.ID))
	assert.Equal(t, billdomain.BillStatusPaid, env.reloadBill(t, bill.ID).Status)
}

func TestSettleMultipleBillsOldestFirst(t *testing.T) {
	// At 2024-02-10 the 2023-11 and 2023-12 bills are delinquent and 2024-01
	// is still on time.
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 5000)
	nov := env.seedBill(t, customer.ID, "2023-11", 10000)
	dec := env.seedBill(t, customer.ID, "2023-12", 20000)
	jan := env.seedBill(t, customer.ID, "2024-01", 30000)

	// 10000+1000+550, 20000+2000+1100, 30000 flat.
	const totalDue = 11550 + 23100 + 30000

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID: customer.ID.String(),
		// Selection order must not matter.
		BillIDs:       []string{jan.ID.String(), nov.ID.String(), dec.ID.String()},
		TenderedCents: totalDue - 5000,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(totalDue), resp.Settlement.TotalDueCents)
	assert.Equal(t, int64(totalDue), resp.Settlement.AppliedCents)
	assert.Equal(t, int64(5000), resp.Settlement.CreditUsedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)

	require.Len(t, resp.Lines, 3)
	assert.Equal(t, "2023-11", resp.Lines[0].BilledMonth)
	assert.Equal(t, "2023-12", resp.Lines[1].BilledMonth)
	assert.Equal(t, "2024-01", resp.Lines[2].BilledMonth)

	// Credit lands on the oldest bill before any tender does.
	assert.Equal(t, int64(5000), resp.Lines[0].FromCreditCents)
	assert.Equal(t, int64(6550), resp.Lines[0].FromPaymentCents)
	assert.Equal(t, int64(0), resp.Lines[1].FromCreditCents)
	assert.Equal(t, int64(0), resp.Lines[2].FromCreditCents)

	for _, line := range resp.Lines {
		assert.Equal(t, line.DueCents, line.FromCreditCents+line.FromPaymentCents)
	}

	for _, id := range []snowflake.ID{nov.ID, dec.ID, jan.ID} {
		assert.Equal(t, billdomain.BillStatusPaid, env.reloadBill(t, id).Status)
	}

	// The delinquent bills freeze their settlement-time surcharge.
	assert.Equal(t, int64(1550), env.reloadBill(t, nov.ID).SurchargeCents)
	assert.Equal(t, int64(3100), env.reloadBill(t, dec.ID).SurchargeCents)
	assert.Equal(t, int64(0), env.reloadBill(t, jan.ID).SurchargeCents)
}

func TestSettleDiscountAppliedAtSettlement(t *testing.T) {
	// 2024-01 bill settled on 2024-03-05 is delinquent: 10% stage one, then
	// 5% of basic plus stage one. The senior discount stays on basic only.
	env := newTestEnv(t, time.Date(2024, 3, 5, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 10, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 100000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 105500,
	})
	require.NoError(t, err)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(15500), resp.Lines[0].SurchargeCents)
	assert.Equal(t, int64(10000), resp.Lines[0].DiscountCents)
	assert.Equal(t, int64(105500), resp.Lines[0].DueCents)

	settled := env.reloadBill(t, bill.ID)
	assert.Equal(t, int64(15500), settled.SurchargeCents)
	assert.Equal(t, int64(10000), settled.DiscountCents)
	assert.Equal(t, int64(105500), settled.TotalCents)
}

func TestSettleFullyDiscountedBillCloses(t *testing.T) {
	// A 100% discount brings the due to zero. The bill still has to close,
	// with no ledger movement to show for it.
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 100, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 0,
	})
	require.NoError(t, err)

	assert.Equal(t, int64(0), resp.Settlement.TotalDueCents)
	assert.Equal(t, int64(0), resp.Settlement.AppliedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(0), resp.NewCreditBalanceCents)

	require.Len(t, resp.Lines, 1)
	assert.Equal(t, int64(0), resp.Lines[0].DueCents)
	assert.Equal(t, int64(50000), resp.Lines[0].DiscountCents)

	settled := env.reloadBill(t, bill.ID)
	assert.Equal(t, billdomain.BillStatusPaid, settled.Status)
	assert.Equal(t, int64(0), settled.PaidCents)
	assert.Equal(t, int64(0), settled.TotalCents)
	require.NotNil(t, settled.DatePaid)

	// Nothing moved, so nothing posts.
	var lineCount int64
	require.NoError(t, env.db.Raw("SELECT COUNT(1) FROM ledger_entry_lines").Scan(&lineCount).Error)
	assert.Equal(t, int64(0), lineCount)
}

func TestSettleNothingSelected(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)

	_, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		TenderedCents: 1000,
	})
	assert.ErrorIs(t, err, domain.ErrNothingSelected)
}

func TestSettleInsufficientPaymentRejected(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	_, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 49999,
	})
	require.ErrorIs(t, err, domain.ErrInsufficientPayment)

	// Rejection leaves no trace.
	untouched := env.reloadBill(t, bill.ID)
	assert.Equal(t, billdomain.BillStatusUnpaid, untouched.Status)
	assert.Equal(t, int64(0), untouched.PaidCents)
	assert.Nil(t, untouched.SettlementID)
	assert.Equal(t, int64(0), env.reloadCredit(t, customer.ID))

	var count int64
	require.NoError(t, env.db.Raw("SELECT COUNT(1) FROM settlements").Scan(&count).Error)
	assert.Equal(t, int64(0), count)
}

func TestSettlePartialModeLeavesYoungestOpen(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 25, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	jan := env.seedBill(t, customer.ID, "2024-01", 10000)
	feb := env.seedBill(t, customer.ID, "2024-02", 20000)

	// 2024-01 is overdue at 11000; 2024-02 is on time at 20000. A 15000
	// tender clears the old bill and leaves 4000 on the new one.
	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{jan.ID.String(), feb.ID.String()},
		TenderedCents: 15000,
		AllowPartial:  boolPtr(true),
	})
	require.NoError(t, err)

	assert.Equal(t, int64(31000), resp.Settlement.TotalDueCents)
	assert.Equal(t, int64(15000), resp.Settlement.AppliedCents)
	assert.Equal(t, int64(0), resp.Settlement.OverpaymentCents)
	assert.Equal(t, int64(0), resp.NewCreditBalanceCents)

	settledJan := env.reloadBill(t, jan.ID)
	assert.Equal(t, billdomain.BillStatusPaid, settledJan.Status)
	assert.Equal(t, int64(11000), settledJan.PaidCents)

	partialFeb := env.reloadBill(t, feb.ID)
	assert.Equal(t, billdomain.BillStatusPartial, partialFeb.Status)
	assert.Equal(t, int64(4000), partialFeb.PaidCents)
	assert.Nil(t, partialFeb.DatePaid)
}

func TestSettleAlreadyPaidBillRejected(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)
	require.NoError(t, env.db.Model(&billdomain.Bill{}).
		Where("id = ?", bill.ID).
		Update("status", billdomain.BillStatusPaid).Error)

	_, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 50000,
	})
	assert.ErrorIs(t, err, domain.ErrConcurrentModification)
}

func TestSettleForeignBillRejected(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	other := env.seedCustomer(t, 0, 0)
	foreign := env.seedBill(t, other.ID, "2024-01", 50000)

	_, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{foreign.ID.String()},
		TenderedCents: 50000,
	})
	assert.ErrorIs(t, err, domain.ErrBillNotFound)
}

func TestSettleGetByIDReturnsLines(t *testing.T) {
	env := newTestEnv(t, time.Date(2024, 2, 10, 9, 0, 0, 0, time.UTC))
	customer := env.seedCustomer(t, 0, 0)
	bill := env.seedBill(t, customer.ID, "2024-01", 50000)

	resp, err := env.svc.Settle(context.Background(), domain.SettleRequest{
		CustomerID:    customer.ID.String(),
		BillIDs:       []string{bill.ID.String()},
		TenderedCents: 50000,
	})
	require.NoError(t, err)

	loaded, err := env.svc.GetByID(context.Background(), resp.Settlement.ID.String())
	require.NoError(t, err)
	assert.Equal(t, resp.Settlement.ID, loaded.Settlement.ID)
	require.Len(t, loaded.Lines, 1)
	assert.Equal(t, bill.ID, loaded.Lines[0].BillID)

	_, err = env.svc.GetByID(context.Background(), env.node.Generate().String())
	assert.ErrorIs(t, err, domain.ErrNotFound)
}
