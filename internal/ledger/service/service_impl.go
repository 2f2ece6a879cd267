package service

import (
	"context"
	"time"

	"github.com/aquilabs/waterworks/internal/ledger/domain"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	Log   *zap.Logger
	GenID *snowflake.Node
}

type Service struct {
	log   *zap.Logger
	genID *snowflake.Node
}

func New(p Params) domain.Service {
	return &Service{
		log:   p.Log.Named("ledger.service"),
		genID: p.GenID,
	}
}

var accountNames = map[domain.LedgerAccountCode]string{
	domain.AccountCodeAccountsReceivable: "Accounts Receivable",
	domain.AccountCodeCash:               "Cash",
	domain.AccountCodeCreditBalance:      "Customer Credit Balance",
	domain.AccountCodeWaterRevenue:       "Water Revenue",
	domain.AccountCodeSurchargeRevenue:   "Surcharge Revenue",
}

func (s *Service) Post(ctx context.Context, tx *gorm.DB, sourceType domain.LedgerSourceType, sourceID snowflake.ID, occurredAt time.Time, lines []domain.PostingLine) error {
	if sourceType == "" || sourceID == 0 || occurredAt.IsZero() {
		return domain.ErrInvalidSource
	}

	kept := make([]domain.PostingLine, 0, len(lines))
	for _, line := range lines {
		if line.AmountCents == 0 {
			continue
		}
		kept = append(kept, line)
	}
	if len(kept) < 2 {
		return domain.ErrInvalidEntryLines
	}
	if err := domain.ValidateBalanced(kept); err != nil {
		return err
	}

	now := time.Now().UTC()
	entry := domain.LedgerEntry{
		ID:         s.genID.Generate(),
		SourceType: sourceType,
		SourceID:   sourceID,
		OccurredAt: occurredAt,
		CreatedAt:  now,
	}
	if err := tx.WithContext(ctx).Create(&entry).Error; err != nil {
		return err
	}

	for _, line := range kept {
		accountID, err := s.resolveAccount(ctx, tx, line.AccountCode, now)
		if err != nil {
			return err
		}
		entryLine := domain.LedgerEntryLine{
			ID:            s.genID.Generate(),
			LedgerEntryID: entry.ID,
			AccountID:     accountID,
			Direction:     line.Direction,
			AmountCents:   line.AmountCents,
			CreatedAt:     now,
		}
		if err := tx.WithContext(ctx).Create(&entryLine).Error; err != nil {
			return err
		}
	}

	return nil
}

func (s *Service) resolveAccount(ctx context.Context, tx *gorm.DB, code domain.LedgerAccountCode, now time.Time) (snowflake.ID, error) {
	var account domain.LedgerAccount
	err := tx.WithContext(ctx).Where("code = ?", code).Take(&account).Error
	if err == nil {
		return account.ID, nil
	}
	if err != gorm.ErrRecordNotFound {
		return 0, err
	}

	name := accountNames[code]
	if name == "" {
		name = string(code)
	}
	account = domain.LedgerAccount{
		ID:        s.genID.Generate(),
		Code:      code,
		Name:      name,
		CreatedAt: now,
	}
	if err := tx.WithContext(ctx).Create(&account).Error; err != nil {
		return 0, err
	}
	return account.ID, nil
}
