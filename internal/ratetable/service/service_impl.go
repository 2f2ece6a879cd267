package service

import (
	"context"
	"strings"
	"time"

	"github.com/aquilabs/waterworks/internal/ratetable/domain"
	"github.com/aquilabs/waterworks/pkg/db"
	"github.com/bwmarrin/snowflake"
	"go.uber.org/fx"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

type Params struct {
	fx.In

	DB    *gorm.DB
	Log   *zap.Logger
	GenID *snowflake.Node
	Repo  domain.Repository
}

type Service struct {
	db    *gorm.DB
	log   *zap.Logger
	genID *snowflake.Node
	repo  domain.Repository
}

func New(p Params) domain.Service {
	return &Service{
		db:    p.DB,
		log:   p.Log.Named("ratetable.service"),
		genID: p.GenID,
		repo:  p.Repo,
	}
}

func (s *Service) Create(ctx context.Context, req domain.CreateRateClassRequest) (domain.RateClass, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.RateClass{}, domain.ErrInvalidCode
	}
	if req.Tier1Cents <= 0 || req.Tier2Cents <= 0 {
		return domain.RateClass{}, domain.ErrInvalidTierRate
	}

	now := time.Now().UTC()
	rateClass := domain.RateClass{
		ID:          s.genID.Generate(),
		Code:        code,
		Description: strings.TrimSpace(req.Description),
		Tier1Cents:  req.Tier1Cents,
		Tier2Cents:  req.Tier2Cents,
		CreatedAt:   now,
		UpdatedAt:   now,
	}

	if err := s.repo.Insert(ctx, s.db, &rateClass); err != nil {
		if db.IsDuplicateKeyErr(err) {
			return domain.RateClass{}, domain.ErrDuplicateCode
		}
		return domain.RateClass{}, err
	}

	return rateClass, nil
}

func (s *Service) Update(ctx context.Context, req domain.UpdateRateClassRequest) (domain.RateClass, error) {
	code := strings.ToLower(strings.TrimSpace(req.Code))
	if code == "" {
		return domain.RateClass{}, domain.ErrInvalidCode
	}

	existing, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.RateClass{}, err
	}
	if existing == nil {
		return domain.RateClass{}, domain.ErrRateClassMissing
	}

	if req.Description != nil {
		existing.Description = strings.TrimSpace(*req.Description)
	}
	if req.Tier1Cents != nil {
		existing.Tier1Cents = *req.Tier1Cents
	}
	if req.Tier2Cents != nil {
		existing.Tier2Cents = *req.Tier2Cents
	}
	if existing.Tier1Cents <= 0 || existing.Tier2Cents <= 0 {
		return domain.RateClass{}, domain.ErrInvalidTierRate
	}
	existing.UpdatedAt = time.Now().UTC()

	if err := s.repo.Update(ctx, s.db, existing); err != nil {
		return domain.RateClass{}, err
	}

	return *existing, nil
}

func (s *Service) GetByCode(ctx context.Context, code string) (domain.RateClass, error) {
	code = strings.ToLower(strings.TrimSpace(code))
	if code == "" {
		return domain.RateClass{}, domain.ErrInvalidCode
	}

	item, err := s.repo.FindByCode(ctx, s.db, code)
	if err != nil {
		return domain.RateClass{}, err
	}
	if item == nil {
		return domain.RateClass{}, domain.ErrRateClassMissing
	}

	return *item, nil
}

func (s *Service) List(ctx context.Context) ([]domain.RateClass, error) {
	items, err := s.repo.List(ctx, s.db)
	if err != nil {
		return nil, err
	}

	rateClasses := make([]domain.RateClass, 0, len(items))
	for _, item := range items {
		if item == nil {
			continue
		}
		rateClasses = append(rateClasses, *item)
	}
	return rateClasses, nil
}
