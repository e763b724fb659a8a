package core

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type DiscountProgramService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req CreateDiscountProgramRequest) (*DiscountProgram, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*DiscountProgram, error)
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page PageRequest) (Page[DiscountProgram], error)
	// Deactivate stops new applications. Invoices keep their snapshot.
	Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*DiscountProgram, error)
}

type discountProgramService struct {
	store Store
	clock Clock
	user  CurrentUser
	log   zerolog.Logger
}

func NewDiscountProgramService(store Store, clock Clock, user CurrentUser, log zerolog.Logger) DiscountProgramService {
	return &discountProgramService{store: store, clock: clock, user: user, log: log}
}

func (s *discountProgramService) Create(ctx context.Context, tenantID uuid.UUID, req CreateDiscountProgramRequest) (*DiscountProgram, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validateDiscountProgram(req); err != nil {
		return nil, err
	}

	p := &DiscountProgram{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Name:              req.Name,
		Percentage:        req.Percentage,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         dateOrNil(req.ValidFrom),
		ValidTo:           dateOrNil(req.ValidTo),
		IsActive:          true,
		CardNumber:        strings.TrimSpace(req.CardNumber),
		Audit:             Audit{CreatedBy: s.user.UserID(ctx), CreatedAt: s.clock.Now()},
	}
	if err := s.store.DiscountPrograms().Insert(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to insert discount program: %w", err)
	}

	s.log.Info().Str("program", p.Name).Str("percentage", p.Percentage.String()).Msg("discount program created")
	return p, nil
}

func (s *discountProgramService) Get(ctx context.Context, tenantID, id uuid.UUID) (*DiscountProgram, error) {
	return s.store.DiscountPrograms().Get(ctx, tenantID, id)
}

func (s *discountProgramService) List(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page PageRequest) (Page[DiscountProgram], error) {
	page = page.Normalize()
	items, total, err := s.store.DiscountPrograms().List(ctx, tenantID, activeOnly, page)
	if err != nil {
		return Page[DiscountProgram]{}, fmt.Errorf("failed to list discount programs: %w", err)
	}
	return Page[DiscountProgram]{Items: items, Total: total, Page: page.Page, PageSize: page.PageSize}, nil
}

func (s *discountProgramService) Deactivate(ctx context.Context, tenantID, id uuid.UUID) (*DiscountProgram, error) {
	p, err := s.store.DiscountPrograms().Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	if !p.IsActive {
		return p, nil
	}
	p.IsActive = false
	p.touch(s.user.UserID(ctx), s.clock.Now())
	if err := s.store.DiscountPrograms().Update(ctx, p); err != nil {
		return nil, fmt.Errorf("failed to deactivate discount program: %w", err)
	}
	s.log.Info().Str("program", p.Name).Msg("discount program deactivated")
	return p, nil
}
