package core

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// SupplierPaymentService manages outbound payments. It has no effect on invoices.
type SupplierPaymentService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req CreateSupplierPaymentRequest) (*SupplierPayment, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*SupplierPayment, error)
	List(ctx context.Context, tenantID uuid.UUID, f SupplierPaymentFilter) (Page[SupplierPayment], error)
	// Update edits a PENDING supplier payment.
	Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateSupplierPaymentRequest) (*SupplierPayment, error)
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[SupplierPaymentStatus]) (*SupplierPayment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type supplierPaymentService struct {
	store    Store
	clock    Clock
	user     CurrentUser
	currency string
	log      zerolog.Logger
}

func NewSupplierPaymentService(store Store, clock Clock, user CurrentUser, defaultCurrency string, log zerolog.Logger) SupplierPaymentService {
	if defaultCurrency == "" {
		defaultCurrency = "AED"
	}
	return &supplierPaymentService{store: store, clock: clock, user: user, currency: defaultCurrency, log: log}
}

func (s *supplierPaymentService) Create(ctx context.Context, tenantID uuid.UUID, req CreateSupplierPaymentRequest) (*SupplierPayment, error) {
	amount := RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, Validation("supplier payment amount must be at least 0.01, got %s", req.Amount)
	}
	if !slices.Contains(PaymentMethods, req.Method) {
		return nil, Validation("unknown payment method %q", req.Method)
	}

	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.currency
	}
	paymentDate := s.clock.Today()
	if req.PaymentDate != nil {
		paymentDate = DateOf(*req.PaymentDate)
	}

	now := s.clock.Now()
	p := &SupplierPayment{
		ID:          uuid.New(),
		TenantID:    tenantID,
		Status:      SupplierPaymentPending,
		SupplierID:  req.SupplierID,
		WorkerID:    req.WorkerID,
		ContractID:  req.ContractID,
		Amount:      amount,
		Currency:    currency,
		Method:      req.Method,
		Reference:   req.Reference,
		PaymentDate: paymentDate,
		Description: req.Description,
		Notes:       req.Notes,
		Audit:       Audit{CreatedBy: s.user.UserID(ctx), CreatedAt: now},
	}

	err := s.store.InTx(ctx, func(tx Store) error {
		number, err := nextNumber(ctx, tx, tenantID, SequenceSupplierPayment)
		if err != nil {
			return err
		}
		p.PaymentNumber = number
		if err := tx.SupplierPayments().Insert(ctx, p); err != nil {
			return fmt.Errorf("failed to insert supplier payment: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_number", p.PaymentNumber).
		Str("amount", p.Amount.StringFixed(2)).
		Msg("supplier payment created")
	return p, nil
}

func (s *supplierPaymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*SupplierPayment, error) {
	return s.store.SupplierPayments().Get(ctx, tenantID, id)
}

func (s *supplierPaymentService) List(ctx context.Context, tenantID uuid.UUID, f SupplierPaymentFilter) (Page[SupplierPayment], error) {
	f.PageRequest = f.PageRequest.Normalize()
	items, total, err := s.store.SupplierPayments().List(ctx, tenantID, f)
	if err != nil {
		return Page[SupplierPayment]{}, fmt.Errorf("failed to list supplier payments: %w", err)
	}
	return Page[SupplierPayment]{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *supplierPaymentService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateSupplierPaymentRequest) (*SupplierPayment, error) {
	var amount decimal.Decimal
	if req.Amount != nil {
		amount = RoundMoney(*req.Amount)
		if !amount.IsPositive() {
			return nil, Validation("supplier payment amount must be at least 0.01, got %s", *req.Amount)
		}
	}
	if req.Method != nil && !slices.Contains(PaymentMethods, *req.Method) {
		return nil, Validation("unknown payment method %q", *req.Method)
	}

	var p *SupplierPayment
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		p, err = tx.SupplierPayments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if p.Status != SupplierPaymentPending {
			return Validation("supplier payment %s is %s; only PENDING payments can be edited", p.PaymentNumber, p.Status)
		}

		if req.Amount != nil {
			p.Amount = amount
		}
		if req.Method != nil {
			p.Method = *req.Method
		}
		if req.Reference != nil {
			p.Reference = *req.Reference
		}
		if req.PaymentDate != nil {
			p.PaymentDate = DateOf(*req.PaymentDate)
		}
		if req.Description != nil {
			p.Description = *req.Description
		}
		if req.Notes != nil {
			p.Notes = *req.Notes
		}
		p.touch(s.user.UserID(ctx), s.clock.Now())
		return tx.SupplierPayments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}
	return p, nil
}

func (s *supplierPaymentService) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[SupplierPaymentStatus]) (*SupplierPayment, error) {
	var p *SupplierPayment
	var from SupplierPaymentStatus
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		p, err = tx.SupplierPayments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := SupplierPaymentStatusMachine.Validate(p.Status, req.Status, req.Reason); err != nil {
			return err
		}

		now := s.clock.Now()
		from = p.Status
		p.Status = req.Status
		if req.Status == SupplierPaymentPaid {
			p.PaidAt = &now
		}
		p.touch(s.user.UserID(ctx), now)
		return tx.SupplierPayments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_number", p.PaymentNumber).
		Str("from", string(from)).
		Str("to", string(p.Status)).
		Msg("supplier payment status changed")
	return p, nil
}

func (s *supplierPaymentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.SupplierPayments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		p.markDeleted(s.user.UserID(ctx), s.clock.Now())
		return tx.SupplierPayments().Update(ctx, p)
	})
}
