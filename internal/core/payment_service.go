package core

import (
	"context"
	"fmt"
	"slices"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

const defaultGatewayTimeout = 10 * time.Second

// PaymentService records customer payments and keeps the paid invoice in step.
type PaymentService interface {
	// RecordPayment charges through the gateway. A COMPLETED payment is applied
	// to the invoice in the same transaction; anything else is stored PENDING.
	RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*Payment, error)
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	List(ctx context.Context, tenantID uuid.UUID, f PaymentFilter) (Page[Payment], error)
	// TransitionStatus moves the payment only. It never touches the invoice.
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[PaymentStatus]) (*Payment, error)
	// RefundPayment returns the new REFUNDED row.
	RefundPayment(ctx context.Context, tenantID, id uuid.UUID, req RefundRequest) (*Payment, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
}

type paymentService struct {
	store          Store
	gateway        PaymentGateway
	clock          Clock
	user           CurrentUser
	gatewayTimeout time.Duration
	log            zerolog.Logger
}

func NewPaymentService(store Store, gateway PaymentGateway, clock Clock, user CurrentUser, gatewayTimeout time.Duration, log zerolog.Logger) PaymentService {
	if gatewayTimeout <= 0 {
		gatewayTimeout = defaultGatewayTimeout
	}
	return &paymentService{
		store:          store,
		gateway:        gateway,
		clock:          clock,
		user:           user,
		gatewayTimeout: gatewayTimeout,
		log:            log,
	}
}

func (s *paymentService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*Payment, error) {
	if !slices.Contains(PaymentMethods, req.Method) {
		return nil, Validation("unknown payment method %q", req.Method)
	}
	amount := RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, Validation("payment amount must be at least 0.01, got %s", req.Amount)
	}

	var p *Payment
	var inv *Invoice
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, tenantID, req.InvoiceID)
		if err != nil {
			return err
		}
		if inv.Status == InvoiceCancelled || inv.Status == InvoiceRefunded {
			return Validation("invoice %s is %s and cannot take payments", inv.InvoiceNumber, inv.Status)
		}
		if amount.GreaterThan(inv.BalanceDue) {
			return Validation("payment amount %s exceeds balance due %s on invoice %s",
				amount.StringFixed(2), inv.BalanceDue.StringFixed(2), inv.InvoiceNumber)
		}

		number, err := nextNumber(ctx, tx, tenantID, SequencePayment)
		if err != nil {
			return err
		}

		now := s.clock.Now()
		userID := s.user.UserID(ctx)
		paymentDate := s.clock.Today()
		if req.PaymentDate != nil {
			paymentDate = DateOf(*req.PaymentDate)
		}
		p = &Payment{
			ID:            uuid.New(),
			TenantID:      tenantID,
			PaymentNumber: number,
			Status:        PaymentPending,
			InvoiceID:     inv.ID,
			ClientID:      inv.ClientID,
			Amount:        amount,
			Currency:      inv.Currency,
			Method:        req.Method,
			Reference:     req.Reference,
			PaymentDate:   paymentDate,
			CashierID:     &userID,
			Notes:         req.Notes,
			Audit:         Audit{CreatedBy: userID, CreatedAt: now},
		}
		s.charge(ctx, p, inv.InvoiceNumber)

		if err := tx.Payments().Insert(ctx, p); err != nil {
			return fmt.Errorf("failed to insert payment: %w", err)
		}
		if p.Status != PaymentCompleted {
			return nil
		}

		from := inv.Status
		settleInvoice(inv, amount, now)
		inv.touch(userID, now)
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return fmt.Errorf("failed to apply payment to invoice %s: %w", inv.InvoiceNumber, err)
		}
		return tx.Events().Append(ctx, Event{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Type:        EventInvoicePaymentApplied,
			AggregateID: inv.ID,
			Payload: map[string]any{
				"payment_id":     p.ID.String(),
				"payment_number": p.PaymentNumber,
				"invoice_number": inv.InvoiceNumber,
				"amount":         amount.StringFixed(2),
				"paid_amount":    inv.PaidAmount.StringFixed(2),
				"balance_due":    inv.BalanceDue.StringFixed(2),
				"from_status":    string(from),
				"to_status":      string(inv.Status),
			},
			CreatedAt: now,
		})
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_number", p.PaymentNumber).
		Str("invoice_number", inv.InvoiceNumber).
		Str("amount", p.Amount.StringFixed(2)).
		Str("status", string(p.Status)).
		Str("invoice_status", string(inv.Status)).
		Msg("payment recorded")
	return p, nil
}

// charge calls the gateway under a bounded deadline and copies its answer onto p.
// Errors and timeouts leave p PENDING.
func (s *paymentService) charge(ctx context.Context, p *Payment, invoiceNumber string) {
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()

	p.GatewayProvider = s.gateway.Provider()
	res, err := s.gateway.Initiate(gctx, GatewayRequest{
		Amount:        p.Amount,
		Currency:      p.Currency,
		InvoiceNumber: invoiceNumber,
		Method:        p.Method,
	})
	if err != nil {
		s.log.Warn().Err(err).
			Str("payment_number", p.PaymentNumber).
			Str("provider", p.GatewayProvider).
			Msg("gateway call failed; payment left pending")
		p.GatewayStatus = "ERROR"
		p.GatewayResponse = err.Error()
		return
	}

	p.GatewayTransactionID = res.TransactionID
	p.GatewayStatus = res.Status
	p.GatewayResponse = res.RawResponse
	if res.Success {
		p.Status = PaymentCompleted
	}
}

// settleInvoice applies a completed payment to inv and moves it to PAID or
// PARTIALLY_PAID directly. This path skips InvoiceStatusMachine, so it may
// start from DRAFT.
func settleInvoice(inv *Invoice, amount decimal.Decimal, now time.Time) {
	inv.PaidAmount = inv.PaidAmount.Add(amount)
	recalculateBalance(inv)

	target := inv.Status
	switch {
	case inv.BalanceDue.IsZero():
		target = InvoicePaid
	case inv.PaidAmount.IsPositive():
		target = InvoicePartiallyPaid
	}
	if target != inv.Status {
		inv.Status = target
		inv.StatusChangedAt = now
	}
}

func (s *paymentService) Get(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error) {
	return s.store.Payments().Get(ctx, tenantID, id)
}

func (s *paymentService) List(ctx context.Context, tenantID uuid.UUID, f PaymentFilter) (Page[Payment], error) {
	f.PageRequest = f.PageRequest.Normalize()
	items, total, err := s.store.Payments().List(ctx, tenantID, f)
	if err != nil {
		return Page[Payment]{}, fmt.Errorf("failed to list payments: %w", err)
	}
	return Page[Payment]{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *paymentService) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[PaymentStatus]) (*Payment, error) {
	var p *Payment
	var from PaymentStatus
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		p, err = tx.Payments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := PaymentStatusMachine.Validate(p.Status, req.Status, req.Reason); err != nil {
			return err
		}
		from = p.Status
		p.Status = req.Status
		p.touch(s.user.UserID(ctx), s.clock.Now())
		return tx.Payments().Update(ctx, p)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("payment_number", p.PaymentNumber).
		Str("from", string(from)).
		Str("to", string(p.Status)).
		Str("reason", req.Reason).
		Msg("payment status changed")
	return p, nil
}

func (s *paymentService) RefundPayment(ctx context.Context, tenantID, id uuid.UUID, req RefundRequest) (*Payment, error) {
	amount := RoundMoney(req.Amount)
	if !amount.IsPositive() {
		return nil, Validation("refund amount must be at least 0.01, got %s", req.Amount)
	}

	// Locks are taken invoice first, then payment, the same order RecordPayment uses.
	peek, err := s.store.Payments().Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}

	var refund *Payment
	var inv *Invoice
	var gatewayTxID string
	err = s.store.InTx(ctx, func(tx Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, tenantID, peek.InvoiceID)
		if err != nil {
			return err
		}
		original, err := tx.Payments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if original.Status != PaymentCompleted {
			return Validation("only COMPLETED payments can be refunded; %s is %s", original.PaymentNumber, original.Status)
		}
		if err := PaymentStatusMachine.Validate(original.Status, PaymentRefunded, req.Reason); err != nil {
			return err
		}
		if amount.GreaterThan(original.Amount) {
			return Validation("refund amount %s exceeds payment amount %s",
				amount.StringFixed(2), original.Amount.StringFixed(2))
		}

		number, err := nextNumber(ctx, tx, tenantID, SequencePayment)
		if err != nil {
			return err
		}
		now := s.clock.Now()
		userID := s.user.UserID(ctx)
		refunded := amount
		originalID := original.ID
		refund = &Payment{
			ID:                uuid.New(),
			TenantID:          tenantID,
			PaymentNumber:     number,
			Status:            PaymentRefunded,
			InvoiceID:         original.InvoiceID,
			ClientID:          original.ClientID,
			Amount:            amount,
			Currency:          original.Currency,
			Method:            original.Method,
			Reference:         original.Reference,
			PaymentDate:       s.clock.Today(),
			GatewayProvider:   original.GatewayProvider,
			CashierID:         &userID,
			RefundedPaymentID: &originalID,
			RefundAmount:      &refunded,
			Notes:             req.Reason,
			Audit:             Audit{CreatedBy: userID, CreatedAt: now},
		}
		if err := tx.Payments().Insert(ctx, refund); err != nil {
			return fmt.Errorf("failed to insert refund: %w", err)
		}

		original.Status = PaymentRefunded
		original.touch(userID, now)
		if err := tx.Payments().Update(ctx, original); err != nil {
			return fmt.Errorf("failed to mark payment %s refunded: %w", original.PaymentNumber, err)
		}

		// The invoice keeps its status; only the money moves back.
		inv.PaidAmount = decimal.Max(decimal.Zero, inv.PaidAmount.Sub(amount))
		recalculateBalance(inv)
		inv.touch(userID, now)
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return fmt.Errorf("failed to reverse payment on invoice %s: %w", inv.InvoiceNumber, err)
		}

		err = tx.Events().Append(ctx, Event{
			ID:          uuid.New(),
			TenantID:    tenantID,
			Type:        EventPaymentRefunded,
			AggregateID: original.ID,
			Payload: map[string]any{
				"refund_id":      refund.ID.String(),
				"refund_number":  refund.PaymentNumber,
				"payment_number": original.PaymentNumber,
				"invoice_number": inv.InvoiceNumber,
				"amount":         amount.StringFixed(2),
				"reason":         req.Reason,
			},
			CreatedAt: now,
		})
		if err != nil {
			return err
		}

		// The gateway refund runs after every ledger write.
		if original.GatewayTransactionID == "" {
			return nil
		}
		if err := s.refundThroughGateway(ctx, original, amount); err != nil {
			return err
		}
		gatewayTxID = original.GatewayTransactionID
		return nil
	})
	if err != nil {
		if gatewayTxID != "" {
			s.log.Error().Err(err).
				Str("payment_id", id.String()).
				Str("transaction_id", gatewayTxID).
				Str("amount", amount.StringFixed(2)).
				Msg("gateway refund sent but ledger commit failed; reconcile manually")
		}
		return nil, err
	}

	s.log.Info().
		Str("refund_number", refund.PaymentNumber).
		Str("invoice_number", inv.InvoiceNumber).
		Str("amount", amount.StringFixed(2)).
		Msg("payment refunded")
	return refund, nil
}

func (s *paymentService) refundThroughGateway(ctx context.Context, original *Payment, amount decimal.Decimal) error {
	gctx, cancel := context.WithTimeout(ctx, s.gatewayTimeout)
	defer cancel()
	if err := s.gateway.Refund(gctx, original.GatewayTransactionID, amount); err != nil {
		return Internal(fmt.Sprintf("gateway refund of %s failed", original.PaymentNumber), err)
	}
	return nil
}

func (s *paymentService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx Store) error {
		p, err := tx.Payments().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		p.markDeleted(s.user.UserID(ctx), s.clock.Now())
		if err := tx.Payments().Update(ctx, p); err != nil {
			return fmt.Errorf("failed to delete payment %s: %w", p.PaymentNumber, err)
		}
		return nil
	})
}
