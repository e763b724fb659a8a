package core

import (
	"context"
	"fmt"
	"slices"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// InvoiceDefaults fills fields a request leaves empty.
type InvoiceDefaults struct {
	VATRate          decimal.Decimal
	Currency         string
	PaymentTermsDays int
}

// InvoiceService owns invoices and their line items.
type InvoiceService interface {
	Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*Invoice, error)
	// GenerateForContract builds a single-line invoice for a contract or milestone.
	GenerateForContract(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*Invoice, error)
	// Get returns the invoice with its line items and payments.
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, f InvoiceFilter) (Page[Invoice], error)
	// Update edits a DRAFT invoice. Non-nil LineItems replaces every line.
	Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*Invoice, error)
	TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[InvoiceStatus]) (*Invoice, error)
	CreateCreditNote(ctx context.Context, tenantID, invoiceID uuid.UUID, req CreditNoteRequest) (*Invoice, error)
	ApplyDiscount(ctx context.Context, tenantID, invoiceID uuid.UUID, req ApplyDiscountRequest) (*Invoice, error)
	Delete(ctx context.Context, tenantID, id uuid.UUID) error
	GetSummary(ctx context.Context, tenantID uuid.UUID) (*InvoiceSummary, error)
	// MarkOverdue moves open invoices past their due date to OVERDUE and returns them.
	MarkOverdue(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error)
}

type invoiceService struct {
	store    Store
	clock    Clock
	user     CurrentUser
	defaults InvoiceDefaults
	log      zerolog.Logger
}

func NewInvoiceService(store Store, clock Clock, user CurrentUser, defaults InvoiceDefaults, log zerolog.Logger) InvoiceService {
	if defaults.Currency == "" {
		defaults.Currency = "AED"
	}
	return &invoiceService{store: store, clock: clock, user: user, defaults: defaults, log: log}
}

func (s *invoiceService) Create(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*Invoice, error) {
	if req.Type == "" {
		req.Type = InvoiceTypeStandard
	}
	if !slices.Contains(invoiceTypes, req.Type) {
		return nil, Validation("unknown invoice type %q", req.Type)
	}
	if req.MilestoneType != nil && !slices.Contains(milestoneTypes, *req.MilestoneType) {
		return nil, Validation("unknown milestone type %q", *req.MilestoneType)
	}
	if err := validateLineItems(req.LineItems); err != nil {
		return nil, err
	}
	if err := validateDates(req.IssueDate, req.DueDate); err != nil {
		return nil, err
	}

	vatRate := s.defaults.VATRate
	if req.VATRate != nil {
		vatRate = *req.VATRate
	}
	if err := validateVATRate(vatRate); err != nil {
		return nil, err
	}
	currency := strings.ToUpper(strings.TrimSpace(req.Currency))
	if currency == "" {
		currency = s.defaults.Currency
	}

	now := s.clock.Now()
	inv := &Invoice{
		ID:              uuid.New(),
		TenantID:        tenantID,
		Type:            req.Type,
		MilestoneType:   req.MilestoneType,
		Status:          InvoiceDraft,
		StatusChangedAt: now,
		ContractID:      req.ContractID,
		ClientID:        req.ClientID,
		WorkerID:        req.WorkerID,
		IssueDate:       dateOrNil(req.IssueDate),
		DueDate:         dateOrNil(req.DueDate),
		Currency:        currency,
		SupplierTRN:     req.SupplierTRN,
		CustomerTRN:     req.CustomerTRN,
		VATRate:         vatRate,
		Notes:           req.Notes,
		Audit:           Audit{CreatedBy: s.user.UserID(ctx), CreatedAt: now},
	}
	inv.LineItems = buildLineItems(inv.ID, req.LineItems)
	Recalculate(inv)

	return inv, s.insert(ctx, inv)
}

// insert numbers and persists a freshly built invoice.
func (s *invoiceService) insert(ctx context.Context, inv *Invoice) error {
	err := s.store.InTx(ctx, func(tx Store) error {
		number, err := nextNumber(ctx, tx, inv.TenantID, SequenceInvoice)
		if err != nil {
			return err
		}
		inv.InvoiceNumber = number
		if err := tx.Invoices().Insert(ctx, inv); err != nil {
			return fmt.Errorf("failed to insert invoice: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	s.log.Info().
		Str("tenant_id", inv.TenantID.String()).
		Str("invoice_number", inv.InvoiceNumber).
		Str("type", string(inv.Type)).
		Str("total", inv.TotalAmount.StringFixed(2)).
		Msg("invoice created")
	return nil
}

func (s *invoiceService) GenerateForContract(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*Invoice, error) {
	if req.ContractID == uuid.Nil {
		return nil, Validation("contract id is required")
	}
	if !req.Amount.IsPositive() {
		return nil, Validation("amount must be positive, got %s", req.Amount)
	}

	invType := InvoiceTypeStandard
	description := req.Description
	if req.MilestoneType != nil {
		invType = InvoiceTypeMilestone
		if description == "" {
			description = fmt.Sprintf("%s milestone payment", strings.ToLower(string(*req.MilestoneType)))
		}
	}
	if description == "" {
		description = "Contract services"
	}

	contractID := req.ContractID
	return s.Create(ctx, tenantID, CreateInvoiceRequest{
		Type:          invType,
		MilestoneType: req.MilestoneType,
		ContractID:    &contractID,
		ClientID:      req.ClientID,
		WorkerID:      req.WorkerID,
		DueDate:       req.DueDate,
		Currency:      req.Currency,
		VATRate:       req.VATRate,
		Notes:         req.Notes,
		LineItems: []LineItemInput{{
			Description:   description,
			DescriptionAr: req.DescriptionAr,
			Quantity:      decimal.NewFromInt(1),
			UnitPrice:     req.Amount,
		}},
	})
}

func (s *invoiceService) Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error) {
	inv, err := s.store.Invoices().Get(ctx, tenantID, id)
	if err != nil {
		return nil, err
	}
	payments, err := s.store.Payments().ListByInvoice(ctx, tenantID, id)
	if err != nil {
		return nil, fmt.Errorf("failed to load payments for invoice %s: %w", inv.InvoiceNumber, err)
	}
	inv.Payments = payments
	return inv, nil
}

func (s *invoiceService) List(ctx context.Context, tenantID uuid.UUID, f InvoiceFilter) (Page[Invoice], error) {
	f.PageRequest = f.PageRequest.Normalize()
	items, total, err := s.store.Invoices().List(ctx, tenantID, f)
	if err != nil {
		return Page[Invoice]{}, fmt.Errorf("failed to list invoices: %w", err)
	}
	return Page[Invoice]{Items: items, Total: total, Page: f.Page, PageSize: f.PageSize}, nil
}

func (s *invoiceService) Update(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*Invoice, error) {
	if req.LineItems != nil {
		if err := validateLineItems(req.LineItems); err != nil {
			return nil, err
		}
	}
	if req.VATRate != nil {
		if err := validateVATRate(*req.VATRate); err != nil {
			return nil, err
		}
	}

	var inv *Invoice
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if inv.Status != InvoiceDraft {
			return Validation("invoice %s is %s; only DRAFT invoices can be edited", inv.InvoiceNumber, inv.Status)
		}

		applyInvoiceUpdate(inv, req)
		if err := validateDates(inv.IssueDate, inv.DueDate); err != nil {
			return err
		}
		if req.LineItems != nil {
			inv.LineItems = buildLineItems(inv.ID, req.LineItems)
			if err := tx.Invoices().ReplaceLineItems(ctx, inv.ID, inv.LineItems); err != nil {
				return fmt.Errorf("failed to replace line items: %w", err)
			}
		}
		Recalculate(inv)

		inv.touch(s.user.UserID(ctx), s.clock.Now())
		return tx.Invoices().Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}
	return inv, nil
}

func applyInvoiceUpdate(inv *Invoice, req UpdateInvoiceRequest) {
	if req.ContractID != nil {
		inv.ContractID = req.ContractID
	}
	if req.ClientID != nil {
		inv.ClientID = req.ClientID
	}
	if req.WorkerID != nil {
		inv.WorkerID = req.WorkerID
	}
	if req.IssueDate != nil {
		inv.IssueDate = dateOrNil(req.IssueDate)
	}
	if req.DueDate != nil {
		inv.DueDate = dateOrNil(req.DueDate)
	}
	if req.Currency != nil && strings.TrimSpace(*req.Currency) != "" {
		inv.Currency = strings.ToUpper(strings.TrimSpace(*req.Currency))
	}
	if req.SupplierTRN != nil {
		inv.SupplierTRN = *req.SupplierTRN
	}
	if req.CustomerTRN != nil {
		inv.CustomerTRN = *req.CustomerTRN
	}
	if req.VATRate != nil {
		inv.VATRate = *req.VATRate
	}
	if req.Notes != nil {
		inv.Notes = *req.Notes
	}
}

func (s *invoiceService) TransitionStatus(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest[InvoiceStatus]) (*Invoice, error) {
	var inv *Invoice
	var from InvoiceStatus
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		if err := InvoiceStatusMachine.Validate(inv.Status, req.Status, req.Reason); err != nil {
			return err
		}

		from = inv.Status
		now := s.clock.Now()
		inv.Status = req.Status
		inv.StatusChangedAt = now
		if req.Status == InvoiceIssued {
			s.applyIssueDefaults(inv)
		}
		inv.touch(s.user.UserID(ctx), now)
		return tx.Invoices().Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("from", string(from)).
		Str("to", string(inv.Status)).
		Str("reason", req.Reason).
		Msg("invoice status changed")
	return inv, nil
}

// applyIssueDefaults stamps the issue date and payment terms when they were left open.
func (s *invoiceService) applyIssueDefaults(inv *Invoice) {
	if inv.IssueDate == nil {
		today := s.clock.Today()
		inv.IssueDate = &today
	}
	if inv.DueDate == nil {
		due := inv.IssueDate.AddDate(0, 0, s.defaults.PaymentTermsDays)
		inv.DueDate = &due
	}
}

func (s *invoiceService) CreateCreditNote(ctx context.Context, tenantID, invoiceID uuid.UUID, req CreditNoteRequest) (*Invoice, error) {
	original, err := s.store.Invoices().Get(ctx, tenantID, invoiceID)
	if err != nil {
		return nil, err
	}
	if original.Status != InvoicePaid && original.Status != InvoicePartiallyPaid {
		return nil, Validation("credit notes can only be issued against PAID or PARTIALLY_PAID invoices; %s is %s",
			original.InvoiceNumber, original.Status)
	}

	// The line amount is net of VAT; the note carries the original VAT rate.
	amount := original.TaxableAmount
	if req.Amount != nil {
		amount = RoundMoney(*req.Amount)
	}
	if !amount.IsPositive() {
		return nil, Validation("credit note amount must be at least 0.01, got %s", amount)
	}

	now := s.clock.Now()
	originalID := original.ID
	note := &Invoice{
		ID:                uuid.New(),
		TenantID:          tenantID,
		Type:              InvoiceTypeCreditNote,
		Status:            InvoiceDraft,
		StatusChangedAt:   now,
		ContractID:        original.ContractID,
		ClientID:          original.ClientID,
		WorkerID:          original.WorkerID,
		Currency:          original.Currency,
		SupplierTRN:       original.SupplierTRN,
		CustomerTRN:       original.CustomerTRN,
		VATRate:           original.VATRate,
		OriginalInvoiceID: &originalID,
		CreditNoteReason:  req.Reason,
		Notes:             req.Notes,
		Audit:             Audit{CreatedBy: s.user.UserID(ctx), CreatedAt: now},
	}
	note.LineItems = buildLineItems(note.ID, []LineItemInput{{
		Description: fmt.Sprintf("Credit note for invoice %s", original.InvoiceNumber),
		Quantity:    decimal.NewFromInt(1),
		UnitPrice:   amount,
	}})
	Recalculate(note)
	if note.TotalAmount.GreaterThan(original.TotalAmount) {
		return nil, Validation("credit note total %s exceeds invoice total %s",
			note.TotalAmount.StringFixed(2), original.TotalAmount.StringFixed(2))
	}

	if err := s.insert(ctx, note); err != nil {
		return nil, err
	}
	return note, nil
}

func (s *invoiceService) ApplyDiscount(ctx context.Context, tenantID, invoiceID uuid.UUID, req ApplyDiscountRequest) (*Invoice, error) {
	var inv *Invoice
	err := s.store.InTx(ctx, func(tx Store) error {
		var err error
		inv, err = tx.Invoices().GetForUpdate(ctx, tenantID, invoiceID)
		if err != nil {
			return err
		}
		if inv.Status != InvoiceDraft {
			return Validation("discounts can only be applied to DRAFT invoices; %s is %s", inv.InvoiceNumber, inv.Status)
		}

		program, err := tx.DiscountPrograms().Get(ctx, tenantID, req.DiscountProgramID)
		if err != nil {
			return err
		}
		amount, err := CalculateDiscount(*program, inv.Subtotal, s.clock.Today())
		if err != nil {
			return err
		}

		pct := program.Percentage
		inv.DiscountAmount = amount
		inv.DiscountProgramID = &program.ID
		inv.DiscountProgramName = program.Name
		inv.DiscountPercentage = &pct
		inv.DiscountCardNumber = program.CardNumber
		if req.CardNumber != "" {
			inv.DiscountCardNumber = req.CardNumber
		}
		Recalculate(inv)

		inv.touch(s.user.UserID(ctx), s.clock.Now())
		return tx.Invoices().Update(ctx, inv)
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().
		Str("invoice_number", inv.InvoiceNumber).
		Str("program", inv.DiscountProgramName).
		Str("discount", inv.DiscountAmount.StringFixed(2)).
		Msg("discount applied")
	return inv, nil
}

func (s *invoiceService) Delete(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.store.InTx(ctx, func(tx Store) error {
		inv, err := tx.Invoices().GetForUpdate(ctx, tenantID, id)
		if err != nil {
			return err
		}
		inv.markDeleted(s.user.UserID(ctx), s.clock.Now())
		if err := tx.Invoices().Update(ctx, inv); err != nil {
			return fmt.Errorf("failed to delete invoice %s: %w", inv.InvoiceNumber, err)
		}
		s.log.Info().Str("invoice_number", inv.InvoiceNumber).Msg("invoice deleted")
		return nil
	})
}

func (s *invoiceService) GetSummary(ctx context.Context, tenantID uuid.UUID) (*InvoiceSummary, error) {
	invoices, err := s.store.Invoices().ListByStatus(ctx, tenantID, InvoiceStatuses...)
	if err != nil {
		return nil, fmt.Errorf("failed to load invoices for summary: %w", err)
	}
	return summarize(invoices, s.clock.Today()), nil
}

// summarize folds invoices into an InvoiceSummary. Cancelled invoices are
// counted under their status but excluded from the money totals.
func summarize(invoices []Invoice, today time.Time) *InvoiceSummary {
	sum := &InvoiceSummary{ByStatus: make(map[InvoiceStatus]StatusTotals)}
	for _, inv := range invoices {
		st := sum.ByStatus[inv.Status]
		st.Count++
		st.TotalAmount = st.TotalAmount.Add(inv.TotalAmount)
		st.BalanceDue = st.BalanceDue.Add(inv.BalanceDue)
		sum.ByStatus[inv.Status] = st

		sum.TotalCount++
		if inv.Status == InvoiceCancelled {
			continue
		}
		sum.TotalAmount = sum.TotalAmount.Add(inv.TotalAmount)
		sum.TotalPaid = sum.TotalPaid.Add(inv.PaidAmount)
		if isOpen(inv.Status) {
			sum.TotalOutstanding = sum.TotalOutstanding.Add(inv.BalanceDue)
		}
		if isOverdue(inv, today) {
			sum.OverdueCount++
			sum.OverdueAmount = sum.OverdueAmount.Add(inv.BalanceDue)
		}
	}
	return sum
}

// isOpen reports whether an invoice in status s still expects money.
func isOpen(s InvoiceStatus) bool {
	return s == InvoiceIssued || s == InvoicePartiallyPaid || s == InvoiceOverdue
}

func isOverdue(inv Invoice, today time.Time) bool {
	if inv.Status == InvoiceOverdue {
		return true
	}
	if inv.Status != InvoiceIssued && inv.Status != InvoicePartiallyPaid {
		return false
	}
	return inv.DueDate != nil && DateOf(*inv.DueDate).Before(DateOf(today)) && inv.BalanceDue.IsPositive()
}

func (s *invoiceService) MarkOverdue(ctx context.Context, tenantID uuid.UUID) ([]Invoice, error) {
	today := s.clock.Today()
	var moved []Invoice
	err := s.store.InTx(ctx, func(tx Store) error {
		candidates, err := tx.Invoices().ListByStatus(ctx, tenantID, InvoiceIssued, InvoicePartiallyPaid)
		if err != nil {
			return fmt.Errorf("failed to load open invoices: %w", err)
		}
		for _, c := range candidates {
			if !isOverdue(c, today) {
				continue
			}
			inv, err := tx.Invoices().GetForUpdate(ctx, tenantID, c.ID)
			if err != nil {
				return err
			}
			if err := InvoiceStatusMachine.Validate(inv.Status, InvoiceOverdue, ""); err != nil {
				return err
			}
			now := s.clock.Now()
			inv.Status = InvoiceOverdue
			inv.StatusChangedAt = now
			inv.touch(s.user.UserID(ctx), now)
			if err := tx.Invoices().Update(ctx, inv); err != nil {
				return fmt.Errorf("failed to mark invoice %s overdue: %w", inv.InvoiceNumber, err)
			}
			moved = append(moved, *inv)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.log.Info().Str("tenant_id", tenantID.String()).Int("count", len(moved)).Msg("overdue sweep finished")
	return moved, nil
}

// buildLineItems numbers inputs from 1 and computes each line total.
func buildLineItems(invoiceID uuid.UUID, inputs []LineItemInput) []LineItem {
	items := make([]LineItem, 0, len(inputs))
	for i, in := range inputs {
		items = append(items, LineItem{
			ID:            uuid.New(),
			InvoiceID:     invoiceID,
			LineNumber:    i + 1,
			Description:   in.Description,
			DescriptionAr: in.DescriptionAr,
			Quantity:      in.Quantity,
			UnitPrice:     in.UnitPrice,
			Discount:      in.Discount,
			LineTotal:     LineTotal(in.Quantity, in.UnitPrice, in.Discount),
			ItemCode:      in.ItemCode,
		})
	}
	return items
}

func validateLineItems(items []LineItemInput) error {
	for i, li := range items {
		if strings.TrimSpace(li.Description) == "" {
			return Validation("line %d: description is required", i+1)
		}
		if !li.Quantity.IsPositive() {
			return Validation("line %d: quantity must be positive, got %s", i+1, li.Quantity)
		}
		if li.UnitPrice.IsNegative() {
			return Validation("line %d: unit price cannot be negative", i+1)
		}
		if li.Discount.IsNegative() {
			return Validation("line %d: discount cannot be negative", i+1)
		}
		if li.Discount.GreaterThan(li.Quantity.Mul(li.UnitPrice)) {
			return Validation("line %d: discount %s exceeds line amount", i+1, li.Discount)
		}
	}
	return nil
}

func validateVATRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(hundred) {
		return Validation("VAT rate must be between 0 and 100, got %s", rate)
	}
	return nil
}

func validateDates(issue, due *time.Time) error {
	if issue != nil && due != nil && DateOf(*due).Before(DateOf(*issue)) {
		return Validation("due date %s is before issue date %s",
			DateOf(*due).Format(time.DateOnly), DateOf(*issue).Format(time.DateOnly))
	}
	return nil
}

func dateOrNil(t *time.Time) *time.Time {
	if t == nil {
		return nil
	}
	d := DateOf(*t)
	return &d
}
