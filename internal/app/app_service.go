package app

import (
	"context"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"agency-ledger/internal/core"
)

type appService struct {
	invoices core.InvoiceService
	payments core.PaymentService
	supplier core.SupplierPaymentService
	programs core.DiscountProgramService
	reports  core.ReportingService
	log      zerolog.Logger
}

// NewAppService constructs an appService that satisfies ApplicationService.
func NewAppService(
	invoices core.InvoiceService,
	payments core.PaymentService,
	supplier core.SupplierPaymentService,
	programs core.DiscountProgramService,
	reports core.ReportingService,
	log zerolog.Logger,
) ApplicationService {
	return &appService{
		invoices: invoices,
		payments: payments,
		supplier: supplier,
		programs: programs,
		reports:  reports,
		log:      log,
	}
}

func lineItems(in []LineItemInput) []core.LineItemInput {
	if in == nil {
		return nil
	}
	out := make([]core.LineItemInput, len(in))
	for i, l := range in {
		out[i] = core.LineItemInput{
			Description:   l.Description,
			DescriptionAr: l.DescriptionAr,
			Quantity:      l.Quantity,
			UnitPrice:     l.UnitPrice,
			Discount:      l.Discount,
			ItemCode:      l.ItemCode,
		}
	}
	return out
}

// CreateInvoice creates a DRAFT invoice.
func (s *appService) CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var invType core.InvoiceType
	if req.Type != "" {
		t, err := core.ParseInvoiceType(req.Type)
		if err != nil {
			return nil, err
		}
		invType = t
	}
	milestone, err := optionalEnum(req.MilestoneType, core.ParseMilestoneType)
	if err != nil {
		return nil, err
	}

	return s.invoices.Create(ctx, tenantID, core.CreateInvoiceRequest{
		Type:          invType,
		MilestoneType: milestone,
		ContractID:    optionalID(req.ContractID),
		ClientID:      optionalID(req.ClientID),
		WorkerID:      optionalID(req.WorkerID),
		IssueDate:     optionalDate(req.IssueDate),
		DueDate:       optionalDate(req.DueDate),
		Currency:      req.Currency,
		SupplierTRN:   req.SupplierTRN,
		CustomerTRN:   req.CustomerTRN,
		VATRate:       req.VATRate,
		Notes:         req.Notes,
		LineItems:     lineItems(req.LineItems),
	})
}

// GenerateContractInvoice creates a single-line invoice for a contract.
func (s *appService) GenerateContractInvoice(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	milestone, err := optionalEnum(req.MilestoneType, core.ParseMilestoneType)
	if err != nil {
		return nil, err
	}
	return s.invoices.GenerateForContract(ctx, tenantID, core.GenerateInvoiceRequest{
		ContractID:    uuid.MustParse(req.ContractID),
		ClientID:      optionalID(req.ClientID),
		WorkerID:      optionalID(req.WorkerID),
		MilestoneType: milestone,
		Description:   req.Description,
		DescriptionAr: req.DescriptionAr,
		Amount:        req.Amount,
		Currency:      req.Currency,
		VATRate:       req.VATRate,
		DueDate:       optionalDate(req.DueDate),
		Notes:         req.Notes,
	})
}

// GetInvoice returns an invoice with its line items and payments.
func (s *appService) GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*core.Invoice, error) {
	return s.invoices.Get(ctx, tenantID, id)
}

func (s *appService) ListInvoices(ctx context.Context, tenantID uuid.UUID, q InvoiceListQuery) (core.Page[core.Invoice], error) {
	if err := check(q); err != nil {
		return core.Page[core.Invoice]{}, err
	}
	status, err := optionalEnum(q.Status, core.ParseInvoiceStatus)
	if err != nil {
		return core.Page[core.Invoice]{}, err
	}
	invType, err := optionalEnum(q.Type, core.ParseInvoiceType)
	if err != nil {
		return core.Page[core.Invoice]{}, err
	}
	return s.invoices.List(ctx, tenantID, core.InvoiceFilter{
		Status:         status,
		Type:           invType,
		ClientID:       optionalID(q.ClientID),
		ContractID:     optionalID(q.ContractID),
		IncludeDeleted: q.IncludeDeleted,
		PageRequest:    core.PageRequest{Page: q.Page, PageSize: q.PageSize},
	})
}

func (s *appService) UpdateInvoice(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	return s.invoices.Update(ctx, tenantID, id, core.UpdateInvoiceRequest{
		ContractID:  optionalIDPtr(req.ContractID),
		ClientID:    optionalIDPtr(req.ClientID),
		WorkerID:    optionalIDPtr(req.WorkerID),
		IssueDate:   optionalDatePtr(req.IssueDate),
		DueDate:     optionalDatePtr(req.DueDate),
		Currency:    req.Currency,
		SupplierTRN: req.SupplierTRN,
		CustomerTRN: req.CustomerTRN,
		VATRate:     req.VATRate,
		Notes:       req.Notes,
		LineItems:   lineItems(req.LineItems),
	})
}

func (s *appService) TransitionInvoice(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	status, err := core.ParseInvoiceStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.invoices.TransitionStatus(ctx, tenantID, id, core.TransitionRequest[core.InvoiceStatus]{Status: status, Reason: req.Reason})
}

func (s *appService) CreateCreditNote(ctx context.Context, tenantID, id uuid.UUID, req CreditNoteRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	return s.invoices.CreateCreditNote(ctx, tenantID, id, core.CreditNoteRequest{
		Amount: req.Amount,
		Reason: req.Reason,
		Notes:  req.Notes,
	})
}

func (s *appService) ApplyDiscount(ctx context.Context, tenantID, id uuid.UUID, req ApplyDiscountRequest) (*core.Invoice, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	return s.invoices.ApplyDiscount(ctx, tenantID, id, core.ApplyDiscountRequest{
		DiscountProgramID: uuid.MustParse(req.DiscountProgramID),
		CardNumber:        req.CardNumber,
	})
}

func (s *appService) DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.invoices.Delete(ctx, tenantID, id)
}

func (s *appService) InvoiceSummary(ctx context.Context, tenantID uuid.UUID) (*core.InvoiceSummary, error) {
	return s.invoices.GetSummary(ctx, tenantID)
}

func (s *appService) MarkOverdue(ctx context.Context, tenantID uuid.UUID) (*MarkOverdueResult, error) {
	moved, err := s.invoices.MarkOverdue(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if moved == nil {
		moved = []core.Invoice{}
	}
	s.log.Info().Str("tenant_id", tenantID.String()).Int("count", len(moved)).Msg("overdue sweep finished")
	return &MarkOverdueResult{Count: len(moved), Invoices: moved}, nil
}

// RecordPayment charges the gateway and applies the payment to its invoice.
func (s *appService) RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*core.Payment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	method, err := core.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	return s.payments.RecordPayment(ctx, tenantID, core.RecordPaymentRequest{
		InvoiceID:   uuid.MustParse(req.InvoiceID),
		Amount:      req.Amount,
		Method:      method,
		Reference:   req.Reference,
		PaymentDate: optionalDate(req.PaymentDate),
		Notes:       req.Notes,
	})
}

func (s *appService) GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*core.Payment, error) {
	return s.payments.Get(ctx, tenantID, id)
}

func (s *appService) ListPayments(ctx context.Context, tenantID uuid.UUID, q PaymentListQuery) (core.Page[core.Payment], error) {
	if err := check(q); err != nil {
		return core.Page[core.Payment]{}, err
	}
	status, err := optionalEnum(q.Status, core.ParsePaymentStatus)
	if err != nil {
		return core.Page[core.Payment]{}, err
	}
	method, err := optionalEnum(q.Method, core.ParsePaymentMethod)
	if err != nil {
		return core.Page[core.Payment]{}, err
	}
	return s.payments.List(ctx, tenantID, core.PaymentFilter{
		InvoiceID:      optionalID(q.InvoiceID),
		Status:         status,
		Method:         method,
		IncludeDeleted: q.IncludeDeleted,
		PageRequest:    core.PageRequest{Page: q.Page, PageSize: q.PageSize},
	})
}

func (s *appService) TransitionPayment(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.Payment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	status, err := core.ParsePaymentStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.payments.TransitionStatus(ctx, tenantID, id, core.TransitionRequest[core.PaymentStatus]{Status: status, Reason: req.Reason})
}

func (s *appService) RefundPayment(ctx context.Context, tenantID, id uuid.UUID, req RefundRequest) (*core.Payment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	return s.payments.RefundPayment(ctx, tenantID, id, core.RefundRequest{Amount: req.Amount, Reason: req.Reason})
}

func (s *appService) DeletePayment(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.payments.Delete(ctx, tenantID, id)
}

func (s *appService) CreateSupplierPayment(ctx context.Context, tenantID uuid.UUID, req CreateSupplierPaymentRequest) (*core.SupplierPayment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	method, err := core.ParsePaymentMethod(req.Method)
	if err != nil {
		return nil, err
	}
	return s.supplier.Create(ctx, tenantID, core.CreateSupplierPaymentRequest{
		SupplierID:  optionalID(req.SupplierID),
		WorkerID:    optionalID(req.WorkerID),
		ContractID:  optionalID(req.ContractID),
		Amount:      req.Amount,
		Currency:    req.Currency,
		Method:      method,
		Reference:   req.Reference,
		PaymentDate: optionalDate(req.PaymentDate),
		Description: req.Description,
		Notes:       req.Notes,
	})
}

func (s *appService) GetSupplierPayment(ctx context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error) {
	return s.supplier.Get(ctx, tenantID, id)
}

func (s *appService) ListSupplierPayments(ctx context.Context, tenantID uuid.UUID, q SupplierPaymentListQuery) (core.Page[core.SupplierPayment], error) {
	if err := check(q); err != nil {
		return core.Page[core.SupplierPayment]{}, err
	}
	status, err := optionalEnum(q.Status, core.ParseSupplierPaymentStatus)
	if err != nil {
		return core.Page[core.SupplierPayment]{}, err
	}
	return s.supplier.List(ctx, tenantID, core.SupplierPaymentFilter{
		Status:         status,
		ContractID:     optionalID(q.ContractID),
		SupplierID:     optionalID(q.SupplierID),
		IncludeDeleted: q.IncludeDeleted,
		PageRequest:    core.PageRequest{Page: q.Page, PageSize: q.PageSize},
	})
}

func (s *appService) UpdateSupplierPayment(ctx context.Context, tenantID, id uuid.UUID, req UpdateSupplierPaymentRequest) (*core.SupplierPayment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	var method *core.PaymentMethod
	if req.Method != nil {
		m, err := core.ParsePaymentMethod(*req.Method)
		if err != nil {
			return nil, err
		}
		method = &m
	}
	return s.supplier.Update(ctx, tenantID, id, core.UpdateSupplierPaymentRequest{
		Amount:      req.Amount,
		Method:      method,
		Reference:   req.Reference,
		PaymentDate: optionalDatePtr(req.PaymentDate),
		Description: req.Description,
		Notes:       req.Notes,
	})
}

func (s *appService) TransitionSupplierPayment(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.SupplierPayment, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	status, err := core.ParseSupplierPaymentStatus(req.Status)
	if err != nil {
		return nil, err
	}
	return s.supplier.TransitionStatus(ctx, tenantID, id, core.TransitionRequest[core.SupplierPaymentStatus]{Status: status, Reason: req.Reason})
}

func (s *appService) DeleteSupplierPayment(ctx context.Context, tenantID, id uuid.UUID) error {
	return s.supplier.Delete(ctx, tenantID, id)
}

func (s *appService) CreateDiscountProgram(ctx context.Context, tenantID uuid.UUID, req CreateDiscountProgramRequest) (*core.DiscountProgram, error) {
	if err := check(req); err != nil {
		return nil, err
	}
	return s.programs.Create(ctx, tenantID, core.CreateDiscountProgramRequest{
		Name:              req.Name,
		Percentage:        req.Percentage,
		MaxDiscountAmount: req.MaxDiscountAmount,
		ValidFrom:         optionalDate(req.ValidFrom),
		ValidTo:           optionalDate(req.ValidTo),
		CardNumber:        req.CardNumber,
	})
}

func (s *appService) GetDiscountProgram(ctx context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error) {
	return s.programs.Get(ctx, tenantID, id)
}

func (s *appService) ListDiscountPrograms(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page, pageSize int) (core.Page[core.DiscountProgram], error) {
	return s.programs.List(ctx, tenantID, activeOnly, core.PageRequest{Page: page, PageSize: pageSize})
}

func (s *appService) DeactivateDiscountProgram(ctx context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error) {
	return s.programs.Deactivate(ctx, tenantID, id)
}

func (s *appService) MarginReport(ctx context.Context, tenantID uuid.UUID, q DateRangeQuery) (*core.MarginReport, error) {
	r, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	return s.reports.MarginReport(ctx, tenantID, r)
}

func (s *appService) RevenueBreakdown(ctx context.Context, tenantID uuid.UUID, q DateRangeQuery) (*core.RevenueBreakdown, error) {
	r, err := dateRange(q)
	if err != nil {
		return nil, err
	}
	return s.reports.RevenueBreakdown(ctx, tenantID, r)
}

func (s *appService) GenerateXReport(ctx context.Context, tenantID uuid.UUID, date string) (*core.CashReconciliation, error) {
	if err := check(DateRangeQuery{From: date}); err != nil {
		return nil, core.Validation("date must be in YYYY-MM-DD format")
	}
	return s.reports.GenerateXReport(ctx, tenantID, optionalDate(date))
}

func (s *appService) CloseXReport(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	return s.reports.CloseXReport(ctx, tenantID, id)
}

func (s *appService) GetXReport(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	return s.reports.GetXReport(ctx, tenantID, id)
}

func (s *appService) ListXReports(ctx context.Context, tenantID uuid.UUID, q XReportListQuery) (core.Page[core.CashReconciliation], error) {
	if err := check(q); err != nil {
		return core.Page[core.CashReconciliation]{}, err
	}
	r, err := dateRange(q.DateRangeQuery)
	if err != nil {
		return core.Page[core.CashReconciliation]{}, err
	}
	return s.reports.ListXReports(ctx, tenantID, r, core.PageRequest{Page: q.Page, PageSize: q.PageSize})
}
