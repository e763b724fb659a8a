package app

import (
	"context"

	"github.com/google/uuid"

	"agency-ledger/internal/core"
)

// ApplicationService is the single interface the web and CLI adapters call.
// It validates transport DTOs, parses enums and ids into core types and
// delegates to the domain services. It holds no display logic.
type ApplicationService interface {
	// CreateInvoice creates a DRAFT invoice with a fresh INV number.
	CreateInvoice(ctx context.Context, tenantID uuid.UUID, req CreateInvoiceRequest) (*core.Invoice, error)
	// GenerateContractInvoice creates a one-line invoice for a contract or milestone.
	GenerateContractInvoice(ctx context.Context, tenantID uuid.UUID, req GenerateInvoiceRequest) (*core.Invoice, error)
	GetInvoice(ctx context.Context, tenantID, id uuid.UUID) (*core.Invoice, error)
	ListInvoices(ctx context.Context, tenantID uuid.UUID, q InvoiceListQuery) (core.Page[core.Invoice], error)
	// UpdateInvoice edits a DRAFT invoice and recalculates its amounts.
	UpdateInvoice(ctx context.Context, tenantID, id uuid.UUID, req UpdateInvoiceRequest) (*core.Invoice, error)
	TransitionInvoice(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.Invoice, error)
	CreateCreditNote(ctx context.Context, tenantID, id uuid.UUID, req CreditNoteRequest) (*core.Invoice, error)
	ApplyDiscount(ctx context.Context, tenantID, id uuid.UUID, req ApplyDiscountRequest) (*core.Invoice, error)
	DeleteInvoice(ctx context.Context, tenantID, id uuid.UUID) error
	InvoiceSummary(ctx context.Context, tenantID uuid.UUID) (*core.InvoiceSummary, error)
	// MarkOverdue moves past-due open invoices to OVERDUE.
	MarkOverdue(ctx context.Context, tenantID uuid.UUID) (*MarkOverdueResult, error)

	// RecordPayment charges the gateway and applies a completed payment to its invoice.
	RecordPayment(ctx context.Context, tenantID uuid.UUID, req RecordPaymentRequest) (*core.Payment, error)
	GetPayment(ctx context.Context, tenantID, id uuid.UUID) (*core.Payment, error)
	ListPayments(ctx context.Context, tenantID uuid.UUID, q PaymentListQuery) (core.Page[core.Payment], error)
	TransitionPayment(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.Payment, error)
	// RefundPayment records a refund row against a COMPLETED payment.
	RefundPayment(ctx context.Context, tenantID, id uuid.UUID, req RefundRequest) (*core.Payment, error)
	DeletePayment(ctx context.Context, tenantID, id uuid.UUID) error

	CreateSupplierPayment(ctx context.Context, tenantID uuid.UUID, req CreateSupplierPaymentRequest) (*core.SupplierPayment, error)
	GetSupplierPayment(ctx context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error)
	ListSupplierPayments(ctx context.Context, tenantID uuid.UUID, q SupplierPaymentListQuery) (core.Page[core.SupplierPayment], error)
	UpdateSupplierPayment(ctx context.Context, tenantID, id uuid.UUID, req UpdateSupplierPaymentRequest) (*core.SupplierPayment, error)
	TransitionSupplierPayment(ctx context.Context, tenantID, id uuid.UUID, req TransitionRequest) (*core.SupplierPayment, error)
	DeleteSupplierPayment(ctx context.Context, tenantID, id uuid.UUID) error

	CreateDiscountProgram(ctx context.Context, tenantID uuid.UUID, req CreateDiscountProgramRequest) (*core.DiscountProgram, error)
	GetDiscountProgram(ctx context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error)
	ListDiscountPrograms(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page, pageSize int) (core.Page[core.DiscountProgram], error)
	DeactivateDiscountProgram(ctx context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error)

	MarginReport(ctx context.Context, tenantID uuid.UUID, q DateRangeQuery) (*core.MarginReport, error)
	RevenueBreakdown(ctx context.Context, tenantID uuid.UUID, q DateRangeQuery) (*core.RevenueBreakdown, error)
	// GenerateXReport snapshots one day's completed payments. An empty date means today.
	GenerateXReport(ctx context.Context, tenantID uuid.UUID, date string) (*core.CashReconciliation, error)
	CloseXReport(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error)
	GetXReport(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error)
	ListXReports(ctx context.Context, tenantID uuid.UUID, q XReportListQuery) (core.Page[core.CashReconciliation], error)
}
