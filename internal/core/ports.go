package core

//go:generate mockgen -destination=../mocks/core.go -package=mocks agency-ledger/internal/core Clock,CurrentUser,PaymentGateway

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Clock supplies "today" and "now" so reports and stamps are testable.
type Clock interface {
	Today() time.Time
	Now() time.Time
}

// CurrentUser resolves the acting user for audit fields.
type CurrentUser interface {
	UserID(ctx context.Context) uuid.UUID
}

// PaymentGateway is the external payment processor. Implementations must
// honour ctx deadlines.
type PaymentGateway interface {
	Provider() string
	Initiate(ctx context.Context, req GatewayRequest) (GatewayResult, error)
	Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error
}

// SequenceKind names a per-tenant numbering series.
type SequenceKind string

const (
	SequenceInvoice         SequenceKind = "INV" // shared by standard invoices and credit notes
	SequencePayment         SequenceKind = "PAY"
	SequenceSupplierPayment SequenceKind = "SUP"
	SequenceXReport         SequenceKind = "XR"
)

// Store is the tenant-scoped persistence boundary. Repositories return a
// NotFound *Error for missing or soft-deleted rows.
type Store interface {
	Invoices() InvoiceRepository
	Payments() PaymentRepository
	SupplierPayments() SupplierPaymentRepository
	DiscountPrograms() DiscountProgramRepository
	Reconciliations() CashReconciliationRepository
	Sequences() SequenceRepository
	Events() EventRepository

	// InTx runs fn in one transaction. fn must use the Store it is handed.
	// Nested calls join the outer transaction.
	InTx(ctx context.Context, fn func(tx Store) error) error
}

type SequenceRepository interface {
	// Next atomically increments and returns the tenant's counter for kind.
	Next(ctx context.Context, tenantID uuid.UUID, kind SequenceKind) (int64, error)
}

type InvoiceRepository interface {
	Insert(ctx context.Context, inv *Invoice) error
	// Update writes header, amounts, status and audit fields.
	Update(ctx context.Context, inv *Invoice) error
	ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []LineItem) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	// GetForUpdate loads and row-locks the invoice until the transaction ends.
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Invoice, error)
	List(ctx context.Context, tenantID uuid.UUID, f InvoiceFilter) ([]Invoice, int, error)
	// ListByStatus returns non-deleted invoices without line items.
	ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses ...InvoiceStatus) ([]Invoice, error)
}

type PaymentRepository interface {
	Insert(ctx context.Context, p *Payment) error
	Update(ctx context.Context, p *Payment) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*Payment, error)
	List(ctx context.Context, tenantID uuid.UUID, f PaymentFilter) ([]Payment, int, error)
	ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]Payment, error)
	// ListCompleted returns non-deleted COMPLETED payments whose payment date is in r.
	ListCompleted(ctx context.Context, tenantID uuid.UUID, r DateRange) ([]Payment, error)
}

type SupplierPaymentRepository interface {
	Insert(ctx context.Context, p *SupplierPayment) error
	Update(ctx context.Context, p *SupplierPayment) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*SupplierPayment, error)
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*SupplierPayment, error)
	List(ctx context.Context, tenantID uuid.UUID, f SupplierPaymentFilter) ([]SupplierPayment, int, error)
	ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses ...SupplierPaymentStatus) ([]SupplierPayment, error)
}

type DiscountProgramRepository interface {
	Insert(ctx context.Context, p *DiscountProgram) error
	Update(ctx context.Context, p *DiscountProgram) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*DiscountProgram, error)
	List(ctx context.Context, tenantID uuid.UUID, activeOnly bool, page PageRequest) ([]DiscountProgram, int, error)
}

type CashReconciliationRepository interface {
	// Insert returns a Conflict *Error when the tenant already has a report for the date.
	Insert(ctx context.Context, r *CashReconciliation) error
	Update(ctx context.Context, r *CashReconciliation) error
	Get(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error)
	GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*CashReconciliation, error)
	// ExistsForDate reports whether a report exists for the tenant and date.
	ExistsForDate(ctx context.Context, tenantID uuid.UUID, date time.Time) (bool, error)
	List(ctx context.Context, tenantID uuid.UUID, r DateRange, page PageRequest) ([]CashReconciliation, int, error)
}

// Event is an outbox record written in the same transaction as the change it describes.
type Event struct {
	ID          uuid.UUID      `json:"id"`
	TenantID    uuid.UUID      `json:"tenant_id"`
	Type        string         `json:"type"`
	AggregateID uuid.UUID      `json:"aggregate_id"`
	Payload     map[string]any `json:"payload"`
	CreatedAt   time.Time      `json:"created_at"`
}

const (
	EventInvoicePaymentApplied = "invoice.payment_applied"
	EventPaymentRefunded       = "payment.refunded"
)

type EventRepository interface {
	Append(ctx context.Context, e Event) error
}
