package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type InvoiceType string

const (
	InvoiceTypeStandard   InvoiceType = "STANDARD"
	InvoiceTypeMilestone  InvoiceType = "MILESTONE"
	InvoiceTypeCreditNote InvoiceType = "CREDIT_NOTE"
	InvoiceTypeProforma   InvoiceType = "PROFORMA"
)

var invoiceTypes = []InvoiceType{InvoiceTypeStandard, InvoiceTypeMilestone, InvoiceTypeCreditNote, InvoiceTypeProforma}

// ParseInvoiceType maps free text onto the closed InvoiceType set.
func ParseInvoiceType(s string) (InvoiceType, error) {
	return parseEnum("invoice type", s, invoiceTypes)
}

type MilestoneType string

const (
	MilestoneDeposit MilestoneType = "DEPOSIT"
	MilestoneInterim MilestoneType = "INTERIM"
	MilestoneFinal   MilestoneType = "FINAL"
)

var milestoneTypes = []MilestoneType{MilestoneDeposit, MilestoneInterim, MilestoneFinal}

func ParseMilestoneType(s string) (MilestoneType, error) {
	return parseEnum("milestone type", s, milestoneTypes)
}

// Invoice is a billable document. It owns its line items.
//
// Amount fields are derived by Recalculate and must not be set by hand:
//
//	Subtotal      = Σ LineItems.LineTotal
//	TaxableAmount = max(0, Subtotal − DiscountAmount)
//	VATAmount     = round(TaxableAmount × VATRate / 100, 2)
//	TotalAmount   = TaxableAmount + VATAmount
//	BalanceDue    = max(0, TotalAmount − PaidAmount)
type Invoice struct {
	ID              uuid.UUID      `json:"id"`
	TenantID        uuid.UUID      `json:"tenant_id"`
	InvoiceNumber   string         `json:"invoice_number"`
	Type            InvoiceType    `json:"type"`
	MilestoneType   *MilestoneType `json:"milestone_type,omitempty"`
	Status          InvoiceStatus  `json:"status"`
	StatusChangedAt time.Time      `json:"status_changed_at"`

	ContractID *uuid.UUID `json:"contract_id,omitempty"`
	ClientID   *uuid.UUID `json:"client_id,omitempty"`
	WorkerID   *uuid.UUID `json:"worker_id,omitempty"`

	IssueDate   *time.Time `json:"issue_date,omitempty"`
	DueDate     *time.Time `json:"due_date,omitempty"`
	Currency    string     `json:"currency"`
	SupplierTRN string     `json:"supplier_trn,omitempty"`
	CustomerTRN string     `json:"customer_trn,omitempty"`

	VATRate        decimal.Decimal `json:"vat_rate"`
	Subtotal       decimal.Decimal `json:"subtotal"`
	DiscountAmount decimal.Decimal `json:"discount_amount"`
	TaxableAmount  decimal.Decimal `json:"taxable_amount"`
	VATAmount      decimal.Decimal `json:"vat_amount"`
	TotalAmount    decimal.Decimal `json:"total_amount"`
	PaidAmount     decimal.Decimal `json:"paid_amount"`
	BalanceDue     decimal.Decimal `json:"balance_due"`

	// Snapshot of the program at application time. Later edits to the
	// program never flow back into an invoice.
	DiscountProgramID   *uuid.UUID       `json:"discount_program_id,omitempty"`
	DiscountProgramName string           `json:"discount_program_name,omitempty"`
	DiscountPercentage  *decimal.Decimal `json:"discount_percentage,omitempty"`
	DiscountCardNumber  string           `json:"discount_card_number,omitempty"`

	OriginalInvoiceID *uuid.UUID `json:"original_invoice_id,omitempty"`
	CreditNoteReason  string     `json:"credit_note_reason,omitempty"`
	Notes             string     `json:"notes,omitempty"`

	LineItems []LineItem `json:"line_items"`
	Payments  []Payment  `json:"payments,omitempty"`

	Audit
}

// LineItem is one billable line of an invoice.
type LineItem struct {
	ID            uuid.UUID       `json:"id"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	LineNumber    int             `json:"line_number"`
	Description   string          `json:"description"`
	DescriptionAr string          `json:"description_ar,omitempty"`
	Quantity      decimal.Decimal `json:"quantity"`
	UnitPrice     decimal.Decimal `json:"unit_price"`
	Discount      decimal.Decimal `json:"discount"`
	LineTotal     decimal.Decimal `json:"line_total"`
	ItemCode      string          `json:"item_code,omitempty"`
}

// LineItemInput is the caller-supplied part of a line item.
type LineItemInput struct {
	Description   string
	DescriptionAr string
	Quantity      decimal.Decimal
	UnitPrice     decimal.Decimal
	Discount      decimal.Decimal
	ItemCode      string
}

type CreateInvoiceRequest struct {
	Type          InvoiceType
	MilestoneType *MilestoneType
	ContractID    *uuid.UUID
	ClientID      *uuid.UUID
	WorkerID      *uuid.UUID
	IssueDate     *time.Time
	DueDate       *time.Time
	Currency      string
	SupplierTRN   string
	CustomerTRN   string
	VATRate       *decimal.Decimal // nil means the configured default
	Notes         string
	LineItems     []LineItemInput
}

// GenerateInvoiceRequest produces a single-line invoice for a contract or milestone.
type GenerateInvoiceRequest struct {
	ContractID    uuid.UUID
	ClientID      *uuid.UUID
	WorkerID      *uuid.UUID
	MilestoneType *MilestoneType
	Description   string
	DescriptionAr string
	Amount        decimal.Decimal
	Currency      string
	VATRate       *decimal.Decimal
	DueDate       *time.Time
	Notes         string
}

// UpdateInvoiceRequest changes only the non-nil fields. A non-nil LineItems
// replaces the whole set.
type UpdateInvoiceRequest struct {
	ContractID  *uuid.UUID
	ClientID    *uuid.UUID
	WorkerID    *uuid.UUID
	IssueDate   *time.Time
	DueDate     *time.Time
	Currency    *string
	SupplierTRN *string
	CustomerTRN *string
	VATRate     *decimal.Decimal
	Notes       *string
	LineItems   []LineItemInput
}

type CreditNoteRequest struct {
	Amount *decimal.Decimal // nil means the original's total
	Reason string
	Notes  string
}

type ApplyDiscountRequest struct {
	DiscountProgramID uuid.UUID
	CardNumber        string
}

type InvoiceFilter struct {
	Status         *InvoiceStatus
	Type           *InvoiceType
	ClientID       *uuid.UUID
	ContractID     *uuid.UUID
	IncludeDeleted bool
	PageRequest
}

// InvoiceSummary aggregates non-deleted invoices for a tenant.
type InvoiceSummary struct {
	TotalCount       int                            `json:"total_count"`
	TotalAmount      decimal.Decimal                `json:"total_amount"`
	TotalPaid        decimal.Decimal                `json:"total_paid"`
	TotalOutstanding decimal.Decimal                `json:"total_outstanding"`
	OverdueCount     int                            `json:"overdue_count"`
	OverdueAmount    decimal.Decimal                `json:"overdue_amount"`
	ByStatus         map[InvoiceStatus]StatusTotals `json:"by_status"`
}

type StatusTotals struct {
	Count       int             `json:"count"`
	TotalAmount decimal.Decimal `json:"total_amount"`
	BalanceDue  decimal.Decimal `json:"balance_due"`
}
