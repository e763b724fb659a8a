package app

import (
	"github.com/shopspring/decimal"
)

// Dates travel as YYYY-MM-DD strings. IDs travel as UUID strings. Enum
// fields are matched case-insensitively and are parsed into core types after
// struct validation.

// LineItemInput is a single line within an invoice request.
type LineItemInput struct {
	Description   string          `json:"description" validate:"required,max=500"`
	DescriptionAr string          `json:"description_ar,omitempty" validate:"max=500"`
	Quantity      decimal.Decimal `json:"quantity" validate:"gt=0"`
	UnitPrice     decimal.Decimal `json:"unit_price" validate:"gte=0"`
	Discount      decimal.Decimal `json:"discount,omitempty" validate:"gte=0"`
	ItemCode      string          `json:"item_code,omitempty" validate:"max=50"`
}

// CreateInvoiceRequest is the input for creating a DRAFT invoice.
type CreateInvoiceRequest struct {
	Type          string           `json:"type,omitempty"`
	MilestoneType string           `json:"milestone_type,omitempty"`
	ContractID    string           `json:"contract_id,omitempty" validate:"omitempty,uuid"`
	ClientID      string           `json:"client_id,omitempty" validate:"omitempty,uuid"`
	WorkerID      string           `json:"worker_id,omitempty" validate:"omitempty,uuid"`
	IssueDate     string           `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate       string           `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency      string           `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	SupplierTRN   string           `json:"supplier_trn,omitempty" validate:"max=20"`
	CustomerTRN   string           `json:"customer_trn,omitempty" validate:"max=20"`
	VATRate       *decimal.Decimal `json:"vat_rate,omitempty"`
	Notes         string           `json:"notes,omitempty"`
	LineItems     []LineItemInput  `json:"line_items" validate:"required,min=1,dive"`
}

// GenerateInvoiceRequest creates a single-line invoice for a contract or milestone.
type GenerateInvoiceRequest struct {
	ContractID    string           `json:"contract_id" validate:"required,uuid"`
	ClientID      string           `json:"client_id,omitempty" validate:"omitempty,uuid"`
	WorkerID      string           `json:"worker_id,omitempty" validate:"omitempty,uuid"`
	MilestoneType string           `json:"milestone_type,omitempty"`
	Description   string           `json:"description,omitempty" validate:"max=500"`
	DescriptionAr string           `json:"description_ar,omitempty" validate:"max=500"`
	Amount        decimal.Decimal  `json:"amount" validate:"gt=0"`
	Currency      string           `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	VATRate       *decimal.Decimal `json:"vat_rate,omitempty"`
	DueDate       string           `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes         string           `json:"notes,omitempty"`
}

// UpdateInvoiceRequest changes only the fields that are present. A present
// line_items array replaces every line.
type UpdateInvoiceRequest struct {
	ContractID  *string          `json:"contract_id,omitempty" validate:"omitempty,uuid"`
	ClientID    *string          `json:"client_id,omitempty" validate:"omitempty,uuid"`
	WorkerID    *string          `json:"worker_id,omitempty" validate:"omitempty,uuid"`
	IssueDate   *string          `json:"issue_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	DueDate     *string          `json:"due_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Currency    *string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	SupplierTRN *string          `json:"supplier_trn,omitempty" validate:"omitempty,max=20"`
	CustomerTRN *string          `json:"customer_trn,omitempty" validate:"omitempty,max=20"`
	VATRate     *decimal.Decimal `json:"vat_rate,omitempty"`
	Notes       *string          `json:"notes,omitempty"`
	LineItems   []LineItemInput  `json:"line_items,omitempty" validate:"omitempty,min=1,dive"`
}

// TransitionRequest moves an aggregate to a new status.
type TransitionRequest struct {
	Status string `json:"status" validate:"required"`
	Reason string `json:"reason,omitempty" validate:"max=1000"`
}

// CreditNoteRequest issues a credit note against a paid invoice. A missing
// amount credits the original total.
type CreditNoteRequest struct {
	Amount *decimal.Decimal `json:"amount,omitempty"`
	Reason string           `json:"reason" validate:"required,max=1000"`
	Notes  string           `json:"notes,omitempty"`
}

type ApplyDiscountRequest struct {
	DiscountProgramID string `json:"discount_program_id" validate:"required,uuid"`
	CardNumber        string `json:"card_number,omitempty" validate:"max=50"`
}

// InvoiceListQuery filters ListInvoices.
type InvoiceListQuery struct {
	Status         string `json:"status,omitempty"`
	Type           string `json:"type,omitempty"`
	ClientID       string `json:"client_id,omitempty" validate:"omitempty,uuid"`
	ContractID     string `json:"contract_id,omitempty" validate:"omitempty,uuid"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	Page           int    `json:"page,omitempty" validate:"gte=0"`
	PageSize       int    `json:"page_size,omitempty" validate:"gte=0"`
}

// RecordPaymentRequest charges an invoice through the payment gateway.
type RecordPaymentRequest struct {
	InvoiceID   string          `json:"invoice_id" validate:"required,uuid"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Method      string          `json:"method" validate:"required"`
	Reference   string          `json:"reference_number,omitempty" validate:"max=100"`
	PaymentDate string          `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Notes       string          `json:"notes,omitempty"`
}

type RefundRequest struct {
	Amount decimal.Decimal `json:"amount" validate:"gt=0"`
	Reason string          `json:"reason" validate:"required,max=1000"`
}

// PaymentListQuery filters ListPayments.
type PaymentListQuery struct {
	InvoiceID      string `json:"invoice_id,omitempty" validate:"omitempty,uuid"`
	Status         string `json:"status,omitempty"`
	Method         string `json:"method,omitempty"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	Page           int    `json:"page,omitempty" validate:"gte=0"`
	PageSize       int    `json:"page_size,omitempty" validate:"gte=0"`
}

// CreateSupplierPaymentRequest records an outbound payment to a supplier or worker.
type CreateSupplierPaymentRequest struct {
	SupplierID  string          `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	WorkerID    string          `json:"worker_id,omitempty" validate:"omitempty,uuid"`
	ContractID  string          `json:"contract_id,omitempty" validate:"omitempty,uuid"`
	Amount      decimal.Decimal `json:"amount" validate:"gt=0"`
	Currency    string          `json:"currency,omitempty" validate:"omitempty,len=3,alpha"`
	Method      string          `json:"method" validate:"required"`
	Reference   string          `json:"reference_number,omitempty" validate:"max=100"`
	PaymentDate string          `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description string          `json:"description,omitempty" validate:"max=500"`
	Notes       string          `json:"notes,omitempty"`
}

type UpdateSupplierPaymentRequest struct {
	Amount      *decimal.Decimal `json:"amount,omitempty"`
	Method      *string          `json:"method,omitempty"`
	Reference   *string          `json:"reference_number,omitempty" validate:"omitempty,max=100"`
	PaymentDate *string          `json:"payment_date,omitempty" validate:"omitempty,datetime=2006-01-02"`
	Description *string          `json:"description,omitempty" validate:"omitempty,max=500"`
	Notes       *string          `json:"notes,omitempty"`
}

// SupplierPaymentListQuery filters ListSupplierPayments.
type SupplierPaymentListQuery struct {
	Status         string `json:"status,omitempty"`
	ContractID     string `json:"contract_id,omitempty" validate:"omitempty,uuid"`
	SupplierID     string `json:"supplier_id,omitempty" validate:"omitempty,uuid"`
	IncludeDeleted bool   `json:"include_deleted,omitempty"`
	Page           int    `json:"page,omitempty" validate:"gte=0"`
	PageSize       int    `json:"page_size,omitempty" validate:"gte=0"`
}

type CreateDiscountProgramRequest struct {
	Name              string           `json:"name" validate:"required,max=200"`
	Percentage        decimal.Decimal  `json:"percentage" validate:"gte=0,lte=100"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom         string           `json:"valid_from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	ValidTo           string           `json:"valid_to,omitempty" validate:"omitempty,datetime=2006-01-02"`
	CardNumber        string           `json:"card_number,omitempty" validate:"max=50"`
}

// DateRangeQuery bounds a report. Empty ends are open.
type DateRangeQuery struct {
	From string `json:"from,omitempty" validate:"omitempty,datetime=2006-01-02"`
	To   string `json:"to,omitempty" validate:"omitempty,datetime=2006-01-02"`
}

type XReportListQuery struct {
	DateRangeQuery
	Page     int `json:"page,omitempty" validate:"gte=0"`
	PageSize int `json:"page_size,omitempty" validate:"gte=0"`
}
