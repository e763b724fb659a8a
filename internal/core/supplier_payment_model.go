package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SupplierPayment is an outbound payment to a labor supplier or worker.
// It never touches invoices.
type SupplierPayment struct {
	ID            uuid.UUID             `json:"id"`
	TenantID      uuid.UUID             `json:"tenant_id"`
	PaymentNumber string                `json:"payment_number"`
	Status        SupplierPaymentStatus `json:"status"`
	SupplierID    *uuid.UUID            `json:"supplier_id,omitempty"`
	WorkerID      *uuid.UUID            `json:"worker_id,omitempty"`
	ContractID    *uuid.UUID            `json:"contract_id,omitempty"`
	Amount        decimal.Decimal       `json:"amount"`
	Currency      string                `json:"currency"`
	Method        PaymentMethod         `json:"method"`
	Reference     string                `json:"reference_number,omitempty"`
	PaymentDate   time.Time             `json:"payment_date"`
	Description   string                `json:"description,omitempty"`
	PaidAt        *time.Time            `json:"paid_at,omitempty"`
	Notes         string                `json:"notes,omitempty"`

	Audit
}

type CreateSupplierPaymentRequest struct {
	SupplierID  *uuid.UUID
	WorkerID    *uuid.UUID
	ContractID  *uuid.UUID
	Amount      decimal.Decimal
	Currency    string
	Method      PaymentMethod
	Reference   string
	PaymentDate *time.Time
	Description string
	Notes       string
}

// UpdateSupplierPaymentRequest changes only the non-nil fields.
type UpdateSupplierPaymentRequest struct {
	Amount      *decimal.Decimal
	Method      *PaymentMethod
	Reference   *string
	PaymentDate *time.Time
	Description *string
	Notes       *string
}

type SupplierPaymentFilter struct {
	Status         *SupplierPaymentStatus
	ContractID     *uuid.UUID
	SupplierID     *uuid.UUID
	IncludeDeleted bool
	PageRequest
}
