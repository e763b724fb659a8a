package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type PaymentMethod string

const (
	MethodCash         PaymentMethod = "CASH"
	MethodCard         PaymentMethod = "CARD"
	MethodBankTransfer PaymentMethod = "BANK_TRANSFER"
	MethodCheque       PaymentMethod = "CHEQUE"
	MethodEDirham      PaymentMethod = "EDIRHAM"
	MethodOnline       PaymentMethod = "ONLINE"
)

// PaymentMethods lists every method in X-Report column order.
var PaymentMethods = []PaymentMethod{MethodCash, MethodCard, MethodBankTransfer, MethodCheque, MethodEDirham, MethodOnline}

func ParsePaymentMethod(s string) (PaymentMethod, error) {
	return parseEnum("payment method", s, PaymentMethods)
}

// Payment is one money movement against an invoice. Refunds are separate
// rows pointing back at the payment they reverse.
type Payment struct {
	ID            uuid.UUID       `json:"id"`
	TenantID      uuid.UUID       `json:"tenant_id"`
	PaymentNumber string          `json:"payment_number"`
	Status        PaymentStatus   `json:"status"`
	InvoiceID     uuid.UUID       `json:"invoice_id"`
	ClientID      *uuid.UUID      `json:"client_id,omitempty"`
	Amount        decimal.Decimal `json:"amount"`
	Currency      string          `json:"currency"`
	Method        PaymentMethod   `json:"method"`
	Reference     string          `json:"reference_number,omitempty"`
	PaymentDate   time.Time       `json:"payment_date"`

	GatewayProvider      string `json:"gateway_provider,omitempty"`
	GatewayTransactionID string `json:"gateway_transaction_id,omitempty"`
	GatewayStatus        string `json:"gateway_status,omitempty"`
	GatewayResponse      string `json:"gateway_response,omitempty"`

	CashierID         *uuid.UUID       `json:"cashier_id,omitempty"`
	RefundedPaymentID *uuid.UUID       `json:"refunded_payment_id,omitempty"`
	RefundAmount      *decimal.Decimal `json:"refund_amount,omitempty"`
	Notes             string           `json:"notes,omitempty"`

	Audit
}

type RecordPaymentRequest struct {
	InvoiceID   uuid.UUID
	Amount      decimal.Decimal
	Method      PaymentMethod
	Reference   string
	PaymentDate *time.Time // nil means today
	Notes       string
}

type RefundRequest struct {
	Amount decimal.Decimal
	Reason string
}

type PaymentFilter struct {
	InvoiceID      *uuid.UUID
	Status         *PaymentStatus
	Method         *PaymentMethod
	IncludeDeleted bool
	PageRequest
}

// GatewayRequest is what the ledger sends to the payment gateway.
type GatewayRequest struct {
	Amount        decimal.Decimal
	Currency      string
	InvoiceNumber string
	Method        PaymentMethod
}

// GatewayResult is the synchronous gateway answer.
type GatewayResult struct {
	Success       bool
	TransactionID string
	Status        string
	RawResponse   string
}
