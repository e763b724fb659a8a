package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CashReconciliation is an X-Report: the end-of-day sum of completed
// payments by method. There is at most one per tenant and date.
type CashReconciliation struct {
	ID                uuid.UUID       `json:"id"`
	TenantID          uuid.UUID       `json:"tenant_id"`
	ReportNumber      string          `json:"report_number"`
	ReportDate        time.Time       `json:"report_date"`
	CashTotal         decimal.Decimal `json:"cash_total"`
	CardTotal         decimal.Decimal `json:"card_total"`
	BankTransferTotal decimal.Decimal `json:"bank_transfer_total"`
	ChequeTotal       decimal.Decimal `json:"cheque_total"`
	EDirhamTotal      decimal.Decimal `json:"edirham_total"`
	OnlineTotal       decimal.Decimal `json:"online_total"`
	GrandTotal        decimal.Decimal `json:"grand_total"`
	TransactionCount  int             `json:"transaction_count"`
	IsClosed          bool            `json:"is_closed"`
	ClosedAt          *time.Time      `json:"closed_at,omitempty"`
	ClosedBy          *uuid.UUID      `json:"closed_by,omitempty"`
	GeneratedBy       uuid.UUID       `json:"generated_by"`
	CreatedAt         time.Time       `json:"created_at"`
}

// addPayment folds one completed payment into the method columns.
func (r *CashReconciliation) addPayment(p Payment) {
	switch p.Method {
	case MethodCash:
		r.CashTotal = r.CashTotal.Add(p.Amount)
	case MethodCard:
		r.CardTotal = r.CardTotal.Add(p.Amount)
	case MethodBankTransfer:
		r.BankTransferTotal = r.BankTransferTotal.Add(p.Amount)
	case MethodCheque:
		r.ChequeTotal = r.ChequeTotal.Add(p.Amount)
	case MethodEDirham:
		r.EDirhamTotal = r.EDirhamTotal.Add(p.Amount)
	case MethodOnline:
		r.OnlineTotal = r.OnlineTotal.Add(p.Amount)
	}
	r.GrandTotal = r.GrandTotal.Add(p.Amount)
	r.TransactionCount++
}

// MarginReport compares collected revenue with supplier cost.
type MarginReport struct {
	TenantID      uuid.UUID        `json:"tenant_id"`
	From          *time.Time       `json:"from,omitempty"`
	To            *time.Time       `json:"to,omitempty"`
	Revenue       decimal.Decimal  `json:"revenue"`
	Cost          decimal.Decimal  `json:"cost"`
	Margin        decimal.Decimal  `json:"margin"`
	MarginPercent decimal.Decimal  `json:"margin_percent"`
	ByContract    []ContractMargin `json:"by_contract"`
}

// ContractMargin is one row of the per-contract breakdown. ContractID is nil
// for invoices and supplier payments not tied to a contract.
type ContractMargin struct {
	ContractID    *uuid.UUID      `json:"contract_id,omitempty"`
	Revenue       decimal.Decimal `json:"revenue"`
	Cost          decimal.Decimal `json:"cost"`
	Margin        decimal.Decimal `json:"margin"`
	MarginPercent decimal.Decimal `json:"margin_percent"`
}

// RevenueBreakdown sums completed payments by month and by method.
type RevenueBreakdown struct {
	TenantID uuid.UUID                         `json:"tenant_id"`
	From     *time.Time                        `json:"from,omitempty"`
	To       *time.Time                        `json:"to,omitempty"`
	Total    decimal.Decimal                   `json:"total"`
	ByMonth  []MonthRevenue                    `json:"by_month"`
	ByMethod map[PaymentMethod]decimal.Decimal `json:"by_method"`
}

type MonthRevenue struct {
	Month            string          `json:"month"` // YYYY-MM
	Total            decimal.Decimal `json:"total"`
	TransactionCount int             `json:"transaction_count"`
}

// marginPercent is margin/revenue×100 rounded, or zero when there is no revenue.
func marginPercent(margin, revenue decimal.Decimal) decimal.Decimal {
	if revenue.IsZero() {
		return decimal.Zero
	}
	return RoundMoney(margin.Div(revenue).Mul(hundred))
}
