package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agency-ledger/internal/core"
)

var payments = table{name: "payments", columns: withAudit(
	"id", "tenant_id", "payment_number", "status", "invoice_id", "client_id", "amount", "currency", "method",
	"reference_number", "payment_date", "gateway_provider", "gateway_transaction_id", "gateway_status", "gateway_response",
	"cashier_id", "refunded_payment_id", "refund_amount", "notes",
)}

type paymentRepo struct{ q querier }

func paymentArgs(p *core.Payment) []any {
	args := []any{
		p.ID, p.TenantID, p.PaymentNumber, p.Status, p.InvoiceID, p.ClientID, p.Amount, p.Currency, p.Method,
		p.Reference, p.PaymentDate, p.GatewayProvider, p.GatewayTransactionID, p.GatewayStatus, p.GatewayResponse,
		p.CashierID, p.RefundedPaymentID, p.RefundAmount, p.Notes,
	}
	return append(args, auditArgs(p.Audit)...)
}

func scanPayment(row pgx.Row) (*core.Payment, error) {
	var p core.Payment
	dest := []any{
		&p.ID, &p.TenantID, &p.PaymentNumber, &p.Status, &p.InvoiceID, &p.ClientID, &p.Amount, &p.Currency, &p.Method,
		&p.Reference, &p.PaymentDate, &p.GatewayProvider, &p.GatewayTransactionID, &p.GatewayStatus, &p.GatewayResponse,
		&p.CashierID, &p.RefundedPaymentID, &p.RefundAmount, &p.Notes,
	}
	if err := row.Scan(append(dest, auditDest(&p.Audit)...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r paymentRepo) Insert(ctx context.Context, p *core.Payment) error {
	if _, err := r.q.Exec(ctx, payments.insertSQL(), paymentArgs(p)...); err != nil {
		return writeErr(err, "payment "+p.PaymentNumber)
	}
	return nil
}

func (r paymentRepo) Update(ctx context.Context, p *core.Payment) error {
	return exec(ctx, r.q, "payment "+p.PaymentNumber, payments.updateSQL(), paymentArgs(p)...)
}

func (r paymentRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*core.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, payments.getSQL(false), tenantID, id))
	if err != nil {
		return nil, readErr(err, "payment", id)
	}
	return p, nil
}

func (r paymentRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.Payment, error) {
	p, err := scanPayment(r.q.QueryRow(ctx, payments.getSQL(true), tenantID, id))
	if err != nil {
		return nil, readErr(err, "payment", id)
	}
	return p, nil
}

func (r paymentRepo) List(ctx context.Context, tenantID uuid.UUID, f core.PaymentFilter) ([]core.Payment, int, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	if !f.IncludeDeleted {
		w.raw("NOT is_deleted")
	}
	if f.InvoiceID != nil {
		w.add("invoice_id = ?", *f.InvoiceID)
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Method != nil {
		w.add("method = ?", *f.Method)
	}

	total, err := count(ctx, r.q, payments.name, w)
	if err != nil {
		return nil, 0, err
	}
	limit, args := w.page(f.PageRequest)
	items, err := r.query(ctx, payments.selectSQL()+w.sql()+" ORDER BY created_at DESC, payment_number DESC"+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r paymentRepo) ListByInvoice(ctx context.Context, tenantID, invoiceID uuid.UUID) ([]core.Payment, error) {
	return r.query(ctx, payments.selectSQL()+" WHERE tenant_id = $1 AND invoice_id = $2 AND NOT is_deleted ORDER BY created_at, payment_number",
		tenantID, invoiceID)
}

func (r paymentRepo) ListCompleted(ctx context.Context, tenantID uuid.UUID, dr core.DateRange) ([]core.Payment, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	w.raw("NOT is_deleted")
	w.add("status = ?", core.PaymentCompleted)
	if dr.From != nil {
		w.add("payment_date >= ?", core.DateOf(*dr.From))
	}
	if dr.To != nil {
		w.add("payment_date <= ?", core.DateOf(*dr.To))
	}
	return r.query(ctx, payments.selectSQL()+w.sql()+" ORDER BY payment_date, payment_number", w.args...)
}

func (r paymentRepo) query(ctx context.Context, sql string, args ...any) ([]core.Payment, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query payments: %w", err)
	}
	items, err := collect(rows, scanPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan payments: %w", err)
	}
	return items, nil
}
