package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agency-ledger/internal/core"
)

var supplierPayments = table{name: "supplier_payments", columns: withAudit(
	"id", "tenant_id", "payment_number", "status", "supplier_id", "worker_id", "contract_id", "amount", "currency",
	"method", "reference_number", "payment_date", "description", "paid_at", "notes",
)}

type supplierRepo struct{ q querier }

func supplierArgs(p *core.SupplierPayment) []any {
	args := []any{
		p.ID, p.TenantID, p.PaymentNumber, p.Status, p.SupplierID, p.WorkerID, p.ContractID, p.Amount, p.Currency,
		p.Method, p.Reference, p.PaymentDate, p.Description, p.PaidAt, p.Notes,
	}
	return append(args, auditArgs(p.Audit)...)
}

func scanSupplierPayment(row pgx.Row) (*core.SupplierPayment, error) {
	var p core.SupplierPayment
	dest := []any{
		&p.ID, &p.TenantID, &p.PaymentNumber, &p.Status, &p.SupplierID, &p.WorkerID, &p.ContractID, &p.Amount, &p.Currency,
		&p.Method, &p.Reference, &p.PaymentDate, &p.Description, &p.PaidAt, &p.Notes,
	}
	if err := row.Scan(append(dest, auditDest(&p.Audit)...)...); err != nil {
		return nil, err
	}
	return &p, nil
}

func (r supplierRepo) Insert(ctx context.Context, p *core.SupplierPayment) error {
	if _, err := r.q.Exec(ctx, supplierPayments.insertSQL(), supplierArgs(p)...); err != nil {
		return writeErr(err, "supplier payment "+p.PaymentNumber)
	}
	return nil
}

func (r supplierRepo) Update(ctx context.Context, p *core.SupplierPayment) error {
	return exec(ctx, r.q, "supplier payment "+p.PaymentNumber, supplierPayments.updateSQL(), supplierArgs(p)...)
}

func (r supplierRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error) {
	p, err := scanSupplierPayment(r.q.QueryRow(ctx, supplierPayments.getSQL(false), tenantID, id))
	if err != nil {
		return nil, readErr(err, "supplier payment", id)
	}
	return p, nil
}

func (r supplierRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error) {
	p, err := scanSupplierPayment(r.q.QueryRow(ctx, supplierPayments.getSQL(true), tenantID, id))
	if err != nil {
		return nil, readErr(err, "supplier payment", id)
	}
	return p, nil
}

func (r supplierRepo) List(ctx context.Context, tenantID uuid.UUID, f core.SupplierPaymentFilter) ([]core.SupplierPayment, int, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	if !f.IncludeDeleted {
		w.raw("NOT is_deleted")
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.ContractID != nil {
		w.add("contract_id = ?", *f.ContractID)
	}
	if f.SupplierID != nil {
		w.add("supplier_id = ?", *f.SupplierID)
	}

	total, err := count(ctx, r.q, supplierPayments.name, w)
	if err != nil {
		return nil, 0, err
	}
	limit, args := w.page(f.PageRequest)
	items, err := r.query(ctx, supplierPayments.selectSQL()+w.sql()+" ORDER BY created_at DESC, payment_number DESC"+limit, args...)
	if err != nil {
		return nil, 0, err
	}
	return items, total, nil
}

func (r supplierRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses ...core.SupplierPaymentStatus) ([]core.SupplierPayment, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	return r.query(ctx, supplierPayments.selectSQL()+" WHERE tenant_id = $1 AND NOT is_deleted AND status = ANY($2) ORDER BY payment_number",
		tenantID, names)
}

func (r supplierRepo) query(ctx context.Context, sql string, args ...any) ([]core.SupplierPayment, error) {
	rows, err := r.q.Query(ctx, sql, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query supplier payments: %w", err)
	}
	items, err := collect(rows, scanSupplierPayment)
	if err != nil {
		return nil, fmt.Errorf("failed to scan supplier payments: %w", err)
	}
	return items, nil
}
