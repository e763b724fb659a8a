package postgres

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"

	"agency-ledger/internal/core"
)

var invoices = table{name: "invoices", columns: withAudit(
	"id", "tenant_id", "invoice_number", "invoice_type", "milestone_type", "status", "status_changed_at",
	"contract_id", "client_id", "worker_id", "issue_date", "due_date", "currency", "supplier_trn", "customer_trn",
	"vat_rate", "subtotal", "discount_amount", "taxable_amount", "vat_amount", "total_amount", "paid_amount", "balance_due",
	"discount_program_id", "discount_program_name", "discount_percentage", "discount_card_number",
	"original_invoice_id", "credit_note_reason", "notes",
)}

const lineItemColumns = "id, invoice_id, line_number, description, description_ar, quantity, unit_price, discount, line_total, item_code"

type invoiceRepo struct{ q querier }

func invoiceArgs(inv *core.Invoice) []any {
	args := []any{
		inv.ID, inv.TenantID, inv.InvoiceNumber, inv.Type, inv.MilestoneType, inv.Status, inv.StatusChangedAt,
		inv.ContractID, inv.ClientID, inv.WorkerID, inv.IssueDate, inv.DueDate, inv.Currency, inv.SupplierTRN, inv.CustomerTRN,
		inv.VATRate, inv.Subtotal, inv.DiscountAmount, inv.TaxableAmount, inv.VATAmount, inv.TotalAmount, inv.PaidAmount, inv.BalanceDue,
		inv.DiscountProgramID, inv.DiscountProgramName, inv.DiscountPercentage, inv.DiscountCardNumber,
		inv.OriginalInvoiceID, inv.CreditNoteReason, inv.Notes,
	}
	return append(args, auditArgs(inv.Audit)...)
}

func scanInvoice(row pgx.Row) (*core.Invoice, error) {
	var inv core.Invoice
	dest := []any{
		&inv.ID, &inv.TenantID, &inv.InvoiceNumber, &inv.Type, &inv.MilestoneType, &inv.Status, &inv.StatusChangedAt,
		&inv.ContractID, &inv.ClientID, &inv.WorkerID, &inv.IssueDate, &inv.DueDate, &inv.Currency, &inv.SupplierTRN, &inv.CustomerTRN,
		&inv.VATRate, &inv.Subtotal, &inv.DiscountAmount, &inv.TaxableAmount, &inv.VATAmount, &inv.TotalAmount, &inv.PaidAmount, &inv.BalanceDue,
		&inv.DiscountProgramID, &inv.DiscountProgramName, &inv.DiscountPercentage, &inv.DiscountCardNumber,
		&inv.OriginalInvoiceID, &inv.CreditNoteReason, &inv.Notes,
	}
	if err := row.Scan(append(dest, auditDest(&inv.Audit)...)...); err != nil {
		return nil, err
	}
	return &inv, nil
}

func (r invoiceRepo) Insert(ctx context.Context, inv *core.Invoice) error {
	if _, err := r.q.Exec(ctx, invoices.insertSQL(), invoiceArgs(inv)...); err != nil {
		return writeErr(err, "invoice "+inv.InvoiceNumber)
	}
	return r.insertLineItems(ctx, inv.ID, inv.LineItems)
}

func (r invoiceRepo) Update(ctx context.Context, inv *core.Invoice) error {
	return exec(ctx, r.q, "invoice "+inv.InvoiceNumber, invoices.updateSQL(), invoiceArgs(inv)...)
}

func (r invoiceRepo) ReplaceLineItems(ctx context.Context, invoiceID uuid.UUID, items []core.LineItem) error {
	if _, err := r.q.Exec(ctx, "DELETE FROM invoice_line_items WHERE invoice_id = $1", invoiceID); err != nil {
		return fmt.Errorf("failed to clear line items: %w", err)
	}
	return r.insertLineItems(ctx, invoiceID, items)
}

func (r invoiceRepo) insertLineItems(ctx context.Context, invoiceID uuid.UUID, items []core.LineItem) error {
	if len(items) == 0 {
		return nil
	}
	batch := &pgx.Batch{}
	for _, li := range items {
		batch.Queue(
			"INSERT INTO invoice_line_items ("+lineItemColumns+") VALUES ("+placeholders(1, 10)+")",
			li.ID, invoiceID, li.LineNumber, li.Description, li.DescriptionAr,
			li.Quantity, li.UnitPrice, li.Discount, li.LineTotal, li.ItemCode,
		)
	}
	br := r.q.SendBatch(ctx, batch)
	defer br.Close()
	for range items {
		if _, err := br.Exec(); err != nil {
			return writeErr(err, "line item")
		}
	}
	return nil
}

func (r invoiceRepo) lineItems(ctx context.Context, invoiceID uuid.UUID) ([]core.LineItem, error) {
	rows, err := r.q.Query(ctx, "SELECT "+lineItemColumns+" FROM invoice_line_items WHERE invoice_id = $1 ORDER BY line_number", invoiceID)
	if err != nil {
		return nil, fmt.Errorf("failed to load line items: %w", err)
	}
	items, err := collect(rows, func(row pgx.Row) (*core.LineItem, error) {
		var li core.LineItem
		err := row.Scan(&li.ID, &li.InvoiceID, &li.LineNumber, &li.Description, &li.DescriptionAr,
			&li.Quantity, &li.UnitPrice, &li.Discount, &li.LineTotal, &li.ItemCode)
		return &li, err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to scan line items: %w", err)
	}
	if items == nil {
		items = []core.LineItem{}
	}
	return items, nil
}

func (r invoiceRepo) get(ctx context.Context, tenantID, id uuid.UUID, forUpdate bool) (*core.Invoice, error) {
	inv, err := scanInvoice(r.q.QueryRow(ctx, invoices.getSQL(forUpdate), tenantID, id))
	if err != nil {
		return nil, readErr(err, "invoice", id)
	}
	if inv.LineItems, err = r.lineItems(ctx, inv.ID); err != nil {
		return nil, err
	}
	return inv, nil
}

func (r invoiceRepo) Get(ctx context.Context, tenantID, id uuid.UUID) (*core.Invoice, error) {
	return r.get(ctx, tenantID, id, false)
}

func (r invoiceRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.Invoice, error) {
	return r.get(ctx, tenantID, id, true)
}

// List returns invoice headers. Line items are loaded only by Get.
func (r invoiceRepo) List(ctx context.Context, tenantID uuid.UUID, f core.InvoiceFilter) ([]core.Invoice, int, error) {
	w := &where{}
	w.add("tenant_id = ?", tenantID)
	if !f.IncludeDeleted {
		w.raw("NOT is_deleted")
	}
	if f.Status != nil {
		w.add("status = ?", *f.Status)
	}
	if f.Type != nil {
		w.add("invoice_type = ?", *f.Type)
	}
	if f.ClientID != nil {
		w.add("client_id = ?", *f.ClientID)
	}
	if f.ContractID != nil {
		w.add("contract_id = ?", *f.ContractID)
	}

	total, err := count(ctx, r.q, invoices.name, w)
	if err != nil {
		return nil, 0, err
	}
	limit, args := w.page(f.PageRequest)
	rows, err := r.q.Query(ctx, invoices.selectSQL()+w.sql()+" ORDER BY created_at DESC, invoice_number DESC"+limit, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to list invoices: %w", err)
	}
	items, err := collect(rows, scanInvoice)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to scan invoices: %w", err)
	}
	return items, total, nil
}

func (r invoiceRepo) ListByStatus(ctx context.Context, tenantID uuid.UUID, statuses ...core.InvoiceStatus) ([]core.Invoice, error) {
	names := make([]string, len(statuses))
	for i, s := range statuses {
		names[i] = string(s)
	}
	rows, err := r.q.Query(ctx, invoices.selectSQL()+" WHERE tenant_id = $1 AND NOT is_deleted AND status = ANY($2) ORDER BY invoice_number", tenantID, names)
	if err != nil {
		return nil, fmt.Errorf("failed to list invoices by status: %w", err)
	}
	items, err := collect(rows, scanInvoice)
	if err != nil {
		return nil, fmt.Errorf("failed to scan invoices: %w", err)
	}
	return items, nil
}
