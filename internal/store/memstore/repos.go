package memstore

import (
	"context"
	"slices"
	"time"

	"github.com/google/uuid"

	"agency-ledger/internal/core"
)

// ── invoices ─────────────────────────────────────────────────────────────────

type invoiceRepo struct{ v view }

// stored strips the payments view and detaches the line item slice.
func storedInvoice(inv core.Invoice) core.Invoice {
	inv.LineItems = slices.Clone(inv.LineItems)
	inv.Payments = nil
	return inv
}

func (r invoiceRepo) Insert(_ context.Context, inv *core.Invoice) error {
	defer r.v.lock()()
	if _, ok := r.v.s.d.invoices[inv.ID]; ok {
		return core.Conflict("invoice %s already exists", inv.ID)
	}
	for _, other := range r.v.s.d.invoices {
		if other.TenantID == inv.TenantID && other.InvoiceNumber == inv.InvoiceNumber {
			return core.Conflict("invoice number %s already exists", inv.InvoiceNumber)
		}
	}
	r.v.s.d.invoices[inv.ID] = storedInvoice(*inv)
	return nil
}

func (r invoiceRepo) Update(_ context.Context, inv *core.Invoice) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.invoices[inv.ID]
	if !ok || cur.TenantID != inv.TenantID {
		return core.NotFound("invoice %s not found", inv.ID)
	}
	next := storedInvoice(*inv)
	next.LineItems = cur.LineItems
	r.v.s.d.invoices[inv.ID] = next
	return nil
}

func (r invoiceRepo) ReplaceLineItems(_ context.Context, invoiceID uuid.UUID, items []core.LineItem) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.invoices[invoiceID]
	if !ok {
		return core.NotFound("invoice %s not found", invoiceID)
	}
	cur.LineItems = slices.Clone(items)
	r.v.s.d.invoices[invoiceID] = cur
	return nil
}

func (r invoiceRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*core.Invoice, error) {
	defer r.v.lock()()
	inv, ok := r.v.s.d.invoices[id]
	if !ok || inv.TenantID != tenantID || inv.IsDeleted {
		return nil, core.NotFound("invoice %s not found", id)
	}
	out := storedInvoice(inv)
	return &out, nil
}

func (r invoiceRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.Invoice, error) {
	return r.Get(ctx, tenantID, id)
}

func (r invoiceRepo) List(_ context.Context, tenantID uuid.UUID, f core.InvoiceFilter) ([]core.Invoice, int, error) {
	defer r.v.lock()()
	var out []core.Invoice
	for _, inv := range r.v.s.d.invoices {
		if inv.TenantID != tenantID || (inv.IsDeleted && !f.IncludeDeleted) {
			continue
		}
		if f.Status != nil && inv.Status != *f.Status {
			continue
		}
		if f.Type != nil && inv.Type != *f.Type {
			continue
		}
		if f.ClientID != nil && (inv.ClientID == nil || *inv.ClientID != *f.ClientID) {
			continue
		}
		if f.ContractID != nil && (inv.ContractID == nil || *inv.ContractID != *f.ContractID) {
			continue
		}
		out = append(out, storedInvoice(inv))
	}
	newestFirst(out, func(inv core.Invoice) time.Time { return inv.CreatedAt })
	items, total := paginate(out, f.PageRequest)
	return items, total, nil
}

func (r invoiceRepo) ListByStatus(_ context.Context, tenantID uuid.UUID, statuses ...core.InvoiceStatus) ([]core.Invoice, error) {
	defer r.v.lock()()
	var out []core.Invoice
	for _, inv := range r.v.s.d.invoices {
		if inv.TenantID == tenantID && !inv.IsDeleted && slices.Contains(statuses, inv.Status) {
			inv.LineItems = nil
			inv.Payments = nil
			out = append(out, inv)
		}
	}
	newestFirst(out, func(inv core.Invoice) time.Time { return inv.CreatedAt })
	return out, nil
}

// ── payments ─────────────────────────────────────────────────────────────────

type paymentRepo struct{ v view }

func (r paymentRepo) Insert(_ context.Context, p *core.Payment) error {
	defer r.v.lock()()
	if _, ok := r.v.s.d.payments[p.ID]; ok {
		return core.Conflict("payment %s already exists", p.ID)
	}
	r.v.s.d.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) Update(_ context.Context, p *core.Payment) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.payments[p.ID]
	if !ok || cur.TenantID != p.TenantID {
		return core.NotFound("payment %s not found", p.ID)
	}
	r.v.s.d.payments[p.ID] = *p
	return nil
}

func (r paymentRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*core.Payment, error) {
	defer r.v.lock()()
	p, ok := r.v.s.d.payments[id]
	if !ok || p.TenantID != tenantID || p.IsDeleted {
		return nil, core.NotFound("payment %s not found", id)
	}
	return &p, nil
}

func (r paymentRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.Payment, error) {
	return r.Get(ctx, tenantID, id)
}

func (r paymentRepo) List(_ context.Context, tenantID uuid.UUID, f core.PaymentFilter) ([]core.Payment, int, error) {
	defer r.v.lock()()
	out := r.filter(tenantID, func(p core.Payment) bool {
		if p.IsDeleted && !f.IncludeDeleted {
			return false
		}
		if f.InvoiceID != nil && p.InvoiceID != *f.InvoiceID {
			return false
		}
		if f.Status != nil && p.Status != *f.Status {
			return false
		}
		return f.Method == nil || p.Method == *f.Method
	})
	items, total := paginate(out, f.PageRequest)
	return items, total, nil
}

func (r paymentRepo) ListByInvoice(_ context.Context, tenantID, invoiceID uuid.UUID) ([]core.Payment, error) {
	defer r.v.lock()()
	return r.filter(tenantID, func(p core.Payment) bool {
		return !p.IsDeleted && p.InvoiceID == invoiceID
	}), nil
}

func (r paymentRepo) ListCompleted(_ context.Context, tenantID uuid.UUID, dr core.DateRange) ([]core.Payment, error) {
	defer r.v.lock()()
	return r.filter(tenantID, func(p core.Payment) bool {
		return !p.IsDeleted && p.Status == core.PaymentCompleted && dr.Contains(p.PaymentDate)
	}), nil
}

// filter must be called with the lock held.
func (r paymentRepo) filter(tenantID uuid.UUID, keep func(core.Payment) bool) []core.Payment {
	var out []core.Payment
	for _, p := range r.v.s.d.payments {
		if p.TenantID == tenantID && keep(p) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p core.Payment) time.Time { return p.CreatedAt })
	return out
}

// ── supplier payments ────────────────────────────────────────────────────────

type supplierRepo struct{ v view }

func (r supplierRepo) Insert(_ context.Context, p *core.SupplierPayment) error {
	defer r.v.lock()()
	if _, ok := r.v.s.d.supplier[p.ID]; ok {
		return core.Conflict("supplier payment %s already exists", p.ID)
	}
	r.v.s.d.supplier[p.ID] = *p
	return nil
}

func (r supplierRepo) Update(_ context.Context, p *core.SupplierPayment) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.supplier[p.ID]
	if !ok || cur.TenantID != p.TenantID {
		return core.NotFound("supplier payment %s not found", p.ID)
	}
	r.v.s.d.supplier[p.ID] = *p
	return nil
}

func (r supplierRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error) {
	defer r.v.lock()()
	p, ok := r.v.s.d.supplier[id]
	if !ok || p.TenantID != tenantID || p.IsDeleted {
		return nil, core.NotFound("supplier payment %s not found", id)
	}
	return &p, nil
}

func (r supplierRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.SupplierPayment, error) {
	return r.Get(ctx, tenantID, id)
}

func (r supplierRepo) List(_ context.Context, tenantID uuid.UUID, f core.SupplierPaymentFilter) ([]core.SupplierPayment, int, error) {
	defer r.v.lock()()
	var out []core.SupplierPayment
	for _, p := range r.v.s.d.supplier {
		if p.TenantID != tenantID || (p.IsDeleted && !f.IncludeDeleted) {
			continue
		}
		if f.Status != nil && p.Status != *f.Status {
			continue
		}
		if f.ContractID != nil && (p.ContractID == nil || *p.ContractID != *f.ContractID) {
			continue
		}
		if f.SupplierID != nil && (p.SupplierID == nil || *p.SupplierID != *f.SupplierID) {
			continue
		}
		out = append(out, p)
	}
	newestFirst(out, func(p core.SupplierPayment) time.Time { return p.CreatedAt })
	items, total := paginate(out, f.PageRequest)
	return items, total, nil
}

func (r supplierRepo) ListByStatus(_ context.Context, tenantID uuid.UUID, statuses ...core.SupplierPaymentStatus) ([]core.SupplierPayment, error) {
	defer r.v.lock()()
	var out []core.SupplierPayment
	for _, p := range r.v.s.d.supplier {
		if p.TenantID == tenantID && !p.IsDeleted && slices.Contains(statuses, p.Status) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p core.SupplierPayment) time.Time { return p.CreatedAt })
	return out, nil
}

// ── discount programs ────────────────────────────────────────────────────────

type programRepo struct{ v view }

func (r programRepo) Insert(_ context.Context, p *core.DiscountProgram) error {
	defer r.v.lock()()
	r.v.s.d.programs[p.ID] = *p
	return nil
}

func (r programRepo) Update(_ context.Context, p *core.DiscountProgram) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.programs[p.ID]
	if !ok || cur.TenantID != p.TenantID {
		return core.NotFound("discount program %s not found", p.ID)
	}
	r.v.s.d.programs[p.ID] = *p
	return nil
}

func (r programRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*core.DiscountProgram, error) {
	defer r.v.lock()()
	p, ok := r.v.s.d.programs[id]
	if !ok || p.TenantID != tenantID || p.IsDeleted {
		return nil, core.NotFound("discount program %s not found", id)
	}
	return &p, nil
}

func (r programRepo) List(_ context.Context, tenantID uuid.UUID, activeOnly bool, page core.PageRequest) ([]core.DiscountProgram, int, error) {
	defer r.v.lock()()
	var out []core.DiscountProgram
	for _, p := range r.v.s.d.programs {
		if p.TenantID == tenantID && !p.IsDeleted && (!activeOnly || p.IsActive) {
			out = append(out, p)
		}
	}
	newestFirst(out, func(p core.DiscountProgram) time.Time { return p.CreatedAt })
	items, total := paginate(out, page)
	return items, total, nil
}

// ── X-Reports ────────────────────────────────────────────────────────────────

type reconRepo struct{ v view }

func (r reconRepo) Insert(_ context.Context, rec *core.CashReconciliation) error {
	defer r.v.lock()()
	for _, other := range r.v.s.d.reconciliations {
		if other.TenantID == rec.TenantID && other.ReportDate.Equal(rec.ReportDate) {
			return core.Conflict("an X-Report already exists for %s", rec.ReportDate.Format(time.DateOnly))
		}
	}
	r.v.s.d.reconciliations[rec.ID] = *rec
	return nil
}

func (r reconRepo) Update(_ context.Context, rec *core.CashReconciliation) error {
	defer r.v.lock()()
	cur, ok := r.v.s.d.reconciliations[rec.ID]
	if !ok || cur.TenantID != rec.TenantID {
		return core.NotFound("X-Report %s not found", rec.ID)
	}
	r.v.s.d.reconciliations[rec.ID] = *rec
	return nil
}

func (r reconRepo) Get(_ context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	defer r.v.lock()()
	rec, ok := r.v.s.d.reconciliations[id]
	if !ok || rec.TenantID != tenantID {
		return nil, core.NotFound("X-Report %s not found", id)
	}
	return &rec, nil
}

func (r reconRepo) GetForUpdate(ctx context.Context, tenantID, id uuid.UUID) (*core.CashReconciliation, error) {
	return r.Get(ctx, tenantID, id)
}

func (r reconRepo) ExistsForDate(_ context.Context, tenantID uuid.UUID, date time.Time) (bool, error) {
	defer r.v.lock()()
	day := core.DateOf(date)
	for _, rec := range r.v.s.d.reconciliations {
		if rec.TenantID == tenantID && rec.ReportDate.Equal(day) {
			return true, nil
		}
	}
	return false, nil
}

func (r reconRepo) List(_ context.Context, tenantID uuid.UUID, dr core.DateRange, page core.PageRequest) ([]core.CashReconciliation, int, error) {
	defer r.v.lock()()
	var out []core.CashReconciliation
	for _, rec := range r.v.s.d.reconciliations {
		if rec.TenantID == tenantID && dr.Contains(rec.ReportDate) {
			out = append(out, rec)
		}
	}
	newestFirst(out, func(rec core.CashReconciliation) time.Time { return rec.ReportDate })
	items, total := paginate(out, page)
	return items, total, nil
}
