package web

import (
	"net/http"

	"agency-ledger/internal/app"
)

func (h *Handler) recordPayment(w http.ResponseWriter, r *http.Request) {
	var req app.RecordPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.RecordPayment(r.Context(), tenantID(r), req)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) listPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ListPayments(r.Context(), tenantID(r), app.PaymentListQuery{
		InvoiceID:      q.Get("invoice_id"),
		Status:         q.Get("status"),
		Method:         q.Get("method"),
		IncludeDeleted: queryBool(r, "include_deleted"),
		Page:           queryInt(r, "page"),
		PageSize:       queryInt(r, "page_size"),
	})
	respond(w, r, http.StatusOK, page, err)
}

func (h *Handler) getPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetPayment(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) transitionPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.TransitionPayment(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) refundPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.RefundRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.RefundPayment(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) deletePayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	noContent(w, r, h.svc.DeletePayment(r.Context(), tenantID(r), id))
}

func (h *Handler) createSupplierPayment(w http.ResponseWriter, r *http.Request) {
	var req app.CreateSupplierPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateSupplierPayment(r.Context(), tenantID(r), req)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) listSupplierPayments(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ListSupplierPayments(r.Context(), tenantID(r), app.SupplierPaymentListQuery{
		Status:         q.Get("status"),
		ContractID:     q.Get("contract_id"),
		SupplierID:     q.Get("supplier_id"),
		IncludeDeleted: queryBool(r, "include_deleted"),
		Page:           queryInt(r, "page"),
		PageSize:       queryInt(r, "page_size"),
	})
	respond(w, r, http.StatusOK, page, err)
}

func (h *Handler) getSupplierPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetSupplierPayment(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) updateSupplierPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.UpdateSupplierPaymentRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.UpdateSupplierPayment(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) transitionSupplierPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.TransitionSupplierPayment(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) deleteSupplierPayment(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	noContent(w, r, h.svc.DeleteSupplierPayment(r.Context(), tenantID(r), id))
}
