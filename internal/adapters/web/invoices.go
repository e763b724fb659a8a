package web

import (
	"net/http"

	"agency-ledger/internal/app"
)

func (h *Handler) createInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.CreateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreateInvoice(r.Context(), tenantID(r), req)
	respond(w, r, http.StatusCreated, inv, err)
}

func (h *Handler) generateInvoice(w http.ResponseWriter, r *http.Request) {
	var req app.GenerateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.GenerateContractInvoice(r.Context(), tenantID(r), req)
	respond(w, r, http.StatusCreated, inv, err)
}

func (h *Handler) listInvoices(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	page, err := h.svc.ListInvoices(r.Context(), tenantID(r), app.InvoiceListQuery{
		Status:         q.Get("status"),
		Type:           q.Get("type"),
		ClientID:       q.Get("client_id"),
		ContractID:     q.Get("contract_id"),
		IncludeDeleted: queryBool(r, "include_deleted"),
		Page:           queryInt(r, "page"),
		PageSize:       queryInt(r, "page_size"),
	})
	respond(w, r, http.StatusOK, page, err)
}

func (h *Handler) getInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	inv, err := h.svc.GetInvoice(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, inv, err)
}

func (h *Handler) updateInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.UpdateInvoiceRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.UpdateInvoice(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, inv, err)
}

func (h *Handler) deleteInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	noContent(w, r, h.svc.DeleteInvoice(r.Context(), tenantID(r), id))
}

func (h *Handler) transitionInvoice(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.TransitionRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.TransitionInvoice(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, inv, err)
}

func (h *Handler) createCreditNote(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.CreditNoteRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.CreateCreditNote(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusCreated, inv, err)
}

func (h *Handler) applyDiscount(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	var req app.ApplyDiscountRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	inv, err := h.svc.ApplyDiscount(r.Context(), tenantID(r), id, req)
	respond(w, r, http.StatusOK, inv, err)
}

func (h *Handler) invoiceSummary(w http.ResponseWriter, r *http.Request) {
	sum, err := h.svc.InvoiceSummary(r.Context(), tenantID(r))
	respond(w, r, http.StatusOK, sum, err)
}

func (h *Handler) markOverdue(w http.ResponseWriter, r *http.Request) {
	res, err := h.svc.MarkOverdue(r.Context(), tenantID(r))
	respond(w, r, http.StatusOK, res, err)
}
