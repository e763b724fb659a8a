package web

import (
	"net/http"

	"agency-ledger/internal/app"
)

func (h *Handler) createDiscountProgram(w http.ResponseWriter, r *http.Request) {
	var req app.CreateDiscountProgramRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	p, err := h.svc.CreateDiscountProgram(r.Context(), tenantID(r), req)
	respond(w, r, http.StatusCreated, p, err)
}

func (h *Handler) listDiscountPrograms(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListDiscountPrograms(r.Context(), tenantID(r),
		queryBool(r, "active"), queryInt(r, "page"), queryInt(r, "page_size"))
	respond(w, r, http.StatusOK, page, err)
}

func (h *Handler) getDiscountProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.GetDiscountProgram(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) deactivateDiscountProgram(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	p, err := h.svc.DeactivateDiscountProgram(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, p, err)
}

func (h *Handler) marginReport(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.MarginReport(r.Context(), tenantID(r), dateRangeQuery(r))
	respond(w, r, http.StatusOK, rep, err)
}

func (h *Handler) revenueBreakdown(w http.ResponseWriter, r *http.Request) {
	rep, err := h.svc.RevenueBreakdown(r.Context(), tenantID(r), dateRangeQuery(r))
	respond(w, r, http.StatusOK, rep, err)
}

// generateXReport takes an optional {"date": "YYYY-MM-DD"} body. An empty body means today.
func (h *Handler) generateXReport(w http.ResponseWriter, r *http.Request) {
	var req struct {
		Date string `json:"date"`
	}
	if r.ContentLength != 0 && !decodeJSON(w, r, &req) {
		return
	}
	rep, err := h.svc.GenerateXReport(r.Context(), tenantID(r), req.Date)
	respond(w, r, http.StatusCreated, rep, err)
}

func (h *Handler) listXReports(w http.ResponseWriter, r *http.Request) {
	page, err := h.svc.ListXReports(r.Context(), tenantID(r), app.XReportListQuery{
		DateRangeQuery: dateRangeQuery(r),
		Page:           queryInt(r, "page"),
		PageSize:       queryInt(r, "page_size"),
	})
	respond(w, r, http.StatusOK, page, err)
}

func (h *Handler) getXReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.GetXReport(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, rep, err)
}

func (h *Handler) closeXReport(w http.ResponseWriter, r *http.Request) {
	id, ok := pathID(w, r)
	if !ok {
		return
	}
	rep, err := h.svc.CloseXReport(r.Context(), tenantID(r), id)
	respond(w, r, http.StatusOK, rep, err)
}
