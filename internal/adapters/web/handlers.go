package web

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"agency-ledger/internal/app"
	"agency-ledger/internal/core"
)

// Handler holds the ApplicationService and the chi router.
type Handler struct {
	svc       app.ApplicationService
	router    chi.Router
	jwtSecret string
}

// NewHandler creates and wires the chi router with all routes.
func NewHandler(svc app.ApplicationService, log zerolog.Logger, allowedOrigins []string, jwtSecret string) http.Handler {
	h := &Handler{svc: svc, jwtSecret: jwtSecret}

	r := chi.NewRouter()
	r.Use(RequestID)
	r.Use(Logger(log))
	r.Use(Recoverer)
	r.Use(CORS(allowedOrigins))

	r.Get("/api/health", h.health)

	r.Route("/api/v1", func(r chi.Router) {
		// ── Public ───────────────────────────────────────────────────────────
		r.Get("/schemas", h.listSchemas)
		r.Get("/schemas/{name}", h.getSchema)

		// ── Protected (401 JSON if unauthenticated, 1 MB body limit) ─────────
		r.Group(func(r chi.Router) {
			r.Use(h.RequireAuth)
			r.Use(RequestBodyLimit(1 << 20))

			r.Get("/me", h.me)

			r.Route("/invoices", func(r chi.Router) {
				r.Get("/", h.listInvoices)
				r.Post("/", h.createInvoice)
				r.Post("/generate", h.generateInvoice)
				r.Get("/summary", h.invoiceSummary)
				r.Post("/mark-overdue", h.markOverdue)
				r.Get("/{id}", h.getInvoice)
				r.Patch("/{id}", h.updateInvoice)
				r.Delete("/{id}", h.deleteInvoice)
				r.Post("/{id}/status", h.transitionInvoice)
				r.Post("/{id}/credit-notes", h.createCreditNote)
				r.Post("/{id}/discount", h.applyDiscount)
			})

			r.Route("/payments", func(r chi.Router) {
				r.Get("/", h.listPayments)
				r.Post("/", h.recordPayment)
				r.Get("/{id}", h.getPayment)
				r.Delete("/{id}", h.deletePayment)
				r.Post("/{id}/status", h.transitionPayment)
				r.Post("/{id}/refunds", h.refundPayment)
			})

			r.Route("/supplier-payments", func(r chi.Router) {
				r.Get("/", h.listSupplierPayments)
				r.Post("/", h.createSupplierPayment)
				r.Get("/{id}", h.getSupplierPayment)
				r.Patch("/{id}", h.updateSupplierPayment)
				r.Delete("/{id}", h.deleteSupplierPayment)
				r.Post("/{id}/status", h.transitionSupplierPayment)
			})

			r.Route("/discount-programs", func(r chi.Router) {
				r.Get("/", h.listDiscountPrograms)
				r.Post("/", h.createDiscountProgram)
				r.Get("/{id}", h.getDiscountProgram)
				r.Post("/{id}/deactivate", h.deactivateDiscountProgram)
			})

			r.Get("/reports/margin", h.marginReport)
			r.Get("/reports/revenue", h.revenueBreakdown)

			r.Route("/x-reports", func(r chi.Router) {
				r.Get("/", h.listXReports)
				r.Post("/", h.generateXReport)
				r.Get("/{id}", h.getXReport)
				r.Post("/{id}/close", h.closeXReport)
			})
		})
	})

	h.router = r
	return r
}

// health reports liveness.
func (h *Handler) health(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string]string{"status": "ok"})
}

func (h *Handler) listSchemas(w http.ResponseWriter, r *http.Request) {
	writeJSON(w, map[string][]string{"schemas": app.SchemaNames()})
}

// getSchema returns the JSON schema of a request body.
func (h *Handler) getSchema(w http.ResponseWriter, r *http.Request) {
	s, err := app.Schema(chi.URLParam(r, "name"))
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.Header().Set("Content-Type", "application/schema+json")
	_ = json.NewEncoder(w).Encode(s)
}

// tenantID returns the tenant of the authenticated caller.
func tenantID(r *http.Request) uuid.UUID {
	return authFromContext(r.Context()).TenantID
}

// pathID parses the {id} URL parameter and writes a 400 on failure.
func pathID(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	id, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		writeError(w, r, "invalid id: "+chi.URLParam(r, "id"), "BAD_REQUEST", http.StatusBadRequest)
		return uuid.Nil, false
	}
	return id, true
}

// queryInt reads an optional integer query parameter. Malformed values read as zero.
func queryInt(r *http.Request, key string) int {
	n, _ := strconv.Atoi(r.URL.Query().Get(key))
	return n
}

func queryBool(r *http.Request, key string) bool {
	b, _ := strconv.ParseBool(r.URL.Query().Get(key))
	return b
}

func dateRangeQuery(r *http.Request) app.DateRangeQuery {
	q := r.URL.Query()
	return app.DateRangeQuery{From: q.Get("from"), To: q.Get("to")}
}

// decodeJSON decodes the request body into v and returns false + writes an appropriate
// error response on failure. Returns HTTP 413 when the body exceeds the size limit set
// by RequestBodyLimit middleware; HTTP 400 for all other decode errors.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			writeError(w, r, "request body too large", "REQUEST_TOO_LARGE", http.StatusRequestEntityTooLarge)
			return false
		}
		writeError(w, r, "invalid JSON body: "+err.Error(), "BAD_REQUEST", http.StatusBadRequest)
		return false
	}
	return true
}

// respond writes v or maps err.
func respond[T any](w http.ResponseWriter, r *http.Request, status int, v T, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSONStatus(w, status, v)
}

func noContent(w http.ResponseWriter, r *http.Request, err error) {
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}

var _ core.CurrentUser = ContextUser{}
