package web_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/mock/gomock"

	"agency-ledger/internal/adapters/web"
	"agency-ledger/internal/app"
	"agency-ledger/internal/clock"
	"agency-ledger/internal/core"
	"agency-ledger/internal/logger"
	"agency-ledger/internal/mocks"
	"agency-ledger/internal/store/memstore"
)

const secret = "test-secret"

type apiFixture struct {
	t       *testing.T
	handler http.Handler
	gateway *mocks.MockPaymentGateway
	token   string
}

func newAPI(t *testing.T) *apiFixture {
	t.Helper()
	ctrl := gomock.NewController(t)
	gw := mocks.NewMockPaymentGateway(ctrl)
	gw.EXPECT().Provider().Return("testpay").AnyTimes()

	store := memstore.New()
	clk := clock.Fixed{At: time.Date(2026, time.March, 15, 9, 30, 0, 0, time.UTC)}
	log := logger.Nop()
	user := web.ContextUser{}
	defaults := core.InvoiceDefaults{VATRate: decimal.NewFromInt(5), Currency: "AED", PaymentTermsDays: 30}

	svc := app.NewAppService(
		core.NewInvoiceService(store, clk, user, defaults, log),
		core.NewPaymentService(store, gw, clk, user, time.Second, log),
		core.NewSupplierPaymentService(store, clk, user, "AED", log),
		core.NewDiscountProgramService(store, clk, user, log),
		core.NewReportingService(store, clk, user, log),
		log,
	)

	return &apiFixture{
		t:       t,
		handler: web.NewHandler(svc, log, []string{"https://app.example.com"}, secret),
		gateway: gw,
		token:   tokenFor(t, uuid.New()),
	}
}

func tokenFor(t *testing.T, tenantID uuid.UUID) string {
	t.Helper()
	token, err := web.IssueToken(secret, tenantID, uuid.New(), "cashier", time.Hour)
	require.NoError(t, err)
	return token
}

func (f *apiFixture) do(method, path string, body any) *httptest.ResponseRecorder {
	return f.doAs(f.token, method, path, body)
}

func (f *apiFixture) doAs(token, method, path string, body any) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			require.NoError(f.t, json.NewEncoder(&buf).Encode(b))
		}
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)
	return rec
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

type errorBody struct {
	Error     string `json:"error"`
	Code      string `json:"code"`
	RequestID string `json:"request_id"`
}

var scenarioA = map[string]any{
	"line_items": []map[string]any{
		{"description": "Housemaid placement", "quantity": "2", "unit_price": "100"},
		{"description": "Medical test", "quantity": 1, "unit_price": 50, "discount": "5"},
	},
}

func (f *apiFixture) createIssuedInvoice() core.Invoice {
	rec := f.do(http.MethodPost, "/api/v1/invoices", scenarioA)
	require.Equal(f.t, http.StatusCreated, rec.Code, rec.Body.String())
	inv := decode[core.Invoice](f.t, rec)

	rec = f.do(http.MethodPost, "/api/v1/invoices/"+inv.ID.String()+"/status", map[string]string{"status": "issued"})
	require.Equal(f.t, http.StatusOK, rec.Code, rec.Body.String())
	return decode[core.Invoice](f.t, rec)
}

func TestHealthIsPublic(t *testing.T) {
	f := newAPI(t)
	rec := f.doAs("", http.MethodGet, "/api/health", nil)
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))
}

func TestAuthRequired(t *testing.T) {
	f := newAPI(t)

	rec := f.doAs("", http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	forged, err := web.IssueToken("wrong-secret", uuid.New(), uuid.New(), "", time.Hour)
	require.NoError(t, err)
	rec = f.doAs(forged, http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	expired, err := web.IssueToken(secret, uuid.New(), uuid.New(), "", -time.Minute)
	require.NoError(t, err)
	rec = f.doAs(expired, http.MethodGet, "/api/v1/invoices", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "UNAUTHORIZED", decode[errorBody](t, rec).Code)
}

func TestInvoiceLifecycleOverHTTP(t *testing.T) {
	f := newAPI(t)
	inv := f.createIssuedInvoice()
	assert.Equal(t, "INV-00001", inv.InvoiceNumber)
	assert.Equal(t, "257.25", inv.TotalAmount.StringFixed(2))

	f.gateway.EXPECT().Initiate(gomock.Any(), gomock.Any()).
		Return(core.GatewayResult{Success: true, TransactionID: "tx-1", Status: "OK"}, nil)
	rec := f.do(http.MethodPost, "/api/v1/payments", map[string]any{
		"invoice_id": inv.ID, "amount": "257.25", "method": "card",
	})
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	p := decode[core.Payment](t, rec)
	assert.Equal(t, "PAY-00001", p.PaymentNumber)

	rec = f.do(http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
	require.Equal(t, http.StatusOK, rec.Code)
	got := decode[core.Invoice](t, rec)
	assert.Equal(t, core.InvoicePaid, got.Status)
	assert.Len(t, got.Payments, 1)

	rec = f.do(http.MethodGet, "/api/v1/invoices?status=paid", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, decode[core.Page[core.Invoice]](t, rec).Total)
}

func TestErrorMapping(t *testing.T) {
	f := newAPI(t)
	inv := f.createIssuedInvoice()

	tests := []struct {
		name   string
		method string
		path   string
		body   any
		status int
		code   string
	}{
		{"malformed json", http.MethodPost, "/api/v1/invoices", "{", http.StatusBadRequest, "BAD_REQUEST"},
		{"bad id", http.MethodGet, "/api/v1/invoices/not-a-uuid", nil, http.StatusBadRequest, "BAD_REQUEST"},
		{"missing invoice", http.MethodGet, "/api/v1/invoices/" + uuid.NewString(), nil, http.StatusNotFound, "NOT_FOUND"},
		{"invalid body", http.MethodPost, "/api/v1/invoices", map[string]any{"line_items": []any{}}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"illegal transition", http.MethodPost, "/api/v1/invoices/" + inv.ID.String() + "/status", map[string]string{"status": "draft"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"edit issued invoice", http.MethodPatch, "/api/v1/invoices/" + inv.ID.String(), map[string]string{"notes": "x"}, http.StatusUnprocessableEntity, "VALIDATION_ERROR"},
		{"unknown schema", http.MethodGet, "/api/v1/schemas/nope", nil, http.StatusNotFound, "NOT_FOUND"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := f.do(tt.method, tt.path, tt.body)
			require.Equal(t, tt.status, rec.Code, rec.Body.String())
			body := decode[errorBody](t, rec)
			assert.Equal(t, tt.code, body.Code)
			assert.NotEmpty(t, body.RequestID)
		})
	}
}

func TestDuplicateXReportIsConflict(t *testing.T) {
	f := newAPI(t)

	rec := f.do(http.MethodPost, "/api/v1/x-reports", nil)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	rep := decode[core.CashReconciliation](t, rec)
	assert.Equal(t, "XR-00001", rep.ReportNumber)

	rec = f.do(http.MethodPost, "/api/v1/x-reports", map[string]string{"date": "2026-03-15"})
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "CONFLICT", decode[errorBody](t, rec).Code)

	rec = f.do(http.MethodPost, "/api/v1/x-reports/"+rep.ID.String()+"/close", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.True(t, decode[core.CashReconciliation](t, rec).IsClosed)
}

func TestTenantIsolation(t *testing.T) {
	f := newAPI(t)
	inv := f.createIssuedInvoice()

	other := tokenFor(t, uuid.New())
	rec := f.doAs(other, http.MethodGet, "/api/v1/invoices/"+inv.ID.String(), nil)
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = f.doAs(other, http.MethodGet, "/api/v1/invoices", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[core.Page[core.Invoice]](t, rec).Total)
}

func TestSchemaEndpoint(t *testing.T) {
	f := newAPI(t)
	rec := f.doAs("", http.MethodGet, "/api/v1/schemas/create-invoice", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "application/schema+json", rec.Header().Get("Content-Type"))

	schema := decode[map[string]any](t, rec)
	props, ok := schema["properties"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, props, "line_items")
}

func TestCORSPreflight(t *testing.T) {
	f := newAPI(t)
	req := httptest.NewRequest(http.MethodOptions, "/api/v1/invoices", nil)
	req.Header.Set("Origin", "https://app.example.com")
	rec := httptest.NewRecorder()
	f.handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusNoContent, rec.Code)
	assert.Equal(t, "https://app.example.com", rec.Header().Get("Access-Control-Allow-Origin"))
}
