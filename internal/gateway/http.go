// Package gateway holds the payment processor adapters behind core.PaymentGateway.
package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"agency-ledger/internal/core"
)

// HTTP talks JSON to a hosted gateway. Deadlines come from the caller's ctx.
type HTTP struct {
	baseURL  string
	apiKey   string
	provider string
	client   *http.Client
	log      zerolog.Logger
}

func NewHTTP(baseURL, apiKey, provider string, client *http.Client, log zerolog.Logger) *HTTP {
	if client == nil {
		client = http.DefaultClient
	}
	if provider == "" {
		provider = "http"
	}
	return &HTTP{
		baseURL:  strings.TrimRight(baseURL, "/"),
		apiKey:   apiKey,
		provider: provider,
		client:   client,
		log:      log,
	}
}

func (g *HTTP) Provider() string { return g.provider }

type chargeRequest struct {
	Amount    string `json:"amount"`
	Currency  string `json:"currency"`
	Reference string `json:"reference"`
	Method    string `json:"method"`
}

type chargeResponse struct {
	TransactionID string `json:"transaction_id"`
	Status        string `json:"status"`
	Success       bool   `json:"success"`
}

type refundRequest struct {
	Amount string `json:"amount"`
}

func (g *HTTP) Initiate(ctx context.Context, req core.GatewayRequest) (core.GatewayResult, error) {
	body := chargeRequest{
		Amount:    req.Amount.StringFixed(2),
		Currency:  req.Currency,
		Reference: req.InvoiceNumber,
		Method:    string(req.Method),
	}
	raw, status, err := g.post(ctx, "/payments", body)
	if err != nil {
		return core.GatewayResult{}, err
	}
	if status >= 300 {
		return core.GatewayResult{Status: fmt.Sprintf("HTTP_%d", status), RawResponse: raw}, nil
	}

	var resp chargeResponse
	if err := json.Unmarshal([]byte(raw), &resp); err != nil {
		return core.GatewayResult{}, fmt.Errorf("failed to decode gateway response: %w", err)
	}
	g.log.Debug().
		Str("reference", req.InvoiceNumber).
		Str("transaction_id", resp.TransactionID).
		Str("status", resp.Status).
		Msg("gateway charge")
	return core.GatewayResult{
		Success:       resp.Success,
		TransactionID: resp.TransactionID,
		Status:        resp.Status,
		RawResponse:   raw,
	}, nil
}

func (g *HTTP) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error {
	raw, status, err := g.post(ctx, "/payments/"+url.PathEscape(transactionID)+"/refunds", refundRequest{Amount: amount.StringFixed(2)})
	if err != nil {
		return err
	}
	if status >= 300 {
		return fmt.Errorf("gateway refund of %s rejected with HTTP %d: %s", transactionID, status, raw)
	}
	return nil
}

func (g *HTTP) post(ctx context.Context, path string, body any) (string, int, error) {
	payload, err := json.Marshal(body)
	if err != nil {
		return "", 0, err
	}
	httpReq, err := http.NewRequestWithContext(ctx, http.MethodPost, g.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return "", 0, fmt.Errorf("failed to build gateway request: %w", err)
	}
	httpReq.Header.Set("Content-Type", "application/json")
	if g.apiKey != "" {
		httpReq.Header.Set("Authorization", "Bearer "+g.apiKey)
	}

	resp, err := g.client.Do(httpReq)
	if err != nil {
		return "", 0, fmt.Errorf("gateway request failed: %w", err)
	}
	defer resp.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(resp.Body, 1<<20))
	if err != nil {
		return "", resp.StatusCode, fmt.Errorf("failed to read gateway response: %w", err)
	}
	return string(raw), resp.StatusCode, nil
}
