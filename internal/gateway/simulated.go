package gateway

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"

	"agency-ledger/internal/core"
)

// Simulated approves every charge and refund. It is used when no gateway URL
// is configured.
type Simulated struct {
	log zerolog.Logger
}

func NewSimulated(log zerolog.Logger) *Simulated {
	return &Simulated{log: log}
}

func (s *Simulated) Provider() string { return "simulated" }

func (s *Simulated) Initiate(ctx context.Context, req core.GatewayRequest) (core.GatewayResult, error) {
	if err := ctx.Err(); err != nil {
		return core.GatewayResult{}, err
	}
	txID := "SIM-" + uuid.NewString()
	s.log.Debug().Str("reference", req.InvoiceNumber).Str("transaction_id", txID).Msg("simulated charge")
	return core.GatewayResult{
		Success:       true,
		TransactionID: txID,
		Status:        "APPROVED",
		RawResponse:   fmt.Sprintf(`{"transaction_id":%q,"status":"APPROVED","amount":%q}`, txID, req.Amount.StringFixed(2)),
	}, nil
}

func (s *Simulated) Refund(ctx context.Context, transactionID string, amount decimal.Decimal) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.log.Debug().Str("transaction_id", transactionID).Str("amount", amount.StringFixed(2)).Msg("simulated refund")
	return nil
}

// New picks the HTTP gateway when baseURL is set and the simulator otherwise.
func New(baseURL, apiKey, provider string, log zerolog.Logger) core.PaymentGateway {
	if baseURL == "" {
		return NewSimulated(log)
	}
	return NewHTTP(baseURL, apiKey, provider, nil, log)
}
