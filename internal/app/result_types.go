package app

import "agency-ledger/internal/core"

// MarkOverdueResult is returned by MarkOverdue.
type MarkOverdueResult struct {
	Count    int            `json:"count"`
	Invoices []core.Invoice `json:"invoices"`
}
