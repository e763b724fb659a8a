package core

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// DiscountProgram is a reusable percentage promotion. Invoices keep a
// snapshot of it, so edits here never change an issued invoice.
type DiscountProgram struct {
	ID                uuid.UUID        `json:"id"`
	TenantID          uuid.UUID        `json:"tenant_id"`
	Name              string           `json:"name"`
	Percentage        decimal.Decimal  `json:"percentage"`
	MaxDiscountAmount *decimal.Decimal `json:"max_discount_amount,omitempty"`
	ValidFrom         *time.Time       `json:"valid_from,omitempty"`
	ValidTo           *time.Time       `json:"valid_to,omitempty"`
	IsActive          bool             `json:"is_active"`
	CardNumber        string           `json:"card_number,omitempty"`

	Audit
}

type CreateDiscountProgramRequest struct {
	Name              string
	Percentage        decimal.Decimal
	MaxDiscountAmount *decimal.Decimal
	ValidFrom         *time.Time
	ValidTo           *time.Time
	CardNumber        string
}

// CalculateDiscount returns the discount the program grants on base at day today.
// It is a pure function of its inputs.
func CalculateDiscount(p DiscountProgram, base decimal.Decimal, today time.Time) (decimal.Decimal, error) {
	if !p.IsActive {
		return decimal.Zero, Validation("discount program %q is not active", p.Name)
	}

	window := DateRange{From: p.ValidFrom, To: p.ValidTo}
	if !window.Contains(today) {
		return decimal.Zero, Validation("discount program %q is not valid on %s", p.Name, DateOf(today).Format(time.DateOnly))
	}

	amount := Percent(base, p.Percentage)
	if p.MaxDiscountAmount != nil && amount.GreaterThan(*p.MaxDiscountAmount) {
		amount = *p.MaxDiscountAmount
	}
	return amount, nil
}

func validateDiscountProgram(req CreateDiscountProgramRequest) error {
	if req.Name == "" {
		return Validation("discount program name is required")
	}
	if req.Percentage.IsNegative() || req.Percentage.GreaterThan(hundred) {
		return Validation("discount percentage must be between 0 and 100, got %s", req.Percentage)
	}
	if req.MaxDiscountAmount != nil && req.MaxDiscountAmount.IsNegative() {
		return Validation("max discount amount cannot be negative")
	}
	if req.ValidFrom != nil && req.ValidTo != nil && DateOf(*req.ValidTo).Before(DateOf(*req.ValidFrom)) {
		return Validation("valid_to must not be before valid_from")
	}
	return nil
}
