package core_test

import (
	"testing"
	"time"

	"github.com/samber/lo"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"agency-ledger/internal/core"
)

func TestCalculateDiscount(t *testing.T) {
	day := func(s string) time.Time {
		t, err := time.Parse(time.DateOnly, s)
		if err != nil {
			panic(err)
		}
		return t
	}

	tests := []struct {
		name    string
		program core.DiscountProgram
		base    string
		today   time.Time
		want    string
		wantErr bool
	}{
		{
			name:    "plain percentage",
			program: core.DiscountProgram{Name: "Ramadan", Percentage: d("10"), IsActive: true},
			base:    "245",
			today:   day("2026-03-15"),
			want:    "24.50",
		},
		{
			name:    "capped by max amount",
			program: core.DiscountProgram{Name: "VIP", Percentage: d("50"), MaxDiscountAmount: lo.ToPtr(d("100")), IsActive: true},
			base:    "1000",
			today:   day("2026-03-15"),
			want:    "100.00",
		},
		{
			name:    "inactive",
			program: core.DiscountProgram{Name: "Old", Percentage: d("10"), IsActive: false},
			base:    "245",
			today:   day("2026-03-15"),
			wantErr: true,
		},
		{
			name: "before window",
			program: core.DiscountProgram{Name: "Summer", Percentage: d("10"), IsActive: true,
				ValidFrom: lo.ToPtr(day("2026-06-01")), ValidTo: lo.ToPtr(day("2026-08-31"))},
			base:    "245",
			today:   day("2026-05-31"),
			wantErr: true,
		},
		{
			name: "after window",
			program: core.DiscountProgram{Name: "Summer", Percentage: d("10"), IsActive: true,
				ValidFrom: lo.ToPtr(day("2026-06-01")), ValidTo: lo.ToPtr(day("2026-08-31"))},
			base:    "245",
			today:   day("2026-09-01"),
			wantErr: true,
		},
		{
			name: "first day of window is inclusive",
			program: core.DiscountProgram{Name: "Summer", Percentage: d("10"), IsActive: true,
				ValidFrom: lo.ToPtr(day("2026-06-01")), ValidTo: lo.ToPtr(day("2026-08-31"))},
			base:  "245",
			today: day("2026-06-01").Add(23 * time.Hour),
			want:  "24.50",
		},
		{
			name: "last day of window is inclusive",
			program: core.DiscountProgram{Name: "Summer", Percentage: d("10"), IsActive: true,
				ValidFrom: lo.ToPtr(day("2026-06-01")), ValidTo: lo.ToPtr(day("2026-08-31"))},
			base:  "245",
			today: day("2026-08-31").Add(23 * time.Hour),
			want:  "24.50",
		},
		{
			name: "open ended window",
			program: core.DiscountProgram{Name: "Loyalty", Percentage: d("7.5"), IsActive: true,
				ValidFrom: lo.ToPtr(day("2020-01-01"))},
			base:  "99.99",
			today: day("2030-01-01"),
			want:  "7.50",
		},
	}

	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			got, err := core.CalculateDiscount(tc.program, d(tc.base), tc.today)
			if tc.wantErr {
				require.Error(t, err)
				assert.Equal(t, core.CodeValidation, core.ErrorCodeOf(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.want, got.StringFixed(2))
		})
	}
}

func TestCalculateDiscount_Pure(t *testing.T) {
	p := core.DiscountProgram{Name: "VIP", Percentage: d("12.5"), MaxDiscountAmount: lo.ToPtr(d("40")), IsActive: true}
	first, err := core.CalculateDiscount(p, d("300"), testToday)
	require.NoError(t, err)
	second, err := core.CalculateDiscount(p, d("300"), testToday)
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, "37.50", first.StringFixed(2))
	assert.Equal(t, "40", p.MaxDiscountAmount.String())
}
