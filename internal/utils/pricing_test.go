package utils

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func TestParseDate(t *testing.T) {
	t.Run("Valid date", func(t *testing.T) {
		d, err := ParseDate("2024-01-15")
		assert.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 15), d)
	})

	t.Run("RFC3339 keeps calendar date", func(t *testing.T) {
		d, err := ParseDate("2024-01-15T22:30:00+01:00")
		assert.NoError(t, err)
		assert.Equal(t, date(2024, time.January, 15), d)
	})

	t.Run("Invalid format", func(t *testing.T) {
		_, err := ParseDate("2024/01/15")
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "invalid date format")
	})

	t.Run("Invalid month", func(t *testing.T) {
		_, err := ParseDate("2024-13-15")
		assert.Error(t, err)
	})

	t.Run("Empty", func(t *testing.T) {
		_, err := ParseDate("  ")
		assert.Error(t, err)
	})
}

func TestRentalDays(t *testing.T) {
	tests := []struct {
		name     string
		start    time.Time
		end      time.Time
		expected int64
	}{
		{"same day is one day", date(2024, 1, 15), date(2024, 1, 15), 1},
		{"next day", date(2024, 1, 15), date(2024, 1, 16), 1},
		{"weekend", date(2024, 1, 12), date(2024, 1, 14), 2},
		{"across month", date(2024, 1, 30), date(2024, 2, 2), 3},
		{"leap day", date(2024, 2, 28), date(2024, 3, 1), 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			days, err := RentalDays(tt.start, tt.end)
			assert.NoError(t, err)
			assert.Equal(t, tt.expected, days)
		})
	}

	t.Run("end before start", func(t *testing.T) {
		_, err := RentalDays(date(2024, 1, 15), date(2024, 1, 14))
		assert.Error(t, err)
		assert.Contains(t, err.Error(), "end date must be >= start date")
	})
}

func TestLineCost(t *testing.T) {
	cost := LineCost(decimal.RequireFromString("12.50"), 2, 3)
	assert.True(t, decimal.RequireFromString("75.00").Equal(cost), "got %s", cost)
}

func TestSettle(t *testing.T) {
	t.Run("one broken unit", func(t *testing.T) {
		s, err := Settle(decimal.RequireFromString("40.00"), []SettlementLine{
			{Quantity: 2, Broken: 1, ReplacementCost: decimal.RequireFromString("150.00")},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{1}, s.Healthy)
		assert.True(t, decimal.RequireFromString("150").Equal(s.DamageFine))
		assert.True(t, decimal.RequireFromString("190").Equal(s.FinalBill))
	})

	t.Run("no damage", func(t *testing.T) {
		s, err := Settle(decimal.RequireFromString("40.00"), []SettlementLine{
			{Quantity: 3, ReplacementCost: decimal.RequireFromString("10")},
			{Quantity: 1, ReplacementCost: decimal.RequireFromString("99")},
		})
		require.NoError(t, err)
		assert.Equal(t, []int32{3, 1}, s.Healthy)
		assert.True(t, s.DamageFine.IsZero())
		assert.True(t, s.RentalCost.Equal(s.FinalBill))
	})

	t.Run("more broken than rented", func(t *testing.T) {
		_, err := Settle(decimal.Zero, []SettlementLine{{Quantity: 1, Broken: 2}})
		assert.Error(t, err)
	})

	t.Run("negative broken", func(t *testing.T) {
		_, err := Settle(decimal.Zero, []SettlementLine{{Quantity: 1, Broken: -1}})
		assert.Error(t, err)
	})
}
