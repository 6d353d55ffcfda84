package utils

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const dateLayout = "2006-01-02"

// ParseDate converts a yyyy-mm-dd (or RFC 3339) string into a UTC calendar date
func ParseDate(dateStr string) (time.Time, error) {
	s := strings.TrimSpace(dateStr)
	if s == "" {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd")
	}
	if t, err := time.Parse(dateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid date format, expected yyyy-mm-dd: %q", dateStr)
	}
	return TruncateToDate(t), nil
}

// FormatDate renders a calendar date as yyyy-mm-dd
func FormatDate(t time.Time) string {
	return t.Format(dateLayout)
}

// TruncateToDate drops the time of day, keeping the calendar date t shows in its own location
func TruncateToDate(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// SameDate reports whether a and b fall on the same calendar date
func SameDate(a, b time.Time) bool {
	ay, am, ad := a.Date()
	by, bm, bd := b.Date()
	return ay == by && am == bm && ad == bd
}

// RentalDays counts the billable days between two dates. A same-day rental is
// charged as one day; otherwise the span end-start in whole days is charged.
func RentalDays(startDate, endDate time.Time) (int64, error) {
	start := TruncateToDate(startDate)
	end := TruncateToDate(endDate)
	if end.Before(start) {
		return 0, fmt.Errorf("end date must be >= start date")
	}
	hours := end.Sub(start).Hours()
	days := int64(hours / 24)
	if float64(days)*24 < hours {
		days++
	}
	if days < 1 {
		days = 1
	}
	return days, nil
}

// LineCost is price-per-day x quantity x days
func LineCost(pricePerDay decimal.Decimal, quantity int32, days int64) decimal.Decimal {
	return pricePerDay.
		Mul(decimal.NewFromInt32(quantity)).
		Mul(decimal.NewFromInt(days)).
		Round(2)
}

// DamageFine is broken units x replacement cost
func DamageFine(replacementCost decimal.Decimal, broken int32) decimal.Decimal {
	return replacementCost.Mul(decimal.NewFromInt32(broken)).Round(2)
}

// SettlementLine is the input for one rented item at return time
type SettlementLine struct {
	Quantity        int32
	Broken          int32
	ReplacementCost decimal.Decimal
}

// Settlement provides the outcome of a return
type Settlement struct {
	RentalCost decimal.Decimal
	DamageFine decimal.Decimal
	FinalBill  decimal.Decimal
	Healthy    []int32 // per input line, units going back to available stock
}

// Settle computes fines and the final bill for a return
func Settle(rentalCost decimal.Decimal, lines []SettlementLine) (Settlement, error) {
	out := Settlement{
		RentalCost: rentalCost.Round(2),
		DamageFine: decimal.Zero,
		Healthy:    make([]int32, len(lines)),
	}
	for i, l := range lines {
		if l.Broken < 0 {
			return Settlement{}, fmt.Errorf("broken count must be >= 0, got %d", l.Broken)
		}
		healthy := l.Quantity - l.Broken
		if healthy < 0 {
			return Settlement{}, fmt.Errorf("broken count %d exceeds rented quantity %d", l.Broken, l.Quantity)
		}
		out.Healthy[i] = healthy
		out.DamageFine = out.DamageFine.Add(DamageFine(l.ReplacementCost, l.Broken))
	}
	out.FinalBill = out.RentalCost.Add(out.DamageFine)
	return out, nil
}
