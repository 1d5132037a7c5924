// Package schedule derives the expected instalment schedule for a loan and
// annotates each period against the cumulative amount actually repaid.
// Everything here is recomputed from scratch on each call; nothing is stored.
package schedule

import (
	"time"

	"github.com/shopspring/decimal"

	"microfin/internal/model"
)

// Installment status constants
const (
	StatusPaid    = "PAID"
	StatusPartial = "PARTIAL"
	StatusOverdue = "OVERDUE"
	StatusPending = "PENDING"
)

const (
	weeklyPeriods      = 16
	monthlyPeriods     = 3
	monthlyGraceMonths = 4
)

// tolerance absorbs division remainders when expected amounts do not split
// the principal exactly (e.g. principal/3).
var tolerance = decimal.NewFromFloat(0.01)

// Installment is one expected repayment period.
type Installment struct {
	Period         int             `json:"period"`
	DueDate        time.Time       `json:"due_date"`
	ExpectedAmount decimal.Decimal `json:"expected_amount"`
	Status         string          `json:"status"`
}

// Generate produces the full instalment schedule for a loan. It returns nil
// for an undisbursed loan or an unknown loan type. totalPaid is the sum of
// instalment-category In payments; it is allocated waterfall-style against the
// periods in chronological order, so per-period status is a pure function of
// the cumulative amount paid and the calendar date.
func Generate(loanType string, principal decimal.Decimal, disbursedAt *time.Time, totalPaid decimal.Decimal, today time.Time) []Installment {
	if disbursedAt == nil {
		return nil
	}

	var entries []Installment
	switch loanType {
	case model.LoanTypeWeeklyBusiness:
		expected := principal.Div(decimal.NewFromInt(weeklyPeriods))
		for i := 1; i <= weeklyPeriods; i++ {
			entries = append(entries, Installment{
				Period:         i,
				DueDate:        disbursedAt.AddDate(0, 0, 7*i),
				ExpectedAmount: expected,
			})
		}
	case model.LoanTypeMonthlyAgric:
		expected := principal.Div(decimal.NewFromInt(monthlyPeriods))
		for i := 1; i <= monthlyPeriods; i++ {
			entries = append(entries, Installment{
				Period:         i,
				DueDate:        disbursedAt.AddDate(0, monthlyGraceMonths+i, 0),
				ExpectedAmount: expected,
			})
		}
	default:
		return nil
	}

	remaining := totalPaid
	for i := range entries {
		e := &entries[i]
		switch {
		case remaining.GreaterThanOrEqual(e.ExpectedAmount.Sub(tolerance)):
			e.Status = StatusPaid
			remaining = remaining.Sub(e.ExpectedAmount)
		case remaining.GreaterThan(decimal.Zero):
			e.Status = StatusPartial
			remaining = decimal.Zero
		case e.DueDate.Before(today):
			e.Status = StatusOverdue
		default:
			e.Status = StatusPending
		}
	}

	return entries
}

// DaysPastDue returns the age in days of the oldest period that is due but
// not fully paid, or 0 when nothing is late. Feeds the delinquency sweep.
func DaysPastDue(entries []Installment, today time.Time) int {
	for _, e := range entries {
		if e.Status == StatusPaid {
			continue
		}
		if e.DueDate.Before(today) {
			return int(today.Sub(e.DueDate).Hours() / 24)
		}
		return 0
	}
	return 0
}
