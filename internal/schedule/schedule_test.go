package schedule_test

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"microfin/internal/model"
	"microfin/internal/schedule"
)

func d(v int64) decimal.Decimal { return decimal.NewFromInt(v) }

func TestGenerateWeekly(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	today := disbursed

	entries := schedule.Generate(model.LoanTypeWeeklyBusiness, d(160000), &disbursed, decimal.Zero, today)
	require.Len(t, entries, 16)

	assert.Equal(t, 1, entries[0].Period)
	assert.Equal(t, disbursed.AddDate(0, 0, 7), entries[0].DueDate)
	assert.True(t, entries[0].ExpectedAmount.Equal(d(10000)), "expected 10000, got %s", entries[0].ExpectedAmount)
	assert.Equal(t, disbursed.AddDate(0, 0, 7*16), entries[15].DueDate)

	for _, e := range entries {
		assert.Equal(t, schedule.StatusPending, e.Status)
	}
}

func TestGenerateMonthlyGracePeriod(t *testing.T) {
	disbursed := time.Date(2026, 1, 15, 0, 0, 0, 0, time.UTC)

	entries := schedule.Generate(model.LoanTypeMonthlyAgric, d(48000), &disbursed, decimal.Zero, disbursed)
	require.Len(t, entries, 3)

	// First instalment lands after the grace window, then monthly.
	assert.Equal(t, disbursed.AddDate(0, 5, 0), entries[0].DueDate)
	assert.Equal(t, disbursed.AddDate(0, 6, 0), entries[1].DueDate)
	assert.Equal(t, disbursed.AddDate(0, 7, 0), entries[2].DueDate)
	assert.True(t, entries[0].ExpectedAmount.Equal(d(16000)))
}

func TestGenerateUndisbursedReturnsNil(t *testing.T) {
	entries := schedule.Generate(model.LoanTypeWeeklyBusiness, d(160000), nil, decimal.Zero, time.Now())
	assert.Nil(t, entries)
}

func TestGenerateUnknownTypeReturnsNil(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	entries := schedule.Generate("DAILY_MARKET", d(160000), &disbursed, decimal.Zero, disbursed)
	assert.Nil(t, entries)
}

func TestGenerateWaterfallAllocation(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	today := disbursed.AddDate(0, 0, 22) // periods 1 through 3 are due

	// 48000 over 16 weeks = 3000 per period; 4500 paid covers period 1 fully
	// and period 2 partially.
	entries := schedule.Generate(model.LoanTypeWeeklyBusiness, d(48000), &disbursed, d(4500), today)
	require.Len(t, entries, 16)

	assert.Equal(t, schedule.StatusPaid, entries[0].Status)
	assert.Equal(t, schedule.StatusPartial, entries[1].Status)
	assert.Equal(t, schedule.StatusOverdue, entries[2].Status, "due but unfunded period is overdue")
	assert.Equal(t, schedule.StatusPending, entries[3].Status)
}

func TestGenerateToleranceAbsorbsDivisionRemainder(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	today := disbursed.AddDate(1, 0, 0)

	// 100/3 does not divide evenly; paying the full principal must still mark
	// every period paid.
	entries := schedule.Generate(model.LoanTypeMonthlyAgric, d(100), &disbursed, d(100), today)
	require.Len(t, entries, 3)
	for _, e := range entries {
		assert.Equal(t, schedule.StatusPaid, e.Status)
	}
}

func TestGenerateDeterministic(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)
	today := disbursed.AddDate(0, 0, 45)

	first := schedule.Generate(model.LoanTypeWeeklyBusiness, d(48000), &disbursed, d(7500), today)
	second := schedule.Generate(model.LoanTypeWeeklyBusiness, d(48000), &disbursed, d(7500), today)

	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Period, second[i].Period)
		assert.Equal(t, first[i].DueDate, second[i].DueDate)
		assert.Equal(t, first[i].Status, second[i].Status)
		assert.True(t, first[i].ExpectedAmount.Equal(second[i].ExpectedAmount))
	}
}

func TestDaysPastDue(t *testing.T) {
	disbursed := time.Date(2026, 1, 5, 0, 0, 0, 0, time.UTC)

	tests := []struct {
		name      string
		totalPaid decimal.Decimal
		today     time.Time
		want      int
	}{
		{
			name:      "nothing due yet",
			totalPaid: decimal.Zero,
			today:     disbursed.AddDate(0, 0, 3),
			want:      0,
		},
		{
			name:      "first period ten days late",
			totalPaid: decimal.Zero,
			today:     disbursed.AddDate(0, 0, 17),
			want:      10,
		},
		{
			name:      "first period paid, second on time",
			totalPaid: d(3000),
			today:     disbursed.AddDate(0, 0, 10),
			want:      0,
		},
		{
			name:      "partial payment does not clear lateness",
			totalPaid: d(1500),
			today:     disbursed.AddDate(0, 0, 17),
			want:      10,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			entries := schedule.Generate(model.LoanTypeWeeklyBusiness, d(48000), &disbursed, tt.totalPaid, tt.today)
			assert.Equal(t, tt.want, schedule.DaysPastDue(entries, tt.today))
		})
	}
}

func TestDaysPastDueEmptySchedule(t *testing.T) {
	assert.Equal(t, 0, schedule.DaysPastDue(nil, time.Now()))
}
