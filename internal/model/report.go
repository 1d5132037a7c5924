package model

import (
	"time"
)

// PortfolioSummary aggregates cash movement and exposure across all loans
type PortfolioSummary struct {
	TotalCashIn          float64        `json:"total_cash_in"`
	TotalCashOut         float64        `json:"total_cash_out"`
	TotalSavingsBalance  float64        `json:"total_savings_balance"`
	TotalAdasheBalance   float64        `json:"total_adashe_balance"`
	OutstandingPrincipal float64        `json:"outstanding_principal"`
	ActiveLoans          int64          `json:"active_loans"`
	CategoryFlows        []CategoryFlow `json:"category_flows"`
	TierBreakdown        []TierExposure `json:"tier_breakdown"`
	TimeRangeStartDate   time.Time      `json:"time_range_start_date"`
	TimeRangeEndDate     time.Time      `json:"time_range_end_date"`
}

// CategoryFlow represents cash in/out totals for one payment category
type CategoryFlow struct {
	Category string  `json:"category"`
	CashIn   float64 `json:"cash_in"`
	CashOut  float64 `json:"cash_out"`
}

// TierExposure represents the portfolio-at-risk slice for one delinquency tier
type TierExposure struct {
	Tier      string  `json:"tier"`
	Loans     int64   `json:"loans"`
	Principal float64 `json:"principal"`
}
