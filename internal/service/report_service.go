package service

import (
	"context"
	"time"

	"microfin/internal/model"
	"microfin/internal/repository"
	"microfin/internal/workflow"

	"gorm.io/gorm"
)

type ReportService interface {
	GetPortfolioSummary(ctx context.Context, startDate, endDate time.Time) (model.PortfolioSummary, error)
}

type reportService struct {
	db          *gorm.DB
	paymentRepo repository.PaymentRepository
}

func NewReportService(db *gorm.DB, paymentRepo repository.PaymentRepository) ReportService {
	return &reportService{db: db, paymentRepo: paymentRepo}
}

// GetPortfolioSummary aggregates cash movement in the requested window plus
// point-in-time exposure across all disbursed loans. Outstanding principal is
// derived here exactly as the ledger derives it per loan: principal minus
// instalments received.
func (s *reportService) GetPortfolioSummary(ctx context.Context, startDate, endDate time.Time) (model.PortfolioSummary, error) {
	var response model.PortfolioSummary
	response.TimeRangeStartDate = startDate
	response.TimeRangeEndDate = endDate

	// Cash movement in the window
	var cash struct {
		CashIn  float64
		CashOut float64
	}
	s.db.WithContext(ctx).Model(&model.Payment{}).
		Select("SUM(CASE WHEN direction = 'IN' THEN amount ELSE 0 END) as cash_in, "+
			"SUM(CASE WHEN direction = 'OUT' THEN amount ELSE 0 END) as cash_out").
		Where("paid_at >= ? AND paid_at <= ?", startDate, endDate).
		Scan(&cash)
	response.TotalCashIn = cash.CashIn
	response.TotalCashOut = cash.CashOut

	// Stored balances across all loans
	var balances struct {
		Savings float64
		Adashe  float64
	}
	s.db.WithContext(ctx).Model(&model.Loan{}).
		Select("COALESCE(SUM(savings_balance), 0) as savings, COALESCE(SUM(adashe_balance), 0) as adashe").
		Scan(&balances)
	response.TotalSavingsBalance = balances.Savings
	response.TotalAdasheBalance = balances.Adashe

	// Outstanding principal = disbursed principal - instalments received
	var disbursed struct {
		Principal float64
		Count     int64
	}
	s.db.WithContext(ctx).Model(&model.Loan{}).
		Select("COALESCE(SUM(principal), 0) as principal, COUNT(*) as count").
		Where("disbursement_status = ?", workflow.StatusApproved).
		Scan(&disbursed)
	response.ActiveLoans = disbursed.Count

	var repaid struct {
		Total float64
	}
	s.db.WithContext(ctx).Table("payments").
		Select("COALESCE(SUM(payments.amount), 0) as total").
		Joins("JOIN loans ON loans.id = payments.loan_id").
		Where("payments.category = ? AND payments.direction = ? AND loans.disbursement_status = ?",
			model.PaymentCategoryInstalment, model.DirectionIn, workflow.StatusApproved).
		Scan(&repaid)
	response.OutstandingPrincipal = disbursed.Principal - repaid.Total

	// Per-category cash flows in the window
	flows, err := s.paymentRepo.CategoryFlows(ctx, startDate, endDate)
	if err != nil {
		return model.PortfolioSummary{}, err
	}
	response.CategoryFlows = flows

	// Portfolio-at-risk by tier
	var tiers []model.TierExposure
	s.db.WithContext(ctx).Model(&model.Loan{}).
		Select("risk_tier as tier, COUNT(*) as loans, COALESCE(SUM(principal), 0) as principal").
		Where("disbursement_status = ?", workflow.StatusApproved).
		Group("risk_tier").
		Order("risk_tier ASC").
		Scan(&tiers)
	response.TierBreakdown = tiers

	return response, nil
}
