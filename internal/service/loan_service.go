package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"microfin/internal/model"
	"microfin/internal/repository"
	"microfin/internal/risk"
	"microfin/internal/schedule"
	"microfin/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

// --- DTOs ---

type CreateLoanRequest struct {
	BorrowerID string `json:"borrower_id" binding:"required"`
	LoanType   string `json:"loan_type" binding:"required,oneof=WEEKLY_BUSINESS MONTHLY_AGRIC"`
	Principal  string `json:"principal" binding:"required"` // Decimal string, includes financed interest
}

type UpdateDPDRequest struct {
	DPD int `json:"dpd" binding:"min=0"`
}

type LoanResponse struct {
	ID                 string  `json:"id"`
	BorrowerID         string  `json:"borrower_id"`
	BorrowerName       string  `json:"borrower_name,omitempty"`
	LoanType           string  `json:"loan_type"`
	Principal          string  `json:"principal"`
	DisbursementStatus string  `json:"disbursement_status"`
	DisbursementDate   *string `json:"disbursement_date"`
	SavingsBalance     string  `json:"savings_balance"`
	AdasheBalance      string  `json:"adashe_balance"`
	DPD                int     `json:"dpd"`
	RiskTier           string  `json:"risk_tier"`
	CreatedAt          string  `json:"created_at"`
}

type LoanDetailResponse struct {
	LoanResponse
	OutstandingPrincipal string               `json:"outstanding_principal"`
	PendingRequests      []WithdrawalResponse `json:"pending_requests"`
}

type InstallmentResponse struct {
	Period         int    `json:"period"`
	DueDate        string `json:"due_date"`
	ExpectedAmount string `json:"expected_amount"`
	Status         string `json:"status"`
}

type LoanFilter struct {
	Tier               string
	DisbursementStatus string
	BorrowerID         string
	Page               int
	Limit              int
}

// --- Interface ---

type LoanService interface {
	CreateLoan(ctx context.Context, actorID string, req CreateLoanRequest) (LoanResponse, error)
	GetLoan(ctx context.Context, id string) (LoanDetailResponse, error)
	ListLoans(ctx context.Context, filter LoanFilter) ([]LoanResponse, int64, error)
	GetSchedule(ctx context.Context, id string) ([]InstallmentResponse, error)
	UpdateDPD(ctx context.Context, id, actorID string, dpd int) (LoanResponse, error)
	RefreshDelinquency(ctx context.Context) error
}

type loanService struct {
	loanRepo       repository.LoanRepository
	borrowerRepo   repository.BorrowerRepository
	paymentRepo    repository.PaymentRepository
	withdrawalRepo repository.WithdrawalRepository
	activityRepo   repository.ActivityRepository
	txManager      repository.TransactionManager
	locks          *LoanLocker
	logger         *logrus.Logger
}

func NewLoanService(
	loanRepo repository.LoanRepository,
	borrowerRepo repository.BorrowerRepository,
	paymentRepo repository.PaymentRepository,
	withdrawalRepo repository.WithdrawalRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	locks *LoanLocker,
	logger *logrus.Logger,
) LoanService {
	return &loanService{
		loanRepo:       loanRepo,
		borrowerRepo:   borrowerRepo,
		paymentRepo:    paymentRepo,
		withdrawalRepo: withdrawalRepo,
		activityRepo:   activityRepo,
		txManager:      txManager,
		locks:          locks,
		logger:         logger,
	}
}

// --- Implementation ---

func (s *loanService) CreateLoan(ctx context.Context, actorID string, req CreateLoanRequest) (LoanResponse, error) {
	borrowerID, err := uuid.Parse(req.BorrowerID)
	if err != nil {
		return LoanResponse{}, fmt.Errorf("invalid borrower id %q: %w", req.BorrowerID, model.ErrNotFound)
	}

	principal, err := decimal.NewFromString(req.Principal)
	if err != nil || principal.LessThanOrEqual(decimal.Zero) {
		return LoanResponse{}, fmt.Errorf("principal %q: %w", req.Principal, model.ErrInvalidAmount)
	}

	loan := model.Loan{
		BorrowerID:         borrowerID,
		LoanType:           req.LoanType,
		Principal:          principal,
		DisbursementStatus: workflow.StatusPendingStage1,
		SavingsBalance:     decimal.Zero,
		AdasheBalance:      decimal.Zero,
		RiskTier:           risk.TierCurrent,
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.borrowerRepo.FindByID(txCtx, borrowerID); findErr != nil {
			return findErr
		}

		if createErr := s.loanRepo.Create(txCtx, &loan); createErr != nil {
			return fmt.Errorf("failed to create loan: %w", createErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"loan_type": req.LoanType,
			"principal": principal.StringFixed(2),
		})
		entry := model.ActivityLog{
			ActorID:    parseActor(actorID),
			Action:     model.ActionCreateLoan,
			EntityID:   loan.ID.String(),
			EntityName: req.LoanType,
			Details:    string(details),
		}
		if logErr := s.activityRepo.Log(txCtx, &entry); logErr != nil {
			return fmt.Errorf("failed to write activity log: %w", logErr)
		}
		return nil
	})

	if err != nil {
		return LoanResponse{}, err
	}

	return toLoanResponse(loan), nil
}

func (s *loanService) GetLoan(ctx context.Context, id string) (LoanDetailResponse, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return LoanDetailResponse{}, fmt.Errorf("invalid loan id %q: %w", id, model.ErrNotFound)
	}

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return LoanDetailResponse{}, err
	}

	paid, err := s.paymentRepo.SumByCategory(ctx, loanID, model.PaymentCategoryInstalment, model.DirectionIn)
	if err != nil {
		return LoanDetailResponse{}, fmt.Errorf("failed to sum instalments: %w", err)
	}

	pending, err := s.withdrawalRepo.ListPendingByLoan(ctx, loanID)
	if err != nil {
		return LoanDetailResponse{}, fmt.Errorf("failed to fetch pending requests: %w", err)
	}

	detail := LoanDetailResponse{
		LoanResponse:         toLoanResponse(*loan),
		OutstandingPrincipal: loan.OutstandingPrincipal(paid).StringFixed(2),
		PendingRequests:      make([]WithdrawalResponse, 0, len(pending)),
	}
	for _, r := range pending {
		detail.PendingRequests = append(detail.PendingRequests, toWithdrawalResponse(r))
	}

	return detail, nil
}

func (s *loanService) ListLoans(ctx context.Context, filter LoanFilter) ([]LoanResponse, int64, error) {
	var borrowerID *uuid.UUID
	if filter.BorrowerID != "" {
		parsed, err := uuid.Parse(filter.BorrowerID)
		if err != nil {
			return nil, 0, fmt.Errorf("invalid borrower id %q: %w", filter.BorrowerID, model.ErrNotFound)
		}
		borrowerID = &parsed
	}

	loans, total, err := s.loanRepo.List(ctx, filter.Tier, filter.DisbursementStatus, borrowerID, filter.Page, filter.Limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch loans: %w", err)
	}

	result := make([]LoanResponse, 0, len(loans))
	for _, l := range loans {
		result = append(result, toLoanResponse(l))
	}
	return result, total, nil
}

// GetSchedule derives the instalment schedule on demand. An undisbursed loan
// yields an empty schedule.
func (s *loanService) GetSchedule(ctx context.Context, id string) ([]InstallmentResponse, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid loan id %q: %w", id, model.ErrNotFound)
	}

	loan, err := s.loanRepo.FindByID(ctx, loanID)
	if err != nil {
		return nil, err
	}

	paid, err := s.paymentRepo.SumByCategory(ctx, loanID, model.PaymentCategoryInstalment, model.DirectionIn)
	if err != nil {
		return nil, fmt.Errorf("failed to sum instalments: %w", err)
	}

	entries := schedule.Generate(loan.LoanType, loan.Principal, loan.DisbursementDate, paid, time.Now())
	result := make([]InstallmentResponse, 0, len(entries))
	for _, e := range entries {
		result = append(result, InstallmentResponse{
			Period:         e.Period,
			DueDate:        e.DueDate.Format("2006-01-02"),
			ExpectedAmount: e.ExpectedAmount.StringFixed(2),
			Status:         e.Status,
		})
	}
	return result, nil
}

// UpdateDPD sets days-past-due from an external source and recomputes the
// loan's tier. The delinquency sweep maintains the same fields on a schedule.
func (s *loanService) UpdateDPD(ctx context.Context, id, actorID string, dpd int) (LoanResponse, error) {
	loanID, err := uuid.Parse(id)
	if err != nil {
		return LoanResponse{}, fmt.Errorf("invalid loan id %q: %w", id, model.ErrNotFound)
	}

	unlock := s.locks.Lock(loanID)
	defer unlock()

	var loan *model.Loan
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		loan, findErr = s.loanRepo.FindByIDForUpdate(txCtx, loanID)
		if findErr != nil {
			return findErr
		}

		loan.DPD = dpd
		loan.RiskTier = risk.Classify(dpd)

		if saveErr := s.loanRepo.Update(txCtx, loan); saveErr != nil {
			return fmt.Errorf("failed to update loan: %w", saveErr)
		}

		details, _ := json.Marshal(map[string]interface{}{
			"dpd":  dpd,
			"tier": loan.RiskTier,
		})
		entry := model.ActivityLog{
			ActorID:  parseActor(actorID),
			Action:   model.ActionUpdateDPD,
			EntityID: loan.ID.String(),
			Details:  string(details),
		}
		if logErr := s.activityRepo.Log(txCtx, &entry); logErr != nil {
			return fmt.Errorf("failed to write activity log: %w", logErr)
		}
		return nil
	})

	if err != nil {
		return LoanResponse{}, err
	}

	return toLoanResponse(*loan), nil
}

// RefreshDelinquency recomputes DPD from each disbursed loan's schedule and
// reclassifies its tier. Loans that fail are logged and skipped so one bad
// row cannot stall the sweep.
func (s *loanService) RefreshDelinquency(ctx context.Context) error {
	loans, err := s.loanRepo.ListDisbursed(ctx)
	if err != nil {
		return fmt.Errorf("failed to list disbursed loans: %w", err)
	}

	today := time.Now()
	for i := range loans {
		loan := &loans[i]

		paid, sumErr := s.paymentRepo.SumByCategory(ctx, loan.ID, model.PaymentCategoryInstalment, model.DirectionIn)
		if sumErr != nil {
			s.logger.WithError(sumErr).WithField("loan_id", loan.ID).Warn("delinquency sweep: failed to sum instalments")
			continue
		}

		entries := schedule.Generate(loan.LoanType, loan.Principal, loan.DisbursementDate, paid, today)
		dpd := schedule.DaysPastDue(entries, today)
		if dpd == loan.DPD {
			continue
		}
		tier := risk.Classify(dpd)

		// The listed snapshot is stale by now; write only the two
		// delinquency columns so balances mutated since the read survive.
		unlock := s.locks.Lock(loan.ID)
		updateErr := s.loanRepo.UpdateDelinquency(ctx, loan.ID, dpd, tier)
		unlock()

		if updateErr != nil {
			s.logger.WithError(updateErr).WithField("loan_id", loan.ID).Warn("delinquency sweep: failed to update loan")
			continue
		}

		s.logger.WithFields(logrus.Fields{
			"loan_id": loan.ID,
			"dpd":     dpd,
			"tier":    tier,
		}).Info("delinquency sweep: reclassified loan")
	}

	return nil
}

// --- Helpers ---

func toLoanResponse(l model.Loan) LoanResponse {
	resp := LoanResponse{
		ID:                 l.ID.String(),
		BorrowerID:         l.BorrowerID.String(),
		LoanType:           l.LoanType,
		Principal:          l.Principal.StringFixed(2),
		DisbursementStatus: l.DisbursementStatus,
		SavingsBalance:     l.SavingsBalance.StringFixed(2),
		AdasheBalance:      l.AdasheBalance.StringFixed(2),
		DPD:                l.DPD,
		RiskTier:           l.RiskTier,
		CreatedAt:          l.CreatedAt.Format(time.RFC3339),
	}
	if l.Borrower != nil {
		resp.BorrowerName = l.Borrower.Name
	}
	if l.DisbursementDate != nil {
		s := l.DisbursementDate.Format(time.RFC3339)
		resp.DisbursementDate = &s
	}
	return resp
}
