package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"microfin/internal/model"
	"microfin/internal/repository"
	"microfin/internal/websocket"
	"microfin/internal/workflow"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// --- DTOs ---

type SubmitWithdrawalRequest struct {
	Category string `json:"category" binding:"required,oneof=SAVINGS ADASHE"`
	Amount   string `json:"amount" binding:"required"` // Decimal string
}

type RejectDTO struct {
	Reason string `json:"reason"`
}

type WithdrawalResponse struct {
	ID              string  `json:"id"`
	LoanID          string  `json:"loan_id"`
	Category        string  `json:"category"`
	Amount          string  `json:"amount"`
	Status          string  `json:"status"`
	RequestedBy     *string `json:"requested_by"`
	Stage1By        *string `json:"stage1_by"`
	Stage2By        *string `json:"stage2_by"`
	Stage3By        *string `json:"stage3_by"`
	PaymentID       *string `json:"payment_id"`
	RejectionReason string  `json:"rejection_reason"`
	ResolvedAt      *string `json:"resolved_at"`
	CreatedAt       string  `json:"created_at"`
}

type DisbursementResponse struct {
	LoanID             string  `json:"loan_id"`
	DisbursementStatus string  `json:"disbursement_status"`
	DisbursementDate   *string `json:"disbursement_date"`
}

// --- Interface ---

type ApprovalService interface {
	SubmitWithdrawal(ctx context.Context, loanID, actorID string, req SubmitWithdrawalRequest) (WithdrawalResponse, error)
	AdvanceWithdrawal(ctx context.Context, requestID, actorID string) (WithdrawalResponse, error)
	RejectWithdrawal(ctx context.Context, requestID, actorID, reason string) (WithdrawalResponse, error)
	ListWithdrawals(ctx context.Context, status string, page, limit int) ([]WithdrawalResponse, int64, error)
	AdvanceDisbursement(ctx context.Context, loanID, actorID string) (DisbursementResponse, error)
	RejectDisbursement(ctx context.Context, loanID, actorID, reason string) (DisbursementResponse, error)
}

type approvalService struct {
	loanRepo       repository.LoanRepository
	withdrawalRepo repository.WithdrawalRepository
	paymentRepo    repository.PaymentRepository
	activityRepo   repository.ActivityRepository
	txManager      repository.TransactionManager
	locks          *LoanLocker
	hub            *websocket.Hub
}

func NewApprovalService(
	loanRepo repository.LoanRepository,
	withdrawalRepo repository.WithdrawalRepository,
	paymentRepo repository.PaymentRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	locks *LoanLocker,
	hub *websocket.Hub,
) ApprovalService {
	return &approvalService{
		loanRepo:       loanRepo,
		withdrawalRepo: withdrawalRepo,
		paymentRepo:    paymentRepo,
		activityRepo:   activityRepo,
		txManager:      txManager,
		locks:          locks,
		hub:            hub,
	}
}

// --- Implementation ---

// SubmitWithdrawal is the only way an Out-direction savings/adashe movement
// can be initiated. It creates a PENDING_STAGE_1 request with no balance
// effect.
func (s *approvalService) SubmitWithdrawal(ctx context.Context, loanID, actorID string, req SubmitWithdrawalRequest) (WithdrawalResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return WithdrawalResponse{}, fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return WithdrawalResponse{}, fmt.Errorf("amount %q: %w", req.Amount, model.ErrInvalidAmount)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	request := model.WithdrawalRequest{
		LoanID:      id,
		Category:    req.Category,
		Amount:      amount,
		Status:      workflow.StatusPendingStage1,
		RequestedBy: parseActor(actorID),
	}

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if _, findErr := s.loanRepo.FindByID(txCtx, id); findErr != nil {
			return findErr
		}

		if createErr := s.withdrawalRepo.Create(txCtx, &request); createErr != nil {
			return fmt.Errorf("failed to create withdrawal request: %w", createErr)
		}

		return s.logApproval(txCtx, actorID, model.ActionSubmitWithdrawal, request.ID.String(), req.Category, map[string]interface{}{
			"loan_id": loanID,
			"amount":  amount.StringFixed(2),
		})
	})

	if err != nil {
		return WithdrawalResponse{}, err
	}

	s.publish("withdrawal.submitted", map[string]interface{}{
		"loan_id":    loanID,
		"request_id": request.ID.String(),
		"category":   request.Category,
		"amount":     request.Amount.StringFixed(2),
	})

	return toWithdrawalResponse(request), nil
}

// AdvanceWithdrawal moves a request exactly one stage forward. On reaching
// APPROVED the Out effect is applied and the payment posted atomically with
// the status change; if the balance cannot cover it, the transaction rolls
// back and the request stays at PENDING_STAGE_3 so the approval can be
// retried once funds exist.
func (s *approvalService) AdvanceWithdrawal(ctx context.Context, requestID, actorID string) (WithdrawalResponse, error) {
	rid, err := uuid.Parse(requestID)
	if err != nil {
		return WithdrawalResponse{}, fmt.Errorf("invalid request id %q: %w", requestID, model.ErrNotFound)
	}

	// Peek at the request to learn which aggregate to serialize on.
	peek, err := s.withdrawalRepo.FindByID(ctx, rid)
	if err != nil {
		return WithdrawalResponse{}, err
	}

	unlock := s.locks.Lock(peek.LoanID)
	defer unlock()

	var request *model.WithdrawalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		request, findErr = s.withdrawalRepo.FindByIDForUpdate(txCtx, rid)
		if findErr != nil {
			return findErr
		}

		next, advErr := workflow.Advance(request.Status)
		if advErr != nil {
			return fmt.Errorf("request %s: %w", requestID, advErr)
		}

		stamp := parseActor(actorID)
		switch workflow.Stage(request.Status) {
		case 1:
			request.Stage1By = stamp
		case 2:
			request.Stage2By = stamp
		case 3:
			request.Stage3By = stamp
		}
		request.Status = next

		action := model.ActionAdvanceWithdrawal
		if next == workflow.StatusApproved {
			action = model.ActionApproveWithdrawal
			if execErr := s.executeWithdrawal(txCtx, request); execErr != nil {
				return execErr
			}
		}

		if saveErr := s.withdrawalRepo.Update(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update withdrawal request: %w", saveErr)
		}

		return s.logApproval(txCtx, actorID, action, request.ID.String(), request.Category, map[string]interface{}{
			"loan_id": request.LoanID.String(),
			"status":  request.Status,
			"amount":  request.Amount.StringFixed(2),
		})
	})

	if err != nil {
		return WithdrawalResponse{}, err
	}

	s.publish("withdrawal.advanced", map[string]interface{}{
		"loan_id":    request.LoanID.String(),
		"request_id": request.ID.String(),
		"status":     request.Status,
	})

	return toWithdrawalResponse(*request), nil
}

// executeWithdrawal performs the side effect of terminal approval: the Out
// movement is applied through the aggregate directly, bypassing the
// direct-apply guard since this call originates from the workflow itself.
func (s *approvalService) executeWithdrawal(ctx context.Context, request *model.WithdrawalRequest) error {
	loan, err := s.loanRepo.FindByIDForUpdate(ctx, request.LoanID)
	if err != nil {
		return err
	}

	if err := loan.ApplyEffect(request.Category, model.DirectionOut, request.Amount); err != nil {
		return fmt.Errorf("approval of request %s: %w", request.ID, err)
	}

	now := time.Now()
	payment := model.Payment{
		LoanID:    loan.ID,
		Category:  request.Category,
		Direction: model.DirectionOut,
		Amount:    request.Amount,
		Notes:     model.WithdrawalNote,
		PaidAt:    now,
	}
	if err := s.paymentRepo.Create(ctx, &payment); err != nil {
		return fmt.Errorf("failed to create withdrawal payment: %w", err)
	}

	if err := s.loanRepo.Update(ctx, loan); err != nil {
		return fmt.Errorf("failed to update loan balances: %w", err)
	}

	request.PaymentID = &payment.ID
	request.ResolvedAt = &now
	return nil
}

// RejectWithdrawal terminates a pending request permanently with no ledger
// effect.
func (s *approvalService) RejectWithdrawal(ctx context.Context, requestID, actorID, reason string) (WithdrawalResponse, error) {
	rid, err := uuid.Parse(requestID)
	if err != nil {
		return WithdrawalResponse{}, fmt.Errorf("invalid request id %q: %w", requestID, model.ErrNotFound)
	}

	peek, err := s.withdrawalRepo.FindByID(ctx, rid)
	if err != nil {
		return WithdrawalResponse{}, err
	}

	unlock := s.locks.Lock(peek.LoanID)
	defer unlock()

	var request *model.WithdrawalRequest
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		request, findErr = s.withdrawalRepo.FindByIDForUpdate(txCtx, rid)
		if findErr != nil {
			return findErr
		}

		next, rejErr := workflow.Reject(request.Status)
		if rejErr != nil {
			return fmt.Errorf("request %s: %w", requestID, rejErr)
		}

		now := time.Now()
		request.Status = next
		request.RejectionReason = reason
		request.ResolvedAt = &now

		if saveErr := s.withdrawalRepo.Update(txCtx, request); saveErr != nil {
			return fmt.Errorf("failed to update withdrawal request: %w", saveErr)
		}

		return s.logApproval(txCtx, actorID, model.ActionRejectWithdrawal, request.ID.String(), request.Category, map[string]interface{}{
			"loan_id": request.LoanID.String(),
			"reason":  reason,
		})
	})

	if err != nil {
		return WithdrawalResponse{}, err
	}

	s.publish("withdrawal.rejected", map[string]interface{}{
		"loan_id":    request.LoanID.String(),
		"request_id": request.ID.String(),
	})

	return toWithdrawalResponse(*request), nil
}

func (s *approvalService) ListWithdrawals(ctx context.Context, status string, page, limit int) ([]WithdrawalResponse, int64, error) {
	requests, total, err := s.withdrawalRepo.List(ctx, status, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch withdrawal requests: %w", err)
	}

	result := make([]WithdrawalResponse, 0, len(requests))
	for _, r := range requests {
		result = append(result, toWithdrawalResponse(r))
	}
	return result, total, nil
}

// AdvanceDisbursement moves a loan's disbursement one stage forward. On
// terminal approval the disbursement date is set and the ledger becomes
// active: instalments can be posted and the schedule becomes derivable.
func (s *approvalService) AdvanceDisbursement(ctx context.Context, loanID, actorID string) (DisbursementResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return DisbursementResponse{}, fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var loan *model.Loan
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		loan, findErr = s.loanRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return findErr
		}

		next, advErr := workflow.Advance(loan.DisbursementStatus)
		if advErr != nil {
			return fmt.Errorf("loan %s disbursement: %w", loanID, advErr)
		}

		loan.DisbursementStatus = next
		if next == workflow.StatusApproved {
			now := time.Now()
			loan.DisbursementDate = &now
		}

		if saveErr := s.loanRepo.Update(txCtx, loan); saveErr != nil {
			return fmt.Errorf("failed to update loan: %w", saveErr)
		}

		return s.logApproval(txCtx, actorID, model.ActionAdvanceDisbursement, loan.ID.String(), loan.LoanType, map[string]interface{}{
			"status":    loan.DisbursementStatus,
			"principal": loan.Principal.StringFixed(2),
		})
	})

	if err != nil {
		return DisbursementResponse{}, err
	}

	s.publish("disbursement.advanced", map[string]interface{}{
		"loan_id": loanID,
		"status":  loan.DisbursementStatus,
	})

	return toDisbursementResponse(loan), nil
}

// RejectDisbursement terminates the disbursement chain; no other loan field
// changes.
func (s *approvalService) RejectDisbursement(ctx context.Context, loanID, actorID, reason string) (DisbursementResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return DisbursementResponse{}, fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var loan *model.Loan
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		loan, findErr = s.loanRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return findErr
		}

		next, rejErr := workflow.Reject(loan.DisbursementStatus)
		if rejErr != nil {
			return fmt.Errorf("loan %s disbursement: %w", loanID, rejErr)
		}

		loan.DisbursementStatus = next
		if saveErr := s.loanRepo.Update(txCtx, loan); saveErr != nil {
			return fmt.Errorf("failed to update loan: %w", saveErr)
		}

		return s.logApproval(txCtx, actorID, model.ActionRejectDisbursement, loan.ID.String(), loan.LoanType, map[string]interface{}{
			"reason": reason,
		})
	})

	if err != nil {
		return DisbursementResponse{}, err
	}

	s.publish("disbursement.rejected", map[string]interface{}{
		"loan_id": loanID,
	})

	return toDisbursementResponse(loan), nil
}

// --- Helpers ---

func (s *approvalService) logApproval(ctx context.Context, actorID, action, entityID, entityName string, details map[string]interface{}) error {
	payload, _ := json.Marshal(details)
	entry := model.ActivityLog{
		ActorID:    parseActor(actorID),
		Action:     action,
		EntityID:   entityID,
		EntityName: entityName,
		Details:    string(payload),
	}
	if err := s.activityRepo.Log(ctx, &entry); err != nil {
		return fmt.Errorf("failed to write activity log: %w", err)
	}
	return nil
}

func (s *approvalService) publish(event string, data map[string]interface{}) {
	if s.hub != nil {
		s.hub.Publish(event, data)
	}
}

func toWithdrawalResponse(r model.WithdrawalRequest) WithdrawalResponse {
	resp := WithdrawalResponse{
		ID:              r.ID.String(),
		LoanID:          r.LoanID.String(),
		Category:        r.Category,
		Amount:          r.Amount.StringFixed(2),
		Status:          r.Status,
		RejectionReason: r.RejectionReason,
		CreatedAt:       r.CreatedAt.Format(time.RFC3339),
	}

	resp.RequestedBy = uuidString(r.RequestedBy)
	resp.Stage1By = uuidString(r.Stage1By)
	resp.Stage2By = uuidString(r.Stage2By)
	resp.Stage3By = uuidString(r.Stage3By)
	resp.PaymentID = uuidString(r.PaymentID)
	if r.ResolvedAt != nil {
		s := r.ResolvedAt.Format(time.RFC3339)
		resp.ResolvedAt = &s
	}

	return resp
}

func toDisbursementResponse(l *model.Loan) DisbursementResponse {
	resp := DisbursementResponse{
		LoanID:             l.ID.String(),
		DisbursementStatus: l.DisbursementStatus,
	}
	if l.DisbursementDate != nil {
		s := l.DisbursementDate.Format(time.RFC3339)
		resp.DisbursementDate = &s
	}
	return resp
}

func uuidString(id *uuid.UUID) *string {
	if id == nil {
		return nil
	}
	s := id.String()
	return &s
}
