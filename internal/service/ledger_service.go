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

type ApplyTransactionRequest struct {
	Category  string `json:"category" binding:"required"`
	Direction string `json:"direction" binding:"required,oneof=IN OUT"`
	Amount    string `json:"amount" binding:"required"` // Decimal string
	Notes     string `json:"notes"`
	PaidAt    string `json:"paid_at"` // Optional RFC3339; defaults to now
}

type PaymentResponse struct {
	ID        string `json:"id"`
	LoanID    string `json:"loan_id"`
	Category  string `json:"category"`
	Direction string `json:"direction"`
	Amount    string `json:"amount"`
	Notes     string `json:"notes"`
	PaidAt    string `json:"paid_at"`
	CreatedAt string `json:"created_at"`
}

// --- Interface ---

type LedgerService interface {
	ApplyTransaction(ctx context.Context, loanID, actorID string, req ApplyTransactionRequest) (PaymentResponse, error)
	ReverseTransaction(ctx context.Context, loanID, paymentID, actorID string) error
	ListPayments(ctx context.Context, loanID string, page, limit int) ([]PaymentResponse, int64, error)
	OutstandingPrincipal(ctx context.Context, loanID string) (string, error)
}

type ledgerService struct {
	loanRepo     repository.LoanRepository
	paymentRepo  repository.PaymentRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
	locks        *LoanLocker
	hub          *websocket.Hub
}

func NewLedgerService(
	loanRepo repository.LoanRepository,
	paymentRepo repository.PaymentRepository,
	activityRepo repository.ActivityRepository,
	txManager repository.TransactionManager,
	locks *LoanLocker,
	hub *websocket.Hub,
) LedgerService {
	return &ledgerService{
		loanRepo:     loanRepo,
		paymentRepo:  paymentRepo,
		activityRepo: activityRepo,
		txManager:    txManager,
		locks:        locks,
		hub:          hub,
	}
}

// --- Implementation ---

// ApplyTransaction records a payment and applies its balance effect in one
// transaction. Out-direction savings/adashe movements are refused here; the
// only path for those is the staged withdrawal workflow.
func (s *ledgerService) ApplyTransaction(ctx context.Context, loanID, actorID string, req ApplyTransactionRequest) (PaymentResponse, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return PaymentResponse{}, fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	if !model.ValidPaymentCategory(req.Category) {
		return PaymentResponse{}, fmt.Errorf("unknown payment category: %s", req.Category)
	}

	if !model.ValidDirection(req.Direction) {
		return PaymentResponse{}, fmt.Errorf("unknown payment direction: %s", req.Direction)
	}

	amount, err := decimal.NewFromString(req.Amount)
	if err != nil || amount.LessThanOrEqual(decimal.Zero) {
		return PaymentResponse{}, fmt.Errorf("amount %q: %w", req.Amount, model.ErrInvalidAmount)
	}

	if model.RestrictedCategory(req.Category) && req.Direction == model.DirectionOut {
		return PaymentResponse{}, fmt.Errorf("%s withdrawal: %w", req.Category, model.ErrRequiresApproval)
	}

	paidAt := time.Now()
	if req.PaidAt != "" {
		parsed, parseErr := time.Parse(time.RFC3339, req.PaidAt)
		if parseErr != nil {
			return PaymentResponse{}, fmt.Errorf("invalid paid_at %q: %w", req.PaidAt, parseErr)
		}
		paidAt = parsed
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	var payment model.Payment
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loan, findErr := s.loanRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return findErr
		}

		if req.Category == model.PaymentCategoryInstalment && loan.DisbursementStatus != workflow.StatusApproved {
			return fmt.Errorf("loan %s is not disbursed; instalments cannot be posted", loanID)
		}

		if applyErr := loan.ApplyEffect(req.Category, req.Direction, amount); applyErr != nil {
			return applyErr
		}

		payment = model.Payment{
			LoanID:    loan.ID,
			Category:  req.Category,
			Direction: req.Direction,
			Amount:    amount,
			Notes:     req.Notes,
			PaidAt:    paidAt,
		}
		if createErr := s.paymentRepo.Create(txCtx, &payment); createErr != nil {
			return fmt.Errorf("failed to create payment: %w", createErr)
		}

		if updateErr := s.loanRepo.Update(txCtx, loan); updateErr != nil {
			return fmt.Errorf("failed to update loan balances: %w", updateErr)
		}

		return s.logActivity(txCtx, actorID, model.ActionApplyPayment, payment.ID.String(), req.Category, map[string]interface{}{
			"loan_id":   loanID,
			"direction": req.Direction,
			"amount":    amount.StringFixed(2),
		})
	})

	if err != nil {
		return PaymentResponse{}, err
	}

	s.publish("payment.applied", map[string]interface{}{
		"loan_id":    loanID,
		"payment_id": payment.ID.String(),
		"category":   payment.Category,
		"direction":  payment.Direction,
		"amount":     payment.Amount.StringFixed(2),
	})

	return toPaymentResponse(payment), nil
}

// ReverseTransaction is the only correction mechanism: it re-applies the
// payment's inverse balance delta and removes the row. A reversal that would
// drive a balance negative fails and leaves the payment in place.
func (s *ledgerService) ReverseTransaction(ctx context.Context, loanID, paymentID, actorID string) error {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}
	pid, err := uuid.Parse(paymentID)
	if err != nil {
		return fmt.Errorf("invalid payment id %q: %w", paymentID, model.ErrNotFound)
	}

	unlock := s.locks.Lock(id)
	defer unlock()

	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		loan, findErr := s.loanRepo.FindByIDForUpdate(txCtx, id)
		if findErr != nil {
			return findErr
		}

		payment, findErr := s.paymentRepo.FindByID(txCtx, id, pid)
		if findErr != nil {
			return findErr
		}

		if revErr := loan.ReverseEffect(payment); revErr != nil {
			return revErr
		}

		if delErr := s.paymentRepo.Delete(txCtx, pid); delErr != nil {
			return fmt.Errorf("failed to delete payment: %w", delErr)
		}

		if updateErr := s.loanRepo.Update(txCtx, loan); updateErr != nil {
			return fmt.Errorf("failed to update loan balances: %w", updateErr)
		}

		return s.logActivity(txCtx, actorID, model.ActionReversePayment, paymentID, payment.Category, map[string]interface{}{
			"loan_id":   loanID,
			"direction": payment.Direction,
			"amount":    payment.Amount.StringFixed(2),
		})
	})

	if err != nil {
		return err
	}

	s.publish("payment.reversed", map[string]interface{}{
		"loan_id":    loanID,
		"payment_id": paymentID,
	})

	return nil
}

func (s *ledgerService) ListPayments(ctx context.Context, loanID string, page, limit int) ([]PaymentResponse, int64, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return nil, 0, fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	payments, total, err := s.paymentRepo.ListByLoan(ctx, id, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch payments: %w", err)
	}

	result := make([]PaymentResponse, 0, len(payments))
	for _, p := range payments {
		result = append(result, toPaymentResponse(p))
	}
	return result, total, nil
}

func (s *ledgerService) OutstandingPrincipal(ctx context.Context, loanID string) (string, error) {
	id, err := uuid.Parse(loanID)
	if err != nil {
		return "", fmt.Errorf("invalid loan id %q: %w", loanID, model.ErrNotFound)
	}

	loan, err := s.loanRepo.FindByID(ctx, id)
	if err != nil {
		return "", err
	}

	paid, err := s.paymentRepo.SumByCategory(ctx, id, model.PaymentCategoryInstalment, model.DirectionIn)
	if err != nil {
		return "", fmt.Errorf("failed to sum instalments: %w", err)
	}

	return loan.OutstandingPrincipal(paid).StringFixed(2), nil
}

// --- Helpers ---

func (s *ledgerService) logActivity(ctx context.Context, actorID, action, entityID, entityName string, details map[string]interface{}) error {
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

func (s *ledgerService) publish(event string, data map[string]interface{}) {
	if s.hub != nil {
		s.hub.Publish(event, data)
	}
}

func parseActor(actorID string) *uuid.UUID {
	if actorID == "" {
		return nil
	}
	parsed, err := uuid.Parse(actorID)
	if err != nil {
		return nil
	}
	return &parsed
}

func toPaymentResponse(p model.Payment) PaymentResponse {
	return PaymentResponse{
		ID:        p.ID.String(),
		LoanID:    p.LoanID.String(),
		Category:  p.Category,
		Direction: p.Direction,
		Amount:    p.Amount.StringFixed(2),
		Notes:     p.Notes,
		PaidAt:    p.PaidAt.Format(time.RFC3339),
		CreatedAt: p.CreatedAt.Format(time.RFC3339),
	}
}
