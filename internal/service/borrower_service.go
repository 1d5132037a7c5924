package service

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"microfin/internal/model"
	"microfin/internal/repository"

	"github.com/google/uuid"
)

// --- DTOs ---

type CreateBorrowerRequest struct {
	Name           string `json:"name" binding:"required"`
	Phone          string `json:"phone"`
	Community      string `json:"community"`
	GuarantorName  string `json:"guarantor_name"`
	GuarantorPhone string `json:"guarantor_phone"`
}

type UpdateBorrowerRequest struct {
	Name           *string `json:"name"`
	Phone          *string `json:"phone"`
	Community      *string `json:"community"`
	GuarantorName  *string `json:"guarantor_name"`
	GuarantorPhone *string `json:"guarantor_phone"`
	IsActive       *bool   `json:"is_active"`
}

type BorrowerResponse struct {
	ID             uuid.UUID `json:"id"`
	Name           string    `json:"name"`
	Phone          string    `json:"phone"`
	Community      string    `json:"community"`
	GuarantorName  string    `json:"guarantor_name"`
	GuarantorPhone string    `json:"guarantor_phone"`
	IsActive       bool      `json:"is_active"`
	CreatedAt      time.Time `json:"created_at"`
	UpdatedAt      time.Time `json:"updated_at"`
}

// --- Interface ---

type BorrowerService interface {
	CreateBorrower(ctx context.Context, actorID string, req CreateBorrowerRequest) (BorrowerResponse, error)
	UpdateBorrower(ctx context.Context, id, actorID string, req UpdateBorrowerRequest) (BorrowerResponse, error)
	DeleteBorrower(ctx context.Context, id, actorID string) error
	GetBorrowers(ctx context.Context, search string, page, limit int) ([]BorrowerResponse, int64, error)
}

type borrowerService struct {
	borrowerRepo repository.BorrowerRepository
	activityRepo repository.ActivityRepository
	txManager    repository.TransactionManager
}

func NewBorrowerService(borrowerRepo repository.BorrowerRepository, activityRepo repository.ActivityRepository, txManager repository.TransactionManager) BorrowerService {
	return &borrowerService{borrowerRepo: borrowerRepo, activityRepo: activityRepo, txManager: txManager}
}

// --- Implementation ---

func (s *borrowerService) CreateBorrower(ctx context.Context, actorID string, req CreateBorrowerRequest) (BorrowerResponse, error) {
	borrower := model.Borrower{
		Name:           req.Name,
		Phone:          req.Phone,
		Community:      req.Community,
		GuarantorName:  req.GuarantorName,
		GuarantorPhone: req.GuarantorPhone,
		IsActive:       true,
	}

	err := s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		if createErr := s.borrowerRepo.Create(txCtx, &borrower); createErr != nil {
			return fmt.Errorf("failed to create borrower: %w", createErr)
		}
		return s.logActivity(txCtx, actorID, model.ActionCreateBorrower, borrower.ID.String(), borrower.Name, nil)
	})
	if err != nil {
		return BorrowerResponse{}, err
	}

	return toBorrowerResponse(borrower), nil
}

func (s *borrowerService) UpdateBorrower(ctx context.Context, id, actorID string, req UpdateBorrowerRequest) (BorrowerResponse, error) {
	borrowerID, err := uuid.Parse(id)
	if err != nil {
		return BorrowerResponse{}, fmt.Errorf("invalid borrower id %q: %w", id, model.ErrNotFound)
	}

	var borrower *model.Borrower
	err = s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		var findErr error
		borrower, findErr = s.borrowerRepo.FindByID(txCtx, borrowerID)
		if findErr != nil {
			return findErr
		}

		if req.Name != nil {
			borrower.Name = *req.Name
		}
		if req.Phone != nil {
			borrower.Phone = *req.Phone
		}
		if req.Community != nil {
			borrower.Community = *req.Community
		}
		if req.GuarantorName != nil {
			borrower.GuarantorName = *req.GuarantorName
		}
		if req.GuarantorPhone != nil {
			borrower.GuarantorPhone = *req.GuarantorPhone
		}
		if req.IsActive != nil {
			borrower.IsActive = *req.IsActive
		}

		if updateErr := s.borrowerRepo.Update(txCtx, borrower); updateErr != nil {
			return fmt.Errorf("failed to update borrower: %w", updateErr)
		}
		return s.logActivity(txCtx, actorID, model.ActionUpdateBorrower, borrower.ID.String(), borrower.Name, nil)
	})
	if err != nil {
		return BorrowerResponse{}, err
	}

	return toBorrowerResponse(*borrower), nil
}

func (s *borrowerService) DeleteBorrower(ctx context.Context, id, actorID string) error {
	borrowerID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid borrower id %q: %w", id, model.ErrNotFound)
	}

	return s.txManager.RunInTx(ctx, func(txCtx context.Context) error {
		borrower, findErr := s.borrowerRepo.FindByID(txCtx, borrowerID)
		if findErr != nil {
			return findErr
		}

		if delErr := s.borrowerRepo.Delete(txCtx, borrowerID); delErr != nil {
			return fmt.Errorf("failed to delete borrower: %w", delErr)
		}
		return s.logActivity(txCtx, actorID, model.ActionDeleteBorrower, borrowerID.String(), borrower.Name, nil)
	})
}

func (s *borrowerService) GetBorrowers(ctx context.Context, search string, page, limit int) ([]BorrowerResponse, int64, error) {
	borrowers, total, err := s.borrowerRepo.List(ctx, search, page, limit)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to fetch borrowers: %w", err)
	}

	result := make([]BorrowerResponse, 0, len(borrowers))
	for _, b := range borrowers {
		result = append(result, toBorrowerResponse(b))
	}
	return result, total, nil
}

// --- Helpers ---

func (s *borrowerService) logActivity(ctx context.Context, actorID, action, entityID, entityName string, details map[string]interface{}) error {
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

func toBorrowerResponse(b model.Borrower) BorrowerResponse {
	return BorrowerResponse{
		ID:             b.ID,
		Name:           b.Name,
		Phone:          b.Phone,
		Community:      b.Community,
		GuarantorName:  b.GuarantorName,
		GuarantorPhone: b.GuarantorPhone,
		IsActive:       b.IsActive,
		CreatedAt:      b.CreatedAt,
		UpdatedAt:      b.UpdatedAt,
	}
}
