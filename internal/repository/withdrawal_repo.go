package repository

import (
	"context"
	"errors"

	"microfin/internal/model"
	"microfin/internal/workflow"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

type WithdrawalRepository interface {
	Create(ctx context.Context, req *model.WithdrawalRequest) error
	Update(ctx context.Context, req *model.WithdrawalRequest) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error)
	// ListPendingByLoan returns the loan's pending set: requests still inside
	// the approval chain.
	ListPendingByLoan(ctx context.Context, loanID uuid.UUID) ([]model.WithdrawalRequest, error)
	List(ctx context.Context, status string, page, limit int) ([]model.WithdrawalRequest, int64, error)
}

type withdrawalRepository struct {
	db *gorm.DB
}

func NewWithdrawalRepository(db *gorm.DB) WithdrawalRepository {
	return &withdrawalRepository{db: db}
}

func (r *withdrawalRepository) Create(ctx context.Context, req *model.WithdrawalRequest) error {
	return GetDB(ctx, r.db).Create(req).Error
}

func (r *withdrawalRepository) Update(ctx context.Context, req *model.WithdrawalRequest) error {
	return GetDB(ctx, r.db).Save(req).Error
}

func (r *withdrawalRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	if err := GetDB(ctx, r.db).First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *withdrawalRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.WithdrawalRequest, error) {
	var req model.WithdrawalRequest
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&req, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &req, nil
}

func (r *withdrawalRepository) ListPendingByLoan(ctx context.Context, loanID uuid.UUID) ([]model.WithdrawalRequest, error) {
	var requests []model.WithdrawalRequest
	err := GetDB(ctx, r.db).
		Where("loan_id = ? AND status IN ?", loanID, []string{
			workflow.StatusPendingStage1,
			workflow.StatusPendingStage2,
			workflow.StatusPendingStage3,
		}).
		Order("created_at ASC").
		Find(&requests).Error
	if err != nil {
		return nil, err
	}
	return requests, nil
}

func (r *withdrawalRepository) List(ctx context.Context, status string, page, limit int) ([]model.WithdrawalRequest, int64, error) {
	var requests []model.WithdrawalRequest
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.WithdrawalRequest{})
	if status != "" {
		query = query.Where("status = ?", status)
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Model(&model.WithdrawalRequest{})
	if status != "" {
		fetchQuery = fetchQuery.Where("status = ?", status)
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&requests).Error; err != nil {
		return nil, 0, err
	}

	return requests, total, nil
}
