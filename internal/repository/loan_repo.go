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

type LoanRepository interface {
	Create(ctx context.Context, loan *model.Loan) error
	Update(ctx context.Context, loan *model.Loan) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// FindByIDForUpdate takes a row lock so the aggregate cannot be mutated
	// concurrently inside a transaction.
	FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Loan, error)
	// UpdateDelinquency persists only the dpd and risk_tier columns so a
	// reclassification never touches balance state written by other callers.
	UpdateDelinquency(ctx context.Context, id uuid.UUID, dpd int, tier string) error
	List(ctx context.Context, tier, disbursementStatus string, borrowerID *uuid.UUID, page, limit int) ([]model.Loan, int64, error)
	ListDisbursed(ctx context.Context) ([]model.Loan, error)
}

type loanRepository struct {
	db *gorm.DB
}

func NewLoanRepository(db *gorm.DB) LoanRepository {
	return &loanRepository{db: db}
}

func (r *loanRepository) Create(ctx context.Context, loan *model.Loan) error {
	return GetDB(ctx, r.db).Create(loan).Error
}

func (r *loanRepository) Update(ctx context.Context, loan *model.Loan) error {
	return GetDB(ctx, r.db).Save(loan).Error
}

func (r *loanRepository) UpdateDelinquency(ctx context.Context, id uuid.UUID, dpd int, tier string) error {
	result := GetDB(ctx, r.db).Model(&model.Loan{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{"dpd": dpd, "risk_tier": tier})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return model.ErrNotFound
	}
	return nil
}

func (r *loanRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := GetDB(ctx, r.db).Preload("Borrower").First(&loan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) FindByIDForUpdate(ctx context.Context, id uuid.UUID) (*model.Loan, error) {
	var loan model.Loan
	if err := GetDB(ctx, r.db).Clauses(clause.Locking{Strength: "UPDATE"}).
		First(&loan, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &loan, nil
}

func (r *loanRepository) List(ctx context.Context, tier, disbursementStatus string, borrowerID *uuid.UUID, page, limit int) ([]model.Loan, int64, error) {
	var loans []model.Loan
	var total int64

	db := GetDB(ctx, r.db)
	apply := func(q *gorm.DB) *gorm.DB {
		if tier != "" {
			q = q.Where("risk_tier = ?", tier)
		}
		if disbursementStatus != "" {
			q = q.Where("disbursement_status = ?", disbursementStatus)
		}
		if borrowerID != nil {
			q = q.Where("borrower_id = ?", *borrowerID)
		}
		return q
	}

	if err := apply(db.Model(&model.Loan{})).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := apply(db.Model(&model.Loan{}).Preload("Borrower")).
		Order("created_at DESC").Offset(offset).Limit(limit).Find(&loans).Error; err != nil {
		return nil, 0, err
	}

	return loans, total, nil
}

func (r *loanRepository) ListDisbursed(ctx context.Context) ([]model.Loan, error) {
	var loans []model.Loan
	if err := GetDB(ctx, r.db).
		Where("disbursement_status = ? AND disbursement_date IS NOT NULL", workflow.StatusApproved).
		Find(&loans).Error; err != nil {
		return nil, err
	}
	return loans, nil
}
