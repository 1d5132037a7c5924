package repository

import (
	"context"
	"errors"
	"time"

	"microfin/internal/model"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

type PaymentRepository interface {
	Create(ctx context.Context, payment *model.Payment) error
	// Delete removes a payment row permanently; only the reversal operation
	// may call it.
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, loanID, id uuid.UUID) (*model.Payment, error)
	ListByLoan(ctx context.Context, loanID uuid.UUID, page, limit int) ([]model.Payment, int64, error)
	// SumByCategory totals payment amounts on one loan for a category and
	// direction. Backs the derived outstanding-principal read.
	SumByCategory(ctx context.Context, loanID uuid.UUID, category, direction string) (decimal.Decimal, error)
	CategoryFlows(ctx context.Context, start, end time.Time) ([]model.CategoryFlow, error)
}

type paymentRepository struct {
	db *gorm.DB
}

func NewPaymentRepository(db *gorm.DB) PaymentRepository {
	return &paymentRepository{db: db}
}

func (r *paymentRepository) Create(ctx context.Context, payment *model.Payment) error {
	return GetDB(ctx, r.db).Create(payment).Error
}

func (r *paymentRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Payment{}).Error
}

func (r *paymentRepository) FindByID(ctx context.Context, loanID, id uuid.UUID) (*model.Payment, error) {
	var payment model.Payment
	if err := GetDB(ctx, r.db).First(&payment, "id = ? AND loan_id = ?", id, loanID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &payment, nil
}

func (r *paymentRepository) ListByLoan(ctx context.Context, loanID uuid.UUID, page, limit int) ([]model.Payment, int64, error) {
	var payments []model.Payment
	var total int64

	db := GetDB(ctx, r.db)
	if err := db.Model(&model.Payment{}).Where("loan_id = ?", loanID).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	if err := db.Where("loan_id = ?", loanID).
		Order("created_at ASC").Offset(offset).Limit(limit).Find(&payments).Error; err != nil {
		return nil, 0, err
	}

	return payments, total, nil
}

func (r *paymentRepository) SumByCategory(ctx context.Context, loanID uuid.UUID, category, direction string) (decimal.Decimal, error) {
	var row struct {
		Total decimal.Decimal
	}
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("COALESCE(SUM(amount), 0) as total").
		Where("loan_id = ? AND category = ? AND direction = ?", loanID, category, direction).
		Scan(&row).Error
	if err != nil {
		return decimal.Zero, err
	}
	return row.Total, nil
}

func (r *paymentRepository) CategoryFlows(ctx context.Context, start, end time.Time) ([]model.CategoryFlow, error) {
	var flows []model.CategoryFlow
	err := GetDB(ctx, r.db).Model(&model.Payment{}).
		Select("category, "+
			"SUM(CASE WHEN direction = 'IN' THEN amount ELSE 0 END) as cash_in, "+
			"SUM(CASE WHEN direction = 'OUT' THEN amount ELSE 0 END) as cash_out").
		Where("paid_at >= ? AND paid_at <= ?", start, end).
		Group("category").
		Order("category ASC").
		Scan(&flows).Error
	if err != nil {
		return nil, err
	}
	return flows, nil
}
