package repository

import (
	"context"
	"errors"

	"microfin/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

type BorrowerRepository interface {
	Create(ctx context.Context, borrower *model.Borrower) error
	Update(ctx context.Context, borrower *model.Borrower) error
	Delete(ctx context.Context, id uuid.UUID) error
	FindByID(ctx context.Context, id uuid.UUID) (*model.Borrower, error)
	List(ctx context.Context, search string, page, limit int) ([]model.Borrower, int64, error)
}

type borrowerRepository struct {
	db *gorm.DB
}

func NewBorrowerRepository(db *gorm.DB) BorrowerRepository {
	return &borrowerRepository{db: db}
}

func (r *borrowerRepository) Create(ctx context.Context, borrower *model.Borrower) error {
	return GetDB(ctx, r.db).Create(borrower).Error
}

func (r *borrowerRepository) Update(ctx context.Context, borrower *model.Borrower) error {
	return GetDB(ctx, r.db).Save(borrower).Error
}

func (r *borrowerRepository) Delete(ctx context.Context, id uuid.UUID) error {
	return GetDB(ctx, r.db).Where("id = ?", id).Delete(&model.Borrower{}).Error
}

func (r *borrowerRepository) FindByID(ctx context.Context, id uuid.UUID) (*model.Borrower, error) {
	var borrower model.Borrower
	if err := GetDB(ctx, r.db).First(&borrower, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, model.ErrNotFound
		}
		return nil, err
	}
	return &borrower, nil
}

func (r *borrowerRepository) List(ctx context.Context, search string, page, limit int) ([]model.Borrower, int64, error) {
	var borrowers []model.Borrower
	var total int64

	db := GetDB(ctx, r.db)
	query := db.Model(&model.Borrower{})
	if search != "" {
		query = query.Where("name ILIKE ? OR phone ILIKE ? OR community ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}

	if err := query.Count(&total).Error; err != nil {
		return nil, 0, err
	}

	offset := (page - 1) * limit
	fetchQuery := db.Model(&model.Borrower{})
	if search != "" {
		fetchQuery = fetchQuery.Where("name ILIKE ? OR phone ILIKE ? OR community ILIKE ?",
			"%"+search+"%", "%"+search+"%", "%"+search+"%")
	}
	if err := fetchQuery.Order("created_at DESC").Offset(offset).Limit(limit).Find(&borrowers).Error; err != nil {
		return nil, 0, err
	}

	return borrowers, total, nil
}
