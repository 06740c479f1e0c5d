package repository

import (
	"context"

	"planetpulse.com/gamification/internal/entity"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// TransactionRepository is append-only: rows are never updated or deleted.
type TransactionRepository interface {
	WithTx(tx *gorm.DB) TransactionRepository
	Create(ctx context.Context, transaction *entity.PointTransaction) error
	// ListByUser returns the user's newest transactions first.
	ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PointTransaction, error)
	SumByUser(ctx context.Context, userID uuid.UUID) (int, error)
}

type transactionRepository struct {
	db *gorm.DB
}

func NewTransactionRepository(db *gorm.DB) TransactionRepository {
	return &transactionRepository{db: db}
}

func (r *transactionRepository) WithTx(tx *gorm.DB) TransactionRepository {
	return &transactionRepository{db: tx}
}

func (r *transactionRepository) Create(ctx context.Context, transaction *entity.PointTransaction) error {
	return r.db.WithContext(ctx).Omit("User").Create(transaction).Error
}

func (r *transactionRepository) ListByUser(ctx context.Context, userID uuid.UUID, limit int) ([]entity.PointTransaction, error) {
	var transactions []entity.PointTransaction
	err := r.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("created_at DESC").
		Order("id DESC").
		Limit(limit).
		Find(&transactions).Error
	return transactions, err
}

func (r *transactionRepository) SumByUser(ctx context.Context, userID uuid.UUID) (int, error) {
	var total int
	err := r.db.WithContext(ctx).
		Model(&entity.PointTransaction{}).
		Where("user_id = ?", userID).
		Select("COALESCE(SUM(points_earned), 0)").
		Scan(&total).Error
	return total, err
}
