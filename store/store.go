// Package store owns the durable transaction records. All mutations are
// keyed writes scoped to one row, so concurrent callback and poll traffic
// for the same checkout ID stays race-tolerant.
package store

import (
	"context"
	"errors"

	"github.com/aloeflora/mpesa-gateway/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// ErrNotFound is returned when no transaction matches the lookup key.
var ErrNotFound = errors.New("store: transaction not found")

// ListFilter narrows and pages the transaction listing.
type ListFilter struct {
	Status string
	Phone  string
	Limit  int
	Offset int
}

type Store interface {
	Create(ctx context.Context, tx *models.Transaction) error
	FindByCheckoutID(ctx context.Context, checkoutID string) (*models.Transaction, error)
	FindByReceipt(ctx context.Context, receipt string) (*models.Transaction, error)
	// UpsertByCheckoutID inserts the transaction, or merges its resolution
	// fields into the existing row for the same checkout ID.
	UpsertByCheckoutID(ctx context.Context, tx *models.Transaction) error
	List(ctx context.Context, f ListFilter) ([]models.Transaction, int64, error)
}

type GormStore struct {
	db *gorm.DB
}

func NewGormStore(db *gorm.DB) *GormStore {
	return &GormStore{db: db}
}

func (s *GormStore) Create(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Create(tx).Error
}

func (s *GormStore) FindByCheckoutID(ctx context.Context, checkoutID string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).Where("checkout_request_id = ?", checkoutID).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) FindByReceipt(ctx context.Context, receipt string) (*models.Transaction, error) {
	var tx models.Transaction
	err := s.db.WithContext(ctx).Where("mpesa_receipt_number = ?", receipt).First(&tx).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return &tx, nil
}

func (s *GormStore) UpsertByCheckoutID(ctx context.Context, tx *models.Transaction) error {
	return s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "checkout_request_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"status", "result_code", "result_desc",
			"amount", "phone_number", "mpesa_receipt_number",
			"raw_callback", "transaction_date", "callback_received_at",
			"updated_at",
		}),
	}).Create(tx).Error
}

func (s *GormStore) List(ctx context.Context, f ListFilter) ([]models.Transaction, int64, error) {
	limit := f.Limit
	if limit <= 0 {
		limit = 50
	}
	offset := f.Offset
	if offset < 0 {
		offset = 0
	}

	var total int64
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Scopes(applyFilter(f)).
		Count(&total).Error; err != nil {
		return nil, 0, err
	}

	// Fresh query for data to avoid side-effects from Count
	var txs []models.Transaction
	if err := s.db.WithContext(ctx).Model(&models.Transaction{}).
		Scopes(applyFilter(f)).
		Order("created_at DESC").
		Limit(limit).Offset(offset).
		Find(&txs).Error; err != nil {
		return nil, 0, err
	}
	return txs, total, nil
}

func applyFilter(f ListFilter) func(*gorm.DB) *gorm.DB {
	return func(q *gorm.DB) *gorm.DB {
		if f.Status != "" {
			q = q.Where("status = ?", f.Status)
		}
		if f.Phone != "" {
			q = q.Where("phone_number = ?", f.Phone)
		}
		return q
	}
}
