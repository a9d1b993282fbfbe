package checkout

import (
	"context"
	"errors"
	"time"

	"github.com/flashmarket/storefront/internal/repo"
	"github.com/flashmarket/storefront/pkg/db"
	pkgerrors "github.com/flashmarket/storefront/pkg/errors"
	"gorm.io/gorm"
)

const receiptOrderIndex = "idx_order_receipts_order_id"

// Repository persists order receipts.
type Repository interface {
	Create(ctx context.Context, receipt *Receipt) error
	FindByID(ctx context.Context, id string) (*Receipt, error)
	FindByOrderID(ctx context.Context, orderID string) (*Receipt, error)
	ListByUser(ctx context.Context, userID string, limit int) ([]Receipt, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error)
}

type repository struct {
	repo.Base
}

// NewRepository builds a receipt repository backed by the provided DB.
func NewRepository(conn *gorm.DB) Repository {
	if conn == nil {
		return nil
	}
	return &repository{Base: repo.NewBase(conn)}
}

func (r *repository) Create(ctx context.Context, receipt *Receipt) error {
	if receipt == nil {
		return pkgerrors.New(pkgerrors.CodeValidation, "receipt is required")
	}
	if err := r.DB(ctx).Create(receipt).Error; err != nil {
		if db.IsUniqueViolation(err, receiptOrderIndex) {
			return pkgerrors.Wrap(pkgerrors.CodeConflict, err, "receipt already recorded for order")
		}
		return pkgerrors.Wrap(pkgerrors.CodeInternal, err, "record receipt")
	}
	return nil
}

func (r *repository) FindByID(ctx context.Context, id string) (*Receipt, error) {
	return r.findOne(ctx, "id = ?", id)
}

func (r *repository) FindByOrderID(ctx context.Context, orderID string) (*Receipt, error) {
	return r.findOne(ctx, "order_id = ?", orderID)
}

func (r *repository) findOne(ctx context.Context, query string, arg any) (*Receipt, error) {
	var receipt Receipt
	err := r.DB(ctx).Where(query, arg).Take(&receipt).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, pkgerrors.New(pkgerrors.CodeNotFound, "receipt not found")
	}
	if err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "load receipt")
	}
	return &receipt, nil
}

// ListByUser returns the user's receipts, newest first.
func (r *repository) ListByUser(ctx context.Context, userID string, limit int) ([]Receipt, error) {
	query := r.DB(ctx).Where("user_id = ?", userID).Order("created_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	var receipts []Receipt
	if err := query.Find(&receipts).Error; err != nil {
		return nil, pkgerrors.Wrap(pkgerrors.CodeInternal, err, "list receipts")
	}
	if receipts == nil {
		receipts = []Receipt{}
	}
	return receipts, nil
}

// DeleteCreatedBefore removes receipts older than cutoff and reports how many
// rows went.
func (r *repository) DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int64, error) {
	res := r.DB(ctx).Where("created_at < ?", cutoff).Delete(&Receipt{})
	if res.Error != nil {
		return 0, pkgerrors.Wrap(pkgerrors.CodeInternal, res.Error, "delete receipts")
	}
	return res.RowsAffected, nil
}
