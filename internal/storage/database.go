package storage

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"

	"github.com/Ananth-NQI/orderbot-backend/internal/models"
)

// DatabaseOrderArchive stores finalized orders in PostgreSQL through gorm
type DatabaseOrderArchive struct {
	db *gorm.DB
}

// NewDatabaseOrderArchive wraps an open gorm connection
func NewDatabaseOrderArchive(db *gorm.DB) *DatabaseOrderArchive {
	return &DatabaseOrderArchive{db: db}
}

func (d *DatabaseOrderArchive) SaveFinalizedOrder(ctx context.Context, order *models.FinalizedOrder) error {
	if order.FinalizedAt.IsZero() {
		order.FinalizedAt = time.Now()
	}
	if err := d.db.WithContext(ctx).Create(order).Error; err != nil {
		return fmt.Errorf("save finalized order %s: %w", order.Reference, err)
	}
	return nil
}

func (d *DatabaseOrderArchive) ListFinalizedOrders(ctx context.Context, limit int) ([]*models.FinalizedOrder, error) {
	var orders []*models.FinalizedOrder

	query := d.db.WithContext(ctx).Order("finalized_at DESC")
	if limit > 0 {
		query = query.Limit(limit)
	}
	if err := query.Find(&orders).Error; err != nil {
		return nil, fmt.Errorf("list finalized orders: %w", err)
	}
	return orders, nil
}

func (d *DatabaseOrderArchive) GetFinalizedOrder(ctx context.Context, reference string) (*models.FinalizedOrder, error) {
	var order models.FinalizedOrder

	err := d.db.WithContext(ctx).Where("reference = ?", reference).First(&order).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("get finalized order %s: %w", reference, err)
	}
	return &order, nil
}

func (d *DatabaseOrderArchive) Ping(ctx context.Context) error {
	sqlDB, err := d.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.PingContext(ctx)
}
