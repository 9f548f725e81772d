package persistence

import (
	"context"

	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"gorm.io/gorm"
)

// GormDepartureRecordRepository implements DepartureRecordRepository
// using GORM. Records are written only by the retirement transaction in
// the stock entry repository; this repository is read-only.
type GormDepartureRecordRepository struct {
	db *gorm.DB
}

// NewGormDepartureRecordRepository creates a new GormDepartureRecordRepository
func NewGormDepartureRecordRepository(db *gorm.DB) *GormDepartureRecordRepository {
	return &GormDepartureRecordRepository{db: db}
}

// FindAll returns every departure record, newest first
func (r *GormDepartureRecordRepository) FindAll(ctx context.Context) ([]inventory.DepartureRecord, error) {
	var records []inventory.DepartureRecord
	if err := r.db.WithContext(ctx).
		Order("departed_at DESC").
		Find(&records).Error; err != nil {
		return nil, shared.NewStoreError(err)
	}
	return records, nil
}

// FindByBarcode returns the departure history of one barcode, newest first
func (r *GormDepartureRecordRepository) FindByBarcode(ctx context.Context, barcode string) ([]inventory.DepartureRecord, error) {
	var records []inventory.DepartureRecord
	if err := r.db.WithContext(ctx).
		Where("barcode = ?", barcode).
		Order("departed_at DESC").
		Find(&records).Error; err != nil {
		return nil, shared.NewStoreError(err)
	}
	return records, nil
}

// Ensure GormDepartureRecordRepository implements DepartureRecordRepository
var _ inventory.DepartureRecordRepository = (*GormDepartureRecordRepository)(nil)
