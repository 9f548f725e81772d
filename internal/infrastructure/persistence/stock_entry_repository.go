package persistence

import (
	"context"
	"errors"

	"github.com/google/uuid"
	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStockEntryRepository implements StockEntryRepository using GORM.
// Quantity deltas are pushed down to SQL so concurrent scanners on the
// same barcode commute instead of clobbering each other.
type GormStockEntryRepository struct {
	db *gorm.DB
}

// NewGormStockEntryRepository creates a new GormStockEntryRepository
func NewGormStockEntryRepository(db *gorm.DB) *GormStockEntryRepository {
	return &GormStockEntryRepository{db: db}
}

// FindByBarcode finds the active entry by its natural key
func (r *GormStockEntryRepository) FindByBarcode(ctx context.Context, barcode string) (*inventory.StockEntry, error) {
	var entry inventory.StockEntry
	if err := r.db.WithContext(ctx).First(&entry, "barcode = ?", barcode).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStoreError(err)
	}
	return &entry, nil
}

// FindByID finds the active entry by its store identity
func (r *GormStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockEntry, error) {
	var entry inventory.StockEntry
	if err := r.db.WithContext(ctx).First(&entry, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, shared.NewStoreError(err)
	}
	return &entry, nil
}

// FindAll returns every active entry in insertion order
func (r *GormStockEntryRepository) FindAll(ctx context.Context) ([]inventory.StockEntry, error) {
	var entries []inventory.StockEntry
	if err := r.db.WithContext(ctx).
		Order("created_at ASC").
		Find(&entries).Error; err != nil {
		return nil, shared.NewStoreError(err)
	}
	return entries, nil
}

// CreateIfAbsent inserts the entry unless its barcode is already taken.
// The unique index on barcode plus ON CONFLICT DO NOTHING closes the
// duplicate-creation window between two scanners racing on a brand-new
// barcode; the loser sees created == false and retries as an increment.
func (r *GormStockEntryRepository) CreateIfAbsent(ctx context.Context, entry *inventory.StockEntry) (bool, error) {
	result := r.db.WithContext(ctx).
		Clauses(clause.OnConflict{
			Columns:   []clause.Column{{Name: "barcode"}},
			DoNothing: true,
		}).
		Create(entry)
	if result.Error != nil {
		return false, shared.NewStoreError(result.Error)
	}
	return result.RowsAffected > 0, nil
}

// IncrementQuantity applies a store-native quantity delta and returns
// the refreshed entry
func (r *GormStockEntryRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int64) (*inventory.StockEntry, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockEntry{}).
		Where("id = ?", id).
		UpdateColumn("quantity", gorm.Expr("quantity + ?", delta))
	if result.Error != nil {
		return nil, shared.NewStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, shared.ErrNotFound
	}
	return r.FindByID(ctx, id)
}

// DecrementIfAboveOne decrements the quantity only while more than one
// unit remains. A false return means the entry is at its last unit and
// the caller must retire it instead.
func (r *GormStockEntryRepository) DecrementIfAboveOne(ctx context.Context, id uuid.UUID) (*inventory.StockEntry, bool, error) {
	result := r.db.WithContext(ctx).
		Model(&inventory.StockEntry{}).
		Where("id = ? AND quantity > 1", id).
		UpdateColumn("quantity", gorm.Expr("quantity - 1"))
	if result.Error != nil {
		return nil, false, shared.NewStoreError(result.Error)
	}
	if result.RowsAffected == 0 {
		return nil, false, nil
	}

	entry, err := r.FindByID(ctx, id)
	if err != nil {
		return nil, false, err
	}
	return entry, true, nil
}

// Retire converts the entry into its departure record. Delete and create
// run in one transaction; the delete is conditional on quantity == 1 so
// a concurrent receive or release that moved the quantity first aborts
// the whole retirement with shared.ErrInvalidState.
func (r *GormStockEntryRepository) Retire(ctx context.Context, entryID uuid.UUID, record *inventory.DepartureRecord) error {
	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		result := tx.
			Where("id = ? AND quantity = 1", entryID).
			Delete(&inventory.StockEntry{})
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrInvalidState
		}
		return tx.Create(record).Error
	})
	if err != nil {
		if errors.Is(err, shared.ErrInvalidState) {
			return shared.ErrInvalidState
		}
		return shared.NewStoreError(err)
	}
	return nil
}

// Ensure GormStockEntryRepository implements StockEntryRepository
var _ inventory.StockEntryRepository = (*GormStockEntryRepository)(nil)
