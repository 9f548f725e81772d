package inventory

import (
	"context"

	"github.com/google/uuid"
)

// StockEntryRepository is the durable-store contract for active entries.
// Quantity changes go through the atomic delta operations below, never
// through read-modify-write at the application layer: concurrent scanners
// on the same barcode must commute.
type StockEntryRepository interface {
	// FindByBarcode returns the entry for the barcode or shared.ErrNotFound
	FindByBarcode(ctx context.Context, barcode string) (*StockEntry, error)

	// FindByID returns the entry by its store identity or shared.ErrNotFound
	FindByID(ctx context.Context, id uuid.UUID) (*StockEntry, error)

	// FindAll returns every active entry in store insertion order
	FindAll(ctx context.Context) ([]StockEntry, error)

	// CreateIfAbsent inserts the entry unless another entry already holds
	// its barcode. Returns false (and no error) when it lost that race;
	// the caller then retries the receive as an increment.
	CreateIfAbsent(ctx context.Context, entry *StockEntry) (bool, error)

	// IncrementQuantity applies a store-native quantity += delta to the
	// entry and returns its refreshed state
	IncrementQuantity(ctx context.Context, id uuid.UUID, delta int64) (*StockEntry, error)

	// DecrementIfAboveOne applies quantity -= 1 only when quantity > 1,
	// atomically. Returns false when the guard did not hold, meaning the
	// entry is down to its last unit and must be retired instead.
	DecrementIfAboveOne(ctx context.Context, id uuid.UUID) (*StockEntry, bool, error)

	// Retire deletes the entry and creates its departure record inside a
	// single transaction. The delete is conditional on quantity == 1;
	// shared.ErrInvalidState is returned (and nothing written) when a
	// concurrent mutation moved the quantity first.
	Retire(ctx context.Context, entryID uuid.UUID, record *DepartureRecord) error
}

// DepartureRecordRepository is the durable-store contract for the
// immutable departed ledger. Records are only ever created and listed.
type DepartureRecordRepository interface {
	// FindAll returns every departure record, newest first
	FindAll(ctx context.Context) ([]DepartureRecord, error)

	// FindByBarcode returns the departure history of one barcode, newest first
	FindByBarcode(ctx context.Context, barcode string) ([]DepartureRecord, error)
}
