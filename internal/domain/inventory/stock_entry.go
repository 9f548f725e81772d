package inventory

import (
	"strings"
	"time"

	"github.com/stocktrail/backend/internal/domain/shared"
)

// StockEntry represents an active inventory line. The barcode is the
// natural key: at most one entry exists per barcode at any time. The
// quantity is always >= 1 while the entry exists; reaching zero is the
// retirement transition into a DepartureRecord, never a stored state.
type StockEntry struct {
	shared.BaseEntity
	Barcode     string   `gorm:"not null;uniqueIndex:idx_stock_entries_barcode"`
	Name        string   `gorm:"not null"`
	Description string
	Quantity    int64    `gorm:"not null;default:1"`
	ReceivedAt  time.Time `gorm:"not null"`
	ReceivedBy  Identity `gorm:"embedded;embeddedPrefix:received_by_"`
}

// TableName returns the table name for GORM
func (StockEntry) TableName() string {
	return "stock_entries"
}

// NewItemFields carries the operator-supplied details for a barcode that
// has never been received before
type NewItemFields struct {
	Name        string
	Description string
}

// Validate checks the required fields for a first receipt
func (f NewItemFields) Validate() error {
	if strings.TrimSpace(f.Name) == "" {
		return shared.NewDomainError("VALIDATION_FAILED", "Item name is required")
	}
	return nil
}

// NewStockEntry creates the first receipt of a barcode with quantity 1.
// ReceivedAt and ReceivedBy describe this first receipt and are immutable
// for the lifetime of the entry; later receipts only increment quantity.
func NewStockEntry(barcode string, fields NewItemFields, receivedBy Identity) (*StockEntry, error) {
	if strings.TrimSpace(barcode) == "" {
		return nil, shared.NewDomainError("VALIDATION_FAILED", "Barcode is required")
	}
	if err := fields.Validate(); err != nil {
		return nil, err
	}

	entry := &StockEntry{
		BaseEntity:  shared.NewBaseEntity(),
		Barcode:     barcode,
		Name:        strings.TrimSpace(fields.Name),
		Description: fields.Description,
		Quantity:    1,
		ReceivedAt:  time.Now(),
		ReceivedBy:  receivedBy,
	}
	return entry, nil
}

// IsLastUnit reports whether a release of this entry retires it
func (e *StockEntry) IsLastUnit() bool {
	return e.Quantity == 1
}
