package inventory

import (
	"time"

	"github.com/stocktrail/backend/internal/domain/shared"
)

// DepartureRecord is the immutable historical record created exactly once
// when the last unit of a barcode leaves the warehouse. It copies the
// receipt lineage of the entry it replaces; a barcode that re-enters later
// starts a fresh StockEntry with its own lineage.
type DepartureRecord struct {
	shared.BaseEntity
	Barcode     string    `gorm:"not null;index:idx_departure_records_barcode"`
	Name        string    `gorm:"not null"`
	Description string
	ReceivedAt  time.Time `gorm:"not null"`
	ReceivedBy  Identity  `gorm:"embedded;embeddedPrefix:received_by_"`
	DepartedAt  time.Time `gorm:"not null"`
	DepartedBy  Identity  `gorm:"embedded;embeddedPrefix:departed_by_"`
}

// TableName returns the table name for GORM
func (DepartureRecord) TableName() string {
	return "departure_records"
}

// NewDepartureRecord builds the record for retiring the given entry.
// Name, description, barcode and the receipt attribution are copied
// verbatim from the entry at the moment of retirement.
func NewDepartureRecord(entry *StockEntry, departedBy Identity) *DepartureRecord {
	return &DepartureRecord{
		BaseEntity:  shared.NewBaseEntity(),
		Barcode:     entry.Barcode,
		Name:        entry.Name,
		Description: entry.Description,
		ReceivedAt:  entry.ReceivedAt,
		ReceivedBy:  entry.ReceivedBy,
		DepartedAt:  time.Now(),
		DepartedBy:  departedBy,
	}
}
