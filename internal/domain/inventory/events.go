package inventory

import (
	"github.com/google/uuid"
	"github.com/stocktrail/backend/internal/domain/shared"
)

// Event types for the inventory collections
const (
	EventTypeStockEntryCreated = "inventory.stock_entry.created"
	EventTypeStockReceived     = "inventory.stock_entry.received"
	EventTypeStockReleased     = "inventory.stock_entry.released"
	EventTypeStockEntryRetired = "inventory.stock_entry.retired"
)

// AggregateTypeStockEntry is the aggregate type carried by inventory events
const AggregateTypeStockEntry = "StockEntry"

// StockEntryCreatedEvent is emitted when a barcode is received for the
// first time and a new entry is created with quantity 1
type StockEntryCreatedEvent struct {
	shared.BaseDomainEvent
	Barcode    string   `json:"barcode"`
	Name       string   `json:"name"`
	ReceivedBy Identity `json:"received_by"`
}

// NewStockEntryCreatedEvent creates a StockEntryCreatedEvent
func NewStockEntryCreatedEvent(entry *StockEntry) *StockEntryCreatedEvent {
	return &StockEntryCreatedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockEntryCreated, AggregateTypeStockEntry, entry.ID),
		Barcode:         entry.Barcode,
		Name:            entry.Name,
		ReceivedBy:      entry.ReceivedBy,
	}
}

// ScannedBarcode returns the barcode the event refers to
func (e *StockEntryCreatedEvent) ScannedBarcode() string { return e.Barcode }

// StockReceivedEvent is emitted when a receive increments an existing entry
type StockReceivedEvent struct {
	shared.BaseDomainEvent
	Barcode    string   `json:"barcode"`
	Quantity   int64    `json:"quantity"`
	ReceivedBy Identity `json:"received_by"`
}

// NewStockReceivedEvent creates a StockReceivedEvent
func NewStockReceivedEvent(entry *StockEntry, receivedBy Identity) *StockReceivedEvent {
	return &StockReceivedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReceived, AggregateTypeStockEntry, entry.ID),
		Barcode:         entry.Barcode,
		Quantity:        entry.Quantity,
		ReceivedBy:      receivedBy,
	}
}

// ScannedBarcode returns the barcode the event refers to
func (e *StockReceivedEvent) ScannedBarcode() string { return e.Barcode }

// StockReleasedEvent is emitted when a release decrements an entry that
// still has units remaining
type StockReleasedEvent struct {
	shared.BaseDomainEvent
	Barcode    string   `json:"barcode"`
	Quantity   int64    `json:"quantity"`
	ReleasedBy Identity `json:"released_by"`
}

// NewStockReleasedEvent creates a StockReleasedEvent
func NewStockReleasedEvent(entry *StockEntry, releasedBy Identity) *StockReleasedEvent {
	return &StockReleasedEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockReleased, AggregateTypeStockEntry, entry.ID),
		Barcode:         entry.Barcode,
		Quantity:        entry.Quantity,
		ReleasedBy:      releasedBy,
	}
}

// ScannedBarcode returns the barcode the event refers to
func (e *StockReleasedEvent) ScannedBarcode() string { return e.Barcode }

// StockEntryRetiredEvent is emitted when the last unit of a barcode
// leaves and the entry is converted into a departure record
type StockEntryRetiredEvent struct {
	shared.BaseDomainEvent
	Barcode    string    `json:"barcode"`
	RecordID   uuid.UUID `json:"record_id"`
	DepartedBy Identity  `json:"departed_by"`
}

// NewStockEntryRetiredEvent creates a StockEntryRetiredEvent
func NewStockEntryRetiredEvent(entryID uuid.UUID, record *DepartureRecord) *StockEntryRetiredEvent {
	return &StockEntryRetiredEvent{
		BaseDomainEvent: shared.NewBaseDomainEvent(EventTypeStockEntryRetired, AggregateTypeStockEntry, entryID),
		Barcode:         record.Barcode,
		RecordID:        record.ID,
		DepartedBy:      record.DepartedBy,
	}
}

// ScannedBarcode returns the barcode the event refers to
func (e *StockEntryRetiredEvent) ScannedBarcode() string { return e.Barcode }
