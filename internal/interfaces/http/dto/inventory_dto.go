package dto

import (
	"time"

	"github.com/stocktrail/backend/internal/domain/inventory"
)

// IdentityResponse is the attribution snapshot on receipts and departures
type IdentityResponse struct {
	Name       string `json:"name"`
	EmployeeID string `json:"employee_id"`
}

// StockEntryResponse represents one active stock entry
type StockEntryResponse struct {
	ID          string           `json:"id"`
	Barcode     string           `json:"barcode"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	Quantity    int64            `json:"quantity"`
	ReceivedAt  time.Time        `json:"received_at"`
	ReceivedBy  IdentityResponse `json:"received_by"`
}

// DepartureRecordResponse represents one departed-stock record
type DepartureRecordResponse struct {
	ID          string           `json:"id"`
	Barcode     string           `json:"barcode"`
	Name        string           `json:"name"`
	Description string           `json:"description,omitempty"`
	ReceivedAt  time.Time        `json:"received_at"`
	ReceivedBy  IdentityResponse `json:"received_by"`
	DepartedAt  time.Time        `json:"departed_at"`
	DepartedBy  IdentityResponse `json:"departed_by"`
}

// ScanRequest is one barcode read from a scanning station
type ScanRequest struct {
	Barcode string `json:"barcode" binding:"required,min=1,max=64"`
	Mode    string `json:"mode" binding:"required,oneof=receive release"`
}

// ItemDetailsRequest completes a first-seen receive
type ItemDetailsRequest struct {
	Name        string `json:"name" binding:"required,min=1,max=255"`
	Description string `json:"description" binding:"max=1024"`
}

// ScanResultResponse reports how a scan settled
type ScanResultResponse struct {
	Barcode string                   `json:"barcode"`
	Mode    string                   `json:"mode"`
	Status  string                   `json:"status"`
	Entry   *StockEntryResponse      `json:"entry,omitempty"`
	Record  *DepartureRecordResponse `json:"record,omitempty"`
}

// LedgerResponse is one consistent view of both collections
type LedgerResponse struct {
	Loaded   bool                      `json:"loaded"`
	Active   []StockEntryResponse      `json:"active"`
	Departed []DepartureRecordResponse `json:"departed"`
}

// ToIdentityResponse converts a domain identity
func ToIdentityResponse(id inventory.Identity) IdentityResponse {
	return IdentityResponse{Name: id.Name, EmployeeID: id.EmployeeID}
}

// ToStockEntryResponse converts a domain stock entry
func ToStockEntryResponse(entry *inventory.StockEntry) *StockEntryResponse {
	if entry == nil {
		return nil
	}
	return &StockEntryResponse{
		ID:          entry.ID.String(),
		Barcode:     entry.Barcode,
		Name:        entry.Name,
		Description: entry.Description,
		Quantity:    entry.Quantity,
		ReceivedAt:  entry.ReceivedAt,
		ReceivedBy:  ToIdentityResponse(entry.ReceivedBy),
	}
}

// ToDepartureRecordResponse converts a domain departure record
func ToDepartureRecordResponse(record *inventory.DepartureRecord) *DepartureRecordResponse {
	if record == nil {
		return nil
	}
	return &DepartureRecordResponse{
		ID:          record.ID.String(),
		Barcode:     record.Barcode,
		Name:        record.Name,
		Description: record.Description,
		ReceivedAt:  record.ReceivedAt,
		ReceivedBy:  ToIdentityResponse(record.ReceivedBy),
		DepartedAt:  record.DepartedAt,
		DepartedBy:  ToIdentityResponse(record.DepartedBy),
	}
}

// ToStockEntryResponses converts a slice of entries
func ToStockEntryResponses(entries []inventory.StockEntry) []StockEntryResponse {
	out := make([]StockEntryResponse, 0, len(entries))
	for i := range entries {
		out = append(out, *ToStockEntryResponse(&entries[i]))
	}
	return out
}

// ToDepartureRecordResponses converts a slice of records
func ToDepartureRecordResponses(records []inventory.DepartureRecord) []DepartureRecordResponse {
	out := make([]DepartureRecordResponse, 0, len(records))
	for i := range records {
		out = append(out, *ToDepartureRecordResponse(&records[i]))
	}
	return out
}
