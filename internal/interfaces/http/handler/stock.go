package handler

import (
	"context"
	"errors"

	"github.com/gin-gonic/gin"
	appinventory "github.com/stocktrail/backend/internal/application/inventory"
	"github.com/stocktrail/backend/internal/application/scan"
	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stocktrail/backend/internal/interfaces/http/dto"
	"github.com/stocktrail/backend/internal/interfaces/http/middleware"
)

// StockService is the read surface of the reconciliation service
type StockService interface {
	Lookup(ctx context.Context, barcode string) (*inventory.StockEntry, error)
	ListActive(ctx context.Context) ([]inventory.StockEntry, error)
	ListDeparted(ctx context.Context) ([]inventory.DepartureRecord, error)
	DepartureHistory(ctx context.Context, barcode string) ([]inventory.DepartureRecord, error)
}

// ScanDispatcher drives scans through the processing state machine
type ScanDispatcher interface {
	Dispatch(ctx context.Context, barcode string, mode scan.Mode, operator inventory.Identity) (*scan.Result, error)
	ProvideDetails(ctx context.Context, fields inventory.NewItemFields) (*scan.Result, error)
	Cancel(ctx context.Context)
	State() scan.State
}

// LedgerReader exposes the live projection of both collections
type LedgerReader interface {
	Snapshot() appinventory.LedgerSnapshot
}

// StockHandler handles stock and scan API endpoints
type StockHandler struct {
	BaseHandler
	service    StockService
	dispatcher ScanDispatcher
	ledger     LedgerReader
}

// NewStockHandler creates a new StockHandler
func NewStockHandler(service StockService, dispatcher ScanDispatcher, ledger LedgerReader) *StockHandler {
	return &StockHandler{
		service:    service,
		dispatcher: dispatcher,
		ledger:     ledger,
	}
}

// RegisterRoutes registers stock routes
func (h *StockHandler) RegisterRoutes(rg *gin.RouterGroup) {
	stock := rg.Group("/stock")
	{
		stock.GET("/active", h.ListActive)
		stock.GET("/departed", h.ListDeparted)
		stock.GET("/ledger", h.Ledger)
		stock.GET("/:barcode", h.Lookup)
		stock.GET("/:barcode/departures", h.DepartureHistory)
	}

	scans := rg.Group("/scan")
	{
		scans.POST("", h.Scan)
		scans.POST("/details", h.ProvideDetails)
		scans.POST("/cancel", h.CancelScan)
		scans.GET("/state", h.ScanState)
	}
}

// Lookup returns the active entry for a barcode
func (h *StockHandler) Lookup(c *gin.Context) {
	entry, err := h.service.Lookup(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	if entry == nil {
		h.ErrorWithCode(c, dto.ErrCodeNotFound, "No active entry for this barcode")
		return
	}
	h.Success(c, dto.ToStockEntryResponse(entry))
}

// ListActive returns every active entry in insertion order
func (h *StockHandler) ListActive(c *gin.Context) {
	entries, err := h.service.ListActive(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToStockEntryResponses(entries))
}

// ListDeparted returns departure records, most recent first
func (h *StockHandler) ListDeparted(c *gin.Context) {
	records, err := h.service.ListDeparted(c.Request.Context())
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToDepartureRecordResponses(records))
}

// DepartureHistory returns every departure of a barcode, most recent first
func (h *StockHandler) DepartureHistory(c *gin.Context) {
	records, err := h.service.DepartureHistory(c.Request.Context(), c.Param("barcode"))
	if err != nil {
		h.HandleError(c, err)
		return
	}
	h.Success(c, dto.ToDepartureRecordResponses(records))
}

// Ledger returns the current snapshot of both collections
func (h *StockHandler) Ledger(c *gin.Context) {
	snapshot := h.ledger.Snapshot()
	h.Success(c, dto.LedgerResponse{
		Loaded:   snapshot.Loaded,
		Active:   dto.ToStockEntryResponses(snapshot.Active),
		Departed: dto.ToDepartureRecordResponses(snapshot.Departed),
	})
}

// Scan dispatches one barcode read in the requested mode
func (h *StockHandler) Scan(c *gin.Context) {
	var req dto.ScanRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	operator := middleware.GetOperatorIdentity(c)
	result, err := h.dispatcher.Dispatch(c.Request.Context(), req.Barcode, scan.Mode(req.Mode), operator)
	if err != nil {
		h.handleScanError(c, err)
		return
	}
	h.Success(c, toScanResult(result))
}

// ProvideDetails completes a scan parked for item details
func (h *StockHandler) ProvideDetails(c *gin.Context) {
	var req dto.ItemDetailsRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		middleware.HandleValidationError(c, err)
		return
	}

	result, err := h.dispatcher.ProvideDetails(c.Request.Context(), inventory.NewItemFields{
		Name:        req.Name,
		Description: req.Description,
	})
	if errors.Is(err, shared.ErrValidationFailed) {
		// The scan stays parked; the operator corrects the form and
		// resubmits.
		h.ErrorWithCode(c, dto.ErrCodeDetailsRequired, "Item details must include a name")
		return
	}
	if err != nil {
		h.handleScanError(c, err)
		return
	}
	h.Created(c, toScanResult(result))
}

// CancelScan abandons a parked scan
func (h *StockHandler) CancelScan(c *gin.Context) {
	h.dispatcher.Cancel(c.Request.Context())
	h.NoContent(c)
}

// ScanState reports where the dispatcher is in its scan cycle
func (h *StockHandler) ScanState(c *gin.Context) {
	h.Success(c, gin.H{"state": string(h.dispatcher.State())})
}

// handleScanError maps dispatcher errors onto scan-specific API codes
func (h *StockHandler) handleScanError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, scan.ErrBusy):
		h.ErrorWithCode(c, dto.ErrCodeScannerBusy, "A scan is already being processed")
	case errors.Is(err, scan.ErrDuplicateScan):
		h.ErrorWithCode(c, dto.ErrCodeDuplicateScan, "Barcode already scanned moments ago")
	case errors.Is(err, scan.ErrNoPendingScan):
		h.ErrorWithCode(c, dto.ErrCodeNoPendingScan, "No scan is awaiting details")
	default:
		h.HandleError(c, err)
	}
}

// toScanResult converts a dispatcher result
func toScanResult(result *scan.Result) dto.ScanResultResponse {
	return dto.ScanResultResponse{
		Barcode: result.Barcode,
		Mode:    string(result.Mode),
		Status:  string(result.Status),
		Entry:   dto.ToStockEntryResponse(result.Entry),
		Record:  dto.ToDepartureRecordResponse(result.Record),
	}
}
