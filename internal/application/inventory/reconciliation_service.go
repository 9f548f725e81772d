package inventory

import (
	"context"
	"errors"
	"strings"

	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// OutcomeStatus names what a receive or release actually did to the stock
type OutcomeStatus string

const (
	// StatusCreated means a first-seen barcode produced a new entry with
	// quantity 1
	StatusCreated OutcomeStatus = "created"
	// StatusIncremented means an existing entry gained one unit
	StatusIncremented OutcomeStatus = "incremented"
	// StatusDecremented means an existing entry lost one unit with stock
	// remaining
	StatusDecremented OutcomeStatus = "decremented"
	// StatusRetired means the last unit left and the entry became a
	// departure record
	StatusRetired OutcomeStatus = "retired"
)

// ReceiveInput carries one inbound scan. NewItem is nil on a plain
// receive; it must be set when the barcode has never been seen.
type ReceiveInput struct {
	Barcode  string
	NewItem  *inventory.NewItemFields
	Operator inventory.Identity
}

// ReceiveOutcome reports what a receive did
type ReceiveOutcome struct {
	Status OutcomeStatus
	Entry  *inventory.StockEntry
}

// ReleaseInput carries one outbound scan
type ReleaseInput struct {
	Barcode  string
	Operator inventory.Identity
}

// ReleaseOutcome reports what a release did. Entry is set on a
// decrement, Record on a retirement; never both.
type ReleaseOutcome struct {
	Status OutcomeStatus
	Entry  *inventory.StockEntry
	Record *inventory.DepartureRecord
}

// ReconciliationService applies barcode scans to the stock collections.
// Quantity never changes by more than one per call, and every mutation
// is pushed down to a conditional store operation so concurrent scans
// of the same barcode settle without lost updates.
type ReconciliationService struct {
	entries    inventory.StockEntryRepository
	departures inventory.DepartureRecordRepository
	publisher  shared.EventPublisher
	logger     *zap.Logger
	maxRetries int
}

// NewReconciliationService creates a new ReconciliationService
func NewReconciliationService(
	entries inventory.StockEntryRepository,
	departures inventory.DepartureRecordRepository,
	publisher shared.EventPublisher,
	logger *zap.Logger,
	maxRetries int,
) *ReconciliationService {
	if maxRetries < 1 {
		maxRetries = 1
	}
	return &ReconciliationService{
		entries:    entries,
		departures: departures,
		publisher:  publisher,
		logger:     logger,
		maxRetries: maxRetries,
	}
}

// Lookup returns the active entry for a barcode. An unknown barcode is
// a nil entry, not an error; a lookup miss is an expected outcome.
func (s *ReconciliationService) Lookup(ctx context.Context, barcode string) (*inventory.StockEntry, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.ErrValidationFailed
	}
	entry, err := s.entries.FindByBarcode(ctx, barcode)
	if err != nil {
		if errors.Is(err, shared.ErrNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return entry, nil
}

// Receive applies one inbound unit for the barcode.
//
// A known barcode gains one unit. An unknown barcode needs NewItem
// details; without them the scan surfaces shared.ErrNotFound so the
// caller can collect them and retry. A racing retirement or a racing
// creation is absorbed by retrying the other branch.
func (s *ReconciliationService) Receive(ctx context.Context, input ReceiveInput) (*ReceiveOutcome, error) {
	barcode := strings.TrimSpace(input.Barcode)
	if barcode == "" || input.Operator.IsZero() {
		return nil, shared.ErrValidationFailed
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		existing, err := s.entries.FindByBarcode(ctx, barcode)
		switch {
		case err == nil:
			entry, err := s.entries.IncrementQuantity(ctx, existing.ID, 1)
			if errors.Is(err, shared.ErrNotFound) {
				// Retired between the find and the increment; take the
				// create branch on the next attempt.
				continue
			}
			if err != nil {
				return nil, err
			}
			s.publish(ctx, inventory.NewStockReceivedEvent(entry, input.Operator))
			s.logger.Info("stock received",
				zap.String("barcode", entry.Barcode),
				zap.Int64("quantity", entry.Quantity),
				zap.String("operator", input.Operator.EmployeeID),
			)
			return &ReceiveOutcome{Status: StatusIncremented, Entry: entry}, nil

		case errors.Is(err, shared.ErrNotFound):
			if input.NewItem == nil {
				// First sighting; the caller must supply item details.
				return nil, shared.ErrNotFound
			}
			if err := input.NewItem.Validate(); err != nil {
				return nil, err
			}
			entry, err := inventory.NewStockEntry(barcode, *input.NewItem, input.Operator)
			if err != nil {
				return nil, err
			}
			created, err := s.entries.CreateIfAbsent(ctx, entry)
			if err != nil {
				return nil, err
			}
			if !created {
				// Another scanner created the entry first; retry as a
				// plain increment.
				continue
			}
			s.publish(ctx, inventory.NewStockEntryCreatedEvent(entry))
			s.logger.Info("stock entry created",
				zap.String("barcode", entry.Barcode),
				zap.String("name", entry.Name),
				zap.String("operator", input.Operator.EmployeeID),
			)
			return &ReceiveOutcome{Status: StatusCreated, Entry: entry}, nil

		default:
			return nil, err
		}
	}

	s.logger.Warn("receive gave up after contention",
		zap.String("barcode", barcode),
		zap.Int("attempts", s.maxRetries),
	)
	return nil, shared.ErrInvalidState
}

// Release applies one outbound unit for the barcode.
//
// With more than one unit on hand the entry is decremented. At the last
// unit the entry is retired: deleted and replaced by an immutable
// departure record in one transaction. A scan racing the retirement is
// retried against the fresh state.
func (s *ReconciliationService) Release(ctx context.Context, input ReleaseInput) (*ReleaseOutcome, error) {
	barcode := strings.TrimSpace(input.Barcode)
	if barcode == "" || input.Operator.IsZero() {
		return nil, shared.ErrValidationFailed
	}

	for attempt := 0; attempt < s.maxRetries; attempt++ {
		existing, err := s.entries.FindByBarcode(ctx, barcode)
		if err != nil {
			return nil, err
		}

		entry, decremented, err := s.entries.DecrementIfAboveOne(ctx, existing.ID)
		if err != nil {
			return nil, err
		}
		if decremented {
			s.publish(ctx, inventory.NewStockReleasedEvent(entry, input.Operator))
			s.logger.Info("stock released",
				zap.String("barcode", entry.Barcode),
				zap.Int64("quantity", entry.Quantity),
				zap.String("operator", input.Operator.EmployeeID),
			)
			return &ReleaseOutcome{Status: StatusDecremented, Entry: entry}, nil
		}

		// Last unit: retire the entry into a departure record.
		record := inventory.NewDepartureRecord(existing, input.Operator)
		err = s.entries.Retire(ctx, existing.ID, record)
		if errors.Is(err, shared.ErrInvalidState) {
			// A concurrent scan moved the quantity first; re-read and
			// settle against the new state.
			continue
		}
		if err != nil {
			return nil, err
		}
		s.publish(ctx, inventory.NewStockEntryRetiredEvent(existing.ID, record))
		s.logger.Info("stock entry retired",
			zap.String("barcode", record.Barcode),
			zap.String("operator", input.Operator.EmployeeID),
		)
		return &ReleaseOutcome{Status: StatusRetired, Record: record}, nil
	}

	s.logger.Warn("release gave up after contention",
		zap.String("barcode", barcode),
		zap.Int("attempts", s.maxRetries),
	)
	return nil, shared.ErrInvalidState
}

// ListActive returns every active entry in insertion order
func (s *ReconciliationService) ListActive(ctx context.Context) ([]inventory.StockEntry, error) {
	return s.entries.FindAll(ctx)
}

// ListDeparted returns departure records, most recent first
func (s *ReconciliationService) ListDeparted(ctx context.Context) ([]inventory.DepartureRecord, error) {
	return s.departures.FindAll(ctx)
}

// DepartureHistory returns every departure of a barcode, most recent
// first. A barcode can depart more than once if it is received again
// after retirement.
func (s *ReconciliationService) DepartureHistory(ctx context.Context, barcode string) ([]inventory.DepartureRecord, error) {
	barcode = strings.TrimSpace(barcode)
	if barcode == "" {
		return nil, shared.ErrValidationFailed
	}
	return s.departures.FindByBarcode(ctx, barcode)
}

// publish sends events without letting a projection failure fail the scan
func (s *ReconciliationService) publish(ctx context.Context, events ...shared.DomainEvent) {
	if err := s.publisher.Publish(ctx, events...); err != nil {
		s.logger.Error("failed to publish stock events", zap.Error(err))
	}
}
