package inventory

import (
	"context"
	"sync"
	"testing"

	"github.com/google/uuid"
	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

// MockEventPublisher is a mock implementation of shared.EventPublisher
type MockEventPublisher struct {
	mu     sync.Mutex
	events []shared.DomainEvent
}

func NewMockEventPublisher() *MockEventPublisher {
	return &MockEventPublisher{
		events: make([]shared.DomainEvent, 0),
	}
}

func (m *MockEventPublisher) Publish(ctx context.Context, events ...shared.DomainEvent) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.events = append(m.events, events...)
	return nil
}

func (m *MockEventPublisher) GetEventsByType(eventType string) []shared.DomainEvent {
	m.mu.Lock()
	defer m.mu.Unlock()
	result := make([]shared.DomainEvent, 0)
	for _, e := range m.events {
		if e.EventType() == eventType {
			result = append(result, e)
		}
	}
	return result
}

// MockStockEntryRepository is a mock implementation of StockEntryRepository
type MockStockEntryRepository struct {
	mock.Mock
}

func (m *MockStockEntryRepository) FindByBarcode(ctx context.Context, barcode string) (*inventory.StockEntry, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindByID(ctx context.Context, id uuid.UUID) (*inventory.StockEntry, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) FindAll(ctx context.Context) ([]inventory.StockEntry, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) CreateIfAbsent(ctx context.Context, entry *inventory.StockEntry) (bool, error) {
	args := m.Called(ctx, entry)
	return args.Bool(0), args.Error(1)
}

func (m *MockStockEntryRepository) IncrementQuantity(ctx context.Context, id uuid.UUID, delta int64) (*inventory.StockEntry, error) {
	args := m.Called(ctx, id, delta)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*inventory.StockEntry), args.Error(1)
}

func (m *MockStockEntryRepository) DecrementIfAboveOne(ctx context.Context, id uuid.UUID) (*inventory.StockEntry, bool, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Bool(1), args.Error(2)
	}
	return args.Get(0).(*inventory.StockEntry), args.Bool(1), args.Error(2)
}

func (m *MockStockEntryRepository) Retire(ctx context.Context, entryID uuid.UUID, record *inventory.DepartureRecord) error {
	args := m.Called(ctx, entryID, record)
	return args.Error(0)
}

// MockDepartureRecordRepository is a mock implementation of DepartureRecordRepository
type MockDepartureRecordRepository struct {
	mock.Mock
}

func (m *MockDepartureRecordRepository) FindAll(ctx context.Context) ([]inventory.DepartureRecord, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.DepartureRecord), args.Error(1)
}

func (m *MockDepartureRecordRepository) FindByBarcode(ctx context.Context, barcode string) ([]inventory.DepartureRecord, error) {
	args := m.Called(ctx, barcode)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]inventory.DepartureRecord), args.Error(1)
}

var (
	ana = inventory.Identity{Name: "Ana", EmployeeID: "E01"}
	ben = inventory.Identity{Name: "Ben", EmployeeID: "E02"}
)

func newTestService(entries *MockStockEntryRepository, departures *MockDepartureRecordRepository, publisher *MockEventPublisher) *ReconciliationService {
	return NewReconciliationService(entries, departures, publisher, zap.NewNop(), 3)
}

func existingEntry(t *testing.T, quantity int64) *inventory.StockEntry {
	t.Helper()
	entry, err := inventory.NewStockEntry("4006381333931",
		inventory.NewItemFields{Name: "Widget", Description: "Blue"}, ana)
	require.NoError(t, err)
	entry.Quantity = quantity
	return entry
}

func TestReconciliationService_Lookup(t *testing.T) {
	t.Run("returns the entry for a known barcode", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		departures := new(MockDepartureRecordRepository)
		service := newTestService(entries, departures, NewMockEventPublisher())

		entry := existingEntry(t, 2)
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(entry, nil)

		got, err := service.Lookup(context.Background(), " 4006381333931 ")

		require.NoError(t, err)
		assert.Equal(t, entry, got)
		entries.AssertExpectations(t)
	})

	t.Run("unknown barcode is a nil entry, not an error", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		entries.On("FindByBarcode", mock.Anything, "000").Return(nil, shared.ErrNotFound)

		got, err := service.Lookup(context.Background(), "000")

		require.NoError(t, err)
		assert.Nil(t, got)
	})

	t.Run("rejects a blank barcode", func(t *testing.T) {
		service := newTestService(new(MockStockEntryRepository), new(MockDepartureRecordRepository), NewMockEventPublisher())

		got, err := service.Lookup(context.Background(), "   ")

		assert.Nil(t, got)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestReconciliationService_Receive(t *testing.T) {
	t.Run("known barcode gains one unit", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		existing := existingEntry(t, 2)
		incremented := existingEntry(t, 3)
		incremented.BaseEntity = existing.BaseEntity
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(existing, nil)
		entries.On("IncrementQuantity", mock.Anything, existing.ID, int64(1)).Return(incremented, nil)

		outcome, err := service.Receive(context.Background(), ReceiveInput{
			Barcode:  "4006381333931",
			Operator: ben,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusIncremented, outcome.Status)
		assert.Equal(t, int64(3), outcome.Entry.Quantity)
		// Receipt attribution is untouched by later receives.
		assert.Equal(t, ana, outcome.Entry.ReceivedBy)
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockReceived), 1)
		entries.AssertExpectations(t)
	})

	t.Run("unknown barcode without details surfaces not found", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		entries.On("FindByBarcode", mock.Anything, "111").Return(nil, shared.ErrNotFound)

		outcome, err := service.Receive(context.Background(), ReceiveInput{
			Barcode:  "111",
			Operator: ana,
		})

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, shared.ErrNotFound)
		entries.AssertExpectations(t)
	})

	t.Run("unknown barcode with details creates the entry", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		entries.On("FindByBarcode", mock.Anything, "111").Return(nil, shared.ErrNotFound)
		entries.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*inventory.StockEntry")).Return(true, nil)

		outcome, err := service.Receive(context.Background(), ReceiveInput{
			Barcode:  "111",
			NewItem:  &inventory.NewItemFields{Name: "Gadget"},
			Operator: ana,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusCreated, outcome.Status)
		assert.Equal(t, int64(1), outcome.Entry.Quantity)
		assert.Equal(t, ana, outcome.Entry.ReceivedBy)
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockEntryCreated), 1)
		entries.AssertExpectations(t)
	})

	t.Run("rejects blank item name on creation", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		entries.On("FindByBarcode", mock.Anything, "111").Return(nil, shared.ErrNotFound)

		outcome, err := service.Receive(context.Background(), ReceiveInput{
			Barcode:  "111",
			NewItem:  &inventory.NewItemFields{Name: "   "},
			Operator: ana,
		})

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})

	t.Run("lost creation race falls back to increment", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		winner := existingEntry(t, 1)
		incremented := existingEntry(t, 2)
		incremented.BaseEntity = winner.BaseEntity

		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(nil, shared.ErrNotFound).Once()
		entries.On("CreateIfAbsent", mock.Anything, mock.AnythingOfType("*inventory.StockEntry")).Return(false, nil).Once()
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(winner, nil).Once()
		entries.On("IncrementQuantity", mock.Anything, winner.ID, int64(1)).Return(incremented, nil).Once()

		outcome, err := service.Receive(context.Background(), ReceiveInput{
			Barcode:  "4006381333931",
			NewItem:  &inventory.NewItemFields{Name: "Widget"},
			Operator: ben,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusIncremented, outcome.Status)
		assert.Equal(t, int64(2), outcome.Entry.Quantity)
		assert.Empty(t, publisher.GetEventsByType(inventory.EventTypeStockEntryCreated))
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockReceived), 1)
		entries.AssertExpectations(t)
	})

	t.Run("rejects a zero operator", func(t *testing.T) {
		service := newTestService(new(MockStockEntryRepository), new(MockDepartureRecordRepository), NewMockEventPublisher())

		outcome, err := service.Receive(context.Background(), ReceiveInput{Barcode: "111"})

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, shared.ErrValidationFailed)
	})
}

func TestReconciliationService_Release(t *testing.T) {
	t.Run("decrements when more than one unit remains", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		existing := existingEntry(t, 3)
		decremented := existingEntry(t, 2)
		decremented.BaseEntity = existing.BaseEntity
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(existing, nil)
		entries.On("DecrementIfAboveOne", mock.Anything, existing.ID).Return(decremented, true, nil)

		outcome, err := service.Release(context.Background(), ReleaseInput{
			Barcode:  "4006381333931",
			Operator: ben,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusDecremented, outcome.Status)
		assert.Equal(t, int64(2), outcome.Entry.Quantity)
		assert.Nil(t, outcome.Record)
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockReleased), 1)
		entries.AssertExpectations(t)
	})

	t.Run("retires the last unit into a departure record", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		existing := existingEntry(t, 1)
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(existing, nil)
		entries.On("DecrementIfAboveOne", mock.Anything, existing.ID).Return(nil, false, nil)
		entries.On("Retire", mock.Anything, existing.ID, mock.AnythingOfType("*inventory.DepartureRecord")).Return(nil)

		outcome, err := service.Release(context.Background(), ReleaseInput{
			Barcode:  "4006381333931",
			Operator: ben,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusRetired, outcome.Status)
		assert.Nil(t, outcome.Entry)
		require.NotNil(t, outcome.Record)
		assert.Equal(t, "4006381333931", outcome.Record.Barcode)
		// Receipt lineage is copied, departure is attributed to the releaser.
		assert.Equal(t, ana, outcome.Record.ReceivedBy)
		assert.Equal(t, ben, outcome.Record.DepartedBy)
		assert.Len(t, publisher.GetEventsByType(inventory.EventTypeStockEntryRetired), 1)
		entries.AssertExpectations(t)
	})

	t.Run("unknown barcode surfaces not found", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		entries.On("FindByBarcode", mock.Anything, "999").Return(nil, shared.ErrNotFound)

		outcome, err := service.Release(context.Background(), ReleaseInput{
			Barcode:  "999",
			Operator: ana,
		})

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})

	t.Run("interrupted retirement is retried against fresh state", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		publisher := NewMockEventPublisher()
		service := newTestService(entries, new(MockDepartureRecordRepository), publisher)

		// First pass: looks like the last unit, but a concurrent receive
		// bumps the quantity before the retirement commits. Second pass
		// settles as a plain decrement.
		existing := existingEntry(t, 1)
		refreshed := existingEntry(t, 2)
		refreshed.BaseEntity = existing.BaseEntity
		decremented := existingEntry(t, 1)
		decremented.BaseEntity = existing.BaseEntity

		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(existing, nil).Once()
		entries.On("DecrementIfAboveOne", mock.Anything, existing.ID).Return(nil, false, nil).Once()
		entries.On("Retire", mock.Anything, existing.ID, mock.AnythingOfType("*inventory.DepartureRecord")).Return(shared.ErrInvalidState).Once()
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(refreshed, nil).Once()
		entries.On("DecrementIfAboveOne", mock.Anything, existing.ID).Return(decremented, true, nil).Once()

		outcome, err := service.Release(context.Background(), ReleaseInput{
			Barcode:  "4006381333931",
			Operator: ben,
		})

		require.NoError(t, err)
		assert.Equal(t, StatusDecremented, outcome.Status)
		assert.Empty(t, publisher.GetEventsByType(inventory.EventTypeStockEntryRetired))
		entries.AssertExpectations(t)
	})

	t.Run("gives up after persistent contention", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		existing := existingEntry(t, 1)
		entries.On("FindByBarcode", mock.Anything, "4006381333931").Return(existing, nil)
		entries.On("DecrementIfAboveOne", mock.Anything, existing.ID).Return(nil, false, nil)
		entries.On("Retire", mock.Anything, existing.ID, mock.AnythingOfType("*inventory.DepartureRecord")).Return(shared.ErrInvalidState)

		outcome, err := service.Release(context.Background(), ReleaseInput{
			Barcode:  "4006381333931",
			Operator: ben,
		})

		assert.Nil(t, outcome)
		assert.ErrorIs(t, err, shared.ErrInvalidState)
	})
}

func TestReconciliationService_Listings(t *testing.T) {
	t.Run("lists active entries", func(t *testing.T) {
		entries := new(MockStockEntryRepository)
		service := newTestService(entries, new(MockDepartureRecordRepository), NewMockEventPublisher())

		active := []inventory.StockEntry{*existingEntry(t, 2)}
		entries.On("FindAll", mock.Anything).Return(active, nil)

		got, err := service.ListActive(context.Background())

		require.NoError(t, err)
		assert.Len(t, got, 1)
	})

	t.Run("lists departure history for one barcode", func(t *testing.T) {
		departures := new(MockDepartureRecordRepository)
		service := newTestService(new(MockStockEntryRepository), departures, NewMockEventPublisher())

		record := inventory.NewDepartureRecord(existingEntry(t, 1), ben)
		departures.On("FindByBarcode", mock.Anything, "4006381333931").Return([]inventory.DepartureRecord{*record}, nil)

		got, err := service.DepartureHistory(context.Background(), "4006381333931")

		require.NoError(t, err)
		assert.Len(t, got, 1)
		assert.Equal(t, ben, got[0].DepartedBy)
	})
}
