package inventory

import (
	"context"
	"sync"

	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// LedgerSnapshot is one consistent view of both stock collections.
// Loaded is false until the first load of a session completes, so
// consumers can tell "empty warehouse" apart from "not loaded yet".
type LedgerSnapshot struct {
	Active   []inventory.StockEntry
	Departed []inventory.DepartureRecord
	Loaded   bool
}

// Ledger is a live projection of the active and departed collections.
// It subscribes to stock events on the local bus and to change signals
// from other instances, reloads from the store on every change, and
// fans the fresh snapshot out to its subscribers.
//
// A session runs from Start to Stop. Subscribers registered mid-session
// immediately receive the current snapshot.
type Ledger struct {
	entries    inventory.StockEntryRepository
	departures inventory.DepartureRecordRepository
	logger     *zap.Logger

	mu          sync.RWMutex
	snapshot    LedgerSnapshot
	subscribers map[int]func(LedgerSnapshot)
	nextSubID   int
	started     bool

	reload chan struct{}
	done   chan struct{}
	cancel context.CancelFunc
}

// NewLedger creates a stopped ledger over the two collections
func NewLedger(
	entries inventory.StockEntryRepository,
	departures inventory.DepartureRecordRepository,
	logger *zap.Logger,
) *Ledger {
	return &Ledger{
		entries:     entries,
		departures:  departures,
		logger:      logger,
		subscribers: make(map[int]func(LedgerSnapshot)),
		reload:      make(chan struct{}, 1),
	}
}

// Start begins a session: it loads both collections and then serves
// reload signals until Stop. Starting an already started ledger is a
// no-op.
func (l *Ledger) Start(ctx context.Context) error {
	l.mu.Lock()
	if l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = true
	runCtx, cancel := context.WithCancel(context.Background())
	l.cancel = cancel
	l.done = make(chan struct{})
	l.mu.Unlock()

	if err := l.load(ctx); err != nil {
		// Session still starts; the next change signal retries the load.
		l.logger.Error("initial ledger load failed", zap.Error(err))
	}

	go l.run(runCtx)
	l.logger.Info("ledger session started")
	return nil
}

// Stop ends the session and clears the cached collections so nothing
// stale survives into the next operator's session.
func (l *Ledger) Stop(ctx context.Context) error {
	l.mu.Lock()
	if !l.started {
		l.mu.Unlock()
		return nil
	}
	l.started = false
	cancel := l.cancel
	done := l.done
	l.mu.Unlock()

	cancel()
	select {
	case <-done:
	case <-ctx.Done():
		return ctx.Err()
	}

	l.mu.Lock()
	l.snapshot = LedgerSnapshot{}
	l.mu.Unlock()

	l.logger.Info("ledger session stopped")
	return nil
}

// Snapshot returns the current projection
func (l *Ledger) Snapshot() LedgerSnapshot {
	l.mu.RLock()
	defer l.mu.RUnlock()
	return l.snapshot
}

// Subscribe registers a callback for every fresh snapshot and returns
// its unsubscribe function. The callback immediately receives the
// current snapshot.
func (l *Ledger) Subscribe(fn func(LedgerSnapshot)) func() {
	l.mu.Lock()
	id := l.nextSubID
	l.nextSubID++
	l.subscribers[id] = fn
	current := l.snapshot
	l.mu.Unlock()

	fn(current)

	return func() {
		l.mu.Lock()
		defer l.mu.Unlock()
		delete(l.subscribers, id)
	}
}

// Refresh signals that the collections changed. Signals coalesce: many
// rapid scans cost one reload.
func (l *Ledger) Refresh() {
	select {
	case l.reload <- struct{}{}:
	default:
	}
}

// Handle lets the ledger sit on the event bus; any stock event triggers
// a reload
func (l *Ledger) Handle(ctx context.Context, event shared.DomainEvent) error {
	l.Refresh()
	return nil
}

// EventTypes returns the stock events the ledger reloads on
func (l *Ledger) EventTypes() []string {
	return []string{
		inventory.EventTypeStockEntryCreated,
		inventory.EventTypeStockReceived,
		inventory.EventTypeStockReleased,
		inventory.EventTypeStockEntryRetired,
	}
}

func (l *Ledger) run(ctx context.Context) {
	defer close(l.done)

	for {
		select {
		case <-ctx.Done():
			return
		case <-l.reload:
			if err := l.load(ctx); err != nil {
				l.logger.Error("ledger reload failed", zap.Error(err))
			}
		}
	}
}

// load reads both collections and publishes the new snapshot
func (l *Ledger) load(ctx context.Context) error {
	active, err := l.entries.FindAll(ctx)
	if err != nil {
		return err
	}
	departed, err := l.departures.FindAll(ctx)
	if err != nil {
		return err
	}

	snapshot := LedgerSnapshot{
		Active:   active,
		Departed: departed,
		Loaded:   true,
	}

	l.mu.Lock()
	l.snapshot = snapshot
	subscribers := make([]func(LedgerSnapshot), 0, len(l.subscribers))
	for _, fn := range l.subscribers {
		subscribers = append(subscribers, fn)
	}
	l.mu.Unlock()

	for _, fn := range subscribers {
		fn(snapshot)
	}
	return nil
}

// Ensure Ledger can subscribe to the event bus
var _ shared.EventHandler = (*Ledger)(nil)
