package scan

import (
	"context"
	"errors"
	"sync"
	"time"

	appinventory "github.com/stocktrail/backend/internal/application/inventory"
	"github.com/stocktrail/backend/internal/domain/inventory"
	"github.com/stocktrail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// Mode says which direction a scan moves stock. It is captured when the
// scan is dispatched, so flipping the mode mid-flight never changes how
// an in-flight scan settles.
type Mode string

const (
	ModeReceive Mode = "receive"
	ModeRelease Mode = "release"
)

// State is the dispatcher's position in its scan cycle
type State string

const (
	// StateIdle means the dispatcher accepts the next scan
	StateIdle State = "idle"
	// StateProcessing means a scan is being applied; further reads are
	// dropped
	StateProcessing State = "processing"
	// StateAwaitingDetails means a first-seen barcode is parked until the
	// operator supplies item details
	StateAwaitingDetails State = "awaiting_details"
)

// StatusAwaitingDetails marks a receive parked until the operator
// supplies item details
const StatusAwaitingDetails appinventory.OutcomeStatus = "awaiting_details"

// Dispatcher errors
var (
	ErrBusy          = errors.New("a scan is already being processed")
	ErrDuplicateScan = errors.New("barcode already scanned within the suppression window")
	ErrNoPendingScan = errors.New("no scan is awaiting details")
)

// BarcodeSource is the scanner feed the dispatcher can gate. Pausing
// stops deliveries while a scan settles or details are collected;
// hardware scanners and camera feeds both fit.
type BarcodeSource interface {
	Pause()
	Resume()
}

// nopSource is used when no gateable source is attached
type nopSource struct{}

func (nopSource) Pause()  {}
func (nopSource) Resume() {}

// Reconciler is the slice of the reconciliation service the dispatcher
// drives
type Reconciler interface {
	Receive(ctx context.Context, input appinventory.ReceiveInput) (*appinventory.ReceiveOutcome, error)
	Release(ctx context.Context, input appinventory.ReleaseInput) (*appinventory.ReleaseOutcome, error)
}

// Result is what a settled scan reports back to the operator
type Result struct {
	Barcode string
	Mode    Mode
	Status  appinventory.OutcomeStatus
	Entry   *inventory.StockEntry
	Record  *inventory.DepartureRecord
}

// pendingScan holds a first-seen receive while details are collected.
// Mode and operator are frozen from the moment of dispatch.
type pendingScan struct {
	barcode  string
	operator inventory.Identity
}

func dedupeKey(mode Mode, barcode string) string {
	return string(mode) + ":" + barcode
}

// Dispatcher serializes barcode scans through a small state machine:
// Idle accepts one scan, Processing applies it, AwaitingDetails parks a
// first-seen barcode until the operator describes the item. Reads of the
// same barcode inside the suppression window are dropped so one physical
// scan cannot double-apply.
type Dispatcher struct {
	reconciler Reconciler
	dedupe     shared.IdempotencyStore
	source     BarcodeSource
	logger     *zap.Logger
	window     time.Duration

	mu      sync.Mutex
	state   State
	pending *pendingScan
}

// Option configures a Dispatcher
type Option func(*Dispatcher)

// WithBarcodeSource attaches a gateable scanner feed
func WithBarcodeSource(source BarcodeSource) Option {
	return func(d *Dispatcher) {
		d.source = source
	}
}

// NewDispatcher creates an idle dispatcher
func NewDispatcher(
	reconciler Reconciler,
	dedupe shared.IdempotencyStore,
	window time.Duration,
	logger *zap.Logger,
	opts ...Option,
) *Dispatcher {
	d := &Dispatcher{
		reconciler: reconciler,
		dedupe:     dedupe,
		source:     nopSource{},
		logger:     logger,
		window:     window,
		state:      StateIdle,
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// State returns the dispatcher's current state
func (d *Dispatcher) State() State {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.state
}

// Dispatch runs one scan through to a settled outcome.
//
// Scans arriving while not Idle return ErrBusy and change nothing.
// Repeated reads of the same barcode and mode inside the suppression
// window return ErrDuplicateScan; the window is debounce-scale, meant
// for double-fired decode events, so an operator scanning a second
// unit of the same barcode accumulates normally. A receive of a
// first-seen barcode parks the dispatcher in AwaitingDetails and
// reports StatusAwaitingDetails; every other path lands back in Idle.
// A scan that ends without a store mutation gives its suppression key
// back, so a fresh read can retry right away.
func (d *Dispatcher) Dispatch(ctx context.Context, barcode string, mode Mode, operator inventory.Identity) (*Result, error) {
	d.mu.Lock()
	if d.state != StateIdle {
		d.mu.Unlock()
		return nil, ErrBusy
	}
	d.state = StateProcessing
	d.mu.Unlock()

	d.source.Pause()

	key := dedupeKey(mode, barcode)
	fresh, err := d.dedupe.MarkProcessed(ctx, key, d.window)
	if err != nil {
		// Suppression store down: let the scan through rather than block
		// the floor; the store mutations themselves are conditional.
		d.logger.Warn("duplicate suppression unavailable", zap.Error(err))
		fresh = true
	}
	if !fresh {
		d.logger.Debug("duplicate scan dropped",
			zap.String("barcode", barcode),
			zap.String("mode", string(mode)),
		)
		d.toIdle()
		return nil, ErrDuplicateScan
	}

	switch mode {
	case ModeReceive:
		return d.dispatchReceive(ctx, key, barcode, operator)
	case ModeRelease:
		return d.dispatchRelease(ctx, key, barcode, operator)
	default:
		d.forget(ctx, key)
		d.toIdle()
		return nil, shared.ErrValidationFailed
	}
}

func (d *Dispatcher) dispatchReceive(ctx context.Context, key, barcode string, operator inventory.Identity) (*Result, error) {
	outcome, err := d.reconciler.Receive(ctx, appinventory.ReceiveInput{
		Barcode:  barcode,
		Operator: operator,
	})
	if errors.Is(err, shared.ErrNotFound) {
		// First sighting: park the scan and wait for item details. The
		// source stays paused so the operator is not interrupted.
		d.mu.Lock()
		d.state = StateAwaitingDetails
		d.pending = &pendingScan{barcode: barcode, operator: operator}
		d.mu.Unlock()
		d.logger.Info("scan awaiting item details", zap.String("barcode", barcode))
		return &Result{
			Barcode: barcode,
			Mode:    ModeReceive,
			Status:  StatusAwaitingDetails,
		}, nil
	}
	if err != nil {
		d.forget(ctx, key)
		d.toIdle()
		return nil, err
	}

	d.toIdle()
	return &Result{
		Barcode: barcode,
		Mode:    ModeReceive,
		Status:  outcome.Status,
		Entry:   outcome.Entry,
	}, nil
}

func (d *Dispatcher) dispatchRelease(ctx context.Context, key, barcode string, operator inventory.Identity) (*Result, error) {
	outcome, err := d.reconciler.Release(ctx, appinventory.ReleaseInput{
		Barcode:  barcode,
		Operator: operator,
	})
	if err != nil {
		d.forget(ctx, key)
		d.toIdle()
		return nil, err
	}

	d.toIdle()
	return &Result{
		Barcode: barcode,
		Mode:    ModeRelease,
		Status:  outcome.Status,
		Entry:   outcome.Entry,
		Record:  outcome.Record,
	}, nil
}

// ProvideDetails completes a parked first-seen receive. Invalid details
// keep the dispatcher in AwaitingDetails so the operator can correct
// them without rescanning.
func (d *Dispatcher) ProvideDetails(ctx context.Context, fields inventory.NewItemFields) (*Result, error) {
	d.mu.Lock()
	if d.state != StateAwaitingDetails || d.pending == nil {
		d.mu.Unlock()
		return nil, ErrNoPendingScan
	}
	pending := *d.pending
	d.state = StateProcessing
	d.mu.Unlock()

	outcome, err := d.reconciler.Receive(ctx, appinventory.ReceiveInput{
		Barcode:  pending.barcode,
		NewItem:  &fields,
		Operator: pending.operator,
	})
	if errors.Is(err, shared.ErrValidationFailed) {
		d.mu.Lock()
		d.state = StateAwaitingDetails
		d.mu.Unlock()
		return nil, err
	}
	if err != nil {
		d.mu.Lock()
		d.pending = nil
		d.mu.Unlock()
		d.forget(ctx, dedupeKey(ModeReceive, pending.barcode))
		d.toIdle()
		return nil, err
	}

	d.mu.Lock()
	d.pending = nil
	d.mu.Unlock()
	d.toIdle()
	return &Result{
		Barcode: pending.barcode,
		Mode:    ModeReceive,
		Status:  outcome.Status,
		Entry:   outcome.Entry,
	}, nil
}

// Cancel abandons a parked scan and returns to Idle, leaving no trace:
// nothing was written, and the suppression key is released so the same
// barcode can be rescanned immediately. Cancelling an idle dispatcher
// is a no-op.
func (d *Dispatcher) Cancel(ctx context.Context) {
	d.mu.Lock()
	if d.state != StateAwaitingDetails {
		d.mu.Unlock()
		return
	}
	pending := d.pending
	d.pending = nil
	d.mu.Unlock()
	if pending != nil {
		d.forget(ctx, dedupeKey(ModeReceive, pending.barcode))
	}
	d.toIdle()
}

// toIdle returns to Idle and reopens the barcode source
func (d *Dispatcher) toIdle() {
	d.mu.Lock()
	d.state = StateIdle
	d.mu.Unlock()
	d.source.Resume()
}

// forget releases a suppression key after a scan that settled without a
// store mutation, so a fresh read of the barcode is not dropped.
func (d *Dispatcher) forget(ctx context.Context, key string) {
	if err := d.dedupe.Clear(ctx, key); err != nil {
		d.logger.Warn("could not release suppression key",
			zap.String("key", key),
			zap.Error(err),
		)
	}
}
