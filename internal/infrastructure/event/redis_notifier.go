package event

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"github.com/stocktrail/backend/internal/domain/shared"
	"go.uber.org/zap"
)

// inventoryChannel is the Redis pub/sub channel carrying stock change
// notifications between server instances.
const inventoryChannel = "stocktrail:inventory:changes"

// ChangeNotification is the wire form of a cross-instance change signal.
// It carries just enough for a remote ledger to know its projection is
// stale; the receiving side reloads from the store rather than trusting
// the payload.
type ChangeNotification struct {
	Origin    string `json:"origin"`
	EventType string `json:"event_type"`
	Barcode   string `json:"barcode,omitempty"`
}

// barcodeCarrier is implemented by events that reference a barcode
type barcodeCarrier interface {
	ScannedBarcode() string
}

// RedisChangeNotifier bridges the local event bus and Redis pub/sub.
// Local stock events are broadcast to the channel; notifications that
// originate on other instances are forwarded to registered listeners so
// their ledgers can refresh.
type RedisChangeNotifier struct {
	client *redis.Client
	logger *zap.Logger
	origin string
	types  []string

	mu        sync.RWMutex
	listeners []func(ChangeNotification)

	pubsub *redis.PubSub
	wg     sync.WaitGroup
	cancel context.CancelFunc
}

// NewRedisChangeNotifier creates a notifier broadcasting the given event
// types
func NewRedisChangeNotifier(client *redis.Client, logger *zap.Logger, eventTypes ...string) *RedisChangeNotifier {
	return &RedisChangeNotifier{
		client: client,
		logger: logger,
		origin: uuid.NewString(),
		types:  eventTypes,
	}
}

// Handle broadcasts a local domain event to the Redis channel
func (n *RedisChangeNotifier) Handle(ctx context.Context, event shared.DomainEvent) error {
	notification := ChangeNotification{
		Origin:    n.origin,
		EventType: event.EventType(),
	}
	if carrier, ok := event.(barcodeCarrier); ok {
		notification.Barcode = carrier.ScannedBarcode()
	}

	payload, err := json.Marshal(notification)
	if err != nil {
		return err
	}

	if err := n.client.Publish(ctx, inventoryChannel, payload).Err(); err != nil {
		n.logger.Warn("failed to broadcast change notification",
			zap.String("event_type", event.EventType()),
			zap.Error(err),
		)
		return err
	}
	return nil
}

// EventTypes returns the event types this notifier broadcasts
func (n *RedisChangeNotifier) EventTypes() []string {
	return n.types
}

// AddListener registers a callback for notifications from other
// instances. Listeners run on the subscription goroutine and must not
// block.
func (n *RedisChangeNotifier) AddListener(fn func(ChangeNotification)) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.listeners = append(n.listeners, fn)
}

// Start subscribes to the channel and begins forwarding remote
// notifications
func (n *RedisChangeNotifier) Start(ctx context.Context) error {
	runCtx, cancel := context.WithCancel(context.Background())
	n.cancel = cancel
	n.pubsub = n.client.Subscribe(runCtx, inventoryChannel)

	// Force the subscription before returning so no notification is lost
	// between Start and the receive loop.
	if _, err := n.pubsub.Receive(ctx); err != nil {
		cancel()
		return err
	}

	n.wg.Add(1)
	go n.receiveLoop(runCtx)

	n.logger.Info("change notifier started", zap.String("channel", inventoryChannel))
	return nil
}

// Stop unsubscribes and waits for the receive loop to drain
func (n *RedisChangeNotifier) Stop(ctx context.Context) error {
	if n.cancel != nil {
		n.cancel()
	}
	if n.pubsub != nil {
		if err := n.pubsub.Close(); err != nil {
			return err
		}
	}
	n.wg.Wait()
	n.logger.Info("change notifier stopped")
	return nil
}

func (n *RedisChangeNotifier) receiveLoop(ctx context.Context) {
	defer n.wg.Done()

	ch := n.pubsub.Channel()
	for {
		select {
		case <-ctx.Done():
			return
		case msg, ok := <-ch:
			if !ok {
				return
			}
			n.dispatch(msg.Payload)
		}
	}
}

func (n *RedisChangeNotifier) dispatch(payload string) {
	var notification ChangeNotification
	if err := json.Unmarshal([]byte(payload), &notification); err != nil {
		n.logger.Warn("discarding malformed change notification", zap.Error(err))
		return
	}
	if notification.Origin == n.origin {
		// Our own broadcast; the local bus already delivered it.
		return
	}

	n.mu.RLock()
	listeners := make([]func(ChangeNotification), len(n.listeners))
	copy(listeners, n.listeners)
	n.mu.RUnlock()

	for _, fn := range listeners {
		fn(notification)
	}
}

// Ensure RedisChangeNotifier can subscribe to the local bus
var _ shared.EventHandler = (*RedisChangeNotifier)(nil)
