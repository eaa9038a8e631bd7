package notification

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/krobus00/arbitrage-service/internal/entity"
	"github.com/sirupsen/logrus"
)

// Listener receives bus events. Notify returns an error only when the
// listener is gone for good; the bus then drops it.
type Listener interface {
	Notify(ctx context.Context, event entity.NotificationEvent) error
}

const defaultDeliveryTimeout = 5 * time.Second

// Bus fans events out to its listeners. Each delivery runs in its own
// goroutine so a slow or failing listener never holds up the others.
type Bus struct {
	mu        sync.RWMutex
	listeners map[Listener]struct{}
	timeout   time.Duration
}

type BusOption func(*Bus)

// WithDeliveryTimeout bounds the context handed to each Notify call.
func WithDeliveryTimeout(timeout time.Duration) BusOption {
	return func(b *Bus) {
		if timeout > 0 {
			b.timeout = timeout
		}
	}
}

func NewBus(opts ...BusOption) *Bus {
	b := &Bus{
		listeners: make(map[Listener]struct{}),
		timeout:   defaultDeliveryTimeout,
	}
	for _, opt := range opts {
		opt(b)
	}
	return b
}

func (b *Bus) Subscribe(listener Listener) {
	b.mu.Lock()
	b.listeners[listener] = struct{}{}
	b.mu.Unlock()
}

func (b *Bus) Unsubscribe(listener Listener) {
	b.mu.Lock()
	delete(b.listeners, listener)
	b.mu.Unlock()
}

func (b *Bus) Size() int {
	b.mu.RLock()
	defer b.mu.RUnlock()

	return len(b.listeners)
}

type delivery struct {
	listener Listener
	err      error
}

// Broadcast delivers event to a snapshot of the current listeners. Each Notify
// gets a context bounded by the delivery timeout; a listener still running
// twice that long after the broadcast started is dropped and no longer waited on.
func (b *Bus) Broadcast(ctx context.Context, event entity.NotificationEvent) {
	b.mu.RLock()
	pending := make(map[Listener]struct{}, len(b.listeners))
	for listener := range b.listeners {
		pending[listener] = struct{}{}
	}
	b.mu.RUnlock()

	if len(pending) == 0 {
		return
	}

	results := make(chan delivery, len(pending))
	for listener := range pending {
		go func() {
			deliveryCtx, cancel := context.WithTimeout(ctx, b.timeout)
			defer cancel()

			results <- delivery{listener: listener, err: deliver(deliveryCtx, listener, event)}
		}()
	}

	logger := logrus.WithField("event", event.Type)

	deadline := time.NewTimer(2 * b.timeout)
	defer deadline.Stop()

	for len(pending) > 0 {
		select {
		case res := <-results:
			delete(pending, res.listener)
			if res.err != nil {
				logger.Debugf("dropping notification listener: %v", res.err)
				b.Unsubscribe(res.listener)
			}
		case <-deadline.C:
			for listener := range pending {
				logger.Warn("dropping notification listener that ignored its deadline")
				b.Unsubscribe(listener)
			}
			return
		}
	}
}

func deliver(ctx context.Context, listener Listener, event entity.NotificationEvent) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("listener panicked: %v", r)
		}
	}()

	return listener.Notify(ctx, event)
}
