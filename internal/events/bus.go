// Package events provides the in-process event bus used for observability.
// Console surfaces, the audit trail, and run history all observe execution
// through events rather than by hooking the engine directly.
package events

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"
)

// EventBus distributes events to subscribers with filtering support.
//
// Thread safety: all methods are safe for concurrent use. Publish never
// blocks on slow subscribers; when a subscriber's buffer is full the event
// is dropped for that subscriber only and reported to the error handler.
type EventBus interface {
	// Publish sends an event to all matching subscribers.
	// Returns an error only if the event bus is closed.
	Publish(ctx context.Context, event Event) error

	// Subscribe creates a subscription with optional filtering. It returns
	// a channel for receiving events and a cleanup function that must be
	// called to prevent resource leaks. bufferSize 0 uses the default.
	Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func())

	// Close shuts down the event bus and all subscriptions.
	// After Close returns, Publish will return an error.
	Close() error
}

// DefaultEventBus implements EventBus with buffered channels and
// non-blocking sends.
type DefaultEventBus struct {
	mu          sync.RWMutex
	subscribers map[string]*subscription
	options     *eventBusOptions
	closed      bool
}

type subscription struct {
	id       string
	ch       chan Event
	filter   Filter
	ctx      context.Context
	cancel   context.CancelFunc
	created  time.Time
	received atomic.Int64
	dropped  atomic.Int64
}

type eventBusOptions struct {
	defaultBufferSize int
	errorHandler      ErrorHandler
}

// ErrorHandler is called when an error occurs during event bus operations,
// such as an event dropped for a slow subscriber.
type ErrorHandler func(err error, context map[string]any)

// Option is a functional option for configuring DefaultEventBus.
type Option func(*eventBusOptions)

// WithDefaultBufferSize sets the default buffer size for subscriber
// channels, used when Subscribe is called with bufferSize 0. Default: 100.
func WithDefaultBufferSize(size int) Option {
	return func(opts *eventBusOptions) {
		if size > 0 {
			opts.defaultBufferSize = size
		}
	}
}

// WithErrorHandler sets the error handler for event bus operations.
// Default: no-op handler.
func WithErrorHandler(handler ErrorHandler) Option {
	return func(opts *eventBusOptions) {
		if handler != nil {
			opts.errorHandler = handler
		}
	}
}

// NewEventBus creates a new DefaultEventBus with the given options.
func NewEventBus(opts ...Option) *DefaultEventBus {
	options := &eventBusOptions{
		defaultBufferSize: 100,
		errorHandler:      func(error, map[string]any) {},
	}

	for _, opt := range opts {
		opt(options)
	}

	return &DefaultEventBus{
		subscribers: make(map[string]*subscription),
		options:     options,
	}
}

// Publish sends an event to all matching subscribers. Full subscriber
// buffers drop the event for that subscriber rather than blocking.
func (eb *DefaultEventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	if eb.closed {
		return fmt.Errorf("event bus is closed")
	}

	for _, sub := range eb.subscribers {
		select {
		case <-sub.ctx.Done():
			// Subscriber disconnected, cleaned up by its cleanup func.
			continue
		default:
		}

		if !sub.filter.Matches(event) {
			continue
		}

		select {
		case sub.ch <- event:
			sub.received.Add(1)
		case <-ctx.Done():
			return ctx.Err()
		default:
			sub.dropped.Add(1)
			eb.options.errorHandler(
				fmt.Errorf("dropped event for slow subscriber"),
				map[string]any{
					"subscriber_id": sub.id,
					"event_type":    event.Type,
					"run_id":        event.RunID,
				},
			)
		}
	}

	return nil
}

// Subscribe creates a new subscription. The returned cleanup function must
// be called to unsubscribe and close the channel.
func (eb *DefaultEventBus) Subscribe(ctx context.Context, filter Filter, bufferSize int) (<-chan Event, func()) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if bufferSize <= 0 {
		bufferSize = eb.options.defaultBufferSize
	}

	subCtx, cancel := context.WithCancel(ctx)
	sub := &subscription{
		id:      generateSubscriberID(),
		ch:      make(chan Event, bufferSize),
		filter:  filter,
		ctx:     subCtx,
		cancel:  cancel,
		created: time.Now(),
	}

	eb.subscribers[sub.id] = sub

	cleanup := func() {
		eb.unsubscribe(sub.id)
	}

	return sub.ch, cleanup
}

func (eb *DefaultEventBus) unsubscribe(subscriberID string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	sub, exists := eb.subscribers[subscriberID]
	if !exists {
		return
	}

	sub.cancel()
	close(sub.ch)
	delete(eb.subscribers, subscriberID)
}

// Close shuts down the event bus and closes all subscriber channels.
// Close is idempotent.
func (eb *DefaultEventBus) Close() error {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	if eb.closed {
		return nil
	}
	eb.closed = true

	for id, sub := range eb.subscribers {
		sub.cancel()
		close(sub.ch)
		delete(eb.subscribers, id)
	}

	return nil
}

// SubscriberCount returns the current number of active subscribers.
func (eb *DefaultEventBus) SubscriberCount() int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()
	return len(eb.subscribers)
}

var (
	subscriberCounter uint64
	subscriberMutex   sync.Mutex
)

func generateSubscriberID() string {
	subscriberMutex.Lock()
	defer subscriberMutex.Unlock()
	subscriberCounter++
	return fmt.Sprintf("sub-%d-%d", time.Now().UnixNano(), subscriberCounter)
}

var _ EventBus = (*DefaultEventBus)(nil)
