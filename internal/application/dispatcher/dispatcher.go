package dispatcher

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"github.com/garyjia/expense-desk/internal/domain/event"
)

// ErrClosed is returned when dispatching on a closed dispatcher
var ErrClosed = errors.New("dispatcher is closed")

// Dispatcher routes expense events to registered handlers
type Dispatcher interface {
	// Subscribe registers a handler for an event type
	Subscribe(eventType event.Type, handler Handler)

	// SubscribeNamed registers a handler with a name used in logs
	SubscribeNamed(eventType event.Type, name string, handler Handler)

	// SubscribeAll registers one named handler for every listed event type
	SubscribeAll(types []event.Type, name string, handler Handler)

	// Unsubscribe removes a handler by name
	Unsubscribe(eventType event.Type, name string)

	// Dispatch runs handlers in registration order and stops at the first error
	Dispatch(ctx context.Context, evt *event.Event) error

	// DispatchAsync runs each handler in its own goroutine and returns immediately
	DispatchAsync(ctx context.Context, evt *event.Event)

	// Publish dispatches asynchronously on a context detached from the caller's cancellation
	Publish(ctx context.Context, evt *event.Event)

	// ListHandlers returns registered handlers for an event type
	ListHandlers(eventType event.Type) []HandlerInfo

	// Close stops accepting events and waits for running async handlers
	Close() error
}

// Logger interface for minimal logging dependency
type Logger interface {
	Info(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}

type eventDispatcher struct {
	mu       sync.RWMutex
	handlers map[event.Type][]HandlerInfo
	logger   Logger

	// lifecycle orders wg.Add in DispatchAsync against wg.Wait in Close
	lifecycle sync.RWMutex
	wg        sync.WaitGroup
	closed    atomic.Bool
}

// Option configures the dispatcher
type Option func(*eventDispatcher)

// WithLogger sets a logger for the dispatcher
func WithLogger(logger Logger) Option {
	return func(d *eventDispatcher) {
		d.logger = logger
	}
}

// NewDispatcher creates a new event dispatcher
func NewDispatcher(opts ...Option) Dispatcher {
	d := &eventDispatcher{
		handlers: make(map[event.Type][]HandlerInfo),
	}

	for _, opt := range opts {
		opt(d)
	}

	return d
}

func (d *eventDispatcher) Subscribe(eventType event.Type, handler Handler) {
	d.mu.RLock()
	name := fmt.Sprintf("handler-%d", len(d.handlers[eventType]))
	d.mu.RUnlock()
	d.SubscribeNamed(eventType, name, handler)
}

func (d *eventDispatcher) SubscribeNamed(eventType event.Type, name string, handler Handler) {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.handlers[eventType] = append(d.handlers[eventType], HandlerInfo{
		Name:      name,
		EventType: eventType,
		Handler:   handler,
	})

	d.info("Handler registered", "event_type", eventType.String(), "handler_name", name)
}

func (d *eventDispatcher) SubscribeAll(types []event.Type, name string, handler Handler) {
	for _, t := range types {
		d.SubscribeNamed(t, name, handler)
	}
}

func (d *eventDispatcher) Unsubscribe(eventType event.Type, name string) {
	d.mu.Lock()
	defer d.mu.Unlock()

	handlers := d.handlers[eventType]
	filtered := make([]HandlerInfo, 0, len(handlers))
	for _, h := range handlers {
		if h.Name != name {
			filtered = append(filtered, h)
		}
	}
	d.handlers[eventType] = filtered

	d.info("Handler unregistered", "event_type", eventType.String(), "handler_name", name)
}

func (d *eventDispatcher) Dispatch(ctx context.Context, evt *event.Event) error {
	if d.closed.Load() {
		return ErrClosed
	}

	for _, info := range d.snapshot(evt.Type) {
		if err := d.safeExecute(ctx, evt, info); err != nil {
			d.error("Handler error",
				"event_type", evt.Type.String(),
				"event_id", evt.ID,
				"handler_name", info.Name,
				"error", err,
			)
			return fmt.Errorf("handler %s failed: %w", info.Name, err)
		}
	}

	return nil
}

func (d *eventDispatcher) DispatchAsync(ctx context.Context, evt *event.Event) {
	d.lifecycle.RLock()
	defer d.lifecycle.RUnlock()

	if d.closed.Load() {
		d.error("Dropping event, dispatcher is closed", "event_type", evt.Type.String(), "event_id", evt.ID)
		return
	}

	for _, info := range d.snapshot(evt.Type) {
		d.wg.Add(1)
		go func(h HandlerInfo) {
			defer d.wg.Done()

			if err := d.safeExecute(ctx, evt, h); err != nil {
				d.error("Async handler error",
					"event_type", evt.Type.String(),
					"event_id", evt.ID,
					"handler_name", h.Name,
					"error", err,
				)
			}
		}(info)
	}
}

// Publish keeps handlers running after the request that produced the event has returned
func (d *eventDispatcher) Publish(ctx context.Context, evt *event.Event) {
	d.DispatchAsync(context.WithoutCancel(ctx), evt)
}

func (d *eventDispatcher) ListHandlers(eventType event.Type) []HandlerInfo {
	handlers := d.snapshot(eventType)
	result := make([]HandlerInfo, len(handlers))
	for i, h := range handlers {
		result[i] = HandlerInfo{Name: h.Name, EventType: h.EventType}
	}
	return result
}

func (d *eventDispatcher) Close() error {
	d.lifecycle.Lock()
	if !d.closed.CompareAndSwap(false, true) {
		d.lifecycle.Unlock()
		return errors.New("dispatcher already closed")
	}
	d.lifecycle.Unlock()

	d.info("Closing dispatcher, waiting for async handlers")
	d.wg.Wait()
	d.info("Dispatcher closed")

	return nil
}

func (d *eventDispatcher) snapshot(eventType event.Type) []HandlerInfo {
	d.mu.RLock()
	defer d.mu.RUnlock()
	return append([]HandlerInfo(nil), d.handlers[eventType]...)
}

// safeExecute runs a handler with panic recovery
func (d *eventDispatcher) safeExecute(ctx context.Context, evt *event.Event, info HandlerInfo) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = fmt.Errorf("handler panic: %v", r)
			d.error("Handler panic recovered",
				"event_type", evt.Type.String(),
				"event_id", evt.ID,
				"handler_name", info.Name,
				"panic", r,
			)
		}
	}()

	return info.Handler(ctx, evt)
}

func (d *eventDispatcher) info(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Info(msg, kv...)
	}
}

func (d *eventDispatcher) error(msg string, kv ...interface{}) {
	if d.logger != nil {
		d.logger.Error(msg, kv...)
	}
}
