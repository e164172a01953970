package eventbus

import (
	"context"
	"sync"
	"time"

	"reservation-client/internal/shared/logger"
)

// Well-known event types published by the client
const (
	EventSessionChanged     = "session.changed"
	EventReservationChanged = "reservation.changed"
)

// Event represents a generic event
type Event interface {
	Type() string
	Data() interface{}
	Timestamp() time.Time
	Source() string
}

// Handler defines the event handler function type
type Handler func(ctx context.Context, event Event) error

// EventBusInterface defines the contract for event bus implementations
type EventBusInterface interface {
	Subscribe(eventType string, handler Handler)
	Publish(ctx context.Context, event Event) error
	Unsubscribe(eventType string)
	GetSubscriberCount(eventType string) int
}

// EventBus is an in-memory event bus with synchronous dispatch. The client's
// session and reservation flows publish from a single request goroutine, so
// handlers run inline in publish order.
type EventBus struct {
	mu       sync.RWMutex
	handlers map[string][]Handler
	logger   logger.Logger
}

// NewEventBus creates a new event bus instance
func NewEventBus(log logger.Logger) *EventBus {
	if log == nil {
		log = noopLogger{}
	}
	return &EventBus{
		handlers: make(map[string][]Handler),
		logger:   log,
	}
}

// Subscribe adds a handler for a specific event type
func (eb *EventBus) Subscribe(eventType string, handler Handler) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	eb.handlers[eventType] = append(eb.handlers[eventType], handler)
	eb.logger.Debugf("Subscribed handler for event type: %s", eventType)
}

// Publish sends an event to all registered handlers. Handler errors are logged
// and do not stop delivery to the remaining handlers.
func (eb *EventBus) Publish(ctx context.Context, event Event) error {
	eb.mu.RLock()
	handlers := eb.handlers[event.Type()]
	eb.mu.RUnlock()

	if len(handlers) == 0 {
		eb.logger.Debugf("No handlers found for event type: %s", event.Type())
		return nil
	}

	var firstErr error
	for _, handler := range handlers {
		if err := handler(ctx, event); err != nil {
			eb.logger.Errorf("Event handler failed for %s: %v", event.Type(), err)
			if firstErr == nil {
				firstErr = err
			}
		}
	}
	return firstErr
}

// Unsubscribe removes all handlers for an event type
func (eb *EventBus) Unsubscribe(eventType string) {
	eb.mu.Lock()
	defer eb.mu.Unlock()

	delete(eb.handlers, eventType)
}

// GetSubscriberCount returns the number of handlers for an event type
func (eb *EventBus) GetSubscriberCount(eventType string) int {
	eb.mu.RLock()
	defer eb.mu.RUnlock()

	return len(eb.handlers[eventType])
}

// BasicEvent is a simple Event implementation
type BasicEvent struct {
	EventType   string
	EventData   interface{}
	EventTime   time.Time
	EventSource string
}

// NewBasicEvent creates a new basic event with the current timestamp
func NewBasicEvent(eventType string, data interface{}, source string) *BasicEvent {
	return &BasicEvent{
		EventType:   eventType,
		EventData:   data,
		EventTime:   time.Now(),
		EventSource: source,
	}
}

func (e *BasicEvent) Type() string         { return e.EventType }
func (e *BasicEvent) Data() interface{}    { return e.EventData }
func (e *BasicEvent) Timestamp() time.Time { return e.EventTime }
func (e *BasicEvent) Source() string       { return e.EventSource }

// noopLogger swallows all log output; used when no logger is provided
type noopLogger struct{}

func (noopLogger) Debug(args ...interface{})                          {}
func (noopLogger) Info(args ...interface{})                           {}
func (noopLogger) Warn(args ...interface{})                           {}
func (noopLogger) Error(args ...interface{})                          {}
func (noopLogger) Fatal(args ...interface{})                          {}
func (noopLogger) Debugf(format string, args ...interface{})          {}
func (noopLogger) Infof(format string, args ...interface{})           {}
func (noopLogger) Warnf(format string, args ...interface{})           {}
func (noopLogger) Errorf(format string, args ...interface{})          {}
func (noopLogger) Fatalf(format string, args ...interface{})          {}
func (n noopLogger) WithFields(map[string]interface{}) logger.Logger  { return n }
func (n noopLogger) WithContext(context.Context) logger.Logger        { return n }
func (n noopLogger) WithComponent(string) logger.Logger               { return n }
