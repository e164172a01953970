package contextkeys

import "context"

// contextKey is an unexported type to prevent collisions with context keys defined in
// other packages.
type contextKey string

// String makes contextKey satisfy the Stringer interface to assist with debugging.
func (c contextKey) String() string {
	return "reservation-client context key " + string(c)
}

// RequestIDKey is the key for the correlation ID attached to outbound API calls.
const RequestIDKey = contextKey("requestID")

// ComponentKey is the key for the component name in context.Context.
const ComponentKey = contextKey("component")

// OperationKey is the key for the operation name in context.Context.
const OperationKey = contextKey("operation")

// WithRequestID returns a context carrying the request correlation id.
func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

// RequestID extracts the correlation id from ctx, reporting whether one is set.
func RequestID(ctx context.Context) (string, bool) {
	id, ok := ctx.Value(RequestIDKey).(string)
	return id, ok && id != ""
}
