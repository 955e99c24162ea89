package gateway

import "context"

// EventKind is the category of a notification event.
type EventKind int

const (
	// EventSuccess reports a fresh successful call.
	EventSuccess EventKind = iota
	// EventError reports a classified failure.
	EventError
	// EventRateLimited reports an upstream 429, distinct from other
	// errors so UIs can render a dedicated hint.
	EventRateLimited
)

// String returns the event kind name.
func (k EventKind) String() string {
	switch k {
	case EventSuccess:
		return "success"
	case EventError:
		return "error"
	case EventRateLimited:
		return "rate_limited"
	default:
		return "unknown"
	}
}

// Event is what the gateway reports to the UI boundary.
type Event struct {
	Kind     EventKind
	Endpoint string
	Message  string
}

// Notifier is the UI-owned sink for gateway events. The gateway
// assumes nothing about delivery (toast, log, silent).
//
// Contract:
// - Concurrency: implementations must be safe for concurrent use.
// - Errors: Notify must be best-effort and must not panic; the
//   gateway never waits on delivery outcomes.
type Notifier interface {
	Notify(ctx context.Context, event Event)
}

// NotifierFunc adapts a function to the Notifier interface.
type NotifierFunc func(ctx context.Context, event Event)

// Notify calls f.
func (f NotifierFunc) Notify(ctx context.Context, event Event) { f(ctx, event) }

// nopNotifier drops every event.
type nopNotifier struct{}

func (nopNotifier) Notify(context.Context, Event) {}

// NopNotifier returns a Notifier that drops every event.
func NopNotifier() Notifier {
	return nopNotifier{}
}
