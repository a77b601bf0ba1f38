package engine

// Event represents an engine lifecycle event.
type Event struct {
	Name   string
	Shard  string
	Fields map[string]any
}

// Event names.
const (
	EventLoadStart    = "shard_load_start"
	EventLoadReady    = "shard_load_ready"
	EventLoadCanceled = "shard_load_canceled"
	EventInferTensor  = "infer_tensor"
)

// EventPublisher receives events from the engine. Publish must not block or panic.
type EventPublisher interface {
	Publish(Event)
}

// noopPublisher is the default; it drops events.
type noopPublisher struct{}

func (noopPublisher) Publish(Event) {}
