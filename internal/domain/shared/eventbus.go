package shared

import "context"

// EventHandler consumes domain events delivered by the bus.
type EventHandler interface {
	Handle(ctx context.Context, event DomainEvent) error
	// EventTypes lists the event types the handler wants. Empty means all.
	EventTypes() []string
}

// EventBus fans events out to subscribed handlers. The outbox processor is
// the only publisher in this service; handlers subscribe at startup.
type EventBus interface {
	Publish(ctx context.Context, events ...DomainEvent) error
	// Subscribe registers a handler. With no explicit types it falls back
	// to the handler's own EventTypes.
	Subscribe(handler EventHandler, eventTypes ...string)
	Unsubscribe(handler EventHandler)
	Start(ctx context.Context) error
	Stop(ctx context.Context) error
}

// OutboxEventSaver writes domain events to the outbox inside the caller's
// transaction, so the event rows commit or roll back with the aggregate.
type OutboxEventSaver interface {
	// SaveEvents persists the events; txProvider is the open *gorm.DB tx.
	SaveEvents(ctx context.Context, txProvider interface{}, events ...DomainEvent) error
}
