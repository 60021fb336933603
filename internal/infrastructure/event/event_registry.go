package event

import (
	"github.com/bizgrow/backend/internal/domain/linking"
)

// RegisterAllEvents registers all domain event types with the serializer
// This is required for the OutboxProcessor to deserialize events from the outbox table
func RegisterAllEvents(serializer *EventSerializer) {
	// Linking domain events
	serializer.Register(linking.EventTypeIntegrationConnected, &linking.IntegrationConnected{})
	serializer.Register(linking.EventTypeIntegrationDisconnected, &linking.IntegrationDisconnected{})
	serializer.Register(linking.EventTypeSyncRequested, &linking.SyncRequested{})
}
