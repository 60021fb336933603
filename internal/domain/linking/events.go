package linking

import (
	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// Event types for the linking domain
const (
	EventTypeIntegrationConnected    = "linking.integration.connected"
	EventTypeIntegrationDisconnected = "linking.integration.disconnected"
	EventTypeSyncRequested           = "linking.sync.requested"
)

// AggregateTypeIntegration names the aggregate for event routing.
const AggregateTypeIntegration = "Integration"

// IntegrationConnected is emitted when a selection is persisted and the
// integration becomes connected.
type IntegrationConnected struct {
	shared.BaseDomainEvent
	Platform     PlatformCode `json:"platform"`
	AccountCount int          `json:"account_count"`
}

// NewIntegrationConnected creates an IntegrationConnected event.
func NewIntegrationConnected(integ *Integration, accountCount int) *IntegrationConnected {
	return &IntegrationConnected{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeIntegrationConnected,
			AggregateTypeIntegration,
			integ.GetID(),
			integ.TenantID,
		),
		Platform:     integ.Platform,
		AccountCount: accountCount,
	}
}

// IntegrationDisconnected is emitted when a link is explicitly severed.
type IntegrationDisconnected struct {
	shared.BaseDomainEvent
	Platform PlatformCode `json:"platform"`
}

// NewIntegrationDisconnected creates an IntegrationDisconnected event.
func NewIntegrationDisconnected(integ *Integration) *IntegrationDisconnected {
	return &IntegrationDisconnected{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeIntegrationDisconnected,
			AggregateTypeIntegration,
			integ.GetID(),
			integ.TenantID,
		),
		Platform: integ.Platform,
	}
}

// SyncRequested asks the sync pipeline to backfill historical data for a
// freshly connected integration. It is written to the outbox in the same
// transaction that persists the integration, so a crash between commit and
// dispatch cannot lose the request.
type SyncRequested struct {
	shared.BaseDomainEvent
	IntegrationID  uuid.UUID    `json:"integration_id"`
	Platform       PlatformCode `json:"platform"`
	LookbackMonths int          `json:"lookback_months"`
}

// NewSyncRequested creates a SyncRequested event with the given lookback window.
func NewSyncRequested(integ *Integration, lookbackMonths int) *SyncRequested {
	return &SyncRequested{
		BaseDomainEvent: shared.NewBaseDomainEvent(
			EventTypeSyncRequested,
			AggregateTypeIntegration,
			integ.GetID(),
			integ.TenantID,
		),
		IntegrationID:  integ.GetID(),
		Platform:       integ.Platform,
		LookbackMonths: lookbackMonths,
	}
}
