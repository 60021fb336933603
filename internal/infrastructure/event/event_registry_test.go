package event

import (
	"testing"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRegistryTestIntegration(t *testing.T) *linking.Integration {
	t.Helper()
	integ, err := linking.NewIntegration(uuid.New(), linking.PlatformMetaAds, linking.Credential{
		AccessToken: "AT1",
		TokenType:   "bearer",
	}, 3600)
	require.NoError(t, err)
	return integ
}

func TestRegisterAllEvents(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	expected := []string{
		linking.EventTypeIntegrationConnected,
		linking.EventTypeIntegrationDisconnected,
		linking.EventTypeSyncRequested,
	}
	for _, eventType := range expected {
		assert.True(t, serializer.IsRegistered(eventType), "event type %s should be registered", eventType)
	}
}

func TestRegisterAllEvents_RoundTrip(t *testing.T) {
	serializer := NewEventSerializer()
	RegisterAllEvents(serializer)

	integ := newRegistryTestIntegration(t)

	t.Run("integration connected", func(t *testing.T) {
		original := linking.NewIntegrationConnected(integ, 3)
		data, err := serializer.Serialize(original)
		require.NoError(t, err)

		deserialized, err := serializer.Deserialize(linking.EventTypeIntegrationConnected, data)
		require.NoError(t, err)

		event, ok := deserialized.(*linking.IntegrationConnected)
		require.True(t, ok)
		assert.Equal(t, original.Platform, event.Platform)
		assert.Equal(t, original.AccountCount, event.AccountCount)
		assert.Equal(t, integ.TenantID, event.TenantID())
	})

	t.Run("sync requested", func(t *testing.T) {
		original := linking.NewSyncRequested(integ, 6)
		data, err := serializer.Serialize(original)
		require.NoError(t, err)

		deserialized, err := serializer.Deserialize(linking.EventTypeSyncRequested, data)
		require.NoError(t, err)

		event, ok := deserialized.(*linking.SyncRequested)
		require.True(t, ok)
		assert.Equal(t, original.Platform, event.Platform)
		assert.Equal(t, 6, event.LookbackMonths)
		assert.Equal(t, integ.GetID(), event.IntegrationID)
	})

	t.Run("unknown event type is rejected", func(t *testing.T) {
		_, err := serializer.Deserialize("unknown.event", []byte(`{}`))
		require.Error(t, err)
	})
}
