package billing

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewPlan(t *testing.T) {
	t.Run("creates plan with limits", func(t *testing.T) {
		plan, err := NewPlan("pro", "Pro", map[string]int64{
			"linked_social_accounts": 3,
			"linked_ad_accounts":     5,
		})

		require.NoError(t, err)
		assert.True(t, plan.IsActive)

		limit, ok := plan.LimitFor("linked_social_accounts")
		assert.True(t, ok)
		assert.Equal(t, int64(3), limit)

		_, ok = plan.LimitFor("linked_pages")
		assert.False(t, ok)
	})

	t.Run("fails with empty code", func(t *testing.T) {
		plan, err := NewPlan("", "Pro", nil)

		assert.Error(t, err)
		assert.Nil(t, plan)
	})

	t.Run("unlimited resource", func(t *testing.T) {
		plan, err := NewPlan("enterprise", "Enterprise", map[string]int64{
			"linked_ad_accounts": UnlimitedLimit,
		})

		require.NoError(t, err)
		assert.True(t, plan.IsUnlimited("linked_ad_accounts"))
		assert.False(t, plan.IsUnlimited("linked_pages"))
	})
}

func TestSubscription_IsActiveAt(t *testing.T) {
	now := time.Now()
	tenantID := uuid.New()

	t.Run("active without end date", func(t *testing.T) {
		sub, err := NewSubscription(tenantID, "pro", nil)
		require.NoError(t, err)

		assert.True(t, sub.IsActiveAt(now))
	})

	t.Run("active with future end date", func(t *testing.T) {
		ends := now.Add(30 * 24 * time.Hour)
		sub, err := NewSubscription(tenantID, "pro", &ends)
		require.NoError(t, err)

		assert.True(t, sub.IsActiveAt(now))
	})

	t.Run("active past its end date", func(t *testing.T) {
		ends := now.Add(-time.Hour)
		sub, err := NewSubscription(tenantID, "pro", &ends)
		require.NoError(t, err)

		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("trialing inside trial window", func(t *testing.T) {
		sub, err := NewTrialSubscription(tenantID, "pro", now.Add(14*24*time.Hour))
		require.NoError(t, err)

		assert.True(t, sub.IsActiveAt(now))
	})

	t.Run("trialing after trial ended", func(t *testing.T) {
		sub, err := NewTrialSubscription(tenantID, "pro", now.Add(-time.Minute))
		require.NoError(t, err)

		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("trialing without trial end fails closed", func(t *testing.T) {
		sub, err := NewSubscription(tenantID, "pro", nil)
		require.NoError(t, err)
		sub.Status = SubscriptionStatusTrialing
		sub.TrialEndsAt = nil

		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("canceled is never active", func(t *testing.T) {
		sub, err := NewSubscription(tenantID, "pro", nil)
		require.NoError(t, err)
		sub.Status = SubscriptionStatusCanceled

		assert.False(t, sub.IsActiveAt(now))
	})

	t.Run("past due is never active", func(t *testing.T) {
		sub, err := NewSubscription(tenantID, "pro", nil)
		require.NoError(t, err)
		sub.Status = SubscriptionStatusPastDue

		assert.False(t, sub.IsActiveAt(now))
	})
}

func TestNewSubscription_Validation(t *testing.T) {
	t.Run("fails with nil tenant", func(t *testing.T) {
		sub, err := NewSubscription(uuid.Nil, "pro", nil)

		assert.Error(t, err)
		assert.Nil(t, sub)
	})

	t.Run("fails with empty plan code", func(t *testing.T) {
		sub, err := NewSubscription(uuid.New(), "", nil)

		assert.Error(t, err)
		assert.Nil(t, sub)
	})
}
