package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/bizgrow/backend/internal/domain/billing"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupBillingTestDB creates an in-memory SQLite database with the billing tables
func setupBillingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE plans (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			code TEXT NOT NULL UNIQUE,
			name TEXT NOT NULL,
			is_active INTEGER NOT NULL DEFAULT 1,
			limits TEXT
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE subscriptions (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			tenant_id TEXT NOT NULL,
			created_by TEXT,
			plan_code TEXT NOT NULL,
			status TEXT NOT NULL,
			ends_at DATETIME,
			trial_ends_at DATETIME,
			abuse_exempt INTEGER NOT NULL DEFAULT 0
		)
	`).Error
	require.NoError(t, err)

	return db
}

func TestGormPlanRepository_FindByCode(t *testing.T) {
	ctx := context.Background()
	db := setupBillingTestDB(t)
	repo := NewGormPlanRepository(db)

	plan, err := billing.NewPlan("growth", "Growth", map[string]int64{
		"linked_ad_accounts":     5,
		"linked_social_accounts": 2,
		"linked_pages":           billing.UnlimitedLimit,
	})
	require.NoError(t, err)
	require.NoError(t, db.Table("plans").Create(map[string]interface{}{
		"id":         plan.ID,
		"created_at": plan.CreatedAt,
		"updated_at": plan.UpdatedAt,
		"code":       plan.Code,
		"name":       plan.Name,
		"is_active":  plan.IsActive,
		"limits":     `{"linked_ad_accounts":5,"linked_social_accounts":2,"linked_pages":-1}`,
	}).Error)

	t.Run("returns the plan with its limits", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "growth")
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "Growth", found.Name)

		limit, ok := found.LimitFor("linked_ad_accounts")
		assert.True(t, ok)
		assert.Equal(t, int64(5), limit)

		limit, ok = found.LimitFor("linked_pages")
		assert.True(t, ok)
		assert.Equal(t, billing.UnlimitedLimit, limit)
	})

	t.Run("returns nil for an unknown code", func(t *testing.T) {
		found, err := repo.FindByCode(ctx, "enterprise")
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormSubscriptionRepository_FindCurrentByTenant(t *testing.T) {
	ctx := context.Background()
	db := setupBillingTestDB(t)
	repo := NewGormSubscriptionRepository(db)
	tenantID := uuid.New()

	t.Run("returns nil when the tenant never subscribed", func(t *testing.T) {
		found, err := repo.FindCurrentByTenant(ctx, tenantID)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("returns the most recent subscription of any status", func(t *testing.T) {
		lapsed, err := billing.NewSubscription(tenantID, "starter", nil)
		require.NoError(t, err)
		lapsed.Status = billing.SubscriptionStatusCanceled
		lapsed.CreatedAt = time.Now().Add(-48 * time.Hour)
		require.NoError(t, repo.Save(ctx, lapsed))

		current, err := billing.NewSubscription(tenantID, "growth", nil)
		require.NoError(t, err)
		current.AbuseExempt = true
		require.NoError(t, repo.Save(ctx, current))

		found, err := repo.FindCurrentByTenant(ctx, tenantID)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, "growth", found.PlanCode)
		assert.True(t, found.AbuseExempt)
		assert.True(t, found.IsActive())
	})

	t.Run("scopes the lookup to the tenant", func(t *testing.T) {
		found, err := repo.FindCurrentByTenant(ctx, uuid.New())
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}
