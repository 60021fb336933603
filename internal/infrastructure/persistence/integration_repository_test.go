package persistence

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
)

// setupLinkingTestDB creates an in-memory SQLite database with the linking tables
func setupLinkingTestDB(t *testing.T) *gorm.DB {
	db, err := gorm.Open(sqlite.Open(":memory:"), &gorm.Config{})
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE integrations (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			version INTEGER NOT NULL DEFAULT 1,
			tenant_id TEXT NOT NULL,
			created_by TEXT,
			platform TEXT NOT NULL,
			name TEXT NOT NULL,
			status TEXT NOT NULL DEFAULT 'connected',
			credentials TEXT NOT NULL,
			connected_at DATETIME,
			expires_at DATETIME,
			last_sync_at DATETIME,
			last_error TEXT
		)
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE UNIQUE INDEX ux_integrations_tenant_platform_connected
			ON integrations (tenant_id, platform)
			WHERE status = 'connected'
	`).Error
	require.NoError(t, err)

	err = db.Exec(`
		CREATE TABLE linked_sub_accounts (
			id TEXT PRIMARY KEY,
			created_at DATETIME NOT NULL,
			updated_at DATETIME NOT NULL,
			integration_id TEXT NOT NULL,
			tenant_id TEXT NOT NULL,
			kind TEXT NOT NULL,
			external_id TEXT NOT NULL,
			platform TEXT NOT NULL,
			name TEXT,
			is_primary INTEGER NOT NULL DEFAULT 0,
			currency TEXT,
			timezone TEXT,
			account_status INTEGER NOT NULL DEFAULT 0,
			spend_cap DECIMAL NOT NULL DEFAULT 0,
			username TEXT,
			profile_picture_url TEXT,
			followers_count INTEGER NOT NULL DEFAULT 0,
			follows_count INTEGER NOT NULL DEFAULT 0,
			media_count INTEGER NOT NULL DEFAULT 0,
			biography TEXT,
			website TEXT,
			category TEXT,
			fan_count INTEGER NOT NULL DEFAULT 0
		)
	`).Error
	require.NoError(t, err)

	return db
}

// recordingOutboxSaver captures events handed to the transactional saver.
// A non-nil failWith makes SaveEvents error so rollback can be observed.
type recordingOutboxSaver struct {
	events   []shared.DomainEvent
	failWith error
}

func (s *recordingOutboxSaver) SaveEvents(_ context.Context, _ interface{}, events ...shared.DomainEvent) error {
	if s.failWith != nil {
		return s.failWith
	}
	s.events = append(s.events, events...)
	return nil
}

func newTestIntegration(t *testing.T, tenantID uuid.UUID, platform linking.PlatformCode) *linking.Integration {
	integ, err := linking.NewIntegration(tenantID, platform, linking.Credential{
		AccessToken: "tok-" + uuid.NewString()[:8],
		TokenType:   "bearer",
	}, 3600)
	require.NoError(t, err)
	return integ
}

func newTestSubAccount(t *testing.T, integ *linking.Integration, kind linking.SubAccountKind, externalID string) *linking.SubAccount {
	sa, err := linking.NewSubAccount(integ, kind, externalID, externalID)
	require.NoError(t, err)
	return sa
}

func TestGormIntegrationRepository_CreateLinked(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists integration with sub-accounts and outbox events", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)
		saver := &recordingOutboxSaver{}
		repo.SetOutboxEventSaver(saver)

		integ := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		accounts := []*linking.SubAccount{
			newTestSubAccount(t, integ, linking.SubAccountKindAd, "act_101"),
			newTestSubAccount(t, integ, linking.SubAccountKindSocial, "17841400000000001"),
		}
		integ.AddDomainEvent(linking.NewIntegrationConnected(integ, len(accounts)))
		integ.AddDomainEvent(linking.NewSyncRequested(integ, 6))

		err := repo.CreateLinked(ctx, integ, accounts)
		require.NoError(t, err)

		found, err := repo.FindConnected(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NotNil(t, found)
		assert.Equal(t, integ.GetID(), found.GetID())
		assert.Equal(t, "bearer", found.Credential.TokenType)

		subRepo := NewGormSubAccountRepository(db)
		stored, err := subRepo.FindByIntegration(ctx, integ.GetID())
		require.NoError(t, err)
		assert.Len(t, stored, 2)

		assert.Len(t, saver.events, 2)
		assert.Empty(t, integ.GetDomainEvents(), "events should be cleared after commit")
	})

	t.Run("maps the partial unique index violation to ErrAlreadyLinked", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)

		first := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		require.NoError(t, repo.CreateLinked(ctx, first, nil))

		second := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		err := repo.CreateLinked(ctx, second, nil)
		assert.ErrorIs(t, err, linking.ErrAlreadyLinked)
	})

	t.Run("allows reconnect after the previous link is disconnected", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)

		first := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		require.NoError(t, repo.CreateLinked(ctx, first, nil))
		require.NoError(t, db.Exec(
			`UPDATE integrations SET status = 'disconnected' WHERE id = ?`, first.GetID(),
		).Error)

		second := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		assert.NoError(t, repo.CreateLinked(ctx, second, nil))
	})

	t.Run("rolls back everything when the outbox write fails", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)
		repo.SetOutboxEventSaver(&recordingOutboxSaver{failWith: errors.New("outbox unavailable")})

		integ := newTestIntegration(t, tenantID, linking.PlatformGoogleAds)
		accounts := []*linking.SubAccount{
			newTestSubAccount(t, integ, linking.SubAccountKindAd, "1234567890"),
		}
		integ.AddDomainEvent(linking.NewIntegrationConnected(integ, 1))

		err := repo.CreateLinked(ctx, integ, accounts)
		require.Error(t, err)

		found, err := repo.FindConnected(ctx, tenantID, linking.PlatformGoogleAds)
		require.NoError(t, err)
		assert.Nil(t, found, "integration row must not survive the rollback")

		var count int64
		require.NoError(t, db.Table("linked_sub_accounts").Count(&count).Error)
		assert.Zero(t, count, "sub-account rows must not survive the rollback")
		assert.NotEmpty(t, integ.GetDomainEvents(), "events stay pending after a failed commit")
	})
}

func TestGormIntegrationRepository_FindConnected(t *testing.T) {
	ctx := context.Background()
	db := setupLinkingTestDB(t)
	repo := NewGormIntegrationRepository(db)
	tenantID := uuid.New()

	t.Run("returns nil when nothing is linked", func(t *testing.T) {
		found, err := repo.FindConnected(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.Nil(t, found)
	})

	t.Run("skips disconnected history rows", func(t *testing.T) {
		integ := newTestIntegration(t, tenantID, linking.PlatformYandexDirect)
		require.NoError(t, repo.CreateLinked(ctx, integ, nil))
		require.NoError(t, db.Exec(
			`UPDATE integrations SET status = 'disconnected' WHERE id = ?`, integ.GetID(),
		).Error)

		found, err := repo.FindConnected(ctx, tenantID, linking.PlatformYandexDirect)
		require.NoError(t, err)
		assert.Nil(t, found)
	})
}

func TestGormIntegrationRepository_FindAllForTenant(t *testing.T) {
	ctx := context.Background()
	db := setupLinkingTestDB(t)
	repo := NewGormIntegrationRepository(db)
	tenantID := uuid.New()
	otherTenant := uuid.New()

	require.NoError(t, repo.CreateLinked(ctx, newTestIntegration(t, tenantID, linking.PlatformMetaAds), nil))
	require.NoError(t, repo.CreateLinked(ctx, newTestIntegration(t, tenantID, linking.PlatformGoogleAds), nil))
	require.NoError(t, repo.CreateLinked(ctx, newTestIntegration(t, otherTenant, linking.PlatformMetaAds), nil))

	integrations, err := repo.FindAllForTenant(ctx, tenantID)
	require.NoError(t, err)
	assert.Len(t, integrations, 2)
	for _, integ := range integrations {
		assert.Equal(t, tenantID, integ.TenantID)
	}
}

func TestGormIntegrationRepository_DeleteLinked(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("removes integration and sub-account rows together", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)
		saver := &recordingOutboxSaver{}
		repo.SetOutboxEventSaver(saver)

		integ := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		accounts := []*linking.SubAccount{
			newTestSubAccount(t, integ, linking.SubAccountKindAd, "act_202"),
			newTestSubAccount(t, integ, linking.SubAccountKindPage, "9001"),
		}
		require.NoError(t, repo.CreateLinked(ctx, integ, accounts))

		integ.Disconnect()
		require.NoError(t, repo.DeleteLinked(ctx, integ))

		found, err := repo.FindConnected(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.Nil(t, found)

		var count int64
		require.NoError(t, db.Table("linked_sub_accounts").Count(&count).Error)
		assert.Zero(t, count)

		assert.Len(t, saver.events, 1, "the disconnect event goes through the outbox")
	})

	t.Run("returns ErrNotFound for a missing integration", func(t *testing.T) {
		db := setupLinkingTestDB(t)
		repo := NewGormIntegrationRepository(db)

		integ := newTestIntegration(t, tenantID, linking.PlatformGoogleAnalytics)
		err := repo.DeleteLinked(ctx, integ)
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormIntegrationRepository_UpdateLastSync(t *testing.T) {
	ctx := context.Background()
	db := setupLinkingTestDB(t)
	repo := NewGormIntegrationRepository(db)
	tenantID := uuid.New()

	t.Run("stamps the sync time", func(t *testing.T) {
		integ := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
		require.NoError(t, repo.CreateLinked(ctx, integ, nil))

		syncedAt := time.Now().Truncate(time.Second)
		require.NoError(t, repo.UpdateLastSync(ctx, integ.GetID(), syncedAt))

		found, err := repo.FindByID(ctx, integ.GetID())
		require.NoError(t, err)
		require.NotNil(t, found.LastSyncAt)
		assert.WithinDuration(t, syncedAt, *found.LastSyncAt, time.Second)
	})

	t.Run("returns ErrNotFound for an unknown id", func(t *testing.T) {
		err := repo.UpdateLastSync(ctx, uuid.New(), time.Now())
		assert.ErrorIs(t, err, shared.ErrNotFound)
	})
}

func TestGormSubAccountRepository_CountByTenantAndKind(t *testing.T) {
	ctx := context.Background()
	db := setupLinkingTestDB(t)
	repo := NewGormIntegrationRepository(db)
	subRepo := NewGormSubAccountRepository(db)
	tenantID := uuid.New()

	metaInteg := newTestIntegration(t, tenantID, linking.PlatformMetaAds)
	require.NoError(t, repo.CreateLinked(ctx, metaInteg, []*linking.SubAccount{
		newTestSubAccount(t, metaInteg, linking.SubAccountKindAd, "act_301"),
		newTestSubAccount(t, metaInteg, linking.SubAccountKindAd, "act_302"),
		newTestSubAccount(t, metaInteg, linking.SubAccountKindSocial, "17841400000000002"),
	}))

	googleInteg := newTestIntegration(t, tenantID, linking.PlatformGoogleAds)
	require.NoError(t, repo.CreateLinked(ctx, googleInteg, []*linking.SubAccount{
		newTestSubAccount(t, googleInteg, linking.SubAccountKindAd, "5550001111"),
	}))

	t.Run("counts a kind across the tenant's connected integrations", func(t *testing.T) {
		count, err := subRepo.CountByTenantAndKind(ctx, tenantID, linking.SubAccountKindAd)
		require.NoError(t, err)
		assert.Equal(t, int64(3), count)

		count, err = subRepo.CountByTenantAndKind(ctx, tenantID, linking.SubAccountKindSocial)
		require.NoError(t, err)
		assert.Equal(t, int64(1), count)
	})

	t.Run("excludes rows under disconnected integrations", func(t *testing.T) {
		require.NoError(t, db.Exec(
			`UPDATE integrations SET status = 'disconnected' WHERE id = ?`, googleInteg.GetID(),
		).Error)

		count, err := subRepo.CountByTenantAndKind(ctx, tenantID, linking.SubAccountKindAd)
		require.NoError(t, err)
		assert.Equal(t, int64(2), count)
	})
}

func TestGormSubAccountRepository_FindOwnerByExternalID(t *testing.T) {
	ctx := context.Background()
	db := setupLinkingTestDB(t)
	repo := NewGormIntegrationRepository(db)
	subRepo := NewGormSubAccountRepository(db)
	ownerTenant := uuid.New()

	integ := newTestIntegration(t, ownerTenant, linking.PlatformMetaAds)
	require.NoError(t, repo.CreateLinked(ctx, integ, []*linking.SubAccount{
		newTestSubAccount(t, integ, linking.SubAccountKindAd, "act_401"),
	}))

	t.Run("returns the owning tenant for a claimed account", func(t *testing.T) {
		owner, err := subRepo.FindOwnerByExternalID(ctx, linking.PlatformMetaAds, "act_401")
		require.NoError(t, err)
		assert.Equal(t, ownerTenant, owner)
	})

	t.Run("returns uuid.Nil for an unclaimed account", func(t *testing.T) {
		owner, err := subRepo.FindOwnerByExternalID(ctx, linking.PlatformMetaAds, "act_999")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, owner)
	})

	t.Run("ignores claims under disconnected integrations", func(t *testing.T) {
		require.NoError(t, db.Exec(
			`UPDATE integrations SET status = 'disconnected' WHERE id = ?`, integ.GetID(),
		).Error)

		owner, err := subRepo.FindOwnerByExternalID(ctx, linking.PlatformMetaAds, "act_401")
		require.NoError(t, err)
		assert.Equal(t, uuid.Nil, owner)
	})
}
