package persistence

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/bizgrow/backend/internal/infrastructure/persistence/models"
	"github.com/google/uuid"
	"gorm.io/gorm"
)

// GormIntegrationRepository implements linking.IntegrationRepository using GORM
type GormIntegrationRepository struct {
	db          *gorm.DB
	outboxSaver shared.OutboxEventSaver // optional, for transactional outbox pattern
}

// NewGormIntegrationRepository creates a new GormIntegrationRepository
func NewGormIntegrationRepository(db *gorm.DB) *GormIntegrationRepository {
	return &GormIntegrationRepository{db: db}
}

// SetOutboxEventSaver sets the outbox event saver for transactional event publishing
func (r *GormIntegrationRepository) SetOutboxEventSaver(saver shared.OutboxEventSaver) {
	r.outboxSaver = saver
}

// FindByID finds an integration by its ID
func (r *GormIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*linking.Integration, error) {
	var model models.IntegrationModel
	if err := r.db.WithContext(ctx).First(&model, "id = ?", id).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, shared.ErrNotFound
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindConnected finds the connected integration for a tenant and platform.
// Returns nil without error when none exists.
func (r *GormIntegrationRepository) FindConnected(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) (*linking.Integration, error) {
	var model models.IntegrationModel
	err := r.db.WithContext(ctx).
		Where("tenant_id = ? AND platform = ? AND status = ?", tenantID, platform, linking.IntegrationStatusConnected).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, nil
		}
		return nil, err
	}
	return model.ToDomain()
}

// FindAllForTenant finds all integrations of a tenant, any status
func (r *GormIntegrationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*linking.Integration, error) {
	var integrationModels []models.IntegrationModel
	if err := r.db.WithContext(ctx).
		Where("tenant_id = ?", tenantID).
		Order("created_at DESC").
		Find(&integrationModels).Error; err != nil {
		return nil, err
	}

	integrations := make([]*linking.Integration, 0, len(integrationModels))
	for i := range integrationModels {
		integ, err := integrationModels[i].ToDomain()
		if err != nil {
			return nil, err
		}
		integrations = append(integrations, integ)
	}
	return integrations, nil
}

// CreateLinked persists the integration, its sub-accounts and the pending
// domain events in one transaction. The partial unique index on
// (tenant_id, platform) WHERE status = 'connected' backstops the
// application-level recheck; a concurrent winner surfaces as ErrAlreadyLinked.
func (r *GormIntegrationRepository) CreateLinked(ctx context.Context, integ *linking.Integration, accounts []*linking.SubAccount) error {
	events := integ.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		integModel, err := models.IntegrationModelFromDomain(integ)
		if err != nil {
			return err
		}
		if err := tx.Create(integModel).Error; err != nil {
			return err
		}

		for _, sa := range accounts {
			saModel := models.SubAccountModelFromDomain(sa, integ.Platform)
			if err := tx.Create(saModel).Error; err != nil {
				return err
			}
		}

		// Save events to outbox within the same transaction
		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		if isUniqueViolation(err) {
			return linking.ErrAlreadyLinked
		}
		return err
	}

	integ.ClearDomainEvents()
	return nil
}

// DeleteLinked removes the integration and its sub-account rows in one
// transaction, saving the pending domain events alongside.
func (r *GormIntegrationRepository) DeleteLinked(ctx context.Context, integ *linking.Integration) error {
	events := integ.GetDomainEvents()

	err := r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.Where("integration_id = ?", integ.GetID()).
			Delete(&models.SubAccountModel{}).Error; err != nil {
			return err
		}

		result := tx.Delete(&models.IntegrationModel{}, "id = ?", integ.GetID())
		if result.Error != nil {
			return result.Error
		}
		if result.RowsAffected == 0 {
			return shared.ErrNotFound
		}

		if r.outboxSaver != nil && len(events) > 0 {
			if err := r.outboxSaver.SaveEvents(ctx, tx, events...); err != nil {
				return fmt.Errorf("failed to save events to outbox: %w", err)
			}
		}

		return nil
	})
	if err != nil {
		return err
	}

	integ.ClearDomainEvents()
	return nil
}

// UpdateLastSync stamps the most recent successful sync time
func (r *GormIntegrationRepository) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	result := r.db.WithContext(ctx).
		Model(&models.IntegrationModel{}).
		Where("id = ?", id).
		Updates(map[string]interface{}{
			"last_sync_at": at,
			"updated_at":   time.Now(),
		})
	if result.Error != nil {
		return result.Error
	}
	if result.RowsAffected == 0 {
		return shared.ErrNotFound
	}
	return nil
}

// isUniqueViolation detects a unique constraint violation across the
// postgres and sqlite drivers used in production and tests.
func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	msg := err.Error()
	return strings.Contains(msg, "duplicate key value") ||
		strings.Contains(msg, "UNIQUE constraint failed")
}

// GormSubAccountRepository implements linking.SubAccountRepository using GORM
type GormSubAccountRepository struct {
	db *gorm.DB
}

// NewGormSubAccountRepository creates a new GormSubAccountRepository
func NewGormSubAccountRepository(db *gorm.DB) *GormSubAccountRepository {
	return &GormSubAccountRepository{db: db}
}

// FindByIntegration returns all sub-accounts of one integration
func (r *GormSubAccountRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]*linking.SubAccount, error) {
	var accountModels []models.SubAccountModel
	if err := r.db.WithContext(ctx).
		Where("integration_id = ?", integrationID).
		Order("kind, created_at").
		Find(&accountModels).Error; err != nil {
		return nil, err
	}

	accounts := make([]*linking.SubAccount, len(accountModels))
	for i := range accountModels {
		accounts[i] = accountModels[i].ToDomain()
	}
	return accounts, nil
}

// CountByTenantAndKind counts the tenant's sub-accounts of a kind under
// connected integrations only; rows of disconnected history don't consume quota.
func (r *GormSubAccountRepository) CountByTenantAndKind(ctx context.Context, tenantID uuid.UUID, kind linking.SubAccountKind) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).
		Model(&models.SubAccountModel{}).
		Joins("JOIN integrations ON integrations.id = linked_sub_accounts.integration_id").
		Where("linked_sub_accounts.tenant_id = ? AND linked_sub_accounts.kind = ? AND integrations.status = ?",
			tenantID, kind, linking.IntegrationStatusConnected).
		Count(&count).Error
	return count, err
}

// FindOwnerByExternalID returns the tenant holding the external account under
// a connected integration, or uuid.Nil when unclaimed.
func (r *GormSubAccountRepository) FindOwnerByExternalID(ctx context.Context, platform linking.PlatformCode, externalID string) (uuid.UUID, error) {
	var model models.SubAccountModel
	err := r.db.WithContext(ctx).
		Joins("JOIN integrations ON integrations.id = linked_sub_accounts.integration_id").
		Where("linked_sub_accounts.platform = ? AND linked_sub_accounts.external_id = ? AND integrations.status = ?",
			platform, externalID, linking.IntegrationStatusConnected).
		First(&model).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return uuid.Nil, nil
		}
		return uuid.Nil, err
	}
	return model.TenantID, nil
}
