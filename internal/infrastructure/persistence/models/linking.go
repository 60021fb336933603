package models

import (
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// IntegrationModel is the persistence model for the Integration aggregate.
// The partial unique index enforces at most one connected integration per
// (tenant, platform); disconnected history rows stay out of its scope.
type IntegrationModel struct {
	TenantAggregateModel
	Platform    linking.PlatformCode      `gorm:"type:varchar(30);not null;uniqueIndex:ux_integrations_tenant_platform_connected,where:status = 'connected'"`
	Name        string                    `gorm:"type:varchar(255);not null"`
	Status      linking.IntegrationStatus `gorm:"type:varchar(20);not null;default:'connected';index"`
	Credentials []byte                    `gorm:"type:jsonb;not null"`
	ConnectedAt *time.Time
	ExpiresAt   *time.Time
	LastSyncAt  *time.Time
	LastError   string `gorm:"type:text"`
}

// TableName returns the table name for GORM
func (IntegrationModel) TableName() string {
	return "integrations"
}

// ToDomain converts the persistence model to a domain Integration.
func (m *IntegrationModel) ToDomain() (*linking.Integration, error) {
	cred, err := linking.DecodeCredential(m.Credentials)
	if err != nil {
		return nil, err
	}

	integ := &linking.Integration{
		Platform:    m.Platform,
		Name:        m.Name,
		Status:      m.Status,
		Credential:  cred,
		ConnectedAt: m.ConnectedAt,
		ExpiresAt:   m.ExpiresAt,
		LastSyncAt:  m.LastSyncAt,
		LastError:   m.LastError,
	}
	m.PopulateTenantAggregateRoot(&integ.TenantAggregateRoot)
	return integ, nil
}

// FromDomain populates the persistence model from a domain Integration.
func (m *IntegrationModel) FromDomain(integ *linking.Integration) error {
	raw, err := integ.Credential.Encode()
	if err != nil {
		return err
	}

	m.FromDomainTenantAggregateRoot(integ.TenantAggregateRoot)
	m.Platform = integ.Platform
	m.Name = integ.Name
	m.Status = integ.Status
	m.Credentials = raw
	m.ConnectedAt = integ.ConnectedAt
	m.ExpiresAt = integ.ExpiresAt
	m.LastSyncAt = integ.LastSyncAt
	m.LastError = integ.LastError
	return nil
}

// IntegrationModelFromDomain creates a new persistence model from a domain Integration.
func IntegrationModelFromDomain(integ *linking.Integration) (*IntegrationModel, error) {
	m := &IntegrationModel{}
	if err := m.FromDomain(integ); err != nil {
		return nil, err
	}
	return m, nil
}

// SubAccountModel is the persistence model for linked sub-accounts. One row
// per selected external account, polymorphic over kind; attribute columns
// unused by a kind stay at their zero value.
type SubAccountModel struct {
	BaseModel
	IntegrationID uuid.UUID              `gorm:"type:uuid;not null;index"`
	TenantID      uuid.UUID              `gorm:"type:uuid;not null;index:idx_sub_accounts_tenant_kind,priority:1"`
	Kind          linking.SubAccountKind `gorm:"type:varchar(20);not null;index:idx_sub_accounts_tenant_kind,priority:2"`
	ExternalID    string                 `gorm:"type:varchar(100);not null;index:idx_sub_accounts_platform_external,priority:2"`
	Platform      linking.PlatformCode   `gorm:"type:varchar(30);not null;index:idx_sub_accounts_platform_external,priority:1"`
	Name          string                 `gorm:"type:varchar(255)"`
	IsPrimary     bool                   `gorm:"not null;default:false"`

	Currency      string          `gorm:"type:varchar(10)"`
	Timezone      string          `gorm:"type:varchar(64)"`
	AccountStatus int             `gorm:"not null;default:0"`
	SpendCap      decimal.Decimal `gorm:"type:decimal(20,4);not null;default:0"`

	Username          string `gorm:"type:varchar(255)"`
	ProfilePictureURL string `gorm:"type:text"`
	FollowersCount    int    `gorm:"not null;default:0"`
	FollowsCount      int    `gorm:"not null;default:0"`
	MediaCount        int    `gorm:"not null;default:0"`
	Biography         string `gorm:"type:text"`
	Website           string `gorm:"type:text"`

	Category string `gorm:"type:varchar(100)"`
	FanCount int    `gorm:"not null;default:0"`
}

// TableName returns the table name for GORM
func (SubAccountModel) TableName() string {
	return "linked_sub_accounts"
}

// ToDomain converts the persistence model to a domain SubAccount.
func (m *SubAccountModel) ToDomain() *linking.SubAccount {
	return &linking.SubAccount{
		BaseEntity:        m.BaseModel.ToDomain(),
		IntegrationID:     m.IntegrationID,
		TenantID:          m.TenantID,
		Kind:              m.Kind,
		ExternalID:        m.ExternalID,
		Name:              m.Name,
		IsPrimary:         m.IsPrimary,
		Currency:          m.Currency,
		Timezone:          m.Timezone,
		AccountStatus:     m.AccountStatus,
		SpendCap:          m.SpendCap,
		Username:          m.Username,
		ProfilePictureURL: m.ProfilePictureURL,
		FollowersCount:    m.FollowersCount,
		FollowsCount:      m.FollowsCount,
		MediaCount:        m.MediaCount,
		Biography:         m.Biography,
		Website:           m.Website,
		Category:          m.Category,
		FanCount:          m.FanCount,
	}
}

// FromDomain populates the persistence model from a domain SubAccount.
// Platform is denormalized from the owning integration for the cross-tenant
// ownership lookup.
func (m *SubAccountModel) FromDomain(sa *linking.SubAccount, platform linking.PlatformCode) {
	m.FromDomainBaseEntity(sa.BaseEntity)
	m.IntegrationID = sa.IntegrationID
	m.TenantID = sa.TenantID
	m.Kind = sa.Kind
	m.ExternalID = sa.ExternalID
	m.Platform = platform
	m.Name = sa.Name
	m.IsPrimary = sa.IsPrimary
	m.Currency = sa.Currency
	m.Timezone = sa.Timezone
	m.AccountStatus = sa.AccountStatus
	m.SpendCap = sa.SpendCap
	m.Username = sa.Username
	m.ProfilePictureURL = sa.ProfilePictureURL
	m.FollowersCount = sa.FollowersCount
	m.FollowsCount = sa.FollowsCount
	m.MediaCount = sa.MediaCount
	m.Biography = sa.Biography
	m.Website = sa.Website
	m.Category = sa.Category
	m.FanCount = sa.FanCount
}

// SubAccountModelFromDomain creates a new persistence model from a domain SubAccount.
func SubAccountModelFromDomain(sa *linking.SubAccount, platform linking.PlatformCode) *SubAccountModel {
	m := &SubAccountModel{}
	m.FromDomain(sa, platform)
	return m
}
