package linking

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// IntegrationRepository persists integrations and their sub-accounts.
type IntegrationRepository interface {
	// FindByID returns the integration regardless of status
	FindByID(ctx context.Context, id uuid.UUID) (*Integration, error)

	// FindConnected returns the connected integration for the tenant and
	// platform, or nil when none exists
	FindConnected(ctx context.Context, tenantID uuid.UUID, platform PlatformCode) (*Integration, error)

	// FindAllForTenant returns every integration of the tenant, any status
	FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*Integration, error)

	// CreateLinked persists the integration, its sub-accounts and the
	// pending domain events in a single transaction. If a connected
	// integration already exists for the (tenant, platform) pair the write
	// fails with ErrAlreadyLinked and nothing is persisted.
	CreateLinked(ctx context.Context, integ *Integration, accounts []*SubAccount) error

	// DeleteLinked removes the integration, its sub-account rows and writes
	// the pending domain events, all in one transaction
	DeleteLinked(ctx context.Context, integ *Integration) error

	// UpdateLastSync stamps the most recent successful sync time
	UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error
}

// SubAccountRepository reads the sub-account rows under integrations.
type SubAccountRepository interface {
	// FindByIntegration returns all sub-accounts of one integration
	FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]*SubAccount, error)

	// CountByTenantAndKind counts the tenant's sub-accounts of a kind across
	// connected integrations. Used for quota checks.
	CountByTenantAndKind(ctx context.Context, tenantID uuid.UUID, kind SubAccountKind) (int64, error)

	// FindOwnerByExternalID returns the tenant currently holding the given
	// external account under a connected integration, or uuid.Nil when the
	// account is unclaimed. Used for the cross-tenant abuse check.
	FindOwnerByExternalID(ctx context.Context, platform PlatformCode, externalID string) (uuid.UUID, error)
}

// SessionStore holds pending link sessions between the initiate and
// selection steps. Entries are keyed by the anti-forgery state token and
// expire on their own; abandonment needs no cleanup job.
type SessionStore interface {
	// Put stores the session under its state token with the given TTL,
	// replacing any previous value
	Put(ctx context.Context, session *PendingLinkSession, ttl time.Duration) error

	// Get returns the session for the state token, or ErrSessionExpired
	// when absent or expired
	Get(ctx context.Context, state string) (*PendingLinkSession, error)

	// Delete removes the session. Removing an absent session is not an error.
	Delete(ctx context.Context, state string) error
}
