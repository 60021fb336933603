package linking

import (
	"encoding/json"
	"time"

	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// IntegrationStatus represents the lifecycle status of an Integration.
type IntegrationStatus string

const (
	// IntegrationStatusConnected means the credential is active and usable
	IntegrationStatusConnected IntegrationStatus = "connected"
	// IntegrationStatusDisconnected means the link was explicitly severed
	IntegrationStatusDisconnected IntegrationStatus = "disconnected"
	// IntegrationStatusError means the credential stopped working (e.g. revoked upstream)
	IntegrationStatusError IntegrationStatus = "error"
)

// IsValid returns true if the status is valid.
func (s IntegrationStatus) IsValid() bool {
	switch s {
	case IntegrationStatusConnected, IntegrationStatusDisconnected, IntegrationStatusError:
		return true
	default:
		return false
	}
}

// Credential is the opaque credential bundle stored on an Integration.
// It is persisted as a single JSON column, mirroring what the token refresh
// job (out of scope here) reads and rewrites.
type Credential struct {
	AccessToken  string `json:"access_token"`
	RefreshToken string `json:"refresh_token,omitempty"`
	TokenType    string `json:"token_type"`
}

// Encode serializes the credential bundle to its storage form.
func (c Credential) Encode() ([]byte, error) {
	return json.Marshal(c)
}

// DecodeCredential deserializes a stored credential bundle.
func DecodeCredential(raw []byte) (Credential, error) {
	var c Credential
	if len(raw) == 0 {
		return c, nil
	}
	err := json.Unmarshal(raw, &c)
	return c, err
}

// Integration is the durable record of a tenant's connected external
// platform credential. At most one Integration with status=connected may
// exist per (tenant, platform); the selection step enforces this
// authoritatively on top of a partial unique index.
type Integration struct {
	shared.TenantAggregateRoot
	Platform    PlatformCode
	Name        string
	Status      IntegrationStatus
	Credential  Credential
	ConnectedAt *time.Time
	ExpiresAt   *time.Time
	LastSyncAt  *time.Time
	LastError   string
}

// NewIntegration creates a connected Integration for the tenant and platform.
// expiresIn is the credential lifetime in seconds as reported by the provider.
func NewIntegration(tenantID uuid.UUID, platform PlatformCode, cred Credential, expiresIn int64) (*Integration, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if !platform.IsValid() {
		return nil, ErrInvalidPlatform
	}
	if cred.AccessToken == "" {
		return nil, shared.NewDomainError("INVALID_CREDENTIAL", "Access token cannot be empty")
	}

	now := time.Now()
	expiresAt := now.Add(time.Duration(expiresIn) * time.Second)

	integ := &Integration{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		Platform:            platform,
		Name:                platform.DisplayName(),
		Status:              IntegrationStatusConnected,
		Credential:          cred,
		ConnectedAt:         &now,
		ExpiresAt:           &expiresAt,
	}
	return integ, nil
}

// IsConnected returns true while the integration is in the connected state.
func (i *Integration) IsConnected() bool {
	return i.Status == IntegrationStatusConnected
}

// MarkError transitions the integration to the error state, keeping the
// credential for diagnostics.
func (i *Integration) MarkError(reason string) {
	i.Status = IntegrationStatusError
	i.LastError = reason
	i.UpdatedAt = time.Now()
}

// Disconnect severs the link. Sub-account rows are removed by the
// repository's cascade delete alongside the integration row.
func (i *Integration) Disconnect() {
	i.Status = IntegrationStatusDisconnected
	i.UpdatedAt = time.Now()
	i.AddDomainEvent(NewIntegrationDisconnected(i))
}
