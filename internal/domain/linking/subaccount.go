package linking

import (
	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// SubAccountKind distinguishes the polymorphic sub-account rows that hang
// off an Integration.
type SubAccountKind string

const (
	// SubAccountKindAd is an advertising account (Meta ad account, Google Ads customer)
	SubAccountKindAd SubAccountKind = "ad_account"
	// SubAccountKindSocial is a social profile (Instagram business account)
	SubAccountKindSocial SubAccountKind = "social_account"
	// SubAccountKindPage is a page (Facebook page)
	SubAccountKindPage SubAccountKind = "page"
)

// IsValid returns true if the kind is known.
func (k SubAccountKind) IsValid() bool {
	switch k {
	case SubAccountKindAd, SubAccountKindSocial, SubAccountKindPage:
		return true
	default:
		return false
	}
}

// ResourceKind maps the sub-account kind to its quota resource.
func (k SubAccountKind) ResourceKind() ResourceKind {
	switch k {
	case SubAccountKindAd:
		return ResourceAdAccounts
	case SubAccountKindPage:
		return ResourcePages
	default:
		return ResourceSocialAccounts
	}
}

// SubAccount is a specific external account chosen under an Integration.
// ExternalID is the platform-side identifier and is globally unique across
// tenants unless the owning tenant carries an abuse exemption.
//
// The tenant id is denormalized from the integration for fast scoping.
type SubAccount struct {
	shared.BaseEntity
	IntegrationID uuid.UUID
	TenantID      uuid.UUID
	Kind          SubAccountKind
	ExternalID    string
	Name          string
	IsPrimary     bool

	// Ad account attributes
	Currency      string
	Timezone      string
	AccountStatus int
	SpendCap      decimal.Decimal

	// Social profile attributes
	Username          string
	ProfilePictureURL string
	FollowersCount    int
	FollowsCount      int
	MediaCount        int
	Biography         string
	Website           string

	// Page attributes
	Category string
	FanCount int
}

// NewSubAccount creates a primary sub-account under the given integration.
func NewSubAccount(integ *Integration, kind SubAccountKind, externalID, name string) (*SubAccount, error) {
	if !kind.IsValid() {
		return nil, shared.NewDomainError("INVALID_SUB_ACCOUNT_KIND", "Unknown sub-account kind")
	}
	if externalID == "" {
		return nil, shared.NewDomainError("INVALID_EXTERNAL_ID", "External account ID cannot be empty")
	}
	return &SubAccount{
		BaseEntity:    shared.NewBaseEntity(),
		IntegrationID: integ.GetID(),
		TenantID:      integ.TenantID,
		Kind:          kind,
		ExternalID:    externalID,
		Name:          name,
		IsPrimary:     true,
	}, nil
}
