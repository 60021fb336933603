package linking

import (
	"context"

	"github.com/shopspring/decimal"
)

// Token is an OAuth token returned by a provider's token endpoint.
type Token struct {
	AccessToken  string
	RefreshToken string
	TokenType    string
	// ExpiresIn is the token lifetime in seconds as reported by the provider
	ExpiresIn int64
}

// Candidate is one sub-account the authenticated principal can access,
// normalized from the provider's listing response and shown to the user for
// selection.
type Candidate struct {
	ID   string `json:"id"`
	Name string `json:"name"`
	// Attributes carries provider-specific display hints (currency,
	// follower count, category) without widening the struct per platform.
	Attributes map[string]string `json:"attributes,omitempty"`
}

// CandidateAccounts groups the enumeration result by sub-account kind.
type CandidateAccounts struct {
	AdAccounts     []Candidate `json:"ad_accounts"`
	SocialAccounts []Candidate `json:"social_accounts"`
	Pages          []Candidate `json:"pages"`
}

// Empty returns true when no candidate of any kind was found.
func (c *CandidateAccounts) Empty() bool {
	return len(c.AdAccounts) == 0 && len(c.SocialAccounts) == 0 && len(c.Pages) == 0
}

// AccountDetails is the full attribute set fetched for a single selected
// sub-account before it is persisted.
type AccountDetails struct {
	ExternalID string
	Name       string

	Currency      string
	Timezone      string
	AccountStatus int
	SpendCap      decimal.Decimal

	Username          string
	ProfilePictureURL string
	FollowersCount    int
	FollowsCount      int
	MediaCount        int
	Biography         string
	Website           string

	Category string
	FanCount int
}

// ApplyDetails copies fetched attributes onto a sub-account.
func (sa *SubAccount) ApplyDetails(d AccountDetails) {
	if d.Name != "" {
		sa.Name = d.Name
	}
	sa.Currency = d.Currency
	sa.Timezone = d.Timezone
	sa.AccountStatus = d.AccountStatus
	sa.SpendCap = d.SpendCap
	sa.Username = d.Username
	sa.ProfilePictureURL = d.ProfilePictureURL
	sa.FollowersCount = d.FollowersCount
	sa.FollowsCount = d.FollowsCount
	sa.MediaCount = d.MediaCount
	sa.Biography = d.Biography
	sa.Website = d.Website
	sa.Category = d.Category
	sa.FanCount = d.FanCount
}

// ---------------------------------------------------------------------------
// Provider Port Interface
// ---------------------------------------------------------------------------

// Provider is the port for a single external platform's OAuth and account
// enumeration endpoints. Implementations live in the infrastructure layer,
// one per platform; enumeration logic is bespoke per provider.
//
// All network calls carry a bounded timeout and perform no automatic retry:
// a failed call fails the step and the user restarts the flow.
type Provider interface {
	// Platform returns the platform code this provider handles
	Platform() PlatformCode

	// AuthorizationURL builds the provider's authorization-request URL with
	// response_type=code, the configured client id and scopes, the given
	// redirect URI and the opaque anti-forgery state
	AuthorizationURL(state, redirectURI string) string

	// ExchangeCode exchanges an authorization code for a short-lived access
	// token (grant_type=authorization_code)
	ExchangeCode(ctx context.Context, code, redirectURI string) (*Token, error)

	// ExchangeLongLived exchanges a short-lived token for a long-lived one.
	// Best-effort: providers without such an exchange return ErrUnsupported
	// and callers fall back to the short-lived token.
	ExchangeLongLived(ctx context.Context, shortToken string) (*Token, error)

	// ListCandidates enumerates the sub-accounts the token's principal can
	// access. Read-only and side-effect-free.
	ListCandidates(ctx context.Context, accessToken string) (*CandidateAccounts, error)

	// AccountDetails fetches the full attribute set for one selected account
	AccountDetails(ctx context.Context, accessToken string, kind SubAccountKind, externalID string) (*AccountDetails, error)
}

// ProviderRegistry resolves the provider adapter for a platform code.
type ProviderRegistry interface {
	// Get returns the provider for the platform, or ErrInvalidPlatform when
	// no adapter is registered for it
	Get(platform PlatformCode) (Provider, error)

	// Platforms lists the platform codes with a registered adapter
	Platforms() []PlatformCode
}
