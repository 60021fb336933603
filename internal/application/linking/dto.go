package linking

import (
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/shopspring/decimal"
)

// InitiateResult is the outcome of starting a linking flow.
type InitiateResult struct {
	AuthorizationURL string `json:"authorization_url"`
	State            string `json:"state"`
	ExpiresAt        string `json:"expires_at"`
}

// CallbackParams carries the query parameters of the provider redirect.
type CallbackParams struct {
	State            string
	Code             string
	Error            string
	ErrorDescription string
	ClientIP         string
	UserAgent        string
}

// CallbackResult tells the redirect handler where the flow stands.
type CallbackResult struct {
	Platform linking.PlatformCode `json:"platform"`
	State    string               `json:"state"`
}

// SelectionRequest is the user's account selection for a pending session:
// at most one active account per kind, any kind may be omitted.
type SelectionRequest struct {
	State           string `json:"state" binding:"required"`
	AdAccountID     string `json:"selected_ad_account_id"`
	SocialAccountID string `json:"selected_social_account_id"`
	PageID          string `json:"selected_page_id"`
}

// Empty returns true when no account of any kind was selected.
func (r *SelectionRequest) Empty() bool {
	return r.AdAccountID == "" && r.SocialAccountID == "" && r.PageID == ""
}

// selections returns the chosen external id per kind, skipping omitted
// kinds. The order is fixed so persisted rows are deterministic.
func (r *SelectionRequest) selections() []kindSelection {
	var out []kindSelection
	for _, sel := range []kindSelection{
		{linking.SubAccountKindAd, r.AdAccountID},
		{linking.SubAccountKindSocial, r.SocialAccountID},
		{linking.SubAccountKindPage, r.PageID},
	} {
		if sel.ExternalID != "" {
			out = append(out, sel)
		}
	}
	return out
}

type kindSelection struct {
	Kind       linking.SubAccountKind
	ExternalID string
}

// SubAccountResponse is the API shape of one linked sub-account.
type SubAccountResponse struct {
	ID         string                 `json:"id"`
	Kind       linking.SubAccountKind `json:"kind"`
	ExternalID string                 `json:"external_id"`
	Name       string                 `json:"name"`
	IsPrimary  bool                   `json:"is_primary"`

	Currency      string          `json:"currency,omitempty"`
	Timezone      string          `json:"timezone,omitempty"`
	AccountStatus int             `json:"account_status,omitempty"`
	SpendCap      decimal.Decimal `json:"spend_cap,omitempty"`

	Username          string `json:"username,omitempty"`
	ProfilePictureURL string `json:"profile_picture_url,omitempty"`
	FollowersCount    int    `json:"followers_count,omitempty"`
	MediaCount        int    `json:"media_count,omitempty"`

	Category string `json:"category,omitempty"`
	FanCount int    `json:"fan_count,omitempty"`
}

// IntegrationResponse is the API shape of one integration with its
// sub-accounts.
type IntegrationResponse struct {
	ID          string               `json:"id"`
	Platform    linking.PlatformCode `json:"platform"`
	Name        string               `json:"name"`
	Status      string               `json:"status"`
	ConnectedAt *time.Time           `json:"connected_at,omitempty"`
	ExpiresAt   *time.Time           `json:"expires_at,omitempty"`
	LastSyncAt  *time.Time           `json:"last_sync_at,omitempty"`
	SubAccounts []SubAccountResponse `json:"sub_accounts"`
}

// ConnectionCheck is the pre-flight answer for an already-linked platform.
type ConnectionCheck struct {
	Platform      linking.PlatformCode `json:"platform"`
	HasConnection bool                 `json:"has_connection"`
	Integration   *IntegrationResponse `json:"integration,omitempty"`
}

// PlatformStatus reports whether a platform is connected for the tenant.
type PlatformStatus struct {
	Platform    linking.PlatformCode `json:"platform"`
	DisplayName string               `json:"display_name"`
	Connected   bool                 `json:"connected"`
	Integration *IntegrationResponse `json:"integration,omitempty"`
}

// ToSubAccountResponse converts a domain sub-account to its API shape.
func ToSubAccountResponse(sa *linking.SubAccount) SubAccountResponse {
	return SubAccountResponse{
		ID:                sa.GetID().String(),
		Kind:              sa.Kind,
		ExternalID:        sa.ExternalID,
		Name:              sa.Name,
		IsPrimary:         sa.IsPrimary,
		Currency:          sa.Currency,
		Timezone:          sa.Timezone,
		AccountStatus:     sa.AccountStatus,
		SpendCap:          sa.SpendCap,
		Username:          sa.Username,
		ProfilePictureURL: sa.ProfilePictureURL,
		FollowersCount:    sa.FollowersCount,
		MediaCount:        sa.MediaCount,
		Category:          sa.Category,
		FanCount:          sa.FanCount,
	}
}

// ToIntegrationResponse converts an integration and its sub-accounts to the
// API shape. The credential bundle is never exposed.
func ToIntegrationResponse(integ *linking.Integration, accounts []*linking.SubAccount) *IntegrationResponse {
	resp := &IntegrationResponse{
		ID:          integ.GetID().String(),
		Platform:    integ.Platform,
		Name:        integ.Name,
		Status:      string(integ.Status),
		ConnectedAt: integ.ConnectedAt,
		ExpiresAt:   integ.ExpiresAt,
		LastSyncAt:  integ.LastSyncAt,
		SubAccounts: make([]SubAccountResponse, 0, len(accounts)),
	}
	for _, sa := range accounts {
		resp.SubAccounts = append(resp.SubAccounts, ToSubAccountResponse(sa))
	}
	return resp
}
