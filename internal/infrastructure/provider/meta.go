package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/shopspring/decimal"
)

const (
	metaDialogBaseURL = "https://www.facebook.com"
	metaGraphBaseURL  = "https://graph.facebook.com"
	metaAPIVersion    = "v21.0"

	// maxResponseSize limits provider response bodies to prevent memory exhaustion
	maxResponseSize = 10 * 1024 * 1024 // 10MB
)

// metaScopes is the permission set requested during authorization. It covers
// ads reading and management, Instagram business profiles and page insights.
var metaScopes = []string{
	"ads_read",
	"ads_management",
	"business_management",
	"instagram_basic",
	"instagram_manage_insights",
	"instagram_content_publish",
	"instagram_manage_comments",
	"instagram_manage_messages",
	"pages_show_list",
	"pages_read_engagement",
	"pages_manage_metadata",
	"read_insights",
}

// MetaProvider implements linking.Provider for the Meta Graph API. One
// authorization covers the user's ad accounts, Facebook pages and the
// Instagram business profiles attached to those pages.
type MetaProvider struct {
	clientID     string
	clientSecret string
	graphBaseURL string
	dialogURL    string
	httpClient   *http.Client
}

// NewMetaProvider creates a Meta provider with the given app credentials
func NewMetaProvider(clientID, clientSecret string, timeout time.Duration) *MetaProvider {
	return &MetaProvider{
		clientID:     clientID,
		clientSecret: clientSecret,
		graphBaseURL: metaGraphBaseURL + "/" + metaAPIVersion,
		dialogURL:    metaDialogBaseURL + "/" + metaAPIVersion + "/dialog/oauth",
		httpClient:   &http.Client{Timeout: timeout},
	}
}

// Platform returns the platform code this provider handles
func (p *MetaProvider) Platform() linking.PlatformCode {
	return linking.PlatformMetaAds
}

// AuthorizationURL builds the Facebook OAuth dialog URL
func (p *MetaProvider) AuthorizationURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("scope", strings.Join(metaScopes, ","))
	q.Set("response_type", "code")
	return p.dialogURL + "?" + q.Encode()
}

type metaTokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Error       *struct {
		Message string `json:"message"`
		Type    string `json:"type"`
		Code    int    `json:"code"`
	} `json:"error"`
}

// ExchangeCode exchanges an authorization code for a short-lived user token
func (p *MetaProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*linking.Token, error) {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("client_secret", p.clientSecret)
	q.Set("redirect_uri", redirectURI)
	q.Set("code", code)

	return p.requestToken(ctx, q)
}

// ExchangeLongLived exchanges a short-lived token for a ~60 day one
// (grant_type=fb_exchange_token)
func (p *MetaProvider) ExchangeLongLived(ctx context.Context, shortToken string) (*linking.Token, error) {
	q := url.Values{}
	q.Set("grant_type", "fb_exchange_token")
	q.Set("client_id", p.clientID)
	q.Set("client_secret", p.clientSecret)
	q.Set("fb_exchange_token", shortToken)

	return p.requestToken(ctx, q)
}

func (p *MetaProvider) requestToken(ctx context.Context, q url.Values) (*linking.Token, error) {
	body, err := p.get(ctx, "/oauth/access_token?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var resp metaTokenResponse
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("meta: failed to parse token response: %w", err)
	}
	if resp.Error != nil {
		return nil, fmt.Errorf("meta: token request rejected: %s", resp.Error.Message)
	}
	if resp.AccessToken == "" {
		return nil, fmt.Errorf("meta: token response missing access_token")
	}

	tokenType := resp.TokenType
	if tokenType == "" {
		tokenType = "bearer"
	}
	return &linking.Token{
		AccessToken: resp.AccessToken,
		TokenType:   tokenType,
		ExpiresIn:   resp.ExpiresIn,
	}, nil
}

type metaAdAccount struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	AccountStatus int    `json:"account_status"`
	Currency      string `json:"currency"`
	TimezoneName  string `json:"timezone_name"`
	AmountSpent   string `json:"amount_spent"`
	BusinessName  string `json:"business_name"`
}

type metaPage struct {
	ID                       string `json:"id"`
	Name                     string `json:"name"`
	Category                 string `json:"category"`
	FanCount                 int    `json:"fan_count"`
	InstagramBusinessAccount *struct {
		ID string `json:"id"`
	} `json:"instagram_business_account"`
}

type metaListEnvelope[T any] struct {
	Data  []T `json:"data"`
	Error *struct {
		Message string `json:"message"`
	} `json:"error"`
}

// ListCandidates enumerates the principal's ad accounts, pages and the
// Instagram business profiles attached to those pages.
func (p *MetaProvider) ListCandidates(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	out := &linking.CandidateAccounts{
		AdAccounts:     make([]linking.Candidate, 0),
		SocialAccounts: make([]linking.Candidate, 0),
		Pages:          make([]linking.Candidate, 0),
	}

	adAccounts, err := listGraph[metaAdAccount](ctx, p, accessToken, "/me/adaccounts",
		"id,name,account_status,currency,timezone_name,amount_spent,business_name")
	if err != nil {
		return nil, err
	}
	for _, acc := range adAccounts {
		out.AdAccounts = append(out.AdAccounts, linking.Candidate{
			ID:   acc.ID,
			Name: acc.Name,
			Attributes: map[string]string{
				"currency": acc.Currency,
				"timezone": acc.TimezoneName,
				"business": acc.BusinessName,
			},
		})
	}

	pages, err := listGraph[metaPage](ctx, p, accessToken, "/me/accounts",
		"id,name,category,fan_count,instagram_business_account")
	if err != nil {
		return nil, err
	}
	for _, page := range pages {
		out.Pages = append(out.Pages, linking.Candidate{
			ID:   page.ID,
			Name: page.Name,
			Attributes: map[string]string{
				"category": page.Category,
			},
		})

		if page.InstagramBusinessAccount == nil {
			continue
		}
		// Fetch the attached Instagram profile for display
		details, err := p.instagramDetails(ctx, accessToken, page.InstagramBusinessAccount.ID)
		if err != nil {
			return nil, err
		}
		out.SocialAccounts = append(out.SocialAccounts, linking.Candidate{
			ID:   details.ID,
			Name: details.Username,
			Attributes: map[string]string{
				"followers_count": fmt.Sprintf("%d", details.FollowersCount),
				"media_count":     fmt.Sprintf("%d", details.MediaCount),
				"linked_page":     page.Name,
			},
		})
	}

	return out, nil
}

type metaInstagramAccount struct {
	ID                string `json:"id"`
	Username          string `json:"username"`
	Name              string `json:"name"`
	Biography         string `json:"biography"`
	ProfilePictureURL string `json:"profile_picture_url"`
	Website           string `json:"website"`
	FollowersCount    int    `json:"followers_count"`
	FollowsCount      int    `json:"follows_count"`
	MediaCount        int    `json:"media_count"`
	Error             *struct {
		Message string `json:"message"`
	} `json:"error"`
}

func (p *MetaProvider) instagramDetails(ctx context.Context, accessToken, igID string) (*metaInstagramAccount, error) {
	q := url.Values{}
	q.Set("fields", "id,username,name,biography,profile_picture_url,website,followers_count,follows_count,media_count")
	q.Set("access_token", accessToken)

	body, err := p.get(ctx, "/"+igID+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var acc metaInstagramAccount
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("meta: failed to parse instagram account: %w", err)
	}
	if acc.Error != nil {
		return nil, fmt.Errorf("meta: instagram lookup failed: %s", acc.Error.Message)
	}
	return &acc, nil
}

// AccountDetails fetches the full attribute set for one selected account
func (p *MetaProvider) AccountDetails(ctx context.Context, accessToken string, kind linking.SubAccountKind, externalID string) (*linking.AccountDetails, error) {
	switch kind {
	case linking.SubAccountKindAd:
		return p.adAccountDetails(ctx, accessToken, externalID)
	case linking.SubAccountKindSocial:
		acc, err := p.instagramDetails(ctx, accessToken, externalID)
		if err != nil {
			return nil, err
		}
		name := acc.Name
		if name == "" {
			name = acc.Username
		}
		return &linking.AccountDetails{
			ExternalID:        acc.ID,
			Name:              name,
			Username:          acc.Username,
			ProfilePictureURL: acc.ProfilePictureURL,
			FollowersCount:    acc.FollowersCount,
			FollowsCount:      acc.FollowsCount,
			MediaCount:        acc.MediaCount,
			Biography:         acc.Biography,
			Website:           acc.Website,
		}, nil
	case linking.SubAccountKindPage:
		return p.pageDetails(ctx, accessToken, externalID)
	default:
		return nil, linking.ErrUnsupported
	}
}

func (p *MetaProvider) adAccountDetails(ctx context.Context, accessToken, accountID string) (*linking.AccountDetails, error) {
	// Graph ad account nodes are addressed with the act_ prefix
	if !strings.HasPrefix(accountID, "act_") {
		accountID = "act_" + accountID
	}

	q := url.Values{}
	q.Set("fields", "id,name,account_status,currency,timezone_name,spend_cap")
	q.Set("access_token", accessToken)

	body, err := p.get(ctx, "/"+accountID+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var acc struct {
		metaAdAccount
		SpendCap string `json:"spend_cap"`
		Error    *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &acc); err != nil {
		return nil, fmt.Errorf("meta: failed to parse ad account: %w", err)
	}
	if acc.Error != nil {
		return nil, fmt.Errorf("meta: ad account lookup failed: %s", acc.Error.Message)
	}

	spendCap := decimal.Zero
	if acc.SpendCap != "" {
		if parsed, err := decimal.NewFromString(acc.SpendCap); err == nil {
			spendCap = parsed
		}
	}

	return &linking.AccountDetails{
		ExternalID:    acc.ID,
		Name:          acc.Name,
		Currency:      acc.Currency,
		Timezone:      acc.TimezoneName,
		AccountStatus: acc.AccountStatus,
		SpendCap:      spendCap,
	}, nil
}

func (p *MetaProvider) pageDetails(ctx context.Context, accessToken, pageID string) (*linking.AccountDetails, error) {
	q := url.Values{}
	q.Set("fields", "id,name,category,fan_count")
	q.Set("access_token", accessToken)

	body, err := p.get(ctx, "/"+pageID+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var page struct {
		metaPage
		Error *struct {
			Message string `json:"message"`
		} `json:"error"`
	}
	if err := json.Unmarshal(body, &page); err != nil {
		return nil, fmt.Errorf("meta: failed to parse page: %w", err)
	}
	if page.Error != nil {
		return nil, fmt.Errorf("meta: page lookup failed: %s", page.Error.Message)
	}

	return &linking.AccountDetails{
		ExternalID: page.ID,
		Name:       page.Name,
		Category:   page.Category,
		FanCount:   page.FanCount,
	}, nil
}

// listGraph fetches a Graph API edge and returns its data array
func listGraph[T any](ctx context.Context, p *MetaProvider, accessToken, path, fields string) ([]T, error) {
	q := url.Values{}
	q.Set("fields", fields)
	q.Set("limit", "100")
	q.Set("access_token", accessToken)

	body, err := p.get(ctx, path+"?"+q.Encode())
	if err != nil {
		return nil, err
	}

	var envelope metaListEnvelope[T]
	if err := json.Unmarshal(body, &envelope); err != nil {
		return nil, fmt.Errorf("meta: failed to parse %s response: %w", path, err)
	}
	if envelope.Error != nil {
		return nil, fmt.Errorf("meta: %s request failed: %s", path, envelope.Error.Message)
	}
	return envelope.Data, nil
}

// get performs a GET against the Graph API and returns the raw body.
// 4xx bodies are returned as-is so callers can surface the Graph error message.
func (p *MetaProvider) get(ctx context.Context, pathAndQuery string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.graphBaseURL+pathAndQuery, nil)
	if err != nil {
		return nil, fmt.Errorf("meta: failed to create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("meta: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("meta: failed to read response: %w", err)
	}

	if resp.StatusCode >= 500 {
		return nil, fmt.Errorf("meta: upstream error: HTTP %d", resp.StatusCode)
	}
	return body, nil
}

// Ensure MetaProvider implements the provider port
var _ linking.Provider = (*MetaProvider)(nil)
