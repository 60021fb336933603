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
)

const (
	googleAuthURL      = "https://accounts.google.com/o/oauth2/v2/auth"
	googleTokenURL     = "https://oauth2.googleapis.com/token"
	googleAdsAPIURL    = "https://googleads.googleapis.com/v17"
	googleAdminAPIURL  = "https://analyticsadmin.googleapis.com/v1beta"
	googleAdsScope     = "https://www.googleapis.com/auth/adwords"
	googleAnalyticsRO  = "https://www.googleapis.com/auth/analytics.readonly"
)

// GoogleProvider implements linking.Provider for Google's OAuth surface.
// The same adapter serves Google Ads and Google Analytics; the platform code
// picks the scope set and the account listing endpoint.
type GoogleProvider struct {
	platform     linking.PlatformCode
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	adsAPIURL    string
	adminAPIURL  string
	httpClient   *http.Client
}

// NewGoogleProvider creates a Google provider for the given platform code.
// Only PlatformGoogleAds and PlatformGoogleAnalytics are valid.
func NewGoogleProvider(platform linking.PlatformCode, clientID, clientSecret string, timeout time.Duration) (*GoogleProvider, error) {
	if platform != linking.PlatformGoogleAds && platform != linking.PlatformGoogleAnalytics {
		return nil, linking.ErrInvalidPlatform
	}
	return &GoogleProvider{
		platform:     platform,
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      googleAuthURL,
		tokenURL:     googleTokenURL,
		adsAPIURL:    googleAdsAPIURL,
		adminAPIURL:  googleAdminAPIURL,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// Platform returns the platform code this provider handles
func (p *GoogleProvider) Platform() linking.PlatformCode {
	return p.platform
}

func (p *GoogleProvider) scope() string {
	if p.platform == linking.PlatformGoogleAds {
		return googleAdsScope
	}
	return googleAnalyticsRO
}

// AuthorizationURL builds the Google OAuth consent URL. access_type=offline
// requests a refresh token so the credential outlives the access token.
func (p *GoogleProvider) AuthorizationURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	q.Set("scope", p.scope())
	q.Set("response_type", "code")
	q.Set("access_type", "offline")
	q.Set("prompt", "consent")
	return p.authURL + "?" + q.Encode()
}

type googleTokenResponse struct {
	AccessToken      string `json:"access_token"`
	RefreshToken     string `json:"refresh_token"`
	TokenType        string `json:"token_type"`
	ExpiresIn        int64  `json:"expires_in"`
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description"`
}

// ExchangeCode exchanges an authorization code for tokens
func (p *GoogleProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*linking.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)
	form.Set("redirect_uri", redirectURI)
	form.Set("code", code)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("google: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("google: failed to read token response: %w", err)
	}

	var tokenResp googleTokenResponse
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("google: failed to parse token response: %w", err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("google: token request rejected: %s (%s)", tokenResp.Error, tokenResp.ErrorDescription)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("google: token response missing access_token")
	}

	return &linking.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

// ExchangeLongLived is not offered by Google; the refresh token obtained at
// code exchange already provides long-term access.
func (p *GoogleProvider) ExchangeLongLived(_ context.Context, _ string) (*linking.Token, error) {
	return nil, linking.ErrUnsupported
}

// ListCandidates enumerates accessible accounts for the platform
func (p *GoogleProvider) ListCandidates(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	if p.platform == linking.PlatformGoogleAds {
		return p.listAdsCustomers(ctx, accessToken)
	}
	return p.listAnalyticsAccounts(ctx, accessToken)
}

func (p *GoogleProvider) listAdsCustomers(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	body, err := p.get(ctx, p.adsAPIURL+"/customers:listAccessibleCustomers", accessToken)
	if err != nil {
		return nil, err
	}

	var resp struct {
		ResourceNames []string `json:"resourceNames"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("google: failed to parse customer list: %w", err)
	}

	out := &linking.CandidateAccounts{
		AdAccounts:     make([]linking.Candidate, 0, len(resp.ResourceNames)),
		SocialAccounts: make([]linking.Candidate, 0),
		Pages:          make([]linking.Candidate, 0),
	}
	for _, rn := range resp.ResourceNames {
		// Resource names look like customers/1234567890
		id := strings.TrimPrefix(rn, "customers/")
		out.AdAccounts = append(out.AdAccounts, linking.Candidate{
			ID:   id,
			Name: "Google Ads " + id,
		})
	}
	return out, nil
}

func (p *GoogleProvider) listAnalyticsAccounts(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	body, err := p.get(ctx, p.adminAPIURL+"/accountSummaries", accessToken)
	if err != nil {
		return nil, err
	}

	var resp struct {
		AccountSummaries []struct {
			Account           string `json:"account"`
			DisplayName       string `json:"displayName"`
			PropertySummaries []struct {
				Property    string `json:"property"`
				DisplayName string `json:"displayName"`
			} `json:"propertySummaries"`
		} `json:"accountSummaries"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return nil, fmt.Errorf("google: failed to parse account summaries: %w", err)
	}

	out := &linking.CandidateAccounts{
		AdAccounts:     make([]linking.Candidate, 0),
		SocialAccounts: make([]linking.Candidate, 0),
		Pages:          make([]linking.Candidate, 0),
	}
	for _, summary := range resp.AccountSummaries {
		for _, prop := range summary.PropertySummaries {
			out.AdAccounts = append(out.AdAccounts, linking.Candidate{
				ID:   strings.TrimPrefix(prop.Property, "properties/"),
				Name: prop.DisplayName,
				Attributes: map[string]string{
					"account": summary.DisplayName,
				},
			})
		}
	}
	return out, nil
}

// AccountDetails fetches the attribute set for one selected account. Google
// listings already carry everything persisted, so this echoes the identifier.
func (p *GoogleProvider) AccountDetails(_ context.Context, _ string, kind linking.SubAccountKind, externalID string) (*linking.AccountDetails, error) {
	if kind != linking.SubAccountKindAd {
		return nil, linking.ErrUnsupported
	}
	return &linking.AccountDetails{ExternalID: externalID}, nil
}

func (p *GoogleProvider) get(ctx context.Context, fullURL, accessToken string) ([]byte, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, fullURL, nil)
	if err != nil {
		return nil, fmt.Errorf("google: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "Bearer "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("google: request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("google: failed to read response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("google: request failed: HTTP %d", resp.StatusCode)
	}
	return body, nil
}

// Ensure GoogleProvider implements the provider port
var _ linking.Provider = (*GoogleProvider)(nil)
