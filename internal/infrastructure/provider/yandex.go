package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
)

const (
	yandexAuthURL     = "https://oauth.yandex.com/authorize"
	yandexTokenURL    = "https://oauth.yandex.com/token"
	yandexMetricaAPI  = "https://api-metrika.yandex.net/management/v1"
	yandexDirectAPI   = "https://api.direct.yandex.com/json/v5"
)

// YandexProvider implements linking.Provider for Yandex OAuth. One adapter
// serves Yandex.Metrica counters and Yandex.Direct ad accounts.
type YandexProvider struct {
	platform     linking.PlatformCode
	clientID     string
	clientSecret string
	authURL      string
	tokenURL     string
	metricaURL   string
	httpClient   *http.Client
}

// NewYandexProvider creates a Yandex provider for the given platform code.
// Only PlatformYandexMetrica and PlatformYandexDirect are valid.
func NewYandexProvider(platform linking.PlatformCode, clientID, clientSecret string, timeout time.Duration) (*YandexProvider, error) {
	if platform != linking.PlatformYandexMetrica && platform != linking.PlatformYandexDirect {
		return nil, linking.ErrInvalidPlatform
	}
	return &YandexProvider{
		platform:     platform,
		clientID:     clientID,
		clientSecret: clientSecret,
		authURL:      yandexAuthURL,
		tokenURL:     yandexTokenURL,
		metricaURL:   yandexMetricaAPI,
		httpClient:   &http.Client{Timeout: timeout},
	}, nil
}

// Platform returns the platform code this provider handles
func (p *YandexProvider) Platform() linking.PlatformCode {
	return p.platform
}

// AuthorizationURL builds the Yandex OAuth authorize URL
func (p *YandexProvider) AuthorizationURL(state, redirectURI string) string {
	q := url.Values{}
	q.Set("response_type", "code")
	q.Set("client_id", p.clientID)
	q.Set("redirect_uri", redirectURI)
	q.Set("state", state)
	return p.authURL + "?" + q.Encode()
}

// ExchangeCode exchanges an authorization code for tokens
func (p *YandexProvider) ExchangeCode(ctx context.Context, code, _ string) (*linking.Token, error) {
	form := url.Values{}
	form.Set("grant_type", "authorization_code")
	form.Set("code", code)
	form.Set("client_id", p.clientID)
	form.Set("client_secret", p.clientSecret)

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.tokenURL, strings.NewReader(form.Encode()))
	if err != nil {
		return nil, fmt.Errorf("yandex: failed to create token request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex: token request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("yandex: failed to read token response: %w", err)
	}

	var tokenResp struct {
		AccessToken      string `json:"access_token"`
		RefreshToken     string `json:"refresh_token"`
		TokenType        string `json:"token_type"`
		ExpiresIn        int64  `json:"expires_in"`
		Error            string `json:"error"`
		ErrorDescription string `json:"error_description"`
	}
	if err := json.Unmarshal(body, &tokenResp); err != nil {
		return nil, fmt.Errorf("yandex: failed to parse token response: %w", err)
	}
	if tokenResp.Error != "" {
		return nil, fmt.Errorf("yandex: token request rejected: %s (%s)", tokenResp.Error, tokenResp.ErrorDescription)
	}
	if tokenResp.AccessToken == "" {
		return nil, fmt.Errorf("yandex: token response missing access_token")
	}

	return &linking.Token{
		AccessToken:  tokenResp.AccessToken,
		RefreshToken: tokenResp.RefreshToken,
		TokenType:    tokenResp.TokenType,
		ExpiresIn:    tokenResp.ExpiresIn,
	}, nil
}

// ExchangeLongLived is not offered by Yandex; tokens issued at code exchange
// already live for months and carry a refresh token.
func (p *YandexProvider) ExchangeLongLived(_ context.Context, _ string) (*linking.Token, error) {
	return nil, linking.ErrUnsupported
}

// ListCandidates enumerates accessible accounts for the platform
func (p *YandexProvider) ListCandidates(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	out := &linking.CandidateAccounts{
		AdAccounts:     make([]linking.Candidate, 0),
		SocialAccounts: make([]linking.Candidate, 0),
		Pages:          make([]linking.Candidate, 0),
	}

	if p.platform == linking.PlatformYandexDirect {
		// Direct exposes exactly the authenticated login's account
		out.AdAccounts = append(out.AdAccounts, linking.Candidate{
			ID:   "self",
			Name: "Yandex.Direct account",
		})
		return out, nil
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, p.metricaURL+"/counters", nil)
	if err != nil {
		return nil, fmt.Errorf("yandex: failed to create request: %w", err)
	}
	req.Header.Set("Authorization", "OAuth "+accessToken)
	req.Header.Set("Accept", "application/json")

	resp, err := p.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("yandex: counters request failed: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseSize))
	if err != nil {
		return nil, fmt.Errorf("yandex: failed to read counters response: %w", err)
	}
	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("yandex: counters request failed: HTTP %d", resp.StatusCode)
	}

	var counters struct {
		Counters []struct {
			ID   int64  `json:"id"`
			Name string `json:"name"`
			Site string `json:"site"`
		} `json:"counters"`
	}
	if err := json.Unmarshal(body, &counters); err != nil {
		return nil, fmt.Errorf("yandex: failed to parse counters: %w", err)
	}

	for _, c := range counters.Counters {
		out.AdAccounts = append(out.AdAccounts, linking.Candidate{
			ID:   strconv.FormatInt(c.ID, 10),
			Name: c.Name,
			Attributes: map[string]string{
				"site": c.Site,
			},
		})
	}
	return out, nil
}

// AccountDetails echoes the identifier; Yandex listings already carry
// everything persisted.
func (p *YandexProvider) AccountDetails(_ context.Context, _ string, kind linking.SubAccountKind, externalID string) (*linking.AccountDetails, error) {
	if kind != linking.SubAccountKindAd {
		return nil, linking.ErrUnsupported
	}
	return &linking.AccountDetails{ExternalID: externalID}, nil
}

// Ensure YandexProvider implements the provider port
var _ linking.Provider = (*YandexProvider)(nil)
