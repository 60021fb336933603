package provider

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bizgrow/backend/internal/domain/linking"
)

func TestNewGoogleProvider_PlatformValidation(t *testing.T) {
	p, err := NewGoogleProvider(linking.PlatformMetaAds, "id", "secret", time.Second)

	assert.ErrorIs(t, err, linking.ErrInvalidPlatform)
	assert.Nil(t, p)
}

func TestGoogleProvider_AuthorizationURL(t *testing.T) {
	p, err := NewGoogleProvider(linking.PlatformGoogleAds, "client-id", "secret", time.Second)
	require.NoError(t, err)

	raw := p.AuthorizationURL("state1", "https://app.example.com/callback")

	u, err := url.Parse(raw)
	require.NoError(t, err)
	q := u.Query()
	assert.Equal(t, "client-id", q.Get("client_id"))
	assert.Equal(t, "state1", q.Get("state"))
	assert.Equal(t, "offline", q.Get("access_type"))
	assert.Equal(t, googleAdsScope, q.Get("scope"))
}

func TestGoogleProvider_ExchangeCode(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		require.NoError(t, r.ParseForm())
		assert.Equal(t, "authorization_code", r.PostForm.Get("grant_type"))
		assert.Equal(t, "code1", r.PostForm.Get("code"))

		json.NewEncoder(w).Encode(map[string]any{
			"access_token":  "AT",
			"refresh_token": "RT",
			"token_type":    "Bearer",
			"expires_in":    3599,
		})
	}))
	defer server.Close()

	p, err := NewGoogleProvider(linking.PlatformGoogleAds, "id", "secret", time.Second)
	require.NoError(t, err)
	p.tokenURL = server.URL

	token, err := p.ExchangeCode(context.Background(), "code1", "https://app.example.com/callback")

	require.NoError(t, err)
	assert.Equal(t, "AT", token.AccessToken)
	assert.Equal(t, "RT", token.RefreshToken)
	assert.Equal(t, int64(3599), token.ExpiresIn)
}

func TestGoogleProvider_ExchangeLongLived(t *testing.T) {
	p, err := NewGoogleProvider(linking.PlatformGoogleAds, "id", "secret", time.Second)
	require.NoError(t, err)

	token, err := p.ExchangeLongLived(context.Background(), "short")

	assert.ErrorIs(t, err, linking.ErrUnsupported)
	assert.Nil(t, token)
}

func TestGoogleProvider_ListCandidates_Ads(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "Bearer token", r.Header.Get("Authorization"))
		json.NewEncoder(w).Encode(map[string]any{
			"resourceNames": []string{"customers/1234567890", "customers/9876543210"},
		})
	}))
	defer server.Close()

	p, err := NewGoogleProvider(linking.PlatformGoogleAds, "id", "secret", time.Second)
	require.NoError(t, err)
	p.adsAPIURL = server.URL

	candidates, err := p.ListCandidates(context.Background(), "token")

	require.NoError(t, err)
	require.Len(t, candidates.AdAccounts, 2)
	assert.Equal(t, "1234567890", candidates.AdAccounts[0].ID)
	assert.Empty(t, candidates.SocialAccounts)
	assert.Empty(t, candidates.Pages)
}

func TestGoogleProvider_ListCandidates_Analytics(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(map[string]any{
			"accountSummaries": []map[string]any{
				{
					"account":     "accounts/100",
					"displayName": "Main Org",
					"propertySummaries": []map[string]any{
						{"property": "properties/500", "displayName": "Website"},
					},
				},
			},
		})
	}))
	defer server.Close()

	p, err := NewGoogleProvider(linking.PlatformGoogleAnalytics, "id", "secret", time.Second)
	require.NoError(t, err)
	p.adminAPIURL = server.URL

	candidates, err := p.ListCandidates(context.Background(), "token")

	require.NoError(t, err)
	require.Len(t, candidates.AdAccounts, 1)
	assert.Equal(t, "500", candidates.AdAccounts[0].ID)
	assert.Equal(t, "Website", candidates.AdAccounts[0].Name)
	assert.Equal(t, "Main Org", candidates.AdAccounts[0].Attributes["account"])
}
