package linking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/bizgrow/backend/internal/domain/billing"
	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

const testRedirectURI = "https://app.example.com/api/v1/integrations/social/callback"

type linkServiceFixture struct {
	service      *LinkService
	integrations *MockIntegrationRepository
	subAccounts  *MockSubAccountRepository
	sessions     *fakeSessionStore
	provider     *MockProvider
	subs         *MockSubscriptionRepository
	plans        *MockPlanRepository
}

func newLinkServiceFixture(t *testing.T, platform linking.PlatformCode) *linkServiceFixture {
	t.Helper()
	integrations := new(MockIntegrationRepository)
	subAccounts := new(MockSubAccountRepository)
	subs := new(MockSubscriptionRepository)
	plans := new(MockPlanRepository)
	sessions := newFakeSessionStore()
	provider := &MockProvider{platform: platform}

	guard := NewGuardService(subs, plans, subAccounts)
	service := NewLinkService(
		integrations, subAccounts, sessions, newFakeRegistry(provider), guard,
		testRedirectURI, 10*time.Minute, 6,
	)
	return &linkServiceFixture{
		service:      service,
		integrations: integrations,
		subAccounts:  subAccounts,
		sessions:     sessions,
		provider:     provider,
		subs:         subs,
		plans:        plans,
	}
}

// seedReadySession puts a session that already passed the callback step.
func (f *linkServiceFixture) seedReadySession(t *testing.T, tenantID uuid.UUID, platform linking.PlatformCode, token string, expiresIn int64) *linking.PendingLinkSession {
	t.Helper()
	session, err := linking.NewPendingLinkSession(tenantID, platform)
	require.NoError(t, err)
	session.MarkReady(token, expiresIn)
	require.NoError(t, f.sessions.Put(context.Background(), session, 10*time.Minute))
	return session
}

func (f *linkServiceFixture) allowQuota(tenantID uuid.UUID) {
	f.subs.On("FindCurrentByTenant", mock.Anything, tenantID).Return(activeSubscriptionForFixture(tenantID), nil)
	f.plans.On("FindByCode", mock.Anything, "growth").Return(growthPlan(), nil)
	f.subAccounts.On("CountByTenantAndKind", mock.Anything, tenantID, mock.Anything).Return(int64(0), nil)
}

func TestLinkService_Initiate(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("issues authorization URL and stores session", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)
		f.allowQuota(tenantID)
		f.provider.On("AuthorizationURL", mock.AnythingOfType("string"), testRedirectURI).
			Return("https://www.facebook.com/v21.0/dialog/oauth?state=whatever")

		result, err := f.service.Initiate(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.NotEmpty(t, result.State)
		assert.Contains(t, result.AuthorizationURL, "dialog/oauth")

		session, err := f.sessions.Get(ctx, result.State)
		require.NoError(t, err)
		assert.Equal(t, tenantID, session.TenantID)
		assert.Equal(t, linking.PlatformMetaAds, session.Platform)
		assert.Equal(t, linking.PhaseAwaitingCallback, session.Phase)
		assert.Equal(t, 10*time.Minute, f.sessions.lastTTL)
	})

	t.Run("rejects when platform already connected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		existing := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(existing, nil)

		_, err := f.service.Initiate(ctx, tenantID, linking.PlatformMetaAds)
		assert.ErrorIs(t, err, linking.ErrAlreadyLinked)
		assert.Empty(t, f.sessions.sessions)
	})

	t.Run("rejects without active subscription", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)
		f.subs.On("FindCurrentByTenant", ctx, tenantID).Return(nil, nil)

		_, err := f.service.Initiate(ctx, tenantID, linking.PlatformMetaAds)
		assert.ErrorIs(t, err, linking.ErrNoActiveSubscription)
	})

	t.Run("rejects unknown platform", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)

		_, err := f.service.Initiate(ctx, tenantID, linking.PlatformCode("myspace_ads"))
		assert.ErrorIs(t, err, linking.ErrInvalidPlatform)
	})
}

func TestLinkService_HandleCallback(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("exchanges code and advances the session", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))

		f.provider.On("ExchangeCode", ctx, "xyz", testRedirectURI).
			Return(&linking.Token{AccessToken: "AT1", TokenType: "bearer", ExpiresIn: 5184000}, nil)

		result, err := f.service.HandleCallback(ctx, CallbackParams{State: session.State, Code: "xyz"})
		require.NoError(t, err)
		assert.Equal(t, linking.PlatformMetaAds, result.Platform)
		assert.Equal(t, session.State, result.State)

		stored, err := f.sessions.Get(ctx, session.State)
		require.NoError(t, err)
		assert.True(t, stored.ReadyForSelection())
		assert.Equal(t, "AT1", stored.AccessToken)
		assert.Equal(t, int64(5184000), stored.ExpiresIn)
	})

	t.Run("unknown state is treated as forged", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)

		_, err := f.service.HandleCallback(ctx, CallbackParams{State: "deadbeef", Code: "xyz"})
		assert.ErrorIs(t, err, linking.ErrStateMismatch)
	})

	t.Run("consumed state is treated as forged", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))
		require.NoError(t, f.sessions.Delete(ctx, session.State))

		_, err = f.service.HandleCallback(ctx, CallbackParams{State: session.State, Code: "xyz"})
		assert.ErrorIs(t, err, linking.ErrStateMismatch)
	})

	t.Run("provider error burns the session", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))

		_, err = f.service.HandleCallback(ctx, CallbackParams{
			State: session.State,
			Error: "access_denied",
		})
		assert.ErrorIs(t, err, linking.ErrProviderDenied)

		_, err = f.sessions.Get(ctx, session.State)
		assert.ErrorIs(t, err, linking.ErrSessionExpired)
	})

	t.Run("missing code is a provider denial", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))

		_, err = f.service.HandleCallback(ctx, CallbackParams{State: session.State})
		assert.ErrorIs(t, err, linking.ErrProviderDenied)
	})

	t.Run("failed exchange burns the session", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))

		f.provider.On("ExchangeCode", ctx, "bad", testRedirectURI).
			Return(nil, errors.New("invalid_grant: code already used"))

		_, err = f.service.HandleCallback(ctx, CallbackParams{State: session.State, Code: "bad"})
		assert.ErrorIs(t, err, linking.ErrTokenExchangeFailed)
		// The provider's rejection reason rides along for diagnostics.
		assert.Contains(t, err.Error(), "invalid_grant: code already used")

		_, err = f.sessions.Get(ctx, session.State)
		assert.ErrorIs(t, err, linking.ErrSessionExpired)
	})
}

func TestLinkService_ListCandidates(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("returns provider candidates for a ready session", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		f.provider.On("ListCandidates", ctx, "AT1").Return(&linking.CandidateAccounts{
			AdAccounts: []linking.Candidate{{ID: "act_111", Name: "Main"}},
		}, nil)

		candidates, err := f.service.ListCandidates(ctx, tenantID, session.State)
		require.NoError(t, err)
		require.Len(t, candidates.AdAccounts, 1)
		assert.Equal(t, "act_111", candidates.AdAccounts[0].ID)
	})

	t.Run("rejects a session still awaiting callback", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session, err := linking.NewPendingLinkSession(tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		require.NoError(t, f.sessions.Put(ctx, session, 10*time.Minute))

		_, err = f.service.ListCandidates(ctx, tenantID, session.State)
		assert.ErrorIs(t, err, linking.ErrSessionExpired)
	})

	t.Run("rejects another tenant's state token", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		_, err := f.service.ListCandidates(ctx, uuid.New(), session.State)
		assert.ErrorIs(t, err, linking.ErrStateMismatch)
	})
}

func TestLinkService_SaveSelection(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("persists integration, accounts and events atomically", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)
		f.allowQuota(tenantID)
		f.subAccounts.On("FindOwnerByExternalID", ctx, linking.PlatformMetaAds, "act_111").Return(uuid.Nil, nil)
		f.subAccounts.On("FindOwnerByExternalID", ctx, linking.PlatformMetaAds, "17841400000000000").Return(uuid.Nil, nil)

		f.provider.On("ExchangeLongLived", ctx, "AT1").
			Return(&linking.Token{AccessToken: "LLT1", TokenType: "bearer", ExpiresIn: 5184000}, nil)
		f.provider.On("AccountDetails", ctx, "AT1", linking.SubAccountKindAd, "act_111").
			Return(&linking.AccountDetails{
				ExternalID: "act_111",
				Name:       "Main Ad Account",
				Currency:   "USD",
				Timezone:   "America/New_York",
				SpendCap:   decimal.RequireFromString("1500.50"),
			}, nil)
		f.provider.On("AccountDetails", ctx, "AT1", linking.SubAccountKindSocial, "17841400000000000").
			Return(&linking.AccountDetails{
				ExternalID:     "17841400000000000",
				Name:           "Acme Coffee",
				Username:       "acmecoffee",
				FollowersCount: 12400,
			}, nil)

		var savedInteg *linking.Integration
		var savedAccounts []*linking.SubAccount
		f.integrations.On("CreateLinked", ctx, mock.AnythingOfType("*linking.Integration"), mock.Anything).
			Run(func(args mock.Arguments) {
				savedInteg = args.Get(1).(*linking.Integration)
				savedAccounts = args.Get(2).([]*linking.SubAccount)
			}).Return(nil)

		resp, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{
			State:           session.State,
			AdAccountID:     "act_111",
			SocialAccountID: "17841400000000000",
		})
		require.NoError(t, err)

		require.NotNil(t, savedInteg)
		assert.Equal(t, tenantID, savedInteg.TenantID)
		assert.Equal(t, "LLT1", savedInteg.Credential.AccessToken)
		assert.Equal(t, linking.IntegrationStatusConnected, savedInteg.Status)

		require.Len(t, savedAccounts, 2)
		assert.Equal(t, linking.SubAccountKindAd, savedAccounts[0].Kind)
		assert.Equal(t, "Main Ad Account", savedAccounts[0].Name)
		assert.Equal(t, "USD", savedAccounts[0].Currency)
		assert.Equal(t, linking.SubAccountKindSocial, savedAccounts[1].Kind)
		assert.Equal(t, "acmecoffee", savedAccounts[1].Username)
		assert.Equal(t, 12400, savedAccounts[1].FollowersCount)

		// Exactly one row per selected kind, each the primary of its kind.
		primaries := map[linking.SubAccountKind]int{}
		for _, sa := range savedAccounts {
			assert.True(t, sa.IsPrimary)
			primaries[sa.Kind]++
		}
		for kind, count := range primaries {
			assert.Equal(t, 1, count, "kind %s", kind)
		}

		events := savedInteg.GetDomainEvents()
		require.Len(t, events, 2)
		assert.Equal(t, linking.EventTypeIntegrationConnected, events[0].EventType())
		assert.Equal(t, linking.EventTypeSyncRequested, events[1].EventType())
		syncEvent := events[1].(*linking.SyncRequested)
		assert.Equal(t, 6, syncEvent.LookbackMonths)
		assert.Equal(t, savedInteg.GetID(), syncEvent.IntegrationID)

		require.Len(t, resp.SubAccounts, 2)
		assert.Equal(t, "connected", resp.Status)

		// The session is consumed on success.
		_, err = f.sessions.Get(ctx, session.State)
		assert.ErrorIs(t, err, linking.ErrSessionExpired)
	})

	t.Run("falls back to the short-lived token", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformGoogleAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformGoogleAds, "ya29.short", 3599)

		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformGoogleAds).Return(nil, nil)
		f.allowQuota(tenantID)
		f.subAccounts.On("FindOwnerByExternalID", ctx, linking.PlatformGoogleAds, "1234567890").Return(uuid.Nil, nil)
		f.provider.On("ExchangeLongLived", ctx, "ya29.short").Return(nil, linking.ErrUnsupported)
		f.provider.On("AccountDetails", ctx, "ya29.short", linking.SubAccountKindAd, "1234567890").
			Return(&linking.AccountDetails{ExternalID: "1234567890", Name: "1234567890"}, nil)

		var savedInteg *linking.Integration
		f.integrations.On("CreateLinked", ctx, mock.Anything, mock.Anything).
			Run(func(args mock.Arguments) {
				savedInteg = args.Get(1).(*linking.Integration)
			}).Return(nil)

		_, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{
			State:       session.State,
			AdAccountID: "1234567890",
		})
		require.NoError(t, err)
		assert.Equal(t, "ya29.short", savedInteg.Credential.AccessToken)
	})

	t.Run("empty selection is rejected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		_, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{State: session.State})
		assert.ErrorIs(t, err, linking.ErrNothingSelected)
	})

	t.Run("already linked rechecked before write", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)
		existing := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(existing, nil)

		_, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{
			State:       session.State,
			AdAccountID: "act_111",
		})
		assert.ErrorIs(t, err, linking.ErrAlreadyLinked)
	})

	t.Run("account held by another tenant is rejected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)
		f.allowQuota(tenantID)
		f.subAccounts.On("FindOwnerByExternalID", ctx, linking.PlatformMetaAds, "act_111").Return(uuid.New(), nil)

		_, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{
			State:       session.State,
			AdAccountID: "act_111",
		})
		assert.ErrorIs(t, err, linking.ErrAccountAbuse)
		f.integrations.AssertNotCalled(t, "CreateLinked", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("concurrent loser surfaces the repository conflict", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		session := f.seedReadySession(t, tenantID, linking.PlatformMetaAds, "AT1", 5184000)

		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)
		f.allowQuota(tenantID)
		f.subAccounts.On("FindOwnerByExternalID", ctx, linking.PlatformMetaAds, "act_111").Return(uuid.Nil, nil)
		f.provider.On("ExchangeLongLived", ctx, "AT1").Return(nil, linking.ErrUnsupported)
		f.provider.On("AccountDetails", ctx, "AT1", linking.SubAccountKindAd, "act_111").
			Return(&linking.AccountDetails{ExternalID: "act_111"}, nil)
		f.integrations.On("CreateLinked", ctx, mock.Anything, mock.Anything).Return(linking.ErrAlreadyLinked)

		_, err := f.service.SaveSelection(ctx, tenantID, SelectionRequest{
			State:       session.State,
			AdAccountID: "act_111",
		})
		assert.ErrorIs(t, err, linking.ErrAlreadyLinked)

		// The session survives so the user can retry or back out cleanly.
		_, err = f.sessions.Get(ctx, session.State)
		assert.NoError(t, err)
	})
}

func TestLinkService_Disconnect(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("severs the connected integration", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		integ := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(integ, nil)

		var deleted *linking.Integration
		f.integrations.On("DeleteLinked", ctx, mock.Anything).
			Run(func(args mock.Arguments) {
				deleted = args.Get(1).(*linking.Integration)
			}).Return(nil)

		err := f.service.Disconnect(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)

		require.NotNil(t, deleted)
		assert.Equal(t, linking.IntegrationStatusDisconnected, deleted.Status)
		events := deleted.GetDomainEvents()
		require.Len(t, events, 1)
		assert.Equal(t, linking.EventTypeIntegrationDisconnected, events[0].EventType())
	})

	t.Run("nothing connected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)

		err := f.service.Disconnect(ctx, tenantID, linking.PlatformMetaAds)
		assert.ErrorIs(t, err, linking.ErrNotConnected)
	})

	t.Run("invalid platform", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)

		err := f.service.Disconnect(ctx, tenantID, linking.PlatformCode("friendster"))
		assert.ErrorIs(t, err, linking.ErrInvalidPlatform)
	})
}

func TestLinkService_Status(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	f := newLinkServiceFixture(t, linking.PlatformMetaAds)
	integ := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
	f.integrations.On("FindAllForTenant", ctx, tenantID).Return([]*linking.Integration{integ}, nil)

	sa, err := linking.NewSubAccount(integ, linking.SubAccountKindAd, "act_111", "Main")
	require.NoError(t, err)
	f.subAccounts.On("FindByIntegration", ctx, integ.GetID()).Return([]*linking.SubAccount{sa}, nil)

	statuses, err := f.service.Status(ctx, tenantID)
	require.NoError(t, err)
	require.Len(t, statuses, 1)
	assert.Equal(t, linking.PlatformMetaAds, statuses[0].Platform)
	assert.True(t, statuses[0].Connected)
	require.NotNil(t, statuses[0].Integration)
	require.Len(t, statuses[0].Integration.SubAccounts, 1)
	assert.Equal(t, "act_111", statuses[0].Integration.SubAccounts[0].ExternalID)
}

func TestLinkService_CheckExisting(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("reports the existing connection", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		integ := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(integ, nil)

		sa, err := linking.NewSubAccount(integ, linking.SubAccountKindAd, "act_111", "Main")
		require.NoError(t, err)
		f.subAccounts.On("FindByIntegration", ctx, integ.GetID()).Return([]*linking.SubAccount{sa}, nil)

		check, err := f.service.CheckExisting(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.True(t, check.HasConnection)
		require.NotNil(t, check.Integration)
		require.Len(t, check.Integration.SubAccounts, 1)
		assert.Equal(t, "act_111", check.Integration.SubAccounts[0].ExternalID)
	})

	t.Run("nothing connected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)

		check, err := f.service.CheckExisting(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.False(t, check.HasConnection)
		assert.Nil(t, check.Integration)
	})

	t.Run("invalid platform", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)

		_, err := f.service.CheckExisting(ctx, tenantID, linking.PlatformCode("friendster"))
		assert.ErrorIs(t, err, linking.ErrInvalidPlatform)
	})
}

func TestLinkService_CredentialFor(t *testing.T) {
	ctx := context.Background()
	tenantID := uuid.New()

	t.Run("returns the stored credential", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		integ := connectedIntegration(t, tenantID, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(integ, nil)

		cred, err := f.service.CredentialFor(ctx, tenantID, linking.PlatformMetaAds)
		require.NoError(t, err)
		assert.Equal(t, integ.Credential.AccessToken, cred.AccessToken)
	})

	t.Run("not connected", func(t *testing.T) {
		f := newLinkServiceFixture(t, linking.PlatformMetaAds)
		f.integrations.On("FindConnected", ctx, tenantID, linking.PlatformMetaAds).Return(nil, nil)

		_, err := f.service.CredentialFor(ctx, tenantID, linking.PlatformMetaAds)
		assert.ErrorIs(t, err, linking.ErrNotConnected)
	})
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

func connectedIntegration(t *testing.T, tenantID uuid.UUID, platform linking.PlatformCode) *linking.Integration {
	t.Helper()
	integ, err := linking.NewIntegration(tenantID, platform, linking.Credential{
		AccessToken: "stored-token",
		TokenType:   "bearer",
	}, 5184000)
	require.NoError(t, err)
	return integ
}

func activeSubscriptionForFixture(tenantID uuid.UUID) *billing.Subscription {
	sub, err := billing.NewSubscription(tenantID, "growth", nil)
	if err != nil {
		panic(err)
	}
	return sub
}

func growthPlan() *billing.Plan {
	plan, err := billing.NewPlan("growth", "Growth", map[string]int64{
		string(linking.ResourceAdAccounts):     5,
		string(linking.ResourceSocialAccounts): 5,
		string(linking.ResourcePages):          5,
	})
	if err != nil {
		panic(err)
	}
	return plan
}
