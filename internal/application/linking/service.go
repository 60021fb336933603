package linking

import (
	"context"
	"errors"
	"time"

	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
)

// DefaultTokenExpiresIn is assumed when the provider omits the token
// lifetime. Matches Meta's 60-day long-lived token.
const DefaultTokenExpiresIn int64 = 5184000

// LinkService orchestrates the external account linking flow: initiating
// the OAuth redirect, handling the provider callback, listing candidate
// accounts and persisting the final selection.
type LinkService struct {
	integrationRepo linking.IntegrationRepository
	subAccountRepo  linking.SubAccountRepository
	sessions        linking.SessionStore
	providers       linking.ProviderRegistry
	guard           *GuardService

	redirectURI    string
	sessionTTL     time.Duration
	lookbackMonths int
}

// NewLinkService creates a new LinkService
func NewLinkService(
	integrationRepo linking.IntegrationRepository,
	subAccountRepo linking.SubAccountRepository,
	sessions linking.SessionStore,
	providers linking.ProviderRegistry,
	guard *GuardService,
	redirectURI string,
	sessionTTL time.Duration,
	lookbackMonths int,
) *LinkService {
	if sessionTTL <= 0 {
		sessionTTL = linking.DefaultSessionTTL
	}
	return &LinkService{
		integrationRepo: integrationRepo,
		subAccountRepo:  subAccountRepo,
		sessions:        sessions,
		providers:       providers,
		guard:           guard,
		redirectURI:     redirectURI,
		sessionTTL:      sessionTTL,
		lookbackMonths:  lookbackMonths,
	}
}

// ---------------------------------------------------------------------------
// Flow Operations
// ---------------------------------------------------------------------------

// Initiate starts a linking flow for the tenant and platform. It runs the
// subscription and already-linked guards up front so the user is not sent
// through the provider dialog only to be rejected afterwards, then stores a
// pending session and returns the provider's authorization URL.
func (s *LinkService) Initiate(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) (*InitiateResult, error) {
	provider, err := s.providers.Get(platform)
	if err != nil {
		return nil, err
	}

	existing, err := s.integrationRepo.FindConnected(ctx, tenantID, platform)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, linking.ErrAlreadyLinked
	}

	if err := s.guard.CheckQuota(ctx, tenantID, primaryQuotaKind(platform), 1); err != nil {
		return nil, err
	}

	session, err := linking.NewPendingLinkSession(tenantID, platform)
	if err != nil {
		return nil, err
	}
	if err := s.sessions.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}

	return &InitiateResult{
		AuthorizationURL: provider.AuthorizationURL(session.State, s.redirectURI),
		State:            session.State,
		ExpiresAt:        time.Now().Add(s.sessionTTL).UTC().Format(time.RFC3339),
	}, nil
}

// HandleCallback consumes the provider redirect: it validates the state
// against the pending session, exchanges the authorization code for a
// short-lived token and advances the session to the selection phase with a
// fresh TTL.
func (s *LinkService) HandleCallback(ctx context.Context, params CallbackParams) (*CallbackResult, error) {
	session, err := s.sessions.Get(ctx, params.State)
	if err != nil {
		if errors.Is(err, linking.ErrSessionExpired) {
			// On this unauthenticated path an unknown, expired, or
			// already-consumed state is indistinguishable from a forged one.
			return nil, linking.ErrStateMismatch
		}
		return nil, err
	}

	// The store lookup is keyed by state, but the constant-time comparison
	// still runs so an empty or truncated state can never pass.
	if !session.MatchesState(params.State) {
		_ = s.sessions.Delete(ctx, params.State)
		return nil, linking.ErrStateMismatch
	}

	if params.Error != "" {
		// User denied the dialog or the provider aborted. The session is
		// burned; a retry starts from Initiate.
		_ = s.sessions.Delete(ctx, params.State)
		return nil, linking.ErrProviderDenied
	}
	if params.Code == "" {
		_ = s.sessions.Delete(ctx, params.State)
		return nil, linking.ErrProviderDenied
	}

	provider, err := s.providers.Get(session.Platform)
	if err != nil {
		return nil, err
	}

	token, err := provider.ExchangeCode(ctx, params.Code, s.redirectURI)
	if err != nil {
		_ = s.sessions.Delete(ctx, params.State)
		// The provider's rejection reason travels with the error so the
		// client and the request log can tell an expired code from a
		// misconfigured app.
		return nil, linking.ErrTokenExchangeFailed.WithDetail(err.Error())
	}

	session.MarkReady(token.AccessToken, token.ExpiresIn)
	if err := s.sessions.Put(ctx, session, s.sessionTTL); err != nil {
		return nil, err
	}

	return &CallbackResult{Platform: session.Platform, State: session.State}, nil
}

// ListCandidates enumerates the accounts reachable with the session's
// short-lived token. Read-only; the session stays untouched so the user can
// refresh the list.
func (s *LinkService) ListCandidates(ctx context.Context, tenantID uuid.UUID, state string) (*linking.CandidateAccounts, error) {
	session, err := s.readySession(ctx, tenantID, state)
	if err != nil {
		return nil, err
	}

	provider, err := s.providers.Get(session.Platform)
	if err != nil {
		return nil, err
	}
	return provider.ListCandidates(ctx, session.AccessToken)
}

// SaveSelection turns the user's candidate selection into a persisted
// Integration with its sub-accounts. Guards are re-checked authoritatively
// here; the integration row, its sub-account rows and the connected/sync
// events are written in one transaction.
func (s *LinkService) SaveSelection(ctx context.Context, tenantID uuid.UUID, req SelectionRequest) (*IntegrationResponse, error) {
	session, err := s.readySession(ctx, tenantID, req.State)
	if err != nil {
		return nil, err
	}
	if req.Empty() {
		return nil, linking.ErrNothingSelected
	}

	existing, err := s.integrationRepo.FindConnected(ctx, tenantID, session.Platform)
	if err != nil {
		return nil, err
	}
	if existing != nil {
		return nil, linking.ErrAlreadyLinked
	}

	selections := req.selections()
	for _, sel := range selections {
		if err := s.guard.CheckQuota(ctx, tenantID, sel.Kind, 1); err != nil {
			return nil, err
		}
		if err := s.guard.CheckAccountUniqueness(ctx, tenantID, session.Platform, sel.ExternalID); err != nil {
			return nil, err
		}
	}

	provider, err := s.providers.Get(session.Platform)
	if err != nil {
		return nil, err
	}

	cred, expiresIn := s.finalCredential(ctx, provider, session)

	integ, err := linking.NewIntegration(tenantID, session.Platform, cred, expiresIn)
	if err != nil {
		return nil, err
	}

	// One row per selected kind, each the primary of its kind.
	var accounts []*linking.SubAccount
	for _, sel := range selections {
		sa, err := linking.NewSubAccount(integ, sel.Kind, sel.ExternalID, sel.ExternalID)
		if err != nil {
			return nil, err
		}
		details, err := provider.AccountDetails(ctx, session.AccessToken, sel.Kind, sel.ExternalID)
		if err != nil {
			return nil, err
		}
		sa.ApplyDetails(*details)
		accounts = append(accounts, sa)
	}

	integ.AddDomainEvent(linking.NewIntegrationConnected(integ, len(accounts)))
	integ.AddDomainEvent(linking.NewSyncRequested(integ, s.lookbackMonths))

	if err := s.integrationRepo.CreateLinked(ctx, integ, accounts); err != nil {
		return nil, err
	}

	// The flow is complete; the session has no further use.
	_ = s.sessions.Delete(ctx, req.State)

	return ToIntegrationResponse(integ, accounts), nil
}

// Disconnect severs the tenant's connected integration for the platform,
// removing its sub-account rows in the same transaction.
func (s *LinkService) Disconnect(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) error {
	if !platform.IsValid() {
		return linking.ErrInvalidPlatform
	}
	integ, err := s.integrationRepo.FindConnected(ctx, tenantID, platform)
	if err != nil {
		return err
	}
	if integ == nil {
		return linking.ErrNotConnected
	}

	integ.Disconnect()
	return s.integrationRepo.DeleteLinked(ctx, integ)
}

// CheckExisting reports whether the tenant already holds a connected
// integration for the platform, with its linked accounts when it does.
// Clients call this before Initiate to offer a disconnect-first prompt.
func (s *LinkService) CheckExisting(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) (*ConnectionCheck, error) {
	if !platform.IsValid() {
		return nil, linking.ErrInvalidPlatform
	}
	integ, err := s.integrationRepo.FindConnected(ctx, tenantID, platform)
	if err != nil {
		return nil, err
	}
	if integ == nil {
		return &ConnectionCheck{Platform: platform}, nil
	}
	accounts, err := s.subAccountRepo.FindByIntegration(ctx, integ.GetID())
	if err != nil {
		return nil, err
	}
	return &ConnectionCheck{
		Platform:      platform,
		HasConnection: true,
		Integration:   ToIntegrationResponse(integ, accounts),
	}, nil
}

// Status reports every registered platform with its connection state for
// the tenant.
func (s *LinkService) Status(ctx context.Context, tenantID uuid.UUID) ([]PlatformStatus, error) {
	integrations, err := s.integrationRepo.FindAllForTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}

	connected := make(map[linking.PlatformCode]*linking.Integration)
	for _, integ := range integrations {
		if integ.IsConnected() {
			connected[integ.Platform] = integ
		}
	}

	statuses := make([]PlatformStatus, 0, len(s.providers.Platforms()))
	for _, platform := range s.providers.Platforms() {
		status := PlatformStatus{
			Platform:    platform,
			DisplayName: platform.DisplayName(),
		}
		if integ, ok := connected[platform]; ok {
			accounts, err := s.subAccountRepo.FindByIntegration(ctx, integ.GetID())
			if err != nil {
				return nil, err
			}
			status.Connected = true
			status.Integration = ToIntegrationResponse(integ, accounts)
		}
		statuses = append(statuses, status)
	}
	return statuses, nil
}

// CredentialFor returns the stored credential of the tenant's connected
// integration. Internal use only (sync workers); never exposed over HTTP.
func (s *LinkService) CredentialFor(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) (linking.Credential, error) {
	integ, err := s.integrationRepo.FindConnected(ctx, tenantID, platform)
	if err != nil {
		return linking.Credential{}, err
	}
	if integ == nil {
		return linking.Credential{}, linking.ErrNotConnected
	}
	return integ.Credential, nil
}

// ---------------------------------------------------------------------------
// Helpers
// ---------------------------------------------------------------------------

// readySession loads the session for the state token and verifies it
// belongs to the caller's tenant and has passed the callback step.
func (s *LinkService) readySession(ctx context.Context, tenantID uuid.UUID, state string) (*linking.PendingLinkSession, error) {
	session, err := s.sessions.Get(ctx, state)
	if err != nil {
		return nil, err
	}
	if session.TenantID != tenantID {
		// A state token from another tenant's flow is treated as forged.
		return nil, linking.ErrStateMismatch
	}
	if !session.ReadyForSelection() {
		return nil, linking.ErrSessionExpired
	}
	return session, nil
}

// finalCredential upgrades the session's short-lived token to a long-lived
// one when the provider supports the exchange, falling back to the
// short-lived token otherwise.
func (s *LinkService) finalCredential(ctx context.Context, provider linking.Provider, session *linking.PendingLinkSession) (linking.Credential, int64) {
	accessToken := session.AccessToken
	refreshToken := ""
	tokenType := "bearer"
	expiresIn := session.ExpiresIn

	// Best-effort upgrade: an unsupported or failed exchange keeps the
	// short-lived token rather than failing the whole selection.
	if long, err := provider.ExchangeLongLived(ctx, session.AccessToken); err == nil {
		accessToken = long.AccessToken
		refreshToken = long.RefreshToken
		if long.TokenType != "" {
			tokenType = long.TokenType
		}
		expiresIn = long.ExpiresIn
	}

	if expiresIn <= 0 {
		expiresIn = DefaultTokenExpiresIn
	}
	return linking.Credential{
		AccessToken:  accessToken,
		RefreshToken: refreshToken,
		TokenType:    tokenType,
	}, expiresIn
}

// primaryQuotaKind picks the sub-account kind used for the advisory quota
// check at initiation, before the user has selected anything concrete.
func primaryQuotaKind(platform linking.PlatformCode) linking.SubAccountKind {
	switch platform {
	case linking.PlatformMetaAds:
		return linking.SubAccountKindSocial
	default:
		return linking.SubAccountKindAd
	}
}
