package linking

import (
	"context"
	"time"

	"github.com/bizgrow/backend/internal/domain/billing"
	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
	"github.com/stretchr/testify/mock"
)

// MockIntegrationRepository is a mock implementation of IntegrationRepository
type MockIntegrationRepository struct {
	mock.Mock
}

func (m *MockIntegrationRepository) FindByID(ctx context.Context, id uuid.UUID) (*linking.Integration, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindConnected(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode) (*linking.Integration, error) {
	args := m.Called(ctx, tenantID, platform)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) FindAllForTenant(ctx context.Context, tenantID uuid.UUID) ([]*linking.Integration, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*linking.Integration), args.Error(1)
}

func (m *MockIntegrationRepository) CreateLinked(ctx context.Context, integ *linking.Integration, accounts []*linking.SubAccount) error {
	args := m.Called(ctx, integ, accounts)
	return args.Error(0)
}

func (m *MockIntegrationRepository) DeleteLinked(ctx context.Context, integ *linking.Integration) error {
	args := m.Called(ctx, integ)
	return args.Error(0)
}

func (m *MockIntegrationRepository) UpdateLastSync(ctx context.Context, id uuid.UUID, at time.Time) error {
	args := m.Called(ctx, id, at)
	return args.Error(0)
}

// MockSubAccountRepository is a mock implementation of SubAccountRepository
type MockSubAccountRepository struct {
	mock.Mock
}

func (m *MockSubAccountRepository) FindByIntegration(ctx context.Context, integrationID uuid.UUID) ([]*linking.SubAccount, error) {
	args := m.Called(ctx, integrationID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*linking.SubAccount), args.Error(1)
}

func (m *MockSubAccountRepository) CountByTenantAndKind(ctx context.Context, tenantID uuid.UUID, kind linking.SubAccountKind) (int64, error) {
	args := m.Called(ctx, tenantID, kind)
	return args.Get(0).(int64), args.Error(1)
}

func (m *MockSubAccountRepository) FindOwnerByExternalID(ctx context.Context, platform linking.PlatformCode, externalID string) (uuid.UUID, error) {
	args := m.Called(ctx, platform, externalID)
	return args.Get(0).(uuid.UUID), args.Error(1)
}

// MockSubscriptionRepository is a mock implementation of billing.SubscriptionRepository
type MockSubscriptionRepository struct {
	mock.Mock
}

func (m *MockSubscriptionRepository) FindCurrentByTenant(ctx context.Context, tenantID uuid.UUID) (*billing.Subscription, error) {
	args := m.Called(ctx, tenantID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Subscription), args.Error(1)
}

func (m *MockSubscriptionRepository) Save(ctx context.Context, sub *billing.Subscription) error {
	args := m.Called(ctx, sub)
	return args.Error(0)
}

// MockPlanRepository is a mock implementation of billing.PlanRepository
type MockPlanRepository struct {
	mock.Mock
}

func (m *MockPlanRepository) FindByCode(ctx context.Context, code string) (*billing.Plan, error) {
	args := m.Called(ctx, code)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*billing.Plan), args.Error(1)
}

// MockProvider is a mock implementation of linking.Provider
type MockProvider struct {
	mock.Mock
	platform linking.PlatformCode
}

func (m *MockProvider) Platform() linking.PlatformCode {
	return m.platform
}

func (m *MockProvider) AuthorizationURL(state, redirectURI string) string {
	args := m.Called(state, redirectURI)
	return args.String(0)
}

func (m *MockProvider) ExchangeCode(ctx context.Context, code, redirectURI string) (*linking.Token, error) {
	args := m.Called(ctx, code, redirectURI)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.Token), args.Error(1)
}

func (m *MockProvider) ExchangeLongLived(ctx context.Context, shortToken string) (*linking.Token, error) {
	args := m.Called(ctx, shortToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.Token), args.Error(1)
}

func (m *MockProvider) ListCandidates(ctx context.Context, accessToken string) (*linking.CandidateAccounts, error) {
	args := m.Called(ctx, accessToken)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.CandidateAccounts), args.Error(1)
}

func (m *MockProvider) AccountDetails(ctx context.Context, accessToken string, kind linking.SubAccountKind, externalID string) (*linking.AccountDetails, error) {
	args := m.Called(ctx, accessToken, kind, externalID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*linking.AccountDetails), args.Error(1)
}

// fakeSessionStore is an in-memory SessionStore for flow tests. Entries do
// not expire on their own; tests delete them explicitly.
type fakeSessionStore struct {
	sessions map[string]*linking.PendingLinkSession
	lastTTL  time.Duration
}

func newFakeSessionStore() *fakeSessionStore {
	return &fakeSessionStore{sessions: make(map[string]*linking.PendingLinkSession)}
}

func (s *fakeSessionStore) Put(ctx context.Context, session *linking.PendingLinkSession, ttl time.Duration) error {
	copied := *session
	s.sessions[session.State] = &copied
	s.lastTTL = ttl
	return nil
}

func (s *fakeSessionStore) Get(ctx context.Context, state string) (*linking.PendingLinkSession, error) {
	session, ok := s.sessions[state]
	if !ok {
		return nil, linking.ErrSessionExpired
	}
	copied := *session
	return &copied, nil
}

func (s *fakeSessionStore) Delete(ctx context.Context, state string) error {
	delete(s.sessions, state)
	return nil
}

// fakeRegistry resolves mock providers by platform.
type fakeRegistry struct {
	providers map[linking.PlatformCode]linking.Provider
}

func newFakeRegistry(providers ...linking.Provider) *fakeRegistry {
	r := &fakeRegistry{providers: make(map[linking.PlatformCode]linking.Provider)}
	for _, p := range providers {
		r.providers[p.Platform()] = p
	}
	return r
}

func (r *fakeRegistry) Get(platform linking.PlatformCode) (linking.Provider, error) {
	p, ok := r.providers[platform]
	if !ok {
		return nil, linking.ErrInvalidPlatform
	}
	return p, nil
}

func (r *fakeRegistry) Platforms() []linking.PlatformCode {
	codes := make([]linking.PlatformCode, 0, len(r.providers))
	for code := range r.providers {
		codes = append(codes, code)
	}
	return codes
}
