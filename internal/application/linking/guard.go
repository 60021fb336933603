package linking

import (
	"context"

	"github.com/bizgrow/backend/internal/domain/billing"
	"github.com/bizgrow/backend/internal/domain/linking"
	"github.com/google/uuid"
)

// GuardService evaluates the subscription and abuse guards that gate the
// linking flow. Both checks read live state; the authoritative enforcement
// happens again inside the selection transaction.
type GuardService struct {
	subscriptionRepo billing.SubscriptionRepository
	planRepo         billing.PlanRepository
	subAccountRepo   linking.SubAccountRepository
}

// NewGuardService creates a new GuardService
func NewGuardService(
	subscriptionRepo billing.SubscriptionRepository,
	planRepo billing.PlanRepository,
	subAccountRepo linking.SubAccountRepository,
) *GuardService {
	return &GuardService{
		subscriptionRepo: subscriptionRepo,
		planRepo:         planRepo,
		subAccountRepo:   subAccountRepo,
	}
}

// CheckQuota verifies the tenant holds an active subscription whose plan
// still has headroom for `requested` more sub-accounts of the given kind.
// Fails closed: no subscription, an inactive one, or an unknown plan all
// deny the link.
func (s *GuardService) CheckQuota(ctx context.Context, tenantID uuid.UUID, kind linking.SubAccountKind, requested int64) error {
	sub, err := s.currentSubscription(ctx, tenantID)
	if err != nil {
		return err
	}

	plan, err := s.planRepo.FindByCode(ctx, sub.PlanCode)
	if err != nil {
		return err
	}
	if plan == nil {
		return linking.ErrNoActiveSubscription
	}

	limit, ok := plan.LimitFor(string(kind.ResourceKind()))
	if !ok {
		// Plan does not cover this resource at all.
		return linking.ErrQuotaExceeded
	}
	if limit == billing.UnlimitedLimit {
		return nil
	}

	used, err := s.subAccountRepo.CountByTenantAndKind(ctx, tenantID, kind)
	if err != nil {
		return err
	}
	if used+requested > limit {
		return linking.ErrQuotaExceeded
	}
	return nil
}

// CheckAccountUniqueness rejects linking an external account that another
// tenant already holds, unless this tenant's subscription carries an abuse
// exemption. The same tenant re-claiming its own account is allowed.
func (s *GuardService) CheckAccountUniqueness(ctx context.Context, tenantID uuid.UUID, platform linking.PlatformCode, externalID string) error {
	owner, err := s.subAccountRepo.FindOwnerByExternalID(ctx, platform, externalID)
	if err != nil {
		return err
	}
	if owner == uuid.Nil || owner == tenantID {
		return nil
	}

	sub, err := s.currentSubscription(ctx, tenantID)
	if err != nil {
		return err
	}
	if sub.AbuseExempt {
		return nil
	}
	return linking.ErrAccountAbuse
}

func (s *GuardService) currentSubscription(ctx context.Context, tenantID uuid.UUID) (*billing.Subscription, error) {
	sub, err := s.subscriptionRepo.FindCurrentByTenant(ctx, tenantID)
	if err != nil {
		return nil, err
	}
	if sub == nil || !sub.IsActive() {
		return nil, linking.ErrNoActiveSubscription
	}
	return sub, nil
}
