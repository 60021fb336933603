package billing

import (
	"time"

	"github.com/bizgrow/backend/internal/domain/shared"
	"github.com/google/uuid"
)

// SubscriptionStatus represents the lifecycle status of a subscription.
type SubscriptionStatus string

const (
	// SubscriptionStatusActive is a paid, current subscription
	SubscriptionStatusActive SubscriptionStatus = "active"
	// SubscriptionStatusTrialing is a subscription inside its trial window
	SubscriptionStatusTrialing SubscriptionStatus = "trialing"
	// SubscriptionStatusPastDue means the latest charge failed
	SubscriptionStatusPastDue SubscriptionStatus = "past_due"
	// SubscriptionStatusCanceled means the tenant ended the subscription
	SubscriptionStatusCanceled SubscriptionStatus = "canceled"
)

// IsValid returns true if the status is known.
func (s SubscriptionStatus) IsValid() bool {
	switch s {
	case SubscriptionStatusActive, SubscriptionStatusTrialing,
		SubscriptionStatusPastDue, SubscriptionStatusCanceled:
		return true
	default:
		return false
	}
}

// Subscription binds a tenant to a plan for a period. Quota checks read the
// tenant's single current subscription; historical rows stay for audit.
type Subscription struct {
	shared.TenantAggregateRoot
	PlanCode    string
	Status      SubscriptionStatus
	EndsAt      *time.Time
	TrialEndsAt *time.Time

	// AbuseExempt lets agency tenants relink accounts already claimed by
	// another workspace. Set manually by operations, never self-service.
	AbuseExempt bool
}

// NewSubscription creates an active subscription on the given plan.
func NewSubscription(tenantID uuid.UUID, planCode string, endsAt *time.Time) (*Subscription, error) {
	if tenantID == uuid.Nil {
		return nil, shared.NewDomainError("INVALID_TENANT", "Tenant ID cannot be empty")
	}
	if planCode == "" {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan code cannot be empty")
	}
	return &Subscription{
		TenantAggregateRoot: shared.NewTenantAggregateRoot(tenantID),
		PlanCode:            planCode,
		Status:              SubscriptionStatusActive,
		EndsAt:              endsAt,
	}, nil
}

// NewTrialSubscription creates a trialing subscription that ends at trialEndsAt.
func NewTrialSubscription(tenantID uuid.UUID, planCode string, trialEndsAt time.Time) (*Subscription, error) {
	sub, err := NewSubscription(tenantID, planCode, nil)
	if err != nil {
		return nil, err
	}
	sub.Status = SubscriptionStatusTrialing
	sub.TrialEndsAt = &trialEndsAt
	return sub, nil
}

// IsActiveAt reports whether the subscription entitles the tenant at the
// given instant. Anything other than a current active or trialing
// subscription fails closed.
func (s *Subscription) IsActiveAt(now time.Time) bool {
	switch s.Status {
	case SubscriptionStatusActive:
		return s.EndsAt == nil || s.EndsAt.After(now)
	case SubscriptionStatusTrialing:
		return s.TrialEndsAt != nil && s.TrialEndsAt.After(now)
	default:
		return false
	}
}

// IsActive reports entitlement as of now.
func (s *Subscription) IsActive() bool {
	return s.IsActiveAt(time.Now())
}
