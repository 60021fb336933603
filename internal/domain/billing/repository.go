package billing

import (
	"context"

	"github.com/google/uuid"
)

// PlanRepository reads subscription plans.
type PlanRepository interface {
	// FindByCode returns the plan, or nil when unknown
	FindByCode(ctx context.Context, code string) (*Plan, error)
}

// SubscriptionRepository reads tenant subscriptions.
type SubscriptionRepository interface {
	// FindCurrentByTenant returns the tenant's most recent subscription of
	// any status, or nil when the tenant never subscribed
	FindCurrentByTenant(ctx context.Context, tenantID uuid.UUID) (*Subscription, error)

	// Save persists a subscription
	Save(ctx context.Context, sub *Subscription) error
}
