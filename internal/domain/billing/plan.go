package billing

import (
	"github.com/bizgrow/backend/internal/domain/shared"
)

// UnlimitedLimit marks a resource with no cap on the plan.
const UnlimitedLimit int64 = -1

// Plan is a subscription tier with per-resource limits. Limits are keyed by
// resource name (linked_social_accounts, linked_ad_accounts, linked_pages);
// a missing key means the plan grants none of that resource.
type Plan struct {
	shared.BaseEntity
	Code     string
	Name     string
	IsActive bool
	Limits   map[string]int64
}

// NewPlan creates a plan with the given limits.
func NewPlan(code, name string, limits map[string]int64) (*Plan, error) {
	if code == "" {
		return nil, shared.NewDomainError("INVALID_PLAN", "Plan code cannot be empty")
	}
	if limits == nil {
		limits = make(map[string]int64)
	}
	return &Plan{
		BaseEntity: shared.NewBaseEntity(),
		Code:       code,
		Name:       name,
		IsActive:   true,
		Limits:     limits,
	}, nil
}

// LimitFor returns the plan's limit for a resource. The second return is
// false when the plan does not grant the resource at all.
func (p *Plan) LimitFor(resource string) (int64, bool) {
	limit, ok := p.Limits[resource]
	return limit, ok
}

// IsUnlimited returns true when the resource has no cap on this plan.
func (p *Plan) IsUnlimited(resource string) bool {
	limit, ok := p.Limits[resource]
	return ok && limit == UnlimitedLimit
}
