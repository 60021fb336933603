package models

import (
	"encoding/json"
	"time"

	"github.com/bizgrow/backend/internal/domain/billing"
)

// PlanModel is the persistence model for subscription plans.
type PlanModel struct {
	BaseModel
	Code       string `gorm:"type:varchar(50);not null;uniqueIndex"`
	Name       string `gorm:"type:varchar(255);not null"`
	IsActive   bool   `gorm:"not null;default:true"`
	LimitsJSON string `gorm:"type:jsonb;column:limits"`
}

// TableName returns the table name for GORM
func (PlanModel) TableName() string {
	return "plans"
}

// ToDomain converts the persistence model to a domain Plan.
func (m *PlanModel) ToDomain() *billing.Plan {
	plan := &billing.Plan{
		BaseEntity: m.BaseModel.ToDomain(),
		Code:       m.Code,
		Name:       m.Name,
		IsActive:   m.IsActive,
		Limits:     make(map[string]int64),
	}

	if m.LimitsJSON != "" {
		var limits map[string]int64
		if err := json.Unmarshal([]byte(m.LimitsJSON), &limits); err == nil {
			plan.Limits = limits
		}
	}

	return plan
}

// FromDomain populates the persistence model from a domain Plan.
func (m *PlanModel) FromDomain(p *billing.Plan) {
	m.FromDomainBaseEntity(p.BaseEntity)
	m.Code = p.Code
	m.Name = p.Name
	m.IsActive = p.IsActive

	if len(p.Limits) > 0 {
		if jsonBytes, err := json.Marshal(p.Limits); err == nil {
			m.LimitsJSON = string(jsonBytes)
		}
	} else {
		m.LimitsJSON = "{}"
	}
}

// PlanModelFromDomain creates a new persistence model from a domain Plan.
func PlanModelFromDomain(p *billing.Plan) *PlanModel {
	m := &PlanModel{}
	m.FromDomain(p)
	return m
}

// SubscriptionModel is the persistence model for tenant subscriptions.
type SubscriptionModel struct {
	TenantAggregateModel
	PlanCode    string                     `gorm:"type:varchar(50);not null;index"`
	Status      billing.SubscriptionStatus `gorm:"type:varchar(20);not null;index"`
	EndsAt      *time.Time
	TrialEndsAt *time.Time
	AbuseExempt bool `gorm:"not null;default:false"`
}

// TableName returns the table name for GORM
func (SubscriptionModel) TableName() string {
	return "subscriptions"
}

// ToDomain converts the persistence model to a domain Subscription.
func (m *SubscriptionModel) ToDomain() *billing.Subscription {
	sub := &billing.Subscription{
		PlanCode:    m.PlanCode,
		Status:      m.Status,
		EndsAt:      m.EndsAt,
		TrialEndsAt: m.TrialEndsAt,
		AbuseExempt: m.AbuseExempt,
	}
	m.PopulateTenantAggregateRoot(&sub.TenantAggregateRoot)
	return sub
}

// FromDomain populates the persistence model from a domain Subscription.
func (m *SubscriptionModel) FromDomain(s *billing.Subscription) {
	m.FromDomainTenantAggregateRoot(s.TenantAggregateRoot)
	m.PlanCode = s.PlanCode
	m.Status = s.Status
	m.EndsAt = s.EndsAt
	m.TrialEndsAt = s.TrialEndsAt
	m.AbuseExempt = s.AbuseExempt
}

// SubscriptionModelFromDomain creates a new persistence model from a domain Subscription.
func SubscriptionModelFromDomain(s *billing.Subscription) *SubscriptionModel {
	m := &SubscriptionModel{}
	m.FromDomain(s)
	return m
}
