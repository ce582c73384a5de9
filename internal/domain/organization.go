package domain

import "time"

// Plan is an organization's subscription tier.
type Plan string

const (
	PlanFree       Plan = "free"
	PlanStarter    Plan = "starter"
	PlanGrowth     Plan = "growth"
	PlanEnterprise Plan = "enterprise"
)

// OrganizationStatus is the lifecycle state of an organization.
type OrganizationStatus string

const (
	OrganizationStatusActive    OrganizationStatus = "ACTIVE"
	OrganizationStatusSuspended OrganizationStatus = "SUSPENDED"
)

// Organization groups wallets under a tenant and carries the
// subscription plan that determines settlement fee rates.
type Organization struct {
	ID        string
	Name      string
	Plan      Plan
	Status    OrganizationStatus
	CreatedAt time.Time
	UpdatedAt time.Time
}

// PlanConfig defines the fee terms of a subscription tier.
type PlanConfig struct {
	Plan            Plan
	FeeBasisPoints  int64
	MonthlyPriceUSD string
}

// Plans is the hardcoded plan catalogue. Fee rates are in basis points
// and apply per side of a settlement.
var Plans = map[Plan]PlanConfig{
	PlanFree: {
		Plan:            PlanFree,
		FeeBasisPoints:  500,
		MonthlyPriceUSD: "0",
	},
	PlanStarter: {
		Plan:            PlanStarter,
		FeeBasisPoints:  300,
		MonthlyPriceUSD: "49",
	},
	PlanGrowth: {
		Plan:            PlanGrowth,
		FeeBasisPoints:  150,
		MonthlyPriceUSD: "249",
	},
	PlanEnterprise: {
		Plan:            PlanEnterprise,
		FeeBasisPoints:  50,
		MonthlyPriceUSD: "999",
	},
}

// PlanFeeBasisPoints returns the fee rate configured for a plan.
func PlanFeeBasisPoints(p Plan) (int64, bool) {
	cfg, ok := Plans[p]
	if !ok {
		return 0, false
	}
	return cfg.FeeBasisPoints, true
}

// ValidPlan returns true if the plan name is recognised.
func ValidPlan(p Plan) bool {
	_, ok := Plans[p]
	return ok
}
