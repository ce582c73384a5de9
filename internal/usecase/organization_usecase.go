package usecase

import (
	"context"
	"time"

	"github.com/agoramesh/walletd/internal/domain"
)

// OrganizationUseCase manages tenant organizations and their plans.
type OrganizationUseCase struct {
	orgRepo OrganizationRepository
	idGen   IDGenerator
}

// NewOrganizationUseCase creates a new OrganizationUseCase.
func NewOrganizationUseCase(orgRepo OrganizationRepository, idGen IDGenerator) *OrganizationUseCase {
	return &OrganizationUseCase{
		orgRepo: orgRepo,
		idGen:   idGen,
	}
}

// CreateOrganizationInput represents input for creating an organization.
type CreateOrganizationInput struct {
	Name string
	Plan domain.Plan
}

// CreateOrganization registers a new organization on the given plan.
func (uc *OrganizationUseCase) CreateOrganization(ctx context.Context, input CreateOrganizationInput) (*domain.Organization, error) {
	plan := input.Plan
	if plan == "" {
		plan = domain.PlanFree
	}
	if !domain.ValidPlan(plan) {
		return nil, domain.ErrInvalidPlan
	}

	now := time.Now().UTC()
	org := &domain.Organization{
		ID:        uc.idGen.Generate(),
		Name:      input.Name,
		Plan:      plan,
		Status:    domain.OrganizationStatusActive,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := uc.orgRepo.Create(ctx, org); err != nil {
		return nil, err
	}

	return org, nil
}

// GetOrganization retrieves an organization by ID.
func (uc *OrganizationUseCase) GetOrganization(ctx context.Context, id string) (*domain.Organization, error) {
	return uc.orgRepo.GetByID(ctx, id)
}
