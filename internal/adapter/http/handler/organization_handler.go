package handler

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/agoramesh/walletd/internal/adapter/http/dto"
	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/usecase"
)

// OrganizationService defines the behavior needed by OrganizationHandler.
type OrganizationService interface {
	CreateOrganization(ctx context.Context, input usecase.CreateOrganizationInput) (*domain.Organization, error)
	GetOrganization(ctx context.Context, id string) (*domain.Organization, error)
}

// OrganizationHandler handles organization-related HTTP requests.
type OrganizationHandler struct {
	orgUC OrganizationService
}

// NewOrganizationHandler creates a new OrganizationHandler.
func NewOrganizationHandler(orgUC OrganizationService) *OrganizationHandler {
	return &OrganizationHandler{orgUC: orgUC}
}

type organizationResponse struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Plan      string    `json:"plan"`
	Status    string    `json:"status"`
	FeeBPS    int64     `json:"fee_basis_points"`
	CreatedAt time.Time `json:"created_at"`
}

func organizationFromDomain(org *domain.Organization) organizationResponse {
	bps, _ := domain.PlanFeeBasisPoints(org.Plan)
	return organizationResponse{
		ID:        org.ID,
		Name:      org.Name,
		Plan:      string(org.Plan),
		Status:    string(org.Status),
		FeeBPS:    bps,
		CreatedAt: org.CreatedAt,
	}
}

// Create registers a new organization.
func (h *OrganizationHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateOrganizationRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid request body", err.Error())
		return
	}
	if req.Name == "" {
		writeError(w, http.StatusBadRequest, "missing organization name", "")
		return
	}

	org, err := h.orgUC.CreateOrganization(r.Context(), usecase.CreateOrganizationInput{
		Name: req.Name,
		Plan: domain.Plan(req.Plan),
	})
	if err != nil {
		status := http.StatusInternalServerError
		if errors.Is(err, domain.ErrInvalidPlan) {
			status = http.StatusBadRequest
		}
		writeError(w, status, "failed to create organization", err.Error())
		return
	}

	writeJSON(w, http.StatusCreated, organizationFromDomain(org))
}

// Get retrieves an organization by ID.
func (h *OrganizationHandler) Get(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	if id == "" {
		writeError(w, http.StatusBadRequest, "missing organization ID", "")
		return
	}

	org, err := h.orgUC.GetOrganization(r.Context(), id)
	if err != nil {
		writeError(w, mapDomainError(err), "failed to get organization", err.Error())
		return
	}

	writeJSON(w, http.StatusOK, organizationFromDomain(org))
}
