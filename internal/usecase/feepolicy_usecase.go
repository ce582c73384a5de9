package usecase

import (
	"context"
	"errors"
	"strconv"

	"github.com/agoramesh/walletd/internal/domain"
	"github.com/agoramesh/walletd/internal/infrastructure/metrics"
)

// FeePolicyUseCase resolves the settlement fee rate (basis points) for
// an organization from its subscription plan, falling back to the
// platform default. Resolutions are side-effect free and cached per
// organization for a short TTL.
type FeePolicyUseCase struct {
	orgRepo    OrganizationRepository
	cache      Cache
	defaultBps int64
	metrics    *metrics.Metrics
}

// NewFeePolicyUseCase creates a new FeePolicyUseCase.
func NewFeePolicyUseCase(orgRepo OrganizationRepository, cache Cache, defaultBps int64, metrics *metrics.Metrics) *FeePolicyUseCase {
	return &FeePolicyUseCase{
		orgRepo:    orgRepo,
		cache:      cache,
		defaultBps: defaultBps,
		metrics:    metrics,
	}
}

const feePolicyCachePrefix = "feebps:"

// Resolve returns the fee rate for an organization. A nil organization,
// an unknown organization, or a suspended one resolves to the platform
// default. Cache failures fall through to the repository.
func (uc *FeePolicyUseCase) Resolve(ctx context.Context, organizationID *string) (int64, error) {
	if organizationID == nil || *organizationID == "" {
		uc.countLookup("default")
		return uc.defaultBps, nil
	}

	if uc.cache != nil {
		if cached, err := uc.cache.Get(ctx, feePolicyCachePrefix+*organizationID); err == nil {
			if bps, parseErr := strconv.ParseInt(cached, 10, 64); parseErr == nil {
				if uc.metrics != nil {
					uc.metrics.FeePolicyCacheHits.Inc()
				}
				return bps, nil
			}
		}
	}

	bps, err := uc.resolveFromPlan(ctx, *organizationID)
	if err != nil {
		return 0, err
	}

	if uc.cache != nil {
		_ = uc.cache.Set(ctx, feePolicyCachePrefix+*organizationID, strconv.FormatInt(bps, 10), FeePolicyCacheTTL)
	}

	return bps, nil
}

func (uc *FeePolicyUseCase) resolveFromPlan(ctx context.Context, organizationID string) (int64, error) {
	org, err := uc.orgRepo.GetByID(ctx, organizationID)
	if err != nil {
		if errors.Is(err, domain.ErrOrganizationNotFound) {
			uc.countLookup("default")
			return uc.defaultBps, nil
		}
		return 0, err
	}

	if org.Status != domain.OrganizationStatusActive {
		uc.countLookup("default")
		return uc.defaultBps, nil
	}

	bps, ok := domain.PlanFeeBasisPoints(org.Plan)
	if !ok {
		uc.countLookup("default")
		return uc.defaultBps, nil
	}

	uc.countLookup("plan")
	return bps, nil
}

func (uc *FeePolicyUseCase) countLookup(source string) {
	if uc.metrics != nil {
		uc.metrics.FeePolicyLookups.WithLabelValues(source).Inc()
	}
}
