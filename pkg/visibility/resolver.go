package visibility

import (
	"context"
	"fmt"
	"time"

	"github.com/sesflow/accesscore/pkg/observability"
	"github.com/sesflow/accesscore/pkg/partners"
)

// PartnerSource validates the tenant/partner relationship. Implemented
// by partners.Store.
type PartnerSource interface {
	GetForTenant(ctx context.Context, tenantID, partnerID int64) (*partners.BusinessPartner, error)
}

// Resolver produces the filtered, paginated engineer set visible to a
// business partner.
type Resolver struct {
	partners PartnerSource
	settings SettingsStore
	ng       NgSource
	allow    AllowSource
	catalog  EngineerCatalog
	logger   *observability.Logger
	metrics  *observability.Metrics
}

// NewResolver creates a visibility resolver. metrics may be nil.
func NewResolver(p PartnerSource, settings SettingsStore, ng NgSource, allow AllowSource, catalog EngineerCatalog, logger *observability.Logger, metrics *observability.Metrics) *Resolver {
	if logger == nil {
		logger = observability.NopLogger()
	}
	return &Resolver{
		partners: p,
		settings: settings,
		ng:       ng,
		allow:    allow,
		catalog:  catalog,
		logger:   logger,
		metrics:  metrics,
	}
}

// ListVisibleEngineers returns the engineers the partner may see, plus
// the total matching count for pagination metadata.
//
// The tenant-scoped partner check runs before any other lookup; a
// cross-tenant or soft-deleted partner is a not-found error. The NG set
// is excluded unconditionally; the view mode (defaulting to
// DefaultViewType when unconfigured) restricts further; search, skill,
// and availability filters only ever narrow the result.
func (r *Resolver) ListVisibleEngineers(ctx context.Context, tenantID, partnerID int64, params ListParams) ([]Engineer, int, error) {
	start := time.Now()
	params = params.normalize()

	// Tenant isolation boundary.
	if _, err := r.partners.GetForTenant(ctx, tenantID, partnerID); err != nil {
		return nil, 0, err
	}

	ngSet, err := r.ng.NgEngineerIDs(ctx, partnerID)
	if err != nil {
		r.metrics.RecordStoreError("visibility")
		return nil, 0, fmt.Errorf("failed to load NG list for partner %d: %w", partnerID, err)
	}

	setting, err := r.settings.GetSetting(ctx, partnerID)
	if err != nil {
		r.metrics.RecordStoreError("visibility")
		return nil, 0, fmt.Errorf("failed to load visibility setting for partner %d: %w", partnerID, err)
	}
	viewType := DefaultViewType
	if setting != nil {
		viewType = setting.ViewType
	}

	query := EngineerQuery{
		TenantID: tenantID,
		Search:   params.Search,
		Skills:   params.Skills,
		Overlay:  params.AvailabilityFilter.Availabilities(),
		Limit:    params.PageSize,
		Offset:   (params.Page - 1) * params.PageSize,
	}
	for id := range ngSet {
		query.ExcludeIDs = append(query.ExcludeIDs, id)
	}

	switch viewType {
	case ViewTypeAll:
		// No restriction beyond the NG exclusion.
	case ViewTypeWaiting:
		query.Availabilities = WaitingAvailabilities()
	case ViewTypeCustom:
		allowed, err := r.allow.AllowedEngineerIDs(ctx, partnerID)
		if err != nil {
			r.metrics.RecordStoreError("visibility")
			return nil, 0, fmt.Errorf("failed to load allow list for partner %d: %w", partnerID, err)
		}
		// NG wins over the allow list: membership there cannot
		// resurrect a blocked engineer.
		included := make([]int64, 0, len(allowed))
		for _, id := range allowed {
			if _, blocked := ngSet[id]; !blocked {
				included = append(included, id)
			}
		}
		query.IncludeIDs = included
	default:
		r.logger.WithField("view_type", string(viewType)).Warn("unknown view type, falling back to default")
		query.Availabilities = WaitingAvailabilities()
	}

	engineers, total, err := r.catalog.Query(ctx, query)
	if err != nil {
		return nil, 0, err
	}

	if r.metrics != nil {
		r.metrics.VisibilityQueryDuration.Observe(time.Since(start).Seconds())
		r.metrics.VisibleEngineersCount.Observe(float64(total))
	}
	return engineers, total, nil
}
