package reconcile

import (
	"context"

	"github.com/clubledger/reconcile/internal/domain/model"
	"github.com/clubledger/reconcile/internal/domain/repair"
)

func (s *Service) repairer(dryRun bool) *repair.Service {
	return repair.NewService(s.store, s.logger, dryRun)
}

// CleanAfterDelete removes the link records of a deleted entity. Deleting an
// event also deletes its registrations.
func (s *Service) CleanAfterDelete(ctx context.Context, entityType model.EntityType, entityID string) (*repair.Report, error) {
	if !entityType.Valid() {
		return nil, invalid("%q is not an entity type", entityType)
	}
	if entityID == "" {
		return nil, invalid("entity id is required")
	}
	return s.repairer(false).CleanAfterDelete(ctx, entityType, entityID)
}

// RepairAll runs the full integrity sweep.
func (s *Service) RepairAll(ctx context.Context, dryRun bool) (*repair.Report, error) {
	return s.repairer(dryRun).CleanAll(ctx)
}

// RepairReconciliationStatus recomputes every reconciled flag.
func (s *Service) RepairReconciliationStatus(ctx context.Context, dryRun bool) (*repair.Report, error) {
	return s.repairer(dryRun).RepairReconciliationStatus(ctx)
}
