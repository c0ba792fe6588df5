package providers

import (
	"context"

	"github.com/samber/do/v2"

	"github.com/askboard/askboard-server/internal/logger"
	"github.com/askboard/askboard-server/internal/service"
)

// RunStartupBackfill repairs vote counters that drifted from their markers
// and seeds the default tags. Failures are logged; the server still starts.
func RunStartupBackfill(i do.Injector) {
	log := do.MustInvoke[*logger.Logger](i)
	storeHandle := do.MustInvoke[*StoreHandle](i)
	tagService := do.MustInvoke[*service.TagService](i)

	ctx := context.Background()

	if fixed, err := storeHandle.ReconcileVotes(ctx); err != nil {
		log.Error("Failed to reconcile vote counters", "error", err)
	} else if fixed > 0 {
		log.Warn("Reconciled drifted vote counters", "fixed", fixed)
	}

	if err := tagService.SeedDefaults(ctx); err != nil {
		log.Error("Failed to seed default tags", "error", err)
	}
}
