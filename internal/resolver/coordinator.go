package resolver

import (
	"context"
	"sync"

	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"
	"golang.org/x/sync/semaphore"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// DefaultConcurrency bounds the resolution worker pool when no explicit
// limit is configured.
const DefaultConcurrency = 5

// Coordinator fans out one discovery task per distinct upgrade. Each task
// resolves the range, discovers migrations, and normalizes the upgrade's
// migration list into chronological order. A failing task never cancels or
// blocks its siblings; failures are wrapped per upgrade and aggregated.
type Coordinator struct {
	rangeResolver *RangeResolver
	strategy      repositories.DiscoveryStrategy
	concurrency   int64
}

// NewCoordinator creates a Coordinator using the given discovery strategy
// and worker-pool size (<= 0 selects DefaultConcurrency).
func NewCoordinator(
	rangeResolver *RangeResolver,
	strategy repositories.DiscoveryStrategy,
	concurrency int,
) *Coordinator {
	if concurrency <= 0 {
		concurrency = DefaultConcurrency
	}
	return &Coordinator{
		rangeResolver: rangeResolver,
		strategy:      strategy,
		concurrency:   int64(concurrency),
	}
}

// ResolveAll resolves migrations for every upgrade in parallel. Successes
// are merged into the upgrades themselves; the returned error aggregates
// one MigrationResolveError per failed upgrade, or is nil.
func (it *Coordinator) ResolveAll(
	ctx context.Context,
	upgrades []*entities.TaskBundleUpgrade,
) error {
	sem := semaphore.NewWeighted(it.concurrency)

	var wg sync.WaitGroup
	var mu sync.Mutex
	var errs *multierror.Error

	record := func(upgrade *entities.TaskBundleUpgrade, err error) {
		mu.Lock()
		defer mu.Unlock()
		errs = multierror.Append(errs, &entities.MigrationResolveError{Upgrade: upgrade, Err: err})
	}

	for _, upgrade := range upgrades {
		wg.Add(1)
		go func(u *entities.TaskBundleUpgrade) {
			defer wg.Done()
			if acquireErr := sem.Acquire(ctx, 1); acquireErr != nil {
				record(u, acquireErr)
				return
			}
			defer sem.Release(1)

			if err := it.resolveOne(ctx, u); err != nil {
				record(u, err)
			}
		}(upgrade)
	}

	wg.Wait()
	return errs.ErrorOrNil()
}

// resolveOne runs the full resolution for a single upgrade. The upgrade is
// exclusively written by this task, so no locking is needed around its
// migration list.
func (it *Coordinator) resolveOne(ctx context.Context, upgrade *entities.TaskBundleUpgrade) error {
	rng, err := it.rangeResolver.Resolve(ctx, upgrade)
	if err != nil {
		return err
	}
	if len(rng) == 0 {
		logger.Debugf("No intermediate releases for %s, nothing to discover", upgrade.CurrentBundle())
		return nil
	}

	migrations, err := it.strategy.Discover(ctx, upgrade, rng)
	if err != nil {
		return err
	}

	for _, migration := range migrations {
		upgrade.AddMigration(migration)
	}
	// Discovery yields registry order (newest first); application needs
	// oldest first.
	upgrade.SortMigrationsChronologically()

	logger.Infof(
		"[%s] Resolved %d migration(s) for %s",
		it.strategy.Name(), len(migrations), upgrade.DepName,
	)
	return nil
}
