package commands

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/applier"
	"github.com/rios0rios0/bundlemigrate/internal/collector"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	infraRepos "github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
	"github.com/rios0rios0/bundlemigrate/internal/resolver"
)

// Migrate is the interface for the migrate command.
type Migrate interface {
	Execute(ctx context.Context, descriptors []entities.UpgradeDescriptor, opts MigrateOptions) error
}

// MigrateOptions holds runtime options for a single migration run.
type MigrateOptions struct {
	Strategy    string // Discovery strategy name ("auto" probes per repository)
	Concurrency int    // Resolution worker-pool size (<= 0 selects the default)
	ScratchDir  string // Staging dir for migration scripts (empty: OS temp dir)
	DryRun      bool
	Verbose     bool
}

// MigrateCommand orchestrates the full migration flow:
// collect upgrades -> resolve migrations -> apply them to pipeline files.
type MigrateCommand struct {
	collector        *collector.Collector
	rangeResolver    *resolver.RangeResolver
	strategyRegistry *infraRepos.StrategyRegistry
	applier          *applier.Applier
}

// NewMigrateCommand creates a new MigrateCommand with the given collaborators.
func NewMigrateCommand(
	upgradeCollector *collector.Collector,
	rangeResolver *resolver.RangeResolver,
	strategyRegistry *infraRepos.StrategyRegistry,
	migrationApplier *applier.Applier,
) *MigrateCommand {
	return &MigrateCommand{
		collector:        upgradeCollector,
		rangeResolver:    rangeResolver,
		strategyRegistry: strategyRegistry,
		applier:          migrationApplier,
	}
}

// Execute runs the full migration cycle. Application proceeds even when
// some upgrades failed to resolve: unrelated upgrades and files must not be
// blocked by one bad bundle. The combined error aggregates descriptor,
// resolution, and application failures and is raised only after both phases
// fully complete.
func (it *MigrateCommand) Execute(
	ctx context.Context,
	descriptors []entities.UpgradeDescriptor,
	opts MigrateOptions,
) error {
	if opts.Verbose {
		logger.SetLevel(logger.DebugLevel)
	}

	strategy, err := it.strategyRegistry.Get(opts.Strategy)
	if err != nil {
		return err
	}

	collection, collectErr := it.collector.Collect(descriptors)
	if collectErr != nil {
		logger.Errorf("Rejected upgrade descriptors: %v", collectErr)
	}

	logger.Infof(
		"Collected %d distinct upgrade(s) across %d package file(s)",
		len(collection.Upgrades), len(collection.PackageFiles),
	)

	coordinator := resolver.NewCoordinator(it.rangeResolver, strategy, opts.Concurrency)
	resolveErr := coordinator.ResolveAll(ctx, collection.Upgrades)

	skip := skipList(resolveErr)

	applyErr := it.applier.ApplyAll(ctx, collection.PackageFiles, skip, applier.Options{
		ScratchDir: opts.ScratchDir,
		DryRun:     opts.DryRun,
	})

	it.logSummary(collection, skip, applyErr)

	var combined *multierror.Error
	for _, phaseErr := range []error{collectErr, resolveErr, applyErr} {
		if phaseErr != nil {
			combined = multierror.Append(combined, phaseErr)
		}
	}
	if combined != nil {
		return fmt.Errorf("migration run finished with failures: %w", combined)
	}
	return nil
}

// skipList derives the identities of upgrades whose resolution failed; they
// are skipped (not retried) during application.
func skipList(resolveErr error) map[string]struct{} {
	skip := make(map[string]struct{})
	if resolveErr == nil {
		return skip
	}

	var aggregate *multierror.Error
	if !errors.As(resolveErr, &aggregate) {
		return skip
	}
	for _, wrapped := range aggregate.Errors {
		var resolveFailure *entities.MigrationResolveError
		if errors.As(wrapped, &resolveFailure) {
			logger.Warnf(
				"Dependency %s failed to resolve and will be skipped during application",
				resolveFailure.Upgrade.DepName,
			)
			skip[resolveFailure.Upgrade.CurrentBundle()] = struct{}{}
		}
	}
	return skip
}

// logSummary reports the per-run accounting.
func (it *MigrateCommand) logSummary(
	collection *collector.Collection,
	skip map[string]struct{},
	applyErr error,
) {
	migrations := 0
	for _, upgrade := range collection.Upgrades {
		if _, skipped := skip[upgrade.CurrentBundle()]; skipped {
			continue
		}
		migrations += len(upgrade.Migrations)
	}

	applyFailures := 0
	var aggregate *multierror.Error
	if errors.As(applyErr, &aggregate) {
		applyFailures = len(aggregate.Errors)
	}

	logger.Infof(
		"Run complete: %d upgrade(s) resolved, %d skipped, %d migration(s) over %d file(s), %d application failure(s)",
		len(collection.Upgrades)-len(skip), len(skip),
		migrations, len(collection.PackageFiles), applyFailures,
	)
}
