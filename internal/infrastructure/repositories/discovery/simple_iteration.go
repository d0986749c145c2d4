package discovery

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

const simpleStrategyName = "simple"

// SimpleIterationStrategy fetches the manifest of every release in range and
// collects the migration of each release annotated as carrying one.
type SimpleIterationStrategy struct {
	registry repositories.BundleRegistry
}

// NewSimpleIterationStrategy creates the strategy.
func NewSimpleIterationStrategy(registry repositories.BundleRegistry) repositories.DiscoveryStrategy {
	return &SimpleIterationStrategy{registry: registry}
}

func (it *SimpleIterationStrategy) Name() string { return simpleStrategyName }

// Discover walks the range in the given order (newest first) and yields the
// migration of every annotated release.
func (it *SimpleIterationStrategy) Discover(
	ctx context.Context,
	upgrade *entities.TaskBundleUpgrade,
	rng []entities.TagInfo,
) ([]*entities.TaskBundleMigration, error) {
	var migrations []*entities.TaskBundleMigration

	for _, tag := range rng {
		manifest, err := it.registry.GetManifest(ctx, upgrade.DepName, tag.Digest)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch manifest of %s:%s: %w", upgrade.DepName, tag.Name, err)
		}
		if !entities.IsTruthy(manifest.Annotations[entities.AnnotationHasMigration]) {
			continue
		}

		migration, fetchErr := fetchAttachedMigration(ctx, it.registry, upgrade.DepName, tag)
		if fetchErr != nil {
			return nil, fetchErr
		}
		if migration == nil {
			continue
		}
		logger.Debugf("[%s] Found migration on %s:%s", simpleStrategyName, upgrade.DepName, tag.Name)
		migrations = append(migrations, migration)
	}

	return migrations, nil
}
