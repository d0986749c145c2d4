package discovery

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

const linkedStrategyName = "linked"

// LinkedMigrationsStrategy follows the backward previous-migration-bundle
// pointer chain instead of scanning every release. Cheaper than the simple
// iteration when migrations are sparse, at the cost of trusting the linkage
// to be internally consistent. The walk is bounded by a visited set so a
// corrupt cyclic chain aborts instead of looping forever.
type LinkedMigrationsStrategy struct {
	registry repositories.BundleRegistry
}

// NewLinkedMigrationsStrategy creates the strategy.
func NewLinkedMigrationsStrategy(registry repositories.BundleRegistry) repositories.DiscoveryStrategy {
	return &LinkedMigrationsStrategy{registry: registry}
}

func (it *LinkedMigrationsStrategy) Name() string { return linkedStrategyName }

// Discover starts at the newest release in range and jumps from release to
// release along the chain, stopping when the pointer is empty or leaves the
// range.
func (it *LinkedMigrationsStrategy) Discover(
	ctx context.Context,
	upgrade *entities.TaskBundleUpgrade,
	rng []entities.TagInfo,
) ([]*entities.TaskBundleMigration, error) {
	if len(rng) == 0 {
		return nil, nil
	}

	byDigest := make(map[string]entities.TagInfo, len(rng))
	for _, tag := range rng {
		byDigest[tag.Digest] = tag
	}

	var migrations []*entities.TaskBundleMigration
	visited := make(map[string]struct{}, len(rng))
	current := rng[0]

	for {
		if _, seen := visited[current.Digest]; seen {
			return nil, fmt.Errorf(
				"migration chain of %s cycles back to %s:%s",
				upgrade.DepName, current.Name, current.Digest,
			)
		}
		visited[current.Digest] = struct{}{}

		manifest, err := it.registry.GetManifest(ctx, upgrade.DepName, current.Digest)
		if err != nil {
			return nil, fmt.Errorf("failed to fetch manifest of %s:%s: %w", upgrade.DepName, current.Name, err)
		}

		if entities.IsTruthy(manifest.Annotations[entities.AnnotationHasMigration]) {
			migration, fetchErr := fetchAttachedMigration(ctx, it.registry, upgrade.DepName, current)
			if fetchErr != nil {
				return nil, fetchErr
			}
			if migration != nil {
				logger.Debugf("[%s] Found migration on %s:%s", linkedStrategyName, upgrade.DepName, current.Name)
				migrations = append(migrations, migration)
			}
		}

		previous := manifest.Annotations[entities.AnnotationPreviousMigrationBundle]
		if previous == "" {
			break
		}
		next, inRange := byDigest[previous]
		if !inRange {
			// The chain continues past the current bundle; everything
			// beyond it was already applied.
			break
		}
		current = next
	}

	return migrations, nil
}
