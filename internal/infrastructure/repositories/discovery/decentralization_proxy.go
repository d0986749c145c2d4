package discovery

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

const proxyStrategyName = "auto"

// DecentralizationProxyStrategy probes, per upgrade, whether the bundle
// repository publishes dedicated migration images and delegates to the
// matching scheme. Repositories can move from the legacy linked scheme to
// migration images independently, without a global flag.
type DecentralizationProxyStrategy struct {
	registry repositories.BundleRegistry
	images   repositories.DiscoveryStrategy
	linked   repositories.DiscoveryStrategy
}

// NewDecentralizationProxyStrategy creates the proxy over the two delegates.
func NewDecentralizationProxyStrategy(
	registry repositories.BundleRegistry,
	images repositories.DiscoveryStrategy,
	linked repositories.DiscoveryStrategy,
) repositories.DiscoveryStrategy {
	return &DecentralizationProxyStrategy{registry: registry, images: images, linked: linked}
}

func (it *DecentralizationProxyStrategy) Name() string { return proxyStrategyName }

// Discover runs a cheap bounded-count tag query and delegates.
func (it *DecentralizationProxyStrategy) Discover(
	ctx context.Context,
	upgrade *entities.TaskBundleUpgrade,
	rng []entities.TagInfo,
) ([]*entities.TaskBundleMigration, error) {
	probe, err := it.registry.ListTags(ctx, upgrade.DepName, MigrationTagFilter, 1)
	if err != nil {
		return nil, fmt.Errorf("failed to probe %s for migration images: %w", upgrade.DepName, err)
	}

	delegate := it.linked
	if len(probe) > 0 {
		delegate = it.images
	}
	logger.Debugf("[%s] %s uses the %q scheme", proxyStrategyName, upgrade.DepName, delegate.Name())
	return delegate.Discover(ctx, upgrade, rng)
}
