//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"sync"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// SpyDiscoveryStrategy implements repositories.DiscoveryStrategy as a
// configurable spy, safe for concurrent use by the resolution coordinator.
type SpyDiscoveryStrategy struct {
	StrategyName string
	// Migrations are the results per upgrade identity (CurrentBundle key).
	Migrations map[string][]*entities.TaskBundleMigration
	// ErrByBundle fails discovery for specific upgrade identities.
	ErrByBundle map[string]error

	mu sync.Mutex
	// spy: upgrades and ranges received
	DiscoveredBundles []string
	ReceivedRanges    map[string][]entities.TagInfo
}

var _ repositories.DiscoveryStrategy = (*SpyDiscoveryStrategy)(nil)

func (s *SpyDiscoveryStrategy) Name() string {
	if s.StrategyName == "" {
		return "spy"
	}
	return s.StrategyName
}

func (s *SpyDiscoveryStrategy) Discover(
	_ context.Context,
	upgrade *entities.TaskBundleUpgrade,
	rng []entities.TagInfo,
) ([]*entities.TaskBundleMigration, error) {
	key := upgrade.CurrentBundle()

	s.mu.Lock()
	s.DiscoveredBundles = append(s.DiscoveredBundles, key)
	if s.ReceivedRanges == nil {
		s.ReceivedRanges = make(map[string][]entities.TagInfo)
	}
	s.ReceivedRanges[key] = rng
	s.mu.Unlock()

	if err, failing := s.ErrByBundle[key]; failing {
		return nil, err
	}
	return s.Migrations[key], nil
}
