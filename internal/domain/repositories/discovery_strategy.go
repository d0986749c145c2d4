package repositories

import (
	"context"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
)

// DiscoveryStrategy finds the migrations attached to the releases of one
// upgrade's resolved range. Producer order is registry order (newest first);
// the resolution coordinator reverses once into chronological order.
type DiscoveryStrategy interface {
	// Name returns the strategy identifier (e.g. "simple", "images").
	Name() string

	// Discover yields zero or more migrations for the releases in rng,
	// newest first.
	Discover(
		ctx context.Context,
		upgrade *entities.TaskBundleUpgrade,
		rng []entities.TagInfo,
	) ([]*entities.TaskBundleMigration, error)
}
