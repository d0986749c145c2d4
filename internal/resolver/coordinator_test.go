//go:build unit

package resolver_test

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/hashicorp/go-multierror"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/resolver"
	builders "github.com/rios0rios0/bundlemigrate/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/bundlemigrate/test/infrastructure/repositorydoubles"
)

// registryFor seeds one two-step tag history per repo so that every upgrade
// built with the default builder digests resolves to a non-empty range.
func registryFor(repos ...string) *doubles.SpyBundleRegistry {
	tags := make(map[string][]entities.TagInfo, len(repos))
	for _, repo := range repos {
		tags[repo] = []entities.TagInfo{
			{Name: "0.3-a", Digest: "sha256:3333", StartTS: time.Unix(1030, 0)},
			{Name: "0.2-a", Digest: "sha256:2222", StartTS: time.Unix(1020, 0)},
			{Name: "0.1-a", Digest: "sha256:1111", StartTS: time.Unix(1010, 0)},
		}
	}
	return &doubles.SpyBundleRegistry{Tags: tags}
}

func TestCoordinatorResolveAll(t *testing.T) {
	t.Parallel()

	t.Run("should order discovered migrations oldest first", func(t *testing.T) {
		// given
		upgrade := builders.NewUpgradeBuilder().
			WithCurrent("0.1", "sha256:1111").
			WithNew("0.3", "sha256:3333").
			BuildUpgrade()
		newest := entities.NewTaskBundleMigration("task:0.3", "echo new")
		oldest := entities.NewTaskBundleMigration("task:0.2", "echo old")
		strategy := &doubles.SpyDiscoveryStrategy{
			Migrations: map[string][]*entities.TaskBundleMigration{
				upgrade.CurrentBundle(): {newest, oldest},
			},
		}
		coordinator := resolver.NewCoordinator(
			resolver.NewRangeResolver(registryFor(upgrade.DepName)), strategy, 0,
		)

		// when
		err := coordinator.ResolveAll(context.Background(), []*entities.TaskBundleUpgrade{upgrade})

		// then
		require.NoError(t, err)
		assert.Equal(t, []*entities.TaskBundleMigration{oldest, newest}, upgrade.Migrations)
	})

	t.Run("should isolate a failing upgrade from its siblings", func(t *testing.T) {
		// given
		upgrades := make([]*entities.TaskBundleUpgrade, 0, 3)
		repos := make([]string, 0, 3)
		for i := 0; i < 3; i++ {
			repo := fmt.Sprintf("registry.example.com/tasks/task-%d", i)
			repos = append(repos, repo)
			upgrades = append(upgrades, builders.NewUpgradeBuilder().
				WithDepName(repo).
				WithCurrent("0.1", "sha256:1111").
				WithNew("0.3", "sha256:3333").
				BuildUpgrade())
		}
		migration := entities.NewTaskBundleMigration("task:0.2", "echo hi")
		strategy := &doubles.SpyDiscoveryStrategy{
			Migrations: map[string][]*entities.TaskBundleMigration{
				upgrades[0].CurrentBundle(): {migration},
				upgrades[2].CurrentBundle(): {migration},
			},
			ErrByBundle: map[string]error{
				upgrades[1].CurrentBundle(): assert.AnError,
			},
		}
		coordinator := resolver.NewCoordinator(
			resolver.NewRangeResolver(registryFor(repos...)), strategy, 2,
		)

		// when
		err := coordinator.ResolveAll(context.Background(), upgrades)

		// then: one wrapped failure, the other upgrades fully resolved
		var merr *multierror.Error
		require.ErrorAs(t, err, &merr)
		require.Len(t, merr.Errors, 1)
		var resolveErr *entities.MigrationResolveError
		require.ErrorAs(t, merr.Errors[0], &resolveErr)
		assert.Same(t, upgrades[1], resolveErr.Upgrade)
		assert.Len(t, upgrades[0].Migrations, 1)
		assert.Empty(t, upgrades[1].Migrations)
		assert.Len(t, upgrades[2].Migrations, 1)
	})

	t.Run("should skip discovery when the release range is empty", func(t *testing.T) {
		// given: the current digest is missing from the history
		upgrade := builders.NewUpgradeBuilder().
			WithCurrent("0.1", "sha256:feed").
			WithNew("0.3", "sha256:3333").
			BuildUpgrade()
		strategy := &doubles.SpyDiscoveryStrategy{}
		coordinator := resolver.NewCoordinator(
			resolver.NewRangeResolver(registryFor(upgrade.DepName)), strategy, 0,
		)

		// when
		err := coordinator.ResolveAll(context.Background(), []*entities.TaskBundleUpgrade{upgrade})

		// then
		require.NoError(t, err)
		assert.Empty(t, strategy.DiscoveredBundles)
		assert.Empty(t, upgrade.Migrations)
	})

	t.Run("should hand the resolved range to the strategy", func(t *testing.T) {
		// given
		upgrade := builders.NewUpgradeBuilder().
			WithCurrent("0.1", "sha256:1111").
			WithNew("0.3", "sha256:3333").
			BuildUpgrade()
		strategy := &doubles.SpyDiscoveryStrategy{}
		coordinator := resolver.NewCoordinator(
			resolver.NewRangeResolver(registryFor(upgrade.DepName)), strategy, 1,
		)

		// when
		err := coordinator.ResolveAll(context.Background(), []*entities.TaskBundleUpgrade{upgrade})

		// then
		require.NoError(t, err)
		rng := strategy.ReceivedRanges[upgrade.CurrentBundle()]
		require.Len(t, rng, 2)
		assert.Equal(t, "sha256:3333", rng[0].Digest)
		assert.Equal(t, "sha256:2222", rng[1].Digest)
	})
}
