//go:build unit

package repositories_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
	doubles "github.com/rios0rios0/bundlemigrate/test/infrastructure/repositorydoubles"
)

func TestStrategyRegistry(t *testing.T) {
	t.Parallel()

	t.Run("should return a registered strategy by name", func(t *testing.T) {
		// given
		registry := repositories.NewStrategyRegistry()
		strategy := &doubles.SpyDiscoveryStrategy{StrategyName: "linked"}
		registry.Register(strategy)

		// when
		found, err := registry.Get("linked")

		// then
		require.NoError(t, err)
		assert.Same(t, strategy, found)
	})

	t.Run("should fail for an unknown name", func(t *testing.T) {
		// given
		registry := repositories.NewStrategyRegistry()

		// when
		_, err := registry.Get("missing")

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown discovery strategy")
	})

	t.Run("should list names in registration order without duplicates", func(t *testing.T) {
		// given
		registry := repositories.NewStrategyRegistry()
		registry.Register(&doubles.SpyDiscoveryStrategy{StrategyName: "simple"})
		registry.Register(&doubles.SpyDiscoveryStrategy{StrategyName: "linked"})
		registry.Register(&doubles.SpyDiscoveryStrategy{StrategyName: "simple"})

		// when
		names := registry.Names()

		// then
		assert.Equal(t, []string{"simple", "linked"}, names)
	})
}
