//go:build unit

package collector_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bundlemigrate/internal/collector"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	builders "github.com/rios0rios0/bundlemigrate/test/domain/entitybuilders"
)

func TestParseDescriptors(t *testing.T) {
	t.Parallel()

	t.Run("should decode a Renovate upgrade list", func(t *testing.T) {
		// given
		data := []byte(`[{
			"depName": "registry.example.com/tasks/task-clone",
			"currentValue": "0.1",
			"currentDigest": "sha256:1111",
			"newValue": "0.3",
			"newDigest": "sha256:3333",
			"depTypes": ["task-bundle"],
			"packageFile": ".tekton/pipeline.yaml",
			"parentDir": ".tekton"
		}]`)

		// when
		descriptors, err := collector.ParseDescriptors(data)

		// then
		require.NoError(t, err)
		require.Len(t, descriptors, 1)
		assert.Equal(t, "registry.example.com/tasks/task-clone", descriptors[0].DepName)
		assert.True(t, descriptors[0].IsManaged())
	})

	t.Run("should fail on malformed JSON", func(t *testing.T) {
		// when
		_, err := collector.ParseDescriptors([]byte("{not json"))

		// then
		require.Error(t, err)
	})
}

func TestCollectorCollect(t *testing.T) {
	t.Parallel()

	t.Run("should share one upgrade across package files referencing the same bundle", func(t *testing.T) {
		// given
		first := builders.NewUpgradeBuilder().WithPackageFile(".tekton/push.yaml", ".tekton").BuildDescriptor()
		second := builders.NewUpgradeBuilder().WithPackageFile(".tekton/pull.yaml", ".tekton").BuildDescriptor()

		// when
		collection, err := collector.NewCollector().Collect([]entities.UpgradeDescriptor{first, second})

		// then
		require.NoError(t, err)
		require.Len(t, collection.Upgrades, 1)
		require.Len(t, collection.PackageFiles, 2)
		assert.Same(t, collection.Upgrades[0], collection.PackageFiles[0].Upgrades[0])
		assert.Same(t, collection.Upgrades[0], collection.PackageFiles[1].Upgrades[0])
	})

	t.Run("should group distinct upgrades of the same package file", func(t *testing.T) {
		// given
		first := builders.NewUpgradeBuilder().BuildDescriptor()
		second := builders.NewUpgradeBuilder().
			WithDepName("registry.example.com/tasks/task-build").
			BuildDescriptor()

		// when
		collection, err := collector.NewCollector().Collect([]entities.UpgradeDescriptor{first, second})

		// then
		require.NoError(t, err)
		assert.Len(t, collection.Upgrades, 2)
		require.Len(t, collection.PackageFiles, 1)
		assert.Len(t, collection.PackageFiles[0].Upgrades, 2)
	})

	t.Run("should not duplicate the reference when the same descriptor repeats", func(t *testing.T) {
		// given
		descriptor := builders.NewUpgradeBuilder().BuildDescriptor()

		// when
		collection, err := collector.NewCollector().Collect(
			[]entities.UpgradeDescriptor{descriptor, descriptor},
		)

		// then
		require.NoError(t, err)
		require.Len(t, collection.PackageFiles, 1)
		assert.Len(t, collection.PackageFiles[0].Upgrades, 1)
	})

	t.Run("should reject invalid descriptors but keep processing valid ones", func(t *testing.T) {
		// given
		invalid := builders.NewUpgradeBuilder().BuildDescriptor()
		invalid.CurrentDigest = "not-a-digest"
		valid := builders.NewUpgradeBuilder().
			WithDepName("registry.example.com/tasks/task-build").
			BuildDescriptor()

		// when
		collection, err := collector.NewCollector().Collect(
			[]entities.UpgradeDescriptor{invalid, valid},
		)

		// then
		var invalidErr *entities.InvalidUpgradeDataError
		require.ErrorAs(t, err, &invalidErr)
		assert.Len(t, collection.Upgrades, 1)
	})

	t.Run("should skip descriptors without the task-bundle marker", func(t *testing.T) {
		// given
		descriptor := builders.NewUpgradeBuilder().BuildDescriptor()
		descriptor.DepTypes = []string{"docker"}

		// when
		collection, err := collector.NewCollector().Collect([]entities.UpgradeDescriptor{descriptor})

		// then
		require.NoError(t, err)
		assert.Empty(t, collection.Upgrades)
		assert.Empty(t, collection.PackageFiles)
	})
}
