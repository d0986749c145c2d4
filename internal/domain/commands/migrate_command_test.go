//go:build unit

package commands_test

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bundlemigrate/internal/applier"
	"github.com/rios0rios0/bundlemigrate/internal/collector"
	"github.com/rios0rios0/bundlemigrate/internal/domain/commands"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	infraRepos "github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
	"github.com/rios0rios0/bundlemigrate/internal/resolver"
	builders "github.com/rios0rios0/bundlemigrate/test/domain/entitybuilders"
	doubles "github.com/rios0rios0/bundlemigrate/test/infrastructure/repositorydoubles"
)

// fixture wires a full command over spy collaborators and one staged
// pipeline file per descriptor.
type fixture struct {
	command  *commands.MigrateCommand
	runner   *doubles.SpyScriptRunner
	strategy *doubles.SpyDiscoveryStrategy
}

func newFixture(t *testing.T, repos ...string) (*fixture, []entities.UpgradeDescriptor) {
	t.Helper()

	tags := make(map[string][]entities.TagInfo, len(repos))
	descriptors := make([]entities.UpgradeDescriptor, 0, len(repos))
	for _, repo := range repos {
		tags[repo] = []entities.TagInfo{
			{Name: "0.3-a", Digest: "sha256:3333", StartTS: time.Unix(1030, 0)},
			{Name: "0.2-a", Digest: "sha256:2222", StartTS: time.Unix(1020, 0)},
			{Name: "0.1-a", Digest: "sha256:1111", StartTS: time.Unix(1010, 0)},
		}

		dir := t.TempDir()
		path := filepath.Join(dir, "pipeline.yaml")
		require.NoError(t, os.WriteFile(path, []byte("kind: Pipeline\n"), 0o600))
		descriptors = append(descriptors, builders.NewUpgradeBuilder().
			WithDepName(repo).
			WithCurrent("0.1", "sha256:1111").
			WithNew("0.3", "sha256:3333").
			WithPackageFile(path, dir).
			BuildDescriptor())
	}

	runner := &doubles.SpyScriptRunner{}
	strategy := &doubles.SpyDiscoveryStrategy{StrategyName: "spy"}
	registry := infraRepos.NewStrategyRegistry()
	registry.Register(strategy)

	command := commands.NewMigrateCommand(
		collector.NewCollector(),
		resolver.NewRangeResolver(&doubles.SpyBundleRegistry{Tags: tags}),
		registry,
		applier.NewApplier(runner, &doubles.SpyStructuralEditor{}),
	)
	return &fixture{command: command, runner: runner, strategy: strategy}, descriptors
}

func identityOf(t *testing.T, descriptor entities.UpgradeDescriptor) string {
	t.Helper()
	upgrade, err := entities.NewTaskBundleUpgrade(descriptor)
	require.NoError(t, err)
	return upgrade.CurrentBundle()
}

func TestMigrateCommandExecute(t *testing.T) {
	t.Parallel()

	t.Run("should apply every resolved migration", func(t *testing.T) {
		// given
		f, descriptors := newFixture(t, "registry.example.com/tasks/task-clone")
		f.strategy.Migrations = map[string][]*entities.TaskBundleMigration{
			identityOf(t, descriptors[0]): {
				entities.NewTaskBundleMigration("task:0.3", "echo 0.3"),
				entities.NewTaskBundleMigration("task:0.2", "echo 0.2"),
			},
		}

		// when
		err := f.command.Execute(context.Background(), descriptors, commands.MigrateOptions{
			Strategy: "spy",
		})

		// then: chronological order, oldest migration first
		require.NoError(t, err)
		require.Len(t, f.runner.Calls, 2)
		assert.Equal(t, "echo 0.2", f.runner.Calls[0].ScriptContent)
		assert.Equal(t, "echo 0.3", f.runner.Calls[1].ScriptContent)
	})

	t.Run("should skip applying upgrades whose resolution failed", func(t *testing.T) {
		// given: discovery fails for the first repo only
		f, descriptors := newFixture(t,
			"registry.example.com/tasks/task-broken",
			"registry.example.com/tasks/task-clone",
		)
		f.strategy.ErrByBundle = map[string]error{
			identityOf(t, descriptors[0]): assert.AnError,
		}
		f.strategy.Migrations = map[string][]*entities.TaskBundleMigration{
			identityOf(t, descriptors[1]): {
				entities.NewTaskBundleMigration("task:0.2", "echo healthy"),
			},
		}

		// when
		err := f.command.Execute(context.Background(), descriptors, commands.MigrateOptions{
			Strategy: "spy",
		})

		// then: the healthy upgrade was still applied, the run reports failure
		var resolveErr *entities.MigrationResolveError
		require.ErrorAs(t, err, &resolveErr)
		assert.Equal(t, "registry.example.com/tasks/task-broken", resolveErr.Upgrade.DepName)
		require.Len(t, f.runner.Calls, 1)
		assert.Equal(t, "echo healthy", f.runner.Calls[0].ScriptContent)
	})

	t.Run("should not run scripts in dry-run mode", func(t *testing.T) {
		// given
		f, descriptors := newFixture(t, "registry.example.com/tasks/task-clone")
		f.strategy.Migrations = map[string][]*entities.TaskBundleMigration{
			identityOf(t, descriptors[0]): {
				entities.NewTaskBundleMigration("task:0.2", "echo 0.2"),
			},
		}

		// when
		err := f.command.Execute(context.Background(), descriptors, commands.MigrateOptions{
			Strategy: "spy",
			DryRun:   true,
		})

		// then
		require.NoError(t, err)
		assert.Empty(t, f.runner.Calls)
	})

	t.Run("should fail fast on an unknown strategy", func(t *testing.T) {
		// given
		f, descriptors := newFixture(t, "registry.example.com/tasks/task-clone")

		// when
		err := f.command.Execute(context.Background(), descriptors, commands.MigrateOptions{
			Strategy: "nope",
		})

		// then
		require.Error(t, err)
		assert.Contains(t, err.Error(), "unknown discovery strategy")
		assert.Empty(t, f.strategy.DiscoveredBundles)
	})

	t.Run("should report rejected descriptors but keep the valid ones", func(t *testing.T) {
		// given
		f, descriptors := newFixture(t, "registry.example.com/tasks/task-clone")
		invalid := builders.NewUpgradeBuilder().BuildDescriptor()
		invalid.CurrentDigest = "not-a-digest"
		f.strategy.Migrations = map[string][]*entities.TaskBundleMigration{
			identityOf(t, descriptors[0]): {
				entities.NewTaskBundleMigration("task:0.2", "echo 0.2"),
			},
		}

		// when
		err := f.command.Execute(
			context.Background(),
			append([]entities.UpgradeDescriptor{invalid}, descriptors...),
			commands.MigrateOptions{Strategy: "spy"},
		)

		// then
		var invalidErr *entities.InvalidUpgradeDataError
		require.ErrorAs(t, err, &invalidErr)
		assert.Len(t, f.runner.Calls, 1)
	})
}
