//go:build unit

package controllers_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/spf13/cobra"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/controllers"
	infraRepos "github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
	stubs "github.com/rios0rios0/bundlemigrate/test/domain/commanddoubles"
	doubles "github.com/rios0rios0/bundlemigrate/test/infrastructure/repositorydoubles"
)

const upgradesJSON = `[{
	"depName": "registry.example.com/tasks/task-clone",
	"currentValue": "0.1",
	"currentDigest": "sha256:1111",
	"newValue": "0.3",
	"newDigest": "sha256:3333",
	"depTypes": ["task-bundle"],
	"packageFile": ".tekton/pipeline.yaml",
	"parentDir": ".tekton"
}]`

// newMigrateCmd wires the controller under a command carrying the root's
// persistent flags.
func newMigrateCmd(stub *stubs.StubMigrateCommand) (*cobra.Command, *controllers.MigrateController) {
	registry := infraRepos.NewStrategyRegistry()
	registry.Register(&doubles.SpyDiscoveryStrategy{StrategyName: "auto"})
	controller := controllers.NewMigrateController(stub, registry)

	cmd := &cobra.Command{Use: controller.GetBind().Use}
	cmd.Flags().String("config", "", "")
	cmd.Flags().Bool("dry-run", false, "")
	cmd.Flags().Bool("verbose", false, "")
	controller.AddFlags(cmd)
	return cmd, controller
}

func TestMigrateControllerExecute(t *testing.T) {
	t.Parallel()

	t.Run("should forward inline upgrades with config defaults", func(t *testing.T) {
		// given
		stub := &stubs.StubMigrateCommand{}
		cmd, controller := newMigrateCmd(stub)
		require.NoError(t, cmd.Flags().Set("upgrades", upgradesJSON))

		// when
		controller.Execute(cmd, nil)

		// then
		require.Len(t, stub.Calls, 1)
		require.Len(t, stub.Calls[0].Descriptors, 1)
		assert.Equal(t, "registry.example.com/tasks/task-clone", stub.Calls[0].Descriptors[0].DepName)
		assert.Equal(t, "auto", stub.Calls[0].Opts.Strategy)
		assert.Equal(t, 5, stub.Calls[0].Opts.Concurrency)
		assert.False(t, stub.Calls[0].Opts.DryRun)
	})

	t.Run("should read upgrades from a file", func(t *testing.T) {
		// given
		path := filepath.Join(t.TempDir(), "upgrades.json")
		require.NoError(t, os.WriteFile(path, []byte(upgradesJSON), 0o600))
		stub := &stubs.StubMigrateCommand{}
		cmd, controller := newMigrateCmd(stub)
		require.NoError(t, cmd.Flags().Set("upgrades-file", path))

		// when
		controller.Execute(cmd, nil)

		// then
		require.Len(t, stub.Calls, 1)
		assert.Len(t, stub.Calls[0].Descriptors, 1)
	})

	t.Run("should prefer inline upgrades over the file", func(t *testing.T) {
		// given: the file holds an empty list, inline holds one upgrade
		path := filepath.Join(t.TempDir(), "upgrades.json")
		require.NoError(t, os.WriteFile(path, []byte("[]"), 0o600))
		stub := &stubs.StubMigrateCommand{}
		cmd, controller := newMigrateCmd(stub)
		require.NoError(t, cmd.Flags().Set("upgrades", upgradesJSON))
		require.NoError(t, cmd.Flags().Set("upgrades-file", path))

		// when
		controller.Execute(cmd, nil)

		// then
		require.Len(t, stub.Calls, 1)
		assert.Len(t, stub.Calls[0].Descriptors, 1)
	})

	t.Run("should let CLI flags override the config", func(t *testing.T) {
		// given
		stub := &stubs.StubMigrateCommand{}
		cmd, controller := newMigrateCmd(stub)
		require.NoError(t, cmd.Flags().Set("upgrades", upgradesJSON))
		require.NoError(t, cmd.Flags().Set("strategy", "linked"))
		require.NoError(t, cmd.Flags().Set("concurrency", "12"))
		require.NoError(t, cmd.Flags().Set("dry-run", "true"))

		// when
		controller.Execute(cmd, nil)

		// then
		require.Len(t, stub.Calls, 1)
		assert.Equal(t, "linked", stub.Calls[0].Opts.Strategy)
		assert.Equal(t, 12, stub.Calls[0].Opts.Concurrency)
		assert.True(t, stub.Calls[0].Opts.DryRun)
	})

	t.Run("should not run without an upgrade source", func(t *testing.T) {
		// given
		stub := &stubs.StubMigrateCommand{}
		cmd, controller := newMigrateCmd(stub)

		// when
		controller.Execute(cmd, nil)

		// then
		assert.Empty(t, stub.Calls)
	})
}
