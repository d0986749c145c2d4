package repositories

import (
	"go.uber.org/dig"

	domainRepos "github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories/discovery"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories/oci"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories/shell"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories/yamledit"
)

// RegisterProviders registers all repository providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	if err := container.Provide(oci.NewBundleRegistryRepository); err != nil {
		return err
	}
	if err := container.Provide(shell.NewScriptRunnerRepository); err != nil {
		return err
	}
	if err := container.Provide(yamledit.NewStructuralEditorRepository); err != nil {
		return err
	}

	// Register the strategy registry with all discovery strategies
	if err := container.Provide(func(registry domainRepos.BundleRegistry) *StrategyRegistry {
		reg := NewStrategyRegistry()
		images := discovery.NewMigrationImagesStrategy(registry)
		linked := discovery.NewLinkedMigrationsStrategy(registry)
		reg.Register(discovery.NewSimpleIterationStrategy(registry))
		reg.Register(linked)
		reg.Register(images)
		reg.Register(discovery.NewDecentralizationProxyStrategy(registry, images, linked))
		return reg
	}); err != nil {
		return err
	}

	return nil
}
