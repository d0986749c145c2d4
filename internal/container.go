package internal

import (
	"go.uber.org/dig"

	"github.com/rios0rios0/bundlemigrate/internal/applier"
	"github.com/rios0rios0/bundlemigrate/internal/collector"
	"github.com/rios0rios0/bundlemigrate/internal/domain/commands"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/controllers"
	"github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
	"github.com/rios0rios0/bundlemigrate/internal/resolver"
)

// RegisterProviders registers all internal providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register all layers (bottom-up: infrastructure repos -> engine -> domain commands -> controllers)
	if err := repositories.RegisterProviders(container); err != nil {
		return err
	}
	if err := entities.RegisterProviders(container); err != nil {
		return err
	}

	// Engine services
	if err := container.Provide(collector.NewCollector); err != nil {
		return err
	}
	if err := container.Provide(resolver.NewRangeResolver); err != nil {
		return err
	}
	if err := container.Provide(applier.NewApplier); err != nil {
		return err
	}

	if err := commands.RegisterProviders(container); err != nil {
		return err
	}
	if err := controllers.RegisterProviders(container); err != nil {
		return err
	}

	// Register the main app internal
	if err := container.Provide(NewAppInternal); err != nil {
		return err
	}

	return nil
}
