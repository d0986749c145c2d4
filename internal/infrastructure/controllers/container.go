package controllers

import (
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"go.uber.org/dig"
)

// RegisterProviders registers all controller providers with the DIG container.
func RegisterProviders(container *dig.Container) error {
	// Register controller constructors
	if err := container.Provide(NewMigrateController); err != nil {
		return err
	}
	if err := container.Provide(NewControllers); err != nil {
		return err
	}

	return nil
}

// NewControllers aggregates all controllers into a slice for the AppInternal.
func NewControllers(
	migrateController *MigrateController,
) *[]entities.Controller {
	return &[]entities.Controller{
		migrateController,
	}
}
