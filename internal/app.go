package internal

import (
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
)

// AppInternal aggregates the CLI-facing controllers resolved from the
// container.
type AppInternal struct {
	controllers *[]entities.Controller
}

// NewAppInternal creates the app aggregate.
func NewAppInternal(controllers *[]entities.Controller) *AppInternal {
	return &AppInternal{controllers: controllers}
}

// GetControllers returns every registered controller.
func (it *AppInternal) GetControllers() []entities.Controller {
	return *it.controllers
}
