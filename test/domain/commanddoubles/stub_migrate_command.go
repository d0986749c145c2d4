//go:build integration || unit || test

package commanddoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"

	"github.com/rios0rios0/bundlemigrate/internal/domain/commands"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
)

// MigrateCall records one command execution.
type MigrateCall struct {
	Descriptors []entities.UpgradeDescriptor
	Opts        commands.MigrateOptions
}

// StubMigrateCommand implements commands.Migrate for controller tests.
type StubMigrateCommand struct {
	Err error

	// spy: executions received
	Calls []MigrateCall
}

var _ commands.Migrate = (*StubMigrateCommand)(nil)

func (c *StubMigrateCommand) Execute(
	_ context.Context,
	descriptors []entities.UpgradeDescriptor,
	opts commands.MigrateOptions,
) error {
	c.Calls = append(c.Calls, MigrateCall{Descriptors: descriptors, Opts: opts})
	return c.Err
}
