package controllers

import (
	"context"
	"fmt"
	"os"
	"strings"

	logger "github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/rios0rios0/bundlemigrate/config"
	"github.com/rios0rios0/bundlemigrate/internal/collector"
	"github.com/rios0rios0/bundlemigrate/internal/domain/commands"
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	infraRepos "github.com/rios0rios0/bundlemigrate/internal/infrastructure/repositories"
)

// MigrateController handles the "migrate" subcommand.
type MigrateController struct {
	command          commands.Migrate
	strategyRegistry *infraRepos.StrategyRegistry
}

// NewMigrateController creates a new MigrateController.
func NewMigrateController(
	command commands.Migrate,
	strategyRegistry *infraRepos.StrategyRegistry,
) *MigrateController {
	return &MigrateController{command: command, strategyRegistry: strategyRegistry}
}

// GetBind returns the Cobra command metadata for the migrate controller.
func (it *MigrateController) GetBind() entities.ControllerBind {
	return entities.ControllerBind{
		Use:   "migrate",
		Short: "Apply task-bundle migrations to pipeline files",
		Long: `Replay the migration scripts attached to intermediate task-bundle
releases against every pipeline file that references the upgraded bundle.

Takes the upgrade list Renovate produced (--upgrades or --upgrades-file),
resolves which releases between "current" and "new" carry a migration, and
applies them in chronological order. Upgrades that fail to resolve are
skipped so one bad bundle never blocks the rest of the batch.`,
	}
}

// Execute runs the migration mode.
func (it *MigrateController) Execute(cmd *cobra.Command, _ []string) {
	ctx := context.Background()

	configPath, _ := cmd.Flags().GetString("config")
	dryRun, _ := cmd.Flags().GetBool("dry-run")
	verbose, _ := cmd.Flags().GetBool("verbose")
	strategyName, _ := cmd.Flags().GetString("strategy")
	concurrency, _ := cmd.Flags().GetInt("concurrency")

	cfg, err := config.Load(configPath)
	if err != nil {
		logger.Errorf("Failed to load config: %v", err)
		return
	}

	// CLI flags override the config file
	if strategyName == "" {
		strategyName = cfg.Strategy
	}
	if concurrency <= 0 {
		concurrency = cfg.Concurrency
	}

	descriptors, readErr := it.readDescriptors(cmd)
	if readErr != nil {
		logger.Errorf("Failed to read upgrade descriptors: %v", readErr)
		return
	}

	if runErr := it.command.Execute(ctx, descriptors, commands.MigrateOptions{
		Strategy:    strategyName,
		Concurrency: concurrency,
		ScratchDir:  cfg.ScratchDir,
		DryRun:      dryRun,
		Verbose:     verbose,
	}); runErr != nil {
		logger.Errorf("Migration run failed: %v", runErr)
	}
}

// readDescriptors loads the upgrade list from --upgrades (inline JSON) or
// --upgrades-file.
func (it *MigrateController) readDescriptors(cmd *cobra.Command) ([]entities.UpgradeDescriptor, error) {
	inline, _ := cmd.Flags().GetString("upgrades")
	filePath, _ := cmd.Flags().GetString("upgrades-file")

	var data []byte
	switch {
	case inline != "":
		data = []byte(inline)
	case filePath != "":
		fileData, err := os.ReadFile(filePath)
		if err != nil {
			return nil, fmt.Errorf("failed to read %s: %w", filePath, err)
		}
		data = fileData
	default:
		return nil, fmt.Errorf("no upgrades given; use --upgrades or --upgrades-file")
	}

	return collector.ParseDescriptors(data)
}

// AddFlags adds the migrate-specific flags to the given Cobra command.
func (it *MigrateController) AddFlags(cmd *cobra.Command) {
	cmd.Flags().StringP("upgrades", "u", "", "Upgrade list as inline JSON")
	cmd.Flags().StringP("upgrades-file", "f", "", "Path to a file holding the upgrade list JSON")
	cmd.Flags().String("strategy", "",
		fmt.Sprintf("Discovery strategy (%s)", strings.Join(it.strategyRegistry.Names(), ", ")))
	cmd.Flags().Int("concurrency", 0, "Resolution worker-pool size")
}
