// Package applier replays resolved migrations, in chronological order,
// against the pipeline files that reference them.
package applier

import (
	"context"
	"crypto/sha256"
	"fmt"
	"os"

	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

const scriptFileMode = 0o700

// Options holds runtime options for one application pass.
type Options struct {
	// ScratchDir stages migration script bodies; empty selects the OS
	// temp dir.
	ScratchDir string
	// DryRun logs what would be executed without invoking the script
	// runner or touching files.
	DryRun bool
}

// scheduledMigration is one migration queued for a file, together with the
// upgrade it belongs to (needed for failure wrapping).
type scheduledMigration struct {
	upgrade   *entities.TaskBundleUpgrade
	migration *entities.TaskBundleMigration
}

// Applier replays each upgrade's migrations against each package file via
// the external script-runner collaborator. Per-migration failures are
// wrapped and collected without aborting the remaining work.
type Applier struct {
	runner repositories.ScriptRunner
	editor repositories.StructuralEditor
}

// NewApplier creates an Applier with the given collaborators.
func NewApplier(runner repositories.ScriptRunner, editor repositories.StructuralEditor) *Applier {
	return &Applier{runner: runner, editor: editor}
}

// ApplyAll applies migrations to every package file, skipping upgrades
// whose identity appears in skip (those failed to resolve). The returned
// error aggregates one MigrationApplyError per failure, or is nil.
func (it *Applier) ApplyAll(
	ctx context.Context,
	pkgFiles []*entities.PackageFile,
	skip map[string]struct{},
	opts Options,
) error {
	var errs *multierror.Error
	for _, pkgFile := range pkgFiles {
		if err := it.applyFile(ctx, pkgFile, skip, opts); err != nil {
			errs = multierror.Append(errs, err)
		}
	}
	return errs.ErrorOrNil()
}

// applyFile replays the scheduled migrations of one package file.
func (it *Applier) applyFile(
	ctx context.Context,
	pkgFile *entities.PackageFile,
	skip map[string]struct{},
	opts Options,
) error {
	scheduled := scheduleMigrations(pkgFile, skip)
	if len(scheduled) == 0 {
		logger.Debugf("No migrations scheduled for %s", pkgFile.FilePath)
		return nil
	}

	// When every scheduled migration edits through the structural modify
	// command, the edits are already precise and format-preserving and the
	// whole-document round trip safety net is skipped.
	allModify := true
	for _, s := range scheduled {
		if !s.migration.UsesModifyCommand() {
			allModify = false
			break
		}
	}

	var errs *multierror.Error
	var before [sha256.Size]byte
	if !allModify && !opts.DryRun {
		sum, err := checksumFile(pkgFile.FilePath)
		if err != nil {
			return &entities.MigrationApplyError{FilePath: pkgFile.FilePath, Err: err}
		}
		before = sum
	}

	for _, s := range scheduled {
		if err := it.applyMigration(ctx, pkgFile, s, opts); err != nil {
			errs = multierror.Append(errs, &entities.MigrationApplyError{
				FilePath:  pkgFile.FilePath,
				Upgrade:   s.upgrade,
				Migration: s.migration,
				Err:       err,
			})
		}
	}

	if !allModify && !opts.DryRun {
		if err := it.normalizeIfChanged(pkgFile.FilePath, before); err != nil {
			errs = multierror.Append(errs, &entities.MigrationApplyError{
				FilePath: pkgFile.FilePath,
				Err:      err,
			})
		}
	}

	return errs.ErrorOrNil()
}

// applyMigration stages the script body in a scratch file and invokes the
// script runner against the pipeline file. The scratch file is removed on
// every exit path; removal failure is logged, never escalated.
func (it *Applier) applyMigration(
	ctx context.Context,
	pkgFile *entities.PackageFile,
	s scheduledMigration,
	opts Options,
) error {
	if opts.DryRun {
		logger.Infof(
			"[DRY RUN] Would apply migration of %s to %s",
			s.migration.TaskBundleRef, pkgFile.FilePath,
		)
		return nil
	}

	scriptPath, err := stageScript(s.migration.Script, opts.ScratchDir)
	if err != nil {
		return err
	}
	defer func() {
		if rmErr := os.Remove(scriptPath); rmErr != nil {
			logger.Warnf("Failed to remove scratch script %s: %v", scriptPath, rmErr)
		}
	}()

	logger.Infof("Applying migration of %s to %s", s.migration.TaskBundleRef, pkgFile.FilePath)

	output, runErr := it.runner.Run(ctx, scriptPath, pkgFile.FilePath)
	if runErr != nil {
		if output != "" {
			logger.Errorf("Migration output:\n%s", output)
		}
		return runErr
	}
	if output != "" {
		logger.Debugf("Migration output:\n%s", output)
	}
	return nil
}

// normalizeIfChanged re-normalizes the file through the structural editor,
// but only when its content actually changed.
func (it *Applier) normalizeIfChanged(path string, before [sha256.Size]byte) error {
	after, err := checksumFile(path)
	if err != nil {
		return err
	}
	if after == before {
		logger.Debugf("Content of %s unchanged, skipping re-normalization", path)
		return nil
	}
	logger.Debugf("Re-normalizing %s after unstructured edits", path)
	return it.editor.Normalize(path)
}

// scheduleMigrations flattens the file's upgrades into the migration
// sequence to replay, dropping upgrades on the skip-list.
func scheduleMigrations(pkgFile *entities.PackageFile, skip map[string]struct{}) []scheduledMigration {
	var scheduled []scheduledMigration
	for _, upgrade := range pkgFile.Upgrades {
		if _, skipped := skip[upgrade.CurrentBundle()]; skipped {
			logger.Warnf(
				"Skipping %s in %s: migration resolution failed",
				upgrade.DepName, pkgFile.FilePath,
			)
			continue
		}
		for _, migration := range upgrade.Migrations {
			scheduled = append(scheduled, scheduledMigration{upgrade: upgrade, migration: migration})
		}
	}
	return scheduled
}

// stageScript writes the script body to an executable scratch file.
func stageScript(script, scratchDir string) (string, error) {
	file, err := os.CreateTemp(scratchDir, "migration-*.sh")
	if err != nil {
		return "", fmt.Errorf("failed to create scratch script: %w", err)
	}
	path := file.Name()

	if _, writeErr := file.WriteString(script); writeErr != nil {
		_ = file.Close()
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to write scratch script: %w", writeErr)
	}
	if closeErr := file.Close(); closeErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to close scratch script: %w", closeErr)
	}
	if chmodErr := os.Chmod(path, scriptFileMode); chmodErr != nil {
		_ = os.Remove(path)
		return "", fmt.Errorf("failed to make scratch script executable: %w", chmodErr)
	}
	return path, nil
}

// checksumFile returns the SHA-256 digest of the file content.
func checksumFile(path string) ([sha256.Size]byte, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return [sha256.Size]byte{}, fmt.Errorf("failed to read %s: %w", path, err)
	}
	return sha256.Sum256(data), nil
}
