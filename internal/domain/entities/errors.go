package entities

import "fmt"

// InvalidUpgradeDataError rejects one malformed upgrade descriptor. Fatal
// for that descriptor only; sibling descriptors still proceed.
type InvalidUpgradeDataError struct {
	DepName string
	Reason  string
}

func (e *InvalidUpgradeDataError) Error() string {
	return fmt.Sprintf("invalid upgrade data for %q: %s", e.DepName, e.Reason)
}

// AmbiguousMigrationAttachmentError reports more than one migration referrer
// on a single bundle release. The domain allows at most one migration per
// bundle, so this is a data-integrity violation.
type AmbiguousMigrationAttachmentError struct {
	BundleRef string
	Count     int
}

func (e *AmbiguousMigrationAttachmentError) Error() string {
	return fmt.Sprintf("bundle %s has %d migration attachments, expected at most one", e.BundleRef, e.Count)
}

// ModifiedMigrationError reports a migration-image version republished with
// a different checksum. Migrations are immutable once published.
type ModifiedMigrationError struct {
	DepName  string
	Version  string
	Checksum string
	Existing string
}

func (e *ModifiedMigrationError) Error() string {
	return fmt.Sprintf(
		"migration %s for %s was republished with a different checksum (%s != %s)",
		e.Version, e.DepName, e.Checksum, e.Existing,
	)
}

// MigrationResolveError wraps any failure resolving migrations for one
// upgrade. It carries the offending upgrade and the raw cause.
type MigrationResolveError struct {
	Upgrade *TaskBundleUpgrade
	Err     error
}

func (e *MigrationResolveError) Error() string {
	return fmt.Sprintf("failed to resolve migrations for %s: %v", e.Upgrade.CurrentBundle(), e.Err)
}

func (e *MigrationResolveError) Unwrap() error { return e.Err }

// MigrationApplyError wraps any failure applying one migration to one
// package file.
type MigrationApplyError struct {
	FilePath  string
	Upgrade   *TaskBundleUpgrade
	Migration *TaskBundleMigration
	Err       error
}

func (e *MigrationApplyError) Error() string {
	bundle := ""
	if e.Migration != nil {
		bundle = e.Migration.TaskBundleRef
	} else if e.Upgrade != nil {
		bundle = e.Upgrade.CurrentBundle()
	}
	return fmt.Sprintf("failed to apply migration of %s to %s: %v", bundle, e.FilePath, e.Err)
}

func (e *MigrationApplyError) Unwrap() error { return e.Err }
