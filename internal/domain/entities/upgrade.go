package entities

import (
	"regexp"
)

// DepTypeTaskBundle is the dependency-kind marker that identifies descriptor
// rows managed by this tool. Rows without it belong to another manager.
const DepTypeTaskBundle = "task-bundle"

var digestPattern = regexp.MustCompile(`^sha256:[0-9a-f]+$`)

// UpgradeDescriptor is one raw upgrade record as emitted by Renovate.
type UpgradeDescriptor struct {
	DepName       string   `json:"depName"`
	CurrentValue  string   `json:"currentValue"`
	CurrentDigest string   `json:"currentDigest"`
	NewValue      string   `json:"newValue"`
	NewDigest     string   `json:"newDigest"`
	DepTypes      []string `json:"depTypes"`
	PackageFile   string   `json:"packageFile"`
	ParentDir     string   `json:"parentDir"`
}

// IsManaged returns true if the descriptor carries the managed
// dependency-kind marker in its depTypes.
func (d UpgradeDescriptor) IsManaged() bool {
	for _, t := range d.DepTypes {
		if t == DepTypeTaskBundle {
			return true
		}
	}
	return false
}

// TaskBundleUpgrade is one deduplicated bundle upgrade: a change from a
// "current" task-bundle reference to a "new" one. Exactly one resolution
// task appends to Migrations and reverses it once to chronological order;
// after that the entity is read-only.
type TaskBundleUpgrade struct {
	DepName       string
	CurrentValue  string
	CurrentDigest string
	NewValue      string
	NewDigest     string
	Migrations    []*TaskBundleMigration
}

// NewTaskBundleUpgrade validates and builds a TaskBundleUpgrade from a raw
// descriptor. Invalid descriptors are rejected with InvalidUpgradeDataError.
func NewTaskBundleUpgrade(d UpgradeDescriptor) (*TaskBundleUpgrade, error) {
	switch {
	case d.DepName == "":
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "depName is empty"}
	case d.CurrentValue == "":
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "currentValue is empty"}
	case d.NewValue == "":
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "newValue is empty"}
	case !digestPattern.MatchString(d.CurrentDigest):
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "currentDigest is not a content digest"}
	case !digestPattern.MatchString(d.NewDigest):
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "newDigest is not a content digest"}
	case d.CurrentValue == d.NewValue && d.CurrentDigest == d.NewDigest:
		return nil, &InvalidUpgradeDataError{DepName: d.DepName, Reason: "current and new bundle are identical"}
	}

	return &TaskBundleUpgrade{
		DepName:       d.DepName,
		CurrentValue:  d.CurrentValue,
		CurrentDigest: d.CurrentDigest,
		NewValue:      d.NewValue,
		NewDigest:     d.NewDigest,
	}, nil
}

// CurrentBundle returns the identity/dedup key of this upgrade.
func (u *TaskBundleUpgrade) CurrentBundle() string {
	return u.DepName + ":" + u.CurrentValue + "@" + u.CurrentDigest
}

// NewBundle returns the target bundle reference string.
func (u *TaskBundleUpgrade) NewBundle() string {
	return u.DepName + ":" + u.NewValue + "@" + u.NewDigest
}

// AddMigration appends a discovered migration. Migrations arrive in
// registry order (newest first); call SortMigrationsChronologically once
// discovery is done.
func (u *TaskBundleUpgrade) AddMigration(m *TaskBundleMigration) {
	u.Migrations = append(u.Migrations, m)
}

// SortMigrationsChronologically reverses the migration list from registry
// order (newest first) into application order (oldest first).
func (u *TaskBundleUpgrade) SortMigrationsChronologically() {
	for i, j := 0, len(u.Migrations)-1; i < j; i, j = i+1, j-1 {
		u.Migrations[i], u.Migrations[j] = u.Migrations[j], u.Migrations[i]
	}
}

// PackageFile is one pipeline definition file together with the upgrades
// that reference it. Upgrades are shared with other package files, never
// owned: resolving an upgrade once services every referencing file.
type PackageFile struct {
	FilePath  string
	ParentDir string
	Upgrades  []*TaskBundleUpgrade
}
