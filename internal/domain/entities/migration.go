package entities

import (
	"regexp"
)

// modifyCommandPattern matches invocations of the structural editor's
// in-place "modify" command inside a migration script body. Scripts built
// entirely from these commands perform precise, format-preserving edits and
// do not need the whole-document re-normalization safety net.
var modifyCommandPattern = regexp.MustCompile(`(?m)(^|[\s;&|])pipeline-edit\s+modify\b`)

// TaskBundleMigration is one migration script attached to a specific
// task-bundle release. Immutable once constructed.
type TaskBundleMigration struct {
	TaskBundleRef string
	Script        string

	usesModifyCommand bool
}

// NewTaskBundleMigration builds a migration and derives whether its script
// uses the structural modify-command style.
func NewTaskBundleMigration(taskBundleRef, script string) *TaskBundleMigration {
	return &TaskBundleMigration{
		TaskBundleRef:     taskBundleRef,
		Script:            script,
		usesModifyCommand: modifyCommandPattern.MatchString(script),
	}
}

// UsesModifyCommand reports whether the script edits the pipeline through
// the structural editor's modify command only.
func (m *TaskBundleMigration) UsesModifyCommand() bool {
	return m.usesModifyCommand
}
