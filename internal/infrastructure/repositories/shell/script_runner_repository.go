// Package shell runs migration scripts as external processes.
package shell

import (
	"context"
	"fmt"
	"os/exec"
	"path/filepath"

	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// ScriptRunnerRepository implements repositories.ScriptRunner by invoking
// the staged script through bash with the pipeline file as its argument.
type ScriptRunnerRepository struct{}

// NewScriptRunnerRepository creates a new shell-based script runner.
func NewScriptRunnerRepository() repositories.ScriptRunner {
	return &ScriptRunnerRepository{}
}

// Run executes the script against the pipeline file and returns the combined
// output. A non-zero exit is a failure; the output is returned either way.
func (it *ScriptRunnerRepository) Run(ctx context.Context, scriptPath, pipelinePath string) (string, error) {
	cmd := exec.CommandContext(ctx, "bash", scriptPath, pipelinePath)
	cmd.Dir = filepath.Dir(pipelinePath)

	output, err := cmd.CombinedOutput()
	if err != nil {
		return string(output), fmt.Errorf(
			"migration script failed against %s: %w", filepath.Base(pipelinePath), err,
		)
	}
	return string(output), nil
}
