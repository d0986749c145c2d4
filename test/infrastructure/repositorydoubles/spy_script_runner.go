//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"os"

	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// ScriptRunCall records one script invocation, including the staged script
// body (read before the applier removes the scratch file).
type ScriptRunCall struct {
	ScriptPath    string
	PipelinePath  string
	ScriptContent string
}

// SpyScriptRunner implements repositories.ScriptRunner as a configurable spy.
type SpyScriptRunner struct {
	// ErrByCall fails the nth invocation (1-based).
	ErrByCall map[int]error
	// Output is returned as the combined output of every call.
	Output string
	// Mutate, when set, is invoked with the pipeline path so tests can
	// simulate a script editing the file.
	Mutate func(pipelinePath string)

	// spy: invocations received
	Calls []ScriptRunCall
}

var _ repositories.ScriptRunner = (*SpyScriptRunner)(nil)

func (r *SpyScriptRunner) Run(_ context.Context, scriptPath, pipelinePath string) (string, error) {
	content, _ := os.ReadFile(scriptPath)
	r.Calls = append(r.Calls, ScriptRunCall{
		ScriptPath:    scriptPath,
		PipelinePath:  pipelinePath,
		ScriptContent: string(content),
	})

	if err, failing := r.ErrByCall[len(r.Calls)]; failing {
		return r.Output, err
	}
	if r.Mutate != nil {
		r.Mutate(pipelinePath)
	}
	return r.Output, nil
}
