package repositories

import "context"

// ScriptRunner executes one migration script against one pipeline file in a
// sandboxed external process. Non-zero exit is a failure; the combined
// output is returned either way.
type ScriptRunner interface {
	Run(ctx context.Context, scriptPath, pipelinePath string) (string, error)
}
