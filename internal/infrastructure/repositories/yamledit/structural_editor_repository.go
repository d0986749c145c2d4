// Package yamledit repairs pipeline files after unstructured text edits by
// round-tripping them through a comment-preserving YAML document model.
package yamledit

import (
	"bytes"
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

const yamlIndent = 2

// StructuralEditorRepository implements repositories.StructuralEditor with a
// yaml.Node round trip: comments and key order survive, formatting drift
// introduced by raw text substitution does not.
type StructuralEditorRepository struct{}

// NewStructuralEditorRepository creates a new structural editor.
func NewStructuralEditorRepository() repositories.StructuralEditor {
	return &StructuralEditorRepository{}
}

// Normalize re-parses and re-serializes the file in place.
func (it *StructuralEditorRepository) Normalize(path string) error {
	info, err := os.Stat(path)
	if err != nil {
		return fmt.Errorf("failed to stat %s: %w", path, err)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", path, err)
	}

	var document yaml.Node
	if unmarshalErr := yaml.Unmarshal(data, &document); unmarshalErr != nil {
		return fmt.Errorf("failed to parse %s: %w", path, unmarshalErr)
	}
	if document.Kind == 0 {
		return nil // empty document, nothing to normalize
	}

	var buffer bytes.Buffer
	encoder := yaml.NewEncoder(&buffer)
	encoder.SetIndent(yamlIndent)
	if encodeErr := encoder.Encode(&document); encodeErr != nil {
		return fmt.Errorf("failed to re-serialize %s: %w", path, encodeErr)
	}
	if closeErr := encoder.Close(); closeErr != nil {
		return fmt.Errorf("failed to finalize %s: %w", path, closeErr)
	}

	if writeErr := os.WriteFile(path, buffer.Bytes(), info.Mode()); writeErr != nil {
		return fmt.Errorf("failed to write %s: %w", path, writeErr)
	}
	return nil
}
