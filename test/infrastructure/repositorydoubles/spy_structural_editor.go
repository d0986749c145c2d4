//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// SpyStructuralEditor implements repositories.StructuralEditor as a spy.
type SpyStructuralEditor struct {
	Err error

	// spy: paths normalized
	Normalized []string
}

var _ repositories.StructuralEditor = (*SpyStructuralEditor)(nil)

func (e *SpyStructuralEditor) Normalize(path string) error {
	e.Normalized = append(e.Normalized, path)
	return e.Err
}
