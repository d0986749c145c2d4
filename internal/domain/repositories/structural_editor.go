package repositories

// StructuralEditor re-normalizes a pipeline file through a structural
// (comment-preserving) YAML round trip, repairing formatting drift left by
// unstructured text substitution.
type StructuralEditor interface {
	Normalize(path string) error
}
