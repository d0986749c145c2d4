package entities

import "time"

// Annotation keys used on bundle manifests and migration referrers.
const (
	// AnnotationHasMigration marks a bundle release that carries a
	// migration artifact.
	AnnotationHasMigration = "has-migration"

	// AnnotationIsMigration marks a referrer descriptor as the migration
	// attachment itself.
	AnnotationIsMigration = "is-migration"

	// AnnotationPreviousMigrationBundle points (by digest) at the previous
	// bundle release that carries a migration, or is empty at the chain end.
	AnnotationPreviousMigrationBundle = "previous-migration-bundle"
)

// MigrationArtifactType is the artifact type under which migration scripts
// are attached to bundle releases.
const MigrationArtifactType = "text/x-shellscript"

// IsTruthy reports whether an annotation value marks a positive flag.
func IsTruthy(value string) bool {
	return value == "true"
}

// TagInfo is one point in a repository's remote tag history. Ordering is
// registry-defined (typically newest first).
type TagInfo struct {
	Name    string
	Digest  string
	StartTS time.Time
}

// Descriptor references a manifest or blob by digest.
type Descriptor struct {
	MediaType    string
	ArtifactType string
	Digest       string
	Size         int64
	Annotations  map[string]string
}

// Manifest is the queried view of an OCI manifest: only the fields the
// migration engine needs.
type Manifest struct {
	ArtifactType string
	Annotations  map[string]string
	Config       Descriptor
	Layers       []Descriptor
}
