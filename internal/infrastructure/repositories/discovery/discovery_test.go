//go:build unit

package discovery_test

import (
	"time"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	doubles "github.com/rios0rios0/bundlemigrate/test/infrastructure/repositorydoubles"
)

const taskRepo = "registry.example.com/tasks/task-clone"

func bundleTag(name, digest string, seq int) entities.TagInfo {
	return entities.TagInfo{
		Name:    name,
		Digest:  digest,
		StartTS: time.Unix(int64(1000+seq*10), 0),
	}
}

// bundleManifest builds a release manifest; annotations may be nil.
func bundleManifest(annotations map[string]string) *entities.Manifest {
	return &entities.Manifest{Annotations: annotations}
}

// migrationReferrer builds a referrer descriptor annotated as a migration.
func migrationReferrer(digest string) entities.Descriptor {
	return entities.Descriptor{
		ArtifactType: entities.MigrationArtifactType,
		Digest:       digest,
		Annotations:  map[string]string{entities.AnnotationIsMigration: "true"},
	}
}

// seedScriptArtifact stores a single-layer migration artifact whose layer
// blob is the script body.
func seedScriptArtifact(registry *doubles.SpyBundleRegistry, digest, script string) {
	if registry.Manifests == nil {
		registry.Manifests = make(map[string]*entities.Manifest)
	}
	if registry.Blobs == nil {
		registry.Blobs = make(map[string][]byte)
	}
	blobDigest := digest + "-layer"
	registry.Manifests[digest] = &entities.Manifest{
		ArtifactType: entities.MigrationArtifactType,
		Layers:       []entities.Descriptor{{Digest: blobDigest}},
	}
	registry.Blobs[blobDigest] = []byte(script)
}

func scriptsOf(migrations []*entities.TaskBundleMigration) []string {
	scripts := make([]string, 0, len(migrations))
	for _, migration := range migrations {
		scripts = append(scripts, migration.Script)
	}
	return scripts
}
