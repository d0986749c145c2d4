package repositories

import (
	"context"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
)

// BundleRegistry abstracts the versioned store task bundles live in (an OCI
// registry). The engine only consumes these query contracts; the transport
// is an external collaborator.
type BundleRegistry interface {
	// ListTags returns the tag history of a repository, newest first.
	// nameFilter is an optional glob (e.g. "migration-*"); limit > 0 caps
	// the number of returned tags for cheap existence probes.
	ListTags(ctx context.Context, repo, nameFilter string, limit int) ([]entities.TagInfo, error)

	// GetManifest fetches a manifest by digest.
	GetManifest(ctx context.Context, repo, digest string) (*entities.Manifest, error)

	// ListReferrers returns the descriptors of artifacts that declare the
	// given digest as their subject, filtered by artifact type.
	ListReferrers(ctx context.Context, repo, digest, artifactType string) ([]entities.Descriptor, error)

	// GetBlob fetches a blob by digest.
	GetBlob(ctx context.Context, repo, digest string) ([]byte, error)
}
