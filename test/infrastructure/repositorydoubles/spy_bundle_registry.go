//go:build integration || unit || test

package repositorydoubles //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"context"
	"fmt"
	"path"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// SpyBundleRegistry implements repositories.BundleRegistry as a configurable
// spy. Configure the response fields for the methods your test exercises,
// then inspect the call-tracking fields to verify behavior.
type SpyBundleRegistry struct {
	// --- ListTags ---
	Tags    map[string][]entities.TagInfo // repo -> tag history (newest first)
	TagsErr error
	// spy: queries received
	ListedRepos   []string
	ListedFilters []string
	ListedLimits  []int

	// --- GetManifest ---
	Manifests   map[string]*entities.Manifest // digest -> manifest
	ManifestErr error
	// spy: digests fetched
	FetchedManifests []string

	// --- ListReferrers ---
	Referrers    map[string][]entities.Descriptor // subject digest -> referrers
	ReferrersErr error

	// --- GetBlob ---
	Blobs   map[string][]byte // digest -> content
	BlobErr error
}

var _ repositories.BundleRegistry = (*SpyBundleRegistry)(nil)

func (r *SpyBundleRegistry) ListTags(
	_ context.Context,
	repo, nameFilter string,
	limit int,
) ([]entities.TagInfo, error) {
	r.ListedRepos = append(r.ListedRepos, repo)
	r.ListedFilters = append(r.ListedFilters, nameFilter)
	r.ListedLimits = append(r.ListedLimits, limit)
	if r.TagsErr != nil {
		return nil, r.TagsErr
	}

	var result []entities.TagInfo
	for _, tag := range r.Tags[repo] {
		if nameFilter != "" {
			if matched, _ := path.Match(nameFilter, tag.Name); !matched {
				continue
			}
		}
		result = append(result, tag)
		if limit > 0 && len(result) >= limit {
			break
		}
	}
	return result, nil
}

func (r *SpyBundleRegistry) GetManifest(
	_ context.Context,
	repo, digest string,
) (*entities.Manifest, error) {
	r.FetchedManifests = append(r.FetchedManifests, digest)
	if r.ManifestErr != nil {
		return nil, r.ManifestErr
	}
	manifest, ok := r.Manifests[digest]
	if !ok {
		return nil, fmt.Errorf("manifest not found: %s@%s", repo, digest)
	}
	return manifest, nil
}

func (r *SpyBundleRegistry) ListReferrers(
	_ context.Context,
	_, digest, artifactType string,
) ([]entities.Descriptor, error) {
	if r.ReferrersErr != nil {
		return nil, r.ReferrersErr
	}
	var matches []entities.Descriptor
	for _, referrer := range r.Referrers[digest] {
		if artifactType != "" && referrer.ArtifactType != artifactType {
			continue
		}
		matches = append(matches, referrer)
	}
	return matches, nil
}

func (r *SpyBundleRegistry) GetBlob(
	_ context.Context,
	repo, digest string,
) ([]byte, error) {
	if r.BlobErr != nil {
		return nil, r.BlobErr
	}
	blob, ok := r.Blobs[digest]
	if !ok {
		return nil, fmt.Errorf("blob not found: %s@%s", repo, digest)
	}
	return blob, nil
}
