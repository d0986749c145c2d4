// Package oci implements the bundle-registry collaborator contract against
// a real OCI registry.
package oci

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"path"
	"sort"
	"time"

	"github.com/google/go-containerregistry/pkg/authn"
	"github.com/google/go-containerregistry/pkg/name"
	v1 "github.com/google/go-containerregistry/pkg/v1"
	"github.com/google/go-containerregistry/pkg/v1/remote"
	specsv1 "github.com/opencontainers/image-spec/specs-go/v1"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// BundleRegistryRepository implements repositories.BundleRegistry over the
// OCI distribution API using the local keychain for authentication.
type BundleRegistryRepository struct {
	options []remote.Option
}

// NewBundleRegistryRepository creates a registry client authenticated from
// the default keychain (docker config, credential helpers).
func NewBundleRegistryRepository() repositories.BundleRegistry {
	return &BundleRegistryRepository{
		options: []remote.Option{remote.WithAuthFromKeychain(authn.DefaultKeychain)},
	}
}

// ListTags lists the repository tags and returns them newest first. The
// distribution API carries no per-tag timestamp, so the start timestamp is
// derived from the image config's created field, falling back to the
// standard created annotation; tags without either keep the listing order.
func (it *BundleRegistryRepository) ListTags(
	ctx context.Context,
	repo, nameFilter string,
	limit int,
) ([]entities.TagInfo, error) {
	repository, err := name.NewRepository(repo)
	if err != nil {
		return nil, fmt.Errorf("invalid repository %q: %w", repo, err)
	}

	names, err := remote.List(repository, it.withContext(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags of %s: %w", repo, err)
	}

	filtered := filterTagNames(names, nameFilter, limit)

	infos := make([]entities.TagInfo, 0, len(filtered))
	for _, tagName := range filtered {
		descriptor, getErr := remote.Get(repository.Tag(tagName), it.withContext(ctx)...)
		if getErr != nil {
			return nil, fmt.Errorf("failed to resolve tag %s:%s: %w", repo, tagName, getErr)
		}
		infos = append(infos, entities.TagInfo{
			Name:    tagName,
			Digest:  descriptor.Digest.String(),
			StartTS: tagStartTime(descriptor),
		})
	}

	sortNewestFirst(infos)
	return infos, nil
}

// GetManifest fetches a manifest by digest and adapts it to the domain view.
func (it *BundleRegistryRepository) GetManifest(
	ctx context.Context,
	repo, digest string,
) (*entities.Manifest, error) {
	reference, err := name.NewDigest(repo + "@" + digest)
	if err != nil {
		return nil, fmt.Errorf("invalid digest reference %s@%s: %w", repo, digest, err)
	}

	descriptor, err := remote.Get(reference, it.withContext(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch manifest %s@%s: %w", repo, digest, err)
	}

	manifest, err := v1.ParseManifest(bytes.NewReader(descriptor.Manifest))
	if err != nil {
		return nil, fmt.Errorf("failed to parse manifest %s@%s: %w", repo, digest, err)
	}

	adapted := &entities.Manifest{
		Annotations: manifest.Annotations,
		Config:      adaptDescriptor(manifest.Config),
		Layers:      make([]entities.Descriptor, 0, len(manifest.Layers)),
	}
	for _, layer := range manifest.Layers {
		adapted.Layers = append(adapted.Layers, adaptDescriptor(layer))
	}
	return adapted, nil
}

// ListReferrers queries the referrers API for artifacts whose subject is the
// given digest, keeping only the requested artifact type.
func (it *BundleRegistryRepository) ListReferrers(
	ctx context.Context,
	repo, digest, artifactType string,
) ([]entities.Descriptor, error) {
	reference, err := name.NewDigest(repo + "@" + digest)
	if err != nil {
		return nil, fmt.Errorf("invalid digest reference %s@%s: %w", repo, digest, err)
	}

	index, err := remote.Referrers(reference, it.withContext(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrers of %s@%s: %w", repo, digest, err)
	}

	manifest, err := index.IndexManifest()
	if err != nil {
		return nil, fmt.Errorf("failed to read referrers index of %s@%s: %w", repo, digest, err)
	}

	var referrers []entities.Descriptor
	for _, descriptor := range manifest.Manifests {
		if artifactType != "" && descriptor.ArtifactType != artifactType {
			continue
		}
		referrers = append(referrers, adaptDescriptor(descriptor))
	}
	return referrers, nil
}

// GetBlob fetches a blob by digest.
func (it *BundleRegistryRepository) GetBlob(
	ctx context.Context,
	repo, digest string,
) ([]byte, error) {
	reference, err := name.NewDigest(repo + "@" + digest)
	if err != nil {
		return nil, fmt.Errorf("invalid digest reference %s@%s: %w", repo, digest, err)
	}

	layer, err := remote.Layer(reference, it.withContext(ctx)...)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch blob %s@%s: %w", repo, digest, err)
	}

	reader, err := layer.Compressed()
	if err != nil {
		return nil, fmt.Errorf("failed to open blob %s@%s: %w", repo, digest, err)
	}
	defer func() {
		if closeErr := reader.Close(); closeErr != nil {
			logger.Warnf("Failed to close blob reader for %s@%s: %v", repo, digest, closeErr)
		}
	}()

	data, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("failed to read blob %s@%s: %w", repo, digest, err)
	}
	return data, nil
}

// withContext appends the per-call context to the client options.
func (it *BundleRegistryRepository) withContext(ctx context.Context) []remote.Option {
	return append(append([]remote.Option(nil), it.options...), remote.WithContext(ctx))
}

// filterTagNames applies the optional glob filter and count cap.
func filterTagNames(names []string, nameFilter string, limit int) []string {
	filtered := make([]string, 0, len(names))
	for _, tagName := range names {
		if nameFilter != "" {
			matched, matchErr := path.Match(nameFilter, tagName)
			if matchErr != nil || !matched {
				continue
			}
		}
		filtered = append(filtered, tagName)
		if limit > 0 && len(filtered) >= limit {
			break
		}
	}
	return filtered
}

// tagStartTime derives a tag's timestamp from the image config, falling back
// to the standard created annotation.
func tagStartTime(descriptor *remote.Descriptor) time.Time {
	if image, err := descriptor.Image(); err == nil {
		if config, cfgErr := image.ConfigFile(); cfgErr == nil && !config.Created.IsZero() {
			return config.Created.Time
		}
	}
	if created, ok := descriptor.Annotations[specsv1.AnnotationCreated]; ok {
		if parsed, parseErr := time.Parse(time.RFC3339, created); parseErr == nil {
			return parsed
		}
	}
	return time.Time{}
}

// sortNewestFirst orders tags by timestamp descending, keeping the listing
// order for equal (or missing) timestamps.
func sortNewestFirst(infos []entities.TagInfo) {
	sort.SliceStable(infos, func(i, j int) bool {
		return infos[i].StartTS.After(infos[j].StartTS)
	})
}

// adaptDescriptor maps a go-containerregistry descriptor to the domain type.
func adaptDescriptor(descriptor v1.Descriptor) entities.Descriptor {
	return entities.Descriptor{
		MediaType:    string(descriptor.MediaType),
		ArtifactType: descriptor.ArtifactType,
		Digest:       descriptor.Digest.String(),
		Size:         descriptor.Size,
		Annotations:  descriptor.Annotations,
	}
}
