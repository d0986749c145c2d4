// Package discovery provides the migration discovery strategies: given an
// upgrade and its resolved release range, each yields the attached
// migrations in registry order (newest first).
package discovery

import (
	"context"
	"fmt"

	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// fetchAttachedMigration fetches the migration script attached to one bundle
// release through the referrers API, enforcing the at-most-one-migration
// invariant. Returns nil (no error) when no matching referrer exists.
func fetchAttachedMigration(
	ctx context.Context,
	registry repositories.BundleRegistry,
	repo string,
	tag entities.TagInfo,
) (*entities.TaskBundleMigration, error) {
	referrers, err := registry.ListReferrers(ctx, repo, tag.Digest, entities.MigrationArtifactType)
	if err != nil {
		return nil, fmt.Errorf("failed to list referrers of %s@%s: %w", repo, tag.Digest, err)
	}

	bundleRef := repo + ":" + tag.Name + "@" + tag.Digest

	var matches []entities.Descriptor
	for _, referrer := range referrers {
		if entities.IsTruthy(referrer.Annotations[entities.AnnotationIsMigration]) {
			matches = append(matches, referrer)
		}
	}
	switch {
	case len(matches) == 0:
		logger.Warnf("Bundle %s is annotated as having a migration but none is attached", bundleRef)
		return nil, nil
	case len(matches) > 1:
		return nil, &entities.AmbiguousMigrationAttachmentError{BundleRef: bundleRef, Count: len(matches)}
	}

	script, err := fetchScript(ctx, registry, repo, matches[0].Digest)
	if err != nil {
		return nil, err
	}
	return entities.NewTaskBundleMigration(bundleRef, script), nil
}

// fetchScript reads the script body of a migration artifact: its manifest's
// single layer blob.
func fetchScript(
	ctx context.Context,
	registry repositories.BundleRegistry,
	repo, digest string,
) (string, error) {
	manifest, err := registry.GetManifest(ctx, repo, digest)
	if err != nil {
		return "", fmt.Errorf("failed to fetch migration manifest %s@%s: %w", repo, digest, err)
	}
	if len(manifest.Layers) == 0 {
		return "", fmt.Errorf("migration artifact %s@%s has no layers", repo, digest)
	}

	blob, err := registry.GetBlob(ctx, repo, manifest.Layers[0].Digest)
	if err != nil {
		return "", fmt.Errorf("failed to fetch migration script %s@%s: %w", repo, digest, err)
	}
	return string(blob), nil
}
