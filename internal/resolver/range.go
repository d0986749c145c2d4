// Package resolver computes the ordered set of intermediate bundle releases
// between an upgrade's current and new reference, and coordinates migration
// discovery for many upgrades concurrently.
package resolver

import (
	"context"
	"fmt"
	"regexp"
	"sort"

	"github.com/Masterminds/semver/v3"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	"github.com/rios0rios0/bundlemigrate/internal/domain/repositories"
)

// bundleTagPattern matches the "<version>-<revision>" bundle tag naming
// convention, e.g. "0.3-2" or "0.1-a".
var bundleTagPattern = regexp.MustCompile(`^([0-9]+(?:\.[0-9]+)*)-([0-9a-zA-Z]+)$`)

// taggedVersion pairs a tag with its parsed version part.
type taggedVersion struct {
	tag     entities.TagInfo
	version *semver.Version
}

// RangeResolver computes, for one upgrade, the releases strictly between
// new (inclusive) and current (exclusive) from the registry tag history.
// Read-only: it never mutates the upgrade.
type RangeResolver struct {
	registry repositories.BundleRegistry
}

// NewRangeResolver creates a new RangeResolver backed by the given registry.
func NewRangeResolver(registry repositories.BundleRegistry) *RangeResolver {
	return &RangeResolver{registry: registry}
}

// Resolve returns the ordered range for the upgrade, newest first. An empty
// range signals the caller to skip the upgrade rather than fail the batch:
// an absent current or new tag is an ambiguous state (possibly a tag scheme
// this legacy analysis cannot parse), not an error.
func (it *RangeResolver) Resolve(
	ctx context.Context,
	upgrade *entities.TaskBundleUpgrade,
) ([]entities.TagInfo, error) {
	tags, err := it.registry.ListTags(ctx, upgrade.DepName, "", 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list tags for %s: %w", upgrade.DepName, err)
	}
	if len(tags) == 0 {
		logger.Warnf("No tags found for %s, nothing to migrate", upgrade.DepName)
		return nil, nil
	}

	parsed := parseBundleTags(tags)
	cleaned, currentVersion, outOfOrder := dropOutOfOrderVersions(parsed, upgrade.CurrentDigest)

	// Back to the registry's native order, newest first by timestamp. The
	// sort is stable so registries without per-tag timestamps keep the
	// listing order they returned.
	sort.SliceStable(cleaned, func(i, j int) bool {
		return cleaned[i].tag.StartTS.After(cleaned[j].tag.StartTS)
	})

	newPos := indexOfDigest(cleaned, upgrade.NewDigest)
	if newPos < 0 {
		logger.Warnf(
			"New bundle %s not found in tag history of %s, skipping upgrade",
			upgrade.NewDigest, upgrade.DepName,
		)
		return nil, nil
	}

	if outOfOrder {
		// Current is newer than the version trend (a deliberate downgrade
		// or backport). Cut at the version boundary, not at a position.
		return versionBoundaryCut(cleaned, currentVersion), nil
	}

	currentPos := indexOfDigest(cleaned, upgrade.CurrentDigest)
	if currentPos < 0 {
		logger.Warnf(
			"Current bundle %s not found in tag history of %s, skipping upgrade",
			upgrade.CurrentDigest, upgrade.DepName,
		)
		return nil, nil
	}
	if newPos > currentPos {
		logger.Warnf(
			"New bundle of %s predates the current one in the tag history, skipping upgrade",
			upgrade.DepName,
		)
		return nil, nil
	}

	rng := make([]entities.TagInfo, 0, currentPos-newPos)
	for _, tv := range cleaned[newPos:currentPos] {
		rng = append(rng, tv.tag)
	}
	return rng, nil
}

// parseBundleTags keeps only tags matching the bundle naming convention and
// pairs them with their parsed version. Malformed versions are logged and
// skipped, never fatal. The given (newest-first) order is preserved.
func parseBundleTags(tags []entities.TagInfo) []taggedVersion {
	parsed := make([]taggedVersion, 0, len(tags))
	for _, tag := range tags {
		match := bundleTagPattern.FindStringSubmatch(tag.Name)
		if match == nil {
			continue
		}
		version, err := semver.NewVersion(match[1])
		if err != nil {
			logger.Warnf("Skipping tag %q: unparseable version %q: %v", tag.Name, match[1], err)
			continue
		}
		parsed = append(parsed, taggedVersion{tag: tag, version: version})
	}
	return parsed
}

// dropOutOfOrderVersions walks the history oldest to newest and drops tags
// whose version is lower than the highest version seen so far (later builds
// of an already-superseded version, e.g. a deprecated backport). The tag
// matching currentDigest is still located; if it was dropped, outOfOrder is
// true. The kept tags come back in the given newest-first order.
func dropOutOfOrderVersions(
	parsed []taggedVersion,
	currentDigest string,
) (cleaned []taggedVersion, currentVersion *semver.Version, outOfOrder bool) {
	keep := make([]bool, len(parsed))
	var highest *semver.Version

	for i := len(parsed) - 1; i >= 0; i-- { // oldest first
		tv := parsed[i]
		if tv.tag.Digest == currentDigest && currentVersion == nil {
			currentVersion = tv.version
		}
		if highest != nil && tv.version.LessThan(highest) {
			if tv.tag.Digest == currentDigest {
				outOfOrder = true
			}
			continue
		}
		keep[i] = true
		if highest == nil || tv.version.GreaterThan(highest) {
			highest = tv.version
		}
	}

	cleaned = make([]taggedVersion, 0, len(parsed))
	for i, tv := range parsed {
		if keep[i] {
			cleaned = append(cleaned, tv)
		}
	}
	return cleaned, currentVersion, outOfOrder
}

// versionBoundaryCut takes tags from the newest end until the current
// version is reached, keeping every tag whose version differs from it.
func versionBoundaryCut(cleaned []taggedVersion, currentVersion *semver.Version) []entities.TagInfo {
	if currentVersion == nil {
		return nil
	}
	var rng []entities.TagInfo
	for _, tv := range cleaned {
		if tv.version.Equal(currentVersion) {
			break
		}
		rng = append(rng, tv.tag)
	}
	return rng
}

// indexOfDigest returns the position of the tag with the given manifest
// digest, or -1.
func indexOfDigest(cleaned []taggedVersion, digest string) int {
	for i, tv := range cleaned {
		if tv.tag.Digest == digest {
			return i
		}
	}
	return -1
}
