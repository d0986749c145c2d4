package discovery

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

const imagesStrategyName = "images"

// MigrationTagFilter is the tag glob that selects dedicated migration
// artifacts in a bundle repository.
const MigrationTagFilter = "migration-*"

// migrationTagPattern parses "migration-<version>-<sha256 checksum>-<timestamp>".
var migrationTagPattern = regexp.MustCompile(`^migration-([0-9]+(?:\.[0-9]+)*)-([0-9a-f]{64})-([0-9]+)$`)

// migrationImage is one parsed migration tag.
type migrationImage struct {
	tag      entities.TagInfo
	version  *semver.Version
	checksum string
}

// MigrationImagesStrategy discovers migrations published as dedicated OCI
// artifacts under migration-* tags, selected by the open-lower/closed-upper
// version interval (current, new].
type MigrationImagesStrategy struct {
	registry repositories.BundleRegistry
}

// NewMigrationImagesStrategy creates the strategy.
func NewMigrationImagesStrategy(registry repositories.BundleRegistry) repositories.DiscoveryStrategy {
	return &MigrationImagesStrategy{registry: registry}
}

func (it *MigrationImagesStrategy) Name() string { return imagesStrategyName }

// Discover lists migration tags, keeps those inside the upgrade's version
// interval, and returns their scripts sorted newest version first. A version
// republished with a different checksum is a data-integrity violation; a
// duplicate republish with the same checksum is an idempotent no-op.
func (it *MigrationImagesStrategy) Discover(
	ctx context.Context,
	upgrade *entities.TaskBundleUpgrade,
	_ []entities.TagInfo,
) ([]*entities.TaskBundleMigration, error) {
	currentVersion, err := parseValueVersion(upgrade.CurrentValue)
	if err != nil {
		return nil, err
	}
	newVersion, err := parseValueVersion(upgrade.NewValue)
	if err != nil {
		return nil, err
	}

	tags, err := it.registry.ListTags(ctx, upgrade.DepName, MigrationTagFilter, 0)
	if err != nil {
		return nil, fmt.Errorf("failed to list migration tags for %s: %w", upgrade.DepName, err)
	}

	images, err := it.selectInterval(upgrade.DepName, tags, currentVersion, newVersion)
	if err != nil {
		return nil, err
	}

	// Producer order is newest first; the coordinator reverses once into
	// chronological order.
	sort.SliceStable(images, func(i, j int) bool {
		return images[i].version.GreaterThan(images[j].version)
	})

	migrations := make([]*entities.TaskBundleMigration, 0, len(images))
	for _, image := range images {
		script, fetchErr := fetchScript(ctx, it.registry, upgrade.DepName, image.tag.Digest)
		if fetchErr != nil {
			return nil, fetchErr
		}
		bundleRef := upgrade.DepName + ":" + image.tag.Name + "@" + image.tag.Digest
		logger.Debugf("[%s] Found migration image %s", imagesStrategyName, bundleRef)
		migrations = append(migrations, entities.NewTaskBundleMigration(bundleRef, script))
	}
	return migrations, nil
}

// selectInterval parses the migration tags and keeps one image per version
// inside (current, new].
func (it *MigrationImagesStrategy) selectInterval(
	depName string,
	tags []entities.TagInfo,
	currentVersion, newVersion *semver.Version,
) ([]migrationImage, error) {
	byVersion := make(map[string]migrationImage)
	var images []migrationImage

	for _, tag := range tags {
		match := migrationTagPattern.FindStringSubmatch(tag.Name)
		if match == nil {
			logger.Debugf("[%s] Ignoring tag %q: not a migration image", imagesStrategyName, tag.Name)
			continue
		}
		version, parseErr := semver.NewVersion(match[1])
		if parseErr != nil {
			logger.Warnf("[%s] Skipping tag %q: unparseable version: %v", imagesStrategyName, tag.Name, parseErr)
			continue
		}
		if !version.GreaterThan(currentVersion) || version.GreaterThan(newVersion) {
			continue
		}

		checksum := match[2]
		key := version.String()
		if existing, ok := byVersion[key]; ok {
			if existing.checksum != checksum {
				return nil, &entities.ModifiedMigrationError{
					DepName:  depName,
					Version:  match[1],
					Checksum: checksum,
					Existing: existing.checksum,
				}
			}
			// Idempotent republish of the same content.
			continue
		}

		image := migrationImage{tag: tag, version: version, checksum: checksum}
		byVersion[key] = image
		images = append(images, image)
	}

	return images, nil
}

// parseValueVersion parses an upgrade's version string coercively.
func parseValueVersion(value string) (*semver.Version, error) {
	version, err := semver.NewVersion(value)
	if err != nil {
		return nil, fmt.Errorf("unparseable bundle version %q: %w", value, err)
	}
	return version, nil
}
