// Package collector turns raw, possibly duplicated upgrade descriptors into
// a deduplicated set of task-bundle upgrades grouped by package file. Pure
// in-memory transform, no network access.
package collector

import (
	"encoding/json"
	"fmt"

	"github.com/hashicorp/go-multierror"
	logger "github.com/sirupsen/logrus"

	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
)

// Collection is the collector output: the package-file groupings plus the
// distinct upgrade set they share references into.
type Collection struct {
	PackageFiles []*entities.PackageFile
	Upgrades     []*entities.TaskBundleUpgrade
}

// Collector deduplicates upgrade descriptors by current-bundle identity.
type Collector struct{}

// NewCollector creates a new Collector.
func NewCollector() *Collector {
	return &Collector{}
}

// ParseDescriptors decodes a JSON list of Renovate-style upgrade records.
func ParseDescriptors(data []byte) ([]entities.UpgradeDescriptor, error) {
	var descriptors []entities.UpgradeDescriptor
	if err := json.Unmarshal(data, &descriptors); err != nil {
		return nil, fmt.Errorf("failed to parse upgrade descriptors: %w", err)
	}
	return descriptors, nil
}

// Collect groups descriptors by package file and builds or reuses one
// TaskBundleUpgrade per current-bundle identity, so the same upgrade
// appearing in multiple package files is resolved exactly once. Rejected
// descriptors are aggregated into the returned error; valid siblings still
// proceed.
func (it *Collector) Collect(descriptors []entities.UpgradeDescriptor) (*Collection, error) {
	collection := &Collection{}
	filesByPath := make(map[string]*entities.PackageFile)
	upgradesByBundle := make(map[string]*entities.TaskBundleUpgrade)

	var errs *multierror.Error

	for _, descriptor := range descriptors {
		if !descriptor.IsManaged() {
			logger.Debugf(
				"Skipping %q in %s: not a managed task-bundle dependency",
				descriptor.DepName, descriptor.PackageFile,
			)
			continue
		}

		upgrade, err := entities.NewTaskBundleUpgrade(descriptor)
		if err != nil {
			errs = multierror.Append(errs, err)
			continue
		}

		if existing, ok := upgradesByBundle[upgrade.CurrentBundle()]; ok {
			upgrade = existing
		} else {
			upgradesByBundle[upgrade.CurrentBundle()] = upgrade
			collection.Upgrades = append(collection.Upgrades, upgrade)
		}

		pkgFile, ok := filesByPath[descriptor.PackageFile]
		if !ok {
			pkgFile = &entities.PackageFile{
				FilePath:  descriptor.PackageFile,
				ParentDir: descriptor.ParentDir,
			}
			filesByPath[descriptor.PackageFile] = pkgFile
			collection.PackageFiles = append(collection.PackageFiles, pkgFile)
		}

		if !referencesUpgrade(pkgFile, upgrade) {
			pkgFile.Upgrades = append(pkgFile.Upgrades, upgrade)
		}
	}

	return collection, errs.ErrorOrNil()
}

// referencesUpgrade reports whether the package file already holds a
// reference to the given upgrade instance.
func referencesUpgrade(pkgFile *entities.PackageFile, upgrade *entities.TaskBundleUpgrade) bool {
	for _, u := range pkgFile.Upgrades {
		if u == upgrade {
			return true
		}
	}
	return false
}
