//go:build integration || unit || test

package entitybuilders //nolint:revive,staticcheck // Test package naming follows established project structure

import (
	"github.com/rios0rios0/bundlemigrate/internal/domain/entities"
	testkit "github.com/rios0rios0/testkit/pkg/test"
)

// UpgradeBuilder helps create test task-bundle upgrades with a fluent interface.
type UpgradeBuilder struct {
	*testkit.BaseBuilder
	depName       string
	currentValue  string
	currentDigest string
	newValue      string
	newDigest     string
	packageFile   string
	parentDir     string
}

// NewUpgradeBuilder creates a new upgrade builder with sensible defaults.
func NewUpgradeBuilder() *UpgradeBuilder {
	return &UpgradeBuilder{
		BaseBuilder:   testkit.NewBaseBuilder(),
		depName:       "registry.example.com/tasks/task-clone",
		currentValue:  "0.1",
		currentDigest: "sha256:" + repeatHex("1", 64),
		newValue:      "0.3",
		newDigest:     "sha256:" + repeatHex("3", 64),
		packageFile:   ".tekton/pipeline.yaml",
		parentDir:     ".tekton",
	}
}

// WithDepName sets the bundle repository name.
func (b *UpgradeBuilder) WithDepName(name string) *UpgradeBuilder {
	b.depName = name
	return b
}

// WithCurrent sets the current value and digest.
func (b *UpgradeBuilder) WithCurrent(value, digest string) *UpgradeBuilder {
	b.currentValue = value
	b.currentDigest = digest
	return b
}

// WithNew sets the new value and digest.
func (b *UpgradeBuilder) WithNew(value, digest string) *UpgradeBuilder {
	b.newValue = value
	b.newDigest = digest
	return b
}

// WithPackageFile sets the package file path and its parent dir.
func (b *UpgradeBuilder) WithPackageFile(path, parentDir string) *UpgradeBuilder {
	b.packageFile = path
	b.parentDir = parentDir
	return b
}

// Build creates the upgrade (satisfies testkit.Builder interface).
func (b *UpgradeBuilder) Build() interface{} {
	return b.BuildUpgrade()
}

// BuildDescriptor creates the raw descriptor form.
func (b *UpgradeBuilder) BuildDescriptor() entities.UpgradeDescriptor {
	return entities.UpgradeDescriptor{
		DepName:       b.depName,
		CurrentValue:  b.currentValue,
		CurrentDigest: b.currentDigest,
		NewValue:      b.newValue,
		NewDigest:     b.newDigest,
		DepTypes:      []string{entities.DepTypeTaskBundle},
		PackageFile:   b.packageFile,
		ParentDir:     b.parentDir,
	}
}

// BuildUpgrade creates the upgrade with a concrete return type.
func (b *UpgradeBuilder) BuildUpgrade() *entities.TaskBundleUpgrade {
	upgrade, err := entities.NewTaskBundleUpgrade(b.BuildDescriptor())
	if err != nil {
		panic(err) // builder defaults are always valid
	}
	return upgrade
}

// Reset clears the builder state, allowing it to be reused.
func (b *UpgradeBuilder) Reset() testkit.Builder {
	b.BaseBuilder.Reset()
	fresh := NewUpgradeBuilder()
	b.depName = fresh.depName
	b.currentValue = fresh.currentValue
	b.currentDigest = fresh.currentDigest
	b.newValue = fresh.newValue
	b.newDigest = fresh.newDigest
	b.packageFile = fresh.packageFile
	b.parentDir = fresh.parentDir
	return b
}

// Clone creates a deep copy of the UpgradeBuilder.
func (b *UpgradeBuilder) Clone() testkit.Builder {
	return &UpgradeBuilder{
		BaseBuilder:   b.BaseBuilder.Clone().(*testkit.BaseBuilder),
		depName:       b.depName,
		currentValue:  b.currentValue,
		currentDigest: b.currentDigest,
		newValue:      b.newValue,
		newDigest:     b.newDigest,
		packageFile:   b.packageFile,
		parentDir:     b.parentDir,
	}
}

// repeatHex builds a digest-sized hex string from one character.
func repeatHex(char string, count int) string {
	result := ""
	for i := 0; i < count; i++ {
		result += char
	}
	return result
}
