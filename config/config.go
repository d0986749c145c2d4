package config

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	logger "github.com/sirupsen/logrus"
	"gopkg.in/yaml.v3"
)

// DefaultFileName is the config file looked up when no path is given.
const DefaultFileName = "bundlemigrate.yaml"

const defaultConcurrency = 5

// Config is the top-level configuration for bundlemigrate.
type Config struct {
	Strategy    string `yaml:"strategy"`    // Discovery strategy name; "auto" probes per repository
	Concurrency int    `yaml:"concurrency"` // Resolution worker-pool size
	ScratchDir  string `yaml:"scratch_dir"` // Staging dir for migration scripts; ${ENV_VAR} is expanded
}

// envVarPattern matches ${VAR_NAME} placeholders.
var envVarPattern = regexp.MustCompile(`\$\{([^}]+)}`)

// Load reads and parses a configuration file. An empty path auto-detects
// the default file and falls back to defaults when none exists.
func Load(path string) (*Config, error) {
	cfg := defaults()

	if path == "" {
		detected, found := findConfigFile()
		if !found {
			logger.Debugf("No config file found, using defaults")
			return cfg, nil
		}
		path = detected
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file %q: %w", path, err)
	}

	if unmarshalErr := yaml.Unmarshal(data, cfg); unmarshalErr != nil {
		return nil, fmt.Errorf("failed to parse config file: %w", unmarshalErr)
	}

	cfg.ScratchDir = expandEnv(cfg.ScratchDir)

	if validateErr := validate(cfg); validateErr != nil {
		return nil, validateErr
	}

	logger.Debugf("Loaded config from %s", path)
	return cfg, nil
}

// defaults returns the built-in configuration.
func defaults() *Config {
	return &Config{
		Strategy:    "auto",
		Concurrency: defaultConcurrency,
		ScratchDir:  "",
	}
}

// findConfigFile looks for the default config file next to the working
// directory and under the user config dir.
func findConfigFile() (string, bool) {
	candidates := []string{DefaultFileName}
	if configDir, err := os.UserConfigDir(); err == nil {
		candidates = append(candidates, filepath.Join(configDir, "bundlemigrate", DefaultFileName))
	}
	for _, candidate := range candidates {
		if _, err := os.Stat(candidate); err == nil {
			return candidate, true
		}
	}
	return "", false
}

// expandEnv resolves ${VAR} placeholders from the environment.
func expandEnv(value string) string {
	return envVarPattern.ReplaceAllStringFunc(value, func(placeholder string) string {
		varName := envVarPattern.FindStringSubmatch(placeholder)[1]
		return os.Getenv(varName)
	})
}

// validate rejects configurations the engine cannot run with.
func validate(cfg *Config) error {
	if cfg.Strategy == "" {
		return fmt.Errorf("config: strategy must not be empty")
	}
	if cfg.Concurrency < 0 {
		return fmt.Errorf("config: concurrency must not be negative")
	}
	return nil
}
