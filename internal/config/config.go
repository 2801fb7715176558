package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// Config lists the plugins to package and shared settings.
type Config struct {
	// LogLevel is the minimum level of emitted messages (debug, info, warn, error).
	LogLevel string `yaml:"log_level,omitempty"`
	// Targets are the build targets processed in order.
	Targets []Target `yaml:"targets"`
}

// Target describes one plugin build output to merge and archive.
// Empty paths are derived from Name and Configuration by Validate.
type Target struct {
	// Name is the plugin name, also the project folder and manifest base name.
	Name string `yaml:"name"`
	// Configuration is the build configuration folder under bin/x64 (Debug, Release).
	Configuration string `yaml:"configuration,omitempty"`
	// SourceManifest is the manifest carrying the download links.
	SourceManifest string `yaml:"source_manifest,omitempty"`
	// TargetManifest is the build output manifest that receives the links.
	TargetManifest string `yaml:"target_manifest,omitempty"`
	// Directory is the build output folder that gets archived.
	Directory string `yaml:"directory,omitempty"`
	// ArchiveName is the archive file name created inside Directory.
	ArchiveName string `yaml:"archive_name,omitempty"`
	// CompressionLevel is the deflate level, from 1 (fastest) to 9 (smallest).
	CompressionLevel int `yaml:"compression_level,omitempty"`
}

const (
	// DefaultConfigFilename is the default filename for the target list.
	DefaultConfigFilename = "plugin-packager.yaml"

	// DefaultConfiguration is the build configuration used when none is set.
	DefaultConfiguration = "Debug"

	// DefaultCompressionLevel is the deflate level used when none is set.
	DefaultCompressionLevel = 6

	// DefaultFilePermissions is the default file permission for config files.
	DefaultFilePermissions = 0o644

	// platformFolder is the output folder for x64 builds.
	platformFolder = "x64"
)

var (
	// errConfigIsNotSet is returned when a nil configuration is provided.
	errConfigIsNotSet = errors.New("configuration is not set")
	// errNoTargets is returned when the configuration lists no targets.
	errNoTargets = errors.New("at least one target must be configured")
	// errTargetNameRequired is returned when a target has no name.
	errTargetNameRequired = errors.New("target name must be provided")
	// errDuplicateTarget is returned when two targets share a name.
	errDuplicateTarget = errors.New("duplicate target")
	// errInvalidArchiveName is returned when the archive name is not a plain file name.
	errInvalidArchiveName = errors.New("archive name must be a file name without directories")
	// errInvalidCompressionLevel is returned for levels outside 1..9.
	errInvalidCompressionLevel = errors.New("compression level must be between 1 and 9")
	// ErrUnknownTarget is returned by Select for names missing from the configuration.
	ErrUnknownTarget = errors.New("unknown target")
)

// Load reads configuration from the provided path and validates it.
func Load(path string) (*Config, error) {
	if path == "" {
		path = DefaultConfigFilename
	}

	contents, err := os.ReadFile(filepath.Clean(path))
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}

	var cfg Config
	if err = yaml.Unmarshal(contents, &cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if err = Validate(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}

// Save writes the configuration to the provided path.
func Save(path string, cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if path == "" {
		path = DefaultConfigFilename
	}

	if err := Validate(cfg); err != nil {
		return err
	}

	data, err := yaml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err = os.WriteFile(filepath.Clean(path), data, DefaultFilePermissions); err != nil {
		return fmt.Errorf("write config: %w", err)
	}

	return nil
}

// ForPlugins builds a configuration with one target per plugin name.
// Paths stay empty so Validate derives the conventional layout.
func ForPlugins(configuration string, names ...string) *Config {
	cfg := &Config{
		Targets: make([]Target, 0, len(names)),
	}

	for _, name := range names {
		cfg.Targets = append(cfg.Targets, Target{
			Name:          strings.TrimSpace(name),
			Configuration: configuration,
		})
	}

	return cfg
}

// Validate checks the configuration and fills derived defaults in place.
func Validate(cfg *Config) error {
	if cfg == nil {
		return errConfigIsNotSet
	}

	if len(cfg.Targets) == 0 {
		return errNoTargets
	}

	seen := make(map[string]struct{}, len(cfg.Targets))

	for i := range cfg.Targets {
		target := &cfg.Targets[i]

		if err := target.applyDefaults(); err != nil {
			return fmt.Errorf("target #%d: %w", i+1, err)
		}

		if _, ok := seen[target.Name]; ok {
			return fmt.Errorf("%w: %s", errDuplicateTarget, target.Name)
		}

		seen[target.Name] = struct{}{}
	}

	return nil
}

// Select returns the targets with the given names in the order requested.
// No names selects every target.
func (c *Config) Select(names ...string) ([]Target, error) {
	if len(names) == 0 {
		return append([]Target(nil), c.Targets...), nil
	}

	byName := make(map[string]Target, len(c.Targets))
	for _, target := range c.Targets {
		byName[target.Name] = target
	}

	selected := make([]Target, 0, len(names))

	for _, name := range names {
		target, ok := byName[name]
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownTarget, name)
		}

		selected = append(selected, target)
	}

	return selected, nil
}

// ArchivePath returns the location of the archive inside the target directory.
func (t *Target) ArchivePath() string {
	return filepath.Join(t.Directory, t.ArchiveName)
}

// applyDefaults derives the conventional project layout:
//
//	<Name>/<Name>.json                              source manifest
//	<Name>/bin/x64/<Configuration>/                 directory
//	<Name>/bin/x64/<Configuration>/<Name>.json      target manifest
//	<Name>/bin/x64/<Configuration>/<Name>.zip       archive
func (t *Target) applyDefaults() error {
	t.Name = strings.TrimSpace(t.Name)
	if t.Name == "" {
		return errTargetNameRequired
	}

	if t.Configuration == "" {
		t.Configuration = DefaultConfiguration
	}

	manifestName := t.Name + ".json"

	if t.SourceManifest == "" {
		t.SourceManifest = filepath.Join(t.Name, manifestName)
	}

	if t.Directory == "" {
		t.Directory = filepath.Join(t.Name, "bin", platformFolder, t.Configuration)
	}

	if t.TargetManifest == "" {
		t.TargetManifest = filepath.Join(t.Directory, manifestName)
	}

	if t.ArchiveName == "" {
		t.ArchiveName = t.Name + ".zip"
	}

	if t.ArchiveName != filepath.Base(t.ArchiveName) || strings.ContainsAny(t.ArchiveName, `/\`) {
		return fmt.Errorf("%w: %s", errInvalidArchiveName, t.ArchiveName)
	}

	if t.CompressionLevel == 0 {
		t.CompressionLevel = DefaultCompressionLevel
	}

	if t.CompressionLevel < 1 || t.CompressionLevel > 9 {
		return fmt.Errorf("%w: %d", errInvalidCompressionLevel, t.CompressionLevel)
	}

	return nil
}
