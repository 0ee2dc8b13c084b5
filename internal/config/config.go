// Package config loads the optional release config file of a project.
//
// The file lets a project override where the version lives, where releases
// are written, which paths are left out of the manifest, and which archiver
// is invoked. Every field is optional; unset fields keep the defaults
// returned by Default.
//
// Two formats are accepted, chosen by file extension:
//   - .yaml / .yml, parsed with gopkg.in/yaml.v3
//   - .json, parsed as JSONC (comments and trailing commas allowed) via
//     github.com/tidwall/jsonc and encoding/json
package config

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/gobwas/glob"
	"github.com/tidwall/jsonc"
	"gopkg.in/yaml.v3"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// Candidates are the file names looked up in the project root, in order,
// when no explicit config path is given.
var Candidates = []string{".release.yaml", ".release.yml", ".release.json"}

// Config is the release config of a project.
type Config struct {
	// VersionFile is the file holding the version assignment, relative to
	// the project root.
	VersionFile string `yaml:"versionFile" json:"versionFile"`

	// ReleasesDir is the output root, relative to the project root.
	// Per-brand trees and archives are written inside it.
	ReleasesDir string `yaml:"releasesDir" json:"releasesDir"`

	// Ignore lists path prefixes excluded from the manifest. A path is
	// excluded when its slash-separated relative form starts with a prefix.
	Ignore []string `yaml:"ignore" json:"ignore"`

	// Append lists paths added to the end of the manifest whether or not
	// the walk found them.
	Append []string `yaml:"append" json:"append"`

	// Exclude lists glob patterns (gobwas/glob syntax, "/" separator)
	// matched against relative paths; matching entries are dropped.
	Exclude []string `yaml:"exclude" json:"exclude"`

	// Archiver is the zip-compatible binary invoked to build the archive.
	Archiver string `yaml:"archiver" json:"archiver"`

	// Path is the file the config was loaded from. Empty for defaults.
	Path string `yaml:"-" json:"-"`

	// excludes caches the compiled Exclude patterns; compiledFrom is the
	// Exclude slice they were compiled from.
	excludes     []glob.Glob
	compiledFrom []string
}

// Default returns the built-in config used when the project has no file.
func Default() *Config {
	return &Config{
		VersionFile: "version.php",
		ReleasesDir: "releases",
		Ignore:      []string{"releases", "utils"},
		Append:      []string{".htaccess"},
		Archiver:    "zip",
	}
}

// Load returns the config for projectRoot.
//
// When path is non-empty it must exist; a relative path is resolved against
// projectRoot. When path is empty the Candidates are tried in order and the
// defaults are returned if none exists. Load errors are configuration errors
// (model.ExitConfigError).
func Load(projectRoot, path string) (*Config, error) {
	if path != "" {
		if !filepath.IsAbs(path) {
			path = filepath.Join(projectRoot, path)
		}
		return loadFile(path)
	}

	for _, name := range Candidates {
		candidate := filepath.Join(projectRoot, name)
		if _, err := os.Stat(candidate); err == nil {
			return loadFile(candidate)
		}
	}
	return Default(), nil
}

// loadFile parses a single config file over the defaults.
func loadFile(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read release config %s", path), err)
	}

	cfg := Default()
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yaml", ".yml":
		err = decodeYAML(data, cfg)
	case ".json", ".jsonc":
		err = decodeJSONC(data, cfg)
	default:
		err = fmt.Errorf("unsupported extension %q (use .yaml, .yml or .json)", filepath.Ext(path))
	}
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot parse release config %s", path), err)
	}

	cfg.Path = path
	if err := cfg.Validate(); err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("invalid release config %s", path), err)
	}
	return cfg, nil
}

// decodeYAML rejects unknown keys so a misspelt option does not silently
// fall back to its default.
func decodeYAML(data []byte, cfg *Config) error {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// decodeJSONC strips comments and trailing commas before strict decoding.
func decodeJSONC(data []byte, cfg *Config) error {
	dec := json.NewDecoder(bytes.NewReader(jsonc.ToJSON(data)))
	dec.DisallowUnknownFields()
	if err := dec.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return err
	}
	return nil
}

// Validate checks field values that would otherwise fail late, in the
// middle of writing a release.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.VersionFile) == "" {
		return fmt.Errorf("versionFile must not be empty")
	}
	if strings.TrimSpace(c.ReleasesDir) == "" {
		return fmt.Errorf("releasesDir must not be empty")
	}
	if filepath.IsAbs(c.ReleasesDir) {
		return fmt.Errorf("releasesDir %q must be relative to the project root", c.ReleasesDir)
	}
	// The release tree is removed with --force, so it must sit strictly
	// inside the project.
	clean := filepath.Clean(filepath.FromSlash(c.ReleasesDir))
	if clean == "." || clean == ".." || strings.HasPrefix(clean, ".."+string(filepath.Separator)) {
		return fmt.Errorf("releasesDir %q must be a subdirectory of the project root", c.ReleasesDir)
	}
	if strings.TrimSpace(c.Archiver) == "" {
		return fmt.Errorf("archiver must not be empty")
	}
	for _, p := range c.Ignore {
		if p == "" {
			return fmt.Errorf("ignore entries must not be empty")
		}
	}
	if _, err := c.ExcludeGlobs(); err != nil {
		return err
	}
	return nil
}

// ExcludeGlobs compiles the Exclude patterns with "/" as the separator,
// so "*" stays within one path segment and "**" crosses segments.
// The result is cached until Exclude changes.
func (c *Config) ExcludeGlobs() ([]glob.Glob, error) {
	if c.compiledFrom != nil && slices.Equal(c.compiledFrom, c.Exclude) {
		return c.excludes, nil
	}
	globs := make([]glob.Glob, 0, len(c.Exclude))
	for _, pattern := range c.Exclude {
		g, err := glob.Compile(pattern, '/')
		if err != nil {
			return nil, fmt.Errorf("invalid exclude pattern %q: %w", pattern, err)
		}
		globs = append(globs, g)
	}
	c.excludes = globs
	c.compiledFrom = append([]string{}, c.Exclude...)
	return globs, nil
}
