// Package config loads and validates dsr's three YAML documents (§6):
// config.yaml, hosts.yaml, and repos.yaml (or a repos.d/ directory of
// per-tool fragments). It uses goccy/go-yaml, the same YAML library the
// teacher repo reaches for over gopkg.in/yaml.v3.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/goccy/go-yaml"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/constants"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var configLog = logger.New("config")

// Config is the top-level config.yaml document.
type Config struct {
	SchemaVersion     int      `yaml:"schema_version"`
	ThresholdSeconds  int      `yaml:"threshold_seconds"`
	DefaultPlatforms  []string `yaml:"default_platforms"`
	SigningEnabled    bool     `yaml:"signing_enabled"`
	SigningKeyPath    string   `yaml:"signing_key_path,omitempty"`
	BOMFormat         string   `yaml:"bom_format,omitempty"` // e.g. "cyclonedx-json"
	LogLevel          string   `yaml:"log_level,omitempty"`
	WatchIntervalSecs int      `yaml:"watch_interval_seconds,omitempty"`
	BuildConcurrency  int      `yaml:"build_concurrency,omitempty"`
	StateDir          string   `yaml:"state_dir,omitempty"`
	CacheDir          string   `yaml:"cache_dir,omitempty"`
}

// HostsDocument is hosts.yaml: an ordered registry of build hosts.
type HostsDocument struct {
	SchemaVersion int                     `yaml:"schema_version"`
	Hosts         []model.HostDescriptor `yaml:"hosts"`
}

// ReposDocument is repos.yaml (or the merge of repos.d/*.yaml).
type ReposDocument struct {
	SchemaVersion int                     `yaml:"schema_version"`
	Tools         []model.ToolDescriptor `yaml:"tools"`
}

// Defaults returns a Config pre-filled with dsr's built-in defaults, the
// lowest rung of the flag > env > file > default precedence in §6.
func Defaults() Config {
	return Config{
		SchemaVersion:     constants.SchemaVersion,
		ThresholdSeconds:  constants.DefaultThrottleThresholdSeconds,
		SigningEnabled:    true,
		LogLevel:          "info",
		WatchIntervalSecs: constants.DefaultWatchIntervalSeconds,
		BuildConcurrency:  constants.DefaultBuildConcurrency,
	}
}

// LoadConfig reads and validates config.yaml, falling back to built-in
// defaults for any field the file omits.
func LoadConfig(path string) (Config, error) {
	cfg := Defaults()
	raw, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		configLog.Printf("no config.yaml at %s, using defaults", path)
		return cfg, nil
	}
	if err != nil {
		return cfg, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "reading config.yaml")
	}
	if err := yaml.UnmarshalWithOptions(raw, &cfg, yaml.DisallowUnknownField()); err != nil {
		return cfg, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "parsing config.yaml")
	}
	if cfg.ThresholdSeconds <= 0 {
		return cfg, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "threshold_seconds must be positive")
	}
	return cfg, nil
}

// LoadHosts reads and validates hosts.yaml.
func LoadHosts(path string) (HostsDocument, error) {
	var doc HostsDocument
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "reading hosts.yaml")
	}
	if err := yaml.UnmarshalWithOptions(raw, &doc, yaml.DisallowUnknownField()); err != nil {
		return doc, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "parsing hosts.yaml")
	}
	seen := map[string]bool{}
	for _, h := range doc.Hosts {
		if h.ID == "" {
			return doc, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "host entry missing id")
		}
		if seen[h.ID] {
			return doc, errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "duplicate host id "+h.ID)
		}
		seen[h.ID] = true
	}
	return doc, nil
}

// LoadRepos reads repos.yaml if it exists, or merges every *.yaml fragment
// under a repos.d/ directory in filename order, matching the dual-layout
// contract in §6.
func LoadRepos(path string) (ReposDocument, error) {
	info, err := os.Stat(path)
	if err != nil {
		return ReposDocument{}, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "locating repos configuration")
	}

	var merged ReposDocument
	merged.SchemaVersion = constants.SchemaVersion

	if info.IsDir() {
		entries, err := os.ReadDir(path)
		if err != nil {
			return merged, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "reading repos.d directory")
		}
		var names []string
		for _, e := range entries {
			if !e.IsDir() && strings.HasSuffix(e.Name(), ".yaml") {
				names = append(names, e.Name())
			}
		}
		sort.Strings(names)
		for _, name := range names {
			frag, err := loadReposFragment(filepath.Join(path, name))
			if err != nil {
				return merged, err
			}
			merged.Tools = append(merged.Tools, frag.Tools...)
		}
		return merged, validateTools(merged)
	}

	doc, err := loadReposFragment(path)
	if err != nil {
		return merged, err
	}
	return doc, validateTools(doc)
}

func loadReposFragment(path string) (ReposDocument, error) {
	var doc ReposDocument
	raw, err := os.ReadFile(path)
	if err != nil {
		return doc, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "reading "+path)
	}
	if err := yaml.UnmarshalWithOptions(raw, &doc, yaml.DisallowUnknownField()); err != nil {
		return doc, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "parsing "+path)
	}
	return doc, nil
}

func validateTools(doc ReposDocument) error {
	seen := map[string]bool{}
	for _, tool := range doc.Tools {
		if tool.Name == "" {
			return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "tool descriptor missing name")
		}
		if seen[tool.Name] {
			return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("duplicate tool %q", tool.Name))
		}
		seen[tool.Name] = true
		if len(tool.Platforms) == 0 {
			return errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, fmt.Sprintf("tool %q declares no platforms", tool.Name)).WithTarget(tool.Name)
		}
	}
	return nil
}
