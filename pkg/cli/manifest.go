package cli

import (
	"encoding/json"
	"os"
	"path/filepath"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

// manifestPath is where build persists, and release/status read back, one
// tool/version's manifest within the state directory's manifest archive (§6
// "Persisted state ... the manifest archive").
func manifestPath(rt *Runtime, tool, version string) string {
	return filepath.Join(rt.Config.StateDir, "manifests", tool, version+".json")
}

func saveManifest(rt *Runtime, manifest model.Manifest) error {
	path := manifestPath(rt, manifest.Tool, manifest.Version)
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating manifest directory")
	}
	raw, err := json.MarshalIndent(manifest, "", "  ")
	if err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "encoding manifest")
	}
	if err := os.WriteFile(path, raw, 0o644); err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "writing manifest")
	}
	return nil
}

func loadManifest(rt *Runtime, tool, version string) (model.Manifest, error) {
	var manifest model.Manifest
	path := manifestPath(rt, tool, version)
	raw, err := os.ReadFile(path)
	if err != nil {
		return manifest, errs.Wrap(errs.KindConfiguration, errs.CodeConfigMissing, err, "no build manifest for "+tool+" "+version)
	}
	if err := json.Unmarshal(raw, &manifest); err != nil {
		return manifest, errs.Wrap(errs.KindConfiguration, errs.CodeConfigInvalid, err, "parsing manifest "+path)
	}
	return manifest, nil
}
