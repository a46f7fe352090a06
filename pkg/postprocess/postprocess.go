// Package postprocess implements the artifact post-processor (§4.7):
// normalize names, archive raw binaries, compute checksums, produce compat
// aliases, sign artifacts, and attach a bill-of-materials — all via
// out-of-process collaborators for signing/BOM generation, the same way
// the teacher shells out to external tools (e.g. actionlint via Docker)
// rather than vendoring them as Go libraries.
package postprocess

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"context"
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"os/exec"
	"path/filepath"
	"sort"
	"strings"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/naming"
)

var postLog = logger.New("postprocess")

// SigningConfig controls whether and how artifacts are signed.
type SigningConfig struct {
	Enabled bool
	KeyPath string
	Bin     string // e.g. "minisign"
}

// BOMConfig controls bill-of-materials generation.
type BOMConfig struct {
	Enabled bool
	Format  string // e.g. "cyclonedx-json"
	Bin     string // e.g. "syft"
}

// Process normalizes one raw executor output into a final model.Artifact,
// archiving it if needed and producing its compat alias (§4.7 steps 1, 2, 5).
func Process(tool model.ToolDescriptor, version string, platform model.Platform, rawPath string, stagingDir string) (model.Artifact, *model.Artifact, error) {
	res, err := naming.Resolve(tool, version, platform)
	if err != nil {
		return model.Artifact{}, nil, err
	}

	finalPath, err := ensureArchived(rawPath, stagingDir, res.VersionedName, res.ArchiveExt)
	if err != nil {
		return model.Artifact{}, nil, err
	}

	artifact, err := finalizeArtifact(finalPath, platform, res.ArchiveExt, false)
	if err != nil {
		return model.Artifact{}, nil, err
	}
	artifact.Name = filepath.Base(finalPath)
	artifact.CompatName = res.CompatName

	compat, err := makeCompatAlias(rawPath, finalPath, stagingDir, res, platform)
	if err != nil {
		return model.Artifact{}, nil, err
	}

	return artifact, compat, nil
}

// ensureArchived implements §4.7 step 2: archive a raw binary if the
// platform wants one; leave an already-archived file alone (the executor
// may have produced the archive itself).
func ensureArchived(rawPath, stagingDir, versionedName, archiveExt string) (string, error) {
	dest := filepath.Join(stagingDir, versionedName)
	if archiveExt == "" {
		return copyFile(rawPath, dest)
	}
	if hasArchiveExtension(rawPath, archiveExt) {
		return copyFile(rawPath, dest)
	}

	switch archiveExt {
	case "tar.gz":
		return dest, archiveTarGz(rawPath, dest)
	case "zip":
		return dest, archiveZip(rawPath, dest)
	default:
		return "", errs.New(errs.KindConfiguration, errs.CodeConfigInvalid, "unsupported archive format "+archiveExt)
	}
}

func hasArchiveExtension(path, archiveExt string) bool {
	return strings.HasSuffix(path, "."+archiveExt)
}

func archiveTarGz(srcPath, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating archive")
	}
	defer out.Close()

	gw := gzip.NewWriter(out)
	defer gw.Close()
	tw := tar.NewWriter(gw)
	defer tw.Close()

	info, err := os.Stat(srcPath)
	if err != nil {
		return errs.Wrap(errs.KindBuild, errs.CodeBuildCompilation, err, "stat-ing raw artifact")
	}
	hdr, err := tar.FileInfoHeader(info, "")
	if err != nil {
		return err
	}
	hdr.Name = filepath.Base(srcPath)
	if err := tw.WriteHeader(hdr); err != nil {
		return err
	}
	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()
	_, err = io.Copy(tw, src)
	return err
}

func archiveZip(srcPath, destPath string) error {
	out, err := os.Create(destPath)
	if err != nil {
		return errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "creating archive")
	}
	defer out.Close()

	zw := zip.NewWriter(out)
	defer zw.Close()

	src, err := os.Open(srcPath)
	if err != nil {
		return err
	}
	defer src.Close()

	w, err := zw.Create(filepath.Base(srcPath))
	if err != nil {
		return err
	}
	_, err = io.Copy(w, src)
	return err
}

func copyFile(src, dest string) (string, error) {
	if src == dest {
		return dest, nil
	}
	in, err := os.Open(src)
	if err != nil {
		return "", errs.Wrap(errs.KindBuild, errs.CodeBuildCompilation, err, "reading raw artifact")
	}
	defer in.Close()
	out, err := os.Create(dest)
	if err != nil {
		return "", errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "writing artifact")
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return "", err
	}
	return dest, nil
}

// makeCompatAlias implements §4.7 step 5: when the compat pattern carries
// no extension the alias is a byte-identical copy of the raw binary, not
// of the archive.
func makeCompatAlias(rawPath, archivedPath, stagingDir string, res naming.Resolution, platform model.Platform) (*model.Artifact, error) {
	if res.CompatName == "" {
		return nil, nil
	}
	source := archivedPath
	if res.CompatIsRaw {
		source = rawPath
	}
	dest := filepath.Join(stagingDir, res.CompatName)
	if _, err := copyFile(source, dest); err != nil {
		return nil, err
	}
	artifact, err := finalizeArtifact(dest, platform, res.ArchiveExt, true)
	if err != nil {
		return nil, err
	}
	artifact.Name = res.CompatName
	return &artifact, nil
}

func finalizeArtifact(path string, platform model.Platform, archiveExt string, isCompat bool) (model.Artifact, error) {
	sum, size, err := sha256File(path)
	if err != nil {
		return model.Artifact{}, err
	}
	return model.Artifact{
		SourcePath:    path,
		Platform:      platform,
		ArchiveFormat: archiveExt,
		Size:          size,
		SHA256:        sum,
		IsCompatAlias: isCompat,
	}, nil
}

func sha256File(path string) (sum string, size int64, err error) {
	f, err := os.Open(path)
	if err != nil {
		return "", 0, errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "opening artifact for checksum").WithTarget(path)
	}
	defer f.Close()

	h := sha256.New()
	n, err := io.Copy(h, f)
	if err != nil {
		return "", 0, err
	}
	return hex.EncodeToString(h.Sum(nil)), n, nil
}

// WriteChecksumsFile implements §4.7 step 4: one line per artifact
// (including compat aliases), digest-then-filename, stable filename order.
func WriteChecksumsFile(tool, version string, artifacts []model.Artifact, stagingDir string) (string, error) {
	sorted := append([]model.Artifact(nil), artifacts...)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	name := fmt.Sprintf("%s-%s-checksums.sha256", tool, version)
	path := filepath.Join(stagingDir, name)

	var b strings.Builder
	for _, a := range sorted {
		fmt.Fprintf(&b, "%s  %s\n", a.SHA256, a.Name)
	}
	if err := os.WriteFile(path, []byte(b.String()), 0o644); err != nil {
		return "", errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, "writing checksums file")
	}
	return path, nil
}

// Sign invokes the out-of-process signer on one file, producing
// `<file>.minisig` alongside it (§4.7 step 6). Returns ("", nil) when
// signing is disabled, which the caller records on the manifest as
// SigningSkipped.
func Sign(ctx context.Context, cfg SigningConfig, path string) (string, error) {
	if !cfg.Enabled {
		postLog.Printf("signing disabled by configuration, skipping %s", path)
		return "", nil
	}
	sigPath := path + ".minisig"
	cmd := exec.CommandContext(ctx, cfg.Bin, "-S", "-s", cfg.KeyPath, "-x", sigPath, "-m", path)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errs.Wrap(errs.KindRelease, errs.CodeReleaseSigning, err, string(out)).WithTarget(path)
	}
	return sigPath, nil
}

// GenerateBOM invokes the out-of-process bill-of-materials scanner against
// the tool's source tree (§4.7 step 7).
func GenerateBOM(ctx context.Context, cfg BOMConfig, sourcePath, outputPath string) (string, error) {
	if !cfg.Enabled {
		return "", nil
	}
	cmd := exec.CommandContext(ctx, cfg.Bin, sourcePath, "-o", outputPath, "--output-format", cfg.Format)
	if out, err := cmd.CombinedOutput(); err != nil {
		return "", errs.Wrap(errs.KindSystem, errs.CodeSystemRequiredTool, err, string(out)).WithTarget(sourcePath)
	}
	return outputPath, nil
}
