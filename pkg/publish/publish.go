// Package publish implements the release publisher (§4.8): ensure a tag
// and release exist for the target version, upload the post-processed
// asset set idempotently, and retry transient upload failures with
// exponential backoff, surfacing permanent errors as release-failed.
package publish

import (
	"context"
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/errs"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/ghcli"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/logger"
	"github.com/joyshmitz/doodlestein-self-releaser-sub003/pkg/model"
)

var publishLog = logger.New("publish")

// Options configures one publish run.
type Options struct {
	Repo       string
	Tag        string
	Rev        string
	Draft      bool
	Prerelease bool
	MaxRetries int
}

// Result is what a successful publish returns (§4.8 "return the final
// release URL and the uploaded asset count").
type Result struct {
	ReleaseURL  string
	UploadCount int
}

// Publish runs the full sequence: ensure tag, ensure release, upload every
// asset (including the checksums file, signature files, and BOM).
func Publish(ctx context.Context, opts Options, artifacts []model.Artifact, checksumsFile string, signatureFiles []string, bomFile string) (Result, error) {
	if err := ensureTag(ctx, opts); err != nil {
		return Result{}, err
	}

	releaseURL, err := ensureRelease(ctx, opts)
	if err != nil {
		return Result{}, err
	}

	paths := make([]string, 0, len(artifacts)+len(signatureFiles)+2)
	for _, a := range artifacts {
		paths = append(paths, a.SourcePath)
	}
	if checksumsFile != "" {
		paths = append(paths, checksumsFile)
	}
	paths = append(paths, signatureFiles...)
	if bomFile != "" {
		paths = append(paths, bomFile)
	}

	uploaded := 0
	for _, path := range paths {
		if err := uploadWithRetry(ctx, opts, path); err != nil {
			return Result{}, err
		}
		uploaded++
	}

	return Result{ReleaseURL: releaseURL, UploadCount: uploaded}, nil
}

func ensureTag(ctx context.Context, opts Options) error {
	_, _, err := ghcli.RunJSON(ctx, "api", fmt.Sprintf("repos/%s/git/ref/tags/%s", opts.Repo, opts.Tag))
	if err == nil {
		return nil
	}
	publishLog.Printf("tag %s not found, creating at %s", opts.Tag, opts.Rev)
	_, _, createErr := ghcli.RunJSON(ctx, "api", fmt.Sprintf("repos/%s/git/refs", opts.Repo),
		"-f", "ref=refs/tags/"+opts.Tag, "-f", "sha="+opts.Rev)
	if createErr != nil {
		return wrapReleaseErr(createErr, "creating tag")
	}
	return nil
}

func ensureRelease(ctx context.Context, opts Options) (string, error) {
	stdout, _, err := ghcli.RunJSON(ctx, "release", "view", opts.Tag, "--repo", opts.Repo, "--json", "url")
	if err == nil {
		return extractURL(stdout.String()), nil
	}

	args := []string{"release", "create", opts.Tag, "--repo", opts.Repo, "--target", opts.Rev}
	if opts.Draft {
		args = append(args, "--draft")
	}
	if opts.Prerelease {
		args = append(args, "--prerelease")
	}
	stdout, _, createErr := ghcli.RunJSON(ctx, args...)
	if createErr != nil {
		return "", wrapReleaseErr(createErr, "creating release")
	}
	return strings.TrimSpace(stdout.String()), nil
}

func extractURL(jsonOutput string) string {
	const marker = `"url":"`
	idx := strings.Index(jsonOutput, marker)
	if idx < 0 {
		return ""
	}
	rest := jsonOutput[idx+len(marker):]
	end := strings.IndexByte(rest, '"')
	if end < 0 {
		return ""
	}
	return rest[:end]
}

// uploadWithRetry implements §4.8 step 3/failure handling: idempotent
// upload (re-running replaces assets with matching names via --clobber),
// retried with exponential backoff on transient errors only.
func uploadWithRetry(ctx context.Context, opts Options, path string) error {
	maxRetries := opts.MaxRetries
	if maxRetries <= 0 {
		maxRetries = 5
	}

	var lastErr error
	for attempt := 0; attempt <= maxRetries; attempt++ {
		_, _, err := ghcli.RunJSON(ctx, "release", "upload", opts.Tag, path, "--repo", opts.Repo, "--clobber")
		if err == nil {
			return nil
		}
		lastErr = err
		if !isTransient(err) {
			return wrapReleaseErr(err, "uploading "+path)
		}
		backoff := time.Duration(math.Pow(2, float64(attempt))) * time.Second
		publishLog.Printf("transient upload failure for %s (attempt %d/%d), retrying in %s", path, attempt+1, maxRetries, backoff)
		select {
		case <-ctx.Done():
			return wrapReleaseErr(ctx.Err(), "upload canceled")
		case <-time.After(backoff):
		}
	}
	return wrapReleaseErr(lastErr, "upload exhausted retries for "+path)
}

func isTransient(err error) bool {
	var dsrErr *errs.Error
	if errors.As(err, &dsrErr) {
		return dsrErr.Kind == errs.KindNetwork
	}
	return false
}

func wrapReleaseErr(cause error, action string) error {
	var dsrErr *errs.Error
	if errors.As(cause, &dsrErr) && dsrErr.Kind == errs.KindAuthentication {
		return dsrErr
	}
	return errs.Wrap(errs.KindRelease, errs.CodeReleaseUpload, cause, action)
}
