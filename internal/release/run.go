package release

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/plugin-release/internal/archive"
	"github.com/mmr-tortoise/plugin-release/internal/config"
	"github.com/mmr-tortoise/plugin-release/internal/manifest"
	"github.com/mmr-tortoise/plugin-release/internal/model"
	"github.com/mmr-tortoise/plugin-release/internal/version"
)

// Archiver packs releasesRoot/<brand> into a versioned archive and returns
// the archive path. archive.Zip is the production implementation.
type Archiver interface {
	Archive(ctx context.Context, releasesRoot string, brand model.Brand, version string) (string, error)
}

// Result describes a finished (or dry) release run.
type Result struct {
	// Version is the discovered plugin version.
	Version string

	// OutputDir is the absolute path of the per-brand tree.
	OutputDir string

	// ArchivePath is the absolute path of the archive. In dry-run mode it
	// is the path the archive would have been written to.
	ArchivePath string

	// Manifest is the list printed in verbose mode.
	Manifest manifest.Manifest

	// Processed is the list of entries Materialize handled, in order.
	Processed []string
}

// Run performs a complete release of the project at projectRoot.
//
// The version is discovered before anything else so a missing version
// fails the run before any output exists. When archiver is nil an
// archive.Zip using cfg.Archiver is used.
func Run(ctx context.Context, projectRoot string, cfg *config.Config, opts model.Options, archiver Archiver, reporter *Reporter) (*Result, error) {
	if cfg == nil {
		cfg = config.Default()
	}
	if archiver == nil {
		archiver = archive.NewZip(cfg.Archiver)
	}

	root, err := filepath.Abs(projectRoot)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve project root %s: %w", projectRoot, err)
	}
	releasesRoot := filepath.Join(root, filepath.FromSlash(cfg.ReleasesDir))
	outputDir := filepath.Join(releasesRoot, opts.Name.String())

	ver, err := version.Discover(root, cfg.VersionFile)
	if err != nil {
		return nil, err
	}

	excludes, err := cfg.ExcludeGlobs()
	if err != nil {
		return nil, model.WrapCLIError(model.ExitConfigError, "invalid release config", err)
	}
	m, err := manifest.Enumerate(root, manifest.Options{
		Ignore:  withReleasesDir(cfg.Ignore, cfg.ReleasesDir),
		Exclude: excludes,
		Append:  cfg.Append,
	})
	if err != nil {
		return nil, model.WrapCLIError(model.ExitFilesystemError, "failed to enumerate project files", err)
	}

	if opts.Verbose {
		reporter.Infof("File list:")
		for _, p := range m {
			reporter.Infof("  %s", p)
		}
	}

	b := NewBuilder(root, outputDir, opts, reporter)
	if err := b.Prepare(); err != nil {
		return nil, err
	}
	if err := b.Materialize(ctx, m); err != nil {
		return nil, err
	}

	result := &Result{
		Version:     ver,
		OutputDir:   outputDir,
		ArchivePath: filepath.Join(releasesRoot, archive.Name(opts.Name, ver)),
		Manifest:    m,
		Processed:   b.Processed(),
	}

	if opts.DryRun {
		reporter.Infof("Would create archive %s", archive.Name(opts.Name, ver))
		reporter.Infof("Finished (dry run)")
		return result, nil
	}

	reporter.Infof("Creating archive %s", archive.Name(opts.Name, ver))
	path, err := archiver.Archive(ctx, releasesRoot, opts.Name, ver)
	if err != nil {
		return nil, err
	}
	result.ArchivePath = path
	reporter.Infof("Finished")
	return result, nil
}

// withReleasesDir makes sure the releases directory never copies itself
// into a release, even when the config moves it away from "releases".
func withReleasesDir(ignore []string, releasesDir string) []string {
	dir := strings.TrimSuffix(filepath.ToSlash(filepath.Clean(releasesDir)), "/")
	for _, p := range ignore {
		if p == dir {
			return ignore
		}
	}
	return append(append([]string(nil), ignore...), dir)
}
