// Package release builds a branded copy of a project tree and archives it.
//
// A release run has three phases:
//  1. Prepare: check that the output directory is free (or clear it with --force)
//  2. Materialize: copy every manifest entry into the output directory,
//     renaming paths with the code rules and rewriting file contents with
//     the code rules followed by the text rules
//  3. Archive: hand the output directory to an Archiver
//
// Run wires the phases together with version discovery and manifest
// enumeration. All paths are absolute; nothing depends on the process's
// working directory.
package release

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/plugin-release/internal/manifest"
	"github.com/mmr-tortoise/plugin-release/internal/model"
	"github.com/mmr-tortoise/plugin-release/internal/rules"
)

// Builder writes the transformed copy of a project into OutputDir.
type Builder struct {
	// ProjectRoot is the absolute path of the source tree.
	ProjectRoot string

	// OutputDir is the absolute path of the per-brand output directory,
	// e.g. <project>/releases/examus2.
	OutputDir string

	// Code rewrites paths and identifiers; Text rewrites prose. Text runs
	// on file contents only, after Code.
	Code rules.Set
	Text rules.Set

	// Rename reports whether the brand renames anything. False for the
	// default brand, whose release is a plain copy.
	Rename bool

	// Options carries the force and dry-run switches for this run.
	Options model.Options

	// Reporter receives progress messages. Nil discards them.
	Reporter *Reporter

	// processed records every manifest entry in the order it was handled.
	processed []string
}

// NewBuilder creates a Builder for the brand in opts, with the brand's
// rule sets already selected.
func NewBuilder(projectRoot, outputDir string, opts model.Options, reporter *Reporter) *Builder {
	code, text, rename := rules.ForBrand(opts.Name)
	return &Builder{
		ProjectRoot: projectRoot,
		OutputDir:   outputDir,
		Code:        code,
		Text:        text,
		Rename:      rename,
		Options:     opts,
		Reporter:    reporter,
	}
}

// Processed returns the manifest entries handled by the last Materialize
// call, in order.
func (b *Builder) Processed() []string {
	return append([]string(nil), b.processed...)
}

// Prepare enforces the output directory precondition.
//
// If OutputDir exists it is removed when Force is set; otherwise Prepare
// returns a model.CLIError with ExitOutputExists and nothing is touched.
// In dry-run mode the removal is only reported.
func (b *Builder) Prepare() error {
	_, err := os.Stat(b.OutputDir)
	if errors.Is(err, fs.ErrNotExist) {
		return nil
	}
	if err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("cannot inspect output dir %s", b.display(b.OutputDir)), err)
	}

	b.Reporter.Infof("Output dir %s already exists", b.display(b.OutputDir))
	if !b.Options.Force {
		return model.NewCLIError(model.ExitOutputExists,
			fmt.Sprintf("output dir %s already exists, use --force to replace it", b.display(b.OutputDir)))
	}

	if b.Options.DryRun {
		b.Reporter.Infof("Would clean output dir %s", b.display(b.OutputDir))
		return nil
	}
	b.Reporter.Infof("Cleaning output dir %s", b.display(b.OutputDir))
	if err := os.RemoveAll(b.OutputDir); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to clean output dir %s", b.display(b.OutputDir)), err)
	}
	return nil
}

// Materialize copies every manifest entry into OutputDir, in order.
//
// For each entry the destination is the entry path with the code rules
// applied. Regular files are read whole, rewritten with the code rules and
// then the text rules, and written with their original permissions.
// Directories are created. Entries that do not exist (typically appended
// paths such as .htaccess) are skipped with a warning.
//
// Prepare must have been called first.
func (b *Builder) Materialize(ctx context.Context, m manifest.Manifest) error {
	b.processed = b.processed[:0]

	if b.Rename {
		b.Reporter.Infof("Renaming %s to %s", rules.OldName, b.Options.Name)
		for _, r := range b.Code {
			b.Reporter.Verbosef("Code rule: %s", r)
		}
		for _, r := range b.Text {
			b.Reporter.Verbosef("Text rule: %s", r)
		}
	} else {
		b.Reporter.Infof("Skipping renames")
	}

	if b.Options.DryRun {
		b.Reporter.Infof("Would create output dir %s", b.display(b.OutputDir))
	} else {
		b.Reporter.Infof("Creating output dir %s", b.display(b.OutputDir))
		if err := os.MkdirAll(b.OutputDir, 0755); err != nil {
			return model.WrapCLIError(model.ExitFilesystemError,
				fmt.Sprintf("failed to create output dir %s", b.display(b.OutputDir)), err)
		}
	}

	for _, rel := range m {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := b.materializeEntry(rel); err != nil {
			return err
		}
		b.processed = append(b.processed, rel)
	}
	return nil
}

// materializeEntry handles a single manifest entry.
func (b *Builder) materializeEntry(rel string) error {
	dstRel := b.Code.Apply(rel)
	if dstRel != rel {
		b.Reporter.Infof("Renaming %s to %s", rel, dstRel)
	} else {
		b.Reporter.Verbosef("Processing: %s", rel)
	}

	src, err := safeJoin(b.ProjectRoot, rel)
	if err != nil {
		return model.WrapCLIError(model.ExitFilesystemError, "invalid manifest entry", err)
	}
	dst, err := safeJoin(b.OutputDir, dstRel)
	if err != nil {
		return model.WrapCLIError(model.ExitFilesystemError, "invalid destination path", err)
	}

	info, err := os.Stat(src)
	switch {
	case errors.Is(err, fs.ErrNotExist):
		b.Reporter.Warnf("skipping %s: not found in project", rel)
		return nil
	case err != nil:
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("cannot inspect %s", rel), err)
	case info.Mode().IsRegular():
		return b.copyFile(src, dst, rel, info.Mode().Perm())
	case info.IsDir():
		return b.makeDir(dst, rel)
	default:
		b.Reporter.Warnf("skipping %s: not a regular file or directory", rel)
		return nil
	}
}

// copyFile writes the rewritten contents of src to dst, creating parents.
func (b *Builder) copyFile(src, dst, rel string, perm fs.FileMode) error {
	data, err := os.ReadFile(src)
	if err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to read %s", rel), err)
	}

	if b.Options.DryRun {
		if b.Code.Matches(string(data)) || b.Text.Matches(string(data)) {
			b.Reporter.Verbosef("Would rewrite contents of %s", rel)
		}
		return nil
	}
	content := b.Text.Apply(b.Code.Apply(string(data)))

	if err := os.MkdirAll(filepath.Dir(dst), 0755); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to create directory for %s", rel), err)
	}
	// A manifest may list the same path twice; a read-only copy from the
	// first pass cannot be opened for writing, so it is replaced instead.
	if err := os.Remove(dst); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to replace %s", b.display(dst)), err)
	}
	if err := os.WriteFile(dst, []byte(content), perm); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to write %s", b.display(dst)), err)
	}
	if err := os.Chmod(dst, perm); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to set mode of %s", b.display(dst)), err)
	}
	return nil
}

// makeDir creates dst; existing directories are left as they are.
func (b *Builder) makeDir(dst, rel string) error {
	if b.Options.DryRun {
		return nil
	}
	if err := os.MkdirAll(dst, 0755); err != nil {
		return model.WrapCLIError(model.ExitFilesystemError,
			fmt.Sprintf("failed to create directory for %s", rel), err)
	}
	return nil
}

// display shortens path to be relative to the project root when possible.
func (b *Builder) display(path string) string {
	rel, err := filepath.Rel(b.ProjectRoot, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return path
	}
	return rel
}

// safeJoin joins a slash-separated relative path onto root and makes sure
// the result stays inside root.
func safeJoin(root, rel string) (string, error) {
	if filepath.IsAbs(rel) {
		return "", fmt.Errorf("absolute path %q is not allowed", rel)
	}
	p := filepath.Join(root, filepath.FromSlash(rel))

	r, err := filepath.Rel(root, p)
	if err != nil {
		return "", err
	}
	if r == ".." || strings.HasPrefix(r, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("path %q escapes %s", rel, root)
	}
	return p, nil
}
