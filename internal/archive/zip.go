// Package archive packs a built release directory into a zip file.
//
// Archives are produced by the external zip binary (Info-ZIP compatible)
// rather than archive/zip, so releases keep the exact layout and entry
// metadata that Moodle's plugin installer has always received. The command
// runs with an explicit working directory (exec.Cmd.Dir); the process's own
// working directory is never changed.
package archive

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// DefaultCommand is the archiver binary used when none is configured.
const DefaultCommand = "zip"

// Name returns the archive file name for a brand and version,
// e.g. "examus2-2024061700.zip".
func Name(brand model.Brand, version string) string {
	return fmt.Sprintf("%s-%s.zip", brand, version)
}

// Zip invokes a zip-compatible command line archiver.
type Zip struct {
	// Command is the archiver binary name or path. Empty means DefaultCommand.
	Command string
}

// NewZip creates a Zip archiver for the given command.
func NewZip(command string) *Zip {
	return &Zip{Command: command}
}

// Args returns the arguments passed to the archiver for the given archive
// path and source directory name. The source is relative to the working
// directory so entries inside the archive are rooted at the brand name.
func (z *Zip) Args(archivePath, sourceDir string) []string {
	return []string{"-r", "-q", archivePath, sourceDir}
}

// Archive packs releasesRoot/<brand> into releasesRoot/<brand>-<version>.zip
// and returns the absolute archive path.
//
// An archive left over from a previous run is removed first; zip would
// otherwise update it in place and keep entries that no longer exist.
// A missing binary or a non-zero exit status is returned as a
// model.CLIError with ExitArchiveFailed, carrying the archiver's stderr.
func (z *Zip) Archive(ctx context.Context, releasesRoot string, brand model.Brand, version string) (string, error) {
	root, err := filepath.Abs(releasesRoot)
	if err != nil {
		return "", fmt.Errorf("failed to resolve releases dir %s: %w", releasesRoot, err)
	}

	archivePath := filepath.Join(root, Name(brand, version))
	if err := os.Remove(archivePath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return "", model.WrapCLIError(model.ExitArchiveFailed,
			fmt.Sprintf("failed to remove stale archive %s", archivePath), err)
	}

	if _, err := runArchiver(ctx, z.command(), root, z.Args(archivePath, brand.String())...); err != nil {
		return "", err
	}
	return archivePath, nil
}

func (z *Zip) command() string {
	if z.Command == "" {
		return DefaultCommand
	}
	return z.Command
}

// runArchiver executes the archiver in dir and returns its stdout.
//
// Stdout and stderr are captured separately; on failure stderr is folded
// into the error message so the user sees why zip refused to run.
func runArchiver(ctx context.Context, command, dir string, args ...string) (string, error) {
	// #nosec G204 — the command comes from the project's own release config
	cmd := exec.CommandContext(ctx, command, args...)
	cmd.Dir = dir

	var stdout, stderr strings.Builder
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr

	if err := cmd.Run(); err != nil {
		stderrStr := strings.TrimSpace(stderr.String())
		message := fmt.Sprintf("%s %s failed", command, strings.Join(args, " "))
		if stderrStr != "" {
			message = fmt.Sprintf("%s: %s", message, stderrStr)
		}
		return "", model.WrapCLIError(model.ExitArchiveFailed, message, err)
	}

	return stdout.String(), nil
}
