// Package manifest enumerates the files that go into a release.
//
// The manifest is an ordered list of slash-separated paths relative to the
// project root. It is built by walking the tree the way a recursive "**/*"
// glob does: hidden entries (names starting with ".") are neither listed
// nor descended into, so VCS metadata never reaches a release. Hidden files
// that do belong in a release are listed explicitly in Options.Append.
package manifest

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// Manifest is the ordered list of relative paths to process. Duplicates are
// kept: a path that is both walked and appended is processed twice.
type Manifest []string

// Options controls which paths Enumerate keeps.
type Options struct {
	// Ignore lists path prefixes to drop. The comparison is on the raw
	// path string, so "utils" also drops "utils_test.php".
	Ignore []string

	// Exclude lists compiled glob patterns; a path matching any is dropped.
	// Dropping a directory also drops everything below it.
	Exclude []glob.Glob

	// Append lists paths added at the end regardless of whether they exist.
	Append []string
}

// Enumerate walks root and returns the release manifest.
//
// Entries are visited in lexical order within each directory, and every
// directory is listed before its contents, so creating entries in manifest
// order always creates parents first. Symlinks to directories are followed
// and listed under the link's own path; a link back into a directory that
// is already being walked is listed but not descended into.
func Enumerate(root string, opts Options) (Manifest, error) {
	w := &walker{opts: opts, active: make(map[string]bool)}
	if err := w.walk(root, ""); err != nil {
		return nil, fmt.Errorf("failed to list project files in %s: %w", root, err)
	}

	m := w.manifest
	for _, p := range opts.Append {
		m = append(m, filepath.ToSlash(p))
	}
	return m, nil
}

// walker accumulates manifest entries across a recursive walk.
type walker struct {
	opts     Options
	manifest Manifest

	// active holds the resolved paths of the directories on the current
	// walk stack.
	active map[string]bool
}

// walk lists dir, whose path relative to the project root is relDir
// ("" for the root itself).
func (w *walker) walk(dir, relDir string) error {
	resolved, err := filepath.EvalSymlinks(dir)
	if err != nil {
		return err
	}
	if w.active[resolved] {
		return nil
	}
	w.active[resolved] = true
	defer delete(w.active, resolved)

	// os.ReadDir returns entries sorted by name.
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}

	for _, d := range entries {
		// Hidden entries are invisible to "**/*" and so are their children.
		if strings.HasPrefix(d.Name(), ".") {
			continue
		}

		rel := d.Name()
		if relDir != "" {
			rel = relDir + "/" + d.Name()
		}
		if hasIgnoredPrefix(rel, w.opts.Ignore) || matchesAny(rel, w.opts.Exclude) {
			continue
		}
		w.manifest = append(w.manifest, rel)

		path := filepath.Join(dir, d.Name())
		isDir := d.IsDir()
		if d.Type()&fs.ModeSymlink != 0 {
			// Dangling links stay listed; materializing reports them.
			info, err := os.Stat(path)
			isDir = err == nil && info.IsDir()
		}
		if isDir {
			if err := w.walk(path, rel); err != nil {
				return err
			}
		}
	}
	return nil
}

// hasIgnoredPrefix reports whether rel starts with any of the prefixes.
func hasIgnoredPrefix(rel string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(rel, p) {
			return true
		}
	}
	return false
}

func matchesAny(rel string, globs []glob.Glob) bool {
	for _, g := range globs {
		if g.Match(rel) {
			return true
		}
	}
	return false
}
