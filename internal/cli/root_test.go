// Package cli — root_test.go exercises the command line end to end through
// cobra, checking exit codes and output without spawning a process.
package cli

import (
	"bytes"
	"context"
	"encoding/json"
	"os"
	"os/exec"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// runCLI executes a fresh root command with args and returns the exit code
// and captured stdout/stderr.
func runCLI(t *testing.T, args ...string) (model.ExitCode, string, string) {
	t.Helper()

	cmd := NewRootCommand()
	var stdout, stderr bytes.Buffer
	cmd.SetOut(&stdout)
	cmd.SetErr(&stderr)
	cmd.SetArgs(args)

	code := run(context.Background(), cmd)
	return code, stdout.String(), stderr.String()
}

// setupPlugin creates a minimal plugin project and returns its root.
func setupPlugin(t *testing.T, versionContent string) string {
	t.Helper()

	root := t.TempDir()
	write := func(rel, content string) {
		full := filepath.Join(root, filepath.FromSlash(rel))
		require.NoError(t, os.MkdirAll(filepath.Dir(full), 0755))
		require.NoError(t, os.WriteFile(full, []byte(content), 0644))
	}
	write("version.php", versionContent)
	write("foo.txt", "Alemira rocks")
	write("classes/alemira_client.php", "<?php class alemira_client {}")
	return root
}

// TestHelp verifies that help is printed and exits with the usage status.
func TestHelp(t *testing.T) {
	for _, arg := range []string{"-h", "--help"} {
		t.Run(arg, func(t *testing.T) {
			code, stdout, _ := runCLI(t, arg)

			assert.Equal(t, model.ExitUsage, code)
			assert.Contains(t, stdout, "--name")
			assert.Contains(t, stdout, "--force")
			assert.Contains(t, stdout, "--dry")
			assert.Contains(t, stdout, "--verbose")
		})
	}
}

// TestInvalidFlag verifies that a malformed option prints the error and
// usage and does not continue with defaults.
func TestInvalidFlag(t *testing.T) {
	root := setupPlugin(t, "$plugin->version = 42;")

	code, _, stderr := runCLI(t, "-C", root, "--bogus")

	assert.Equal(t, model.ExitUsage, code)
	assert.Contains(t, stderr, "invalid arguments")
	assert.Contains(t, stderr, "bogus")
	assert.Contains(t, stderr, "Usage:")
	assert.NoDirExists(t, filepath.Join(root, "releases"))
}

// TestMissingNameValue verifies that -n without a value is a usage error.
func TestMissingNameValue(t *testing.T) {
	code, _, stderr := runCLI(t, "-n")

	assert.Equal(t, model.ExitUsage, code)
	assert.Contains(t, stderr, "Usage:")
}

// TestUnsupportedName verifies that unknown brands are rejected outright.
func TestUnsupportedName(t *testing.T) {
	root := setupPlugin(t, "$plugin->version = 42;")

	code, _, stderr := runCLI(t, "-C", root, "--name", "proctor")

	assert.Equal(t, model.ExitUsage, code)
	assert.Contains(t, stderr, `only "alemira" and "examus2" are supported`)
	assert.NoDirExists(t, filepath.Join(root, "releases"))
}

// TestPositionalArguments verifies that stray arguments are usage errors.
func TestPositionalArguments(t *testing.T) {
	code, _, stderr := runCLI(t, "examus2")

	assert.Equal(t, model.ExitUsage, code)
	assert.Contains(t, stderr, "unexpected arguments: examus2")
}

// TestVersionFlag verifies the build info output.
func TestVersionFlag(t *testing.T) {
	code, stdout, _ := runCLI(t, "--version")

	assert.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "commit:")
}

// TestMissingVersion verifies the fail-fast configuration error.
func TestMissingVersion(t *testing.T) {
	root := setupPlugin(t, "<?php // no version here")

	code, _, stderr := runCLI(t, "-C", root, "-n", "examus2", "-f")

	assert.Equal(t, model.ExitConfigError, code)
	assert.Contains(t, stderr, "cannot find version in version.php")
	assert.NoDirExists(t, filepath.Join(root, "releases"))
}

// TestOutputExists verifies exit status 1 without --force.
func TestOutputExists(t *testing.T) {
	root := setupPlugin(t, "$plugin->version = 42;")
	keep := filepath.Join(root, "releases", "examus2", "keep.txt")
	require.NoError(t, os.MkdirAll(filepath.Dir(keep), 0755))
	require.NoError(t, os.WriteFile(keep, []byte("keep"), 0644))

	code, stdout, stderr := runCLI(t, "-C", root, "-n", "examus2")

	assert.Equal(t, model.ExitOutputExists, code)
	assert.Contains(t, stdout, "already exists")
	assert.Contains(t, stderr, "use --force")
	assert.FileExists(t, keep)
	assert.NoFileExists(t, filepath.Join(root, "releases", "examus2", "foo.txt"))
}

// TestDryRun verifies that a dry run succeeds without writing anything.
func TestDryRun(t *testing.T) {
	root := setupPlugin(t, "$plugin->version = 42;")

	code, stdout, _ := runCLI(t, "-C", root, "-n", "examus2", "--dry", "-v")

	assert.Equal(t, model.ExitSuccess, code)
	assert.Contains(t, stdout, "File list:")
	assert.Contains(t, stdout, "Renaming classes/alemira_client.php to classes/examus2_client.php")
	assert.Contains(t, stdout, "Would create archive examus2-42.zip")
	assert.NoDirExists(t, filepath.Join(root, "releases"))
}

// TestRelease_WithConfiguredArchiver runs a full, non-dry release using a
// stand-in archiver from the project's release config.
func TestRelease_WithConfiguredArchiver(t *testing.T) {
	if _, err := exec.LookPath("true"); err != nil {
		t.Skip("true binary not found in PATH")
	}
	root := setupPlugin(t, "$plugin->version = 42;")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".release.yaml"), []byte("archiver: \"true\"\n"), 0644))

	code, stdout, stderr := runCLI(t, "-C", root, "-n", "examus2", "--json")
	require.Equal(t, model.ExitSuccess, code, "stderr: %s", stderr)

	var result map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stdout), &result))
	assert.Equal(t, "examus2", result["name"])
	assert.Equal(t, "42", result["version"])
	assert.Equal(t, filepath.Join(root, "releases", "examus2-42.zip"), result["archive"])

	data, err := os.ReadFile(filepath.Join(root, "releases", "examus2", "foo.txt"))
	require.NoError(t, err)
	assert.Equal(t, "Examus rocks", string(data))
	assert.FileExists(t, filepath.Join(root, "releases", "examus2", "classes", "examus2_client.php"))
}

// TestArchiverFailure verifies that a failing archiver is not reported as
// success.
func TestArchiverFailure(t *testing.T) {
	if _, err := exec.LookPath("false"); err != nil {
		t.Skip("false binary not found in PATH")
	}
	root := setupPlugin(t, "$plugin->version = 42;")
	require.NoError(t, os.WriteFile(filepath.Join(root, ".release.yaml"), []byte("archiver: \"false\"\n"), 0644))

	code, stdout, _ := runCLI(t, "-C", root)

	assert.Equal(t, model.ExitArchiveFailed, code)
	assert.NotContains(t, stdout, "Finished")
}

// TestJSONError verifies the JSON error format.
func TestJSONError(t *testing.T) {
	root := setupPlugin(t, "<?php")

	code, _, stderr := runCLI(t, "-C", root, "--json")

	assert.Equal(t, model.ExitConfigError, code)
	var obj map[string]map[string]interface{}
	require.NoError(t, json.Unmarshal([]byte(stderr), &obj))
	assert.Equal(t, "cannot find version in version.php", obj["error"]["message"])
}
