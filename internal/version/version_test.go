package version

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// writeVersionFile creates version.php with the given content in a temp
// project root and returns the root.
func writeVersionFile(t *testing.T, content string) string {
	t.Helper()

	dir := t.TempDir()
	err := os.WriteFile(filepath.Join(dir, DefaultFile), []byte(content), 0644)
	require.NoError(t, err, "failed to write version.php")
	return dir
}

// TestParse covers the assignment shapes found in real version.php files.
func TestParse(t *testing.T) {
	tests := []struct {
		name    string
		content string
		want    string
		found   bool
	}{
		{"plugin property", "$plugin->version = 42;", "42", true},
		{"no spaces", "$plugin->version=2024061700;", "2024061700", true},
		{"dot access", "plugin.version = 7", "7", true},
		{"first match wins", "$plugin->version = 1;\n$plugin->version = 2;", "1", true},
		{"other identifier", "$module->version   =   2023100900; // YYYYMMDDXX", "2023100900", true},
		{"requires is not version", "$plugin->requires = 2022041900;", "", false},
		{"string value", "$plugin->version = 'abc';", "", false},
		{"bare assignment", "version = 3", "", false},
		{"empty", "", "", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := Parse(tt.content)
			assert.Equal(t, tt.found, ok)
			assert.Equal(t, tt.want, got)
		})
	}
}

// TestDiscover reads a realistic version.php.
func TestDiscover(t *testing.T) {
	root := writeVersionFile(t, `<?php
defined('MOODLE_INTERNAL') || die();

$plugin->component = 'availability_alemira';
$plugin->version = 42;
$plugin->requires = 2022041900;
`)

	v, err := Discover(root, "")
	require.NoError(t, err)
	assert.Equal(t, "42", v)
}

// TestDiscover_NoVersion verifies the fail-fast configuration error.
func TestDiscover_NoVersion(t *testing.T) {
	root := writeVersionFile(t, "<?php\n$plugin->component = 'availability_alemira';\n")

	_, err := Discover(root, DefaultFile)
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.Contains(t, err.Error(), "cannot find version in version.php")
}

// TestDiscover_MissingFile verifies that an absent file is also a
// configuration error rather than a generic one.
func TestDiscover_MissingFile(t *testing.T) {
	_, err := Discover(t.TempDir(), "")
	require.Error(t, err)

	var cliErr *model.CLIError
	require.True(t, errors.As(err, &cliErr))
	assert.Equal(t, model.ExitConfigError, cliErr.Code)
	assert.True(t, errors.Is(err, os.ErrNotExist))
}

// TestDiscover_AbsolutePath verifies that an absolute file is not joined
// with the project root.
func TestDiscover_AbsolutePath(t *testing.T) {
	root := writeVersionFile(t, "$plugin->version = 9;")

	v, err := Discover(t.TempDir(), filepath.Join(root, DefaultFile))
	require.NoError(t, err)
	assert.Equal(t, "9", v)
}
