// Package version discovers the release version of a Moodle plugin.
//
// Moodle plugins declare their version in version.php as a property
// assignment, e.g.:
//
//	$plugin->version = 2024061700;
//
// The digits of the first such assignment become the version embedded in
// the archive name.
package version

import (
	"fmt"
	"os"
	"path/filepath"
	"regexp"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// DefaultFile is the file Discover reads when no other file is configured.
const DefaultFile = "version.php"

// assignmentRegex matches "<identifier>->version = <digits>" as written in
// PHP, and the "<identifier>.version = <digits>" form for other sources.
// Only the digits are captured.
var assignmentRegex = regexp.MustCompile(`[A-Za-z_]\w*\s*(?:->|\.)\s*version\s*=\s*(\d+)`)

// Parse returns the digits of the first version assignment in content.
// The boolean is false when there is no assignment.
func Parse(content string) (string, bool) {
	m := assignmentRegex.FindStringSubmatch(content)
	if m == nil {
		return "", false
	}
	return m[1], true
}

// Discover reads file (relative to projectRoot unless absolute) and returns
// the version it declares.
//
// A missing file or a file without a version assignment is a configuration
// error (model.ExitConfigError): the release must not continue with an
// unknown version.
func Discover(projectRoot, file string) (string, error) {
	if file == "" {
		file = DefaultFile
	}
	path := file
	if !filepath.IsAbs(path) {
		path = filepath.Join(projectRoot, file)
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return "", model.WrapCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot read version from %s", file), err)
	}

	v, ok := Parse(string(data))
	if !ok {
		return "", model.NewCLIError(model.ExitConfigError,
			fmt.Sprintf("cannot find version in %s", file))
	}
	return v, nil
}
