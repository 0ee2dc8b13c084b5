// Package model defines the domain types for the plugin-release CLI.
//
// These types are passed between the cli, release, and archive packages.
// They are constructed once per run from command-line flags and never
// mutated afterwards.
package model

import (
	"fmt"
	"strings"
)

// Brand identifies the product name a release is packaged under.
// The source tree is always written for the default brand; any other
// brand is produced by literal renaming rules (see package rules).
type Brand string

const (
	// BrandAlemira is the default brand. Releases for it are a plain copy
	// of the project tree with no renaming.
	BrandAlemira Brand = "alemira"

	// BrandExamus2 is the alternate brand. File names, identifiers and
	// prose are rewritten from "alemira" to "examus2"/"Examus".
	BrandExamus2 Brand = "examus2"

	// DefaultBrand is used when no --name flag is given.
	DefaultBrand = BrandAlemira
)

// String returns the string representation of Brand.
func (b Brand) String() string {
	return string(b)
}

// IsValid checks whether the Brand value is one of the supported brands.
func (b Brand) IsValid() bool {
	switch b {
	case BrandAlemira, BrandExamus2:
		return true
	default:
		return false
	}
}

// IsDefault reports whether b is the brand the source tree is written for.
func (b Brand) IsDefault() bool {
	return b == DefaultBrand
}

// Brands returns every supported brand in a stable order, for help text
// and error messages.
func Brands() []Brand {
	return []Brand{BrandAlemira, BrandExamus2}
}

// ParseBrand converts a string to a Brand. Unknown values are rejected
// instead of falling back to the default, so a typo can never silently
// produce a release under the wrong name.
func ParseBrand(s string) (Brand, error) {
	brand := Brand(s)
	if !brand.IsValid() {
		names := make([]string, 0, len(Brands()))
		for _, b := range Brands() {
			names = append(names, fmt.Sprintf("%q", b))
		}
		return "", fmt.Errorf("unsupported name %q: only %s are supported", s, strings.Join(names, " and "))
	}
	return brand, nil
}

// Options is the release configuration for a single run.
// It is built once from command-line flags and treated as immutable.
type Options struct {
	// Name is the target brand of the release.
	Name Brand

	// DryRun reports every filesystem mutation and the archiver call
	// without performing them.
	DryRun bool

	// Verbose prints the file manifest and a per-file processing trace.
	Verbose bool

	// Force allows an existing output directory to be removed and rebuilt.
	Force bool
}

// ExitCode defines the process exit codes of plugin-release.
// These codes allow scripts and CI systems to programmatically determine
// the outcome of a run.
type ExitCode int

const (
	// ExitSuccess indicates the release was built and archived.
	ExitSuccess ExitCode = 0

	// ExitGeneralError indicates an unspecified error occurred.
	ExitGeneralError ExitCode = 1

	// ExitOutputExists indicates the output directory already exists and
	// --force was not given. It shares its value with ExitGeneralError.
	ExitOutputExists ExitCode = 1

	// ExitUsage indicates help was displayed or the command line was invalid
	// (malformed flags, unsupported brand name).
	ExitUsage ExitCode = 2

	// ExitConfigError indicates the version could not be discovered or the
	// release config file could not be loaded.
	ExitConfigError ExitCode = 3

	// ExitArchiveFailed indicates the external archiver could not be run
	// or exited with a non-zero status.
	ExitArchiveFailed ExitCode = 4

	// ExitFilesystemError indicates reading the project tree or writing
	// the output tree failed.
	ExitFilesystemError ExitCode = 5
)

// CLIError is a custom error type that carries an exit code.
// This allows the CLI layer to translate domain errors into
// appropriate process exit codes.
type CLIError struct {
	// Code is the exit code to return to the OS.
	Code ExitCode

	// Message is the human-readable error description.
	Message string

	// Err is the underlying error, if any.
	Err error
}

// Error satisfies the error interface. It returns the human-readable
// error message, optionally including the underlying error.
func (e *CLIError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

// Unwrap returns the underlying error for use with errors.Is/errors.As.
func (e *CLIError) Unwrap() error {
	return e.Err
}

// NewCLIError creates a new CLIError with the given exit code and message.
func NewCLIError(code ExitCode, message string) *CLIError {
	return &CLIError{Code: code, Message: message}
}

// WrapCLIError creates a new CLIError that wraps an existing error.
func WrapCLIError(code ExitCode, message string, err error) *CLIError {
	return &CLIError{Code: code, Message: message, Err: err}
}
