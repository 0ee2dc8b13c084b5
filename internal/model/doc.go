// Package model defines the domain types and value objects for the
// plugin-release CLI.
//
// This package contains pure data structures with no external dependencies:
// the target Brand enumeration, the immutable per-run Options, and the exit
// codes (ExitCode) plus the custom error type (CLIError) that carries an exit
// code for proper OS process exit handling.
package model
