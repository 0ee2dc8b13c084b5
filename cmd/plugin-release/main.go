// Package main is the entry point for the plugin-release CLI.
//
// The binary packages a Moodle plugin into a versioned zip archive,
// optionally rebranded under an alternate product name. It delegates all
// functionality to the internal/cli package, which defines the cobra command.
//
// Build-time variables (version, commit, date) are injected via ldflags.
// During development, they default to "dev", "none", and "unknown".
package main

import (
	"github.com/mmr-tortoise/plugin-release/internal/cli"
)

// version, commit, and date are set at build time via ldflags.
var (
	version = "dev"
	commit  = "none"
	date    = "unknown"
)

func main() {
	cli.Version = version
	cli.Commit = commit
	cli.Date = date

	rootCmd := cli.NewRootCommand()
	cli.Execute(rootCmd)
}
