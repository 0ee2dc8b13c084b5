// Package cli — release.go implements the release run behind the root command.
//
// The run:
//  1. Validates the requested brand (unknown names are usage errors)
//  2. Loads the optional release config of the project
//  3. Delegates to release.Run for version discovery, manifest enumeration,
//     materialization and archiving
//  4. Prints a JSON summary when --json is set
package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/mmr-tortoise/plugin-release/internal/config"
	"github.com/mmr-tortoise/plugin-release/internal/model"
	"github.com/mmr-tortoise/plugin-release/internal/release"
)

// runRelease is the main logic function of the root command.
func runRelease(ctx context.Context, stdout, stderr io.Writer, flags *rootFlags) error {
	brand, err := model.ParseBrand(flags.name)
	if err != nil {
		return model.WrapCLIError(model.ExitUsage, "invalid --name", err)
	}

	opts := model.Options{
		Name:    brand,
		DryRun:  flags.dry,
		Verbose: verbose,
		Force:   flags.force,
	}

	root := flags.dir
	if root == "" {
		root, err = os.Getwd()
		if err != nil {
			return model.WrapCLIError(model.ExitFilesystemError, "cannot determine current directory", err)
		}
	}

	cfg, err := config.Load(root, flags.config)
	if err != nil {
		return err
	}

	// In JSON mode stdout carries only the summary; progress goes to stderr.
	reporter := &release.Reporter{Out: stdout, Err: stderr, Verbose: opts.Verbose}
	if jsonOutput {
		reporter.Out = stderr
	}
	if cfg.Path != "" {
		reporter.Verbosef("Using release config %s", cfg.Path)
	}

	result, err := release.Run(ctx, root, cfg, opts, nil, reporter)
	if err != nil {
		return err
	}

	if jsonOutput {
		printResultJSON(stdout, opts, result)
	}
	return nil
}

// printResultJSON outputs the release result as structured JSON.
func printResultJSON(w io.Writer, opts model.Options, res *release.Result) {
	out := map[string]interface{}{
		"name":      opts.Name,
		"version":   res.Version,
		"outputDir": res.OutputDir,
		"archive":   res.ArchivePath,
		"files":     len(res.Processed),
		"dryRun":    opts.DryRun,
	}

	data, _ := json.MarshalIndent(out, "", "  ")
	fmt.Fprintln(w, string(data))
}
