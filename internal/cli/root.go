// Package cli implements the cobra-based command line of plugin-release.
//
// plugin-release has a single root command with no subcommands: it builds
// one release per invocation. This file defines the command, its flags,
// and the translation of errors into process exit codes.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/mmr-tortoise/plugin-release/internal/model"
)

// Global flag variables. They are bound to flags in NewRootCommand, which
// also resets them to their defaults.
var (
	// jsonOutput prints the result (and errors) as JSON for CI consumption.
	jsonOutput bool

	// verbose prints the file manifest and a per-file processing trace.
	verbose bool

	// helpShown is set when the help text was printed, so Execute can
	// exit with the usage status instead of success.
	helpShown bool
)

// version, commit, and date are set at build time via ldflags.
// They are injected from the main package to display version information.
var (
	// Version is the semantic version of the binary (e.g., "1.0.0").
	Version = "dev"

	// Commit is the Git commit hash the binary was built from.
	Commit = "none"

	// Date is the build timestamp.
	Date = "unknown"
)

// rootFlags holds the flag values that only the release run needs.
type rootFlags struct {
	// name is the target brand as typed by the user; validated in runRelease.
	name string

	// dry, force map directly onto model.Options.
	dry   bool
	force bool

	// dir is the project root. Empty means the current directory.
	dir string

	// config is an explicit release config file.
	config string
}

// NewRootCommand creates and configures the root cobra command.
func NewRootCommand() *cobra.Command {
	flags := &rootFlags{}
	helpShown = false

	brandNames := make([]string, 0, len(model.Brands()))
	for _, b := range model.Brands() {
		brandNames = append(brandNames, fmt.Sprintf("%q", b))
	}

	rootCmd := &cobra.Command{
		Use:   "plugin-release",
		Short: "Package a Moodle plugin release, optionally rebranded",
		Long: `plugin-release copies the plugin in the current directory into
releases/<name>/, renaming files and rewriting contents when an alternate
brand is requested, and archives it as releases/<name>-<version>.zip.

The version is read from the $plugin->version assignment in version.php.

Examples:
  plugin-release
  plugin-release --name examus2 --force
  plugin-release -n examus2 -d -v`,

		Args: func(cmd *cobra.Command, args []string) error {
			if len(args) > 0 {
				return model.NewCLIError(model.ExitUsage,
					fmt.Sprintf("unexpected arguments: %s", strings.Join(args, " ")))
			}
			return nil
		},

		RunE: func(cmd *cobra.Command, args []string) error {
			return runRelease(cmd.Context(), cmd.OutOrStdout(), cmd.ErrOrStderr(), flags)
		},

		// Errors and usage are printed by Execute, once.
		SilenceUsage:  true,
		SilenceErrors: true,

		Version: fmt.Sprintf("%s (commit: %s, built: %s)", Version, Commit, Date),
	}

	rootCmd.Flags().StringVarP(&flags.name, "name", "n", model.DefaultBrand.String(),
		fmt.Sprintf("Release name, one of %s", strings.Join(brandNames, ", ")))
	rootCmd.Flags().BoolVarP(&flags.dry, "dry", "d", false, "Report what would be done without writing anything")
	rootCmd.Flags().BoolVarP(&flags.force, "force", "f", false, "Replace an existing output directory")
	rootCmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "Print the file list and every processed file")
	rootCmd.Flags().StringVarP(&flags.dir, "dir", "C", "", "Project root (default: current directory)")
	rootCmd.Flags().StringVar(&flags.config, "config", "", "Release config file (default: .release.yaml, .release.yml or .release.json if present)")
	rootCmd.Flags().BoolVar(&jsonOutput, "json", false, "Output the result in JSON format")

	// Malformed flags are usage errors; Execute prints the usage text.
	rootCmd.SetFlagErrorFunc(func(_ *cobra.Command, err error) error {
		return model.WrapCLIError(model.ExitUsage, "invalid arguments", err)
	})

	defaultHelp := rootCmd.HelpFunc()
	rootCmd.SetHelpFunc(func(c *cobra.Command, args []string) {
		helpShown = true
		defaultHelp(c, args)
	})

	return rootCmd
}

// Execute runs the root command and exits the process with the resulting
// exit code. SIGINT and SIGTERM cancel the run between files.
func Execute(rootCmd *cobra.Command) {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	code := run(ctx, rootCmd)
	stop()
	os.Exit(int(code))
}

// run executes rootCmd and maps its outcome to an exit code.
//
// CLIError values carry their own code; usage errors are followed by the
// usage text. Any other error exits with ExitGeneralError. Printing help
// exits with ExitUsage.
func run(ctx context.Context, rootCmd *cobra.Command) model.ExitCode {
	err := rootCmd.ExecuteContext(ctx)
	if err == nil {
		if helpShown {
			return model.ExitUsage
		}
		return model.ExitSuccess
	}

	errOut := rootCmd.ErrOrStderr()

	var cliErr *model.CLIError
	if errors.As(err, &cliErr) {
		printError(errOut, cliErr.Message, cliErr.Err)
		if cliErr.Code == model.ExitUsage && !jsonOutput {
			fmt.Fprint(errOut, rootCmd.UsageString())
		}
		return cliErr.Code
	}

	if errors.Is(err, context.Canceled) {
		printError(errOut, "interrupted", nil)
		return model.ExitGeneralError
	}

	printError(errOut, err.Error(), nil)
	return model.ExitGeneralError
}

var errorPrefix = color.New(color.FgRed, color.Bold).SprintFunc()

// printError outputs an error message in the appropriate format
// (JSON or text) based on the --json flag.
func printError(w io.Writer, message string, underlying error) {
	if jsonOutput {
		errObj := map[string]interface{}{
			"error": map[string]interface{}{
				"message": message,
			},
		}
		if underlying != nil {
			if errMap, ok := errObj["error"].(map[string]interface{}); ok {
				errMap["detail"] = underlying.Error()
			}
		}
		data, _ := json.MarshalIndent(errObj, "", "  ")
		fmt.Fprintln(w, string(data))
		return
	}

	if underlying != nil {
		fmt.Fprintf(w, "%s %s: %v\n", errorPrefix("Error:"), message, underlying)
	} else {
		fmt.Fprintf(w, "%s %s\n", errorPrefix("Error:"), message)
	}
}
