package release

import (
	"fmt"
	"io"

	"github.com/fatih/color"
)

// Reporter prints release progress.
//
// Phase messages go to Out, warnings to Err. Verbose trace lines are only
// printed when Verbose is set. Warning prefixes are colored by fatih/color,
// which turns coloring off automatically when Err is not a terminal.
type Reporter struct {
	Out     io.Writer
	Err     io.Writer
	Verbose bool
}

var warnPrefix = color.New(color.FgYellow, color.Bold).SprintFunc()

// Infof prints a phase message.
func (r *Reporter) Infof(format string, args ...interface{}) {
	fmt.Fprintf(r.out(), format+"\n", args...)
}

// Verbosef prints a trace line when verbose mode is on.
func (r *Reporter) Verbosef(format string, args ...interface{}) {
	if r != nil && r.Verbose {
		fmt.Fprintf(r.out(), format+"\n", args...)
	}
}

// Warnf prints a warning to the error stream.
func (r *Reporter) Warnf(format string, args ...interface{}) {
	fmt.Fprintf(r.err(), "%s "+format+"\n", append([]interface{}{warnPrefix("Warning:")}, args...)...)
}

func (r *Reporter) out() io.Writer {
	if r == nil || r.Out == nil {
		return io.Discard
	}
	return r.Out
}

func (r *Reporter) err() io.Writer {
	if r == nil || r.Err == nil {
		return io.Discard
	}
	return r.Err
}
