package util

import (
	"fmt"
	"io"
	"os"

	"github.com/xplshn/gpyc/pkg/config"
)

// Stderr receives every diagnostic. Tests swap it for a buffer.
var Stderr io.Writer = os.Stderr

var exit = os.Exit

// Error prints a formatted error message
func Error(format string, args ...interface{}) {
	fmt.Fprint(Stderr, "gpyc: \033[31merror:\033[0m ")
	fmt.Fprintf(Stderr, format, args...)
	fmt.Fprintln(Stderr)
}

// Fatal reports err and terminates the compilation. Internal errors carry
// their subject so the failure can be diagnosed without re-running.
func Fatal(err error) {
	if ie, ok := AsInternal(err); ok {
		Error("%s", ie.Error())
		fmt.Fprintln(Stderr, "  this is a compiler defect, please report it along with the input unit")
	} else {
		Error("%v", err)
	}
	exit(1)
}

// Warn prints a formatted warning message if the corresponding warning is enabled
func Warn(cfg *config.Config, wt config.Warning, format string, args ...interface{}) {
	if cfg == nil || !cfg.IsWarningEnabled(wt) {
		return
	}
	fmt.Fprint(Stderr, "gpyc: \033[33mwarning:\033[0m ")
	fmt.Fprintf(Stderr, format, args...)
	fmt.Fprintf(Stderr, " [-W%s]\n", cfg.Warnings[wt].Name)
}

// Info prints a progress line, gated by cfg.Verbose.
func Info(cfg *config.Config, format string, args ...interface{}) {
	if cfg == nil || !cfg.Verbose {
		return
	}
	fmt.Fprintf(Stderr, "gpyc: info: "+format+"\n", args...)
}
