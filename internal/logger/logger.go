// Package logger provides leveled stderr logging for the topicnet CLI.
// Debug, Info and Section output appears only in verbose mode (--verbose),
// tracing each pipeline stage. Warnings about degraded behaviour print
// unless quiet mode is on.
package logger

import (
	"fmt"
	"io"
	"os"
	"sync"
	"time"
)

var (
	mu      sync.Mutex
	verbose bool
	quiet   bool
	output  io.Writer = os.Stderr
)

func SetVerbose(v bool) { locked(func() { verbose = v }) }

// SetQuiet suppresses warnings. Verbose output still prints.
func SetQuiet(q bool) { locked(func() { quiet = q }) }

// SetOutput redirects all log lines. The default is os.Stderr.
func SetOutput(w io.Writer) { locked(func() { output = w }) }

func IsVerbose() bool {
	var v bool
	locked(func() { v = verbose })
	return v
}

func Debug(format string, args ...any) { logf(true, "[DEBUG] "+format+"\n", args...) }

func Info(format string, args ...any) { logf(true, "[INFO] "+format+"\n", args...) }

// Section starts a block of stage output in verbose mode.
func Section(name string) { logf(true, "\n=== %s ===\n", name) }

// Warn prints unless quiet is set without verbose.
func Warn(format string, args ...any) {
	locked(func() {
		if !quiet || verbose {
			fmt.Fprintf(output, "[WARN] "+format+"\n", args...)
		}
	})
}

// Timed logs how long a stage took when the returned func is called.
//
//	defer logger.Timed("link")()
func Timed(stage string) func() {
	start := time.Now()
	return func() {
		logf(true, "[DEBUG] %s took %s\n", stage, time.Since(start).Round(time.Millisecond))
	}
}

func logf(verboseOnly bool, format string, args ...any) {
	locked(func() {
		if !verboseOnly || verbose {
			fmt.Fprintf(output, format, args...)
		}
	})
}

func locked(f func()) {
	mu.Lock()
	defer mu.Unlock()
	f()
}
