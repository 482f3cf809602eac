// Package main provides UI utilities for the CardSense CLI.
package main

import (
	"fmt"
	"os"
	"time"

	"github.com/briandowns/spinner"
	"github.com/fatih/color"
)

// UI provides user-friendly terminal output.
type UI struct {
	jsonMode bool
	noColor  bool
	spin     *spinner.Spinner
}

// NewUI creates a UI. In JSON mode all decorative output is suppressed.
func NewUI(jsonMode, noColor bool) *UI {
	return &UI{jsonMode: jsonMode, noColor: noColor}
}

// StartSpinner shows an indeterminate spinner with a message.
func (ui *UI) StartSpinner(msg string) {
	if ui.jsonMode || !isTerminal() {
		return
	}
	ui.spin = spinner.New(spinner.CharSets[14], 100*time.Millisecond)
	ui.spin.Suffix = " " + msg
	ui.spin.Start()
}

// UpdateSpinner changes the spinner message.
func (ui *UI) UpdateSpinner(msg string) {
	if ui.spin != nil {
		ui.spin.Suffix = " " + msg
	}
}

// StopSpinner stops and clears the spinner.
func (ui *UI) StopSpinner() {
	if ui.spin != nil {
		ui.spin.Stop()
		ui.spin = nil
	}
}

// Success prints a success message.
func (ui *UI) Success(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Printf("✓ %s\n", fmt.Sprintf(format, args...))
	} else {
		color.New(color.FgGreen).Printf("✓ %s\n", fmt.Sprintf(format, args...))
	}
}

// Error prints an error message to stderr.
func (ui *UI) Error(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
	} else {
		color.New(color.FgRed).Fprintf(os.Stderr, "✗ %s\n", fmt.Sprintf(format, args...))
	}
}

// Info prints an info message.
func (ui *UI) Info(format string, args ...any) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Printf("ℹ %s\n", fmt.Sprintf(format, args...))
	} else {
		color.New(color.FgCyan).Printf("ℹ %s\n", fmt.Sprintf(format, args...))
	}
}

// KeyValue prints a key-value pair.
func (ui *UI) KeyValue(key string, value any) {
	if ui.jsonMode {
		return
	}
	if ui.noColor {
		fmt.Printf("  %s: %v\n", key, value)
	} else {
		color.New(color.FgYellow).Printf("  %s: ", key)
		fmt.Printf("%v\n", value)
	}
}

// isTerminal checks if stdout is a terminal.
func isTerminal() bool {
	fileInfo, err := os.Stdout.Stat()
	if err != nil {
		return false
	}
	return (fileInfo.Mode() & os.ModeCharDevice) != 0
}
