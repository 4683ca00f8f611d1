package main

import (
	"fmt"

	"github.com/fatih/color"
)

// Status colours for CLI output.
var (
	Brand  = color.New(color.FgHiGreen, color.Bold)
	Subtle = color.New(color.FgHiBlack)
	Warn   = color.New(color.FgYellow)
	Good   = color.New(color.FgGreen)
	Bad    = color.New(color.FgRed)
)

func okf(format string, args ...any) {
	fmt.Printf("  %s %s\n", Good.Sprint("✓"), fmt.Sprintf(format, args...))
}

func warnf(format string, args ...any) {
	fmt.Printf("  %s %s\n", Warn.Sprint("!"), fmt.Sprintf(format, args...))
}

func field(label, value string) {
	fmt.Printf("  %s %s\n", Subtle.Sprintf("%-10s", label), value)
}
