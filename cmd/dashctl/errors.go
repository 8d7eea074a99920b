package main

import (
	"fmt"
	"io"
	"strings"
)

// CLIError is a formatted, user-facing CLI failure: a stage name, a
// short message, and an optional detail line.
type CLIError struct {
	Type    string // "parse", "plan", "run", "serve", "execution"
	Message string
	Details string
}

func (e *CLIError) Error() string {
	var b strings.Builder
	b.WriteString(e.Message)
	if e.Details != "" {
		b.WriteString(": ")
		b.WriteString(e.Details)
	}
	return b.String()
}

// FormatError writes err to w, coloring the "Error:" prefix when
// useColor is set.
func FormatError(w io.Writer, err error, useColor bool) {
	if err == nil {
		return
	}
	if cliErr, ok := err.(*CLIError); ok {
		fmt.Fprintf(w, "%s%s\n", colorize("Error: ", colorRed, useColor), cliErr.Message)
		if cliErr.Details != "" {
			fmt.Fprintf(w, "%s%s\n", colorize("  ", colorGray, useColor), cliErr.Details)
		}
		return
	}
	fmt.Fprintf(w, "%s%s\n", colorize("Error: ", colorRed, useColor), err.Error())
}
