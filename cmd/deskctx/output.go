package main

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"
)

func writeJSON(w io.Writer, v any) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}

// emit prints v as JSON under --json, otherwise runs the text printer.
func emit(cmd *cobra.Command, g *globalFlags, v any, text func(w io.Writer)) error {
	if g.jsonOut {
		return writeJSON(cmd.OutOrStdout(), v)
	}
	text(cmd.OutOrStdout())
	return nil
}

var (
	headerStyle = lipgloss.NewStyle().Bold(true)
	mutedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
)

func colorSwatch(hex string, color bool) string {
	if !color || hex == "" {
		return ""
	}
	return lipgloss.NewStyle().Background(lipgloss.Color(hex)).Render("  ") + " "
}

func header(text string, color bool) string {
	if !color {
		return text
	}
	return headerStyle.Render(text)
}

func muted(text string, color bool) string {
	if !color {
		return text
	}
	return mutedStyle.Render(text)
}

func check(done bool) string {
	if done {
		return "[x]"
	}
	return "[ ]"
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func printKV(w io.Writer, key string, value any) {
	fmt.Fprintf(w, "%-16s %v\n", key+":", value)
}
