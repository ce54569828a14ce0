package main

import (
	"fmt"
	"io"
	"path/filepath"

	"github.com/charmbracelet/lipgloss"
	"github.com/spf13/cobra"

	"becoconfig/internal/generate"
	"becoconfig/internal/locate"
)

var (
	resolveExplain bool
	resolveOrder   string
)

var (
	foundStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	missingStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	headerStyle  = lipgloss.NewStyle().Bold(true).Underline(true)
)

// resolveCmd prints the candidate directories of a variant
var resolveCmd = &cobra.Command{
	Use:   "resolve VARIANT",
	Short: "Print the candidate source directories of a variant",
	Long: `Prints the candidate directories searched for the services file, in search
order. With --explain, each candidate is probed under the project root and
marked found or missing, followed by the project root fallback.

Examples:
  becogen resolve freeArmDebug
  becogen resolve free/debug --explain`,
	Args: cobra.ExactArgs(1),
	RunE: runResolve,
}

func init() {
	resolveCmd.Flags().BoolVar(&resolveExplain, "explain", false, "Probe each candidate under the project root")
	resolveCmd.Flags().StringVar(&resolveOrder, "search-order", "", "Candidate order: shallow-first or deep-first")
}

func runResolve(cmd *cobra.Command, args []string) error {
	c := withSearchOrder(currentConfig(), resolveOrder)
	gen, err := generate.New(c, logger)
	if err != nil {
		return err
	}

	candidates := gen.Candidates(args[0])
	out := cmd.OutOrStdout()
	if !resolveExplain {
		for _, cand := range candidates {
			fmt.Fprintln(out, cand)
		}
		return nil
	}

	root := projectRoot()
	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("%s (%s)", args[0], c.SearchOrder)))
	if len(candidates) == 0 {
		fmt.Fprintln(out, missingStyle.Render("no candidates: variant name could not be parsed"))
	}
	first := true
	for _, cand := range candidates {
		first = explainLine(out, cand, locate.Exists(root, cand, c.ServicesFile), first)
	}
	explainLine(out, ".", locate.Exists(root, "", c.ServicesFile), first)
	fmt.Fprintf(out, "file: %s\n", filepath.Join(root, c.ServicesFile))
	return nil
}

// explainLine prints one probe result and reports whether the winning
// candidate is still to come.
func explainLine(w io.Writer, cand string, found, first bool) bool {
	switch {
	case found && first:
		fmt.Fprintf(w, "%s %s\n", foundStyle.Render("->"), foundStyle.Render(cand))
		return false
	case found:
		fmt.Fprintf(w, "%s %s\n", foundStyle.Render("+"), cand)
	default:
		fmt.Fprintf(w, "%s %s\n", missingStyle.Render("-"), missingStyle.Render(cand))
	}
	return first
}
