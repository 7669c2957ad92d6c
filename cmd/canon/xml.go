package main

import (
	"context"
	"fmt"
	"os"
	"sort"

	"github.com/spf13/cobra"
)

var xmlCmd = &cobra.Command{
	Use:   "xml <file>",
	Short: "Canonicalize an external annotations XML file",
	Long:  "Reads an external annotations file and prints the canonical form of each entry's annotations, resolved against the indexed codebase.",
	Args:  cobra.ExactArgs(1),
	RunE:  runXML,
}

func runXML(cmd *cobra.Command, args []string) error {
	path, err := resolveFilePath(args[0])
	if err != nil {
		return outputError("xml", err)
	}
	f, err := os.Open(path)
	if err != nil {
		return outputError("xml", fmt.Errorf("opening %s: %w", path, err))
	}
	defer f.Close()

	engine, err := openEngine()
	if err != nil {
		return outputError("xml", err)
	}
	defer engine.Close()

	byTarget, err := engine.CanonicalizeXML(context.Background(), f)
	if err != nil {
		return outputError("xml", err)
	}
	items := xmlToCLI(byTarget)
	total := len(items)
	return outputResult(CLIResult{Command: "xml", Results: items, TotalCount: &total})
}

// xmlToCLI flattens canonical forms keyed by target into a list sorted by
// target.
func xmlToCLI(byTarget map[string][]string) []CLIXMLEntry {
	targets := make([]string, 0, len(byTarget))
	for t := range byTarget {
		targets = append(targets, t)
	}
	sort.Strings(targets)
	items := make([]CLIXMLEntry, len(targets))
	for i, t := range targets {
		items[i] = CLIXMLEntry{Target: t, Annotations: byTarget[t]}
	}
	return items
}
