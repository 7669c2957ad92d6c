package main

import (
	"fmt"
	"io"
	"os"
	"strings"
	"text/tabwriter"
)

// formatAnnotationsText formats CLIAnnotation results as aligned columns.
func formatAnnotationsText(w io.Writer, anns []CLIAnnotation) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "LOCATION\tOWNER\tCANONICAL")
	for _, a := range anns {
		canonical := a.Canonical
		if a.Suppressed {
			canonical = "(suppressed)"
		} else if a.RunID == "" {
			canonical = "(pending) " + a.Source
		}
		fmt.Fprintf(tw, "%s:%d:%d\t%s\t%s\n", a.File, a.Line, a.Col, a.Owner, canonical)
	}
	tw.Flush()
}

// formatReportText formats a CLIReport as readable text.
func formatReportText(w io.Writer, r CLIReport) {
	fmt.Fprintf(w, "Run: %s\n", r.RunID)
	fmt.Fprintf(w, "Files: %d\n", r.Files)
	fmt.Fprintf(w, "Annotations: %d (changed %d, suppressed %d)\n", r.Annotations, r.Changed, r.Suppressed)
	if r.Errors > 0 {
		fmt.Fprintf(w, "Errors: %d\n", r.Errors)
	}
	if len(r.ChangedDeclarations) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, "Changed declarations:")
		for _, d := range r.ChangedDeclarations {
			fmt.Fprintf(w, "  %s\n", d)
		}
	}
}

// formatRunsText formats CLIRun results as aligned columns.
func formatRunsText(w io.Writer, runs []CLIRun) {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintln(tw, "ID\tSTARTED\tFILES\tANNOTATIONS\tCHANGED\tSUPPRESSED\tERRORS")
	for _, r := range runs {
		fmt.Fprintf(tw, "%s\t%s\t%d\t%d\t%d\t%d\t%d\n",
			r.ID, r.StartedAt.Format("2006-01-02 15:04:05"),
			r.Files, r.Annotations, r.Changed, r.Suppressed, r.Errors)
	}
	tw.Flush()
}

// formatXMLText formats CLIXMLEntry results as a target line followed by
// indented canonical annotations.
func formatXMLText(w io.Writer, entries []CLIXMLEntry) {
	for _, e := range entries {
		fmt.Fprintln(w, e.Target)
		for _, a := range e.Annotations {
			fmt.Fprintf(w, "  %s\n", a)
		}
	}
}

// outputResultText dispatches to the appropriate text formatter based on the
// result type. It writes to os.Stdout.
func outputResultText(result CLIResult) error {
	return writeResultText(os.Stdout, result)
}

func writeResultText(w io.Writer, result CLIResult) error {
	switch v := result.Results.(type) {
	case []CLIAnnotation:
		formatAnnotationsText(w, v)
	case CLIReport:
		formatReportText(w, v)
	case []CLIRun:
		formatRunsText(w, v)
	case []CLIXMLEntry:
		formatXMLText(w, v)
	case nil:
	default:
		return fmt.Errorf("unsupported result type for text format: %T", v)
	}

	// Pagination footer.
	if result.TotalCount != nil {
		count := *result.TotalCount
		shown := resultLen(result.Results)
		if shown < count {
			fmt.Fprintf(w, "\nShowing %d of %d results\n", shown, count)
		}
	}
	return nil
}

// resultLen returns the length of a result slice, or 1 for a single value.
func resultLen(v any) int {
	switch r := v.(type) {
	case []CLIAnnotation:
		return len(r)
	case []CLIRun:
		return len(r)
	case []CLIXMLEntry:
		return len(r)
	case nil:
		return 0
	default:
		return 1
	}
}

// validFormats lists accepted values for --format.
var validFormats = []string{"json", "text"}

// validateFormat checks that the --format flag value is recognized.
func validateFormat(format string) error {
	for _, f := range validFormats {
		if format == f {
			return nil
		}
	}
	return fmt.Errorf("invalid format %q: must be %s", format, strings.Join(validFormats, " or "))
}
