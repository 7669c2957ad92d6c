package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"

	"github.com/jward/canon"
	"github.com/jward/canon/internal/store"
	"github.com/spf13/cobra"
)

var (
	flagLimit      int
	flagOffset     int
	flagName       string
	flagSite       string
	flagPath       string
	flagSuppressed string
)

var annotationsCmd = &cobra.Command{
	Use:   "annotations",
	Short: "List indexed annotations with their canonical forms",
	Args:  cobra.NoArgs,
	RunE:  runAnnotations,
}

func init() {
	annotationsCmd.Flags().IntVar(&flagLimit, "limit", 50, "pagination limit (max 500)")
	annotationsCmd.Flags().IntVar(&flagOffset, "offset", 0, "pagination offset")
	annotationsCmd.Flags().StringVar(&flagName, "name", "", "annotation type, e.g. androidx.annotation.IntRange")
	annotationsCmd.Flags().StringVar(&flagSite, "site", "", "site kind: class|field|method|parameter")
	annotationsCmd.Flags().StringVar(&flagPath, "path", "", "file path prefix")
	annotationsCmd.Flags().StringVar(&flagSuppressed, "suppressed", "", "true: only suppressed, false: only kept")
}

func runAnnotations(cmd *cobra.Command, args []string) error {
	filter, err := buildAnnotationFilter()
	if err != nil {
		return outputError("annotations", err)
	}
	s, err := openStore()
	if err != nil {
		return outputError("annotations", err)
	}
	defer s.Close()

	res, err := canon.NewQueryBuilder(s).Annotations(filter, buildPagination())
	if err != nil {
		return outputError("annotations", err)
	}
	items := make([]CLIAnnotation, len(res.Items))
	for i := range res.Items {
		items[i] = annotationToCLI(&res.Items[i].Annotation, res.Items[i].FilePath)
	}
	total := res.TotalCount
	return outputResult(CLIResult{Command: "annotations", Results: items, TotalCount: &total})
}

var onCmd = &cobra.Command{
	Use:   "on <owner>",
	Short: "Show the annotations of one declaration or parameter",
	Long:  `Owner is a class ("pkg.C"), field ("pkg.C.F"), method ("pkg.C#m(int)") or parameter ("pkg.C#m(int):p").`,
	Args:  cobra.ExactArgs(1),
	RunE:  runOn,
}

func runOn(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("on", err)
	}
	defer s.Close()

	anns, err := canon.NewQueryBuilder(s).AnnotationsOn(args[0])
	if err != nil {
		return outputError("on", err)
	}
	items := make([]CLIAnnotation, len(anns))
	for i, a := range anns {
		items[i] = annotationToCLI(a, lookupFilePath(s, a.FileID))
	}
	total := len(items)
	return outputResult(CLIResult{Command: "on", Results: items, TotalCount: &total})
}

var signatureCmd = &cobra.Command{
	Use:   "signature",
	Short: "Print the public API surface with canonical annotations",
	Long:  "Prints one line per public declaration, prefixed by its canonical annotations. Always plain text.",
	Args:  cobra.NoArgs,
	RunE:  runSignature,
}

func runSignature(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("signature", err)
	}
	defer s.Close()

	sig, err := canon.NewQueryBuilder(s).Signature()
	if err != nil {
		return outputError("signature", err)
	}
	_, err = fmt.Fprint(os.Stdout, sig)
	return err
}

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List canonicalization runs, newest first",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func runRuns(cmd *cobra.Command, args []string) error {
	s, err := openStore()
	if err != nil {
		return outputError("runs", err)
	}
	defer s.Close()

	runs, err := s.Runs()
	if err != nil {
		return outputError("runs", err)
	}
	items := make([]CLIRun, len(runs))
	for i, r := range runs {
		items[i] = runToCLI(r)
	}
	total := len(items)
	return outputResult(CLIResult{Command: "runs", Results: items, TotalCount: &total})
}

// --- Helpers ---

// openStore opens the Store from the --db flag path (or default).
func openStore() (*canon.Store, error) {
	dbPath, err := existingDBPath()
	if err != nil {
		return nil, err
	}
	return store.NewStore(dbPath)
}

// resolveFilePath converts a file argument to an absolute path.
// If the path is already absolute, it's returned as-is.
// Otherwise, it's resolved relative to the current working directory.
func resolveFilePath(file string) (string, error) {
	if filepath.IsAbs(file) {
		return file, nil
	}
	abs, err := filepath.Abs(file)
	if err != nil {
		return "", fmt.Errorf("resolving file path %q: %w", file, err)
	}
	return abs, nil
}

// lookupFilePath returns the path of a file ID, or "" if unknown.
func lookupFilePath(s *canon.Store, fileID int64) string {
	f, err := s.FileByID(fileID)
	if err != nil || f == nil {
		return ""
	}
	return f.Path
}

// buildAnnotationFilter creates an AnnotationFilter from CLI flags.
func buildAnnotationFilter() (canon.AnnotationFilter, error) {
	var filter canon.AnnotationFilter
	if flagName != "" {
		filter.QualifiedName = &flagName
	}
	if flagSite != "" {
		switch flagSite {
		case store.SiteClass, store.SiteField, store.SiteMethod, store.SiteParameter:
			filter.Site = &flagSite
		default:
			return filter, fmt.Errorf("invalid site %q: must be class, field, method or parameter", flagSite)
		}
	}
	if flagPath != "" {
		path, err := resolveFilePath(flagPath)
		if err != nil {
			return filter, err
		}
		filter.PathPrefix = &path
	}
	switch flagSuppressed {
	case "":
	case "true", "false":
		v := flagSuppressed == "true"
		filter.Suppressed = &v
	default:
		return filter, fmt.Errorf("invalid --suppressed %q: must be true or false", flagSuppressed)
	}
	return filter, nil
}

// buildPagination creates a Pagination from CLI flags.
func buildPagination() canon.Pagination {
	return canon.Pagination{
		Limit:  flagLimit,
		Offset: flagOffset,
	}
}

// outputResult marshals a CLIResult to stdout in the selected format.
func outputResult(result CLIResult) error {
	if flagFormat == "text" {
		return outputResultText(result)
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	return enc.Encode(result)
}

// outputError writes an error in the selected format and returns it so RunE
// can propagate it to Cobra. In JSON mode the error is written to stdout as a
// CLIResult envelope. In text mode it goes to stderr.
func outputError(command string, err error) error {
	errorHandled = true
	if flagFormat == "text" {
		fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		return err
	}
	result := CLIResult{
		Command: command,
		Error:   err.Error(),
	}
	enc := json.NewEncoder(os.Stdout)
	enc.SetIndent("", "  ")
	_ = enc.Encode(result)
	return err
}
