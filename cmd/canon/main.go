package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"time"

	"github.com/jward/canon"
	"github.com/jward/canon/internal/config"
	"github.com/spf13/cobra"
)

var (
	flagDB      string
	flagFormat  string
	flagConfig  string
	flagVerbose bool
)

// errorHandled is set by outputError so main() doesn't double-print.
var errorHandled bool

func main() {
	if err := rootCmd.Execute(); err != nil {
		if !errorHandled {
			fmt.Fprintf(os.Stderr, "Error: %s\n", err)
		}
		os.Exit(1)
	}
}

var rootCmd = &cobra.Command{
	Use:           "canon",
	Short:         "Canonical forms of Java annotations",
	Long:          "Canon indexes Java sources with tree-sitter and stores the canonical form of every annotation in a SQLite database.",
	SilenceErrors: true,
	SilenceUsage:  true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return validateFormat(flagFormat)
	},
	// No Run: prints help by default.
}

func init() {
	rootCmd.PersistentFlags().StringVar(&flagDB, "db", "", "database path (default: .canon/index.db relative to repo root)")
	rootCmd.PersistentFlags().StringVar(&flagFormat, "format", "json", "output format: json|text")
	rootCmd.PersistentFlags().StringVar(&flagConfig, "config", "", "configuration file (YAML or JSON)")
	rootCmd.PersistentFlags().BoolVarP(&flagVerbose, "verbose", "v", false, "log fallbacks and per-file diagnostics")

	rootCmd.AddCommand(indexCmd)
	rootCmd.AddCommand(canonicalizeCmd)
	rootCmd.AddCommand(annotationsCmd)
	rootCmd.AddCommand(onCmd)
	rootCmd.AddCommand(signatureCmd)
	rootCmd.AddCommand(runsCmd)
	rootCmd.AddCommand(xmlCmd)
}

var (
	flagForce            bool
	flagWorkers          int
	flagSkipCanonicalize bool
)

var indexCmd = &cobra.Command{
	Use:   "index [path]",
	Short: "Index a repository and canonicalize its annotations",
	Long:  "Parses Java files with tree-sitter, stores declarations and annotations, removes files that no longer exist, and runs a canonicalization pass.",
	Args:  cobra.MaximumNArgs(1),
	RunE:  runIndex,
}

func init() {
	indexCmd.Flags().BoolVar(&flagForce, "force", false, "delete database and reindex from scratch")
	indexCmd.Flags().IntVar(&flagWorkers, "workers", 0, "parser goroutines (default: configured value or every CPU)")
	indexCmd.Flags().BoolVar(&flagSkipCanonicalize, "skip-canonicalize", false, "index only; do not run a canonicalization pass")
}

func runIndex(cmd *cobra.Command, args []string) error {
	start := time.Now()

	targetDir, err := resolveTargetDir(args)
	if err != nil {
		return err
	}
	repoRoot := findRepoRoot(targetDir)
	dbPath := resolveDBPath(repoRoot)

	canonDir := filepath.Dir(dbPath)
	if err := os.MkdirAll(canonDir, 0o755); err != nil {
		return fmt.Errorf("creating %s: %w", canonDir, err)
	}
	if flagForce {
		if err := os.Remove(dbPath); err != nil && !os.IsNotExist(err) {
			return fmt.Errorf("removing database for --force: %w", err)
		}
		fmt.Fprintf(os.Stderr, "Cleared database: %s\n", dbPath)
	}

	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	if flagWorkers > 0 {
		cfg.Options.Workers = flagWorkers
	}
	engine, err := canon.New(dbPath, canon.WithConfig(cfg), canon.WithLogger(newLogger()))
	if err != nil {
		return fmt.Errorf("creating engine: %w", err)
	}
	defer engine.Close()

	ctx := context.Background()

	indexStart := time.Now()
	if err := engine.IndexDirectory(ctx, targetDir); err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	removed, err := engine.RemoveMissing()
	if err != nil {
		return fmt.Errorf("indexing: %w", err)
	}
	indexDuration := time.Since(indexStart)

	if flagSkipCanonicalize {
		fmt.Fprintf(os.Stderr, "Indexed %s in %s (removed %d files)\n",
			targetDir, indexDuration.Round(time.Millisecond), removed)
		fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
		return nil
	}

	canonStart := time.Now()
	report, err := engine.Canonicalize(ctx)
	if err != nil {
		return fmt.Errorf("canonicalizing: %w", err)
	}
	canonDuration := time.Since(canonStart)

	fmt.Fprintf(os.Stderr, "Indexed %s in %s (index: %s, canonicalize: %s, removed %d files)\n",
		targetDir,
		time.Since(start).Round(time.Millisecond),
		indexDuration.Round(time.Millisecond),
		canonDuration.Round(time.Millisecond),
		removed,
	)
	fmt.Fprintf(os.Stderr, "Database: %s\n", dbPath)
	return outputResult(CLIResult{Command: "index", Results: reportToCLI(report)})
}

var canonicalizeCmd = &cobra.Command{
	Use:   "canonicalize",
	Short: "Recompute canonical forms for every indexed file",
	Long:  "Runs a canonicalization pass over the existing index without re-indexing. Use after changing naming rules or options.",
	Args:  cobra.NoArgs,
	RunE:  runCanonicalize,
}

func runCanonicalize(cmd *cobra.Command, args []string) error {
	engine, err := openEngine()
	if err != nil {
		return outputError("canonicalize", err)
	}
	defer engine.Close()

	report, err := engine.Canonicalize(context.Background())
	if err != nil {
		return outputError("canonicalize", err)
	}
	return outputResult(CLIResult{Command: "canonicalize", Results: reportToCLI(report)})
}

// resolveTargetDir returns the absolute path of the directory to index.
func resolveTargetDir(args []string) (string, error) {
	dir := "."
	if len(args) > 0 {
		dir = args[0]
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", fmt.Errorf("resolving path %q: %w", dir, err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return "", fmt.Errorf("directory not found: %s", abs)
	}
	if !info.IsDir() {
		return "", fmt.Errorf("not a directory: %s", abs)
	}
	return abs, nil
}

// findRepoRoot walks up from startDir looking for a .git directory.
// Returns the directory containing .git, or startDir if not found.
func findRepoRoot(startDir string) string {
	dir := startDir
	for {
		if info, err := os.Stat(filepath.Join(dir, ".git")); err == nil && info.IsDir() {
			return dir
		}
		parent := filepath.Dir(dir)
		if parent == dir {
			return startDir
		}
		dir = parent
	}
}

// resolveDBPath returns the database path from the --db flag or the default.
func resolveDBPath(repoRoot string) string {
	if flagDB != "" {
		if filepath.IsAbs(flagDB) {
			return flagDB
		}
		return filepath.Join(repoRoot, flagDB)
	}
	return filepath.Join(repoRoot, ".canon", "index.db")
}

// loadConfig returns the defaults overlaid with the --config file, if any.
func loadConfig() (*config.Config, error) {
	cfg := config.New()
	if flagConfig == "" {
		return cfg, nil
	}
	if err := cfg.LoadFile(flagConfig); err != nil {
		return nil, err
	}
	return cfg, nil
}

// newLogger writes warnings to stderr, or everything with --verbose.
func newLogger() *slog.Logger {
	level := slog.LevelWarn
	if flagVerbose {
		level = slog.LevelDebug
	}
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}))
}

// openEngine opens an Engine over the existing database found from the
// current directory.
func openEngine() (*canon.Engine, error) {
	dbPath, err := existingDBPath()
	if err != nil {
		return nil, err
	}
	cfg, err := loadConfig()
	if err != nil {
		return nil, err
	}
	return canon.New(dbPath, canon.WithConfig(cfg), canon.WithLogger(newLogger()))
}

func existingDBPath() (string, error) {
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("getting cwd: %w", err)
	}
	dbPath := resolveDBPath(findRepoRoot(cwd))
	if _, err := os.Stat(dbPath); os.IsNotExist(err) {
		return "", fmt.Errorf("database not found: %s (run 'canon index' first)", dbPath)
	}
	return dbPath, nil
}
