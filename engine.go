package canon

import (
	"bytes"
	"context"
	"crypto/sha256"
	"encoding/json"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"

	"github.com/jward/canon/internal/config"
	"github.com/jward/canon/internal/frontend"
	"github.com/jward/canon/internal/naming"
	"github.com/jward/canon/internal/store"
)

// Engine orchestrates the canon pipeline: file discovery, change detection,
// extraction of declarations and annotations, canonicalization runs, and
// query access.
type Engine struct {
	store  *store.Store
	cfg    *config.Config
	policy naming.Policy
	logger *slog.Logger

	// useParallel enables the parallel extraction pipeline.
	useParallel bool
}

// Option configures an Engine.
type Option func(*Engine)

// WithParallel controls parallel extraction. When true (default), IndexFiles
// uses a worker pool for parsing, with a single writer committing batches
// to SQLite. Set to false for serial mode.
func WithParallel(parallel bool) Option {
	return func(e *Engine) {
		e.useParallel = parallel
	}
}

// WithConfig replaces the default configuration.
func WithConfig(cfg *config.Config) Option {
	return func(e *Engine) {
		if cfg != nil {
			e.cfg = cfg
		}
	}
}

// WithPolicy sets the name mapping policy. By default the configured
// naming rules are used.
func WithPolicy(p naming.Policy) Option {
	return func(e *Engine) {
		e.policy = p
	}
}

// WithLogger sets the logger for warnings and fallback diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		if l != nil {
			e.logger = l
		}
	}
}

// New creates an Engine backed by a SQLite database at dbPath.
func New(dbPath string, opts ...Option) (*Engine, error) {
	s, err := store.NewStore(dbPath)
	if err != nil {
		return nil, fmt.Errorf("canon: create store: %w", err)
	}
	if err := s.Migrate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("canon: migrate: %w", err)
	}

	e := &Engine{
		store:       s,
		cfg:         config.New(),
		logger:      slog.Default(),
		useParallel: true, // default to parallel extraction
	}
	for _, opt := range opts {
		opt(e)
	}
	if err := e.cfg.Validate(); err != nil {
		s.Close()
		return nil, fmt.Errorf("canon: %w", err)
	}
	if e.policy == nil {
		rules := e.cfg.Naming
		e.policy = &rules
	}
	return e, nil
}

// Close releases the Engine's database resources.
func (e *Engine) Close() error {
	return e.store.Close()
}

// Store returns the underlying Store for direct access.
func (e *Engine) Store() *Store {
	return e.store
}

// Config returns the Engine's configuration.
func (e *Engine) Config() *config.Config {
	return e.cfg
}

// Query returns a new QueryBuilder wrapping the Store.
func (e *Engine) Query() *QueryBuilder {
	return &QueryBuilder{store: e.store}
}

// configHash computes a SHA-256 hash of the configuration that affects
// canonical output.
func (e *Engine) configHash() string {
	b, _ := json.Marshal(struct {
		Naming           naming.Rules
		DefaultAttribute string
		Risor            bool
		MaxDepth         int
	}{e.cfg.Naming, e.cfg.Options.DefaultAttribute, e.cfg.Options.Risor, e.cfg.Options.MaxDepth})
	return fmt.Sprintf("%x", sha256.Sum256(b))
}

// ConfigChanged reports whether the configuration differs from the one
// used by the last canonicalization run. Returns true if no run has been
// recorded yet. When true, stored canonical text may be stale.
func (e *Engine) ConfigChanged() bool {
	stored, err := e.store.GetMetadata("config_hash")
	if err != nil || stored == "" {
		return true
	}
	return stored != e.configHash()
}

// IndexFiles indexes the given file paths. When WithParallel is enabled,
// uses a worker pool for concurrent parsing with batched SQLite writes.
// Otherwise falls back to the serial path.
//
// For each file:
//  1. Skip files without a configured extension
//  2. Skip unchanged files (same content hash)
//  3. Delete stale data, insert the file record
//  4. Parse the file and store its declarations and annotation sites
//
// Errors on individual files are collected; processing continues.
func (e *Engine) IndexFiles(ctx context.Context, paths []string) error {
	if e.useParallel {
		return e.IndexFilesParallel(ctx, paths)
	}
	return e.indexFilesSerial(ctx, paths)
}

func (e *Engine) indexFilesSerial(ctx context.Context, paths []string) error {
	var errs []error
	for _, path := range paths {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := e.indexFile(ctx, path); err != nil {
			errs = append(errs, fmt.Errorf("index %s: %w", path, err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("indexing had %d error(s): %w", len(errs), errs[0])
	}
	return nil
}

func (e *Engine) indexFile(ctx context.Context, path string) error {
	lang, content, hash, skip, err := e.checkFile(path)
	if err != nil || skip {
		return err
	}

	unit, err := frontend.Parse(ctx, path, content, frontend.WithLogger(e.logger))
	if err != nil {
		return err
	}

	if err := e.replaceFile(path); err != nil {
		return err
	}
	fileID, err := e.store.InsertFile(&store.File{
		Path:        path,
		Language:    lang,
		Package:     unit.Package,
		Hash:        hash,
		LineCount:   countLines(content),
		LastIndexed: time.Now(),
	})
	if err != nil {
		return fmt.Errorf("insert file: %w", err)
	}
	return writeUnit(e.store, fileID, unit)
}

// checkFile reads path and reports whether it can be skipped because its
// extension is not configured or its content is unchanged.
func (e *Engine) checkFile(path string) (lang string, content []byte, hash string, skip bool, err error) {
	if !e.cfg.IncludeFile(path) {
		return "", nil, "", true, nil
	}
	lang, ok := frontend.LanguageForFile(path)
	if !ok {
		return "", nil, "", true, nil
	}

	content, err = os.ReadFile(path)
	if err != nil {
		return "", nil, "", false, fmt.Errorf("read file: %w", err)
	}
	hash = fmt.Sprintf("%x", sha256.Sum256(content))

	existing, err := e.store.FileByPath(path)
	if err != nil {
		return "", nil, "", false, fmt.Errorf("lookup file: %w", err)
	}
	if existing != nil && existing.Hash == hash {
		return "", nil, "", true, nil // unchanged
	}
	return lang, content, hash, false, nil
}

// replaceFile deletes the record and data of a previously indexed path.
func (e *Engine) replaceFile(path string) error {
	existing, err := e.store.FileByPath(path)
	if err != nil {
		return fmt.Errorf("lookup file: %w", err)
	}
	if existing == nil {
		return nil
	}
	if err := e.store.DeleteFile(existing.ID); err != nil {
		return fmt.Errorf("delete old data: %w", err)
	}
	return nil
}

// RemoveMissing deletes indexed files that no longer exist on disk and
// returns how many were removed.
func (e *Engine) RemoveMissing() (int, error) {
	files, err := e.store.Files()
	if err != nil {
		return 0, fmt.Errorf("canon: list files: %w", err)
	}
	removed := 0
	for _, f := range files {
		if _, err := os.Stat(f.Path); !os.IsNotExist(err) {
			continue
		}
		if err := e.store.DeleteFile(f.ID); err != nil {
			return removed, fmt.Errorf("canon: remove %s: %w", f.Path, err)
		}
		removed++
	}
	return removed, nil
}

// IndexDirectory walks root and indexes all files with configured
// extensions. If root is inside a git repository, uses git ls-files to
// respect .gitignore. Falls back to a filesystem walk (skipping hidden and
// excluded directories) if git is unavailable.
func (e *Engine) IndexDirectory(ctx context.Context, root string) error {
	paths, err := e.gitListFiles(root)
	if err != nil {
		// Not a git repo or git not available; fall back to walk.
		paths, err = e.walkListFiles(root)
		if err != nil {
			return err
		}
	}
	return e.IndexFiles(ctx, paths)
}

// gitListFiles uses git ls-files to discover tracked and untracked (but not
// ignored) files under root, filtered to configured extensions.
func (e *Engine) gitListFiles(root string) ([]string, error) {
	// --cached: tracked files, --others: untracked files,
	// --exclude-standard: respect .gitignore, .git/info/exclude, global excludes.
	cmd := exec.Command("git", "ls-files", "--cached", "--others", "--exclude-standard")
	cmd.Dir = root
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		return nil, fmt.Errorf("git ls-files: %w", err)
	}

	var paths []string
	for _, line := range strings.Split(stdout.String(), "\n") {
		line = strings.TrimSpace(line)
		if line == "" || e.excludedPath(line) {
			continue
		}
		absPath := filepath.Join(root, line)
		if e.cfg.IncludeFile(absPath) {
			paths = append(paths, absPath)
		}
	}
	return paths, nil
}

// excludedPath reports whether any directory of a slash-separated relative
// path is excluded.
func (e *Engine) excludedPath(rel string) bool {
	dirs := strings.Split(rel, "/")
	for _, d := range dirs[:len(dirs)-1] {
		if e.cfg.ExcludeDir(d) {
			return true
		}
	}
	return false
}

// walkListFiles discovers files by walking the filesystem, used as a fallback
// when git is not available.
func (e *Engine) walkListFiles(root string) ([]string, error) {
	var paths []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if d.IsDir() {
			name := d.Name()
			if path != root && (strings.HasPrefix(name, ".") || e.cfg.ExcludeDir(name)) {
				return filepath.SkipDir
			}
			return nil
		}
		if e.cfg.IncludeFile(path) {
			paths = append(paths, path)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk directory: %w", err)
	}
	return paths, nil
}
