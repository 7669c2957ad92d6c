package canon

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"sort"
	"time"

	"github.com/jward/canon/internal/annotation"
	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/eval"
	"github.com/jward/canon/internal/frontend"
	"github.com/jward/canon/internal/store"
	"github.com/jward/canon/internal/tree"
)

// Report summarizes one canonicalization run.
type Report struct {
	RunID       string `json:"run_id"`
	Files       int    `json:"files"`
	Annotations int    `json:"annotations"`
	// Changed counts annotations whose canonical text differs from the
	// previous run.
	Changed    int `json:"changed"`
	Suppressed int `json:"suppressed"`
	Errors     int `json:"errors"`
	// ChangedDeclarations lists declarations whose signature changed since
	// the previous run, sorted.
	ChangedDeclarations []string `json:"changed_declarations,omitempty"`
}

// parsedFile pairs a stored file with its parse result.
type parsedFile struct {
	file *store.File
	unit *frontend.Unit
}

// Canonicalize re-parses every indexed file, builds the codebase from all of
// them, and stores the canonical form of every annotation. Files that can no
// longer be read or parsed are counted as errors and skipped.
func (e *Engine) Canonicalize(ctx context.Context) (*Report, error) {
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("canon: list files: %w", err)
	}
	run, err := e.store.StartRun(time.Now())
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}

	parsed, failed, err := e.parseIndexed(ctx, files)
	if err != nil {
		return nil, err
	}
	run.Errors += failed
	cb := buildCodebase(parsed)

	env, err := e.newEnv(cb)
	if err != nil {
		return nil, err
	}
	ser := e.newSerializer(env)

	report := &Report{RunID: run.ID}
	for _, p := range parsed {
		changed, err := e.canonicalizeFile(ser, run, p)
		if err != nil {
			return nil, err
		}
		report.ChangedDeclarations = append(report.ChangedDeclarations, changed...)
		run.Files++
	}
	sort.Strings(report.ChangedDeclarations)

	if err := e.store.FinishRun(run, time.Now()); err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	if err := e.store.SetMetadata("config_hash", e.configHash()); err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	if err := e.store.SetMetadata("last_run", run.ID); err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}

	report.Files = run.Files
	report.Annotations = run.Annotations
	report.Changed = run.Changed
	report.Suppressed = run.Suppressed
	report.Errors = run.Errors
	e.logger.Info("canonicalization finished",
		slog.String("run", run.ID),
		slog.Int("files", run.Files),
		slog.Int("annotations", run.Annotations),
		slog.Int("changed", run.Changed),
	)
	return report, nil
}

// canonicalizeFile stores canonical text for the annotations of one file and
// refreshes the signature hashes of its declarations. It returns the
// qualified names of declarations whose signature changed.
func (e *Engine) canonicalizeFile(ser *Serializer, run *store.Run, p parsedFile) ([]string, error) {
	texts := make(map[siteKey]string)
	ordinals := make(map[string]int)
	for _, s := range p.unit.Sites() {
		key := s.Kind + " " + s.Owner
		texts[siteKey{site: s.Kind, owner: s.Owner, ordinal: ordinals[key]}] = ser.Tree(s.Annotation)
		ordinals[key]++
	}

	stored, err := e.store.AnnotationsByFile(p.file.ID)
	if err != nil {
		return nil, fmt.Errorf("canon: annotations of %s: %w", p.file.Path, err)
	}
	var updates []store.CanonicalUpdate
	byDecl := make(map[int64][]string)
	for _, a := range stored {
		text, ok := texts[siteKey{site: a.Site, owner: a.Owner, ordinal: a.Ordinal}]
		if !ok {
			// The file changed on disk since it was indexed.
			e.logger.Debug("annotation site not found",
				slog.String("owner", a.Owner),
				slog.Int("ordinal", a.Ordinal),
			)
			text = a.Canonical
		}
		run.Annotations++
		if text == "" {
			run.Suppressed++
		}
		if a.Canonical != "" && text != a.Canonical {
			run.Changed++
		}
		updates = append(updates, store.CanonicalUpdate{AnnotationID: a.ID, Canonical: text})
		byDecl[a.DeclarationID] = append(byDecl[a.DeclarationID], text)
	}
	if err := e.store.UpdateCanonical(run.ID, updates); err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}

	decls, err := e.store.DeclarationsByFile(p.file.ID)
	if err != nil {
		return nil, fmt.Errorf("canon: declarations of %s: %w", p.file.Path, err)
	}
	hashes := make(map[int64]string, len(decls))
	names := make(map[int64]string, len(decls))
	for _, d := range decls {
		hashes[d.ID] = store.ComputeSignatureHash(d.QualifiedName, d.Kind, d.Visibility, d.Modifiers, d.TypeExpr, d.Params, byDecl[d.ID])
		names[d.ID] = d.QualifiedName
	}
	changed, err := e.store.UpdateSignatureHashes(hashes)
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	out := make([]string, len(changed))
	for i, id := range changed {
		out[i] = names[id]
	}
	return out, nil
}

type siteKey struct {
	site    string
	owner   string
	ordinal int
}

// CanonicalizeXML reads an external annotations file and returns the
// canonical form of each entry's annotations, resolved against the indexed
// codebase. Keys are the entry targets; suppressed annotations are dropped.
func (e *Engine) CanonicalizeXML(ctx context.Context, r io.Reader) (map[string][]string, error) {
	files, err := e.store.Files()
	if err != nil {
		return nil, fmt.Errorf("canon: list files: %w", err)
	}
	parsed, _, err := e.parseIndexed(ctx, files)
	if err != nil {
		return nil, err
	}
	env, err := e.newEnv(buildCodebase(parsed))
	if err != nil {
		return nil, err
	}
	env.Parser = func(text string) (tree.Node, bool) {
		n, err := frontend.ParseExpression(ctx, text)
		return n, err == nil
	}
	entries, err := annotation.ParseXML(r, env)
	if err != nil {
		return nil, fmt.Errorf("canon: %w", err)
	}
	ser := e.newSerializer(env)
	out := make(map[string][]string, len(entries))
	for _, entry := range entries {
		for _, item := range entry.Annotations {
			if text := ser.Annotation(item); text != "" {
				out[entry.Target] = append(out[entry.Target], text)
			}
		}
	}
	return out, nil
}

// parseIndexed reads and parses the given files. Files that cannot be read
// or parsed are logged and counted rather than returned as errors.
func (e *Engine) parseIndexed(ctx context.Context, files []*store.File) ([]parsedFile, int, error) {
	var parsed []parsedFile
	failed := 0
	for _, f := range files {
		if err := ctx.Err(); err != nil {
			return nil, failed, err
		}
		content, err := os.ReadFile(f.Path)
		if err != nil {
			e.logger.Warn("skipping unreadable file", slog.String("path", f.Path), slog.String("error", err.Error()))
			failed++
			continue
		}
		unit, err := frontend.Parse(ctx, f.Path, content, frontend.WithLogger(e.logger))
		if err != nil {
			e.logger.Warn("skipping unparsable file", slog.String("path", f.Path), slog.String("error", err.Error()))
			failed++
			continue
		}
		parsed = append(parsed, parsedFile{file: f, unit: unit})
	}
	return parsed, failed, nil
}

// buildCodebase registers the builtins and every parsed class, then
// qualifies annotation names against the complete set of classes.
func buildCodebase(parsed []parsedFile) *codebase.Codebase {
	cb := codebase.New()
	cb.AddClasses(codebase.Builtins()...)
	for _, p := range parsed {
		cb.AddClasses(p.unit.Classes...)
	}
	for _, p := range parsed {
		qualifyUnit(cb, p.unit)
	}
	return cb
}

func (e *Engine) newEnv(cb *codebase.Codebase) (*annotation.Env, error) {
	opts := []eval.FolderOption{eval.WithMaxDepth(e.cfg.Options.MaxDepth)}
	if e.cfg.Options.Risor {
		timeout, err := e.cfg.Timeout()
		if err != nil {
			return nil, fmt.Errorf("canon: %w", err)
		}
		opts = append(opts, eval.WithFallback(eval.NewRisor(eval.WithTimeout(timeout))))
	}
	return &annotation.Env{
		Resolver:  cb,
		Index:     cb,
		Evaluator: eval.NewFolder(cb, opts...),
	}, nil
}

func (e *Engine) newSerializer(env *annotation.Env) *Serializer {
	return NewSerializer(env, e.policy,
		WithDefaultAttribute(e.cfg.Options.DefaultAttribute),
		WithSerializerLogger(e.logger),
	)
}

// qualifyUnit fills in qualified names the front end could not determine
// from imports alone, using classes declared anywhere in the codebase.
func qualifyUnit(cb *codebase.Codebase, u *frontend.Unit) {
	for _, s := range u.Sites() {
		qualifyAnnotation(cb, s.Annotation)
	}
}

func qualifyAnnotation(cb *codebase.Codebase, a *tree.Annotation) {
	if a.QualifiedName == "" && a.Origin == tree.OriginSource {
		if c := cb.ResolveType(a.Name, a.Scope); c != nil {
			a.QualifiedName = c.QualifiedName
		}
	}
	for _, attr := range a.Attributes {
		tree.Walk(attr.Value, func(n tree.Node) bool {
			if nested, ok := n.(*tree.NestedAnnotation); ok {
				qualifyAnnotation(cb, nested.Annotation)
				return false
			}
			return true
		})
	}
}
