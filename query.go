package canon

import (
	"fmt"
	"strings"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/store"
)

// QueryBuilder provides read access to indexed declarations and their
// canonical annotations.
type QueryBuilder struct {
	store *store.Store
}

// NewQueryBuilder returns a QueryBuilder over an existing Store.
func NewQueryBuilder(s *Store) *QueryBuilder {
	return &QueryBuilder{store: s}
}

// Pagination controls offset+limit paging on list results.
type Pagination struct {
	Offset int // skip this many results (default 0)
	Limit  int // max results to return (default 50, max 500)
}

const (
	defaultLimit = 50
	maxLimit     = 500
)

// normalize returns a Pagination with defaults applied and bounds enforced.
func (p Pagination) normalize() Pagination {
	if p.Offset < 0 {
		p.Offset = 0
	}
	if p.Limit <= 0 {
		p.Limit = defaultLimit
	}
	if p.Limit > maxLimit {
		p.Limit = maxLimit
	}
	return p
}

// PagedResult wraps a page of results with total count for pagination.
type PagedResult[T any] struct {
	Items      []T
	TotalCount int // total matching results (before pagination)
}

// AnnotationFilter specifies which annotations to include. All fields are
// optional.
type AnnotationFilter struct {
	QualifiedName *string // annotation type, e.g. "androidx.annotation.IntRange"
	Site          *string // one of the store.Site* constants
	FileID        *int64
	PathPrefix    *string
	// Suppressed selects annotations a run dropped (true) or kept (false).
	Suppressed *bool
}

// AnnotationResult is an annotation together with the path of its file.
type AnnotationResult struct {
	store.Annotation
	FilePath string
}

// Annotations lists annotations matching filter, ordered by file path and
// source position.
func (q *QueryBuilder) Annotations(filter AnnotationFilter, page Pagination) (*PagedResult[AnnotationResult], error) {
	page = page.normalize()

	var where []string
	var args []any
	if filter.QualifiedName != nil {
		where = append(where, "a.qualified_name = ?")
		args = append(args, *filter.QualifiedName)
	}
	if filter.Site != nil {
		where = append(where, "a.site = ?")
		args = append(args, *filter.Site)
	}
	if filter.FileID != nil {
		where = append(where, "a.file_id = ?")
		args = append(args, *filter.FileID)
	}
	if filter.PathPrefix != nil {
		prefix := normalizePathPrefix(*filter.PathPrefix)
		if prefix != "" {
			where = append(where, "f.path LIKE ? ESCAPE '\\'")
			args = append(args, escapeLike(prefix)+"%")
		}
	}
	if filter.Suppressed != nil {
		if *filter.Suppressed {
			where = append(where, "a.run_id IS NOT NULL AND COALESCE(a.canonical, '') = ''")
		} else {
			where = append(where, "COALESCE(a.canonical, '') != ''")
		}
	}

	whereClause := ""
	if len(where) > 0 {
		whereClause = "WHERE " + strings.Join(where, " AND ")
	}

	countSQL := `SELECT COUNT(*) FROM annotations a JOIN files f ON a.file_id = f.id ` + whereClause
	var totalCount int
	if err := q.store.DB().QueryRow(countSQL, args...).Scan(&totalCount); err != nil {
		return nil, fmt.Errorf("annotations: count: %w", err)
	}

	dataSQL := fmt.Sprintf(
		`SELECT %s, f.path
		 FROM annotations a
		 JOIN files f ON a.file_id = f.id
		 %s
		 ORDER BY f.path, a.line, a.col
		 LIMIT ? OFFSET ?`,
		prefixCols("a", store.AnnotationCols), whereClause,
	)
	dataArgs := append(append([]any{}, args...), page.Limit, page.Offset)

	rows, err := q.store.DB().Query(dataSQL, dataArgs...)
	if err != nil {
		return nil, fmt.Errorf("annotations: query: %w", err)
	}
	defer rows.Close()

	items := []AnnotationResult{}
	for rows.Next() {
		var path string
		a, err := store.ScanAnnotationRow(scanWithPath{rows, &path})
		if err != nil {
			return nil, fmt.Errorf("annotations: scan: %w", err)
		}
		items = append(items, AnnotationResult{Annotation: *a, FilePath: path})
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("annotations: rows: %w", err)
	}
	return &PagedResult[AnnotationResult]{Items: items, TotalCount: totalCount}, nil
}

// AnnotationsOn returns the annotations of the declaration or parameter
// identified by owner, e.g. "com.example.Limits.MAX" or
// "com.example.Limits#size(int):n", in declaration order.
func (q *QueryBuilder) AnnotationsOn(owner string) ([]*store.Annotation, error) {
	anns, err := q.store.AnnotationsByOwner(owner)
	if err != nil {
		return nil, fmt.Errorf("annotations on %s: %w", owner, err)
	}
	return anns, nil
}

// Signature renders the public API surface: one line per public, visible
// declaration prefixed by its canonical annotations, with annotated
// parameters on indented lines below their method. Files are listed in path
// order and declarations in source order. Annotations suppressed by the
// naming policy or not yet canonicalized are omitted.
func (q *QueryBuilder) Signature() (string, error) {
	files, err := q.store.Files()
	if err != nil {
		return "", fmt.Errorf("signature: %w", err)
	}
	var b strings.Builder
	for _, f := range files {
		if err := q.fileSignature(&b, f); err != nil {
			return "", fmt.Errorf("signature: %s: %w", f.Path, err)
		}
	}
	return b.String(), nil
}

func (q *QueryBuilder) fileSignature(b *strings.Builder, f *store.File) error {
	decls, err := q.store.DeclarationsByFile(f.ID)
	if err != nil {
		return err
	}
	anns, err := q.store.AnnotationsByFile(f.ID)
	if err != nil {
		return err
	}
	own := make(map[int64][]*store.Annotation)
	params := make(map[int64][]*store.Annotation)
	for _, a := range anns {
		if a.Canonical == "" {
			continue
		}
		if a.Site == store.SiteParameter {
			params[a.DeclarationID] = append(params[a.DeclarationID], a)
		} else {
			own[a.DeclarationID] = append(own[a.DeclarationID], a)
		}
	}

	exposed := make(map[int64]bool, len(decls))
	for _, d := range decls {
		if d.Hidden || d.Removed || !publicVisibility(d.Visibility) {
			continue
		}
		if d.ParentID != nil && !exposed[*d.ParentID] {
			continue
		}
		exposed[d.ID] = true

		for _, a := range own[d.ID] {
			b.WriteString(a.Canonical)
			b.WriteByte(' ')
		}
		b.WriteString(declarationLine(d))
		b.WriteByte('\n')
		for _, a := range params[d.ID] {
			_, param, _ := strings.Cut(a.Owner, "):")
			fmt.Fprintf(b, "    %s %s\n", param, a.Canonical)
		}
	}
	return nil
}

func declarationLine(d *store.Declaration) string {
	var b strings.Builder
	b.WriteString(d.Visibility)
	b.WriteByte(' ')
	for _, m := range d.Modifiers {
		b.WriteString(m)
		b.WriteByte(' ')
	}
	b.WriteString(d.Kind)
	b.WriteByte(' ')
	b.WriteString(d.QualifiedName)
	switch d.Kind {
	case store.KindField, store.KindEnumConst, store.KindMethod:
		b.WriteString(": ")
		b.WriteString(d.TypeExpr)
	case codebase.KindClass, codebase.KindInterface, codebase.KindEnum, codebase.KindAnnotation, codebase.KindRecord:
		if len(d.Params) > 0 {
			b.WriteString(" extends ")
			b.WriteString(strings.Join(d.Params, ", "))
		}
	}
	return b.String()
}

func publicVisibility(v string) bool {
	return v == codebase.Public || v == codebase.Protected
}

// --- Internal Helpers ---

type scanner interface {
	Scan(dest ...any) error
}

// scanWithPath appends a trailing path column to a row scanned by a store
// Scan*Row function.
type scanWithPath struct {
	row  scanner
	path *string
}

func (s scanWithPath) Scan(dest ...any) error {
	return s.row.Scan(append(dest, s.path)...)
}

// prefixCols qualifies each column of a store column list with a table alias.
// Columns wrapped in COALESCE keep their wrapper and default.
func prefixCols(alias, cols string) string {
	var parts []string
	depth, start := 0, 0
	for i, r := range cols {
		switch r {
		case '(':
			depth++
		case ')':
			depth--
		case ',':
			if depth == 0 {
				parts = append(parts, strings.TrimSpace(cols[start:i]))
				start = i + 1
			}
		}
	}
	parts = append(parts, strings.TrimSpace(cols[start:]))
	for i, p := range parts {
		if rest, ok := strings.CutPrefix(p, "COALESCE("); ok {
			parts[i] = "COALESCE(" + alias + "." + rest
			continue
		}
		parts[i] = alias + "." + p
	}
	return strings.Join(parts, ", ")
}

// normalizePathPrefix ensures a path prefix ends with "/" for correct LIKE matching.
// "internal/store" -> "internal/store/" to prevent matching "internal/store_utils/".
func normalizePathPrefix(prefix string) string {
	if prefix == "" {
		return ""
	}
	if !strings.HasSuffix(prefix, "/") {
		return prefix + "/"
	}
	return prefix
}

// escapeLike escapes SQL LIKE special characters (% and _) with backslash.
func escapeLike(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	s = strings.ReplaceAll(s, `%`, `\%`)
	s = strings.ReplaceAll(s, `_`, `\_`)
	return s
}
