package store

import "time"

// Extraction domain types

type File struct {
	ID          int64
	Path        string
	Language    string
	Package     string
	Hash        string
	LineCount   int
	LastIndexed time.Time
}

// Declaration kinds stored alongside the class kinds of package codebase.
const (
	KindField       = "field"
	KindEnumConst   = "enum_constant"
	KindMethod      = "method"
	KindConstructor = "constructor"
)

type Declaration struct {
	ID            int64
	FileID        int64
	QualifiedName string
	Name          string
	Kind          string
	Visibility    string
	Modifiers     []string
	// TypeExpr is the field type or method return type.
	TypeExpr string
	// Params holds parameter types of methods and supertypes of classes.
	Params        []string
	Hidden        bool
	Removed       bool
	Line          int
	ParentID      *int64
	SignatureHash string
}

// Annotation sites
const (
	SiteClass     = "class"
	SiteField     = "field"
	SiteMethod    = "method"
	SiteParameter = "parameter"
)

type Annotation struct {
	ID            int64
	FileID        int64
	DeclarationID int64
	// Owner is "pkg.C", "pkg.C.F", "pkg.C#m(int)" or "pkg.C#m(int):p".
	Owner         string
	Site          string
	Ordinal       int
	Name          string
	QualifiedName string
	Source        string
	// Canonical is empty until a canonicalization run writes it. A
	// suppressed annotation keeps an empty canonical form with a run id.
	Canonical string
	RunID     *string
	Line      int
	Col       int
}

// Canonicalization domain types

type Run struct {
	ID          string
	StartedAt   time.Time
	FinishedAt  *time.Time
	Files       int
	Annotations int
	Changed     int
	Suppressed  int
	Errors      int
}

// CanonicalUpdate is the result of canonicalizing one stored annotation.
type CanonicalUpdate struct {
	AnnotationID int64
	Canonical    string
}
