package store

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	dbPath := filepath.Join(t.TempDir(), "test.db")
	s, err := NewStore(dbPath)
	require.NoError(t, err)
	require.NoError(t, s.Migrate())
	t.Cleanup(func() { s.Close() })
	return s
}

func ptr[T any](v T) *T { return &v }

// insertTestFile is a helper that inserts a file and returns it with ID set.
func insertTestFile(t *testing.T, s *Store, path string) *File {
	t.Helper()
	f := &File{Path: path, Language: "java", Package: "com.example", Hash: "abc123", LastIndexed: time.Now().Truncate(time.Second)}
	id, err := s.InsertFile(f)
	require.NoError(t, err)
	require.Positive(t, id)
	return f
}

// insertTestDeclaration inserts a declaration with minimal required fields.
func insertTestDeclaration(t *testing.T, s *Store, fileID int64, qn, kind string, parent *int64) *Declaration {
	t.Helper()
	d := &Declaration{
		FileID:        fileID,
		QualifiedName: qn,
		Name:          qn[lastDot(qn)+1:],
		Kind:          kind,
		Visibility:    "public",
		Modifiers:     []string{"static", "final"},
		TypeExpr:      "int",
		Line:          3,
		ParentID:      parent,
	}
	id, err := s.InsertDeclaration(d)
	require.NoError(t, err)
	require.Positive(t, id)
	return d
}

func insertTestAnnotation(t *testing.T, s *Store, d *Declaration, ordinal int, name string) *Annotation {
	t.Helper()
	a := &Annotation{
		FileID:        d.FileID,
		DeclarationID: d.ID,
		Owner:         d.QualifiedName,
		Site:          SiteField,
		Ordinal:       ordinal,
		Name:          name,
		QualifiedName: "androidx.annotation." + name,
		Source:        "@" + name,
		Line:          d.Line - 1,
		Col:           5 + ordinal*10,
	}
	id, err := s.InsertAnnotation(a)
	require.NoError(t, err)
	require.Positive(t, id)
	return a
}

func lastDot(s string) int {
	for i := len(s) - 1; i >= 0; i-- {
		if s[i] == '.' {
			return i
		}
	}
	return -1
}

// =============================================================================
// Schema & Lifecycle
// =============================================================================

func TestMigrate_AllTablesExist(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	for _, table := range []string{"files", "declarations", "annotations", "runs", "metadata"} {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?", table,
		).Scan(&name)
		require.NoError(t, err, "table %s should exist", table)
		assert.Equal(t, table, name)
	}
}

func TestMigrate_Idempotent(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	require.NoError(t, s.Migrate())
}

func TestNewStore_BadPath(t *testing.T) {
	t.Parallel()
	_, err := NewStore(filepath.Join(t.TempDir(), "missing", "dir", "test.db"))
	assert.Error(t, err)
}

// =============================================================================
// Files
// =============================================================================

func TestFile_InsertAndLookup(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "src/Limits.java")

	got, err := s.FileByPath("src/Limits.java")
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, f.ID, got.ID)
	assert.Equal(t, "java", got.Language)
	assert.Equal(t, "com.example", got.Package)
	assert.Equal(t, "abc123", got.Hash)
	assert.True(t, f.LastIndexed.Equal(got.LastIndexed))

	byID, err := s.FileByID(f.ID)
	require.NoError(t, err)
	require.NotNil(t, byID)
	assert.Equal(t, f.Path, byID.Path)

	missing, err := s.FileByPath("nope.java")
	require.NoError(t, err)
	assert.Nil(t, missing)
}

func TestFiles_OrderedByPath(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "b/B.java")
	insertTestFile(t, s, "a/A.java")

	files, err := s.Files()
	require.NoError(t, err)
	require.Len(t, files, 2)
	assert.Equal(t, "a/A.java", files[0].Path)
	assert.Equal(t, "b/B.java", files[1].Path)
}

func TestFile_DuplicatePathRejected(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	insertTestFile(t, s, "A.java")
	_, err := s.InsertFile(&File{Path: "A.java", Language: "java"})
	assert.Error(t, err)
}

// =============================================================================
// Declarations
// =============================================================================

func TestDeclaration_RoundTrip(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	class := insertTestDeclaration(t, s, f.ID, "com.example.Limits", "class", nil)
	field := insertTestDeclaration(t, s, f.ID, "com.example.Limits.MAX", KindField, &class.ID)

	decls, err := s.DeclarationsByName("com.example.Limits.MAX")
	require.NoError(t, err)
	require.Len(t, decls, 1)
	got := decls[0]
	assert.Equal(t, field.ID, got.ID)
	assert.Equal(t, "MAX", got.Name)
	assert.Equal(t, []string{"static", "final"}, got.Modifiers)
	assert.Equal(t, "int", got.TypeExpr)
	assert.Nil(t, got.Params)
	require.NotNil(t, got.ParentID)
	assert.Equal(t, class.ID, *got.ParentID)

	children, err := s.DeclarationChildren(class.ID)
	require.NoError(t, err)
	require.Len(t, children, 1)
	assert.Equal(t, field.ID, children[0].ID)

	byFile, err := s.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	assert.Len(t, byFile, 2)
}

func TestDeclaration_Params(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	d := &Declaration{
		FileID:        f.ID,
		QualifiedName: "com.example.Limits#size(int,String...)",
		Name:          "size",
		Kind:          KindMethod,
		Params:        []string{"int", "String..."},
		Hidden:        true,
	}
	_, err := s.InsertDeclaration(d)
	require.NoError(t, err)

	all, err := s.Declarations()
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, []string{"int", "String..."}, all[0].Params)
	assert.True(t, all[0].Hidden)
	assert.False(t, all[0].Removed)
	assert.Empty(t, all[0].Modifiers)
}

func TestUpdateSignatureHashes(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	a := insertTestDeclaration(t, s, f.ID, "p.A", "class", nil)
	b := insertTestDeclaration(t, s, f.ID, "p.B", "class", nil)

	// First write: nothing was set before, so nothing counts as changed.
	changed, err := s.UpdateSignatureHashes(map[int64]string{a.ID: "h1", b.ID: "h2"})
	require.NoError(t, err)
	assert.Empty(t, changed)

	changed, err = s.UpdateSignatureHashes(map[int64]string{a.ID: "h1", b.ID: "h3", 999: "x"})
	require.NoError(t, err)
	assert.Equal(t, []int64{b.ID}, changed)

	decls, err := s.DeclarationsByName("p.B")
	require.NoError(t, err)
	require.Len(t, decls, 1)
	assert.Equal(t, "h3", decls[0].SignatureHash)
}

// =============================================================================
// Annotations
// =============================================================================

func TestAnnotation_Queries(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	d := insertTestDeclaration(t, s, f.ID, "com.example.Limits.MAX", KindField, nil)
	second := insertTestAnnotation(t, s, d, 1, "IntRange")
	first := insertTestAnnotation(t, s, d, 0, "NonNull")

	byDecl, err := s.AnnotationsByDeclaration(d.ID)
	require.NoError(t, err)
	require.Len(t, byDecl, 2)
	assert.Equal(t, first.ID, byDecl[0].ID, "declaration order follows ordinal")
	assert.Equal(t, second.ID, byDecl[1].ID)
	assert.Nil(t, byDecl[0].RunID)
	assert.Empty(t, byDecl[0].Canonical)

	byFile, err := s.AnnotationsByFile(f.ID)
	require.NoError(t, err)
	require.Len(t, byFile, 2)
	assert.Equal(t, first.ID, byFile[0].ID, "source order follows line and column")

	byOwner, err := s.AnnotationsByOwner("com.example.Limits.MAX")
	require.NoError(t, err)
	assert.Len(t, byOwner, 2)
}

func TestUpdateCanonical(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	d := insertTestDeclaration(t, s, f.ID, "com.example.Limits.MAX", KindField, nil)
	a := insertTestAnnotation(t, s, d, 0, "NonNull")
	b := insertTestAnnotation(t, s, d, 1, "Hidden")

	run, err := s.StartRun(time.Now())
	require.NoError(t, err)
	require.NoError(t, s.UpdateCanonical(run.ID, []CanonicalUpdate{
		{AnnotationID: a.ID, Canonical: "@androidx.annotation.NonNull"},
		{AnnotationID: b.ID, Canonical: ""},
	}))

	anns, err := s.AnnotationsByDeclaration(d.ID)
	require.NoError(t, err)
	require.Len(t, anns, 2)
	assert.Equal(t, "@androidx.annotation.NonNull", anns[0].Canonical)
	require.NotNil(t, anns[0].RunID)
	assert.Equal(t, run.ID, *anns[0].RunID)
	assert.Empty(t, anns[1].Canonical)
	assert.Equal(t, ptr(run.ID), anns[1].RunID)
}

// =============================================================================
// Deletion
// =============================================================================

func TestDeleteFileData(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	other := insertTestFile(t, s, "Other.java")
	class := insertTestDeclaration(t, s, f.ID, "p.Limits", "class", nil)
	field := insertTestDeclaration(t, s, f.ID, "p.Limits.MAX", KindField, &class.ID)
	insertTestAnnotation(t, s, field, 0, "NonNull")
	kept := insertTestDeclaration(t, s, other.ID, "p.Other", "class", nil)
	insertTestAnnotation(t, s, kept, 0, "NonNull")

	require.NoError(t, s.DeleteFileData(f.ID))

	decls, err := s.DeclarationsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, decls)
	anns, err := s.AnnotationsByFile(f.ID)
	require.NoError(t, err)
	assert.Empty(t, anns)

	// The file row and other files are untouched.
	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.NotNil(t, got)
	anns, err = s.AnnotationsByFile(other.ID)
	require.NoError(t, err)
	assert.Len(t, anns, 1)
}

func TestDeleteFile(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "Limits.java")
	insertTestDeclaration(t, s, f.ID, "p.Limits", "class", nil)

	require.NoError(t, s.DeleteFile(f.ID))
	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Nil(t, got)
}

// =============================================================================
// Runs & Metadata
// =============================================================================

func TestRuns_Lifecycle(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	latest, err := s.LatestRun()
	require.NoError(t, err)
	assert.Nil(t, latest)

	start := time.Now().Truncate(time.Second)
	first, err := s.StartRun(start)
	require.NoError(t, err)
	assert.Len(t, first.ID, 36)

	first.Files, first.Annotations, first.Changed, first.Suppressed = 2, 7, 3, 1
	require.NoError(t, s.FinishRun(first, start.Add(time.Second)))

	second, err := s.StartRun(start.Add(2 * time.Second))
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, second.ID)

	// An unfinished run is not the latest.
	latest, err = s.LatestRun()
	require.NoError(t, err)
	require.NotNil(t, latest)
	assert.Equal(t, first.ID, latest.ID)
	assert.Equal(t, 7, latest.Annotations)
	assert.Equal(t, 3, latest.Changed)
	require.NotNil(t, latest.FinishedAt)

	got, err := s.RunByID(second.ID)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Nil(t, got.FinishedAt)

	runs, err := s.Runs()
	require.NoError(t, err)
	require.Len(t, runs, 2)
	assert.Equal(t, first.ID, runs[0].ID)
}

func TestFinishRun_Unknown(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	err := s.FinishRun(&Run{ID: "missing"}, time.Now())
	assert.ErrorContains(t, err, "unknown run")
}

func TestMetadata(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)

	v, err := s.GetMetadata("config_hash")
	require.NoError(t, err)
	assert.Empty(t, v)

	require.NoError(t, s.SetMetadata("config_hash", "a"))
	require.NoError(t, s.SetMetadata("config_hash", "b"))
	v, err = s.GetMetadata("config_hash")
	require.NoError(t, err)
	assert.Equal(t, "b", v)
}

// =============================================================================
// Signature hash
// =============================================================================

func TestComputeSignatureHash(t *testing.T) {
	t.Parallel()
	base := ComputeSignatureHash("p.C.F", KindField, "public", []string{"static", "final"}, "int", nil,
		[]string{"@androidx.annotation.NonNull"})

	assert.Equal(t, base, ComputeSignatureHash("p.C.F", KindField, "public", []string{"final", "static"}, "int", nil,
		[]string{"@androidx.annotation.NonNull"}), "modifier order is irrelevant")
	assert.Equal(t, base, ComputeSignatureHash("p.C.F", KindField, "public", []string{"static", "final"}, "int", nil,
		[]string{"", "@androidx.annotation.NonNull"}), "suppressed annotations are skipped")
	assert.NotEqual(t, base, ComputeSignatureHash("p.C.F", KindField, "public", []string{"static", "final"}, "int", nil,
		[]string{"@androidx.annotation.Nullable"}))
	assert.NotEqual(t, base, ComputeSignatureHash("p.C.F", KindField, "public", []string{"static", "final"}, "long", nil,
		[]string{"@androidx.annotation.NonNull"}))
	assert.NotEqual(t,
		ComputeSignatureHash("p.C#m", KindMethod, "public", nil, "void", []string{"int", "long"}, nil),
		ComputeSignatureHash("p.C#m", KindMethod, "public", nil, "void", []string{"long", "int"}, nil),
		"parameter order matters")
}

func TestSetFilePackage(t *testing.T) {
	t.Parallel()
	s := newTestStore(t)
	f := insertTestFile(t, s, "A.java")

	require.NoError(t, s.SetFilePackage(f.ID, "org.other"))
	got, err := s.FileByID(f.ID)
	require.NoError(t, err)
	assert.Equal(t, "org.other", got.Package)
}
