package store

import (
	"database/sql"
	"fmt"
	"sort"
)

// --- File operations ---

func (s *Store) InsertFile(f *File) (int64, error) {
	res, err := s.db.Exec(
		"INSERT INTO files (path, language, package, hash, line_count, last_indexed) VALUES (?, ?, ?, ?, ?, ?)",
		f.Path, f.Language, f.Package, f.Hash, f.LineCount, f.LastIndexed,
	)
	if err != nil {
		return 0, fmt.Errorf("insert file: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return 0, fmt.Errorf("last insert id: %w", err)
	}
	f.ID = id
	return id, nil
}

const fileCols = "id, path, language, COALESCE(package, ''), COALESCE(hash, ''), COALESCE(line_count, 0), last_indexed"

func scanFile(scanner interface{ Scan(...any) error }) (*File, error) {
	f := &File{}
	var indexed sql.NullTime
	if err := scanner.Scan(&f.ID, &f.Path, &f.Language, &f.Package, &f.Hash, &f.LineCount, &indexed); err != nil {
		return nil, err
	}
	f.LastIndexed = indexed.Time
	return f, nil
}

func (s *Store) fileWhere(where string, arg any) (*File, error) {
	f, err := scanFile(s.db.QueryRow("SELECT "+fileCols+" FROM files WHERE "+where, arg))
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("file: %w", err)
	}
	return f, nil
}

// FileByPath returns the file with the given path, or nil.
func (s *Store) FileByPath(path string) (*File, error) {
	return s.fileWhere("path = ?", path)
}

// FileByID returns the file with the given id, or nil.
func (s *Store) FileByID(id int64) (*File, error) {
	return s.fileWhere("id = ?", id)
}

// Files returns every indexed file ordered by path.
func (s *Store) Files() ([]*File, error) {
	rows, err := s.db.Query("SELECT " + fileCols + " FROM files ORDER BY path")
	if err != nil {
		return nil, fmt.Errorf("files: %w", err)
	}
	defer rows.Close()
	var files []*File
	for rows.Next() {
		f, err := scanFile(rows)
		if err != nil {
			return nil, fmt.Errorf("scan file: %w", err)
		}
		files = append(files, f)
	}
	return files, rows.Err()
}

// SetFilePackage records the package declared by a file.
func (s *Store) SetFilePackage(fileID int64, pkg string) error {
	if _, err := s.db.Exec("UPDATE files SET package = ? WHERE id = ?", pkg, fileID); err != nil {
		return fmt.Errorf("set file package: %w", err)
	}
	return nil
}

// --- Declaration operations ---

func (s *Store) InsertDeclaration(d *Declaration) (int64, error) {
	id, err := insertDeclarationTx(s.db, d)
	if err != nil {
		return 0, fmt.Errorf("insert declaration: %w", err)
	}
	d.ID = id
	return id, nil
}

// DeclarationCols is the column list for declaration queries, exported for
// use by QueryBuilder.
const DeclarationCols = `id, file_id, qualified_name, name, kind, COALESCE(visibility, ''), modifiers,
	COALESCE(type_expr, ''), params, hidden, removed, line, parent_id, COALESCE(signature_hash, '')`

// ScanDeclarationRow scans a single row selected with DeclarationCols.
func ScanDeclarationRow(scanner interface{ Scan(...any) error }) (*Declaration, error) {
	d := &Declaration{}
	var mods, params sql.NullString
	err := scanner.Scan(
		&d.ID, &d.FileID, &d.QualifiedName, &d.Name, &d.Kind, &d.Visibility, &mods,
		&d.TypeExpr, &params, &d.Hidden, &d.Removed, &d.Line, &d.ParentID, &d.SignatureHash,
	)
	if err != nil {
		return nil, err
	}
	d.Modifiers = unmarshalList(mods.String)
	d.Params = unmarshalList(params.String)
	return d, nil
}

func (s *Store) queryDeclarations(query string, args ...any) ([]*Declaration, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var decls []*Declaration
	for rows.Next() {
		d, err := ScanDeclarationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan declaration: %w", err)
		}
		decls = append(decls, d)
	}
	return decls, rows.Err()
}

func (s *Store) DeclarationsByFile(fileID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE file_id = ? ORDER BY id", fileID)
}

func (s *Store) DeclarationsByName(qualifiedName string) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE qualified_name = ? ORDER BY id", qualifiedName)
}

func (s *Store) DeclarationChildren(parentID int64) ([]*Declaration, error) {
	return s.queryDeclarations("SELECT "+DeclarationCols+" FROM declarations WHERE parent_id = ? ORDER BY id", parentID)
}

// Declarations returns every declaration in insertion order.
func (s *Store) Declarations() ([]*Declaration, error) {
	return s.queryDeclarations("SELECT " + DeclarationCols + " FROM declarations ORDER BY id")
}

// UpdateSignatureHashes writes the given hashes and returns the ids of the
// declarations whose hash was previously set to a different value, sorted.
func (s *Store) UpdateSignatureHashes(hashes map[int64]string) ([]int64, error) {
	tx, err := s.db.Begin()
	if err != nil {
		return nil, fmt.Errorf("update signature hashes: begin: %w", err)
	}
	defer tx.Rollback()

	var changed []int64
	for id, hash := range hashes {
		var old sql.NullString
		err := tx.QueryRow("SELECT signature_hash FROM declarations WHERE id = ?", id).Scan(&old)
		if err == sql.ErrNoRows {
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("update signature hashes: %w", err)
		}
		if old.String == hash {
			continue
		}
		if old.String != "" {
			changed = append(changed, id)
		}
		if _, err := tx.Exec("UPDATE declarations SET signature_hash = ? WHERE id = ?", hash, id); err != nil {
			return nil, fmt.Errorf("update signature hashes: %w", err)
		}
	}
	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("update signature hashes: commit: %w", err)
	}
	sort.Slice(changed, func(i, j int) bool { return changed[i] < changed[j] })
	return changed, nil
}

// --- Annotation operations ---

func (s *Store) InsertAnnotation(ann *Annotation) (int64, error) {
	id, err := insertAnnotationTx(s.db, ann)
	if err != nil {
		return 0, fmt.Errorf("insert annotation: %w", err)
	}
	ann.ID = id
	return id, nil
}

// AnnotationCols is the column list for annotation queries, exported for
// use by QueryBuilder.
const AnnotationCols = `id, file_id, declaration_id, owner, site, ordinal, name,
	COALESCE(qualified_name, ''), source, COALESCE(canonical, ''), run_id, line, col`

// ScanAnnotationRow scans a single row selected with AnnotationCols.
func ScanAnnotationRow(scanner interface{ Scan(...any) error }) (*Annotation, error) {
	a := &Annotation{}
	err := scanner.Scan(
		&a.ID, &a.FileID, &a.DeclarationID, &a.Owner, &a.Site, &a.Ordinal, &a.Name,
		&a.QualifiedName, &a.Source, &a.Canonical, &a.RunID, &a.Line, &a.Col,
	)
	if err != nil {
		return nil, err
	}
	return a, nil
}

func (s *Store) queryAnnotations(query string, args ...any) ([]*Annotation, error) {
	rows, err := s.db.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()
	var anns []*Annotation
	for rows.Next() {
		a, err := ScanAnnotationRow(rows)
		if err != nil {
			return nil, fmt.Errorf("scan annotation: %w", err)
		}
		anns = append(anns, a)
	}
	return anns, rows.Err()
}

// AnnotationsByFile returns a file's annotations in source order.
func (s *Store) AnnotationsByFile(fileID int64) ([]*Annotation, error) {
	return s.queryAnnotations("SELECT "+AnnotationCols+" FROM annotations WHERE file_id = ? ORDER BY line, col", fileID)
}

// AnnotationsByDeclaration returns a declaration's annotations in
// declaration order.
func (s *Store) AnnotationsByDeclaration(declarationID int64) ([]*Annotation, error) {
	return s.queryAnnotations("SELECT "+AnnotationCols+" FROM annotations WHERE declaration_id = ? ORDER BY ordinal", declarationID)
}

// AnnotationsByOwner returns the annotations of the declaration or
// parameter identified by owner.
func (s *Store) AnnotationsByOwner(owner string) ([]*Annotation, error) {
	return s.queryAnnotations("SELECT "+AnnotationCols+" FROM annotations WHERE owner = ? ORDER BY ordinal", owner)
}

// UpdateCanonical records the canonical text of each annotation and tags it
// with the run that produced it.
func (s *Store) UpdateCanonical(runID string, updates []CanonicalUpdate) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("update canonical: begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare("UPDATE annotations SET canonical = ?, run_id = ? WHERE id = ?")
	if err != nil {
		return fmt.Errorf("update canonical: prepare: %w", err)
	}
	defer stmt.Close()

	for _, u := range updates {
		if _, err := stmt.Exec(u.Canonical, runID, u.AnnotationID); err != nil {
			return fmt.Errorf("update canonical: annotation %d: %w", u.AnnotationID, err)
		}
	}
	return tx.Commit()
}
