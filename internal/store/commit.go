package store

import (
	"database/sql"
	"fmt"
)

// CommitBatch inserts all buffered data from a BatchedStore into SQLite
// within a single transaction. Fake (negative) IDs are remapped to real
// IDs, and references within the batch are rewritten using the fakeToReal
// mapping.
//
// Insert order respects FK dependencies:
//  1. Declarations (parents are inserted before their members)
//  2. Annotations (depend on declaration_id)
func (s *Store) CommitBatch(batch *BatchedStore) error {
	tx, err := s.db.Begin()
	if err != nil {
		return fmt.Errorf("commit batch: begin: %w", err)
	}
	defer tx.Rollback()

	fakeToReal := make(map[int64]int64)

	// 1. Declarations
	for _, d := range batch.Declarations {
		// parent_id may be fake (same batch) or real (already committed).
		if d.ParentID != nil && *d.ParentID < 0 {
			realID, ok := fakeToReal[*d.ParentID]
			if !ok {
				return fmt.Errorf("commit batch: declaration %q has parent_id=%d not in fakeToReal map", d.QualifiedName, *d.ParentID)
			}
			d.ParentID = &realID
		}
		realID, err := insertDeclarationTx(tx, &d)
		if err != nil {
			return fmt.Errorf("commit batch: declaration %q: %w", d.QualifiedName, err)
		}
		fakeToReal[d.ID] = realID
	}

	// 2. Annotations
	for _, ann := range batch.Annotations {
		if ann.DeclarationID < 0 {
			realID, ok := fakeToReal[ann.DeclarationID]
			if !ok {
				return fmt.Errorf("commit batch: annotation %q has declaration_id=%d not in fakeToReal map (have %d declarations)", ann.Name, ann.DeclarationID, len(batch.Declarations))
			}
			ann.DeclarationID = realID
		}
		realID, err := insertAnnotationTx(tx, &ann)
		if err != nil {
			return fmt.Errorf("commit batch: annotation %q: %w", ann.Name, err)
		}
		fakeToReal[ann.ID] = realID
	}

	return tx.Commit()
}

// execer is satisfied by both *sql.DB and *sql.Tx.
type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func insertDeclarationTx(tx execer, d *Declaration) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO declarations (file_id, qualified_name, name, kind, visibility, modifiers,
			type_expr, params, hidden, removed, line, parent_id, signature_hash)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		d.FileID, d.QualifiedName, d.Name, d.Kind, d.Visibility, marshalList(d.Modifiers),
		d.TypeExpr, marshalList(d.Params), d.Hidden, d.Removed, d.Line, d.ParentID, d.SignatureHash,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}

func insertAnnotationTx(tx execer, ann *Annotation) (int64, error) {
	res, err := tx.Exec(
		`INSERT INTO annotations (file_id, declaration_id, owner, site, ordinal, name,
			qualified_name, source, canonical, run_id, line, col)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ann.FileID, ann.DeclarationID, ann.Owner, ann.Site, ann.Ordinal, ann.Name,
		ann.QualifiedName, ann.Source, ann.Canonical, ann.RunID, ann.Line, ann.Col,
	)
	if err != nil {
		return 0, err
	}
	return res.LastInsertId()
}
