package canon

import (
	"bytes"
	"fmt"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/frontend"
	"github.com/jward/canon/internal/store"
	"github.com/jward/canon/internal/tree"
)

func countLines(content []byte) int {
	return bytes.Count(content, []byte{'\n'}) + 1
}

// writeUnit stores the declarations of a parsed unit and every annotation
// attached to them. Parents are written before their members so batched
// IDs can be remapped in order.
func writeUnit(ds store.DataStore, fileID int64, u *frontend.Unit) error {
	w := unitWriter{ds: ds, fileID: fileID, classIDs: make(map[*codebase.ClassDecl]int64)}
	for _, c := range u.Classes {
		if err := w.class(c); err != nil {
			return err
		}
	}
	return nil
}

type unitWriter struct {
	ds       store.DataStore
	fileID   int64
	classIDs map[*codebase.ClassDecl]int64
}

func (w *unitWriter) class(c *codebase.ClassDecl) error {
	var parent *int64
	if id, ok := w.classIDs[c.Outer]; ok && c.Outer != nil {
		parent = &id
	}
	id, err := w.ds.InsertDeclaration(&store.Declaration{
		FileID:        w.fileID,
		QualifiedName: c.QualifiedName,
		Name:          c.Name,
		Kind:          c.Kind,
		Visibility:    c.Visibility,
		Params:        c.Supertypes,
		Hidden:        c.Hidden,
		Removed:       c.Removed,
		Line:          c.Line,
		ParentID:      parent,
	})
	if err != nil {
		return fmt.Errorf("class %s: %w", c.QualifiedName, err)
	}
	w.classIDs[c] = id
	if err := w.annotations(id, c.QualifiedName, store.SiteClass, c.Annotations); err != nil {
		return err
	}

	for _, f := range c.Fields {
		kind := store.KindField
		if f.EnumConstant {
			kind = store.KindEnumConst
		}
		var mods []string
		if f.Static {
			mods = append(mods, "static")
		}
		if f.Final {
			mods = append(mods, "final")
		}
		fid, err := w.ds.InsertDeclaration(&store.Declaration{
			FileID:        w.fileID,
			QualifiedName: f.QualifiedName(),
			Name:          f.Name,
			Kind:          kind,
			Visibility:    f.Visibility,
			Modifiers:     mods,
			TypeExpr:      f.Type,
			Hidden:        f.Hidden,
			Removed:       f.Removed,
			Line:          f.Line,
			ParentID:      &id,
		})
		if err != nil {
			return fmt.Errorf("field %s: %w", f.QualifiedName(), err)
		}
		if err := w.annotations(fid, f.QualifiedName(), store.SiteField, f.Annotations); err != nil {
			return err
		}
	}

	for _, m := range c.Methods {
		owner := frontend.MethodOwner(m)
		kind := store.KindMethod
		if m.ReturnType == "" {
			kind = store.KindConstructor
		}
		params := make([]string, len(m.Params))
		for i, p := range m.Params {
			params[i] = p.Type
		}
		mid, err := w.ds.InsertDeclaration(&store.Declaration{
			FileID:        w.fileID,
			QualifiedName: owner,
			Name:          m.Name,
			Kind:          kind,
			Visibility:    m.Visibility,
			TypeExpr:      m.ReturnType,
			Params:        params,
			Hidden:        m.Hidden,
			Removed:       m.Removed,
			Line:          m.Line,
			ParentID:      &id,
		})
		if err != nil {
			return fmt.Errorf("method %s: %w", owner, err)
		}
		if err := w.annotations(mid, owner, store.SiteMethod, m.Annotations); err != nil {
			return err
		}
		for _, p := range m.Params {
			if err := w.annotations(mid, owner+":"+p.Name, store.SiteParameter, p.Annotations); err != nil {
				return err
			}
		}
	}
	return nil
}

func (w *unitWriter) annotations(declID int64, owner, site string, anns []*tree.Annotation) error {
	for i, a := range anns {
		_, err := w.ds.InsertAnnotation(&store.Annotation{
			FileID:        w.fileID,
			DeclarationID: declID,
			Owner:         owner,
			Site:          site,
			Ordinal:       i,
			Name:          a.Name,
			QualifiedName: a.QualifiedName,
			Source:        a.Source(),
			Line:          a.Line,
			Col:           a.Col,
		})
		if err != nil {
			return fmt.Errorf("annotation %s on %s: %w", a.Name, owner, err)
		}
	}
	return nil
}
