package annotation

import (
	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/tree"
)

// NonNull is the qualified name reported for synthesized nullability
// markers that arrive without one.
const NonNull = "androidx.annotation.NonNull"

// Item is an annotation as seen by the canonicalizer.
type Item interface {
	QualifiedName() string
	// Attributes returns the attributes in declaration order. The result
	// is computed once and reused.
	Attributes() []Attribute
	// Resolve returns the annotation type's class item, or nil.
	Resolve() *codebase.ClassItem
	// ToSource returns the annotation as written.
	ToSource() string
}

// Attribute is a named attribute value. Name is empty when the attribute
// was written without one.
type Attribute struct {
	Name  string
	Value Value
}

// TreeItem is an Item backed by a parsed annotation tree.
//
// The attribute list is memoized without locking; a TreeItem must not be
// shared between goroutines unless callers synchronize.
type TreeItem struct {
	tree *tree.Annotation
	env  *Env

	attrs    []Attribute
	computed bool
}

var _ Item = (*TreeItem)(nil)

// FromTree wraps t.
func FromTree(t *tree.Annotation, env *Env) *TreeItem {
	return &TreeItem{tree: t, env: env}
}

// Tree returns the backing tree.
func (a *TreeItem) Tree() *tree.Annotation { return a.tree }

// QualifiedName returns the resolved name, falling back to the name as
// written when the front end could not qualify it.
func (a *TreeItem) QualifiedName() string {
	if a.tree.Origin == tree.OriginNullabilityMarker && a.tree.QualifiedName == "" {
		// This front end shape drops the name of non-null markers.
		return NonNull
	}
	if a.tree.QualifiedName != "" {
		return a.tree.QualifiedName
	}
	return a.tree.Name
}

func (a *TreeItem) Attributes() []Attribute {
	if a.computed {
		return a.attrs
	}
	attrs := make([]Attribute, len(a.tree.Attributes))
	for i, attr := range a.tree.Attributes {
		attrs[i] = Attribute{Name: attr.Name, Value: NewValue(attr.Value, a.env)}
	}
	a.attrs, a.computed = attrs, true
	return a.attrs
}

func (a *TreeItem) Resolve() *codebase.ClassItem {
	if a.env == nil || a.env.Index == nil {
		return nil
	}
	c, ok := a.env.Index.FindClass(a.QualifiedName())
	if !ok {
		return nil
	}
	return c
}

func (a *TreeItem) ToSource() string { return a.tree.Source() }
