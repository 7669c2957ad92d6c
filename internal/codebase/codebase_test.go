package codebase

import (
	"testing"

	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newClass builds a public class declaration with the given fields.
func newClass(qn string, fields ...*FieldDecl) *ClassDecl {
	name := qn
	pkg := ""
	for i := len(qn) - 1; i >= 0; i-- {
		if qn[i] == '.' {
			name, pkg = qn[i+1:], qn[:i]
			break
		}
	}
	c := &ClassDecl{
		QualifiedName: qn,
		Name:          name,
		Kind:          KindClass,
		Visibility:    Public,
		Scope:         &tree.Scope{Package: pkg},
	}
	for _, f := range fields {
		f.Class = c
		c.Fields = append(c.Fields, f)
	}
	return c
}

func constField(name, vis string, v constant.Value) *FieldDecl {
	return &FieldDecl{
		Name:        name,
		Visibility:  vis,
		Static:      true,
		Final:       true,
		Initializer: &tree.Literal{Value: v},
	}
}

func TestCodebase_FindClass(t *testing.T) {
	t.Parallel()
	cb := New()
	decl := newClass("pkg.Limits")
	cb.AddClass(decl)

	item, ok := cb.FindClass("pkg.Limits")
	require.True(t, ok)
	assert.Equal(t, "pkg.Limits", item.QualifiedName())
	assert.Same(t, decl, item.Decl())

	again, ok := cb.FindClass("pkg.Limits")
	require.True(t, ok)
	assert.Same(t, item, again, "items are materialized once")

	_, ok = cb.FindClass("pkg.Missing")
	assert.False(t, ok)
}

func TestCodebase_FindOrCreateClass_Unregistered(t *testing.T) {
	t.Parallel()
	cb := New()
	decl := newClass("ext.Outside", constField("X", Public, constant.MakeInt(1)))

	_, ok := cb.FindField(decl.Fields[0])
	assert.False(t, ok, "no item before materialization")

	item := cb.FindOrCreateClass(decl)
	require.NotNil(t, item)
	assert.Same(t, item, cb.FindOrCreateClass(decl))

	f, ok := cb.FindField(decl.Fields[0])
	require.True(t, ok)
	assert.Equal(t, "ext.Outside.X", f.QualifiedName())
}

func TestCodebase_AddClassReplaces(t *testing.T) {
	t.Parallel()
	cb := New()
	first := newClass("pkg.A")
	second := newClass("pkg.A")
	cb.AddClasses(first, second)

	got, ok := cb.Class("pkg.A")
	require.True(t, ok)
	assert.Same(t, second, got)
	assert.Len(t, cb.Classes(), 1)
}

func TestItems_HiddenOrRemoved(t *testing.T) {
	t.Parallel()
	cb := New()

	pub := constField("PUB", Public, constant.MakeInt(1))
	prot := constField("PROT", Protected, constant.MakeInt(2))
	priv := constField("PRIV", Private, constant.MakeInt(3))
	pkgPriv := constField("PKG", Package, constant.MakeInt(4))
	hidden := constField("HIDDEN", Public, constant.MakeInt(5))
	hidden.Hidden = true
	removed := constField("REMOVED", Public, constant.MakeInt(6))
	removed.Removed = true
	c := newClass("pkg.C", pub, prot, priv, pkgPriv, hidden, removed)
	cb.AddClass(c)

	item, ok := cb.FindClass("pkg.C")
	require.True(t, ok)
	assert.False(t, item.IsHiddenOrRemoved())

	want := map[string]bool{"PUB": false, "PROT": false, "PRIV": true, "PKG": true, "HIDDEN": true, "REMOVED": true}
	for name, hiddenWant := range want {
		f, ok := item.FindField(name)
		require.True(t, ok, name)
		assert.Equal(t, hiddenWant, f.IsHiddenOrRemoved(), name)
	}
}

func TestItems_HiddenThroughOuterClass(t *testing.T) {
	t.Parallel()
	cb := New()

	outer := newClass("pkg.Outer")
	outer.Hidden = true
	inner := newClass("pkg.Outer.Inner", constField("X", Public, constant.MakeInt(1)))
	inner.Outer = outer
	cb.AddClasses(outer, inner)

	item, ok := cb.FindClass("pkg.Outer.Inner")
	require.True(t, ok)
	assert.True(t, item.IsHiddenOrRemoved())

	f, ok := cb.FindField(inner.Fields[0])
	require.True(t, ok)
	assert.True(t, f.IsHiddenOrRemoved())
}

func TestCodebase_FindMethod(t *testing.T) {
	t.Parallel()
	cb := New()
	c := newClass("pkg.S")
	m := &MethodDecl{Name: "run", Visibility: Public, Class: c}
	c.Methods = append(c.Methods, m)
	cb.AddClass(c)

	item, ok := cb.FindMethod(m)
	require.True(t, ok)
	assert.Equal(t, "pkg.S.run", item.QualifiedName())
	assert.False(t, item.IsHiddenOrRemoved())

	_, ok = cb.FindMethod(&MethodDecl{Name: "orphan"})
	assert.False(t, ok)
}

func TestFieldDecl_ConstantInitializer(t *testing.T) {
	t.Parallel()

	f := constField("X", Public, constant.MakeInt(1))
	assert.NotNil(t, f.ConstantInitializer())

	f.Final = false
	assert.Nil(t, f.ConstantInitializer())

	e := &FieldDecl{Name: "A", Final: true, EnumConstant: true}
	assert.Nil(t, e.ConstantInitializer())
}

func TestBuiltins(t *testing.T) {
	t.Parallel()
	cb := New()
	cb.AddClasses(Builtins()...)

	_, ok := cb.FindClass("java.lang.Override")
	assert.True(t, ok)

	d := cb.Resolve(&tree.Reference{Name: "Integer.MAX_VALUE"})
	f, ok := d.(*FieldDecl)
	require.True(t, ok)
	assert.Equal(t, "java.lang.Integer.MAX_VALUE", f.QualifiedName())

	d = cb.Resolve(&tree.Reference{
		Name:  "ElementType.METHOD",
		Scope: &tree.Scope{Package: "app", Imports: []string{"java.lang.annotation.ElementType"}},
	})
	f, ok = d.(*FieldDecl)
	require.True(t, ok)
	assert.True(t, f.EnumConstant)
	assert.Equal(t, "java.lang.annotation.ElementType.METHOD", f.QualifiedName())
}
