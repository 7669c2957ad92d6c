package codebase

import (
	"testing"

	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// fixture builds a small codebase:
//
//	package pkg;  class Limits { MAX; class Inner { DEPTH } }
//	package pkg;  interface Constants { SHARED }
//	package app;  class Service implements Constants { LOCAL; void run() }
//	package other; class Sizes { SMALL }
func fixture(t *testing.T) *Codebase {
	t.Helper()
	cb := New()

	limits := newClass("pkg.Limits", constField("MAX", Public, constant.MakeInt(10)))
	inner := newClass("pkg.Limits.Inner", constField("DEPTH", Public, constant.MakeInt(3)))
	inner.Outer = limits
	constants := newClass("pkg.Constants", constField("SHARED", Public, constant.MakeString("s")))
	constants.Kind = KindInterface

	service := newClass("app.Service", constField("LOCAL", Private, constant.MakeInt(7)))
	service.Supertypes = []string{"Constants"}
	service.Scope = &tree.Scope{Package: "app", Imports: []string{"pkg.Constants"}}
	service.Methods = append(service.Methods, &MethodDecl{Name: "run", Visibility: Public, Class: service})

	sizes := newClass("other.Sizes", constField("SMALL", Public, constant.MakeInt(1)))

	cb.AddClasses(limits, inner, constants, service, sizes)
	return cb
}

func serviceScope() *tree.Scope {
	return &tree.Scope{
		Package:   "app",
		Imports:   []string{"pkg.Limits", "pkg.Constants"},
		Enclosing: []string{"app.Service"},
	}
}

func resolveName(cb *Codebase, name string, scope *tree.Scope) Declaration {
	return cb.Resolve(&tree.Reference{Name: name, Scope: scope})
}

func TestResolve_Fields(t *testing.T) {
	t.Parallel()
	cb := fixture(t)

	tests := []struct {
		name  string
		scope *tree.Scope
		want  string
	}{
		{"LOCAL", serviceScope(), "app.Service.LOCAL"},
		{"SHARED", serviceScope(), "pkg.Constants.SHARED"},
		{"Limits.MAX", serviceScope(), "pkg.Limits.MAX"},
		{"pkg.Limits.MAX", nil, "pkg.Limits.MAX"},
		{"Limits.Inner.DEPTH", serviceScope(), "pkg.Limits.Inner.DEPTH"},
		{"SMALL", &tree.Scope{Package: "app", StaticImports: []string{"other.Sizes.SMALL"}}, "other.Sizes.SMALL"},
		{"SMALL", &tree.Scope{Package: "app", StaticWildcardImports: []string{"other.Sizes"}}, "other.Sizes.SMALL"},
		{"Sizes.SMALL", &tree.Scope{Package: "app", WildcardImports: []string{"other"}}, "other.Sizes.SMALL"},
		{"MAX", &tree.Scope{Package: "pkg", Enclosing: []string{"pkg.Limits.Inner", "pkg.Limits"}}, "pkg.Limits.MAX"},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			d := resolveName(cb, tt.name, tt.scope)
			f, ok := d.(*FieldDecl)
			require.True(t, ok, "expected field, got %T", d)
			assert.Equal(t, tt.want, f.QualifiedName())
		})
	}
}

func TestResolve_Classes(t *testing.T) {
	t.Parallel()
	cb := fixture(t)

	d := resolveName(cb, "Limits", serviceScope())
	c, ok := d.(*ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "pkg.Limits", c.QualifiedName)

	d = cb.Resolve(&tree.Reference{Name: "Sizes", ClassLiteral: true, Scope: &tree.Scope{Package: "other"}})
	c, ok = d.(*ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "other.Sizes", c.QualifiedName)

	d = resolveName(cb, "Limits.Inner", serviceScope())
	c, ok = d.(*ClassDecl)
	require.True(t, ok)
	assert.Equal(t, "pkg.Limits.Inner", c.QualifiedName)
}

func TestResolve_Method(t *testing.T) {
	t.Parallel()
	cb := fixture(t)

	d := resolveName(cb, "run", serviceScope())
	m, ok := d.(*MethodDecl)
	require.True(t, ok)
	assert.Equal(t, "run", m.Name)
}

func TestResolve_Unresolved(t *testing.T) {
	t.Parallel()
	cb := fixture(t)

	assert.Nil(t, resolveName(cb, "NOPE", serviceScope()))
	assert.Nil(t, resolveName(cb, "Limits.NOPE", serviceScope()))
	assert.Nil(t, resolveName(cb, "Sizes.SMALL", serviceScope()), "Sizes is not imported")
	assert.Nil(t, resolveName(cb, "Limits.MAX.length", serviceScope()))
	assert.Nil(t, cb.Resolve(nil))
	assert.Nil(t, cb.Resolve(&tree.Reference{}))
}

func TestResolve_SupertypeCycle(t *testing.T) {
	t.Parallel()
	cb := New()
	a := newClass("p.A")
	b := newClass("p.B")
	a.Supertypes = []string{"B"}
	b.Supertypes = []string{"A"}
	cb.AddClasses(a, b)

	assert.Nil(t, resolveName(cb, "MISSING", &tree.Scope{Package: "p", Enclosing: []string{"p.A"}}))
}

func TestResolveType_GenericsStripped(t *testing.T) {
	t.Parallel()
	cb := fixture(t)
	c := cb.ResolveType("Limits<String>", serviceScope())
	require.NotNil(t, c)
	assert.Equal(t, "pkg.Limits", c.QualifiedName)
}
