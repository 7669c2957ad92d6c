package codebase

import (
	"strings"

	"github.com/jward/canon/internal/tree"
)

// maxSupertypeDepth bounds inherited member lookup through supertypes.
const maxSupertypeDepth = 16

// Resolve resolves ref against the registered declarations using the
// reference's scope. Lookup order for a simple name: members of the
// enclosing classes and their supertypes, single static imports, static
// on-demand imports, then types. Dotted names resolve their longest type
// prefix first and then look up the remaining member.
func (cb *Codebase) Resolve(ref *tree.Reference) Declaration {
	if ref == nil || ref.Name == "" {
		return nil
	}
	scope := ref.Scope
	if ref.ClassLiteral {
		if c := cb.ResolveType(ref.Name, scope); c != nil {
			return c
		}
		return nil
	}

	parts := strings.Split(ref.Name, ".")
	if len(parts) == 1 {
		return cb.resolveSimple(parts[0], scope)
	}

	for i := len(parts) - 1; i >= 1; i-- {
		class := cb.ResolveType(strings.Join(parts[:i], "."), scope)
		if class == nil {
			continue
		}
		rest := parts[i:]
		if len(rest) != 1 {
			// Only Type.member is a constant expression; anything deeper is
			// a field access on an instance.
			return nil
		}
		if d := cb.member(class, rest[0], 0); d != nil {
			return d
		}
		return nil
	}
	if c := cb.ResolveType(ref.Name, scope); c != nil {
		return c
	}
	return nil
}

func (cb *Codebase) resolveSimple(name string, scope *tree.Scope) Declaration {
	if scope != nil {
		for _, enclosing := range scope.Enclosing {
			c, ok := cb.Class(enclosing)
			if !ok {
				continue
			}
			if d := cb.member(c, name, 0); d != nil {
				return d
			}
		}
		for _, imp := range scope.StaticImports {
			dot := strings.LastIndexByte(imp, '.')
			if dot < 0 || imp[dot+1:] != name {
				continue
			}
			if c, ok := cb.Class(imp[:dot]); ok {
				if d := cb.member(c, name, 0); d != nil {
					return d
				}
			}
		}
		for _, imp := range scope.StaticWildcardImports {
			if c, ok := cb.Class(imp); ok {
				if d := cb.member(c, name, 0); d != nil {
					return d
				}
			}
		}
	}
	if c := cb.ResolveType(name, scope); c != nil {
		return c
	}
	return nil
}

// member looks up a field, nested class or method named name in class and,
// failing that, in its supertypes.
func (cb *Codebase) member(class *ClassDecl, name string, depth int) Declaration {
	if f := class.Field(name); f != nil {
		return f
	}
	if class.QualifiedName != "" {
		if nested, ok := cb.Class(class.QualifiedName + "." + name); ok {
			return nested
		}
	}
	if m := class.Method(name); m != nil {
		return m
	}
	if depth >= maxSupertypeDepth {
		return nil
	}
	for _, st := range class.Supertypes {
		super := cb.ResolveType(st, class.Scope)
		if super == nil || super == class {
			continue
		}
		if d := cb.member(super, name, depth+1); d != nil {
			return d
		}
	}
	return nil
}

// ResolveType resolves a possibly dotted type name written in scope.
func (cb *Codebase) ResolveType(name string, scope *tree.Scope) *ClassDecl {
	if i := strings.IndexByte(name, '<'); i >= 0 {
		name = name[:i]
	}
	if name == "" {
		return nil
	}
	if dot := strings.IndexByte(name, '.'); dot >= 0 {
		if first := cb.resolveSimpleType(name[:dot], scope); first != nil && first.QualifiedName != "" {
			if c, ok := cb.Class(first.QualifiedName + name[dot:]); ok {
				return c
			}
		}
		if c, ok := cb.Class(name); ok {
			return c
		}
		return nil
	}
	return cb.resolveSimpleType(name, scope)
}

func (cb *Codebase) resolveSimpleType(name string, scope *tree.Scope) *ClassDecl {
	var candidates []string
	if scope != nil {
		for _, enclosing := range scope.Enclosing {
			candidates = append(candidates, enclosing+"."+name)
			if enclosing == name || strings.HasSuffix(enclosing, "."+name) {
				candidates = append(candidates, enclosing)
			}
		}
		if imp, ok := scope.ImportFor(name); ok {
			candidates = append(candidates, imp)
		}
		if scope.Package != "" {
			candidates = append(candidates, scope.Package+"."+name)
		} else {
			candidates = append(candidates, name)
		}
		for _, w := range scope.WildcardImports {
			candidates = append(candidates, w+"."+name)
		}
	} else {
		candidates = append(candidates, name)
	}
	candidates = append(candidates, "java.lang."+name)

	for _, qn := range candidates {
		if c, ok := cb.Class(qn); ok {
			return c
		}
	}
	return nil
}
