package codebase

import (
	"sync"

	"github.com/jward/canon/internal/tree"
)

// Index is the registry of items that make up the modeled API surface.
type Index interface {
	// FindClass returns the item for the class with the given qualified name.
	FindClass(qualifiedName string) (*ClassItem, bool)
	// FindOrCreateClass returns the item for decl, materializing it in the
	// index if it does not exist yet.
	FindOrCreateClass(decl *ClassDecl) *ClassItem
	FindField(decl *FieldDecl) (*FieldItem, bool)
	FindMethod(decl *MethodDecl) (*MethodItem, bool)
}

// Resolver resolves symbolic references to declarations.
type Resolver interface {
	// Resolve returns the declaration ref names, or nil when it cannot be
	// resolved.
	Resolve(ref *tree.Reference) Declaration
}

// Codebase is an in-memory Index and Resolver over a set of class
// declarations. Items are materialized lazily on first lookup.
type Codebase struct {
	mu     sync.Mutex
	decls  map[string]*ClassDecl
	order  []*ClassDecl
	items  map[*ClassDecl]*ClassItem
	byName map[string]*ClassItem
}

var (
	_ Index    = (*Codebase)(nil)
	_ Resolver = (*Codebase)(nil)
)

// New returns an empty Codebase.
func New() *Codebase {
	return &Codebase{
		decls:  make(map[string]*ClassDecl),
		items:  make(map[*ClassDecl]*ClassItem),
		byName: make(map[string]*ClassItem),
	}
}

// AddClass registers decl. Classes without a qualified name are kept for
// iteration but cannot be looked up by name. A later declaration with the
// same qualified name replaces the earlier one.
func (cb *Codebase) AddClass(decl *ClassDecl) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if decl.QualifiedName != "" {
		if old, ok := cb.decls[decl.QualifiedName]; ok {
			delete(cb.items, old)
			delete(cb.byName, decl.QualifiedName)
			for i, d := range cb.order {
				if d == old {
					cb.order = append(cb.order[:i], cb.order[i+1:]...)
					break
				}
			}
		}
		cb.decls[decl.QualifiedName] = decl
	}
	cb.order = append(cb.order, decl)
}

// AddClasses registers every declaration in decls.
func (cb *Codebase) AddClasses(decls ...*ClassDecl) {
	for _, d := range decls {
		cb.AddClass(d)
	}
}

// Classes returns the registered declarations in registration order.
func (cb *Codebase) Classes() []*ClassDecl {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	out := make([]*ClassDecl, len(cb.order))
	copy(out, cb.order)
	return out
}

// Class returns the declaration registered under qualifiedName.
func (cb *Codebase) Class(qualifiedName string) (*ClassDecl, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	d, ok := cb.decls[qualifiedName]
	return d, ok
}

func (cb *Codebase) FindClass(qualifiedName string) (*ClassItem, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.byName[qualifiedName]; ok {
		return c, true
	}
	decl, ok := cb.decls[qualifiedName]
	if !ok {
		return nil, false
	}
	return cb.materialize(decl), true
}

func (cb *Codebase) FindOrCreateClass(decl *ClassDecl) *ClassItem {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	return cb.materialize(decl)
}

func (cb *Codebase) FindField(decl *FieldDecl) (*FieldItem, bool) {
	if decl.Class == nil {
		return nil, false
	}
	c, ok := cb.classItemFor(decl.Class)
	if !ok {
		return nil, false
	}
	return c.FindField(decl.Name)
}

func (cb *Codebase) FindMethod(decl *MethodDecl) (*MethodItem, bool) {
	if decl.Class == nil {
		return nil, false
	}
	c, ok := cb.classItemFor(decl.Class)
	if !ok {
		return nil, false
	}
	m, ok := c.methods[decl]
	return m, ok
}

// classItemFor returns the item for a registered class declaration,
// materializing it if needed. Unregistered declarations have no item unless
// FindOrCreateClass created one.
func (cb *Codebase) classItemFor(decl *ClassDecl) (*ClassItem, bool) {
	cb.mu.Lock()
	defer cb.mu.Unlock()
	if c, ok := cb.items[decl]; ok {
		return c, true
	}
	if decl.QualifiedName == "" || cb.decls[decl.QualifiedName] != decl {
		return nil, false
	}
	return cb.materialize(decl), true
}

// materialize returns the item for decl, creating it and its outer classes'
// items as needed. cb.mu must be held.
func (cb *Codebase) materialize(decl *ClassDecl) *ClassItem {
	if c, ok := cb.items[decl]; ok {
		return c
	}
	var outer *ClassItem
	if decl.Outer != nil {
		outer = cb.materialize(decl.Outer)
	}
	c := newClassItem(decl, outer)
	cb.items[decl] = c
	if decl.QualifiedName != "" {
		if _, taken := cb.byName[decl.QualifiedName]; !taken {
			cb.byName[decl.QualifiedName] = c
		}
	}
	return c
}
