// Package codebase models the declarations of a source set and the public
// API surface built from them. Declarations are what a front end sees in
// source; items are the index's view of those declarations, and carry the
// hidden/removed status that decides whether they are part of the surface.
package codebase

import "github.com/jward/canon/internal/tree"

// Visibility values used by declarations.
const (
	Public    = "public"
	Protected = "protected"
	Package   = "package"
	Private   = "private"
)

// Class kinds.
const (
	KindClass      = "class"
	KindInterface  = "interface"
	KindEnum       = "enum"
	KindAnnotation = "annotation"
	KindRecord     = "record"
)

// Declaration is a source declaration a reference can resolve to: a
// *ClassDecl, *FieldDecl or *MethodDecl.
type Declaration interface {
	DeclName() string
	declaration()
}

// ClassDecl is a class, interface, enum, record or annotation type.
type ClassDecl struct {
	// QualifiedName is empty for local and anonymous classes.
	QualifiedName string
	Name          string
	Kind          string
	Visibility    string
	Hidden        bool
	Removed       bool
	Outer         *ClassDecl
	// Supertypes as written, resolved against Scope on demand.
	Supertypes  []string
	Scope       *tree.Scope
	Fields      []*FieldDecl
	Methods     []*MethodDecl
	Annotations []*tree.Annotation
	File        string
	Line        int
}

// FieldDecl is a field or enum constant.
type FieldDecl struct {
	Name         string
	Type         string
	Visibility   string
	Static       bool
	Final        bool
	EnumConstant bool
	Hidden       bool
	Removed      bool
	// Class is the containing class. Nil when unknown.
	Class       *ClassDecl
	Initializer tree.Node
	Annotations []*tree.Annotation
	Line        int
}

// MethodDecl is a method, constructor or annotation element.
type MethodDecl struct {
	Name        string
	ReturnType  string
	Params      []Param
	Visibility  string
	Hidden      bool
	Removed     bool
	Class       *ClassDecl
	Annotations []*tree.Annotation
	// Default is the annotation element default value, if any.
	Default tree.Node
	Line    int
}

// Param is a method parameter.
type Param struct {
	Name        string
	Type        string
	Annotations []*tree.Annotation
}

func (d *ClassDecl) DeclName() string  { return d.Name }
func (d *FieldDecl) DeclName() string  { return d.Name }
func (d *MethodDecl) DeclName() string { return d.Name }

func (*ClassDecl) declaration()  {}
func (*FieldDecl) declaration()  {}
func (*MethodDecl) declaration() {}

// Field returns the field declared directly in d with the given name.
func (d *ClassDecl) Field(name string) *FieldDecl {
	for _, f := range d.Fields {
		if f.Name == name {
			return f
		}
	}
	return nil
}

// Method returns the first method declared directly in d with the given name.
func (d *ClassDecl) Method(name string) *MethodDecl {
	for _, m := range d.Methods {
		if m.Name == name {
			return m
		}
	}
	return nil
}

// ConstantInitializer returns the field's initializer when it is a
// compile-time constant candidate: a final field with an initializer.
func (d *FieldDecl) ConstantInitializer() tree.Node {
	if !d.Final || d.EnumConstant {
		return nil
	}
	return d.Initializer
}

// QualifiedName returns "Class.name", or just the name when the containing
// class is unknown.
func (d *FieldDecl) QualifiedName() string {
	if d.Class == nil || d.Class.QualifiedName == "" {
		return d.Name
	}
	return d.Class.QualifiedName + "." + d.Name
}
