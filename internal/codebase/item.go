package codebase

// Item is the index's view of a declaration.
type Item interface {
	QualifiedName() string
	// IsHiddenOrRemoved reports whether the item is excluded from the
	// modeled public surface.
	IsHiddenOrRemoved() bool
	item()
}

// ClassItem is a class in the index.
type ClassItem struct {
	decl  *ClassDecl
	outer *ClassItem

	fields  map[string]*FieldItem
	methods map[*MethodDecl]*MethodItem
}

// FieldItem is a field in the index.
type FieldItem struct {
	decl  *FieldDecl
	class *ClassItem
}

// MethodItem is a method in the index.
type MethodItem struct {
	decl  *MethodDecl
	class *ClassItem
}

func newClassItem(decl *ClassDecl, outer *ClassItem) *ClassItem {
	c := &ClassItem{
		decl:    decl,
		outer:   outer,
		fields:  make(map[string]*FieldItem, len(decl.Fields)),
		methods: make(map[*MethodDecl]*MethodItem, len(decl.Methods)),
	}
	for _, f := range decl.Fields {
		c.fields[f.Name] = &FieldItem{decl: f, class: c}
	}
	for _, m := range decl.Methods {
		c.methods[m] = &MethodItem{decl: m, class: c}
	}
	return c
}

func (c *ClassItem) QualifiedName() string { return c.decl.QualifiedName }

// Decl returns the class's declaration.
func (c *ClassItem) Decl() *ClassDecl { return c.decl }

// FindField returns the field item with the given name.
func (c *ClassItem) FindField(name string) (*FieldItem, bool) {
	f, ok := c.fields[name]
	return f, ok
}

// FindMethod returns the first method item with the given name.
func (c *ClassItem) FindMethod(name string) (*MethodItem, bool) {
	for _, m := range c.decl.Methods {
		if m.Name == name {
			return c.methods[m], true
		}
	}
	return nil, false
}

func (c *ClassItem) IsHiddenOrRemoved() bool {
	if c.decl.Hidden || c.decl.Removed || !exposed(c.decl.Visibility) {
		return true
	}
	return c.outer != nil && c.outer.IsHiddenOrRemoved()
}

// IsRemoved reports whether the class was explicitly removed from the API.
func (c *ClassItem) IsRemoved() bool { return c.decl.Removed }

func (f *FieldItem) QualifiedName() string { return f.class.QualifiedName() + "." + f.decl.Name }

// Decl returns the field's declaration.
func (f *FieldItem) Decl() *FieldDecl { return f.decl }

// Class returns the containing class item.
func (f *FieldItem) Class() *ClassItem { return f.class }

func (f *FieldItem) IsHiddenOrRemoved() bool {
	if f.decl.Hidden || f.decl.Removed || !exposed(f.decl.Visibility) {
		return true
	}
	return f.class.IsHiddenOrRemoved()
}

func (m *MethodItem) QualifiedName() string { return m.class.QualifiedName() + "." + m.decl.Name }

// Decl returns the method's declaration.
func (m *MethodItem) Decl() *MethodDecl { return m.decl }

// Class returns the containing class item.
func (m *MethodItem) Class() *ClassItem { return m.class }

func (m *MethodItem) IsHiddenOrRemoved() bool {
	if m.decl.Hidden || m.decl.Removed || !exposed(m.decl.Visibility) {
		return true
	}
	return m.class.IsHiddenOrRemoved()
}

func (*ClassItem) item()  {}
func (*FieldItem) item()  {}
func (*MethodItem) item() {}

// exposed reports whether a declaration with the given visibility is
// visible to API clients.
func exposed(visibility string) bool {
	return visibility == Public || visibility == Protected
}
