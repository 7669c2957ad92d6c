package annotation

import (
	"strings"
	"testing"

	"github.com/jward/canon/internal/codebase"
	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/eval"
	"github.com/jward/canon/internal/tree"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// newEnv builds a small codebase:
//
//	package pkg;
//	public class Limits {
//	    public static final int MAX = 10;
//	    private static final int HIDDEN = 5;
//	    public int size() { ... }
//	}
//	public @interface Range {}
func newEnv(t *testing.T) (*Env, *codebase.Codebase) {
	t.Helper()
	cb := codebase.New()
	limits := &codebase.ClassDecl{QualifiedName: "pkg.Limits", Name: "Limits", Visibility: codebase.Public}
	limits.Fields = []*codebase.FieldDecl{
		{Name: "MAX", Type: "int", Visibility: codebase.Public, Static: true, Final: true, Class: limits,
			Initializer: &tree.Literal{Value: constant.MakeInt(10), Raw: "10"}},
		{Name: "HIDDEN", Type: "int", Visibility: codebase.Private, Static: true, Final: true, Class: limits,
			Initializer: &tree.Literal{Value: constant.MakeInt(5), Raw: "5"}},
	}
	limits.Methods = []*codebase.MethodDecl{{Name: "size", ReturnType: "int", Visibility: codebase.Public, Class: limits}}
	rng := &codebase.ClassDecl{QualifiedName: "pkg.Range", Name: "Range", Kind: codebase.KindAnnotation, Visibility: codebase.Public}
	cb.AddClasses(limits, rng)
	return &Env{Resolver: cb, Index: cb, Evaluator: eval.NewFolder(cb)}, cb
}

var pkgScope = &tree.Scope{Package: "pkg"}

// =============================================================================
// Values
// =============================================================================

func TestNewValue_Shapes(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)

	arr := &tree.ArrayInit{Elements: []tree.Node{
		&tree.Literal{Value: constant.MakeInt(1), Raw: "1"},
		&tree.ArrayInit{Raw: "{}"},
	}, Raw: "{1, {}}"}
	v := NewValue(arr, env)
	av, ok := v.(*ArrayValue)
	require.True(t, ok)
	require.Len(t, av.Values(), 2)
	assert.IsType(t, &SingleValue{}, av.Values()[0])
	assert.IsType(t, &ArrayValue{}, av.Values()[1])
	assert.Equal(t, "{1, {}}", av.SourceText())
	assert.Same(t, arr, av.Node())

	single := NewValue(nil, env)
	assert.IsType(t, &SingleValue{}, single)
	assert.Equal(t, "null", single.SourceText())
	assert.Nil(t, single.Node())
}

func TestSingleValue_TypedValue(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)

	lit := NewValue(&tree.Literal{Value: constant.MakeLong(3), Raw: "3L"}, env).(*SingleValue)
	tv := lit.TypedValue()
	assert.Equal(t, FromLiteral, tv.Origin)
	assert.Equal(t, int64(3), tv.Interface())

	sum := &tree.BinaryOp{Op: "+",
		Left:  &tree.Reference{Name: "Limits.MAX", Scope: pkgScope},
		Right: &tree.Literal{Value: constant.MakeInt(1), Raw: "1"},
		Raw:   "Limits.MAX + 1"}
	tv = NewValue(sum, env).(*SingleValue).TypedValue()
	assert.Equal(t, FromEvaluation, tv.Origin)
	assert.Equal(t, int32(11), tv.Interface())

	opaque := NewValue(&tree.Opaque{Raw: "compute()"}, env).(*SingleValue)
	tv = opaque.TypedValue()
	assert.Equal(t, FromSource, tv.Origin)
	assert.Equal(t, "compute()", tv.Interface())

	noEval := NewValue(sum, &Env{}).(*SingleValue)
	assert.Equal(t, FromSource, noEval.TypedValue().Origin)
}

func TestSingleValue_Resolve(t *testing.T) {
	t.Parallel()
	env, cb := newEnv(t)

	field := NewValue(&tree.Reference{Name: "Limits.MAX", Scope: pkgScope}, env).(*SingleValue)
	item := field.Resolve()
	require.NotNil(t, item)
	assert.Equal(t, "pkg.Limits.MAX", item.QualifiedName())
	assert.False(t, item.IsHiddenOrRemoved())

	hidden := NewValue(&tree.Reference{Name: "Limits.HIDDEN", Scope: pkgScope}, env).(*SingleValue)
	item = hidden.Resolve()
	require.NotNil(t, item)
	assert.True(t, item.IsHiddenOrRemoved())

	class := NewValue(&tree.Reference{Name: "Limits", ClassLiteral: true, Scope: pkgScope}, env).(*SingleValue)
	ci, ok := class.Resolve().(*codebase.ClassItem)
	require.True(t, ok)
	want, _ := cb.FindClass("pkg.Limits")
	assert.Same(t, want, ci)

	method := NewValue(&tree.Reference{Name: "Limits.size", Scope: pkgScope}, env).(*SingleValue)
	_, ok = method.Resolve().(*codebase.MethodItem)
	assert.True(t, ok)

	assert.Nil(t, NewValue(&tree.Reference{Name: "Nope.X", Scope: pkgScope}, env).(*SingleValue).Resolve())
	assert.Nil(t, NewValue(&tree.Literal{Value: constant.MakeInt(1)}, env).(*SingleValue).Resolve())
}

// =============================================================================
// Tree items
// =============================================================================

func TestTreeItem_Attributes(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)

	ann := &tree.Annotation{Name: "Range", QualifiedName: "pkg.Range", Attributes: []tree.Attribute{
		{Name: "from", Value: &tree.Literal{Value: constant.MakeInt(0), Raw: "0"}},
		{Name: "to", Value: &tree.Reference{Name: "Limits.MAX", Scope: pkgScope}},
	}}
	item := FromTree(ann, env)

	attrs := item.Attributes()
	require.Len(t, attrs, 2)
	assert.Equal(t, "from", attrs[0].Name)
	assert.Equal(t, "to", attrs[1].Name)
	assert.Equal(t, "Limits.MAX", attrs[1].Value.SourceText())

	again := item.Attributes()
	assert.Same(t, attrs[0].Value, again[0].Value, "attributes are computed once")
	assert.Same(t, ann, item.Tree())
}

func TestTreeItem_QualifiedName(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		ann  *tree.Annotation
		want string
	}{
		{"qualified", &tree.Annotation{Name: "Range", QualifiedName: "pkg.Range"}, "pkg.Range"},
		{"unqualified falls back to written name", &tree.Annotation{Name: "Mystery"}, "Mystery"},
		{"nullability marker without name", &tree.Annotation{Origin: tree.OriginNullabilityMarker}, NonNull},
		{"nullability marker with name", &tree.Annotation{Origin: tree.OriginNullabilityMarker,
			QualifiedName: "org.jspecify.annotations.NonNull"}, "org.jspecify.annotations.NonNull"},
		{"source annotation without name stays empty", &tree.Annotation{}, ""},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, FromTree(tt.ann, nil).QualifiedName())
		})
	}
}

func TestTreeItem_Resolve(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)

	item := FromTree(&tree.Annotation{Name: "Range", QualifiedName: "pkg.Range"}, env)
	c := item.Resolve()
	require.NotNil(t, c)
	assert.Equal(t, "pkg.Range", c.QualifiedName())

	assert.Nil(t, FromTree(&tree.Annotation{Name: "Other", QualifiedName: "pkg.Other"}, env).Resolve())
	assert.Nil(t, FromTree(&tree.Annotation{Name: "Range", QualifiedName: "pkg.Range"}, nil).Resolve())
}

func TestTreeItem_ToSource(t *testing.T) {
	t.Parallel()
	ann := &tree.Annotation{Name: "Range", Raw: "@Range(from = 0)"}
	assert.Equal(t, "@Range(from = 0)", FromTree(ann, nil).ToSource())
}

// =============================================================================
// XML items
// =============================================================================

const externalAnnotations = `<root>
  <item name="pkg.Limits int size()">
    <annotation name="pkg.Range">
      <val name="from" val="0"/>
      <val name="to" val="Limits.MAX"/>
    </annotation>
    <annotation name="androidx.annotation.NonNull"/>
  </item>
  <item name="pkg.Limits MAX">
    <annotation name="androidx.annotation.IntDef">
      <val name="value" val="{1, 2, &quot;a,b&quot;}"/>
    </annotation>
  </item>
</root>`

func TestParseXML(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)

	entries, err := ParseXML(strings.NewReader(externalAnnotations), env)
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "pkg.Limits int size()", entries[0].Target)
	require.Len(t, entries[0].Annotations, 2)
	rng := entries[0].Annotations[0]
	assert.Equal(t, "pkg.Range", rng.QualifiedName())
	assert.Equal(t, "@pkg.Range(from=0, to=Limits.MAX)", rng.ToSource())
	require.NotNil(t, rng.Resolve())

	attrs := rng.Attributes()
	require.Len(t, attrs, 2)
	assert.IsType(t, &tree.Literal{}, attrs[0].Value.Node())
	assert.IsType(t, &tree.Reference{}, attrs[1].Value.Node())
	assert.Same(t, attrs[1].Value, rng.Attributes()[1].Value)

	nn := entries[0].Annotations[1]
	assert.Empty(t, nn.Attributes())
	assert.Equal(t, "@androidx.annotation.NonNull", nn.ToSource())
	assert.Nil(t, nn.Resolve())

	def := entries[1].Annotations[0].Attributes()
	require.Len(t, def, 1)
	arr, ok := def[0].Value.(*ArrayValue)
	require.True(t, ok)
	require.Len(t, arr.Values(), 3)
	assert.Equal(t, `"a,b"`, arr.Values()[2].SourceText())
}

func TestXMLItem_ExpressionParser(t *testing.T) {
	t.Parallel()
	env, _ := newEnv(t)
	var parsed []string
	env.Parser = func(text string) (tree.Node, bool) {
		parsed = append(parsed, text)
		if text == "1 << 3" {
			return &tree.BinaryOp{Op: "<<", Left: &tree.Literal{Value: constant.MakeInt(1), Raw: "1"},
				Right: &tree.Literal{Value: constant.MakeInt(3), Raw: "3"}, Raw: text}, true
		}
		return nil, false
	}

	item := NewXMLItem("pkg.Range", [][2]string{{"from", "1 << 3"}, {"to", "{2, f(x)}"}, {"by", "7"}}, env)
	attrs := item.Attributes()
	require.Len(t, attrs, 3)

	from := attrs[0].Value.(*SingleValue)
	assert.IsType(t, &tree.BinaryOp{}, from.Node())
	tv := from.TypedValue()
	assert.Equal(t, FromEvaluation, tv.Origin)
	assert.True(t, constant.MakeInt(8).Equal(tv.Constant))

	to := attrs[1].Value.(*ArrayValue)
	require.Len(t, to.Values(), 2)
	assert.IsType(t, &tree.Opaque{}, to.Values()[1].Node())

	assert.Equal(t, []string{"1 << 3", "f(x)"}, parsed, "only opaque text reaches the parser")
}

func TestParseXML_Malformed(t *testing.T) {
	t.Parallel()
	_, err := ParseXML(strings.NewReader("<root><item>"), nil)
	require.Error(t, err)
}

func TestParseValueText(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		kind tree.Kind
		want constant.Value
	}{
		{"42", tree.KindLiteral, constant.MakeInt(42)},
		{"0xFFL", tree.KindLiteral, constant.MakeLong(255)},
		{"1.5f", tree.KindLiteral, constant.MakeFloat(1.5)},
		{"2.5", tree.KindLiteral, constant.MakeDouble(2.5)},
		{"true", tree.KindLiteral, constant.MakeBool(true)},
		{`"hi"`, tree.KindLiteral, constant.MakeString("hi")},
		{"'c'", tree.KindLiteral, constant.MakeChar('c')},
		{"pkg.Limits.MAX", tree.KindReference, constant.Value{}},
		{"Limits.class", tree.KindReference, constant.Value{}},
		{"{1, 2}", tree.KindArrayInit, constant.Value{}},
		{"-1", tree.KindOpaque, constant.Value{}},
		{"1 | 2", tree.KindOpaque, constant.Value{}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.in, func(t *testing.T) {
			t.Parallel()
			n := ParseValueText(tt.in)
			require.NotNil(t, n)
			assert.Equal(t, tt.kind, n.Kind())
			assert.Equal(t, tt.in, n.Text())
			if lit, ok := n.(*tree.Literal); ok {
				assert.True(t, tt.want.Equal(lit.Value), "got %s", lit.Value)
			}
			if op, ok := n.(*tree.Opaque); ok {
				assert.True(t, op.Evaluable)
			}
		})
	}

	assert.Nil(t, ParseValueText("null"))
	ref := ParseValueText("Limits.class").(*tree.Reference)
	assert.True(t, ref.ClassLiteral)
	assert.Equal(t, "Limits", ref.Name)
}

func TestSplitTopLevel(t *testing.T) {
	t.Parallel()
	assert.Equal(t, []string{"1", "{2, 3}", `"x, y"`, "f(a, b)"}, splitTopLevel(`1, {2, 3}, "x, y", f(a, b)`))
	assert.Equal(t, []string{"1", "", "3"}, splitTopLevel("1, , 3"))
	assert.Empty(t, splitTopLevel(""))
	assert.Equal(t, []string{"1"}, splitTopLevel("1,"))
}
