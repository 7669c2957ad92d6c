package codebase

import (
	"math"

	"github.com/jward/canon/internal/constant"
	"github.com/jward/canon/internal/tree"
)

// Builtins returns declarations for the platform types that annotations
// commonly reference: the java.lang annotation types, the meta-annotations
// and their enums, and the boxed-primitive range constants. They are public,
// so references to them stay symbolic.
func Builtins() []*ClassDecl {
	var decls []*ClassDecl

	for _, name := range []string{"Override", "Deprecated", "SuppressWarnings", "SafeVarargs", "FunctionalInterface"} {
		decls = append(decls, builtinClass("java.lang", name, KindAnnotation))
	}
	for _, name := range []string{"Documented", "Inherited", "Repeatable", "Retention", "Target", "Native"} {
		decls = append(decls, builtinClass("java.lang.annotation", name, KindAnnotation))
	}
	decls = append(decls,
		builtinEnum("java.lang.annotation", "RetentionPolicy", "SOURCE", "CLASS", "RUNTIME"),
		builtinEnum("java.lang.annotation", "ElementType",
			"TYPE", "FIELD", "METHOD", "PARAMETER", "CONSTRUCTOR", "LOCAL_VARIABLE",
			"ANNOTATION_TYPE", "PACKAGE", "TYPE_PARAMETER", "TYPE_USE", "MODULE", "RECORD_COMPONENT"),
	)

	decls = append(decls,
		builtinConstants("Byte",
			"MIN_VALUE", constant.MakeByte(math.MinInt8),
			"MAX_VALUE", constant.MakeByte(math.MaxInt8)),
		builtinConstants("Short",
			"MIN_VALUE", constant.MakeShort(math.MinInt16),
			"MAX_VALUE", constant.MakeShort(math.MaxInt16)),
		builtinConstants("Integer",
			"MIN_VALUE", constant.MakeInt(math.MinInt32),
			"MAX_VALUE", constant.MakeInt(math.MaxInt32),
			"SIZE", constant.MakeInt(32)),
		builtinConstants("Long",
			"MIN_VALUE", constant.MakeLong(math.MinInt64),
			"MAX_VALUE", constant.MakeLong(math.MaxInt64),
			"SIZE", constant.MakeInt(64)),
		builtinConstants("Character",
			"MIN_VALUE", constant.MakeChar(0),
			"MAX_VALUE", constant.MakeChar(0xffff)),
		builtinConstants("Float",
			"MIN_VALUE", constant.MakeFloat(math.SmallestNonzeroFloat32),
			"MAX_VALUE", constant.MakeFloat(math.MaxFloat32),
			"NaN", constant.MakeFloat(float32(math.NaN())),
			"POSITIVE_INFINITY", constant.MakeFloat(float32(math.Inf(1))),
			"NEGATIVE_INFINITY", constant.MakeFloat(float32(math.Inf(-1)))),
		builtinConstants("Double",
			"MIN_VALUE", constant.MakeDouble(math.SmallestNonzeroFloat64),
			"MAX_VALUE", constant.MakeDouble(math.MaxFloat64),
			"NaN", constant.MakeDouble(math.NaN()),
			"POSITIVE_INFINITY", constant.MakeDouble(math.Inf(1)),
			"NEGATIVE_INFINITY", constant.MakeDouble(math.Inf(-1))),
	)
	return decls
}

func builtinClass(pkg, name, kind string) *ClassDecl {
	return &ClassDecl{
		QualifiedName: pkg + "." + name,
		Name:          name,
		Kind:          kind,
		Visibility:    Public,
		Scope:         &tree.Scope{Package: pkg},
	}
}

func builtinEnum(pkg, name string, constants ...string) *ClassDecl {
	c := builtinClass(pkg, name, KindEnum)
	for _, k := range constants {
		c.Fields = append(c.Fields, &FieldDecl{
			Name:         k,
			Type:         name,
			Visibility:   Public,
			Static:       true,
			Final:        true,
			EnumConstant: true,
			Class:        c,
		})
	}
	return c
}

// builtinConstants declares a java.lang class with public static final
// fields; kv alternates field names and values.
func builtinConstants(name string, kv ...any) *ClassDecl {
	c := builtinClass("java.lang", name, KindClass)
	for i := 0; i+1 < len(kv); i += 2 {
		v := kv[i+1].(constant.Value)
		c.Fields = append(c.Fields, &FieldDecl{
			Name:        kv[i].(string),
			Type:        v.Kind().String(),
			Visibility:  Public,
			Static:      true,
			Final:       true,
			Class:       c,
			Initializer: &tree.Literal{Value: v},
		})
	}
	return c
}
