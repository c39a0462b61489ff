package generator

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/dave/jennifer/jen"

	"github.com/teranos/mirror/metadata"
)

func upperFirst(s string) string {
	r, size := utf8.DecodeRuneInString(s)
	if r == utf8.RuneError {
		return s
	}
	return string(unicode.ToUpper(r)) + s[size:]
}

// The package-level identifiers of a generated file are built from type and
// property names joined by '_'. An underscore inside a name is written as
// "_0"; no identifier starts with a digit, so the mapping is injective and
// two distinct (type, property) pairs never produce the same identifier.
func escapeName(name string) string {
	return strings.ReplaceAll(name, "_", "_0")
}

func typeIDName(t *metadata.ReflectedType) string     { return "typeID_" + escapeName(t.Name) }
func descriptorName(t *metadata.ReflectedType) string { return "descriptor_" + escapeName(t.Name) }
func defaultsName(t *metadata.ReflectedType) string   { return "defaults_" + escapeName(t.Name) }

func propertyIDName(t *metadata.ReflectedType, p *metadata.ReflectedProperty) string {
	return "propID_" + escapeName(t.Name) + "_" + escapeName(p.Name)
}

func newDescriptorName(t *metadata.ReflectedType) string   { return "new" + t.Name + "Descriptor" }
func newEnumInfoName(t *metadata.ReflectedType) string     { return "new" + t.Name + "EnumInfo" }
func newResourceTypeInfoName(t *metadata.ReflectedType) string {
	return "new" + t.Name + "ResourceTypeInfo"
}

// hexID renders an ID as an untyped hexadecimal constant
func hexID[T ~uint64](id T) *jen.Statement {
	return jen.Id(fmt.Sprintf("0x%016x", uint64(id)))
}

// coreKindName returns the reflection.CoreKind constant for a predeclared integer type
func coreKindName(underlying string) string {
	switch underlying {
	case "byte":
		underlying = "uint8"
	case "rune":
		underlying = "int32"
	}
	return "Kind" + upperFirst(underlying)
}

// typeCode renders a type named by a predeclared or qualified name
func typeCode(name string) *jen.Statement {
	ns, local := metadata.SplitQualifiedName(name)
	if ns == "" {
		return jen.Id(local)
	}
	return jen.Qual(ns, local)
}
