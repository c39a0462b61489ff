// Package reflection is the runtime used by code generated by mirror.
//
// Each reflected struct gets a generated TypeDescriptor and each reflected enum
// an EnumInfo. Generated per-project RegisterReflectedTypes functions add them to
// a Registry, which owns them until the matching UnregisterReflectedTypes call.
// Registration order follows inheritance, so a descriptor's parent is always
// registered first.
package reflection

import (
	"fmt"

	"github.com/teranos/mirror/errors"
)

// TypeID identifies a reflected type, derived from its qualified name
type TypeID uint64

// PropertyID identifies a property within its owning type, derived from its name
type PropertyID uint64

func (id TypeID) String() string     { return fmt.Sprintf("0x%016x", uint64(id)) }
func (id PropertyID) String() string { return fmt.Sprintf("0x%016x", uint64(id)) }

// ErrAbstractType is the panic value of New and Construct on abstract types
var ErrAbstractType = errors.New("abstract type cannot be instantiated")

// Unreachable returns the panic value generated code raises when it is asked
// about a property the type does not declare.
func Unreachable(typeName string, id PropertyID) error {
	return errors.AssertionFailedf("%s has no property %s matching the requested operation", typeName, id)
}

// Defaulter is implemented by reflected types that set non-zero defaults.
// The generated descriptor calls SetDefaults once on the default instance and
// in New and Construct.
type Defaulter interface {
	SetDefaults()
}

// CoreKind is the kind of a predeclared Go type
type CoreKind int

const (
	KindInvalid CoreKind = iota
	KindBool
	KindInt
	KindInt8
	KindInt16
	KindInt32
	KindInt64
	KindUint
	KindUint8
	KindUint16
	KindUint32
	KindUint64
	KindUintptr
	KindFloat32
	KindFloat64
	KindComplex64
	KindComplex128
	KindString
)

var coreKindNames = [...]string{
	KindInvalid:    "invalid",
	KindBool:       "bool",
	KindInt:        "int",
	KindInt8:       "int8",
	KindInt16:      "int16",
	KindInt32:      "int32",
	KindInt64:      "int64",
	KindUint:       "uint",
	KindUint8:      "uint8",
	KindUint16:     "uint16",
	KindUint32:     "uint32",
	KindUint64:     "uint64",
	KindUintptr:    "uintptr",
	KindFloat32:    "float32",
	KindFloat64:    "float64",
	KindComplex64:  "complex64",
	KindComplex128: "complex128",
	KindString:     "string",
}

func (k CoreKind) String() string {
	if k < 0 || int(k) >= len(coreKindNames) {
		return coreKindNames[KindInvalid]
	}
	return coreKindNames[k]
}

// CoreKindOf returns the kind of a predeclared type name. byte and rune are
// the aliases of uint8 and int32.
func CoreKindOf(name string) CoreKind {
	switch name {
	case "byte":
		return KindUint8
	case "rune":
		return KindInt32
	}
	for k, n := range coreKindNames {
		if n == name && k != int(KindInvalid) {
			return CoreKind(k)
		}
	}
	return KindInvalid
}

// IsInteger reports whether k is a signed or unsigned integer kind
func (k CoreKind) IsInteger() bool {
	return k >= KindInt && k <= KindUintptr
}
