package reflection

import (
	"unsafe"
)

// EnumConstant is one named value of a reflected enum
type EnumConstant struct {
	Label       string
	Identifier  string
	Value       int64
	Description string

	// AlphabeticalRank is the position of Label in case-sensitive alphabetical
	// order, ties broken by declaration order
	AlphabeticalRank int
}

// EnumInfo is the generated description of a reflected enum
type EnumInfo struct {
	ID          TypeID
	Name        string // qualified name
	Size        uintptr
	Align       uintptr
	Kind        CoreKind
	DevOnly     bool
	Description string

	// Constants in declaration order
	Constants []EnumConstant
}

// Constant returns the first constant with value v
func (e *EnumInfo) Constant(v int64) (*EnumConstant, bool) {
	for i := range e.Constants {
		if e.Constants[i].Value == v {
			return &e.Constants[i], true
		}
	}
	return nil, false
}

// Label returns the label of value v, or "" when no constant has it
func (e *EnumInfo) Label(v int64) string {
	if c, ok := e.Constant(v); ok {
		return c.Label
	}
	return ""
}

// Alphabetical returns the constants ordered by AlphabeticalRank
func (e *EnumInfo) Alphabetical() []EnumConstant {
	out := make([]EnumConstant, len(e.Constants))
	for _, c := range e.Constants {
		if c.AlphabeticalRank >= 0 && c.AlphabeticalRank < len(out) {
			out[c.AlphabeticalRank] = c
		}
	}
	return out
}

// Read returns the value stored at p, an enum of e's width
func (e *EnumInfo) Read(p unsafe.Pointer) int64 {
	switch e.Kind {
	case KindInt8:
		return int64(*(*int8)(p))
	case KindUint8:
		return int64(*(*uint8)(p))
	case KindInt16:
		return int64(*(*int16)(p))
	case KindUint16:
		return int64(*(*uint16)(p))
	case KindInt32:
		return int64(*(*int32)(p))
	case KindUint32:
		return int64(*(*uint32)(p))
	case KindInt, KindInt64:
		if e.Size == 4 {
			return int64(*(*int32)(p))
		}
		return *(*int64)(p)
	default:
		if e.Size == 4 {
			return int64(*(*uint32)(p))
		}
		return int64(*(*uint64)(p))
	}
}
