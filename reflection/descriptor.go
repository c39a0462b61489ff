package reflection

import (
	"unsafe"
)

// ArrayKind tells whether a property holds one value, a fixed array or a slice
type ArrayKind int

const (
	ArrayNone ArrayKind = iota
	ArrayFixed
	ArrayDynamic
)

// PropertyFlags are the tool-facing flags of a property
type PropertyFlags uint8

const (
	// PropertyDevOnly marks a property present only in devtools builds
	PropertyDevOnly PropertyFlags = 1 << iota
	// PropertyReadOnly marks a property tools show but do not edit
	PropertyReadOnly
	// PropertyVisualize marks a property exposed to debug visualization
	PropertyVisualize
)

// Has reports whether every flag of f2 is set in f
func (f PropertyFlags) Has(f2 PropertyFlags) bool {
	return f&f2 == f2
}

// PropertyInfo describes one reflected field
type PropertyInfo struct {
	ID       PropertyID
	Name     string
	TypeName string // element type, qualified for named types
	TypeID   TypeID // element type ID for reflected enums and structs, 0 otherwise

	Offset    uintptr
	Size      uintptr
	ArrayKind ArrayKind
	ArraySize int

	// Default points at the field in the type's default instance; nil for abstract types
	Default unsafe.Pointer

	Flags       PropertyFlags
	Description string
}

// TypeInfo is the static description of a reflected struct
type TypeInfo struct {
	ID       TypeID
	Name     string // qualified name
	ParentID TypeID
	Parent   TypeDescriptor // nil for root types

	Size  uintptr
	Align uintptr

	Abstract        bool
	EntityComponent bool
	DevOnly         bool

	// Properties declared by the type itself, parent properties excluded
	Properties  []PropertyInfo
	Description string
}

// Property returns the property with id declared by the type or one of its parents
func (t *TypeInfo) Property(id PropertyID) (*PropertyInfo, TypeDescriptor, bool) {
	for i := range t.Properties {
		if t.Properties[i].ID == id {
			return &t.Properties[i], nil, true
		}
	}
	if t.Parent == nil {
		return nil, nil, false
	}
	p, owner, ok := t.Parent.Info().Property(id)
	if ok && owner == nil {
		owner = t.Parent
	}
	return p, owner, ok
}

// IsA reports whether the type is id or derives from it
func (t *TypeInfo) IsA(id TypeID) bool {
	for cur := t; cur != nil; {
		if cur.ID == id {
			return true
		}
		if cur.Parent == nil {
			return false
		}
		cur = cur.Parent.Info()
	}
	return false
}

// TypeDescriptor is the generated capability set of one reflected struct.
//
// Instances are passed as pointers to the reflected type (or to a type embedding
// it, through the embedded field). Property operations cover the properties the
// type declares itself; they panic with Unreachable for any other ID. Array
// mutations apply to slice properties only.
type TypeDescriptor interface {
	Info() *TypeInfo

	// New allocates an instance with defaults applied
	New() any
	// Construct resets target to the type's defaults
	Construct(target any)

	Equal(a, b any) bool
	// PropertyEqual compares one property; index >= 0 compares a single array element
	PropertyEqual(a, b any, id PropertyID, index int) bool
	ResetProperty(target any, id PropertyID)

	ArrayElement(target any, id PropertyID, index int) any
	ArrayLen(target any, id PropertyID) int
	ArrayElementSize(id PropertyID) uintptr
	ArrayClear(target any, id PropertyID)
	ArrayAppend(target any, id PropertyID) any
	ArrayInsert(target any, id PropertyID, index int) any
	ArrayMove(target any, id PropertyID, from, to int)
	ArrayRemove(target any, id PropertyID, index int)

	LoadResources(target any, rs ResourceSystem, requester Requester)
	UnloadResources(target any, rs ResourceSystem, requester Requester)
	ResourceLoadingStatus(target any, rs ResourceSystem) LoadingStatus
	ResourceUnloadingStatus(target any, rs ResourceSystem) LoadingStatus
	ReferencedResources(target any, out []ResourcePtr) []ResourcePtr
}

// NoResources is embedded by descriptors of types that reference no resources
type NoResources struct{}

func (NoResources) LoadResources(any, ResourceSystem, Requester)   {}
func (NoResources) UnloadResources(any, ResourceSystem, Requester) {}

func (NoResources) ResourceLoadingStatus(any, ResourceSystem) LoadingStatus {
	return StatusLoaded
}

func (NoResources) ResourceUnloadingStatus(any, ResourceSystem) LoadingStatus {
	return StatusUnloaded
}

func (NoResources) ReferencedResources(_ any, out []ResourcePtr) []ResourcePtr {
	return out
}

// MoveElement moves s[from] to index to, shifting the elements in between
func MoveElement[S ~[]E, E any](s S, from, to int) {
	if from == to {
		return
	}
	e := s[from]
	if from < to {
		copy(s[from:to], s[from+1:to+1])
	} else {
		copy(s[to+1:from+1], s[to:from])
	}
	s[to] = e
}
