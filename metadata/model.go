// Package metadata holds the records describing reflected types, the headers
// that declare them and the projects that own those headers.
//
// Records are created by the parser, kept across runs in a SQLite store and
// read by the generator. The store also decides which headers are dirty.
package metadata

import (
	"path"
	"strings"
	"time"
)

// ArrayKind describes whether a property is a single value or an array
type ArrayKind int

const (
	ArrayNone    ArrayKind = iota // scalar field
	ArrayFixed                    // [N]T
	ArrayDynamic                  // []T
)

func (k ArrayKind) String() string {
	switch k {
	case ArrayFixed:
		return "fixed"
	case ArrayDynamic:
		return "dynamic"
	default:
		return "none"
	}
}

// PropertyKind classifies the element type of a property
type PropertyKind int

const (
	// KindCore is a predeclared type or a named type with a predeclared underlying type
	KindCore PropertyKind = iota
	// KindNamed is a named type that still has to be resolved against the store
	KindNamed
	// KindEnum is a reflected enum
	KindEnum
	// KindStruct is a reflected struct, compared and traversed through its own descriptor
	KindStruct
	// KindResource is a resource reference (reflection.ResourcePtr or TypedResourcePtr[T])
	KindResource
)

func (k PropertyKind) String() string {
	switch k {
	case KindCore:
		return "core"
	case KindNamed:
		return "named"
	case KindEnum:
		return "enum"
	case KindStruct:
		return "struct"
	case KindResource:
		return "resource"
	default:
		return "unknown"
	}
}

// ReflectedProperty is one reflected struct field.
type ReflectedProperty struct {
	ID   PropertyID
	Name string

	// TypeName is the element type: a predeclared name ("float32") or a
	// qualified name ("github.com/x/game.Color").
	TypeName string

	// TemplateArgTypeName is the qualified type argument of a generic container,
	// e.g. the T of reflection.TypedResourcePtr[T].
	TemplateArgTypeName string

	Kind PropertyKind

	// BasicUnderlying is set when a named element type has a predeclared underlying type
	BasicUnderlying bool

	ArrayKind ArrayKind
	ArraySize int

	// Offset is the byte offset within the owning type as computed by go/types
	// for the host architecture; 0 when the layout could not be computed.
	Offset int64

	IsDevOnly                 bool
	IsToolsReadOnly           bool
	IsExposedForVisualization bool

	Description string
}

// IsArray reports whether the property is a fixed or dynamic array
func (p *ReflectedProperty) IsArray() bool {
	return p.ArrayKind != ArrayNone
}

// IsDynamicArray reports whether the property is a slice
func (p *ReflectedProperty) IsDynamicArray() bool {
	return p.ArrayKind == ArrayDynamic
}

// EnumConstant is one named value of a reflected enum, in declaration order.
type EnumConstant struct {
	Identifier  string // Go identifier, e.g. ColorRed
	Label       string // display label, e.g. Red
	Value       int64
	Description string
}

// ReflectedType describes one reflected struct or enum.
type ReflectedType struct {
	ID       TypeID
	ParentID TypeID // 0 for root types and enums

	Namespace   string // Go import path
	Name        string
	PackageName string
	HeaderID    HeaderID

	IsEnum            bool
	IsDevOnly         bool
	IsAbstract        bool
	IsEntityComponent bool

	// ParentField is the name of the embedded field holding the parent
	ParentField string

	Properties []ReflectedProperty

	// Enum only
	UnderlyingKind string
	Constants      []EnumConstant

	Description string
}

// QualifiedName returns importpath.Name
func (t *ReflectedType) QualifiedName() string {
	return QualifiedName(t.Namespace, t.Name)
}

// HasParent reports whether the type derives from another reflected type
func (t *ReflectedType) HasParent() bool {
	return t.ParentID != 0
}

// Property returns the declared property with id, or nil
func (t *ReflectedType) Property(id PropertyID) *ReflectedProperty {
	for i := range t.Properties {
		if t.Properties[i].ID == id {
			return &t.Properties[i]
		}
	}
	return nil
}

// ArrayProperties returns the declared array properties in declaration order
func (t *ReflectedType) ArrayProperties() []*ReflectedProperty {
	var out []*ReflectedProperty
	for i := range t.Properties {
		if t.Properties[i].IsArray() {
			out = append(out, &t.Properties[i])
		}
	}
	return out
}

// HeaderInfo is one source file of a project.
type HeaderInfo struct {
	ID          HeaderID
	Path        string // slash-separated, relative to the solution root
	ProjectID   ProjectID
	PackageName string
	ModTime     time.Time
	Checksum    string
	IsDevOnly   bool
	TypeIDs     []TypeID // declaration order
}

// GeneratedSuffix is appended to a header's base name to form its descriptor file name
const GeneratedSuffix = "_mirror.go"

// Per-project and per-solution artifact names
const (
	ModuleFileName             = "zz_mirror_module.go"
	ModuleDevToolsFileName     = "zz_mirror_module_devtools.go"
	ComponentsFileName         = "zz_mirror_components.go"
	ComponentsDevToolsFileName = "zz_mirror_components_devtools.go"
	SolutionFileName           = "mirror_solution.go"
	SolutionDevToolsFileName   = "mirror_solution_devtools.go"
)

// GeneratedPath returns the descriptor file path for a header path
func GeneratedPath(headerPath string) string {
	return strings.TrimSuffix(headerPath, ".go") + GeneratedSuffix
}

// IsGeneratedFile reports whether name is an artifact written by mirror
func IsGeneratedFile(name string) bool {
	base := path.Base(strings.ReplaceAll(name, "\\", "/"))
	return strings.HasSuffix(base, GeneratedSuffix) ||
		strings.HasPrefix(base, "zz_mirror_") ||
		base == SolutionFileName ||
		base == SolutionDevToolsFileName
}

// ProjectInfo is one project (Go package) of the solution.
type ProjectInfo struct {
	ID             ProjectID
	Name           string
	Path           string // slash-separated, relative to the solution root
	ImportPath     string
	PackageName    string
	ModuleHeaderID HeaderID // 0 when the project has no module file
	DependencyIDs  []ProjectID
	DependencyRank int
	IsToolsOnly    bool
	DeclaresModule bool
}

// HasModule reports whether the project exposes register/unregister entry points
func (p *ProjectInfo) HasModule() bool {
	return p.ModuleHeaderID != 0
}

// ResourceTypeInfo describes a reflected type that is also a loadable resource type.
type ResourceTypeInfo struct {
	TypeID       TypeID
	Code         string // up to four upper-case characters, e.g. "MESH"
	FriendlyName string
	ParentTypeID TypeID // declared parent resource type, 0 for none
	IsDevOnly    bool
}

// SolutionInfo describes the parsed solution descriptor.
type SolutionInfo struct {
	Path          string // descriptor file
	Root          string // absolute root directory
	ModuleRoot    string // directory holding go.mod, Root or one of its parents
	ModulePath    string
	Projects      []*ProjectInfo
	ExcludedPaths []string
}
