package metadata

import (
	"fmt"
	"path"
	"path/filepath"

	"github.com/cespare/xxhash/v2"
)

// TypeID identifies a reflected type. It is stable across runs and machines
// because it is derived from the fully-qualified type name.
type TypeID uint64

// PropertyID identifies a property within its owning type.
type PropertyID uint64

// HeaderID identifies a source file by its path relative to the solution root.
type HeaderID uint64

// ProjectID identifies a project by name.
type ProjectID uint64

// NewTypeID derives the ID of namespace.name (namespace is the Go import path).
func NewTypeID(namespace, name string) TypeID {
	return TypeID(xxhash.Sum64String(QualifiedName(namespace, name)))
}

// NewCoreTypeID derives the ID of a predeclared type such as "float32".
func NewCoreTypeID(name string) TypeID {
	return TypeID(xxhash.Sum64String(name))
}

// NewPropertyID derives a property ID from its declared field name.
func NewPropertyID(name string) PropertyID {
	return PropertyID(xxhash.Sum64String(name))
}

// NewHeaderID derives a header ID from a path relative to the solution root.
func NewHeaderID(relPath string) HeaderID {
	return HeaderID(xxhash.Sum64String(filepath.ToSlash(relPath)))
}

// NewProjectID derives a project ID from the project name.
func NewProjectID(name string) ProjectID {
	return ProjectID(xxhash.Sum64String(name))
}

// QualifiedName joins an import path and a type name the way IDs and generated code spell it.
func QualifiedName(namespace, name string) string {
	if namespace == "" {
		return name
	}
	return namespace + "." + name
}

// SplitQualifiedName splits "github.com/x/y.Name" into import path and name.
func SplitQualifiedName(qualified string) (namespace, name string) {
	dir, base := path.Split(qualified)
	for i := len(base) - 1; i >= 0; i-- {
		if base[i] == '.' {
			return dir + base[:i], base[i+1:]
		}
	}
	return "", qualified
}

func (id TypeID) String() string     { return fmt.Sprintf("0x%016x", uint64(id)) }
func (id PropertyID) String() string { return fmt.Sprintf("0x%016x", uint64(id)) }
func (id HeaderID) String() string   { return fmt.Sprintf("0x%016x", uint64(id)) }
func (id ProjectID) String() string  { return fmt.Sprintf("0x%016x", uint64(id)) }
