package reflection

// ResourceID identifies a loadable resource
type ResourceID uint64

// Requester identifies who asked for a resource. The resource system keeps
// one reference per requester.
type Requester uint64

// ResourcePtr references a resource of any type
type ResourcePtr struct {
	ID     ResourceID
	TypeID TypeID // resource type, 0 when unknown
}

// NewResourcePtr references the resource id of type typeID
func NewResourcePtr(id ResourceID, typeID TypeID) ResourcePtr {
	return ResourcePtr{ID: id, TypeID: typeID}
}

// IsSet reports whether the pointer references a resource
func (p ResourcePtr) IsSet() bool {
	return p.ID != 0
}

// Ptr returns the untyped pointer
func (p ResourcePtr) Ptr() ResourcePtr {
	return p
}

// TypedResourcePtr references a resource whose type is T
type TypedResourcePtr[T any] struct {
	ResourcePtr
}

// LoadingStatus is the loading state of a resource or of everything a value references
type LoadingStatus int

const (
	StatusUnloaded LoadingStatus = iota
	StatusLoading
	StatusLoaded
	StatusUnloading
	StatusFailed
)

func (s LoadingStatus) String() string {
	switch s {
	case StatusUnloaded:
		return "unloaded"
	case StatusLoading:
		return "loading"
	case StatusLoaded:
		return "loaded"
	case StatusUnloading:
		return "unloading"
	case StatusFailed:
		return "failed"
	default:
		return "unknown"
	}
}

// Combine folds the status of one more resource into an aggregate loading
// status. Outstanding work wins over failure, failure wins over completion.
func (s LoadingStatus) Combine(other LoadingStatus) LoadingStatus {
	rank := func(st LoadingStatus) int {
		switch st {
		case StatusLoading, StatusUnloading:
			return 2
		case StatusFailed:
			return 1
		default:
			return 0
		}
	}
	if rank(other) > rank(s) {
		return other
	}
	return s
}

// ResourceSystem loads and unloads resources on behalf of requesters
type ResourceSystem interface {
	LoadResource(ptr ResourcePtr, requester Requester)
	UnloadResource(ptr ResourcePtr, requester Requester)
	LoadingStatus(ptr ResourcePtr) LoadingStatus
	UnloadingStatus(ptr ResourcePtr) LoadingStatus
}

// ResourceTypeInfo describes a reflected type that can be loaded as a resource
type ResourceTypeInfo struct {
	TypeID       TypeID
	Code         string
	FriendlyName string
	ParentTypeID TypeID
	DevOnly      bool

	// Parent is linked by the solution's resource type registration
	Parent *ResourceTypeInfo
}

// IsA reports whether the resource type is id or derives from it
func (r *ResourceTypeInfo) IsA(id TypeID) bool {
	for cur := r; cur != nil; cur = cur.Parent {
		if cur.TypeID == id {
			return true
		}
	}
	return false
}
