package reflection

import (
	"sort"
	"sync"

	"github.com/teranos/mirror/errors"
)

// Registry owns the descriptors registered by generated code. A descriptor
// lives from its RegisterType call until the matching UnregisterType.
type Registry struct {
	types     map[TypeID]TypeDescriptor
	order     []TypeID
	enums     map[TypeID]*EnumInfo
	resources map[TypeID]*ResourceTypeInfo
	mu        sync.RWMutex
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{
		types:     make(map[TypeID]TypeDescriptor),
		enums:     make(map[TypeID]*EnumInfo),
		resources: make(map[TypeID]*ResourceTypeInfo),
	}
}

// RegisterType adds a descriptor. Its parent must already be registered.
func (r *Registry) RegisterType(d TypeDescriptor) error {
	info := d.Info()

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.types[info.ID]; exists {
		return errors.Newf("type %s already registered", info.Name)
	}
	if info.ParentID != 0 {
		if _, ok := r.types[info.ParentID]; !ok || info.Parent == nil {
			return errors.Newf("type %s registered before its parent %s", info.Name, info.ParentID)
		}
	}
	r.types[info.ID] = d
	r.order = append(r.order, info.ID)
	return nil
}

// UnregisterType removes a descriptor. Unknown IDs are ignored.
func (r *Registry) UnregisterType(id TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.types[id]; !ok {
		return
	}
	delete(r.types, id)
	for i, other := range r.order {
		if other == id {
			r.order = append(r.order[:i], r.order[i+1:]...)
			break
		}
	}
}

// Descriptor returns the descriptor registered for id
func (r *Registry) Descriptor(id TypeID) (TypeDescriptor, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	d, ok := r.types[id]
	return d, ok
}

// MustDescriptor returns the descriptor registered for id and panics when
// there is none. Generated code uses it for nested types, which registration
// order guarantees are present.
func (r *Registry) MustDescriptor(id TypeID) TypeDescriptor {
	d, ok := r.Descriptor(id)
	if !ok {
		panic(errors.AssertionFailedf("no descriptor registered for type %s", id))
	}
	return d
}

// Types returns the registered descriptors in registration order
func (r *Registry) Types() []TypeDescriptor {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]TypeDescriptor, 0, len(r.order))
	for _, id := range r.order {
		out = append(out, r.types[id])
	}
	return out
}

// DerivedTypes returns the registered types deriving from id, id excluded
func (r *Registry) DerivedTypes(id TypeID) []TypeDescriptor {
	var out []TypeDescriptor
	for _, d := range r.Types() {
		if info := d.Info(); info.ID != id && info.IsA(id) {
			out = append(out, d)
		}
	}
	return out
}

// RegisterEnum adds an enum description
func (r *Registry) RegisterEnum(e *EnumInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.enums[e.ID]; exists {
		return errors.Newf("enum %s already registered", e.Name)
	}
	r.enums[e.ID] = e
	return nil
}

// UnregisterEnum removes an enum description. Unknown IDs are ignored.
func (r *Registry) UnregisterEnum(id TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.enums, id)
}

// Enum returns the enum registered for id
func (r *Registry) Enum(id TypeID) (*EnumInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	e, ok := r.enums[id]
	return e, ok
}

// RegisterResourceType adds a resource type. Codes are unique.
func (r *Registry) RegisterResourceType(info *ResourceTypeInfo) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.resources[info.TypeID]; exists {
		return errors.Newf("resource type %s already registered", info.FriendlyName)
	}
	for _, other := range r.resources {
		if other.Code == info.Code {
			return errors.Newf("resource code %s used by %s and %s", info.Code, other.FriendlyName, info.FriendlyName)
		}
	}
	r.resources[info.TypeID] = info
	return nil
}

// UnregisterResourceType removes a resource type and unlinks its children
func (r *Registry) UnregisterResourceType(id TypeID) {
	r.mu.Lock()
	defer r.mu.Unlock()

	removed, ok := r.resources[id]
	if !ok {
		return
	}
	delete(r.resources, id)
	for _, other := range r.resources {
		if other.Parent == removed {
			other.Parent = nil
		}
	}
}

// LinkResourceType sets the parent of a registered resource type
func (r *Registry) LinkResourceType(child, parent TypeID) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	c, ok := r.resources[child]
	if !ok {
		return errors.Newf("resource type %s is not registered", child)
	}
	p, ok := r.resources[parent]
	if !ok {
		return errors.Newf("parent %s of resource type %s is not registered", parent, c.FriendlyName)
	}
	c.Parent = p
	return nil
}

// ResourceType returns the resource type registered for id
func (r *Registry) ResourceType(id TypeID) (*ResourceTypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	info, ok := r.resources[id]
	return info, ok
}

// ResourceTypeByCode returns the resource type with the given code
func (r *Registry) ResourceTypeByCode(code string) (*ResourceTypeInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, info := range r.resources {
		if info.Code == code {
			return info, true
		}
	}
	return nil, false
}

// ResourceTypes returns the registered resource types sorted by code
func (r *Registry) ResourceTypes() []*ResourceTypeInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]*ResourceTypeInfo, 0, len(r.resources))
	for _, info := range r.resources {
		out = append(out, info)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Code < out[j].Code })
	return out
}

// Len returns the number of registered types, enums and resource types
func (r *Registry) Len() (types, enums, resources int) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.types), len(r.enums), len(r.resources)
}
