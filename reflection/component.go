package reflection

import (
	"unsafe"
)

// EntityComponent is embedded by the root of every reflected component.
// Generated BeginResourceLoad, BeginResourceUnload and
// UpdateResourceLoadingStatus methods drive its loading status.
type EntityComponent struct {
	status LoadingStatus
}

// LoadingStatus returns the component's resource loading status
func (c *EntityComponent) LoadingStatus() LoadingStatus {
	return c.status
}

// SetLoadingStatus is called by generated lifecycle methods
func (c *EntityComponent) SetLoadingStatus(s LoadingStatus) {
	c.status = s
}

// Requester identifies the component towards the resource system
func (c *EntityComponent) Requester() Requester {
	return Requester(uintptr(unsafe.Pointer(c)))
}

// Component is implemented by every generated component type
type Component interface {
	LoadingStatus() LoadingStatus
	BeginResourceLoad(r *Registry, rs ResourceSystem)
	BeginResourceUnload(r *Registry, rs ResourceSystem)
	UpdateResourceLoadingStatus(r *Registry, rs ResourceSystem)
}
