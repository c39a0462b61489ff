package metadata

import (
	"sort"

	"github.com/teranos/mirror/depsort"
	"github.com/teranos/mirror/errors"
)

// Store is the in-memory record set of one build.
//
// It is loaded from the persisted SQLite file at the start of a run, mutated by
// the dirty check and the parser, and saved back once the run succeeds.
// A Store is used by one goroutine at a time.
type Store struct {
	headers   map[HeaderID]*HeaderInfo
	types     map[TypeID]*ReflectedType
	projects  map[ProjectID]*ProjectInfo
	resources map[TypeID]*ResourceTypeInfo

	// GeneratorVersion is the generator that produced the recorded artifacts
	GeneratorVersion string
	// LastRunID identifies the last successful run
	LastRunID string
	// DiscardedVersion is set by Load when the recorded store was written by an
	// incompatible generator and therefore dropped
	DiscardedVersion string
}

// NewStore creates an empty store
func NewStore() *Store {
	return &Store{
		headers:   make(map[HeaderID]*HeaderInfo),
		types:     make(map[TypeID]*ReflectedType),
		projects:  make(map[ProjectID]*ProjectInfo),
		resources: make(map[TypeID]*ResourceTypeInfo),
	}
}

// Reset drops every record
func (s *Store) Reset() {
	*s = *NewStore()
}

// AddHeader inserts or replaces a header record. The header keeps the types it
// already owned unless h lists its own.
func (s *Store) AddHeader(h *HeaderInfo) {
	if existing, ok := s.headers[h.ID]; ok && h.TypeIDs == nil {
		h.TypeIDs = existing.TypeIDs
	}
	s.headers[h.ID] = h
}

// Header returns the header record for id
func (s *Store) Header(id HeaderID) (*HeaderInfo, bool) {
	h, ok := s.headers[id]
	return h, ok
}

// Headers returns all header records sorted by path
func (s *Store) Headers() []*HeaderInfo {
	out := make([]*HeaderInfo, 0, len(s.headers))
	for _, h := range s.headers {
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}

// HeadersForProject returns the headers owned by a project sorted by path
func (s *Store) HeadersForProject(id ProjectID) []*HeaderInfo {
	var out []*HeaderInfo
	for _, h := range s.Headers() {
		if h.ProjectID == id {
			out = append(out, h)
		}
	}
	return out
}

// AddType inserts a type and records it on its header.
// The header must already exist; a duplicate type ID is an error.
func (s *Store) AddType(t *ReflectedType) error {
	h, ok := s.headers[t.HeaderID]
	if !ok {
		return errors.Newf("type %s references unknown header %s", t.QualifiedName(), t.HeaderID)
	}
	if existing, ok := s.types[t.ID]; ok {
		return errors.Newf("duplicate type ID %s: %s and %s", t.ID, existing.QualifiedName(), t.QualifiedName())
	}
	s.types[t.ID] = t
	h.TypeIDs = append(h.TypeIDs, t.ID)
	return nil
}

// Type returns the type record for id
func (s *Store) Type(id TypeID) (*ReflectedType, bool) {
	t, ok := s.types[id]
	return t, ok
}

// TypeByName returns the type with the given qualified name
func (s *Store) TypeByName(qualified string) (*ReflectedType, bool) {
	ns, name := SplitQualifiedName(qualified)
	return s.Type(NewTypeID(ns, name))
}

// TypeCount returns the number of type records
func (s *Store) TypeCount() int {
	return len(s.types)
}

// TypesForHeader returns the types declared in a header in declaration order
func (s *Store) TypesForHeader(id HeaderID) []*ReflectedType {
	h, ok := s.headers[id]
	if !ok {
		return nil
	}
	out := make([]*ReflectedType, 0, len(h.TypeIDs))
	for _, tid := range h.TypeIDs {
		if t, ok := s.types[tid]; ok {
			out = append(out, t)
		}
	}
	return out
}

// TypesForProject returns every type owned by the project's headers,
// ordered by header path then declaration order
func (s *Store) TypesForProject(id ProjectID) []*ReflectedType {
	var out []*ReflectedType
	for _, h := range s.HeadersForProject(id) {
		out = append(out, s.TypesForHeader(h.ID)...)
	}
	return out
}

// DeleteHeaderTypes removes every type owned by the header, together with their
// resource records. The header record itself stays.
func (s *Store) DeleteHeaderTypes(id HeaderID) {
	h, ok := s.headers[id]
	if !ok {
		return
	}
	for _, tid := range h.TypeIDs {
		delete(s.types, tid)
		delete(s.resources, tid)
	}
	h.TypeIDs = nil
}

// DeleteHeader removes the header and every type it owns
func (s *Store) DeleteHeader(id HeaderID) {
	s.DeleteHeaderTypes(id)
	delete(s.headers, id)
}

// AddProject inserts or replaces a project record
func (s *Store) AddProject(p *ProjectInfo) {
	s.projects[p.ID] = p
}

// Project returns the project record for id
func (s *Store) Project(id ProjectID) (*ProjectInfo, bool) {
	p, ok := s.projects[id]
	return p, ok
}

// Projects returns all projects sorted by name
func (s *Store) Projects() []*ProjectInfo {
	out := make([]*ProjectInfo, 0, len(s.projects))
	for _, p := range s.projects {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

// ResetProjects drops all project records so they can be rebuilt from discovery
func (s *Store) ResetProjects() {
	s.projects = make(map[ProjectID]*ProjectInfo)
}

// RankProjects sorts the projects by dependency and assigns each its rank.
// A dependency cycle is reported as ErrCyclicDependency naming the projects involved.
func (s *Store) RankProjects() error {
	projects := s.Projects()
	nodes := make([]depsort.Node[string], 0, len(projects))
	byName := make(map[string]*ProjectInfo, len(projects))
	for _, p := range projects {
		byName[p.Name] = p
		node := depsort.Node[string]{ID: p.Name}
		for _, dep := range p.DependencyIDs {
			if d, ok := s.projects[dep]; ok {
				node.Children = append(node.Children, d.Name)
			}
		}
		nodes = append(nodes, node)
	}
	order, err := depsort.Sort(nodes)
	if err != nil {
		return errors.Wrap(err, "cyclic dependency between projects")
	}
	for rank, name := range order {
		byName[name].DependencyRank = rank
	}
	return nil
}

// SortedProjects returns the projects in ascending dependency rank
func (s *Store) SortedProjects() []*ProjectInfo {
	out := s.Projects()
	sort.SliceStable(out, func(i, j int) bool { return out[i].DependencyRank < out[j].DependencyRank })
	return out
}

// SortTypesByInheritance orders types so that every base type precedes the types
// deriving from it. Parents outside types are ignored; unrelated types keep their
// relative order.
func SortTypesByInheritance(types []*ReflectedType) ([]*ReflectedType, error) {
	byName := make(map[string]*ReflectedType, len(types))
	byID := make(map[TypeID]*ReflectedType, len(types))
	for _, t := range types {
		byName[t.QualifiedName()] = t
		byID[t.ID] = t
	}
	nodes := make([]depsort.Node[string], 0, len(types))
	for _, t := range types {
		node := depsort.Node[string]{ID: t.QualifiedName()}
		if parent, ok := byID[t.ParentID]; ok && t.HasParent() {
			node.Children = []string{parent.QualifiedName()}
		}
		nodes = append(nodes, node)
	}
	order, err := depsort.Sort(nodes)
	if err != nil {
		return nil, err
	}
	out := make([]*ReflectedType, 0, len(order))
	for _, name := range order {
		out = append(out, byName[name])
	}
	return out, nil
}

// AddResourceType inserts or replaces a resource type record
func (s *Store) AddResourceType(r *ResourceTypeInfo) {
	s.resources[r.TypeID] = r
}

// ResourceType returns the resource record of a type
func (s *Store) ResourceType(id TypeID) (*ResourceTypeInfo, bool) {
	r, ok := s.resources[id]
	return r, ok
}

// ResourceTypes returns every resource type sorted by code then type name
func (s *Store) ResourceTypes() []*ResourceTypeInfo {
	out := make([]*ResourceTypeInfo, 0, len(s.resources))
	for _, r := range s.resources {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Code != out[j].Code {
			return out[i].Code < out[j].Code
		}
		return out[i].FriendlyName < out[j].FriendlyName
	})
	return out
}

// ResolveKind resolves a KindNamed property against the store.
// Other kinds are returned unchanged.
func (s *Store) ResolveKind(p *ReflectedProperty) (PropertyKind, error) {
	if p.Kind != KindNamed {
		return p.Kind, nil
	}
	if t, ok := s.TypeByName(p.TypeName); ok {
		if t.IsEnum {
			return KindEnum, nil
		}
		return KindStruct, nil
	}
	if p.BasicUnderlying {
		return KindCore, nil
	}
	return KindNamed, errors.Newf("property %s has type %s which is not reflected", p.Name, p.TypeName)
}

// HasResources reports whether values of t reference resources, through its own
// properties, nested reflected structs or its parent.
func (s *Store) HasResources(t *ReflectedType) bool {
	return s.hasResources(t, make(map[TypeID]bool))
}

func (s *Store) hasResources(t *ReflectedType, visiting map[TypeID]bool) bool {
	if t == nil || t.IsEnum || visiting[t.ID] {
		return false
	}
	visiting[t.ID] = true
	defer delete(visiting, t.ID)

	if t.HasParent() {
		if parent, ok := s.types[t.ParentID]; ok && s.hasResources(parent, visiting) {
			return true
		}
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		switch p.Kind {
		case KindResource:
			return true
		case KindNamed, KindStruct:
			if nested, ok := s.TypeByName(p.TypeName); ok && s.hasResources(nested, visiting) {
				return true
			}
		}
	}
	return false
}

// references returns the IDs of the types t refers to by name: its parent and
// the element types of its properties
func (t *ReflectedType) references() []TypeID {
	var out []TypeID
	if t.HasParent() {
		out = append(out, t.ParentID)
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		if ns, name := SplitQualifiedName(p.TypeName); ns != "" {
			out = append(out, NewTypeID(ns, name))
		}
	}
	return out
}

// DependentHeaders returns the headers outside changed whose types refer to a
// type declared in one of the changed headers or to one of the removed types,
// directly or through other types. Generated descriptors bake in facts about
// the types they refer to (kind, abstractness, whether they reference
// resources), so these headers must be rendered again even though their
// source did not change.
func (s *Store) DependentHeaders(changed []HeaderID, removed []TypeID) []*HeaderInfo {
	users := make(map[TypeID][]*ReflectedType)
	for _, t := range s.types {
		for _, ref := range t.references() {
			users[ref] = append(users[ref], t)
		}
	}

	seen := make(map[HeaderID]bool, len(changed))
	affected := make(map[TypeID]bool)
	var queue []TypeID
	for _, id := range removed {
		if !affected[id] {
			affected[id] = true
			queue = append(queue, id)
		}
	}
	for _, id := range changed {
		seen[id] = true
		for _, t := range s.TypesForHeader(id) {
			affected[t.ID] = true
			queue = append(queue, t.ID)
		}
	}

	var out []*HeaderInfo
	for len(queue) > 0 {
		id := queue[0]
		queue = queue[1:]
		for _, u := range users[id] {
			if affected[u.ID] {
				continue
			}
			affected[u.ID] = true
			queue = append(queue, u.ID)
			if seen[u.HeaderID] {
				continue
			}
			seen[u.HeaderID] = true
			if h, ok := s.headers[u.HeaderID]; ok {
				out = append(out, h)
			}
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out
}
