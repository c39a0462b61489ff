package build

import (
	"context"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/logger"
	"github.com/teranos/mirror/metadata"
)

// rebuildIndex replaces the project records with the ones resolved from the
// descriptor, ranks them, resolves named property types and validates the
// cross-type references the generator relies on. Up-to-date headers whose
// types refer to a type of a dirty or obsolete header are queued for
// rendering again.
func (r *run) rebuildIndex(ctx context.Context) error {
	info := r.result.Solution
	r.store.ResetProjects()
	for _, p := range info.Projects {
		r.store.AddProject(p)
	}
	if err := r.store.RankProjects(); err != nil {
		return errors.Mark(err, errors.ErrCyclicDependency)
	}

	ix := newIndex(r.store)
	for _, t := range ix.types {
		if err := ix.resolve(t); err != nil {
			return err
		}
	}
	for _, t := range ix.types {
		if err := ix.validateType(t); err != nil {
			return err
		}
	}
	for _, res := range r.store.ResourceTypes() {
		if err := ix.validateResource(res); err != nil {
			return err
		}
	}

	r.dependents = r.store.DependentHeaders(r.changedHeaders(), r.check.RemovedTypes)
	r.result.Dependents = r.dependents
	for _, h := range r.dependents {
		r.log.Debugw("Header depends on a changed type", logger.FieldHeader, h.Path)
	}

	r.log.Debugw("Index rebuilt",
		logger.FieldCount, len(ix.types),
		"resource_types", len(r.store.ResourceTypes()),
	)
	return nil
}

// changedHeaders returns the headers parsed in this run
func (r *run) changedHeaders() []metadata.HeaderID {
	ids := make([]metadata.HeaderID, 0, len(r.result.Dirty))
	for _, d := range r.result.Dirty {
		ids = append(ids, d.Header.ID)
	}
	return ids
}

// index answers project membership questions about the store's types
type index struct {
	store   *metadata.Store
	types   []*metadata.ReflectedType
	project map[metadata.TypeID]*metadata.ProjectInfo
	reach   map[metadata.ProjectID]map[metadata.ProjectID]bool
}

func newIndex(store *metadata.Store) *index {
	ix := &index{
		store:   store,
		project: make(map[metadata.TypeID]*metadata.ProjectInfo),
		reach:   make(map[metadata.ProjectID]map[metadata.ProjectID]bool),
	}
	for _, h := range store.Headers() {
		p, _ := store.Project(h.ProjectID)
		for _, t := range store.TypesForHeader(h.ID) {
			ix.types = append(ix.types, t)
			ix.project[t.ID] = p
		}
	}
	return ix
}

// visible reports whether code in project from may refer to types of project to:
// the same project or one of its transitive dependencies
func (ix *index) visible(from, to *metadata.ProjectInfo) bool {
	if from == nil || to == nil {
		return false
	}
	if from.ID == to.ID {
		return true
	}
	deps, ok := ix.reach[from.ID]
	if !ok {
		deps = make(map[metadata.ProjectID]bool)
		stack := append([]metadata.ProjectID(nil), from.DependencyIDs...)
		for len(stack) > 0 {
			id := stack[len(stack)-1]
			stack = stack[:len(stack)-1]
			if deps[id] {
				continue
			}
			deps[id] = true
			if p, ok := ix.store.Project(id); ok {
				stack = append(stack, p.DependencyIDs...)
			}
		}
		ix.reach[from.ID] = deps
	}
	return deps[to.ID]
}

// resolve turns every named property of t into an enum, struct or core property
func (ix *index) resolve(t *metadata.ReflectedType) error {
	for i := range t.Properties {
		p := &t.Properties[i]
		switch {
		case p.Kind == metadata.KindEnum, p.Kind == metadata.KindStruct,
			p.Kind == metadata.KindCore && p.BasicUnderlying:
			// Recorded in an earlier run; the referenced type may have been
			// added, removed or changed since.
			p.Kind = metadata.KindNamed
		}
		kind, err := ix.store.ResolveKind(p)
		if err != nil {
			return errors.Mark(errors.WithHint(
				errors.Wrapf(err, "resolve %s", t.QualifiedName()),
				"mark the type with //mirror:type or //mirror:enum, or drop the mirror tag from the field"),
				errors.ErrParser)
		}
		p.Kind = kind
	}
	return nil
}

func (ix *index) validateType(t *metadata.ReflectedType) error {
	proj := ix.project[t.ID]
	if proj == nil {
		return errors.AssertionFailedf("type %s belongs to no known project", t.QualifiedName())
	}

	if t.HasParent() {
		parent, ok := ix.store.Type(t.ParentID)
		if !ok {
			return errors.Structuralf("%s derives from %s which is not reflected", t.QualifiedName(), t.ParentID)
		}
		if !ix.visible(proj, ix.project[parent.ID]) {
			return errors.Structuralf("%s derives from %s, declared in a project %s does not depend on",
				t.QualifiedName(), parent.QualifiedName(), proj.Name)
		}
		if parent.IsDevOnly && !t.IsDevOnly {
			return errors.WithHint(
				errors.Structuralf("%s derives from development-only %s", t.QualifiedName(), parent.QualifiedName()),
				"mark the derived type dev as well")
		}
	}

	for i := range t.Properties {
		p := &t.Properties[i]
		if p.Kind != metadata.KindEnum && p.Kind != metadata.KindStruct {
			continue
		}
		ref, ok := ix.store.TypeByName(p.TypeName)
		if !ok {
			continue
		}
		if !ix.visible(proj, ix.project[ref.ID]) {
			return errors.Structuralf("%s.%s uses %s, declared in a project %s does not depend on",
				t.QualifiedName(), p.Name, ref.QualifiedName(), proj.Name)
		}
		if ref.IsDevOnly && !p.IsDevOnly {
			return errors.WithHint(
				errors.Structuralf("%s.%s uses development-only %s", t.QualifiedName(), p.Name, ref.QualifiedName()),
				`tag the field mirror:"dev"`)
		}
	}
	return nil
}

// validateResource checks that a declared resource parent exists in every
// build the child is registered in
func (ix *index) validateResource(res *metadata.ResourceTypeInfo) error {
	if res.ParentTypeID == 0 {
		return nil
	}
	parent, ok := ix.store.ResourceType(res.ParentTypeID)
	if !ok {
		return errors.Structuralf("resource type %s declares parent %s which is not a resource type", res.FriendlyName, res.ParentTypeID)
	}
	childProj, parentProj := ix.project[res.TypeID], ix.project[parent.TypeID]
	if childProj == nil || parentProj == nil {
		return errors.AssertionFailedf("resource type %s or its parent belongs to no known project", res.FriendlyName)
	}
	if !ix.visible(childProj, parentProj) {
		return errors.Structuralf("resource type %s declares parent %s from a project it does not depend on",
			res.FriendlyName, parent.FriendlyName)
	}
	if parent.IsDevOnly && !res.IsDevOnly {
		return errors.Structuralf("resource type %s declares development-only parent %s", res.FriendlyName, parent.FriendlyName)
	}
	if parentProj.IsToolsOnly && !childProj.IsToolsOnly {
		return errors.Structuralf("resource type %s declares parent %s from tools-only project %s",
			res.FriendlyName, parent.FriendlyName, parentProj.Name)
	}
	return nil
}
