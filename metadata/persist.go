package metadata

import (
	"context"
	"database/sql"
	"time"

	"github.com/teranos/mirror/errors"
	"github.com/teranos/mirror/version"
)

// Keys of the meta table
const (
	metaGeneratorVersion = "generator_version"
	metaLastRunID        = "last_run_id"
)

// Tables in delete order; children before parents.
var storeTables = []string{
	"resource_types",
	"enum_constants",
	"properties",
	"types",
	"headers",
	"project_dependencies",
	"projects",
	"meta",
}

// Load reads the persisted store.
//
// A store recorded by an incompatible generator version is discarded: Load
// returns an empty store whose DiscardedVersion names the recorded version, so
// the next check marks every header dirty.
func Load(ctx context.Context, db *sql.DB) (*Store, error) {
	s := NewStore()

	meta, err := loadMeta(ctx, db)
	if err != nil {
		return nil, err
	}
	recorded := meta[metaGeneratorVersion]
	if recorded != "" && !version.CompatibleGenerator(recorded) {
		s.DiscardedVersion = recorded
		return s, nil
	}
	s.GeneratorVersion = recorded
	s.LastRunID = meta[metaLastRunID]

	loaders := []struct {
		what string
		fn   func(context.Context, *sql.DB, *Store) error
	}{
		{"projects", loadProjects},
		{"project dependencies", loadProjectDependencies},
		{"headers", loadHeaders},
		{"types", loadTypes},
		{"properties", loadProperties},
		{"enum constants", loadEnumConstants},
		{"resource types", loadResourceTypes},
	}
	for _, l := range loaders {
		if err := l.fn(ctx, db, s); err != nil {
			return nil, errors.Wrapf(err, "load %s", l.what)
		}
	}
	return s, nil
}

func loadMeta(ctx context.Context, db *sql.DB) (map[string]string, error) {
	rows, err := db.QueryContext(ctx, "SELECT key, value FROM meta")
	if err != nil {
		return nil, errors.Wrap(err, "load meta")
	}
	defer rows.Close()

	meta := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, errors.Wrap(err, "scan meta")
		}
		meta[k] = v
	}
	return meta, errors.Wrap(rows.Err(), "iterate meta")
}

func loadProjects(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, `SELECT id, name, path, import_path, package_name, module_header_id,
		dependency_rank, tools_only, declares_module FROM projects`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p            ProjectInfo
			id, moduleID int64
		)
		if err := rows.Scan(&id, &p.Name, &p.Path, &p.ImportPath, &p.PackageName, &moduleID,
			&p.DependencyRank, &p.IsToolsOnly, &p.DeclaresModule); err != nil {
			return err
		}
		p.ID = ProjectID(id)
		p.ModuleHeaderID = HeaderID(moduleID)
		s.AddProject(&p)
	}
	return rows.Err()
}

func loadProjectDependencies(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, "SELECT project_id, dependency_id FROM project_dependencies ORDER BY project_id, position")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var projectID, depID int64
		if err := rows.Scan(&projectID, &depID); err != nil {
			return err
		}
		if p, ok := s.Project(ProjectID(projectID)); ok {
			p.DependencyIDs = append(p.DependencyIDs, ProjectID(depID))
		}
	}
	return rows.Err()
}

func loadHeaders(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, "SELECT id, path, project_id, package_name, mod_time, checksum, dev_only FROM headers")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			h                       HeaderInfo
			id, projectID, modNanos int64
		)
		if err := rows.Scan(&id, &h.Path, &projectID, &h.PackageName, &modNanos, &h.Checksum, &h.IsDevOnly); err != nil {
			return err
		}
		h.ID = HeaderID(id)
		h.ProjectID = ProjectID(projectID)
		h.ModTime = time.Unix(0, modNanos)
		s.AddHeader(&h)
	}
	return rows.Err()
}

func loadTypes(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, `SELECT id, header_id, parent_id, namespace, name, package_name, is_enum,
		dev_only, abstract, entity_component, parent_field, underlying_kind, description
		FROM types ORDER BY header_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			t                      ReflectedType
			id, headerID, parentID int64
		)
		if err := rows.Scan(&id, &headerID, &parentID, &t.Namespace, &t.Name, &t.PackageName, &t.IsEnum,
			&t.IsDevOnly, &t.IsAbstract, &t.IsEntityComponent, &t.ParentField, &t.UnderlyingKind, &t.Description); err != nil {
			return err
		}
		t.ID = TypeID(id)
		t.HeaderID = HeaderID(headerID)
		t.ParentID = TypeID(parentID)
		if err := s.AddType(&t); err != nil {
			return err
		}
	}
	return rows.Err()
}

func loadProperties(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, `SELECT type_id, id, name, type_name, template_arg_type_name, kind,
		basic_underlying, array_kind, array_size, byte_offset, dev_only, tools_read_only, visualize, description
		FROM properties ORDER BY type_id, position`)
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			p             ReflectedProperty
			typeID, id    int64
			kind, arrKind int
		)
		if err := rows.Scan(&typeID, &id, &p.Name, &p.TypeName, &p.TemplateArgTypeName, &kind,
			&p.BasicUnderlying, &arrKind, &p.ArraySize, &p.Offset, &p.IsDevOnly, &p.IsToolsReadOnly,
			&p.IsExposedForVisualization, &p.Description); err != nil {
			return err
		}
		p.ID = PropertyID(id)
		p.Kind = PropertyKind(kind)
		p.ArrayKind = ArrayKind(arrKind)
		t, ok := s.Type(TypeID(typeID))
		if !ok {
			return errors.Newf("property %s references unknown type %s", p.Name, TypeID(typeID))
		}
		t.Properties = append(t.Properties, p)
	}
	return rows.Err()
}

func loadEnumConstants(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, "SELECT type_id, identifier, label, value, description FROM enum_constants ORDER BY type_id, position")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			c      EnumConstant
			typeID int64
		)
		if err := rows.Scan(&typeID, &c.Identifier, &c.Label, &c.Value, &c.Description); err != nil {
			return err
		}
		t, ok := s.Type(TypeID(typeID))
		if !ok {
			return errors.Newf("enum constant %s references unknown type %s", c.Identifier, TypeID(typeID))
		}
		t.Constants = append(t.Constants, c)
	}
	return rows.Err()
}

func loadResourceTypes(ctx context.Context, db *sql.DB, s *Store) error {
	rows, err := db.QueryContext(ctx, "SELECT type_id, code, friendly_name, parent_type_id, dev_only FROM resource_types")
	if err != nil {
		return err
	}
	defer rows.Close()

	for rows.Next() {
		var (
			r                ResourceTypeInfo
			typeID, parentID int64
		)
		if err := rows.Scan(&typeID, &r.Code, &r.FriendlyName, &parentID, &r.IsDevOnly); err != nil {
			return err
		}
		r.TypeID = TypeID(typeID)
		r.ParentTypeID = TypeID(parentID)
		s.AddResourceType(&r)
	}
	return rows.Err()
}

// Save overwrites the persisted store with s in a single transaction and stamps
// it with the running generator version.
func Save(ctx context.Context, db *sql.DB, s *Store) (err error) {
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "begin store transaction")
	}
	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	for _, table := range storeTables {
		if _, err := tx.ExecContext(ctx, "DELETE FROM "+table); err != nil {
			return errors.Wrapf(err, "clear %s", table)
		}
	}

	s.GeneratorVersion = version.GeneratorVersion
	s.DiscardedVersion = ""
	for _, kv := range [][2]string{
		{metaGeneratorVersion, s.GeneratorVersion},
		{metaLastRunID, s.LastRunID},
	} {
		if _, err := tx.ExecContext(ctx, "INSERT INTO meta (key, value) VALUES (?, ?)", kv[0], kv[1]); err != nil {
			return errors.Wrapf(err, "save meta %s", kv[0])
		}
	}

	if err := saveProjects(ctx, tx, s); err != nil {
		return err
	}
	if err := saveHeaders(ctx, tx, s); err != nil {
		return err
	}
	if err := saveResourceTypes(ctx, tx, s); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return errors.Wrap(err, "commit store transaction")
	}
	return nil
}

func saveProjects(ctx context.Context, tx *sql.Tx, s *Store) error {
	for _, p := range s.Projects() {
		_, err := tx.ExecContext(ctx, `INSERT INTO projects (id, name, path, import_path, package_name,
			module_header_id, dependency_rank, tools_only, declares_module) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(p.ID), p.Name, p.Path, p.ImportPath, p.PackageName, int64(p.ModuleHeaderID),
			p.DependencyRank, p.IsToolsOnly, p.DeclaresModule)
		if err != nil {
			return errors.Wrapf(err, "save project %s", p.Name)
		}
		for i, dep := range p.DependencyIDs {
			if _, err := tx.ExecContext(ctx, "INSERT INTO project_dependencies (project_id, dependency_id, position) VALUES (?, ?, ?)",
				int64(p.ID), int64(dep), i); err != nil {
				return errors.Wrapf(err, "save dependencies of project %s", p.Name)
			}
		}
	}
	return nil
}

func saveHeaders(ctx context.Context, tx *sql.Tx, s *Store) error {
	for _, h := range s.Headers() {
		_, err := tx.ExecContext(ctx, `INSERT INTO headers (id, path, project_id, package_name, mod_time, checksum, dev_only)
			VALUES (?, ?, ?, ?, ?, ?, ?)`,
			int64(h.ID), h.Path, int64(h.ProjectID), h.PackageName, h.ModTime.UnixNano(), h.Checksum, h.IsDevOnly)
		if err != nil {
			return errors.Wrapf(err, "save header %s", h.Path)
		}
		for pos, t := range s.TypesForHeader(h.ID) {
			if err := saveType(ctx, tx, t, pos); err != nil {
				return errors.Wrapf(err, "save type %s", t.QualifiedName())
			}
		}
	}
	return nil
}

func saveType(ctx context.Context, tx *sql.Tx, t *ReflectedType, pos int) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO types (id, header_id, position, parent_id, namespace, name, package_name,
		is_enum, dev_only, abstract, entity_component, parent_field, underlying_kind, description)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		int64(t.ID), int64(t.HeaderID), pos, int64(t.ParentID), t.Namespace, t.Name, t.PackageName,
		t.IsEnum, t.IsDevOnly, t.IsAbstract, t.IsEntityComponent, t.ParentField, t.UnderlyingKind, t.Description)
	if err != nil {
		return err
	}
	for i := range t.Properties {
		p := &t.Properties[i]
		_, err := tx.ExecContext(ctx, `INSERT INTO properties (type_id, position, id, name, type_name,
			template_arg_type_name, kind, basic_underlying, array_kind, array_size, byte_offset, dev_only,
			tools_read_only, visualize, description) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
			int64(t.ID), i, int64(p.ID), p.Name, p.TypeName, p.TemplateArgTypeName, int(p.Kind),
			p.BasicUnderlying, int(p.ArrayKind), p.ArraySize, p.Offset, p.IsDevOnly, p.IsToolsReadOnly,
			p.IsExposedForVisualization, p.Description)
		if err != nil {
			return errors.Wrapf(err, "property %s", p.Name)
		}
	}
	for i, c := range t.Constants {
		_, err := tx.ExecContext(ctx, `INSERT INTO enum_constants (type_id, position, identifier, label, value, description)
			VALUES (?, ?, ?, ?, ?, ?)`,
			int64(t.ID), i, c.Identifier, c.Label, c.Value, c.Description)
		if err != nil {
			return errors.Wrapf(err, "constant %s", c.Identifier)
		}
	}
	return nil
}

func saveResourceTypes(ctx context.Context, tx *sql.Tx, s *Store) error {
	for _, r := range s.ResourceTypes() {
		_, err := tx.ExecContext(ctx, `INSERT INTO resource_types (type_id, code, friendly_name, parent_type_id, dev_only)
			VALUES (?, ?, ?, ?, ?)`,
			int64(r.TypeID), r.Code, r.FriendlyName, int64(r.ParentTypeID), r.IsDevOnly)
		if err != nil {
			return errors.Wrapf(err, "save resource type %s", r.FriendlyName)
		}
	}
	return nil
}
