package schema

import (
	"fmt"
	"sort"
)

// Memory is an immutable, in-process Catalog. It is built once (via
// NewMemory or LoadYAML) and never mutated afterward, matching spec.md
// §5's "immutable after configuration; no locking" rule — so, unlike the
// AST cache, it needs no mutex.
type Memory struct {
	tables map[string]*Table
}

// NewMemory validates and wraps a set of table definitions. Every table
// must declare a column literally named "id" of Int64 type, marked
// primary key, per the binder invariant in spec.md §3.
func NewMemory(tables []Table) (*Memory, error) {
	m := &Memory{
		tables: make(map[string]*Table, len(tables)),
	}
	for i := range tables {
		t := tables[i]
		if _, exists := m.tables[t.Name]; exists {
			return nil, Error{Kind: "DuplicateTable", Message: fmt.Sprintf("table %q defined twice", t.Name)}
		}
		idCol, ok := t.Column("id")
		if !ok {
			return nil, Error{Kind: "MissingIDColumn", Message: fmt.Sprintf("table %q must have a column named id", t.Name)}
		}
		if idCol.Type != Int64 || !idCol.PrimaryKey {
			return nil, Error{Kind: "InvalidIDColumn", Message: fmt.Sprintf("table %q's id column must be a primary-key int64", t.Name)}
		}
		tc := t
		m.tables[t.Name] = &tc
	}
	// Cross-check foreign keys once all tables are registered, so
	// ordering of the input slice never matters.
	for _, t := range m.tables {
		for _, c := range t.Columns {
			for _, fk := range c.ForeignKeys {
				target, ok := m.tables[fk.TargetTable]
				if !ok {
					return nil, Error{Kind: "UnknownForeignKeyTarget", Message: fmt.Sprintf("table %q column %q references unknown table %q", t.Name, c.Name, fk.TargetTable)}
				}
				if fk.TargetColumn != "id" {
					return nil, Error{Kind: "InvalidForeignKeyTarget", Message: fmt.Sprintf("table %q column %q must reference %q.id", t.Name, c.Name, target.Name)}
				}
			}
		}
	}
	return m, nil
}

func (m *Memory) LookupTable(name string) (*Table, error) {
	t, ok := m.tables[name]
	if !ok {
		return nil, UnknownTable(name)
	}
	return t, nil
}

// TableNames returns the catalog's table names in sorted order, for
// diagnostics and the CLI's "tables" command.
func (m *Memory) TableNames() []string {
	names := make([]string, 0, len(m.tables))
	for n := range m.tables {
		names = append(names, n)
	}
	sort.Strings(names)
	return names
}
