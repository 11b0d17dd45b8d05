// Package schema models the relational schema catalog FQL binds against:
// tables, columns, scalar types, and foreign-key edges. The catalog is an
// external collaborator per spec.md §6 — this package declares the
// consumed contract plus a simple immutable in-memory implementation
// built once at startup and never mutated afterward.
package schema

import "fmt"

// Kind is a column's scalar type. FQL itself never produces Date,
// DateTime, or Binary literals (non-goal) — those values only arrive as
// bound parameters — but columns of those types still need to be
// nameable in the catalog so identifiers resolve and values flow through
// to the driver untouched.
type Kind int

const (
	Int64 Kind = iota
	Float64
	String
	Bool
	Date
	DateTime
	Binary
)

func (k Kind) String() string {
	switch k {
	case Int64:
		return "int64"
	case Float64:
		return "float64"
	case String:
		return "string"
	case Bool:
		return "bool"
	case Date:
		return "date"
	case DateTime:
		return "datetime"
	case Binary:
		return "binary"
	default:
		return "unknown"
	}
}

// ForeignKey describes a column on a table that references the primary
// key of another table.
type ForeignKey struct {
	TargetTable  string
	TargetColumn string
}

// Column describes one column of a Table.
type Column struct {
	Name        string
	Type        Kind
	Nullable    bool
	PrimaryKey  bool
	ForeignKeys []ForeignKey
}

// Table describes a table's name and ordered column list. Alias is set
// when this Table value is a fresh relational alias produced by
// Table.WithAlias rather than the canonical table definition.
type Table struct {
	Name    string
	Alias   string // empty for the canonical table
	Columns []Column
}

// DisplayName is the name used in rendered FROM/SELECT clauses: the alias
// if one was assigned, otherwise the table's own name.
func (t *Table) DisplayName() string {
	if t.Alias != "" {
		return t.Alias
	}
	return t.Name
}

// WithAlias returns a copy of t under a fresh relational alias. It is a
// pure function of t and alias — minting an alias never touches the
// catalog, so callers (the binder) must derive alias themselves from
// something stable, such as the join path that reached t, rather than
// an allocation counter: the catalog is shared across concurrent binds
// (spec.md §5, "immutable after configuration; no locking"), and an
// alias must also be the same across repeated binds of the same query
// (spec.md §4.3, "identical inputs always render an identical FROM
// clause").
func (t *Table) WithAlias(alias string) *Table {
	cols := make([]Column, len(t.Columns))
	copy(cols, t.Columns)
	return &Table{Name: t.Name, Alias: alias, Columns: cols}
}

// Column looks up a column by name.
func (t *Table) Column(name string) (*Column, bool) {
	for i := range t.Columns {
		if t.Columns[i].Name == name {
			return &t.Columns[i], true
		}
	}
	return nil, false
}

// Catalog resolves table names to descriptors. Consumed, not owned:
// production deployments back this with whatever introspects the real
// database; Memory is the in-process reference implementation used by
// tests, the CLI, and the server. It carries no alias-allocation state:
// see Table.WithAlias.
type Catalog interface {
	LookupTable(name string) (*Table, error)
}

// Error is raised for catalog configuration problems (unknown table,
// malformed schema definition).
type Error struct {
	Kind    string
	Message string
}

func (e Error) Error() string {
	return fmt.Sprintf("schema error (%v): %v", e.Kind, e.Message)
}

func UnknownTable(name string) error {
	return Error{Kind: "UnknownTable", Message: fmt.Sprintf("no table named %q", name)}
}
