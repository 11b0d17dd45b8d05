package schema

import (
	"os"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

// yamlDoc mirrors the on-disk schema definition format. It intentionally
// does not reuse the Table/Column types directly: the YAML surface uses
// plain strings for types and foreign-key targets ("table.column"),
// while the in-memory types use parsed Kind values and a split
// TargetTable/TargetColumn pair.
type yamlDoc struct {
	Tables []yamlTable `yaml:"tables"`
}

type yamlTable struct {
	Name    string       `yaml:"name"`
	Columns []yamlColumn `yaml:"columns"`
}

type yamlColumn struct {
	Name       string `yaml:"name"`
	Type       string `yaml:"type"`
	Nullable   bool   `yaml:"nullable"`
	PrimaryKey bool   `yaml:"primary_key"`
	References string `yaml:"references"` // "table.column", optional
}

func parseKind(s string) (Kind, error) {
	switch s {
	case "int64", "int", "integer":
		return Int64, nil
	case "float64", "float", "double":
		return Float64, nil
	case "string", "text", "varchar":
		return String, nil
	case "bool", "boolean":
		return Bool, nil
	case "date":
		return Date, nil
	case "datetime", "timestamp":
		return DateTime, nil
	case "binary", "blob", "bytes":
		return Binary, nil
	default:
		return 0, Error{Kind: "UnknownColumnType", Message: "unknown column type " + s}
	}
}

// LoadYAML reads a schema catalog definition from path and builds a
// validated Memory catalog from it, following the
// load-once-at-startup pattern of aretext-aretext/app/config.go's
// LoadOrCreateConfig / unmarshalRuleSet).
func LoadYAML(path string) (*Memory, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrapf(err, "reading schema file %q", path)
	}
	return ParseYAML(data)
}

// ParseYAML builds a validated Memory catalog from a YAML document's
// bytes, split out from LoadYAML so callers with an embedded or
// in-memory definition don't need a real file on disk.
func ParseYAML(data []byte) (*Memory, error) {
	var doc yamlDoc
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, errors.Wrap(err, "decoding schema YAML")
	}

	tables := make([]Table, 0, len(doc.Tables))
	for _, yt := range doc.Tables {
		if yt.Name == "" {
			return nil, Error{Kind: "InvalidSchema", Message: "table entry missing a name"}
		}
		cols := make([]Column, 0, len(yt.Columns))
		for _, yc := range yt.Columns {
			kind, err := parseKind(yc.Type)
			if err != nil {
				return nil, errors.Wrapf(err, "table %q column %q", yt.Name, yc.Name)
			}
			col := Column{
				Name:       yc.Name,
				Type:       kind,
				Nullable:   yc.Nullable,
				PrimaryKey: yc.PrimaryKey,
			}
			if yc.References != "" {
				target, targetCol, err := splitReference(yc.References)
				if err != nil {
					return nil, errors.Wrapf(err, "table %q column %q", yt.Name, yc.Name)
				}
				col.ForeignKeys = []ForeignKey{{TargetTable: target, TargetColumn: targetCol}}
			}
			cols = append(cols, col)
		}
		tables = append(tables, Table{Name: yt.Name, Columns: cols})
	}

	return NewMemory(tables)
}

func splitReference(ref string) (table, column string, err error) {
	for i := len(ref) - 1; i >= 0; i-- {
		if ref[i] == '.' {
			return ref[:i], ref[i+1:], nil
		}
	}
	return "", "", Error{Kind: "InvalidSchema", Message: "foreign key reference must be \"table.column\", got " + ref}
}
