package relquery

import (
	"fmt"
	"regexp"

	"github.com/nicolas-van/fql/internal/schema"
)

// Field is one entry of a SELECT list: the resolved expression (usually
// a Column, possibly a dotted FK path through a join alias) and the
// output name it should be reported under.
type Field struct {
	Name string
	Expr Expr
}

// SortOrder is a single ORDER BY term.
type SortOrder struct {
	Expr       Expr
	Descending bool
}

// Query is a fully assembled SELECT: select list, join tree, optional
// WHERE predicate, ORDER BY, and LIMIT/OFFSET.
type Query struct {
	Select  []Field
	From    *JoinNode
	Where   Expr // nil means no WHERE clause
	OrderBy []SortOrder
	Limit   *int64
	Offset  *int64
}

// Mutation is an UPDATE or DELETE. Values is nil for a DELETE. Where is
// always the "id IN (SELECT id FROM <jointree> WHERE <predicate>)"
// subquery pattern from spec.md §4.5, built by Assembler.Mutation — it
// keeps join-tree logic out of the mutating statement itself.
type Mutation struct {
	Table  *schema.Table
	Values map[string]Expr // nil for DELETE
	Where  Expr
}

var orderPattern = regexp.MustCompile(`^([A-Za-z_][A-Za-z0-9_]*(\.[A-Za-z_][A-Za-z0-9_]*)*)(\s+(asc|desc))?$`)

// ParseOrder splits an order specifier string ("key asc", "table.key",
// "key desc") into its dotted column path and direction, per the regex
// in spec.md §4.5. Direction defaults to ascending.
func ParseOrder(spec string) (path []string, descending bool, err error) {
	m := orderPattern.FindStringSubmatch(spec)
	if m == nil {
		return nil, false, fmt.Errorf("not a valid order specifier: %q", spec)
	}
	descending = m[4] == "desc"
	path = splitDotted(m[1])
	return path, descending, nil
}

func splitDotted(s string) []string {
	var parts []string
	start := 0
	for i := 0; i < len(s); i++ {
		if s[i] == '.' {
			parts = append(parts, s[start:i])
			start = i + 1
		}
	}
	parts = append(parts, s[start:])
	return parts
}
