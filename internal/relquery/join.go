package relquery

import (
	"sort"

	"github.com/nicolas-van/fql/internal/schema"
)

// JoinNode is one node of the join context tree built during binding:
// the bound table (or alias), plus a map from foreign-key column name to
// the child join node reached through that column. The root node has no
// incoming foreign key; every other node was reached by navigating one
// FK column from its parent. Built incrementally during binding; readers
// walk it in sorted order through SortedChildren.
type JoinNode struct {
	Table    *schema.Table
	FKColumn string // the FK column on the parent that led here; "" for the root
	children map[string]*JoinNode
}

// NewJoinNode creates a root join node bound to t.
func NewJoinNode(t *schema.Table) *JoinNode {
	return &JoinNode{Table: t, children: make(map[string]*JoinNode)}
}

// Child returns the existing child reached through fkColumn, if any.
func (n *JoinNode) Child(fkColumn string) (*JoinNode, bool) {
	c, ok := n.children[fkColumn]
	return c, ok
}

// AddChild installs a fresh child reached through fkColumn, bound to t.
func (n *JoinNode) AddChild(fkColumn string, t *schema.Table) *JoinNode {
	child := &JoinNode{Table: t, FKColumn: fkColumn, children: make(map[string]*JoinNode)}
	n.children[fkColumn] = child
	return child
}

// SortedChildren returns this node's children in sorted FK-column-name
// order, the deterministic iteration order spec.md §4.3 requires so that
// identical inputs always render an identical FROM clause.
func (n *JoinNode) SortedChildren() []*JoinNode {
	keys := make([]string, 0, len(n.children))
	for k := range n.children {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	out := make([]*JoinNode, len(keys))
	for i, k := range keys {
		out[i] = n.children[k]
	}
	return out
}
