package memdriver

import (
	"sort"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// resultRow is a projected row: select-field name to value, one entry
// per field of the query's Select list. As a map it keeps no field order.
type resultRow map[string]schema.Value

func (tx *Tx) executeQuery(q *relquery.Query) ([]resultRow, error) {
	base := tx.store.table(q.From.Table.Name)
	ids := make([]int64, 0, len(base.rows))
	for id := range base.rows {
		ids = append(ids, id)
	}
	sort.Slice(ids, func(i, j int) bool { return ids[i] < ids[j] })

	expanded := make([]joinedRow, 0, len(ids))
	for _, id := range ids {
		expanded = append(expanded, tx.expandRow(base.rows[id], q.From))
	}

	filtered := expanded[:0:0]
	for _, row := range expanded {
		if q.Where == nil {
			filtered = append(filtered, row)
			continue
		}
		v, err := tx.evalScalar(row, q.Where)
		if err != nil {
			return nil, err
		}
		if truthy(v) {
			filtered = append(filtered, row)
		}
	}

	if len(q.OrderBy) > 0 {
		var sortErr error
		sort.SliceStable(filtered, func(i, j int) bool {
			less, err := tx.rowLess(filtered[i], filtered[j], q.OrderBy)
			if err != nil {
				sortErr = err
			}
			return less
		})
		if sortErr != nil {
			return nil, sortErr
		}
	}

	if q.Offset != nil {
		off := int(*q.Offset)
		if off >= len(filtered) {
			filtered = nil
		} else {
			filtered = filtered[off:]
		}
	}
	if q.Limit != nil && int(*q.Limit) < len(filtered) {
		filtered = filtered[:*q.Limit]
	}

	out := make([]resultRow, len(filtered))
	for i, row := range filtered {
		rr := make(resultRow, len(q.Select))
		for _, f := range q.Select {
			v, err := tx.evalScalar(row, f.Expr)
			if err != nil {
				return nil, err
			}
			rr[f.Name] = v
		}
		out[i] = rr
	}
	return out, nil
}

func (tx *Tx) rowLess(a, b joinedRow, order []relquery.SortOrder) (bool, error) {
	for _, o := range order {
		av, err := tx.evalScalar(a, o.Expr)
		if err != nil {
			return false, err
		}
		bv, err := tx.evalScalar(b, o.Expr)
		if err != nil {
			return false, err
		}
		if av.IsNil && bv.IsNil {
			continue
		}
		if av.IsNil || bv.IsNil {
			// NULLs sort first in ascending order, last in descending,
			// regardless of the column's type — compareOp never sees a
			// NULL operand.
			if o.Descending {
				return bv.IsNil, nil
			}
			return av.IsNil, nil
		}
		if valuesEqual(av, bv) {
			continue
		}
		lt, err := compareOp(ast.Lt, av, bv)
		if err != nil {
			return false, err
		}
		if o.Descending {
			gt, err := compareOp(ast.Gt, av, bv)
			if err != nil {
				return false, err
			}
			return gt.B, nil
		}
		return lt.B, nil
	}
	return false, nil
}
