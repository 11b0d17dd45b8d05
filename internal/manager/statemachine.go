package manager

import (
	"context"
	"time"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/schema"
)

// StateMachineManager adds state-transition operations on top of a
// TableManager for tables with a non-nullable "state" column. Grounded
// on original_source/asgard/table_manager.py's StateTableManager.
type StateMachineManager struct {
	*TableManager
	hasStateChange bool
}

// NewStateMachine creates a StateMachineManager for table, which must
// declare a non-nullable "state" column. If the table also declares a
// "last_state_change" DateTime column, every transition stamps it with
// the current time.
func NewStateMachine(table *schema.Table, catalog schema.Catalog) (*StateMachineManager, error) {
	state, ok := table.Column("state")
	if !ok {
		return nil, persistenceErrorf("table %s must contain a column named state", table.Name)
	}
	if state.Nullable {
		return nil, persistenceErrorf("column state in table %s must be non-nullable", table.Name)
	}
	_, hasChange := table.Column("last_state_change")
	return &StateMachineManager{
		TableManager:   New(table, catalog),
		hasStateChange: hasChange,
	}, nil
}

// ChangeStateByID transitions the single row identified by id from
// oldState to newState, also applying otherValues.
func (m *StateMachineManager) ChangeStateByID(ctx context.Context, id int64, oldState, newState string, otherValues map[string]schema.Value) error {
	return m.ChangeStateManyByID(ctx, []int64{id}, oldState, newState, otherValues)
}

// ChangeStateManyByID transitions every row named by ids from oldState
// to newState, raising UnrecoverablePersistenceError if any id does not
// exist or is not currently in oldState.
func (m *StateMachineManager) ChangeStateManyByID(ctx context.Context, ids []int64, oldState, newState string, otherValues map[string]schema.Value) error {
	count, err := m.ChangeState(ctx, idInList(ids), nil, oldState, newState, otherValues)
	if err != nil {
		return err
	}
	if count != int64(len(ids)) {
		return unrecoverablef("one or more ids were not found in state %q while updating table %s", oldState, m.Table.Name)
	}
	return nil
}

// ChangeState transitions every row matching where that is currently in
// oldState to newState, returning the number of rows changed.
func (m *StateMachineManager) ChangeState(ctx context.Context, where ast.Node, vars map[string]schema.Value, oldState, newState string, otherValues map[string]schema.Value) (int64, error) {
	clause := ast.Binary{
		Op:   ast.And,
		Left: requireNode(where),
		Right: ast.Binary{
			Op:    ast.Eq,
			Left:  ast.Identifier{Path: []string{"state"}},
			Right: ast.Literal{Value: ast.Value{Kind: ast.String, S: oldState}},
		},
	}

	values := make(map[string]schema.Value, len(otherValues)+2)
	for k, v := range otherValues {
		values[k] = v
	}
	values["state"] = schema.StringValue(newState)
	if m.hasStateChange {
		values["last_state_change"] = schema.DateTimeValue(time.Now())
	}

	return m.Update(ctx, clause, vars, values)
}

func requireNode(n ast.Node) ast.Node {
	if n == nil {
		return ast.Literal{Value: ast.Value{Kind: ast.Bool, B: true}}
	}
	return n
}
