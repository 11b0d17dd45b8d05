package manager_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolas-van/fql/internal/fql/parser"
	"github.com/nicolas-van/fql/internal/manager"
	"github.com/nicolas-van/fql/internal/memdriver"
	"github.com/nicolas-van/fql/internal/schema"
)

func newItemsManager(t *testing.T) (*manager.TableManager, *memdriver.DB) {
	t.Helper()
	table := schema.Table{
		Name: "items",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Int64, PrimaryKey: true},
			{Name: "key", Type: schema.String},
			{Name: "value", Type: schema.String},
		},
	}
	cat, err := schema.NewMemory([]schema.Table{table})
	require.NoError(t, err)
	root, err := cat.LookupTable("items")
	require.NoError(t, err)
	db := memdriver.NewDB(cat.TableNames())
	return manager.New(root, cat), db
}

func val(s string) schema.Value { return schema.StringValue(s) }

func TestScenario1_CreateThenReadByID(t *testing.T) {
	m, db := newItemsManager(t)
	var id int64
	err := manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		id, err = m.Create(ctx, map[string]schema.Value{"key": val("a"), "value": val("b")})
		return err
	})
	require.NoError(t, err)

	var row map[string]schema.Value
	err = manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		row, err = m.ReadByID(ctx, id, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, "a", row["key"].S)
	assert.Equal(t, "b", row["value"].S)
	assert.Equal(t, id, row["id"].I)
}

func seedThreeRows(t *testing.T, m *manager.TableManager, db *memdriver.DB) []int64 {
	t.Helper()
	var ids []int64
	err := manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		for _, kv := range [][2]string{{"a", "b"}, {"c", "b"}, {"d", "g"}} {
			id, err := m.Create(ctx, map[string]schema.Value{"key": val(kv[0]), "value": val(kv[1])})
			if err != nil {
				return err
			}
			ids = append(ids, id)
		}
		return nil
	})
	require.NoError(t, err)
	return ids
}

func TestScenario2_ReadWithOrder(t *testing.T) {
	m, db := newItemsManager(t)
	seedThreeRows(t, m, db)

	where, err := parser.Parse("value == 'b'")
	require.NoError(t, err)

	var asc, desc []map[string]schema.Value
	err = manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		asc, err = m.Read(ctx, where, nil, nil, []string{"key asc"}, nil, nil)
		if err != nil {
			return err
		}
		desc, err = m.Read(ctx, where, nil, nil, []string{"key desc"}, nil, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "c"}, keysOf(asc))
	assert.Equal(t, []string{"c", "a"}, keysOf(desc))
}

func TestScenario3_ReadAndCountWithLimitOffset(t *testing.T) {
	m, db := newItemsManager(t)
	seedThreeRows(t, m, db)

	var rows []map[string]schema.Value
	var count int64
	limit, offset := int64(2), int64(1)
	err := manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		rows, count, err = m.ReadAndCount(ctx, nil, nil, nil, []string{"key asc"}, &limit, &offset)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "d"}, keysOf(rows))
	assert.Equal(t, int64(3), count)
}

func TestScenario4_ReadManyByIDPreservesOrderAndErrors(t *testing.T) {
	m, db := newItemsManager(t)
	ids := seedThreeRows(t, m, db)
	id1, id2 := ids[0], ids[1]

	var rows []map[string]schema.Value
	err := manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		rows, err = m.ReadManyByID(ctx, []int64{id2, id1}, nil)
		return err
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "a"}, keysOf(rows))

	err = manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		_, err := m.ReadManyByID(ctx, []int64{id1, 999999}, nil)
		return err
	})
	require.Error(t, err)
	pe, ok := err.(manager.PersistenceError)
	require.True(t, ok)
	assert.Equal(t, manager.NotFound, pe.Code)
}

func TestScenario5_LikeConcatenation(t *testing.T) {
	table := schema.Table{
		Name: "games",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Int64, PrimaryKey: true},
			{Name: "key", Type: schema.String},
			{Name: "value", Type: schema.String},
		},
	}
	cat, err := schema.NewMemory([]schema.Table{table})
	require.NoError(t, err)
	root, _ := cat.LookupTable("games")
	m := manager.New(root, cat)
	db := memdriver.NewDB(cat.TableNames())

	err = manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		for _, kv := range [][2]string{{"arkanoid", "noid"}, {"pacman", "pac"}, {"supergirl", "ergi"}} {
			if _, err := m.Create(ctx, map[string]schema.Value{"key": val(kv[0]), "value": val(kv[1])}); err != nil {
				return err
			}
		}
		return nil
	})
	require.NoError(t, err)

	run := func(src string) []string {
		node, err := parser.Parse(src)
		require.NoError(t, err)
		var rows []map[string]schema.Value
		err = manager.WithSession(context.Background(), db, func(ctx context.Context) error {
			var err error
			rows, err = m.Read(ctx, node, nil, nil, nil, nil, nil)
			return err
		})
		require.NoError(t, err)
		return keysOf(rows)
	}

	assert.ElementsMatch(t, []string{"arkanoid"}, run(`key like ("%" + value)`))
	assert.ElementsMatch(t, []string{"pacman"}, run(`key like (value + "%")`))
	assert.ElementsMatch(t, []string{"arkanoid", "pacman", "supergirl"}, run(`key like ("%" + value + "%")`))
}

func TestScenario6_UpdateManyByIDUnrecoverable(t *testing.T) {
	m, db := newItemsManager(t)
	ids := seedThreeRows(t, m, db)

	err := manager.WithSession(context.Background(), db, func(ctx context.Context) error {
		return m.UpdateManyByID(ctx, []int64{ids[0], 999999}, map[string]schema.Value{"value": val("z")})
	})
	require.Error(t, err)
	_, ok := err.(manager.UnrecoverablePersistenceError)
	assert.True(t, ok, "expected an UnrecoverablePersistenceError, got %T", err)
}

func keysOf(rows []map[string]schema.Value) []string {
	out := make([]string, len(rows))
	for i, r := range rows {
		out[i] = r["key"].S
	}
	return out
}
