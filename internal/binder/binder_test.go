package binder_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/nicolas-van/fql/internal/binder"
	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/fql/parser"
	"github.com/nicolas-van/fql/internal/relquery"
	"github.com/nicolas-van/fql/internal/schema"
)

// buildCatalog builds posts -> users -> organizations, with two foreign
// keys on posts so ambiguity can be exercised, and a deep enough chain
// to exercise FORBIDDEN_ID_THROUGH_FK.
func buildCatalog(t *testing.T) *schema.Memory {
	t.Helper()
	organizations := schema.Table{
		Name: "organizations",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Int64, PrimaryKey: true},
			{Name: "name", Type: schema.String},
		},
	}
	users := schema.Table{
		Name: "users",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Int64, PrimaryKey: true},
			{Name: "name", Type: schema.String},
			{Name: "organization_id", Type: schema.Int64, ForeignKeys: []schema.ForeignKey{{TargetTable: "organizations", TargetColumn: "id"}}},
		},
	}
	posts := schema.Table{
		Name: "posts",
		Columns: []schema.Column{
			{Name: "id", Type: schema.Int64, PrimaryKey: true},
			{Name: "title", Type: schema.String},
			{Name: "author_id", Type: schema.Int64, ForeignKeys: []schema.ForeignKey{{TargetTable: "users", TargetColumn: "id"}}},
			{Name: "reviewer_id", Type: schema.Int64, ForeignKeys: []schema.ForeignKey{{TargetTable: "users", TargetColumn: "id"}}},
			{Name: "approver_id", Type: schema.Int64, ForeignKeys: []schema.ForeignKey{
				{TargetTable: "users", TargetColumn: "id"},
				{TargetTable: "organizations", TargetColumn: "id"},
			}},
			{Name: "tag", Type: schema.String},
		},
	}
	cat, err := schema.NewMemory([]schema.Table{organizations, users, posts})
	require.NoError(t, err)
	return cat
}

func mustParse(t *testing.T, src string) ast.Node {
	t.Helper()
	node, err := parser.Parse(src)
	require.NoError(t, err)
	return node
}

func TestBindSimpleColumn(t *testing.T) {
	cat := buildCatalog(t)
	root, err := cat.LookupTable("posts")
	require.NoError(t, err)
	b := binder.New(cat)

	expr, _, err := b.Bind(mustParse(t, "title == 'hi'"), root, nil)
	require.NoError(t, err)
	bin := expr.(relquery.Binary)
	col := bin.Left.(relquery.Column)
	assert.Equal(t, "title", col.Column)
}

func TestBindNavigatesForeignKey(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	expr, join, err := b.Bind(mustParse(t, "author_id.name == 'alice'"), root, nil)
	require.NoError(t, err)
	bin := expr.(relquery.Binary)
	col := bin.Left.(relquery.Column)
	assert.Equal(t, "name", col.Column)
	assert.NotEqual(t, "users", col.Table.DisplayName(), "navigated table should be aliased")

	child, ok := join.Child("author_id")
	require.True(t, ok)
	assert.Equal(t, "users", child.Table.Name)
}

func TestBindDistinctForeignKeysGetDistinctAliases(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	expr, _, err := b.Bind(mustParse(t, "author_id.name == reviewer_id.name"), root, nil)
	require.NoError(t, err)
	bin := expr.(relquery.Binary)
	left := bin.Left.(relquery.Column)
	right := bin.Right.(relquery.Column)
	assert.NotEqual(t, left.Table.DisplayName(), right.Table.DisplayName())
}

func TestBindUnknownColumn(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "nonexistent == 1"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.UnknownColumn, err.(binder.Error).Code)
}

func TestBindNotAForeignKey(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "tag.anything == 1"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.NotAForeignKey, err.(binder.Error).Code)
}

func TestBindAmbiguousForeignKey(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "approver_id.name == 'x'"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.AmbiguousForeignKey, err.(binder.Error).Code)
}

func TestBindForbiddenIDThroughForeignKey(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "author_id.id == 1"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.ForbiddenIDThroughFK, err.(binder.Error).Code)
}

func TestBindUnboundVariable(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "title == :missing"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.UnboundVariable, err.(binder.Error).Code)
}

func TestBindOperatorMisuse(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	_, _, err := b.Bind(mustParse(t, "'literal' in [1, 2]"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.OperatorMisuse, err.(binder.Error).Code)

	_, _, err = b.Bind(mustParse(t, "title == [1, 2]"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.OperatorMisuse, err.(binder.Error).Code)

	_, _, err = b.Bind(mustParse(t, "1 like title"), root, nil)
	require.Error(t, err)
	assert.Equal(t, binder.OperatorMisuse, err.(binder.Error).Code)
}

func TestBindVariableSubstitution(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	expr, _, err := b.Bind(mustParse(t, "title == :title"), root, map[string]schema.Value{"title": schema.StringValue("hi")})
	require.NoError(t, err)
	bin := expr.(relquery.Binary)
	param := bin.Right.(relquery.Param)
	assert.Equal(t, "hi", param.Value.S)
}

func TestBindNilWhereYieldsFreshJoin(t *testing.T) {
	cat := buildCatalog(t)
	root, _ := cat.LookupTable("posts")
	b := binder.New(cat)

	expr, join, err := b.Bind(nil, root, nil)
	require.NoError(t, err)
	assert.Nil(t, expr)
	assert.Equal(t, "posts", join.Table.Name)
	assert.Empty(t, join.SortedChildren())
}
