// Package users is a worked example of a domain package built on top of
// manager.TableManager: account creation, password changes, and
// credential testing against a "users" table with "email" and
// "password_hash" columns.
//
// Grounded on original_source/asgard/users/__init__.py, which wraps a
// pluggable password-hashing "plugin" around the same create/update
// operations; here that plugin becomes the PasswordHasher interface.
package users

import (
	"context"

	"github.com/nicolas-van/fql/internal/fql/ast"
	"github.com/nicolas-van/fql/internal/manager"
	"github.com/nicolas-van/fql/internal/schema"
)

// PasswordHasher hashes and verifies passwords. It is a registry slot,
// not a hardcoded algorithm, so that the hashing scheme can be upgraded
// without touching Manager's call sites — the resolution of spec.md
// §9's open question on password storage.
type PasswordHasher interface {
	Hash(password string) (string, error)
	Verify(password, hash string) bool
}

// Manager manages a users table, storing passwords only as hashes
// produced by its PasswordHasher.
type Manager struct {
	*manager.TableManager
	hasher PasswordHasher
}

// New creates a users Manager over table using hasher for password
// storage.
func New(table *schema.Table, catalog schema.Catalog, hasher PasswordHasher) *Manager {
	return &Manager{
		TableManager: manager.New(table, catalog),
		hasher:       hasher,
	}
}

// CreateUser inserts a new user row, hashing password before storage.
// values may supply any other column of the table (e.g. "email"); it
// must not already contain "password_hash".
func (m *Manager) CreateUser(ctx context.Context, password string, values map[string]schema.Value) (int64, error) {
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return 0, err
	}
	row := make(map[string]schema.Value, len(values)+1)
	for k, v := range values {
		row[k] = v
	}
	row["password_hash"] = schema.StringValue(hash)
	return m.Create(ctx, row)
}

// SetPassword replaces the stored password hash for the user identified
// by id.
func (m *Manager) SetPassword(ctx context.Context, id int64, password string) error {
	hash, err := m.hasher.Hash(password)
	if err != nil {
		return err
	}
	return m.UpdateByID(ctx, id, map[string]schema.Value{"password_hash": schema.StringValue(hash)})
}

// TestUser reports whether password matches the stored hash for the
// user identified by email. A non-existent email is reported as a
// failed test, not an error — credential testing must not distinguish
// "wrong password" from "no such account" to a caller.
func (m *Manager) TestUser(ctx context.Context, email, password string) (bool, error) {
	rows, err := m.Read(ctx, emailEquals(email), nil, []string{"password_hash"}, nil, nil, nil)
	if err != nil {
		return false, err
	}
	if len(rows) == 0 {
		return false, nil
	}
	return m.hasher.Verify(password, rows[0]["password_hash"].S), nil
}

// ReadByEmail returns the requested fields for the user with the given
// email, or an error if no such user exists.
func (m *Manager) ReadByEmail(ctx context.Context, email string, fields []string) (map[string]schema.Value, error) {
	rows, err := m.Read(ctx, emailEquals(email), nil, fields, nil, nil, nil)
	if err != nil {
		return nil, err
	}
	if len(rows) == 0 {
		return nil, manager.PersistenceError{Code: manager.NotFound, Message: "no user with email " + email}
	}
	return rows[0], nil
}

func emailEquals(email string) ast.Node {
	return ast.Binary{
		Op:    ast.Eq,
		Left:  ast.Identifier{Path: []string{"email"}},
		Right: ast.Literal{Value: ast.Value{Kind: ast.String, S: email}},
	}
}
