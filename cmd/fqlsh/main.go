// Command fqlsh is an interactive REPL for exploring an FQL schema and
// running read/write operations against an in-memory database, grounded
// on ritamzico-pgraph/cmd/cli's command-loop shape.
package main

import (
	"bufio"
	"context"
	"fmt"
	"os"
	"strconv"
	"strings"

	"github.com/sirupsen/logrus"

	root "github.com/nicolas-van/fql"
	"github.com/nicolas-van/fql/internal/schema"
)

const helpText = `fqlsh interactive shell

Commands:
  load <schema.yaml>           Load a schema and open a fresh in-memory database
  tables                       List tables in the loaded schema
  select <table> [<fql-where>] Read every column of rows matching an optional filter
  count <table> [<fql-where>]  Count rows matching an optional filter
  delete <table> <fql-where>   Delete rows matching a filter
  help                         Show this help message
  exit / quit                  Exit the shell
`

func main() {
	logrus.SetLevel(logrus.WarnLevel)

	var db *root.Database
	var compiler = root.NewCompiler(root.DefaultCacheCapacity)

	scanner := bufio.NewScanner(os.Stdin)
	fmt.Println("fqlsh — FQL interactive shell")
	fmt.Println(`Type "help" for available commands.`)
	fmt.Println()

	for {
		fmt.Print("> ")
		if !scanner.Scan() {
			break
		}
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		parts := strings.SplitN(line, " ", 2)
		cmd := strings.ToLower(parts[0])
		rest := ""
		if len(parts) > 1 {
			rest = strings.TrimSpace(parts[1])
		}

		switch cmd {
		case "exit", "quit":
			return

		case "help":
			fmt.Print(helpText)

		case "load":
			if rest == "" {
				fmt.Fprintln(os.Stderr, "usage: load <schema.yaml>")
				continue
			}
			cat, err := schema.LoadYAML(rest)
			if err != nil {
				fmt.Fprintf(os.Stderr, "error loading %q: %v\n", rest, err)
				continue
			}
			db = root.OpenMemory(cat)
			fmt.Printf("loaded schema %q (%d tables)\n", rest, len(cat.TableNames()))

		case "tables":
			if !requireDB(db) {
				continue
			}
			mem := db.Catalog.(*schema.Memory)
			for _, name := range mem.TableNames() {
				fmt.Println("  " + name)
			}

		case "select":
			if !requireDB(db) {
				continue
			}
			table, where := splitTableAndRest(rest)
			if table == "" {
				fmt.Fprintln(os.Stderr, "usage: select <table> [<fql-where>]")
				continue
			}
			runSelect(db, compiler, table, where)

		case "count":
			if !requireDB(db) {
				continue
			}
			table, where := splitTableAndRest(rest)
			if table == "" {
				fmt.Fprintln(os.Stderr, "usage: count <table> [<fql-where>]")
				continue
			}
			runCount(db, compiler, table, where)

		case "delete":
			if !requireDB(db) {
				continue
			}
			table, where := splitTableAndRest(rest)
			if table == "" || where == "" {
				fmt.Fprintln(os.Stderr, "usage: delete <table> <fql-where>")
				continue
			}
			runDelete(db, compiler, table, where)

		default:
			fmt.Fprintf(os.Stderr, "unknown command %q; type \"help\"\n", cmd)
		}
	}
}

func requireDB(db *root.Database) bool {
	if db == nil {
		fmt.Fprintln(os.Stderr, "no schema loaded — use 'load <schema.yaml>' first")
		return false
	}
	return true
}

func splitTableAndRest(s string) (table, rest string) {
	parts := strings.SplitN(s, " ", 2)
	table = parts[0]
	if len(parts) > 1 {
		rest = strings.TrimSpace(parts[1])
	}
	return table, rest
}

func runSelect(db *root.Database, compiler *root.Compiler, table, where string) {
	tm, err := db.TableManager(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	var node root.Node
	if where != "" {
		node, err = compiler.Compile(where)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			return
		}
	}
	var rows []map[string]schema.Value
	err = root.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		rows, err = tm.Read(ctx, node, nil, nil, nil, nil, nil)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	for _, row := range rows {
		fmt.Println(formatRow(row))
	}
	fmt.Printf("(%d rows)\n", len(rows))
}

func runCount(db *root.Database, compiler *root.Compiler, table, where string) {
	tm, err := db.TableManager(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	var node root.Node
	if where != "" {
		node, err = compiler.Compile(where)
		if err != nil {
			fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
			return
		}
	}
	var count int64
	err = root.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		count, err = tm.Count(ctx, node, nil)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Println(strconv.FormatInt(count, 10))
}

func runDelete(db *root.Database, compiler *root.Compiler, table, where string) {
	tm, err := db.TableManager(table)
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	node, err := compiler.Compile(where)
	if err != nil {
		fmt.Fprintf(os.Stderr, "parse error: %v\n", err)
		return
	}
	var count int64
	err = root.WithSession(context.Background(), db, func(ctx context.Context) error {
		var err error
		count, err = tm.Delete(ctx, node, nil)
		return err
	})
	if err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		return
	}
	fmt.Printf("deleted %d rows\n", count)
}

func formatRow(row map[string]schema.Value) string {
	keys := make([]string, 0, len(row))
	for k := range row {
		keys = append(keys, k)
	}
	var b strings.Builder
	for i, k := range keys {
		if i > 0 {
			b.WriteString("  ")
		}
		fmt.Fprintf(&b, "%s=%s", k, formatValue(row[k]))
	}
	return b.String()
}

func formatValue(v schema.Value) string {
	if v.IsNil {
		return "null"
	}
	switch v.Kind {
	case schema.String:
		return strconv.Quote(v.S)
	case schema.Int64:
		return strconv.FormatInt(v.I, 10)
	case schema.Float64:
		return strconv.FormatFloat(v.F, 'g', -1, 64)
	case schema.Bool:
		return strconv.FormatBool(v.B)
	default:
		return fmt.Sprintf("%v", v)
	}
}
