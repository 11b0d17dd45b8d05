// Command fqlserver is an HTTP facade over a Database: JSON endpoints
// for TableManager's Read, Count, Create, Update and Delete, grounded on
// ritamzico-pgraph/cmd/server's writeJSON/writeError/CORS middleware
// shape.
package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"

	root "github.com/nicolas-van/fql"
	"github.com/nicolas-van/fql/internal/schema"
)

var allowedOrigins = []string{
	"http://localhost:5173",
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}

func corsMiddleware(next http.Handler) http.Handler {
	allowed := make(map[string]struct{}, len(allowedOrigins))
	for _, o := range allowedOrigins {
		allowed[o] = struct{}{}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		origin := r.Header.Get("Origin")
		if _, ok := allowed[origin]; ok {
			w.Header().Set("Access-Control-Allow-Origin", origin)
			w.Header().Set("Access-Control-Allow-Methods", "POST, OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type")
		}
		if r.Method == http.MethodOptions {
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func loggingMiddleware(log *logrus.Logger, next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		next.ServeHTTP(w, r)
		log.WithFields(logrus.Fields{
			"method":   r.Method,
			"path":     r.URL.Path,
			"duration": time.Since(start).String(),
		}).Info("handled request")
	})
}

type queryRequest struct {
	Table  string         `json:"table"`
	Where  string         `json:"where"`
	Fields []string       `json:"fields"`
	Order  []string       `json:"order"`
	Limit  *int64         `json:"limit"`
	Offset *int64         `json:"offset"`
	Values map[string]any `json:"values"`
}

func main() {
	port := flag.Int("port", 8080, "port to listen on")
	schemaPath := flag.String("schema", "", "path to a YAML schema definition")
	flag.Parse()

	log := logrus.StandardLogger()

	if *schemaPath == "" {
		fmt.Fprintln(flag.CommandLine.Output(), "usage: fqlserver -schema <schema.yaml> [-port N]")
		return
	}
	cat, err := schema.LoadYAML(*schemaPath)
	if err != nil {
		log.WithError(err).Fatal("failed to load schema")
	}
	db := root.OpenMemory(cat)
	compiler := root.NewCompiler(root.DefaultCacheCapacity)

	mux := http.NewServeMux()

	mux.HandleFunc("/select", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		tm, err := db.TableManager(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		node, ok := compileWhere(w, compiler, req.Where)
		if !ok {
			return
		}
		var rows []map[string]schema.Value
		err = root.WithSession(r.Context(), db, func(ctx context.Context) error {
			var err error
			rows, err = tm.Read(ctx, node, nil, req.Fields, req.Order, req.Limit, req.Offset)
			return err
		})
		if !writeResultOrError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, encodeRows(rows))
	})

	mux.HandleFunc("/count", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		tm, err := db.TableManager(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		node, ok := compileWhere(w, compiler, req.Where)
		if !ok {
			return
		}
		var count int64
		err = root.WithSession(r.Context(), db, func(ctx context.Context) error {
			var err error
			count, err = tm.Count(ctx, node, nil)
			return err
		})
		if !writeResultOrError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"count": count})
	})

	mux.HandleFunc("/create", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		tm, err := db.TableManager(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		values, err := decodeValues(req.Values)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var id int64
		err = root.WithSession(r.Context(), db, func(ctx context.Context) error {
			var err error
			id, err = tm.Create(ctx, values)
			return err
		})
		if !writeResultOrError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"id": id})
	})

	mux.HandleFunc("/update", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		tm, err := db.TableManager(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		node, ok := compileWhere(w, compiler, req.Where)
		if !ok {
			return
		}
		values, err := decodeValues(req.Values)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		var count int64
		err = root.WithSession(r.Context(), db, func(ctx context.Context) error {
			var err error
			count, err = tm.Update(ctx, node, nil, values)
			return err
		})
		if !writeResultOrError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"updated": count})
	})

	mux.HandleFunc("/delete", func(w http.ResponseWriter, r *http.Request) {
		var req queryRequest
		if !decodeRequest(w, r, &req) {
			return
		}
		tm, err := db.TableManager(req.Table)
		if err != nil {
			writeError(w, http.StatusBadRequest, err.Error())
			return
		}
		node, ok := compileWhere(w, compiler, req.Where)
		if !ok {
			return
		}
		var count int64
		err = root.WithSession(r.Context(), db, func(ctx context.Context) error {
			var err error
			count, err = tm.Delete(ctx, node, nil)
			return err
		})
		if !writeResultOrError(w, err) {
			return
		}
		writeJSON(w, http.StatusOK, map[string]int64{"deleted": count})
	})

	addr := fmt.Sprintf(":%d", *port)
	log.WithField("addr", addr).Info("fqlserver listening")
	handler := loggingMiddleware(log, corsMiddleware(mux))
	if err := http.ListenAndServe(addr, handler); err != nil {
		log.WithError(err).Fatal("server error")
	}
}

func decodeRequest(w http.ResponseWriter, r *http.Request, req *queryRequest) bool {
	if r.Method != http.MethodPost {
		writeError(w, http.StatusMethodNotAllowed, "method not allowed")
		return false
	}
	if err := json.NewDecoder(r.Body).Decode(req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid JSON body")
		return false
	}
	if req.Table == "" {
		writeError(w, http.StatusBadRequest, "missing field: table")
		return false
	}
	return true
}

func compileWhere(w http.ResponseWriter, compiler *root.Compiler, where string) (root.Node, bool) {
	if where == "" {
		return nil, true
	}
	node, err := compiler.Compile(where)
	if err != nil {
		writeError(w, http.StatusUnprocessableEntity, err.Error())
		return nil, false
	}
	return node, true
}

// writeResultOrError reports err, if any, as an unprocessable-entity
// response — every error manager.TableManager can return (bind
// failures, PersistenceError, UnrecoverablePersistenceError) describes
// a problem with the request, never a server fault.
func writeResultOrError(w http.ResponseWriter, err error) bool {
	if err == nil {
		return true
	}
	writeError(w, http.StatusUnprocessableEntity, err.Error())
	return false
}

func decodeValues(raw map[string]any) (map[string]schema.Value, error) {
	out := make(map[string]schema.Value, len(raw))
	for k, v := range raw {
		switch tv := v.(type) {
		case nil:
			out[k] = schema.Null()
		case bool:
			out[k] = schema.BoolValue(tv)
		case string:
			out[k] = schema.StringValue(tv)
		case float64:
			if tv == float64(int64(tv)) {
				out[k] = schema.Int64Value(int64(tv))
			} else {
				out[k] = schema.Float64Value(tv)
			}
		default:
			return nil, fmt.Errorf("unsupported value for field %q", k)
		}
	}
	return out, nil
}

func encodeRows(rows []map[string]schema.Value) []map[string]any {
	out := make([]map[string]any, len(rows))
	for i, row := range rows {
		enc := make(map[string]any, len(row))
		for k, v := range row {
			enc[k] = encodeValue(v)
		}
		out[i] = enc
	}
	return out
}

func encodeValue(v schema.Value) any {
	if v.IsNil {
		return nil
	}
	switch v.Kind {
	case schema.Int64:
		return v.I
	case schema.Float64:
		return v.F
	case schema.String:
		return v.S
	case schema.Bool:
		return v.B
	case schema.DateTime:
		return v.T
	default:
		return nil
	}
}
