package natives

import (
	"database/sql"
	"fmt"
	"strings"
	"sync"

	_ "github.com/denisenkom/go-mssqldb"
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"ember/internal/memory"
	"ember/internal/value"
	"ember/internal/vm"
)

// dbRegistry hands out integer handles for open *sql.DB connections —
// see the package doc comment for why Value can't carry the *sql.DB
// itself.
type dbRegistry struct {
	mu      sync.Mutex
	next    int
	open    map[int]*sql.DB
}

var dbs = &dbRegistry{open: map[int]*sql.DB{}}

func (r *dbRegistry) add(db *sql.DB) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.next++
	r.open[r.next] = db
	return r.next
}

func (r *dbRegistry) get(id int) (*sql.DB, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	db, ok := r.open[id]
	return db, ok
}

func (r *dbRegistry) remove(id int) {
	r.mu.Lock()
	defer r.mu.Unlock()
	delete(r.open, id)
}

// driverForDSN dispatches on the DSN's scheme so one native surface
// covers all four wired drivers.
func driverForDSN(dsn string) (driver, dataSource string, err error) {
	switch {
	case strings.HasPrefix(dsn, "mysql://"):
		return "mysql", strings.TrimPrefix(dsn, "mysql://"), nil
	case strings.HasPrefix(dsn, "postgres://"), strings.HasPrefix(dsn, "postgresql://"):
		return "postgres", dsn, nil
	case strings.HasPrefix(dsn, "sqlserver://"):
		return "sqlserver", dsn, nil
	case strings.HasPrefix(dsn, "sqlite://"):
		return "sqlite", strings.TrimPrefix(dsn, "sqlite://"), nil
	default:
		return "", "", fmt.Errorf("db_open: unrecognized DSN scheme in %q", dsn)
	}
}

func registerDatabase(v *vm.VM) {
	heap := v.Heap()

	v.DefineNative("db_open", func(args []value.Value) (value.Value, error) {
		dsn, err := argString(args, 0, "db_open")
		if err != nil {
			return value.Nil(), err
		}
		driver, source, err := driverForDSN(dsn)
		if err != nil {
			return value.Nil(), err
		}
		db, err := sql.Open(driver, source)
		if err != nil {
			return value.Nil(), fmt.Errorf("db_open: %w", err)
		}
		if err := db.Ping(); err != nil {
			db.Close()
			return value.Nil(), fmt.Errorf("db_open: %w", err)
		}
		return value.Number(float64(dbs.add(db))), nil
	})

	v.DefineNative("db_exec", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "db_exec")
		if err != nil {
			return value.Nil(), err
		}
		query, err := argString(args, 1, "db_exec")
		if err != nil {
			return value.Nil(), err
		}
		db, ok := dbs.get(int(id))
		if !ok {
			return value.Nil(), fmt.Errorf("db_exec: no open connection %d", int(id))
		}
		result, err := db.Exec(query)
		if err != nil {
			return value.Nil(), fmt.Errorf("db_exec: %w", err)
		}
		affected, _ := result.RowsAffected()
		return value.Number(float64(affected)), nil
	})

	// db_query runs a query and returns its first row's first column as
	// a best-effort scalar — the fixed Value union (spec.md section 3)
	// has no array or row type to carry a full result set.
	v.DefineNative("db_query", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "db_query")
		if err != nil {
			return value.Nil(), err
		}
		query, err := argString(args, 1, "db_query")
		if err != nil {
			return value.Nil(), err
		}
		db, ok := dbs.get(int(id))
		if !ok {
			return value.Nil(), fmt.Errorf("db_query: no open connection %d", int(id))
		}
		rows, err := db.Query(query)
		if err != nil {
			return value.Nil(), fmt.Errorf("db_query: %w", err)
		}
		defer rows.Close()
		if !rows.Next() {
			return value.Nil(), nil
		}
		cols, err := rows.Columns()
		if err != nil {
			return value.Nil(), fmt.Errorf("db_query: %w", err)
		}
		scanned := make([]interface{}, len(cols))
		ptrs := make([]interface{}, len(cols))
		for i := range scanned {
			ptrs[i] = &scanned[i]
		}
		if err := rows.Scan(ptrs...); err != nil {
			return value.Nil(), fmt.Errorf("db_query: %w", err)
		}
		if len(scanned) == 0 {
			return value.Nil(), nil
		}
		return scalarToValue(heap, scanned[0]), nil
	})

	v.DefineNative("db_close", func(args []value.Value) (value.Value, error) {
		id, err := argNumber(args, 0, "db_close")
		if err != nil {
			return value.Nil(), err
		}
		db, ok := dbs.get(int(id))
		if !ok {
			return value.Nil(), nil
		}
		db.Close()
		dbs.remove(int(id))
		return value.Nil(), nil
	})
}

func scalarToValue(heap *memory.Heap, v interface{}) value.Value {
	switch x := v.(type) {
	case nil:
		return value.Nil()
	case int64:
		return value.Number(float64(x))
	case float64:
		return value.Number(x)
	case bool:
		return value.Bool(x)
	case []byte:
		return value.NewString(heap, string(x))
	case string:
		return value.NewString(heap, x)
	default:
		return value.NewString(heap, fmt.Sprintf("%v", x))
	}
}
