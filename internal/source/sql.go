package source

import (
	"context"
	"database/sql"
	"fmt"
	"strings"

	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"
	_ "modernc.org/sqlite"

	"github.com/KaramelBytes/dashbrief-cli/internal/analysis"
)

// Driver names accepted by Query, after alias resolution.
const (
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMySQL    = "mysql"
)

var driverAliases = map[string]string{
	"sqlite": DriverSQLite, "sqlite3": DriverSQLite,
	"postgres": DriverPostgres, "postgresql": DriverPostgres, "pg": DriverPostgres,
	"mysql": DriverMySQL, "mariadb": DriverMySQL,
}

// ResolveDriver maps user-facing driver names to registered database/sql drivers.
func ResolveDriver(name string) (string, error) {
	if d, ok := driverAliases[strings.ToLower(strings.TrimSpace(name))]; ok {
		return d, nil
	}
	return "", fmt.Errorf("unsupported sql driver %q (use sqlite, postgres or mysql)", name)
}

// Query runs a read query and returns its result set as an untyped table.
// Column types reported by the driver seed the column types; Finish infers the rest.
// MySQL DSNs should carry parseTime=true so DATETIME columns arrive as times.
func Query(ctx context.Context, driver, dsn, query string) (*Table, error) {
	d, err := ResolveDriver(driver)
	if err != nil {
		return nil, err
	}
	db, err := sql.Open(d, dsn)
	if err != nil {
		return nil, fmt.Errorf("open %s: %w", d, err)
	}
	defer db.Close()
	return QueryDB(ctx, db, query)
}

// QueryDB is Query over an already opened handle.
func QueryDB(ctx context.Context, db *sql.DB, query string) (*Table, error) {
	rows, err := db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("run query: %w", err)
	}
	defer rows.Close()

	names, err := rows.Columns()
	if err != nil {
		return nil, fmt.Errorf("read columns: %w", err)
	}
	t := &Table{Name: "query", Columns: headerColumns(names)}
	if types, err := rows.ColumnTypes(); err == nil {
		for i, ct := range types {
			t.Columns[i].Type = sqlColumnType(ct.DatabaseTypeName())
		}
	}

	vals := make([]any, len(names))
	ptrs := make([]any, len(names))
	for i := range vals {
		ptrs[i] = &vals[i]
	}
	for rows.Next() {
		if err := rows.Scan(ptrs...); err != nil {
			return nil, fmt.Errorf("scan row %d: %w", len(t.Rows)+1, err)
		}
		row := make(analysis.Row, len(names))
		for i, c := range t.Columns {
			row[c.Key] = sqlValue(vals[i])
		}
		t.Rows = append(t.Rows, row)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate rows: %w", err)
	}
	return t, nil
}

// sqlColumnType maps a driver type name to a column type. Unknown names stay
// untyped so inference can look at the values.
func sqlColumnType(name string) analysis.ColumnType {
	n := strings.ToUpper(strings.TrimSpace(name))
	if i := strings.IndexByte(n, '('); i >= 0 {
		n = n[:i]
	}
	switch n {
	case "MONEY":
		return analysis.TypeCurrency
	case "INT", "INT2", "INT4", "INT8", "INTEGER", "TINYINT", "SMALLINT", "MEDIUMINT", "BIGINT",
		"UNSIGNED INT", "UNSIGNED BIGINT", "NUMERIC", "DECIMAL", "REAL", "FLOAT", "FLOAT4", "FLOAT8",
		"DOUBLE", "DOUBLE PRECISION", "NUMBER":
		return analysis.TypeNumber
	case "DATE", "DATETIME", "TIMESTAMP", "TIMESTAMPTZ":
		return analysis.TypeDate
	}
	return ""
}

func sqlValue(v any) any {
	switch x := v.(type) {
	case []byte:
		v = string(x)
	}
	if s, ok := v.(string); ok && strings.TrimSpace(s) == "" {
		return nil
	}
	return v
}
