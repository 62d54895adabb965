package loader

import (
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"github.com/jmoiron/sqlx"
	_ "github.com/mattn/go-sqlite3" // sqlite3 driver

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// DefaultTable is the gazetteer table read when none is configured.
const DefaultTable = "geonames"

var tableNameRegex = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)

// SQLite reads a gazetteer table from a SQLite database.
type SQLite struct {
	path  string
	table string
}

// NewSQLite creates a SQLite loader. An empty table takes DefaultTable.
func NewSQLite(path, table string) *SQLite {
	if table == "" {
		table = DefaultTable
	}
	return &SQLite{path: path, table: table}
}

// Name implements Source.
func (s *SQLite) Name() string { return "sqlite:" + s.path + "#" + s.table }

// Read implements Source.
func (s *SQLite) Read(ctx context.Context, emit func(entity.RawRow) error) error {
	if !tableNameRegex.MatchString(s.table) {
		return fmt.Errorf("invalid table name %q", s.table)
	}
	db, err := sqlx.ConnectContext(ctx, "sqlite3", "file:"+s.path+"?mode=ro")
	if err != nil {
		return fmt.Errorf("connect sqlite: %w", err)
	}
	defer db.Close()

	selected, err := s.columns(ctx, db)
	if err != nil {
		return err
	}

	quoted := make([]string, len(selected))
	for i, c := range selected {
		quoted[i] = `"` + c.source + `"`
	}
	//nolint:gosec // table and column names are validated identifiers
	q := fmt.Sprintf("SELECT %s FROM %q", strings.Join(quoted, ", "), s.table)
	rows, err := db.QueryxContext(ctx, q)
	if err != nil {
		return fmt.Errorf("query %s: %w", s.table, err)
	}
	defer rows.Close()

	for rows.Next() {
		vals, err := rows.SliceScan()
		if err != nil {
			return fmt.Errorf("scan row: %w", err)
		}
		row := make(entity.RawRow, len(selected))
		for i, c := range selected {
			if vals[i] == nil {
				continue
			}
			row[c.name] = stringify(vals[i])
		}
		if err := emit(row); err != nil {
			return err
		}
	}
	return rows.Err()
}

type tableColumn struct {
	source string // column in the table
	name   string // canonical column
}

type pragmaColumn struct {
	CID       int     `db:"cid"`
	Name      string  `db:"name"`
	Type      string  `db:"type"`
	NotNull   int     `db:"notnull"`
	Default   *string `db:"dflt_value"`
	PrimaryPK int     `db:"pk"`
}

// columns maps the table's columns onto the canonical set.
func (s *SQLite) columns(ctx context.Context, db *sqlx.DB) ([]tableColumn, error) {
	var info []pragmaColumn
	if err := db.SelectContext(ctx, &info, fmt.Sprintf("PRAGMA table_info(%q)", s.table)); err != nil {
		return nil, fmt.Errorf("inspect table %s: %w", s.table, err)
	}
	if len(info) == 0 {
		return nil, fmt.Errorf("table %s not found", s.table)
	}

	var out []tableColumn
	index := make(map[string]int)
	for _, c := range info {
		name := canonicalColumn(c.Name)
		if name == "" {
			continue
		}
		if _, dup := index[name]; dup {
			continue
		}
		index[name] = len(out)
		out = append(out, tableColumn{source: c.Name, name: name})
	}
	if col, missing := missingRequired(index); missing {
		return nil, fmt.Errorf("table %s is missing required column %q", s.table, col)
	}
	return out, nil
}

func stringify(v any) string {
	switch x := v.(type) {
	case string:
		return x
	case []byte:
		return string(x)
	case int64:
		return strconv.FormatInt(x, 10)
	case float64:
		return strconv.FormatFloat(x, 'f', -1, 64)
	default:
		return fmt.Sprint(x)
	}
}
