// Package loader reads gazetteer rows from GeoNames dumps, SQLite tables and
// parquet files. Every loader emits entity.RawRow keyed by the fixed column set.
package loader

import (
	"context"
	"fmt"
	"path/filepath"
	"strings"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

// Kind names a loader implementation.
type Kind string

// Supported loader kinds.
const (
	KindTSV     Kind = "tsv"
	KindSQLite  Kind = "sqlite"
	KindParquet Kind = "parquet"
)

// Source is a named row stream.
type Source interface {
	Name() string
	Read(ctx context.Context, emit func(entity.RawRow) error) error
}

// Config selects and configures a loader.
type Config struct {
	Kind  Kind
	Path  string
	Table string // sqlite only
}

// Open returns the loader for cfg. An empty Kind is inferred from the file extension.
func Open(cfg Config) (Source, error) {
	kind := cfg.Kind
	if kind == "" {
		kind = KindFromPath(cfg.Path)
	}
	switch kind {
	case KindTSV:
		return NewTSV(cfg.Path), nil
	case KindSQLite:
		return NewSQLite(cfg.Path, cfg.Table), nil
	case KindParquet:
		return NewParquet(cfg.Path), nil
	default:
		return nil, fmt.Errorf("unknown loader kind %q", kind)
	}
}

// KindFromPath guesses the loader from a file name.
func KindFromPath(path string) Kind {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".db", ".sqlite", ".sqlite3":
		return KindSQLite
	case ".parquet":
		return KindParquet
	default:
		return KindTSV
	}
}

// missingRequired returns the first required column absent from cols.
func missingRequired(cols map[string]int) (string, bool) {
	for _, c := range entity.RequiredColumns {
		if _, ok := cols[c]; !ok {
			return c, true
		}
	}
	return "", false
}
