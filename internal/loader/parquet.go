package loader

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/parquet-go/parquet-go"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

const parquetBatchRows = 1000

// Parquet reads gazetteer rows from a parquet file or a directory of them.
// Repeated (list) columns are joined with commas.
type Parquet struct {
	path string
}

// NewParquet creates a parquet loader.
func NewParquet(path string) *Parquet { return &Parquet{path: path} }

// Name implements Source.
func (p *Parquet) Name() string { return "parquet:" + p.path }

// Read implements Source.
func (p *Parquet) Read(ctx context.Context, emit func(entity.RawRow) error) error {
	files, err := p.files()
	if err != nil {
		return err
	}
	for _, f := range files {
		if err := readParquetFile(ctx, f, emit); err != nil {
			return fmt.Errorf("read %s: %w", filepath.Base(f), err)
		}
	}
	return nil
}

func (p *Parquet) files() ([]string, error) {
	info, err := os.Stat(p.path)
	if err != nil {
		return nil, fmt.Errorf("stat: %w", err)
	}
	if !info.IsDir() {
		return []string{p.path}, nil
	}
	files, err := filepath.Glob(filepath.Join(p.path, "*.parquet"))
	if err != nil {
		return nil, fmt.Errorf("glob parquet files: %w", err)
	}
	if len(files) == 0 {
		return nil, fmt.Errorf("no parquet files found in %s", p.path)
	}
	sort.Strings(files)
	return files, nil
}

func readParquetFile(ctx context.Context, path string, emit func(entity.RawRow) error) error {
	f, err := os.Open(filepath.Clean(path))
	if err != nil {
		return fmt.Errorf("open: %w", err)
	}
	defer func() { _ = f.Close() }()

	stat, err := f.Stat()
	if err != nil {
		return fmt.Errorf("stat: %w", err)
	}
	pf, err := parquet.OpenFile(f, stat.Size())
	if err != nil {
		return fmt.Errorf("open parquet: %w", err)
	}

	cols, index := resolveParquetColumns(pf)
	if col, missing := missingRequired(index); missing {
		return fmt.Errorf("schema is missing required column %q", col)
	}

	buf := make([]parquet.Row, parquetBatchRows)
	for _, rg := range pf.RowGroups() {
		if err := ctx.Err(); err != nil {
			return err
		}
		rows := parquet.NewRowGroupReader(rg)
		for {
			n, readErr := rows.ReadRows(buf)
			for i := 0; i < n; i++ {
				if err := emit(parquetRow(buf[i], cols)); err != nil {
					return err
				}
			}
			if readErr != nil {
				if errors.Is(readErr, io.EOF) {
					break
				}
				return fmt.Errorf("read rows: %w", readErr)
			}
		}
	}
	return nil
}

// resolveParquetColumns maps leaf column indexes onto canonical names.
func resolveParquetColumns(pf *parquet.File) (map[int]string, map[string]int) {
	byLeaf := make(map[int]string)
	index := make(map[string]int)
	for i, path := range pf.Schema().Columns() {
		if len(path) == 0 {
			continue
		}
		name := canonicalColumn(path[0])
		if name == "" {
			continue
		}
		if _, dup := index[name]; dup {
			continue
		}
		byLeaf[i] = name
		index[name] = i
	}
	return byLeaf, index
}

func parquetRow(row parquet.Row, cols map[int]string) entity.RawRow {
	out := make(entity.RawRow, len(cols))
	for _, v := range row {
		name, ok := cols[v.Column()]
		if !ok || v.IsNull() {
			continue
		}
		// values may alias reader buffers that are reused by the next ReadRows
		s := strings.Clone(v.String())
		if prev, seen := out[name]; seen && prev != "" {
			s = strings.Join([]string{prev, s}, ",")
		}
		out[name] = s
	}
	return out
}
