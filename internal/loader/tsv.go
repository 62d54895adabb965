package loader

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
)

const maxLineBytes = 4 << 20

// geonamesColumns is the column order of the GeoNames dump files
// (allCountries.txt, cities500.txt, ...). Unnamed columns are ignored.
var geonamesColumns = []string{
	entity.ColID, entity.ColName, entity.ColASCIIName, entity.ColAlternateNames,
	entity.ColLatitude, entity.ColLongitude, entity.ColFeatureClass, entity.ColFeatureCode,
	entity.ColCountryCode, "", entity.ColAdmin1, entity.ColAdmin2, entity.ColAdmin3,
	entity.ColAdmin4, entity.ColPopulation, "", "", "", "",
}

// headerAliases maps common header spellings onto column names.
var headerAliases = map[string]string{
	"geonameid":      entity.ColID,
	"latitude":       entity.ColLatitude,
	"longitude":      entity.ColLongitude,
	"feature class":  entity.ColFeatureClass,
	"feature_class":  entity.ColFeatureClass,
	"featureclass":   entity.ColFeatureClass,
	"feature code":   entity.ColFeatureCode,
	"feature_code":   entity.ColFeatureCode,
	"featurecode":    entity.ColFeatureCode,
	"country code":   entity.ColCountryCode,
	"country_code":   entity.ColCountryCode,
	"countrycode":    entity.ColCountryCode,
	"admin1 code":    entity.ColAdmin1,
	"admin2 code":    entity.ColAdmin2,
	"admin3 code":    entity.ColAdmin3,
	"admin4 code":    entity.ColAdmin4,
	"alternatenames": entity.ColAlternateNames,
	"asciiname":      entity.ColASCIIName,
}

// TSV reads tab-separated gazetteer files: GeoNames dumps without a header,
// or files whose first line names the columns. Plain, .gz and .zip files are accepted.
type TSV struct {
	path string
}

// NewTSV creates a TSV loader.
func NewTSV(path string) *TSV { return &TSV{path: path} }

// Name implements Source.
func (t *TSV) Name() string { return "tsv:" + t.path }

// Read implements Source.
func (t *TSV) Read(ctx context.Context, emit func(entity.RawRow) error) error {
	r, closeFn, err := t.open()
	if err != nil {
		return err
	}
	defer closeFn()
	return ReadTSV(ctx, r, emit)
}

func (t *TSV) open() (io.Reader, func(), error) {
	path := filepath.Clean(t.path)
	switch strings.ToLower(filepath.Ext(path)) {
	case ".zip":
		return openZip(path)
	case ".gz":
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open: %w", err)
		}
		gz, err := gzip.NewReader(f)
		if err != nil {
			_ = f.Close()
			return nil, nil, fmt.Errorf("gzip: %w", err)
		}
		return gz, func() { _ = gz.Close(); _ = f.Close() }, nil
	default:
		f, err := os.Open(path)
		if err != nil {
			return nil, nil, fmt.Errorf("open: %w", err)
		}
		return f, func() { _ = f.Close() }, nil
	}
}

// openZip opens the first data member of a GeoNames zip (skipping readme files).
func openZip(path string) (io.Reader, func(), error) {
	zr, err := zip.OpenReader(path)
	if err != nil {
		return nil, nil, fmt.Errorf("open zip: %w", err)
	}
	for _, f := range zr.File {
		name := strings.ToLower(filepath.Base(f.Name))
		if f.FileInfo().IsDir() || strings.HasPrefix(name, "readme") {
			continue
		}
		rc, err := f.Open()
		if err != nil {
			_ = zr.Close()
			return nil, nil, fmt.Errorf("open zip member %s: %w", f.Name, err)
		}
		return rc, func() { _ = rc.Close(); _ = zr.Close() }, nil
	}
	_ = zr.Close()
	return nil, nil, fmt.Errorf("zip %s has no data member", path)
}

// ReadTSV parses tab-separated rows from r.
func ReadTSV(ctx context.Context, r io.Reader, emit func(entity.RawRow) error) error {
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 0, 64<<10), maxLineBytes)

	columns := geonamesColumns
	first := true
	line := 0
	for sc.Scan() {
		line++
		text := strings.TrimRight(sc.Text(), "\r")
		if text == "" || strings.HasPrefix(text, "#") {
			continue
		}
		fields := strings.Split(text, "\t")

		if first {
			first = false
			if hdr, ok := parseHeader(fields); ok {
				if col, missing := missingRequired(hdr.index); missing {
					return fmt.Errorf("header is missing required column %q", col)
				}
				columns = hdr.names
				continue
			}
		}

		if line%4096 == 0 {
			if err := ctx.Err(); err != nil {
				return err
			}
		}

		row := make(entity.RawRow, len(entity.Columns))
		for i, v := range fields {
			if i >= len(columns) || columns[i] == "" {
				continue
			}
			row[columns[i]] = v
		}
		if err := emit(row); err != nil {
			return err
		}
	}
	if err := sc.Err(); err != nil {
		return fmt.Errorf("scan line %d: %w", line+1, err)
	}
	return nil
}

type header struct {
	names []string
	index map[string]int
}

// parseHeader recognizes a header line by an id column in first position.
func parseHeader(fields []string) (header, bool) {
	if len(fields) == 0 {
		return header{}, false
	}
	if c := canonicalColumn(fields[0]); c != entity.ColID {
		return header{}, false
	}
	h := header{names: make([]string, len(fields)), index: make(map[string]int, len(fields))}
	for i, f := range fields {
		c := canonicalColumn(f)
		h.names[i] = c
		if c != "" {
			h.index[c] = i
		}
	}
	return h, true
}

func canonicalColumn(raw string) string {
	k := strings.ToLower(strings.TrimSpace(raw))
	if alias, ok := headerAliases[k]; ok {
		return alias
	}
	for _, c := range entity.Columns {
		if strings.ToLower(c) == k {
			return c
		}
	}
	return ""
}
