package loader

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/jmoiron/sqlx"
	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zip"
	"github.com/parquet-go/parquet-go"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/kailas-cloud/georecon/internal/domain/entity"
	"github.com/kailas-cloud/georecon/internal/entitystore"
)

// Two rows in GeoNames dump layout (19 tab-separated columns).
const geonamesDump = "2988507\tParis\tParis\tLutetia,Parigi\t48.85341\t2.3488\tP\tPPLC\tFR\t\t11\t75\t751\t75056\t2138551\t\t42\tEurope/Paris\t2024-01-01\n" +
	"# comment line\n" +
	"\n" +
	"2643743\tLondon\tLondon\t\t51.50853\t-0.12574\tP\tPPLC\tGB\t\tENG\tGLA\t\t\t7556900\t\t25\tEurope/London\t2024-01-01\n"

func collect(t *testing.T, src Source) []entity.RawRow {
	t.Helper()
	var rows []entity.RawRow
	require.NoError(t, src.Read(context.Background(), func(r entity.RawRow) error {
		rows = append(rows, r)
		return nil
	}))
	return rows
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func assertParis(t *testing.T, r entity.RawRow) {
	t.Helper()
	assert.Equal(t, "2988507", r[entity.ColID])
	assert.Equal(t, "Paris", r[entity.ColName])
	assert.Equal(t, "P", r[entity.ColFeatureClass])
	assert.Equal(t, "PPLC", r[entity.ColFeatureCode])
	assert.Equal(t, "FR", r[entity.ColCountryCode])
	assert.Equal(t, "11", r[entity.ColAdmin1])
	assert.Equal(t, "2138551", r[entity.ColPopulation])
	assert.Equal(t, "48.85341", r[entity.ColLatitude])
	assert.Equal(t, "Lutetia,Parigi", r[entity.ColAlternateNames])
}

func TestTSV_GeoNamesDump(t *testing.T) {
	rows := collect(t, NewTSV(writeFile(t, "cities.txt", geonamesDump)))
	require.Len(t, rows, 2)
	assertParis(t, rows[0])
	assert.Equal(t, "GB", rows[1][entity.ColCountryCode])
	assert.NotContains(t, rows[0], "")
}

func TestTSV_Gzip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cities.txt.gz")
	f, err := os.Create(path)
	require.NoError(t, err)
	gz := gzip.NewWriter(f)
	_, err = gz.Write([]byte(geonamesDump))
	require.NoError(t, err)
	require.NoError(t, gz.Close())
	require.NoError(t, f.Close())

	rows := collect(t, NewTSV(path))
	require.Len(t, rows, 2)
	assertParis(t, rows[0])
}

func TestTSV_Zip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "FR.zip")
	f, err := os.Create(path)
	require.NoError(t, err)
	zw := zip.NewWriter(f)
	readme, err := zw.Create("readme.txt")
	require.NoError(t, err)
	_, err = readme.Write([]byte("not data"))
	require.NoError(t, err)
	data, err := zw.Create("FR.txt")
	require.NoError(t, err)
	_, err = data.Write([]byte(geonamesDump))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	rows := collect(t, NewTSV(path))
	require.Len(t, rows, 2)
	assertParis(t, rows[0])
}

func TestTSV_HeaderMode(t *testing.T) {
	content := "geonameid\tname\tfeature class\tfeature code\tpopulation\tunknown\n" +
		"1\tSeine\tH\tSTM\t\tignored\n"
	rows := collect(t, NewTSV(writeFile(t, "rivers.tsv", content)))
	require.Len(t, rows, 1)
	assert.Equal(t, entity.RawRow{
		entity.ColID:           "1",
		entity.ColName:         "Seine",
		entity.ColFeatureClass: "H",
		entity.ColFeatureCode:  "STM",
		entity.ColPopulation:   "",
	}, rows[0])
}

func TestTSV_HeaderMissingRequiredColumn(t *testing.T) {
	src := NewTSV(writeFile(t, "bad.tsv", "id\tname\n1\tParis\n"))
	err := src.Read(context.Background(), func(entity.RawRow) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), entity.ColFeatureClass)
}

func TestTSV_ShortRowIsSkippedByStore(t *testing.T) {
	src := NewTSV(writeFile(t, "short.txt", "1\tParis\tParis\n"+geonamesDump))
	store, stats, err := entitystore.Load(context.Background(), src, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
	assert.Equal(t, 1, stats.Skipped[entity.SkipMissingColumn])
}

func TestTSV_MissingFile(t *testing.T) {
	err := NewTSV(filepath.Join(t.TempDir(), "nope.txt")).Read(context.Background(), func(entity.RawRow) error { return nil })
	assert.Error(t, err)
}

func TestSQLite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "gazetteer.db")
	db, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	db.MustExec(`CREATE TABLE geonames (
		geonameid INTEGER PRIMARY KEY,
		name TEXT NOT NULL,
		asciiname TEXT,
		alternatenames TEXT,
		latitude REAL,
		longitude REAL,
		feature_class TEXT,
		feature_code TEXT,
		country_code TEXT,
		population INTEGER,
		timezone TEXT
	)`)
	db.MustExec(`INSERT INTO geonames VALUES
		(2988507, 'Paris', 'Paris', 'Lutetia,Parigi', 48.85341, 2.3488, 'P', 'PPLC', 'FR', 2138551, 'Europe/Paris'),
		(2990474, 'Seine', NULL, NULL, NULL, NULL, 'H', 'STM', 'FR', NULL, NULL)`)
	require.NoError(t, db.Close())

	rows := collect(t, NewSQLite(path, ""))
	require.Len(t, rows, 2)
	assert.Equal(t, "2988507", rows[0][entity.ColID])
	assert.Equal(t, "2138551", rows[0][entity.ColPopulation])
	assert.Equal(t, "48.85341", rows[0][entity.ColLatitude])
	assert.Equal(t, "Lutetia,Parigi", rows[0][entity.ColAlternateNames])
	assert.NotContains(t, rows[1], entity.ColPopulation)

	store, _, err := entitystore.Load(context.Background(), NewSQLite(path, "geonames"), 0)
	require.NoError(t, err)
	assert.Equal(t, 2, store.Len())
}

func TestSQLite_Errors(t *testing.T) {
	path := filepath.Join(t.TempDir(), "g.db")
	db, err := sqlx.Connect("sqlite3", path)
	require.NoError(t, err)
	db.MustExec(`CREATE TABLE places (id TEXT, name TEXT)`)
	require.NoError(t, db.Close())

	noop := func(entity.RawRow) error { return nil }

	err = NewSQLite(path, "places").Read(context.Background(), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "missing required column")

	err = NewSQLite(path, "absent").Read(context.Background(), noop)
	require.Error(t, err)

	err = NewSQLite(path, "x; DROP TABLE places").Read(context.Background(), noop)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid table name")
}

type parquetPlace struct {
	ID             string   `parquet:"id"`
	Name           string   `parquet:"name"`
	FeatureClass   string   `parquet:"featureClass"`
	FeatureCode    string   `parquet:"featureCode"`
	Population     int64    `parquet:"population"`
	AlternateNames []string `parquet:"alternatenames,list"`
}

func TestParquet(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "places.parquet")
	require.NoError(t, parquet.WriteFile(path, []parquetPlace{
		{ID: "2988507", Name: "Paris", FeatureClass: "P", FeatureCode: "PPLC", Population: 2138551,
			AlternateNames: []string{"Lutetia", "Parigi"}},
		{ID: "2990474", Name: "Seine", FeatureClass: "H", FeatureCode: "STM"},
	}))

	rows := collect(t, NewParquet(path))
	require.Len(t, rows, 2)
	assert.Equal(t, "2988507", rows[0][entity.ColID])
	assert.Equal(t, "2138551", rows[0][entity.ColPopulation])
	assert.Equal(t, "Lutetia,Parigi", rows[0][entity.ColAlternateNames])
	assert.Equal(t, "H", rows[1][entity.ColFeatureClass])

	// a directory reads every parquet file in it
	dirRows := collect(t, NewParquet(dir))
	assert.Len(t, dirRows, 2)
}

func TestParquet_MissingRequiredColumn(t *testing.T) {
	type bare struct {
		ID string `parquet:"id"`
	}
	path := filepath.Join(t.TempDir(), "bare.parquet")
	require.NoError(t, parquet.WriteFile(path, []bare{{ID: "1"}}))

	err := NewParquet(path).Read(context.Background(), func(entity.RawRow) error { return nil })
	require.Error(t, err)
	assert.True(t, strings.Contains(err.Error(), "missing required column"))
}

func TestOpen(t *testing.T) {
	tests := []struct {
		cfg  Config
		want string
	}{
		{Config{Path: "allCountries.zip"}, "tsv:"},
		{Config{Path: "g.sqlite"}, "sqlite:"},
		{Config{Path: "p.parquet"}, "parquet:"},
		{Config{Kind: KindSQLite, Path: "x.bin", Table: "t"}, "sqlite:x.bin#t"},
	}
	for _, tt := range tests {
		src, err := Open(tt.cfg)
		require.NoError(t, err)
		assert.True(t, strings.HasPrefix(src.Name(), tt.want), src.Name())
	}

	_, err := Open(Config{Kind: "xml", Path: "a"})
	assert.Error(t, err)
}
