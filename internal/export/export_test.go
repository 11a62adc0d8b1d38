package export

import (
	"bytes"
	"encoding/csv"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/zip"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/sanspareilsmyn/sensorlens/internal/dataframe"
)

func sampleTable(name string) *dataframe.Table {
	tbl := dataframe.NewTable(name)
	tbl.AppendRow(dataframe.RowOf("x", 1, "label", "walk, slow"))
	tbl.AppendRow(dataframe.RowOf("x", 2.5, "y", true))
	return tbl
}

func TestWriteCSV(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, sampleTable("t")))

	records, err := csv.NewReader(&buf).ReadAll()
	require.NoError(t, err)
	assert.Equal(t, [][]string{
		{"x", "label", "y"},
		{"1", "walk, slow", ""},
		{"2.5", "", "true"},
	}, records)
}

func TestWriteCSVEmptyTable(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, WriteCSV(&buf, dataframe.NewTable("")))
	assert.Equal(t, "\n", buf.String())
}

func readArchive(t *testing.T, data []byte) map[string]string {
	t.Helper()
	zr, err := zip.NewReader(bytes.NewReader(data), int64(len(data)))
	require.NoError(t, err)
	out := map[string]string{}
	for _, f := range zr.File {
		rc, err := f.Open()
		require.NoError(t, err)
		b, err := io.ReadAll(rc)
		require.NoError(t, err)
		require.NoError(t, rc.Close())
		out[f.Name] = string(b)
	}
	return out
}

func TestWriteArchiveDedupesNames(t *testing.T) {
	var buf bytes.Buffer
	names, err := WriteArchive(&buf, []*dataframe.Table{
		sampleTable("accel"), sampleTable("accel"), sampleTable("a/b"),
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"accel.csv", "accel-1.csv", "a_b.csv"}, names)

	files := readArchive(t, buf.Bytes())
	require.Len(t, files, 3)
	assert.True(t, strings.HasPrefix(files["accel-1.csv"], "x,label,y\n"))
}

func TestExporterWritesArchives(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "out")
	exp, err := NewExporter(Config{Directory: dir, Prefix: "run"}, zaptest.NewLogger(t))
	require.NoError(t, err)

	path, err := exp.Export([]*dataframe.Table{dataframe.NewTable("empty")})
	require.NoError(t, err)
	assert.Empty(t, path)

	path, err = exp.Export([]*dataframe.Table{sampleTable("accel"), dataframe.NewTable("empty")})
	require.NoError(t, err)
	require.NotEmpty(t, path)
	base := filepath.Base(path)
	assert.True(t, strings.HasPrefix(base, "run-"+exp.Session().String()+"-"), base)

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	files := readArchive(t, data)
	assert.Contains(t, files, "accel.csv")
	assert.NotContains(t, files, "empty.csv")

	second, err := exp.Export([]*dataframe.Table{sampleTable("accel")})
	require.NoError(t, err)
	assert.NotEqual(t, path, second)
}

func TestNewExporterRequiresDirectory(t *testing.T) {
	_, err := NewExporter(Config{}, zaptest.NewLogger(t))
	assert.ErrorIs(t, err, ErrNoDirectory)
}
