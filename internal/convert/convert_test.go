package convert

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/klauspost/compress/gzip"
	"github.com/klauspost/compress/zstd"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"regiontikz/internal/regionresult"
	"regiontikz/internal/tikz"
)

const sampleInput = `0<=p<=1,0<=q<=1;
AllSat: 0<=p<=1/2,0<=q<=1;
AllViolated: 1/2<=p<=1,0<=q<=1;
`

func newTestConverter(opts ...Option) *Converter {
	cfg := tikz.DefaultConfig()
	cfg.Standalone = false
	return New(cfg, opts...)
}

func TestFile_Plain(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.regionresult")
	out := filepath.Join(dir, "grid.tex")
	require.NoError(t, os.WriteFile(in, []byte(sampleInput), 0644))

	res, err := newTestConverter().File(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Regions)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), `\begin{tikzpicture}`)
	assert.Contains(t, string(data), "{grid};", "title defaults to the input stem")
}

func TestFile_Gzip(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.regionresult.gz")
	out := filepath.Join(dir, "grid.tex")

	f, err := os.Create(in)
	require.NoError(t, err)
	zw := gzip.NewWriter(f)
	_, err = zw.Write([]byte(sampleInput))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	res, err := newTestConverter().File(context.Background(), in, out)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Regions)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Contains(t, string(data), "{grid};", "compression suffix must not leak into the title")
}

func TestFile_Zstd(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "grid.regionresult.zst")
	out := filepath.Join(dir, "grid.tex")

	f, err := os.Create(in)
	require.NoError(t, err)
	zw, err := zstd.NewWriter(f)
	require.NoError(t, err)
	_, err = zw.Write([]byte(sampleInput))
	require.NoError(t, err)
	require.NoError(t, zw.Close())
	require.NoError(t, f.Close())

	_, err = newTestConverter().File(context.Background(), in, out)
	require.NoError(t, err)
	assert.FileExists(t, out)
}

func TestFile_ParseFailureWritesNothing(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "broken.regionresult")
	out := filepath.Join(dir, "broken.tex")
	require.NoError(t, os.WriteFile(in, []byte("AllSat: 0<=p<=1,0<=q<=1\n"), 0644))

	_, err := newTestConverter().File(context.Background(), in, out)
	require.Error(t, err)
	assert.ErrorIs(t, err, regionresult.ErrFormat)
	assert.ErrorContains(t, err, in, "error should name the file")
	assert.NoFileExists(t, out)
}

func TestFile_FailureKeepsPreviousOutput(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.regionresult")
	out := filepath.Join(dir, "doc.tex")
	require.NoError(t, os.WriteFile(in, []byte("garbage\n"), 0644))
	require.NoError(t, os.WriteFile(out, []byte("previous good output"), 0644))

	_, err := newTestConverter().File(context.Background(), in, out)
	require.Error(t, err)

	data, err := os.ReadFile(out)
	require.NoError(t, err)
	assert.Equal(t, "previous good output", string(data))
}

func TestFile_ContextCanceled(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.regionresult")
	out := filepath.Join(dir, "doc.tex")
	require.NoError(t, os.WriteFile(in, []byte(sampleInput), 0644))

	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := newTestConverter().File(ctx, in, out)
	require.ErrorIs(t, err, context.Canceled)
	assert.NoFileExists(t, out)
}

func TestFileTo(t *testing.T) {
	dir := t.TempDir()
	in := filepath.Join(dir, "doc.regionresult")
	require.NoError(t, os.WriteFile(in, []byte(sampleInput), 0644))

	var buf bytes.Buffer
	res, err := newTestConverter().FileTo(context.Background(), in, &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Regions)
	assert.Contains(t, buf.String(), `\end{tikzpicture}`)
}

func TestReaderTo(t *testing.T) {
	var buf bytes.Buffer
	res, err := newTestConverter().ReaderTo(strings.NewReader(sampleInput), "piped", &buf)
	require.NoError(t, err)
	assert.Equal(t, 2, res.Regions)
	assert.Contains(t, buf.String(), "{piped};")
}

func TestConverter_UnknownOutcomes(t *testing.T) {
	input := "Custom: 0<=p<=1,0<=q<=1;\n"

	_, _, err := newTestConverter().Document([]byte(input), "")
	require.Error(t, err)

	cfg := tikz.DefaultConfig()
	cfg.Standalone = false
	cfg.Styles["Custom"] = "fill=teal!30,"
	markup, regions, err := New(cfg, WithUnknownOutcomes()).Document([]byte(input), "")
	require.NoError(t, err)
	assert.Equal(t, 1, regions)
	assert.Contains(t, markup, "fill=teal!30,")
}

func TestConverter_MaxRegions(t *testing.T) {
	markup, regions, err := newTestConverter(WithMaxRegions(2)).Document([]byte(sampleInput), "")
	require.NoError(t, err)
	assert.Equal(t, 2, regions)
	assert.NotEmpty(t, markup)

	_, _, err = newTestConverter(WithMaxRegions(1)).Document([]byte(sampleInput), "")
	require.Error(t, err)
	assert.ErrorIs(t, err, regionresult.ErrFormat)
	assert.ErrorContains(t, err, "exceeds the limit of 1")
}

func TestStem(t *testing.T) {
	assert.Equal(t, "model", Stem("in/model.regionresult"))
	assert.Equal(t, "model", Stem("model.regionresult.gz"))
	assert.Equal(t, "model", Stem("deep/tree/model.regionresult.zst"))
	assert.Equal(t, "noext", Stem("noext"))
	assert.Equal(t, "dotted.name", Stem("dotted.name.regionresult"))
}

func TestWriteAtomic_Overwrites(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out.tex")
	require.NoError(t, WriteAtomic(path, []byte("one")))
	require.NoError(t, WriteAtomic(path, []byte("two")))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "two", string(data))

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temp files may be left behind")
}
