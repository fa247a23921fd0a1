package styles

import (
	"io/fs"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0644))
	return path
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, "custom.json", `{
  "AllSat": "fill=blue!40,",
  "Probably": "pattern=dots,"
}`)

	m, err := Load(path)
	require.NoError(t, err)

	assert.Equal(t, "fill=blue!40,", m["AllSat"], "file entry overrides the default")
	assert.Equal(t, "pattern=dots,", m["Probably"], "new labels are added")
	assert.Equal(t, Default()["AllViolated"], m["AllViolated"], "unmentioned labels keep defaults")
}

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, "custom.yaml", "AllViolated: \"fill=red!70,\"\nUnknown: \"fill=gray!10,\"\n")

	m, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, "fill=red!70,", m["AllViolated"])
	assert.Equal(t, "fill=gray!10,", m["Unknown"])
}

func TestLoad_Errors(t *testing.T) {
	t.Run("missing file", func(t *testing.T) {
		_, err := Load(filepath.Join(t.TempDir(), "gone.json"))
		assert.ErrorContains(t, err, "failed to read style file")
		assert.ErrorIs(t, err, fs.ErrNotExist, "callers probe the default path and classify this")
	})

	t.Run("bad json", func(t *testing.T) {
		_, err := Load(writeFile(t, "broken.json", `{"AllSat": 3}`))
		assert.ErrorContains(t, err, "failed to parse style file")
	})

	t.Run("unsupported extension", func(t *testing.T) {
		_, err := Load(writeFile(t, "styles.toml", "AllSat = 'x'"))
		assert.ErrorContains(t, err, "unsupported style file extension")
	})
}

func TestMerge_DoesNotMutate(t *testing.T) {
	base := map[string]string{"a": "1"}
	out := Merge(base, map[string]string{"a": "2", "b": "3"})

	assert.Equal(t, "1", base["a"])
	assert.Equal(t, "2", out["a"])
	assert.Equal(t, "3", out["b"])
}
