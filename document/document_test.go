package document

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewNumbersLines(t *testing.T) {
	d := New("doc.md", "first\nsecond\n\nfourth")
	require.Len(t, d.Lines, 4)
	assert.Equal(t, 1, d.Lines[0].Number)
	assert.Equal(t, "first", d.Lines[0].Text)
	assert.Equal(t, "", d.Lines[2].Text)
	assert.Equal(t, 4, d.Lines[3].Number)
}

func TestNewTolerantOfCRLF(t *testing.T) {
	d := New("doc.md", "first\r\nsecond\r\n")
	require.Len(t, d.Lines, 3)
	assert.Equal(t, "first", d.Lines[0].Text)
	assert.Equal(t, "second", d.Lines[1].Text)
	assert.Equal(t, "", d.Lines[2].Text)
}

func TestText(t *testing.T) {
	d := New("doc.md", "a\nb\nc\nd")
	assert.Equal(t, "b\nc", d.Text(2, 3))
	assert.Equal(t, "a\nb\nc\nd", d.Text(1, 4))
	assert.Equal(t, "", d.Text(10, 20))
}

func TestLoad(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "doc.md")
	require.NoError(t, os.WriteFile(path, []byte("hello\nworld"), 0644))

	d, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, d.Path)
	require.Len(t, d.Lines, 2)
	assert.Equal(t, "world", d.Lines[1].Text)

	_, err = Load(filepath.Join(dir, "absent.md"))
	assert.Error(t, err)
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(root, "docs", "prd"), 0755))
	for _, p := range []string{
		"README.md",
		"docs/ops.md",
		"docs/prd/checkout.md",
		"docs/prd/notes.txt",
	} {
		require.NoError(t, os.WriteFile(filepath.Join(root, filepath.FromSlash(p)), []byte("x"), 0644))
	}

	paths, err := Discover(root, []string{"**/*.md"})
	require.NoError(t, err)
	assert.Equal(t, []string{"README.md", "docs/ops.md", "docs/prd/checkout.md"}, paths)

	// Overlapping patterns de-duplicate.
	paths, err = Discover(root, []string{"**/*.md", "docs/**/*.md"})
	require.NoError(t, err)
	assert.Len(t, paths, 3)

	paths, err = Discover(root, []string{"**/*.yaml"})
	require.NoError(t, err)
	assert.Empty(t, paths)
}
