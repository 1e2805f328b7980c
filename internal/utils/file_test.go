package utils

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestInsertSuffix(t *testing.T) {
	tests := []struct {
		name, suffix, want string
	}{
		{"photo.jpg", "_fh", "photo_fh.jpg"},
		{"photo.jpg", "_r90", "photo_r90.jpg"},
		{"a.b.png", "_gs", "a.b_gs.png"},
		{"dir.v2/img.webp", "_gb", "dir.v2/img_gb.webp"},
		{"dir.v2/img", "_fv", "dir.v2/img_fv"},
		{"noext", "_r15", "noext_r15"},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.want, InsertSuffix(tt.name, tt.suffix), tt.name)
	}
}

func TestIsImageFile(t *testing.T) {
	for _, name := range []string{"a.jpg", "b.JPEG", "c.png", "d.webp"} {
		assert.True(t, IsImageFile(name), name)
	}
	for _, name := range []string{"a.json", "b", "c.txt"} {
		assert.False(t, IsImageFile(name), name)
	}
}

func TestExistence(t *testing.T) {
	dir := t.TempDir()
	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, []byte("x"), 0o644))

	assert.True(t, FileExists(file))
	assert.False(t, FileExists(dir))
	assert.False(t, FileExists(filepath.Join(dir, "missing")))

	assert.True(t, DirExists(dir))
	assert.False(t, DirExists(file))
}

func TestEnsureDir(t *testing.T) {
	dir := filepath.Join(t.TempDir(), "a", "b")
	require.NoError(t, EnsureDir(dir))
	assert.True(t, DirExists(dir))
	require.NoError(t, EnsureDir(dir))
}
