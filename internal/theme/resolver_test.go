package theme

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/framecast/internal/errors"
)

func TestResolveBuiltinDefault(t *testing.T) {
	r := NewResolver()

	th, err := r.Resolve("default")
	require.NoError(t, err)
	assert.Equal(t, "default", th.Name)
	assert.Contains(t, th.CSS, "background: #1a1a1a")
	assert.Equal(t, "Default", th.DisplayName)
}

func TestResolveBuiltinFlatFile(t *testing.T) {
	r := NewResolver()

	th, err := r.Resolve("light")
	require.NoError(t, err)
	assert.Contains(t, th.CSS, "background: #fafaf7")
}

func TestResolveUnknownThemeFails(t *testing.T) {
	r := NewResolver(t.TempDir())

	_, err := r.Resolve("no-such-theme")
	require.Error(t, err)
	assert.True(t, errors.IsCategory(err, errors.CategoryTheme))
	assert.Contains(t, err.Error(), "theme not found")
}

func TestResolveOverrideShadowsBuiltin(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "default.css"), []byte("body { background: #000; }"), 0600))

	r := NewResolver(dir)
	th, err := r.Resolve("default")
	require.NoError(t, err)
	assert.Equal(t, "body { background: #000; }", th.CSS)
}

func TestResolvePrefersDirectoryOverFlatFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "mine"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine", "theme.css"), []byte("/* dir */"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "mine.css"), []byte("/* flat */"), 0600))

	r := NewResolver(dir)
	th, err := r.Resolve("mine")
	require.NoError(t, err)
	assert.Equal(t, "/* dir */", th.CSS)
}

func TestResolveMissingOverrideDirFallsThrough(t *testing.T) {
	r := NewResolver(filepath.Join(t.TempDir(), "missing"))

	_, err := r.Resolve("default")
	require.NoError(t, err)
}

func TestResolveReadsManifest(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.MkdirAll(filepath.Join(dir, "gallery"), 0750))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gallery", "theme.css"), []byte("body {}"), 0600))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "gallery", "theme.yaml"),
		[]byte("name: Gallery Wall\ndescription: For the living room.\n"), 0600))

	r := NewResolver(dir)
	th, err := r.Resolve("gallery")
	require.NoError(t, err)
	assert.Equal(t, "Gallery Wall", th.DisplayName)
	assert.Equal(t, "For the living room.", th.Description)
}

func TestListIncludesBuiltinsAndOverrides(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "custom.css"), []byte("body {}"), 0600))

	r := NewResolver(dir)
	themes, err := r.List()
	require.NoError(t, err)

	names := make([]string, 0, len(themes))
	for _, th := range themes {
		names = append(names, th.Name)
	}
	assert.Contains(t, names, "default")
	assert.Contains(t, names, "light")
	assert.Contains(t, names, "custom")
	assert.IsIncreasing(t, names)
}
