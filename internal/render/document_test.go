package render

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"git.home.luguber.info/inful/framecast/internal/config"
)

func TestFromMarkdownConvertsHeadingsAndEmphasis(t *testing.T) {
	c, err := FromMarkdown([]byte("# Today\n\nShip the *thing*.\n"))
	require.NoError(t, err)
	assert.Contains(t, string(c.HTML), "<h1>Today</h1>")
	assert.Contains(t, string(c.HTML), "<em>thing</em>")
}

func TestFromMarkdownSupportsGFMTables(t *testing.T) {
	c, err := FromMarkdown([]byte("| a | b |\n|---|---|\n| 1 | 2 |\n"))
	require.NoError(t, err)
	assert.Contains(t, string(c.HTML), "<table>")
}

func TestFromGoalsBuildsEscapedList(t *testing.T) {
	c := FromGoals([]byte("Run 5k\n\n  Read <more> books  \n"))
	html := string(c.HTML)
	assert.Contains(t, html, "<li>Run 5k</li>")
	assert.Contains(t, html, "<li>Read &lt;more&gt; books</li>")
	assert.NotContains(t, html, "<li></li>")
}

func TestDocumentEmbedsCanvasSizeAndTheme(t *testing.T) {
	c := FromGoals([]byte("one goal"))
	doc, err := Document(c, "body { background: #123456; }")
	require.NoError(t, err)

	assert.Contains(t, doc, "width: 1920px")
	assert.Contains(t, doc, "height: 1080px")
	assert.Contains(t, doc, "background: #123456")
	assert.Contains(t, doc, "<li>one goal</li>")
	assert.Contains(t, doc, "<!DOCTYPE html>")
}

func TestLoadContentChoosesSourceKind(t *testing.T) {
	dir := t.TempDir()
	mdPath := filepath.Join(dir, "note.md")
	require.NoError(t, os.WriteFile(mdPath, []byte("# hi"), 0600))

	markdown, err := LoadContent(&config.Config{Source: config.SourceMarkdown, ContentFile: mdPath})
	require.NoError(t, err)
	assert.Contains(t, string(markdown.HTML), "<h1>hi</h1>")

	goals, err := LoadContent(&config.Config{Source: config.SourceGoals, ContentFile: mdPath})
	require.NoError(t, err)
	assert.Contains(t, string(goals.HTML), "<li># hi</li>")
}

func TestLoadContentMissingFile(t *testing.T) {
	_, err := LoadContent(&config.Config{Source: config.SourceMarkdown, ContentFile: filepath.Join(t.TempDir(), "gone.md")})
	require.Error(t, err)
}
