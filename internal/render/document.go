// Package render turns markdown or a goals list into a full HTML document on
// a fixed 1920x1080 canvas and captures it as a PNG with headless Chrome.
package render

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"strings"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"

	"git.home.luguber.info/inful/framecast/internal/config"
	"git.home.luguber.info/inful/framecast/internal/errors"
)

// Content is a rendered fragment ready for embedding in the document body.
type Content struct {
	HTML template.HTML
}

// md is the shared goldmark instance. GFM covers tables and strikethrough in
// notes pushed to the TV; the typographer keeps quotes and dashes pretty at
// gallery size.
var md = goldmark.New(
	goldmark.WithExtensions(extension.GFM, extension.Typographer),
	goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
)

// FromMarkdown converts markdown text into embeddable HTML.
func FromMarkdown(src []byte) (Content, error) {
	var buf bytes.Buffer
	if err := md.Convert(src, &buf); err != nil {
		return Content{}, errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "convert markdown")
	}
	return Content{HTML: template.HTML(buf.String())}, nil
}

// FromGoals synthesizes an unordered list from a plain-text goals file,
// one goal per non-empty line. Items are HTML-escaped.
func FromGoals(src []byte) Content {
	var b strings.Builder
	b.WriteString("<ul>\n")
	for _, line := range strings.Split(string(src), "\n") {
		goal := strings.TrimSpace(line)
		if goal == "" {
			continue
		}
		b.WriteString("<li>")
		b.WriteString(template.HTMLEscapeString(goal))
		b.WriteString("</li>\n")
	}
	b.WriteString("</ul>")
	return Content{HTML: template.HTML(b.String())}
}

// LoadContent reads the configured content file and converts it according
// to the configured source kind.
func LoadContent(cfg *config.Config) (Content, error) {
	data, err := os.ReadFile(cfg.ContentFile)
	if err != nil {
		return Content{}, errors.Wrap(err, errors.CategoryFileSystem, errors.SeverityFatal,
			fmt.Sprintf("read content file %s", cfg.ContentFile))
	}
	if cfg.Source == config.SourceGoals {
		return FromGoals(data), nil
	}
	return FromMarkdown(data)
}

// documentTemplate is the fixed-canvas page shell. Layout (canvas size,
// centering, container width) lives here; the theme contributes colors and
// typography on top.
var documentTemplate = template.Must(template.New("document").Parse(`<!DOCTYPE html>
<html>
<head>
<style>
* {
    margin: 0;
    padding: 0;
    box-sizing: border-box;
}
body {
    width: {{.Width}}px;
    height: {{.Height}}px;
    display: flex;
    align-items: center;
    justify-content: center;
    padding: 80px;
    overflow: hidden;
}
.container {
    max-width: 1400px;
}
</style>
<style>
{{.CSS}}
</style>
</head>
<body>
    <div class="container">
        {{.Body}}
    </div>
</body>
</html>
`))

// Document composes the content fragment and the resolved theme CSS into a
// complete static HTML page sized to the artwork canvas.
func Document(content Content, css string) (string, error) {
	var buf bytes.Buffer
	err := documentTemplate.Execute(&buf, struct {
		Width  int
		Height int
		CSS    template.CSS
		Body   template.HTML
	}{
		Width:  config.ImageWidth,
		Height: config.ImageHeight,
		CSS:    template.CSS(css),
		Body:   content.HTML,
	})
	if err != nil {
		return "", errors.Wrap(err, errors.CategoryRender, errors.SeverityFatal, "compose document")
	}
	return buf.String(), nil
}
