// Package export renders notes into standalone HTML pages.
package export

import (
	"bytes"
	"fmt"
	"html/template"
	"os"
	"path/filepath"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"

	"github.com/starford/othala/internal/note"
	"github.com/starford/othala/internal/wikilink"
)

// Resolver reports whether a note id can be linked to.
type Resolver interface {
	Has(id string) bool
}

// Exporter converts note bodies to HTML. The goldmark engine is stateless
// and safe to share across calls.
type Exporter struct {
	md       goldmark.Markdown
	page     *template.Template
	resolver Resolver
}

// New builds an exporter that resolves [[id|title]] references through
// resolver. References to unindexed ids render as plain text.
func New(resolver Resolver) *Exporter {
	return &Exporter{
		md: goldmark.New(
			goldmark.WithExtensions(extension.GFM, extension.Linkify, extension.TaskList),
			goldmark.WithParserOptions(parser.WithAutoHeadingID()),
			goldmark.WithRendererOptions(html.WithUnsafe()),
		),
		page:     template.Must(template.New("page").Parse(pageTemplate)),
		resolver: resolver,
	}
}

const pageTemplate = `<!DOCTYPE html>
<html lang="en">
<head>
<meta charset="utf-8">
<title>{{.Title}}</title>
</head>
<body>
<article>
<h1>{{.Title}}</h1>
{{.Content}}
</article>
</body>
</html>
`

type pageData struct {
	Title   string
	Content template.HTML
}

// Page renders a single note into a complete HTML document.
func (e *Exporter) Page(n *note.Note) ([]byte, error) {
	if n == nil {
		return nil, fmt.Errorf("export: nil note")
	}
	body := e.resolveLinks(n.Body())

	var content bytes.Buffer
	if err := e.md.Convert([]byte(body), &content); err != nil {
		return nil, fmt.Errorf("export: render %s: %w", n.ID(), err)
	}

	var out bytes.Buffer
	err := e.page.Execute(&out, pageData{
		Title:   n.Title(),
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("export: page %s: %w", n.ID(), err)
	}
	return out.Bytes(), nil
}

// Site writes one HTML page per note into dir, named <id>.html, plus an
// index.html listing every page. dir is created if missing.
func (e *Exporter) Site(dir string, notes []*note.Note) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("export: create %s: %w", dir, err)
	}
	for _, n := range notes {
		page, err := e.Page(n)
		if err != nil {
			return err
		}
		path := filepath.Join(dir, n.ID()+".html")
		if err := os.WriteFile(path, page, 0o644); err != nil {
			return fmt.Errorf("export: write %s: %w", path, err)
		}
	}
	listing, err := e.listing(notes)
	if err != nil {
		return err
	}
	path := filepath.Join(dir, "index.html")
	if err := os.WriteFile(path, listing, 0o644); err != nil {
		return fmt.Errorf("export: write %s: %w", path, err)
	}
	return nil
}

// listing renders index.html from the same page frame, with the note list
// as generated markdown so headings and links go through one pipeline.
func (e *Exporter) listing(notes []*note.Note) ([]byte, error) {
	byType := map[string][]*note.Note{}
	var types []string
	for _, n := range notes {
		typ := n.Type()
		if _, seen := byType[typ]; !seen {
			types = append(types, typ)
		}
		byType[typ] = append(byType[typ], n)
	}

	var md bytes.Buffer
	for _, typ := range types {
		fmt.Fprintf(&md, "## %s\n\n", typ)
		for _, n := range byType[typ] {
			fmt.Fprintf(&md, "- [%s](%s.html)\n", n.Title(), n.ID())
		}
		md.WriteString("\n")
	}

	var content bytes.Buffer
	if err := e.md.Convert(md.Bytes(), &content); err != nil {
		return nil, fmt.Errorf("export: render index: %w", err)
	}
	var out bytes.Buffer
	err := e.page.Execute(&out, pageData{
		Title:   "Notes",
		Content: template.HTML(content.String()),
	})
	if err != nil {
		return nil, fmt.Errorf("export: render index: %w", err)
	}
	return out.Bytes(), nil
}

// resolveLinks rewrites [[id|title]] occurrences in body. Indexed targets
// become markdown links to the exported page; everything else flattens to
// its display text.
func (e *Exporter) resolveLinks(body string) string {
	return wikilink.ReplaceAll(body, func(id, title string) string {
		if title == "" {
			title = id
		}
		if e.resolver != nil && e.resolver.Has(id) {
			return fmt.Sprintf("[%s](%s.html)", title, id)
		}
		return title
	})
}
