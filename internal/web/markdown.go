package web

import (
	"bytes"
	"html/template"
	"strings"

	"github.com/yuin/goldmark"
	emoji "github.com/yuin/goldmark-emoji"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	"github.com/yuin/goldmark/parser"
	"github.com/yuin/goldmark/renderer/html"
	"github.com/yuin/goldmark/text"
	"github.com/yuin/goldmark/util"
)

// descriptionHeadingFloor is the highest heading a description may use; the preview title is
// an h2 and its sections are h3.
const descriptionHeadingFloor = 4

// descriptionMarkdown renders item descriptions for the preview pane. Raw HTML is escaped
// (no html.WithUnsafe), which is what makes the output safe to mark as template.HTML.
var descriptionMarkdown = goldmark.New(
	goldmark.WithExtensions(extension.GFM, emoji.Emoji),
	goldmark.WithParserOptions(
		parser.WithASTTransformers(util.Prioritized(demoteHeadings{floor: descriptionHeadingFloor}, 100)),
	),
	goldmark.WithRendererOptions(html.WithHardWraps()),
)

// demoteHeadings shifts every heading down so an h1 lands on floor.
type demoteHeadings struct {
	floor int
}

func (d demoteHeadings) Transform(doc *ast.Document, _ text.Reader, _ parser.Context) {
	shift := d.floor - 1
	_ = ast.Walk(doc, func(n ast.Node, entering bool) (ast.WalkStatus, error) {
		if h, ok := n.(*ast.Heading); ok && entering {
			h.Level = min(h.Level+shift, 6)
		}
		return ast.WalkContinue, nil
	})
}

func renderMarkdownHTML(src string) template.HTML {
	src = strings.TrimSpace(src)
	if src == "" {
		return ""
	}
	var b bytes.Buffer
	if err := descriptionMarkdown.Convert([]byte(src), &b); err != nil {
		return template.HTML("<pre>" + template.HTMLEscapeString(src) + "</pre>")
	}
	return template.HTML(b.String())
}
