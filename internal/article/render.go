package article

import (
	"github.com/gomarkdown/markdown"
	"github.com/gomarkdown/markdown/html"
	"github.com/gomarkdown/markdown/parser"
)

// RenderHTML converts article markdown to HTML.
func RenderHTML(content string) string {
	if content == "" {
		return ""
	}

	mdParser := parser.NewWithExtensions(parser.CommonExtensions | parser.AutoHeadingIDs)
	renderer := html.NewRenderer(html.RendererOptions{
		Flags: html.CommonFlags | html.HrefTargetBlank,
	})

	return string(markdown.ToHTML([]byte(content), mdParser, renderer))
}
