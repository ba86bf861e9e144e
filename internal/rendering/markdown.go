package rendering

import (
	"bytes"
	"html/template"
	"strings"
	"sync"

	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

var (
	markdownOnce sync.Once
	markdown     goldmark.Markdown
)

func markdownParser() goldmark.Markdown {
	markdownOnce.Do(func() {
		markdown = goldmark.New(
			goldmark.WithExtensions(
				extension.Strikethrough,
				extension.Linkify,
			),
		)
	})
	return markdown
}

// Markdown renders content as HTML. Raw HTML in the source is not passed
// through, so the result is safe to embed.
func Markdown(source string) template.HTML {
	var buf bytes.Buffer
	if err := markdownParser().Convert([]byte(source), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(source))
	}
	return template.HTML(buf.String())
}

// InlineMarkdown renders a single paragraph of content without the
// surrounding <p> element, for use inside list items and headings.
func InlineMarkdown(source string) template.HTML {
	rendered := strings.TrimSpace(string(Markdown(source)))
	if strings.HasPrefix(rendered, "<p>") && strings.HasSuffix(rendered, "</p>") &&
		strings.Count(rendered, "<p>") == 1 {
		rendered = strings.TrimSuffix(strings.TrimPrefix(rendered, "<p>"), "</p>")
	}
	return template.HTML(rendered)
}
