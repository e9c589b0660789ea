package service

import (
	"bytes"
	"html/template"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
)

// Markup turns post text written in Markdown into safe HTML.
type Markup struct {
	md        goldmark.Markdown
	sanitizer *bluemonday.Policy
}

// NewMarkup creates a Markup with GitHub-flavoured extensions.
func NewMarkup() *Markup {
	return &Markup{
		md: goldmark.New(goldmark.WithExtensions(extension.GFM)),
		// UGCPolicy keeps basic formatting like links, lists and emphasis
		// while stripping out dangerous HTML.
		sanitizer: bluemonday.UGCPolicy(),
	}
}

// Render converts text to sanitized HTML. On a conversion failure the
// escaped source text is returned instead.
func (m *Markup) Render(text string) template.HTML {
	var buf bytes.Buffer
	if err := m.md.Convert([]byte(text), &buf); err != nil {
		return template.HTML(template.HTMLEscapeString(text))
	}
	return template.HTML(m.sanitizer.SanitizeBytes(buf.Bytes()))
}
