package server

import (
	"html/template"

	"github.com/microcosm-cc/bluemonday"
)

// Sanitizer cleans rich text work order instructions before they are rendered
type Sanitizer struct {
	policy *bluemonday.Policy
}

// NewSanitizer allows basic formatting, lists, tables and absolute links only
func NewSanitizer() *Sanitizer {
	p := bluemonday.NewPolicy()
	p.AllowElements(
		"p", "br", "ul", "ol", "li",
		"blockquote", "strong", "em", "u", "s",
		"h3", "h4", "table", "thead", "tbody", "tr", "th", "td",
	)
	p.AllowAttrs("href").OnElements("a")
	p.AllowStandardURLs()
	p.AllowRelativeURLs(false)
	p.AddTargetBlankToFullyQualifiedLinks(true)
	p.RequireNoReferrerOnLinks(true)
	return &Sanitizer{policy: p}
}

// HTML returns s as template-safe markup
func (z *Sanitizer) HTML(s string) template.HTML {
	return template.HTML(z.policy.Sanitize(s))
}
