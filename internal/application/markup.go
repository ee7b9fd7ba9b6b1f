package application

import (
	"bytes"
	"html"
	"regexp"
	"strings"

	"github.com/microcosm-cc/bluemonday"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/extension"
	gmhtml "github.com/yuin/goldmark/renderer/html"
)

// Title lengths, in runes.
const (
	titleMaxLength       = 80
	titleTruncatedLength = 77
)

var (
	mdRenderer    goldmark.Markdown
	htmlSanitizer *bluemonday.Policy
	textStripper  *bluemonday.Policy

	// relativeHref matches href attributes without a scheme. Absolute URLs
	// never match because ':' is outside the character class.
	relativeHref = regexp.MustCompile(`href="/?([\w\-/.?&=@%#]*)"`)
)

func init() {
	mdRenderer = goldmark.New(
		goldmark.WithExtensions(extension.GFM),
		goldmark.WithRendererOptions(gmhtml.WithUnsafe()),
	)

	htmlSanitizer = bluemonday.UGCPolicy()
	textStripper = bluemonday.StrictPolicy()
}

// RenderMarkdown converts a markdown string to sanitized HTML.
// Returns empty string for empty input.
func RenderMarkdown(src string) string {
	if src == "" {
		return ""
	}

	var buf bytes.Buffer
	if err := mdRenderer.Convert([]byte(src), &buf); err != nil {
		return htmlSanitizer.Sanitize(src)
	}

	return htmlSanitizer.Sanitize(buf.String())
}

// AbsolutizeLinks rewrites site-relative href attributes in an HTML
// fragment so they point at base.
func AbsolutizeLinks(body, base string) string {
	base = strings.TrimRight(base, "/")
	return relativeHref.ReplaceAllString(body, `href="`+base+`/$1"`)
}

// SanitizeHTML applies the user-generated-content policy to an HTML fragment.
func SanitizeHTML(body string) string {
	return htmlSanitizer.Sanitize(body)
}

// PlainText strips all markup from an HTML fragment, decodes entities and
// collapses whitespace.
func PlainText(body string) string {
	stripped := html.UnescapeString(textStripper.Sanitize(body))
	return strings.Join(strings.Fields(stripped), " ")
}

// Truncate shortens s to titleTruncatedLength runes plus an ellipsis when it
// is longer than titleMaxLength runes.
func Truncate(s string) string {
	runes := []rune(s)
	if len(runes) <= titleMaxLength {
		return s
	}
	return string(runes[:titleTruncatedLength]) + "..."
}

// anchor builds an HTML link with the URL and text escaped.
func anchor(href, text string) string {
	return `<a href="` + html.EscapeString(href) + `">` + html.EscapeString(text) + `</a>`
}
