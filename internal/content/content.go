// Package content normalizes user supplied question bodies.
package content

import (
	"regexp"
	"strings"
	"unicode/utf8"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

// Format names the markup a description was submitted in.
type Format string

const (
	FormatMarkdown Format = "markdown"
	FormatHTML     Format = "html"
)

// ExcerptLength is the maximum excerpt size in runes, ellipsis included.
const ExcerptLength = 240

var htmlTagPattern = regexp.MustCompile(`<(p|br|div|span|b|i|u|s|strong|em|a|code|pre|ul|ol|li|h[1-6]|blockquote|img)[\s>/]`)

// ContainsHTML reports whether s appears to carry HTML markup.
func ContainsHTML(s string) bool {
	return htmlTagPattern.MatchString(strings.ToLower(s))
}

// Normalize returns the Markdown body to store for a description.
// HTML input is converted; Markdown input is only trimmed.
func Normalize(body string, format Format) string {
	body = strings.TrimSpace(body)
	if format == FormatHTML {
		return ToMarkdown(body)
	}
	return body
}

// ToMarkdown converts HTML to Markdown. Input without HTML, or input the
// converter rejects, is returned unchanged.
func ToMarkdown(s string) string {
	if s == "" || !ContainsHTML(s) {
		return s
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return s
	}
	return strings.TrimSpace(markdown)
}

// PlainText strips HTML tags and Markdown decoration and collapses whitespace.
func PlainText(s string) string {
	if s == "" {
		return ""
	}

	doc, err := html.Parse(strings.NewReader(s))
	if err != nil {
		s = htmlTagRegex.ReplaceAllString(s, " ")
		s = html.UnescapeString(s)
	} else {
		var buf strings.Builder
		extractText(doc, &buf)
		s = buf.String()
	}

	s = markdownLinkRegex.ReplaceAllString(s, "$1")
	s = markdownMarkRegex.ReplaceAllString(s, "")
	return strings.TrimSpace(whitespaceRegex.ReplaceAllString(s, " "))
}

// Excerpt returns at most ExcerptLength runes of plain text, cut at a word
// boundary when one is close and ending in an ellipsis when shortened.
func Excerpt(s string) string {
	text := PlainText(s)
	if utf8.RuneCountInString(text) <= ExcerptLength {
		return text
	}

	runes := []rune(text)[:ExcerptLength-1]
	cut := string(runes)
	if i := strings.LastIndexByte(cut, ' '); i > len(cut)/2 {
		cut = cut[:i]
	}
	return strings.TrimRight(cut, " .,;:") + "…"
}

func extractText(n *html.Node, buf *strings.Builder) {
	if n.Type == html.TextNode {
		buf.WriteString(n.Data)
	}
	if n.Type == html.ElementNode {
		switch n.Data {
		case "script", "style":
			return
		case "p", "div", "br", "li", "pre", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}

	for c := n.FirstChild; c != nil; c = c.NextSibling {
		extractText(c, buf)
	}

	if n.Type == html.ElementNode {
		switch n.Data {
		case "p", "div", "li", "pre", "blockquote", "h1", "h2", "h3", "h4", "h5", "h6":
			buf.WriteString(" ")
		}
	}
}

var (
	htmlTagRegex      = regexp.MustCompile(`<[^>]*>`)
	whitespaceRegex   = regexp.MustCompile(`\s+`)
	markdownLinkRegex = regexp.MustCompile(`!?\[([^\]]*)\]\([^)]*\)`)
	// Headings, emphasis, code fences and quote markers.
	markdownMarkRegex = regexp.MustCompile("(?m)^\\s{0,3}(#{1,6}|>|[-*+])\\s+|[*`~]{1,3}")
)
