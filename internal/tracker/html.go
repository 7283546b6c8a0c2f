package tracker

import (
	"regexp"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"golang.org/x/net/html"
)

var htmlTagRegex = regexp.MustCompile(`<[a-zA-Z][^>]*>`)

// synopsisMarkdown renders a synopsis as markdown. Plain text only has its
// entities unescaped; HTML is converted.
func synopsisMarkdown(s string) string {
	s = strings.TrimSpace(s)
	if s == "" {
		return ""
	}
	if !htmlTagRegex.MatchString(s) {
		return html.UnescapeString(s)
	}

	markdown, err := htmltomarkdown.ConvertString(s)
	if err != nil {
		return html.UnescapeString(htmlTagRegex.ReplaceAllString(s, ""))
	}
	return strings.TrimSpace(markdown)
}

// plainTitle unescapes entities the tracker leaves in titles.
func plainTitle(s string) string {
	return strings.TrimSpace(html.UnescapeString(s))
}
