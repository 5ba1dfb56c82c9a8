package scraper

import (
	"fmt"
	"io"
	"regexp"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// Content container candidates, tried in order. Oracle's help pages have
// varied over time; the tail entries catch generic article layouts.
var contentSelectors = []string{
	"div.content",
	"div.body",
	"div.main-content",
	"div.topic-content",
	"div.section",
	"article",
	"main",
}

var (
	blankLines = regexp.MustCompile(`\n\s*\n`)
	whitespace = regexp.MustCompile(`\s+`)
)

// ExtractPage pulls the title and readable body text out of a documentation
// page. Script, style and page-chrome elements are dropped before text
// extraction.
func ExtractPage(r io.Reader) (title, content string, err error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", "", fmt.Errorf("parse page: %w", err)
	}

	title = strings.TrimSpace(doc.Find("h1").First().Text())

	var container *goquery.Selection
	for _, selector := range contentSelectors {
		if sel := doc.Find(selector).First(); sel.Length() > 0 {
			container = sel
			break
		}
	}
	if container == nil {
		container = doc.Find("body").First()
		if container.Length() == 0 {
			return title, "", nil
		}
	}

	container.Find("script, style, nav, header, footer, aside").Remove()

	content = container.Text()
	content = blankLines.ReplaceAllString(content, "\n\n")
	content = whitespace.ReplaceAllString(content, " ")
	return title, strings.TrimSpace(content), nil
}
