package extractor

import (
	"fmt"
	"io"

	"github.com/PuerkitoBio/goquery"
)

func extractHTML(r io.Reader) (string, error) {
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return "", fmt.Errorf("parse html: %w", err)
	}
	doc.Find("script, style, nav, header, footer, aside").Remove()
	return doc.Find("body").Text(), nil
}
