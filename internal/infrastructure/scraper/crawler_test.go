package scraper

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
)

const indexHTML = `<html><body>
<a href="topic_a.html">Topic A</a>
<a href="topic_b.html">Topic B</a>
<a href="topic_a.html">Topic A again</a>
<a href="https://elsewhere.example.com/page.html">External</a>
<a href="image.png">Not a page</a>
<a href="topic_c.html">Topic C</a>
</body></html>`

const topicTemplate = `<html><body>
<nav>site navigation</nav>
<h1>%TITLE%</h1>
<div class="content">
  <script>tracking();</script>
  <p>%BODY%</p>
</div>
<footer>copyright</footer>
</body></html>`

func topicPage(title, body string) string {
	page := strings.ReplaceAll(topicTemplate, "%TITLE%", title)
	return strings.ReplaceAll(page, "%BODY%", body)
}

func newDocsServer(t *testing.T, pages map[string]string) *httptest.Server {
	t.Helper()
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		page, ok := pages[strings.TrimPrefix(r.URL.Path, "/")]
		if !ok {
			http.NotFound(w, r)
			return
		}
		_, _ = w.Write([]byte(page))
	}))
	t.Cleanup(server.Close)
	return server
}

func TestCrawlerWalksRelativeLinks(t *testing.T) {
	server := newDocsServer(t, map[string]string{
		"index.html":   indexHTML,
		"topic_a.html": topicPage("Saved Searches", "How to build a saved search."),
		"topic_b.html": topicPage("SuiteScript", "Scripting records in SuiteScript."),
		"topic_c.html": topicPage("Workflows", "Automating approvals with workflows."),
	})

	crawler := NewCrawler(server.URL, "index.html", 0, 1000, nil)
	pages, err := crawler.Pages(context.Background())
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 3 {
		t.Fatalf("expected 3 pages, got %d", len(pages))
	}
	if pages[0].Title != "Saved Searches" {
		t.Errorf("first page title = %q", pages[0].Title)
	}
	if !strings.Contains(pages[0].Content, "saved search") {
		t.Errorf("content missing body text: %q", pages[0].Content)
	}
	if strings.Contains(pages[0].Content, "navigation") || strings.Contains(pages[0].Content, "tracking") {
		t.Errorf("page chrome leaked into content: %q", pages[0].Content)
	}
	if !strings.HasSuffix(pages[1].URL, "/topic_b.html") {
		t.Errorf("page url = %q", pages[1].URL)
	}
}

func TestCrawlerRespectsMaxPages(t *testing.T) {
	server := newDocsServer(t, map[string]string{
		"index.html":   indexHTML,
		"topic_a.html": topicPage("A", "alpha"),
		"topic_b.html": topicPage("B", "beta"),
		"topic_c.html": topicPage("C", "gamma"),
	})

	crawler := NewCrawler(server.URL, "index.html", 2, 1000, nil)
	pages, err := crawler.Pages(context.Background())
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected 2 pages under the cap, got %d", len(pages))
	}
}

func TestCrawlerSkipsFailingPages(t *testing.T) {
	server := newDocsServer(t, map[string]string{
		"index.html":   indexHTML,
		"topic_a.html": topicPage("A", "alpha"),
		// topic_b.html missing on purpose.
		"topic_c.html": topicPage("C", "gamma"),
	})

	crawler := NewCrawler(server.URL, "index.html", 0, 1000, nil)
	pages, err := crawler.Pages(context.Background())
	if err != nil {
		t.Fatalf("Pages: %v", err)
	}
	if len(pages) != 2 {
		t.Fatalf("expected failing page to be skipped, got %d pages", len(pages))
	}
}

func TestExtractPageFallsBackToBody(t *testing.T) {
	html := `<html><body><h1>Bare Page</h1><p>plain paragraph text</p></body></html>`
	title, content, err := ExtractPage(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if title != "Bare Page" {
		t.Errorf("title = %q", title)
	}
	if !strings.Contains(content, "plain paragraph text") {
		t.Errorf("content = %q", content)
	}
}

func TestExtractPageCollapsesWhitespace(t *testing.T) {
	html := "<html><body><div class=\"content\"><p>first\n\n\n   second\t\tthird</p></div></body></html>"
	_, content, err := ExtractPage(strings.NewReader(html))
	if err != nil {
		t.Fatalf("ExtractPage: %v", err)
	}
	if content != "first second third" {
		t.Errorf("content = %q, want collapsed whitespace", content)
	}
}
