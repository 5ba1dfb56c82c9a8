package scraper

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/time/rate"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
)

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/91.0.4472.124 Safari/537.36"

// Crawler walks the online-help index page and fetches every relative .html
// page it links to, bounded by maxPages and throttled by a rate limiter so
// the docs host sees a polite request stream.
type Crawler struct {
	baseURL    string
	indexPage  string
	maxPages   int
	limiter    *rate.Limiter
	httpClient *http.Client
	logger     *slog.Logger
}

func NewCrawler(baseURL, indexPage string, maxPages int, rps float64, logger *slog.Logger) *Crawler {
	if maxPages <= 0 {
		maxPages = 200
	}
	if rps <= 0 {
		rps = 2.0
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Crawler{
		baseURL:    strings.TrimRight(baseURL, "/"),
		indexPage:  indexPage,
		maxPages:   maxPages,
		limiter:    rate.NewLimiter(rate.Limit(rps), 1),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

func (c *Crawler) Pages(ctx context.Context) ([]domain.ScrapedPage, error) {
	indexURL := c.baseURL + "/" + c.indexPage
	resp, err := c.fetch(ctx, indexURL)
	if err != nil {
		return nil, fmt.Errorf("fetch index page: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(resp.Body)
	resp.Body.Close()
	if err != nil {
		return nil, fmt.Errorf("parse index page: %w", err)
	}

	links := c.collectLinks(doc)
	c.logger.Info("docs_index_scanned", "url", indexURL, "links", len(links))

	pages := make([]domain.ScrapedPage, 0, len(links))
	for _, link := range links {
		if err := ctx.Err(); err != nil {
			return pages, err
		}

		page, err := c.fetchPage(ctx, link)
		if err != nil {
			c.logger.Warn("docs_page_skipped", "url", link, "error", err)
			continue
		}
		if page.Content == "" {
			continue
		}
		pages = append(pages, page)
	}

	c.logger.Info("docs_crawl_complete", "links", len(links), "pages", len(pages))
	return pages, nil
}

// collectLinks keeps relative .html hrefs in document order, deduplicated,
// capped at maxPages.
func (c *Crawler) collectLinks(doc *goquery.Document) []string {
	seen := make(map[string]struct{})
	links := make([]string, 0, c.maxPages)
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		if !strings.HasSuffix(href, ".html") || strings.HasPrefix(href, "http") {
			return true
		}
		if _, ok := seen[href]; ok {
			return true
		}
		seen[href] = struct{}{}
		links = append(links, c.baseURL+"/"+href)
		return len(links) < c.maxPages
	})
	return links
}

func (c *Crawler) fetchPage(ctx context.Context, url string) (domain.ScrapedPage, error) {
	resp, err := c.fetch(ctx, url)
	if err != nil {
		return domain.ScrapedPage{}, err
	}
	defer resp.Body.Close()

	title, content, err := ExtractPage(resp.Body)
	if err != nil {
		return domain.ScrapedPage{}, err
	}
	return domain.ScrapedPage{Title: title, URL: url, Content: content}, nil
}

func (c *Crawler) fetch(ctx context.Context, url string) (*http.Response, error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("fetch %s: %w", url, err)
	}
	if resp.StatusCode >= 300 {
		resp.Body.Close()
		return nil, fmt.Errorf("fetch %s: %s", url, resp.Status)
	}
	return resp, nil
}
