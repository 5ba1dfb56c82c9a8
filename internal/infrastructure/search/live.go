package search

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/avoronov/netsuite-assistant/internal/core/domain"
	"github.com/avoronov/netsuite-assistant/internal/infrastructure/scraper"
)

// Client queries a SearxNG-compatible JSON search endpoint, restricted to the
// documentation site. Result pages are fetched and reduced to readable text
// so they can serve directly as answer context.
type Client struct {
	searchURL  string
	docsPrefix string
	maxResults int
	httpClient *http.Client
	logger     *slog.Logger
}

func New(searchURL, docsBaseURL string, maxResults int, logger *slog.Logger) *Client {
	if maxResults <= 0 {
		maxResults = 5
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Client{
		searchURL:  strings.TrimRight(searchURL, "/"),
		docsPrefix: strings.TrimRight(docsBaseURL, "/") + "/",
		maxResults: maxResults,
		httpClient: &http.Client{Timeout: 30 * time.Second},
		logger:     logger,
	}
}

type searchResult struct {
	Title   string `json:"title"`
	URL     string `json:"url"`
	Content string `json:"content"`
}

func (c *Client) SearchDocumentation(ctx context.Context, query string) ([]domain.ScrapedPage, error) {
	siteFilter := strings.TrimPrefix(c.docsPrefix, "https://")
	scopedQuery := fmt.Sprintf("site:%s %s", siteFilter, query)

	endpoint := fmt.Sprintf("%s/search?q=%s&format=json", c.searchURL, url.QueryEscape(scopedQuery))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, fmt.Errorf("create search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return nil, fmt.Errorf("search request: %s", resp.Status)
	}

	var payload struct {
		Results []searchResult `json:"results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode search response: %w", err)
	}

	pages := make([]domain.ScrapedPage, 0, c.maxResults)
	for _, result := range payload.Results {
		if len(pages) >= c.maxResults {
			break
		}
		if !strings.HasPrefix(result.URL, c.docsPrefix) {
			continue
		}

		content, err := c.fetchPageText(ctx, result.URL)
		if err != nil {
			c.logger.Warn("search_result_skipped", "url", result.URL, "error", err)
			continue
		}
		if content == "" {
			continue
		}
		pages = append(pages, domain.ScrapedPage{
			Title:   result.Title,
			URL:     result.URL,
			Content: content,
			Snippet: result.Content,
		})
	}
	return pages, nil
}

func (c *Client) fetchPageText(ctx context.Context, pageURL string) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return "", fmt.Errorf("create page request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("fetch page: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return "", fmt.Errorf("fetch page: %s", resp.Status)
	}

	_, content, err := scraper.ExtractPage(resp.Body)
	if err != nil {
		return "", err
	}
	return content, nil
}
