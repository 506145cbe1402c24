package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"golang.org/x/net/html"
)

// ScrapeClient extracts result headings and snippets from a search engine's
// HTML page. It is the keyless fallback when no search API key is configured.
type ScrapeClient struct {
	baseURL    string
	httpClient *http.Client
}

const scrapeBaseURL = "https://html.duckduckgo.com/html/"

// NewScrapeClient creates a scraping search client.
func NewScrapeClient() *ScrapeClient {
	return NewScrapeClientWithBaseURL(scrapeBaseURL)
}

// NewScrapeClientWithBaseURL creates a scraping client against a custom
// endpoint (used by tests).
func NewScrapeClientWithBaseURL(baseURL string) *ScrapeClient {
	return &ScrapeClient{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Search fetches the results page and walks its DOM for title/snippet pairs.
func (c *ScrapeClient) Search(ctx context.Context, query string) ([]Result, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?q="+url.QueryEscape(query), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}
	req.Header.Set("User-Agent", "Mozilla/5.0 (compatible; aura/1.0)")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("search page returned status %d", resp.StatusCode)
	}

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parsing search page: %w", err)
	}

	results := extractResults(doc)
	if len(results) > DefaultResultLimit {
		results = results[:DefaultResultLimit]
	}
	return results, nil
}

// extractResults pairs elements carrying a result-title class with the
// nearest following result-snippet element.
func extractResults(doc *html.Node) []Result {
	var results []Result
	var current *Result

	// Matched nodes are consumed whole: the walk does not descend into them,
	// so a link nested inside a title is not counted twice.
	var walk func(n *html.Node)
	walk = func(n *html.Node) {
		if n.Type == html.ElementNode {
			switch {
			case hasClass(n, "result__title"), hasClass(n, "result__a"):
				if current != nil && current.Title != "" {
					results = append(results, *current)
				}
				current = &Result{Title: collapseSpace(textContent(n))}
				return
			case hasClass(n, "result__snippet"):
				if current != nil && current.Snippet == "" {
					current.Snippet = collapseSpace(textContent(n))
				}
				return
			}
		}
		for child := n.FirstChild; child != nil; child = child.NextSibling {
			walk(child)
		}
	}
	walk(doc)

	if current != nil && current.Title != "" {
		results = append(results, *current)
	}
	return results
}

func hasClass(n *html.Node, class string) bool {
	for _, attr := range n.Attr {
		if attr.Key != "class" {
			continue
		}
		for _, c := range strings.Fields(attr.Val) {
			if c == class {
				return true
			}
		}
	}
	return false
}

func textContent(n *html.Node) string {
	if n.Type == html.TextNode {
		return n.Data
	}
	var sb strings.Builder
	for child := n.FirstChild; child != nil; child = child.NextSibling {
		sb.WriteString(textContent(child))
	}
	return sb.String()
}

func collapseSpace(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
