// Package realtime answers queries that need up-to-date information by
// grounding a model call on fresh web search results.
package realtime

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"
)

// Result is one web search hit.
type Result struct {
	Title   string
	Snippet string
}

// Searcher is the web search boundary.
type Searcher interface {
	Search(ctx context.Context, query string) ([]Result, error)
}

// DefaultResultLimit is how many hits a search request asks for.
const DefaultResultLimit = 5

// SerpClient queries a SerpAPI-compatible search endpoint.
type SerpClient struct {
	apiKey     string
	baseURL    string
	httpClient *http.Client
}

const serpBaseURL = "https://serpapi.com/search.json"

// NewSerpClient creates a search client for the hosted endpoint.
func NewSerpClient(apiKey string) *SerpClient {
	return NewSerpClientWithBaseURL(apiKey, serpBaseURL)
}

// NewSerpClientWithBaseURL creates a search client against a custom endpoint
// (used by tests).
func NewSerpClientWithBaseURL(apiKey, baseURL string) *SerpClient {
	return &SerpClient{
		apiKey:  apiKey,
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: 15 * time.Second,
		},
	}
}

// Search returns up to DefaultResultLimit organic hits for the query.
func (c *SerpClient) Search(ctx context.Context, query string) ([]Result, error) {
	params := url.Values{}
	params.Set("q", query)
	params.Set("api_key", c.apiKey)
	params.Set("num", fmt.Sprint(DefaultResultLimit))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"?"+params.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("creating search request: %w", err)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("sending search request: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("search returned status %d: %s", resp.StatusCode, string(body))
	}

	var parsed struct {
		AnswerBox struct {
			Title  string `json:"title"`
			Answer string `json:"answer"`
		} `json:"answer_box"`
		OrganicResults []struct {
			Title   string `json:"title"`
			Snippet string `json:"snippet"`
		} `json:"organic_results"`
	}
	if err := json.NewDecoder(resp.Body).Decode(&parsed); err != nil {
		return nil, fmt.Errorf("decoding search response: %w", err)
	}

	var results []Result
	if parsed.AnswerBox.Answer != "" {
		results = append(results, Result{Title: parsed.AnswerBox.Title, Snippet: parsed.AnswerBox.Answer})
	}
	for _, r := range parsed.OrganicResults {
		results = append(results, Result{Title: r.Title, Snippet: r.Snippet})
		if len(results) >= DefaultResultLimit {
			break
		}
	}
	return results, nil
}
