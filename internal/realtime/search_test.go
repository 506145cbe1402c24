package realtime

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
)

func TestSerpClient_ParsesOrganicResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.URL.Query().Get("q"); got != "golang release" {
			t.Errorf("query param = %q", got)
		}
		if got := r.URL.Query().Get("api_key"); got != "test-key" {
			t.Errorf("api_key param = %q", got)
		}
		fmt.Fprint(w, `{"organic_results":[
			{"title":"Go 1.25 released","snippet":"The latest Go release."},
			{"title":"Release notes","snippet":"What changed."}
		]}`)
	}))
	defer srv.Close()

	c := NewSerpClientWithBaseURL("test-key", srv.URL)
	got, err := c.Search(context.Background(), "golang release")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2", len(got))
	}
	if got[0].Title != "Go 1.25 released" || got[0].Snippet != "The latest Go release." {
		t.Errorf("first result = %+v", got[0])
	}
}

func TestSerpClient_AnswerBoxComesFirst(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"answer_box":{"title":"Weather","answer":"24 degrees"},
			"organic_results":[{"title":"Some site","snippet":"..."}]
		}`)
	}))
	defer srv.Close()

	c := NewSerpClientWithBaseURL("test-key", srv.URL)
	got, err := c.Search(context.Background(), "weather")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) < 2 || got[0].Snippet != "24 degrees" {
		t.Errorf("results = %+v, want answer box first", got)
	}
}

func TestSerpClient_ErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "invalid api key", http.StatusUnauthorized)
	}))
	defer srv.Close()

	c := NewSerpClientWithBaseURL("bad-key", srv.URL)
	if _, err := c.Search(context.Background(), "anything"); err == nil {
		t.Fatal("expected error on HTTP 401")
	}
}

func TestScrapeClient_ExtractsTitleSnippetPairs(t *testing.T) {
	page := `<html><body>
		<div class="result">
			<h2 class="result__title"><a class="result__a" href="#">First  Hit</a></h2>
			<a class="result__snippet">First snippet text.</a>
		</div>
		<div class="result">
			<h2 class="result__title"><a class="result__a" href="#">Second Hit</a></h2>
			<a class="result__snippet">Second snippet text.</a>
		</div>
	</body></html>`

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, page)
	}))
	defer srv.Close()

	c := NewScrapeClientWithBaseURL(srv.URL)
	got, err := c.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != 2 {
		t.Fatalf("got %d results, want 2: %+v", len(got), got)
	}
	if got[0].Title != "First Hit" || got[0].Snippet != "First snippet text." {
		t.Errorf("first result = %+v", got[0])
	}
	if got[1].Title != "Second Hit" || got[1].Snippet != "Second snippet text." {
		t.Errorf("second result = %+v", got[1])
	}
}

func TestScrapeClient_LimitsResults(t *testing.T) {
	var page string
	for i := 0; i < 10; i++ {
		page += fmt.Sprintf(`<h2 class="result__title">Hit %d</h2><a class="result__snippet">s</a>`, i)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, "<html><body>"+page+"</body></html>")
	}))
	defer srv.Close()

	c := NewScrapeClientWithBaseURL(srv.URL)
	got, err := c.Search(context.Background(), "anything")
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if len(got) != DefaultResultLimit {
		t.Errorf("got %d results, want %d", len(got), DefaultResultLimit)
	}
}
