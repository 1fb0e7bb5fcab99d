package ingest

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"

	"github.com/policynav/policy-navigator/navigator/contract"
	"github.com/policynav/policy-navigator/pkg/resilient"
)

func testCaller(t *testing.T) *resilient.Caller {
	t.Helper()
	return resilient.MustNew(
		resilient.Config{MaxRetries: 3, RetryDelay: time.Second},
		resilient.WithSleep(func(context.Context, time.Duration) error { return nil }),
	)
}

func TestScrapeFederalRegister(t *testing.T) {
	t.Parallel()

	var gotTerm, gotUserAgent string
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotTerm = r.URL.Query().Get("conditions[term]")
		gotUserAgent = r.Header.Get("User-Agent")
		fmt.Fprint(w, `{"results":[
			{"document_number":"2024-0001","title":"Air Quality Update","abstract":"Revised limits.","body_html_url":"https://example.gov/1","publication_date":"2024-02-01","type":"Rule","agencies":["EPA"]},
			{"title":"Untracked Notice","abstract":"No document number.","publication_date":"2024-02-02","type":"Notice","agencies":[]}
		]}`)
	}))
	t.Cleanup(server.Close)

	scraper := NewScraper(
		ScraperConfig{FederalRegisterURL: server.URL, UserAgent: "test-bot", Timeout: 5 * time.Second},
		testCaller(t),
		WithScraperHTTPClient(server.Client()),
	)

	docs, err := scraper.ScrapeFederalRegister(context.Background(), "air quality", 10)
	if err != nil {
		t.Fatalf("ScrapeFederalRegister() error = %v", err)
	}
	if gotTerm != "air quality" {
		t.Fatalf("conditions[term] = %q, want %q", gotTerm, "air quality")
	}
	if gotUserAgent != "test-bot" {
		t.Fatalf("user agent = %q, want test-bot", gotUserAgent)
	}
	if len(docs) != 2 {
		t.Fatalf("documents = %d, want 2", len(docs))
	}

	want := contract.Document{
		ID: "2024-0001", Title: "Air Quality Update", Text: "Revised limits.",
		URL: "https://example.gov/1", Date: "2024-02-01", Type: "Rule",
		Agencies: "EPA", Category: "Federal Register", Agency: "EPA",
	}
	if diff := cmp.Diff(want, docs[0]); diff != "" {
		t.Fatalf("first document mismatch (-want +got):\n%s", diff)
	}

	// A result without a document number still gets a usable id.
	if docs[1].ID == "" {
		t.Fatal("second document has empty id")
	}
	if docs[1].Agency != "Unknown" {
		t.Fatalf("second document agency = %q, want Unknown", docs[1].Agency)
	}
}

func TestScrapeFederalRegisterServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "nope", http.StatusBadGateway)
	}))
	t.Cleanup(server.Close)

	scraper := NewScraper(
		ScraperConfig{FederalRegisterURL: server.URL, Timeout: 5 * time.Second},
		testCaller(t),
		WithScraperHTTPClient(server.Client()),
	)

	_, err := scraper.ScrapeFederalRegister(context.Background(), "x", 5)
	if resilient.KindOf(err) != resilient.KindUnavailable {
		t.Fatalf("error = %v, want unavailable", err)
	}
}

func TestSaveLoadDocumentsRoundTrip(t *testing.T) {
	t.Parallel()

	scraper := NewScraper(ScraperConfig{}, testCaller(t))
	docs := scraper.EPARegulations()

	path := filepath.Join(t.TempDir(), "scraped_policies.json")
	if err := scraper.SaveDocuments(path, docs); err != nil {
		t.Fatalf("SaveDocuments() error = %v", err)
	}

	loaded, err := scraper.LoadDocuments(path)
	if err != nil {
		t.Fatalf("LoadDocuments() error = %v", err)
	}
	if diff := cmp.Diff(docs, loaded); diff != "" {
		t.Fatalf("round trip mismatch (-want +got):\n%s", diff)
	}
}
