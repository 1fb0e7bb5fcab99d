package courtlistener

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

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

func TestSearchCaseLawWithoutKeyUsesFallback(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, testCaller(t))

	result, err := client.SearchCaseLaw(context.Background(), "Section 230 immunity", 5)
	if err != nil {
		t.Fatalf("SearchCaseLaw() error = %v", err)
	}
	if !result.Fallback {
		t.Fatal("result not labeled as fallback")
	}
	if len(result.Cases) != 2 {
		t.Fatalf("cases = %d, want 2", len(result.Cases))
	}
	if result.Cases[0].CaseName != "Fair Housing Council v. Roommates.com" {
		t.Fatalf("unexpected first case: %s", result.Cases[0].CaseName)
	}
}

func TestSearchCaseLawFallbackDefault(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, testCaller(t))

	result, err := client.SearchCaseLaw(context.Background(), "Obscure Statute 42", 5)
	if err != nil {
		t.Fatalf("SearchCaseLaw() error = %v", err)
	}
	if !result.Fallback {
		t.Fatal("result not labeled as fallback")
	}
	if len(result.Cases) != 1 {
		t.Fatalf("cases = %d, want 1", len(result.Cases))
	}
	if !strings.Contains(result.Cases[0].Snippet, "Obscure Statute 42") {
		t.Fatalf("snippet does not mention query: %s", result.Cases[0].Snippet)
	}
}

func TestSearchCaseLawAuthenticated(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if got := r.Header.Get("Authorization"); got != "Token secret" {
			t.Errorf("authorization = %q", got)
		}
		if got := r.URL.Query().Get("q"); got != "Clean Air Act" {
			t.Errorf("q = %q", got)
		}
		fmt.Fprint(w, `{"results":[
			{"caseName":"Massachusetts v. EPA","court":"scotus","dateFiled":"2007-04-02","snippet":"GHG authority.","absolute_url":"/opinion/1","citation":["549 U.S. 497"],"status":"Precedential"},
			{"caseName":"Other v. Case","court":"ca9","dateFiled":"2010-01-01"}
		]}`)
	}))
	t.Cleanup(server.Close)

	client := NewClient(
		Config{BaseURL: server.URL, APIKey: "secret"},
		testCaller(t),
		WithHTTPClient(server.Client()),
	)

	result, err := client.SearchCaseLaw(context.Background(), "Clean Air Act", 1)
	if err != nil {
		t.Fatalf("SearchCaseLaw() error = %v", err)
	}
	if result.Fallback {
		t.Fatal("live result labeled as fallback")
	}
	if len(result.Cases) != 1 {
		t.Fatalf("cases = %d, want 1 (limit applied)", len(result.Cases))
	}
	if result.Cases[0].CaseName != "Massachusetts v. EPA" {
		t.Fatalf("unexpected case: %s", result.Cases[0].CaseName)
	}
}

func TestSearchCaseLawFallsBackOnServerError(t *testing.T) {
	t.Parallel()

	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusServiceUnavailable)
	}))
	t.Cleanup(server.Close)

	client := NewClient(
		Config{BaseURL: server.URL, APIKey: "secret"},
		testCaller(t),
		WithHTTPClient(server.Client()),
	)

	result, err := client.SearchCaseLaw(context.Background(), "Clean Air Act", 5)
	if err != nil {
		t.Fatalf("SearchCaseLaw() error = %v", err)
	}
	if !result.Fallback {
		t.Fatal("expected fallback result after server error")
	}
}

func TestCaseDetailsRequiresKey(t *testing.T) {
	t.Parallel()

	client := NewClient(Config{}, testCaller(t))

	_, err := client.CaseDetails(context.Background(), "12345")
	if resilient.KindOf(err) != resilient.KindConfiguration {
		t.Fatalf("error = %v, want configuration error", err)
	}
	if !errors.Is(err, contract.ErrAPIKeyRequired) {
		t.Fatalf("error = %v, want ErrAPIKeyRequired", err)
	}
}

func TestFormatPrecedents(t *testing.T) {
	t.Parallel()

	result := contract.CaseLawResult{
		Query: "Section 230",
		Cases: []contract.Case{
			{CaseName: "Zeran v. America Online, Inc.", Court: "4th Circuit Court of Appeals", DateFiled: "1997-11-12", Snippet: "Broad immunity.", URL: "https://example.org/z"},
		},
	}
	got := FormatPrecedents(result)
	for _, want := range []string{
		"Found 1 court cases referencing Section 230:",
		"1. Zeran v. America Online, Inc. (4th Circuit Court of Appeals)",
		"   Date: 1997-11-12",
		"   Summary: Broad immunity.",
		"   Link: https://example.org/z",
	} {
		if !strings.Contains(got, want) {
			t.Fatalf("output missing %q:\n%s", want, got)
		}
	}

	empty := FormatPrecedents(contract.CaseLawResult{Query: "Nothing"})
	if empty != "No court cases found referencing Nothing." {
		t.Fatalf("empty output = %q", empty)
	}
}
