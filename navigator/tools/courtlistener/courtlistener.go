// Package courtlistener searches case law related to regulations through
// the CourtListener API, with a labeled fallback sample set for
// unauthenticated or unreachable runs.
package courtlistener

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/rs/zerolog"

	"github.com/policynav/policy-navigator/navigator/contract"
	logx "github.com/policynav/policy-navigator/pkg/logger"
	"github.com/policynav/policy-navigator/pkg/resilient"
)

// Config holds the client settings. APIKey is optional: without it the
// client serves the fallback sample set instead of failing.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://www.courtlistener.com/api/rest/v3"`
	APIKey  string        `envconfig:"API_KEY" split_words:"true"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	caller     *resilient.Caller
	log        zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, caller *resilient.Caller, opts ...Option) *Client {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	c := &Client{
		baseURL:    strings.TrimRight(cfg.BaseURL, "/"),
		apiKey:     strings.TrimSpace(cfg.APIKey),
		httpClient: &http.Client{Timeout: timeout},
		caller:     caller,
		log:        logx.Component("courtlistener"),
	}
	if c.apiKey == "" {
		c.log.Warn().Msg("no courtlistener api key configured, search falls back to sample data")
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

type searchResponse struct {
	Results []struct {
		CaseName    string   `json:"caseName"`
		Court       string   `json:"court"`
		DateFiled   string   `json:"dateFiled"`
		Snippet     string   `json:"snippet"`
		AbsoluteURL string   `json:"absolute_url"`
		Citation    []string `json:"citation"`
		Status      string   `json:"status"`
	} `json:"results"`
}

// SearchCaseLaw finds court cases referencing a regulation. Without an API
// key, or when the live search fails, it returns the fallback sample set
// with Fallback set — demo robustness, not a correctness guarantee.
func (c *Client) SearchCaseLaw(ctx context.Context, regulationRef string, limit int) (contract.CaseLawResult, error) {
	if limit <= 0 {
		limit = 5
	}
	c.log.Info().Str("regulation", regulationRef).Msg("searching case law")

	if c.apiKey == "" {
		return fallbackResult(regulationRef, limit), nil
	}

	params := url.Values{}
	params.Set("q", regulationRef)
	params.Set("type", "o")
	params.Set("order_by", "score desc")

	payload, err := resilient.Do(ctx, c.caller, "courtlistener.search", func(ctx context.Context) (searchResponse, error) {
		var out searchResponse
		err := c.getJSON(ctx, "/search/?"+params.Encode(), &out)
		return out, err
	})
	if err != nil {
		c.log.Error().Err(err).Msg("case law search failed, serving fallback sample")
		return fallbackResult(regulationRef, limit), nil
	}

	results := payload.Results
	if len(results) > limit {
		results = results[:limit]
	}
	cases := make([]contract.Case, 0, len(results))
	for _, r := range results {
		cases = append(cases, contract.Case{
			CaseName:  r.CaseName,
			Court:     r.Court,
			DateFiled: r.DateFiled,
			Snippet:   r.Snippet,
			URL:       r.AbsoluteURL,
			Citations: r.Citation,
			Status:    r.Status,
		})
	}

	c.log.Info().Int("found", len(cases)).Msg("case law search complete")
	return contract.CaseLawResult{Query: regulationRef, Cases: cases}, nil
}

// CaseDetails fetches one opinion. Unlike search there is no fallback: the
// endpoint requires a credential, so a missing key is a configuration error.
func (c *Client) CaseDetails(ctx context.Context, caseID string) (map[string]any, error) {
	if c.apiKey == "" {
		return nil, resilient.NewError(resilient.KindConfiguration, "api key required for detailed case information", contract.ErrAPIKeyRequired)
	}
	c.log.Info().Str("case", caseID).Msg("fetching case details")

	return resilient.Do(ctx, c.caller, "courtlistener.details", func(ctx context.Context) (map[string]any, error) {
		var out map[string]any
		err := c.getJSON(ctx, "/opinions/"+url.PathEscape(caseID)+"/", &out)
		return out, err
	})
}

// FormatPrecedents renders a case-law result as a readable numbered list.
func FormatPrecedents(result contract.CaseLawResult) string {
	if len(result.Cases) == 0 {
		return fmt.Sprintf("No court cases found referencing %s.", result.Query)
	}

	lines := []string{fmt.Sprintf("Found %d court cases referencing %s:", len(result.Cases), result.Query)}
	if result.Fallback {
		lines = append(lines, "(sample data - live case law search was unavailable)")
	}
	for i, cs := range result.Cases {
		lines = append(lines, fmt.Sprintf("\n%d. %s (%s)", i+1, cs.CaseName, cs.Court))
		lines = append(lines, fmt.Sprintf("   Date: %s", cs.DateFiled))
		if cs.Snippet != "" {
			lines = append(lines, fmt.Sprintf("   Summary: %s", cs.Snippet))
		}
		if cs.URL != "" {
			lines = append(lines, fmt.Sprintf("   Link: %s", cs.URL))
		}
	}
	return strings.Join(lines, "\n")
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.apiKey)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &resilient.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
