// Package fedreg talks to the Federal Register API: executive-order status,
// regulation search, and recent-document lookups.
package fedreg

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strconv"
	"time"

	"github.com/rs/zerolog"

	logx "github.com/policynav/policy-navigator/pkg/logger"
	"github.com/policynav/policy-navigator/pkg/resilient"
)

const sourceName = "Federal Register API"

// Config holds the client settings.
type Config struct {
	BaseURL string        `envconfig:"BASE_URL" split_words:"true" default:"https://www.federalregister.gov/api/v1"`
	Timeout time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Client issues read-only queries against the Federal Register. Every
// request goes through the resilient caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	caller     *resilient.Caller
	log        zerolog.Logger
}

// Option customizes a Client.
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
		baseURL:    cfg.BaseURL,
		httpClient: &http.Client{Timeout: timeout},
		caller:     caller,
		log:        logx.Component("fedreg"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c
}

// EOStatus reports whether an executive order is on record. A miss is a
// typed not_found result, not an error.
type EOStatus struct {
	Status          string `json:"status"`
	ExecutiveOrder  string `json:"executive_order"`
	Title           string `json:"title,omitempty"`
	PublicationDate string `json:"publication_date,omitempty"`
	SigningDate     string `json:"signing_date,omitempty"`
	URL             string `json:"url,omitempty"`
	Source          string `json:"source"`
	Message         string `json:"message,omitempty"`
}

// Regulation is one search hit.
type Regulation struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	PublicationDate string   `json:"publication_date"`
	Type            string   `json:"type"`
	Agencies        []string `json:"agencies"`
	URL             string   `json:"url"`
}

type documentsResponse struct {
	Results []struct {
		DocumentNumber       string   `json:"document_number"`
		Title                string   `json:"title"`
		Abstract             string   `json:"abstract"`
		PublicationDate      string   `json:"publication_date"`
		SigningDate          string   `json:"signing_date"`
		Type                 string   `json:"type"`
		Agencies             []string `json:"agencies"`
		HTMLURL              string   `json:"html_url"`
		ExecutiveOrderNumber string   `json:"executive_order_number"`
	} `json:"results"`
}

// CheckExecutiveOrderStatus looks up an executive order by number.
func (c *Client) CheckExecutiveOrderStatus(ctx context.Context, orderNumber string) (EOStatus, error) {
	c.log.Info().Str("order", orderNumber).Msg("checking executive order status")

	params := url.Values{}
	params.Set("conditions[term]", "Executive Order "+orderNumber)
	params.Set("per_page", "5")
	for _, f := range []string{"title", "publication_date", "type", "html_url", "executive_order_number", "signing_date"} {
		params.Add("fields[]", f)
	}

	payload, err := resilient.Do(ctx, c.caller, "federal_register.eo_status", func(ctx context.Context) (documentsResponse, error) {
		var out documentsResponse
		err := c.getJSON(ctx, "/documents.json?"+params.Encode(), &out)
		return out, err
	})
	if err != nil {
		return EOStatus{}, err
	}

	if len(payload.Results) == 0 {
		return EOStatus{
			Status:         "not_found",
			ExecutiveOrder: orderNumber,
			Message:        "No records found for Executive Order " + orderNumber,
			Source:         sourceName,
		}, nil
	}

	first := payload.Results[0]
	return EOStatus{
		Status:          "active",
		ExecutiveOrder:  orderNumber,
		Title:           first.Title,
		PublicationDate: first.PublicationDate,
		SigningDate:     first.SigningDate,
		URL:             first.HTMLURL,
		Source:          sourceName,
	}, nil
}

// Fields flattens the status for the response formatter, leaving absent
// values out so they are omitted rather than rendered empty.
func (s EOStatus) Fields() map[string]any {
	fields := map[string]any{
		"status": s.Status,
		"source": s.Source,
	}
	if s.Title != "" {
		fields["title"] = s.Title
	}
	if s.PublicationDate != "" {
		fields["publication_date"] = s.PublicationDate
	}
	if s.URL != "" {
		fields["url"] = s.URL
	}
	return fields
}

// SearchOptions narrows a regulation search.
type SearchOptions struct {
	Agency       string
	DocumentType string
	MaxResults   int
}

// SearchRegulations searches Federal Register documents by free text.
func (c *Client) SearchRegulations(ctx context.Context, term string, opts SearchOptions) ([]Regulation, error) {
	maxResults := opts.MaxResults
	if maxResults <= 0 {
		maxResults = 10
	}
	c.log.Info().Str("term", term).Msg("searching regulations")

	params := url.Values{}
	params.Set("conditions[term]", term)
	params.Set("per_page", strconv.Itoa(min(maxResults, 100)))
	for _, f := range []string{"title", "abstract", "publication_date", "type", "agencies", "html_url", "document_number"} {
		params.Add("fields[]", f)
	}
	if opts.Agency != "" {
		params.Add("conditions[agencies][]", opts.Agency)
	}
	if opts.DocumentType != "" {
		params.Set("conditions[type]", opts.DocumentType)
	}

	payload, err := resilient.Do(ctx, c.caller, "federal_register.search", func(ctx context.Context) (documentsResponse, error) {
		var out documentsResponse
		err := c.getJSON(ctx, "/documents.json?"+params.Encode(), &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	regulations := make([]Regulation, 0, len(payload.Results))
	for _, r := range payload.Results {
		regulations = append(regulations, Regulation{
			DocumentNumber:  r.DocumentNumber,
			Title:           r.Title,
			Abstract:        r.Abstract,
			PublicationDate: r.PublicationDate,
			Type:            r.Type,
			Agencies:        r.Agencies,
			URL:             r.HTMLURL,
		})
	}

	c.log.Info().Int("found", len(regulations)).Msg("regulation search complete")
	return regulations, nil
}

// RecentDocuments fetches documents published in the last N days, optionally
// filtered by type.
func (c *Client) RecentDocuments(ctx context.Context, days int, documentType string) ([]Regulation, error) {
	if days <= 0 {
		days = 7
	}
	end := time.Now()
	start := end.AddDate(0, 0, -days)
	c.log.Info().
		Str("from", start.Format("2006-01-02")).
		Str("to", end.Format("2006-01-02")).
		Msg("fetching recent documents")

	params := url.Values{}
	params.Set("conditions[publication_date][gte]", start.Format("2006-01-02"))
	params.Set("conditions[publication_date][lte]", end.Format("2006-01-02"))
	params.Set("per_page", "20")
	for _, f := range []string{"title", "publication_date", "type", "agencies", "html_url"} {
		params.Add("fields[]", f)
	}
	if documentType != "" {
		params.Set("conditions[type]", documentType)
	}

	payload, err := resilient.Do(ctx, c.caller, "federal_register.recent", func(ctx context.Context) (documentsResponse, error) {
		var out documentsResponse
		err := c.getJSON(ctx, "/documents.json?"+params.Encode(), &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	regulations := make([]Regulation, 0, len(payload.Results))
	for _, r := range payload.Results {
		regulations = append(regulations, Regulation{
			Title:           r.Title,
			PublicationDate: r.PublicationDate,
			Type:            r.Type,
			Agencies:        r.Agencies,
			URL:             r.HTMLURL,
		})
	}
	return regulations, nil
}

func (c *Client) getJSON(ctx context.Context, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return err
	}
	req.Header.Set("Accept", "application/json")

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
