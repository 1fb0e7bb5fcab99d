package ingest

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"os"
	"strconv"
	"time"

	"github.com/bytedance/sonic"
	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/policynav/policy-navigator/navigator/contract"
	logx "github.com/policynav/policy-navigator/pkg/logger"
	"github.com/policynav/policy-navigator/pkg/resilient"
)

// ScraperConfig controls the policy document scraper.
type ScraperConfig struct {
	FederalRegisterURL string        `envconfig:"FEDERAL_REGISTER_URL" split_words:"true" default:"https://www.federalregister.gov/api/v1"`
	UserAgent          string        `envconfig:"USER_AGENT" split_words:"true" default:"Mozilla/5.0 (PolicyNavigatorAgent/1.0; Research Bot)"`
	Delay              time.Duration `envconfig:"DELAY" split_words:"true" default:"1s"`
	Timeout            time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
}

// Scraper collects policy documents from public sources, pacing its
// requests with a politeness delay.
type Scraper struct {
	baseURL    string
	userAgent  string
	delay      time.Duration
	httpClient *http.Client
	caller     *resilient.Caller
	log        zerolog.Logger
}

// ScraperOption customizes a Scraper.
type ScraperOption func(*Scraper)

func WithScraperHTTPClient(client *http.Client) ScraperOption {
	return func(s *Scraper) {
		if client != nil {
			s.httpClient = client
		}
	}
}

func NewScraper(cfg ScraperConfig, caller *resilient.Caller, opts ...ScraperOption) *Scraper {
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}

	s := &Scraper{
		baseURL:    cfg.FederalRegisterURL,
		userAgent:  cfg.UserAgent,
		delay:      cfg.Delay,
		httpClient: &http.Client{Timeout: timeout},
		caller:     caller,
		log:        logx.Component("ingest.scraper"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

type frScrapeResult struct {
	DocumentNumber  string   `json:"document_number"`
	Title           string   `json:"title"`
	Abstract        string   `json:"abstract"`
	BodyHTMLURL     string   `json:"body_html_url"`
	PublicationDate string   `json:"publication_date"`
	Type            string   `json:"type"`
	Agencies        []string `json:"agencies"`
}

type frScrapeResponse struct {
	Results []frScrapeResult `json:"results"`
}

// ScrapeFederalRegister pulls matching documents from the Federal Register
// API and shapes them into policy documents.
func (s *Scraper) ScrapeFederalRegister(ctx context.Context, term string, maxResults int) ([]contract.Document, error) {
	if maxResults <= 0 {
		maxResults = 10
	}
	s.log.Info().Str("term", term).Msg("scraping federal register")

	payload, err := resilient.Do(ctx, s.caller, "federal_register.scrape", func(ctx context.Context) (frScrapeResponse, error) {
		params := url.Values{}
		params.Set("conditions[term]", term)
		params.Set("per_page", strconv.Itoa(min(maxResults, 100)))
		for _, field := range []string{"title", "abstract", "body_html_url", "publication_date", "document_number", "type", "agencies"} {
			params.Add("fields[]", field)
		}
		var out frScrapeResponse
		err := s.getJSON(ctx, s.baseURL+"/documents.json?"+params.Encode(), &out)
		return out, err
	})
	if err != nil {
		return nil, err
	}

	results := payload.Results
	if len(results) > maxResults {
		results = results[:maxResults]
	}

	docs := make([]contract.Document, 0, len(results))
	for _, r := range results {
		id := r.DocumentNumber
		if id == "" {
			id = uuid.NewString()
		}
		agency := "Unknown"
		if len(r.Agencies) > 0 {
			agency = r.Agencies[0]
		}
		docs = append(docs, contract.Document{
			ID:       id,
			Title:    r.Title,
			Text:     r.Abstract,
			URL:      r.BodyHTMLURL,
			Date:     r.PublicationDate,
			Type:     r.Type,
			Agencies: joinAgencies(r.Agencies),
			Category: "Federal Register",
			Agency:   agency,
		})
	}

	s.log.Info().Str("term", term).Int("documents", len(docs)).Msg("scraped federal register documents")
	return docs, nil
}

func joinAgencies(agencies []string) string {
	out := ""
	for i, a := range agencies {
		if i > 0 {
			out += ", "
		}
		out += a
	}
	return out
}

// EPARegulations returns a curated set of EPA regulation summaries. The EPA
// site has no stable document API, so these stand in for a live scrape.
func (s *Scraper) EPARegulations() []contract.Document {
	docs := []contract.Document{
		{
			ID:       "epa_001",
			Title:    "Clean Water Act Section 404 Permits",
			Text:     "The Clean Water Act Section 404 permit program regulates the discharge of dredged or fill material into waters of the United States, including wetlands.",
			Category: "Environmental", Agency: "EPA", Date: "2024-01-15", Type: "Regulation",
			URL: "https://www.epa.gov/cwa-404",
		},
		{
			ID:       "epa_002",
			Title:    "National Ambient Air Quality Standards",
			Text:     "The EPA has established National Ambient Air Quality Standards for six principal pollutants, which are called criteria pollutants.",
			Category: "Environmental", Agency: "EPA", Date: "2023-12-10", Type: "Standard",
			URL: "https://www.epa.gov/criteria-air-pollutants",
		},
		{
			ID:       "epa_003",
			Title:    "Hazardous Waste Management",
			Text:     "RCRA gives EPA the authority to control hazardous waste from cradle to grave including generation, transportation, treatment, storage, and disposal.",
			Category: "Environmental", Agency: "EPA", Date: "2024-03-20", Type: "Regulation",
			URL: "https://www.epa.gov/hw",
		},
	}
	s.log.Info().Int("documents", len(docs)).Msg("retrieved epa regulation documents")
	return docs
}

// ScrapeAllSources scrapes the Federal Register for every search term plus
// the EPA set, pacing requests by the configured delay. A failed term is
// logged and skipped rather than aborting the whole run.
func (s *Scraper) ScrapeAllSources(ctx context.Context, terms []string) ([]contract.Document, error) {
	if len(terms) == 0 {
		terms = []string{"executive order", "environmental regulation", "compliance"}
	}

	var all []contract.Document
	for i, term := range terms {
		if i > 0 && s.delay > 0 {
			timer := time.NewTimer(s.delay)
			select {
			case <-ctx.Done():
				timer.Stop()
				return all, ctx.Err()
			case <-timer.C:
			}
		}
		docs, err := s.ScrapeFederalRegister(ctx, term, 5)
		if err != nil {
			s.log.Error().Str("term", term).Err(err).Msg("skipping term after scrape failure")
			continue
		}
		all = append(all, docs...)
	}

	all = append(all, s.EPARegulations()...)
	s.log.Info().Int("total", len(all)).Msg("scraped all sources")
	return all, nil
}

// SaveDocuments writes a scraped document set to a JSON file.
func (s *Scraper) SaveDocuments(path string, docs []contract.Document) error {
	data, err := sonic.MarshalIndent(docs, "", "  ")
	if err != nil {
		return fmt.Errorf("encode documents: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("save documents to %s: %w", path, err)
	}
	s.log.Info().Str("path", path).Int("documents", len(docs)).Msg("saved documents")
	return nil
}

// LoadDocuments reads a document set saved by SaveDocuments.
func (s *Scraper) LoadDocuments(path string) ([]contract.Document, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("load documents from %s: %w", path, err)
	}
	var docs []contract.Document
	if err := sonic.Unmarshal(data, &docs); err != nil {
		return nil, fmt.Errorf("decode documents from %s: %w", path, err)
	}
	s.log.Info().Str("path", path).Int("documents", len(docs)).Msg("loaded documents")
	return docs, nil
}

// getJSON issues one GET and decodes the body. Status and transport faults
// surface as plain errors for the resilient caller to classify.
func (s *Scraper) getJSON(ctx context.Context, rawURL string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return err
	}
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "application/json")

	resp, err := s.httpClient.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return &resilient.StatusError{Code: resp.StatusCode, Status: resp.Status}
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
