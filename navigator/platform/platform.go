// Package platform is the client for the hosted agent and vector-index
// platform. The platform owns embedding, semantic search, and agent
// reasoning; this client only creates resources, upserts records, and runs
// queries over its REST surface.
package platform

import (
	"bytes"
	"context"
	_ "embed"
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
	"github.com/policynav/policy-navigator/pkg/textchunk"
)

//go:embed template/instructions.txt
var defaultInstructionsRaw string

// DefaultInstructions is the system prompt installed on newly created
// agents when AgentSpec.Instructions is empty.
func DefaultInstructions() string {
	return strings.TrimSpace(defaultInstructionsRaw)
}

// Config holds the platform connection settings. ChunkSize and ChunkOverlap
// bound record text at upsert time; oversized texts are split before they
// leave this process.
type Config struct {
	BaseURL      string        `envconfig:"BASE_URL" split_words:"true" required:"true"`
	APIKey       string        `envconfig:"API_KEY" split_words:"true" required:"true"`
	Timeout      time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"30s"`
	ChunkSize    int           `envconfig:"CHUNK_SIZE" split_words:"true" default:"1000"`
	ChunkOverlap int           `envconfig:"CHUNK_OVERLAP" split_words:"true" default:"100"`
}

type Client struct {
	baseURL      string
	apiKey       string
	chunkSize    int
	chunkOverlap int
	httpClient   *http.Client
	caller       *resilient.Caller
	log          zerolog.Logger
}

type Option func(*Client)

func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

func NewClient(cfg Config, caller *resilient.Caller, opts ...Option) (*Client, error) {
	baseURL := strings.TrimRight(strings.TrimSpace(cfg.BaseURL), "/")
	if baseURL == "" {
		return nil, resilient.ConfigError("platform base url is required")
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, resilient.NewError(resilient.KindConfiguration, "invalid platform base url", err)
	}
	apiKey := strings.TrimSpace(cfg.APIKey)
	if apiKey == "" {
		return nil, resilient.ConfigError("platform api key is required")
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	chunkSize := cfg.ChunkSize
	if chunkSize <= 0 {
		chunkSize = textchunk.DefaultChunkSize
	}
	chunkOverlap := cfg.ChunkOverlap
	if chunkOverlap < 0 || chunkOverlap >= chunkSize {
		return nil, resilient.ConfigError("chunk overlap must be non-negative and smaller than chunk size")
	}

	c := &Client{
		baseURL:      baseURL,
		apiKey:       apiKey,
		chunkSize:    chunkSize,
		chunkOverlap: chunkOverlap,
		httpClient:   &http.Client{Timeout: timeout},
		caller:       caller,
		log:          logx.Component("platform"),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	return c, nil
}

func MustNew(cfg Config, caller *resilient.Caller, opts ...Option) *Client {
	c, err := NewClient(cfg, caller, opts...)
	if err != nil {
		panic(err)
	}
	return c
}

// Index is a hosted vector index.
type Index struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
}

// Agent is a hosted agent.
type Agent struct {
	ID          string `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Deployed    bool   `json:"deployed"`
}

// AgentSpec describes an agent to create. Empty Instructions install the
// default policy-navigator prompt.
type AgentSpec struct {
	Name         string   `json:"name"`
	Description  string   `json:"description"`
	Instructions string   `json:"instructions"`
	ToolIDs      []string `json:"tool_ids,omitempty"`
	LLMID        string   `json:"llm_id,omitempty"`
}

// RunResponse is the platform's answer to one agent query.
type RunResponse struct {
	Output      string  `json:"output"`
	UsedCredits float64 `json:"used_credits"`
	RunTime     float64 `json:"run_time"`
	SessionID   string  `json:"session_id,omitempty"`
}

// CreateIndex creates a vector index.
func (c *Client) CreateIndex(ctx context.Context, name, description string) (Index, error) {
	c.log.Info().Str("name", name).Msg("creating vector index")
	return doJSON[Index](ctx, c, "platform.create_index", http.MethodPost, "/v1/indexes", map[string]string{
		"name":        name,
		"description": description,
	})
}

// UpsertRecords bulk-upserts retrieval records into an index. Records whose
// text exceeds the configured chunk size are split into per-chunk records
// with "#<n>" id suffixes before upload. Duplicate ids resolve last-write-
// wins on the platform side.
func (c *Client) UpsertRecords(ctx context.Context, indexID string, records []contract.RetrievalRecord) error {
	if indexID == "" {
		return resilient.NewError(resilient.KindConfiguration, "index id is required", contract.ErrIndexNotCreated)
	}

	prepared, err := c.prepareRecords(records)
	if err != nil {
		return err
	}
	c.log.Info().Str("index", indexID).Int("records", len(prepared)).Msg("upserting records")

	_, err = doJSON[struct{}](ctx, c, "platform.upsert", http.MethodPost,
		"/v1/indexes/"+url.PathEscape(indexID)+"/records",
		map[string]any{"records": prepared},
	)
	return err
}

// CountRecords asks the index how many records it stores.
func (c *Client) CountRecords(ctx context.Context, indexID string) (int, error) {
	if indexID == "" {
		return 0, resilient.NewError(resilient.KindConfiguration, "index id is required", contract.ErrIndexNotCreated)
	}
	out, err := doJSON[struct {
		Count int `json:"count"`
	}](ctx, c, "platform.count", http.MethodGet, "/v1/indexes/"+url.PathEscape(indexID)+"/count", nil)
	if err != nil {
		return 0, err
	}
	return out.Count, nil
}

// CreateAgent creates an agent wired to its tool roster.
func (c *Client) CreateAgent(ctx context.Context, spec AgentSpec) (Agent, error) {
	if strings.TrimSpace(spec.Name) == "" {
		return Agent{}, resilient.ConfigError("agent name is required")
	}
	if strings.TrimSpace(spec.Instructions) == "" {
		spec.Instructions = DefaultInstructions()
	}
	c.log.Info().Str("name", spec.Name).Int("tools", len(spec.ToolIDs)).Msg("creating agent")
	return doJSON[Agent](ctx, c, "platform.create_agent", http.MethodPost, "/v1/agents", spec)
}

// DeployAgent deploys a created agent.
func (c *Client) DeployAgent(ctx context.Context, agentID string) error {
	if agentID == "" {
		return resilient.NewError(resilient.KindConfiguration, "agent id is required", contract.ErrAgentNotCreated)
	}
	c.log.Info().Str("agent", agentID).Msg("deploying agent")
	_, err := doJSON[struct{}](ctx, c, "platform.deploy", http.MethodPost, "/v1/agents/"+url.PathEscape(agentID)+"/deploy", nil)
	return err
}

// RunAgent submits one query to a deployed agent and returns its answer.
func (c *Client) RunAgent(ctx context.Context, agentID, query string) (RunResponse, error) {
	if agentID == "" {
		return RunResponse{}, resilient.NewError(resilient.KindConfiguration, "agent id is required", contract.ErrAgentNotCreated)
	}
	c.log.Info().Str("agent", agentID).Msg("running agent query")
	return doJSON[RunResponse](ctx, c, "platform.run", http.MethodPost, "/v1/agents/"+url.PathEscape(agentID)+"/run", map[string]string{
		"query": query,
	})
}

// prepareRecords expands records with oversized text into chunk records.
func (c *Client) prepareRecords(records []contract.RetrievalRecord) ([]contract.RetrievalRecord, error) {
	prepared := make([]contract.RetrievalRecord, 0, len(records))
	for _, r := range records {
		if len(r.Text) <= c.chunkSize {
			prepared = append(prepared, r)
			continue
		}

		spans, err := textchunk.Split(r.Text, c.chunkSize, c.chunkOverlap)
		if err != nil {
			return nil, err
		}
		for i, text := range textchunk.Texts(spans) {
			prepared = append(prepared, contract.RetrievalRecord{
				ID:         fmt.Sprintf("%s#%d", r.ID, i+1),
				Text:       text,
				Attributes: r.Attributes,
			})
		}
	}
	return prepared, nil
}

// doJSON runs one authenticated JSON request through the resilient caller.
func doJSON[T any](ctx context.Context, c *Client, name, method, path string, body any) (T, error) {
	var payload []byte
	if body != nil {
		var err error
		payload, err = json.Marshal(body)
		if err != nil {
			var zero T
			return zero, resilient.NewError(resilient.KindInternal, "encode "+name+" payload", err)
		}
	}

	return resilient.Do(ctx, c.caller, name, func(ctx context.Context) (T, error) {
		var zero T

		var reader *bytes.Reader
		if payload != nil {
			reader = bytes.NewReader(payload)
		} else {
			reader = bytes.NewReader(nil)
		}
		req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, reader)
		if err != nil {
			return zero, err
		}
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
		req.Header.Set("Accept", "application/json")
		if payload != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return zero, err
		}
		defer resp.Body.Close()

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return zero, &resilient.StatusError{Code: resp.StatusCode, Status: resp.Status}
		}

		var out T
		if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
			// Some platform endpoints answer with an empty body.
			if _, ok := any(out).(struct{}); ok {
				return out, nil
			}
			return zero, fmt.Errorf("decode %s response: %w", name, err)
		}
		return out, nil
	})
}
