// Package slack delivers policy notifications to a Slack incoming webhook.
package slack

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
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

// Slack rejects section blocks over 3000 characters; longer content is
// chunked across blocks.
const maxSectionLen = 3000

const defaultSource = "Policy Navigator Agent"

// Config holds the webhook settings. WebhookURL is a soft credential: a
// client without one is still constructable and reports a labeled
// configuration error on send.
type Config struct {
	WebhookURL string        `envconfig:"WEBHOOK_URL" split_words:"true"`
	Timeout    time.Duration `envconfig:"TIMEOUT" split_words:"true" default:"10s"`
}

type Client struct {
	webhookURL string
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

func NewClient(cfg Config, caller *resilient.Caller, opts ...Option) (*Client, error) {
	webhookURL := strings.TrimSpace(cfg.WebhookURL)
	if webhookURL != "" {
		if _, err := url.ParseRequestURI(webhookURL); err != nil {
			return nil, resilient.NewError(resilient.KindConfiguration, "invalid slack webhook url", err)
		}
	}

	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 10 * time.Second
	}

	c := &Client{
		webhookURL: webhookURL,
		httpClient: &http.Client{Timeout: timeout},
		caller:     caller,
		log:        logx.Component("slack"),
	}
	if c.webhookURL == "" {
		c.log.Warn().Msg("no slack webhook url configured")
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

// Notification is one policy update to post.
type Notification struct {
	Title   string
	Content string
	Source  string
	URL     string
}

// SendResult is the reduced webhook response.
type SendResult struct {
	StatusCode int    `json:"status"`
	Sent       bool   `json:"sent"`
	Message    string `json:"message,omitempty"`
}

type block map[string]any

// SendNotification posts a block-formatted policy update. Content longer
// than Slack's section limit is split into multiple section blocks.
func (c *Client) SendNotification(ctx context.Context, n Notification) (SendResult, error) {
	if c.webhookURL == "" {
		return SendResult{}, resilient.NewError(resilient.KindConfiguration, "no slack webhook url configured", contract.ErrWebhookNotConfigured)
	}

	source := n.Source
	if source == "" {
		source = defaultSource
	}
	c.log.Info().Str("title", n.Title).Msg("sending slack notification")

	blocks := []block{
		{
			"type": "header",
			"text": map[string]any{"type": "plain_text", "text": n.Title},
		},
	}
	sections, err := contentSections(n.Content)
	if err != nil {
		return SendResult{}, err
	}
	blocks = append(blocks, sections...)
	blocks = append(blocks, block{
		"type": "context",
		"elements": []map[string]any{
			{"type": "mrkdwn", "text": "*Source:* " + source},
		},
	})
	if n.URL != "" {
		blocks = append(blocks, block{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": "<" + n.URL + "|View Details>"},
		})
	}

	payload := map[string]any{
		"text":   n.Title,
		"blocks": blocks,
	}
	return c.post(ctx, "slack.notify", payload)
}

// SendSimpleMessage posts a plain text message.
func (c *Client) SendSimpleMessage(ctx context.Context, message string) (SendResult, error) {
	if c.webhookURL == "" {
		return SendResult{}, resilient.NewError(resilient.KindConfiguration, "no slack webhook url configured", contract.ErrWebhookNotConfigured)
	}
	return c.post(ctx, "slack.message", map[string]any{"text": message})
}

// SendPolicyAlert posts an alert about a policy change, flagged when action
// is required.
func (c *Client) SendPolicyAlert(ctx context.Context, policyName, alertType, details string, actionRequired bool) (SendResult, error) {
	prefix := "Policy Alert"
	if actionRequired {
		prefix = "URGENT Policy Alert"
	}

	content := "*Alert Type:* " + alertType + "\n\n" + details
	if actionRequired {
		content += "\n\n*Action Required*"
	}

	return c.SendNotification(ctx, Notification{
		Title:   prefix + ": " + policyName,
		Content: content,
		Source:  defaultSource,
	})
}

// contentSections splits content into one or more mrkdwn section blocks.
func contentSections(content string) ([]block, error) {
	if len(content) <= maxSectionLen {
		return []block{{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": content},
		}}, nil
	}

	spans, err := textchunk.Split(content, maxSectionLen, 0)
	if err != nil {
		return nil, err
	}
	blocks := make([]block, 0, len(spans))
	for _, text := range textchunk.Texts(spans) {
		blocks = append(blocks, block{
			"type": "section",
			"text": map[string]any{"type": "mrkdwn", "text": text},
		})
	}
	return blocks, nil
}

func (c *Client) post(ctx context.Context, name string, payload map[string]any) (SendResult, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		return SendResult{}, resilient.NewError(resilient.KindInternal, "encode slack payload", err)
	}

	return resilient.Do(ctx, c.caller, name, func(ctx context.Context) (SendResult, error) {
		req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.webhookURL, bytes.NewReader(body))
		if err != nil {
			return SendResult{}, err
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := c.httpClient.Do(req)
		if err != nil {
			return SendResult{}, err
		}
		defer resp.Body.Close()
		_, _ = io.Copy(io.Discard, resp.Body)

		if resp.StatusCode < 200 || resp.StatusCode >= 300 {
			return SendResult{}, &resilient.StatusError{Code: resp.StatusCode, Status: resp.Status}
		}
		return SendResult{
			StatusCode: resp.StatusCode,
			Sent:       true,
			Message:    "Notification sent successfully",
		}, nil
	})
}
