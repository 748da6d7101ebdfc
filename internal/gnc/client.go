// Package gnc talks to the remote grammar-and-conjugation analysis API and
// caches its responses. The HTTP layer proxies requests through here so the
// upstream service sees one normalized client.
package gnc

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"go.uber.org/zap"
)

const (
	analyzePath    = "/v1/analyze"
	defaultTimeout = 15 * time.Second
	maxBodyBytes   = 1 << 20
)

// Analysis is the upstream payload for one analyzed text. The proxy passes
// it through as-is; only the fields the site reads are typed.
type Analysis struct {
	Text     string          `json:"text"`
	Language string          `json:"language,omitempty"`
	Verbs    []VerbAnalysis  `json:"verbs,omitempty"`
	Raw      json.RawMessage `json:"raw,omitempty"`
}

// VerbAnalysis describes one verb occurrence found by the upstream service.
type VerbAnalysis struct {
	Surface    string `json:"surface"`
	Infinitive string `json:"infinitive"`
	Tense      string `json:"tense,omitempty"`
	Mood       string `json:"mood,omitempty"`
	Person     string `json:"person,omitempty"`
}

// ClientOption customises a Client.
type ClientOption func(*Client)

// WithHTTPClient injects the underlying http.Client.
func WithHTTPClient(httpClient *http.Client) ClientOption {
	return func(c *Client) {
		if httpClient != nil {
			c.httpClient = httpClient
		}
	}
}

// WithAPIKey sets the bearer token sent to the upstream API.
func WithAPIKey(key string) ClientOption {
	return func(c *Client) {
		c.apiKey = key
	}
}

// WithClientLogger attaches a logger.
func WithClientLogger(logger *zap.Logger) ClientOption {
	return func(c *Client) {
		if logger != nil {
			c.logger = logger
		}
	}
}

// Client calls the remote analysis API.
type Client struct {
	baseURL    string
	apiKey     string
	httpClient *http.Client
	logger     *zap.Logger
}

// NewClient builds a client for the API at baseURL.
func NewClient(baseURL string, options ...ClientOption) *Client {
	c := &Client{
		baseURL:    strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{Timeout: defaultTimeout},
		logger:     zap.NewNop(),
	}
	for _, opt := range options {
		if opt == nil {
			continue
		}
		opt(c)
	}
	return c
}

// Analyze submits text to the upstream analysis endpoint and decodes the
// response. Upstream failures are wrapped, logged, and returned; there is no
// retry.
func (c *Client) Analyze(ctx context.Context, text string) (*Analysis, error) {
	if c.baseURL == "" {
		return nil, fmt.Errorf("gnc: upstream URL is required")
	}
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("gnc: text is required")
	}

	body, err := json.Marshal(map[string]string{"text": text})
	if err != nil {
		return nil, fmt.Errorf("gnc: encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+analyzePath, bytes.NewReader(body))
	if err != nil {
		return nil, fmt.Errorf("gnc: build request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if c.apiKey != "" {
		req.Header.Set("Authorization", "Bearer "+c.apiKey)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		c.logger.Error("upstream request failed", zap.Error(err))
		return nil, fmt.Errorf("gnc: call upstream: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		snippet, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		c.logger.Error("upstream returned error status",
			zap.Int("status", resp.StatusCode),
			zap.ByteString("body", snippet))
		return nil, fmt.Errorf("gnc: upstream status %d", resp.StatusCode)
	}

	var analysis Analysis
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxBodyBytes)).Decode(&analysis); err != nil {
		c.logger.Error("upstream response undecodable", zap.Error(err))
		return nil, fmt.Errorf("gnc: decode response: %w", err)
	}
	return &analysis, nil
}
