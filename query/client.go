// Package query talks to the structured-extraction service. The engine
// treats it as a black box: hand it page content and a field schema, get
// back a decoded mapping, or an error on timeout or service failure.
package query

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	queryPath      = "/v1/query-data"
	defaultTimeout = 30 * time.Second
)

// Config holds the service endpoints and credentials.
type Config struct {
	Endpoint string // extraction service base URL
	APIKey   string
	Reader   string // readable-text rendition service base URL
	Timeout  time.Duration
}

// Client issues extraction and reader requests.
type Client struct {
	api    *resty.Client
	reader *resty.Client
	log    *slog.Logger
}

// NewClient builds a client from cfg. A zero Timeout falls back to the
// package default.
func NewClient(cfg Config, log *slog.Logger) *Client {
	if log == nil {
		log = slog.Default()
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}

	api := resty.New().
		SetBaseURL(cfg.Endpoint).
		SetTimeout(timeout)
	if cfg.APIKey != "" {
		api.SetHeader("X-API-Key", cfg.APIKey)
	}

	reader := resty.New().
		SetBaseURL(cfg.Reader).
		SetTimeout(timeout)

	return &Client{api: api, reader: reader, log: log}
}

type extractRequest struct {
	Query string `json:"query"`
	HTML  string `json:"html"`
}

type extractEnvelope struct {
	Data json.RawMessage `json:"data"`
}

// Extract sends page content and a field schema to the extraction service
// and decodes the result into out. Optional fields absent from the page are
// simply absent from the decoded value. The caller bounds the call with its
// context.
func (c *Client) Extract(ctx context.Context, content, schema string, out any) error {
	resp, err := c.api.R().
		SetContext(ctx).
		SetBody(extractRequest{Query: schema, HTML: content}).
		Post(queryPath)
	if err != nil {
		return fmt.Errorf("query request: %w", err)
	}
	if resp.IsError() {
		return fmt.Errorf("query service returned %s", resp.Status())
	}

	var envelope extractEnvelope
	if err := json.Unmarshal(resp.Body(), &envelope); err != nil {
		return fmt.Errorf("decode query response: %w", err)
	}
	if len(envelope.Data) == 0 {
		return fmt.Errorf("query response missing data")
	}
	if err := json.Unmarshal(envelope.Data, out); err != nil {
		return fmt.Errorf("decode query result: %w", err)
	}
	return nil
}

// Readable fetches the readable-text rendition of a URL from the reader
// service. Used for pages that do not need a live browser session.
func (c *Client) Readable(ctx context.Context, rawURL string) (string, error) {
	resp, err := c.reader.R().
		SetContext(ctx).
		Get("/" + rawURL)
	if err != nil {
		return "", fmt.Errorf("reader request: %w", err)
	}
	if resp.IsError() {
		return "", fmt.Errorf("reader service returned %s", resp.Status())
	}
	return resp.String(), nil
}

// ExtractURL is the browserless path: fetch the readable rendition of a URL
// and run schema extraction over it.
func (c *Client) ExtractURL(ctx context.Context, rawURL, schema string, out any) error {
	content, err := c.Readable(ctx, rawURL)
	if err != nil {
		return err
	}
	c.log.Debug("fetched readable rendition",
		slog.String("url", rawURL),
		slog.Int("bytes", len(content)),
	)
	return c.Extract(ctx, content, schema, out)
}
