package airtable

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"
)

const defaultBaseURL = "https://api.airtable.com/v0"

// Config holds the Airtable credentials and base identifier. It is
// constructed once at startup and passed in explicitly; the client
// keeps no ambient global state.
type Config struct {
	APIKey  string
	BaseID  string
	BaseURL string
}

// Client is a thin REST client over one Airtable base.
type Client struct {
	cfg    Config
	client *http.Client
}

// New validates the config and builds a client. A nil http.Client gets
// a 60 second timeout, which doubles as the per-call upper bound.
func New(cfg Config, httpClient *http.Client) (*Client, error) {
	if cfg.APIKey == "" || cfg.BaseID == "" {
		return nil, errors.New("airtable config must include api key and base id")
	}
	if cfg.BaseURL == "" {
		cfg.BaseURL = defaultBaseURL
	}
	cfg.BaseURL = strings.TrimRight(cfg.BaseURL, "/")
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 60 * time.Second}
	}
	return &Client{cfg: cfg, client: httpClient}, nil
}

// Record is one row of a table: an opaque id plus a field map. Typed
// mapping to domain types happens in store.go.
type Record struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// ListOptions narrows a List call.
type ListOptions struct {
	FilterByFormula string
}

type listResponse struct {
	Records []Record `json:"records"`
	Offset  string   `json:"offset"`
}

type recordPayload struct {
	Fields map[string]any `json:"fields"`
}

// List fetches all records of a table, following offset pagination.
func (c *Client) List(ctx context.Context, table string, opts ListOptions) ([]Record, error) {
	var records []Record
	offset := ""
	for {
		query := url.Values{}
		if opts.FilterByFormula != "" {
			query.Set("filterByFormula", opts.FilterByFormula)
		}
		if offset != "" {
			query.Set("offset", offset)
		}
		endpoint := c.tableURL(table)
		if len(query) > 0 {
			endpoint += "?" + query.Encode()
		}

		var page listResponse
		if err := c.do(ctx, http.MethodGet, endpoint, nil, &page); err != nil {
			return nil, fmt.Errorf("airtable list %s: %w", table, err)
		}
		records = append(records, page.Records...)
		if page.Offset == "" {
			return records, nil
		}
		offset = page.Offset
	}
}

// Get fetches one record by id.
func (c *Client) Get(ctx context.Context, table, recordID string) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodGet, c.tableURL(table)+"/"+recordID, nil, &record); err != nil {
		return nil, fmt.Errorf("airtable get %s/%s: %w", table, recordID, err)
	}
	return &record, nil
}

// Create appends a record to a table.
func (c *Client) Create(ctx context.Context, table string, fields map[string]any) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodPost, c.tableURL(table), recordPayload{Fields: fields}, &record); err != nil {
		return nil, fmt.Errorf("airtable create %s: %w", table, err)
	}
	return &record, nil
}

// Update patches the given fields of a record, leaving the rest alone.
func (c *Client) Update(ctx context.Context, table, recordID string, fields map[string]any) (*Record, error) {
	var record Record
	if err := c.do(ctx, http.MethodPatch, c.tableURL(table)+"/"+recordID, recordPayload{Fields: fields}, &record); err != nil {
		return nil, fmt.Errorf("airtable update %s/%s: %w", table, recordID, err)
	}
	return &record, nil
}

func (c *Client) tableURL(table string) string {
	return c.cfg.BaseURL + "/" + c.cfg.BaseID + "/" + url.PathEscape(table)
}

func (c *Client) do(ctx context.Context, method, endpoint string, payload, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal payload: %w", err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, body)
	if err != nil {
		return err
	}
	req.Header.Set("Authorization", "Bearer "+c.cfg.APIKey)
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.client.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < http.StatusOK || resp.StatusCode >= http.StatusMultipleChoices {
		data, _ := io.ReadAll(resp.Body)
		return fmt.Errorf("unexpected status %s: %s", resp.Status, strings.TrimSpace(string(data)))
	}
	if out == nil {
		return nil
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
