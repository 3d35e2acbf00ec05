// Package relational wraps the Supabase PostgREST API: the identity/billing
// store split out from the property graph ("mixed
// authoritative stores").
package relational

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"
)

// Client is a thin PostgREST client scoped to one Supabase project, using the
// service-role key so it can bypass row-level security for admin operations.
type Client struct {
	baseURL    string
	serviceKey string
	httpClient *http.Client
}

// NewClient builds a Client from the SUPABASE_URL/SUPABASE_SERVICE_ROLE_KEY pair.
func NewClient(url, serviceRoleKey string) *Client {
	return &Client{
		baseURL:    strings.TrimRight(url, "/"),
		serviceKey: serviceRoleKey,
		httpClient: &http.Client{Timeout: 15 * time.Second},
	}
}

const maxResponseBytes = 8 << 20

func (c *Client) request(ctx context.Context, method, table string, body interface{}, query string, prefer string) ([]byte, error) {
	url := fmt.Sprintf("%s/rest/v1/%s", c.baseURL, table)
	if query != "" {
		url += "?" + query
	}

	var reqBody io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		if err != nil {
			return nil, fmt.Errorf("marshal body: %w", err)
		}
		reqBody = bytes.NewReader(raw)
	}

	req, err := http.NewRequestWithContext(ctx, method, url, reqBody)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("apikey", c.serviceKey)
	req.Header.Set("Authorization", "Bearer "+c.serviceKey)
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("execute request: %w", err)
	}
	defer resp.Body.Close()

	respBody, err := io.ReadAll(io.LimitReader(resp.Body, maxResponseBytes))
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}

	if resp.StatusCode >= 400 {
		return nil, fmt.Errorf("postgrest %s %s: %d %s", method, table, resp.StatusCode, strings.TrimSpace(string(respBody)))
	}
	return respBody, nil
}

// Insert creates a row and returns the representation.
func (c *Client) Insert(ctx context.Context, table string, data interface{}) ([]byte, error) {
	return c.request(ctx, http.MethodPost, table, data, "", "return=representation")
}

// Update patches rows matching query and returns the representation.
func (c *Client) Update(ctx context.Context, table string, data interface{}, query string) ([]byte, error) {
	return c.request(ctx, http.MethodPatch, table, data, query, "return=representation")
}

// Select reads rows matching a PostgREST query string (e.g. "id=eq.1&select=*").
func (c *Client) Select(ctx context.Context, table, query string) ([]byte, error) {
	return c.request(ctx, http.MethodGet, table, nil, query, "")
}

// Delete removes rows matching query and returns the representation.
func (c *Client) Delete(ctx context.Context, table, query string) ([]byte, error) {
	return c.request(ctx, http.MethodDelete, table, nil, query, "return=representation")
}

// Upsert inserts or updates on conflict, merging duplicates by onConflict's columns.
func (c *Client) Upsert(ctx context.Context, table string, data interface{}, onConflict string) ([]byte, error) {
	query := ""
	if onConflict != "" {
		query = "on_conflict=" + onConflict
	}
	return c.request(ctx, http.MethodPost, table, data, query, "return=representation,resolution=merge-duplicates")
}

// Ping verifies the REST endpoint is reachable, used by the readiness probe.
func (c *Client) Ping(ctx context.Context) error {
	_, err := c.Select(ctx, "organizations", "limit=1")
	return err
}
