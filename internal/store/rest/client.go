// Package rest talks to a PostgREST-compatible backend (Supabase REST API).
package rest

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

	"github.com/gosuda/tenantdesk/internal/domain"
)

// ErrNotConfigured is returned by New when the endpoint or key is empty.
var ErrNotConfigured = errors.New("rest: endpoint and key are required")

// Client performs one CRUD call per operation against /rest/v1/<table>.
type Client struct {
	baseURL    string
	key        string
	httpClient *http.Client
}

var _ domain.RemoteStore = (*Client)(nil)

// New builds a client for baseURL authenticated with key. A zero timeout
// leaves the transport defaults in place.
func New(baseURL, key string, timeout time.Duration) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	key = strings.TrimSpace(key)
	if baseURL == "" || key == "" {
		return nil, ErrNotConfigured
	}
	if _, err := url.ParseRequestURI(baseURL); err != nil {
		return nil, fmt.Errorf("rest.New: %w", err)
	}
	return &Client{
		baseURL:    baseURL + "/rest/v1",
		key:        key,
		httpClient: &http.Client{Timeout: timeout},
	}, nil
}

// Available reports whether the client was constructed.
func (c *Client) Available() bool {
	return c != nil && c.key != ""
}

func (c *Client) SelectAll(ctx context.Context, table string, filter *domain.Filter) ([]domain.Record, error) {
	q := url.Values{}
	q.Set("select", "*")
	addFilter(q, filter)

	body, err := c.do(ctx, "select", table, http.MethodGet, q, nil, "")
	if err != nil {
		return nil, err
	}

	var recs []domain.Record
	if err := json.Unmarshal(body, &recs); err != nil {
		return nil, &domain.RemoteError{Op: "select", Table: table, Message: "decode response", Err: err}
	}
	if recs == nil {
		recs = []domain.Record{}
	}
	return recs, nil
}

func (c *Client) Insert(ctx context.Context, table string, rec domain.Record) error {
	_, err := c.do(ctx, "insert", table, http.MethodPost, nil, rec, "return=minimal")
	return err
}

func (c *Client) Update(ctx context.Context, table, id string, partial domain.Record, filter *domain.Filter) error {
	q := url.Values{}
	q.Add(domain.FieldID, "eq."+id)
	addFilter(q, filter)

	_, err := c.do(ctx, "update", table, http.MethodPatch, q, partial, "return=minimal")
	return err
}

func (c *Client) Delete(ctx context.Context, table, id string, filter *domain.Filter) error {
	q := url.Values{}
	q.Add(domain.FieldID, "eq."+id)
	addFilter(q, filter)

	_, err := c.do(ctx, "delete", table, http.MethodDelete, q, nil, "return=minimal")
	return err
}

func (c *Client) Upsert(ctx context.Context, table string, recs []domain.Record) error {
	if len(recs) == 0 {
		return nil
	}
	q := url.Values{}
	q.Set("on_conflict", domain.FieldID)

	_, err := c.do(ctx, "upsert", table, http.MethodPost, q, recs, "resolution=merge-duplicates,return=minimal")
	return err
}

func (c *Client) DeleteAll(ctx context.Context, table string) error {
	q := url.Values{}
	q.Set(domain.FieldID, "neq."+domain.DeleteAllSentinel)

	_, err := c.do(ctx, "delete_all", table, http.MethodDelete, q, nil, "return=minimal")
	return err
}

func addFilter(q url.Values, f *domain.Filter) {
	if f == nil || f.Field == "" {
		return
	}
	q.Add(f.Field, "eq."+f.Value)
}

// apiError is the PostgREST error body.
type apiError struct {
	Message string `json:"message"`
	Code    string `json:"code"`
	Details string `json:"details"`
	Hint    string `json:"hint"`
}

func (c *Client) do(ctx context.Context, op, table, method string, q url.Values, payload any, prefer string) ([]byte, error) {
	endpoint := c.baseURL + "/" + url.PathEscape(table)
	if len(q) > 0 {
		endpoint += "?" + q.Encode()
	}

	var reader io.Reader
	if payload != nil {
		buf, err := json.Marshal(payload)
		if err != nil {
			return nil, &domain.RemoteError{Op: op, Table: table, Message: "encode request", Err: err}
		}
		reader = bytes.NewReader(buf)
	}

	req, err := http.NewRequestWithContext(ctx, method, endpoint, reader)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Table: table, Err: err}
	}
	req.Header.Set("apikey", c.key)
	req.Header.Set("Authorization", "Bearer "+c.key)
	req.Header.Set("Accept", "application/json")
	if payload != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if prefer != "" {
		req.Header.Set("Prefer", prefer)
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Table: table, Err: err}
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, &domain.RemoteError{Op: op, Table: table, Status: resp.StatusCode, Message: "read response", Err: err}
	}

	if resp.StatusCode >= 400 {
		rerr := &domain.RemoteError{Op: op, Table: table, Status: resp.StatusCode}
		var ae apiError
		if json.Unmarshal(body, &ae) == nil && ae.Message != "" {
			rerr.Code = ae.Code
			rerr.Message = ae.Message
			if ae.Details != "" {
				rerr.Message += ": " + ae.Details
			}
		} else {
			rerr.Message = strings.TrimSpace(string(body))
			if rerr.Message == "" {
				rerr.Message = http.StatusText(resp.StatusCode)
			}
		}
		return nil, rerr
	}

	return body, nil
}
