// Package api is the HTTP client for the JSON API served by `boardnav serve`. It satisfies the
// same backend surface as the local store so the navigator can run against either.
package api

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

	"boardnav/internal/model"
	"boardnav/internal/nav"
	"boardnav/internal/store"
)

const defaultTimeout = 10 * time.Second

// StatusError is a non-2xx response. A 404 unwraps to store.ErrNotFound and a 400 to
// store.ErrInvalid.
type StatusError struct {
	Status  int
	Message string
}

func (e *StatusError) Error() string {
	if e.Message == "" {
		return fmt.Sprintf("server returned %d", e.Status)
	}
	return fmt.Sprintf("server returned %d: %s", e.Status, e.Message)
}

func (e *StatusError) Unwrap() error {
	switch e.Status {
	case http.StatusNotFound:
		return store.ErrNotFound
	case http.StatusBadRequest:
		return store.ErrInvalid
	}
	return nil
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

// WithTimeout bounds every request. Zero keeps the default.
func WithTimeout(d time.Duration) Option {
	return func(c *Client) {
		if d > 0 {
			c.http.Timeout = d
		}
	}
}

// WithHTTPClient replaces the underlying client (tests use the httptest client).
func WithHTTPClient(hc *http.Client) Option {
	return func(c *Client) {
		if hc != nil {
			c.http = hc
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	u, err := url.Parse(strings.TrimRight(strings.TrimSpace(baseURL), "/"))
	if err != nil {
		return nil, fmt.Errorf("parse base url: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" || u.Host == "" {
		return nil, fmt.Errorf("base url must be http(s)://host, got %q", baseURL)
	}
	c := &Client{base: u, http: &http.Client{Timeout: defaultTimeout}}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

func (c *Client) BaseURL() string { return c.base.String() }

func (c *Client) Boards(ctx context.Context) ([]model.Board, error) {
	var out []model.Board
	if err := c.do(ctx, http.MethodGet, "/api/boards", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("list boards: %w", err)
	}
	return out, nil
}

// BoardTree loads levels 1-2; items arrive without embedded children.
func (c *Client) BoardTree(ctx context.Context, boardID string) (*model.Board, error) {
	return c.tree(ctx, boardID, nil)
}

func (c *Client) BoardTreeWithSubItems(ctx context.Context, boardID string) (*model.Board, error) {
	return c.tree(ctx, boardID, url.Values{"embed": {"subitems"}})
}

func (c *Client) tree(ctx context.Context, boardID string, q url.Values) (*model.Board, error) {
	var b model.Board
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID)+"/tree", q, nil, &b); err != nil {
		return nil, fmt.Errorf("load board %q: %w", boardID, err)
	}
	return &b, nil
}

// FetchSubItems implements childcache.Fetcher.
func (c *Client) FetchSubItems(ctx context.Context, itemID string) ([]model.SubItem, error) {
	var out []model.SubItem
	if err := c.do(ctx, http.MethodGet, "/api/items/"+url.PathEscape(itemID)+"/subitems", nil, nil, &out); err != nil {
		return nil, fmt.Errorf("fetch sub-items of %q: %w", itemID, err)
	}
	if out == nil {
		out = []model.SubItem{}
	}
	return out, nil
}

// Resolution mirrors the server's resolve response for the parts the CLI prints.
type Resolution struct {
	Location string          `json:"location"`
	Path     nav.Path        `json:"path"`
	Preview  json.RawMessage `json:"preview"`
	Columns  json.RawMessage `json:"columns"`
}

// Resolve asks the server to restore location against the current tree.
func (c *Client) Resolve(ctx context.Context, boardID, location string) (*Resolution, error) {
	var out Resolution
	q := url.Values{"location": {location}}
	if err := c.do(ctx, http.MethodGet, "/api/boards/"+url.PathEscape(boardID)+"/resolve", q, nil, &out); err != nil {
		return nil, fmt.Errorf("resolve %q: %w", location, err)
	}
	return &out, nil
}

func (c *Client) ToggleCompleted(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	return c.mutate(ctx, http.MethodPost, kind, id, "/toggle", nil)
}

func (c *Client) Rename(ctx context.Context, kind model.Kind, id, name string) (model.Ref, error) {
	return c.mutate(ctx, http.MethodPost, kind, id, "/rename", map[string]string{"name": name})
}

func (c *Client) Delete(ctx context.Context, kind model.Kind, id string) (model.Ref, error) {
	return c.mutate(ctx, http.MethodDelete, kind, id, "", nil)
}

func (c *Client) mutate(ctx context.Context, method string, kind model.Kind, id, suffix string, body any) (model.Ref, error) {
	seg, err := kindSegment(kind)
	if err != nil {
		return model.Ref{}, err
	}
	var ref model.Ref
	if err := c.do(ctx, method, "/api/"+seg+"/"+url.PathEscape(id)+suffix, nil, body, &ref); err != nil {
		return model.Ref{}, fmt.Errorf("%s %s %q: %w", strings.ToLower(method), kind, id, err)
	}
	return ref, nil
}

func kindSegment(k model.Kind) (string, error) {
	switch k {
	case model.KindCollection:
		return "collections", nil
	case model.KindItem:
		return "items", nil
	case model.KindSubItem:
		return "subitems", nil
	}
	return "", fmt.Errorf("unknown kind %q", k)
}

func (c *Client) do(ctx context.Context, method, path string, q url.Values, body, out any) error {
	u := *c.base
	u.Path = strings.TrimRight(u.Path, "/") + path
	u.RawQuery = q.Encode()

	var rdr io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshal request: %w", err)
		}
		rdr = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, u.String(), rdr)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Accept", "application/json")
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return decodeError(resp)
	}
	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode response: %w", err)
	}
	return nil
}

func decodeError(resp *http.Response) error {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, 1<<16))
	se := &StatusError{Status: resp.StatusCode}
	var body struct {
		Error string `json:"error"`
	}
	if err := json.Unmarshal(b, &body); err == nil && body.Error != "" {
		se.Message = body.Error
	} else {
		se.Message = strings.TrimSpace(string(b))
	}
	return se
}

// IsNotFound reports whether err is a 404 from the server or a missing entity in the store.
func IsNotFound(err error) bool {
	return errors.Is(err, store.ErrNotFound)
}
