// Package client talks to a running `curriculum serve` over HTTP and websocket.
package client

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

	"curriculum-cli/internal/model"
	"curriculum-cli/internal/syncer"

	"github.com/google/uuid"
)

// StatusError is a non-2xx reply that did not carry a reorder response body.
type StatusError struct {
	Code int
	Body string
}

func (e StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if body == "" {
		return fmt.Sprintf("server returned %d", e.Code)
	}
	return fmt.Sprintf("server returned %d: %s", e.Code, body)
}

type Client struct {
	base *url.URL
	http *http.Client
}

type Option func(*Client)

func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.http = h
		}
	}
}

func New(baseURL string, opts ...Option) (*Client, error) {
	baseURL = strings.TrimSpace(baseURL)
	if baseURL == "" {
		return nil, errors.New("missing server url")
	}
	if !strings.Contains(baseURL, "://") {
		baseURL = "http://" + baseURL
	}
	u, err := url.Parse(strings.TrimRight(baseURL, "/"))
	if err != nil {
		return nil, fmt.Errorf("parse server url: %w", err)
	}
	c := &Client{base: u, http: &http.Client{Timeout: 30 * time.Second}}
	for _, o := range opts {
		o(c)
	}
	return c, nil
}

func (c *Client) endpoint(parts ...string) string {
	escaped := make([]string, 0, len(parts))
	for _, p := range parts {
		escaped = append(escaped, url.PathEscape(p))
	}
	return strings.TrimRight(c.base.String(), "/") + "/" + strings.Join(escaped, "/")
}

func (c *Client) Courses(ctx context.Context) ([]model.Course, error) {
	var out []model.Course
	if err := c.getJSON(ctx, c.endpoint("courses"), &out); err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) Hierarchy(ctx context.Context, courseID string) (model.CourseHierarchy, error) {
	var h model.CourseHierarchy
	if err := c.getJSON(ctx, c.endpoint("courses", courseID, "hierarchy"), &h); err != nil {
		return model.CourseHierarchy{}, err
	}
	return h, nil
}

func (c *Client) Version(ctx context.Context, courseID string) (int64, error) {
	var v struct {
		Version int64 `json:"version"`
	}
	if err := c.getJSON(ctx, c.endpoint("courses", courseID, "version"), &v); err != nil {
		return 0, err
	}
	return v.Version, nil
}

func (c *Client) ReorderChapters(ctx context.Context, courseID string, ranks []model.RankUpdate) (model.Response, error) {
	body := struct {
		Chapters []model.RankUpdate `json:"chapters"`
	}{Chapters: ranks}
	return c.postReorder(ctx, c.endpoint("courses", courseID, "chapters", "reorder"), body)
}

func (c *Client) ReorderLessons(ctx context.Context, courseID, chapterID string, ranks []model.RankUpdate) (model.Response, error) {
	body := struct {
		Lessons []model.RankUpdate `json:"lessons"`
	}{Lessons: ranks}
	return c.postReorder(ctx, c.endpoint("courses", courseID, "chapters", chapterID, "lessons", "reorder"), body)
}

// postReorder returns a Response whenever the server answered with one, including
// rejections. A transport failure or an unparseable reply is an error.
func (c *Client) postReorder(ctx context.Context, endpoint string, body any) (model.Response, error) {
	b, err := json.Marshal(body)
	if err != nil {
		return model.Response{}, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, endpoint, bytes.NewReader(b))
	if err != nil {
		return model.Response{}, err
	}
	req.Header.Set("Content-Type", "application/json")
	id, ok := syncer.RequestIDFrom(ctx)
	if !ok {
		id = uuid.NewString()
	}
	req.Header.Set("X-Request-Id", id)

	res, err := c.http.Do(req)
	if err != nil {
		return model.Response{}, err
	}
	defer res.Body.Close()

	raw, err := io.ReadAll(io.LimitReader(res.Body, 1<<20))
	if err != nil {
		return model.Response{}, err
	}
	var resp model.Response
	if err := json.Unmarshal(raw, &resp); err != nil || resp.Status == "" {
		return model.Response{}, StatusError{Code: res.StatusCode, Body: string(raw)}
	}
	return resp, nil
}

func (c *Client) getJSON(ctx context.Context, endpoint string, v any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	res, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer res.Body.Close()
	if res.StatusCode/100 != 2 {
		raw, _ := io.ReadAll(io.LimitReader(res.Body, 4096))
		return StatusError{Code: res.StatusCode, Body: string(raw)}
	}
	return json.NewDecoder(res.Body).Decode(v)
}
