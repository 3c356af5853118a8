// Package fetcher pulls the next job post to share from the job API.
package fetcher

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"karyabbot/internal/errs"
	"karyabbot/internal/jobpost"
	logx "karyabbot/pkg/logx"
)

// SharePath is the endpoint that hands out the post to publish.
const SharePath = "/api/share/"

// maxBody caps how much of a response is read; share payloads are a few KB.
const maxBody = 1 << 20

type Config struct {
	ServerURL string
	AuthToken string
	// Timeout bounds the whole request; 0 keeps the client default (none).
	Timeout time.Duration
}

type Client struct {
	cfg  Config
	url  string
	http *http.Client
	log  logx.Logger
}

// New builds a fetcher. hc may be nil.
func New(cfg Config, hc *http.Client, log logx.Logger) (*Client, error) {
	base := strings.TrimRight(strings.TrimSpace(cfg.ServerURL), "/")
	if base == "" {
		return nil, errors.New("fetcher: server url is empty")
	}
	if strings.TrimSpace(cfg.AuthToken) == "" {
		return nil, errors.New("fetcher: auth token is empty")
	}
	if hc == nil {
		hc = &http.Client{Timeout: cfg.Timeout}
	}
	if log.IsZero() {
		log = logx.Nop()
	}
	return &Client{cfg: cfg, url: base + SharePath, http: hc, log: log}, nil
}

// URL returns the endpoint Fetch calls.
func (c *Client) URL() string { return c.url }

// Fetch performs one authenticated GET and decodes the body as a JobPost.
// Transport failures and non-2xx answers are logged and returned as
// errs.KindFetch; no fields are validated here.
func (c *Client) Fetch(ctx context.Context) (jobpost.JobPost, error) {
	op := http.MethodGet + " " + SharePath

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.url, http.NoBody)
	if err != nil {
		return nil, c.fail(op, err)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("Authorization", "Token "+c.cfg.AuthToken)

	start := time.Now()
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, c.fail(op, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return nil, c.fail(op, fmt.Errorf("read body: %w", err))
	}

	if resp.StatusCode/100 != 2 {
		return nil, c.fail(op, &StatusError{Code: resp.StatusCode, Body: excerpt(body)})
	}

	post, err := decode(body)
	if err != nil {
		return nil, c.fail(op, err)
	}

	c.log.Debug("job post fetched",
		logx.Int("status", resp.StatusCode),
		logx.Int("bytes", len(body)),
		logx.Int("fields", len(post)),
		logx.Duration("took", time.Since(start)),
	)
	return post, nil
}

func (c *Client) fail(op string, err error) error {
	e := errs.Fetch(op, err)
	fields := []logx.Field{logx.String("url", c.url), logx.Err(err)}
	var se *StatusError
	if errors.As(err, &se) {
		fields = append(fields, logx.Int("status", se.Code))
	}
	c.log.Error("error fetching data from server", fields...)
	return e
}

func decode(body []byte) (jobpost.JobPost, error) {
	dec := json.NewDecoder(bytes.NewReader(body))
	dec.UseNumber()
	var v any
	if err := dec.Decode(&v); err != nil {
		return nil, fmt.Errorf("decode json: %w", err)
	}
	obj, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("decode json: expected an object, got %T", v)
	}
	return jobpost.JobPost(obj), nil
}

// StatusError reports a non-2xx answer from the job API.
type StatusError struct {
	Code int
	Body string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("unexpected status %d %s", e.Code, http.StatusText(e.Code))
	}
	return fmt.Sprintf("unexpected status %d %s: %s", e.Code, http.StatusText(e.Code), e.Body)
}

func excerpt(b []byte) string {
	s := strings.Join(strings.Fields(string(b)), " ")
	if len(s) > 200 {
		return s[:197] + "..."
	}
	return s
}
