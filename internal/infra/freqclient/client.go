package freqclient

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"

	"github.com/hashicorp/go-retryablehttp"
	"github.com/magicaleks/freq-server/internal/domain"
)

const (
	DefaultBaseURL  = "http://localhost:8080/freq_server"
	applicationJSON = "application/json"
	textPlain       = "text/plain; charset=utf-8"
)

// Client calls the frequency server operations. Domain failures come back
// inside the Response; only transport failures are returned as errors.
type Client struct {
	baseURL string
	http    *retryablehttp.Client
}

type Option func(*retryablehttp.Client)

func WithRetryMax(n int) Option {
	return func(c *retryablehttp.Client) { c.RetryMax = n }
}

func WithLogger(logger *slog.Logger) Option {
	return func(c *retryablehttp.Client) {
		if logger != nil {
			c.Logger = logger
		}
	}
}

func WithTimeout(d time.Duration) Option {
	return func(c *retryablehttp.Client) { c.HTTPClient.Timeout = d }
}

func NewClient(baseURL string, opts ...Option) *Client {
	if baseURL == "" {
		baseURL = DefaultBaseURL
	}

	hc := retryablehttp.NewClient()
	hc.RetryMax = 2
	hc.RetryWaitMin = 100 * time.Millisecond
	hc.RetryWaitMax = time.Second
	hc.Logger = nil
	for _, opt := range opts {
		opt(hc)
	}

	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		http:    hc,
	}
}

func (c *Client) StartServer(ctx context.Context) (*domain.Response, error) {
	return c.call(ctx, domain.OpStartServer, "")
}

func (c *Client) StopServer(ctx context.Context) (*domain.Response, error) {
	return c.call(ctx, domain.OpStopServer, "")
}

func (c *Client) AllocateFrequency(ctx context.Context) (*domain.Response, error) {
	return c.call(ctx, domain.OpAllocateFrequency, "")
}

// DeallocateFrequency sends frequency verbatim so malformed ids reach the
// server and are classified there.
func (c *Client) DeallocateFrequency(ctx context.Context, frequency string) (*domain.Response, error) {
	return c.call(ctx, domain.OpDeallocateFrequency, frequency)
}

func (c *Client) Status(ctx context.Context) (*domain.Snapshot, error) {
	resp, err := c.do(ctx, http.MethodGet, "/Status", "")
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	return decode[domain.Snapshot](resp)
}

func (c *Client) call(ctx context.Context, op domain.Operation, body string) (*domain.Response, error) {
	resp, err := c.do(ctx, http.MethodPost, "/"+string(op), body)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	defer resp.Body.Close()

	out, err := decode[domain.Response](resp)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", op, err)
	}
	return out, nil
}

func decode[T any](resp *http.Response) (*T, error) {
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return nil, fmt.Errorf("unexpected status %d: %s", resp.StatusCode, strings.TrimSpace(string(msg)))
	}

	var out T
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	return &out, nil
}

func (c *Client) do(ctx context.Context, method, path, body string) (*http.Response, error) {
	var payload any
	if body != "" {
		payload = strings.NewReader(body)
	}

	req, err := retryablehttp.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", applicationJSON)
	if body != "" {
		req.Header.Set("Content-Type", textPlain)
	}
	return c.http.Do(req)
}
