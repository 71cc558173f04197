// Package httpclient provides the outbound HTTP client shared by the vendor
// adapters (OpenAI, Azure OpenAI, Azure AI Search, Azure Speech, Zilliz REST).
//
// Requests fail fast by default. When retries are configured, only transport
// errors and 5xx responses are retried, with backoff from retry-go.
package httpclient

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/avast/retry-go/v4"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/propagation"

	"github.com/kart-io/campus-rag/pkg/utils/json"
)

const (
	defaultRetryDelay    = 200 * time.Millisecond
	defaultMaxRetryDelay = 2 * time.Second
	maxErrorBody         = 2048
)

// StatusError is returned when the server answers with a 4xx/5xx status.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("request failed with status code %d: %s", e.StatusCode, e.Body)
}

// Client is a wrapper around http.Client with retry and trace propagation.
type Client struct {
	httpClient *http.Client
	maxRetries int
	delay      time.Duration
}

// NewClient creates a new HTTP client wrapper. maxRetries=0 disables retries.
func NewClient(timeout time.Duration, maxRetries int) *Client {
	if maxRetries < 0 {
		maxRetries = 0
	}
	return &Client{
		httpClient: &http.Client{Timeout: timeout},
		maxRetries: maxRetries,
		delay:      defaultRetryDelay,
	}
}

// DoRequest executes req, retrying transport errors and 5xx responses.
// The caller owns the returned body.
func (c *Client) DoRequest(req *http.Request) (*http.Response, error) {
	// 自动注入 W3C Trace Context 头
	c.injectTraceContext(req)

	var body []byte
	if req.Body != nil {
		b, err := io.ReadAll(req.Body)
		if err != nil {
			return nil, fmt.Errorf("failed to read request body: %w", err)
		}
		_ = req.Body.Close()
		body = b
	}

	return retry.DoWithData(
		func() (*http.Response, error) {
			if body != nil {
				req.Body = io.NopCloser(bytes.NewReader(body))
				req.ContentLength = int64(len(body))
			}
			resp, err := c.httpClient.Do(req)
			if err != nil {
				if req.Context().Err() != nil {
					return nil, retry.Unrecoverable(err)
				}
				return nil, err
			}
			if resp.StatusCode >= http.StatusInternalServerError {
				statusErr := readStatusError(resp)
				return nil, statusErr
			}
			return resp, nil
		},
		retry.Context(req.Context()),
		retry.Attempts(uint(c.maxRetries+1)),
		retry.Delay(c.delay),
		retry.MaxDelay(defaultMaxRetryDelay),
		retry.LastErrorOnly(true),
	)
}

// DoJSON executes a request and decodes a JSON response into v.
// Any status >= 400 is returned as *StatusError.
func (c *Client) DoJSON(req *http.Request, v any) error {
	resp, err := c.DoRequest(req)
	if err != nil {
		return err
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode >= http.StatusBadRequest {
		return readStatusError(resp)
	}

	if v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			return fmt.Errorf("failed to decode response: %w", err)
		}
	}
	return nil
}

// PostJSON encodes in as the request body, sends it with the given headers and decodes into out.
func (c *Client) PostJSON(ctx context.Context, url string, headers map[string]string, in, out any) error {
	payload, err := json.Marshal(in)
	if err != nil {
		return fmt.Errorf("failed to encode request: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, url, bytes.NewReader(payload))
	if err != nil {
		return fmt.Errorf("failed to create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	return c.DoJSON(req, out)
}

func readStatusError(resp *http.Response) *StatusError {
	b, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBody))
	_ = resp.Body.Close()
	return &StatusError{StatusCode: resp.StatusCode, Body: string(b)}
}

// injectTraceContext 将当前 Span 的 W3C Trace Context 注入请求头。
// 无传播器或无活跃 Span 时为空操作。
func (c *Client) injectTraceContext(req *http.Request) {
	if req == nil {
		return
	}
	propagator := otel.GetTextMapPropagator()
	if propagator == nil {
		return
	}
	propagator.Inject(req.Context(), propagation.HeaderCarrier(req.Header))
}
