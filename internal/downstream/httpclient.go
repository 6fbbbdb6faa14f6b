package downstream

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

	"github.com/industrieimport/storefront/internal/logger"
	"github.com/industrieimport/storefront/middleware"
)

// maxBody bounds how much of a shop API response is buffered.
const maxBody = 4 << 20

type ClientConfig struct {
	// BaseURL is API_URL + API_PREFIX, without a trailing slash.
	BaseURL string
	// ReadTimeout is used for GET requests
	ReadTimeout time.Duration
	// WriteTimeout is used for POST, PUT, PATCH, DELETE requests
	WriteTimeout time.Duration
	Transport    http.RoundTripper
}

func DefaultClientConfig(baseURL string) ClientConfig {
	return ClientConfig{
		BaseURL:      strings.TrimRight(baseURL, "/"),
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 10 * time.Second,
	}
}

// Client is the one HTTP client every typed API goes through. It forwards the
// request id and the visitor's token, applies method-based timeouts, traces
// the call and maps transport failures to ErrTimeout / ErrUnavailable.
type Client struct {
	baseClient *http.Client
	config     ClientConfig
}

func NewClient(config ClientConfig) *Client {
	config.BaseURL = strings.TrimRight(config.BaseURL, "/")
	return &Client{
		baseClient: &http.Client{
			Transport: &middleware.TracingTransport{Base: config.Transport},
		},
		config: config,
	}
}

type ctxKeyToken struct{}

// WithToken pins the token used for calls made with ctx. Without it the
// token found by middleware.Auth is used.
func WithToken(ctx context.Context, token string) context.Context {
	return context.WithValue(ctx, ctxKeyToken{}, token)
}

func tokenFrom(ctx context.Context) string {
	if t, ok := ctx.Value(ctxKeyToken{}).(string); ok {
		return t
	}
	return middleware.GetBearerToken(ctx)
}

func (c *Client) Do(ctx context.Context, req *http.Request) (*http.Response, error) {
	if reqID := middleware.GetRequestID(ctx); reqID != "" {
		req.Header.Set(middleware.HeaderXRequestID, reqID)
	}
	if token := tokenFrom(ctx); token != "" && req.Header.Get("Authorization") == "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	timeout := c.config.ReadTimeout
	if isWriteMethod(req.Method) {
		timeout = c.config.WriteTimeout
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	req = req.WithContext(ctx)

	log := logger.Ctx(ctx).With().
		Str("method", req.Method).
		Str("url", req.URL.Redacted()).
		Logger()

	start := time.Now()
	resp, err := c.baseClient.Do(req)
	duration := time.Since(start)
	if err != nil {
		cancel()
		log.Warn().Err(err).Dur("duration", duration).Msg("downstream_request_failed")
		return nil, c.mapError(err)
	}

	log.Debug().Int("status", resp.StatusCode).Dur("duration", duration).Msg("downstream_request_completed")

	// the deadline has to outlive Do until the caller is done with the body
	resp.Body = &cancelOnClose{ReadCloser: resp.Body, cancel: cancel}
	return resp, nil
}

type cancelOnClose struct {
	io.ReadCloser
	cancel context.CancelFunc
}

func (b *cancelOnClose) Close() error {
	err := b.ReadCloser.Close()
	b.cancel()
	return err
}

func (c *Client) mapError(err error) error {
	if errors.Is(err, context.DeadlineExceeded) || errors.Is(err, context.Canceled) {
		return fmt.Errorf("%w: %v", ErrTimeout, err)
	}
	return fmt.Errorf("%w: %v", ErrUnavailable, err)
}

func isWriteMethod(method string) bool {
	switch method {
	case http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete:
		return true
	default:
		return false
	}
}

func (c *Client) newRequest(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Request, error) {
	req, err := http.NewRequestWithContext(ctx, method, c.config.BaseURL+path, body)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	if contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	return req, nil
}

func (c *Client) call(ctx context.Context, method, path string, in any) (*http.Response, error) {
	var body io.Reader
	contentType := ""
	if in != nil {
		b, err := json.Marshal(in)
		if err != nil {
			return nil, fmt.Errorf("encode %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(b)
		contentType = "application/json"
	}
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

// Forward streams an already-encoded body (a multipart product form) to path.
func (c *Client) Forward(ctx context.Context, method, path string, body io.Reader, contentType string) (*http.Response, error) {
	req, err := c.newRequest(ctx, method, path, body, contentType)
	if err != nil {
		return nil, err
	}
	return c.Do(ctx, req)
}

func getJSON[T any](ctx context.Context, c *Client, path string) (T, error) {
	return sendJSON[T](ctx, c, http.MethodGet, path, nil)
}

func sendJSON[T any](ctx context.Context, c *Client, method, path string, in any) (T, error) {
	var zero T
	resp, err := c.call(ctx, method, path, in)
	if err != nil {
		return zero, err
	}
	return decodeResponse[T](resp)
}

// send is sendJSON for calls whose response body is not needed.
func send(ctx context.Context, c *Client, method, path string, in any) error {
	_, err := sendJSON[json.RawMessage](ctx, c, method, path, in)
	return err
}

func decodeResponse[T any](resp *http.Response) (T, error) {
	defer resp.Body.Close()

	var out T
	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return out, decodeError(resp)
	}
	b, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return out, fmt.Errorf("%w: read body: %v", ErrUnavailable, err)
	}
	if len(bytes.TrimSpace(b)) == 0 {
		return out, nil
	}
	if err := json.Unmarshal(b, &out); err != nil {
		return out, fmt.Errorf("decode %s: %w", resp.Request.URL.Path, err)
	}
	return out, nil
}
