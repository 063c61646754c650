// Package remote is the HTTP transport to the bookmark service.
package remote

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/MrSnakeDoc/marksync/internal/logger"
)

// Client talks to the bookmark service.
type Client struct {
	baseURL    string
	httpClient *http.Client
	logger     logger.Logger

	mu             sync.RWMutex
	credential     string
	onUnauthorized func()
}

// NewClient builds a client. A nil httpClient gets a 15s timeout.
func NewClient(baseURL, credential string, httpClient *http.Client, log logger.Logger) *Client {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		baseURL = "http://127.0.0.1:3000"
	}
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 15 * time.Second}
	}
	if log == nil {
		log = logger.Nop()
	}
	return &Client{
		baseURL:    baseURL,
		httpClient: httpClient,
		logger:     log,
		credential: strings.TrimSpace(credential),
	}
}

// SetCredential replaces the bearer credential ("" sends none).
func (c *Client) SetCredential(token string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.credential = strings.TrimSpace(token)
}

// Credential returns the current bearer credential.
func (c *Client) Credential() string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.credential
}

// OnUnauthorized registers the callback fired once per 401 response.
func (c *Client) OnUnauthorized(fn func()) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.onUnauthorized = fn
}

type callOptions struct {
	etag     string
	body     any
	optional bool // 404 means the feature is absent
}

type rawResponse struct {
	kind    Kind
	body    []byte
	etag    string
	message string
	err     error
}

func call[T any](ctx context.Context, c *Client, method, path string, opts callOptions) Result[T] {
	raw := c.do(ctx, method, path, opts)
	if raw.kind != KindOK {
		return Result[T]{Kind: raw.kind, ETag: raw.etag, Message: raw.message, Err: raw.err}
	}
	var out T
	if len(bytes.TrimSpace(raw.body)) > 0 {
		if err := json.Unmarshal(raw.body, &out); err != nil {
			return Result[T]{Kind: KindTransient, Err: fmt.Errorf("decoding %s: %w", path, err)}
		}
	}
	return Result[T]{Kind: KindOK, Value: out, ETag: raw.etag}
}

func (c *Client) do(ctx context.Context, method, path string, opts callOptions) rawResponse {
	var bodyReader io.Reader
	if opts.body != nil {
		data, err := json.Marshal(opts.body)
		if err != nil {
			return rawResponse{kind: KindTransient, err: fmt.Errorf("marshalling request: %w", err)}
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return rawResponse{kind: KindTransient, err: err}
	}
	if token := c.Credential(); token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Correlation-Id", uuid.NewString())
	if opts.body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if opts.etag != "" {
		req.Header.Set("If-None-Match", opts.etag)
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(ctx.Err(), context.Canceled) {
			return rawResponse{kind: KindCancelled, err: err}
		}
		return rawResponse{kind: KindTransient, err: err}
	}
	payload, readErr := io.ReadAll(resp.Body)
	_ = resp.Body.Close()

	c.logger.Debug("remote request",
		logger.String("method", method),
		logger.String("path", path),
		logger.Int("status", resp.StatusCode),
		logger.Duration("duration", time.Since(start)))

	if readErr != nil {
		if errors.Is(ctx.Err(), context.Canceled) {
			return rawResponse{kind: KindCancelled, err: readErr}
		}
		return rawResponse{kind: KindTransient, err: readErr}
	}

	etag := resp.Header.Get("ETag")
	switch {
	case resp.StatusCode == http.StatusNotModified:
		return rawResponse{kind: KindNotModified, etag: etag}
	case resp.StatusCode >= 200 && resp.StatusCode <= 299:
		return rawResponse{kind: KindOK, body: payload, etag: etag}
	case resp.StatusCode == http.StatusUnauthorized:
		c.fireUnauthorized()
		return rawResponse{kind: KindUnauthorized}
	case resp.StatusCode == http.StatusNotFound && opts.optional:
		return rawResponse{kind: KindFeatureAbsent}
	}

	var errPayload struct {
		Code    string `json:"code"`
		Message string `json:"message"`
	}
	_ = json.Unmarshal(payload, &errPayload)

	if resp.StatusCode == http.StatusBadRequest || resp.StatusCode == http.StatusUnprocessableEntity {
		msg := errPayload.Message
		if msg == "" {
			msg = errPayload.Code
		}
		if msg == "" {
			msg = "invalid request"
		}
		return rawResponse{kind: KindInvalid, message: msg}
	}

	return rawResponse{kind: KindTransient, err: &HTTPError{
		StatusCode: resp.StatusCode,
		Code:       errPayload.Code,
		Message:    errPayload.Message,
	}}
}

func (c *Client) fireUnauthorized() {
	c.mu.RLock()
	fn := c.onUnauthorized
	c.mu.RUnlock()
	if fn != nil {
		fn()
	}
}
