package main

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net"
	"net/http"
	"time"
)

// errDaemonDown means no client is listening on the control address.
var errDaemonDown = errors.New("marksync is not running")

type apiClient struct {
	baseURL    string
	httpClient *http.Client
}

func newAPIClient(listenAddr string) *apiClient {
	return &apiClient{
		baseURL:    "http://" + dialAddr(listenAddr),
		httpClient: &http.Client{Timeout: 30 * time.Second},
	}
}

// dialAddr maps a wildcard listen address to loopback, which the control
// API's default host allow-list accepts.
func dialAddr(listenAddr string) string {
	host, port, err := net.SplitHostPort(listenAddr)
	if err != nil {
		return listenAddr
	}
	switch host {
	case "", "0.0.0.0", "::":
		host = "127.0.0.1"
	}
	return net.JoinHostPort(host, port)
}

func (c *apiClient) do(ctx context.Context, method, path string, body any) error {
	var bodyReader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("marshalling request: %w", err)
		}
		bodyReader = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, bodyReader)
	if err != nil {
		return err
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		var opErr *net.OpError
		if errors.As(err, &opErr) && opErr.Op == "dial" {
			return errDaemonDown
		}
		return fmt.Errorf("control API not reachable: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 400 {
		msg, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return fmt.Errorf("control API returned %d: %s", resp.StatusCode, bytes.TrimSpace(msg))
	}
	return nil
}
