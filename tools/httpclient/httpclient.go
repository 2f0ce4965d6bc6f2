package httpclient

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"time"
)

var defaultClient = &http.Client{Timeout: 30 * time.Second}

// CreateClient 返回共享的默认 http.Client
func CreateClient() *http.Client { return defaultClient }

// NewPooledClient 按连接池参数创建 http.Client
func NewPooledClient(timeout time.Duration, maxIdle, maxIdlePerHost int, idleTimeout time.Duration) *http.Client {
	return &http.Client{
		Timeout: timeout,
		Transport: &http.Transport{
			MaxIdleConns:        maxIdle,
			MaxIdleConnsPerHost: maxIdlePerHost,
			IdleConnTimeout:     idleTimeout,
		},
	}
}

// RequestC 发送带上下文的请求，返回响应体和状态码
func RequestC(ctx context.Context, client *http.Client, method, url string, body io.Reader, headers map[string]string) ([]byte, int, error) {
	if client == nil {
		client = defaultClient
	}

	if headers == nil {
		headers = map[string]string{
			"Content-Type": "application/json",
		}
	}
	req, err := http.NewRequestWithContext(ctx, method, url, body)
	if err != nil {
		return nil, 0, fmt.Errorf("failed to create request: %w", err)
	}

	for k, v := range headers {
		req.Header.Set(k, v)
	}

	resp, err := client.Do(req)
	if err != nil {
		return nil, 0, fmt.Errorf("request failed: %w", err)
	}

	defer resp.Body.Close()

	b, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, resp.StatusCode, fmt.Errorf("failed to read response body: %w", err)
	}
	return b, resp.StatusCode, nil
}
