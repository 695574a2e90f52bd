// Package provider implements the client for the remote music catalog.
// The upstream has no bulk API, variable latency and an inconsistently shaped
// schema; this package normalizes its payloads into model slim entities.
// 上游不可用时调用方自行降级，这里只负责返回显式错误
package provider

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"
)

// Error 目录服务调用错误，携带操作名与HTTP状态码，便于调用方显式降级
type Error struct {
	Op         string
	StatusCode int
	Err        error
}

func (e *Error) Error() string {
	if e.StatusCode != 0 {
		return fmt.Sprintf("provider %s: status %d", e.Op, e.StatusCode)
	}
	return fmt.Sprintf("provider %s: %v", e.Op, e.Err)
}

func (e *Error) Unwrap() error { return e.Err }

// Client 音乐目录API客户端
type Client struct {
	baseURL    string
	httpClient *http.Client
}

// NewClient 创建新的API客户端
func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 8 * time.Second
	}
	return &Client{
		baseURL: baseURL,
		httpClient: &http.Client{
			Timeout: timeout,
		},
	}
}

// SetBaseURL 设置API基础URL
func (c *Client) SetBaseURL(url string) {
	c.baseURL = url
}

// SetTimeout 设置请求超时时间
func (c *Client) SetTimeout(timeout time.Duration) {
	c.httpClient.Timeout = timeout
}

// getJSON 发送GET请求并解析JSON响应。无重试，超时依赖http.Client
func (c *Client) getJSON(ctx context.Context, op, path string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+path, nil)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	req.Header.Set("Accept", "application/json")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return &Error{Op: op, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return &Error{Op: op, StatusCode: resp.StatusCode}
	}

	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return &Error{Op: op, Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}
