package api

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

	"sarathi/internal/config"
)

// TokenSource 是客户端对令牌存储的最小视角：请求前读、收到 401 后删。
// TokenSource is the client's minimal view of the token store: read before
// each request, delete after a 401.
type TokenSource interface {
	Get() (string, bool)
	Delete()
}

// StatusError 非 2xx 响应。调用方可据此区分授权失败与其它错误。
// StatusError is a non-2xx response. Callers can distinguish authorization
// failures from everything else by the code.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	if e.Body == "" {
		return fmt.Sprintf("request failed: status=%d", e.StatusCode)
	}
	return fmt.Sprintf("request failed: status=%d body=%s", e.StatusCode, e.Body)
}

// IsStatus 判断 err 是否为指定状态码的 StatusError。
// IsStatus reports whether err is a StatusError with the given code.
func IsStatus(err error, code int) bool {
	var se *StatusError
	return errors.As(err, &se) && se.StatusCode == code
}

// Client 唯一的网络出口。为每个请求附加 bearer 令牌，30 秒超时，
// 收到 401 时清除本地令牌后原样上抛——不重试、不重定向。
// Client is the single point of network egress. It attaches the bearer token
// to every request, times out per config, and on 401 purges the stored token
// before propagating the error unchanged. No retries here; retry policy
// belongs to the caller.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
}

func NewClient(cfg config.APIConfig, tokens TokenSource) *Client {
	timeout := time.Duration(cfg.TimeoutMS) * time.Millisecond
	return &Client{
		baseURL: strings.TrimRight(cfg.BaseURL, "/") + "/api",
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens: tokens,
	}
}

func (c *Client) do(ctx context.Context, method, path string, payload any, out any) error {
	var body io.Reader
	if payload != nil {
		data, err := json.Marshal(payload)
		if err != nil {
			return fmt.Errorf("marshal %s %s: %w", method, path, err)
		}
		body = bytes.NewReader(data)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, body)
	if err != nil {
		return fmt.Errorf("create %s %s: %w", method, path, err)
	}
	req.Header.Set("Content-Type", "application/json")

	// 读取令牌失败不会阻塞请求：直接以未认证方式发出。
	// A failed token read never blocks the request; it goes out
	// unauthenticated.
	if c.tokens != nil {
		if token, ok := c.tokens.Get(); ok {
			req.Header.Set("Authorization", "Bearer "+token)
		}
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return fmt.Errorf("send %s %s: %w", method, path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		if resp.StatusCode == http.StatusUnauthorized && c.tokens != nil {
			c.tokens.Delete()
		}
		data, _ := io.ReadAll(io.LimitReader(resp.Body, 4096))
		return &StatusError{
			StatusCode: resp.StatusCode,
			Body:       strings.TrimSpace(string(data)),
		}
	}

	if out == nil {
		return nil
	}
	if err := json.NewDecoder(resp.Body).Decode(out); err != nil {
		return fmt.Errorf("decode %s %s: %w", method, path, err)
	}
	return nil
}
