// Package wechat 封装公众号客服消息、临时素材和 access token 接口。
package wechat

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"

	"wxadapter/tools/httpclient"
	"wxadapter/tools/logger"
	"wxadapter/wechat/pkg/store"
)

// DefaultBaseURL 公众号开放接口地址
const DefaultBaseURL = "https://api.weixin.qq.com"

// tokenMargin 提前刷新的余量
const tokenMargin = 5 * time.Minute

// Options 客户端参数，Store 为空时使用进程内缓存
type Options struct {
	AppID      string
	AppSecret  string
	BaseURL    string
	HTTPClient *http.Client
	Store      store.Store
	Logger     *logger.Logger
}

// Client 公众号接口客户端
type Client struct {
	appID      string
	appSecret  string
	baseURL    string
	httpClient *http.Client
	store      store.Store
	logger     *logger.Logger
	// 串行化刷新，避免并发请求同时换 token
	refreshMu sync.Mutex
}

// NewClient 创建新的公众号客户端
func NewClient(opts Options) *Client {
	if opts.BaseURL == "" {
		opts.BaseURL = DefaultBaseURL
	}
	if opts.HTTPClient == nil {
		opts.HTTPClient = httpclient.CreateClient()
	}
	if opts.Store == nil {
		opts.Store = store.NewMemoryStore()
	}
	if opts.Logger == nil {
		opts.Logger = logger.Nop()
	}
	return &Client{
		appID:      opts.AppID,
		appSecret:  opts.AppSecret,
		baseURL:    strings.TrimRight(opts.BaseURL, "/"),
		httpClient: opts.HTTPClient,
		store:      opts.Store,
		logger:     opts.Logger,
	}
}

// APIError 接口返回的非零 errcode
type APIError struct {
	ErrCode int    `json:"errcode"`
	ErrMsg  string `json:"errmsg"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("wechat api error: errcode=%d, errmsg=%s", e.ErrCode, e.ErrMsg)
}

// InvalidToken access token 失效、错误或过期
func (e *APIError) InvalidToken() bool {
	switch e.ErrCode {
	case 40001, 40014, 42001:
		return true
	}
	return false
}

// IsInvalidToken 判断错误链中是否有 token 失效类错误
func IsInvalidToken(err error) bool {
	var apiErr *APIError
	return errors.As(err, &apiErr) && apiErr.InvalidToken()
}

type tokenResponse struct {
	APIError
	AccessToken string `json:"access_token"`
	ExpiresIn   int    `json:"expires_in"`
}

// GetAccessToken 获取 access token。forceRefresh 为 true 时忽略缓存
func (c *Client) GetAccessToken(ctx context.Context, forceRefresh bool) (string, error) {
	if !forceRefresh {
		token, err := c.store.GetToken(ctx, c.appID)
		if err != nil {
			c.logger.Warn("Failed to read cached access token: %v", err)
		} else if token != "" {
			c.logger.Debug("Using cached access token")
			return token, nil
		}
	}

	c.refreshMu.Lock()
	defer c.refreshMu.Unlock()

	// 等锁期间可能已被其他请求刷新
	if !forceRefresh {
		if token, err := c.store.GetToken(ctx, c.appID); err == nil && token != "" {
			return token, nil
		}
	}

	c.logger.Info("Fetching new access token")
	q := url.Values{}
	q.Set("grant_type", "client_credential")
	q.Set("appid", c.appID)
	q.Set("secret", c.appSecret)

	body, status, err := httpclient.RequestC(ctx, c.httpClient, http.MethodGet, c.baseURL+"/cgi-bin/token?"+q.Encode(), nil, nil)
	if err != nil {
		c.logger.Error("Failed to send token request: %v", err)
		return "", fmt.Errorf("failed to send token request: %w", err)
	}
	if status != http.StatusOK {
		c.logger.Error("Token request failed: status=%d, response=%s", status, body)
		return "", fmt.Errorf("token request failed: status=%d", status)
	}

	var result tokenResponse
	if err := json.Unmarshal(body, &result); err != nil {
		c.logger.Error("Failed to decode token response: %v", err)
		return "", fmt.Errorf("failed to decode token response: %w", err)
	}
	if result.ErrCode != 0 {
		c.logger.Error("Token API error: errcode=%d, errmsg=%s", result.ErrCode, result.ErrMsg)
		return "", &result.APIError
	}
	if result.AccessToken == "" {
		return "", fmt.Errorf("token response without access_token")
	}

	ttl := time.Duration(result.ExpiresIn)*time.Second - tokenMargin
	if ttl <= 0 {
		ttl = time.Minute
	}
	if err := c.store.SetToken(ctx, c.appID, result.AccessToken, ttl); err != nil {
		c.logger.Warn("Failed to cache access token: %v", err)
	}
	c.logger.Info("Successfully obtained access token, ttl: %v", ttl)
	return result.AccessToken, nil
}

// invalidate 删除缓存的 token，下次调用重新获取
func (c *Client) invalidate(ctx context.Context) {
	if err := c.store.DeleteToken(ctx, c.appID); err != nil {
		c.logger.Warn("Failed to invalidate access token: %v", err)
	}
}

// postJSON 带 access token 调用 JSON 接口并检查 errcode
func (c *Client) postJSON(ctx context.Context, path string, payload any, out any) error {
	token, err := c.GetAccessToken(ctx, false)
	if err != nil {
		return fmt.Errorf("failed to get access token: %w", err)
	}

	data, err := json.Marshal(payload)
	if err != nil {
		return fmt.Errorf("failed to marshal payload: %w", err)
	}
	c.logger.Debug("POST %s payload: %s", path, data)

	endpoint := c.baseURL + path + "?access_token=" + url.QueryEscape(token)
	body, status, err := httpclient.RequestC(ctx, c.httpClient, http.MethodPost, endpoint, strings.NewReader(string(data)), nil)
	if err != nil {
		return fmt.Errorf("failed to send request: %w", err)
	}
	return c.decode(ctx, path, status, body, out)
}

func (c *Client) decode(ctx context.Context, path string, status int, body []byte, out any) error {
	if status != http.StatusOK {
		c.logger.Error("%s failed: status=%d, response=%s", path, status, body)
		return fmt.Errorf("%s failed: status=%d", path, status)
	}
	var apiErr APIError
	if err := json.Unmarshal(body, &apiErr); err != nil {
		return fmt.Errorf("failed to decode %s response: %w", path, err)
	}
	if apiErr.ErrCode != 0 {
		if apiErr.InvalidToken() {
			c.invalidate(ctx)
		}
		c.logger.Error("%s API error: errcode=%d, errmsg=%s", path, apiErr.ErrCode, apiErr.ErrMsg)
		return &apiErr
	}
	if out != nil {
		if err := json.Unmarshal(body, out); err != nil {
			return fmt.Errorf("failed to decode %s response: %w", path, err)
		}
	}
	return nil
}
