package completion

import (
	"context"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"seefood/internal/core/ai/provider"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/go-resty/resty/v2"
	"go.uber.org/zap"
)

// maxLoggedBody 錯誤訊息中保留的回應長度
const maxLoggedBody = 512

// Client OpenAI 相容 chat completion 客戶端
type Client struct {
	config config.CompletionConfig
	client *resty.Client
}

// envelope chat completion 回應
type envelope struct {
	Choices []struct {
		Message provider.Message `json:"message"`
	} `json:"choices"`
	Usage provider.Usage   `json:"usage"`
	Error json.RawMessage `json:"error"`
}

// NewClient 創建新的 completion 客戶端。
// ConnectTimeout 限制建立連線，ReadTimeout 限制等待回應。
func NewClient(cfg config.CompletionConfig) *Client {
	dialer := &net.Dialer{
		Timeout:   cfg.ConnectTimeout,
		KeepAlive: 30 * time.Second,
	}
	transport := &http.Transport{
		Proxy:                 http.ProxyFromEnvironment,
		DialContext:           dialer.DialContext,
		TLSHandshakeTimeout:   cfg.ConnectTimeout,
		ResponseHeaderTimeout: cfg.ReadTimeout,
		MaxIdleConns:          10,
		IdleConnTimeout:       90 * time.Second,
	}

	client := resty.New().
		SetTransport(transport).
		SetTimeout(cfg.ConnectTimeout+cfg.ReadTimeout).
		SetHeader("Content-Type", "application/json").
		SetHeader("Authorization", fmt.Sprintf("Bearer %s", cfg.APIKey))
	if cfg.Referer != "" {
		client.SetHeader("HTTP-Referer", cfg.Referer)
	}
	if cfg.Title != "" {
		client.SetHeader("X-Title", cfg.Title)
	}

	return &Client{
		config: cfg,
		client: client,
	}
}

// Complete 發送一次請求，不重試
func (c *Client) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req.Model == "" {
		req.Model = c.config.Model
	}

	common.LogDebug("Sending request to completion endpoint",
		zap.String("model", req.Model),
		zap.Int("messages", len(req.Messages)),
		zap.Bool("json_mode", req.ResponseFormat != nil),
	)

	resp, err := c.client.R().
		SetContext(ctx).
		SetBody(req).
		Post(c.config.URL)
	if err != nil {
		return nil, fmt.Errorf("failed to send request: %w", err)
	}

	body := resp.Body()
	if resp.StatusCode() < 200 || resp.StatusCode() > 299 {
		return nil, &provider.StatusError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(body)),
		}
	}

	// 2xx 但帶有 error 欄位時視同端點錯誤
	var env envelope
	err = common.ParseJSONBytes(body, &env)
	if err == nil && len(env.Choices) == 0 && len(env.Error) > 0 && string(env.Error) != "null" {
		common.LogWarn("completion 回應包含錯誤",
			zap.String("model", req.Model),
			zap.Int("status", resp.StatusCode()),
		)
		return nil, &provider.StatusError{
			StatusCode: resp.StatusCode(),
			Body:       truncate(string(body)),
		}
	}

	// 不是 chat completion 格式時，把整個 body 當作模型文字
	if err != nil || len(env.Choices) == 0 {
		common.LogWarn("completion 回應格式不符，改用原始內容",
			zap.String("model", req.Model),
			zap.Int("body_length", len(body)),
		)
		return &provider.Response{Content: string(body), Raw: true}, nil
	}

	content := env.Choices[0].Message.Content
	common.LogDebug("Successfully received completion",
		zap.String("model", req.Model),
		zap.Int("content_length", len(content)),
		zap.Int("total_tokens", env.Usage.TotalTokens),
	)
	return &provider.Response{Content: content, Usage: env.Usage}, nil
}

// GetModel 獲取當前使用的模型名稱
func (c *Client) GetModel() string {
	return c.config.Model
}

// Close 關閉客戶端
func (c *Client) Close() error {
	c.client.GetClient().CloseIdleConnections()
	return nil
}

func truncate(s string) string {
	s = strings.TrimSpace(s)
	if len(s) <= maxLoggedBody {
		return s
	}
	return s[:maxLoggedBody] + "..."
}
