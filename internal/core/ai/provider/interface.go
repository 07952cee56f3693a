package provider

import (
	"context"
	"fmt"
)

// Message 表示與 AI 模型的對話消息
type Message struct {
	Role    string `json:"role"`
	Content string `json:"content"`
}

// ResponseFormat 要求模型輸出的格式
type ResponseFormat struct {
	Type string `json:"type"`
}

// JSONObjectFormat 要求模型只回傳 JSON
var JSONObjectFormat = &ResponseFormat{Type: "json_object"}

// Request 表示發送到 completion 端點的請求（OpenAI 相容）
type Request struct {
	Model          string          `json:"model"`
	Temperature    float64         `json:"temperature"`
	Messages       []Message       `json:"messages"`
	ResponseFormat *ResponseFormat `json:"response_format,omitempty"`

	// Validate 檢查回覆是否可用；不為 nil 時只有通過檢查的回覆才會被緩存
	Validate func(content string) error `json:"-"`
}

// Usage token 使用量
type Usage struct {
	PromptTokens     int `json:"prompt_tokens"`
	CompletionTokens int `json:"completion_tokens"`
	TotalTokens      int `json:"total_tokens"`
}

// Response 表示從端點收到的文字
// Raw 為 true 代表回應不是 chat completion 格式，Content 是原始 body
type Response struct {
	Content  string `json:"content"`
	Usage    Usage  `json:"usage"`
	Raw      bool   `json:"raw,omitempty"`
	CacheHit bool   `json:"cache_hit,omitempty"`
}

// Provider 定義 completion 提供者介面
type Provider interface {
	// Complete 送出請求並回傳模型文字
	Complete(ctx context.Context, req *Request) (*Response, error)

	// GetModel 獲取當前使用的模型名稱
	GetModel() string

	// Close 關閉提供者連接
	Close() error
}

// StatusError 端點回傳非 2xx
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	return fmt.Sprintf("completion endpoint returned status %d: %s", e.StatusCode, e.Body)
}
