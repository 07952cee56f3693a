package service

import (
	"context"
	"strconv"
	"strings"
	"time"

	"seefood/internal/core/ai/cache"
	"seefood/internal/core/ai/provider"
	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// Service 在 completion 提供者前加上緩存
type Service struct {
	provider     provider.Provider
	cacheManager *cache.CacheManager
}

// NewService 創建 AI 服務；cacheManager 可為 nil
func NewService(p provider.Provider, cacheManager *cache.CacheManager) *Service {
	return &Service{
		provider:     p,
		cacheManager: cacheManager,
	}
}

// Complete 統一對外方法：先查緩存，未命中才呼叫端點，只緩存成功的結果
func (s *Service) Complete(ctx context.Context, req *provider.Request) (*provider.Response, error) {
	if req.Model == "" {
		req.Model = s.provider.GetModel()
	}
	key := cacheKey(req)

	if val, err := s.cacheManager.Get(req.Model, key); err == nil {
		return &provider.Response{Content: val, CacheHit: true}, nil
	}

	start := time.Now()
	resp, err := s.provider.Complete(ctx, req)
	if err != nil {
		return nil, err
	}

	if cacheable(req, resp) {
		if err := s.cacheManager.Set(req.Model, key, resp.Content); err != nil {
			common.LogDebug("completion 未寫入快取", zap.Error(err))
		}
	}
	common.LogDebug("completion 完成",
		zap.String("model", req.Model),
		zap.Duration("耗時", time.Since(start)),
	)
	return resp, nil
}

// GetModel 模型名稱
func (s *Service) GetModel() string {
	return s.provider.GetModel()
}

// CacheStats 緩存統計
func (s *Service) CacheStats() cache.Stats {
	return s.cacheManager.GetStats()
}

// Close 關閉提供者與緩存
func (s *Service) Close() error {
	_ = s.cacheManager.Close()
	return s.provider.Close()
}

// cacheable 非原始 body、非空白，且通過請求附帶的檢查
func cacheable(req *provider.Request, resp *provider.Response) bool {
	if resp.Raw || strings.TrimSpace(resp.Content) == "" {
		return false
	}
	if req.Validate == nil {
		return true
	}
	if err := req.Validate(resp.Content); err != nil {
		common.LogDebug("completion 回覆未通過檢查，不緩存", zap.Error(err))
		return false
	}
	return true
}

// cacheKey 由所有訊息與輸出格式組成
func cacheKey(req *provider.Request) string {
	var b strings.Builder
	b.WriteString(strconv.FormatFloat(req.Temperature, 'f', -1, 64))
	if req.ResponseFormat != nil {
		b.WriteString(req.ResponseFormat.Type)
	}
	for _, m := range req.Messages {
		b.WriteString("\x1e")
		b.WriteString(m.Role)
		b.WriteString("\x1f")
		b.WriteString(m.Content)
	}
	return b.String()
}
