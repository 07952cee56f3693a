package health

import (
	"net/http"
	"runtime"
	"time"

	"seefood/internal/core/ai/cache"
	"seefood/internal/core/detection"
	"seefood/internal/core/session"
	"seefood/internal/core/suggestion"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// HealthResponse 健康檢查響應
type HealthResponse struct {
	Status            string                 `json:"status"`
	Timestamp         time.Time              `json:"timestamp"`
	Version           string                 `json:"version"`
	VocabularyVersion string                 `json:"vocabulary_version"`
	Completion        CompletionStatus       `json:"completion"`
	Sessions          int                    `json:"sessions"`
	Cache             *cache.Stats           `json:"cache,omitempty"`
	Runtime           map[string]interface{} `json:"runtime"`
}

// CompletionStatus 文字生成端點狀態
type CompletionStatus struct {
	Online bool   `json:"online"`
	Model  string `json:"model"`
}

// HealthCheck 健康檢查處理器
func HealthCheck(c *gin.Context) {
	cfg, ok := c.MustGet("config").(*config.Config)
	if !ok {
		common.LogError("Invalid configuration type in context")
		c.JSON(http.StatusInternalServerError, common.ErrInternalError.Response(false))
		return
	}

	// 獲取運行時信息
	var m runtime.MemStats
	runtime.ReadMemStats(&m)

	response := HealthResponse{
		Status:            "ok",
		Timestamp:         time.Now(),
		Version:           cfg.App.Version,
		VocabularyVersion: detection.VocabularyVersion,
		Completion: CompletionStatus{
			Model: cfg.Completion.Model,
		},
		Runtime: map[string]interface{}{
			"goroutines": runtime.NumGoroutine(),
			"memory": map[string]interface{}{
				"alloc":       m.Alloc,
				"total_alloc": m.TotalAlloc,
				"sys":         m.Sys,
				"num_gc":      m.NumGC,
			},
		},
	}

	if v, ok := c.Get("suggestion_client"); ok {
		if client, ok := v.(*suggestion.Client); ok {
			response.Completion.Online = client.Online()
		}
	}
	if v, ok := c.Get("session_manager"); ok {
		if manager, ok := v.(*session.Manager); ok {
			response.Sessions = manager.Count()
		}
	}
	if v, ok := c.Get("cache_manager"); ok {
		if manager, ok := v.(*cache.CacheManager); ok && manager != nil {
			stats := manager.GetStats()
			response.Cache = &stats
		}
	}

	common.LogDebug("Health check request",
		zap.String("client_ip", c.ClientIP()),
		zap.String("path", c.Request.URL.Path),
	)

	c.JSON(http.StatusOK, response)
}

// ReadinessCheck 就緒檢查：工作階段管理員必須已注入
func ReadinessCheck(c *gin.Context) {
	if _, ok := c.Get("session_manager"); !ok {
		c.JSON(http.StatusServiceUnavailable, gin.H{
			"status": "not_ready",
		})
		return
	}
	c.JSON(http.StatusOK, gin.H{
		"status": "ready",
	})
}

// LivenessCheck 存活檢查處理器
func LivenessCheck(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "alive",
	})
}
