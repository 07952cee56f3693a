package handlers

import (
	"net/http"

	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RespondError 以統一格式回傳錯誤；debug 模式附帶原始錯誤
func RespondError(c *gin.Context, err error) {
	ce := common.AsCustomError(err)

	fields := []zap.Field{
		zap.String("code", ce.Code),
		zap.String("path", c.Request.URL.Path),
		zap.String("request_id", requestid.Get(c)),
	}
	if ce.Err != nil {
		fields = append(fields, zap.Error(ce.Err))
	}
	if ce.Status >= http.StatusInternalServerError {
		common.LogError("請求處理失敗", fields...)
	} else {
		common.LogDebug("請求被拒絕", fields...)
	}

	_ = c.Error(err)
	c.AbortWithStatusJSON(ce.Status, ce.Response(debugMode(c)))
}

// BindJSON 解析請求體，失敗時回傳 ErrInvalidRequest
func BindJSON(c *gin.Context, v interface{}) error {
	if err := c.ShouldBindJSON(v); err != nil {
		return common.ErrInvalidRequest.Wrap(err)
	}
	return nil
}

// debugMode 由 context 中的設定判斷
func debugMode(c *gin.Context) bool {
	if v, ok := c.Get("config"); ok {
		if cfg, ok := v.(*config.Config); ok {
			return cfg.App.Debug
		}
	}
	return false
}
