package api

import (
	"context"
	"net/http"
	"time"

	"seefood/internal/api/handlers/health"
	"seefood/internal/api/handlers/label"
	recipeHandler "seefood/internal/api/handlers/recipe"
	sessionHandler "seefood/internal/api/handlers/session"
	"seefood/internal/api/middleware"
	"seefood/internal/core/ai/cache"
	"seefood/internal/core/image"
	"seefood/internal/core/session"
	"seefood/internal/core/suggestion"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Services 路由需要的服務
type Services struct {
	Cache      *cache.CacheManager
	Suggestion *suggestion.Client
	Sessions   *session.Manager
	Images     *image.Service
}

// SetupRouter 設置路由
func SetupRouter(cfg *config.Config, svc *Services) *gin.Engine {
	common.LogInfo("Starting router setup",
		zap.Bool("debug_mode", cfg.App.Debug),
		zap.String("version", cfg.App.Version),
		zap.String("environment", cfg.App.Env),
	)

	// 設置 gin 模式
	if !cfg.App.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	router := gin.New()

	// 註冊基礎中間件
	router.Use(middleware.Recovery())
	router.Use(requestid.New()) // 自動生成請求 ID
	router.Use(middleware.Logger())

	// CORS 設置
	router.Use(cors.New(cors.Config{
		AllowOrigins:  []string{"*"},
		AllowMethods:  []string{"GET", "POST", "PUT", "DELETE", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization", "X-Request-ID"},
		ExposeHeaders: []string{"Content-Length", "X-Request-ID"},
		MaxAge:        12 * time.Hour,
	}))

	// 請求體大小限制
	router.Use(middleware.BodySizeLimit(cfg.Server.MaxBodyBytes))

	timeout := cfg.Server.RequestTimeout

	// 全局中間件：設置超時和服務
	router.Use(func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), timeout)
		defer cancel()
		c.Request = c.Request.WithContext(ctx)

		c.Set("config", cfg)
		c.Set("cache_manager", svc.Cache)
		c.Set("suggestion_client", svc.Suggestion)
		c.Set("session_manager", svc.Sessions)

		c.Next()

		if ctx.Err() == context.DeadlineExceeded {
			common.LogError("Request timeout",
				zap.String("path", c.Request.URL.Path),
				zap.String("request_id", requestid.Get(c)),
				zap.Duration("timeout", timeout),
			)
			if !c.Writer.Written() {
				c.AbortWithStatusJSON(http.StatusGatewayTimeout, common.ErrGatewayTimeout.Response(false))
			}
		}
	})

	// 健康檢查路由
	router.GET("/health", health.HealthCheck)
	router.GET("/ready", health.ReadinessCheck)
	router.GET("/live", health.LivenessCheck)

	api := router.Group("/api/v1")
	if cfg.RateLimit.Enabled {
		api.Use(middleware.RateLimit(cfg.RateLimit.Requests, cfg.RateLimit.Window))
	}
	dedup := middleware.NewDeduplicator(cfg.DedupWindow).Handler()

	sessions := sessionHandler.NewHandler(svc.Sessions, svc.Images, svc.Suggestion)
	recipes := recipeHandler.NewHandler(svc.Suggestion)

	{
		// 掃描工作階段
		sessionGroup := api.Group("/sessions")
		{
			sessionGroup.POST("", sessions.Create)
			sessionGroup.GET("/:id", sessions.Get)
			sessionGroup.DELETE("/:id", sessions.Delete)

			// 相機畫面
			sessionGroup.POST("/:id/frames", sessions.Frame)

			// 食材編輯
			sessionGroup.POST("/:id/ingredients", sessions.AddIngredient)
			sessionGroup.PUT("/:id/ingredients", sessions.SetIngredients)
			sessionGroup.DELETE("/:id/ingredients/:name", sessions.RemoveIngredient)
			sessionGroup.POST("/:id/ingredients/:name/toggle", sessions.ToggleIngredient)
			sessionGroup.POST("/:id/reset", sessions.Reset)

			// 建議與歷史
			sessionGroup.POST("/:id/suggestions", dedup, sessions.Suggest)
			sessionGroup.GET("/:id/history", sessions.History)
		}

		// 無狀態的食譜操作
		recipeGroup := api.Group("/recipes")
		{
			recipeGroup.POST("/suggest", dedup, recipes.HandleSuggest)
			recipeGroup.POST("/nutrition", dedup, recipes.HandleNutrition)
		}

		api.POST("/labels/normalize", label.HandleNormalize)
	}

	common.LogInfo("Router setup completed successfully",
		zap.Bool("completion_online", svc.Suggestion.Online()),
		zap.Bool("cache_enabled", svc.Cache != nil),
		zap.Bool("rate_limit", cfg.RateLimit.Enabled),
		zap.Duration("timeout", timeout),
		zap.Int64("max_body_size", cfg.Server.MaxBodyBytes),
	)

	return router
}
