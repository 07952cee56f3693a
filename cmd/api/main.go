package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"seefood/internal/api"
	"seefood/internal/core/ai/cache"
	"seefood/internal/core/ai/completion"
	"seefood/internal/core/ai/service"
	"seefood/internal/core/detection"
	"seefood/internal/core/image"
	"seefood/internal/core/session"
	"seefood/internal/core/suggestion"
	"seefood/internal/infrastructure/config"
	"seefood/internal/infrastructure/rekognition"
	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

func main() {
	// 載入設定（含 .env）
	cfg, err := config.LoadConfig()
	if err != nil {
		fmt.Printf("Failed to load config: %v\n", err)
		os.Exit(1)
	}

	// 初始化 logger（需在載入 config 後）
	if err := common.InitLogger(cfg.LogLevel); err != nil {
		fmt.Printf("Failed to initialize logger: %v\n", err)
		os.Exit(1)
	}
	defer common.Sync()

	common.LogInfo("載入設定",
		zap.String("completion_api_key", common.MaskAPIKey(cfg.Completion.APIKey)),
		zap.String("completion_model", cfg.Completion.Model),
		zap.Bool("json_mode", cfg.Completion.JSONMode),
		zap.Float64("confidence_threshold", cfg.Detection.ConfidenceThreshold),
	)

	ctx := context.Background()

	// 初始化快取與 completion 服務
	cacheManager := cache.NewManager(cfg.Cache)
	aiService := service.NewService(completion.NewClient(cfg.Completion), cacheManager)
	defer aiService.Close()

	suggester := suggestion.NewClient(cfg.Completion, aiService)
	if !suggester.Online() {
		common.LogWarn("未設定 completion 憑證，食譜建議使用範例資料")
	}

	// 伺服器端圖片分類（可選）
	var classifier detection.Classifier = detection.PassthroughClassifier{}
	if cfg.Detection.Rekognition.Enabled {
		rek, err := rekognition.New(ctx, cfg.Detection.Rekognition)
		if err != nil {
			common.LogFatal("Failed to initialize rekognition classifier", zap.Error(err))
		}
		classifier = detection.RoutingClassifier{Image: rek}
		common.LogInfo("Rekognition classifier enabled", zap.String("region", cfg.Detection.Rekognition.Region))
	}

	// 歷史紀錄鏡像（可選）
	var store session.HistoryStore
	redisStore, err := session.NewRedisHistoryStore(ctx, cfg.History.Redis)
	if err != nil {
		common.LogFatal("Failed to connect history store", zap.Error(err))
	}
	if redisStore != nil {
		store = redisStore
	}

	manager := session.NewManager(cfg.Detection, cfg.Session, classifier, store)
	defer manager.Close()

	router := api.SetupRouter(cfg, &api.Services{
		Cache:      cacheManager,
		Suggestion: suggester,
		Sessions:   manager,
		Images:     image.NewService(cfg.Image.MaxSizeBytes),
	})

	// 設置 HTTP 服務器
	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", cfg.Server.Port),
		Handler:      router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// 啟動服務器
	go func() {
		common.LogInfo("啟動應用",
			zap.String("version", cfg.App.Version),
			zap.String("env", cfg.App.Env),
			zap.Int("port", cfg.Server.Port),
			zap.Bool("debug", cfg.App.Debug),
		)

		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			common.LogFatal("Failed to start server", zap.Error(err))
		}
	}()

	// 等待中斷信號
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	common.LogInfo("Shutting down server...")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		common.LogError("Server forced to shutdown", zap.Error(err))
	}

	common.LogInfo("Server exited")
}
