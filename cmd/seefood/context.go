package main

import (
	"strings"

	"seefood/internal/core/ai/cache"
	"seefood/internal/core/ai/completion"
	"seefood/internal/core/ai/service"
	"seefood/internal/core/suggestion"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type commandContext struct {
	configFlag *string
	logLevel   *string

	config *config.Config
}

func newCommandContext(configFlag, logLevel *string) *commandContext {
	return &commandContext{configFlag: configFlag, logLevel: logLevel}
}

// ensureConfig 載入一次設定；未指定檔案時讀取 .env 與環境變數
func (c *commandContext) ensureConfig() (*config.Config, error) {
	if c.config != nil {
		return c.config, nil
	}

	var cfg *config.Config
	var err error
	if path := strings.TrimSpace(*c.configFlag); path != "" {
		cfg, err = config.Load(viper.New(), path)
	} else {
		cfg, err = config.LoadConfig()
	}
	if err != nil {
		return nil, err
	}
	c.config = cfg
	return cfg, nil
}

// setupLogging CLI 預設不輸出日誌；--log-level 時寫到 stderr
func (c *commandContext) setupLogging(cmd *cobra.Command) {
	level := strings.TrimSpace(*c.logLevel)
	if level == "" {
		common.SetLogger(zap.NewNop())
		return
	}
	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(zap.NewDevelopmentEncoderConfig()),
		zapcore.AddSync(cmd.ErrOrStderr()),
		common.ParseLevel(level),
	)
	common.SetLogger(zap.New(core))
}

// suggestionClient 依設定建立建議客戶端；沒有憑證時只回傳離線結果
func (c *commandContext) suggestionClient() (*suggestion.Client, func(), error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, nil, err
	}
	if !cfg.Completion.HasKey() {
		return suggestion.NewClient(cfg.Completion, nil), func() {}, nil
	}

	svc := service.NewService(completion.NewClient(cfg.Completion), cache.NewManager(cfg.Cache))
	return suggestion.NewClient(cfg.Completion, svc), func() { _ = svc.Close() }, nil
}
