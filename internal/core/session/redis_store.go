package session

import (
	"context"
	"fmt"
	"time"

	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"github.com/go-redis/redis/v8"
	"go.uber.org/zap"
)

// RedisHistoryStore 以 Redis list 保存建議歷史，最新在前
type RedisHistoryStore struct {
	client *redis.Client
	ttl    time.Duration
}

// NewRedisHistoryStore 連線 Redis；未啟用時回傳 nil
func NewRedisHistoryStore(ctx context.Context, cfg config.RedisConfig) (*RedisHistoryStore, error) {
	if !cfg.Enabled {
		return nil, nil
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})

	// 測試連接
	if err := client.Ping(ctx).Err(); err != nil {
		_ = client.Close()
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	common.LogInfo("歷史紀錄鏡像已連線", zap.String("addr", cfg.Addr), zap.Duration("ttl", cfg.TTL))
	return &RedisHistoryStore{client: client, ttl: cfg.TTL}, nil
}

// Append 將批次推到 list 前端並刷新存活時間
func (s *RedisHistoryStore) Append(ctx context.Context, sessionID string, batch common.SuggestionBatch) error {
	data, err := common.ToJSON(batch)
	if err != nil {
		return fmt.Errorf("failed to marshal batch: %w", err)
	}

	key := historyKey(sessionID)
	pipe := s.client.TxPipeline()
	pipe.LPush(ctx, key, data)
	if s.ttl > 0 {
		pipe.Expire(ctx, key, s.ttl)
	}
	if _, err := pipe.Exec(ctx); err != nil {
		return fmt.Errorf("failed to append history: %w", err)
	}
	return nil
}

// List 讀取最新的 limit 筆，limit <= 0 表示全部
func (s *RedisHistoryStore) List(ctx context.Context, sessionID string, limit int) ([]common.SuggestionBatch, error) {
	stop := int64(-1)
	if limit > 0 {
		stop = int64(limit - 1)
	}

	items, err := s.client.LRange(ctx, historyKey(sessionID), 0, stop).Result()
	if err != nil {
		if err == redis.Nil {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read history: %w", err)
	}

	batches := make([]common.SuggestionBatch, 0, len(items))
	for _, item := range items {
		var b common.SuggestionBatch
		if err := common.ParseJSON(item, &b); err != nil {
			common.LogWarn("略過無法解析的歷史紀錄", zap.String("session_id", sessionID), zap.Error(err))
			continue
		}
		batches = append(batches, b)
	}
	return batches, nil
}

// Delete 刪除工作階段的歷史
func (s *RedisHistoryStore) Delete(ctx context.Context, sessionID string) error {
	if err := s.client.Del(ctx, historyKey(sessionID)).Err(); err != nil {
		return fmt.Errorf("failed to delete history: %w", err)
	}
	return nil
}

// Close 關閉連線
func (s *RedisHistoryStore) Close() error {
	return s.client.Close()
}

func historyKey(sessionID string) string {
	return fmt.Sprintf("seefood:history:%s", sessionID)
}
