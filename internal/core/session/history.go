package session

import (
	"context"

	"seefood/internal/pkg/common"
)

// HistoryStore 建議歷史的外部鏡像
type HistoryStore interface {
	Append(ctx context.Context, sessionID string, batch common.SuggestionBatch) error
	List(ctx context.Context, sessionID string, limit int) ([]common.SuggestionBatch, error)
	Delete(ctx context.Context, sessionID string) error
	Close() error
}
