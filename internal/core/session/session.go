package session

import (
	"context"
	"strings"
	"sync"
	"time"

	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// Snapshot 工作階段狀態的不可變副本
type Snapshot struct {
	ID        string    `json:"id"`
	AllSeen   []string  `json:"all_seen"`
	Selected  []string  `json:"selected"`
	Version   uint64    `json:"version"`
	UpdatedAt time.Time `json:"updated_at"`
}

// Contains 是否已看過該食材
func (s Snapshot) Contains(token string) bool {
	for _, t := range s.AllSeen {
		if t == token {
			return true
		}
	}
	return false
}

// IsSelected 是否已勾選該食材
func (s Snapshot) IsSelected(token string) bool {
	for _, t := range s.Selected {
		if t == token {
			return true
		}
	}
	return false
}

// IngredientSession 一次掃描中的食材集合與建議歷史。
// 所有變更都在同一把鎖內完成，讀取端只拿到 Snapshot。
type IngredientSession struct {
	id    string
	store HistoryStore

	mu          sync.Mutex
	allSeen     []string
	selected    map[string]struct{}
	history     []common.SuggestionBatch
	version     uint64
	updatedAt   time.Time
	subscribers map[int]chan Snapshot
	nextSubID   int
}

// New 創建新的工作階段；store 可為 nil
func New(id string, store HistoryStore) *IngredientSession {
	return &IngredientSession{
		id:          id,
		store:       store,
		selected:    make(map[string]struct{}),
		updatedAt:   time.Now(),
		subscribers: make(map[int]chan Snapshot),
	}
}

// ID 工作階段 ID
func (s *IngredientSession) ID() string {
	return s.id
}

// MergeDetected 合併偵測到的食材，新項目附加在後，並全部設為已選
func (s *IngredientSession) MergeDetected(tokens []string) {
	s.mutate(func() bool {
		for _, t := range tokens {
			s.appendSeen(strings.TrimSpace(t))
		}
		s.selected = make(map[string]struct{}, len(s.allSeen))
		for _, t := range s.allSeen {
			s.selected[t] = struct{}{}
		}
		return true
	})
}

// ToggleSelected 切換單一食材的勾選狀態並回傳是否變動；未看過的食材直接忽略
func (s *IngredientSession) ToggleSelected(token string) bool {
	token = strings.TrimSpace(token)
	toggled := false
	s.mutate(func() bool {
		if !s.seen(token) {
			return false
		}
		if _, ok := s.selected[token]; ok {
			delete(s.selected, token)
		} else {
			s.selected[token] = struct{}{}
		}
		toggled = true
		return true
	})
	return toggled
}

// AddManual 手動加入食材（只做 trim，不經 Normalizer），回傳是否為新項目
func (s *IngredientSession) AddManual(text string) bool {
	text = strings.TrimSpace(text)
	if text == "" {
		return false
	}

	added := false
	s.mutate(func() bool {
		added = s.appendSeen(text)
		if _, ok := s.selected[text]; ok && !added {
			return false
		}
		s.selected[text] = struct{}{}
		return true
	})
	return added
}

// SetAll 整批取代食材清單，全部設為已選
func (s *IngredientSession) SetAll(tokens []string) {
	cleaned := common.CleanStrings(tokens)
	s.mutate(func() bool {
		s.allSeen = cleaned
		s.selected = make(map[string]struct{}, len(cleaned))
		for _, t := range cleaned {
			s.selected[t] = struct{}{}
		}
		return true
	})
}

// Remove 從清單與已選中移除，回傳是否存在
func (s *IngredientSession) Remove(token string) bool {
	token = strings.TrimSpace(token)
	removed := false
	s.mutate(func() bool {
		for i, t := range s.allSeen {
			if t == token {
				s.allSeen = append(s.allSeen[:i:i], s.allSeen[i+1:]...)
				delete(s.selected, token)
				removed = true
				break
			}
		}
		return removed
	})
	return removed
}

// Reset 清空食材清單（建議歷史保留）
func (s *IngredientSession) Reset() {
	s.mutate(func() bool {
		s.allSeen = nil
		s.selected = make(map[string]struct{})
		return true
	})
}

// Snapshot 取得目前狀態
func (s *IngredientSession) Snapshot() Snapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.snapshotLocked()
}

// SuggestionInput 送去建議的食材：優先使用已選項目，沒有已選時用全部
func (s *IngredientSession) SuggestionInput() []string {
	snap := s.Snapshot()
	if len(snap.Selected) > 0 {
		return snap.Selected
	}
	return snap.AllSeen
}

// Subscribe 訂閱狀態變更；通道只保留最新一筆，cancel 後關閉
func (s *IngredientSession) Subscribe() (<-chan Snapshot, func()) {
	s.mu.Lock()
	defer s.mu.Unlock()

	id := s.nextSubID
	s.nextSubID++
	ch := make(chan Snapshot, 1)
	ch <- s.snapshotLocked()
	s.subscribers[id] = ch

	var once sync.Once
	cancel := func() {
		once.Do(func() {
			s.mu.Lock()
			defer s.mu.Unlock()
			if sub, ok := s.subscribers[id]; ok {
				delete(s.subscribers, id)
				close(sub)
			}
		})
	}
	return ch, cancel
}

// RecordBatch 將一次建議結果加到歷史最前面，並鏡像到外部儲存
func (s *IngredientSession) RecordBatch(ctx context.Context, ingredients []string, recipes []common.Recipe) common.SuggestionBatch {
	batch := common.SuggestionBatch{
		ID:          common.GenerateUUID(),
		CreatedAt:   time.Now().UTC(),
		Ingredients: append([]string(nil), ingredients...),
		Recipes:     common.CloneRecipes(recipes),
	}

	s.mu.Lock()
	s.history = append([]common.SuggestionBatch{batch}, s.history...)
	s.updatedAt = time.Now()
	s.mu.Unlock()

	if s.store != nil {
		if err := s.store.Append(ctx, s.id, batch); err != nil {
			common.LogWarn("歷史紀錄鏡像失敗",
				zap.String("session_id", s.id),
				zap.Error(err),
			)
		}
	}
	return batch.Clone()
}

// StoredHistory 從外部鏡像讀取歷史，最新在前；limit <= 0 表示全部
func (s *IngredientSession) StoredHistory(ctx context.Context, limit int) ([]common.SuggestionBatch, error) {
	if s.store == nil {
		return nil, common.ErrHistoryDisabled
	}
	batches, err := s.store.List(ctx, s.id, limit)
	if err != nil {
		return nil, common.ErrServiceUnavailable.Wrap(err)
	}
	if batches == nil {
		batches = []common.SuggestionBatch{}
	}
	return batches, nil
}

// History 建議歷史，最新在前
func (s *IngredientSession) History() []common.SuggestionBatch {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make([]common.SuggestionBatch, len(s.history))
	for i, b := range s.history {
		out[i] = b.Clone()
	}
	return out
}

// close 關閉所有訂閱
func (s *IngredientSession) close() {
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, ch := range s.subscribers {
		delete(s.subscribers, id)
		close(ch)
	}
}

func (s *IngredientSession) lastUpdated() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.updatedAt
}

// mutate 在鎖內執行變更；fn 回傳 true 時遞增版本並通知訂閱者
func (s *IngredientSession) mutate(fn func() bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !fn() {
		return
	}
	s.version++
	s.updatedAt = time.Now()

	snap := s.snapshotLocked()
	for _, ch := range s.subscribers {
		select {
		case <-ch:
		default:
		}
		ch <- snap
	}
}

func (s *IngredientSession) appendSeen(token string) bool {
	if token == "" || s.seen(token) {
		return false
	}
	s.allSeen = append(s.allSeen, token)
	return true
}

func (s *IngredientSession) seen(token string) bool {
	for _, t := range s.allSeen {
		if t == token {
			return true
		}
	}
	return false
}

func (s *IngredientSession) snapshotLocked() Snapshot {
	all := append([]string{}, s.allSeen...)
	selected := make([]string, 0, len(s.selected))
	for _, t := range s.allSeen {
		if _, ok := s.selected[t]; ok {
			selected = append(selected, t)
		}
	}
	return Snapshot{
		ID:        s.id,
		AllSeen:   all,
		Selected:  selected,
		Version:   s.version,
		UpdatedAt: s.updatedAt,
	}
}
