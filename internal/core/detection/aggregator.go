package detection

import (
	"sort"
	"sync"
)

// ClassificationResult 單一畫面中一個偵測區域的分類結果
type ClassificationResult struct {
	Label      string  `json:"label"`
	Confidence float64 `json:"confidence"`
}

// Aggregator 將逐畫面的分類結果去抖動成穩定的食材清單
type Aggregator struct {
	normalizer     Normalizer
	maxItems       int
	reemitInterval int

	mu          sync.Mutex
	frameCount  int
	lastEmitted map[string]struct{}
}

// NewAggregator 創建新的去抖動聚合器
func NewAggregator(maxItems, reemitInterval int) *Aggregator {
	return NewAggregatorWithNormalizer(DefaultNormalizer, maxItems, reemitInterval)
}

// NewAggregatorWithNormalizer 使用自訂 Normalizer 創建聚合器
func NewAggregatorWithNormalizer(n Normalizer, maxItems, reemitInterval int) *Aggregator {
	if n == nil {
		n = DefaultNormalizer
	}
	if maxItems <= 0 {
		maxItems = 8
	}
	if reemitInterval <= 0 {
		reemitInterval = 5
	}
	return &Aggregator{
		normalizer:     n,
		maxItems:       maxItems,
		reemitInterval: reemitInterval,
	}
}

// OnFrame 處理一個畫面，需要發佈時回傳新的清單與 true。
// 空清單不發佈也不計入畫面數，以保留上一次的結果。
func (a *Aggregator) OnFrame(results []ClassificationResult, threshold float64) ([]string, bool) {
	tokens := a.rank(results, threshold)
	if len(tokens) == 0 {
		return nil, false
	}

	a.mu.Lock()
	defer a.mu.Unlock()

	a.frameCount++
	if a.lastEmitted != nil && sameMembers(a.lastEmitted, tokens) && a.frameCount%a.reemitInterval != 0 {
		return nil, false
	}

	a.lastEmitted = make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		a.lastEmitted[t] = struct{}{}
	}
	return tokens, true
}

// Reset 清除計數與上次發佈的清單
func (a *Aggregator) Reset() {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.frameCount = 0
	a.lastEmitted = nil
}

// FrameCount 已計入的畫面數
func (a *Aggregator) FrameCount() int {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.frameCount
}

// rank 過濾門檻、依信心度排序、正規化、去重並截斷
func (a *Aggregator) rank(results []ClassificationResult, threshold float64) []string {
	kept := make([]ClassificationResult, 0, len(results))
	for _, r := range results {
		if r.Confidence >= threshold {
			kept = append(kept, r)
		}
	}
	sort.SliceStable(kept, func(i, j int) bool {
		return kept[i].Confidence > kept[j].Confidence
	})

	tokens := make([]string, 0, a.maxItems)
	seen := make(map[string]struct{}, len(kept))
	for _, r := range kept {
		token, ok := a.normalizer.Normalize(r.Label)
		if !ok {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
		if len(tokens) == a.maxItems {
			break
		}
	}
	return tokens
}

func sameMembers(set map[string]struct{}, tokens []string) bool {
	if len(set) != len(tokens) {
		return false
	}
	for _, t := range tokens {
		if _, ok := set[t]; !ok {
			return false
		}
	}
	return true
}
