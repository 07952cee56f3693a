package detection

import (
	"context"
	"sync"
	"sync/atomic"
	"time"

	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// Status 分析器狀態
type Status struct {
	InFlight       bool `json:"in_flight"`
	ProcessedCount int  `json:"processed_count"`
	EmittedCount   int  `json:"emitted_count"`
	DroppedCount   int  `json:"dropped_count"`
	FailedCount    int  `json:"failed_count"`
}

// Result 一次分析的結果
type Result struct {
	Ingredients []string `json:"ingredients"`
	Emitted     bool     `json:"emitted"`
}

// EmitFunc 發佈新清單時的回呼
type EmitFunc func(tokens []string)

// Analyzer 一次只處理一個畫面的分析器。
// 前一個畫面尚未完成時，新畫面會被立即釋放並回傳 ErrAnalyzerBusy。
type Analyzer struct {
	classifier Classifier
	aggregator *Aggregator
	threshold  float64
	onEmit     EmitFunc

	slot chan struct{}

	// emitMu 讓聚合與發佈不會和 Reset 交錯；epoch 每次 Reset 遞增
	emitMu sync.Mutex
	epoch  uint64

	processed int64
	emitted   int64
	dropped   int64
	failed    int64
}

// AnalyzerOptions 分析器設定
type AnalyzerOptions struct {
	Classifier     Classifier
	Threshold      float64
	MaxItems       int
	ReemitInterval int
	OnEmit         EmitFunc
}

// NewAnalyzer 創建新的分析器
func NewAnalyzer(opts AnalyzerOptions) *Analyzer {
	classifier := opts.Classifier
	if classifier == nil {
		classifier = PassthroughClassifier{}
	}
	return &Analyzer{
		classifier: classifier,
		aggregator: NewAggregator(opts.MaxItems, opts.ReemitInterval),
		threshold:  opts.Threshold,
		onEmit:     opts.OnEmit,
		slot:       make(chan struct{}, 1),
	}
}

// Analyze 分類一個畫面並交給聚合器；frame 的 Release 在返回前執行
func (a *Analyzer) Analyze(ctx context.Context, frame *Frame) (*Result, error) {
	if frame == nil {
		frame = NewFrame(nil)
	}

	select {
	case a.slot <- struct{}{}:
	default:
		frame.release()
		atomic.AddInt64(&a.dropped, 1)
		common.LogDebug("分析器忙碌，丟棄畫面")
		return nil, common.ErrAnalyzerBusy
	}
	defer func() { <-a.slot }()

	a.emitMu.Lock()
	epoch := a.epoch
	a.emitMu.Unlock()

	start := time.Now()
	results, err := a.classifier.Classify(ctx, frame)
	frame.release()
	if err != nil {
		atomic.AddInt64(&a.failed, 1)
		common.LogWarn("畫面分類失敗，視為無偵測結果",
			zap.Error(err),
			zap.Duration("耗時", time.Since(start)),
		)
		results = nil
	}
	atomic.AddInt64(&a.processed, 1)

	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	// 分類期間被 Reset 過，結果屬於舊狀態
	if a.epoch != epoch {
		common.LogDebug("分析期間已重置，捨棄畫面結果")
		return &Result{}, nil
	}

	tokens, ok := a.aggregator.OnFrame(results, a.threshold)
	if !ok {
		return &Result{}, nil
	}

	atomic.AddInt64(&a.emitted, 1)
	common.LogDebug("發佈食材清單",
		zap.Strings("ingredients", tokens),
		zap.Int("frame", a.aggregator.FrameCount()),
	)
	if a.onEmit != nil {
		a.onEmit(tokens)
	}
	return &Result{Ingredients: tokens, Emitted: true}, nil
}

// Reset 重置聚合器狀態
func (a *Analyzer) Reset() {
	a.ResetWith(nil)
}

// ResetWith 重置聚合器並在同一個臨界區內執行 fn。
// 進行中的畫面不會在 fn 之後發佈重置前的結果。
func (a *Analyzer) ResetWith(fn func()) {
	a.emitMu.Lock()
	defer a.emitMu.Unlock()

	a.epoch++
	a.aggregator.Reset()
	if fn != nil {
		fn()
	}
}

// Status 獲取分析器狀態
func (a *Analyzer) Status() *Status {
	return &Status{
		InFlight:       len(a.slot) > 0,
		ProcessedCount: int(atomic.LoadInt64(&a.processed)),
		EmittedCount:   int(atomic.LoadInt64(&a.emitted)),
		DroppedCount:   int(atomic.LoadInt64(&a.dropped)),
		FailedCount:    int(atomic.LoadInt64(&a.failed)),
	}
}
