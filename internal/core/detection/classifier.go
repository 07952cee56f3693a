package detection

import (
	"context"
	"sync"
)

// Frame 一個待分析的相機畫面。
// Labels 為裝置端已算好的分類結果；Image 供伺服器端分類器使用。
type Frame struct {
	Labels  []ClassificationResult
	Image   []byte
	Release func()

	releaseOnce sync.Once
}

// NewFrame 包裝已分類的標籤
func NewFrame(labels []ClassificationResult) *Frame {
	return &Frame{Labels: labels}
}

// release 釋放畫面緩衝，只執行一次
func (f *Frame) release() {
	f.releaseOnce.Do(func() {
		if f.Release != nil {
			f.Release()
		}
		f.Image = nil
	})
}

// Classifier 影像分類器
type Classifier interface {
	Classify(ctx context.Context, frame *Frame) ([]ClassificationResult, error)
}

// PassthroughClassifier 直接回傳畫面附帶的標籤（裝置端分類）
type PassthroughClassifier struct{}

// Classify 實作 Classifier
func (PassthroughClassifier) Classify(_ context.Context, frame *Frame) ([]ClassificationResult, error) {
	if frame == nil {
		return nil, nil
	}
	out := make([]ClassificationResult, len(frame.Labels))
	copy(out, frame.Labels)
	return out, nil
}

// ClassifierFunc 讓普通函數實作 Classifier
type ClassifierFunc func(ctx context.Context, frame *Frame) ([]ClassificationResult, error)

// Classify 實作 Classifier
func (f ClassifierFunc) Classify(ctx context.Context, frame *Frame) ([]ClassificationResult, error) {
	return f(ctx, frame)
}

// RoutingClassifier 畫面帶有影像時交給 Image 分類器，否則使用裝置端標籤
type RoutingClassifier struct {
	Image Classifier
}

// Classify 實作 Classifier
func (c RoutingClassifier) Classify(ctx context.Context, frame *Frame) ([]ClassificationResult, error) {
	if frame != nil && len(frame.Image) > 0 && c.Image != nil {
		return c.Image.Classify(ctx, frame)
	}
	return PassthroughClassifier{}.Classify(ctx, frame)
}
