package session

import (
	"context"
	"fmt"
	"sync"
	"time"

	"seefood/internal/core/detection"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// Scan 一個掃描工作階段：食材集合加上專屬的畫面分析器
type Scan struct {
	Session   *IngredientSession
	Analyzer  *detection.Analyzer
	CreatedAt time.Time
}

// ID 工作階段 ID
func (s *Scan) ID() string {
	return s.Session.ID()
}

// Reset 清空食材並重置去抖動狀態；分析中的畫面結果會被捨棄
func (s *Scan) Reset() {
	s.Analyzer.ResetWith(s.Session.Reset)
}

// Manager 工作階段管理器
type Manager struct {
	detection  config.DetectionConfig
	session    config.SessionConfig
	classifier detection.Classifier
	store      HistoryStore

	mu    sync.RWMutex
	scans map[string]*Scan
	done  chan struct{}
	once  sync.Once
}

// NewManager 創建新的工作階段管理器；store 可為 nil
func NewManager(det config.DetectionConfig, sess config.SessionConfig, classifier detection.Classifier, store HistoryStore) *Manager {
	if classifier == nil {
		classifier = detection.PassthroughClassifier{}
	}
	m := &Manager{
		detection:  det,
		session:    sess,
		classifier: classifier,
		store:      store,
		scans:      make(map[string]*Scan),
		done:       make(chan struct{}),
	}

	// 啟動清理閒置工作階段的協程
	if sess.CleanupInterval > 0 && sess.IdleTimeout > 0 {
		go m.startCleanup()
	}

	common.LogInfo("工作階段管理員已初始化",
		zap.Float64("信心門檻", det.ConfidenceThreshold),
		zap.Int("最大項目", det.MaxItems),
		zap.Int("重發間隔", det.ReemitInterval),
		zap.Duration("閒置逾時", sess.IdleTimeout),
	)
	return m
}

// Create 建立新的工作階段
func (m *Manager) Create() (*Scan, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.session.MaxSessions > 0 && len(m.scans) >= m.session.MaxSessions {
		return nil, common.ErrServiceUnavailable.Wrap(
			fmt.Errorf("session limit reached: %d", m.session.MaxSessions))
	}

	id := common.GenerateUUID()
	sess := New(id, m.store)
	scan := &Scan{
		Session: sess,
		Analyzer: detection.NewAnalyzer(detection.AnalyzerOptions{
			Classifier:     m.classifier,
			Threshold:      m.detection.ConfidenceThreshold,
			MaxItems:       m.detection.MaxItems,
			ReemitInterval: m.detection.ReemitInterval,
			OnEmit:         sess.MergeDetected,
		}),
		CreatedAt: time.Now().UTC(),
	}
	m.scans[id] = scan

	common.LogInfo("建立工作階段", zap.String("session_id", id), zap.Int("目前數量", len(m.scans)))
	return scan, nil
}

// Get 取得工作階段
func (m *Manager) Get(id string) (*Scan, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	scan, ok := m.scans[id]
	if !ok {
		return nil, common.ErrSessionNotFound
	}
	return scan, nil
}

// Delete 刪除工作階段與其外部歷史
func (m *Manager) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	scan, ok := m.scans[id]
	delete(m.scans, id)
	m.mu.Unlock()

	if !ok {
		return common.ErrSessionNotFound
	}
	scan.Session.close()

	if m.store != nil {
		if err := m.store.Delete(ctx, id); err != nil {
			common.LogWarn("刪除歷史紀錄鏡像失敗", zap.String("session_id", id), zap.Error(err))
		}
	}
	common.LogInfo("刪除工作階段", zap.String("session_id", id))
	return nil
}

// Count 目前的工作階段數量
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.scans)
}

// startCleanup 定期移除閒置的工作階段
func (m *Manager) startCleanup() {
	ticker := time.NewTicker(m.session.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.cleanup(time.Now())
		case <-m.done:
			return
		}
	}
}

// cleanup 移除閒置超過 IdleTimeout 的工作階段（不刪除外部歷史）
func (m *Manager) cleanup(now time.Time) int {
	m.mu.Lock()
	var expired []*Scan
	for id, scan := range m.scans {
		if now.Sub(scan.Session.lastUpdated()) > m.session.IdleTimeout {
			expired = append(expired, scan)
			delete(m.scans, id)
		}
	}
	remaining := len(m.scans)
	m.mu.Unlock()

	for _, scan := range expired {
		scan.Session.close()
	}
	if len(expired) > 0 {
		common.LogInfo("Cleaned up idle sessions",
			zap.Int("count", len(expired)),
			zap.Int("remaining", remaining),
		)
	}
	return len(expired)
}

// Close 停止清理並關閉所有工作階段
func (m *Manager) Close() error {
	m.once.Do(func() { close(m.done) })

	m.mu.Lock()
	scans := m.scans
	m.scans = make(map[string]*Scan)
	m.mu.Unlock()

	for _, scan := range scans {
		scan.Session.close()
	}

	if m.store != nil {
		return m.store.Close()
	}
	return nil
}
