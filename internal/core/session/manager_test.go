package session

import (
	"context"
	"errors"
	"reflect"
	"testing"
	"time"

	"seefood/internal/core/detection"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"
)

func testManager(t *testing.T, store HistoryStore) *Manager {
	t.Helper()
	m := NewManager(
		config.DetectionConfig{ConfidenceThreshold: 0.3, MaxItems: 8, ReemitInterval: 5},
		config.SessionConfig{IdleTimeout: time.Minute, MaxSessions: 2},
		nil,
		store,
	)
	t.Cleanup(func() { _ = m.Close() })
	return m
}

func TestManagerAnalyzerFeedsSession(t *testing.T) {
	m := testManager(t, nil)
	scan, err := m.Create()
	if err != nil {
		t.Fatalf("Create returned error: %v", err)
	}

	res, err := scan.Analyzer.Analyze(context.Background(), detection.NewFrame([]detection.ClassificationResult{
		{Label: "apple_slices", Confidence: 0.8},
		{Label: "plate", Confidence: 0.9},
	}))
	if err != nil {
		t.Fatalf("Analyze returned error: %v", err)
	}
	if !res.Emitted {
		t.Fatal("expected emission")
	}

	snap := scan.Session.Snapshot()
	if want := []string{"apple"}; !reflect.DeepEqual(snap.AllSeen, want) || !reflect.DeepEqual(snap.Selected, want) {
		t.Fatalf("session snapshot = %+v", snap)
	}
}

func TestManagerGetDelete(t *testing.T) {
	store := newMemoryStore()
	m := testManager(t, store)
	scan, _ := m.Create()

	got, err := m.Get(scan.ID())
	if err != nil || got != scan {
		t.Fatalf("Get() = (%v, %v)", got, err)
	}

	scan.Session.RecordBatch(context.Background(), []string{"egg"}, []common.Recipe{{Title: "Omelette"}})
	if err := m.Delete(context.Background(), scan.ID()); err != nil {
		t.Fatalf("Delete returned error: %v", err)
	}
	if _, ok := store.batches[scan.ID()]; ok {
		t.Fatal("mirrored history should be deleted with the session")
	}

	if _, err := m.Get(scan.ID()); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound, got %v", err)
	}
	if err := m.Delete(context.Background(), scan.ID()); !errors.Is(err, common.ErrSessionNotFound) {
		t.Fatalf("expected ErrSessionNotFound on second delete, got %v", err)
	}
}

func TestManagerSessionLimit(t *testing.T) {
	m := testManager(t, nil)
	for i := 0; i < 2; i++ {
		if _, err := m.Create(); err != nil {
			t.Fatalf("Create #%d returned error: %v", i, err)
		}
	}
	_, err := m.Create()
	if err == nil {
		t.Fatal("expected limit error")
	}
	if code := common.AsCustomError(err).Code; code != common.ErrCodeServiceUnavailable {
		t.Fatalf("code = %s, want %s", code, common.ErrCodeServiceUnavailable)
	}
}

func TestManagerCleanupIdle(t *testing.T) {
	m := testManager(t, nil)
	idle, _ := m.Create()
	_, _ = m.Create()

	removed := m.cleanup(time.Now().Add(2 * time.Minute))
	if removed != 2 {
		t.Fatalf("cleanup removed %d, want 2", removed)
	}
	if m.Count() != 0 {
		t.Fatalf("Count() = %d, want 0", m.Count())
	}
	if _, err := m.Get(idle.ID()); err == nil {
		t.Fatal("idle session should be gone")
	}

	fresh, _ := m.Create()
	if removed := m.cleanup(time.Now()); removed != 0 {
		t.Fatalf("cleanup removed %d fresh sessions", removed)
	}
	if _, err := m.Get(fresh.ID()); err != nil {
		t.Fatalf("fresh session missing: %v", err)
	}
}

func TestScanReset(t *testing.T) {
	m := testManager(t, nil)
	scan, _ := m.Create()
	frame := []detection.ClassificationResult{{Label: "rice", Confidence: 0.9}}

	if res, _ := scan.Analyzer.Analyze(context.Background(), detection.NewFrame(frame)); !res.Emitted {
		t.Fatal("expected first emission")
	}
	scan.Reset()
	if len(scan.Session.Snapshot().AllSeen) != 0 {
		t.Fatal("session not cleared")
	}
	if res, _ := scan.Analyzer.Analyze(context.Background(), detection.NewFrame(frame)); !res.Emitted {
		t.Fatal("expected emission after reset")
	}
	if got := scan.Session.Snapshot().AllSeen; !reflect.DeepEqual(got, []string{"rice"}) {
		t.Fatalf("AllSeen = %v", got)
	}
}

func TestScanResetDiscardsInFlightFrame(t *testing.T) {
	entered := make(chan struct{})
	proceed := make(chan struct{})
	classifier := detection.ClassifierFunc(func(ctx context.Context, f *detection.Frame) ([]detection.ClassificationResult, error) {
		close(entered)
		<-proceed
		return []detection.ClassificationResult{{Label: "tomato", Confidence: 0.9}}, nil
	})
	m := NewManager(
		config.DetectionConfig{ConfidenceThreshold: 0.3, MaxItems: 8, ReemitInterval: 5},
		config.SessionConfig{IdleTimeout: time.Minute},
		classifier,
		nil,
	)
	t.Cleanup(func() { _ = m.Close() })
	scan, _ := m.Create()

	done := make(chan *detection.Result, 1)
	go func() {
		res, _ := scan.Analyzer.Analyze(context.Background(), detection.NewFrame(nil))
		done <- res
	}()

	<-entered
	scan.Reset()
	close(proceed)

	select {
	case res := <-done:
		if res == nil || res.Emitted {
			t.Fatalf("frame started before reset should not emit: %+v", res)
		}
	case <-time.After(time.Second):
		t.Fatal("analysis did not finish")
	}
	if snap := scan.Session.Snapshot(); len(snap.AllSeen) != 0 {
		t.Fatalf("session repopulated after reset: %+v", snap)
	}
}
