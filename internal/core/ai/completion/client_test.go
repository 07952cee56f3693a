package completion

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"seefood/internal/core/ai/provider"
	"seefood/internal/infrastructure/config"
)

func testConfig(url string) config.CompletionConfig {
	return config.CompletionConfig{
		URL:            url,
		APIKey:         "sk-test",
		Model:          "demo-model",
		Temperature:    0.4,
		ConnectTimeout: time.Second,
		ReadTimeout:    time.Second,
		Referer:        "https://seefood.test",
		Title:          "SeeFood",
	}
}

func TestCompleteSendsOpenAIRequest(t *testing.T) {
	var got provider.Request
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodPost {
			t.Errorf("unexpected method %s", r.Method)
		}
		if auth := r.Header.Get("Authorization"); auth != "Bearer sk-test" {
			t.Errorf("unexpected Authorization header %q", auth)
		}
		if ref := r.Header.Get("HTTP-Referer"); ref != "https://seefood.test" {
			t.Errorf("unexpected HTTP-Referer header %q", ref)
		}
		if err := json.NewDecoder(r.Body).Decode(&got); err != nil {
			t.Errorf("decode request: %v", err)
		}
		payload := map[string]any{
			"choices": []any{
				map[string]any{"message": map[string]any{"role": "assistant", "content": "[]"}},
			},
			"usage": map[string]any{"total_tokens": 42},
		}
		_ = json.NewEncoder(w).Encode(payload)
	}))
	defer server.Close()

	client := NewClient(testConfig(server.URL))
	resp, err := client.Complete(context.Background(), &provider.Request{
		Temperature:    0.4,
		Messages:       []provider.Message{{Role: "system", Content: "sys"}, {Role: "user", Content: "hi"}},
		ResponseFormat: provider.JSONObjectFormat,
	})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if resp.Content != "[]" || resp.Raw || resp.Usage.TotalTokens != 42 {
		t.Fatalf("unexpected response: %+v", resp)
	}
	if got.Model != "demo-model" || len(got.Messages) != 2 || got.ResponseFormat == nil || got.ResponseFormat.Type != "json_object" {
		t.Fatalf("unexpected request body: %+v", got)
	}
}

func TestCompleteNon2xxIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_, _ = w.Write([]byte(`{"error":"boom"}`))
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).Complete(context.Background(), &provider.Request{})
	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusInternalServerError {
		t.Fatalf("StatusCode = %d", statusErr.StatusCode)
	}
}

func TestCompleteNonEnvelopeReturnsRawBody(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`[{"title":"Tomato Soup"}]`))
	}))
	defer server.Close()

	resp, err := NewClient(testConfig(server.URL)).Complete(context.Background(), &provider.Request{})
	if err != nil {
		t.Fatalf("Complete returned error: %v", err)
	}
	if !resp.Raw || resp.Content != `[{"title":"Tomato Soup"}]` {
		t.Fatalf("unexpected response: %+v", resp)
	}
}

func TestCompleteErrorEnvelopeIsStatusError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		_, _ = w.Write([]byte(`{"error":{"message":"rate limited upstream","code":429}}`))
	}))
	defer server.Close()

	_, err := NewClient(testConfig(server.URL)).Complete(context.Background(), &provider.Request{})
	var statusErr *provider.StatusError
	if !errors.As(err, &statusErr) {
		t.Fatalf("expected StatusError, got %v", err)
	}
	if statusErr.StatusCode != http.StatusOK {
		t.Fatalf("StatusCode = %d, want 200", statusErr.StatusCode)
	}
}

func TestCompleteReadTimeout(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		time.Sleep(300 * time.Millisecond)
		_, _ = w.Write([]byte(`{}`))
	}))
	defer server.Close()

	cfg := testConfig(server.URL)
	cfg.ReadTimeout = 50 * time.Millisecond
	if _, err := NewClient(cfg).Complete(context.Background(), &provider.Request{}); err == nil {
		t.Fatal("expected timeout error")
	}
}
