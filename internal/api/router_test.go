package api

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"seefood/internal/core/detection"
	"seefood/internal/core/image"
	"seefood/internal/core/session"
	"seefood/internal/core/suggestion"
	"seefood/internal/infrastructure/config"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
)

func init() {
	gin.SetMode(gin.TestMode)
}

type testServer struct {
	router  *gin.Engine
	manager *session.Manager
}

func newTestServer(t *testing.T, classifier detection.Classifier) *testServer {
	t.Helper()
	return newTestServerWithStore(t, classifier, nil)
}

func newTestServerWithStore(t *testing.T, classifier detection.Classifier, store session.HistoryStore) *testServer {
	t.Helper()
	cfg := config.Default()
	cfg.Completion.APIKey = ""

	manager := session.NewManager(cfg.Detection, cfg.Session, classifier, store)
	t.Cleanup(func() { _ = manager.Close() })

	svc := &Services{
		Suggestion: suggestion.NewClient(cfg.Completion, nil),
		Sessions:   manager,
		Images:     image.NewService(cfg.Image.MaxSizeBytes),
	}
	return &testServer{router: SetupRouter(cfg, svc), manager: manager}
}

func (s *testServer) do(t *testing.T, method, path, body string) *httptest.ResponseRecorder {
	t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	if err := json.Unmarshal(w.Body.Bytes(), v); err != nil {
		t.Fatalf("decode response %q: %v", w.Body.String(), err)
	}
}

func (s *testServer) createSession(t *testing.T) string {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/v1/sessions", "")
	if w.Code != http.StatusCreated {
		t.Fatalf("create session status = %d body = %s", w.Code, w.Body.String())
	}
	var resp struct {
		Session session.Snapshot `json:"session"`
	}
	decode(t, w, &resp)
	if resp.Session.ID == "" {
		t.Fatal("session id is empty")
	}
	return resp.Session.ID
}

func TestScanFlow(t *testing.T) {
	s := newTestServer(t, nil)
	id := s.createSession(t)
	base := "/api/v1/sessions/" + id

	frame := `{"labels":[{"label":"Tomato","confidence":0.9},{"label":"Plate","confidence":0.95},{"label":"Onion","confidence":0.8}]}`

	w := s.do(t, http.MethodPost, base+"/frames", frame)
	if w.Code != http.StatusOK {
		t.Fatalf("frame status = %d body = %s", w.Code, w.Body.String())
	}
	var fr struct {
		Emitted     bool             `json:"emitted"`
		Ingredients []string         `json:"ingredients"`
		Session     session.Snapshot `json:"session"`
	}
	decode(t, w, &fr)
	if !fr.Emitted || strings.Join(fr.Ingredients, ",") != "tomato,onion" {
		t.Fatalf("unexpected frame response: %+v", fr)
	}
	if strings.Join(fr.Session.Selected, ",") != "tomato,onion" {
		t.Fatalf("detected ingredients should be selected: %+v", fr.Session)
	}

	// 相同的集合不再發佈
	w = s.do(t, http.MethodPost, base+"/frames", frame)
	decode(t, w, &fr)
	if fr.Emitted {
		t.Fatal("unchanged frame should not emit")
	}

	w = s.do(t, http.MethodPost, base+"/ingredients/onion/toggle", "")
	decode(t, w, &fr)
	if w.Code != http.StatusOK || strings.Join(fr.Session.Selected, ",") != "tomato" {
		t.Fatalf("toggle status = %d session = %+v", w.Code, fr.Session)
	}

	w = s.do(t, http.MethodPost, base+"/ingredients", `{"name":"  basil "}`)
	decode(t, w, &fr)
	if w.Code != http.StatusOK || !fr.Session.Contains("basil") {
		t.Fatalf("add ingredient status = %d session = %+v", w.Code, fr.Session)
	}

	w = s.do(t, http.MethodPost, base+"/suggestions", "")
	if w.Code != http.StatusOK {
		t.Fatalf("suggestions status = %d body = %s", w.Code, w.Body.String())
	}
	var sr struct {
		Batch struct {
			Ingredients []string `json:"ingredients"`
			Recipes     []struct {
				Title string `json:"title"`
			} `json:"recipes"`
		} `json:"batch"`
		Source string `json:"source"`
	}
	decode(t, w, &sr)
	if sr.Source != string(suggestion.SourceSamples) || len(sr.Batch.Recipes) != 3 {
		t.Fatalf("unexpected suggestion response: %+v", sr)
	}
	if strings.Join(sr.Batch.Ingredients, ",") != "tomato,basil" {
		t.Fatalf("suggestion input = %v", sr.Batch.Ingredients)
	}

	w = s.do(t, http.MethodGet, base+"/history", "")
	var hr struct {
		History []json.RawMessage `json:"history"`
	}
	decode(t, w, &hr)
	if len(hr.History) != 1 {
		t.Fatalf("history length = %d", len(hr.History))
	}

	w = s.do(t, http.MethodPost, base+"/reset", "")
	var reset struct {
		Session session.Snapshot `json:"session"`
	}
	decode(t, w, &reset)
	if len(reset.Session.AllSeen) != 0 {
		t.Fatalf("reset should clear ingredients: %+v", reset.Session)
	}

	w = s.do(t, http.MethodDelete, base, "")
	if w.Code != http.StatusNoContent {
		t.Fatalf("delete status = %d", w.Code)
	}
	if w = s.do(t, http.MethodGet, base, ""); w.Code != http.StatusNotFound {
		t.Fatalf("get after delete status = %d", w.Code)
	}
}

func TestIngredientEditing(t *testing.T) {
	s := newTestServer(t, nil)
	base := "/api/v1/sessions/" + s.createSession(t)

	w := s.do(t, http.MethodPut, base+"/ingredients", `{"ingredients":["egg"," olive oil ","egg",""]}`)
	var resp struct {
		Session session.Snapshot `json:"session"`
	}
	decode(t, w, &resp)
	if strings.Join(resp.Session.AllSeen, ",") != "egg,olive oil" {
		t.Fatalf("AllSeen = %v", resp.Session.AllSeen)
	}

	if w = s.do(t, http.MethodDelete, base+"/ingredients/olive%20oil", ""); w.Code != http.StatusOK {
		t.Fatalf("remove status = %d body = %s", w.Code, w.Body.String())
	}

	// 已不存在或從未看過的食材：不變動，回傳 changed=false
	var edit struct {
		Changed bool             `json:"changed"`
		Session session.Snapshot `json:"session"`
	}
	w = s.do(t, http.MethodDelete, base+"/ingredients/olive%20oil", "")
	decode(t, w, &edit)
	if edit.Changed || strings.Join(edit.Session.AllSeen, ",") != "egg" {
		t.Fatalf("second remove = %+v", edit)
	}
	version := edit.Session.Version
	w = s.do(t, http.MethodPost, base+"/ingredients/caviar/toggle", "")
	decode(t, w, &edit)
	if edit.Changed || edit.Session.Version != version || strings.Join(edit.Session.Selected, ",") != "egg" {
		t.Fatalf("toggle unseen = %+v", edit)
	}
	if w = s.do(t, http.MethodPost, base+"/ingredients", `{"name":"   "}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank name status = %d", w.Code)
	}
}

func TestSessionErrors(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodGet, "/api/v1/sessions/missing", "")
	if w.Code != http.StatusNotFound || !strings.Contains(w.Body.String(), "SESSION_NOT_FOUND") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	base := "/api/v1/sessions/" + s.createSession(t)
	if w = s.do(t, http.MethodPost, base+"/suggestions", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("suggest without ingredients status = %d", w.Code)
	}
	if w = s.do(t, http.MethodPost, base+"/frames", `{"labels":[{"label":"apple","confidence":1.5}]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("bad confidence status = %d", w.Code)
	}
	if w = s.do(t, http.MethodPost, base+"/frames", `{"labels":[],"image":"not-an-image"}`); w.Code != http.StatusBadRequest ||
		!strings.Contains(w.Body.String(), "INVALID_IMAGE_FORMAT") {
		t.Fatalf("bad image status = %d body = %s", w.Code, w.Body.String())
	}
	if w = s.do(t, http.MethodPost, base+"/frames", `{"labels":`); w.Code != http.StatusBadRequest {
		t.Fatalf("malformed body status = %d", w.Code)
	}
}

func TestFrameRejectedWhileBusy(t *testing.T) {
	entered := make(chan struct{})
	unblock := make(chan struct{})
	classifier := detection.ClassifierFunc(func(ctx context.Context, f *detection.Frame) ([]detection.ClassificationResult, error) {
		close(entered)
		<-unblock
		return f.Labels, nil
	})

	s := newTestServer(t, classifier)
	base := "/api/v1/sessions/" + s.createSession(t)

	done := make(chan int)
	go func() {
		w := s.do(t, http.MethodPost, base+"/frames", `{"labels":[{"label":"apple","confidence":0.9}]}`)
		done <- w.Code
	}()

	select {
	case <-entered:
	case <-time.After(2 * time.Second):
		t.Fatal("first frame never reached the classifier")
	}

	w := s.do(t, http.MethodPost, base+"/frames", `{"labels":[{"label":"pear","confidence":0.9}]}`)
	if w.Code != http.StatusTooManyRequests || !strings.Contains(w.Body.String(), "ANALYZER_BUSY") {
		t.Fatalf("busy frame status = %d body = %s", w.Code, w.Body.String())
	}

	close(unblock)
	if code := <-done; code != http.StatusOK {
		t.Fatalf("first frame status = %d", code)
	}
}

func TestStatelessRecipes(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/recipes/suggest", `{"ingredients":["tomato","onion"]}`)
	var rr suggestion.RecipeResult
	decode(t, w, &rr)
	if w.Code != http.StatusOK || rr.Source != suggestion.SourceSamples || len(rr.Recipes) != 3 {
		t.Fatalf("status = %d result = %+v", w.Code, rr)
	}

	if w = s.do(t, http.MethodPost, "/api/v1/recipes/suggest", `{"ingredients":[" "]}`); w.Code != http.StatusBadRequest {
		t.Fatalf("blank ingredients status = %d", w.Code)
	}

	w = s.do(t, http.MethodPost, "/api/v1/recipes/nutrition", `{"recipe":{"title":"Omelette","ingredients":["egg","tomato","onion","salt"]}}`)
	var nr suggestion.NutritionResult
	decode(t, w, &nr)
	if w.Code != http.StatusOK || nr.Source != suggestion.SourceHeuristic || nr.Nutrition.Calories != 490 {
		t.Fatalf("status = %d result = %+v", w.Code, nr)
	}

	if w = s.do(t, http.MethodPost, "/api/v1/recipes/nutrition", `{"recipe":{"title":""}}`); w.Code != http.StatusBadRequest {
		t.Fatalf("missing title status = %d", w.Code)
	}
}

func TestNormalizeLabels(t *testing.T) {
	s := newTestServer(t, nil)

	w := s.do(t, http.MethodPost, "/api/v1/labels/normalize", `{"labels":["Granny Smith apple","dinner plate"]}`)
	var resp struct {
		Results []struct {
			Label    string `json:"label"`
			Token    string `json:"token"`
			Accepted bool   `json:"accepted"`
		} `json:"results"`
	}
	decode(t, w, &resp)
	if len(resp.Results) != 2 {
		t.Fatalf("results = %+v", resp.Results)
	}
	if !resp.Results[0].Accepted || resp.Results[0].Token != "apple" {
		t.Fatalf("first result = %+v", resp.Results[0])
	}
	if resp.Results[1].Accepted {
		t.Fatalf("plate should be rejected: %+v", resp.Results[1])
	}
}

func TestHealth(t *testing.T) {
	s := newTestServer(t, nil)
	s.createSession(t)

	w := s.do(t, http.MethodGet, "/health", "")
	var resp struct {
		Status     string `json:"status"`
		Sessions   int    `json:"sessions"`
		Completion struct {
			Online bool `json:"online"`
		} `json:"completion"`
	}
	decode(t, w, &resp)
	if w.Code != http.StatusOK || resp.Status != "ok" || resp.Sessions != 1 || resp.Completion.Online {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}

	for _, path := range []string{"/ready", "/live"} {
		if w := s.do(t, http.MethodGet, path, ""); w.Code != http.StatusOK {
			t.Fatalf("%s status = %d", path, w.Code)
		}
	}
	if w.Header().Get("X-Request-ID") == "" {
		t.Fatal("request id header missing")
	}
}

func TestHistoryFromStore(t *testing.T) {
	mr := miniredis.RunT(t)
	store, err := session.NewRedisHistoryStore(context.Background(), config.RedisConfig{Enabled: true, Addr: mr.Addr(), TTL: time.Hour})
	if err != nil {
		t.Fatalf("NewRedisHistoryStore returned error: %v", err)
	}
	s := newTestServerWithStore(t, nil, store)
	base := "/api/v1/sessions/" + s.createSession(t)

	s.do(t, http.MethodPost, base+"/ingredients", `{"name":"egg"}`)
	if w := s.do(t, http.MethodPost, base+"/suggestions", ""); w.Code != http.StatusOK {
		t.Fatalf("suggestions status = %d body = %s", w.Code, w.Body.String())
	}

	var hr struct {
		History []struct {
			Ingredients []string `json:"ingredients"`
		} `json:"history"`
		Source string `json:"source"`
	}
	w := s.do(t, http.MethodGet, base+"/history?source=store&limit=5", "")
	decode(t, w, &hr)
	if w.Code != http.StatusOK || hr.Source != "store" || len(hr.History) != 1 || hr.History[0].Ingredients[0] != "egg" {
		t.Fatalf("store history status = %d body = %s", w.Code, w.Body.String())
	}

	if w = s.do(t, http.MethodGet, base+"/history?limit=-1", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("negative limit status = %d", w.Code)
	}
	if w = s.do(t, http.MethodGet, base+"/history?source=disk", ""); w.Code != http.StatusBadRequest {
		t.Fatalf("unknown source status = %d", w.Code)
	}
}

func TestHistoryFromStoreDisabled(t *testing.T) {
	s := newTestServer(t, nil)
	base := "/api/v1/sessions/" + s.createSession(t)

	w := s.do(t, http.MethodGet, base+"/history?source=store", "")
	if w.Code != http.StatusServiceUnavailable || !strings.Contains(w.Body.String(), "HISTORY_STORE_DISABLED") {
		t.Fatalf("status = %d body = %s", w.Code, w.Body.String())
	}
}
