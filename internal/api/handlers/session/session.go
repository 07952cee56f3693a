package session

import (
	"fmt"
	"net/http"
	"strconv"
	"strings"
	"time"

	"seefood/internal/api/handlers"
	"seefood/internal/core/detection"
	"seefood/internal/core/image"
	sessionService "seefood/internal/core/session"
	"seefood/internal/core/suggestion"
	"seefood/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SessionResponse 工作階段狀態
type SessionResponse struct {
	Session   sessionService.Snapshot `json:"session"`
	Analyzer  *detection.Status       `json:"analyzer"`
	CreatedAt time.Time               `json:"created_at"`
}

// FrameRequest 一個相機畫面：裝置端分類結果，或交給伺服器分類的圖片
type FrameRequest struct {
	Labels []detection.ClassificationResult `json:"labels"`
	Image  string                           `json:"image,omitempty"` // data URI 或 http(s) URL
}

// FrameResponse 畫面分析結果
type FrameResponse struct {
	Emitted     bool                    `json:"emitted"`
	Ingredients []string                `json:"ingredients"`
	Session     sessionService.Snapshot `json:"session"`
}

// AddIngredientRequest 手動新增食材
type AddIngredientRequest struct {
	Name string `json:"name" binding:"required"`
}

// SetIngredientsRequest 整批取代食材
type SetIngredientsRequest struct {
	Ingredients []string `json:"ingredients"`
}

// IngredientResponse 食材變更結果
type IngredientResponse struct {
	Changed bool                    `json:"changed"`
	Session sessionService.Snapshot `json:"session"`
}

// SuggestionResponse 建議結果
type SuggestionResponse struct {
	Batch  common.SuggestionBatch `json:"batch"`
	Source suggestion.Source      `json:"source"`
}

// Handler 掃描工作階段處理程序
type Handler struct {
	manager   *sessionService.Manager
	images    *image.Service
	suggester *suggestion.Client
}

// NewHandler 創建新的工作階段處理程序
func NewHandler(manager *sessionService.Manager, images *image.Service, suggester *suggestion.Client) *Handler {
	return &Handler{
		manager:   manager,
		images:    images,
		suggester: suggester,
	}
}

// Create 建立工作階段
func (h *Handler) Create(c *gin.Context) {
	scan, err := h.manager.Create()
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	common.LogInfo("工作階段已建立",
		zap.String("session_id", scan.ID()),
		zap.String("request_id", requestid.Get(c)),
	)
	c.JSON(http.StatusCreated, toResponse(scan))
}

// Get 取得工作階段狀態
func (h *Handler) Get(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}
	c.JSON(http.StatusOK, toResponse(scan))
}

// Delete 刪除工作階段與其歷史
func (h *Handler) Delete(c *gin.Context) {
	if err := h.manager.Delete(c.Request.Context(), c.Param("id")); err != nil {
		handlers.RespondError(c, err)
		return
	}
	c.Status(http.StatusNoContent)
}

// Frame 分析一個畫面；前一個畫面仍在處理時回傳 429
func (h *Handler) Frame(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	var req FrameRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	for _, l := range req.Labels {
		if l.Confidence < 0 || l.Confidence > 1 {
			handlers.RespondError(c, common.NewValidationError("confidence must be within [0,1]"))
			return
		}
	}

	frame := detection.NewFrame(req.Labels)
	if req.Image != "" {
		data, err := h.images.Decode(c.Request.Context(), req.Image)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		frame.Image = data
	}

	result, err := scan.Analyzer.Analyze(c.Request.Context(), frame)
	if err != nil {
		handlers.RespondError(c, err)
		return
	}

	ingredients := result.Ingredients
	if ingredients == nil {
		ingredients = []string{}
	}
	c.JSON(http.StatusOK, FrameResponse{
		Emitted:     result.Emitted,
		Ingredients: ingredients,
		Session:     scan.Session.Snapshot(),
	})
}

// AddIngredient 手動新增食材並勾選
func (h *Handler) AddIngredient(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	var req AddIngredientRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	if strings.TrimSpace(req.Name) == "" {
		handlers.RespondError(c, common.NewValidationError("name is blank"))
		return
	}

	changed := scan.Session.AddManual(req.Name)
	c.JSON(http.StatusOK, IngredientResponse{Changed: changed, Session: scan.Session.Snapshot()})
}

// SetIngredients 以清單取代所有食材
func (h *Handler) SetIngredients(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	var req SetIngredientsRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	scan.Session.SetAll(req.Ingredients)
	c.JSON(http.StatusOK, IngredientResponse{Changed: true, Session: scan.Session.Snapshot()})
}

// RemoveIngredient 移除一個食材
func (h *Handler) RemoveIngredient(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	changed := scan.Session.Remove(c.Param("name"))
	c.JSON(http.StatusOK, IngredientResponse{Changed: changed, Session: scan.Session.Snapshot()})
}

// ToggleIngredient 切換勾選狀態；未看過的食材不變動，changed 為 false
func (h *Handler) ToggleIngredient(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	changed := scan.Session.ToggleSelected(c.Param("name"))
	c.JSON(http.StatusOK, IngredientResponse{Changed: changed, Session: scan.Session.Snapshot()})
}

// Reset 清空食材並重置去抖動狀態；歷史保留
func (h *Handler) Reset(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}
	scan.Reset()
	c.JSON(http.StatusOK, toResponse(scan))
}

// Suggest 以目前勾選的食材請求食譜並記入歷史
func (h *Handler) Suggest(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	input := scan.Session.SuggestionInput()
	if len(input) == 0 {
		handlers.RespondError(c, common.NewValidationError("session has no ingredients"))
		return
	}

	common.LogInfo("開始處理食譜建議請求",
		zap.String("session_id", scan.ID()),
		zap.Strings("ingredients", input),
		zap.String("request_id", requestid.Get(c)),
	)

	result := h.suggester.SuggestDetailed(c.Request.Context(), input)
	batch := scan.Session.RecordBatch(c.Request.Context(), input, result.Recipes)

	c.JSON(http.StatusOK, SuggestionResponse{Batch: batch, Source: result.Source})
}

// History 建議歷史，新的在前。
// ?source=store 改從外部鏡像讀取；?limit=N 只回傳最新 N 筆。
func (h *Handler) History(c *gin.Context) {
	scan, ok := h.scan(c)
	if !ok {
		return
	}

	limit := 0
	if raw := c.Query("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			handlers.RespondError(c, common.ErrInvalidRequest.Wrap(fmt.Errorf("invalid limit %q", raw)))
			return
		}
		limit = n
	}

	switch source := c.DefaultQuery("source", "memory"); source {
	case "memory":
		history := scan.Session.History()
		if limit > 0 && len(history) > limit {
			history = history[:limit]
		}
		c.JSON(http.StatusOK, gin.H{"history": history, "source": source})
	case "store":
		history, err := scan.Session.StoredHistory(c.Request.Context(), limit)
		if err != nil {
			handlers.RespondError(c, err)
			return
		}
		c.JSON(http.StatusOK, gin.H{"history": history, "source": source})
	default:
		handlers.RespondError(c, common.ErrInvalidRequest.Wrap(fmt.Errorf("unknown history source %q", source)))
	}
}

// scan 依路徑參數取得工作階段，找不到時已回應
func (h *Handler) scan(c *gin.Context) (*sessionService.Scan, bool) {
	scan, err := h.manager.Get(c.Param("id"))
	if err != nil {
		handlers.RespondError(c, err)
		return nil, false
	}
	return scan, true
}

func toResponse(scan *sessionService.Scan) SessionResponse {
	return SessionResponse{
		Session:   scan.Session.Snapshot(),
		Analyzer:  scan.Analyzer.Status(),
		CreatedAt: scan.CreatedAt,
	}
}
