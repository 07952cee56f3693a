package recipe

import (
	"net/http"
	"strings"

	"seefood/internal/api/handlers"
	"seefood/internal/core/suggestion"
	"seefood/internal/pkg/common"

	"github.com/gin-contrib/requestid"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// SuggestRequest 依食材清單建議食譜
type SuggestRequest struct {
	Ingredients []string `json:"ingredients" binding:"required"`
}

// NutritionRequest 估算單一食譜的營養
type NutritionRequest struct {
	Recipe common.Recipe `json:"recipe" binding:"required"`
}

// Handler 食譜處理程序
type Handler struct {
	suggester *suggestion.Client
}

// NewHandler 創建新的食譜處理程序
func NewHandler(suggester *suggestion.Client) *Handler {
	return &Handler{suggester: suggester}
}

// HandleSuggest 建議食譜，不寫入任何工作階段
func (h *Handler) HandleSuggest(c *gin.Context) {
	var req SuggestRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	ingredients := common.CleanStrings(req.Ingredients)
	if len(ingredients) == 0 {
		handlers.RespondError(c, common.NewValidationError("ingredients is empty"))
		return
	}

	common.LogInfo("開始處理食譜建議請求",
		zap.Strings("ingredients", ingredients),
		zap.Bool("online", h.suggester.Online()),
		zap.String("request_id", requestid.Get(c)),
	)

	c.JSON(http.StatusOK, h.suggester.SuggestDetailed(c.Request.Context(), ingredients))
}

// HandleNutrition 估算營養，失敗時回傳估算公式的結果
func (h *Handler) HandleNutrition(c *gin.Context) {
	var req NutritionRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}
	if strings.TrimSpace(req.Recipe.Title) == "" {
		handlers.RespondError(c, common.NewValidationError("recipe title is required"))
		return
	}

	c.JSON(http.StatusOK, h.suggester.EstimateNutritionDetailed(c.Request.Context(), req.Recipe))
}
