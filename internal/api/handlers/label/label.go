package label

import (
	"net/http"

	"seefood/internal/api/handlers"
	"seefood/internal/core/detection"

	"github.com/gin-gonic/gin"
)

// NormalizeRequest 待正規化的原始標籤
type NormalizeRequest struct {
	Labels []string `json:"labels" binding:"required"`
}

// NormalizeResult 單一標籤的結果
type NormalizeResult struct {
	Label    string             `json:"label"`
	Token    string             `json:"token,omitempty"`
	Accepted bool               `json:"accepted"`
	Category detection.Category `json:"category,omitempty"`
}

// HandleNormalize 將分類器標籤對應到食材詞彙
func HandleNormalize(c *gin.Context) {
	var req NormalizeRequest
	if err := handlers.BindJSON(c, &req); err != nil {
		handlers.RespondError(c, err)
		return
	}

	results := make([]NormalizeResult, 0, len(req.Labels))
	for _, raw := range req.Labels {
		r := NormalizeResult{Label: raw}
		if token, ok := detection.Normalize(raw); ok {
			r.Token = token
			r.Accepted = true
			r.Category, _ = detection.CategoryOf(token)
		}
		results = append(results, r)
	}

	c.JSON(http.StatusOK, gin.H{
		"results":            results,
		"vocabulary_version": detection.VocabularyVersion,
	})
}
