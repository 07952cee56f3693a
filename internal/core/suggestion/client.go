package suggestion

import (
	"context"
	"time"

	"seefood/internal/core/ai/provider"
	"seefood/internal/infrastructure/config"
	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// Source 結果來源
type Source string

const (
	SourceModel     Source = "model"     // 端點回傳並成功解析
	SourceRaw       Source = "raw"       // 端點成功但無法解析，以原始文字合成
	SourceSamples   Source = "samples"   // 無憑證或端點失敗
	SourceHeuristic Source = "heuristic" // 營養估算備援
)

// RecipeResult suggest 的結果
type RecipeResult struct {
	Recipes []common.Recipe `json:"recipes"`
	Source  Source          `json:"source"`
}

// NutritionResult 營養估算結果
type NutritionResult struct {
	Nutrition common.NutritionEstimate `json:"nutrition"`
	Source    Source                   `json:"source"`
}

// Client 食譜建議與營養估算。
// 兩個操作都不回傳錯誤：任何失敗都轉成可用的備援結果。
type Client struct {
	completer   provider.Provider
	hasKey      bool
	model       string
	temperature float64
	jsonMode    bool
}

// NewClient 創建建議客戶端；憑證為空或 completer 為 nil 時只使用離線結果
func NewClient(cfg config.CompletionConfig, completer provider.Provider) *Client {
	return &Client{
		completer:   completer,
		hasKey:      cfg.HasKey() && completer != nil,
		model:       cfg.Model,
		temperature: cfg.Temperature,
		jsonMode:    cfg.JSONMode,
	}
}

// Online 是否會呼叫端點
func (c *Client) Online() bool {
	return c.hasKey
}

// Suggest 依食材建議食譜，至少回傳一筆
func (c *Client) Suggest(ctx context.Context, ingredients []string) []common.Recipe {
	return c.SuggestDetailed(ctx, ingredients).Recipes
}

// SuggestDetailed 同 Suggest，另外回傳結果來源
func (c *Client) SuggestDetailed(ctx context.Context, ingredients []string) RecipeResult {
	if !c.hasKey {
		common.LogDebug("未設定 completion 憑證，回傳範例食譜")
		return RecipeResult{Recipes: SampleRecipes(), Source: SourceSamples}
	}

	text, err := c.complete(ctx, "suggest", recipeSystemPrompt, BuildPrompt(ingredients), validRecipes)
	if err != nil {
		return RecipeResult{Recipes: SampleRecipes(), Source: SourceSamples}
	}

	cleaned := ExtractJSONArray(text)
	recipes, err := ParseRecipes(cleaned)
	if err != nil {
		common.LogWarn("食譜解析失敗，以原始文字合成", zap.Error(err), zap.Int("content_length", len(text)))
		return RecipeResult{
			Recipes: []common.Recipe{SynthesizeRecipe(cleaned, ingredients)},
			Source:  SourceRaw,
		}
	}
	return RecipeResult{Recipes: recipes, Source: SourceModel}
}

// EstimateNutrition 估算單份營養；任何失敗都改用 HeuristicNutrition
func (c *Client) EstimateNutrition(ctx context.Context, recipe common.Recipe) common.NutritionEstimate {
	return c.EstimateNutritionDetailed(ctx, recipe).Nutrition
}

// EstimateNutritionDetailed 同 EstimateNutrition，另外回傳結果來源
func (c *Client) EstimateNutritionDetailed(ctx context.Context, recipe common.Recipe) NutritionResult {
	heuristic := NutritionResult{
		Nutrition: HeuristicNutrition(len(recipe.Ingredients)),
		Source:    SourceHeuristic,
	}
	if !c.hasKey {
		return heuristic
	}

	text, err := c.complete(ctx, "nutrition", nutritionSystemPrompt, BuildNutritionPrompt(recipe), validNutrition)
	if err != nil {
		return heuristic
	}

	est, err := DecodeNutrition(ExtractJSONObject(text))
	if err != nil {
		common.LogWarn("營養估算解析失敗，改用估算公式", zap.Error(err))
		return heuristic
	}
	return NutritionResult{Nutrition: est, Source: SourceModel}
}

func validRecipes(text string) error {
	_, err := ParseRecipes(ExtractJSONArray(text))
	return err
}

func validNutrition(text string) error {
	_, err := DecodeNutrition(ExtractJSONObject(text))
	return err
}

// complete 單次請求，不重試；validate 決定回覆能否被緩存
func (c *Client) complete(ctx context.Context, op, system, prompt string, validate func(string) error) (string, error) {
	req := &provider.Request{
		Model:       c.model,
		Temperature: c.temperature,
		Messages: []provider.Message{
			{Role: "system", Content: system},
			{Role: "user", Content: prompt},
		},
		Validate: validate,
	}
	if c.jsonMode {
		req.ResponseFormat = provider.JSONObjectFormat
	}

	start := time.Now()
	resp, err := c.completer.Complete(ctx, req)
	common.LogCompletionCall(op, time.Since(start), err)
	if err != nil {
		return "", err
	}
	return resp.Content, nil
}
