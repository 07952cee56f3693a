package suggestion

import (
	"encoding/json"
	"fmt"
	"strings"
	"unicode"

	"seefood/internal/pkg/common"

	"go.uber.org/zap"
)

// FallbackRecipeID 無法解析時合成的食譜 ID
const FallbackRecipeID = "llm-raw"

// ExtractJSONArray 從模型文字中取出 JSON 陣列的子字串，不做驗證
func ExtractJSONArray(raw string) string {
	return extractSpan(raw, '[', ']')
}

// ExtractJSONObject 從模型文字中取出 JSON 物件的子字串，不做驗證
func ExtractJSONObject(raw string) string {
	return extractSpan(raw, '{', '}')
}

// extractSpan 去掉 ``` 圍欄後，已以 open 開頭就原樣回傳，
// 否則取第一個 open 到最後一個 close；都找不到時回傳 trim 後的文字
func extractSpan(raw string, open, close byte) string {
	text := stripFence(strings.TrimSpace(raw))
	if strings.HasPrefix(text, string(open)) {
		return text
	}

	start := strings.IndexByte(text, open)
	end := strings.LastIndexByte(text, close)
	if start == -1 || end == -1 || end < start {
		return text
	}
	return text[start : end+1]
}

// stripFence 去除開頭的 ```lang 與結尾的 ```
func stripFence(text string) string {
	if !strings.HasPrefix(text, "```") {
		return text
	}
	text = strings.TrimPrefix(text, "```")
	// 語言標籤，例如 ```json
	text = strings.TrimLeftFunc(text, isFenceTagRune)
	text = strings.TrimSuffix(strings.TrimSpace(text), "```")
	return strings.TrimSpace(text)
}

func isFenceTagRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsDigit(r) || r == '-' || r == '_' || r == '+'
}

// looseRecipe 寬鬆版中繼結構：欄位可缺，型別錯誤才算失敗
type looseRecipe struct {
	ID          json.RawMessage `json:"id"`
	Title       string          `json:"title"`
	ImageURL    *string         `json:"imageUrl"`
	Ingredients []string        `json:"ingredients"`
	Steps       []string        `json:"steps"`
}

// ParseRecipes 嚴格解碼食譜陣列；空陣列或缺少標題視為失敗
func ParseRecipes(cleaned string) ([]common.Recipe, error) {
	var loose []looseRecipe
	if err := common.ParseJSON(cleaned, &loose); err != nil {
		return nil, fmt.Errorf("decode recipes: %w", err)
	}
	if len(loose) == 0 {
		return nil, fmt.Errorf("decode recipes: empty array")
	}

	recipes := make([]common.Recipe, 0, len(loose))
	for i, lr := range loose {
		title := strings.TrimSpace(lr.Title)
		if title == "" {
			return nil, fmt.Errorf("decode recipes: recipe %d has no title", i)
		}
		id := decodeID(lr.ID)
		if id == "" {
			id = fmt.Sprintf("recipe-%d", i+1)
		}
		recipes = append(recipes, common.Recipe{
			ID:          id,
			Title:       title,
			ImageURL:    lr.ImageURL,
			Ingredients: orEmpty(lr.Ingredients),
			Steps:       orEmpty(lr.Steps),
		})
	}
	return recipes, nil
}

// DecodeRecipes 解碼食譜；失敗時合成一筆以原始文字為步驟的食譜，永不回傳空清單
func DecodeRecipes(cleaned string, originalIngredients []string) []common.Recipe {
	recipes, err := ParseRecipes(cleaned)
	if err == nil {
		return recipes
	}
	common.LogDebug("食譜解析失敗，改用原始文字", zap.Error(err))
	return []common.Recipe{SynthesizeRecipe(cleaned, originalIngredients)}
}

// SynthesizeRecipe 以模型原始文字組成單一食譜
func SynthesizeRecipe(text string, ingredients []string) common.Recipe {
	var steps []string
	for _, line := range strings.Split(text, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			steps = append(steps, line)
		}
	}
	return common.Recipe{
		ID:          FallbackRecipeID,
		Title:       "Ideas using: " + common.JoinIngredients(ingredients),
		Ingredients: append([]string{}, ingredients...),
		Steps:       orEmpty(steps),
	}
}

// DecodeNutrition 嚴格解碼營養估算；四個欄位都必須存在且非負，小數捨去
func DecodeNutrition(cleaned string) (common.NutritionEstimate, error) {
	var raw struct {
		Calories *json.Number `json:"calories"`
		Protein  *json.Number `json:"protein_g"`
		Carbs    *json.Number `json:"carbs_g"`
		Fat      *json.Number `json:"fat_g"`
	}
	if err := common.ParseJSON(cleaned, &raw); err != nil {
		return common.NutritionEstimate{}, fmt.Errorf("decode nutrition: %w", err)
	}

	var est common.NutritionEstimate
	var err error
	if est.Calories, err = nonNegativeInt("calories", raw.Calories); err != nil {
		return common.NutritionEstimate{}, err
	}
	if est.ProteinGrams, err = nonNegativeInt("protein_g", raw.Protein); err != nil {
		return common.NutritionEstimate{}, err
	}
	if est.CarbsGrams, err = nonNegativeInt("carbs_g", raw.Carbs); err != nil {
		return common.NutritionEstimate{}, err
	}
	if est.FatGrams, err = nonNegativeInt("fat_g", raw.Fat); err != nil {
		return common.NutritionEstimate{}, err
	}
	return est, nil
}

func nonNegativeInt(name string, num *json.Number) (int, error) {
	if num == nil {
		return 0, fmt.Errorf("decode nutrition: missing %s", name)
	}
	v, err := num.Float64()
	if err != nil || v < 0 {
		return 0, fmt.Errorf("decode nutrition: invalid %s %q", name, num.String())
	}
	return int(v), nil
}

// decodeID 接受字串或數字形式的 id
func decodeID(raw json.RawMessage) string {
	if len(raw) == 0 || string(raw) == "null" {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strings.TrimSpace(s)
	}
	var n json.Number
	if err := json.Unmarshal(raw, &n); err == nil {
		return n.String()
	}
	return ""
}

func orEmpty(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}
