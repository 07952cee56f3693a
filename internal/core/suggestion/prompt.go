package suggestion

import (
	"fmt"
	"strings"

	"seefood/internal/pkg/common"
)

// recipeSystemPrompt 角色與輸出格式；解析器依賴「只回傳 JSON」這項要求
const recipeSystemPrompt = "You are a cooking assistant. " +
	"Return ONLY a valid JSON array of recipes, with no prose, no explanation and no markdown code fences. " +
	"Each recipe is an object with: id (string), title (string), imageUrl (string or null), " +
	"ingredients (array of strings), steps (array of strings)."

const nutritionSystemPrompt = "You are a nutrition assistant. " +
	"Return ONLY a valid JSON object, with no prose, no explanation and no markdown code fences. " +
	"The object has integer fields: calories, protein_g, carbs_g, fat_g, estimated for one serving."

// RecipeCount 每次請求的食譜數量
const RecipeCount = 3

// BuildPrompt 由食材清單產生食譜請求的使用者訊息
func BuildPrompt(ingredients []string) string {
	return fmt.Sprintf(
		"Ingredients: %s. Create %d approachable recipes that use many of these ingredients. "+
			"Respond with the JSON array only.",
		common.JoinIngredients(ingredients), RecipeCount,
	)
}

// BuildNutritionPrompt 由食譜產生營養估算的使用者訊息
func BuildNutritionPrompt(recipe common.Recipe) string {
	var b strings.Builder
	fmt.Fprintf(&b, "Recipe: %s.", strings.TrimSpace(recipe.Title))
	if len(recipe.Ingredients) > 0 {
		fmt.Fprintf(&b, " Ingredients: %s.", common.JoinIngredients(recipe.Ingredients))
	}
	b.WriteString(` Estimate nutrition for one serving as {"calories":0,"protein_g":0,"carbs_g":0,"fat_g":0}. Respond with the JSON object only.`)
	return b.String()
}
