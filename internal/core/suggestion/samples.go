package suggestion

import "seefood/internal/pkg/common"

// sampleRecipes 離線或端點失敗時回傳的固定食譜
var sampleRecipes = []common.Recipe{
	{
		ID:          "sample-1",
		Title:       "Quick Veggie Wrap",
		Ingredients: []string{"tortilla", "lettuce", "tomato", "cheese"},
		Steps:       []string{"Warm tortilla", "Layer veggies", "Roll and enjoy"},
	},
	{
		ID:          "sample-2",
		Title:       "Simple Pasta",
		Ingredients: []string{"pasta", "olive oil", "garlic", "salt"},
		Steps:       []string{"Boil pasta", "Sauté garlic", "Toss with oil and pasta"},
	},
	{
		ID:          "sample-3",
		Title:       "Tomato Omelette",
		Ingredients: []string{"eggs", "tomato", "onion", "salt"},
		Steps:       []string{"Beat eggs", "Add chopped veggies", "Cook in pan"},
	},
}

// SampleRecipes 回傳固定食譜的副本
func SampleRecipes() []common.Recipe {
	return common.CloneRecipes(sampleRecipes)
}
