package common

import "time"

// Recipe 食譜
// id 不保證跨供應商唯一，title 作為備援識別鍵
type Recipe struct {
	ID          string   `json:"id"`
	Title       string   `json:"title"`
	ImageURL    *string  `json:"imageUrl"`
	Ingredients []string `json:"ingredients"`
	Steps       []string `json:"steps"`
}

// Key 回傳識別鍵，id 為空時使用 title
func (r Recipe) Key() string {
	if r.ID != "" {
		return r.ID
	}
	return r.Title
}

// Clone 深拷貝食譜
func (r Recipe) Clone() Recipe {
	out := r
	if r.ImageURL != nil {
		u := *r.ImageURL
		out.ImageURL = &u
	}
	out.Ingredients = cloneStrings(r.Ingredients)
	out.Steps = cloneStrings(r.Steps)
	return out
}

// cloneStrings 拷貝切片，保留 nil 與空切片的區別
func cloneStrings(s []string) []string {
	if s == nil {
		return nil
	}
	return append(make([]string, 0, len(s)), s...)
}

// CloneRecipes 深拷貝食譜清單
func CloneRecipes(recipes []Recipe) []Recipe {
	if recipes == nil {
		return nil
	}
	out := make([]Recipe, len(recipes))
	for i, r := range recipes {
		out[i] = r.Clone()
	}
	return out
}

// NutritionEstimate 單份營養估算
type NutritionEstimate struct {
	Calories     int `json:"calories"`
	ProteinGrams int `json:"protein_g"`
	CarbsGrams   int `json:"carbs_g"`
	FatGrams     int `json:"fat_g"`
}

// SuggestionBatch 一次 suggest 呼叫回傳的食譜
type SuggestionBatch struct {
	ID          string    `json:"id"`
	CreatedAt   time.Time `json:"created_at"`
	Ingredients []string  `json:"ingredients"`
	Recipes     []Recipe  `json:"recipes"`
}

// Clone 深拷貝批次
func (b SuggestionBatch) Clone() SuggestionBatch {
	out := b
	out.Ingredients = cloneStrings(b.Ingredients)
	out.Recipes = CloneRecipes(b.Recipes)
	return out
}
