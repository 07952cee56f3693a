package suggestion

import "seefood/internal/pkg/common"

// HeuristicNutrition 依食材數量估算單份營養，所有值取整數捨去。
// calories = 250 + 60*max(1, n)；蛋白質 25%、碳水 45%（4 kcal/g），脂肪 30%（9 kcal/g）
func HeuristicNutrition(ingredientCount int) common.NutritionEstimate {
	if ingredientCount < 1 {
		ingredientCount = 1
	}
	calories := 250 + 60*ingredientCount
	return common.NutritionEstimate{
		Calories:     calories,
		ProteinGrams: calories * 25 / 400,
		CarbsGrams:   calories * 45 / 400,
		FatGrams:     calories * 30 / 900,
	}
}
