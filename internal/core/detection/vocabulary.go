package detection

// VocabularyVersion 詞表版本，調整食材或黑名單時遞增
const VocabularyVersion = "2025.12"

// Category 食材分類
type Category string

const (
	CategoryFruit     Category = "fruit"
	CategoryVegetable Category = "vegetable"
	CategoryProtein   Category = "protein"
	CategoryDairy     Category = "dairy"
	CategoryGrain     Category = "grain"
	CategoryDish      Category = "dish"
	CategoryBeverage  Category = "beverage"
	CategorySweet     Category = "sweet"
	CategoryPantry    Category = "pantry"
)

// foodVocabulary 標準食材 token → 分類
var foodVocabulary = map[string]Category{
	// 水果
	"apple":      CategoryFruit,
	"pineapple":  CategoryFruit,
	"banana":     CategoryFruit,
	"orange":     CategoryFruit,
	"lemon":      CategoryFruit,
	"lime":       CategoryFruit,
	"grape":      CategoryFruit,
	"grapefruit": CategoryFruit,
	"berry":      CategoryFruit,
	"strawberry": CategoryFruit,
	"blueberry":  CategoryFruit,
	"raspberry":  CategoryFruit,
	"cherry":     CategoryFruit,
	"peach":      CategoryFruit,
	"pear":       CategoryFruit,
	"mango":      CategoryFruit,
	"melon":      CategoryFruit,
	"watermelon": CategoryFruit,
	"kiwi":       CategoryFruit,
	"avocado":    CategoryFruit,
	"coconut":    CategoryFruit,

	// 蔬菜
	"tomato":       CategoryVegetable,
	"potato":       CategoryVegetable,
	"sweet potato": CategoryVegetable,
	"carrot":       CategoryVegetable,
	"onion":        CategoryVegetable,
	"garlic":       CategoryVegetable,
	"ginger":       CategoryVegetable,
	"pepper":       CategoryVegetable,
	"bell pepper":  CategoryVegetable,
	"chili":        CategoryVegetable,
	"broccoli":     CategoryVegetable,
	"cauliflower":  CategoryVegetable,
	"lettuce":      CategoryVegetable,
	"spinach":      CategoryVegetable,
	"cabbage":      CategoryVegetable,
	"kale":         CategoryVegetable,
	"cucumber":     CategoryVegetable,
	"zucchini":     CategoryVegetable,
	"eggplant":     CategoryVegetable,
	"corn":         CategoryVegetable,
	"mushroom":     CategoryVegetable,
	"celery":       CategoryVegetable,
	"asparagus":    CategoryVegetable,
	"pea":          CategoryVegetable,
	"bean":         CategoryVegetable,
	"pumpkin":      CategoryVegetable,
	"radish":       CategoryVegetable,
	"olive":        CategoryVegetable,
	"herb":         CategoryVegetable,
	"basil":        CategoryVegetable,

	// 蛋白質
	"egg":     CategoryProtein,
	"chicken": CategoryProtein,
	"beef":    CategoryProtein,
	"pork":    CategoryProtein,
	"steak":   CategoryProtein,
	"bacon":   CategoryProtein,
	"ham":     CategoryProtein,
	"sausage": CategoryProtein,
	"meat":    CategoryProtein,
	"fish":    CategoryProtein,
	"salmon":  CategoryProtein,
	"tuna":    CategoryProtein,
	"shrimp":  CategoryProtein,
	"crab":    CategoryProtein,
	"tofu":    CategoryProtein,
	"peanut":  CategoryProtein,
	"walnut":  CategoryProtein,
	"almond":  CategoryProtein,
	"nut":     CategoryProtein,

	// 乳製品
	"cheese": CategoryDairy,
	"butter": CategoryDairy,
	"yogurt": CategoryDairy,
	"milk":   CategoryDairy,
	"cream":  CategoryDairy,

	// 穀物
	"bread":     CategoryGrain,
	"toast":     CategoryGrain,
	"bagel":     CategoryGrain,
	"bun":       CategoryGrain,
	"tortilla":  CategoryGrain,
	"pasta":     CategoryGrain,
	"spaghetti": CategoryGrain,
	"noodle":    CategoryGrain,
	"rice":      CategoryGrain,
	"oat":       CategoryGrain,
	"cereal":    CategoryGrain,
	"flour":     CategoryGrain,

	// 料理
	"sandwich":  CategoryDish,
	"pizza":     CategoryDish,
	"burger":    CategoryDish,
	"hamburger": CategoryDish,
	"hot dog":   CategoryDish,
	"wrap":      CategoryDish,
	"salad":     CategoryDish,
	"soup":      CategoryDish,
	"omelette":  CategoryDish,
	"sushi":     CategoryDish,
	"taco":      CategoryDish,
	"burrito":   CategoryDish,
	"dumpling":  CategoryDish,
	"fries":     CategoryDish,

	// 飲品
	"coffee":   CategoryBeverage,
	"tea":      CategoryBeverage,
	"juice":    CategoryBeverage,
	"soda":     CategoryBeverage,
	"smoothie": CategoryBeverage,
	"wine":     CategoryBeverage,
	"beer":     CategoryBeverage,

	// 甜點
	"chocolate":  CategorySweet,
	"cookie":     CategorySweet,
	"cake":       CategorySweet,
	"donut":      CategorySweet,
	"biscuit":    CategorySweet,
	"candy":      CategorySweet,
	"muffin":     CategorySweet,
	"pancake":    CategorySweet,
	"ice cream":  CategorySweet,
	"honey":      CategorySweet,
	"popcorn":    CategorySweet,
	"cheesecake": CategorySweet,

	// 調味
	"ketchup": CategoryPantry,
	"sauce":   CategoryPantry,
	"salt":    CategoryPantry,
	"sugar":   CategoryPantry,
	"oil":     CategoryPantry,
}

// nonFoodBlacklist 環境、器具、家具等非食材詞，以單字比對
var nonFoodBlacklist = map[string]struct{}{
	"room":         {},
	"wall":         {},
	"floor":        {},
	"ceiling":      {},
	"furniture":    {},
	"table":        {},
	"tablecloth":   {},
	"chair":        {},
	"kitchen":      {},
	"countertop":   {},
	"cabinet":      {},
	"cabinetry":    {},
	"shelf":        {},
	"window":       {},
	"door":         {},
	"plate":        {},
	"dish":         {},
	"dishware":     {},
	"bowl":         {},
	"cup":          {},
	"mug":          {},
	"tableware":    {},
	"cutlery":      {},
	"fork":         {},
	"spoon":        {},
	"knife":        {},
	"pan":          {},
	"pot":          {},
	"teapot":       {},
	"appliance":    {},
	"refrigerator": {},
	"fridge":       {},
	"oven":         {},
	"microwave":    {},
	"container":    {},
	"jar":          {},
	"box":          {},
	"bag":          {},
	"person":       {},
	"hand":         {},
	"finger":       {},
	"skin":         {},
	"tattoo":       {},
	"screen":       {},
	"phone":        {},
	"computer":     {},
	"text":         {},
	"font":         {},
	"logo":         {},
	"pattern":      {},
	"sky":          {},
	"tree":         {},
	"grass":        {},
	"plant":        {},
	"flower":       {},
	"vehicle":      {},
	"car":          {},
	"boat":         {},
	"coat":         {},
	"corner":       {},
	"foil":         {},
	"wrapper":      {},
	"spear":        {},
	"team":         {},
	"hamster":      {},
	"bunny":        {},
	"animal":       {},
	"pet":          {},
}

// VocabularySize 食材詞表大小
func VocabularySize() int {
	return len(foodVocabulary)
}

// CategoryOf 回傳 token 的分類
func CategoryOf(token string) (Category, bool) {
	c, ok := foodVocabulary[token]
	return c, ok
}
