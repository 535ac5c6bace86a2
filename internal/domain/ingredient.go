package domain

import "strings"

// Ingredient categories used for suggestion facets.
const (
	CategoryProtein   = "protein"
	CategoryVegetable = "vegetable"
	CategoryFruit     = "fruit"
	CategoryGrain     = "grain"
	CategoryDairy     = "dairy"
	CategorySeasoning = "seasoning"
	CategoryOther     = "other"
)

// NormalizeIngredientName lowercases a name and collapses internal
// whitespace so "Chicken  Breast " and "chicken breast" index identically.
func NormalizeIngredientName(name string) string {
	return strings.Join(strings.Fields(strings.ToLower(name)), " ")
}

type categoryRule struct {
	category string
	keywords []string
}

// categoryRules are checked in order; the first keyword hit wins. Protein
// comes first so "chicken stock" classifies as protein, not seasoning.
var categoryRules = []categoryRule{
	{CategoryProtein, []string{
		"chicken", "beef", "pork", "lamb", "turkey", "duck", "fish", "salmon",
		"tuna", "shrimp", "prawn", "crab", "tofu", "tempeh", "egg", "bacon",
		"sausage", "ham", "lentil", "chickpea", "bean",
	}},
	{CategoryVegetable, []string{
		"onion", "garlic", "tomato", "potato", "carrot", "pepper", "spinach",
		"broccoli", "cauliflower", "zucchini", "cucumber", "lettuce", "cabbage",
		"mushroom", "celery", "leek", "pea", "corn", "eggplant", "kale",
	}},
	{CategoryFruit, []string{
		"apple", "banana", "orange", "lemon", "lime", "berry", "strawberry",
		"blueberry", "raspberry", "mango", "pineapple", "peach", "pear",
		"grape", "cherry", "avocado", "coconut",
	}},
	{CategoryGrain, []string{
		"rice", "pasta", "noodle", "bread", "flour", "oat", "quinoa", "barley",
		"couscous", "tortilla", "cornmeal", "breadcrumb",
	}},
	{CategoryDairy, []string{
		"milk", "cheese", "butter", "cream", "yogurt", "yoghurt", "mozzarella",
		"parmesan", "cheddar", "ricotta", "feta",
	}},
	{CategorySeasoning, []string{
		"salt", "sugar", "oil", "vinegar", "sauce", "paste", "spice", "herb",
		"basil", "oregano", "thyme", "rosemary", "cumin", "paprika", "cinnamon",
		"ginger", "chili", "curry", "mustard", "honey", "stock", "broth",
	}},
}

// CategorizeIngredient maps a raw ingredient name to a coarse category.
// Unknown names fall through to "other".
func CategorizeIngredient(name string) string {
	normalized := NormalizeIngredientName(name)
	for _, rule := range categoryRules {
		for _, kw := range rule.keywords {
			if strings.Contains(normalized, kw) {
				return rule.category
			}
		}
	}
	return CategoryOther
}
