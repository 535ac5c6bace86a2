package domain

import "time"

// Difficulty levels a recipe can declare.
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

// Ingredient is one line of a recipe's ingredient list.
type Ingredient struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity"`
	Unit     string  `json:"unit"`
}

// InstructionStep is a single ordered step of a recipe.
type InstructionStep struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
}

// Recipe is the authoritative recipe record as stored in Postgres. The
// search index holds a projection of it, never the other way around.
type Recipe struct {
	ID           string            `json:"id"`
	Title        string            `json:"title"`
	Description  string            `json:"description"`
	Cuisine      string            `json:"cuisine"`
	Difficulty   string            `json:"difficulty"`
	CookingTime  int               `json:"cooking_time"`
	Servings     int               `json:"servings"`
	IsPublic     bool              `json:"is_public"`
	AuthorID     string            `json:"author_id"`
	AuthorName   string            `json:"author_name"`
	Ingredients  []Ingredient      `json:"ingredients"`
	Instructions []InstructionStep `json:"instructions"`
	AvgRating    *float64          `json:"avg_rating,omitempty"`
	RatingCount  int               `json:"rating_count"`
	CommentCount int               `json:"comment_count"`
	CreatedAt    time.Time         `json:"created_at"`
	UpdatedAt    time.Time         `json:"updated_at"`
}

// IngredientNames returns the recipe's ingredient names in declaration order.
func (r *Recipe) IngredientNames() []string {
	names := make([]string, 0, len(r.Ingredients))
	for _, ing := range r.Ingredients {
		names = append(names, ing.Name)
	}
	return names
}
