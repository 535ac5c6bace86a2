package domain

const (
	// DefaultTake is the page size used when a request does not specify one.
	DefaultTake = 20
	// MaxTake caps the page size regardless of what the request asks for.
	MaxTake = 100
)

// SearchRequest carries every parameter the recipe search surface accepts.
// Zero values mean "not filtered".
type SearchRequest struct {
	// Query is free text matched against titles, descriptions, ingredients
	// and instructions.
	Query string `json:"query"`

	// Ingredients restricts results to recipes containing every listed
	// ingredient (pantry mode relaxes this to any-of).
	Ingredients []string `json:"ingredients,omitempty"`

	Cuisines     []string `json:"cuisines,omitempty"`
	Difficulties []string `json:"difficulties,omitempty" validate:"omitempty,dive,oneof=easy medium hard"`

	// MaxCookingTime filters to recipes taking at most this many minutes.
	MaxCookingTime *int `json:"max_cooking_time,omitempty" validate:"omitempty,gt=0"`

	MinServings *int `json:"min_servings,omitempty" validate:"omitempty,gt=0"`
	MaxServings *int `json:"max_servings,omitempty" validate:"omitempty,gt=0"`

	AuthorID *string `json:"author_id,omitempty" validate:"omitempty,uuid"`

	Skip int `json:"skip" validate:"gte=0"`
	Take int `json:"take" validate:"gte=0"`
}

// Normalize applies pagination defaults and caps in place.
func (r *SearchRequest) Normalize() {
	if r.Skip < 0 {
		r.Skip = 0
	}
	if r.Take <= 0 {
		r.Take = DefaultTake
	}
	if r.Take > MaxTake {
		r.Take = MaxTake
	}
}

// HasFreeText reports whether the request carries a free-text query.
func (r *SearchRequest) HasFreeText() bool {
	return r.Query != ""
}

// SearchResult is one page of recipes in relevance order.
type SearchResult struct {
	Recipes  []Recipe `json:"recipes"`
	Total    int      `json:"total"`
	TookMs   int64    `json:"took_ms"`
	MaxScore *float64 `json:"max_score,omitempty"`
}

// SuggestionResult holds ingredient-name completions for a prefix.
type SuggestionResult struct {
	Suggestions []string `json:"suggestions"`
	TookMs      int64    `json:"took_ms"`
}

// RecipeDocument is the denormalized shape indexed into the search engine.
// It is a projection of Recipe and is always rebuildable from Postgres.
type RecipeDocument struct {
	ID           string           `json:"id"`
	Title        string           `json:"title"`
	Description  string           `json:"description"`
	Cuisine      string           `json:"cuisine,omitempty"`
	Difficulty   string           `json:"difficulty,omitempty"`
	CookingTime  int              `json:"cooking_time"`
	Servings     int              `json:"servings"`
	Visibility   string           `json:"visibility"`
	AuthorID     string           `json:"author_id"`
	AuthorName   string           `json:"author_name,omitempty"`
	Ingredients  []IngredientDoc  `json:"ingredients"`
	Instructions []InstructionDoc `json:"instructions"`
	AvgRating    *float64         `json:"avg_rating,omitempty"`
	RatingCount  int              `json:"rating_count"`
	CommentCount int              `json:"comment_count"`
	CreatedAt    string           `json:"created_at"`
	UpdatedAt    string           `json:"updated_at"`
}

// Visibility values carried on indexed documents.
const (
	VisibilityPublic  = "public"
	VisibilityPrivate = "private"
)

// IngredientDoc is the nested ingredient shape inside a RecipeDocument.
type IngredientDoc struct {
	Name     string  `json:"name"`
	Quantity float64 `json:"quantity,omitempty"`
	Unit     string  `json:"unit,omitempty"`
}

// InstructionDoc is the nested instruction shape inside a RecipeDocument.
type InstructionDoc struct {
	StepNumber  int    `json:"step_number"`
	Description string `json:"description"`
}

// IngredientFacet is an entry in the ingredient suggestion index. The
// normalized name doubles as the document ID so re-indexing is idempotent.
type IngredientFacet struct {
	Name       string `json:"name"`
	UsageCount int    `json:"usage_count"`
	Category   string `json:"category,omitempty"`
}

// RankedIDs is what the search engine returns: recipe IDs in relevance
// order plus result metadata. Authoritative rows are fetched separately.
type RankedIDs struct {
	IDs      []string
	Total    int
	MaxScore *float64
	TookMs   int64
}
