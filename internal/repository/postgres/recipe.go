// Package postgres implements the recipe repository on PostgreSQL, the
// system of record for all recipe data.
package postgres

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/jackc/pgx/v5"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/database"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
)

// RecipeRepository implements repository.RecipeRepository using PostgreSQL.
type RecipeRepository struct {
	pool database.DBTX
}

var _ repository.RecipeRepository = (*RecipeRepository)(nil)

// NewRecipeRepository creates a new PostgreSQL-backed recipe repository.
func NewRecipeRepository(pool database.DBTX) *RecipeRepository {
	return &RecipeRepository{pool: pool}
}

const recipeColumns = `r.id, r.title, r.description, r.cuisine, r.difficulty,
	r.cooking_time, r.servings, r.is_public, r.author_id, r.author_name,
	r.avg_rating, r.rating_count, r.comment_count, r.created_at, r.updated_at`

// GetByID retrieves a recipe with its ingredients and instructions.
func (r *RecipeRepository) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	query := fmt.Sprintf(`SELECT %s FROM recipes r WHERE r.id = $1`, recipeColumns)

	row := r.pool.QueryRow(ctx, query, id)
	recipe, err := scanRecipe(row)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound("recipe", id)
		}
		return nil, fmt.Errorf("get recipe: %w", err)
	}

	recipes := []domain.Recipe{*recipe}
	if err := r.loadChildren(ctx, recipes); err != nil {
		return nil, err
	}
	return &recipes[0], nil
}

// GetPublicByIDs retrieves the public recipes among ids. Missing or private
// IDs are silently omitted; callers handle reordering and gaps.
func (r *RecipeRepository) GetPublicByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query := fmt.Sprintf(`
		SELECT %s FROM recipes r
		WHERE r.id = ANY($1) AND r.is_public = TRUE`, recipeColumns)

	rows, err := r.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, fmt.Errorf("get recipes by ids: %w", err)
	}
	defer rows.Close()

	recipes, err := scanRecipes(rows)
	if err != nil {
		return nil, fmt.Errorf("get recipes by ids: %w", err)
	}

	if err := r.loadChildren(ctx, recipes); err != nil {
		return nil, err
	}
	return recipes, nil
}

// ListPublic returns a page of public recipes ordered by creation time
// descending, along with the total count of public recipes.
func (r *RecipeRepository) ListPublic(ctx context.Context, offset, limit int) ([]domain.Recipe, int, error) {
	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM recipes r
		WHERE r.is_public = TRUE
		ORDER BY r.created_at DESC
		LIMIT $1 OFFSET $2`, recipeColumns)

	return r.queryWithTotal(ctx, query, limit, offset)
}

// SearchFallback approximates recipe search relationally: ILIKE substring
// matching across title, description and ingredient names, with the same
// hard filters the engine applies. Ordering is by creation time, newest
// first, since there is no relevance score to sort by.
func (r *RecipeRepository) SearchFallback(ctx context.Context, req *domain.SearchRequest) ([]domain.Recipe, int, error) {
	conditions := []string{"r.is_public = TRUE"}
	var args []any
	argIndex := 1

	if req.Query != "" {
		pattern := "%" + req.Query + "%"
		conditions = append(conditions, fmt.Sprintf(`(
			r.title ILIKE $%d OR r.description ILIKE $%d OR EXISTS (
				SELECT 1 FROM recipe_ingredients ri
				WHERE ri.recipe_id = r.id AND ri.name ILIKE $%d
			))`, argIndex, argIndex, argIndex))
		args = append(args, pattern)
		argIndex++
	}

	// Every requested ingredient must be present.
	for _, name := range req.Ingredients {
		conditions = append(conditions, fmt.Sprintf(`EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = r.id AND ri.name ILIKE $%d
		)`, argIndex))
		args = append(args, "%"+name+"%")
		argIndex++
	}

	if len(req.Cuisines) > 0 {
		conditions = append(conditions, fmt.Sprintf("r.cuisine = ANY($%d)", argIndex))
		args = append(args, req.Cuisines)
		argIndex++
	}
	if len(req.Difficulties) > 0 {
		conditions = append(conditions, fmt.Sprintf("r.difficulty = ANY($%d)", argIndex))
		args = append(args, req.Difficulties)
		argIndex++
	}
	if req.MaxCookingTime != nil {
		conditions = append(conditions, fmt.Sprintf("r.cooking_time <= $%d", argIndex))
		args = append(args, *req.MaxCookingTime)
		argIndex++
	}
	if req.MinServings != nil {
		conditions = append(conditions, fmt.Sprintf("r.servings >= $%d", argIndex))
		args = append(args, *req.MinServings)
		argIndex++
	}
	if req.MaxServings != nil {
		conditions = append(conditions, fmt.Sprintf("r.servings <= $%d", argIndex))
		args = append(args, *req.MaxServings)
		argIndex++
	}
	if req.AuthorID != nil {
		conditions = append(conditions, fmt.Sprintf("r.author_id = $%d", argIndex))
		args = append(args, *req.AuthorID)
		argIndex++
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM recipes r
		WHERE %s
		ORDER BY r.created_at DESC
		LIMIT $%d OFFSET $%d`,
		recipeColumns, strings.Join(conditions, " AND "), argIndex, argIndex+1)
	args = append(args, req.Take, req.Skip)

	return r.queryWithTotal(ctx, query, args...)
}

// PantryFallback returns public recipes containing any of the given
// ingredient names.
func (r *RecipeRepository) PantryFallback(ctx context.Context, ingredients []string, offset, limit int) ([]domain.Recipe, int, error) {
	if len(ingredients) == 0 {
		return nil, 0, nil
	}

	patterns := make([]string, 0, len(ingredients))
	for _, name := range ingredients {
		patterns = append(patterns, "%"+name+"%")
	}

	query := fmt.Sprintf(`
		SELECT %s, count(*) OVER() AS total_count
		FROM recipes r
		WHERE r.is_public = TRUE AND EXISTS (
			SELECT 1 FROM recipe_ingredients ri
			WHERE ri.recipe_id = r.id AND ri.name ILIKE ANY($1)
		)
		ORDER BY r.created_at DESC
		LIMIT $2 OFFSET $3`, recipeColumns)

	return r.queryWithTotal(ctx, query, patterns, limit, offset)
}

// DistinctIngredientNames returns distinct lowercased ingredient names from
// public recipes matching the given substring, in alphabetical order.
func (r *RecipeRepository) DistinctIngredientNames(ctx context.Context, substr string, limit int) ([]string, error) {
	query := `
		SELECT DISTINCT lower(ri.name)
		FROM recipe_ingredients ri
		JOIN recipes r ON r.id = ri.recipe_id
		WHERE r.is_public = TRUE AND ri.name ILIKE $1
		ORDER BY 1
		LIMIT $2`

	rows, err := r.pool.Query(ctx, query, "%"+substr+"%", limit)
	if err != nil {
		return nil, fmt.Errorf("distinct ingredient names: %w", err)
	}
	defer rows.Close()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("distinct ingredient names: scan: %w", err)
		}
		names = append(names, name)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("distinct ingredient names: %w", err)
	}
	return names, nil
}

// IngredientUsageCounts counts how many public recipes use each lowercased
// ingredient name.
func (r *RecipeRepository) IngredientUsageCounts(ctx context.Context) (map[string]int, error) {
	query := `
		SELECT lower(ri.name), count(DISTINCT ri.recipe_id)
		FROM recipe_ingredients ri
		JOIN recipes r ON r.id = ri.recipe_id
		WHERE r.is_public = TRUE
		GROUP BY lower(ri.name)`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("ingredient usage counts: %w", err)
	}
	defer rows.Close()

	counts := make(map[string]int)
	for rows.Next() {
		var name string
		var count int
		if err := rows.Scan(&name, &count); err != nil {
			return nil, fmt.Errorf("ingredient usage counts: scan: %w", err)
		}
		counts[name] = count
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("ingredient usage counts: %w", err)
	}
	return counts, nil
}

// queryWithTotal runs a query whose last column is count(*) OVER() and
// returns the recipes with their children loaded plus the total.
func (r *RecipeRepository) queryWithTotal(ctx context.Context, query string, args ...any) ([]domain.Recipe, int, error) {
	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, 0, fmt.Errorf("query recipes: %w", err)
	}
	defer rows.Close()

	var recipes []domain.Recipe
	total := 0
	for rows.Next() {
		var rec domain.Recipe
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.Cuisine, &rec.Difficulty,
			&rec.CookingTime, &rec.Servings, &rec.IsPublic, &rec.AuthorID, &rec.AuthorName,
			&rec.AvgRating, &rec.RatingCount, &rec.CommentCount, &rec.CreatedAt, &rec.UpdatedAt,
			&total,
		); err != nil {
			return nil, 0, fmt.Errorf("scan recipe: %w", err)
		}
		recipes = append(recipes, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, 0, fmt.Errorf("query recipes: %w", err)
	}

	if err := r.loadChildren(ctx, recipes); err != nil {
		return nil, 0, err
	}
	return recipes, total, nil
}

// loadChildren attaches ingredients and instructions to the given recipes
// with one query per child table.
func (r *RecipeRepository) loadChildren(ctx context.Context, recipes []domain.Recipe) error {
	if len(recipes) == 0 {
		return nil
	}

	ids := make([]string, 0, len(recipes))
	index := make(map[string]*domain.Recipe, len(recipes))
	for i := range recipes {
		ids = append(ids, recipes[i].ID)
		index[recipes[i].ID] = &recipes[i]
	}

	ingRows, err := r.pool.Query(ctx, `
		SELECT recipe_id, name, quantity, unit
		FROM recipe_ingredients
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, position`, ids)
	if err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}
	defer ingRows.Close()

	for ingRows.Next() {
		var recipeID string
		var ing domain.Ingredient
		if err := ingRows.Scan(&recipeID, &ing.Name, &ing.Quantity, &ing.Unit); err != nil {
			return fmt.Errorf("load ingredients: scan: %w", err)
		}
		if rec, ok := index[recipeID]; ok {
			rec.Ingredients = append(rec.Ingredients, ing)
		}
	}
	if err := ingRows.Err(); err != nil {
		return fmt.Errorf("load ingredients: %w", err)
	}

	stepRows, err := r.pool.Query(ctx, `
		SELECT recipe_id, step_number, description
		FROM recipe_instructions
		WHERE recipe_id = ANY($1)
		ORDER BY recipe_id, step_number`, ids)
	if err != nil {
		return fmt.Errorf("load instructions: %w", err)
	}
	defer stepRows.Close()

	for stepRows.Next() {
		var recipeID string
		var step domain.InstructionStep
		if err := stepRows.Scan(&recipeID, &step.StepNumber, &step.Description); err != nil {
			return fmt.Errorf("load instructions: scan: %w", err)
		}
		if rec, ok := index[recipeID]; ok {
			rec.Instructions = append(rec.Instructions, step)
		}
	}
	if err := stepRows.Err(); err != nil {
		return fmt.Errorf("load instructions: %w", err)
	}

	return nil
}

func scanRecipe(row pgx.Row) (*domain.Recipe, error) {
	var rec domain.Recipe
	err := row.Scan(
		&rec.ID, &rec.Title, &rec.Description, &rec.Cuisine, &rec.Difficulty,
		&rec.CookingTime, &rec.Servings, &rec.IsPublic, &rec.AuthorID, &rec.AuthorName,
		&rec.AvgRating, &rec.RatingCount, &rec.CommentCount, &rec.CreatedAt, &rec.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &rec, nil
}

func scanRecipes(rows pgx.Rows) ([]domain.Recipe, error) {
	var recipes []domain.Recipe
	for rows.Next() {
		var rec domain.Recipe
		if err := rows.Scan(
			&rec.ID, &rec.Title, &rec.Description, &rec.Cuisine, &rec.Difficulty,
			&rec.CookingTime, &rec.Servings, &rec.IsPublic, &rec.AuthorID, &rec.AuthorName,
			&rec.AvgRating, &rec.RatingCount, &rec.CommentCount, &rec.CreatedAt, &rec.UpdatedAt,
		); err != nil {
			return nil, err
		}
		recipes = append(recipes, rec)
	}
	return recipes, rows.Err()
}
