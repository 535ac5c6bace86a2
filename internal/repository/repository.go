// Package repository defines data access interfaces for the search service.
package repository

import (
	"context"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
)

// RecipeRepository reads authoritative recipe data from Postgres. Search
// results are always re-fetched through it so stale index entries can
// never surface deleted or private recipes.
type RecipeRepository interface {
	// GetByID returns a recipe with its ingredients and instructions,
	// regardless of visibility. Returns apperrors.ErrNotFound when absent.
	GetByID(ctx context.Context, id string) (*domain.Recipe, error)

	// GetPublicByIDs returns the public recipes among ids, in no
	// particular order. IDs that are missing or private are omitted.
	GetPublicByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error)

	// ListPublic returns a page of public recipes ordered by creation
	// time descending, plus the total count of public recipes.
	ListPublic(ctx context.Context, offset, limit int) ([]domain.Recipe, int, error)

	// SearchFallback runs the relational approximation of recipe search:
	// case-insensitive substring matching with hard filters applied,
	// ordered by creation time descending.
	SearchFallback(ctx context.Context, req *domain.SearchRequest) ([]domain.Recipe, int, error)

	// PantryFallback returns public recipes containing any of the given
	// ingredient names, ordered by creation time descending.
	PantryFallback(ctx context.Context, ingredients []string, offset, limit int) ([]domain.Recipe, int, error)

	// DistinctIngredientNames returns distinct ingredient names from
	// public recipes containing the given substring.
	DistinctIngredientNames(ctx context.Context, substr string, limit int) ([]string, error)

	// IngredientUsageCounts returns how many public recipes use each
	// normalized ingredient name.
	IngredientUsageCounts(ctx context.Context) (map[string]int, error)
}
