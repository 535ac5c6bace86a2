// Package engine defines the search engine abstraction. The Elasticsearch
// implementation backs production; an in-memory implementation backs tests.
package engine

import (
	"context"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
)

// BulkItemError describes one failed document in a bulk operation.
type BulkItemError struct {
	ID     string
	Type   string
	Reason string
}

// BulkResult reports the outcome of a bulk index operation. Individual
// failures do not abort the batch.
type BulkResult struct {
	Indexed int
	Failed  []BulkItemError
}

// SearchEngine is the relevance-side store. It holds projections only:
// every document in it can be rebuilt from Postgres, so implementations
// favor availability over durability.
type SearchEngine interface {
	// Ping reports whether the engine is reachable.
	Ping(ctx context.Context) error

	// EnsureIndices creates the recipe and ingredient indices with their
	// mappings if they do not already exist.
	EnsureIndices(ctx context.Context) error

	// IndexRecipe upserts a single recipe document.
	IndexRecipe(ctx context.Context, doc *domain.RecipeDocument) error

	// DeleteRecipe removes a recipe document. Deleting a document that is
	// not indexed is not an error.
	DeleteRecipe(ctx context.Context, id string) error

	// BulkIndexRecipes upserts a batch of documents, reporting per-item
	// failures without failing the whole batch.
	BulkIndexRecipes(ctx context.Context, docs []*domain.RecipeDocument) (*BulkResult, error)

	// UpsertFacets writes ingredient facets keyed by normalized name.
	UpsertFacets(ctx context.Context, facets []domain.IngredientFacet) error

	// SearchRecipeIDs runs a query and returns ranked recipe IDs plus
	// result metadata. Authoritative rows are fetched elsewhere.
	SearchRecipeIDs(ctx context.Context, q query.Query) (*domain.RankedIDs, error)

	// SuggestIngredients returns ingredient-name completions for a query,
	// along with the engine-reported took time in milliseconds.
	SuggestIngredients(ctx context.Context, q query.Query) ([]string, int64, error)
}
