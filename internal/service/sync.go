package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
)

// bulkPageSize is how many recipes a full reindex loads per page.
const bulkPageSize = 500

// SyncService keeps the search index aligned with Postgres. Every
// operation is idempotent: re-syncing the same recipe or re-running a full
// reindex converges on the same index state.
type SyncService struct {
	repo   repository.RecipeRepository
	engine engine.SearchEngine
	logger *slog.Logger
}

// NewSyncService creates a sync service.
func NewSyncService(repo repository.RecipeRepository, eng engine.SearchEngine, logger *slog.Logger) *SyncService {
	return &SyncService{repo: repo, engine: eng, logger: logger}
}

// SyncRecipe projects a recipe into the index. A recipe that is no longer
// public is removed instead, so private recipes can never match a search.
func (s *SyncService) SyncRecipe(ctx context.Context, recipe *domain.Recipe) error {
	if !recipe.IsPublic {
		if err := s.engine.DeleteRecipe(ctx, recipe.ID); err != nil {
			return fmt.Errorf("sync recipe %s: %w", recipe.ID, err)
		}
		s.logger.Info("removed non-public recipe from index", slog.String("recipe_id", recipe.ID))
		return s.RefreshFacets(ctx)
	}

	doc, err := ProjectRecipe(recipe)
	if err != nil {
		return fmt.Errorf("sync recipe: %w", err)
	}
	if err := s.engine.IndexRecipe(ctx, doc); err != nil {
		return fmt.Errorf("sync recipe %s: %w", recipe.ID, err)
	}

	return s.RefreshFacets(ctx)
}

// DeleteRecipe removes a recipe from the index. Deleting an unindexed
// recipe is a no-op.
func (s *SyncService) DeleteRecipe(ctx context.Context, id string) error {
	if err := s.engine.DeleteRecipe(ctx, id); err != nil {
		return fmt.Errorf("delete recipe %s from index: %w", id, err)
	}
	return s.RefreshFacets(ctx)
}

// BulkSyncResult summarizes a full reindex run.
type BulkSyncResult struct {
	Indexed int
	Failed  int
}

// BulkSyncAll reindexes every public recipe, paging through Postgres and
// bulk-writing each page. Individual document failures are logged and
// counted, not fatal: the next run will pick them up again.
func (s *SyncService) BulkSyncAll(ctx context.Context) (*BulkSyncResult, error) {
	result := &BulkSyncResult{}
	offset := 0

	for {
		recipes, total, err := s.repo.ListPublic(ctx, offset, bulkPageSize)
		if err != nil {
			return nil, fmt.Errorf("bulk sync: list recipes: %w", err)
		}
		if len(recipes) == 0 {
			break
		}

		docs := make([]*domain.RecipeDocument, 0, len(recipes))
		for i := range recipes {
			doc, err := ProjectRecipe(&recipes[i])
			if err != nil {
				result.Failed++
				s.logger.Warn("skipping unprojectable recipe",
					slog.String("recipe_id", recipes[i].ID),
					slog.String("error", err.Error()),
				)
				continue
			}
			docs = append(docs, doc)
		}

		bulk, err := s.engine.BulkIndexRecipes(ctx, docs)
		if err != nil {
			return nil, fmt.Errorf("bulk sync: index page at offset %d: %w", offset, err)
		}
		result.Indexed += bulk.Indexed
		result.Failed += len(bulk.Failed)
		for _, item := range bulk.Failed {
			s.logger.Warn("bulk index item failed",
				slog.String("recipe_id", item.ID),
				slog.String("type", item.Type),
				slog.String("reason", item.Reason),
			)
		}

		offset += len(recipes)
		if offset >= total {
			break
		}
	}

	if err := s.RefreshFacets(ctx); err != nil {
		return nil, err
	}

	s.logger.Info("bulk reindex finished",
		slog.Int("indexed", result.Indexed),
		slog.Int("failed", result.Failed),
	)
	return result, nil
}

// Reindex makes sure the indices exist, then rebuilds them from Postgres.
func (s *SyncService) Reindex(ctx context.Context) (*BulkSyncResult, error) {
	if err := s.engine.EnsureIndices(ctx); err != nil {
		return nil, fmt.Errorf("reindex: %w", err)
	}
	return s.BulkSyncAll(ctx)
}

// RefreshFacets recomputes ingredient usage counts from Postgres and
// upserts the facet documents.
func (s *SyncService) RefreshFacets(ctx context.Context) error {
	counts, err := s.repo.IngredientUsageCounts(ctx)
	if err != nil {
		return fmt.Errorf("refresh facets: %w", err)
	}
	if err := s.engine.UpsertFacets(ctx, BuildFacets(counts)); err != nil {
		return fmt.Errorf("refresh facets: %w", err)
	}
	return nil
}
