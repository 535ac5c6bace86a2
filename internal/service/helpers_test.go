package service

import (
	"context"
	"errors"
	"log/slog"
	"sort"
	"strings"
	"testing"
	"time"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
)

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(testWriter{}, &slog.HandlerOptions{Level: slog.LevelError}))
}

type testWriter struct{}

func (testWriter) Write(p []byte) (int, error) { return len(p), nil }

// fakeRepo is an in-memory RecipeRepository.
type fakeRepo struct {
	recipes map[string]domain.Recipe
	failAll bool
}

func newFakeRepo(recipes ...domain.Recipe) *fakeRepo {
	r := &fakeRepo{recipes: make(map[string]domain.Recipe)}
	for _, rec := range recipes {
		r.recipes[rec.ID] = rec
	}
	return r
}

var errRepoDown = errors.New("database unavailable")

func (r *fakeRepo) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	rec, ok := r.recipes[id]
	if !ok {
		return nil, apperrors.NotFound("recipe", id)
	}
	return &rec, nil
}

func (r *fakeRepo) GetPublicByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	var out []domain.Recipe
	for _, id := range ids {
		if rec, ok := r.recipes[id]; ok && rec.IsPublic {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *fakeRepo) publicSorted() []domain.Recipe {
	var out []domain.Recipe
	for _, rec := range r.recipes {
		if rec.IsPublic {
			out = append(out, rec)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.After(out[j].CreatedAt) })
	return out
}

func paginateRecipes(recipes []domain.Recipe, offset, limit int) []domain.Recipe {
	if offset >= len(recipes) {
		return nil
	}
	recipes = recipes[offset:]
	if limit > 0 && limit < len(recipes) {
		recipes = recipes[:limit]
	}
	return recipes
}

func (r *fakeRepo) ListPublic(ctx context.Context, offset, limit int) ([]domain.Recipe, int, error) {
	if r.failAll {
		return nil, 0, errRepoDown
	}
	all := r.publicSorted()
	return paginateRecipes(all, offset, limit), len(all), nil
}

func (r *fakeRepo) SearchFallback(ctx context.Context, req *domain.SearchRequest) ([]domain.Recipe, int, error) {
	if r.failAll {
		return nil, 0, errRepoDown
	}
	var matched []domain.Recipe
	for _, rec := range r.publicSorted() {
		if req.Query != "" && !containsFold(rec.Title, req.Query) && !containsFold(rec.Description, req.Query) {
			continue
		}
		if len(req.Cuisines) > 0 && !containsString(req.Cuisines, rec.Cuisine) {
			continue
		}
		if len(req.Difficulties) > 0 && !containsString(req.Difficulties, rec.Difficulty) {
			continue
		}
		matched = append(matched, rec)
	}
	return paginateRecipes(matched, req.Skip, req.Take), len(matched), nil
}

func containsString(list []string, want string) bool {
	for _, s := range list {
		if strings.EqualFold(s, want) {
			return true
		}
	}
	return false
}

func (r *fakeRepo) PantryFallback(ctx context.Context, ingredients []string, offset, limit int) ([]domain.Recipe, int, error) {
	if r.failAll {
		return nil, 0, errRepoDown
	}
	var matched []domain.Recipe
	for _, rec := range r.publicSorted() {
		for _, want := range ingredients {
			if hasIngredient(rec, want) {
				matched = append(matched, rec)
				break
			}
		}
	}
	return paginateRecipes(matched, offset, limit), len(matched), nil
}

func (r *fakeRepo) DistinctIngredientNames(ctx context.Context, substr string, limit int) ([]string, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	seen := map[string]struct{}{}
	var names []string
	for _, rec := range r.recipes {
		if !rec.IsPublic {
			continue
		}
		for _, ing := range rec.Ingredients {
			name := strings.ToLower(ing.Name)
			if !strings.Contains(name, strings.ToLower(substr)) {
				continue
			}
			if _, ok := seen[name]; ok {
				continue
			}
			seen[name] = struct{}{}
			names = append(names, name)
		}
	}
	sort.Strings(names)
	if limit > 0 && limit < len(names) {
		names = names[:limit]
	}
	return names, nil
}

func (r *fakeRepo) IngredientUsageCounts(ctx context.Context) (map[string]int, error) {
	if r.failAll {
		return nil, errRepoDown
	}
	counts := make(map[string]int)
	for _, rec := range r.recipes {
		if !rec.IsPublic {
			continue
		}
		for _, ing := range rec.Ingredients {
			counts[strings.ToLower(ing.Name)]++
		}
	}
	return counts, nil
}

func containsFold(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

func hasIngredient(rec domain.Recipe, name string) bool {
	for _, ing := range rec.Ingredients {
		if containsFold(ing.Name, name) {
			return true
		}
	}
	return false
}

// brokenEngine fails every call; it stands in for an unreachable cluster.
type brokenEngine struct{}

var errEngineDown = errors.New("engine unreachable")

func (brokenEngine) Ping(context.Context) error          { return errEngineDown }
func (brokenEngine) EnsureIndices(context.Context) error { return errEngineDown }
func (brokenEngine) IndexRecipe(context.Context, *domain.RecipeDocument) error {
	return errEngineDown
}
func (brokenEngine) DeleteRecipe(context.Context, string) error { return errEngineDown }
func (brokenEngine) BulkIndexRecipes(context.Context, []*domain.RecipeDocument) (*engine.BulkResult, error) {
	return nil, errEngineDown
}
func (brokenEngine) UpsertFacets(context.Context, []domain.IngredientFacet) error {
	return errEngineDown
}
func (brokenEngine) SearchRecipeIDs(context.Context, query.Query) (*domain.RankedIDs, error) {
	return nil, errEngineDown
}
func (brokenEngine) SuggestIngredients(context.Context, query.Query) ([]string, int64, error) {
	return nil, 0, errEngineDown
}

func publicRecipe(id, title string, created time.Time, ingredients ...string) domain.Recipe {
	rec := domain.Recipe{
		ID:        id,
		Title:     title,
		IsPublic:  true,
		AuthorID:  "author-1",
		CreatedAt: created,
		UpdatedAt: created,
	}
	for _, name := range ingredients {
		rec.Ingredients = append(rec.Ingredients, domain.Ingredient{Name: name, Quantity: 1, Unit: "unit"})
	}
	return rec
}

func mustSync(t *testing.T, s *SyncService, recipes ...domain.Recipe) {
	t.Helper()
	for i := range recipes {
		if err := s.SyncRecipe(context.Background(), &recipes[i]); err != nil {
			t.Fatalf("sync recipe %s: %v", recipes[i].ID, err)
		}
	}
}
