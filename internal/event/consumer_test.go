package event

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/activity"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine/memory"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/service"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/kafka"
)

type stubRepo struct {
	recipes map[string]domain.Recipe
	err     error
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	if r.err != nil {
		return nil, r.err
	}
	rec, ok := r.recipes[id]
	if !ok {
		return nil, apperrors.NotFound("recipe", id)
	}
	return &rec, nil
}

func (r *stubRepo) GetPublicByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error) {
	return nil, nil
}

func (r *stubRepo) ListPublic(ctx context.Context, offset, limit int) ([]domain.Recipe, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) SearchFallback(ctx context.Context, req *domain.SearchRequest) ([]domain.Recipe, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) PantryFallback(ctx context.Context, ingredients []string, offset, limit int) ([]domain.Recipe, int, error) {
	return nil, 0, nil
}

func (r *stubRepo) DistinctIngredientNames(ctx context.Context, substr string, limit int) ([]string, error) {
	return nil, nil
}

func (r *stubRepo) IngredientUsageCounts(ctx context.Context) (map[string]int, error) {
	return map[string]int{}, nil
}

// downEngine fails all writes, like an unreachable cluster.
type downEngine struct{}

var errDown = errors.New("engine down")

func (downEngine) Ping(context.Context) error                                  { return errDown }
func (downEngine) EnsureIndices(context.Context) error                         { return errDown }
func (downEngine) IndexRecipe(context.Context, *domain.RecipeDocument) error   { return errDown }
func (downEngine) DeleteRecipe(context.Context, string) error                  { return errDown }
func (downEngine) UpsertFacets(context.Context, []domain.IngredientFacet) error { return errDown }
func (downEngine) BulkIndexRecipes(context.Context, []*domain.RecipeDocument) (*engine.BulkResult, error) {
	return nil, errDown
}
func (downEngine) SearchRecipeIDs(context.Context, query.Query) (*domain.RankedIDs, error) {
	return nil, errDown
}
func (downEngine) SuggestIngredients(context.Context, query.Query) ([]string, int64, error) {
	return nil, 0, errDown
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(discard{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))
}

type discard struct{}

func (discard) Write(p []byte) (int, error) { return len(p), nil }

func recipeEvent(t *testing.T, eventType, id string) *kafka.Event {
	t.Helper()
	ev, err := kafka.NewEvent(eventType, id, "recipe", "recipe-service", map[string]string{"id": id})
	require.NoError(t, err)
	return ev
}

func newHandlers(repo *stubRepo, eng engine.SearchEngine) *Handlers {
	logger := quietLogger()
	sync := service.NewSyncService(repo, eng, logger)
	pub := activity.NewPublisher(nil, "", logger)
	return NewHandlers(sync, repo, pub, logger)
}

func TestHandleRecipeCreated_IndexesRecipe(t *testing.T) {
	repo := &stubRepo{recipes: map[string]domain.Recipe{
		"r1": {ID: "r1", Title: "Pho", IsPublic: true},
	}}
	eng := memory.New()
	h := newHandlers(repo, eng)

	err := h.HandleRecipeCreated(context.Background(), recipeEvent(t, "recipe.created", "r1"))

	require.NoError(t, err)
	assert.True(t, eng.HasRecipe("r1"))
}

func TestHandleRecipeUpdated_PrivateRecipeIsRemoved(t *testing.T) {
	eng := memory.New()
	repo := &stubRepo{recipes: map[string]domain.Recipe{
		"r1": {ID: "r1", Title: "Pho", IsPublic: true},
	}}
	h := newHandlers(repo, eng)
	require.NoError(t, h.HandleRecipeCreated(context.Background(), recipeEvent(t, "recipe.created", "r1")))

	repo.recipes["r1"] = domain.Recipe{ID: "r1", Title: "Pho", IsPublic: false}
	err := h.HandleRecipeUpdated(context.Background(), recipeEvent(t, "recipe.updated", "r1"))

	require.NoError(t, err)
	assert.False(t, eng.HasRecipe("r1"))
}

func TestHandleRecipeUpdated_MissingRecipeDeletesDocument(t *testing.T) {
	eng := memory.New()
	require.NoError(t, eng.IndexRecipe(context.Background(), &domain.RecipeDocument{
		ID: "r1", Title: "Stale", Visibility: domain.VisibilityPublic,
	}))
	repo := &stubRepo{recipes: map[string]domain.Recipe{}}
	h := newHandlers(repo, eng)

	err := h.HandleRecipeUpdated(context.Background(), recipeEvent(t, "recipe.updated", "r1"))

	require.NoError(t, err)
	assert.False(t, eng.HasRecipe("r1"))
}

func TestHandleRecipeDeleted(t *testing.T) {
	eng := memory.New()
	require.NoError(t, eng.IndexRecipe(context.Background(), &domain.RecipeDocument{
		ID: "r1", Title: "Pho", Visibility: domain.VisibilityPublic,
	}))
	repo := &stubRepo{recipes: map[string]domain.Recipe{}}
	h := newHandlers(repo, eng)

	err := h.HandleRecipeDeleted(context.Background(), recipeEvent(t, "recipe.deleted", "r1"))

	require.NoError(t, err)
	assert.False(t, eng.HasRecipe("r1"))
}

func TestHandlers_MalformedPayloadIsSkipped(t *testing.T) {
	eng := memory.New()
	repo := &stubRepo{recipes: map[string]domain.Recipe{}}
	h := newHandlers(repo, eng)

	ev := &kafka.Event{EventID: "e1", EventType: "recipe.created", Data: json.RawMessage(`{"wrong":"shape"}`)}
	err := h.HandleRecipeCreated(context.Background(), ev)

	require.NoError(t, err)
	assert.Zero(t, eng.RecipeCount())
}

func TestHandlers_DatabaseErrorIsRetryable(t *testing.T) {
	repo := &stubRepo{err: errors.New("connection refused")}
	h := newHandlers(repo, memory.New())

	err := h.HandleRecipeUpdated(context.Background(), recipeEvent(t, "recipe.updated", "r1"))

	assert.Error(t, err)
}

func TestHandlers_EngineFailureIsSwallowed(t *testing.T) {
	repo := &stubRepo{recipes: map[string]domain.Recipe{
		"r1": {ID: "r1", Title: "Pho", IsPublic: true},
	}}
	h := newHandlers(repo, downEngine{})

	err := h.HandleRecipeCreated(context.Background(), recipeEvent(t, "recipe.created", "r1"))

	assert.NoError(t, err)
}
