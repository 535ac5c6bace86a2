package http

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	openai "github.com/sashabaranov/go-openai"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine/memory"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/service"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/suggest"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/health"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/middleware"
)

type stubRepo struct {
	recipes map[string]domain.Recipe
}

func (r *stubRepo) GetByID(ctx context.Context, id string) (*domain.Recipe, error) {
	rec, ok := r.recipes[id]
	if !ok {
		return nil, apperrors.NotFound("recipe", id)
	}
	return &rec, nil
}

func (r *stubRepo) GetPublicByIDs(ctx context.Context, ids []string) ([]domain.Recipe, error) {
	var out []domain.Recipe
	for _, id := range ids {
		if rec, ok := r.recipes[id]; ok && rec.IsPublic {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (r *stubRepo) ListPublic(ctx context.Context, offset, limit int) ([]domain.Recipe, int, error) {
	var out []domain.Recipe
	for _, rec := range r.recipes {
		if rec.IsPublic {
			out = append(out, rec)
		}
	}
	if offset >= len(out) {
		return nil, len(out), nil
	}
	return out[offset:], len(out), nil
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

type stubCompletion struct{ answer string }

func (s stubCompletion) CreateChatCompletion(ctx context.Context, req openai.ChatCompletionRequest) (openai.ChatCompletionResponse, error) {
	return openai.ChatCompletionResponse{
		Choices: []openai.ChatCompletionChoice{
			{Message: openai.ChatCompletionMessage{Content: s.answer}},
		},
	}, nil
}

const recipeID = "3f2f1ae2-9d3c-4a8f-b0e9-b67f5a1b2c3d"

func newTestServer(t *testing.T, withSuggester bool) http.Handler {
	t.Helper()
	logger := slog.New(slog.NewTextHandler(nopWriter{}, &slog.HandlerOptions{Level: slog.LevelError + 1}))

	repo := &stubRepo{recipes: map[string]domain.Recipe{
		recipeID: {
			ID:       recipeID,
			Title:    "Chicken Curry",
			IsPublic: true,
			AuthorID: "author-1",
			Ingredients: []domain.Ingredient{
				{Name: "chicken thigh", Quantity: 500, Unit: "g"},
			},
		},
	}}
	eng := memory.New()
	syncSvc := service.NewSyncService(repo, eng, logger)
	rec, _ := repo.GetByID(context.Background(), recipeID)
	require.NoError(t, syncSvc.SyncRecipe(context.Background(), rec))

	searchSvc := service.NewSearchService(eng, repo, service.NewFallbackService(repo, logger), logger)

	var suggester *suggest.Suggester
	if withSuggester {
		suggester = suggest.New(stubCompletion{answer: "Try a riesling."}, nil, suggest.DefaultConfig(), logger)
	}

	handler := NewSearchHandler(searchSvc, syncSvc, suggester, repo, logger)
	return NewRouter(RouterConfig{
		Handler: handler,
		Health:  health.NewHandler(),
		Logger:  logger,
		CORS:    middleware.DefaultCORSConfig(),
	})
}

type nopWriter struct{}

func (nopWriter) Write(p []byte) (int, error) { return len(p), nil }

func decodeData(t *testing.T, body *bytes.Buffer) map[string]any {
	t.Helper()
	var envelope struct {
		Data map[string]any `json:"data"`
	}
	require.NoError(t, json.NewDecoder(body).Decode(&envelope))
	return envelope.Data
}

func TestSearchRecipesEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recipes?q=chicken", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	recipes, ok := data["recipes"].([]any)
	require.True(t, ok)
	require.Len(t, recipes, 1)
	assert.Equal(t, float64(1), data["total"])
}

func TestSearchRecipesEndpoint_InvalidDifficulty(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/recipes?difficulty=impossible", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestPantryEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	body := `{"ingredients":["chicken"]}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/pantry", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, float64(1), data["total"])
}

func TestPantryEndpoint_EmptyIngredients(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/pantry", strings.NewReader(`{"ingredients":[]}`))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuggestEndpoint_RequiresQuery(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/ingredients/suggest", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusBadRequest, rr.Code)
}

func TestSuggestEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/api/v1/search/ingredients/suggest?q=chick", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	suggestions, ok := data["suggestions"].([]any)
	require.True(t, ok)
	assert.Contains(t, suggestions, "chicken thigh")
}

func TestReindexEndpoint(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodPost, "/api/v1/search/reindex", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusAccepted, rr.Code)
}

func TestSuggestionsEndpoint(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"recipe_id":"` + recipeID + `","kind":"pairing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	require.Equal(t, http.StatusOK, rr.Code)
	data := decodeData(t, rr.Body)
	assert.Equal(t, "Try a riesling.", data["suggestion"])
}

func TestSuggestionsEndpoint_RequiresUser(t *testing.T) {
	srv := newTestServer(t, true)

	body := `{"recipe_id":"` + recipeID + `","kind":"pairing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusUnauthorized, rr.Code)
}

func TestSuggestionsEndpoint_NoProviderConfigured(t *testing.T) {
	srv := newTestServer(t, false)

	body := `{"recipe_id":"` + recipeID + `","kind":"pairing"}`
	req := httptest.NewRequest(http.MethodPost, "/api/v1/suggestions", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	req.Header.Set("X-User-ID", "user-1")
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusServiceUnavailable, rr.Code)
}

func TestHealthEndpoints(t *testing.T) {
	srv := newTestServer(t, false)

	req := httptest.NewRequest(http.MethodGet, "/healthz", nil)
	rr := httptest.NewRecorder()
	srv.ServeHTTP(rr, req)

	assert.Equal(t, http.StatusOK, rr.Code)
}
