// Package http exposes the search service over HTTP.
package http

import (
	"context"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/repository"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/service"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/suggest"
	apperrors "github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/errors"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/httputil"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/pkg/validator"
)

// reindexTimeout bounds a background full reindex.
const reindexTimeout = 10 * time.Minute

// SearchHandler handles search, pantry, autocomplete, reindex and AI
// suggestion endpoints.
type SearchHandler struct {
	search    *service.SearchService
	sync      *service.SyncService
	suggester *suggest.Suggester
	repo      repository.RecipeRepository
	logger    *slog.Logger
}

// NewSearchHandler creates a search handler. The suggester may be nil when
// no completion provider is configured; the suggestions endpoint then
// returns 503.
func NewSearchHandler(
	search *service.SearchService,
	sync *service.SyncService,
	suggester *suggest.Suggester,
	repo repository.RecipeRepository,
	logger *slog.Logger,
) *SearchHandler {
	return &SearchHandler{
		search:    search,
		sync:      sync,
		suggester: suggester,
		repo:      repo,
		logger:    logger,
	}
}

// SearchRecipes handles GET /api/v1/search/recipes.
func (h *SearchHandler) SearchRecipes(w http.ResponseWriter, r *http.Request) {
	req, err := parseSearchRequest(r)
	if err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.search.SearchRecipes(r.Context(), req)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// pantryRequest is the body of POST /api/v1/search/pantry.
type pantryRequest struct {
	Ingredients []string `json:"ingredients" validate:"required,min=1,max=30,dive,required"`
	Skip        int      `json:"skip" validate:"gte=0"`
	Take        int      `json:"take" validate:"gte=0,lte=100"`
}

// PantrySearch handles POST /api/v1/search/pantry.
func (h *SearchHandler) PantrySearch(w http.ResponseWriter, r *http.Request) {
	var req pantryRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	result, err := h.search.PantrySearch(r.Context(), req.Ingredients, req.Skip, req.Take)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// SuggestIngredients handles GET /api/v1/search/ingredients/suggest.
func (h *SearchHandler) SuggestIngredients(w http.ResponseWriter, r *http.Request) {
	prefix := strings.TrimSpace(r.URL.Query().Get("q"))
	if prefix == "" {
		httputil.WriteError(w, r, apperrors.InvalidInput("query parameter 'q' is required"), h.logger)
		return
	}

	limit := intQueryParam(r, "limit", 10)
	result, err := h.search.SuggestIngredients(r.Context(), prefix, limit)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: result})
}

// Reindex handles POST /api/v1/search/reindex. The rebuild runs in the
// background; the endpoint answers immediately.
func (h *SearchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), reindexTimeout)
		defer cancel()

		result, err := h.sync.Reindex(ctx)
		if err != nil {
			h.logger.Error("background reindex failed", slog.String("error", err.Error()))
			return
		}
		h.logger.Info("background reindex completed",
			slog.Int("indexed", result.Indexed),
			slog.Int("failed", result.Failed),
		)
	}()

	httputil.WriteJSON(w, http.StatusAccepted, httputil.Response{
		Data: map[string]string{"status": "reindex started"},
	})
}

// suggestionRequest is the body of POST /api/v1/suggestions.
type suggestionRequest struct {
	RecipeID string `json:"recipe_id" validate:"required,uuid"`
	Kind     string `json:"kind" validate:"required,oneof=pairing variation improvement"`
}

type suggestionResponse struct {
	RecipeID   string `json:"recipe_id"`
	Kind       string `json:"kind"`
	Suggestion string `json:"suggestion"`
}

// Suggestions handles POST /api/v1/suggestions.
func (h *SearchHandler) Suggestions(w http.ResponseWriter, r *http.Request) {
	if h.suggester == nil {
		httputil.WriteError(w, r,
			apperrors.SearchUnavailable(apperrors.ErrServiceUnavail), h.logger)
		return
	}

	var req suggestionRequest
	if err := validator.DecodeAndValidate(r, &req); err != nil {
		httputil.WriteValidationError(w, err)
		return
	}

	userID := r.Header.Get("X-User-ID")
	if userID == "" {
		httputil.WriteError(w, r, apperrors.Unauthorized("missing user identity"), h.logger)
		return
	}

	recipe, err := h.repo.GetByID(r.Context(), req.RecipeID)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}
	// Private recipes are only visible to their author.
	if !recipe.IsPublic && recipe.AuthorID != userID {
		httputil.WriteError(w, r, apperrors.NotFound("recipe", req.RecipeID), h.logger)
		return
	}

	suggestion, err := h.suggester.Suggest(r.Context(), userID, suggest.Kind(req.Kind), recipe)
	if err != nil {
		httputil.WriteError(w, r, err, h.logger)
		return
	}

	httputil.WriteJSON(w, http.StatusOK, httputil.Response{Data: suggestionResponse{
		RecipeID:   recipe.ID,
		Kind:       req.Kind,
		Suggestion: suggestion,
	}})
}

// parseSearchRequest builds a SearchRequest from query parameters.
// List parameters accept comma-separated values.
func parseSearchRequest(r *http.Request) (*domain.SearchRequest, error) {
	q := r.URL.Query()

	req := &domain.SearchRequest{
		Query:        strings.TrimSpace(q.Get("q")),
		Ingredients:  csvParam(q.Get("ingredients")),
		Cuisines:     csvParam(q.Get("cuisine")),
		Difficulties: csvParam(q.Get("difficulty")),
		Skip:         intQueryParam(r, "skip", 0),
		Take:         intQueryParam(r, "take", 0),
	}

	if v := q.Get("max_cooking_time"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MaxCookingTime = &n
		}
	}
	if v := q.Get("min_servings"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MinServings = &n
		}
	}
	if v := q.Get("max_servings"); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			req.MaxServings = &n
		}
	}
	if v := q.Get("author_id"); v != "" {
		req.AuthorID = &v
	}

	if err := validator.Validate(req); err != nil {
		return nil, err
	}
	return req, nil
}

func csvParam(v string) []string {
	if v == "" {
		return nil
	}
	parts := strings.Split(v, ",")
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

func intQueryParam(r *http.Request, name string, def int) int {
	v := r.URL.Query().Get(name)
	if v == "" {
		return def
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return def
	}
	return n
}
