// Package elasticsearch implements the search engine on an Elasticsearch
// cluster. The cluster is a projection of Postgres: every write here is
// best-effort and rebuildable, so callers treat failures as degradation,
// not data loss.
package elasticsearch

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"

	"github.com/elastic/go-elasticsearch/v8"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
)

// Engine is an Elasticsearch-backed implementation of engine.SearchEngine.
type Engine struct {
	client          *elasticsearch.Client
	recipeIndex     string
	ingredientIndex string
	logger          *slog.Logger
}

var _ engine.SearchEngine = (*Engine)(nil)

// esSearchResponse decodes search responses. Only IDs and ranking metadata
// are read; authoritative rows come from Postgres.
type esSearchResponse struct {
	Took int `json:"took"`
	Hits struct {
		Total struct {
			Value int `json:"value"`
		} `json:"total"`
		MaxScore *float64 `json:"max_score"`
		Hits     []struct {
			ID     string `json:"_id"`
			Source struct {
				ID   string `json:"id"`
				Name string `json:"name"`
			} `json:"_source"`
		} `json:"hits"`
	} `json:"hits"`
}

// esBulkResponse decodes bulk responses including per-item errors.
type esBulkResponse struct {
	Errors bool `json:"errors"`
	Items  []struct {
		Index struct {
			ID     string `json:"_id"`
			Status int    `json:"status"`
			Error  struct {
				Type   string `json:"type"`
				Reason string `json:"reason"`
			} `json:"error"`
		} `json:"index"`
	} `json:"items"`
}

// esErrorResponse decodes top-level error responses.
type esErrorResponse struct {
	Error struct {
		Type   string `json:"type"`
		Reason string `json:"reason"`
	} `json:"error"`
	Status int `json:"status"`
}

// New creates an engine for the given cluster URL. It only builds the
// client; call EnsureIndices separately so an unreachable cluster at
// startup degrades to fallback search instead of failing the process.
func New(esURL, recipeIndex, ingredientIndex string, logger *slog.Logger) (*Engine, error) {
	if recipeIndex == "" {
		recipeIndex = DefaultRecipeIndex
	}
	if ingredientIndex == "" {
		ingredientIndex = DefaultIngredientIndex
	}

	client, err := elasticsearch.NewClient(elasticsearch.Config{
		Addresses: []string{esURL},
	})
	if err != nil {
		return nil, fmt.Errorf("elasticsearch: failed to create client: %w", err)
	}

	return &Engine{
		client:          client,
		recipeIndex:     recipeIndex,
		ingredientIndex: ingredientIndex,
		logger:          logger,
	}, nil
}

// Ping checks whether the cluster is reachable.
func (e *Engine) Ping(ctx context.Context) error {
	res, err := e.client.Ping(e.client.Ping.WithContext(ctx))
	if err != nil {
		return fmt.Errorf("elasticsearch ping: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch ping: unexpected status %s", res.Status())
	}
	return nil
}

// EnsureIndices creates the recipe and ingredient indices if they are missing.
func (e *Engine) EnsureIndices(ctx context.Context) error {
	if err := e.ensureIndex(ctx, e.recipeIndex, recipeIndexBody); err != nil {
		return err
	}
	return e.ensureIndex(ctx, e.ingredientIndex, ingredientIndexBody)
}

func (e *Engine) ensureIndex(ctx context.Context, name string, body map[string]any) error {
	res, err := e.client.Indices.Exists(
		[]string{name},
		e.client.Indices.Exists.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("check index exists: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.StatusCode == 200 {
		e.logger.Info("elasticsearch index already exists", "index", name)
		return nil
	}

	data, err := json.Marshal(body)
	if err != nil {
		return fmt.Errorf("create index: marshal body: %w", err)
	}

	res, err = e.client.Indices.Create(
		name,
		e.client.Indices.Create.WithBody(bytes.NewReader(data)),
		e.client.Indices.Create.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("create index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("create index %q: %s", name, decodeError(res.Body, res.Status()))
	}

	e.logger.Info("elasticsearch index created", "index", name)
	return nil
}

// IndexRecipe upserts a single recipe document. The write waits for the
// next refresh so subsequent searches see it.
func (e *Engine) IndexRecipe(ctx context.Context, doc *domain.RecipeDocument) error {
	data, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("elasticsearch index: marshal document: %w", err)
	}

	res, err := e.client.Index(
		e.recipeIndex,
		bytes.NewReader(data),
		e.client.Index.WithDocumentID(doc.ID),
		e.client.Index.WithRefresh("wait_for"),
		e.client.Index.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch index: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return fmt.Errorf("elasticsearch index: %s", decodeError(res.Body, res.Status()))
	}

	e.logger.Debug("indexed recipe", "id", doc.ID, "title", doc.Title)
	return nil
}

// DeleteRecipe removes a recipe document. 404 is ignored: deleting a
// never-indexed or already-removed document is a no-op.
func (e *Engine) DeleteRecipe(ctx context.Context, id string) error {
	res, err := e.client.Delete(
		e.recipeIndex,
		id,
		e.client.Delete.WithContext(ctx),
	)
	if err != nil {
		return fmt.Errorf("elasticsearch delete: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() && res.StatusCode != 404 {
		return fmt.Errorf("elasticsearch delete: %s", decodeError(res.Body, res.Status()))
	}

	e.logger.Debug("deleted recipe", "id", id)
	return nil
}

// BulkIndexRecipes upserts documents via the bulk NDJSON API. Per-item
// failures are collected into the result instead of aborting the batch.
func (e *Engine) BulkIndexRecipes(ctx context.Context, docs []*domain.RecipeDocument) (*engine.BulkResult, error) {
	if len(docs) == 0 {
		return &engine.BulkResult{}, nil
	}

	var buf bytes.Buffer
	for _, doc := range docs {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.recipeIndex,
				"_id":    doc.ID,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(doc); err != nil {
			return nil, fmt.Errorf("elasticsearch bulk: encode document: %w", err)
		}
	}

	resp, err := e.bulk(ctx, &buf)
	if err != nil {
		return nil, err
	}

	result := &engine.BulkResult{}
	for _, item := range resp.Items {
		if item.Index.Error.Type != "" {
			result.Failed = append(result.Failed, engine.BulkItemError{
				ID:     item.Index.ID,
				Type:   item.Index.Error.Type,
				Reason: item.Index.Error.Reason,
			})
			continue
		}
		result.Indexed++
	}

	e.logger.Info("bulk indexed recipes",
		"indexed", result.Indexed,
		"failed", len(result.Failed),
	)
	return result, nil
}

// UpsertFacets writes ingredient facets keyed by normalized name, so
// repeated recomputation converges instead of duplicating entries.
func (e *Engine) UpsertFacets(ctx context.Context, facets []domain.IngredientFacet) error {
	if len(facets) == 0 {
		return nil
	}

	var buf bytes.Buffer
	for _, f := range facets {
		action := map[string]any{
			"index": map[string]any{
				"_index": e.ingredientIndex,
				"_id":    f.Name,
			},
		}
		if err := json.NewEncoder(&buf).Encode(action); err != nil {
			return fmt.Errorf("elasticsearch facets: encode action: %w", err)
		}
		if err := json.NewEncoder(&buf).Encode(f); err != nil {
			return fmt.Errorf("elasticsearch facets: encode facet: %w", err)
		}
	}

	resp, err := e.bulk(ctx, &buf)
	if err != nil {
		return err
	}

	if resp.Errors {
		failed := 0
		for _, item := range resp.Items {
			if item.Index.Error.Type != "" {
				failed++
			}
		}
		e.logger.Warn("some ingredient facets failed to index", "failed", failed)
	}
	return nil
}

func (e *Engine) bulk(ctx context.Context, body *bytes.Buffer) (*esBulkResponse, error) {
	res, err := e.client.Bulk(
		bytes.NewReader(body.Bytes()),
		e.client.Bulk.WithRefresh("wait_for"),
		e.client.Bulk.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch bulk: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch bulk: %s", decodeError(res.Body, res.Status()))
	}

	var resp esBulkResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("elasticsearch bulk: decode response: %w", err)
	}
	return &resp, nil
}

// SearchRecipeIDs runs a query against the recipe index and returns ranked
// IDs plus result metadata.
func (e *Engine) SearchRecipeIDs(ctx context.Context, q query.Query) (*domain.RankedIDs, error) {
	resp, err := e.search(ctx, e.recipeIndex, q)
	if err != nil {
		return nil, err
	}

	ids := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		id := hit.Source.ID
		if id == "" {
			id = hit.ID
		}
		ids = append(ids, id)
	}

	return &domain.RankedIDs{
		IDs:      ids,
		Total:    resp.Hits.Total.Value,
		MaxScore: resp.Hits.MaxScore,
		TookMs:   int64(resp.Took),
	}, nil
}

// SuggestIngredients runs an autocomplete query against the ingredient
// index and returns deduplicated names in ranked order.
func (e *Engine) SuggestIngredients(ctx context.Context, q query.Query) ([]string, int64, error) {
	resp, err := e.search(ctx, e.ingredientIndex, q)
	if err != nil {
		return nil, 0, err
	}

	seen := make(map[string]struct{}, len(resp.Hits.Hits))
	names := make([]string, 0, len(resp.Hits.Hits))
	for _, hit := range resp.Hits.Hits {
		name := hit.Source.Name
		if name == "" {
			continue
		}
		if _, ok := seen[name]; ok {
			continue
		}
		seen[name] = struct{}{}
		names = append(names, name)
	}

	return names, int64(resp.Took), nil
}

func (e *Engine) search(ctx context.Context, index string, q query.Query) (*esSearchResponse, error) {
	data, err := json.Marshal(q.Body())
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: marshal query: %w", err)
	}

	res, err := e.client.Search(
		e.client.Search.WithIndex(index),
		e.client.Search.WithBody(bytes.NewReader(data)),
		e.client.Search.WithContext(ctx),
	)
	if err != nil {
		return nil, fmt.Errorf("elasticsearch search: %w", err)
	}
	defer func() { _ = res.Body.Close() }()

	if res.IsError() {
		return nil, fmt.Errorf("elasticsearch search: %s", decodeError(res.Body, res.Status()))
	}

	var resp esSearchResponse
	if err := json.NewDecoder(res.Body).Decode(&resp); err != nil {
		return nil, fmt.Errorf("elasticsearch search: decode response: %w", err)
	}
	return &resp, nil
}

func decodeError(body io.Reader, status string) string {
	var errResp esErrorResponse
	if err := json.NewDecoder(body).Decode(&errResp); err == nil && errResp.Error.Type != "" {
		return fmt.Sprintf("%s: %s", errResp.Error.Type, errResp.Error.Reason)
	}
	return fmt.Sprintf("unexpected status %s", status)
}
