// Package memory provides an in-memory SearchEngine used in tests. It
// interprets the same typed query tree the Elasticsearch engine serializes,
// approximating full-text matching with token containment, so query
// construction and ranking rules can be exercised without a cluster.
package memory

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"sync"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/engine"
	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/search/query"
)

// Engine is an in-memory implementation of engine.SearchEngine.
type Engine struct {
	mu      sync.RWMutex
	recipes map[string]document
	facets  map[string]document
}

var _ engine.SearchEngine = (*Engine)(nil)

// document stores a JSON-generic view of an indexed document so clause
// evaluation and sorting work uniformly across both indices.
type document struct {
	id     string
	fields map[string]any
}

// New creates an empty in-memory engine.
func New() *Engine {
	return &Engine{
		recipes: make(map[string]document),
		facets:  make(map[string]document),
	}
}

func toFields(v any) (map[string]any, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	var fields map[string]any
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// Ping always succeeds.
func (e *Engine) Ping(ctx context.Context) error { return nil }

// EnsureIndices is a no-op; the in-memory indices always exist.
func (e *Engine) EnsureIndices(ctx context.Context) error { return nil }

// IndexRecipe upserts a recipe document.
func (e *Engine) IndexRecipe(ctx context.Context, doc *domain.RecipeDocument) error {
	fields, err := toFields(doc)
	if err != nil {
		return fmt.Errorf("memory index: %w", err)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	e.recipes[doc.ID] = document{id: doc.ID, fields: fields}
	return nil
}

// DeleteRecipe removes a recipe document. Missing documents are ignored.
func (e *Engine) DeleteRecipe(ctx context.Context, id string) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	delete(e.recipes, id)
	return nil
}

// BulkIndexRecipes upserts all documents. In-memory writes cannot partially
// fail, so the result never carries item errors.
func (e *Engine) BulkIndexRecipes(ctx context.Context, docs []*domain.RecipeDocument) (*engine.BulkResult, error) {
	for _, doc := range docs {
		if err := e.IndexRecipe(ctx, doc); err != nil {
			return nil, err
		}
	}
	return &engine.BulkResult{Indexed: len(docs)}, nil
}

// UpsertFacets stores ingredient facets keyed by normalized name.
func (e *Engine) UpsertFacets(ctx context.Context, facets []domain.IngredientFacet) error {
	e.mu.Lock()
	defer e.mu.Unlock()
	for _, f := range facets {
		fields, err := toFields(f)
		if err != nil {
			return fmt.Errorf("memory facets: %w", err)
		}
		e.facets[f.Name] = document{id: f.Name, fields: fields}
	}
	return nil
}

// RecipeCount reports how many recipe documents are indexed.
func (e *Engine) RecipeCount() int {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return len(e.recipes)
}

// HasRecipe reports whether a recipe document is indexed.
func (e *Engine) HasRecipe(id string) bool {
	e.mu.RLock()
	defer e.mu.RUnlock()
	_, ok := e.recipes[id]
	return ok
}

type hit struct {
	doc   document
	score float64
}

// SearchRecipeIDs evaluates the query against all recipe documents and
// returns ranked IDs.
func (e *Engine) SearchRecipeIDs(ctx context.Context, q query.Query) (*domain.RankedIDs, error) {
	e.mu.RLock()
	hits := collectHits(e.recipes, q.Root)
	e.mu.RUnlock()

	sortHits(hits, q.Sort)

	var maxScore *float64
	for _, h := range hits {
		if h.score > 0 && (maxScore == nil || h.score > *maxScore) {
			s := h.score
			maxScore = &s
		}
	}

	total := len(hits)
	hits = paginate(hits, q.From, q.Size)

	ids := make([]string, 0, len(hits))
	for _, h := range hits {
		ids = append(ids, h.doc.id)
	}

	return &domain.RankedIDs{IDs: ids, Total: total, MaxScore: maxScore}, nil
}

// SuggestIngredients evaluates the query against the facet index and
// returns names in ranked order.
func (e *Engine) SuggestIngredients(ctx context.Context, q query.Query) ([]string, int64, error) {
	e.mu.RLock()
	hits := collectHits(e.facets, q.Root)
	e.mu.RUnlock()

	sortHits(hits, q.Sort)
	hits = paginate(hits, q.From, q.Size)

	names := make([]string, 0, len(hits))
	for _, h := range hits {
		if name, ok := h.doc.fields["name"].(string); ok {
			names = append(names, name)
		}
	}
	return names, 0, nil
}

func collectHits(docs map[string]document, root query.BoolQuery) []hit {
	hits := make([]hit, 0)
	for _, doc := range docs {
		matched, score := evalClause(doc.fields, root)
		if matched {
			hits = append(hits, hit{doc: doc, score: score})
		}
	}
	return hits
}

func paginate(hits []hit, from, size int) []hit {
	if from >= len(hits) {
		return nil
	}
	hits = hits[from:]
	if size > 0 && size < len(hits) {
		hits = hits[:size]
	}
	return hits
}

// evalClause returns whether the document matches and the score it earns.
func evalClause(fields map[string]any, c query.Clause) (bool, float64) {
	switch cl := c.(type) {
	case query.TermFilter:
		return termEquals(lookup(fields, cl.Field), cl.Value), 0

	case query.TermsFilter:
		v := lookup(fields, cl.Field)
		for _, want := range cl.Values {
			if termEquals(v, want) {
				return true, 0
			}
		}
		return false, 0

	case query.RangeFilter:
		n, ok := asNumber(lookup(fields, cl.Field))
		if !ok {
			return false, 0
		}
		if cl.GTE != nil && n < *cl.GTE {
			return false, 0
		}
		if cl.LTE != nil && n > *cl.LTE {
			return false, 0
		}
		return true, 0

	case query.Match:
		m := matchedTokens(textAt(fields, cl.Field), cl.Query)
		if m == 0 {
			return false, 0
		}
		return true, boostOr1(cl.Boost) * float64(m)

	case query.MultiMatch:
		best := 0.0
		for _, f := range cl.Fields {
			field, boost := splitBoost(f)
			m := matchedTokens(textAt(fields, field), cl.Query)
			if m == 0 {
				continue
			}
			if s := boost * float64(m); s > best {
				best = s
			}
		}
		return best > 0, best

	case query.MatchPhrase:
		if strings.Contains(textAt(fields, cl.Field), strings.ToLower(cl.Query)) {
			return true, boostOr1(cl.Boost)
		}
		return false, 0

	case query.MatchPhrasePrefix:
		if strings.Contains(textAt(fields, cl.Field), strings.ToLower(strings.TrimSpace(cl.Query))) {
			return true, boostOr1(cl.Boost)
		}
		return false, 0

	case query.Wildcard:
		needle := strings.ToLower(strings.Trim(cl.Pattern, "*"))
		if needle != "" && strings.Contains(textAt(fields, cl.Field), needle) {
			return true, boostOr1(cl.Boost)
		}
		return false, 0

	case query.NestedMatch:
		items, ok := lookup(fields, cl.Path).([]any)
		if !ok {
			return false, 0
		}
		best := 0.0
		matched := false
		for _, item := range items {
			inner, ok := item.(map[string]any)
			if !ok {
				continue
			}
			ok2, s := evalClause(inner, cl.Inner)
			if ok2 {
				matched = true
				if s > best {
					best = s
				}
			}
		}
		if !matched {
			return false, 0
		}
		return true, boostOr1(cl.Boost) * best

	case query.BoolQuery:
		return evalBool(fields, cl)

	default:
		return false, 0
	}
}

func evalBool(fields map[string]any, b query.BoolQuery) (bool, float64) {
	score := 0.0

	for _, c := range b.Filter {
		if ok, _ := evalClause(fields, c); !ok {
			return false, 0
		}
	}
	for _, c := range b.MustNot {
		if ok, _ := evalClause(fields, c); ok {
			return false, 0
		}
	}
	for _, c := range b.Must {
		ok, s := evalClause(fields, c)
		if !ok {
			return false, 0
		}
		score += s
	}

	shouldMatched := 0
	for _, c := range b.Should {
		if ok, s := evalClause(fields, c); ok {
			shouldMatched++
			score += s
		}
	}

	minShould := b.MinimumShouldMatch
	// With no must or filter clauses, at least one should clause has to match.
	if minShould == 0 && len(b.Should) > 0 && len(b.Must) == 0 && len(b.Filter) == 0 {
		minShould = 1
	}
	if shouldMatched < minShould {
		return false, 0
	}

	return true, score
}

// lookup resolves a dotted field path. Text sub-fields like
// "title.autocomplete" resolve to their base field, and paths evaluated
// inside a nested object drop the leading path segment.
func lookup(fields map[string]any, path string) any {
	segments := strings.Split(path, ".")
	var current any = fields
	for i, seg := range segments {
		m, ok := current.(map[string]any)
		if !ok {
			// Sub-field of a leaf value (keyword/autocomplete variants).
			return current
		}
		v, ok := m[seg]
		if !ok {
			if i == 0 && len(segments) > 1 {
				return lookup(fields, strings.Join(segments[1:], "."))
			}
			return nil
		}
		current = v
	}
	return current
}

func textAt(fields map[string]any, field string) string {
	s, _ := lookup(fields, field).(string)
	return strings.ToLower(s)
}

// matchedTokens counts how many query tokens appear in the text.
func matchedTokens(text, q string) int {
	if text == "" {
		return 0
	}
	count := 0
	for _, tok := range strings.Fields(strings.ToLower(q)) {
		if strings.Contains(text, tok) {
			count++
		}
	}
	return count
}

func termEquals(have any, want any) bool {
	if have == nil {
		return false
	}
	return fmt.Sprintf("%v", have) == fmt.Sprintf("%v", want)
}

func asNumber(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case int:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func boostOr1(b float64) float64 {
	if b == 0 {
		return 1
	}
	return b
}

func splitBoost(field string) (string, float64) {
	name, boostStr, ok := strings.Cut(field, "^")
	if !ok {
		return field, 1
	}
	boost, err := strconv.ParseFloat(boostStr, 64)
	if err != nil || boost <= 0 {
		return name, 1
	}
	return name, boost
}

// sortHits applies the sort chain. "_score" compares hit scores; any other
// field compares document values, with missing values ordered last when the
// field asks for it.
func sortHits(hits []hit, chain []query.SortField) {
	if len(chain) == 0 {
		chain = []query.SortField{{Field: "_score", Desc: true}}
	}

	sort.SliceStable(hits, func(i, j int) bool {
		for _, s := range chain {
			cmp := compareField(hits[i], hits[j], s)
			if cmp != 0 {
				return cmp < 0
			}
		}
		return hits[i].doc.id < hits[j].doc.id
	})
}

// compareField returns negative when a sorts before b under s.
func compareField(a, b hit, s query.SortField) int {
	if s.Field == "_score" {
		return compareValues(a.score, b.score, s.Desc)
	}

	av := lookup(a.doc.fields, s.Field)
	bv := lookup(b.doc.fields, s.Field)

	if av == nil || bv == nil {
		if av == nil && bv == nil {
			return 0
		}
		if s.MissingLast {
			if av == nil {
				return 1
			}
			return -1
		}
		if av == nil {
			return -1
		}
		return 1
	}

	if an, ok := asNumber(av); ok {
		if bn, ok := asNumber(bv); ok {
			return compareValues(an, bn, s.Desc)
		}
	}

	as := fmt.Sprintf("%v", av)
	bs := fmt.Sprintf("%v", bv)
	switch {
	case as == bs:
		return 0
	case (as < bs) != s.Desc:
		return -1
	default:
		return 1
	}
}

func compareValues(a, b float64, desc bool) int {
	switch {
	case a == b:
		return 0
	case (a < b) != desc:
		return -1
	default:
		return 1
	}
}
