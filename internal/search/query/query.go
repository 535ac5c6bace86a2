// Package query provides a typed representation of search queries. Services
// and builders work with clause structs; serialization to the engine's JSON
// body happens in one place, at the engine boundary. The in-memory engine
// interprets the same clause tree directly, so query semantics are testable
// without a running cluster.
package query

// Clause is a single query clause. Map returns its JSON-ready form.
type Clause interface {
	Map() map[string]any
}

// TermFilter matches documents whose keyword field equals Value exactly.
type TermFilter struct {
	Field string
	Value any
}

func (c TermFilter) Map() map[string]any {
	return map[string]any{"term": map[string]any{c.Field: c.Value}}
}

// TermsFilter matches documents whose keyword field equals any of Values.
type TermsFilter struct {
	Field  string
	Values []string
}

func (c TermsFilter) Map() map[string]any {
	return map[string]any{"terms": map[string]any{c.Field: c.Values}}
}

// RangeFilter matches numeric fields against optional bounds.
type RangeFilter struct {
	Field string
	GTE   *float64
	LTE   *float64
}

func (c RangeFilter) Map() map[string]any {
	bounds := map[string]any{}
	if c.GTE != nil {
		bounds["gte"] = *c.GTE
	}
	if c.LTE != nil {
		bounds["lte"] = *c.LTE
	}
	return map[string]any{"range": map[string]any{c.Field: bounds}}
}

// Match is a full-text match on a single field.
type Match struct {
	Field     string
	Query     string
	Fuzziness string
	Boost     float64
}

func (c Match) Map() map[string]any {
	body := map[string]any{"query": c.Query}
	if c.Fuzziness != "" {
		body["fuzziness"] = c.Fuzziness
	}
	if c.Boost != 0 {
		body["boost"] = c.Boost
	}
	return map[string]any{"match": map[string]any{c.Field: body}}
}

// MultiMatch is a full-text match across several fields. Per-field boosts
// use the "field^boost" notation in Fields.
type MultiMatch struct {
	Fields       []string
	Query        string
	Fuzziness    string
	PrefixLength int
}

func (c MultiMatch) Map() map[string]any {
	body := map[string]any{
		"query":  c.Query,
		"fields": c.Fields,
	}
	if c.Fuzziness != "" {
		body["fuzziness"] = c.Fuzziness
	}
	if c.PrefixLength > 0 {
		body["prefix_length"] = c.PrefixLength
	}
	return map[string]any{"multi_match": body}
}

// MatchPhrase matches the terms as an exact phrase.
type MatchPhrase struct {
	Field string
	Query string
	Boost float64
}

func (c MatchPhrase) Map() map[string]any {
	body := map[string]any{"query": c.Query}
	if c.Boost != 0 {
		body["boost"] = c.Boost
	}
	return map[string]any{"match_phrase": map[string]any{c.Field: body}}
}

// MatchPhrasePrefix matches a phrase whose last term is treated as a prefix.
type MatchPhrasePrefix struct {
	Field string
	Query string
	Boost float64
}

func (c MatchPhrasePrefix) Map() map[string]any {
	body := map[string]any{"query": c.Query}
	if c.Boost != 0 {
		body["boost"] = c.Boost
	}
	return map[string]any{"match_phrase_prefix": map[string]any{c.Field: body}}
}

// Wildcard matches a keyword field against a wildcard pattern.
type Wildcard struct {
	Field   string
	Pattern string
	Boost   float64
}

func (c Wildcard) Map() map[string]any {
	body := map[string]any{"value": c.Pattern}
	if c.Boost != 0 {
		body["boost"] = c.Boost
	}
	return map[string]any{"wildcard": map[string]any{c.Field: body}}
}

// NestedMatch runs an inner clause against a nested object field.
type NestedMatch struct {
	Path  string
	Inner Clause
	Boost float64
}

func (c NestedMatch) Map() map[string]any {
	body := map[string]any{
		"path":  c.Path,
		"query": c.Inner.Map(),
	}
	if c.Boost != 0 {
		body["boost"] = c.Boost
	}
	return map[string]any{"nested": body}
}

// BoolQuery combines clauses. Filter clauses never contribute to scoring;
// Must clauses all have to match; Should clauses are optional unless
// MinimumShouldMatch forces a floor.
type BoolQuery struct {
	Filter             []Clause
	Must               []Clause
	Should             []Clause
	MustNot            []Clause
	MinimumShouldMatch int
}

func (c BoolQuery) Map() map[string]any {
	b := map[string]any{}
	if len(c.Filter) > 0 {
		b["filter"] = mapClauses(c.Filter)
	}
	if len(c.Must) > 0 {
		b["must"] = mapClauses(c.Must)
	}
	if len(c.Should) > 0 {
		b["should"] = mapClauses(c.Should)
	}
	if len(c.MustNot) > 0 {
		b["must_not"] = mapClauses(c.MustNot)
	}
	if c.MinimumShouldMatch > 0 {
		b["minimum_should_match"] = c.MinimumShouldMatch
	}
	return map[string]any{"bool": b}
}

func mapClauses(clauses []Clause) []map[string]any {
	out := make([]map[string]any, 0, len(clauses))
	for _, c := range clauses {
		out = append(out, c.Map())
	}
	return out
}

// SortField is one entry in a sort chain.
type SortField struct {
	Field       string
	Desc        bool
	MissingLast bool
}

func (s SortField) Map() map[string]any {
	order := "asc"
	if s.Desc {
		order = "desc"
	}
	body := map[string]any{"order": order}
	if s.MissingLast {
		body["missing"] = "_last"
	}
	return map[string]any{s.Field: body}
}

// Query is a complete search request body.
type Query struct {
	Root           BoolQuery
	Sort           []SortField
	From           int
	Size           int
	Source         []string
	TrackTotalHits bool
}

// Body serializes the query into the engine's request body shape.
func (q Query) Body() map[string]any {
	body := map[string]any{
		"query": q.Root.Map(),
		"from":  q.From,
		"size":  q.Size,
	}
	if len(q.Sort) > 0 {
		sorts := make([]map[string]any, 0, len(q.Sort))
		for _, s := range q.Sort {
			sorts = append(sorts, s.Map())
		}
		body["sort"] = sorts
	}
	if len(q.Source) > 0 {
		body["_source"] = q.Source
	}
	if q.TrackTotalHits {
		body["track_total_hits"] = true
	}
	return body
}
