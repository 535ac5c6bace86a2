package query

import (
	"strings"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
)

// Relevance sort chain: score first, then community signal, then recency.
// Recipes without ratings sort after rated ones at equal score.
func relevanceSort() []SortField {
	return []SortField{
		{Field: "_score", Desc: true},
		{Field: "avg_rating", Desc: true, MissingLast: true},
		{Field: "rating_count", Desc: true},
		{Field: "created_at", Desc: true},
	}
}

func visibilityFilter() Clause {
	return TermFilter{Field: "visibility", Value: domain.VisibilityPublic}
}

func ingredientMatch(name string, boost float64) Clause {
	return NestedMatch{
		Path: "ingredients",
		Inner: Match{
			Field:     "ingredients.name",
			Query:     name,
			Fuzziness: "AUTO",
		},
		Boost: boost,
	}
}

// freeTextShould builds the scored clauses for a free-text query: a
// multi-field fuzzy match, fuzzy matches inside nested ingredients and
// instructions, and an exact-phrase title match that outranks them all.
func freeTextShould(text string) []Clause {
	return []Clause{
		MultiMatch{
			Fields: []string{
				"title^3",
				"title.autocomplete^2",
				"description",
			},
			Query:        text,
			Fuzziness:    "AUTO",
			PrefixLength: 1,
		},
		ingredientMatch(text, 2),
		NestedMatch{
			Path: "instructions",
			Inner: Match{
				Field:     "instructions.description",
				Query:     text,
				Fuzziness: "AUTO",
			},
			Boost: 1,
		},
		MatchPhrase{Field: "title", Query: text, Boost: 5},
	}
}

func hardFilters(req *domain.SearchRequest) []Clause {
	filters := []Clause{visibilityFilter()}

	if len(req.Cuisines) > 0 {
		filters = append(filters, TermsFilter{Field: "cuisine", Values: req.Cuisines})
	}
	if len(req.Difficulties) > 0 {
		filters = append(filters, TermsFilter{Field: "difficulty", Values: req.Difficulties})
	}
	if req.MaxCookingTime != nil {
		lte := float64(*req.MaxCookingTime)
		filters = append(filters, RangeFilter{Field: "cooking_time", LTE: &lte})
	}
	if req.MinServings != nil || req.MaxServings != nil {
		r := RangeFilter{Field: "servings"}
		if req.MinServings != nil {
			gte := float64(*req.MinServings)
			r.GTE = &gte
		}
		if req.MaxServings != nil {
			lte := float64(*req.MaxServings)
			r.LTE = &lte
		}
		filters = append(filters, r)
	}
	if req.AuthorID != nil {
		filters = append(filters, TermFilter{Field: "author_id", Value: *req.AuthorID})
	}

	return filters
}

// BuildRecipeSearch translates a search request into a query: hard filters
// never affect scores, free text scores via should clauses, and an
// ingredient list means every ingredient must match.
func BuildRecipeSearch(req *domain.SearchRequest) Query {
	root := BoolQuery{Filter: hardFilters(req)}

	if req.HasFreeText() {
		root.Should = freeTextShould(req.Query)
		root.MinimumShouldMatch = 1
	}

	for _, name := range req.Ingredients {
		root.Must = append(root.Must, ingredientMatch(name, 0))
	}

	return Query{
		Root:           root,
		Sort:           relevanceSort(),
		From:           req.Skip,
		Size:           req.Take,
		Source:         []string{"id"},
		TrackTotalHits: true,
	}
}

// BuildPantrySearch ranks recipes by how many of the given ingredients they
// contain: any single match qualifies, and each extra match adds score.
func BuildPantrySearch(ingredients []string, skip, take int) Query {
	root := BoolQuery{
		Filter:             []Clause{visibilityFilter()},
		MinimumShouldMatch: 1,
	}
	for _, name := range ingredients {
		root.Should = append(root.Should, ingredientMatch(name, 1))
	}

	return Query{
		Root:           root,
		Sort:           relevanceSort(),
		From:           skip,
		Size:           take,
		Source:         []string{"id"},
		TrackTotalHits: true,
	}
}

// BuildIngredientSuggest builds an autocomplete query over the ingredient
// facet index. More-used ingredients rank first; match quality breaks ties.
func BuildIngredientSuggest(prefix string, size int) Query {
	prefix = strings.ToLower(strings.TrimSpace(prefix))

	return Query{
		Root: BoolQuery{
			Should: []Clause{
				Match{Field: "name.autocomplete", Query: prefix, Boost: 2},
				MatchPhrasePrefix{Field: "name", Query: prefix, Boost: 3},
				Wildcard{Field: "name.keyword", Pattern: "*" + prefix + "*", Boost: 1},
			},
			MinimumShouldMatch: 1,
		},
		Sort: []SortField{
			{Field: "usage_count", Desc: true},
			{Field: "_score", Desc: true},
		},
		Size:   size,
		Source: []string{"name"},
	}
}
