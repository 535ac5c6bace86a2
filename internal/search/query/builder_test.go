package query

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Sanketpjsakharkar/cookbook-connect-backend/internal/domain"
)

func TestBuildRecipeSearch_VisibilityAlwaysFiltered(t *testing.T) {
	q := BuildRecipeSearch(&domain.SearchRequest{Skip: 0, Take: 20})

	require.NotEmpty(t, q.Root.Filter)
	assert.Equal(t, TermFilter{Field: "visibility", Value: "public"}, q.Root.Filter[0])
	assert.Empty(t, q.Root.Should)
	assert.Empty(t, q.Root.Must)
}

func TestBuildRecipeSearch_FreeText(t *testing.T) {
	q := BuildRecipeSearch(&domain.SearchRequest{Query: "chicken curry", Take: 10})

	require.Len(t, q.Root.Should, 4)
	assert.Equal(t, 1, q.Root.MinimumShouldMatch)

	mm, ok := q.Root.Should[0].(MultiMatch)
	require.True(t, ok)
	assert.Contains(t, mm.Fields, "title^3")
	assert.Contains(t, mm.Fields, "title.autocomplete^2")
	assert.Equal(t, "AUTO", mm.Fuzziness)
	assert.Equal(t, 1, mm.PrefixLength)

	phrase, ok := q.Root.Should[3].(MatchPhrase)
	require.True(t, ok)
	assert.Equal(t, "title", phrase.Field)
	assert.InDelta(t, 5.0, phrase.Boost, 0.001)
}

func TestBuildRecipeSearch_IngredientsAreConjunctive(t *testing.T) {
	q := BuildRecipeSearch(&domain.SearchRequest{
		Ingredients: []string{"chicken", "garlic", "ginger"},
		Take:        20,
	})

	require.Len(t, q.Root.Must, 3)
	for _, c := range q.Root.Must {
		nested, ok := c.(NestedMatch)
		require.True(t, ok)
		assert.Equal(t, "ingredients", nested.Path)
	}
	// Ingredient-only search has no should clauses to satisfy.
	assert.Zero(t, q.Root.MinimumShouldMatch)
}

func TestBuildRecipeSearch_HardFilters(t *testing.T) {
	maxTime := 30
	minServ, maxServ := 2, 4
	author := "0b8f6f0e-7a39-4f1c-9a52-0f6f0f4b2d71"

	q := BuildRecipeSearch(&domain.SearchRequest{
		Cuisines:       []string{"italian", "thai"},
		Difficulties:   []string{"easy"},
		MaxCookingTime: &maxTime,
		MinServings:    &minServ,
		MaxServings:    &maxServ,
		AuthorID:       &author,
		Take:           20,
	})

	require.Len(t, q.Root.Filter, 6)
	assert.Equal(t, TermsFilter{Field: "cuisine", Values: []string{"italian", "thai"}}, q.Root.Filter[1])
	assert.Equal(t, TermsFilter{Field: "difficulty", Values: []string{"easy"}}, q.Root.Filter[2])

	cooking, ok := q.Root.Filter[3].(RangeFilter)
	require.True(t, ok)
	assert.Nil(t, cooking.GTE)
	assert.InDelta(t, 30.0, *cooking.LTE, 0.001)

	servings, ok := q.Root.Filter[4].(RangeFilter)
	require.True(t, ok)
	assert.InDelta(t, 2.0, *servings.GTE, 0.001)
	assert.InDelta(t, 4.0, *servings.LTE, 0.001)

	assert.Equal(t, TermFilter{Field: "author_id", Value: author}, q.Root.Filter[5])
}

func TestBuildRecipeSearch_PaginationAndSort(t *testing.T) {
	q := BuildRecipeSearch(&domain.SearchRequest{Skip: 40, Take: 20})

	assert.Equal(t, 40, q.From)
	assert.Equal(t, 20, q.Size)
	assert.Equal(t, []string{"id"}, q.Source)
	assert.True(t, q.TrackTotalHits)

	require.Len(t, q.Sort, 4)
	assert.Equal(t, "_score", q.Sort[0].Field)
	assert.Equal(t, "avg_rating", q.Sort[1].Field)
	assert.True(t, q.Sort[1].MissingLast)
	assert.Equal(t, "rating_count", q.Sort[2].Field)
	assert.Equal(t, "created_at", q.Sort[3].Field)
}

func TestBuildPantrySearch_DisjunctiveWithFloor(t *testing.T) {
	q := BuildPantrySearch([]string{"egg", "flour", "milk"}, 0, 20)

	assert.Empty(t, q.Root.Must)
	require.Len(t, q.Root.Should, 3)
	assert.Equal(t, 1, q.Root.MinimumShouldMatch)
	assert.Equal(t, TermFilter{Field: "visibility", Value: "public"}, q.Root.Filter[0])
}

func TestBuildIngredientSuggest(t *testing.T) {
	q := BuildIngredientSuggest("  Chick ", 10)

	require.Len(t, q.Root.Should, 3)

	match, ok := q.Root.Should[0].(Match)
	require.True(t, ok)
	assert.Equal(t, "name.autocomplete", match.Field)
	assert.Equal(t, "chick", match.Query)

	wild, ok := q.Root.Should[2].(Wildcard)
	require.True(t, ok)
	assert.Equal(t, "*chick*", wild.Pattern)

	// Usage count dominates; match quality only breaks ties.
	require.Len(t, q.Sort, 2)
	assert.Equal(t, "usage_count", q.Sort[0].Field)
	assert.Equal(t, "_score", q.Sort[1].Field)
	assert.Equal(t, []string{"name"}, q.Source)
}
