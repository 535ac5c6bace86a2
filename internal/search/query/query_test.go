package query

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBoolQueryMap(t *testing.T) {
	q := BoolQuery{
		Filter: []Clause{TermFilter{Field: "visibility", Value: "public"}},
		Should: []Clause{
			Match{Field: "title", Query: "pasta", Fuzziness: "AUTO"},
		},
		MinimumShouldMatch: 1,
	}

	m := q.Map()
	b, ok := m["bool"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, 1, b["minimum_should_match"])
	assert.NotContains(t, b, "must")
	assert.NotContains(t, b, "must_not")

	filters, ok := b["filter"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, filters, 1)
	assert.Equal(t, map[string]any{"term": map[string]any{"visibility": "public"}}, filters[0])
}

func TestNestedMatchMap(t *testing.T) {
	c := NestedMatch{
		Path:  "ingredients",
		Inner: Match{Field: "ingredients.name", Query: "basil", Fuzziness: "AUTO"},
		Boost: 2,
	}

	m := c.Map()
	nested, ok := m["nested"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "ingredients", nested["path"])
	assert.Equal(t, 2.0, nested["boost"])

	inner, ok := nested["query"].(map[string]any)
	require.True(t, ok)
	assert.Contains(t, inner, "match")
}

func TestRangeFilterMap(t *testing.T) {
	lte := 45.0
	c := RangeFilter{Field: "cooking_time", LTE: &lte}

	m := c.Map()
	r := m["range"].(map[string]any)["cooking_time"].(map[string]any)
	assert.Equal(t, 45.0, r["lte"])
	assert.NotContains(t, r, "gte")
}

func TestQueryBody(t *testing.T) {
	q := Query{
		Root: BoolQuery{
			Filter: []Clause{TermFilter{Field: "visibility", Value: "public"}},
		},
		Sort: []SortField{
			{Field: "_score", Desc: true},
			{Field: "avg_rating", Desc: true, MissingLast: true},
		},
		From:           20,
		Size:           10,
		Source:         []string{"id"},
		TrackTotalHits: true,
	}

	body := q.Body()
	assert.Equal(t, 20, body["from"])
	assert.Equal(t, 10, body["size"])
	assert.Equal(t, []string{"id"}, body["_source"])
	assert.Equal(t, true, body["track_total_hits"])

	sorts, ok := body["sort"].([]map[string]any)
	require.True(t, ok)
	require.Len(t, sorts, 2)
	assert.Equal(t, map[string]any{"order": "desc"}, sorts[0]["_score"])
	assert.Equal(t, map[string]any{"order": "desc", "missing": "_last"}, sorts[1]["avg_rating"])

	// The whole body must be JSON-serializable for the engine request.
	_, err := json.Marshal(body)
	require.NoError(t, err)
}
