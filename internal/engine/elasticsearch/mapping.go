package elasticsearch

// Default index names; overridable through configuration.
const (
	DefaultRecipeIndex     = "cookbook_recipes"
	DefaultIngredientIndex = "cookbook_ingredients"
)

// analysis is shared by both indices. Autocomplete fields use an edge_ngram
// tokenizer at index time and a plain lowercase analyzer at query time, so
// the query text is matched against stored prefixes instead of being
// n-grammed itself.
var analysis = map[string]any{
	"analyzer": map[string]any{
		"recipe_analyzer": map[string]any{
			"type":      "custom",
			"tokenizer": "standard",
			"filter":    []string{"lowercase", "english_stop", "english_stemmer"},
		},
		"autocomplete_analyzer": map[string]any{
			"type":      "custom",
			"tokenizer": "autocomplete_tokenizer",
			"filter":    []string{"lowercase"},
		},
		"autocomplete_search": map[string]any{
			"type":      "custom",
			"tokenizer": "standard",
			"filter":    []string{"lowercase"},
		},
	},
	"tokenizer": map[string]any{
		"autocomplete_tokenizer": map[string]any{
			"type":        "edge_ngram",
			"min_gram":    2,
			"max_gram":    20,
			"token_chars": []string{"letter", "digit"},
		},
	},
	"filter": map[string]any{
		"english_stop": map[string]any{
			"type":      "stop",
			"stopwords": "_english_",
		},
		"english_stemmer": map[string]any{
			"type":     "stemmer",
			"language": "english",
		},
	},
}

// recipeIndexBody is the settings and mappings for the recipe index.
// Ingredients and instructions are nested so per-object matching works.
var recipeIndexBody = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 1,
		"analysis":           analysis,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"id": map[string]any{"type": "keyword"},
			"title": map[string]any{
				"type":     "text",
				"analyzer": "recipe_analyzer",
				"fields": map[string]any{
					"keyword": map[string]any{"type": "keyword"},
					"autocomplete": map[string]any{
						"type":            "text",
						"analyzer":        "autocomplete_analyzer",
						"search_analyzer": "autocomplete_search",
					},
				},
			},
			"description": map[string]any{
				"type":     "text",
				"analyzer": "recipe_analyzer",
			},
			"cuisine":      map[string]any{"type": "keyword"},
			"difficulty":   map[string]any{"type": "keyword"},
			"cooking_time": map[string]any{"type": "integer"},
			"servings":     map[string]any{"type": "integer"},
			"visibility":   map[string]any{"type": "keyword"},
			"author_id":    map[string]any{"type": "keyword"},
			"author_name": map[string]any{
				"type":   "text",
				"fields": map[string]any{"keyword": map[string]any{"type": "keyword"}},
			},
			"ingredients": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"name": map[string]any{
						"type":     "text",
						"analyzer": "recipe_analyzer",
						"fields": map[string]any{
							"keyword": map[string]any{"type": "keyword"},
							"autocomplete": map[string]any{
								"type":            "text",
								"analyzer":        "autocomplete_analyzer",
								"search_analyzer": "autocomplete_search",
							},
						},
					},
					"quantity": map[string]any{"type": "float"},
					"unit":     map[string]any{"type": "keyword"},
				},
			},
			"instructions": map[string]any{
				"type": "nested",
				"properties": map[string]any{
					"step_number": map[string]any{"type": "integer"},
					"description": map[string]any{
						"type":     "text",
						"analyzer": "recipe_analyzer",
					},
				},
			},
			"avg_rating":    map[string]any{"type": "float"},
			"rating_count":  map[string]any{"type": "integer"},
			"comment_count": map[string]any{"type": "integer"},
			"created_at":    map[string]any{"type": "date"},
			"updated_at":    map[string]any{"type": "date"},
		},
	},
}

// ingredientIndexBody holds the ingredient facet index used for
// autocomplete suggestions. Documents are keyed by normalized name.
var ingredientIndexBody = map[string]any{
	"settings": map[string]any{
		"number_of_shards":   1,
		"number_of_replicas": 1,
		"analysis":           analysis,
	},
	"mappings": map[string]any{
		"properties": map[string]any{
			"name": map[string]any{
				"type":     "text",
				"analyzer": "recipe_analyzer",
				"fields": map[string]any{
					"keyword": map[string]any{"type": "keyword"},
					"autocomplete": map[string]any{
						"type":            "text",
						"analyzer":        "autocomplete_analyzer",
						"search_analyzer": "autocomplete_search",
					},
				},
			},
			"usage_count": map[string]any{"type": "integer"},
			"category":    map[string]any{"type": "keyword"},
		},
	},
}
